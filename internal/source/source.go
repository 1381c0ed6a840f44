// Package source reads raw transaction records from files.
package source

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cleared-dev/fxgains/internal/model"
)

// TransactionSource yields raw transaction records in file order.
type TransactionSource interface {
	Records() ([]model.RawRecord, error)
}

// Factory builds a source reading from r.
type Factory func(r io.Reader) TransactionSource

// Registry maps file formats to source factories.
type Registry struct {
	factories map[string]Factory
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a factory for format. Panics on duplicate format.
func (r *Registry) Register(format string, f Factory) {
	key := strings.ToLower(format)
	if _, ok := r.factories[key]; ok {
		panic("duplicate source format: " + key)
	}
	r.factories[key] = f
}

// Get returns the factory for format, or nil.
func (r *Registry) Get(format string) Factory {
	return r.factories[strings.ToLower(format)]
}

// DefaultRegistry returns a registry with all built-in formats.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register("csv", func(rd io.Reader) TransactionSource { return NewCSV(rd) })
	return r
}

// ForPath returns the factory matching the file extension of path.
func (r *Registry) ForPath(path string) (Factory, error) {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	f := r.Get(ext)
	if f == nil {
		return nil, fmt.Errorf("no source for %q files", ext)
	}
	return f, nil
}

// Transactions validates every record of src and builds transactions. The
// first invalid record aborts the batch.
func Transactions(src TransactionSource) ([]*model.Transaction, error) {
	records, err := src.Records()
	if err != nil {
		return nil, err
	}
	txs := make([]*model.Transaction, 0, len(records))
	for i, rec := range records {
		tx, err := model.NewTransaction(rec)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i+1, err)
		}
		txs = append(txs, tx)
	}
	return txs, nil
}

// ReadFile loads and validates every transaction in the file at path.
func (r *Registry) ReadFile(path string) ([]*model.Transaction, error) {
	factory, err := r.ForPath(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	txs, err := Transactions(factory(f))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return txs, nil
}

// FileInfo describes a transaction file in an import directory.
type FileInfo struct {
	Name string
	Path string
	Size int64
}

// Scan returns the CSV files directly inside dir, sorted by name. A missing
// directory yields no files.
func Scan(dir string) ([]FileInfo, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading import dir: %w", err)
	}

	var files []FileInfo
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if !strings.HasSuffix(strings.ToLower(e.Name()), ".csv") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", e.Name(), err)
		}
		files = append(files, FileInfo{
			Name: e.Name(),
			Path: filepath.Join(dir, e.Name()),
			Size: info.Size(),
		})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, nil
}
