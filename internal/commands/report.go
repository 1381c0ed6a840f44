package commands

import (
	"fmt"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/cleared-dev/fxgains/internal/config"
	"github.com/cleared-dev/fxgains/internal/ledger"
	"github.com/cleared-dev/fxgains/internal/logging"
	"github.com/cleared-dev/fxgains/internal/matchlog"
	"github.com/cleared-dev/fxgains/internal/report"
	"github.com/cleared-dev/fxgains/internal/source"
)

const (
	defaultFile = "data/sample.csv"
	importDir   = "import"
	matchesDir  = "logs"
)

type reportOptions struct {
	file       string
	dir        string
	rule       string
	configPath string
	format     string
	matches    string
	logLevel   string
}

func newReportCommand() *cobra.Command {
	var opts reportOptions

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Match sales against basis lots and report realized gains",
		Long: `Reads EUR/USD conversions, matches every EUR sale against prior EUR
purchase lots using the accounting rule, and prints the realized gain of each
sale and the taxable total.

With --dir every CSV file in the directory is ingested as its own batch, in
file name order.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			logger, err := logging.New(cfg.Logging, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			return runReport(cmd, cfg, logger, opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.file, "file", "f", defaultFile, "transactions CSV file")
	f.StringVar(&opts.dir, "dir", "", "directory of transaction CSV files, one batch per file")
	f.StringVar(&opts.rule, "rule", "", "accounting rule (FIFO, LIFO or HIFO); overrides config")
	f.StringVar(&opts.configPath, "config", config.FileName, "config file")
	f.StringVar(&opts.format, "format", report.Formats[0], fmt.Sprintf("output format %v", report.Formats))
	f.StringVar(&opts.matches, "matches", "", "append every lot match to this CSV log")
	f.StringVar(&opts.logLevel, "log-level", "", "log level; overrides config")
	cmd.MarkFlagsMutuallyExclusive("file", "dir")

	return cmd
}

// loadConfig layers the config file, FXGAINS_* variables and flags.
func loadConfig(cmd *cobra.Command, opts reportOptions) (*config.Config, error) {
	cfg, err := config.LoadOrDefault(opts.configPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	if cmd.Flags().Changed("rule") {
		cfg.AccountingRule = opts.rule
	}
	if cmd.Flags().Changed("log-level") {
		cfg.Logging.Level = opts.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func runReport(cmd *cobra.Command, cfg *config.Config, logger *logrus.Logger, opts reportOptions) error {
	rule, err := cfg.Rule()
	if err != nil {
		return err
	}
	materiality, err := cfg.Materiality()
	if err != nil {
		return err
	}
	residual, err := cfg.ResidualBasis()
	if err != nil {
		return err
	}

	sink, err := report.NewSink(opts.format, cmd.OutOrStdout())
	if err != nil {
		return err
	}

	l, err := ledger.New(rule,
		ledger.WithLogger(logger),
		ledger.WithMaterialityThreshold(materiality),
		ledger.WithResidualThreshold(residual),
	)
	if err != nil {
		return err
	}

	paths, err := inputFiles(opts)
	if err != nil {
		return err
	}
	registry := source.DefaultRegistry()
	for _, path := range paths {
		txs, err := registry.ReadFile(path)
		if err != nil {
			return err
		}
		if err := l.AddTransactions(txs); err != nil {
			return fmt.Errorf("adding %s: %w", path, err)
		}
		logger.WithFields(logrus.Fields{
			"file":         path,
			"transactions": len(txs),
		}).Info("ingested batch")
	}

	if err := l.Report(); err != nil {
		return err
	}
	if err := sink.Write(report.FromLedger(l)); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}

	if opts.matches != "" {
		if err := matchlog.Append(opts.matches, l.Matches()); err != nil {
			return fmt.Errorf("writing match log: %w", err)
		}
	}

	logger.WithFields(logrus.Fields{
		"rule":          rule.String(),
		"taxable_gains": l.TaxableGains().StringFixed(2),
		"unmatched":     len(l.Unmatched()),
	}).Info("report complete")
	return nil
}

func inputFiles(opts reportOptions) ([]string, error) {
	if opts.dir == "" {
		return []string{opts.file}, nil
	}
	files, err := source.Scan(opts.dir)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no CSV files in %s", filepath.Clean(opts.dir))
	}
	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = f.Path
	}
	return paths, nil
}
