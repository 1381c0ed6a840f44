package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/fxgains/internal/config"
	"github.com/cleared-dev/fxgains/internal/model"
)

func newInitCommand() *cobra.Command {
	var rule string

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new fxgains project",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			absDir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}

			r, err := model.ParseRule(rule)
			if err != nil {
				return err
			}

			if err := runInit(absDir, r); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Initialized fxgains project at %s (%s)\n", absDir, r)
			return nil
		},
	}

	cmd.Flags().StringVar(&rule, "rule", model.FIFO.String(), "accounting rule (FIFO, LIFO or HIFO)")

	return cmd
}

func runInit(dir string, rule model.Rule) error {
	cfgPath := filepath.Join(dir, config.FileName)
	if _, err := os.Stat(cfgPath); err == nil {
		return fmt.Errorf("%s already exists", cfgPath)
	}

	for _, d := range []string{importDir, matchesDir} {
		if err := os.MkdirAll(filepath.Join(dir, d), 0o755); err != nil {
			return fmt.Errorf("creating directory %s: %w", d, err)
		}
	}

	cfg := config.Default()
	cfg.AccountingRule = rule.String()
	if err := config.Save(cfgPath, cfg); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	if err := os.WriteFile(filepath.Join(dir, importDir, ".gitkeep"), []byte{}, 0o644); err != nil {
		return fmt.Errorf("writing .gitkeep: %w", err)
	}

	gitignore := matchesDir + "/\n.env\n"
	if err := os.WriteFile(filepath.Join(dir, ".gitignore"), []byte(gitignore), 0o644); err != nil {
		return fmt.Errorf("writing .gitignore: %w", err)
	}
	return nil
}
