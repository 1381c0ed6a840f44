package commands

import (
	"fmt"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/fxgains/internal/matchlog"
	"github.com/cleared-dev/fxgains/internal/model"
)

func newMatchesCommand() *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "matches",
		Short: "Show the basis lot matches recorded by report --matches",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			matches, err := matchlog.Read(path)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(matches) == 0 {
				fmt.Fprintf(out, "No matches in %s\n", path)
				return nil
			}

			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
			fmt.Fprintln(tw, "SALE\tDATE\tLOT\tLOT DATE\tEUR\tLOT RATE\tSALE RATE\tGAIN\tCLEARED\t")
			for _, m := range matches {
				fmt.Fprintf(tw, "%d\t%s\t%d\t%s\t%s\t%s\t%s\t%s\t%s\t\n",
					m.SaleID, m.SaleDate.Format(model.DateFormat),
					m.LotID, m.LotDate.Format(model.DateFormat),
					m.Amount.StringFixed(2), m.LotRate, m.SaleRate,
					m.Gain.StringFixed(2), m.ResidualCleared.StringFixed(2),
				)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringVar(&path, "file", filepath.Join(matchesDir, "matches.csv"), "match log CSV")

	return cmd
}
