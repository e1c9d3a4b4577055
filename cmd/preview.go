package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lehigh-university-libraries/imagebatch/internal/report"
	"github.com/lehigh-university-libraries/imagebatch/internal/table"
)

func newPreviewCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "preview <table>",
		Short: "Show the first rows of a table and how many are eligible",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := table.NewLoader(args[0]).Load()
			if err != nil {
				return err
			}

			eligible := 0
			for _, r := range t.Records {
				if r.Eligible() {
					eligible++
				}
			}

			fmt.Fprintln(cmd.OutOrStdout(), report.Preview(t))
			fmt.Fprintf(cmd.OutOrStdout(), "\n%d records, %d eligible, %d will be skipped\n",
				len(t.Records), eligible, len(t.Records)-eligible)
			return nil
		},
	}
}
