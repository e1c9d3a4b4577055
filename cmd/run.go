package cmd

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/lehigh-university-libraries/imagebatch/internal/batch"
	"github.com/lehigh-university-libraries/imagebatch/internal/pipeline"
	"github.com/lehigh-university-libraries/imagebatch/internal/report"
	"github.com/lehigh-university-libraries/imagebatch/internal/table"
)

func newRunCmd(global *globalFlags) *cobra.Command {
	var (
		settings   settingFlags
		reportPath string
	)

	cmd := &cobra.Command{
		Use:   "run <table>",
		Short: "Download, resize and archive one image per table row",
		Long: `Reads the table, fetches one image per eligible (ID, Name) row and writes
<output>/<ID>.jpg. Rows with an empty ID or Name, or an ID of zero, are skipped
with a warning. When every row has been handled, the output directory is zipped.`,
		Example: `  # Process a spreadsheet with default pacing
  imagebatch run names.xlsx

  # Faster pacing against the Google Custom Search API, with a YAML report
  IMAGEBATCH_GOOGLE_API_KEY=... IMAGEBATCH_GOOGLE_CX=... \
    imagebatch run names.csv --provider google --request-delay 1s --report run.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, global, &settings)
			if err != nil {
				return err
			}

			t, err := table.NewLoader(args[0]).Load()
			if err != nil {
				return err
			}

			p, err := pipeline.New(cmd.Context(), cfg)
			if err != nil {
				return err
			}

			hooks := batch.Hooks{
				Progress: func(processed, total int) {
					slog.Info("Progress", "processed", processed, "total", total)
				},
				Pause: func(processed int, delay time.Duration) {
					fmt.Fprintln(cmd.ErrOrStderr(), batch.PauseNotice(processed, delay))
				},
			}

			result, runErr := p.Run(cmd.Context(), t.Records, hooks)
			if result != nil {
				fmt.Fprintln(cmd.OutOrStdout(), report.Table(result))
			}

			var archivePath string
			if runErr == nil {
				archivePath, err = p.WriteArchive(result)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "\nArchive saved to: %s\n", archivePath)
			}

			if reportPath != "" && result != nil {
				if err := report.Save(reportPath, report.New(args[0], archivePath, cfg, result)); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Report saved to: %s\n", reportPath)
			}

			return runErr
		},
	}

	settings.register(cmd)
	cmd.Flags().StringVar(&reportPath, "report", "", "Write a YAML run report to this path")

	return cmd
}
