package cmd

import (
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/lehigh-university-libraries/imagebatch/internal/config"
)

type globalFlags struct {
	configPath string
	verbose    bool
}

func NewRootCmd() *cobra.Command {
	flags := &globalFlags{}

	cmd := &cobra.Command{
		Use:   "imagebatch",
		Short: "Fetch one image per name from a table and bundle them as a zip",
		Long: `imagebatch reads a table with ID and Name columns (CSV, XLSX, Parquet or JSONL),
searches the web for one image per name, resizes each to 380x380, saves it as
<ID>.jpg and bundles everything into images.zip.

Requests are paced to stay polite to the search provider: a pause after every
record and a longer one after every batch.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()

			level := slog.LevelInfo
			if flags.verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		},
	}

	cmd.PersistentFlags().StringVar(&flags.configPath, "config", "", "Path to a YAML config file")
	cmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "Enable debug logging")

	// Add subcommands
	cmd.AddCommand(newRunCmd(flags))
	cmd.AddCommand(newServeCmd(flags))
	cmd.AddCommand(newPreviewCmd())

	return cmd
}

// settingFlags are the config values every processing command can override
type settingFlags struct {
	outputDir    string
	scratchDir   string
	archiveName  string
	provider     string
	requestDelay time.Duration
	batchSize    int
	batchDelay   time.Duration
}

func (s *settingFlags) register(cmd *cobra.Command) {
	defaults := config.Default()
	cmd.Flags().StringVarP(&s.outputDir, "output", "o", defaults.OutputDir, "Directory for <ID>.jpg files")
	cmd.Flags().StringVar(&s.scratchDir, "scratch", defaults.ScratchDir, "Directory for per-record search downloads (default: system temp)")
	cmd.Flags().StringVar(&s.archiveName, "archive", defaults.ArchiveName, "Archive file name, placed next to the output directory")
	cmd.Flags().StringVar(&s.provider, "provider", defaults.Provider, "Image search provider (web, google)")
	cmd.Flags().DurationVar(&s.requestDelay, "request-delay", defaults.RequestDelay, "Pause after every record")
	cmd.Flags().IntVar(&s.batchSize, "batch-size", defaults.BatchSize, "Records per batch")
	cmd.Flags().DurationVar(&s.batchDelay, "batch-delay", defaults.BatchDelay, "Pause after every batch")
}

// loadConfig layers explicitly set flags over the config file and environment
func loadConfig(cmd *cobra.Command, global *globalFlags, s *settingFlags) (config.Config, error) {
	cfg, err := config.Load(global.configPath)
	if err != nil {
		return cfg, err
	}
	if s == nil {
		return cfg, nil
	}

	f := cmd.Flags()
	if f.Changed("output") {
		cfg.OutputDir = s.outputDir
	}
	if f.Changed("scratch") {
		cfg.ScratchDir = s.scratchDir
	}
	if f.Changed("archive") {
		cfg.ArchiveName = s.archiveName
	}
	if f.Changed("provider") {
		cfg.Provider = s.provider
	}
	if f.Changed("request-delay") {
		cfg.RequestDelay = s.requestDelay
	}
	if f.Changed("batch-size") {
		cfg.BatchSize = s.batchSize
	}
	if f.Changed("batch-delay") {
		cfg.BatchDelay = s.batchDelay
	}
	return cfg, cfg.Validate()
}
