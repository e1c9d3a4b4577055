package batch

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/lehigh-university-libraries/imagebatch/internal/archive"
	"github.com/lehigh-university-libraries/imagebatch/internal/table"
)

// Run processes records with a fresh controller and, once it completes,
// archives everything under outputDir into Result.Archive.
func Run(ctx context.Context, records []table.Record, fetcher Fetcher, config Config, hooks Hooks, outputDir string) (*Result, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	controller := NewController(fetcher, config, hooks)

	result, err := controller.Run(ctx, records)
	if err != nil {
		return result, err
	}

	slog.Info("Building archive", "dir", outputDir)
	data, err := archive.Build(outputDir)
	if err != nil {
		return result, fmt.Errorf("failed to build archive: %w", err)
	}
	result.Archive = data

	slog.Info("Run complete",
		"total", result.Total,
		"processed", result.Processed,
		"stored", result.Stored,
		"missed", result.Missed,
		"skipped", result.Skipped,
		"failed", result.Failed,
		"archive_bytes", len(data))
	return result, nil
}
