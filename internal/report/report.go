package report

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/lehigh-university-libraries/imagebatch/internal/batch"
	"github.com/lehigh-university-libraries/imagebatch/internal/config"
)

// RunConfig is the configuration section of a run report
type RunConfig struct {
	Input        string `yaml:"input"`
	OutputDir    string `yaml:"outputdir"`
	Archive      string `yaml:"archive"`
	Provider     string `yaml:"provider"`
	Width        int    `yaml:"width"`
	Height       int    `yaml:"height"`
	RequestDelay string `yaml:"requestdelay"`
	BatchSize    int    `yaml:"batchsize"`
	BatchDelay   string `yaml:"batchdelay"`
}

// Summary holds the counters of a run
type Summary struct {
	Total      int    `yaml:"total"`
	Processed  int    `yaml:"processed"`
	Stored     int    `yaml:"stored"`
	Missed     int    `yaml:"missed"`
	Skipped    int    `yaml:"skipped"`
	Failed     int    `yaml:"failed"`
	StartedAt  string `yaml:"startedat"`
	FinishedAt string `yaml:"finishedat"`
	Duration   string `yaml:"duration"`
}

// Report is the document written by Save
type Report struct {
	Config   RunConfig           `yaml:"config"`
	Summary  Summary             `yaml:"summary"`
	Warnings []string            `yaml:"warnings,omitempty"`
	Errors   []batch.RecordError `yaml:"errors,omitempty"`
}

// New builds a report for result. API keys are never included.
func New(input, archivePath string, cfg config.Config, result *batch.Result) Report {
	return Report{
		Config: RunConfig{
			Input:        input,
			OutputDir:    cfg.OutputDir,
			Archive:      archivePath,
			Provider:     cfg.Provider,
			Width:        cfg.Width,
			Height:       cfg.Height,
			RequestDelay: cfg.RequestDelay.String(),
			BatchSize:    cfg.BatchSize,
			BatchDelay:   cfg.BatchDelay.String(),
		},
		Summary: Summary{
			Total:      result.Total,
			Processed:  result.Processed,
			Stored:     result.Stored,
			Missed:     result.Missed,
			Skipped:    result.Skipped,
			Failed:     result.Failed,
			StartedAt:  formatTime(result.StartedAt),
			FinishedAt: formatTime(result.FinishedAt),
			Duration:   result.Duration().Round(time.Millisecond).String(),
		},
		Warnings: result.Warnings,
		Errors:   result.Errors,
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}

// Save writes r as YAML to path
func Save(path string, r Report) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create report directory: %w", err)
		}
	}

	data, err := yaml.Marshal(&r)
	if err != nil {
		return fmt.Errorf("failed to marshal YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write YAML file: %w", err)
	}
	return nil
}

// Read loads a report written by Save
func Read(path string) (Report, error) {
	var r Report
	data, err := os.ReadFile(path)
	if err != nil {
		return r, fmt.Errorf("failed to read report: %w", err)
	}
	if err := yaml.Unmarshal(data, &r); err != nil {
		return r, fmt.Errorf("failed to parse report %s: %w", path, err)
	}
	return r, nil
}
