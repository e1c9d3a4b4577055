package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default config should validate: %v", err)
	}
	if cfg.Width != 380 || cfg.Height != 380 {
		t.Errorf("Expected 380x380, got %dx%d", cfg.Width, cfg.Height)
	}
	if cfg.RequestDelay != 5*time.Second || cfg.BatchSize != 200 || cfg.BatchDelay != 20*time.Second {
		t.Errorf("Unexpected pacing defaults: %+v", cfg.Batch())
	}
	if cfg.OutputDir != "images" || cfg.ArchiveName != "images.zip" {
		t.Errorf("Unexpected path defaults: %s %s", cfg.OutputDir, cfg.ArchiveName)
	}
}

func TestLoadYAMLThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "imagebatch.yaml")
	content := `output_dir: /srv/images
request_delay: 2s
batch_size: 50
provider: google
google_api_key: from-file
google_cx: cx-1
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("IMAGEBATCH_BATCH_DELAY", "90")
	t.Setenv("IMAGEBATCH_GOOGLE_API_KEY", "from-env")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.OutputDir != "/srv/images" {
		t.Errorf("Expected output dir from file, got %s", cfg.OutputDir)
	}
	if cfg.RequestDelay != 2*time.Second || cfg.BatchSize != 50 {
		t.Errorf("Unexpected pacing from file: %+v", cfg.Batch())
	}
	if cfg.BatchDelay != 90*time.Second {
		t.Errorf("Expected batch delay from env, got %s", cfg.BatchDelay)
	}
	if cfg.GoogleAPIKey != "from-env" {
		t.Errorf("Expected env to override file, got %s", cfg.GoogleAPIKey)
	}
	if cfg.Width != 380 {
		t.Errorf("Expected default width to survive, got %d", cfg.Width)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{name: "bad int", env: map[string]string{"IMAGEBATCH_BATCH_SIZE": "lots"}, want: "IMAGEBATCH_BATCH_SIZE"},
		{name: "zero batch", env: map[string]string{"IMAGEBATCH_BATCH_SIZE": "0"}, want: "batch_size"},
		{name: "negative delay", env: map[string]string{"IMAGEBATCH_REQUEST_DELAY": "-1s"}, want: "delays"},
		{name: "bad provider", env: map[string]string{"IMAGEBATCH_PROVIDER": "altavista"}, want: "unknown provider"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load("")
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Errorf("Expected error for missing config file")
	}
}
