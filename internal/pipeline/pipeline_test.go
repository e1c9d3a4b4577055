package pipeline

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/jpeg"
	"os"
	"path/filepath"
	"testing"

	"github.com/lehigh-university-libraries/imagebatch/internal/batch"
	"github.com/lehigh-university-libraries/imagebatch/internal/config"
)

type jpegSearcher struct {
	calls int
}

func (j *jpegSearcher) Search(ctx context.Context, keyword string, limit int, dir string) error {
	j.calls++
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, image.NewGray(image.Rect(0, 0, 64, 48)), nil); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, "1.jpg"), buf.Bytes(), 0644)
}

func testConfig(t *testing.T) config.Config {
	t.Helper()
	root := t.TempDir()
	cfg := config.Default()
	cfg.OutputDir = filepath.Join(root, "out", "images")
	cfg.ScratchDir = filepath.Join(root, "scratch")
	cfg.RequestDelay = 0
	cfg.BatchDelay = 0
	return cfg
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.BatchSize = 0
	if _, err := New(context.Background(), cfg); err == nil {
		t.Errorf("Expected error for zero batch size")
	}
}

func TestNewBuildsConfiguredSearcher(t *testing.T) {
	cfg := testConfig(t)
	p, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if p.searcher == nil {
		t.Errorf("Expected a default searcher")
	}
}

func TestRunFileWritesArchive(t *testing.T) {
	cfg := testConfig(t)
	searcher := &jpegSearcher{}
	p, err := New(context.Background(), cfg, WithSearcher(searcher))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	input := filepath.Join(t.TempDir(), "input.csv")
	csv := "ID,Name,Notes\n7,Red Fox,x\n,Missing ID,y\n8,Otter,z\n"
	if err := os.WriteFile(input, []byte(csv), 0644); err != nil {
		t.Fatal(err)
	}

	var progress []int
	result, err := p.RunFile(context.Background(), input, batch.Hooks{
		Progress: func(processed, total int) { progress = append(progress, processed) },
	})
	if err != nil {
		t.Fatalf("RunFile failed: %v", err)
	}

	if searcher.calls != 2 {
		t.Errorf("Expected 2 searches, got %d", searcher.calls)
	}
	if result.Stored != 2 || result.Skipped != 1 {
		t.Errorf("Expected 2 stored and 1 skipped, got %+v", result)
	}
	if len(progress) != 2 || progress[1] != 2 {
		t.Errorf("Unexpected progress updates: %v", progress)
	}
	for _, id := range []string{"7", "8"} {
		if _, err := os.Stat(filepath.Join(cfg.OutputDir, id+".jpg")); err != nil {
			t.Errorf("Expected %s.jpg: %v", id, err)
		}
	}

	path, err := p.WriteArchive(result)
	if err != nil {
		t.Fatalf("WriteArchive failed: %v", err)
	}
	if want := filepath.Join(filepath.Dir(cfg.OutputDir), "images.zip"); path != want {
		t.Errorf("Expected archive at %s, got %s", want, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(data, result.Archive) {
		t.Errorf("Archive on disk differs from result")
	}
}

func TestRunFileMissingColumns(t *testing.T) {
	cfg := testConfig(t)
	p, err := New(context.Background(), cfg, WithSearcher(&jpegSearcher{}))
	if err != nil {
		t.Fatal(err)
	}
	input := filepath.Join(t.TempDir(), "input.csv")
	if err := os.WriteFile(input, []byte("Identifier,Title\n1,a\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := p.RunFile(context.Background(), input, batch.Hooks{}); err == nil {
		t.Errorf("Expected missing columns error")
	}
}

func TestArchivePath(t *testing.T) {
	cwd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name      string
		outputDir string
		archive   string
		want      string
		wantErr   bool
	}{
		{name: "relative", outputDir: "images", archive: "images.zip", want: filepath.Join(cwd, "images.zip")},
		{name: "nested", outputDir: "/data/run/images/", archive: "images.zip", want: "/data/run/images.zip"},
		{name: "absolute", outputDir: "images", archive: "/tmp/out.zip", want: "/tmp/out.zip"},
		{name: "current dir", outputDir: ".", archive: "images.zip", want: filepath.Join(filepath.Dir(cwd), "images.zip")},
		{name: "filesystem root", outputDir: "/", archive: "images.zip", wantErr: true},
		{name: "absolute inside output", outputDir: "/data/images", archive: "/data/images/all.zip", wantErr: true},
		{name: "relative into output", outputDir: "/data/images", archive: "images/all.zip", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &Pipeline{cfg: config.Config{OutputDir: tt.outputDir, ArchiveName: tt.archive}}
			got, err := p.ArchivePath()
			if tt.wantErr {
				if !errors.Is(err, ErrArchiveInOutput) {
					t.Errorf("Expected ErrArchiveInOutput, got %q, %v", got, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ArchivePath failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("Expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestNewRejectsArchiveInsideOutput(t *testing.T) {
	cfg := testConfig(t)
	cfg.ArchiveName = filepath.Join(cfg.OutputDir, "images.zip")
	if _, err := New(context.Background(), cfg, WithSearcher(&jpegSearcher{})); !errors.Is(err, ErrArchiveInOutput) {
		t.Errorf("Expected ErrArchiveInOutput, got %v", err)
	}
}
