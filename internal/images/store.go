package images

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/lehigh-university-libraries/imagebatch/internal/search"
	"github.com/lehigh-university-libraries/imagebatch/internal/utils"
)

const (
	DefaultWidth  = 380
	DefaultHeight = 380
	StoredExt     = ".jpg"
)

var (
	// ErrDecode means a fetched file is not an image this package can read
	ErrDecode = errors.New("failed to decode image")

	// ErrUnsafeID means the identifier would place the stored file outside the output directory
	ErrUnsafeID = errors.New("identifier escapes the output directory")
)

// Outcome tells whether a unit of work stored an image
type Outcome int

const (
	OutcomeMissed Outcome = iota
	OutcomeStored
)

func (o Outcome) String() string {
	if o == OutcomeStored {
		return "stored"
	}
	return "missed"
}

// StoreConfig holds the paths and sizes a Store works with
type StoreConfig struct {
	OutputDir  string
	ScratchDir string
	Width      int
	Height     int
	// Extensions the searcher writes, matched case-insensitively
	Extensions []string
}

// Store runs the fetch, resize and store steps for one record at a time
type Store struct {
	searcher search.Searcher
	config   StoreConfig
}

// NewStore creates a Store writing into cfg.OutputDir
func NewStore(searcher search.Searcher, cfg StoreConfig) *Store {
	if cfg.Width <= 0 {
		cfg.Width = DefaultWidth
	}
	if cfg.Height <= 0 {
		cfg.Height = DefaultHeight
	}
	if len(cfg.Extensions) == 0 {
		cfg.Extensions = []string{StoredExt}
	}
	if cfg.ScratchDir == "" {
		cfg.ScratchDir = os.TempDir()
	}
	return &Store{
		searcher: searcher,
		config:   cfg,
	}
}

// StoredPath returns where the image for id is written
func (s *Store) StoredPath(id string) (string, error) {
	outputDir := filepath.Clean(s.config.OutputDir)
	path := filepath.Join(outputDir, id+StoredExt)
	rel, err := filepath.Rel(outputDir, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %q", ErrUnsafeID, id)
	}
	return path, nil
}

// FetchResizeStore searches for name, resizes the newest downloaded image and
// saves it as <output_dir>/<id>.jpg. A search that yields no file is a miss,
// not an error.
func (s *Store) FetchResizeStore(ctx context.Context, id, name string) (Outcome, error) {
	target, err := s.StoredPath(id)
	if err != nil {
		return OutcomeMissed, err
	}

	if err := os.MkdirAll(s.config.ScratchDir, 0755); err != nil {
		return OutcomeMissed, fmt.Errorf("failed to create scratch directory: %w", err)
	}
	scratch, err := os.MkdirTemp(s.config.ScratchDir, "search-*")
	if err != nil {
		return OutcomeMissed, fmt.Errorf("failed to create record scratch directory: %w", err)
	}
	defer os.RemoveAll(scratch)

	keyword := utils.SanitizeFilename(name)
	if err := s.searcher.Search(ctx, keyword, 1, scratch); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return OutcomeMissed, ctxErr
		}
		slog.Warn("Image search failed", "id", id, "keyword", keyword, "error", err)
	}

	downloaded, err := LatestFile(scratch, s.config.Extensions)
	if err != nil {
		return OutcomeMissed, fmt.Errorf("failed to scan scratch directory: %w", err)
	}
	if downloaded == "" {
		slog.Debug("No image found", "id", id, "keyword", keyword)
		return OutcomeMissed, nil
	}

	img, err := DecodeFile(downloaded)
	if err != nil {
		return OutcomeMissed, err
	}

	resized := Resize(img, s.config.Width, s.config.Height)

	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return OutcomeMissed, fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := SaveJPEG(resized, target); err != nil {
		return OutcomeMissed, err
	}

	if err := os.Remove(downloaded); err != nil {
		slog.Warn("Failed to remove downloaded image", "path", downloaded, "error", err)
	}

	slog.Info("Image saved", "id", id, "keyword", keyword, "path", target)
	return OutcomeStored, nil
}
