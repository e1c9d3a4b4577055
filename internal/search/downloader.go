package search

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

const (
	DefaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"

	// Bodies smaller than this are almost always placeholders or error pages
	DefaultMinBytes = 1000

	maxImageBytes = 20 * 1024 * 1024
)

// Downloader retrieves image files over HTTP
type Downloader struct {
	HTTPClient *http.Client
	UserAgent  string
	MinBytes   int
}

// NewDownloader creates a new image downloader
func NewDownloader(timeout time.Duration, userAgent string) *Downloader {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	return &Downloader{
		HTTPClient: &http.Client{
			Timeout: timeout,
		},
		UserAgent: userAgent,
		MinBytes:  DefaultMinBytes,
	}
}

// Download fetches url and writes the body to outputPath
func (d *Downloader) Download(ctx context.Context, url, outputPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", d.UserAgent)

	resp, err := d.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("image URL returned status %d", resp.StatusCode)
	}

	imageData, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return fmt.Errorf("failed to read image data: %w", err)
	}

	if len(imageData) < d.MinBytes {
		return fmt.Errorf("image too small (likely placeholder), size: %d bytes", len(imageData))
	}

	if err := os.WriteFile(outputPath, imageData, 0644); err != nil {
		return fmt.Errorf("failed to write image file: %w", err)
	}

	return nil
}

// SaveFirst downloads candidates in order until limit files are stored in dir.
// It returns how many were saved; failed candidates are skipped.
func (d *Downloader) SaveFirst(ctx context.Context, urls []string, limit int, dir string) (int, error) {
	saved := 0
	for _, url := range urls {
		if saved >= limit {
			break
		}
		if err := ctx.Err(); err != nil {
			return saved, err
		}

		outputPath := filepath.Join(dir, fmt.Sprintf("%d.jpg", saved+1))
		if err := d.Download(ctx, url, outputPath); err != nil {
			slog.Debug("Skipping image candidate", "url", url, "error", err)
			continue
		}
		saved++
	}
	return saved, nil
}
