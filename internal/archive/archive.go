// Package archive bundles the stored images into a single zip held in memory.
package archive

import (
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zip"
)

const (
	FileName = "images.zip"
	MIMEType = "application/zip"

	// PartialSuffix marks a file still being written; Build leaves it out
	PartialSuffix = ".tmp"
)

// Build zips every regular file under dir except partial writes. Entry names
// are relative to dir and use forward slashes. Files are added in lexical walk order.
func Build(dir string) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() || strings.HasSuffix(d.Name(), PartialSuffix) {
			return nil
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		return addFile(zw, path, filepath.ToSlash(rel))
	})
	if err != nil {
		zw.Close()
		return nil, fmt.Errorf("failed to archive %s: %w", dir, err)
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish archive: %w", err)
	}
	return buf.Bytes(), nil
}

func addFile(zw *zip.Writer, path, name string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	w, err := zw.CreateHeader(&zip.FileHeader{
		Name:   name,
		Method: zip.Deflate,
	})
	if err != nil {
		return err
	}
	_, err = io.Copy(w, file)
	return err
}

// Write saves an archive to path, creating parent directories as needed
func Write(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create archive directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write archive: %w", err)
	}
	return nil
}
