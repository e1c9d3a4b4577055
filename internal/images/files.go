package images

import (
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"github.com/lehigh-university-libraries/imagebatch/internal/archive"
)

const jpegQuality = 90

// LatestFile returns the most recently modified regular file in dir whose
// extension is one of exts, or "" when there is none. Ties go to the
// lexically last name so the choice is stable.
func LatestFile(dir string, exts []string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}

	var latest string
	var latestInfo os.FileInfo
	for _, entry := range entries {
		if !entry.Type().IsRegular() || !hasExt(entry.Name(), exts) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if latestInfo == nil ||
			info.ModTime().After(latestInfo.ModTime()) ||
			(info.ModTime().Equal(latestInfo.ModTime()) && entry.Name() > latestInfo.Name()) {
			latest = filepath.Join(dir, entry.Name())
			latestInfo = info
		}
	}
	return latest, nil
}

func hasExt(name string, exts []string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range exts {
		if ext == strings.ToLower(e) {
			return true
		}
	}
	return false
}

// DecodeFile decodes a JPEG, PNG, GIF or WebP file
func DecodeFile(path string) (image.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("%w %s: %v", ErrDecode, filepath.Base(path), err)
	}
	return img, nil
}

// Resize scales img to exactly width×height, ignoring the original aspect ratio
func Resize(img image.Image, width, height int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
	return dst
}

// SaveJPEG encodes img to path through a temporary file, replacing any existing file
func SaveJPEG(img image.Image, path string) error {
	tempPath := path + archive.PartialSuffix
	out, err := os.Create(tempPath)
	if err != nil {
		return fmt.Errorf("failed to create image file: %w", err)
	}

	if err := jpeg.Encode(out, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		out.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to encode image: %w", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to write image file: %w", err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to move image file: %w", err)
	}
	return nil
}

// Dimensions reads only the image header of path
func Dimensions(path string) (int, int, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, 0, err
	}
	defer file.Close()

	img, _, err := image.DecodeConfig(file)
	if err != nil {
		return 0, 0, err
	}

	return img.Width, img.Height, nil
}
