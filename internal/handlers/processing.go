package handlers

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/lehigh-university-libraries/imagebatch/internal/models"
	"github.com/lehigh-university-libraries/imagebatch/internal/table"
	"github.com/lehigh-university-libraries/imagebatch/internal/utils"
)

// processUpload parses an uploaded table and, when it has the required
// columns, keeps a copy on disk and registers a new session for it.
func (h *Handler) processUpload(fileData []byte, filename string) (*models.Session, error) {
	t, err := table.Load(filename, bytes.NewReader(fileData))
	if err != nil {
		return nil, err
	}

	md5Hash := utils.CalculateDataMD5(fileData)
	ext := strings.ToLower(filepath.Ext(filename))
	uploadPath := filepath.Join(h.uploadsDir, md5Hash+ext)

	if err := os.WriteFile(uploadPath, fileData, 0644); err != nil {
		return nil, fmt.Errorf("failed to save upload: %w", err)
	}

	session := &models.Session{
		ID:         newSessionID(filename, md5Hash),
		Filename:   filename,
		UploadPath: uploadPath,
		Columns:    t.Columns,
		Preview:    t.Preview,
		Records:    t.Records,
		Status:     models.StatusUploaded,
		Progress:   models.Progress{Total: len(t.Records)},
		CreatedAt:  time.Now(),
	}
	h.sessionStore.Set(session.ID, session)

	slog.Info("Session created", "session_id", session.ID, "filename", filename, "records", len(t.Records))
	return session, nil
}

// newSessionID uses the filename (without extension) plus a timestamp and a
// content hash prefix, reduced to characters that are safe in a URL path.
func newSessionID(filename, md5Hash string) string {
	base := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	base = utils.SanitizeFilename(base)
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '_'
	}, base)
	if base == "" {
		base = "upload"
	}
	return fmt.Sprintf("%s_%d_%s", base, time.Now().Unix(), md5Hash[:8])
}
