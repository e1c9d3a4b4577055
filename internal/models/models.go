package models

import (
	"encoding/json"
	"time"

	"github.com/lehigh-university-libraries/imagebatch/internal/batch"
	"github.com/lehigh-university-libraries/imagebatch/internal/table"
)

// Status of an upload session
type Status string

const (
	StatusUploaded   Status = "uploaded"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Session represents one uploaded table and the run started from it
type Session struct {
	ID         string              `json:"id"`
	Filename   string              `json:"filename"`
	UploadPath string              `json:"upload_path,omitempty"`
	Columns    []string            `json:"columns"`
	Preview    [][]string          `json:"preview"`
	Records    []table.Record      `json:"-"`
	Status     Status              `json:"status"`
	Progress   Progress            `json:"progress"`
	Warnings   []string            `json:"warnings,omitempty"`
	Errors     []batch.RecordError `json:"errors,omitempty"`
	Result     *batch.Result       `json:"result,omitempty"`
	Error      string              `json:"error,omitempty"`
	Archive    []byte              `json:"-"`
	CreatedAt  time.Time           `json:"created_at"`
	StartedAt  *time.Time          `json:"started_at,omitempty"`
	FinishedAt *time.Time          `json:"finished_at,omitempty"`
}

// Progress counts processed records against all records of the table
type Progress struct {
	Processed int
	Total     int
}

// Percent is derived from the counters, in [0, 100]
func (p Progress) Percent() float64 {
	if p.Total == 0 {
		return 0
	}
	return float64(p.Processed) * 100 / float64(p.Total)
}

func (p Progress) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Processed int     `json:"processed"`
		Total     int     `json:"total"`
		Percent   float64 `json:"percent"`
	}{p.Processed, p.Total, p.Percent()})
}

// Clone returns a copy that shares no mutable slices with s
func (s *Session) Clone() *Session {
	c := *s
	c.Warnings = append([]string(nil), s.Warnings...)
	c.Errors = append([]batch.RecordError(nil), s.Errors...)
	if s.Result != nil {
		r := *s.Result
		c.Result = &r
	}
	return &c
}
