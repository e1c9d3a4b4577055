package batch

import "time"

// RecordError describes a record whose image could not be stored
type RecordError struct {
	Row   int    `json:"row" yaml:"row"`
	ID    string `json:"id" yaml:"id"`
	Name  string `json:"name" yaml:"name"`
	Error string `json:"error" yaml:"error"`
}

// Result summarizes one run.
// Processed counts eligible records handed to the fetcher: Stored + Missed + Failed.
type Result struct {
	Total     int           `json:"total"`
	Processed int           `json:"processed"`
	Stored    int           `json:"stored"`
	Missed    int           `json:"missed"`
	Skipped   int           `json:"skipped"`
	Failed    int           `json:"failed"`
	Warnings  []string      `json:"warnings,omitempty"`
	Errors    []RecordError `json:"errors,omitempty"`
	Archive   []byte        `json:"-"`
	StartedAt time.Time     `json:"started_at"`
	// FinishedAt is set even when the run is cut short
	FinishedAt time.Time `json:"finished_at"`
}

// Progress returns processed/total in [0, 1]
func (r *Result) Progress() float64 {
	if r.Total == 0 {
		return 1
	}
	return float64(r.Processed) / float64(r.Total)
}

// Duration of the run
func (r *Result) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
