package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lehigh-university-libraries/imagebatch/internal/images"
	"github.com/lehigh-university-libraries/imagebatch/internal/table"
)

const (
	DefaultRequestDelay = 5 * time.Second
	DefaultBatchSize    = 200
	DefaultBatchDelay   = 20 * time.Second
)

// Config controls pacing of a run
type Config struct {
	RequestDelay time.Duration
	BatchSize    int
	BatchDelay   time.Duration
}

// DefaultConfig returns the pacing used against public image search
func DefaultConfig() Config {
	return Config{
		RequestDelay: DefaultRequestDelay,
		BatchSize:    DefaultBatchSize,
		BatchDelay:   DefaultBatchDelay,
	}
}

// Fetcher performs the per-record unit of work
type Fetcher interface {
	FetchResizeStore(ctx context.Context, id, name string) (images.Outcome, error)
}

// Hooks let an adapter observe a run. Any of them may be nil.
type Hooks struct {
	Warn     func(msg string)
	Error    func(rec table.Record, err error)
	Progress func(processed, total int)
	Pause    func(processed int, delay time.Duration)
}

// PauseNotice is the operator-facing message shown while a run waits between batches
func PauseNotice(processed int, delay time.Duration) string {
	return fmt.Sprintf("Processed %d images. Pausing for %s...", processed, delay)
}

// State of a controller. Completed is reached only when every record was
// handled; a run cut short by its context ends in Cancelled.
type State string

const (
	StateIdle       State = "idle"
	StateProcessing State = "processing"
	StateCompleted  State = "completed"
	StateCancelled  State = "cancelled"
)

// Controller walks records in order and hands each eligible one to a Fetcher.
// It is not safe for concurrent use; one record finishes before the next starts.
type Controller struct {
	fetcher Fetcher
	config  Config
	hooks   Hooks
	sleep   func(ctx context.Context, d time.Duration) error
	state   State
}

// NewController creates a controller in the idle state
func NewController(fetcher Fetcher, config Config, hooks Hooks) *Controller {
	if config.BatchSize <= 0 {
		config.BatchSize = DefaultBatchSize
	}
	return &Controller{
		fetcher: fetcher,
		config:  config,
		hooks:   hooks,
		sleep:   sleepContext,
		state:   StateIdle,
	}
}

// State returns where the controller is in its lifecycle
func (c *Controller) State() State {
	return c.state
}

// Run processes records and returns the counters of the run. The only error
// it returns is the context's; per-record failures are collected in the Result.
func (c *Controller) Run(ctx context.Context, records []table.Record) (*Result, error) {
	result := &Result{
		Total:     len(records),
		StartedAt: time.Now(),
	}
	c.state = StateProcessing

	for i, record := range records {
		if err := ctx.Err(); err != nil {
			return c.cancel(result, err)
		}

		eligible := record.Eligible()
		if !eligible {
			msg := fmt.Sprintf("Skipping ID: %s, Name: %s (Empty or invalid)", record.ID, record.Name)
			slog.Warn(msg, "row", record.Row)
			result.Skipped++
			result.Warnings = append(result.Warnings, msg)
			if c.hooks.Warn != nil {
				c.hooks.Warn(msg)
			}
		} else {
			c.process(ctx, record, result)
			if err := ctx.Err(); err != nil {
				return c.cancel(result, err)
			}

			result.Processed++
			slog.Info("Processed record", "index", i+1, "total", result.Total, "processed", result.Processed, "id", record.ID.Text)
			if c.hooks.Progress != nil {
				c.hooks.Progress(result.Processed, result.Total)
			}
		}

		// Rate limit against the search provider, whether or not the record was used
		if err := c.sleep(ctx, c.config.RequestDelay); err != nil {
			return c.cancel(result, err)
		}

		if eligible && result.Processed%c.config.BatchSize == 0 {
			slog.Warn("Batch complete, pausing", "processed", result.Processed, "pause", c.config.BatchDelay)
			if c.hooks.Pause != nil {
				c.hooks.Pause(result.Processed, c.config.BatchDelay)
			}
			if err := c.sleep(ctx, c.config.BatchDelay); err != nil {
				return c.cancel(result, err)
			}
		}
	}

	c.state = StateCompleted
	result.FinishedAt = time.Now()
	return result, nil
}

func (c *Controller) cancel(result *Result, err error) (*Result, error) {
	c.state = StateCancelled
	result.FinishedAt = time.Now()
	slog.Warn("Run cancelled", "processed", result.Processed, "total", result.Total)
	return result, err
}

func (c *Controller) process(ctx context.Context, record table.Record, result *Result) {
	id := record.ID.Text
	outcome, err := c.fetcher.FetchResizeStore(ctx, id, record.Name.Text)
	if err != nil {
		if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
			return
		}
		slog.Error("Failed to process record", "row", record.Row, "id", id, "name", record.Name.Text, "error", err)
		result.Failed++
		result.Errors = append(result.Errors, RecordError{
			Row:   record.Row,
			ID:    id,
			Name:  record.Name.Text,
			Error: err.Error(),
		})
		if c.hooks.Error != nil {
			c.hooks.Error(record, err)
		}
		return
	}

	switch outcome {
	case images.OutcomeStored:
		result.Stored++
	default:
		result.Missed++
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
