package bunpeg

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

var (
	ErrProcessingFailed = errors.New("processing failed")
	ErrPollExhausted    = errors.New("status poll attempts exhausted")
	ErrPollTimeout      = errors.New("status poll timed out")
)

const DefaultPollInterval = time.Second

// StatusChecker is the part of Client the poller needs.
type StatusChecker interface {
	Status(ctx context.Context, id string) (FileStatus, error)
}

// Poller waits for a file to leave the pending/processing states. The first
// check runs immediately, then once per Interval. MaxAttempts and Timeout
// bound the loop when positive; the caller's context always does.
type Poller struct {
	Client      StatusChecker
	Interval    time.Duration
	MaxAttempts int
	Timeout     time.Duration
	Logger      *slog.Logger
}

// Wait blocks until the file reports completed (nil), failed
// (ErrProcessingFailed), or the budget runs out. Retryable API errors are
// treated like a pending status; anything else aborts.
func (p *Poller) Wait(ctx context.Context, fileID string) error {
	interval := p.Interval
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	pollCtx := ctx
	if p.Timeout > 0 {
		var cancel context.CancelFunc
		pollCtx, cancel = context.WithTimeout(ctx, p.Timeout)
		defer cancel()
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for attempt := 1; ; attempt++ {
		status, err := p.Client.Status(pollCtx, fileID)
		switch {
		case err != nil:
			var apiErr *APIError
			if errors.As(err, &apiErr) && apiErr.IsRetryable() {
				p.log().Warn("status check failed, retrying", "file_id", fileID, "attempt", attempt, "error", err)
				break
			}
			if pollCtx.Err() != nil {
				return p.ctxErr(ctx, fileID)
			}
			return fmt.Errorf("check status of %s: %w", fileID, err)

		case status.Status == StatusCompleted:
			p.log().Debug("file processed", "file_id", fileID, "attempts", attempt)
			return nil

		case status.Status == StatusFailed:
			if status.Error != "" {
				return fmt.Errorf("%w: %s: %s", ErrProcessingFailed, fileID, status.Error)
			}
			return fmt.Errorf("%w: %s", ErrProcessingFailed, fileID)

		case status.Status == StatusPending, status.Status == StatusProcessing:

		default:
			return fmt.Errorf("file %s reported unknown status %q", fileID, status.Status)
		}

		if p.MaxAttempts > 0 && attempt >= p.MaxAttempts {
			return fmt.Errorf("%w: %s after %d attempts", ErrPollExhausted, fileID, attempt)
		}

		select {
		case <-pollCtx.Done():
			return p.ctxErr(ctx, fileID)
		case <-ticker.C:
		}
	}
}

// ctxErr tells the caller's cancellation apart from the poller's own deadline.
func (p *Poller) ctxErr(parent context.Context, fileID string) error {
	if err := parent.Err(); err != nil {
		return err
	}
	return fmt.Errorf("%w: %s after %s", ErrPollTimeout, fileID, p.Timeout)
}

func (p *Poller) log() *slog.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return slog.Default()
}
