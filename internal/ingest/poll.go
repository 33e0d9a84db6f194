package ingest

import (
	"context"
	"errors"
	"time"
)

// ErrPollExhausted is returned when no terminal status is seen within the
// allowed attempts.
var ErrPollExhausted = errors.New("ingestion status not terminal after max attempts")

type PollOptions struct {
	Interval    time.Duration
	MaxAttempts int
	// OnAttempt, if set, is called with every fetched report.
	OnAttempt func(attempt int, r *StatusReport)
}

func (o PollOptions) withDefaults() PollOptions {
	if o.Interval <= 0 {
		o.Interval = 2 * time.Second
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = 60
	}
	return o
}

// WaitForTerminal calls fetch until it returns a READY or FAILED report.
// It returns the last report with ErrPollExhausted after MaxAttempts, the
// fetch error as soon as one occurs, or ctx.Err() when ctx is done.
func WaitForTerminal(ctx context.Context, fetch func(context.Context) (*StatusReport, error), opts PollOptions) (*StatusReport, error) {
	opts = opts.withDefaults()

	var last *StatusReport
	for attempt := 1; attempt <= opts.MaxAttempts; attempt++ {
		r, err := fetch(ctx)
		if err != nil {
			return last, err
		}
		last = r
		if opts.OnAttempt != nil {
			opts.OnAttempt(attempt, r)
		}
		if r.Terminal() {
			return r, nil
		}
		if attempt == opts.MaxAttempts {
			break
		}

		timer := time.NewTimer(opts.Interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return last, ctx.Err()
		case <-timer.C:
		}
	}
	return last, ErrPollExhausted
}
