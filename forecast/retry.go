// Copyright 2025 The Weather MCP Authors. All rights reserved.
// Use of this source code is governed by a Apache-2.0
// license that can be found in the LICENSE file.

package forecast

import (
	"context"
	"log/slog"
	"net/url"
	"time"
)

const (
	// DefaultMaxAttempts is the fetch budget of a Retrier.
	DefaultMaxAttempts = 3
	// DefaultInitialDelay is the wait before the second attempt. It doubles
	// after every further attempt.
	DefaultInitialDelay = time.Second
)

// Fetcher issues a single forecast request for a location. overrides
// replace the default query parameters key by key and may be nil.
//
// A successful call returns one Response per queried location. Any failure
// is reported as an error; Retrier treats it as "no result".
type Fetcher interface {
	Fetch(ctx context.Context, latitude, longitude float64, overrides url.Values) ([]Response, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, latitude, longitude float64, overrides url.Values) ([]Response, error)

// Fetch calls f.
func (f FetcherFunc) Fetch(ctx context.Context, latitude, longitude float64, overrides url.Values) ([]Response, error) {
	return f(ctx, latitude, longitude, overrides)
}

// Retrier calls a Fetcher until it yields a response with hourly data or
// the attempt budget runs out, backing off exponentially in between.
//
// The upstream API occasionally omits the hourly block; Retrier papers over
// that with a bounded number of retries. A Retrier holds only configuration
// and is safe for concurrent use.
type Retrier struct {
	fetcher      Fetcher
	maxAttempts  int
	initialDelay time.Duration
	logger       *slog.Logger
	now          func() time.Time
	sleep        func(ctx context.Context, d time.Duration) error
}

// RetrierOption configures a Retrier.
type RetrierOption func(*Retrier)

// WithMaxAttempts sets the attempt budget. Values below 1 are ignored.
func WithMaxAttempts(n int) RetrierOption {
	return func(r *Retrier) {
		if n >= 1 {
			r.maxAttempts = n
		}
	}
}

// WithInitialDelay sets the wait before the second attempt.
func WithInitialDelay(d time.Duration) RetrierOption {
	return func(r *Retrier) {
		if d >= 0 {
			r.initialDelay = d
		}
	}
}

// WithLogger sets the logger used when the context carries none.
func WithLogger(l *slog.Logger) RetrierOption {
	return func(r *Retrier) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithClock sets the source of the metadata timestamp.
func WithClock(now func() time.Time) RetrierOption {
	return func(r *Retrier) {
		if now != nil {
			r.now = now
		}
	}
}

// WithSleep replaces the wait between attempts. sleep must return a non-nil
// error when ctx ends before d elapses.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) RetrierOption {
	return func(r *Retrier) {
		if sleep != nil {
			r.sleep = sleep
		}
	}
}

// NewRetrier returns a Retrier over f.
//
// The first argument must not be nil.
func NewRetrier(f Fetcher, opts ...RetrierOption) *Retrier {
	if f == nil {
		panic("forecast: nil Fetcher")
	}
	r := &Retrier{
		fetcher:      f,
		maxAttempts:  DefaultMaxAttempts,
		initialDelay: DefaultInitialDelay,
		logger:       slog.Default(),
		now:          time.Now,
		sleep:        sleepContext,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// MaxAttempts returns the attempt budget.
func (r *Retrier) MaxAttempts() int {
	return r.maxAttempts
}

// Fetch retrieves the forecast for a location. It returns the last response
// obtained, which is nil only if every attempt failed, together with the
// call's metadata. The last response is returned even when it lacks hourly
// data.
//
// If ctx ends while waiting between attempts, Fetch stops and returns what
// it has so far.
func (r *Retrier) Fetch(ctx context.Context, latitude, longitude float64) (Response, Metadata) {
	log := r.log(ctx, latitude, longitude)

	var (
		last     Response
		hourly   bool
		attempts int
	)
	delay := r.initialDelay
	for attempts < r.maxAttempts {
		attempts++
		hourly = false

		responses, err := r.fetcher.Fetch(ctx, latitude, longitude, nil)
		switch {
		case err != nil:
			log.WarnContext(ctx, "forecast fetch failed", "attempt", attempts, "error", err)
		case len(responses) == 0 || responses[0] == nil:
			log.WarnContext(ctx, "forecast fetch returned no responses", "attempt", attempts)
		default:
			last = responses[0]
			hourly = HourlyPresent(last)
		}

		if hourly {
			log.DebugContext(ctx, "forecast fetched", "attempt", attempts)
			break
		}
		if attempts == r.maxAttempts {
			break
		}

		log.InfoContext(ctx, "hourly data missing, retrying", "attempt", attempts, "delay", delay)
		if err := r.sleep(ctx, delay); err != nil {
			log.WarnContext(ctx, "retry wait interrupted", "attempt", attempts, "error", err)
			break
		}
		delay *= 2
	}

	return last, collectMetadata(last, attempts, hourly, r.now())
}

// HourlyPresent reports whether resp has an hourly block with at least one
// reading. A response whose hourly block cannot be probed counts as absent.
func HourlyPresent(resp Response) (present bool) {
	defer func() {
		if recover() != nil {
			present = false
		}
	}()
	if resp == nil {
		return false
	}
	return hasReadings(resp.Hourly())
}

func (r *Retrier) log(ctx context.Context, latitude, longitude float64) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok && l != nil {
		return l
	}
	return r.logger.With("latitude", latitude, "longitude", longitude)
}

type loggerKey struct{}

// ContextWithLogger returns a copy of ctx carrying l. Retrier logs through
// it instead of its own logger, so per-call attributes set by the caller
// (including the location) appear on retry records.
func ContextWithLogger(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, l)
}

// sleepContext waits for d or until ctx is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
