// SPDX-FileCopyrightText: 2026 The jarsign Authors
//
// SPDX-License-Identifier: MIT

// Package driver signs many archives concurrently with bounded parallelism,
// surfacing the first worker failure and best-effort cancelling the rest,
// and retries a failing archive with exponential backoff before giving up.
package driver

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jarsign/jarsign/jarsignerr"
	"github.com/jarsign/jarsign/log"
	"github.com/jarsign/jarsign/metrics"
)

// Defaults
const (
	// DefaultThreadCount is the worker pool size used when WithThreadCount
	// is not given.
	DefaultThreadCount = 1

	// DefaultMaxTries is the per-archive attempt cap used when
	// WithMaxTries is not given.
	DefaultMaxTries = 1

	// DefaultMaxRetryDelay caps the exponential backoff sleep between
	// attempts when WithMaxRetryDelay is not given.
	DefaultMaxRetryDelay = 30 * time.Second

	// maxBackoffExponent is the point at which 2^k stops growing and the
	// sleep duration flattens at maxRetryDelay regardless of k.
	maxBackoffExponent = 20
)

// Signer is the per-archive operation the driver fans out: sign one JAR/ZIP
// archive in place. jar.Engine.SignFile satisfies this.
type Signer interface {
	SignFile(ctx context.Context, archivePath string) error
}

// runTagger is the optional interface a Signer can implement to have its
// temp files tagged with this run's correlation ID; *jar.Engine implements
// it via SetRunTag.
type runTagger interface {
	SetRunTag(tag string)
}

// Option configures a Driver built by New.
type Option func(*Driver) error

var (
	// ErrNoSigner is returned by New when given a nil Signer.
	ErrNoSigner = errors.New("driver: signer cannot be nil")
	// ErrInvalidThreadCount is returned by WithThreadCount for a non-positive count.
	ErrInvalidThreadCount = errors.New("driver: thread count must be >= 1")
	// ErrInvalidMaxTries is returned by WithMaxTries for a non-positive count.
	ErrInvalidMaxTries = errors.New("driver: max tries must be >= 1")
	// ErrInvalidMaxRetryDelay is returned by WithMaxRetryDelay for a non-positive duration.
	ErrInvalidMaxRetryDelay = errors.New("driver: max retry delay must be positive")
)

// Driver signs a batch of archives with bounded concurrency.
type Driver struct {
	signer        Signer
	threadCount   int
	maxTries      int
	maxRetryDelay time.Duration
	recorder      metrics.Recorder
	logger        log.Logger
	sleep         func(context.Context, time.Duration)
}

// New returns a Driver around signer, applying opts over sane defaults
// (threadCount=1, maxTries=1, maxRetryDelay=30s, a no-op Recorder, and a
// discarding Logger).
func New(signer Signer, opts ...Option) (*Driver, error) {
	if signer == nil {
		return nil, ErrNoSigner
	}
	d := &Driver{
		signer:        signer,
		threadCount:   DefaultThreadCount,
		maxTries:      DefaultMaxTries,
		maxRetryDelay: DefaultMaxRetryDelay,
		recorder:      metrics.Noop{},
		logger:        log.Discard{},
		sleep:         sleepContext,
	}
	for _, o := range opts {
		if o == nil {
			continue
		}
		if err := o(d); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}
	return d, nil
}

// WithThreadCount overrides the worker pool size.
func WithThreadCount(n int) Option {
	return func(d *Driver) error {
		if n < 1 {
			return ErrInvalidThreadCount
		}
		d.threadCount = n
		return nil
	}
}

// WithMaxTries overrides the per-archive attempt cap.
func WithMaxTries(n int) Option {
	return func(d *Driver) error {
		if n < 1 {
			return ErrInvalidMaxTries
		}
		d.maxTries = n
		return nil
	}
}

// WithMaxRetryDelay overrides the backoff ceiling between attempts.
func WithMaxRetryDelay(dur time.Duration) Option {
	return func(d *Driver) error {
		if dur <= 0 {
			return ErrInvalidMaxRetryDelay
		}
		d.maxRetryDelay = dur
		return nil
	}
}

// WithRecorder overrides the metrics.Recorder instrumenting this Driver.
func WithRecorder(r metrics.Recorder) Option {
	return func(d *Driver) error {
		if r == nil {
			return errors.New("driver: recorder cannot be nil")
		}
		d.recorder = r
		return nil
	}
}

// WithLogger overrides the log.Logger this Driver writes progress to.
func WithLogger(l log.Logger) Option {
	return func(d *Driver) error {
		if l == nil {
			return errors.New("driver: logger cannot be nil")
		}
		d.logger = l
		return nil
	}
}

// Result is one archive's terminal outcome from a Driver.Execute run.
type Result struct {
	Archive   string
	Attempts  int
	Err       error
	Cancelled bool
}

// firstFailure is a thread-safe slot holding the first worker error, so the
// driver can surface one failure out of many concurrent ones without a data
// race on which error "won".
type firstFailure struct {
	mu  sync.Mutex
	err error
}

func (f *firstFailure) set(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err == nil {
		f.err = err
	}
}

func (f *firstFailure) get() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.err
}

// Execute signs every archive in archives using up to d.threadCount workers,
// one worker per archive. It waits for every worker to finish (either by
// completing or by observing cancellation) before returning. The returned
// error is the first worker failure encountered; Results carries every
// archive's individual outcome regardless of the aggregate error.
func (d *Driver) Execute(ctx context.Context, archives []string) ([]Result, error) {
	runID := uuid.New().String()
	if tagger, ok := d.signer.(runTagger); ok {
		tagger.SetRunTag(runID)
	}
	d.logger.Infof("driver: run %s starting, %d archives, %d workers", runID, len(archives), d.threadCount)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make([]Result, len(archives))
	failure := &firstFailure{}
	sem := make(chan struct{}, d.threadCount)
	var active int
	var activeMu sync.Mutex
	var wg sync.WaitGroup

	adjustActive := func(delta int) {
		activeMu.Lock()
		active += delta
		d.recorder.WorkersActive(active)
		activeMu.Unlock()
	}

	for i, archive := range archives {
		i, archive := i, archive
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()

			if ctx.Err() != nil {
				results[i] = Result{Archive: archive, Cancelled: true, Err: ctx.Err()}
				d.recorder.ArchiveProcessed(metrics.OutcomeCancelled, 0)
				return
			}

			adjustActive(1)
			defer adjustActive(-1)

			start := time.Now()
			attempts, err := d.signWithRetry(ctx, runID, archive)
			elapsed := time.Since(start)

			if err != nil {
				cancelledBySibling := ctx.Err() != nil && failure.get() != nil
				if cancelledBySibling {
					results[i] = Result{Archive: archive, Attempts: attempts, Err: err, Cancelled: true}
					d.recorder.ArchiveProcessed(metrics.OutcomeCancelled, elapsed)
				} else {
					results[i] = Result{Archive: archive, Attempts: attempts, Err: err}
					d.recorder.ArchiveProcessed(metrics.OutcomeFailure, elapsed)
				}
				d.logger.Errorf("driver: run %s archive %s failed after %d attempt(s): %v", runID, archive, attempts, err)
				failure.set(err)
				cancel()
				return
			}

			results[i] = Result{Archive: archive, Attempts: attempts}
			d.recorder.ArchiveProcessed(metrics.OutcomeSuccess, elapsed)
			d.logger.Infof("driver: run %s archive %s signed in %d attempt(s)", runID, archive, attempts)
		}()
	}

	wg.Wait()
	return results, failure.get()
}

// signWithRetry signs one archive, retrying up to d.maxTries times. A
// non-retryable failure (per jarsignerr.Kind.Retryable) aborts immediately
// without consuming remaining attempts. Between attempts it sleeps
// min(2^k seconds, maxRetryDelay) with the exponent clamped to 20.
func (d *Driver) signWithRetry(ctx context.Context, runID, archive string) (attempts int, err error) {
	for attempt := 0; attempt < d.maxTries; attempt++ {
		attempts++
		err = d.signer.SignFile(ctx, archive)
		if err == nil {
			return attempts, nil
		}

		var je *jarsignerr.Error
		retryable := errors.As(err, &je) && je.Retryable()
		if !retryable {
			return attempts, err
		}
		if attempt == d.maxTries-1 {
			return attempts, err
		}

		d.recorder.TSARetryRotated()
		d.logger.Warnf("driver: run %s archive %s attempt %d failed retryably, retrying: %v", runID, archive, attempts, err)

		d.sleep(ctx, backoff(attempt, d.maxRetryDelay))
		if ctx.Err() != nil {
			return attempts, ctx.Err()
		}
	}
	return attempts, err
}

// backoff returns min(2^attempt seconds, ceiling), with attempt clamped to
// maxBackoffExponent so a 21st attempt sleeps the same as the 20th.
func backoff(attempt int, ceiling time.Duration) time.Duration {
	if attempt > maxBackoffExponent {
		attempt = maxBackoffExponent
	}
	d := time.Duration(1) << attempt * time.Second
	if d > ceiling || d <= 0 {
		return ceiling
	}
	return d
}

// sleepContext sleeps for d, or returns early if ctx is done first.
func sleepContext(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}
