// SPDX-FileCopyrightText: 2026 The jarsign Authors
//
// SPDX-License-Identifier: MIT

package driver

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jarsign/jarsign/jarsignerr"
)

// fakeSigner records every SignFile call and fails the archives listed in
// failOn, optionally only on their first attempt.
type fakeSigner struct {
	mu          sync.Mutex
	calls       map[string]int
	concurrent  int32
	maxConcurrent int32
	failOn      map[string]jarsignerr.Kind
	failOnce    map[string]bool
	blockUntil  <-chan struct{}
}

func (f *fakeSigner) SignFile(ctx context.Context, path string) error {
	n := atomic.AddInt32(&f.concurrent, 1)
	defer atomic.AddInt32(&f.concurrent, -1)
	for {
		cur := atomic.LoadInt32(&f.maxConcurrent)
		if n <= cur || atomic.CompareAndSwapInt32(&f.maxConcurrent, cur, n) {
			break
		}
	}

	if f.blockUntil != nil {
		select {
		case <-f.blockUntil:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	f.mu.Lock()
	f.calls[path]++
	attempt := f.calls[path]
	f.mu.Unlock()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	kind, shouldFail := f.failOn[path]
	if !shouldFail {
		return nil
	}
	if f.failOnce[path] && attempt > 1 {
		return nil
	}
	return jarsignerr.New(kind, fmt.Errorf("synthetic failure for %s", path))
}

func TestExecuteReportsFailureWithBoundedConcurrency(t *testing.T) {
	archives := make([]string, 10)
	for i := range archives {
		archives[i] = fmt.Sprintf("archive-%d.jar", i)
	}

	block := make(chan struct{})
	signer := &fakeSigner{
		calls:  map[string]int{},
		failOn: map[string]jarsignerr.Kind{"archive-5.jar": jarsignerr.Io},
		blockUntil: block,
	}

	d, err := New(signer, WithThreadCount(2), WithMaxTries(1))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	go func() {
		time.Sleep(20 * time.Millisecond)
		close(block)
	}()

	results, rerr := d.Execute(context.Background(), archives)
	if rerr == nil {
		t.Fatalf("Execute: expected an aggregate error")
	}

	if len(results) != 10 {
		t.Fatalf("results has %d entries, want 10 (every archive accounted for)", len(results))
	}
	var failed int
	for _, r := range results {
		if r.Archive == "archive-5.jar" {
			if r.Err == nil {
				t.Fatalf("archive-5.jar: expected a failure result")
			}
			failed++
		}
	}
	if failed != 1 {
		t.Fatalf("expected exactly 1 failed archive, got %d", failed)
	}

	if got := atomic.LoadInt32(&signer.maxConcurrent); got > 2 {
		t.Fatalf("observed %d concurrent workers, want at most threadCount=2", got)
	}
}

func TestSignWithRetryRotatesOnRetryableFailureThenSucceeds(t *testing.T) {
	signer := &fakeSigner{
		calls:    map[string]int{},
		failOn:   map[string]jarsignerr.Kind{"a.jar": jarsignerr.TsaRejected},
		failOnce: map[string]bool{"a.jar": true},
	}

	d, err := New(signer, WithThreadCount(1), WithMaxTries(2), WithMaxRetryDelay(time.Millisecond))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	d.sleep = func(context.Context, time.Duration) {}

	results, rerr := d.Execute(context.Background(), []string{"a.jar"})
	if rerr != nil {
		t.Fatalf("Execute: unexpected aggregate error: %v", rerr)
	}
	if len(results) != 1 || results[0].Err != nil {
		t.Fatalf("results = %+v, want one successful result", results)
	}
	if results[0].Attempts != 2 {
		t.Fatalf("Attempts = %d, want 2 (one rejection, one success)", results[0].Attempts)
	}
}

func TestSignWithRetryDoesNotRetryNonRetryableFailure(t *testing.T) {
	signer := &fakeSigner{
		calls:  map[string]int{},
		failOn: map[string]jarsignerr.Kind{"a.jar": jarsignerr.InvalidEncoding},
	}
	d, err := New(signer, WithMaxTries(5), WithMaxRetryDelay(time.Millisecond))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	d.sleep = func(context.Context, time.Duration) {}

	results, rerr := d.Execute(context.Background(), []string{"a.jar"})
	if rerr == nil {
		t.Fatalf("Execute: expected an error")
	}
	if results[0].Attempts != 1 {
		t.Fatalf("Attempts = %d, want 1 (non-retryable failures abort immediately)", results[0].Attempts)
	}
}

func TestBackoffClampsExponentAt20(t *testing.T) {
	ceiling := 10000 * time.Second
	at20 := backoff(20, ceiling)
	at21 := backoff(21, ceiling)
	if at20 != at21 {
		t.Fatalf("backoff(20)=%v, backoff(21)=%v, want equal (clamped)", at20, at21)
	}
}

func TestBackoffCapsAtMaxRetryDelay(t *testing.T) {
	got := backoff(30, 5*time.Second)
	if got != 5*time.Second {
		t.Fatalf("backoff = %v, want capped at 5s", got)
	}
}

func TestNewRejectsNilSigner(t *testing.T) {
	if _, err := New(nil); !errors.Is(err, ErrNoSigner) {
		t.Fatalf("New(nil) error = %v, want ErrNoSigner", err)
	}
}

type taggingSigner struct {
	fakeSigner
	gotTag string
}

func (s *taggingSigner) SetRunTag(tag string) { s.gotTag = tag }

func TestExecuteTagsSignerImplementingSetRunTag(t *testing.T) {
	s := &taggingSigner{fakeSigner: fakeSigner{calls: map[string]int{}}}
	d, err := New(s)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := d.Execute(context.Background(), []string{"a.jar"}); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if s.gotTag == "" {
		t.Fatalf("expected SetRunTag to be called with a non-empty run ID")
	}
}
