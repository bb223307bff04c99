// Package testutil provides helpers shared by the package tests.
//
// Calling t.Fatal from a goroutine other than the test's own does not stop
// the test, so concurrent checks return errors through GoroutineTest instead.
package testutil

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

// GoroutineTest collects errors from goroutines started by a test.
//
//	gt := testutil.NewGoroutineTest(t, 5*time.Second)
//	gt.Go(func(ctx context.Context) error {
//	    return readTable(ctx)
//	})
//	gt.Wait()
type GoroutineTest struct {
	t      *testing.T
	wg     sync.WaitGroup
	mu     sync.Mutex
	errs   []error
	ctx    context.Context
	cancel context.CancelFunc
}

// NewGoroutineTest creates a helper whose context expires after timeout.
func NewGoroutineTest(t *testing.T, timeout time.Duration) *GoroutineTest {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	return &GoroutineTest{
		t:      t,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Go runs fn in a goroutine and records its error.
func (gt *GoroutineTest) Go(fn func(ctx context.Context) error) {
	gt.wg.Add(1)
	go func() {
		defer gt.wg.Done()
		if err := fn(gt.ctx); err != nil {
			gt.mu.Lock()
			gt.errs = append(gt.errs, err)
			gt.mu.Unlock()
		}
	}()
}

// Wait waits for all goroutines and fails the test if any of them failed
// or the timeout expired first.
func (gt *GoroutineTest) Wait() {
	gt.t.Helper()

	done := make(chan struct{})
	go func() {
		gt.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-gt.ctx.Done():
		gt.t.Fatalf("goroutines did not finish: %v", gt.ctx.Err())
	}
	gt.cancel()

	gt.mu.Lock()
	defer gt.mu.Unlock()
	if len(gt.errs) > 0 {
		for i, err := range gt.errs {
			gt.t.Errorf("  [%d] %v", i+1, err)
		}
		gt.t.FailNow()
	}
}

// WithTimeout runs fn and returns its error, or an error if it does not
// return within timeout.
func WithTimeout(timeout time.Duration, fn func() error) error {
	done := make(chan error, 1)

	go func() {
		done <- fn()
	}()

	select {
	case err := <-done:
		return err
	case <-time.After(timeout):
		return fmt.Errorf("operation timed out after %v", timeout)
	}
}

// WriteFile writes content to dir/name and returns the path.
func WriteFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}
