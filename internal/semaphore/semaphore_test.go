package semaphore_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gocpp-project/gocpp/internal/semaphore"
)

func TestWaitAcquireBlocksAtCapacity(t *testing.T) {
	ctx := context.Background()
	sem := semaphore.New(2)
	if n := sem.Capacity(); n != 2 {
		t.Errorf("Capacity() = %d, want 2", n)
	}

	release1, err := sem.WaitAcquire(ctx)
	if err != nil {
		t.Fatalf("WaitAcquire 1: %v", err)
	}
	release2, err := sem.WaitAcquire(ctx)
	if err != nil {
		t.Fatalf("WaitAcquire 2: %v", err)
	}
	if n := sem.NumServing(); n != 2 {
		t.Errorf("NumServing() = %d, want 2", n)
	}

	tctx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	if _, err := sem.WaitAcquire(tctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("WaitAcquire while full: err = %v, want DeadlineExceeded", err)
	}

	release1()
	release3, err := sem.WaitAcquire(ctx)
	if err != nil {
		t.Fatalf("WaitAcquire after release: %v", err)
	}
	release2()
	release3()
	if n := sem.NumRequests(); n != 3 {
		t.Errorf("NumRequests() = %d, want 3", n)
	}
}

func TestDoRunsUnderSemaphore(t *testing.T) {
	sem := semaphore.New(1)
	var ran bool
	err := sem.Do(context.Background(), func(context.Context) error {
		ran = true
		if n := sem.NumServing(); n != 1 {
			t.Errorf("NumServing() during Do = %d, want 1", n)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if !ran {
		t.Fatal("Do did not run f")
	}
	if n := sem.NumServing(); n != 0 {
		t.Errorf("NumServing() after Do = %d, want 0", n)
	}
}
