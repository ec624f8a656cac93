package flasher

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
)

// blockingExecutor records concurrency and blocks each run until release is closed
type blockingExecutor struct {
	running  atomic.Int32
	maxSeen  atomic.Int32
	calls    atomic.Int32
	release  chan struct{}
	exitCode int
}

func (b *blockingExecutor) Run(_ context.Context, _ []string) (ExitOutcome, error) {
	b.calls.Add(1)
	n := b.running.Add(1)
	for {
		seen := b.maxSeen.Load()
		if n <= seen || b.maxSeen.CompareAndSwap(seen, n) {
			break
		}
	}
	<-b.release
	b.running.Add(-1)
	return ExitOutcome{ExitCode: b.exitCode}, nil
}

func TestPool_RunReturnsExecutorOutcome(t *testing.T) {
	exec := &blockingExecutor{release: make(chan struct{}), exitCode: 1}
	close(exec.release)

	pool := NewPool(2, exec, zap.NewNop())
	pool.Start()
	defer pool.Stop()

	outcome, err := pool.Run(context.Background(), []string{"--erase"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome.ExitCode != 1 {
		t.Errorf("ExitCode = %d, want 1", outcome.ExitCode)
	}
}

func TestPool_BoundsConcurrency(t *testing.T) {
	exec := &blockingExecutor{release: make(chan struct{})}
	pool := NewPool(2, exec, zap.NewNop())
	pool.Start()

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := pool.Run(context.Background(), nil); err != nil {
				t.Errorf("Run: %v", err)
			}
		}()
	}

	deadline := time.Now().Add(2 * time.Second)
	for exec.running.Load() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	close(exec.release)
	wg.Wait()
	pool.Stop()

	if got := exec.maxSeen.Load(); got > 2 {
		t.Errorf("max concurrent runs = %d, want <= 2", got)
	}
	if got := exec.calls.Load(); got != 5 {
		t.Errorf("calls = %d, want 5", got)
	}
}

func TestPool_CancelledWhileQueuedIsNotLaunched(t *testing.T) {
	exec := &blockingExecutor{release: make(chan struct{})}
	pool := NewPool(1, exec, zap.NewNop())
	pool.Start()

	// Occupy the only worker.
	firstDone := make(chan struct{})
	go func() {
		defer close(firstDone)
		pool.Run(context.Background(), nil)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for exec.running.Load() < 1 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	ctx, cancel := context.WithCancel(context.Background())
	queuedDone := make(chan error, 1)
	go func() {
		_, err := pool.Run(ctx, nil)
		queuedDone <- err
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()
	close(exec.release)
	<-firstDone

	if err := <-queuedDone; !errors.Is(err, context.Canceled) {
		t.Errorf("queued job error = %v, want context.Canceled", err)
	}
	pool.Stop()

	if got := exec.calls.Load(); got != 1 {
		t.Errorf("calls = %d, want 1 (cancelled job must not launch)", got)
	}
}

func TestPool_RunAfterStop(t *testing.T) {
	exec := &blockingExecutor{release: make(chan struct{})}
	close(exec.release)

	pool := NewPool(1, exec, zap.NewNop())
	pool.Start()
	pool.Stop()

	if _, err := pool.Run(context.Background(), nil); !errors.Is(err, ErrPoolStopped) {
		t.Errorf("err = %v, want ErrPoolStopped", err)
	}
	if got := exec.calls.Load(); got != 0 {
		t.Errorf("calls = %d, want 0", got)
	}
}
