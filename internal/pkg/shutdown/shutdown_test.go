package shutdown

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"cruxcast/internal/pkg/logger"
)

func newTestLogger() *logger.Logger {
	var buf bytes.Buffer
	return logger.New(logger.Config{
		Level:  "debug",
		Format: "json",
		Output: &buf,
	})
}

func TestNewManagerDefaultTimeout(t *testing.T) {
	mgr := NewManager(newTestLogger(), 0)
	if mgr.timeout != 30*time.Second {
		t.Errorf("expected default 30s timeout, got %s", mgr.timeout)
	}
}

func TestShutdownRunsHandlersLIFO(t *testing.T) {
	mgr := NewManager(newTestLogger(), 5*time.Second)

	var order []string
	mgr.Register("first", func(ctx context.Context) error {
		order = append(order, "first")
		return nil
	})
	mgr.Register("second", func(ctx context.Context) error {
		order = append(order, "second")
		return nil
	})

	mgr.Shutdown()

	if len(order) != 2 || order[0] != "second" || order[1] != "first" {
		t.Errorf("expected LIFO order [second first], got %v", order)
	}
}

func TestShutdownContinuesAfterHandlerError(t *testing.T) {
	mgr := NewManager(newTestLogger(), 5*time.Second)

	var ran bool
	mgr.Register("survivor", func(ctx context.Context) error {
		ran = true
		return nil
	})
	mgr.Register("failing", func(ctx context.Context) error {
		return errors.New("cleanup failed")
	})

	mgr.Shutdown()

	if !ran {
		t.Error("expected handler after a failing one to still run")
	}
}

func TestShutdownIdempotent(t *testing.T) {
	mgr := NewManager(newTestLogger(), 5*time.Second)

	var calls int
	mgr.RegisterSimple("counter", func() { calls++ })

	mgr.Shutdown()
	mgr.Shutdown()

	if calls != 1 {
		t.Errorf("expected handler to run once, ran %d times", calls)
	}
}

func TestDoneClosedAfterShutdown(t *testing.T) {
	mgr := NewManager(newTestLogger(), 5*time.Second)
	mgr.Shutdown()

	select {
	case <-mgr.Done():
	case <-time.After(time.Second):
		t.Fatal("expected Done channel to be closed after shutdown")
	}
}
