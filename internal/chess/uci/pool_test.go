package uci

import (
	"context"
	"errors"
	"testing"
	"time"
)

func fakePool(t *testing.T, size int) (*Pool, *int) {
	t.Helper()
	started := 0
	p := newPool(size, func(ctx context.Context) (*Engine, error) {
		started++
		e := (&fakeEngine{}).start(t, stockfish())
		if err := e.handshake(ctx, Settings{}.normalized()); err != nil {
			return nil, err
		}
		return e, nil
	})
	t.Cleanup(func() { _ = p.Close() })
	return p, &started
}

func TestPoolReusesHealthyEngines(t *testing.T) {
	p, started := fakePool(t, 1)
	ctx := context.Background()

	first, err := p.Acquire(ctx)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	p.Release(first, nil)
	second, err := p.Acquire(ctx)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if second != first || *started != 1 {
		t.Fatalf("engine not reused (started=%d)", *started)
	}

	p.Release(second, errors.New("search failed"))
	third, err := p.Acquire(ctx)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if third == second || *started != 2 {
		t.Fatalf("failed engine reused (started=%d)", *started)
	}
	p.Release(third, nil)
}

func TestPoolBlocksAtCapacity(t *testing.T) {
	p, _ := fakePool(t, 1)
	held, err := p.Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := p.Acquire(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline at capacity, got %v", err)
	}
	p.Release(held, nil)
}

func TestPoolClose(t *testing.T) {
	p, _ := fakePool(t, 2)
	e, err := p.Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := p.Acquire(context.Background()); !errors.Is(err, ErrPoolClosed) {
		t.Fatalf("expected ErrPoolClosed, got %v", err)
	}
	// Released after close: stopped rather than parked.
	p.Release(e, nil)
	if len(p.idle) != 0 {
		t.Fatalf("engine parked after close")
	}
}

func TestNewPoolChecksBinary(t *testing.T) {
	if _, err := NewPool(PoolConfig{}); err == nil {
		t.Fatalf("expected error without binary")
	}
	if _, err := NewPool(PoolConfig{BinaryPath: "/nonexistent/stockfish"}); err == nil {
		t.Fatalf("expected error for missing binary")
	}
}
