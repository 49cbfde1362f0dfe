package uci

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"
	"sync"

	"go.uber.org/zap"

	"github.com/park285/cheese-coach/internal/obslog"
)

var ErrPoolClosed = errors.New("engine pool closed")

type PoolConfig struct {
	BinaryPath string
	// Size caps concurrently running engines; zero picks a CPU-based default.
	Size     int
	Settings Settings
}

// Pool hands out engines one request at a time. Engines are started lazily
// and reused while they stay healthy.
type Pool struct {
	start func(ctx context.Context) (*Engine, error)
	slots chan struct{}
	idle  chan *Engine

	mu     sync.Mutex
	closed bool
}

func NewPool(cfg PoolConfig) (*Pool, error) {
	if cfg.BinaryPath == "" {
		return nil, fmt.Errorf("binary path required")
	}
	if _, err := os.Stat(cfg.BinaryPath); err != nil {
		return nil, fmt.Errorf("stockfish binary check: %w", err)
	}
	set := cfg.Settings.normalized()
	return newPool(cfg.Size, func(ctx context.Context) (*Engine, error) {
		return Start(ctx, cfg.BinaryPath, set)
	}), nil
}

func newPool(size int, start func(context.Context) (*Engine, error)) *Pool {
	if size <= 0 {
		size = defaultPoolSize()
	}
	return &Pool{
		start: start,
		slots: make(chan struct{}, size),
		idle:  make(chan *Engine, size),
	}
}

func defaultPoolSize() int {
	return min(max(runtime.NumCPU()/2, 1), 4)
}

// Acquire blocks until an engine is free or ctx ends. Every successful
// Acquire must be paired with Release.
func (p *Pool) Acquire(ctx context.Context) (*Engine, error) {
	if p.isClosed() {
		return nil, ErrPoolClosed
	}
	select {
	case p.slots <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	for {
		select {
		case e := <-p.idle:
			if err := e.Ready(ctx); err != nil {
				obslog.L().Debug("uci_engine_discarded", zap.Error(err))
				_ = e.Close()
				if ctx.Err() != nil {
					<-p.slots
					return nil, ctx.Err()
				}
				continue
			}
			return e, nil
		default:
		}

		e, err := p.start(ctx)
		if err != nil {
			<-p.slots
			return nil, err
		}
		return e, nil
	}
}

// Release returns e to the pool. A non-nil err marks the engine unusable.
func (p *Pool) Release(e *Engine, err error) {
	if e == nil {
		return
	}
	defer func() { <-p.slots }()

	if err == nil {
		p.mu.Lock()
		if !p.closed {
			select {
			case p.idle <- e:
				p.mu.Unlock()
				return
			default:
			}
		}
		p.mu.Unlock()
	}
	_ = e.Close()
}

// Close stops idle engines. Engines still checked out are stopped when
// they are released.
func (p *Pool) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.mu.Unlock()

	var errs []error
	for {
		select {
		case e := <-p.idle:
			if err := e.Close(); err != nil {
				errs = append(errs, err)
			}
		default:
			return errors.Join(errs...)
		}
	}
}

func (p *Pool) isClosed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}
