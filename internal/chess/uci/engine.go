// Package uci drives UCI chess engines as analysis backends.
package uci

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	handshakeTimeout = 5 * time.Second
	readyTimeout     = 4 * time.Second
	quitGrace        = 2 * time.Second
	lineBuffer       = 64
	defaultHashMB    = 64
)

var errEngineExited = errors.New("engine exited")

// Settings are sent once after the handshake. Analysis always runs at full
// strength.
type Settings struct {
	Threads int
	HashMB  int
}

func (s Settings) normalized() Settings {
	if s.Threads <= 0 {
		s.Threads = 1
	}
	if s.HashMB <= 0 {
		s.HashMB = defaultHashMB
	}
	return s
}

func (s Settings) commands() []string {
	return []string{
		"setoption name Threads value " + strconv.Itoa(s.Threads),
		"setoption name Hash value " + strconv.Itoa(s.HashMB),
		"setoption name UCI_LimitStrength value false",
	}
}

// Engine is one engine process. Its output is pumped line by line into a
// channel so reads can honour a context without leaking goroutines.
type Engine struct {
	in    io.WriteCloser
	lines chan string
	quit  chan struct{}
	stop  func() error

	writeMu   sync.Mutex
	mu        sync.Mutex
	closeOnce sync.Once
	closeErr  error
}

// Start launches the binary and completes the uci/isready handshake.
func Start(ctx context.Context, binaryPath string, set Settings) (*Engine, error) {
	// Not CommandContext: a pooled engine outlives the request that spawned it.
	cmd := exec.Command(binaryPath)
	in, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("create stdin pipe: %w", err)
	}
	out, err := cmd.StdoutPipe()
	if err != nil {
		in.Close()
		return nil, fmt.Errorf("create stdout pipe: %w", err)
	}
	cmd.Stderr = os.Stderr
	if err := cmd.Start(); err != nil {
		in.Close()
		out.Close()
		return nil, fmt.Errorf("start engine: %w", err)
	}

	e := newEngine(in, out, func() error { return waitOrKill(cmd) })
	if err := e.handshake(ctx, set.normalized()); err != nil {
		_ = e.Close()
		return nil, err
	}
	return e, nil
}

func newEngine(in io.WriteCloser, out io.Reader, stop func() error) *Engine {
	e := &Engine{
		in:    in,
		lines: make(chan string, lineBuffer),
		quit:  make(chan struct{}),
		stop:  stop,
	}
	go e.pump(out)
	return e
}

func waitOrKill(cmd *exec.Cmd) error {
	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()
	select {
	case err := <-done:
		return err
	case <-time.After(quitGrace):
		_ = cmd.Process.Kill()
		<-done
		return nil
	}
}

func (e *Engine) pump(out io.Reader) {
	defer close(e.lines)
	sc := bufio.NewScanner(out)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		select {
		case e.lines <- line:
		case <-e.quit:
			return
		}
	}
}

func (e *Engine) handshake(ctx context.Context, set Settings) error {
	hctx, cancel := context.WithTimeout(ctx, handshakeTimeout)
	defer cancel()

	if err := e.send("uci"); err != nil {
		return fmt.Errorf("send uci: %w", err)
	}
	if err := e.await(hctx, "uciok"); err != nil {
		return fmt.Errorf("wait uciok: %w", err)
	}
	for _, cmd := range set.commands() {
		if err := e.send(cmd); err != nil {
			return fmt.Errorf("apply settings: %w", err)
		}
	}
	return e.ready(hctx)
}

// Ready pings the engine; a failure means the process should be discarded.
func (e *Engine) Ready(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ready(ctx)
}

func (e *Engine) ready(ctx context.Context) error {
	rctx, cancel := context.WithTimeout(ctx, readyTimeout)
	defer cancel()
	if err := e.send("isready"); err != nil {
		return fmt.Errorf("send isready: %w", err)
	}
	if err := e.await(rctx, "readyok"); err != nil {
		return fmt.Errorf("wait readyok: %w", err)
	}
	return nil
}

// Close ends the process. Stockfish exits on end of input.
func (e *Engine) Close() error {
	e.closeOnce.Do(func() {
		close(e.quit)
		e.writeMu.Lock()
		_ = e.in.Close()
		e.writeMu.Unlock()
		if e.stop != nil {
			e.closeErr = e.stop()
		}
	})
	return e.closeErr
}

func (e *Engine) send(cmd string) error {
	e.writeMu.Lock()
	defer e.writeMu.Unlock()
	_, err := io.WriteString(e.in, cmd+"\n")
	return err
}

func (e *Engine) next(ctx context.Context) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case line, ok := <-e.lines:
		if !ok {
			return "", errEngineExited
		}
		return line, nil
	}
}

func (e *Engine) await(ctx context.Context, token string) error {
	for {
		line, err := e.next(ctx)
		if err != nil {
			return err
		}
		if first, _, _ := strings.Cut(line, " "); first == token {
			return nil
		}
	}
}
