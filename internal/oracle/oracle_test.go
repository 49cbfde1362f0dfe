package oracle

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	nchess "github.com/corentings/chess/v2"
	"github.com/google/go-cmp/cmp"
	"github.com/redis/go-redis/v9"

	"github.com/park285/cheese-coach/internal/chess/rules"
	"github.com/park285/cheese-coach/internal/chess/uci"
)

func newTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb, mr
}

type countingOracle struct {
	calls int
	ev    Evaluation
	err   error
}

func (c *countingOracle) Evaluate(ctx context.Context, pos *rules.Position) (Evaluation, error) {
	c.calls++
	return c.ev, c.err
}

func TestCacheReadThrough(t *testing.T) {
	rdb, mr := newTestRedis(t)
	best := rules.MustUCI("e2e4")
	inner := &countingOracle{ev: Evaluation{ScoreCP: 31, BestMove: &best}}
	c := NewCache(inner, rdb, "d15", time.Hour, nil)
	ctx := context.Background()
	pos := rules.MustFEN(rules.StartFEN)

	first, err := c.Evaluate(ctx, pos)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	second, err := c.Evaluate(ctx, pos)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if inner.calls != 1 {
		t.Fatalf("expected one inner call, got %d", inner.calls)
	}
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("cached value differs (-first +second):\n%s", diff)
	}
	if ttl := mr.TTL(c.cacheKey(pos)); ttl != time.Hour {
		t.Fatalf("ttl = %v", ttl)
	}
}

func TestCacheIgnoresMoveClocks(t *testing.T) {
	rdb, _ := newTestRedis(t)
	c := NewCache(&countingOracle{}, rdb, "d15", 0, nil)
	a := rules.MustFEN("6k1/8/8/8/8/8/8/6K1 w - - 0 1")
	b := rules.MustFEN("6k1/8/8/8/8/8/8/6K1 w - - 12 40")
	if c.cacheKey(a) != c.cacheKey(b) {
		t.Fatalf("clock fields must not change the key")
	}
	other := NewCache(&countingOracle{}, rdb, "d20", 0, nil)
	if c.cacheKey(a) == other.cacheKey(a) {
		t.Fatalf("namespace must change the key")
	}
}

func TestCacheDoesNotStoreErrors(t *testing.T) {
	rdb, mr := newTestRedis(t)
	inner := &countingOracle{err: ErrUnavailable}
	c := NewCache(inner, rdb, "d15", time.Hour, nil)
	pos := rules.MustFEN(rules.StartFEN)
	if _, err := c.Evaluate(context.Background(), pos); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	if mr.Exists(c.cacheKey(pos)) {
		t.Fatalf("error result must not be cached")
	}
}

func TestCacheSurvivesRedisOutage(t *testing.T) {
	rdb, mr := newTestRedis(t)
	inner := &countingOracle{ev: Evaluation{ScoreCP: 5}}
	c := NewCache(inner, rdb, "d15", time.Hour, nil)
	mr.SetError("ERR server unavailable")
	ev, err := c.Evaluate(context.Background(), rules.MustFEN(rules.StartFEN))
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if ev.ScoreCP != 5 || inner.calls != 1 {
		t.Fatalf("expected fallback to inner oracle, got %+v calls=%d", ev, inner.calls)
	}
}

func TestWhiteRelativeFlipsForBlack(t *testing.T) {
	ev := whiteRelative(uci.Score{CP: 120}, nchess.Black)
	if ev.ScoreCP != -120 {
		t.Fatalf("score = %d", ev.ScoreCP)
	}
	ev = whiteRelative(uci.Score{CP: uci.MateScore, IsMate: true, Mate: 2}, nchess.Black)
	want := Evaluation{ScoreCP: -MateScore, IsMate: true, MateIn: -2}
	if diff := cmp.Diff(want, ev); diff != "" {
		t.Fatalf("mate flip (-want +got):\n%s", diff)
	}
}

func TestTerminalPositions(t *testing.T) {
	// Black is mated.
	mated := rules.MustFEN("R5k1/5ppp/8/8/8/8/8/6K1 b - - 0 1")
	ev, err := NewUCI(nil, UCIConfig{}, nil).Evaluate(context.Background(), mated)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if ev.ScoreCP != MateScore || !ev.IsMate {
		t.Fatalf("mated black should score +mate: %+v", ev)
	}
	if _, err := NewUCI(nil, UCIConfig{}, nil).Evaluate(context.Background(), rules.MustFEN(rules.StartFEN)); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable without a pool, got %v", err)
	}
}
