package oracle

import (
	"context"
	"errors"
	"fmt"
	"time"

	nchess "github.com/corentings/chess/v2"
	"go.uber.org/zap"

	"github.com/park285/cheese-coach/internal/chess/rules"
	"github.com/park285/cheese-coach/internal/chess/uci"
)

const defaultDepth = 15

// UCIConfig limits each search. Depth wins when both are zero.
type UCIConfig struct {
	Depth          int
	MoveTimeMillis int
}

func (c UCIConfig) normalized() UCIConfig {
	if c.Depth <= 0 && c.MoveTimeMillis <= 0 {
		c.Depth = defaultDepth
	}
	return c
}

func (c UCIConfig) limits() uci.Limits {
	return uci.Limits{Depth: c.Depth, MoveTimeMillis: c.MoveTimeMillis}
}

// UCI evaluates positions with a pooled UCI engine process.
type UCI struct {
	pool   *uci.Pool
	cfg    UCIConfig
	logger *zap.Logger
}

func NewUCI(pool *uci.Pool, cfg UCIConfig, logger *zap.Logger) *UCI {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UCI{pool: pool, cfg: cfg.normalized(), logger: logger}
}

func (u *UCI) Evaluate(ctx context.Context, pos *rules.Position) (Evaluation, error) {
	if pos == nil {
		return Evaluation{}, fmt.Errorf("%w: nil position", ErrNoResult)
	}
	if ev, ok := terminal(pos); ok {
		return ev, nil
	}
	if u == nil || u.pool == nil {
		return Evaluation{}, ErrUnavailable
	}

	engine, err := u.pool.Acquire(ctx)
	if err != nil {
		return Evaluation{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	start := time.Now()
	res, err := engine.Analyse(ctx, pos.FEN(), u.cfg.limits())
	if errors.Is(err, uci.ErrNoScore) {
		u.pool.Release(engine, nil)
		return Evaluation{}, ErrNoResult
	}
	u.pool.Release(engine, err)
	if err != nil {
		return Evaluation{}, fmt.Errorf("search: %w", err)
	}

	ev := whiteRelative(res.Score, pos.Turn())
	if mv, err := rules.ParseUCI(res.BestMove); err == nil && pos.IsLegal(mv) {
		ev.BestMove = &mv
	}
	u.logger.Debug("oracle_eval",
		zap.String("fen", pos.FEN()),
		zap.Int("score_cp", ev.ScoreCP),
		zap.Int("depth", res.Depth),
		zap.String("best", res.BestMove),
		zap.Duration("took", time.Since(start)))
	return ev, nil
}

// whiteRelative converts a side-to-move score to White's point of view.
func whiteRelative(s uci.Score, turn nchess.Color) Evaluation {
	sign := 1
	if turn == nchess.Black {
		sign = -1
	}
	ev := Evaluation{ScoreCP: s.CP * sign}
	if s.IsMate {
		ev.IsMate = true
		ev.MateIn = s.Mate * sign
	}
	return ev
}

func (u *UCI) Close() error {
	if u == nil || u.pool == nil {
		return nil
	}
	return u.pool.Close()
}
