// Package oracle turns positions into White-relative evaluations.
package oracle

import (
	"context"
	"errors"

	nchess "github.com/corentings/chess/v2"

	"github.com/park285/cheese-coach/internal/chess/rules"
	"github.com/park285/cheese-coach/internal/chess/uci"
)

// MateScore is the magnitude used for forced mates. Any magnitude at or
// above 50000 is read as mate by the assessor.
const MateScore = uci.MateScore

var (
	ErrUnavailable = errors.New("position oracle unavailable")
	ErrNoResult    = errors.New("position oracle returned no result")
)

// Evaluation is always expressed from White's point of view. MateIn is the
// signed mate distance (positive: White mates) and is zero unless IsMate.
type Evaluation struct {
	ScoreCP  int         `json:"score_cp"`
	BestMove *rules.Move `json:"best_move,omitempty"`
	IsMate   bool        `json:"is_mate"`
	MateIn   int         `json:"mate_in"`
}

type Oracle interface {
	Evaluate(ctx context.Context, pos *rules.Position) (Evaluation, error)
}

// Func adapts a plain function to Oracle.
type Func func(ctx context.Context, pos *rules.Position) (Evaluation, error)

func (f Func) Evaluate(ctx context.Context, pos *rules.Position) (Evaluation, error) {
	return f(ctx, pos)
}

// terminal scores checkmate and stalemate without asking the engine.
func terminal(pos *rules.Position) (Evaluation, bool) {
	switch {
	case pos.IsCheckmate():
		score := -MateScore
		if pos.Turn() == nchess.Black {
			score = MateScore
		}
		return Evaluation{ScoreCP: score, IsMate: true}, true
	case pos.IsStalemate():
		return Evaluation{}, true
	}
	return Evaluation{}, false
}
