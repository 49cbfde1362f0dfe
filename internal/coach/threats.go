package coach

import (
	nchess "github.com/corentings/chess/v2"

	"github.com/park285/cheese-coach/internal/chess/rules"
)

// classifyThreat names the most salient threat left standing after the
// move: a mate in one, else the most valuable capturable piece.
func classifyThreat(after *rules.Position, mover nchess.Color) *finding {
	if after == nil {
		return nil
	}
	if after.Turn() != mover {
		if reply, ok := after.MateInOne(); ok {
			return &finding{
				key:      "threat.mate",
				data:     map[string]any{"Reply": after.SAN(reply)},
				category: CategoryMateThreats,
				cues:     []Cue{arrow(reply.From, reply.To)},
			}
		}
	}
	for _, pl := range byValue(after, mover, minorValue) {
		if !after.Hanging(pl.Square) {
			continue
		}
		cues := []Cue{highlight(pl.Square)}
		for _, a := range after.Attackers(pl.Square, mover.Other()) {
			cues = append(cues, arrow(a, pl.Square))
		}
		return &finding{
			key:      "threat.hanging",
			data:     map[string]any{"Piece": PieceName(pl.Piece.Type()), "Square": pl.Square.String()},
			category: CategoryPieceSafety,
			cues:     cues,
		}
	}
	return nil
}
