package coach

import (
	nchess "github.com/corentings/chess/v2"

	"github.com/park285/cheese-coach/internal/chess/rules"
)

const fewOptions = 3

// advise picks the single most relevant warning for the side about to move.
// Higher-verbosity modes include everything the lower ones do.
func advise(pos *rules.Position, color nchess.Color, mode DifficultyMode) *finding {
	if pos == nil || pos.Turn() != color {
		return nil
	}

	if reply, ok := mateThreatAgainst(pos); ok {
		return &finding{key: "advisory.mate_threat", category: CategoryMateThreats, cues: []Cue{arrow(reply.From, reply.To)}}
	}
	if mode == ModeHard {
		return nil
	}

	hanging := firstHanging(pos, color)
	kingUnsafe := pos.InCheck()
	if !kingUnsafe {
		_, _, kingUnsafe = backRankWeakness(pos, color)
	}

	switch mode {
	case ModeMedium:
		if hanging != nil || kingUnsafe {
			return &finding{key: "advisory.danger"}
		}
		return nil
	case ModeEasy:
		if hanging != nil {
			return pieceAdvice("advisory.piece", pos, *hanging)
		}
		if kingUnsafe {
			return kingAdvice(pos, color)
		}
		return nil
	}

	if hanging != nil {
		return pieceAdvice("advisory.piece_detail", pos, *hanging)
	}
	if kingUnsafe {
		return kingAdvice(pos, color)
	}
	if n := len(pos.LegalMoves()); n > 0 && n <= fewOptions {
		return &finding{key: "advisory.few_options", data: map[string]any{"Count": n}, category: CategoryForced}
	}
	return nil
}

// mateThreatAgainst asks what the opponent could do if the side to move
// passed. A side in check is handled by the check itself.
func mateThreatAgainst(pos *rules.Position) (rules.Move, bool) {
	passed, err := pos.PassTurn()
	if err != nil {
		return rules.Move{}, false
	}
	return passed.MateInOne()
}

func firstHanging(pos *rules.Position, color nchess.Color) *rules.Placed {
	for _, pl := range byValue(pos, color, minorValue) {
		if pos.Hanging(pl.Square) {
			return &pl
		}
	}
	return nil
}

func pieceAdvice(key string, pos *rules.Position, pl rules.Placed) *finding {
	data := map[string]any{"Piece": PieceName(pl.Piece.Type()), "Square": pl.Square.String()}
	cues := []Cue{highlight(pl.Square)}
	if attackers := pos.Attackers(pl.Square, pl.Piece.Color().Other()); len(attackers) > 0 {
		data["Attacker"] = PieceName(pos.PieceAt(attackers[0]).Type())
		data["From"] = attackers[0].String()
		cues = append(cues, arrow(attackers[0], pl.Square))
	}
	return &finding{key: key, data: data, category: CategoryPieceSafety, cues: cues}
}

func kingAdvice(pos *rules.Position, color nchess.Color) *finding {
	f := &finding{key: "advisory.king", category: CategoryBackRank}
	if k, ok := pos.KingSquare(color); ok {
		f.cues = []Cue{highlight(k)}
	}
	return f
}
