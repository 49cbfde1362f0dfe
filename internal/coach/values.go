package coach

import (
	"sort"

	nchess "github.com/corentings/chess/v2"

	"github.com/park285/cheese-coach/internal/chess/rules"
)

const (
	minorValue = 300
	rookValue  = 500
	kingValue  = 100000
)

var pieceValues = map[nchess.PieceType]int{
	nchess.Pawn:   100,
	nchess.Knight: 300,
	nchess.Bishop: 300,
	nchess.Rook:   500,
	nchess.Queen:  900,
	nchess.King:   kingValue,
}

var pieceNames = map[nchess.PieceType]string{
	nchess.Pawn:   "pawn",
	nchess.Knight: "knight",
	nchess.Bishop: "bishop",
	nchess.Rook:   "rook",
	nchess.Queen:  "queen",
	nchess.King:   "king",
}

func PieceValue(pt nchess.PieceType) int { return pieceValues[pt] }

func PieceName(pt nchess.PieceType) string {
	if n, ok := pieceNames[pt]; ok {
		return n
	}
	return "piece"
}

// byValue lists c's non-king pieces worth at least min, most valuable first.
// Ties keep board order.
func byValue(pos *rules.Position, c nchess.Color, min int) []rules.Placed {
	var out []rules.Placed
	for _, pl := range pos.Pieces(c) {
		pt := pl.Piece.Type()
		if pt == nchess.King || PieceValue(pt) < min {
			continue
		}
		out = append(out, pl)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return PieceValue(out[i].Piece.Type()) > PieceValue(out[j].Piece.Type())
	})
	return out
}

// origin maps a square in the position after mv back to where that piece
// stood before the move.
func origin(mv rules.Move, sq nchess.Square) nchess.Square {
	if sq == mv.To {
		return mv.From
	}
	return sq
}

func colorOf(white bool) nchess.Color {
	if white {
		return nchess.White
	}
	return nchess.Black
}
