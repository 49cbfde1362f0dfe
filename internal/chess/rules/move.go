package rules

import (
	"errors"
	"fmt"
	"strings"

	nchess "github.com/corentings/chess/v2"
)

var (
	ErrIllegalMove = errors.New("illegal move for position")
	ErrBadMove     = errors.New("malformed move")
	ErrBadFEN      = errors.New("malformed fen")
	ErrInCheck     = errors.New("side to move is in check")
)

// Move is a from/to pair with an optional promotion piece. Two moves are
// equal when all three fields match.
type Move struct {
	From  nchess.Square
	To    nchess.Square
	Promo nchess.PieceType
}

func (m Move) String() string {
	s := m.From.String() + m.To.String()
	switch m.Promo {
	case nchess.Queen:
		s += "q"
	case nchess.Rook:
		s += "r"
	case nchess.Bishop:
		s += "b"
	case nchess.Knight:
		s += "n"
	}
	return s
}

// ParseUCI reads long algebraic coordinates such as e2e4 or e7e8q.
func ParseUCI(s string) (Move, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if len(s) != 4 && len(s) != 5 {
		return Move{}, fmt.Errorf("%w: %q", ErrBadMove, s)
	}
	from, ok := parseSquare(s[0:2])
	if !ok {
		return Move{}, fmt.Errorf("%w: %q", ErrBadMove, s)
	}
	to, ok := parseSquare(s[2:4])
	if !ok {
		return Move{}, fmt.Errorf("%w: %q", ErrBadMove, s)
	}
	mv := Move{From: from, To: to, Promo: nchess.NoPieceType}
	if len(s) == 5 {
		switch s[4] {
		case 'q':
			mv.Promo = nchess.Queen
		case 'r':
			mv.Promo = nchess.Rook
		case 'b':
			mv.Promo = nchess.Bishop
		case 'n':
			mv.Promo = nchess.Knight
		default:
			return Move{}, fmt.Errorf("%w: promotion %q", ErrBadMove, s[4:])
		}
	}
	return mv, nil
}

// MustUCI is ParseUCI for literals known to be valid.
func MustUCI(s string) Move {
	mv, err := ParseUCI(s)
	if err != nil {
		panic(err)
	}
	return mv
}

func parseSquare(s string) (nchess.Square, bool) {
	if len(s) != 2 {
		return nchess.NoSquare, false
	}
	f := int(s[0] - 'a')
	r := int(s[1] - '1')
	if f < 0 || f > 7 || r < 0 || r > 7 {
		return nchess.NoSquare, false
	}
	return square(f, r), true
}

func fromNative(m *nchess.Move) Move {
	return Move{From: m.S1(), To: m.S2(), Promo: m.Promo()}
}
