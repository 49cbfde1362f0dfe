package rules

import (
	"fmt"
	"strings"

	nchess "github.com/corentings/chess/v2"
)

const StartFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

// Position is a read-only view over a board snapshot. Apply never mutates
// the receiver.
type Position struct {
	pos *nchess.Position
}

// Placed is a piece together with the square it stands on.
type Placed struct {
	Square nchess.Square
	Piece  nchess.Piece
}

func FromFEN(fen string) (*Position, error) {
	fen = strings.TrimSpace(fen)
	if fen == "" || fen == "startpos" {
		fen = StartFEN
	}
	opt, err := nchess.FEN(fen)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadFEN, err)
	}
	game := nchess.NewGame(opt)
	return &Position{pos: game.Position()}, nil
}

// MustFEN is FromFEN for literals known to be valid.
func MustFEN(fen string) *Position {
	p, err := FromFEN(fen)
	if err != nil {
		panic(err)
	}
	return p
}

// Wrap adapts a position produced by the chess library.
func Wrap(pos *nchess.Position) *Position {
	if pos == nil {
		return nil
	}
	return &Position{pos: pos}
}

func (p *Position) Native() *nchess.Position { return p.pos }

func (p *Position) FEN() string { return p.pos.String() }

func (p *Position) Turn() nchess.Color { return p.pos.Turn() }

func (p *Position) PieceAt(sq nchess.Square) nchess.Piece {
	return p.pos.Board().Piece(sq)
}

func (p *Position) LegalMoves() []Move {
	valid := p.pos.ValidMoves()
	out := make([]Move, 0, len(valid))
	for i := range valid {
		out = append(out, fromNative(&valid[i]))
	}
	return out
}

func (p *Position) native(m Move) (*nchess.Move, bool) {
	valid := p.pos.ValidMoves()
	for i := range valid {
		mv := valid[i]
		if mv.S1() == m.From && mv.S2() == m.To && mv.Promo() == m.Promo {
			return &mv, true
		}
	}
	return nil, false
}

func (p *Position) IsLegal(m Move) bool {
	_, ok := p.native(m)
	return ok
}

// Apply returns the position reached by playing m.
func (p *Position) Apply(m Move) (*Position, error) {
	mv, ok := p.native(m)
	if !ok {
		return nil, fmt.Errorf("%w: %s in %s", ErrIllegalMove, m, p.FEN())
	}
	return &Position{pos: p.pos.Update(mv)}, nil
}

// IsCapture reports whether m takes a piece, en passant included.
func (p *Position) IsCapture(m Move) bool {
	mv, ok := p.native(m)
	if !ok {
		return false
	}
	return mv.HasTag(nchess.Capture) || mv.HasTag(nchess.EnPassant)
}

// Decode accepts coordinate notation first and SAN second. Text shaped like
// coordinates never reaches the SAN parser, which reads "g1f3" as a pawn
// move.
func (p *Position) Decode(text string) (Move, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Move{}, ErrBadMove
	}
	if mv, err := ParseUCI(text); err == nil {
		if !p.IsLegal(mv) {
			return Move{}, fmt.Errorf("%w: %q", ErrIllegalMove, text)
		}
		return mv, nil
	}
	mv, err := nchess.AlgebraicNotation{}.Decode(p.pos, text)
	if err != nil || mv == nil {
		return Move{}, fmt.Errorf("%w: %q", ErrIllegalMove, text)
	}
	out := fromNative(mv)
	if !p.IsLegal(out) {
		return Move{}, fmt.Errorf("%w: %q", ErrIllegalMove, text)
	}
	return out, nil
}

// SAN renders m in standard algebraic notation, falling back to UCI.
func (p *Position) SAN(m Move) string {
	mv, ok := p.native(m)
	if !ok {
		return m.String()
	}
	return nchess.AlgebraicNotation{}.Encode(p.pos, mv)
}

func (p *Position) IsCheckmate() bool { return p.pos.Status() == nchess.Checkmate }

func (p *Position) IsStalemate() bool { return p.pos.Status() == nchess.Stalemate }

func (p *Position) InCheck() bool {
	k, ok := p.KingSquare(p.Turn())
	if !ok {
		return false
	}
	return p.IsAttacked(k, p.Turn().Other())
}

// MateInOne returns a move that checkmates immediately, if the side to
// move has one.
func (p *Position) MateInOne() (Move, bool) {
	opp := p.Turn().Other()
	valid := p.pos.ValidMoves()
	for i := range valid {
		mv := valid[i]
		next := &Position{pos: p.pos.Update(&mv)}
		k, ok := next.KingSquare(opp)
		if !ok || !next.IsAttacked(k, p.Turn()) {
			continue
		}
		if next.IsCheckmate() {
			return fromNative(&mv), true
		}
	}
	return Move{}, false
}

// PassTurn hands the move to the other side without moving a piece. The
// en passant square is cleared. It fails when the side to move is in check.
func (p *Position) PassTurn() (*Position, error) {
	if p.InCheck() {
		return nil, ErrInCheck
	}
	fields := strings.Fields(p.FEN())
	if len(fields) < 4 {
		return nil, fmt.Errorf("%w: %q", ErrBadFEN, p.FEN())
	}
	if fields[1] == "w" {
		fields[1] = "b"
	} else {
		fields[1] = "w"
	}
	fields[3] = "-"
	return FromFEN(strings.Join(fields, " "))
}

func (p *Position) KingSquare(c nchess.Color) (nchess.Square, bool) {
	for _, pl := range p.Pieces(c) {
		if pl.Piece.Type() == nchess.King {
			return pl.Square, true
		}
	}
	return nchess.NoSquare, false
}

// Pieces lists every piece of color c, a1 first.
func (p *Position) Pieces(c nchess.Color) []Placed {
	board := p.pos.Board()
	out := make([]Placed, 0, 16)
	for i := 0; i < 64; i++ {
		sq := nchess.Square(i)
		pc := board.Piece(sq)
		if pc == nchess.NoPiece || pc.Color() != c {
			continue
		}
		out = append(out, Placed{Square: sq, Piece: pc})
	}
	return out
}
