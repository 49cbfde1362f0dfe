package rules

import (
	nchess "github.com/corentings/chess/v2"
)

type direction struct{ df, dr int }

var (
	orthogonal = []direction{{0, 1}, {1, 0}, {0, -1}, {-1, 0}}
	diagonal   = []direction{{1, 1}, {1, -1}, {-1, -1}, {-1, 1}}
	knightJump = []direction{{1, 2}, {2, 1}, {2, -1}, {1, -2}, {-1, -2}, {-2, -1}, {-2, 1}, {-1, 2}}
)

func square(f, r int) nchess.Square {
	return nchess.NewSquare(nchess.File(f), nchess.Rank(r))
}

func coords(sq nchess.Square) (int, int) {
	return int(sq.File()), int(sq.Rank())
}

func onBoard(f, r int) bool { return f >= 0 && f < 8 && r >= 0 && r < 8 }

// IsSlider reports whether pt attacks along open lines.
func IsSlider(pt nchess.PieceType) bool {
	return pt == nchess.Queen || pt == nchess.Rook || pt == nchess.Bishop
}

func slides(pt nchess.PieceType, d direction) bool {
	diag := d.df != 0 && d.dr != 0
	switch pt {
	case nchess.Queen:
		return true
	case nchess.Rook:
		return !diag
	case nchess.Bishop:
		return diag
	}
	return false
}

// AttacksFrom lists the squares the piece on sq attacks, including squares
// occupied by either color. An empty square attacks nothing.
func (p *Position) AttacksFrom(sq nchess.Square) []nchess.Square {
	pc := p.PieceAt(sq)
	if pc == nchess.NoPiece {
		return nil
	}
	f, r := coords(sq)
	var out []nchess.Square
	step := func(ds []direction) {
		for _, d := range ds {
			if onBoard(f+d.df, r+d.dr) {
				out = append(out, square(f+d.df, r+d.dr))
			}
		}
	}
	switch pc.Type() {
	case nchess.Pawn:
		dir := 1
		if pc.Color() == nchess.Black {
			dir = -1
		}
		step([]direction{{-1, dir}, {1, dir}})
	case nchess.Knight:
		step(knightJump)
	case nchess.King:
		step(orthogonal)
		step(diagonal)
	default:
		for _, d := range append(append([]direction{}, orthogonal...), diagonal...) {
			if !slides(pc.Type(), d) {
				continue
			}
			for cf, cr := f+d.df, r+d.dr; onBoard(cf, cr); cf, cr = cf+d.df, cr+d.dr {
				t := square(cf, cr)
				out = append(out, t)
				if p.PieceAt(t) != nchess.NoPiece {
					break
				}
			}
		}
	}
	return out
}

// Attacks reports whether the piece on from attacks target.
func (p *Position) Attacks(from, target nchess.Square) bool {
	for _, sq := range p.AttacksFrom(from) {
		if sq == target {
			return true
		}
	}
	return false
}

// Attackers lists squares of color-by pieces attacking sq.
func (p *Position) Attackers(sq nchess.Square, by nchess.Color) []nchess.Square {
	var out []nchess.Square
	for _, pl := range p.Pieces(by) {
		if p.Attacks(pl.Square, sq) {
			out = append(out, pl.Square)
		}
	}
	return out
}

func (p *Position) IsAttacked(sq nchess.Square, by nchess.Color) bool {
	return len(p.Attackers(sq, by)) > 0
}

// Defenders lists pieces guarding the occupant of sq from its own side.
func (p *Position) Defenders(sq nchess.Square) []nchess.Square {
	pc := p.PieceAt(sq)
	if pc == nchess.NoPiece {
		return nil
	}
	return p.Attackers(sq, pc.Color())
}

// Hanging reports whether the piece on sq is attacked by the enemy and not
// defended by its own side.
func (p *Position) Hanging(sq nchess.Square) bool {
	pc := p.PieceAt(sq)
	if pc == nchess.NoPiece {
		return false
	}
	return p.IsAttacked(sq, pc.Color().Other()) && len(p.Defenders(sq)) == 0
}

func lineDirection(a, b nchess.Square) (direction, bool) {
	af, ar := coords(a)
	bf, br := coords(b)
	df, dr := bf-af, br-ar
	if df == 0 && dr == 0 {
		return direction{}, false
	}
	if df != 0 && dr != 0 && abs(df) != abs(dr) {
		return direction{}, false
	}
	return direction{sign(df), sign(dr)}, true
}

// Aligned reports whether a and b share a rank, file or diagonal.
func Aligned(a, b nchess.Square) bool {
	_, ok := lineDirection(a, b)
	return ok
}

// Between lists squares strictly between a and b on a shared line.
func Between(a, b nchess.Square) []nchess.Square {
	d, ok := lineDirection(a, b)
	if !ok {
		return nil
	}
	af, ar := coords(a)
	var out []nchess.Square
	for cf, cr := af+d.df, ar+d.dr; square(cf, cr) != b; cf, cr = cf+d.df, cr+d.dr {
		out = append(out, square(cf, cr))
	}
	return out
}

// ClearBetween reports whether every square between a and b is empty.
func (p *Position) ClearBetween(a, b nchess.Square) bool {
	if !Aligned(a, b) {
		return false
	}
	for _, sq := range Between(a, b) {
		if p.PieceAt(sq) != nchess.NoPiece {
			return false
		}
	}
	return true
}

// NextOnRay walks from a past b in the a→b direction and returns the first
// occupied square.
func (p *Position) NextOnRay(a, b nchess.Square) (nchess.Square, bool) {
	d, ok := lineDirection(a, b)
	if !ok {
		return nchess.NoSquare, false
	}
	bf, br := coords(b)
	for cf, cr := bf+d.df, br+d.dr; onBoard(cf, cr); cf, cr = cf+d.df, cr+d.dr {
		t := square(cf, cr)
		if p.PieceAt(t) != nchess.NoPiece {
			return t, true
		}
	}
	return nchess.NoSquare, false
}

// CanSlideAlong reports whether a piece of type pt moves along the a→b line.
func CanSlideAlong(pt nchess.PieceType, a, b nchess.Square) bool {
	d, ok := lineDirection(a, b)
	return ok && slides(pt, d)
}

// Pinner returns the enemy slider pinning the piece on sq to its king.
func (p *Position) Pinner(sq nchess.Square) (nchess.Square, bool) {
	pc := p.PieceAt(sq)
	if pc == nchess.NoPiece || pc.Type() == nchess.King {
		return nchess.NoSquare, false
	}
	king, ok := p.KingSquare(pc.Color())
	if !ok || !p.ClearBetween(king, sq) {
		return nchess.NoSquare, false
	}
	beyond, ok := p.NextOnRay(king, sq)
	if !ok {
		return nchess.NoSquare, false
	}
	enemy := p.PieceAt(beyond)
	if enemy.Color() == pc.Color() || !CanSlideAlong(enemy.Type(), king, sq) {
		return nchess.NoSquare, false
	}
	return beyond, true
}

func (p *Position) IsPinned(sq nchess.Square) bool {
	_, ok := p.Pinner(sq)
	return ok
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}
