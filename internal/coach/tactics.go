package coach

import (
	"strings"

	nchess "github.com/corentings/chess/v2"

	"github.com/park285/cheese-coach/internal/chess/rules"
)

// scene is what every detector sees. before and after may be nil; detectors
// that need a board return nil in that case.
type scene struct {
	before      *rules.Position
	after       *rules.Position
	mover       nchess.Color
	move        rules.Move
	moverBefore int
	moverAfter  int
	best        *rules.Move
}

func (s *scene) hasBoards() bool { return s.before != nil && s.after != nil }

type detector struct {
	name   string
	detect func(*scene) *finding
}

// detectors run in order and the first finding wins.
var detectors = []detector{
	{"missed_mate", detectMissedMate},
	{"allowed_mate", detectAllowedMate},
	{"mate_threat", detectMateThreat},
	{"fork", detectFork},
	{"pin", detectPin},
	{"skewer", detectSkewer},
	{"discovered", detectDiscovered},
	{"back_rank", detectBackRank},
	{"hanging", detectHanging},
	{"overloaded", detectOverloaded},
}

// DetectorNames lists the tactical detectors in priority order.
func DetectorNames() []string {
	out := make([]string, len(detectors))
	for i, d := range detectors {
		out[i] = d.name
	}
	return out
}

func runDetectors(s *scene) *finding {
	for _, d := range detectors {
		if f := d.detect(s); f != nil {
			return f
		}
	}
	return nil
}

func detectMissedMate(s *scene) *finding {
	if s.moverBefore < MateThreshold || s.moverAfter >= MateThreshold {
		return nil
	}
	best := ""
	var cues []Cue
	if s.best != nil && s.before != nil {
		best = s.before.SAN(*s.best)
		cues = append(cues, arrow(s.best.From, s.best.To))
	}
	return &finding{key: "tactic.missed_mate", data: map[string]any{"Best": best}, category: CategoryMateThreats, cues: cues}
}

func detectAllowedMate(s *scene) *finding {
	if s.moverBefore <= -MateThreshold || s.moverAfter > -MateThreshold {
		return nil
	}
	return &finding{key: "tactic.allowed_mate", category: CategoryMateThreats}
}

func detectMateThreat(s *scene) *finding {
	if s.after == nil || s.after.Turn() == s.mover {
		return nil
	}
	reply, ok := s.after.MateInOne()
	if !ok {
		return nil
	}
	return &finding{
		key:      "tactic.mate_threat",
		data:     map[string]any{"Reply": s.after.SAN(reply)},
		category: CategoryMateThreats,
		cues:     []Cue{arrow(reply.From, reply.To)},
	}
}

// capturableAtGain: the target is undefended, or worth more than the
// attacker.
func capturableAtGain(pos *rules.Position, attacker, target nchess.Square) bool {
	if len(pos.Defenders(target)) == 0 {
		return true
	}
	return PieceValue(pos.PieceAt(target).Type()) > PieceValue(pos.PieceAt(attacker).Type())
}

// forkTargets lists the mover pieces the opponent piece on from could win.
func forkTargets(pos *rules.Position, from nchess.Square, mover nchess.Color) []nchess.Square {
	var out []nchess.Square
	for _, sq := range pos.AttacksFrom(from) {
		pc := pos.PieceAt(sq)
		if pc == nchess.NoPiece || pc.Color() != mover || pc.Type() == nchess.King {
			continue
		}
		if PieceValue(pc.Type()) < minorValue || !capturableAtGain(pos, from, sq) {
			continue
		}
		out = append(out, sq)
	}
	return out
}

func detectFork(s *scene) *finding {
	if !s.hasBoards() {
		return nil
	}
	opp := s.mover.Other()
	for _, pl := range s.after.Pieces(opp) {
		targets := forkTargets(s.after, pl.Square, s.mover)
		if len(targets) < 2 {
			continue
		}
		var prior []nchess.Square
		if s.before.PieceAt(pl.Square) == pl.Piece {
			prior = forkTargets(s.before, pl.Square, s.mover)
		}
		if !hasNewTarget(targets, prior, s.move) {
			continue
		}
		names := make([]string, 0, len(targets))
		cues := []Cue{highlight(pl.Square)}
		for _, t := range targets {
			names = append(names, PieceName(s.after.PieceAt(t).Type())+" on "+t.String())
			cues = append(cues, arrow(pl.Square, t))
		}
		return &finding{
			key: "tactic.fork",
			data: map[string]any{
				"Attacker": PieceName(pl.Piece.Type()),
				"From":     pl.Square.String(),
				"Targets":  joinAnd(names),
			},
			category: CategoryForks,
			cues:     cues,
		}
	}
	return nil
}

// hasNewTarget reports whether some target was not already a target of the
// same attacker before the move. The moved piece is tracked to its origin.
func hasNewTarget(targets, prior []nchess.Square, mv rules.Move) bool {
	seen := make(map[nchess.Square]bool, len(prior))
	for _, sq := range prior {
		seen[sq] = true
	}
	for _, t := range targets {
		if t == mv.To || !seen[t] {
			return true
		}
	}
	return false
}

func detectPin(s *scene) *finding {
	if !s.hasBoards() {
		return nil
	}
	opp := s.mover.Other()
	for _, pl := range byValue(s.after, s.mover, minorValue) {
		pinner, ok := s.after.Pinner(pl.Square)
		if !ok || s.before.IsPinned(origin(s.move, pl.Square)) {
			continue
		}
		if !pinIsConsequential(s, pl, pinner, opp) {
			continue
		}
		king, _ := s.after.KingSquare(s.mover)
		return &finding{
			key: "tactic.pin",
			data: map[string]any{
				"Piece":  PieceName(pl.Piece.Type()),
				"Square": pl.Square.String(),
				"Pinner": PieceName(s.after.PieceAt(pinner).Type()),
				"From":   pinner.String(),
			},
			category: CategoryPins,
			cues:     []Cue{highlight(pl.Square), arrow(pinner, king)},
		}
	}
	return nil
}

// pinIsConsequential: the pinned piece is attacked by something besides the
// pinner, or it guards another attacked piece off the pin line, a guard the
// pin has cancelled.
func pinIsConsequential(s *scene, pinned rules.Placed, pinner nchess.Square, opp nchess.Color) bool {
	for _, a := range s.after.Attackers(pinned.Square, opp) {
		if a != pinner {
			return true
		}
	}
	king, _ := s.after.KingSquare(s.mover)
	for _, sq := range s.after.AttacksFrom(pinned.Square) {
		if onPinLine(pinner, king, sq) {
			continue
		}
		pc := s.after.PieceAt(sq)
		if pc == nchess.NoPiece || pc.Color() != s.mover || pc.Type() == nchess.King {
			continue
		}
		if s.after.IsAttacked(sq, opp) {
			return true
		}
	}
	return false
}

// onPinLine reports whether sq lies on the segment from pinner to king.
func onPinLine(pinner, king, sq nchess.Square) bool {
	return sq == pinner || sq == king || onSegment(pinner, king, sq)
}

type skewerLine struct {
	attacker, front, back nchess.Square
}

func skewers(pos *rules.Position, mover nchess.Color) []skewerLine {
	var out []skewerLine
	for _, pl := range pos.Pieces(mover.Other()) {
		if !rules.IsSlider(pl.Piece.Type()) {
			continue
		}
		for _, front := range pos.AttacksFrom(pl.Square) {
			fp := pos.PieceAt(front)
			if fp == nchess.NoPiece || fp.Color() != mover || PieceValue(fp.Type()) < rookValue {
				continue
			}
			back, ok := pos.NextOnRay(pl.Square, front)
			if !ok {
				continue
			}
			bp := pos.PieceAt(back)
			if bp.Color() != mover || bp.Type() == nchess.King || PieceValue(bp.Type()) >= PieceValue(fp.Type()) {
				continue
			}
			out = append(out, skewerLine{attacker: pl.Square, front: front, back: back})
		}
	}
	return out
}

func detectSkewer(s *scene) *finding {
	if !s.hasBoards() {
		return nil
	}
	// A skewer standing before the move still counts: the move failed to
	// break it.
	lines := skewers(s.after, s.mover)
	if len(lines) == 0 {
		return nil
	}
	l := lines[0]
	return &finding{
		key: "tactic.skewer",
		data: map[string]any{
			"Attacker":    PieceName(s.after.PieceAt(l.attacker).Type()),
			"From":        l.attacker.String(),
			"Front":       PieceName(s.after.PieceAt(l.front).Type()),
			"FrontSquare": l.front.String(),
			"Back":        PieceName(s.after.PieceAt(l.back).Type()),
			"BackSquare":  l.back.String(),
		},
		category: CategorySkewers,
		cues:     []Cue{arrow(l.attacker, l.front), highlight(l.back)},
	}
}

func detectDiscovered(s *scene) *finding {
	if !s.hasBoards() {
		return nil
	}
	vacated := s.move.From
	for _, pl := range s.after.Pieces(s.mover.Other()) {
		if !rules.IsSlider(pl.Piece.Type()) || s.before.PieceAt(pl.Square) != pl.Piece {
			continue
		}
		for _, t := range byValue(s.after, s.mover, minorValue) {
			if t.Square == s.move.To || !onSegment(pl.Square, t.Square, vacated) {
				continue
			}
			if !s.after.Attacks(pl.Square, t.Square) || s.before.Attacks(pl.Square, t.Square) {
				continue
			}
			return &finding{
				key: "tactic.discovered",
				data: map[string]any{
					"Vacated":  vacated.String(),
					"Attacker": PieceName(pl.Piece.Type()),
					"From":     pl.Square.String(),
					"Piece":    PieceName(t.Piece.Type()),
					"Square":   t.Square.String(),
				},
				category: CategoryDiscovered,
				cues:     []Cue{arrow(pl.Square, t.Square), highlight(vacated)},
			}
		}
	}
	return nil
}

func onSegment(a, b, sq nchess.Square) bool {
	for _, x := range rules.Between(a, b) {
		if x == sq {
			return true
		}
	}
	return false
}

// backRankWeakness returns the enemy heavy piece that can reach the king's
// home rank while the king is boxed in by its own pieces.
func backRankWeakness(pos *rules.Position, c nchess.Color) (king, attacker nchess.Square, ok bool) {
	king, found := pos.KingSquare(c)
	if !found {
		return nchess.NoSquare, nchess.NoSquare, false
	}
	home, step := nchess.Rank1, 1
	if c == nchess.Black {
		home, step = nchess.Rank8, -1
	}
	if king.Rank() != home {
		return nchess.NoSquare, nchess.NoSquare, false
	}
	escapeRank := int(home) + step
	kf := int(king.File())
	for f := kf - 1; f <= kf+1; f++ {
		if f < 0 || f > 7 {
			continue
		}
		pc := pos.PieceAt(nchess.NewSquare(nchess.File(f), nchess.Rank(escapeRank)))
		if pc == nchess.NoPiece || pc.Color() != c {
			return nchess.NoSquare, nchess.NoSquare, false
		}
	}
	for _, pl := range pos.Pieces(c.Other()) {
		pt := pl.Piece.Type()
		if pt != nchess.Rook && pt != nchess.Queen {
			continue
		}
		if pl.Square.Rank() == home {
			continue
		}
		landing := nchess.NewSquare(pl.Square.File(), home)
		if pos.PieceAt(landing) != nchess.NoPiece {
			continue
		}
		if pos.ClearBetween(pl.Square, landing) {
			return king, pl.Square, true
		}
	}
	return nchess.NoSquare, nchess.NoSquare, false
}

func detectBackRank(s *scene) *finding {
	if !s.hasBoards() {
		return nil
	}
	king, attacker, ok := backRankWeakness(s.after, s.mover)
	if !ok {
		return nil
	}
	return &finding{
		key: "tactic.back_rank",
		data: map[string]any{
			"King":     king.String(),
			"Attacker": PieceName(s.after.PieceAt(attacker).Type()),
			"From":     attacker.String(),
		},
		category: CategoryBackRank,
		cues:     []Cue{highlight(king), arrow(attacker, nchess.NewSquare(attacker.File(), king.Rank()))},
	}
}

func detectHanging(s *scene) *finding {
	if !s.hasBoards() {
		return nil
	}
	for _, pl := range byValue(s.after, s.mover, minorValue) {
		if !s.after.Hanging(pl.Square) || s.before.Hanging(origin(s.move, pl.Square)) {
			continue
		}
		cues := []Cue{highlight(pl.Square)}
		for _, a := range s.after.Attackers(pl.Square, s.mover.Other()) {
			cues = append(cues, arrow(a, pl.Square))
		}
		return &finding{
			key:      "tactic.hanging",
			data:     map[string]any{"Piece": PieceName(pl.Piece.Type()), "Square": pl.Square.String()},
			category: CategoryPieceSafety,
			cues:     cues,
		}
	}
	return nil
}

// detectOverloaded looks at the moved piece: if it guarded two or more
// attacked pieces before the move and one of them now hangs, it was
// overloaded.
func detectOverloaded(s *scene) *finding {
	if !s.hasBoards() {
		return nil
	}
	moved := s.before.PieceAt(s.move.From)
	if moved == nchess.NoPiece || moved.Type() == nchess.King {
		return nil
	}
	opp := s.mover.Other()
	var guarded []nchess.Square
	for _, sq := range s.before.AttacksFrom(s.move.From) {
		pc := s.before.PieceAt(sq)
		if pc == nchess.NoPiece || pc.Color() != s.mover || pc.Type() == nchess.King {
			continue
		}
		if s.before.IsAttacked(sq, opp) {
			guarded = append(guarded, sq)
		}
	}
	if len(guarded) < 2 {
		return nil
	}
	for _, sq := range guarded {
		if s.after.PieceAt(sq) != s.before.PieceAt(sq) {
			continue
		}
		if !s.after.Hanging(sq) || s.before.Hanging(sq) {
			continue
		}
		return &finding{
			key: "tactic.overloaded",
			data: map[string]any{
				"Piece":         PieceName(moved.Type()),
				"Exposed":       PieceName(s.after.PieceAt(sq).Type()),
				"ExposedSquare": sq.String(),
			},
			category: CategoryOverloaded,
			cues:     []Cue{arrow(s.move.From, s.move.To), highlight(sq)},
		}
	}
	return nil
}

func joinAnd(items []string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	case 2:
		return items[0] + " and " + items[1]
	}
	return strings.Join(items[:len(items)-1], ", ") + " and " + items[len(items)-1]
}
