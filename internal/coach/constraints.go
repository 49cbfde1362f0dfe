package coach

import (
	"context"

	"go.uber.org/zap"

	"github.com/park285/cheese-coach/internal/chess/rules"
	"github.com/park285/cheese-coach/internal/oracle"
)

const (
	// DefaultOracleBudget caps extra oracle calls made for one assessment.
	DefaultOracleBudget = 6

	lostThreshold       = -800
	acceptableThreshold = -100
	troubleThreshold    = -300
	reasonableMargin    = 200
	alternativeSample   = 3
	smallMoveSet        = 6
)

// lookahead re-evaluates alternative moves. Results are memoized per move
// and the number of oracle calls never exceeds budget.
type lookahead struct {
	ctx     context.Context
	oracle  oracle.Oracle
	before  *rules.Position
	white   bool
	budget  int
	used    int
	results map[rules.Move]int
	logger  *zap.Logger
}

// eval returns the mover-relative score after playing mv. ok is false when
// the oracle failed or the budget is spent.
func (l *lookahead) eval(mv rules.Move) (int, bool) {
	if v, ok := l.results[mv]; ok {
		return v, true
	}
	if l.oracle == nil || l.used >= l.budget {
		return 0, false
	}
	next, err := l.before.Apply(mv)
	if err != nil {
		return 0, false
	}
	l.used++
	ev, err := l.oracle.Evaluate(l.ctx, next)
	if err != nil {
		l.logger.Debug("lookahead_eval_failed", zap.String("move", mv.String()), zap.Error(err))
		return 0, false
	}
	v := MoverEval(ev.ScoreCP, l.white)
	l.results[mv] = v
	return v, true
}

type constraintResult struct {
	finding  *finding
	override Grade // zero: no override
	floor    bool  // override only raises the grade
	threat   bool  // deferred to the threat classifier
}

type constraintInput struct {
	before      *rules.Position
	move        rules.Move
	moverBefore int
	moverAfter  int
	look        *lookahead
}

func alternatives(legal []rules.Move, played rules.Move) []rules.Move {
	out := make([]rules.Move, 0, len(legal))
	for _, mv := range legal {
		if mv != played {
			out = append(out, mv)
		}
	}
	return out
}

func sample(moves []rules.Move, n int) []rules.Move {
	if len(moves) > n {
		return moves[:n]
	}
	return moves
}

// analyzeConstraints runs the forced-play checks in priority order; the
// first that applies wins.
func analyzeConstraints(in constraintInput) constraintResult {
	if in.before == nil {
		if in.moverBefore <= -MateThreshold {
			return constraintResult{finding: &finding{key: "constraint.mate_unavoidable", category: CategoryForced}}
		}
		return constraintResult{}
	}

	legal := in.before.LegalMoves()
	if len(legal) == 1 {
		return constraintResult{
			finding:  &finding{key: "constraint.only_legal", category: CategoryForced, cues: []Cue{arrow(in.move.From, in.move.To)}},
			override: Best,
		}
	}

	if in.moverBefore <= -MateThreshold {
		return constraintResult{finding: &finding{key: "constraint.mate_unavoidable", category: CategoryForced}}
	}

	alts := alternatives(legal, in.move)

	if in.moverBefore <= lostThreshold && allLose(in.look, sample(alts, alternativeSample)) {
		return constraintResult{finding: &finding{key: "constraint.already_lost", category: CategoryLost}}
	}

	if res, ok := mateEscapes(in.before, legal, in.move); ok {
		return res
	}

	if len(legal) <= smallMoveSet && onlyReasonable(in.look, alts, in.moverAfter) {
		return constraintResult{
			finding:  &finding{key: "constraint.only_reasonable", data: map[string]any{"Margin": reasonableMargin}, category: CategoryForced},
			override: Good,
			floor:    true,
		}
	}

	if in.moverBefore >= acceptableThreshold && in.moverAfter <= troubleThreshold &&
		savingMoveExists(in.look, sample(alts, alternativeSample)) {
		return constraintResult{threat: true}
	}
	return constraintResult{}
}

// allLose is true only when every sampled alternative was evaluated and
// stays at or below the lost threshold.
func allLose(l *lookahead, alts []rules.Move) bool {
	if len(alts) == 0 {
		return false
	}
	for _, mv := range alts {
		v, ok := l.eval(mv)
		if !ok || v > lostThreshold {
			return false
		}
	}
	return true
}

// mateEscapes reports the single move that avoids an immediate mate, or
// that no move does. ok is false when neither applies.
func mateEscapes(before *rules.Position, legal []rules.Move, played rules.Move) (constraintResult, bool) {
	var escapes []rules.Move
	for _, mv := range legal {
		next, err := before.Apply(mv)
		if err != nil {
			continue
		}
		if _, mates := next.MateInOne(); !mates {
			escapes = append(escapes, mv)
			if len(escapes) > 1 {
				return constraintResult{}, false
			}
		}
	}
	switch {
	case len(escapes) == 0:
		return constraintResult{finding: &finding{key: "constraint.no_escape", category: CategoryForced}}, true
	case escapes[0] == played:
		return constraintResult{
			finding:  &finding{key: "constraint.only_escape", category: CategoryForced, cues: []Cue{arrow(played.From, played.To)}},
			override: Best,
		}, true
	}
	return constraintResult{}, false
}

// onlyReasonable requires a verdict on every alternative; one failed
// evaluation leaves the condition unproven.
func onlyReasonable(l *lookahead, alts []rules.Move, played int) bool {
	if len(alts) == 0 {
		return false
	}
	for _, mv := range alts {
		v, ok := l.eval(mv)
		if !ok || v >= played-reasonableMargin {
			return false
		}
	}
	return true
}

func savingMoveExists(l *lookahead, alts []rules.Move) bool {
	for _, mv := range alts {
		if v, ok := l.eval(mv); ok && v >= acceptableThreshold {
			return true
		}
	}
	return false
}
