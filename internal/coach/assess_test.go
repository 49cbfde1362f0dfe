package coach

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	nchess "github.com/corentings/chess/v2"
	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/park285/cheese-coach/internal/chess/rules"
	"github.com/park285/cheese-coach/internal/oracle"
)

// Queen on d4 is guarded by the knight on f3 and attacked by the rook on d8.
const queenGuardedFEN = "3r2k1/8/8/8/3Q4/5N2/8/6K1 w - - 0 1"

// constOracle answers every position with score and counts the calls.
func constOracle(score int, calls *int32) oracle.Oracle {
	return oracle.Func(func(_ context.Context, _ *rules.Position) (oracle.Evaluation, error) {
		atomic.AddInt32(calls, 1)
		return oracle.Evaluation{ScoreCP: score}, nil
	})
}

func failingOracle(calls *int32) oracle.Oracle {
	return oracle.Func(func(_ context.Context, _ *rules.Position) (oracle.Evaluation, error) {
		atomic.AddInt32(calls, 1)
		return oracle.Evaluation{}, oracle.ErrUnavailable
	})
}

func assess(t *testing.T, a *Assessor, fen, uci string, initial, final int) MoveAssessment {
	t.Helper()
	pos := rules.MustFEN(fen)
	return a.AssessMove(context.Background(), MoveInput{
		Move:         rules.MustUCI(uci),
		EvalInitial:  initial,
		EvalFinal:    final,
		MoverIsWhite: pos.Turn() == nchess.White,
		Before:       pos,
	}, NewTracker())
}

func TestAssessRecommendedMoveIsBest(t *testing.T) {
	a := NewAssessor(nil, nil)
	mv := rules.MustUCI("e2e4")
	got := a.AssessMove(context.Background(), MoveInput{
		Move:         mv,
		EvalInitial:  30,
		EvalFinal:    -400,
		Recommended:  &mv,
		MoverIsWhite: true,
	}, nil)
	if got.Grade != Best || !got.WasRecommended {
		t.Fatalf("grade=%v recommended=%v", got.Grade, got.WasRecommended)
	}
	if got.Explanation != "Perfect! You found the best move." {
		t.Fatalf("explanation = %q", got.Explanation)
	}
}

func TestAssessGradesWithoutBoards(t *testing.T) {
	a := NewAssessor(nil, nil)
	got := a.AssessMove(context.Background(), MoveInput{
		Move:         rules.MustUCI("e2e4"),
		EvalInitial:  50,
		EvalFinal:    -120,
		MoverIsWhite: true,
	}, nil)
	if got.Grade != Blunder || got.CentipawnLoss != 170 {
		t.Fatalf("grade=%v loss=%d", got.Grade, got.CentipawnLoss)
	}
	if got.Explanation != "That seriously weakened your position (~170cp)." {
		t.Fatalf("explanation = %q", got.Explanation)
	}

	got = a.AssessMove(context.Background(), MoveInput{
		Move:         rules.MustUCI("e7e5"),
		EvalInitial:  -300,
		EvalFinal:    -305,
		MoverIsWhite: false,
	}, nil)
	if got.Grade != Excellent || got.CentipawnLoss != -5 || got.Explanation != "Excellent move!" {
		t.Fatalf("black move: %+v", got)
	}
}

func TestAssessMateThresholdBoundary(t *testing.T) {
	a := NewAssessor(nil, nil)
	in := MoveInput{Move: rules.MustUCI("e2e4"), EvalInitial: MateThreshold, EvalFinal: 0, MoverIsWhite: true}
	got := a.AssessMove(context.Background(), in, nil)
	if got.Grade != Blunder || got.Explanation != "You missed a forced checkmate." {
		t.Fatalf("at threshold: grade=%v explanation=%q", got.Grade, got.Explanation)
	}
	if got.Category != CategoryMateThreats {
		t.Fatalf("category = %q", got.Category)
	}

	in.EvalInitial = MateThreshold - 1
	got = a.AssessMove(context.Background(), in, nil)
	if got.Explanation != "That seriously weakened your position (~49999cp)." {
		t.Fatalf("below threshold: %q", got.Explanation)
	}

	in = MoveInput{Move: rules.MustUCI("e2e4"), EvalInitial: 0, EvalFinal: -oracle.MateScore, MoverIsWhite: true}
	got = a.AssessMove(context.Background(), in, nil)
	if got.Explanation != "This allowed a forced checkmate against you." {
		t.Fatalf("allowed mate: %q", got.Explanation)
	}
}

func TestAssessMissedMateNamesTheMate(t *testing.T) {
	a := NewAssessor(nil, nil)
	pos := rules.MustFEN("6k1/5ppp/8/8/8/8/5PPP/R5K1 w - - 0 1")
	best := rules.MustUCI("a1a8")
	got := a.AssessMove(context.Background(), MoveInput{
		Move:         rules.MustUCI("g1f1"),
		EvalInitial:  oracle.MateScore,
		EvalFinal:    0,
		Recommended:  &best,
		MoverIsWhite: true,
		Before:       pos,
	}, nil)
	if got.Explanation != "You missed a forced checkmate (Ra8# was the way)." {
		t.Fatalf("explanation = %q", got.Explanation)
	}
	if diff := cmp.Diff([]Cue{arrow(best.From, best.To)}, got.Cues); diff != "" {
		t.Fatalf("cues mismatch (-want +got):\n%s", diff)
	}
}

func TestAssessOnlyLegalMoveOverridesBlunder(t *testing.T) {
	a := NewAssessor(nil, nil)
	got := assess(t, a, "7k/8/8/8/8/8/6q1/7K w - - 0 1", "h1g2", 0, -600)
	if got.Grade != Best {
		t.Fatalf("grade = %v", got.Grade)
	}
	if got.Explanation != "This was the only legal move." || got.Category != CategoryForced {
		t.Fatalf("explanation=%q category=%q", got.Explanation, got.Category)
	}
	if got.CentipawnLoss != 600 {
		t.Fatalf("loss must stay raw: %d", got.CentipawnLoss)
	}
}

func TestAssessMateUnavoidable(t *testing.T) {
	a := NewAssessor(nil, nil)
	got := assess(t, a, queenGuardedFEN, "d4d5", -oracle.MateScore, -oracle.MateScore)
	if got.Explanation != "Checkmate was unavoidable; nothing could change the outcome." {
		t.Fatalf("explanation = %q", got.Explanation)
	}
	if got.Grade != Excellent {
		t.Fatalf("grade must not be overridden: %v", got.Grade)
	}
}

func TestAssessAlreadyLost(t *testing.T) {
	var calls int32
	a := NewAssessor(constOracle(-1000, &calls), nil)
	got := assess(t, a, queenGuardedFEN, "f3g5", -900, -950)
	if got.Explanation != "The position was already lost; the alternatives were no better." {
		t.Fatalf("explanation = %q", got.Explanation)
	}
	if got.Category != CategoryLost {
		t.Fatalf("category = %q", got.Category)
	}
	if calls != alternativeSample {
		t.Fatalf("oracle calls = %d, want %d", calls, alternativeSample)
	}
}

func TestAssessOracleFailureLeavesConstraintUnproven(t *testing.T) {
	var calls int32
	a := NewAssessor(failingOracle(&calls), nil)
	got := assess(t, a, queenGuardedFEN, "f3g5", -900, -950)
	if got.Explanation != "Your queen on d4 is hanging; it is attacked and undefended." {
		t.Fatalf("explanation = %q", got.Explanation)
	}
	if calls != 1 {
		t.Fatalf("oracle calls = %d", calls)
	}
}

func TestAssessRespectsOracleBudget(t *testing.T) {
	var calls int32
	a := NewAssessor(constOracle(-1000, &calls), nil, WithOracleBudget(2))
	got := assess(t, a, queenGuardedFEN, "f3g5", -900, -950)
	if calls != 2 {
		t.Fatalf("oracle calls = %d, want 2", calls)
	}
	if got.Category != CategoryPieceSafety {
		t.Fatalf("unproven lost check must fall through: %q", got.Category)
	}
}

func TestOracleBudgetIsCapped(t *testing.T) {
	cases := map[int]int{-1: DefaultOracleBudget, 0: 0, 3: 3, 6: 6, 7: DefaultOracleBudget, 100: DefaultOracleBudget}
	for in, want := range cases {
		if got := NewAssessor(nil, nil, WithOracleBudget(in)).budget; got != want {
			t.Errorf("WithOracleBudget(%d) = %d, want %d", in, got, want)
		}
	}
}

func TestAssessThreatLeftStanding(t *testing.T) {
	var calls int32
	a := NewAssessor(constOracle(300, &calls), nil)
	got := assess(t, a, queenGuardedFEN, "f3g5", 300, -600)
	if got.Grade != Blunder {
		t.Fatalf("grade = %v", got.Grade)
	}
	if got.Explanation != "This move failed to address the threat: your queen on d4 can be captured." {
		t.Fatalf("explanation = %q", got.Explanation)
	}
	if calls != 1 {
		t.Fatalf("oracle calls = %d", calls)
	}
}

func TestAssessOnlyReasonableMove(t *testing.T) {
	const fen = "8/8/8/8/8/8/2k4P/K7 w - - 0 1"
	var calls int32
	a := NewAssessor(constOracle(-500, &calls), nil)

	got := assess(t, a, fen, "h2h4", 0, -60)
	if got.Grade != Good {
		t.Fatalf("grade = %v, want GOOD", got.Grade)
	}
	if got.Explanation != "This was the only reasonable move; every alternative was more than 200cp worse." {
		t.Fatalf("explanation = %q", got.Explanation)
	}
	if calls != 2 {
		t.Fatalf("oracle calls = %d", calls)
	}

	// The override never lowers a better grade.
	got = assess(t, a, fen, "h2h4", 0, 0)
	if got.Grade != Excellent || got.Category != CategoryForced {
		t.Fatalf("grade=%v category=%q", got.Grade, got.Category)
	}
}

func TestAssessOnlyEscapeFromMate(t *testing.T) {
	a := NewAssessor(nil, nil)
	const fen = "6k1/8/8/8/8/5B2/PP6/K6r w - - 0 1"
	got := assess(t, a, fen, "f3h1", -200, -200)
	if got.Grade != Best || got.Explanation != "This was the only move that avoided checkmate. Well found!" {
		t.Fatalf("escape: grade=%v explanation=%q", got.Grade, got.Explanation)
	}

	got = assess(t, a, fen, "f3d1", -200, -oracle.MateScore)
	if got.Grade != Blunder {
		t.Fatalf("interposition that allows mate: %v", got.Grade)
	}
	if got.Explanation != "This allowed a forced checkmate against you." {
		t.Fatalf("explanation = %q", got.Explanation)
	}
}

func TestAssessNoEscapeFromMate(t *testing.T) {
	a := NewAssessor(nil, nil)
	got := assess(t, a, "rb6/8/8/8/8/8/5k1P/7K w - - 0 1", "h2h3", -300, -oracle.MateScore)
	if got.Explanation != "No move could prevent checkmate here." || got.Category != CategoryForced {
		t.Fatalf("explanation=%q category=%q", got.Explanation, got.Category)
	}
}

func TestAssessIllegalMoveDropsBoards(t *testing.T) {
	a := NewAssessor(nil, nil)
	got := assess(t, a, queenGuardedFEN, "a1a8", 0, -40)
	if got.Grade != Inaccuracy || got.Explanation != "Small inaccuracy (~40cp)." {
		t.Fatalf("grade=%v explanation=%q", got.Grade, got.Explanation)
	}
	if got.Cues != nil {
		t.Fatalf("cues = %v", got.Cues)
	}
}

func TestAssessIsDeterministic(t *testing.T) {
	a := NewAssessor(nil, nil)
	first := assess(t, a, queenGuardedFEN, "f3g5", 300, -600)
	second := assess(t, a, queenGuardedFEN, "f3g5", 300, -600)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("assessments differ (-first +second):\n%s", diff)
	}
}

func TestAssessRecordsGradeOnTracker(t *testing.T) {
	a := NewAssessor(nil, nil)
	tr := NewTracker()
	for i := 0; i < 3; i++ {
		a.AssessMove(context.Background(), MoveInput{
			Move: rules.MustUCI("e2e4"), EvalInitial: 0, EvalFinal: -500, MoverIsWhite: true,
		}, tr)
	}
	if tr.Mode() != ModeEasy {
		t.Fatalf("mode after three blunders = %v", tr.Mode())
	}
}

func TestAssessLogsOutcome(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	a := NewAssessor(nil, zap.New(core))
	assess(t, a, queenGuardedFEN, "f3g5", 300, -600)

	entries := logs.FilterMessage("move_assessed").All()
	if len(entries) != 1 {
		t.Fatalf("move_assessed entries = %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["grade"] != "BLUNDER" || fields["category"] != string(CategoryPieceSafety) {
		t.Fatalf("fields = %v", fields)
	}
}

func TestOracleErrorsAreNotFatal(t *testing.T) {
	o := oracle.Func(func(context.Context, *rules.Position) (oracle.Evaluation, error) {
		return oracle.Evaluation{}, errors.New("engine crashed")
	})
	a := NewAssessor(o, nil)
	got := assess(t, a, queenGuardedFEN, "f3g5", 300, -600)
	if got.Explanation != "Your queen on d4 is hanging; it is attacked and undefended." {
		t.Fatalf("explanation = %q", got.Explanation)
	}
}
