package coach

import (
	"context"

	nchess "github.com/corentings/chess/v2"
	"go.uber.org/zap"

	"github.com/park285/cheese-coach/internal/chess/rules"
	"github.com/park285/cheese-coach/internal/msgcat"
	"github.com/park285/cheese-coach/internal/oracle"
)

// MoveInput carries everything known about one played move. Evaluations
// are White-relative. Recommended, Before and After are optional.
type MoveInput struct {
	Move         rules.Move
	EvalInitial  int
	EvalFinal    int
	Recommended  *rules.Move
	MoverIsWhite bool
	Before       *rules.Position
	After        *rules.Position
}

// MoveAssessment is the result for one move. CentipawnLoss is signed from
// the mover's side; negative means the move improved on the prior score.
type MoveAssessment struct {
	Move           rules.Move
	Grade          Grade
	EvalInitial    int
	EvalFinal      int
	CentipawnLoss  int
	Recommended    *rules.Move
	WasRecommended bool
	Explanation    string
	Category       Category
	Cues           []Cue
}

type Assessor struct {
	oracle  oracle.Oracle
	catalog *msgcat.Catalog
	logger  *zap.Logger
	budget  int
}

type Option func(*Assessor)

// WithOracleBudget sets the per-assessment cap on extra oracle calls. Values
// above DefaultOracleBudget are clamped to it; negative values are ignored.
func WithOracleBudget(n int) Option {
	return func(a *Assessor) {
		if n >= 0 {
			a.budget = min(n, DefaultOracleBudget)
		}
	}
}

func WithCatalog(c *msgcat.Catalog) Option {
	return func(a *Assessor) {
		if c != nil {
			a.catalog = c
		}
	}
}

// NewAssessor builds an assessor. A nil oracle disables the lookahead
// checks; they are then reported as unproven.
func NewAssessor(o oracle.Oracle, logger *zap.Logger, opts ...Option) *Assessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &Assessor{oracle: o, logger: logger, budget: DefaultOracleBudget}
	for _, opt := range opts {
		opt(a)
	}
	if a.catalog == nil {
		a.catalog = msgcat.Default()
	}
	return a
}

// AssessMove grades in and explains the grade, then records the final grade
// on tracker. It never fails; missing inputs only make the explanation
// coarser.
func (a *Assessor) AssessMove(ctx context.Context, in MoveInput, tracker *Tracker) MoveAssessment {
	if ctx == nil {
		ctx = context.Background()
	}
	before, after := a.boards(in)

	wasRecommended := in.Recommended != nil && *in.Recommended == in.Move
	grade, loss := GradeMove(in.EvalInitial, in.EvalFinal, in.MoverIsWhite, wasRecommended)
	mover := colorOf(in.MoverIsWhite)
	moverBefore := MoverEval(in.EvalInitial, in.MoverIsWhite)
	moverAfter := MoverEval(in.EvalFinal, in.MoverIsWhite)

	look := &lookahead{
		ctx:     ctx,
		oracle:  a.oracle,
		before:  before,
		white:   in.MoverIsWhite,
		budget:  a.budget,
		results: make(map[rules.Move]int),
		logger:  a.logger,
	}
	cr := analyzeConstraints(constraintInput{
		before:      before,
		move:        in.Move,
		moverBefore: moverBefore,
		moverAfter:  moverAfter,
		look:        look,
	})

	var found *finding
	switch {
	case cr.finding != nil:
		found = cr.finding
		if cr.override != 0 && !wasRecommended && (!cr.floor || grade < cr.override) {
			grade = cr.override
		}
	case cr.threat:
		found = classifyThreat(after, mover)
	}

	if found == nil && grade <= Inaccuracy {
		found = runDetectors(&scene{
			before:      before,
			after:       after,
			mover:       mover,
			move:        in.Move,
			moverBefore: moverBefore,
			moverAfter:  moverAfter,
			best:        in.Recommended,
		})
	}
	if found == nil {
		found = fallbackFinding(grade, loss)
	}

	tracker.Record(grade)

	out := MoveAssessment{
		Move:           in.Move,
		Grade:          grade,
		EvalInitial:    in.EvalInitial,
		EvalFinal:      in.EvalFinal,
		CentipawnLoss:  loss,
		WasRecommended: wasRecommended,
		Explanation:    a.render(found, grade, loss),
		Category:       found.category,
		Cues:           found.cues,
	}
	if in.Recommended != nil {
		rec := *in.Recommended
		out.Recommended = &rec
	}
	a.logger.Debug("move_assessed",
		zap.String("move", in.Move.String()),
		zap.Stringer("grade", grade),
		zap.Int("loss", loss),
		zap.String("category", string(found.category)),
		zap.Int("oracle_calls", look.used))
	return out
}

// boards fills in After from Before when possible. A move that is illegal
// in Before drops both boards.
func (a *Assessor) boards(in MoveInput) (*rules.Position, *rules.Position) {
	before, after := in.Before, in.After
	if before == nil {
		return nil, after
	}
	if !before.IsLegal(in.Move) {
		a.logger.Debug("assess_illegal_move", zap.String("move", in.Move.String()), zap.String("fen", before.FEN()))
		return nil, nil
	}
	if after == nil {
		next, err := before.Apply(in.Move)
		if err == nil {
			after = next
		}
	}
	return before, after
}

func fallbackFinding(g Grade, loss int) *finding {
	key := "fallback.blunder"
	switch g {
	case Best:
		key = "fallback.best"
	case Excellent:
		key = "fallback.excellent"
	case Good:
		key = "fallback.good"
	case Inaccuracy:
		key = "fallback.inaccuracy"
	case Mistake:
		key = "fallback.mistake"
	}
	if loss < 0 {
		loss = 0
	}
	return &finding{key: key, data: map[string]any{"Loss": loss}}
}

func (a *Assessor) render(f *finding, g Grade, loss int) string {
	text, err := a.catalog.Render(f.key, f.data)
	if err == nil {
		return text
	}
	a.logger.Debug("explanation_render_failed", zap.String("key", f.key), zap.Error(err))
	fb := fallbackFinding(g, loss)
	if text, err = a.catalog.Render(fb.key, fb.data); err == nil {
		return text
	}
	return g.String()
}

// Advice is a pre-move warning with its board cues.
type Advice struct {
	Text     string
	Category Category
	Cues     []Cue
}

// Advise returns a warning for color, who is about to move, or false when
// mode has nothing to say.
func (a *Assessor) Advise(pos *rules.Position, color nchess.Color, mode DifficultyMode) (Advice, bool) {
	f := advise(pos, color, mode)
	if f == nil {
		return Advice{}, false
	}
	text, err := a.catalog.Render(f.key, f.data)
	if err != nil {
		a.logger.Debug("advisory_render_failed", zap.String("key", f.key), zap.Error(err))
		return Advice{}, false
	}
	return Advice{Text: text, Category: f.category, Cues: f.cues}, true
}

// PreMoveAdvisory is Advise without the cues.
func (a *Assessor) PreMoveAdvisory(pos *rules.Position, color nchess.Color, mode DifficultyMode) (string, bool) {
	adv, ok := a.Advise(pos, color, mode)
	return adv.Text, ok
}
