package coach

import nchess "github.com/corentings/chess/v2"

type Category string

const (
	CategoryNone         Category = ""
	CategoryMateThreats  Category = "mate_threats"
	CategoryPieceSafety  Category = "piece_safety"
	CategoryForks        Category = "forks"
	CategoryPins         Category = "pins"
	CategorySkewers      Category = "skewers"
	CategoryDiscovered   Category = "discovered_attacks"
	CategoryBackRank     Category = "back_rank"
	CategoryOverloaded   Category = "overloaded_defenders"
	CategoryForced       Category = "forced_positions"
	CategoryLost         Category = "lost_positions"
	CategoryMaterialLoss Category = "material_loss"
)

type CueKind string

const (
	CueHighlight CueKind = "highlight"
	CueArrow     CueKind = "arrow"
)

// Cue is a board annotation. Highlights use From only.
type Cue struct {
	Kind CueKind
	From nchess.Square
	To   nchess.Square
}

func highlight(sq nchess.Square) Cue {
	return Cue{Kind: CueHighlight, From: sq, To: nchess.NoSquare}
}

func arrow(from, to nchess.Square) Cue {
	return Cue{Kind: CueArrow, From: from, To: to}
}

// finding is an explanation before it is rendered.
type finding struct {
	key      string
	data     map[string]any
	category Category
	cues     []Cue
}
