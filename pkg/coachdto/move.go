package coachdto

// Assessment is the grade and explanation of one move. Evaluations are
// White-relative centipawns; CentipawnLoss is from the mover's side.
type Assessment struct {
	Move           string `json:"move"`
	Grade          string `json:"grade"`
	Symbol         string `json:"symbol,omitempty"`
	EvalInitial    int    `json:"eval_initial"`
	EvalFinal      int    `json:"eval_final"`
	CentipawnLoss  int    `json:"cp_loss"`
	Recommended    string `json:"recommended,omitempty"`
	WasRecommended bool   `json:"was_recommended"`
	Explanation    string `json:"explanation"`
	Category       string `json:"category,omitempty"`
	Cues           []Cue  `json:"cues,omitempty"`
}

type MoveReport struct {
	State      *GameState `json:"state"`
	MoveUCI    string     `json:"move_uci"`
	MoveSAN    string     `json:"move_san"`
	BestSAN    string     `json:"best_san,omitempty"`
	Assessment Assessment `json:"assessment"`
}
