package coachdto

type GameState struct {
	GameID      string   `json:"game_id"`
	PlayerID    string   `json:"player_id"`
	PlayerColor string   `json:"player_color"`
	FEN         string   `json:"fen"`
	Turn        string   `json:"turn"`
	MovesUCI    []string `json:"moves_uci"`
	MovesSAN    []string `json:"moves_san"`
	Mode        string   `json:"mode"`
	Outcome     string   `json:"outcome"`
	Finished    bool     `json:"finished"`
	CanUndo     bool     `json:"can_undo"`
	OpeningECO  string   `json:"opening_eco,omitempty"`
	Opening     string   `json:"opening,omitempty"`
}

// Cue is a board annotation. Highlights leave To empty.
type Cue struct {
	Kind string `json:"kind"`
	From string `json:"from"`
	To   string `json:"to,omitempty"`
}

type Advisory struct {
	Mode      string `json:"mode"`
	Available bool   `json:"available"`
	Text      string `json:"text,omitempty"`
	Category  string `json:"category,omitempty"`
	Cues      []Cue  `json:"cues,omitempty"`
}
