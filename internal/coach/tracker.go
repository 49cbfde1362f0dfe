package coach

import "fmt"

type DifficultyMode int

const (
	ModeHard DifficultyMode = iota
	ModeMedium
	ModeEasy
	ModeLearning
)

func (m DifficultyMode) String() string {
	switch m {
	case ModeHard:
		return "hard"
	case ModeMedium:
		return "medium"
	case ModeEasy:
		return "easy"
	case ModeLearning:
		return "learning"
	}
	return fmt.Sprintf("DifficultyMode(%d)", int(m))
}

const (
	forgiveStreak     = 3
	learningThreshold = 5
	easyThreshold     = 3
	mediumThreshold   = 1
)

// Tracker follows recent grades for one game. It is not safe for
// concurrent use; each game owns its own Tracker.
type Tracker struct {
	recentErrors     int
	recentGoodStreak int
}

func NewTracker() *Tracker { return &Tracker{} }

// RestoreTracker rebuilds a tracker from saved counters.
func RestoreTracker(recentErrors, goodStreak int) *Tracker {
	if recentErrors < 0 {
		recentErrors = 0
	}
	if goodStreak < 0 {
		goodStreak = 0
	}
	return &Tracker{recentErrors: recentErrors, recentGoodStreak: goodStreak}
}

// Record applies one assessed grade.
func (t *Tracker) Record(g Grade) {
	if t == nil {
		return
	}
	switch {
	case g.IsError():
		t.recentErrors++
		t.recentGoodStreak = 0
	case g.IsGood():
		t.recentGoodStreak++
		if t.recentGoodStreak >= forgiveStreak && t.recentErrors > 0 {
			t.recentErrors--
		}
	}
}

func (t *Tracker) Reset() {
	if t == nil {
		return
	}
	t.recentErrors = 0
	t.recentGoodStreak = 0
}

func (t *Tracker) Mode() DifficultyMode {
	if t == nil {
		return ModeHard
	}
	return ModeFor(t.recentErrors)
}

// Counters returns (recentErrors, recentGoodStreak).
func (t *Tracker) Counters() (int, int) {
	if t == nil {
		return 0, 0
	}
	return t.recentErrors, t.recentGoodStreak
}

// ModeFor maps an error count to a mode.
func ModeFor(recentErrors int) DifficultyMode {
	switch {
	case recentErrors >= learningThreshold:
		return ModeLearning
	case recentErrors >= easyThreshold:
		return ModeEasy
	case recentErrors >= mediumThreshold:
		return ModeMedium
	}
	return ModeHard
}
