package stats

import (
	"fmt"
	"strings"

	"github.com/park285/cheese-coach/internal/coach"
	"github.com/park285/cheese-coach/internal/domain"
)

const minMovesForSuggestion = 20

var categoryLabels = map[coach.Category]string{
	coach.CategoryMateThreats:  "mate threats",
	coach.CategoryPieceSafety:  "piece safety",
	coach.CategoryForks:        "forks",
	coach.CategoryPins:         "pins",
	coach.CategorySkewers:      "skewers",
	coach.CategoryDiscovered:   "discovered attacks",
	coach.CategoryBackRank:     "back rank weakness",
	coach.CategoryOverloaded:   "overloaded defenders",
	coach.CategoryForced:       "forced positions",
	coach.CategoryLost:         "lost positions",
	coach.CategoryMaterialLoss: "material loss",
}

var suggestions = map[coach.Category]string{
	coach.CategoryMateThreats:  "Practice recognizing checkmate patterns.",
	coach.CategoryPieceSafety:  "Focus on keeping pieces defended.",
	coach.CategoryForks:        "Study knight fork patterns.",
	coach.CategoryPins:         "Work on recognizing pin vulnerabilities.",
	coach.CategorySkewers:      "Practice avoiding skewer tactics.",
	coach.CategoryDiscovered:   "Watch for discovered attack setups.",
	coach.CategoryBackRank:     "Practice back rank mate prevention.",
	coach.CategoryOverloaded:   "Focus on piece coordination.",
	coach.CategoryForced:       "Study defensive technique in critical positions.",
	coach.CategoryLost:         "Work on avoiding early disadvantages.",
	coach.CategoryMaterialLoss: "Focus on piece safety and exchanges.",
}

// Label is the human wording of a category.
func Label(c coach.Category) string {
	if l, ok := categoryLabels[c]; ok {
		return l
	}
	return string(c)
}

// GameSummary is the short end-of-game verdict.
func GameSummary(s *GameStats) string {
	if s == nil || s.MoveCount == 0 {
		return "No moves recorded."
	}
	blunders, mistakes := s.Blunders(), s.Mistakes()

	var parts []string
	switch {
	case s.Errors() == 0:
		parts = append(parts, "Excellent game with no significant errors.")
	case blunders >= 3:
		parts = append(parts, fmt.Sprintf("Difficult game with %d blunders.", blunders))
	case blunders >= 1:
		parts = append(parts, fmt.Sprintf("Game had %d blunder(s) and %d mistake(s).", blunders, mistakes))
	case mistakes >= 2:
		parts = append(parts, fmt.Sprintf("Solid game with %d mistakes to review.", mistakes))
	default:
		parts = append(parts, "Generally accurate play.")
	}

	if c, ok := s.MostCommonCategory(); ok && s.Categories[c] >= 2 {
		parts = append(parts, fmt.Sprintf("Most issues came from %s.", Label(c)))
	}
	if s.GoodMoves()*10 >= s.MoveCount*7 {
		parts = append(parts, "Majority of moves were good or better.")
	}
	return strings.Join(parts, " ")
}

// ProfileSummary is a one-paragraph snapshot of the player.
func ProfileSummary(p *domain.CoachProfile) string {
	if p == nil || p.GamesPlayed == 0 {
		return "No games played yet."
	}
	parts := []string{
		fmt.Sprintf("Games played: %d", p.GamesPlayed),
		fmt.Sprintf("Total moves: %d", p.TotalMoves),
	}

	switch br := BlunderRate(p); {
	case br < 0.05:
		parts = append(parts, "Strength: Avoids major blunders.")
	case br > 0.15:
		parts = append(parts, "Weakness: Frequent blunders.")
	}
	switch er := ErrorRate(p); {
	case er < 0.2:
		parts = append(parts, "Overall: Accurate player.")
	case er > 0.4:
		parts = append(parts, "Overall: Many errors to work on.")
	}
	if c, ok := MostCommonIssue(p); ok {
		parts = append(parts, fmt.Sprintf("Frequent issue: %s.", Label(c)))
	}
	return strings.Join(parts, " ")
}

// TrainingSuggestion needs at least 20 recorded moves and a dominant issue.
func TrainingSuggestion(p *domain.CoachProfile) (string, bool) {
	if p == nil || p.TotalMoves < minMovesForSuggestion {
		return "", false
	}
	c, ok := MostCommonIssue(p)
	if !ok {
		return "", false
	}
	s, ok := suggestions[c]
	return s, ok
}

// Feedback is the end-of-game package shown to the player.
type Feedback struct {
	Summary      string
	Blunders     int
	Mistakes     int
	Inaccuracies int
	GoodMoves    int
	TotalMoves   int
	MainIssue    coach.Category
}

func NewFeedback(s *GameStats) Feedback {
	if s == nil {
		s = NewGameStats()
	}
	main, _ := s.MostCommonCategory()
	return Feedback{
		Summary:      GameSummary(s),
		Blunders:     s.Blunders(),
		Mistakes:     s.Mistakes(),
		Inaccuracies: s.Inaccuracies(),
		GoodMoves:    s.GoodMoves(),
		TotalMoves:   s.MoveCount,
		MainIssue:    main,
	}
}

// Apply copies the feedback and raw counts onto rec.
func (f Feedback) Apply(rec *domain.GameRecord, s *GameStats) {
	if rec == nil {
		return
	}
	rec.Summary = f.Summary
	rec.Blunders = f.Blunders
	rec.Mistakes = f.Mistakes
	rec.Inaccuracies = f.Inaccuracies
	rec.GoodMoves = f.GoodMoves
	rec.TotalMoves = f.TotalMoves
	rec.MainIssue = string(f.MainIssue)
	rec.Grades = make(map[string]int)
	rec.Categories = make(map[string]int)
	if s == nil {
		return
	}
	for g, n := range s.Grades {
		rec.Grades[g.String()] = n
	}
	for c, n := range s.Categories {
		rec.Categories[string(c)] = n
	}
}
