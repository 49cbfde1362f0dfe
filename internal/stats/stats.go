// Package stats turns finished move assessments into per-game statistics,
// a persistent player profile and short coaching summaries. It never looks
// at a board.
package stats

import (
	"regexp"
	"strings"

	"github.com/park285/cheese-coach/internal/coach"
	"github.com/park285/cheese-coach/internal/domain"
)

// Categories lists every explanation category in classification order.
// Ties in "most common" queries are broken by this order.
var Categories = []coach.Category{
	coach.CategoryMateThreats,
	coach.CategoryPieceSafety,
	coach.CategoryForks,
	coach.CategoryPins,
	coach.CategorySkewers,
	coach.CategoryDiscovered,
	coach.CategoryBackRank,
	coach.CategoryOverloaded,
	coach.CategoryForced,
	coach.CategoryLost,
	coach.CategoryMaterialLoss,
}

// categoryPatterns match whole words so "material" is not read as "mate".
var categoryPatterns = map[coach.Category]*regexp.Regexp{
	coach.CategoryMateThreats:  regexp.MustCompile(`\b(?:check)?mate[sd]?\b`),
	coach.CategoryPieceSafety:  regexp.MustCompile(`\b(?:hanging|undefended|en prise|can be captured)\b`),
	coach.CategoryForks:        regexp.MustCompile(`\bfork`),
	coach.CategoryPins:         regexp.MustCompile(`\bpin(?:s|ned)?\b`),
	coach.CategorySkewers:      regexp.MustCompile(`\bskewer`),
	coach.CategoryDiscovered:   regexp.MustCompile(`\bdiscovered\b`),
	coach.CategoryBackRank:     regexp.MustCompile(`\bback rank\b`),
	coach.CategoryOverloaded:   regexp.MustCompile(`\boverload`),
	coach.CategoryForced:       regexp.MustCompile(`\b(?:only move|only legal|unavoidable|no move could)\b`),
	coach.CategoryLost:         regexp.MustCompile(`\b(?:already lost|position was lost)\b`),
	coach.CategoryMaterialLoss: regexp.MustCompile(`\b(?:lost material|material loss)\b`),
}

// Categorize classifies free explanation text by keyword. It is the
// fallback for assessments that carry no explicit category.
func Categorize(explanation string) coach.Category {
	lower := strings.ToLower(explanation)
	if lower == "" {
		return coach.CategoryNone
	}
	for _, c := range Categories {
		if re := categoryPatterns[c]; re != nil && re.MatchString(lower) {
			return c
		}
	}
	return coach.CategoryNone
}

// GameStats counts grades and categories for one game.
type GameStats struct {
	MoveCount  int
	Grades     map[coach.Grade]int
	Categories map[coach.Category]int
}

func NewGameStats() *GameStats {
	return &GameStats{
		Grades:     make(map[coach.Grade]int),
		Categories: make(map[coach.Category]int),
	}
}

// Record adds one assessed move. An empty category is derived from the
// explanation text.
func (s *GameStats) Record(grade coach.Grade, category coach.Category, explanation string) {
	if s.Grades == nil {
		s.Grades = make(map[coach.Grade]int)
	}
	if s.Categories == nil {
		s.Categories = make(map[coach.Category]int)
	}
	s.MoveCount++
	s.Grades[grade]++
	if category == coach.CategoryNone {
		category = Categorize(explanation)
	}
	if category != coach.CategoryNone {
		s.Categories[category]++
	}
}

func (s *GameStats) Count(g coach.Grade) int { return s.Grades[g] }

func (s *GameStats) Blunders() int     { return s.Count(coach.Blunder) }
func (s *GameStats) Mistakes() int     { return s.Count(coach.Mistake) }
func (s *GameStats) Inaccuracies() int { return s.Count(coach.Inaccuracy) }

func (s *GameStats) Errors() int {
	return s.Blunders() + s.Mistakes() + s.Inaccuracies()
}

func (s *GameStats) GoodMoves() int {
	return s.Count(coach.Good) + s.Count(coach.Excellent) + s.Count(coach.Best)
}

func (s *GameStats) MostCommonCategory() (coach.Category, bool) {
	return mostCommon(func(c coach.Category) int { return s.Categories[c] })
}

func mostCommon(count func(coach.Category) int) (coach.Category, bool) {
	best, bestN := coach.CategoryNone, 0
	for _, c := range Categories {
		if n := count(c); n > bestN {
			best, bestN = c, n
		}
	}
	return best, bestN > 0
}

// NewProfile returns an empty profile for playerID.
func NewProfile(playerID string) *domain.CoachProfile {
	return &domain.CoachProfile{
		PlayerID:   playerID,
		Grades:     make(map[string]int),
		Categories: make(map[string]int),
	}
}

// AddGame merges a finished game into p.
func AddGame(p *domain.CoachProfile, s *GameStats) {
	if p == nil || s == nil {
		return
	}
	if p.Grades == nil {
		p.Grades = make(map[string]int)
	}
	if p.Categories == nil {
		p.Categories = make(map[string]int)
	}
	p.GamesPlayed++
	p.TotalMoves += s.MoveCount
	for g, n := range s.Grades {
		p.Grades[g.String()] += n
	}
	for c, n := range s.Categories {
		p.Categories[string(c)] += n
	}
}

func MostCommonIssue(p *domain.CoachProfile) (coach.Category, bool) {
	if p == nil {
		return coach.CategoryNone, false
	}
	return mostCommon(func(c coach.Category) int { return p.Categories[string(c)] })
}

// ErrorRate is the share of inaccuracies, mistakes and blunders.
func ErrorRate(p *domain.CoachProfile) float64 {
	if p == nil || p.TotalMoves == 0 {
		return 0
	}
	errs := p.Grades[coach.Blunder.String()] + p.Grades[coach.Mistake.String()] + p.Grades[coach.Inaccuracy.String()]
	return float64(errs) / float64(p.TotalMoves)
}

func BlunderRate(p *domain.CoachProfile) float64 {
	if p == nil || p.TotalMoves == 0 {
		return 0
	}
	return float64(p.Grades[coach.Blunder.String()]) / float64(p.TotalMoves)
}
