// Package coach grades moves and explains the grade.
//
// Evaluations entering the package are White-relative centipawns. Every
// comparison against the thresholds below is made from the mover's side
// after converting with MoverEval.
package coach

import (
	"fmt"
	"strings"
)

// MateThreshold separates forced-mate scores from material scores.
const MateThreshold = 50000

const (
	excellentMaxLoss  = 10
	goodMaxLoss       = 25
	inaccuracyMaxLoss = 50
	mistakeMaxLoss    = 100
)

type Grade int

const (
	Blunder Grade = iota + 1
	Mistake
	Inaccuracy
	Good
	Excellent
	Best
)

var gradeNames = map[Grade]string{
	Blunder:    "BLUNDER",
	Mistake:    "MISTAKE",
	Inaccuracy: "INACCURACY",
	Good:       "GOOD",
	Excellent:  "EXCELLENT",
	Best:       "BEST",
}

func (g Grade) String() string {
	if s, ok := gradeNames[g]; ok {
		return s
	}
	return fmt.Sprintf("Grade(%d)", int(g))
}

// Symbol is the usual annotation glyph for the grade.
func (g Grade) Symbol() string {
	switch g {
	case Blunder:
		return "??"
	case Mistake:
		return "?"
	case Inaccuracy:
		return "?!"
	case Best:
		return "!"
	}
	return ""
}

func (g Grade) Valid() bool { return g >= Blunder && g <= Best }

// IsError reports grades that count against the player.
func (g Grade) IsError() bool { return g == Blunder || g == Mistake }

// IsGood reports grades that extend a good streak.
func (g Grade) IsGood() bool { return g >= Good && g <= Best }

func ParseGrade(s string) (Grade, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	for g, name := range gradeNames {
		if name == s {
			return g, nil
		}
	}
	return 0, fmt.Errorf("unknown grade %q", s)
}

// CentipawnLoss is positive when the mover's position got worse.
func CentipawnLoss(evalInitial, evalFinal int, moverIsWhite bool) int {
	if moverIsWhite {
		return evalInitial - evalFinal
	}
	return evalFinal - evalInitial
}

// GradeLoss maps a loss to its band. A recommended move is always Best.
func GradeLoss(loss int, wasRecommended bool) Grade {
	if wasRecommended {
		return Best
	}
	if loss < 0 {
		loss = 0
	}
	switch {
	case loss >= MateThreshold:
		return Blunder
	case loss <= excellentMaxLoss:
		return Excellent
	case loss <= goodMaxLoss:
		return Good
	case loss <= inaccuracyMaxLoss:
		return Inaccuracy
	case loss <= mistakeMaxLoss:
		return Mistake
	}
	return Blunder
}

// GradeMove is CentipawnLoss followed by GradeLoss.
func GradeMove(evalInitial, evalFinal int, moverIsWhite, wasRecommended bool) (Grade, int) {
	loss := CentipawnLoss(evalInitial, evalFinal, moverIsWhite)
	return GradeLoss(loss, wasRecommended), loss
}

// MoverEval converts a White-relative score to the mover's side.
func MoverEval(eval int, moverIsWhite bool) int {
	if moverIsWhite {
		return eval
	}
	return -eval
}

func IsMateScore(eval int) bool {
	return eval >= MateThreshold || eval <= -MateThreshold
}
