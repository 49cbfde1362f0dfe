package coachpresenter

import (
	"fmt"
	"strings"
	"time"

	"github.com/park285/cheese-coach/pkg/coachdto"
)

const recentMovesLimit = 8

// Formatter renders coach DTOs as plain text blocks.
type Formatter struct{}

func NewFormatter() *Formatter { return &Formatter{} }

func (f *Formatter) Start(state *coachdto.GameState) string {
	if state == nil {
		return "Could not start a game."
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Game %s started. You play %s.\n", state.GameID, state.PlayerColor))
	sb.WriteString(fmt.Sprintf("FEN: %s\n", state.FEN))
	if state.Turn != state.PlayerColor {
		sb.WriteString("Your opponent moves first.")
	} else {
		sb.WriteString("Your move.")
	}
	return sb.String()
}

func (f *Formatter) Status(state *coachdto.GameState) string {
	if state == nil {
		return ""
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Game %s (%s, coaching: %s)\n", state.GameID, state.PlayerColor, state.Mode))
	sb.WriteString(fmt.Sprintf("FEN: %s\n", state.FEN))
	if moves := formatRecentMoves(state.MovesSAN); moves != "" {
		sb.WriteString("Moves: " + moves + "\n")
	}
	if state.Opening != "" {
		sb.WriteString(fmt.Sprintf("Opening: %s (%s)\n", state.Opening, state.OpeningECO))
	}
	switch {
	case state.Finished:
		sb.WriteString("Game over: " + state.Outcome)
	case state.Turn == state.PlayerColor:
		sb.WriteString("Your move.")
	default:
		sb.WriteString("Waiting for the opponent.")
	}
	return sb.String()
}

func (f *Formatter) Move(report *coachdto.MoveReport) string {
	if report == nil {
		return ""
	}
	a := report.Assessment
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s%s %s", report.MoveSAN, a.Symbol, strings.ToLower(a.Grade)))
	if a.CentipawnLoss > 0 {
		sb.WriteString(fmt.Sprintf(" (-%dcp)", a.CentipawnLoss))
	}
	sb.WriteString("\n")
	sb.WriteString(a.Explanation)
	if report.BestSAN != "" && !a.WasRecommended {
		sb.WriteString(fmt.Sprintf("\nBest was %s.", report.BestSAN))
	}
	if st := report.State; st != nil && st.Finished {
		sb.WriteString("\nGame over: " + st.Outcome)
	}
	return sb.String()
}

func (f *Formatter) Advice(adv *coachdto.Advisory) string {
	if adv == nil || !adv.Available {
		return "No hints right now."
	}
	return adv.Text
}

func (f *Formatter) Undo(state *coachdto.GameState) string {
	if state == nil {
		return ""
	}
	return "Move taken back.\n" + f.Status(state)
}

func (f *Formatter) GameOver(report *coachdto.GameReport) string {
	if report == nil {
		return ""
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Game %s finished: %s\n", report.GameID, report.Result))
	sb.WriteString(report.Summary)
	sb.WriteString(fmt.Sprintf("\nBlunders: %d  Mistakes: %d  Inaccuracies: %d  Good moves: %d/%d",
		report.Blunders, report.Mistakes, report.Inaccuracies, report.GoodMoves, report.TotalMoves))
	if p := report.Profile; p != nil && p.Suggestion != "" {
		sb.WriteString("\nTip: " + p.Suggestion)
	}
	return sb.String()
}

func (f *Formatter) Profile(p *coachdto.Profile) string {
	if p == nil {
		return "No finished games yet."
	}
	out := p.Summary
	if p.Suggestion != "" {
		out += "\nTip: " + p.Suggestion
	}
	return out
}

func (f *Formatter) History(games []coachdto.HistoryEntry) string {
	if len(games) == 0 {
		return "No finished games yet."
	}
	var sb strings.Builder
	sb.WriteString("Recent games\n")
	for _, g := range games {
		sb.WriteString(fmt.Sprintf("- %s %s as %s, %d moves, %d blunders",
			formatShortTime(g.EndedAt), g.Result, g.PlayerColor, g.TotalMoves, g.Blunders))
		if g.MainIssue != "" {
			sb.WriteString(", main issue: " + strings.ReplaceAll(g.MainIssue, "_", " "))
		}
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

func (f *Formatter) Error(err *coachdto.DomainError) string {
	if err == nil {
		return ""
	}
	return "error: " + err.Error()
}

func (f *Formatter) Help() string {
	return strings.Join([]string{
		"Commands:",
		"  new <player> <white|black> [fen]   start a coached game",
		"  advise [game]                      hint before your move",
		"  play [game] <move>                 play and grade a move (SAN or UCI)",
		"  reply [game] [move]                opponent move; engine move when omitted",
		"  undo [game]                        take back your last move",
		"  state [game]                       show the game",
		"  end [game] [result]                finish and save the game",
		"  profile <player>                   aggregate feedback",
		"  history <player> [n]               recent games",
		"  quit",
	}, "\n")
}

func formatRecentMoves(moves []string) string {
	if len(moves) == 0 {
		return ""
	}
	start := 0
	if len(moves) > recentMovesLimit {
		start = len(moves) - recentMovesLimit
	}
	out := strings.Join(moves[start:], " ")
	if start > 0 {
		out = "... " + out
	}
	return out
}

func formatShortTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}
