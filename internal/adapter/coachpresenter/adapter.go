package coachpresenter

import (
	"errors"

	nchess "github.com/corentings/chess/v2"

	corecoach "github.com/park285/cheese-coach/internal/coach"
	"github.com/park285/cheese-coach/internal/domain"
	svc "github.com/park285/cheese-coach/internal/service/coach"
	"github.com/park285/cheese-coach/internal/stats"
	"github.com/park285/cheese-coach/pkg/coachdto"
)

func ToDTOState(s *svc.GameState) *coachdto.GameState {
	if s == nil {
		return nil
	}
	return &coachdto.GameState{
		GameID:      s.GameID,
		PlayerID:    s.PlayerID,
		PlayerColor: colorToken(s.PlayerColor),
		FEN:         s.FEN,
		Turn:        colorToken(s.Turn),
		MovesUCI:    append([]string{}, s.MovesUCI...),
		MovesSAN:    append([]string{}, s.MovesSAN...),
		Mode:        s.Mode.String(),
		Outcome:     s.Outcome,
		Finished:    s.Finished,
		CanUndo:     s.CanUndo,
		OpeningECO:  s.OpeningECO,
		Opening:     s.Opening,
	}
}

func ToDTOMoveReport(r *svc.MoveReport) *coachdto.MoveReport {
	if r == nil {
		return nil
	}
	return &coachdto.MoveReport{
		State:      ToDTOState(r.State),
		MoveUCI:    r.MoveUCI,
		MoveSAN:    r.MoveSAN,
		BestSAN:    r.BestSAN,
		Assessment: ToDTOAssessment(r.Assessment),
	}
}

func ToDTOAssessment(a corecoach.MoveAssessment) coachdto.Assessment {
	out := coachdto.Assessment{
		Move:           a.Move.String(),
		Grade:          a.Grade.String(),
		Symbol:         a.Grade.Symbol(),
		EvalInitial:    a.EvalInitial,
		EvalFinal:      a.EvalFinal,
		CentipawnLoss:  a.CentipawnLoss,
		WasRecommended: a.WasRecommended,
		Explanation:    a.Explanation,
		Category:       string(a.Category),
		Cues:           ToDTOCues(a.Cues),
	}
	if a.Recommended != nil {
		out.Recommended = a.Recommended.String()
	}
	return out
}

func ToDTOCues(cues []corecoach.Cue) []coachdto.Cue {
	if len(cues) == 0 {
		return nil
	}
	out := make([]coachdto.Cue, 0, len(cues))
	for _, c := range cues {
		cue := coachdto.Cue{Kind: string(c.Kind), From: c.From.String()}
		if c.Kind == corecoach.CueArrow {
			cue.To = c.To.String()
		}
		out = append(out, cue)
	}
	return out
}

func ToDTOAdvisory(a *svc.Advisory) *coachdto.Advisory {
	if a == nil {
		return nil
	}
	out := &coachdto.Advisory{Mode: a.Mode.String(), Available: a.Available}
	if a.Available {
		out.Text = a.Advice.Text
		out.Category = string(a.Advice.Category)
		out.Cues = ToDTOCues(a.Advice.Cues)
	}
	return out
}

func ToDTOGameReport(r *svc.GameReport) *coachdto.GameReport {
	if r == nil || r.Record == nil {
		return nil
	}
	rec := r.Record
	return &coachdto.GameReport{
		GameID:       rec.GameID,
		RecordID:     rec.ID,
		Result:       rec.Result,
		Summary:      r.Feedback.Summary,
		Blunders:     r.Feedback.Blunders,
		Mistakes:     r.Feedback.Mistakes,
		Inaccuracies: r.Feedback.Inaccuracies,
		GoodMoves:    r.Feedback.GoodMoves,
		TotalMoves:   r.Feedback.TotalMoves,
		MainIssue:    string(r.Feedback.MainIssue),
		Profile:      ToDTOProfile(r.Profile),
	}
}

// ToDTOProfile copies p and fills in the derived summary lines.
func ToDTOProfile(p *domain.CoachProfile) *coachdto.Profile {
	if p == nil {
		return nil
	}
	out := &coachdto.Profile{
		PlayerID:    p.PlayerID,
		GamesPlayed: p.GamesPlayed,
		TotalMoves:  p.TotalMoves,
		Grades:      copyCounts(p.Grades),
		Categories:  copyCounts(p.Categories),
		Summary:     stats.ProfileSummary(p),
		UpdatedAt:   p.UpdatedAt,
	}
	out.Suggestion, _ = stats.TrainingSuggestion(p)
	return out
}

func ToDTOHistory(list []*domain.GameRecord) []coachdto.HistoryEntry {
	out := make([]coachdto.HistoryEntry, 0, len(list))
	for _, g := range list {
		if g == nil {
			continue
		}
		out = append(out, coachdto.HistoryEntry{
			GameID:      g.GameID,
			PlayerColor: g.PlayerColor,
			Result:      g.Result,
			TotalMoves:  g.TotalMoves,
			Blunders:    g.Blunders,
			MainIssue:   g.MainIssue,
			Summary:     g.Summary,
			EndedAt:     g.EndedAt,
		})
	}
	return out
}

var errorCodes = []struct {
	err       error
	code      string
	retryable bool
}{
	{svc.ErrGameNotFound, "game_not_found", false},
	{svc.ErrGameOver, "game_over", false},
	{svc.ErrInvalidMove, "invalid_move", false},
	{svc.ErrInvalidPosition, "invalid_position", false},
	{svc.ErrInvalidColor, "invalid_color", false},
	{svc.ErrInvalidResult, "invalid_result", false},
	{svc.ErrPlayerRequired, "player_required", false},
	{svc.ErrNotPlayerTurn, "not_player_turn", false},
	{svc.ErrNotOpponentTurn, "not_opponent_turn", false},
	{svc.ErrUndoNotAvailable, "undo_unavailable", false},
	{svc.ErrProfileNotFound, "profile_not_found", false},
	{svc.ErrOracleTimeout, "oracle_timeout", true},
	{svc.ErrOracleUnavailable, "oracle_unavailable", true},
	{stats.ErrDuplicateGame, "duplicate_game", false},
}

// ToDomainError maps service errors onto stable codes. Unknown errors are
// reported as internal.
func ToDomainError(err error) *coachdto.DomainError {
	if err == nil {
		return nil
	}
	var de coachdto.DomainError
	if errors.As(err, &de) {
		return &de
	}
	for _, e := range errorCodes {
		if errors.Is(err, e.err) {
			return &coachdto.DomainError{Code: e.code, Message: err.Error(), Retryable: e.retryable}
		}
	}
	return &coachdto.DomainError{Code: "internal", Message: err.Error()}
}

func colorToken(c nchess.Color) string {
	switch c {
	case nchess.White:
		return "white"
	case nchess.Black:
		return "black"
	}
	return ""
}

func copyCounts(m map[string]int) map[string]int {
	out := make(map[string]int, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
