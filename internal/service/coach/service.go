package coach

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	nchess "github.com/corentings/chess/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/park285/cheese-coach/internal/chess/rules"
	corecoach "github.com/park285/cheese-coach/internal/coach"
	"github.com/park285/cheese-coach/internal/domain"
	"github.com/park285/cheese-coach/internal/oracle"
	"github.com/park285/cheese-coach/internal/stats"
)

var (
	ErrGameNotFound      = errors.New("coached game not found")
	ErrGameOver          = errors.New("game already finished")
	ErrInvalidMove       = errors.New("invalid chess move")
	ErrInvalidPosition   = errors.New("invalid starting position")
	ErrInvalidColor      = errors.New("invalid player color")
	ErrInvalidResult     = errors.New("invalid game result")
	ErrPlayerRequired    = errors.New("player id is required")
	ErrNotPlayerTurn     = errors.New("not the player's turn")
	ErrNotOpponentTurn   = errors.New("not the opponent's turn")
	ErrUndoNotAvailable  = errors.New("no move available to undo")
	ErrProfileNotFound   = errors.New("coach profile not found")
	ErrOracleUnavailable = errors.New("position oracle unavailable")
	ErrOracleTimeout     = errors.New("position oracle timeout")
)

const (
	defaultEvalTimeout  = 10 * time.Second
	defaultHistoryLimit = 10
	maxHistoryLimit     = 50
)

var validResults = map[string]struct{}{
	"1-0":     {},
	"0-1":     {},
	"1/2-1/2": {},
	"*":       {},
}

type Config struct {
	// EvalTimeout bounds the oracle calls made for one move.
	EvalTimeout  time.Duration
	HistoryLimit int
}

type Service struct {
	oracle   oracle.Oracle
	assessor *corecoach.Assessor
	store    Store
	repo     stats.Repository
	cfg      Config
	logger   *zap.Logger
	now      func() time.Time
}

// GameState is the public view of a live session.
type GameState struct {
	GameID      string
	PlayerID    string
	PlayerColor nchess.Color
	FEN         string
	Turn        nchess.Color
	MovesUCI    []string
	MovesSAN    []string
	Mode        corecoach.DifficultyMode
	Outcome     string
	Finished    bool
	CanUndo     bool
	OpeningECO  string
	Opening     string
}

// MoveReport is returned for every assessed player move.
type MoveReport struct {
	State      *GameState
	MoveUCI    string
	MoveSAN    string
	Assessment corecoach.MoveAssessment
	BestSAN    string
}

// Advisory is the pre-move hint for the side to move.
type Advisory struct {
	Mode      corecoach.DifficultyMode
	Available bool
	Advice    corecoach.Advice
}

// GameReport is produced when a game is closed.
type GameReport struct {
	Record   *domain.GameRecord
	Feedback stats.Feedback
	Profile  *domain.CoachProfile
}

// ProfileReport is the aggregate view over finished games.
type ProfileReport struct {
	Profile    *domain.CoachProfile
	Summary    string
	Suggestion string
}

// NewService wires the coaching flow. A nil assessor is built from o.
func NewService(o oracle.Oracle, assessor *corecoach.Assessor, store Store, repo stats.Repository, cfg Config, logger *zap.Logger) (*Service, error) {
	if o == nil {
		return nil, fmt.Errorf("position oracle is required")
	}
	if store == nil {
		return nil, fmt.Errorf("session store is required")
	}
	if repo == nil {
		return nil, fmt.Errorf("coach repository is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if assessor == nil {
		assessor = corecoach.NewAssessor(o, logger)
	}
	if cfg.EvalTimeout <= 0 {
		cfg.EvalTimeout = defaultEvalTimeout
	}
	if cfg.HistoryLimit <= 0 || cfg.HistoryLimit > maxHistoryLimit {
		cfg.HistoryLimit = defaultHistoryLimit
	}
	return &Service{
		oracle:   o,
		assessor: assessor,
		store:    store,
		repo:     repo,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
	}, nil
}

// StartGame opens a session from fen (empty means the initial position)
// with the player on color.
func (s *Service) StartGame(ctx context.Context, playerID, fen string, color nchess.Color) (*GameState, error) {
	playerID = strings.TrimSpace(playerID)
	if playerID == "" {
		return nil, ErrPlayerRequired
	}
	if color != nchess.White && color != nchess.Black {
		return nil, ErrInvalidColor
	}
	fen = strings.TrimSpace(fen)
	if fen == "" {
		fen = rules.StartFEN
	}
	pos, err := rules.FromFEN(fen)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPosition, err)
	}
	if len(pos.LegalMoves()) == 0 {
		return nil, fmt.Errorf("%w: no legal moves", ErrInvalidPosition)
	}

	now := s.now()
	session := &Session{
		GameID:      uuid.NewString(),
		PlayerID:    playerID,
		PlayerColor: colorName(color),
		StartFEN:    pos.FEN(),
		StartedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.Save(ctx, session); err != nil {
		return nil, err
	}
	s.logger.Info("coached game started",
		zap.String("game_id", session.GameID),
		zap.String("player_color", session.PlayerColor),
		zap.String("fen", session.StartFEN),
	)
	return stateFrom(session, pos), nil
}

func (s *Service) State(ctx context.Context, gameID string) (*GameState, error) {
	session, pos, err := s.open(ctx, gameID)
	if err != nil {
		return nil, err
	}
	return stateFrom(session, pos), nil
}

// Advise returns the pre-move advisory for the player at the current
// difficulty mode. Available is false when there is nothing to say or it
// is not the player's turn.
func (s *Service) Advise(ctx context.Context, gameID string) (*Advisory, error) {
	session, pos, err := s.open(ctx, gameID)
	if err != nil {
		return nil, err
	}
	mode := session.tracker().Mode()
	out := &Advisory{Mode: mode}
	if finished(pos) {
		return out, nil
	}
	out.Advice, out.Available = s.assessor.Advise(pos, session.color(), mode)
	return out, nil
}

// Play applies a player move given in SAN or UCI, grades it and explains
// the grade.
func (s *Service) Play(ctx context.Context, gameID, moveText string) (*MoveReport, error) {
	moveText = strings.TrimSpace(moveText)
	if moveText == "" {
		return nil, ErrInvalidMove
	}
	session, pos, err := s.open(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if finished(pos) {
		return nil, ErrGameOver
	}
	if pos.Turn() != session.color() {
		return nil, ErrNotPlayerTurn
	}
	mv, err := pos.Decode(moveText)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMove, err)
	}
	after, err := pos.Apply(mv)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMove, err)
	}

	evalCtx, cancel := context.WithTimeout(ctx, s.cfg.EvalTimeout)
	defer cancel()
	before, err := s.evaluate(evalCtx, session, pos)
	if err != nil {
		return nil, err
	}
	final, err := s.evaluate(evalCtx, session, after)
	if err != nil {
		return nil, err
	}

	tracker := session.tracker()
	assessment := s.assessor.AssessMove(evalCtx, corecoach.MoveInput{
		Move:         mv,
		EvalInitial:  before.ScoreCP,
		EvalFinal:    final.ScoreCP,
		Recommended:  before.BestMove,
		MoverIsWhite: pos.Turn() == nchess.White,
		Before:       pos,
		After:        after,
	}, tracker)

	san := pos.SAN(mv)
	session.Undo = &UndoPoint{
		Moves:        len(session.Moves),
		Records:      len(session.Records),
		RecentErrors: session.RecentErrors,
		GoodStreak:   session.GoodStreak,
	}
	session.Moves = append(session.Moves, mv.String())
	session.MovesSAN = append(session.MovesSAN, san)
	session.Records = append(session.Records, MoveRecord{
		Ply:         len(session.Moves),
		Grade:       assessment.Grade.String(),
		Category:    string(assessment.Category),
		Explanation: assessment.Explanation,
	})
	session.RecentErrors, session.GoodStreak = tracker.Counters()
	session.UpdatedAt = s.now()
	if err := s.store.Save(ctx, session); err != nil {
		return nil, err
	}

	s.logger.Info("coached move played",
		zap.String("game_id", session.GameID),
		zap.String("move_uci", mv.String()),
		zap.String("grade", assessment.Grade.String()),
		zap.String("category", string(assessment.Category)),
		zap.Int("cp_loss", assessment.CentipawnLoss),
		zap.String("mode", tracker.Mode().String()),
	)

	report := &MoveReport{
		State:      stateFrom(session, after),
		MoveUCI:    mv.String(),
		MoveSAN:    san,
		Assessment: assessment,
	}
	if before.BestMove != nil && pos.IsLegal(*before.BestMove) {
		report.BestSAN = pos.SAN(*before.BestMove)
	}
	return report, nil
}

// Reply applies an opponent move without assessing it. An empty moveText
// plays the oracle's best move.
func (s *Service) Reply(ctx context.Context, gameID, moveText string) (*GameState, error) {
	session, pos, err := s.open(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if finished(pos) {
		return nil, ErrGameOver
	}
	// 턴 검증
	if pos.Turn() == session.color() {
		return nil, ErrNotOpponentTurn
	}

	var mv rules.Move
	if moveText = strings.TrimSpace(moveText); moveText != "" {
		if mv, err = pos.Decode(moveText); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidMove, err)
		}
	} else {
		evalCtx, cancel := context.WithTimeout(ctx, s.cfg.EvalTimeout)
		defer cancel()
		ev, err := s.evaluate(evalCtx, session, pos)
		if err != nil {
			return nil, err
		}
		if ev.BestMove == nil || !pos.IsLegal(*ev.BestMove) {
			return nil, fmt.Errorf("%w: %v", ErrOracleUnavailable, oracle.ErrNoResult)
		}
		mv = *ev.BestMove
	}

	after, err := pos.Apply(mv)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMove, err)
	}
	session.Moves = append(session.Moves, mv.String())
	session.MovesSAN = append(session.MovesSAN, pos.SAN(mv))
	session.UpdatedAt = s.now()
	if err := s.store.Save(ctx, session); err != nil {
		return nil, err
	}
	s.logger.Debug("opponent reply applied",
		zap.String("game_id", session.GameID),
		zap.String("move_uci", mv.String()),
	)
	return stateFrom(session, after), nil
}

// Undo restores the session as it was before the last player move, taking
// back any reply played since. Only one level is kept.
func (s *Service) Undo(ctx context.Context, gameID string) (*GameState, error) {
	session, err := s.load(ctx, gameID)
	if err != nil {
		return nil, err
	}
	u := session.Undo
	if u == nil || u.Moves > len(session.Moves) || u.Records > len(session.Records) {
		return nil, ErrUndoNotAvailable
	}
	// 되돌리기 지점은 한 단계만 보관: 사용 후 폐기
	session.Moves = append([]string(nil), session.Moves[:u.Moves]...)
	session.MovesSAN = append([]string(nil), session.MovesSAN[:u.Moves]...)
	session.Records = append([]MoveRecord(nil), session.Records[:u.Records]...)
	session.RecentErrors = u.RecentErrors
	session.GoodStreak = u.GoodStreak
	session.Undo = nil
	session.UpdatedAt = s.now()

	pos, err := replay(session)
	if err != nil {
		return nil, err
	}
	if err := s.store.Save(ctx, session); err != nil {
		return nil, err
	}
	s.logger.Info("coached move undone",
		zap.String("game_id", session.GameID),
		zap.Int("move_count", len(session.Moves)),
	)
	return stateFrom(session, pos), nil
}

// EndGame closes the session, stores its feedback and merges it into the
// player's profile. An empty result is taken from the board.
func (s *Service) EndGame(ctx context.Context, gameID, result string) (*GameReport, error) {
	session, pos, err := s.open(ctx, gameID)
	if err != nil {
		return nil, err
	}
	result = strings.TrimSpace(result)
	if result == "" {
		result = outcome(pos)
	}
	if _, ok := validResults[result]; !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidResult, result)
	}

	gs := gameStats(session)
	feedback := stats.NewFeedback(gs)
	record := &domain.GameRecord{
		GameID:      session.GameID,
		PlayerID:    session.PlayerID,
		PlayerColor: session.PlayerColor,
		Result:      result,
		MovesUCI:    append([]string(nil), session.Moves...),
		MovesSAN:    append([]string(nil), session.MovesSAN...),
		StartedAt:   session.StartedAt,
		EndedAt:     s.now(),
	}
	feedback.Apply(record, gs)

	id, err := s.repo.InsertGame(ctx, record)
	if err != nil {
		return nil, err
	}
	record.ID = id

	profile, err := s.repo.GetProfile(ctx, session.PlayerID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		profile = stats.NewProfile(session.PlayerID)
		profile.CreatedAt = record.EndedAt
	}
	stats.AddGame(profile, gs)
	profile.UpdatedAt = record.EndedAt
	if err := s.repo.UpsertProfile(ctx, profile); err != nil {
		return nil, err
	}

	if err := s.store.Delete(ctx, session.GameID); err != nil {
		s.logger.Warn("failed to delete finished coach session",
			zap.String("game_id", session.GameID),
			zap.Error(err),
		)
	}
	s.logger.Info("coached game finished",
		zap.String("game_id", session.GameID),
		zap.String("result", result),
		zap.Int("moves", gs.MoveCount),
		zap.Int("blunders", gs.Blunders()),
		zap.String("main_issue", record.MainIssue),
	)
	return &GameReport{Record: record, Feedback: feedback, Profile: profile}, nil
}

func (s *Service) Profile(ctx context.Context, playerID string) (*ProfileReport, error) {
	playerID = strings.TrimSpace(playerID)
	if playerID == "" {
		return nil, ErrPlayerRequired
	}
	profile, err := s.repo.GetProfile(ctx, playerID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, ErrProfileNotFound
	}
	out := &ProfileReport{Profile: profile, Summary: stats.ProfileSummary(profile)}
	out.Suggestion, _ = stats.TrainingSuggestion(profile)
	return out, nil
}

func (s *Service) History(ctx context.Context, playerID string, limit int) ([]*domain.GameRecord, error) {
	playerID = strings.TrimSpace(playerID)
	if playerID == "" {
		return nil, ErrPlayerRequired
	}
	if limit <= 0 || limit > s.cfg.HistoryLimit {
		limit = s.cfg.HistoryLimit
	}
	return s.repo.GetRecentGames(ctx, playerID, limit)
}

func (s *Service) load(ctx context.Context, gameID string) (*Session, error) {
	gameID = strings.TrimSpace(gameID)
	if gameID == "" {
		return nil, ErrGameNotFound
	}
	session, err := s.store.Load(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrGameNotFound
	}
	return session, nil
}

func (s *Service) open(ctx context.Context, gameID string) (*Session, *rules.Position, error) {
	session, err := s.load(ctx, gameID)
	if err != nil {
		return nil, nil, err
	}
	pos, err := replay(session)
	if err != nil {
		return nil, nil, err
	}
	return session, pos, nil
}

func (s *Service) evaluate(ctx context.Context, session *Session, pos *rules.Position) (oracle.Evaluation, error) {
	ev, err := s.oracle.Evaluate(ctx, pos)
	if err != nil {
		s.logger.Warn("position oracle evaluation failed",
			zap.Error(err),
			zap.String("game_id", session.GameID),
			zap.String("fen", pos.FEN()),
			zap.Duration("timeout", s.cfg.EvalTimeout),
		)
		return oracle.Evaluation{}, mapOracleError(err)
	}
	return ev, nil
}

func mapOracleError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %v", ErrOracleTimeout, err)
	}
	return fmt.Errorf("%w: %v", ErrOracleUnavailable, err)
}

func gameStats(session *Session) *stats.GameStats {
	gs := stats.NewGameStats()
	for _, rec := range session.Records {
		grade, err := corecoach.ParseGrade(rec.Grade)
		if err != nil {
			continue
		}
		gs.Record(grade, corecoach.Category(rec.Category), rec.Explanation)
	}
	return gs
}

func finished(pos *rules.Position) bool {
	return pos.IsCheckmate() || pos.IsStalemate()
}

func outcome(pos *rules.Position) string {
	switch {
	case pos.IsCheckmate() && pos.Turn() == nchess.White:
		return "0-1"
	case pos.IsCheckmate():
		return "1-0"
	case pos.IsStalemate():
		return "1/2-1/2"
	}
	return "*"
}

func stateFrom(session *Session, pos *rules.Position) *GameState {
	eco, title := openingLabel(session)
	return &GameState{
		GameID:      session.GameID,
		PlayerID:    session.PlayerID,
		PlayerColor: session.color(),
		FEN:         pos.FEN(),
		Turn:        pos.Turn(),
		MovesUCI:    append([]string(nil), session.Moves...),
		MovesSAN:    append([]string(nil), session.MovesSAN...),
		Mode:        session.tracker().Mode(),
		Outcome:     outcome(pos),
		Finished:    finished(pos),
		CanUndo:     session.Undo != nil,
		OpeningECO:  eco,
		Opening:     title,
	}
}
