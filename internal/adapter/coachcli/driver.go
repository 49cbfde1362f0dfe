// Package coachcli runs the line-oriented coaching protocol over a reader.
package coachcli

import (
	"bufio"
	"context"
	"io"
	"strconv"
	"strings"

	nchess "github.com/corentings/chess/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/park285/cheese-coach/internal/adapter/coachpresenter"
	"github.com/park285/cheese-coach/internal/domain"
	svc "github.com/park285/cheese-coach/internal/service/coach"
	"github.com/park285/cheese-coach/pkg/coachdto"
)

// Coach is the part of the coaching service the driver uses.
type Coach interface {
	StartGame(ctx context.Context, playerID, fen string, color nchess.Color) (*svc.GameState, error)
	State(ctx context.Context, gameID string) (*svc.GameState, error)
	Advise(ctx context.Context, gameID string) (*svc.Advisory, error)
	Play(ctx context.Context, gameID, move string) (*svc.MoveReport, error)
	Reply(ctx context.Context, gameID, move string) (*svc.GameState, error)
	Undo(ctx context.Context, gameID string) (*svc.GameState, error)
	EndGame(ctx context.Context, gameID, result string) (*svc.GameReport, error)
	Profile(ctx context.Context, playerID string) (*svc.ProfileReport, error)
	History(ctx context.Context, playerID string, limit int) ([]*domain.GameRecord, error)
}

// Driver dispatches one command per line. Commands that take a game id
// fall back to the most recently started game.
type Driver struct {
	coach     Coach
	presenter *coachpresenter.Presenter
	logger    *zap.Logger
	current   string
}

func NewDriver(c Coach, p *coachpresenter.Presenter, logger *zap.Logger) *Driver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Driver{coach: c, presenter: p, logger: logger}
}

// Run reads commands until EOF, quit, or ctx is done.
func (d *Driver) Run(ctx context.Context, in io.Reader) error {
	sc := bufio.NewScanner(in)
	for sc.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		resp, quit := d.Handle(ctx, sc.Text())
		if quit {
			return nil
		}
		if resp.Command == "" {
			continue
		}
		if err := d.presenter.Emit(resp); err != nil {
			return err
		}
	}
	return sc.Err()
}

// Handle executes one command line. An empty Command in the response means
// there was nothing to run.
func (d *Driver) Handle(ctx context.Context, line string) (coachdto.Response, bool) {
	parts := strings.Fields(line)
	if len(parts) == 0 || strings.HasPrefix(parts[0], "#") {
		return coachdto.Response{}, false
	}
	cmd := strings.ToLower(parts[0])
	args := parts[1:]
	if cmd == "quit" || cmd == "exit" {
		return coachdto.Response{}, true
	}

	data, err := d.dispatch(ctx, cmd, args)
	resp := coachdto.Response{Command: cmd, OK: err == nil, Data: data}
	if err != nil {
		resp.Data = nil
		resp.Error = coachpresenter.ToDomainError(err)
		d.logger.Debug("command failed",
			zap.String("command", cmd),
			zap.String("code", resp.Error.Code),
			zap.Error(err),
		)
	}
	return resp, false
}

func (d *Driver) dispatch(ctx context.Context, cmd string, args []string) (any, error) {
	switch cmd {
	case "help":
		return coachpresenter.NewFormatter().Help(), nil
	case "new":
		if len(args) < 2 {
			return nil, usage("new <player> <white|black> [fen]")
		}
		color, err := svc.ParseColor(args[1])
		if err != nil {
			return nil, err
		}
		st, err := d.coach.StartGame(ctx, args[0], strings.Join(args[2:], " "), color)
		if err != nil {
			return nil, err
		}
		d.current = st.GameID
		return coachpresenter.ToDTOState(st), nil
	case "state":
		id, _ := d.gameArg(args)
		st, err := d.coach.State(ctx, id)
		if err != nil {
			return nil, err
		}
		return coachpresenter.ToDTOState(st), nil
	case "advise":
		id, _ := d.gameArg(args)
		adv, err := d.coach.Advise(ctx, id)
		if err != nil {
			return nil, err
		}
		return coachpresenter.ToDTOAdvisory(adv), nil
	case "play":
		id, rest := d.gameArg(args)
		if len(rest) == 0 {
			return nil, usage("play [game] <move>")
		}
		report, err := d.coach.Play(ctx, id, rest[0])
		if err != nil {
			return nil, err
		}
		return coachpresenter.ToDTOMoveReport(report), nil
	case "reply":
		id, rest := d.gameArg(args)
		move := ""
		if len(rest) > 0 {
			move = rest[0]
		}
		st, err := d.coach.Reply(ctx, id, move)
		if err != nil {
			return nil, err
		}
		return coachpresenter.ToDTOState(st), nil
	case "undo":
		id, _ := d.gameArg(args)
		st, err := d.coach.Undo(ctx, id)
		if err != nil {
			return nil, err
		}
		return coachpresenter.ToDTOState(st), nil
	case "end":
		id, rest := d.gameArg(args)
		result := ""
		if len(rest) > 0 {
			result = rest[0]
		}
		report, err := d.coach.EndGame(ctx, id, result)
		if err != nil {
			return nil, err
		}
		if d.current == id {
			d.current = ""
		}
		return coachpresenter.ToDTOGameReport(report), nil
	case "profile":
		if len(args) < 1 {
			return nil, usage("profile <player>")
		}
		report, err := d.coach.Profile(ctx, args[0])
		if err != nil {
			return nil, err
		}
		return coachpresenter.ToDTOProfile(report.Profile), nil
	case "history":
		if len(args) < 1 {
			return nil, usage("history <player> [n]")
		}
		limit := 0
		if len(args) > 1 {
			if n, err := strconv.Atoi(args[1]); err == nil && n > 0 {
				limit = n
			}
		}
		games, err := d.coach.History(ctx, args[0], limit)
		if err != nil {
			return nil, err
		}
		return coachpresenter.ToDTOHistory(games), nil
	}
	return nil, coachdto.DomainError{Code: "unknown_command", Message: "unknown command " + strconv.Quote(cmd) + "; try help"}
}

// gameArg takes a leading game id when the first argument is one.
func (d *Driver) gameArg(args []string) (string, []string) {
	if len(args) > 0 {
		if _, err := uuid.Parse(args[0]); err == nil {
			return args[0], args[1:]
		}
	}
	return d.current, args
}

func usage(text string) error {
	return coachdto.DomainError{Code: "usage", Message: "usage: " + text}
}
