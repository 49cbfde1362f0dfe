package uci

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// MateScore is the centipawn magnitude reported for a forced mate.
const MateScore = 100000

// ErrNoScore is returned when the engine answered bestmove without ever
// reporting a scored line.
var ErrNoScore = errors.New("engine reported no score")

type Limits struct {
	Depth          int
	MoveTimeMillis int
}

func (l Limits) goCommand() (string, error) {
	args := []string{"go"}
	if l.Depth > 0 {
		args = append(args, "depth", strconv.Itoa(l.Depth))
	}
	if l.MoveTimeMillis > 0 {
		args = append(args, "movetime", strconv.Itoa(l.MoveTimeMillis))
	}
	if len(args) == 1 {
		return "", fmt.Errorf("no search limits specified")
	}
	return strings.Join(args, " "), nil
}

// timeout bounds one search even when the caller's context has no deadline.
func (l Limits) timeout() time.Duration {
	if l.MoveTimeMillis > 0 {
		return 2*time.Duration(l.MoveTimeMillis)*time.Millisecond + 3*time.Second
	}
	d := time.Duration(l.Depth) * 300 * time.Millisecond
	return min(max(d, 6*time.Second), 20*time.Second)
}

// Score is relative to the side to move. Mate is the signed distance and
// only meaningful when IsMate.
type Score struct {
	CP     int
	Mate   int
	IsMate bool
}

func mateScore(n int) Score {
	// "mate 0" means the side to move is already mated.
	if n > 0 {
		return Score{CP: MateScore, Mate: n, IsMate: true}
	}
	return Score{CP: -MateScore, Mate: n, IsMate: true}
}

type Analysis struct {
	BestMove string
	Score    Score
	Depth    int
	PV       []string
}

// Analyse searches fen (blank or "startpos" for the initial position) and
// returns the deepest exact principal line.
func (e *Engine) Analyse(ctx context.Context, fen string, lim Limits) (Analysis, error) {
	goCmd, err := lim.goCommand()
	if err != nil {
		return Analysis{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.send(positionCommand(fen)); err != nil {
		return Analysis{}, fmt.Errorf("send position: %w", err)
	}
	if err := e.send(goCmd); err != nil {
		return Analysis{}, fmt.Errorf("send go: %w", err)
	}

	sctx, cancel := context.WithTimeout(ctx, lim.timeout())
	defer cancel()

	var (
		res    Analysis
		scored bool
	)
	for {
		line, err := e.next(sctx)
		if err != nil {
			_ = e.send("stop")
			return Analysis{}, fmt.Errorf("read search output: %w", err)
		}
		kind, rest, _ := strings.Cut(line, " ")
		switch kind {
		case "info":
			if in, ok := parseInfo(strings.Fields(rest)); ok && in.multipv == 1 {
				res.Score, res.Depth, res.PV = in.score, in.depth, in.pv
				scored = true
			}
		case "bestmove":
			if !scored {
				return Analysis{}, ErrNoScore
			}
			if mv, _, _ := strings.Cut(rest, " "); mv != "" && mv != "(none)" {
				res.BestMove = mv
			}
			return res, nil
		}
	}
}

func positionCommand(fen string) string {
	fen = strings.TrimSpace(fen)
	if fen == "" || fen == "startpos" {
		return "position startpos"
	}
	return "position fen " + fen
}

type info struct {
	multipv int
	depth   int
	score   Score
	pv      []string
}

// parseInfo reads the fields after "info". Lines without a score and a pv,
// and aspiration-window bounds, are not usable.
func parseInfo(fields []string) (info, bool) {
	if len(fields) > 0 && fields[0] == "string" {
		return info{}, false
	}
	in := info{multipv: 1}
	scored := false
	for i := 0; i < len(fields); i++ {
		switch fields[i] {
		case "lowerbound", "upperbound":
			return info{}, false
		case "pv":
			in.pv = append([]string(nil), fields[i+1:]...)
			i = len(fields)
		case "depth", "multipv":
			if i+1 >= len(fields) {
				return info{}, false
			}
			v, err := strconv.Atoi(fields[i+1])
			if err != nil {
				return info{}, false
			}
			if fields[i] == "depth" {
				in.depth = v
			} else {
				in.multipv = v
			}
			i++
		case "score":
			if i+2 >= len(fields) {
				return info{}, false
			}
			v, err := strconv.Atoi(fields[i+2])
			if err != nil {
				return info{}, false
			}
			switch fields[i+1] {
			case "cp":
				in.score = Score{CP: v}
			case "mate":
				in.score = mateScore(v)
			default:
				return info{}, false
			}
			scored = true
			i += 2
		}
	}
	return in, scored && len(in.pv) > 0
}
