package coachpresenter

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/park285/cheese-coach/pkg/coachdto"
)

// Presenter writes one response per command, either as a JSON line or as
// formatted text.
type Presenter struct {
	mu        sync.Mutex
	out       io.Writer
	text      bool
	formatter *Formatter
}

func NewPresenter(out io.Writer, text bool) *Presenter {
	return &Presenter{out: out, text: text, formatter: NewFormatter()}
}

func (p *Presenter) Emit(resp coachdto.Response) error {
	if p == nil || p.out == nil {
		return nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.text {
		return json.NewEncoder(p.out).Encode(resp)
	}
	text := p.render(resp)
	if text == "" {
		return nil
	}
	_, err := fmt.Fprintln(p.out, text)
	return err
}

func (p *Presenter) render(resp coachdto.Response) string {
	f := p.formatter
	if resp.Error != nil {
		return f.Error(resp.Error)
	}
	switch d := resp.Data.(type) {
	case *coachdto.GameState:
		switch resp.Command {
		case "new":
			return f.Start(d)
		case "undo":
			return f.Undo(d)
		}
		return f.Status(d)
	case *coachdto.MoveReport:
		return f.Move(d)
	case *coachdto.Advisory:
		return f.Advice(d)
	case *coachdto.GameReport:
		return f.GameOver(d)
	case *coachdto.Profile:
		return f.Profile(d)
	case []coachdto.HistoryEntry:
		return f.History(d)
	case string:
		return d
	}
	return ""
}
