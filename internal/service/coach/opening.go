package coach

import (
	"strings"
	"sync"

	nchess "github.com/corentings/chess/v2"
	"github.com/corentings/chess/v2/opening"

	"github.com/park285/cheese-coach/internal/chess/rules"
)

var (
	ecoOnce sync.Once
	ecoBook *opening.BookECO
)

func bookECO() *opening.BookECO {
	ecoOnce.Do(func() { ecoBook = opening.NewBookECO() })
	return ecoBook
}

// openingLabel names the opening reached by the session's moves. Games that
// do not start from the initial position have no label.
func openingLabel(s *Session) (string, string) {
	if s == nil || len(s.Moves) == 0 || s.StartFEN != rules.StartFEN {
		return "", ""
	}
	book := bookECO()
	if book == nil {
		return "", ""
	}
	game := nchess.NewGame()
	notation := nchess.UCINotation{}
	for _, raw := range s.Moves {
		mv, err := notation.Decode(game.Position(), strings.ToLower(strings.TrimSpace(raw)))
		if err != nil {
			return "", ""
		}
		if err := game.Move(mv, nil); err != nil {
			return "", ""
		}
	}
	if eco := book.Find(game.Moves()); eco != nil {
		return eco.Code(), eco.Title()
	}
	return "", ""
}
