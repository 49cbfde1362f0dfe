package coach

import (
	"testing"

	"github.com/park285/cheese-coach/internal/chess/rules"
)

func TestDetectorsFireOnFreshTactics(t *testing.T) {
	cases := []struct {
		name     string
		fen      string
		move     string
		want     string
		category Category
	}{
		{
			name:     "hanging queen",
			fen:      queenGuardedFEN,
			move:     "f3g5",
			want:     "Your queen on d4 is hanging; it is attacked and undefended.",
			category: CategoryPieceSafety,
		},
		{
			name:     "fork",
			fen:      "6k1/8/8/1B2n3/8/3R4/8/7K w - - 0 1",
			move:     "b5c4",
			want:     "This walks into a fork: the knight on e5 attacks your rook on d3 and bishop on c4 at once.",
			category: CategoryForks,
		},
		{
			name:     "pin",
			fen:      "4r1k1/8/8/3p4/4N3/8/8/3K4 w - - 0 1",
			move:     "d1e1",
			want:     "Your knight on e4 is now pinned to your king by the rook on e8.",
			category: CategoryPins,
		},
		{
			name:     "skewer",
			fen:      "6k1/8/1b6/8/8/8/5R2/3Q3K w - - 0 1",
			move:     "d1d4",
			want:     "Skewer: the bishop on b6 hits your queen on d4, with your rook on f2 behind it.",
			category: CategorySkewers,
		},
		{
			name:     "discovered attack",
			fen:      "r5k1/8/8/8/N7/8/8/R6K w - - 0 1",
			move:     "a4c5",
			want:     "Discovered attack: leaving a4 opened the line of the rook on a8 to your rook on a1.",
			category: CategoryDiscovered,
		},
		{
			name:     "back rank",
			fen:      "r5k1/8/8/8/8/8/5PPP/2B2K2 w - - 0 1",
			move:     "f1g1",
			want:     "Back rank weakness: your king on g1 has no escape squares and the rook on a8 can reach your back rank.",
			category: CategoryBackRank,
		},
		{
			name:     "overloaded defender",
			fen:      "2r1r1k1/8/8/8/8/2P1P3/3Q4/7K w - - 0 1",
			move:     "d2d7",
			want:     "Your queen had too many jobs (overloaded): your pawn on e3 is now undefended.",
			category: CategoryOverloaded,
		},
		{
			name:     "mate threat",
			fen:      "r5k1/5ppp/8/8/8/1P6/5PPP/6K1 w - - 0 1",
			move:     "b3b4",
			want:     "This allows checkmate: Ra1# is mate.",
			category: CategoryMateThreats,
		},
	}
	a := NewAssessor(nil, nil)
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := assess(t, a, tc.fen, tc.move, 0, -900)
			if got.Explanation != tc.want {
				t.Fatalf("explanation = %q\nwant          %q", got.Explanation, tc.want)
			}
			if got.Category != tc.category {
				t.Fatalf("category = %q, want %q", got.Category, tc.category)
			}
			if len(got.Cues) == 0 {
				t.Fatalf("no cues for %s", tc.name)
			}
		})
	}
}

func TestForkMustBeNew(t *testing.T) {
	a := NewAssessor(nil, nil)
	// The knight already hit both pieces; the king move changes nothing.
	got := assess(t, a, "6k1/8/8/4n3/2B5/3R4/8/7K w - - 0 1", "h1g1", 0, -40)
	if got.Explanation != "Small inaccuracy (~40cp)." {
		t.Fatalf("explanation = %q", got.Explanation)
	}
}

func TestStandingTacticsStillReported(t *testing.T) {
	cases := []struct {
		name, fen, move, want string
	}{
		{
			name: "skewer left in place",
			fen:  "6k1/8/1b6/8/3Q4/8/5R2/7K w - - 0 1",
			move: "h1g1",
			want: "Skewer: the bishop on b6 hits your queen on d4, with your rook on f2 behind it.",
		},
		{
			name: "back rank left weak",
			fen:  "r5k1/8/8/8/8/8/5PPP/2B3K1 w - - 0 1",
			move: "c1d2",
			want: "Back rank weakness: your king on g1 has no escape squares and the rook on a8 can reach your back rank.",
		},
	}
	a := NewAssessor(nil, nil)
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := assess(t, a, tc.fen, tc.move, 0, -900)
			if got.Explanation != tc.want {
				t.Fatalf("explanation = %q\nwant          %q", got.Explanation, tc.want)
			}
		})
	}
}

func TestPinMustBeConsequential(t *testing.T) {
	a := NewAssessor(nil, nil)

	// A bishop pinning a rook with nothing else bearing on it is not worth a
	// comment; the rook was already loose before the king move.
	got := assess(t, a, "7k/8/8/b7/8/2R5/8/5K2 w - - 0 1", "f1e1", 0, -40)
	if got.Explanation != "Small inaccuracy (~40cp)." {
		t.Fatalf("cheap pinner: explanation = %q", got.Explanation)
	}

	// The knight is hit only by the pinner but was the sole guard of the
	// attacked bishop on c5.
	got = assess(t, a, "2r1r2k/8/8/2B5/4N3/8/8/3K4 w - - 0 1", "d1e1", 0, -40)
	if got.Explanation != "Your knight on e4 is now pinned to your king by the rook on e8." {
		t.Fatalf("guard duty: explanation = %q", got.Explanation)
	}
	if got.Category != CategoryPins {
		t.Fatalf("category = %q", got.Category)
	}
}

func TestDetectorsSkippedForGoodMoves(t *testing.T) {
	a := NewAssessor(nil, nil)
	got := assess(t, a, queenGuardedFEN, "f3g5", 0, -20)
	if got.Grade != Good || got.Explanation != "Solid move." {
		t.Fatalf("grade=%v explanation=%q", got.Grade, got.Explanation)
	}
}

func TestDetectorsNeedBoards(t *testing.T) {
	s := &scene{move: rules.MustUCI("e2e4"), mover: colorOf(true)}
	for _, d := range detectors {
		if f := d.detect(s); f != nil {
			t.Fatalf("%s fired without boards: %+v", d.name, f)
		}
	}
}

func TestDetectorOrder(t *testing.T) {
	want := []string{"missed_mate", "allowed_mate", "mate_threat", "fork", "pin", "skewer", "discovered", "back_rank", "hanging", "overloaded"}
	got := DetectorNames()
	if len(got) != len(want) {
		t.Fatalf("detectors = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("detector %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestThreatClassifierPrefersMate(t *testing.T) {
	after, err := rules.MustFEN("r5k1/5ppp/8/8/8/1P6/5PPP/6K1 w - - 0 1").Apply(rules.MustUCI("b3b4"))
	if err != nil {
		t.Fatal(err)
	}
	f := classifyThreat(after, colorOf(true))
	if f == nil || f.key != "threat.mate" || f.data["Reply"] != "Ra1#" {
		t.Fatalf("finding = %+v", f)
	}
	a := NewAssessor(nil, nil)
	if text := a.render(f, Blunder, 900); text != "This move failed to stop a mate threat: Ra1# is checkmate." {
		t.Fatalf("rendered = %q", text)
	}
}

func TestJoinAnd(t *testing.T) {
	cases := map[string][]string{
		"":           nil,
		"a":          {"a"},
		"a and b":    {"a", "b"},
		"a, b and c": {"a", "b", "c"},
	}
	for want, in := range cases {
		if got := joinAnd(in); got != want {
			t.Errorf("joinAnd(%v) = %q, want %q", in, got, want)
		}
	}
}
