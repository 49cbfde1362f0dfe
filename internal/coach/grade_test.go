package coach

import "testing"

func TestGradeBands(t *testing.T) {
	cases := []struct {
		loss int
		want Grade
	}{
		{-400, Excellent},
		{0, Excellent},
		{10, Excellent},
		{11, Good},
		{25, Good},
		{26, Inaccuracy},
		{50, Inaccuracy},
		{51, Mistake},
		{100, Mistake},
		{101, Blunder},
		{MateThreshold - 1, Blunder},
		{MateThreshold, Blunder},
	}
	for _, tc := range cases {
		if got := GradeLoss(tc.loss, false); got != tc.want {
			t.Errorf("GradeLoss(%d) = %v, want %v", tc.loss, got, tc.want)
		}
	}
}

func TestRecommendedMoveIsAlwaysBest(t *testing.T) {
	evals := []int{-100000, -50000, -800, -120, 0, 50, 300, 50000, 100000}
	for _, a := range evals {
		for _, b := range evals {
			for _, white := range []bool{true, false} {
				if g, _ := GradeMove(a, b, white, true); g != Best {
					t.Fatalf("GradeMove(%d,%d,%v,true) = %v", a, b, white, g)
				}
			}
		}
	}
}

func TestGradingIsMonotonic(t *testing.T) {
	prev := GradeLoss(-1000, false)
	for loss := -1000; loss <= 60000; loss += 7 {
		g := GradeLoss(loss, false)
		if g > prev {
			t.Fatalf("grade rose from %v to %v at loss %d", prev, g, loss)
		}
		prev = g
	}
}

func TestGradeScenarios(t *testing.T) {
	g, loss := GradeMove(50, -120, true, false)
	if loss != 170 || g != Blunder {
		t.Fatalf("white +50 -> -120: loss=%d grade=%v", loss, g)
	}
	// Black gained 5cp: the signed loss is negative and clamps to Excellent.
	g, loss = GradeMove(-300, -305, false, false)
	if loss != -5 || g != Excellent {
		t.Fatalf("black -300 -> -305: loss=%d grade=%v", loss, g)
	}
}

func TestGradeStringsRoundTrip(t *testing.T) {
	for g := Blunder; g <= Best; g++ {
		back, err := ParseGrade(g.String())
		if err != nil || back != g {
			t.Fatalf("ParseGrade(%q) = %v, %v", g.String(), back, err)
		}
	}
	if _, err := ParseGrade("brilliant"); err == nil {
		t.Fatalf("expected error for unknown grade")
	}
}
