package coach

import "testing"

func TestTrackerBlundersRaiseVerbosity(t *testing.T) {
	tr := NewTracker()
	if tr.Mode() != ModeHard {
		t.Fatalf("fresh tracker mode = %v", tr.Mode())
	}
	want := []DifficultyMode{ModeMedium, ModeMedium, ModeEasy, ModeEasy, ModeLearning, ModeLearning}
	for i, w := range want {
		tr.Record(Blunder)
		if got := tr.Mode(); got != w {
			t.Fatalf("after %d blunders mode = %v, want %v", i+1, got, w)
		}
	}
}

func TestTrackerForgivesAfterGoodStreak(t *testing.T) {
	tr := NewTracker()
	tr.Record(Blunder)
	tr.Record(Mistake)
	tr.Record(Best)
	tr.Record(Best)
	if errs, _ := tr.Counters(); errs != 2 {
		t.Fatalf("errors before streak reaches 3 = %d", errs)
	}
	tr.Record(Best)
	errs, streak := tr.Counters()
	if errs != 1 || streak != 3 {
		t.Fatalf("after three good moves: errors=%d streak=%d", errs, streak)
	}
	// The streak keeps counting and keeps forgiving.
	tr.Record(Good)
	if errs, streak = tr.Counters(); errs != 0 || streak != 4 {
		t.Fatalf("after four good moves: errors=%d streak=%d", errs, streak)
	}
	tr.Record(Excellent)
	if errs, _ = tr.Counters(); errs != 0 {
		t.Fatalf("errors must not go negative: %d", errs)
	}
}

func TestTrackerInaccuracyIsNeutral(t *testing.T) {
	tr := NewTracker()
	tr.Record(Mistake)
	tr.Record(Good)
	tr.Record(Inaccuracy)
	errs, streak := tr.Counters()
	if errs != 1 || streak != 1 {
		t.Fatalf("inaccuracy changed counters: errors=%d streak=%d", errs, streak)
	}
}

func TestTrackerReset(t *testing.T) {
	tr := NewTracker()
	for i := 0; i < 4; i++ {
		tr.Record(Blunder)
	}
	tr.Reset()
	if errs, streak := tr.Counters(); errs != 0 || streak != 0 || tr.Mode() != ModeHard {
		t.Fatalf("reset left errors=%d streak=%d mode=%v", errs, streak, tr.Mode())
	}
}

func TestTrackersAreIndependent(t *testing.T) {
	a, b := NewTracker(), NewTracker()
	a.Record(Blunder)
	a.Record(Blunder)
	a.Record(Blunder)
	if b.Mode() != ModeHard {
		t.Fatalf("second tracker affected: %v", b.Mode())
	}
	var nilTracker *Tracker
	nilTracker.Record(Blunder)
	if nilTracker.Mode() != ModeHard {
		t.Fatalf("nil tracker mode = %v", nilTracker.Mode())
	}
}

func TestRestoreTracker(t *testing.T) {
	tr := RestoreTracker(3, 2)
	if tr.Mode() != ModeEasy {
		t.Fatalf("restored mode = %v", tr.Mode())
	}
	tr.Record(Good)
	if errs, streak := tr.Counters(); errs != 2 || streak != 3 {
		t.Fatalf("restored streak did not carry: errors=%d streak=%d", errs, streak)
	}
	if errs, streak := RestoreTracker(-1, -4).Counters(); errs != 0 || streak != 0 {
		t.Fatalf("negative counters kept: %d %d", errs, streak)
	}
}
