package exam

import (
	"testing"

	"github.com/OlegGarbuzov/JavaOffer-public-sub000/internal/session"
)

func TestAdjustDifficultyPromotes(t *testing.T) {
	st := &session.State{CurrentDifficulty: 3, StreakSuccess: 5}
	adjustDifficulty(st, Policy{PromoteAfter: 5, DemoteAfter: 3})

	if st.CurrentDifficulty != 4 {
		t.Errorf("difficulty = %d, want 4", st.CurrentDifficulty)
	}
	if st.StreakSuccess != 0 || st.StreakFail != 0 {
		t.Errorf("streaks not reset: success=%d fail=%d", st.StreakSuccess, st.StreakFail)
	}
}

func TestAdjustDifficultyDemotes(t *testing.T) {
	st := &session.State{CurrentDifficulty: 3, StreakFail: 3}
	adjustDifficulty(st, Policy{PromoteAfter: 5, DemoteAfter: 3})

	if st.CurrentDifficulty != 2 {
		t.Errorf("difficulty = %d, want 2", st.CurrentDifficulty)
	}
	if st.StreakFail != 0 {
		t.Errorf("fail streak not reset: %d", st.StreakFail)
	}
}

func TestAdjustDifficultyBelowThresholdIsNoop(t *testing.T) {
	st := &session.State{CurrentDifficulty: 3, StreakSuccess: 4, StreakFail: 2}
	adjustDifficulty(st, Policy{PromoteAfter: 5, DemoteAfter: 3})

	if st.CurrentDifficulty != 3 {
		t.Errorf("difficulty = %d, want 3", st.CurrentDifficulty)
	}
	if st.StreakSuccess != 4 || st.StreakFail != 2 {
		t.Error("streaks must be untouched when no threshold is met")
	}
}

func TestAdjustDifficultyPromotionWinsOverDemotion(t *testing.T) {
	// Both thresholds met: promotion is evaluated first.
	st := &session.State{CurrentDifficulty: 5, StreakSuccess: 5, StreakFail: 3}
	adjustDifficulty(st, Policy{PromoteAfter: 5, DemoteAfter: 3})

	if st.CurrentDifficulty != 6 {
		t.Errorf("difficulty = %d, want 6", st.CurrentDifficulty)
	}
}

func TestAdjustDifficultyClampsAtBounds(t *testing.T) {
	top := &session.State{CurrentDifficulty: 10, StreakSuccess: 5}
	adjustDifficulty(top, Policy{PromoteAfter: 5, DemoteAfter: 3})
	if top.CurrentDifficulty != 10 {
		t.Errorf("difficulty = %d, want clamp at 10", top.CurrentDifficulty)
	}
	if top.StreakSuccess != 0 {
		t.Error("streak must reset even when clamped")
	}

	bottom := &session.State{CurrentDifficulty: 1, StreakFail: 3}
	adjustDifficulty(bottom, Policy{PromoteAfter: 5, DemoteAfter: 3})
	if bottom.CurrentDifficulty != 1 {
		t.Errorf("difficulty = %d, want clamp at 1", bottom.CurrentDifficulty)
	}
}
