package exam

import (
	"github.com/OlegGarbuzov/JavaOffer-public-sub000/internal/session"
)

const (
	minDifficulty = 1
	maxDifficulty = 10
)

// adjustDifficulty applies the adaptive-difficulty step to the session.
// It runs on the next-question path, before selection: a promotion streak
// wins over a demotion streak when both thresholds are somehow met, and any
// move resets both streaks. The session's target difficulty may later be
// overwritten by the selector when the bank has no question at this level.
func adjustDifficulty(st *session.State, p Policy) {
	switch {
	case st.StreakSuccess >= p.PromoteAfter:
		st.CurrentDifficulty = clampDifficulty(st.CurrentDifficulty + 1)
		st.StreakSuccess = 0
		st.StreakFail = 0
	case st.StreakFail >= p.DemoteAfter:
		st.CurrentDifficulty = clampDifficulty(st.CurrentDifficulty - 1)
		st.StreakSuccess = 0
		st.StreakFail = 0
	}
}

func clampDifficulty(level int) int {
	if level < minDifficulty {
		return minDifficulty
	}
	if level > maxDifficulty {
		return maxDifficulty
	}
	return level
}
