package exam

import (
	"math"
	"time"

	"github.com/OlegGarbuzov/JavaOffer-public-sub000/internal/model"
	"github.com/OlegGarbuzov/JavaOffer-public-sub000/internal/session"
)

// Termination reasons recorded on finished attempts.
const (
	reasonCompleted      = "completed"
	reasonFailLimit      = "fail_answer_limit_exceeded"
	reasonViolationLimit = "violation_limit_exceeded"
)

// computeFinalStats turns the terminal session state into the attempt
// record handed to history and ranking. The time bonus rewards answering
// pace: answered questions per second of session, scaled by ten and rounded
// to two decimals. Duration is clamped to one second so a sub-second
// session cannot explode the bonus.
func computeFinalStats(st *session.State, now time.Time) model.AttemptRecord {
	duration := now.Sub(st.CreatedAt)
	if duration < time.Second {
		duration = time.Second
	}
	totalAnswered := st.TotalSuccess + st.TotalFail
	bonus := round2(float64(totalAnswered) / duration.Seconds() * 10)

	violations := make(map[string]int, len(st.Violations))
	for k, v := range st.Violations {
		violations[k] = v
	}

	reason := reasonCompleted
	switch {
	case st.TerminatedByViolations:
		reason = reasonViolationLimit
	case st.TerminatedByFailLimit:
		reason = reasonFailLimit
	}

	return model.AttemptRecord{
		ExamID:                 st.ExamID,
		UserID:                 st.UserID,
		Mode:                   string(st.Mode),
		DurationSeconds:        int64(duration.Seconds()),
		TotalBasePoints:        st.BasePoints,
		BonusByTime:            bonus,
		Score:                  int64(float64(st.BasePoints) * bonus),
		SuccessCount:           st.TotalSuccess,
		FailCount:              st.TotalFail,
		Violations:             violations,
		TerminatedByViolations: st.TerminatedByViolations,
		TerminatedByFailLimit:  st.TerminatedByFailLimit,
		TerminationReason:      reason,
		FinishedAt:             now,
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
