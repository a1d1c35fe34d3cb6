package anticheat

import (
	"github.com/OlegGarbuzov/JavaOffer-public-sub000/internal/session"
)

// Limits holds the termination ceilings for integrity violations.
type Limits struct {
	MaxTabSwitch       int
	MaxTextCopy        int
	MaxTampering       int
	MaxHeartbeatMissed int
}

// Record increments the counter for kind on the session state and reports
// whether the session is now terminated. The caller must hold the session's
// Guard mutex.
//
// Tab-switch and text-copy carry their own per-kind ceiling; all tampering
// kinds share one combined ceiling over the sum of their counters; missed
// heartbeats have a separate ceiling. Every ceiling is evaluated after the
// increment, with >=.
//
// When enforce is false the event is still counted for observability but no
// ceiling is evaluated and the session is never terminated.
func Record(st *session.State, kind Kind, lim Limits, enforce bool) bool {
	if st.TerminatedByViolations {
		return true
	}

	if st.Violations == nil {
		st.Violations = make(map[string]int)
	}
	st.Violations[string(kind)]++

	if !enforce {
		return false
	}

	switch kind {
	case KindTabSwitch:
		if st.Violations[string(kind)] >= lim.MaxTabSwitch {
			st.TerminatedByViolations = true
		}
	case KindTextCopy:
		if st.Violations[string(kind)] >= lim.MaxTextCopy {
			st.TerminatedByViolations = true
		}
	case KindHeartbeatMissed:
		if st.Violations[string(kind)] >= lim.MaxHeartbeatMissed {
			st.TerminatedByViolations = true
		}
	default:
		if TamperingSum(st) >= lim.MaxTampering {
			st.TerminatedByViolations = true
		}
	}

	return st.TerminatedByViolations
}

// TamperingSum returns the combined count of all tampering-class violations.
func TamperingSum(st *session.State) int {
	sum := 0
	for _, k := range tamperingKinds {
		sum += st.ViolationCount(string(k))
	}
	return sum
}
