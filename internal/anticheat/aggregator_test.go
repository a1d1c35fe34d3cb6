package anticheat

import (
	"testing"

	"github.com/OlegGarbuzov/JavaOffer-public-sub000/internal/session"
	"github.com/google/uuid"
)

func testLimits() Limits {
	return Limits{MaxTabSwitch: 3, MaxTextCopy: 3, MaxTampering: 2, MaxHeartbeatMissed: 3}
}

func newState() *session.State {
	return &session.State{ExamID: uuid.New(), Violations: make(map[string]int)}
}

func TestRecordTabSwitchCeiling(t *testing.T) {
	st := newState()
	lim := testLimits()

	for i := 1; i <= 2; i++ {
		if Record(st, KindTabSwitch, lim, true) {
			t.Fatalf("terminated after %d tab switches", i)
		}
	}
	if !Record(st, KindTabSwitch, lim, true) {
		t.Fatal("third tab switch must terminate")
	}
	if !st.TerminatedByViolations {
		t.Error("termination flag not set")
	}

	// Further events on a terminated session short-circuit.
	if !Record(st, KindTabSwitch, lim, true) {
		t.Error("terminated session must stay terminated")
	}
	if st.ViolationCount(string(KindTabSwitch)) != 3 {
		t.Errorf("count = %d, want 3 (no increment after termination)", st.ViolationCount(string(KindTabSwitch)))
	}
}

func TestRecordTamperingKindsShareOneCeiling(t *testing.T) {
	st := newState()
	lim := testLimits()

	if Record(st, KindDevTools, lim, true) {
		t.Fatal("terminated after one tampering event")
	}
	// A different tampering kind still contributes to the same sum.
	if !Record(st, KindDOMTampering, lim, true) {
		t.Fatal("second tampering event must terminate, regardless of kind")
	}
}

func TestRecordTabSwitchDoesNotFeedTamperingSum(t *testing.T) {
	st := newState()
	lim := testLimits()

	Record(st, KindTabSwitch, lim, true)
	Record(st, KindTabSwitch, lim, true)
	if got := TamperingSum(st); got != 0 {
		t.Errorf("tampering sum = %d, want 0", got)
	}
	if Record(st, KindPageClose, lim, true) {
		t.Error("one tampering event must not terminate")
	}
}

func TestRecordHeartbeatMissedHasOwnCeiling(t *testing.T) {
	st := newState()
	lim := testLimits()

	Record(st, KindHeartbeatMissed, lim, true)
	Record(st, KindHeartbeatMissed, lim, true)
	if st.TerminatedByViolations {
		t.Fatal("terminated below the missed-heartbeat ceiling")
	}
	if got := TamperingSum(st); got != 0 {
		t.Errorf("missed heartbeats leaked into tampering sum: %d", got)
	}
	if !Record(st, KindHeartbeatMissed, lim, true) {
		t.Error("third missed heartbeat must terminate")
	}
}

func TestRecordWithoutEnforcementCountsOnly(t *testing.T) {
	st := newState()
	lim := testLimits()

	for i := 0; i < 10; i++ {
		if Record(st, KindTabSwitch, lim, false) {
			t.Fatal("unenforced session terminated")
		}
	}
	if st.TerminatedByViolations {
		t.Error("termination flag set without enforcement")
	}
	if got := st.ViolationCount(string(KindTabSwitch)); got != 10 {
		t.Errorf("count = %d, want 10", got)
	}
}

func TestRecordInitializesViolationsMap(t *testing.T) {
	st := &session.State{ExamID: uuid.New()}
	if Record(st, KindTextCopy, testLimits(), true) {
		t.Fatal("first text copy must not terminate")
	}
	if st.ViolationCount(string(KindTextCopy)) != 1 {
		t.Error("count not recorded on nil map")
	}
}

func TestParseKindRejectsServerDerivedKinds(t *testing.T) {
	if _, ok := ParseKind("heartbeat_missed"); ok {
		t.Error("heartbeat_missed must not be client-reportable")
	}
	if _, ok := ParseKind("made_up"); ok {
		t.Error("unknown kind accepted")
	}
	if k, ok := ParseKind("devtools"); !ok || k != KindDevTools {
		t.Errorf("devtools parse = %q, %v", k, ok)
	}
}
