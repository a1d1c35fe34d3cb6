package anticheat

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

func newTestMonitor(now time.Time) *Monitor {
	m := NewMonitor("test-secret", 5*time.Second, 10*time.Second, 2*time.Second, zerolog.Nop())
	m.now = func() time.Time { return now }
	m.randInt = func(n int) int { return 0 }
	return m
}

func TestProcessBeatInitIssuesTokenAndChallenge(t *testing.T) {
	now := time.Now()
	m := newTestMonitor(now)
	st := newState()

	res := m.ProcessBeat(st, InitTokenPrefix+"abc", testLimits(), true)
	if res.NextToken == "" {
		t.Fatal("init beat issued no token")
	}
	if !strings.HasPrefix(res.Challenge, "function(x){return ") {
		t.Errorf("challenge = %q", res.Challenge)
	}
	if res.Terminated {
		t.Error("init beat terminated the session")
	}
	if st.LastLivenessToken != res.NextToken {
		t.Error("issued token not committed to state")
	}
	if !st.NextExpectedHeartbeatTime.After(now) {
		t.Error("next expected time not scheduled")
	}
	if st.ViolationCount(string(KindHeartbeatMissed)) != 0 {
		t.Error("first init counted as a miss")
	}
}

func TestProcessBeatDuplicateInitCountsMiss(t *testing.T) {
	m := newTestMonitor(time.Now())
	st := newState()

	m.ProcessBeat(st, InitTokenPrefix+"a", testLimits(), true)
	res := m.ProcessBeat(st, InitTokenPrefix+"b", testLimits(), true)
	if res.NextToken == "" {
		t.Error("duplicate init must still rotate the token")
	}
	if got := st.ViolationCount(string(KindHeartbeatMissed)); got != 1 {
		t.Errorf("missed count = %d, want 1", got)
	}
}

func TestProcessBeatValidEchoRotates(t *testing.T) {
	now := time.Now()
	m := newTestMonitor(now)
	st := newState()

	first := m.ProcessBeat(st, InitTokenPrefix+"a", testLimits(), true)

	// Echo on time, within the expected window.
	later := now.Add(3 * time.Second)
	m.now = func() time.Time { return later }
	res := m.ProcessBeat(st, first.NextToken, testLimits(), true)
	if res.Terminated {
		t.Fatal("on-time echo terminated the session")
	}
	if res.NextToken == first.NextToken {
		t.Error("token not rotated")
	}
	if got := st.ViolationCount(string(KindHeartbeatMissed)); got != 0 {
		t.Errorf("missed count = %d, want 0", got)
	}
}

func TestProcessBeatMismatchCountsMissAndRotates(t *testing.T) {
	m := newTestMonitor(time.Now())
	st := newState()

	m.ProcessBeat(st, InitTokenPrefix+"a", testLimits(), true)
	res := m.ProcessBeat(st, "forged-token", testLimits(), true)
	if res.Terminated {
		t.Fatal("single mismatch terminated the session")
	}
	if res.NextToken == "" {
		t.Error("mismatch must still issue a fresh token")
	}
	if got := st.ViolationCount(string(KindHeartbeatMissed)); got != 1 {
		t.Errorf("missed count = %d, want 1", got)
	}
}

func TestProcessBeatThirdMissTerminates(t *testing.T) {
	m := newTestMonitor(time.Now())
	st := newState()

	m.ProcessBeat(st, InitTokenPrefix+"a", testLimits(), true)
	for i := 1; i <= 2; i++ {
		if res := m.ProcessBeat(st, "forged", testLimits(), true); res.Terminated {
			t.Fatalf("terminated after %d misses", i)
		}
	}
	res := m.ProcessBeat(st, "forged", testLimits(), true)
	if !res.Terminated {
		t.Fatal("third miss must terminate")
	}
	if !st.TerminatedByViolations {
		t.Error("termination flag not set")
	}

	// Any further beat answers terminated without a token.
	after := m.ProcessBeat(st, "anything", testLimits(), true)
	if !after.Terminated || after.NextToken != "" {
		t.Errorf("beat on terminated session = %+v", after)
	}
}

func TestProcessBeatLateBeatCountsMiss(t *testing.T) {
	start := time.Now()
	m := newTestMonitor(start)
	st := newState()

	first := m.ProcessBeat(st, InitTokenPrefix+"a", testLimits(), true)

	// Well past the expected time and past 1.2x the maximum interval, so
	// the base tolerance applies.
	late := start.Add(30 * time.Second)
	m.now = func() time.Time { return late }
	m.ProcessBeat(st, first.NextToken, testLimits(), true)
	if got := st.ViolationCount(string(KindHeartbeatMissed)); got != 1 {
		t.Errorf("missed count = %d, want 1", got)
	}
}

func TestProcessBeatSlightLatenessGetsStretchedTolerance(t *testing.T) {
	start := time.Now()
	m := newTestMonitor(start)
	st := newState()

	first := m.ProcessBeat(st, InitTokenPrefix+"a", testLimits(), true)

	// randInt is pinned to 0, so the interval is the 5s minimum. A beat at
	// 7.5s is past expected+tolerance but inside the stretched window that
	// applies when the gap is under 1.2x the maximum interval.
	m.now = func() time.Time { return start.Add(7500 * time.Millisecond) }
	m.ProcessBeat(st, first.NextToken, testLimits(), true)
	if got := st.ViolationCount(string(KindHeartbeatMissed)); got != 0 {
		t.Errorf("missed count = %d, want 0 inside stretched tolerance", got)
	}
}

func TestProcessBeatUnenforcedRotatesWithoutCounting(t *testing.T) {
	m := newTestMonitor(time.Now())
	st := newState()

	m.ProcessBeat(st, InitTokenPrefix+"a", testLimits(), false)
	res := m.ProcessBeat(st, "forged", testLimits(), false)
	if res.Terminated {
		t.Fatal("unenforced beat terminated")
	}
	if res.NextToken == "" {
		t.Error("unenforced beat must still rotate the token")
	}
	if got := st.ViolationCount(string(KindHeartbeatMissed)); got != 0 {
		t.Errorf("missed count = %d, want 0", got)
	}
}

func TestLongAbsenceCheck(t *testing.T) {
	start := time.Now()
	m := newTestMonitor(start)
	st := newState()

	// No heartbeat ever seen: nothing to check.
	if m.LongAbsenceCheck(st) {
		t.Fatal("absence counted before any heartbeat")
	}

	m.ProcessBeat(st, InitTokenPrefix+"a", testLimits(), true)

	// Just under the grace margin.
	m.now = func() time.Time { return st.NextExpectedHeartbeatTime.Add(30 * time.Second) }
	if m.LongAbsenceCheck(st) {
		t.Fatal("absence counted inside the grace margin")
	}

	m.now = func() time.Time { return st.NextExpectedHeartbeatTime.Add(90 * time.Second) }
	if !m.LongAbsenceCheck(st) {
		t.Fatal("long absence not counted")
	}
	if got := st.ViolationCount(string(KindHeartbeatMissed)); got != 1 {
		t.Errorf("missed count = %d, want 1", got)
	}
	if st.TerminatedByViolations {
		t.Error("long-absence check must not evaluate the ceiling")
	}
}

func TestIssueTokenIsDeterministicPerInstant(t *testing.T) {
	now := time.Now()
	m := newTestMonitor(now)
	examID, questionID := uuid.New(), uuid.New()

	a := m.IssueToken(examID, questionID)
	b := m.IssueToken(examID, questionID)
	if a != b {
		t.Error("same inputs at the same instant must agree")
	}

	m.now = func() time.Time { return now.Add(time.Millisecond) }
	if c := m.IssueToken(examID, questionID); c == a {
		t.Error("token must change with the clock")
	}
}
