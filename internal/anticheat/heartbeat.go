package anticheat

import (
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/OlegGarbuzov/JavaOffer-public-sub000/internal/session"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// InitTokenPrefix marks a client's first liveness call of a session.
const InitTokenPrefix = "init_"

// longAbsenceTolerance is the grace margin applied when the answer path
// checks for a stalled client, instead of the much tighter beat tolerance.
const longAbsenceTolerance = 60 * time.Second

// Monitor implements the heartbeat liveness protocol: a rotating token is
// issued on every beat and the client must echo the last issued one. A
// mismatched echo or a beat arriving past the expected time counts as a
// missed heartbeat.
type Monitor struct {
	secret      string
	minInterval time.Duration
	maxInterval time.Duration
	tolerance   time.Duration
	log         zerolog.Logger

	now     func() time.Time
	randInt func(n int) int
}

// NewMonitor creates a heartbeat monitor. maxInterval must exceed minInterval.
func NewMonitor(secret string, minInterval, maxInterval, tolerance time.Duration, log zerolog.Logger) *Monitor {
	if maxInterval <= minInterval {
		maxInterval = minInterval + time.Second
	}
	return &Monitor{
		secret:      secret,
		minInterval: minInterval,
		maxInterval: maxInterval,
		tolerance:   tolerance,
		log:         log.With().Str("component", "heartbeat_monitor").Logger(),
		now:         time.Now,
		randInt:     rand.IntN,
	}
}

// BeatResult is the outcome of one heartbeat call.
type BeatResult struct {
	NextToken  string
	Terminated bool
	Challenge  string
}

// ProcessBeat handles one liveness call. The caller must hold the session's
// Guard mutex. A new token is issued on every non-terminal outcome so a
// client that missed a beat is never dead-locked out of the protocol.
// When enforce is false the token still rotates but misses are not counted.
func (m *Monitor) ProcessBeat(st *session.State, token string, lim Limits, enforce bool) BeatResult {
	newToken := m.IssueToken(st.ExamID, st.LastQuestionID)
	interval := m.randomInterval()
	challenge := m.challenge(int(interval / time.Millisecond))
	now := m.now()

	// An init_ token bootstraps the exchange. A second init on the same
	// session means the client restarted the protocol mid-exam.
	if strings.HasPrefix(token, InitTokenPrefix) {
		if st.LastLivenessToken != "" && enforce {
			m.countMiss(st, "duplicate init token")
		}
		m.commit(st, now, interval, newToken)
		return BeatResult{NextToken: newToken, Challenge: challenge}
	}

	if st.TerminatedByViolations {
		m.log.Warn().Str("exam_id", st.ExamID.String()).Msg("Heartbeat on terminated session")
		return BeatResult{Terminated: true}
	}

	if !enforce {
		m.commit(st, now, interval, newToken)
		return BeatResult{NextToken: newToken, Challenge: challenge}
	}

	if token != st.LastLivenessToken {
		m.countMiss(st, "token mismatch")
		m.commit(st, now, interval, newToken)
		return BeatResult{
			NextToken:  newToken,
			Terminated: m.terminateIfLimitExceeded(st, lim),
			Challenge:  challenge,
		}
	}

	if m.beatMissed(st, now) {
		m.countMiss(st, "beat past expected time")
		if m.terminateIfLimitExceeded(st, lim) {
			return BeatResult{Terminated: true}
		}
	}

	m.commit(st, now, interval, newToken)
	return BeatResult{NextToken: newToken, Challenge: challenge}
}

// LongAbsenceCheck is invoked from the answer-check path: a candidate who
// answers after a long gap without heartbeats gets a missed beat counted
// even though no heartbeat call ever arrived. The caller must hold the
// session's Guard mutex. The ceiling is not evaluated here; the next
// heartbeat or violation report picks it up.
func (m *Monitor) LongAbsenceCheck(st *session.State) bool {
	if st.NextExpectedHeartbeatTime.IsZero() {
		return false
	}
	if m.now().After(st.NextExpectedHeartbeatTime.Add(longAbsenceTolerance)) {
		m.countMiss(st, "long absence at answer check")
		return true
	}
	return false
}

// IssueToken derives an opaque liveness token from the session, the current
// question, the clock and the shared secret.
func (m *Monitor) IssueToken(examID, questionID uuid.UUID) string {
	data := fmt.Sprintf("%s:%s:%d:%s", examID, questionID, m.now().UnixMilli(), m.secret)
	sum := sha256.Sum256([]byte(data))
	return base64.StdEncoding.EncodeToString(sum[:])
}

func (m *Monitor) commit(st *session.State, now time.Time, interval time.Duration, token string) {
	st.LastHeartbeatTime = now
	st.NextExpectedHeartbeatTime = now.Add(interval)
	st.LastLivenessToken = token
}

func (m *Monitor) countMiss(st *session.State, reason string) {
	if st.Violations == nil {
		st.Violations = make(map[string]int)
	}
	st.Violations[string(KindHeartbeatMissed)]++
	m.log.Warn().
		Str("exam_id", st.ExamID.String()).
		Int("missed", st.Violations[string(KindHeartbeatMissed)]).
		Str("reason", reason).
		Msg("Missed heartbeat recorded")
}

func (m *Monitor) terminateIfLimitExceeded(st *session.State, lim Limits) bool {
	if st.ViolationCount(string(KindHeartbeatMissed)) >= lim.MaxHeartbeatMissed {
		st.TerminatedByViolations = true
		m.log.Warn().Str("exam_id", st.ExamID.String()).Msg("Missed heartbeat limit exceeded, session terminated")
		return true
	}
	return false
}

// beatMissed reports whether the current beat arrived past the expected
// time plus tolerance. When the gap since the last beat is still under
// 1.2x the maximum interval the lateness is likely client clock skew, so
// the tolerance is stretched by half.
func (m *Monitor) beatMissed(st *session.State, now time.Time) bool {
	if st.LastHeartbeatTime.IsZero() || st.NextExpectedHeartbeatTime.IsZero() {
		return false
	}
	tolerance := m.tolerance
	sinceLast := now.Sub(st.LastHeartbeatTime)
	if float64(sinceLast) < float64(m.maxInterval)*1.2 {
		tolerance = tolerance * 3 / 2
	}
	return now.After(st.NextExpectedHeartbeatTime.Add(tolerance))
}

func (m *Monitor) randomInterval() time.Duration {
	spread := int(m.maxInterval-m.minInterval) / int(time.Millisecond)
	return m.minInterval + time.Duration(m.randInt(spread+1))*time.Millisecond
}

// challenge produces a tiny JavaScript function whose result must equal the
// expected value, used by the client to prove a live scripting environment.
func (m *Monitor) challenge(expected int) string {
	if m.randInt(2) == 0 {
		a := m.randInt(expected + 1)
		return fmt.Sprintf("function(x){return %d+%d;}", a, expected-a)
	}
	a := expected + m.randInt(10000)
	return fmt.Sprintf("function(x){return %d-%d;}", a, a-expected)
}
