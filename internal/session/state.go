package session

import (
	"time"

	"github.com/google/uuid"
)

// Mode selects the rule set governing a session.
type Mode string

const (
	ModePractice    Mode = "practice"
	ModeCompetitive Mode = "competitive"
)

// ParseMode maps a wire value onto a Mode.
func ParseMode(raw string) (Mode, bool) {
	switch Mode(raw) {
	case ModePractice, ModeCompetitive:
		return Mode(raw), true
	default:
		return "", false
	}
}

// State is the full mutable progress of one exam attempt. It lives in the
// Store and must only be read or written while the session's Guard mutex
// is held.
type State struct {
	ExamID uuid.UUID
	UserID string
	Mode   Mode

	CurrentDifficulty int
	LastQuestionID    uuid.UUID // uuid.Nil when no question served yet

	StreakSuccess int
	StreakFail    int
	TotalSuccess  int
	TotalFail     int

	// CorrectlyAnswered holds question IDs already answered correctly this
	// session. Append-only; used by the selector as an exclusion set.
	CorrectlyAnswered []uuid.UUID

	BasePoints int

	// Request-token handshake. At most one of NextQuestionRequestID and
	// NextAnswerCheckRequestID is non-nil at any time.
	LastQuestionRequestID    uuid.UUID
	NextQuestionRequestID    uuid.UUID
	LastAnswerCheckRequestID uuid.UUID
	NextAnswerCheckRequestID uuid.UUID

	// Violations counts integrity events per kind.
	Violations map[string]int

	TerminatedByViolations bool
	TerminatedByFailLimit  bool

	LastLivenessToken         string
	LastHeartbeatTime         time.Time
	NextExpectedHeartbeatTime time.Time

	TimeOfLastQuestion time.Time
	CreatedAt          time.Time
}

// New creates a fresh session state. The first next-question token must be
// seeded by the caller.
func New(examID uuid.UUID, userID string, mode Mode, initialDifficulty int, now time.Time) *State {
	return &State{
		ExamID:            examID,
		UserID:            userID,
		Mode:              mode,
		CurrentDifficulty: initialDifficulty,
		Violations:        make(map[string]int),
		CreatedAt:         now,
	}
}

// HasAnsweredCorrectly reports whether the question was already answered
// correctly this session.
func (s *State) HasAnsweredCorrectly(questionID uuid.UUID) bool {
	for _, id := range s.CorrectlyAnswered {
		if id == questionID {
			return true
		}
	}
	return false
}

// ViolationCount returns the counter for one event kind.
func (s *State) ViolationCount(kind string) int {
	if s.Violations == nil {
		return 0
	}
	return s.Violations[kind]
}

// Terminated reports whether the session reached any terminal state.
func (s *State) Terminated() bool {
	return s.TerminatedByViolations || s.TerminatedByFailLimit
}

// Snapshot is the candidate-facing view of session progress.
type Snapshot struct {
	ExamID                 uuid.UUID `json:"exam_id"`
	Mode                   Mode      `json:"mode"`
	CurrentDifficulty      int       `json:"current_difficulty"`
	StreakSuccess          int       `json:"streak_success"`
	StreakFail             int       `json:"streak_fail"`
	TotalSuccess           int       `json:"total_success"`
	TotalFail              int       `json:"total_fail"`
	BasePoints             int       `json:"base_points"`
	TerminatedByViolations bool      `json:"terminated_by_violations"`
	TerminatedByFailLimit  bool      `json:"terminated_by_fail_limit"`
}

// Snapshot builds the wire view of the current progress.
func (s *State) Snapshot() Snapshot {
	return Snapshot{
		ExamID:                 s.ExamID,
		Mode:                   s.Mode,
		CurrentDifficulty:      s.CurrentDifficulty,
		StreakSuccess:          s.StreakSuccess,
		StreakFail:             s.StreakFail,
		TotalSuccess:           s.TotalSuccess,
		TotalFail:              s.TotalFail,
		BasePoints:             s.BasePoints,
		TerminatedByViolations: s.TerminatedByViolations,
		TerminatedByFailLimit:  s.TerminatedByFailLimit,
	}
}
