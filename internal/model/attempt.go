package model

import (
	"time"

	"github.com/google/uuid"
)

// AttemptRecord is the final statistics of a finished competitive exam
// session, handed to the history queue when the session terminates.
type AttemptRecord struct {
	ExamID                 uuid.UUID      `json:"exam_id"`
	UserID                 string         `json:"user_id"`
	Mode                   string         `json:"mode"`
	DurationSeconds        int64          `json:"duration_seconds"`
	TotalBasePoints        int            `json:"total_base_points"`
	BonusByTime            float64        `json:"bonus_by_time"`
	Score                  int64          `json:"score"`
	SuccessCount           int            `json:"success_count"`
	FailCount              int            `json:"fail_count"`
	Violations             map[string]int `json:"violations,omitempty"`
	TerminatedByViolations bool           `json:"terminated_by_violations"`
	TerminatedByFailLimit  bool           `json:"terminated_by_fail_limit"`
	TerminationReason      string         `json:"termination_reason,omitempty"`
	FinishedAt             time.Time      `json:"finished_at"`
}

// RankingEntry is one row of the global best-score leaderboard.
type RankingEntry struct {
	Rank   int    `json:"rank"`
	UserID string `json:"user_id"`
	Score  int64  `json:"score"`
}
