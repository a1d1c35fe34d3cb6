package repository

import (
	"context"
	"encoding/json"

	"github.com/OlegGarbuzov/JavaOffer-public-sub000/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AttemptHistoryRepository persists finished exam attempts.
type AttemptHistoryRepository struct {
	pool *pgxpool.Pool
}

// NewAttemptHistoryRepository creates a new AttemptHistoryRepository.
func NewAttemptHistoryRepository(pool *pgxpool.Pool) *AttemptHistoryRepository {
	return &AttemptHistoryRepository{pool: pool}
}

var attemptHistoryColumns = []string{
	"exam_id", "user_id", "mode", "duration_seconds",
	"total_base_points", "bonus_by_time", "score",
	"success_count", "fail_count", "violations",
	"terminated_by_violations", "terminated_by_fail_limit",
	"termination_reason", "finished_at",
}

// InsertBatch bulk-inserts a batch of attempt records via COPY.
func (r *AttemptHistoryRepository) InsertBatch(ctx context.Context, batch []*model.AttemptRecord) error {
	rows := make([][]interface{}, 0, len(batch))
	for _, rec := range batch {
		violations, err := json.Marshal(rec.Violations)
		if err != nil {
			return err
		}
		rows = append(rows, []interface{}{
			rec.ExamID, rec.UserID, rec.Mode, rec.DurationSeconds,
			rec.TotalBasePoints, rec.BonusByTime, rec.Score,
			rec.SuccessCount, rec.FailCount, violations,
			rec.TerminatedByViolations, rec.TerminatedByFailLimit,
			rec.TerminationReason, rec.FinishedAt,
		})
	}

	_, err := r.pool.CopyFrom(
		ctx,
		pgx.Identifier{"attempt_history"},
		attemptHistoryColumns,
		pgx.CopyFromRows(rows),
	)
	return err
}

// Insert stores a single attempt record, used as the row-by-row fallback
// when a bulk insert fails.
func (r *AttemptHistoryRepository) Insert(ctx context.Context, rec *model.AttemptRecord) error {
	violations, err := json.Marshal(rec.Violations)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx,
		`INSERT INTO attempt_history
		   (exam_id, user_id, mode, duration_seconds,
		    total_base_points, bonus_by_time, score,
		    success_count, fail_count, violations,
		    terminated_by_violations, terminated_by_fail_limit,
		    termination_reason, finished_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10::jsonb, $11, $12, $13, $14)`,
		rec.ExamID, rec.UserID, rec.Mode, rec.DurationSeconds,
		rec.TotalBasePoints, rec.BonusByTime, rec.Score,
		rec.SuccessCount, rec.FailCount, violations,
		rec.TerminatedByViolations, rec.TerminatedByFailLimit,
		rec.TerminationReason, rec.FinishedAt,
	)
	return err
}
