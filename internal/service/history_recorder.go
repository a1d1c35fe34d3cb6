package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/OlegGarbuzov/JavaOffer-public-sub000/internal/config"
	"github.com/OlegGarbuzov/JavaOffer-public-sub000/internal/model"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// HistoryRecorder hands finished attempts to the persistence queue. The
// request path only pays for one Redis push; the history worker drains the
// queue into Postgres in batches.
type HistoryRecorder struct {
	rdb *redis.Client
	log zerolog.Logger
}

// NewHistoryRecorder creates a new HistoryRecorder.
func NewHistoryRecorder(rdb *redis.Client, log zerolog.Logger) *HistoryRecorder {
	return &HistoryRecorder{
		rdb: rdb,
		log: log.With().Str("component", "history_recorder").Logger(),
	}
}

// Enqueue pushes one attempt record onto the persistence queue.
func (r *HistoryRecorder) Enqueue(ctx context.Context, rec model.AttemptRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal attempt record: %w", err)
	}
	if err := r.rdb.RPush(ctx, config.WorkerKey.PersistAttemptsQueue, data).Err(); err != nil {
		return fmt.Errorf("enqueue attempt record: %w", err)
	}
	r.log.Debug().
		Str("exam_id", rec.ExamID.String()).
		Int64("score", rec.Score).
		Msg("Attempt record enqueued")
	return nil
}
