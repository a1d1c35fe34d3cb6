package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/OlegGarbuzov/JavaOffer-public-sub000/internal/config"
	"github.com/OlegGarbuzov/JavaOffer-public-sub000/internal/model"
	"github.com/OlegGarbuzov/JavaOffer-public-sub000/internal/repository"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	BatchSize    = 50
	BatchTimeout = 2 * time.Second
	PollTimeout  = 1 * time.Second // Must be >= 1s to satisfy Redis
)

// HistoryWorker drains finished attempts from the Redis queue into
// Postgres. Batches go through COPY; a failed batch falls back to
// row-by-row inserts, and rows that still fail are requeued so a database
// outage loses nothing.
type HistoryWorker struct {
	repo *repository.AttemptHistoryRepository
	rdb  *redis.Client
	log  zerolog.Logger
}

func NewHistoryWorker(repo *repository.AttemptHistoryRepository, rdb *redis.Client, log zerolog.Logger) *HistoryWorker {
	return &HistoryWorker{
		repo: repo,
		rdb:  rdb,
		log:  log.With().Str("component", "history_worker").Logger(),
	}
}

func (w *HistoryWorker) Start(ctx context.Context) {
	w.log.Info().Msg("HistoryWorker started")

	buffer := make([]*model.AttemptRecord, 0, BatchSize)
	lastFlush := time.Now()

	for {
		if len(buffer) > 0 {
			if len(buffer) >= BatchSize || time.Since(lastFlush) >= BatchTimeout {
				w.flushSafe(ctx, buffer)
				buffer = buffer[:0]
				lastFlush = time.Now()
			}
		}

		select {
		case <-ctx.Done():
			w.shutdown(buffer)
			return
		default:
		}

		// BLPop blocks for up to PollTimeout, returning immediately when
		// data exists so the flush timer above still fires on schedule.
		result, err := w.rdb.BLPop(ctx, PollTimeout, config.WorkerKey.PersistAttemptsQueue).Result()
		if err != nil {
			if err == redis.Nil {
				continue
			}
			if ctx.Err() != nil {
				return
			}
			w.log.Error().Err(err).Msg("Redis connection error, sleeping 3s")
			time.Sleep(3 * time.Second)
			continue
		}

		if len(result) < 2 {
			continue
		}

		var rec model.AttemptRecord
		if err := json.Unmarshal([]byte(result[1]), &rec); err != nil {
			// Malformed JSON can never succeed on retry. Log and discard.
			w.log.Error().Err(err).Str("data", result[1]).Msg("Discarding malformed attempt record")
			continue
		}

		buffer = append(buffer, &rec)
	}
}

// flushSafe attempts bulk insert, then fallback insert, then requeue.
func (w *HistoryWorker) flushSafe(ctx context.Context, batch []*model.AttemptRecord) {
	if len(batch) == 0 {
		return
	}

	if err := w.repo.InsertBatch(ctx, batch); err != nil {
		w.log.Warn().Err(err).Int("count", len(batch)).Msg("Bulk insert failed, attempting row-by-row recovery")
		w.fallbackInsert(ctx, batch)
	}
}

func (w *HistoryWorker) fallbackInsert(ctx context.Context, batch []*model.AttemptRecord) {
	requeueList := make([]*model.AttemptRecord, 0)

	for _, rec := range batch {
		if err := w.repo.Insert(ctx, rec); err != nil {
			w.log.Error().Err(err).
				Str("exam_id", rec.ExamID.String()).
				Msg("Insert failed, requeueing")
			requeueList = append(requeueList, rec)
		}
	}

	if len(requeueList) > 0 {
		w.requeue(ctx, requeueList)
	}
}

func (w *HistoryWorker) requeue(ctx context.Context, items []*model.AttemptRecord) {
	pipe := w.rdb.Pipeline()
	for _, rec := range items {
		data, _ := json.Marshal(rec)
		pipe.RPush(ctx, config.WorkerKey.PersistAttemptsQueue, data)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		w.log.Error().Err(err).Msg("CRITICAL: Failed to requeue attempt records. Data loss occurred.")
		return
	}
	w.log.Info().Int("count", len(items)).Msg("Requeued failed attempt records")
	// Back off so a hard-down database is not hammered.
	time.Sleep(2 * time.Second)
}

func (w *HistoryWorker) shutdown(buffer []*model.AttemptRecord) {
	w.log.Info().Msg("Worker stopping, flushing remaining buffer...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	w.flushSafe(shutdownCtx, buffer)
}
