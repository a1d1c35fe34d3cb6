package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/OlegGarbuzov/JavaOffer-public-sub000/internal/config"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// MonitorPublisher fans integrity events out over Redis pub/sub so live
// proctoring clients see violations as they happen. Publishing is
// best-effort: a lost event never fails the request that caused it.
type MonitorPublisher struct {
	rdb *redis.Client
	log zerolog.Logger
}

// NewMonitorPublisher creates a new MonitorPublisher.
func NewMonitorPublisher(rdb *redis.Client, log zerolog.Logger) *MonitorPublisher {
	return &MonitorPublisher{
		rdb: rdb,
		log: log.With().Str("component", "monitor_publisher").Logger(),
	}
}

// ViolationEvent is the wire payload pushed to monitor subscribers.
type ViolationEvent struct {
	ExamID     uuid.UUID `json:"exam_id"`
	Kind       string    `json:"kind"`
	Count      int       `json:"count"`
	Terminated bool      `json:"terminated"`
	OccurredAt time.Time `json:"occurred_at"`
}

// PublishViolation sends one violation event to the exam's monitor channel.
func (p *MonitorPublisher) PublishViolation(ctx context.Context, examID uuid.UUID, kind string, count int, terminated bool) {
	event := ViolationEvent{
		ExamID:     examID,
		Kind:       kind,
		Count:      count,
		Terminated: terminated,
		OccurredAt: time.Now(),
	}
	data, err := json.Marshal(event)
	if err != nil {
		p.log.Error().Err(err).Msg("Failed to marshal violation event")
		return
	}
	if err := p.rdb.Publish(ctx, config.CacheKey.ExamMonitorChannel(examID), data).Err(); err != nil {
		p.log.Error().Err(err).
			Str("exam_id", examID.String()).
			Msg("Failed to publish violation event")
	}
}

// Subscribe opens a pub/sub subscription on the exam's monitor channel.
// The caller owns the returned subscription and must close it.
func (p *MonitorPublisher) Subscribe(ctx context.Context, examID uuid.UUID) *redis.PubSub {
	return p.rdb.Subscribe(ctx, config.CacheKey.ExamMonitorChannel(examID))
}
