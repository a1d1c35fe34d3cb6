package repository

import (
	"context"
	"sync"

	"github.com/OlegGarbuzov/JavaOffer-public-sub000/internal/model"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// QuestionCache is an in-memory snapshot of the question bank. The exam
// engine does its lookups while holding a session lock, so they must never
// hit the database; the cache is prewarmed at startup and can be refreshed
// on demand.
type QuestionCache struct {
	repo *QuestionRepository
	log  zerolog.Logger

	mu           sync.RWMutex
	byID         map[uuid.UUID]model.Question
	byDifficulty map[int][]model.Question
}

// NewQuestionCache creates an empty cache around the repository. Prewarm
// must run before the cache serves the engine.
func NewQuestionCache(repo *QuestionRepository, log zerolog.Logger) *QuestionCache {
	return &QuestionCache{
		repo:         repo,
		log:          log.With().Str("component", "question_cache").Logger(),
		byID:         make(map[uuid.UUID]model.Question),
		byDifficulty: make(map[int][]model.Question),
	}
}

// Prewarm loads the full question bank into memory, replacing any previous
// snapshot.
func (c *QuestionCache) Prewarm(ctx context.Context) error {
	questions, err := c.repo.ListAll(ctx)
	if err != nil {
		return err
	}

	byID := make(map[uuid.UUID]model.Question, len(questions))
	byDifficulty := make(map[int][]model.Question)
	for _, q := range questions {
		byID[q.ID] = q
		byDifficulty[q.Difficulty] = append(byDifficulty[q.Difficulty], q)
	}

	c.mu.Lock()
	c.byID = byID
	c.byDifficulty = byDifficulty
	c.mu.Unlock()

	c.log.Info().Int("questions", len(questions)).Msg("Question bank loaded")
	return nil
}

// ByDifficulty returns the cached questions at one difficulty level. The
// returned slice is shared; callers must not mutate it.
func (c *QuestionCache) ByDifficulty(level int) []model.Question {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.byDifficulty[level]
}

// ByID returns one cached question by ID.
func (c *QuestionCache) ByID(id uuid.UUID) (model.Question, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	q, ok := c.byID[id]
	return q, ok
}

// Len returns the number of cached questions.
func (c *QuestionCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.byID)
}
