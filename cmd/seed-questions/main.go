package main

import (
	"context"
	"fmt"
	"time"

	"github.com/OlegGarbuzov/JavaOffer-public-sub000/internal/config"
	"github.com/OlegGarbuzov/JavaOffer-public-sub000/internal/database"
	"github.com/OlegGarbuzov/JavaOffer-public-sub000/internal/logger"
	"github.com/OlegGarbuzov/JavaOffer-public-sub000/internal/model"
	"github.com/OlegGarbuzov/JavaOffer-public-sub000/internal/repository"
)

const questionsPerLevel = 5

var topics = []string{
	"Collections", "Concurrency", "Generics", "Streams", "JVM Internals",
	"Exceptions", "I/O", "Networking", "Serialization", "Garbage Collection",
}

func main() {
	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	questionRepo := repository.NewQuestionRepository(pool)

	fmt.Printf("=== Seeding %d questions per difficulty level ===\n", questionsPerLevel)

	successCount := 0
	for level := 1; level <= 10; level++ {
		for n := 1; n <= questionsPerLevel; n++ {
			topic := topics[(level+n)%len(topics)]
			q := &model.Question{
				Topic:      topic,
				Text:       fmt.Sprintf("[%s] Sample question %d at difficulty %d. Which option is correct?", topic, n, level),
				Difficulty: level,
				Answers: []model.Answer{
					{Content: "Option A", IsCorrect: true, Explanation: "Option A is the documented behavior."},
					{Content: "Option B"},
					{Content: "Option C"},
					{Content: "Option D"},
				},
			}
			if err := questionRepo.Create(ctx, q); err != nil {
				fmt.Printf("Error creating question (level %d, #%d): %v\n", level, n, err)
				continue
			}
			successCount++
		}
		fmt.Printf("Seeded level %d\n", level)
	}

	fmt.Printf("\nSeed completed! Successfully added %d/%d questions.\n", successCount, 10*questionsPerLevel)
}
