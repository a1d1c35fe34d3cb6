package repository

import (
	"context"

	"github.com/OlegGarbuzov/JavaOffer-public-sub000/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// QuestionRepository handles question and answer data access.
type QuestionRepository struct {
	pool *pgxpool.Pool
}

// NewQuestionRepository creates a new QuestionRepository.
func NewQuestionRepository(pool *pgxpool.Pool) *QuestionRepository {
	return &QuestionRepository{pool: pool}
}

// ListAll retrieves every question with its answer options. The answer rows
// come back in a second query keyed by question ID, which keeps the scan
// simple and avoids a wide join.
func (r *QuestionRepository) ListAll(ctx context.Context) ([]model.Question, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, topic, question_text, difficulty
		 FROM questions
		 ORDER BY difficulty, id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var questions []model.Question
	index := make(map[uuid.UUID]int)
	for rows.Next() {
		var q model.Question
		if err := rows.Scan(&q.ID, &q.Topic, &q.Text, &q.Difficulty); err != nil {
			return nil, err
		}
		index[q.ID] = len(questions)
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	answerRows, err := r.pool.Query(ctx,
		`SELECT id, question_id, content, is_correct, explanation
		 FROM answers
		 ORDER BY question_id, id`,
	)
	if err != nil {
		return nil, err
	}
	defer answerRows.Close()

	for answerRows.Next() {
		var a model.Answer
		if err := answerRows.Scan(&a.ID, &a.QuestionID, &a.Content, &a.IsCorrect, &a.Explanation); err != nil {
			return nil, err
		}
		if i, ok := index[a.QuestionID]; ok {
			questions[i].Answers = append(questions[i].Answers, a)
		}
	}
	return questions, answerRows.Err()
}

// Create inserts a question with its answers in one transaction.
func (r *QuestionRepository) Create(ctx context.Context, q *model.Question) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := tx.QueryRow(ctx,
		`INSERT INTO questions (topic, question_text, difficulty)
		 VALUES ($1, $2, $3)
		 RETURNING id`,
		q.Topic, q.Text, q.Difficulty,
	).Scan(&q.ID); err != nil {
		return err
	}

	for i := range q.Answers {
		a := &q.Answers[i]
		a.QuestionID = q.ID
		if err := tx.QueryRow(ctx,
			`INSERT INTO answers (question_id, content, is_correct, explanation)
			 VALUES ($1, $2, $3, $4)
			 RETURNING id`,
			a.QuestionID, a.Content, a.IsCorrect, a.Explanation,
		).Scan(&a.ID); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}
