package exam

import (
	"github.com/OlegGarbuzov/JavaOffer-public-sub000/internal/model"
	"github.com/OlegGarbuzov/JavaOffer-public-sub000/internal/session"
)

// questionsNearLevel returns the bank's questions at the requested level,
// falling back to the nearest populated level when it is empty. Offsets
// alternate outward with the higher level tried first, so a thin bank still
// serves the closest available challenge.
func questionsNearLevel(bank QuestionBank, level int) []model.Question {
	if qs := bank.ByDifficulty(level); len(qs) > 0 {
		return qs
	}
	for off := 1; off < maxDifficulty; off++ {
		if l := level + off; l <= maxDifficulty {
			if qs := bank.ByDifficulty(l); len(qs) > 0 {
				return qs
			}
		}
		if l := level - off; l >= minDifficulty {
			if qs := bank.ByDifficulty(l); len(qs) > 0 {
				return qs
			}
		}
	}
	return nil
}

// chooseQuestion picks uniformly from the pool, excluding the question just
// served and every question already answered correctly this session. An
// exhausted pool falls back to its first entry rather than stalling the
// exam.
func chooseQuestion(pool []model.Question, st *session.State, randInt func(n int) int) model.Question {
	candidates := make([]model.Question, 0, len(pool))
	for _, q := range pool {
		if q.ID == st.LastQuestionID || st.HasAnsweredCorrectly(q.ID) {
			continue
		}
		candidates = append(candidates, q)
	}
	if len(candidates) == 0 {
		return pool[0]
	}
	return candidates[randInt(len(candidates))]
}

// questionView strips grading data and shuffles answer order so option
// position carries no signal across candidates.
func questionView(q model.Question, randInt func(n int) int) model.QuestionView {
	answers := make([]model.AnswerView, len(q.Answers))
	for i, a := range q.Answers {
		answers[i] = model.AnswerView{ID: a.ID, Content: a.Content}
	}
	for i := len(answers) - 1; i > 0; i-- {
		j := randInt(i + 1)
		answers[i], answers[j] = answers[j], answers[i]
	}
	return model.QuestionView{
		ID:         q.ID,
		Topic:      q.Topic,
		Text:       q.Text,
		Difficulty: q.Difficulty,
		Answers:    answers,
	}
}
