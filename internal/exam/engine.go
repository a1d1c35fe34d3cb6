package exam

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/OlegGarbuzov/JavaOffer-public-sub000/internal/anticheat"
	"github.com/OlegGarbuzov/JavaOffer-public-sub000/internal/model"
	"github.com/OlegGarbuzov/JavaOffer-public-sub000/internal/session"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// QuestionBank serves read-only question lookups. Calls happen while a
// session's Guard mutex is held, so implementations must not block on I/O.
type QuestionBank interface {
	ByDifficulty(level int) []model.Question
	ByID(id uuid.UUID) (model.Question, bool)
}

// HistoryRecorder receives finished attempts for asynchronous persistence.
type HistoryRecorder interface {
	Enqueue(ctx context.Context, rec model.AttemptRecord) error
}

// RankingService receives scores of cleanly finished competitive attempts.
type RankingService interface {
	SubmitScore(ctx context.Context, userID string, score int64) error
}

// MonitorPublisher fans out integrity events to live proctoring observers.
type MonitorPublisher interface {
	PublishViolation(ctx context.Context, examID uuid.UUID, kind string, count int, terminated bool)
}

// Engine orchestrates exam sessions: the request-token handshake, question
// delivery, grading, adaptive difficulty, anti-cheat aggregation and the
// terminal handoff to history and ranking. Every session mutation runs
// inside the Guard, and collaborator calls happen only after the lock is
// released.
type Engine struct {
	store     *session.Store
	guard     *session.Guard
	bank      QuestionBank
	policies  map[session.Mode]Policy
	monitor   *anticheat.Monitor
	limits    anticheat.Limits
	history   HistoryRecorder
	ranking   RankingService
	publisher MonitorPublisher
	log       zerolog.Logger

	initialDifficulty int

	now     func() time.Time
	randInt func(n int) int
}

// NewEngine wires the session engine. history, ranking and publisher may be
// nil in practice-only deployments; the engine checks before dispatching.
func NewEngine(
	store *session.Store,
	guard *session.Guard,
	bank QuestionBank,
	policies map[session.Mode]Policy,
	monitor *anticheat.Monitor,
	limits anticheat.Limits,
	history HistoryRecorder,
	ranking RankingService,
	publisher MonitorPublisher,
	initialDifficulty int,
	log zerolog.Logger,
) *Engine {
	return &Engine{
		store:             store,
		guard:             guard,
		bank:              bank,
		policies:          policies,
		monitor:           monitor,
		limits:            limits,
		history:           history,
		ranking:           ranking,
		publisher:         publisher,
		initialDifficulty: clampDifficulty(initialDifficulty),
		log:               log.With().Str("component", "exam_engine").Logger(),
		now:               time.Now,
		randInt:           rand.IntN,
	}
}

// QuestionResult is the outcome of a next-question call. When Finished is
// set the session has reached a terminal state: Stats carries the final
// record and Question is nil.
type QuestionResult struct {
	Question  *model.QuestionView
	RequestID uuid.UUID
	Snapshot  session.Snapshot
	Finished  bool
	Stats     *model.AttemptRecord
}

// StartResult is the outcome of starting or resuming a session.
type StartResult struct {
	ExamID  uuid.UUID
	Resumed bool
	QuestionResult
}

// AnswerResult is the grading verdict for one submitted answer.
type AnswerResult struct {
	WasCorrect      bool
	CorrectAnswerID uuid.UUID
	Explanation     string
	RequestID       uuid.UUID
	Snapshot        session.Snapshot
	Terminated      bool
}

// AbortResult carries the final statistics of an aborted session. Stats is
// nil for practice sessions, which keep no record.
type AbortResult struct {
	Stats    *model.AttemptRecord
	Snapshot session.Snapshot
}

// ViolationResult reports the aggregate outcome of one integrity event.
type ViolationResult struct {
	Terminated bool
	Count      int
}

// handoff is the post-lock work of a finalized session.
type handoff struct {
	record      model.AttemptRecord
	sendHistory bool
	sendRanking bool
}

// StartOrResume opens a session and serves its first question. When examID
// names a live session of the same user and mode the session is resumed:
// the stored token re-enters the handshake, so the current question is
// re-served without mutation. Otherwise a fresh session is created with a
// seeded token. Either way the call funnels into NextQuestion, keeping one
// code path for delivery.
func (e *Engine) StartOrResume(ctx context.Context, examID uuid.UUID, userID string, mode session.Mode) (StartResult, error) {
	p, ok := e.policies[mode]
	if !ok {
		return StartResult{}, ErrUnknownMode
	}
	if p.RequiresIdentity && userID == "" {
		return StartResult{}, ErrIdentityRequired
	}

	var token uuid.UUID
	resumed := false

	if examID != uuid.Nil {
		e.guard.Do(examID, func() {
			st, ok := e.store.Get(examID)
			if !ok || st.Mode != mode || st.UserID != userID {
				return
			}
			resumed = true
			token = st.NextQuestionRequestID
			if token == uuid.Nil {
				token = st.LastQuestionRequestID
			}
		})
	}

	if !resumed {
		examID = uuid.New()
		token = uuid.New()
		st := session.New(examID, userID, mode, e.initialDifficulty, e.now())
		st.NextQuestionRequestID = token
		e.store.Save(examID, st)
		e.log.Info().
			Str("exam_id", examID.String()).
			Str("mode", string(mode)).
			Msg("Session started")
	}

	qr, err := e.NextQuestion(ctx, examID, token)
	if err != nil {
		return StartResult{}, err
	}
	return StartResult{ExamID: examID, Resumed: resumed, QuestionResult: qr}, nil
}

// NextQuestion advances the handshake and serves a question.
//
// A token equal to the last accepted next-question token is a duplicate:
// the current question is re-served with the outstanding answer token, and
// no state moves. A token equal to the expected one advances: difficulty is
// re-evaluated, a question is selected, and the answer-check token is
// rotated in. Anything else is a protocol violation. On a terminated
// session the call finalizes instead: stats are computed, the entry is
// removed, and collaborators are notified after the lock is released.
func (e *Engine) NextQuestion(ctx context.Context, examID, reqToken uuid.UUID) (QuestionResult, error) {
	var (
		res  QuestionResult
		err  error
		post *handoff
	)

	e.guard.Do(examID, func() {
		st, ok := e.store.Get(examID)
		if !ok {
			err = ErrSessionNotFound
			return
		}
		p := e.policies[st.Mode]

		if st.Terminated() {
			rec := computeFinalStats(st, e.now())
			e.store.Remove(examID)
			post = e.handoffFor(st, p, rec)
			res = QuestionResult{Finished: true, Stats: &rec, Snapshot: st.Snapshot()}
			return
		}

		if reqToken != uuid.Nil && reqToken == st.LastQuestionRequestID {
			q, found := e.bank.ByID(st.LastQuestionID)
			if !found {
				err = ErrDataIntegrity
				return
			}
			tok := st.NextAnswerCheckRequestID
			if tok == uuid.Nil {
				tok = st.LastAnswerCheckRequestID
			}
			view := questionView(q, e.randInt)
			res = QuestionResult{Question: &view, RequestID: tok, Snapshot: st.Snapshot()}
			return
		}

		if st.NextQuestionRequestID == uuid.Nil || reqToken != st.NextQuestionRequestID {
			err = ErrProtocolViolation
			return
		}

		adjustDifficulty(st, p)

		pool := questionsNearLevel(e.bank, st.CurrentDifficulty)
		if len(pool) == 0 {
			err = ErrNoQuestions
			return
		}
		q := chooseQuestion(pool, st, e.randInt)

		// The selector may have fallen back to another level; the session
		// tracks what was actually served.
		st.CurrentDifficulty = q.Difficulty
		st.LastQuestionID = q.ID
		st.TimeOfLastQuestion = e.now()

		st.LastQuestionRequestID = reqToken
		st.NextQuestionRequestID = uuid.Nil
		st.NextAnswerCheckRequestID = uuid.New()

		e.store.Save(examID, st)

		view := questionView(q, e.randInt)
		res = QuestionResult{Question: &view, RequestID: st.NextAnswerCheckRequestID, Snapshot: st.Snapshot()}
	})

	if err != nil {
		return QuestionResult{}, err
	}
	e.dispatch(ctx, post)
	return res, nil
}

// CheckAnswer grades one submitted answer.
//
// A duplicate token re-grades the submission against the current question
// without touching state, so a retried request cannot double-count. A valid
// token grades, moves streaks and points, rotates in the next-question
// token, and then runs the post-checks: the absolute fail limit and the
// long-absence heartbeat check. Terminal flags are only set here, never
// finalized; the next next-question call performs the handoff.
func (e *Engine) CheckAnswer(ctx context.Context, examID, reqToken, answerID uuid.UUID) (AnswerResult, error) {
	var (
		res AnswerResult
		err error
	)

	e.guard.Do(examID, func() {
		st, ok := e.store.Get(examID)
		if !ok {
			err = ErrSessionNotFound
			return
		}
		p := e.policies[st.Mode]

		if st.Terminated() {
			tok := st.NextQuestionRequestID
			if tok == uuid.Nil {
				tok = st.LastQuestionRequestID
			}
			res = AnswerResult{RequestID: tok, Snapshot: st.Snapshot(), Terminated: true}
			return
		}

		if reqToken != uuid.Nil && reqToken == st.LastAnswerCheckRequestID {
			verdict, gerr := e.grade(st, answerID)
			if gerr != nil {
				err = gerr
				return
			}
			tok := st.NextQuestionRequestID
			if tok == uuid.Nil {
				tok = st.LastQuestionRequestID
			}
			verdict.RequestID = tok
			verdict.Snapshot = st.Snapshot()
			res = verdict
			return
		}

		if st.NextAnswerCheckRequestID == uuid.Nil || reqToken != st.NextAnswerCheckRequestID {
			err = ErrProtocolViolation
			return
		}

		verdict, gerr := e.grade(st, answerID)
		if gerr != nil {
			err = gerr
			return
		}
		e.applyVerdict(st, p, verdict.WasCorrect)

		st.LastAnswerCheckRequestID = reqToken
		st.NextAnswerCheckRequestID = uuid.Nil
		st.NextQuestionRequestID = uuid.New()

		if p.MaxFailAnswers > 0 && st.TotalFail >= p.MaxFailAnswers {
			st.TerminatedByFailLimit = true
			e.log.Info().
				Str("exam_id", examID.String()).
				Int("total_fail", st.TotalFail).
				Msg("Fail limit reached, session flagged terminal")
		}
		if p.ViolationsEnforced {
			e.monitor.LongAbsenceCheck(st)
		}

		e.store.Save(examID, st)

		verdict.RequestID = st.NextQuestionRequestID
		verdict.Snapshot = st.Snapshot()
		verdict.Terminated = st.Terminated()
		res = verdict
	})

	if err != nil {
		return AnswerResult{}, err
	}
	return res, nil
}

// Abort finishes the session on the candidate's initiative. Competitive
// sessions are finalized and handed off; practice sessions are simply
// dropped and answered with the last snapshot.
func (e *Engine) Abort(ctx context.Context, examID uuid.UUID) (AbortResult, error) {
	var (
		res  AbortResult
		err  error
		post *handoff
	)

	e.guard.Do(examID, func() {
		st, ok := e.store.Get(examID)
		if !ok {
			err = ErrSessionNotFound
			return
		}
		p := e.policies[st.Mode]

		snap := st.Snapshot()
		e.store.Remove(examID)

		if !p.ScoringEnabled {
			res = AbortResult{Snapshot: snap}
			return
		}

		rec := computeFinalStats(st, e.now())
		post = e.handoffFor(st, p, rec)
		res = AbortResult{Stats: &rec, Snapshot: snap}
	})

	if err != nil {
		return AbortResult{}, err
	}
	e.dispatch(ctx, post)
	return res, nil
}

// ReportViolation records one client-reported integrity event. A missing
// session is not an error here: the client is told the session is simply
// not terminated, because violation reports race with session expiry.
func (e *Engine) ReportViolation(ctx context.Context, examID uuid.UUID, kind anticheat.Kind) (ViolationResult, error) {
	var (
		res   ViolationResult
		found bool
	)

	e.guard.Do(examID, func() {
		st, ok := e.store.Get(examID)
		if !ok {
			return
		}
		found = true
		p := e.policies[st.Mode]

		res.Terminated = anticheat.Record(st, kind, e.limits, p.ViolationsEnforced)
		res.Count = st.ViolationCount(string(kind))
		e.store.Save(examID, st)
	})

	if found && e.publisher != nil {
		e.publisher.PublishViolation(ctx, examID, string(kind), res.Count, res.Terminated)
	}
	return res, nil
}

// Heartbeat processes one liveness beat and rotates the token.
func (e *Engine) Heartbeat(ctx context.Context, examID uuid.UUID, token string) (anticheat.BeatResult, error) {
	var (
		res anticheat.BeatResult
		err error
	)

	e.guard.Do(examID, func() {
		st, ok := e.store.Get(examID)
		if !ok {
			err = ErrSessionNotFound
			return
		}
		p := e.policies[st.Mode]

		res = e.monitor.ProcessBeat(st, token, e.limits, p.ViolationsEnforced)
		e.store.Save(examID, st)
	})

	if err != nil {
		return anticheat.BeatResult{}, err
	}
	if res.Terminated && e.publisher != nil {
		e.publisher.PublishViolation(ctx, examID, string(anticheat.KindHeartbeatMissed), 0, true)
	}
	return res, nil
}

// grade evaluates answerID against the session's current question without
// mutating session state. Any answer ID that is not the question's correct
// option grades as wrong, unknown IDs included.
func (e *Engine) grade(st *session.State, answerID uuid.UUID) (AnswerResult, error) {
	q, found := e.bank.ByID(st.LastQuestionID)
	if !found {
		return AnswerResult{}, ErrDataIntegrity
	}

	var correct *model.Answer
	for i := range q.Answers {
		if q.Answers[i].IsCorrect {
			correct = &q.Answers[i]
			break
		}
	}
	if correct == nil {
		return AnswerResult{}, ErrDataIntegrity
	}

	return AnswerResult{
		WasCorrect:      answerID == correct.ID,
		CorrectAnswerID: correct.ID,
		Explanation:     correct.Explanation,
	}, nil
}

// applyVerdict moves streaks, totals, the exclusion set and base points.
// Points scale with the difficulty of the answered question and never go
// below zero.
func (e *Engine) applyVerdict(st *session.State, p Policy, wasCorrect bool) {
	q, _ := e.bank.ByID(st.LastQuestionID)

	if wasCorrect {
		st.StreakSuccess++
		st.TotalSuccess++
		st.StreakFail = 0
		st.CorrectlyAnswered = append(st.CorrectlyAnswered, st.LastQuestionID)
		if p.ScoringEnabled {
			st.BasePoints += p.PointsPerDifficultyLevel * q.Difficulty
		}
		return
	}

	st.StreakFail++
	st.TotalFail++
	st.StreakSuccess = 0
	if p.ScoringEnabled {
		st.BasePoints -= p.PointsPerDifficultyLevel * q.Difficulty
		if st.BasePoints < 0 {
			st.BasePoints = 0
		}
	}
}

// handoffFor decides which collaborators hear about a finalized session.
// History records every competitive attempt; ranking only sees clean
// finishes, so a terminated cheater cannot place on the leaderboard.
func (e *Engine) handoffFor(st *session.State, p Policy, rec model.AttemptRecord) *handoff {
	if !p.ScoringEnabled {
		return nil
	}
	return &handoff{
		record:      rec,
		sendHistory: true,
		sendRanking: !st.TerminatedByViolations && !st.TerminatedByFailLimit,
	}
}

func (e *Engine) dispatch(ctx context.Context, post *handoff) {
	if post == nil {
		return
	}
	if post.sendHistory && e.history != nil {
		if err := e.history.Enqueue(ctx, post.record); err != nil {
			e.log.Error().Err(err).
				Str("exam_id", post.record.ExamID.String()).
				Msg("Failed to enqueue attempt history")
		}
	}
	if post.sendRanking && e.ranking != nil {
		if err := e.ranking.SubmitScore(ctx, post.record.UserID, post.record.Score); err != nil {
			e.log.Error().Err(err).
				Str("exam_id", post.record.ExamID.String()).
				Msg("Failed to submit ranking score")
		}
	}
}
