package handler

import (
	"errors"
	"net/http"

	"github.com/OlegGarbuzov/JavaOffer-public-sub000/internal/exam"
	"github.com/OlegGarbuzov/JavaOffer-public-sub000/internal/middleware"
	"github.com/OlegGarbuzov/JavaOffer-public-sub000/internal/model"
	"github.com/OlegGarbuzov/JavaOffer-public-sub000/internal/response"
	"github.com/OlegGarbuzov/JavaOffer-public-sub000/internal/session"
	"github.com/OlegGarbuzov/JavaOffer-public-sub000/internal/validator"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ExamHandler handles the exam session protocol endpoints.
type ExamHandler struct {
	engine *exam.Engine
}

// NewExamHandler creates a new ExamHandler.
func NewExamHandler(engine *exam.Engine) *ExamHandler {
	return &ExamHandler{engine: engine}
}

// Start godoc
// POST /api/v1/exams
// Opens a session (or resumes one when exam_id is supplied) and serves the
// first question. Competitive mode requires a JWT; practice admits
// anonymous candidates.
func (h *ExamHandler) Start(c *gin.Context) {
	var req model.StartExamRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	mode, ok := session.ParseMode(req.Mode)
	if !ok {
		response.Fail(c, http.StatusBadRequest, response.ErrValidation)
		return
	}

	examID := uuid.Nil
	if req.ExamID != "" {
		id, err := uuid.Parse(req.ExamID)
		if err != nil {
			response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
			return
		}
		examID = id
	}

	userID := ""
	if claims := middleware.GetClaims(c); claims != nil {
		userID = claims.UserID
	}

	res, err := h.engine.StartOrResume(c.Request.Context(), examID, userID, mode)
	if err != nil {
		failFromEngine(c, err)
		return
	}

	if res.Finished {
		response.Success(c, http.StatusOK, gin.H{
			"exam_id":  res.ExamID,
			"resumed":  res.Resumed,
			"finished": true,
			"stats":    res.Stats,
			"snapshot": res.Snapshot,
		})
		return
	}

	response.Success(c, http.StatusCreated, gin.H{
		"exam_id":    res.ExamID,
		"resumed":    res.Resumed,
		"question":   res.Question,
		"request_id": res.RequestID,
		"snapshot":   res.Snapshot,
	})
}

// NextQuestion godoc
// POST /api/v1/exams/:exam_id/questions
// Advances the handshake and serves the next question. A duplicate token
// re-serves the current question; a terminated session answers with the
// final statistics instead.
func (h *ExamHandler) NextQuestion(c *gin.Context) {
	examID, err := uuid.Parse(c.Param("exam_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.NextQuestionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	reqToken, err := uuid.Parse(req.RequestID)
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	res, err := h.engine.NextQuestion(c.Request.Context(), examID, reqToken)
	if err != nil {
		failFromEngine(c, err)
		return
	}

	if res.Finished {
		response.Success(c, http.StatusOK, gin.H{
			"finished": true,
			"stats":    res.Stats,
			"snapshot": res.Snapshot,
		})
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"question":   res.Question,
		"request_id": res.RequestID,
		"snapshot":   res.Snapshot,
	})
}

// CheckAnswer godoc
// POST /api/v1/exams/:exam_id/answers
// Grades a submitted answer and rotates in the next-question token.
func (h *ExamHandler) CheckAnswer(c *gin.Context) {
	examID, err := uuid.Parse(c.Param("exam_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.CheckAnswerRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	reqToken, err := uuid.Parse(req.RequestID)
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}
	answerID, err := uuid.Parse(req.AnswerID)
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	res, err := h.engine.CheckAnswer(c.Request.Context(), examID, reqToken, answerID)
	if err != nil {
		failFromEngine(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"was_correct":       res.WasCorrect,
		"correct_answer_id": res.CorrectAnswerID,
		"explanation":       res.Explanation,
		"request_id":        res.RequestID,
		"snapshot":          res.Snapshot,
		"terminated":        res.Terminated,
	})
}

// Abort godoc
// POST /api/v1/exams/:exam_id/abort
// Finishes the session on the candidate's initiative and returns the final
// statistics. Practice sessions return only the last snapshot.
func (h *ExamHandler) Abort(c *gin.Context) {
	examID, err := uuid.Parse(c.Param("exam_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	res, err := h.engine.Abort(c.Request.Context(), examID)
	if err != nil {
		failFromEngine(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"stats":    res.Stats,
		"snapshot": res.Snapshot,
	})
}

// failFromEngine maps engine errors onto HTTP status codes and error codes.
func failFromEngine(c *gin.Context, err error) {
	switch {
	case errors.Is(err, exam.ErrSessionNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrSessionNotFound)
	case errors.Is(err, exam.ErrProtocolViolation):
		response.Fail(c, http.StatusConflict, response.ErrProtocolViolation)
	case errors.Is(err, exam.ErrIdentityRequired):
		response.Fail(c, http.StatusUnauthorized, response.ErrUnauthorized)
	case errors.Is(err, exam.ErrNoQuestions):
		response.Fail(c, http.StatusInternalServerError, response.ErrNoQuestions)
	case errors.Is(err, exam.ErrDataIntegrity):
		response.Fail(c, http.StatusInternalServerError, response.ErrDataIntegrity)
	case errors.Is(err, exam.ErrUnknownMode):
		response.Fail(c, http.StatusBadRequest, response.ErrValidation)
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}
