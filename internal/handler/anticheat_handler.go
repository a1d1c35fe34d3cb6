package handler

import (
	"net/http"

	"github.com/OlegGarbuzov/JavaOffer-public-sub000/internal/anticheat"
	"github.com/OlegGarbuzov/JavaOffer-public-sub000/internal/exam"
	"github.com/OlegGarbuzov/JavaOffer-public-sub000/internal/model"
	"github.com/OlegGarbuzov/JavaOffer-public-sub000/internal/response"
	"github.com/OlegGarbuzov/JavaOffer-public-sub000/internal/validator"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AntiCheatHandler handles integrity event reports and liveness beats.
type AntiCheatHandler struct {
	engine *exam.Engine
}

// NewAntiCheatHandler creates a new AntiCheatHandler.
func NewAntiCheatHandler(engine *exam.Engine) *AntiCheatHandler {
	return &AntiCheatHandler{engine: engine}
}

// ReportViolation godoc
// POST /api/v1/exams/:exam_id/violations
// Records one client-detected integrity event. A stale exam ID is not an
// error: the response just reports the session as not terminated, because
// reports race with session expiry on the client side.
func (h *AntiCheatHandler) ReportViolation(c *gin.Context) {
	examID, err := uuid.Parse(c.Param("exam_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.ViolationRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	kind, ok := anticheat.ParseKind(req.Kind)
	if !ok {
		response.Fail(c, http.StatusBadRequest, response.ErrUnknownEventKind)
		return
	}

	res, err := h.engine.ReportViolation(c.Request.Context(), examID, kind)
	if err != nil {
		failFromEngine(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"terminated": res.Terminated,
		"count":      res.Count,
	})
}

// Heartbeat godoc
// POST /api/v1/exams/:exam_id/heartbeat
// Processes one liveness beat and issues the next token with its challenge.
func (h *AntiCheatHandler) Heartbeat(c *gin.Context) {
	examID, err := uuid.Parse(c.Param("exam_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.HeartbeatRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	res, err := h.engine.Heartbeat(c.Request.Context(), examID, req.Token)
	if err != nil {
		failFromEngine(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"token":      res.NextToken,
		"terminated": res.Terminated,
		"challenge":  res.Challenge,
	})
}
