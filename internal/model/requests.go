package model

// StartExamRequest opens or resumes an exam session. ExamID is set when a
// candidate wants to pick up an interrupted session.
type StartExamRequest struct {
	Mode   string `json:"mode" binding:"required,oneof=practice competitive"`
	ExamID string `json:"exam_id,omitempty" binding:"omitempty,uuid"`
}

// NextQuestionRequest advances the session handshake.
type NextQuestionRequest struct {
	RequestID string `json:"request_id" binding:"required,uuid"`
}

// CheckAnswerRequest submits one selected answer for grading.
type CheckAnswerRequest struct {
	RequestID string `json:"request_id" binding:"required,uuid"`
	AnswerID  string `json:"answer_id" binding:"required,uuid"`
}

// ViolationRequest reports one client-detected integrity event.
type ViolationRequest struct {
	Kind string `json:"kind" binding:"required"`
}

// HeartbeatRequest is one liveness beat echoing the last issued token.
type HeartbeatRequest struct {
	Token string `json:"token" binding:"required"`
}
