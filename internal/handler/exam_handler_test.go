package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/OlegGarbuzov/JavaOffer-public-sub000/internal/anticheat"
	"github.com/OlegGarbuzov/JavaOffer-public-sub000/internal/config"
	"github.com/OlegGarbuzov/JavaOffer-public-sub000/internal/exam"
	"github.com/OlegGarbuzov/JavaOffer-public-sub000/internal/model"
	"github.com/OlegGarbuzov/JavaOffer-public-sub000/internal/response"
	"github.com/OlegGarbuzov/JavaOffer-public-sub000/internal/session"
	"github.com/OlegGarbuzov/JavaOffer-public-sub000/internal/validator"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	validator.Setup()
	os.Exit(m.Run())
}

// stubBank is a minimal in-memory question bank for handler tests.
type stubBank struct {
	byID    map[uuid.UUID]model.Question
	byLevel map[int][]model.Question
}

func newStubBank() *stubBank {
	return &stubBank{
		byID:    make(map[uuid.UUID]model.Question),
		byLevel: make(map[int][]model.Question),
	}
}

func (b *stubBank) put(q model.Question) {
	b.byID[q.ID] = q
	b.byLevel[q.Difficulty] = append(b.byLevel[q.Difficulty], q)
}

func (b *stubBank) addQuestion(level int, withCorrect bool) model.Question {
	q := model.Question{
		ID:         uuid.New(),
		Topic:      "testing",
		Text:       "what does this return?",
		Difficulty: level,
	}
	q.Answers = []model.Answer{
		{ID: uuid.New(), QuestionID: q.ID, Content: "first", IsCorrect: withCorrect, Explanation: "because"},
		{ID: uuid.New(), QuestionID: q.ID, Content: "second"},
	}
	b.put(q)
	return q
}

func (b *stubBank) ByDifficulty(level int) []model.Question { return b.byLevel[level] }

func (b *stubBank) ByID(id uuid.UUID) (model.Question, bool) {
	q, ok := b.byID[id]
	return q, ok
}

func newTestRouter(bank exam.QuestionBank) *gin.Engine {
	log := zerolog.Nop()
	engine := exam.NewEngine(
		session.NewStore(30*time.Minute, 100, log),
		session.NewGuard(16),
		bank,
		exam.DefaultPolicies(config.Load()),
		anticheat.NewMonitor("secret", 5*time.Second, 10*time.Second, 2*time.Second, log),
		anticheat.Limits{MaxTabSwitch: 3, MaxTextCopy: 3, MaxTampering: 2, MaxHeartbeatMissed: 3},
		nil,
		nil,
		nil,
		1,
		log,
	)

	h := NewExamHandler(engine)
	r := gin.New()
	r.POST("/api/v1/exams", h.Start)
	exams := r.Group("/api/v1/exams/:exam_id")
	exams.POST("/questions", h.NextQuestion)
	exams.POST("/answers", h.CheckAnswer)
	exams.POST("/abort", h.Abort)
	return r
}

// envelope mirrors the response package's wire shape for assertions.
type envelope struct {
	Data  map[string]json.RawMessage `json:"data"`
	Error *struct {
		Code   string            `json:"code"`
		Fields map[string]string `json:"fields"`
	} `json:"error"`
	Metadata struct {
		RequestID string `json:"request_id"`
		Timestamp string `json:"timestamp"`
	} `json:"metadata"`
}

func doPost(t *testing.T, r *gin.Engine, path string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v\nbody: %s", err, w.Body.String())
	}
	return w, env
}

func TestStartPracticeEnvelope(t *testing.T) {
	bank := newStubBank()
	bank.addQuestion(1, true)
	r := newTestRouter(bank)

	w, env := doPost(t, r, "/api/v1/exams", gin.H{"mode": "practice"})
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201\nbody: %s", w.Code, w.Body.String())
	}
	if env.Error != nil {
		t.Fatalf("unexpected error body: %+v", env.Error)
	}
	for _, key := range []string{"exam_id", "request_id", "question", "snapshot", "resumed"} {
		if _, ok := env.Data[key]; !ok {
			t.Errorf("data missing %q", key)
		}
	}
	if env.Metadata.RequestID == "" || env.Metadata.Timestamp == "" {
		t.Error("metadata not populated")
	}
}

func TestStartRejectsUnknownMode(t *testing.T) {
	r := newTestRouter(newStubBank())

	w, env := doPost(t, r, "/api/v1/exams", gin.H{"mode": "speedrun"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if env.Error == nil || env.Error.Code != string(response.ErrValidation) {
		t.Fatalf("error = %+v, want %s", env.Error, response.ErrValidation)
	}
	if _, ok := env.Error.Fields["mode"]; !ok {
		t.Error("validation error missing the mode field detail")
	}
}

func TestStartCompetitiveWithoutIdentity(t *testing.T) {
	bank := newStubBank()
	bank.addQuestion(1, true)
	r := newTestRouter(bank)

	w, env := doPost(t, r, "/api/v1/exams", gin.H{"mode": "competitive"})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
	if env.Error == nil || env.Error.Code != string(response.ErrUnauthorized) {
		t.Fatalf("error = %+v, want %s", env.Error, response.ErrUnauthorized)
	}
}

func TestStartWithEmptyBank(t *testing.T) {
	r := newTestRouter(newStubBank())

	w, env := doPost(t, r, "/api/v1/exams", gin.H{"mode": "practice"})
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
	if env.Error == nil || env.Error.Code != string(response.ErrNoQuestions) {
		t.Fatalf("error = %+v, want %s", env.Error, response.ErrNoQuestions)
	}
}

func TestNextQuestionUnknownSession(t *testing.T) {
	bank := newStubBank()
	bank.addQuestion(1, true)
	r := newTestRouter(bank)

	w, env := doPost(t, r, "/api/v1/exams/"+uuid.NewString()+"/questions",
		gin.H{"request_id": uuid.NewString()})
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
	if env.Error == nil || env.Error.Code != string(response.ErrSessionNotFound) {
		t.Fatalf("error = %+v, want %s", env.Error, response.ErrSessionNotFound)
	}
}

func TestNextQuestionStaleToken(t *testing.T) {
	bank := newStubBank()
	bank.addQuestion(1, true)
	bank.addQuestion(1, true)
	r := newTestRouter(bank)

	_, started := doPost(t, r, "/api/v1/exams", gin.H{"mode": "practice"})
	var examID string
	if err := json.Unmarshal(started.Data["exam_id"], &examID); err != nil {
		t.Fatalf("exam_id: %v", err)
	}

	w, env := doPost(t, r, "/api/v1/exams/"+examID+"/questions",
		gin.H{"request_id": uuid.NewString()})
	if w.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", w.Code)
	}
	if env.Error == nil || env.Error.Code != string(response.ErrProtocolViolation) {
		t.Fatalf("error = %+v, want %s", env.Error, response.ErrProtocolViolation)
	}
}

func TestMalformedExamIDParam(t *testing.T) {
	bank := newStubBank()
	bank.addQuestion(1, true)
	r := newTestRouter(bank)

	w, env := doPost(t, r, "/api/v1/exams/not-a-uuid/questions",
		gin.H{"request_id": uuid.NewString()})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if env.Error == nil || env.Error.Code != string(response.ErrInvalidID) {
		t.Fatalf("error = %+v, want %s", env.Error, response.ErrInvalidID)
	}
}

func TestCheckAnswerFlow(t *testing.T) {
	bank := newStubBank()
	bank.addQuestion(1, true)
	bank.addQuestion(1, true)
	r := newTestRouter(bank)

	_, started := doPost(t, r, "/api/v1/exams", gin.H{"mode": "practice"})
	var examID, token string
	if err := json.Unmarshal(started.Data["exam_id"], &examID); err != nil {
		t.Fatalf("exam_id: %v", err)
	}
	if err := json.Unmarshal(started.Data["request_id"], &token); err != nil {
		t.Fatalf("request_id: %v", err)
	}
	var question struct {
		Answers []struct {
			ID string `json:"id"`
		} `json:"answers"`
	}
	if err := json.Unmarshal(started.Data["question"], &question); err != nil {
		t.Fatalf("question: %v", err)
	}

	w, env := doPost(t, r, "/api/v1/exams/"+examID+"/answers",
		gin.H{"request_id": token, "answer_id": question.Answers[0].ID})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200\nbody: %s", w.Code, w.Body.String())
	}
	for _, key := range []string{"was_correct", "correct_answer_id", "explanation", "request_id", "snapshot", "terminated"} {
		if _, ok := env.Data[key]; !ok {
			t.Errorf("data missing %q", key)
		}
	}
	var next string
	if err := json.Unmarshal(env.Data["request_id"], &next); err != nil {
		t.Fatalf("rotated request_id: %v", err)
	}
	if next == token {
		t.Error("answer check must rotate the request token")
	}
}

func TestCheckAnswerCorruptQuestion(t *testing.T) {
	bank := newStubBank()
	bank.addQuestion(1, false) // no correct option
	r := newTestRouter(bank)

	_, started := doPost(t, r, "/api/v1/exams", gin.H{"mode": "practice"})
	var examID, token string
	if err := json.Unmarshal(started.Data["exam_id"], &examID); err != nil {
		t.Fatalf("exam_id: %v", err)
	}
	if err := json.Unmarshal(started.Data["request_id"], &token); err != nil {
		t.Fatalf("request_id: %v", err)
	}

	w, env := doPost(t, r, "/api/v1/exams/"+examID+"/answers",
		gin.H{"request_id": token, "answer_id": uuid.NewString()})
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
	if env.Error == nil || env.Error.Code != string(response.ErrDataIntegrity) {
		t.Fatalf("error = %+v, want %s", env.Error, response.ErrDataIntegrity)
	}
}

func TestFailFromEngineMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   response.ErrCode
	}{
		{"session not found", exam.ErrSessionNotFound, http.StatusNotFound, response.ErrSessionNotFound},
		{"protocol violation", exam.ErrProtocolViolation, http.StatusConflict, response.ErrProtocolViolation},
		{"identity required", exam.ErrIdentityRequired, http.StatusUnauthorized, response.ErrUnauthorized},
		{"no questions", exam.ErrNoQuestions, http.StatusInternalServerError, response.ErrNoQuestions},
		{"data integrity", exam.ErrDataIntegrity, http.StatusInternalServerError, response.ErrDataIntegrity},
		{"unknown mode", exam.ErrUnknownMode, http.StatusBadRequest, response.ErrValidation},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError, response.ErrInternal},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)

			failFromEngine(c, tc.err)

			if w.Code != tc.status {
				t.Errorf("status = %d, want %d", w.Code, tc.status)
			}
			var env envelope
			if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if env.Error == nil || env.Error.Code != string(tc.code) {
				t.Errorf("error = %+v, want code %s", env.Error, tc.code)
			}
		})
	}
}
