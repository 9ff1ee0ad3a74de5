package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
	"github.com/taleemlabs/taleem-backend/internal/config"
	"github.com/taleemlabs/taleem-backend/internal/llm"
	"github.com/taleemlabs/taleem-backend/internal/middleware"
	"github.com/taleemlabs/taleem-backend/internal/model"
	"github.com/taleemlabs/taleem-backend/internal/repository"
	"github.com/taleemlabs/taleem-backend/internal/response"
	"github.com/taleemlabs/taleem-backend/internal/service"
	"github.com/taleemlabs/taleem-backend/internal/validator"
)

var setupOnce sync.Once

func testSetup() {
	setupOnce.Do(func() {
		gin.SetMode(gin.TestMode)
		validator.Setup()
	})
}

type stubGenerator struct {
	questions []model.Question
	err       error
}

func (g *stubGenerator) GenerateQuestions(context.Context, model.AssessmentSpec) ([]model.Question, error) {
	if g.err != nil {
		return nil, g.err
	}
	return g.questions, nil
}

type stubGrader struct {
	card *model.ReportCard
	err  error
}

func (g *stubGrader) GradeExam(
	context.Context,
	[]model.Question,
	[]model.AnswerRecord,
	model.StudentIdentity,
	model.AssessmentSpec,
) (*model.ReportCard, error) {
	if g.err != nil {
		return nil, g.err
	}
	return g.card, nil
}

type apiFixture struct {
	router  *gin.Engine
	auth    *service.AuthService
	flow    *service.ExamFlowService
	gen     *stubGenerator
	grader  *stubGrader
	history *service.HistoryService
}

// newAPIFixture wires the real middleware chain and handlers over in-memory
// stores and stub collaborators, mirroring the production route layout.
func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	testSetup()

	cfg := &config.Config{JWTSecret: "handler-test-secret", JWTExpiry: time.Hour}
	kv := repository.NewMemoryKV()
	sessions := repository.NewSessionRepository(kv, zerolog.Nop())
	history := service.NewHistoryService(repository.NewHistoryRepository(kv, zerolog.Nop()), zerolog.Nop())
	queue := repository.NewMemoryQueue()

	gen := &stubGenerator{questions: []model.Question{
		{Prompt: "Define current.", Kind: model.QuestionKindShort, ReferenceAnswer: "Flow of charge."},
		{Prompt: "Define voltage.", Kind: model.QuestionKindShort, ReferenceAnswer: "Potential difference."},
	}}
	grader := &stubGrader{card: &model.ReportCard{
		ScoreTotal:        10,
		ScoreObtained:     9,
		NarrativeFeedback: "Excellent work.",
		Breakdown: []model.QuestionResult{
			{Prompt: "Define current.", Correct: true},
			{Prompt: "Define voltage.", Correct: true},
		},
	}}

	authService := service.NewAuthService(cfg, kv)
	flowService := service.NewExamFlowService(sessions, history, gen, grader, queue, zerolog.Nop())
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		flowService.Shutdown(ctx)
	})

	authHandler := NewAuthHandler(authService)
	examHandler := NewExamHandler(flowService, zerolog.Nop())
	historyHandler := NewHistoryHandler(history, nil, zerolog.Nop())

	r := gin.New()
	auth := r.Group("/api/v1/auth")
	{
		auth.POST("/session", authHandler.RegisterSession)
		auth.GET("/me", middleware.RequireStudentJWT(authService), authHandler.Me)
	}
	exam := r.Group("/api/v1/exam")
	exam.Use(middleware.RequireStudentJWT(authService), middleware.CheckActiveSession(authService))
	{
		exam.GET("", examHandler.GetState)
		exam.POST("/start", examHandler.Start)
		exam.POST("/resume", examHandler.Resume)
		exam.POST("/discard", examHandler.Discard)
		exam.PUT("/answers/:index", examHandler.EditAnswer)
		exam.POST("/submit/request", examHandler.RequestSubmit)
		exam.POST("/submit/cancel", examHandler.CancelSubmit)
		exam.POST("/submit/confirm", examHandler.ConfirmSubmit)
		exam.POST("/reset", examHandler.Reset)
		exam.GET("/report", examHandler.GetReport)
	}
	hist := r.Group("/api/v1/history")
	hist.Use(middleware.RequireStudentJWT(authService), middleware.CheckActiveSession(authService))
	{
		hist.GET("", historyHandler.List)
		hist.GET("/stats", historyHandler.Stats)
	}

	return &apiFixture{router: r, auth: authService, flow: flowService, gen: gen, grader: grader, history: history}
}

type envelope struct {
	Data  json.RawMessage     `json:"data"`
	Error *response.ErrorBody `json:"error"`
}

func (fx *apiFixture) do(t *testing.T, method, path, token string, body interface{}) (*httptest.ResponseRecorder, *envelope) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	fx.router.ServeHTTP(w, req)

	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope (%d %s): %v\nbody: %s", w.Code, path, err, w.Body.String())
	}
	return w, &env
}

func (fx *apiFixture) register(t *testing.T, rollNo string) string {
	t.Helper()
	w, env := fx.do(t, http.MethodPost, "/api/v1/auth/session", "", model.RegisterStudentRequest{
		Name:       "Test Student",
		ClassName:  "10th",
		SchoolName: "City School",
		RollNo:     rollNo,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("register = %d: %s", w.Code, w.Body.String())
	}
	var resp model.StudentSessionResponse
	if err := json.Unmarshal(env.Data, &resp); err != nil {
		t.Fatalf("decode session response: %v", err)
	}
	if resp.Token == "" {
		t.Fatal("empty session token")
	}
	return resp.Token
}

func startBody() model.StartExamRequest {
	return model.StartExamRequest{
		Subject:         "Physics",
		Chapter:         "Electricity",
		ExamType:        model.ExamTypeShort,
		Languages:       []model.Language{model.LanguageEnglish},
		DurationMinutes: 10,
	}
}

func TestRegisterSessionValidation(t *testing.T) {
	fx := newAPIFixture(t)

	w, env := fx.do(t, http.MethodPost, "/api/v1/auth/session", "", model.RegisterStudentRequest{
		Name:       "A", // too short
		ClassName:  "10th",
		SchoolName: "City School",
		RollNo:     "not valid!", // not alphanumeric
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if env.Error == nil || env.Error.Code != response.ErrValidation {
		t.Fatalf("error = %+v, want VALIDATION_ERROR", env.Error)
	}
	if _, ok := env.Error.Fields["roll_no"]; !ok {
		t.Errorf("fields = %v, want roll_no flagged", env.Error.Fields)
	}
}

func TestAuthRequired(t *testing.T) {
	fx := newAPIFixture(t)

	w, env := fx.do(t, http.MethodGet, "/api/v1/exam", "", nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
	if env.Error == nil || env.Error.Code != response.ErrTokenInvalid {
		t.Errorf("error = %+v, want TOKEN_INVALID", env.Error)
	}

	w, _ = fx.do(t, http.MethodGet, "/api/v1/exam", "garbage.token.here", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("garbage token status = %d, want 401", w.Code)
	}
}

func TestSupersededSessionRejected(t *testing.T) {
	fx := newAPIFixture(t)

	first := fx.register(t, "dup1")
	second := fx.register(t, "dup1")

	w, env := fx.do(t, http.MethodGet, "/api/v1/exam", first, nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("superseded token status = %d, want 401", w.Code)
	}
	if env.Error == nil || env.Error.Code != response.ErrSessionInvalidated {
		t.Errorf("error = %+v, want SESSION_INVALIDATED", env.Error)
	}

	if w, _ := fx.do(t, http.MethodGet, "/api/v1/exam", second, nil); w.Code != http.StatusOK {
		t.Errorf("active token status = %d, want 200", w.Code)
	}
}

func TestMe(t *testing.T) {
	fx := newAPIFixture(t)
	token := fx.register(t, "me1")

	w, env := fx.do(t, http.MethodGet, "/api/v1/auth/me", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	var data struct {
		Student model.StudentIdentity `json:"student"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if data.Student.RollNo != "me1" {
		t.Errorf("roll_no = %q, want me1", data.Student.RollNo)
	}
}

func TestExamLifecycleOverHTTP(t *testing.T) {
	fx := newAPIFixture(t)
	token := fx.register(t, "life1")

	// Fresh flow starts in Setup.
	w, env := fx.do(t, http.MethodGet, "/api/v1/exam", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("GET exam = %d", w.Code)
	}
	var snap service.FlowSnapshot
	if err := json.Unmarshal(env.Data, &snap); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	if snap.State != model.FlowStateSetup {
		t.Fatalf("state = %s, want SETUP", snap.State)
	}

	// Start the exam.
	w, env = fx.do(t, http.MethodPost, "/api/v1/exam/start", token, startBody())
	if w.Code != http.StatusCreated {
		t.Fatalf("start = %d: %s", w.Code, w.Body.String())
	}
	if err := json.Unmarshal(env.Data, &snap); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	if snap.State != model.FlowStateTaking || len(snap.Session.Questions) != 2 {
		t.Fatalf("start snapshot = %+v", snap)
	}
	if snap.Session.SecondsRemaining <= 0 || snap.Session.SecondsRemaining > 600 {
		t.Errorf("SecondsRemaining = %d", snap.Session.SecondsRemaining)
	}

	// A second start conflicts.
	w, env = fx.do(t, http.MethodPost, "/api/v1/exam/start", token, startBody())
	if w.Code != http.StatusConflict || env.Error.Code != response.ErrExamAlreadyActive {
		t.Fatalf("second start = %d %+v", w.Code, env.Error)
	}

	// Answer the first question.
	w, _ = fx.do(t, http.MethodPut, "/api/v1/exam/answers/0", token, model.UpdateAnswerRequest{Response: "Flow of electric charge"})
	if w.Code != http.StatusOK {
		t.Fatalf("edit answer = %d: %s", w.Code, w.Body.String())
	}

	// Report is not available while still Taking.
	w, env = fx.do(t, http.MethodGet, "/api/v1/exam/report", token, nil)
	if w.Code != http.StatusConflict || env.Error.Code != response.ErrReportNotReady {
		t.Fatalf("early report = %d %+v", w.Code, env.Error)
	}

	// Request, cancel, request again, confirm.
	if w, _ := fx.do(t, http.MethodPost, "/api/v1/exam/submit/request", token, nil); w.Code != http.StatusOK {
		t.Fatalf("submit request = %d", w.Code)
	}
	if w, _ := fx.do(t, http.MethodPost, "/api/v1/exam/submit/cancel", token, nil); w.Code != http.StatusOK {
		t.Fatalf("submit cancel = %d", w.Code)
	}
	w, env = fx.do(t, http.MethodPost, "/api/v1/exam/submit/cancel", token, nil)
	if w.Code != http.StatusConflict || env.Error.Code != response.ErrNoSubmitPending {
		t.Fatalf("double cancel = %d %+v", w.Code, env.Error)
	}
	if w, _ := fx.do(t, http.MethodPost, "/api/v1/exam/submit/request", token, nil); w.Code != http.StatusOK {
		t.Fatalf("submit request = %d", w.Code)
	}
	w, env = fx.do(t, http.MethodPost, "/api/v1/exam/submit/confirm", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("confirm = %d: %s", w.Code, w.Body.String())
	}
	if err := json.Unmarshal(env.Data, &snap); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	if snap.State != model.FlowStateReport || snap.Report == nil {
		t.Fatalf("confirm snapshot = %+v, want graded report", snap)
	}
	if snap.Report.LetterGrade != "A+" {
		t.Errorf("LetterGrade = %q, want A+ for 9/10", snap.Report.LetterGrade)
	}

	// The report endpoint serves it too.
	w, env = fx.do(t, http.MethodGet, "/api/v1/exam/report", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get report = %d", w.Code)
	}

	// The graded exam landed in the history ledger.
	w, env = fx.do(t, http.MethodGet, "/api/v1/history", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("history = %d", w.Code)
	}
	var ledger struct {
		Reports []model.GradedReport `json:"reports"`
	}
	if err := json.Unmarshal(env.Data, &ledger); err != nil {
		t.Fatalf("decode ledger: %v", err)
	}
	if len(ledger.Reports) != 1 {
		t.Fatalf("ledger = %d reports, want 1", len(ledger.Reports))
	}

	// Reset returns to Setup; the ledger is untouched.
	if w, _ := fx.do(t, http.MethodPost, "/api/v1/exam/reset", token, nil); w.Code != http.StatusOK {
		t.Fatalf("reset = %d", w.Code)
	}
	w, env = fx.do(t, http.MethodGet, "/api/v1/exam", token, nil)
	if err := json.Unmarshal(env.Data, &snap); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	if snap.State != model.FlowStateSetup {
		t.Errorf("state after reset = %s, want SETUP", snap.State)
	}

	w, env = fx.do(t, http.MethodGet, "/api/v1/history/stats", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("stats = %d", w.Code)
	}
	var stats model.HistoryStats
	if err := json.Unmarshal(env.Data, &stats); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if stats.TotalExams != 1 || stats.WeakestSubject != "Physics" {
		t.Errorf("stats = %+v", stats)
	}
}

func TestStartValidation(t *testing.T) {
	fx := newAPIFixture(t)
	token := fx.register(t, "val1")

	body := startBody()
	body.DurationMinutes = 7 // off the menu

	w, env := fx.do(t, http.MethodPost, "/api/v1/exam/start", token, body)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if env.Error == nil || env.Error.Code != response.ErrValidation {
		t.Errorf("error = %+v, want VALIDATION_ERROR", env.Error)
	}
}

func TestStartGenerationErrors(t *testing.T) {
	t.Run("collaborator unreachable", func(t *testing.T) {
		fx := newAPIFixture(t)
		token := fx.register(t, "gen1")
		fx.gen.err = errors.New("connection refused")

		w, env := fx.do(t, http.MethodPost, "/api/v1/exam/start", token, startBody())
		if w.Code != http.StatusBadGateway || env.Error.Code != response.ErrGenerationFailed {
			t.Fatalf("got %d %+v, want 502 GENERATION_FAILED", w.Code, env.Error)
		}
	})

	t.Run("empty paper", func(t *testing.T) {
		fx := newAPIFixture(t)
		token := fx.register(t, "gen2")
		fx.gen.err = llm.ErrNoQuestions

		w, env := fx.do(t, http.MethodPost, "/api/v1/exam/start", token, startBody())
		if w.Code != http.StatusBadGateway || env.Error.Code != response.ErrNoQuestions {
			t.Fatalf("got %d %+v, want 502 NO_QUESTIONS_GENERATED", w.Code, env.Error)
		}
	})
}

func TestEditAnswerErrors(t *testing.T) {
	fx := newAPIFixture(t)
	token := fx.register(t, "edit1")

	// No exam running yet.
	w, env := fx.do(t, http.MethodPut, "/api/v1/exam/answers/0", token, model.UpdateAnswerRequest{Response: "x"})
	if w.Code != http.StatusConflict || env.Error.Code != response.ErrExamNotActive {
		t.Fatalf("edit in Setup = %d %+v", w.Code, env.Error)
	}

	if w, _ := fx.do(t, http.MethodPost, "/api/v1/exam/start", token, startBody()); w.Code != http.StatusCreated {
		t.Fatalf("start = %d", w.Code)
	}

	w, env = fx.do(t, http.MethodPut, "/api/v1/exam/answers/abc", token, model.UpdateAnswerRequest{Response: "x"})
	if w.Code != http.StatusBadRequest || env.Error.Code != response.ErrInvalidIndex {
		t.Errorf("non-numeric index = %d %+v", w.Code, env.Error)
	}

	w, env = fx.do(t, http.MethodPut, "/api/v1/exam/answers/99", token, model.UpdateAnswerRequest{Response: "x"})
	if w.Code != http.StatusBadRequest || env.Error.Code != response.ErrInvalidIndex {
		t.Errorf("out-of-range index = %d %+v", w.Code, env.Error)
	}
}

func TestResumeAndDiscardOverHTTP(t *testing.T) {
	fx := newAPIFixture(t)
	token := fx.register(t, "res1")

	w, env := fx.do(t, http.MethodPost, "/api/v1/exam/resume", token, nil)
	if w.Code != http.StatusNotFound || env.Error.Code != response.ErrNoResumable {
		t.Fatalf("resume with nothing = %d %+v", w.Code, env.Error)
	}
	w, env = fx.do(t, http.MethodPost, "/api/v1/exam/discard", token, nil)
	if w.Code != http.StatusNotFound || env.Error.Code != response.ErrNoResumable {
		t.Fatalf("discard with nothing = %d %+v", w.Code, env.Error)
	}
}

func TestGradingFailureOverHTTP(t *testing.T) {
	fx := newAPIFixture(t)
	token := fx.register(t, "gf1")
	fx.grader.err = errors.New("model timeout")

	if w, _ := fx.do(t, http.MethodPost, "/api/v1/exam/start", token, startBody()); w.Code != http.StatusCreated {
		t.Fatalf("start failed")
	}
	if w, _ := fx.do(t, http.MethodPost, "/api/v1/exam/submit/request", token, nil); w.Code != http.StatusOK {
		t.Fatalf("submit request failed")
	}

	w, env := fx.do(t, http.MethodPost, "/api/v1/exam/submit/confirm", token, nil)
	if w.Code != http.StatusBadGateway || env.Error.Code != response.ErrGradingFailed {
		t.Fatalf("confirm = %d %+v, want 502 GRADING_FAILED", w.Code, env.Error)
	}

	// The flow landed in Report with the failure flagged; reset recovers.
	w, env = fx.do(t, http.MethodGet, "/api/v1/exam", token, nil)
	var snap service.FlowSnapshot
	if err := json.Unmarshal(env.Data, &snap); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	if snap.State != model.FlowStateReport || !snap.GradingFailed {
		t.Fatalf("snapshot = %+v, want Report with grading_failed", snap)
	}
	if w, _ := fx.do(t, http.MethodPost, "/api/v1/exam/reset", token, nil); w.Code != http.StatusOK {
		t.Errorf("reset after failure = %d", w.Code)
	}
}

// ─── Collaborator wrapper endpoints ─────────────────────────────────

func newChatRouter(t *testing.T, content string) *gin.Engine {
	t.Helper()
	testSetup()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req openai.ChatCompletionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		if req.Stream {
			w.Header().Set("Content-Type", "text/event-stream")
			raw, _ := json.Marshal(content)
			w.Write([]byte("data: {\"choices\":[{\"delta\":{\"content\":" + string(raw) + "}}]}\n\n"))
			w.Write([]byte("data: [DONE]\n\n"))
			return
		}

		resp := openai.ChatCompletionResponse{
			Choices: []openai.ChatCompletionChoice{
				{Message: openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: content}},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)

	client := llm.New(&config.Config{LLMBaseURL: srv.URL + "/v1", LLMAPIKey: "k", LLMModel: "m", QuestionCount: 5})
	chatHandler := NewChatHandler(client, zerolog.Nop())

	r := gin.New()
	r.POST("/chat", chatHandler.Chat)
	r.POST("/translate", chatHandler.Translate)
	return r
}

func TestChatStreamsSSE(t *testing.T) {
	r := newChatRouter(t, "Gravity pulls objects together.")

	body, _ := json.Marshal(ChatRequest{Messages: []llm.ChatMessage{{Role: "user", Content: "What is gravity?"}}})
	req := httptest.NewRequest(http.MethodPost, "/chat", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	out := w.Body.String()
	if !strings.Contains(out, "event:delta") {
		t.Errorf("no delta event in stream:\n%s", out)
	}
	if !strings.Contains(out, "Gravity pulls objects together.") {
		t.Errorf("reply text missing from stream:\n%s", out)
	}
	if !strings.Contains(out, "event:done") {
		t.Errorf("stream not terminated with done event:\n%s", out)
	}
}

func TestChatValidation(t *testing.T) {
	r := newChatRouter(t, "unused")

	body, _ := json.Marshal(ChatRequest{Messages: []llm.ChatMessage{{Role: "system", Content: "x"}}})
	req := httptest.NewRequest(http.MethodPost, "/chat", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("system role accepted: %d", w.Code)
	}
}

func TestTranslateOverHTTP(t *testing.T) {
	r := newChatRouter(t, "پانی")

	body, _ := json.Marshal(TranslateRequest{Text: "water", TargetLanguage: model.LanguageUrdu})
	req := httptest.NewRequest(http.MethodPost, "/translate", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	var data struct {
		Translation string `json:"translation"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if data.Translation != "پانی" {
		t.Errorf("translation = %q", data.Translation)
	}

	// Unsupported target language fails validation.
	body, _ = json.Marshal(TranslateRequest{Text: "water", TargetLanguage: "French"})
	req = httptest.NewRequest(http.MethodPost, "/translate", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("unsupported language accepted: %d", w.Code)
	}
}
