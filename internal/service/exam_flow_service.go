package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/taleemlabs/taleem-backend/internal/config"
	"github.com/taleemlabs/taleem-backend/internal/llm"
	"github.com/taleemlabs/taleem-backend/internal/model"
	"github.com/taleemlabs/taleem-backend/internal/repository"
)

// Exam flow errors. Handlers map these to typed error codes.
var (
	ErrExamNotActive          = errors.New("no exam in progress")
	ErrExamAlreadyActive      = errors.New("an exam is already in progress")
	ErrResumableSessionExists = errors.New("an unfinished exam session exists")
	ErrNoResumableSession     = errors.New("no unfinished exam session")
	ErrReportNotReady         = errors.New("no graded report available")
	ErrGenerationFailed       = errors.New("generation failed")
	ErrGradingFailed          = errors.New("grading failed")
	ErrAnswerIndexOutOfRange  = errors.New("answer index out of range")
	ErrNoSubmitPending        = errors.New("no submission confirmation pending")
)

// QuestionGenerator is the exam-paper side of the generative collaborator.
type QuestionGenerator interface {
	GenerateQuestions(ctx context.Context, spec model.AssessmentSpec) ([]model.Question, error)
}

// ExamGrader is the grading side of the generative collaborator.
type ExamGrader interface {
	GradeExam(
		ctx context.Context,
		questions []model.Question,
		answers []model.AnswerRecord,
		student model.StudentIdentity,
		spec model.AssessmentSpec,
	) (*model.ReportCard, error)
}

// FlowSnapshot is the caller-facing view of a flow, shaped by its state:
// Setup carries the resumable summary if one exists, Taking the live
// session and confirmation flag, Report the grading status and report.
type FlowSnapshot struct {
	State          model.FlowState         `json:"state"`
	Resumable      *model.ResumableSummary `json:"resumable,omitempty"`
	Session        *model.ExamSession      `json:"session,omitempty"`
	ConfirmPending bool                    `json:"confirm_pending,omitempty"`
	Grading        bool                    `json:"grading,omitempty"`
	Report         *model.GradedReport     `json:"report,omitempty"`
	GradingFailed  bool                    `json:"grading_failed,omitempty"`
}

// examFlow holds the in-memory state machine for one roll number. Its
// mutex serializes every operation for that student; the per-second ticker
// and HTTP/WS handlers all contend on it.
type examFlow struct {
	mu     sync.Mutex
	rollNo string

	state   model.FlowState
	session *model.ExamSession // live answer buffer while Taking

	confirmPending bool
	tickerStop     chan struct{} // non-nil while a ticker goroutine runs

	grading       bool
	report        *model.GradedReport
	gradingFailed bool

	// epoch counts transitions. A grading result is applied only if the
	// flow is still in the same generation it was submitted from, so a
	// result arriving after reset is dropped instead of resurrecting a
	// stale report.
	epoch uint64
}

// ExamFlowService owns the Setup → Taking → Report state machine for every
// student, the countdown tickers, and crash-recovery persistence.
type ExamFlowService struct {
	sessionRepo *repository.SessionRepository
	history     *HistoryService
	generator   QuestionGenerator
	grader      ExamGrader
	queue       repository.Queue
	log         zerolog.Logger

	tickInterval time.Duration
	now          func() time.Time

	mu    sync.Mutex
	flows map[string]*examFlow

	// gradings tracks in-flight background (auto-submit) grading calls so
	// shutdown can drain them.
	gradings sync.WaitGroup
}

// NewExamFlowService creates a new ExamFlowService. The ticker fires once
// per wall-clock second.
func NewExamFlowService(
	sessionRepo *repository.SessionRepository,
	history *HistoryService,
	generator QuestionGenerator,
	grader ExamGrader,
	queue repository.Queue,
	log zerolog.Logger,
) *ExamFlowService {
	return &ExamFlowService{
		sessionRepo:  sessionRepo,
		history:      history,
		generator:    generator,
		grader:       grader,
		queue:        queue,
		log:          log.With().Str("component", "exam_flow").Logger(),
		tickInterval: time.Second,
		now:          time.Now,
		flows:        make(map[string]*examFlow),
	}
}

func (s *ExamFlowService) getFlow(rollNo string) *examFlow {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.flows[rollNo]
	if !ok {
		f = &examFlow{rollNo: rollNo, state: model.FlowStateSetup}
		s.flows[rollNo] = f
	}
	return f
}

// State returns the current snapshot for a roll number. In Setup it also
// looks up any persisted session and offers it as resumable; the caller
// must explicitly resume or discard it.
func (s *ExamFlowService) State(ctx context.Context, rollNo string) (*FlowSnapshot, error) {
	f := s.getFlow(rollNo)
	f.mu.Lock()
	defer f.mu.Unlock()

	snap := &FlowSnapshot{State: f.state}
	switch f.state {
	case model.FlowStateSetup:
		persisted, err := s.sessionRepo.Load(ctx, rollNo)
		if err != nil && !errors.Is(err, repository.ErrNoSession) {
			// Fail open: a broken store must not block the student.
			s.log.Error().Err(err).Str("roll_no", rollNo).Msg("Resumable lookup failed")
		}
		if persisted != nil {
			snap.Resumable = persisted.Summary()
		}
	case model.FlowStateTaking:
		snap.Session = f.session.Clone()
		snap.ConfirmPending = f.confirmPending
	case model.FlowStateReport:
		snap.Grading = f.grading
		snap.Report = f.report
		snap.GradingFailed = f.gradingFailed
	}
	return snap, nil
}

// Start performs the Setup → Taking transition: generates the paper,
// builds the session with a full clock and blank answers, persists it, and
// starts the countdown. On any generation failure the flow stays in Setup
// and nothing is persisted.
func (s *ExamFlowService) Start(ctx context.Context, student model.StudentIdentity, spec model.AssessmentSpec) (*FlowSnapshot, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	f := s.getFlow(student.RollNo)

	f.mu.Lock()
	if f.state != model.FlowStateSetup {
		f.mu.Unlock()
		return nil, ErrExamAlreadyActive
	}
	startEpoch := f.epoch
	f.mu.Unlock()

	// A persisted session must be resolved (resumed or discarded) before a
	// new exam may begin; starting silently over it would orphan answers.
	if _, err := s.sessionRepo.Load(ctx, student.RollNo); err == nil {
		return nil, ErrResumableSessionExists
	} else if !errors.Is(err, repository.ErrNoSession) {
		s.log.Error().Err(err).Str("roll_no", student.RollNo).Msg("Pre-start session lookup failed")
	}

	// Generation runs outside the flow lock so the student stays responsive.
	questions, err := s.generator.GenerateQuestions(ctx, spec)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrGenerationFailed, err)
	}

	session := &model.ExamSession{
		Questions:        questions,
		Answers:          model.EmptyAnswers(questions),
		SecondsRemaining: spec.DurationMinutes * 60,
		Student:          student,
		Spec:             spec,
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != model.FlowStateSetup || f.epoch != startEpoch {
		return nil, ErrExamAlreadyActive
	}

	f.session = session
	f.state = model.FlowStateTaking
	f.confirmPending = false
	f.epoch++
	s.persistLocked(f)
	s.startTickerLocked(f)

	s.log.Info().
		Str("roll_no", student.RollNo).
		Str("subject", spec.Subject).
		Int("questions", len(questions)).
		Int("duration_minutes", spec.DurationMinutes).
		Msg("Exam started")

	return &FlowSnapshot{State: f.state, Session: f.session.Clone()}, nil
}

// Resume re-enters Taking with the exact persisted questions, answers and
// remaining time. Only valid from Setup with a persisted session present.
func (s *ExamFlowService) Resume(ctx context.Context, rollNo string) (*FlowSnapshot, error) {
	f := s.getFlow(rollNo)
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state != model.FlowStateSetup {
		return nil, ErrExamAlreadyActive
	}

	session, err := s.sessionRepo.Load(ctx, rollNo)
	if err != nil {
		if errors.Is(err, repository.ErrNoSession) {
			return nil, ErrNoResumableSession
		}
		return nil, fmt.Errorf("load session: %w", err)
	}

	f.session = session
	f.state = model.FlowStateTaking
	f.confirmPending = false
	f.epoch++
	s.startTickerLocked(f)

	s.log.Info().
		Str("roll_no", rollNo).
		Int("seconds_remaining", session.SecondsRemaining).
		Int("answered", session.AnsweredCount()).
		Msg("Exam resumed")

	return &FlowSnapshot{State: f.state, Session: f.session.Clone()}, nil
}

// Discard deletes the persisted session without resuming it — the explicit
// "start new" choice of the resume prompt. Only valid from Setup.
func (s *ExamFlowService) Discard(ctx context.Context, rollNo string) error {
	f := s.getFlow(rollNo)
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state != model.FlowStateSetup {
		return ErrExamAlreadyActive
	}

	if _, err := s.sessionRepo.Load(ctx, rollNo); err != nil {
		if errors.Is(err, repository.ErrNoSession) {
			return ErrNoResumableSession
		}
		return fmt.Errorf("load session: %w", err)
	}
	if err := s.sessionRepo.Delete(ctx, rollNo); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}

	s.log.Info().Str("roll_no", rollNo).Msg("Persisted exam session discarded")
	return nil
}

// EditAnswer replaces the response at one index in the live answer buffer
// and re-persists the session. Question order and count never change.
func (s *ExamFlowService) EditAnswer(_ context.Context, rollNo string, index int, responseText string) error {
	f := s.getFlow(rollNo)
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state != model.FlowStateTaking {
		return ErrExamNotActive
	}
	if index < 0 || index >= len(f.session.Answers) {
		return ErrAnswerIndexOutOfRange
	}

	f.session.Answers[index].Response = responseText
	s.persistLocked(f)
	return nil
}

// RequestSubmit opens the manual submission confirmation: the countdown
// halts immediately and stays halted until the caller confirms or cancels.
func (s *ExamFlowService) RequestSubmit(rollNo string) error {
	f := s.getFlow(rollNo)
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state != model.FlowStateTaking {
		return ErrExamNotActive
	}
	f.confirmPending = true
	s.stopTickerLocked(f)
	return nil
}

// CancelSubmit closes the confirmation and resumes the countdown from
// where it left off. No time is refunded for the pause.
func (s *ExamFlowService) CancelSubmit(rollNo string) error {
	f := s.getFlow(rollNo)
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state != model.FlowStateTaking {
		return ErrExamNotActive
	}
	if !f.confirmPending {
		return ErrNoSubmitPending
	}
	f.confirmPending = false
	s.startTickerLocked(f)
	return nil
}

// ConfirmSubmit performs the manual Taking → Report transition and grades
// synchronously in the caller's goroutine. A second confirm (double click)
// finds the flow already out of Taking and fails without a second grading
// call.
func (s *ExamFlowService) ConfirmSubmit(ctx context.Context, rollNo string) (*FlowSnapshot, error) {
	f := s.getFlow(rollNo)

	f.mu.Lock()
	sub, ok := s.beginSubmissionLocked(f)
	f.mu.Unlock()
	if !ok {
		return nil, ErrExamNotActive
	}

	s.grade(ctx, f, sub)

	f.mu.Lock()
	defer f.mu.Unlock()
	snap := &FlowSnapshot{
		State:         f.state,
		Grading:       f.grading,
		Report:        f.report,
		GradingFailed: f.gradingFailed,
	}
	if f.gradingFailed {
		return snap, ErrGradingFailed
	}
	return snap, nil
}

// Reset performs the Report → Setup transition: clears the report or
// grading error and defensively deletes any persisted session. The history
// ledger is never touched.
func (s *ExamFlowService) Reset(ctx context.Context, rollNo string) error {
	f := s.getFlow(rollNo)
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state != model.FlowStateReport {
		return ErrExamNotActive
	}

	f.state = model.FlowStateSetup
	f.session = nil
	f.report = nil
	f.grading = false
	f.gradingFailed = false
	f.confirmPending = false
	f.epoch++

	if err := s.sessionRepo.Delete(ctx, rollNo); err != nil {
		s.log.Error().Err(err).Str("roll_no", rollNo).Msg("Defensive session delete failed")
	}

	s.log.Info().Str("roll_no", rollNo).Msg("Exam flow reset")
	return nil
}

// Report returns the graded report once grading has finished.
func (s *ExamFlowService) Report(rollNo string) (*model.GradedReport, error) {
	f := s.getFlow(rollNo)
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state != model.FlowStateReport || f.grading {
		return nil, ErrReportNotReady
	}
	if f.report == nil {
		return nil, ErrGradingFailed
	}
	return f.report, nil
}

// Shutdown stops all countdown tickers and waits for in-flight background
// gradings to finish, up to the context deadline.
func (s *ExamFlowService) Shutdown(ctx context.Context) {
	s.mu.Lock()
	for _, f := range s.flows {
		f.mu.Lock()
		s.stopTickerLocked(f)
		f.mu.Unlock()
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.gradings.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		s.log.Warn().Msg("Shutdown deadline reached with gradings still in flight")
	}
}

// ─── Countdown ──────────────────────────────────────────────────────

// startTickerLocked launches the per-second countdown goroutine. It always
// stops any prior handle first so exactly one ticker runs per flow; a
// dangling duplicate would drain the clock at double speed.
func (s *ExamFlowService) startTickerLocked(f *examFlow) {
	s.stopTickerLocked(f)
	stop := make(chan struct{})
	f.tickerStop = stop

	go func() {
		ticker := time.NewTicker(s.tickInterval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				s.tick(f)
			}
		}
	}()
}

func (s *ExamFlowService) stopTickerLocked(f *examFlow) {
	if f.tickerStop != nil {
		close(f.tickerStop)
		f.tickerStop = nil
	}
}

// tick runs once per wall-clock second while Taking: decrement, re-persist,
// and auto-submit when the clock reaches zero. A tick that loses the race
// against a manual submission finds the flow out of Taking and does nothing.
func (s *ExamFlowService) tick(f *examFlow) {
	f.mu.Lock()

	if f.state != model.FlowStateTaking || f.confirmPending {
		f.mu.Unlock()
		return
	}

	if f.session.SecondsRemaining > 0 {
		f.session.SecondsRemaining--
	}
	s.persistLocked(f)

	if f.session.SecondsRemaining > 0 {
		f.mu.Unlock()
		return
	}

	// Time is up: the transition fires exactly once because it flips the
	// state out of Taking under the same lock.
	sub, ok := s.beginSubmissionLocked(f)
	f.mu.Unlock()
	if !ok {
		return
	}

	s.log.Info().Str("roll_no", f.rollNo).Msg("Exam time expired, auto-submitting")

	s.gradings.Add(1)
	go func() {
		defer s.gradings.Done()
		s.grade(context.Background(), f, sub)
	}()
}

// persistLocked snapshots the full session to the durable store, last
// write wins. Persistence failures are logged and ignored; a broken store
// must never interrupt the exam.
func (s *ExamFlowService) persistLocked(f *examFlow) {
	if err := s.sessionRepo.Save(context.Background(), f.session); err != nil {
		s.log.Error().Err(err).Str("roll_no", f.rollNo).Msg("Session persist failed")
	}
}

// ─── Submission ─────────────────────────────────────────────────────

// submission carries everything grading needs, captured from the live
// buffer at transition time — never a snapshot taken at session start.
type submission struct {
	questions []model.Question
	answers   []model.AnswerRecord
	student   model.StudentIdentity
	spec      model.AssessmentSpec
	epoch     uint64
}

// beginSubmissionLocked is the single transition function both submission
// paths (manual confirm and timeout) converge on. It requires Taking,
// halts the countdown, deletes the persisted session, and enters Report in
// a loading state. Returns false if the flow is not in Taking, which makes
// double submits and tick/manual races act exactly once.
func (s *ExamFlowService) beginSubmissionLocked(f *examFlow) (*submission, bool) {
	if f.state != model.FlowStateTaking {
		return nil, false
	}

	s.stopTickerLocked(f)
	f.confirmPending = false

	live := f.session.Clone()

	if err := s.sessionRepo.Delete(context.Background(), f.rollNo); err != nil {
		s.log.Error().Err(err).Str("roll_no", f.rollNo).Msg("Session delete on submit failed")
	}

	f.state = model.FlowStateReport
	f.grading = true
	f.report = nil
	f.gradingFailed = false
	f.session = nil
	f.epoch++

	return &submission{
		questions: live.Questions,
		answers:   live.Answers,
		student:   live.Student,
		spec:      live.Spec,
		epoch:     f.epoch,
	}, true
}

// grade calls the grading collaborator and applies the outcome, unless the
// flow has since moved on to a different generation.
func (s *ExamFlowService) grade(ctx context.Context, f *examFlow, sub *submission) {
	card, err := s.grader.GradeExam(ctx, sub.questions, sub.answers, sub.student, sub.spec)

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.epoch != sub.epoch {
		s.log.Warn().Str("roll_no", f.rollNo).Msg("Discarding stale grading result")
		return
	}

	f.grading = false

	if err != nil {
		f.gradingFailed = true
		s.log.Error().Err(err).Str("roll_no", f.rollNo).Msg("Grading failed")
		return
	}

	report := model.NewGradedReport(card, sub.student, sub.spec, s.now())
	f.report = &report

	if err := s.history.Append(context.Background(), f.rollNo, report); err != nil {
		s.log.Error().Err(err).Str("roll_no", f.rollNo).Msg("History append failed")
	}
	s.enqueueArchive(f.rollNo, report)

	s.log.Info().
		Str("roll_no", f.rollNo).
		Str("report_id", report.ID).
		Int("score_obtained", report.ScoreObtained).
		Int("score_total", report.ScoreTotal).
		Str("grade", report.LetterGrade).
		Msg("Exam graded")
}

// enqueueArchive hands the report to the archive worker, fire and forget.
func (s *ExamFlowService) enqueueArchive(rollNo string, report model.GradedReport) {
	payload, err := json.Marshal(model.ArchivePayload{RollNo: rollNo, Report: report})
	if err != nil {
		s.log.Error().Err(err).Str("roll_no", rollNo).Msg("Archive payload marshal failed")
		return
	}
	if err := s.queue.Push(context.Background(), config.WorkerKey.PersistReportsQueue, payload); err != nil {
		s.log.Error().Err(err).Str("roll_no", rollNo).Msg("Archive enqueue failed")
	}
}

// IsNoQuestions reports whether a Start failure was the collaborator
// returning an empty paper, as opposed to a transport or parse error.
func IsNoQuestions(err error) bool {
	return errors.Is(err, llm.ErrNoQuestions)
}
