package worker

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/taleemlabs/taleem-backend/internal/config"
	"github.com/taleemlabs/taleem-backend/internal/model"
	"github.com/taleemlabs/taleem-backend/internal/repository"
)

type fakeArchiveStore struct {
	mu        sync.Mutex
	bulkErr   error
	oneErrFor string // roll number whose single upsert fails
	bulk      [][]model.ArchivePayload
	singles   []model.ArchivePayload
}

func (s *fakeArchiveStore) BulkUpsert(_ context.Context, payloads []model.ArchivePayload) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.bulkErr != nil {
		return s.bulkErr
	}
	s.bulk = append(s.bulk, append([]model.ArchivePayload(nil), payloads...))
	return nil
}

func (s *fakeArchiveStore) UpsertOne(_ context.Context, payload *model.ArchivePayload) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if payload.RollNo == s.oneErrFor {
		return errors.New("row insert failed")
	}
	s.singles = append(s.singles, *payload)
	return nil
}

func archivePayload(rollNo string, at time.Time) model.ArchivePayload {
	card := &model.ReportCard{ScoreTotal: 10, ScoreObtained: 7, Breakdown: []model.QuestionResult{{Prompt: "Q1"}}}
	student := model.StudentIdentity{Name: "Ali", ClassName: "9th", SchoolName: "City School", RollNo: rollNo}
	spec := model.AssessmentSpec{Subject: "Physics", Chapter: "Motion", ExamType: model.ExamTypeMCQ, Languages: []model.Language{model.LanguageEnglish}, DurationMinutes: 10}
	return model.ArchivePayload{RollNo: rollNo, Report: model.NewGradedReport(card, student, spec, at)}
}

func TestFlushSafeBulk(t *testing.T) {
	store := &fakeArchiveStore{}
	w := NewArchiveWorker(store, repository.NewMemoryQueue(), zerolog.Nop())

	batch := []model.ArchivePayload{
		archivePayload("r1", time.Now()),
		archivePayload("r2", time.Now().Add(time.Second)),
	}
	w.flushSafe(context.Background(), batch)

	if len(store.bulk) != 1 || len(store.bulk[0]) != 2 {
		t.Fatalf("bulk calls = %+v, want one call with both payloads", store.bulk)
	}
	if len(store.singles) != 0 {
		t.Errorf("fallback used despite bulk success: %d singles", len(store.singles))
	}
}

func TestFlushSafeFallback(t *testing.T) {
	store := &fakeArchiveStore{bulkErr: errors.New("deadlock detected")}
	w := NewArchiveWorker(store, repository.NewMemoryQueue(), zerolog.Nop())

	batch := []model.ArchivePayload{
		archivePayload("r1", time.Now()),
		archivePayload("r2", time.Now().Add(time.Second)),
	}
	w.flushSafe(context.Background(), batch)

	if len(store.singles) != 2 {
		t.Fatalf("fallback persisted %d rows, want 2", len(store.singles))
	}
}

func TestFlushSafeRequeuesFailedRows(t *testing.T) {
	store := &fakeArchiveStore{bulkErr: errors.New("bulk down"), oneErrFor: "bad"}
	queue := repository.NewMemoryQueue()
	w := NewArchiveWorker(store, queue, zerolog.Nop())

	ctx := context.Background()
	batch := []model.ArchivePayload{
		archivePayload("ok", time.Now()),
		archivePayload("bad", time.Now().Add(time.Second)),
	}
	w.flushSafe(ctx, batch)

	if len(store.singles) != 1 || store.singles[0].RollNo != "ok" {
		t.Fatalf("singles = %+v, want only the good row", store.singles)
	}

	// The failed row went back on the queue for a later attempt.
	raw, err := queue.Pop(ctx, config.WorkerKey.PersistReportsQueue, 0)
	if err != nil {
		t.Fatalf("requeued payload missing: %v", err)
	}
	var p model.ArchivePayload
	if err := json.Unmarshal(raw, &p); err != nil {
		t.Fatalf("requeued payload corrupt: %v", err)
	}
	if p.RollNo != "bad" {
		t.Errorf("requeued roll_no = %q, want bad", p.RollNo)
	}
	if _, err := queue.Pop(ctx, config.WorkerKey.PersistReportsQueue, 0); !errors.Is(err, repository.ErrQueueEmpty) {
		t.Errorf("extra payloads requeued: %v", err)
	}
}

func TestFlushSafeEmptyBatch(t *testing.T) {
	store := &fakeArchiveStore{bulkErr: errors.New("should never be called")}
	w := NewArchiveWorker(store, repository.NewMemoryQueue(), zerolog.Nop())

	w.flushSafe(context.Background(), nil)

	if len(store.singles) != 0 {
		t.Errorf("empty batch reached the store")
	}
}

func TestStartDrainsOnShutdown(t *testing.T) {
	store := &fakeArchiveStore{}
	queue := repository.NewMemoryQueue()
	w := NewArchiveWorker(store, queue, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	for i, rollNo := range []string{"d1", "d2", "d3"} {
		raw, err := json.Marshal(archivePayload(rollNo, time.Now().Add(time.Duration(i)*time.Second)))
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		if err := queue.Push(ctx, config.WorkerKey.PersistReportsQueue, raw); err != nil {
			t.Fatalf("push: %v", err)
		}
	}

	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()

	// Give the loop a moment to consume, then request shutdown; the pending
	// batch must be flushed before Start returns.
	time.Sleep(100 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop after cancel")
	}

	store.mu.Lock()
	defer store.mu.Unlock()
	total := len(store.singles)
	for _, b := range store.bulk {
		total += len(b)
	}
	if total != 3 {
		t.Errorf("persisted %d payloads, want all 3 drained", total)
	}
}

func TestStartSkipsMalformedPayloads(t *testing.T) {
	store := &fakeArchiveStore{}
	queue := repository.NewMemoryQueue()
	w := NewArchiveWorker(store, queue, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	if err := queue.Push(ctx, config.WorkerKey.PersistReportsQueue, []byte("{nope")); err != nil {
		t.Fatalf("push: %v", err)
	}
	raw, _ := json.Marshal(archivePayload("good", time.Now()))
	if err := queue.Push(ctx, config.WorkerKey.PersistReportsQueue, raw); err != nil {
		t.Fatalf("push: %v", err)
	}

	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()
	time.Sleep(100 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop after cancel")
	}

	store.mu.Lock()
	defer store.mu.Unlock()
	total := len(store.singles)
	for _, b := range store.bulk {
		total += len(b)
	}
	if total != 1 {
		t.Errorf("persisted %d payloads, want only the well-formed one", total)
	}
}
