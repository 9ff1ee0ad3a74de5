package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/taleemlabs/taleem-backend/internal/config"
	"github.com/taleemlabs/taleem-backend/internal/model"
)

// ErrNoSession is returned when no in-progress exam session is persisted
// for a roll number.
var ErrNoSession = errors.New("no persisted exam session")

// SessionRepository persists the single-slot in-progress exam session per
// roll number as JSON in the KV store.
type SessionRepository struct {
	kv  KV
	log zerolog.Logger
}

// NewSessionRepository creates a new SessionRepository.
func NewSessionRepository(kv KV, log zerolog.Logger) *SessionRepository {
	return &SessionRepository{
		kv:  kv,
		log: log.With().Str("component", "session_repository").Logger(),
	}
}

// Save overwrites the persisted session for its roll number (last write wins).
func (r *SessionRepository) Save(ctx context.Context, session *model.ExamSession) error {
	raw, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	key := config.StoreKey.InProgressExamKey(session.Student.RollNo)
	if err := r.kv.Set(ctx, key, string(raw), 0); err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	return nil
}

// Load retrieves the persisted session for a roll number. A corrupt or
// invariant-violating entry is deleted proactively and reported as absent,
// so a bad snapshot from an older version never wedges the student.
func (r *SessionRepository) Load(ctx context.Context, rollNo string) (*model.ExamSession, error) {
	key := config.StoreKey.InProgressExamKey(rollNo)
	raw, err := r.kv.Get(ctx, key)
	if err != nil {
		if errors.Is(err, ErrKeyNotFound) {
			return nil, ErrNoSession
		}
		return nil, fmt.Errorf("load session: %w", err)
	}

	var session model.ExamSession
	if err := json.Unmarshal([]byte(raw), &session); err != nil {
		r.log.Warn().Err(err).Str("roll_no", rollNo).Msg("Corrupt persisted session, deleting")
		if delErr := r.kv.Delete(ctx, key); delErr != nil {
			r.log.Error().Err(delErr).Str("roll_no", rollNo).Msg("Failed to delete corrupt session")
		}
		return nil, ErrNoSession
	}
	if err := session.Validate(); err != nil {
		r.log.Warn().Err(err).Str("roll_no", rollNo).Msg("Invalid persisted session, deleting")
		if delErr := r.kv.Delete(ctx, key); delErr != nil {
			r.log.Error().Err(delErr).Str("roll_no", rollNo).Msg("Failed to delete invalid session")
		}
		return nil, ErrNoSession
	}

	return &session, nil
}

// Delete removes the persisted session for a roll number. Deleting an
// absent session is not an error.
func (r *SessionRepository) Delete(ctx context.Context, rollNo string) error {
	return r.kv.Delete(ctx, config.StoreKey.InProgressExamKey(rollNo))
}
