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

// HistoryRepository persists the per-student graded report ledger as JSON
// in the KV store: newest first, capped at model.HistoryLimit.
type HistoryRepository struct {
	kv  KV
	log zerolog.Logger
}

// NewHistoryRepository creates a new HistoryRepository.
func NewHistoryRepository(kv KV, log zerolog.Logger) *HistoryRepository {
	return &HistoryRepository{
		kv:  kv,
		log: log.With().Str("component", "history_repository").Logger(),
	}
}

// Load returns the stored ledger for a roll number, newest first. An absent
// key yields an empty ledger; a corrupt entry is deleted and treated the
// same way.
func (r *HistoryRepository) Load(ctx context.Context, rollNo string) ([]model.GradedReport, error) {
	key := config.StoreKey.ExamHistoryKey(rollNo)
	raw, err := r.kv.Get(ctx, key)
	if err != nil {
		if errors.Is(err, ErrKeyNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("load history: %w", err)
	}

	var reports []model.GradedReport
	if err := json.Unmarshal([]byte(raw), &reports); err != nil {
		r.log.Warn().Err(err).Str("roll_no", rollNo).Msg("Corrupt history ledger, deleting")
		if delErr := r.kv.Delete(ctx, key); delErr != nil {
			r.log.Error().Err(delErr).Str("roll_no", rollNo).Msg("Failed to delete corrupt ledger")
		}
		return nil, nil
	}
	return reports, nil
}

// Append prepends a report to the ledger and truncates it to the cap, so
// the oldest entry is evicted once the cap is exceeded.
func (r *HistoryRepository) Append(ctx context.Context, rollNo string, report model.GradedReport) error {
	reports, err := r.Load(ctx, rollNo)
	if err != nil {
		return err
	}

	reports = append([]model.GradedReport{report}, reports...)
	if len(reports) > model.HistoryLimit {
		reports = reports[:model.HistoryLimit]
	}

	raw, err := json.Marshal(reports)
	if err != nil {
		return fmt.Errorf("marshal history: %w", err)
	}
	if err := r.kv.Set(ctx, config.StoreKey.ExamHistoryKey(rollNo), string(raw), 0); err != nil {
		return fmt.Errorf("store history: %w", err)
	}
	return nil
}
