package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"
	"github.com/taleemlabs/taleem-backend/internal/config"
	"github.com/taleemlabs/taleem-backend/internal/model"
	"github.com/taleemlabs/taleem-backend/internal/repository"
)

const (
	ArchiveBatchSize    = 50
	ArchiveBatchTimeout = 2 * time.Second
	ArchivePollTimeout  = 1 * time.Second
)

// ArchiveStore is the PostgreSQL side of the archive pipeline.
type ArchiveStore interface {
	BulkUpsert(ctx context.Context, payloads []model.ArchivePayload) error
	UpsertOne(ctx context.Context, payload *model.ArchivePayload) error
}

// ArchiveWorker drains the report queue into PostgreSQL in batches.
type ArchiveWorker struct {
	store ArchiveStore
	queue repository.Queue
	log   zerolog.Logger
}

// NewArchiveWorker creates a new ArchiveWorker.
func NewArchiveWorker(store ArchiveStore, queue repository.Queue, log zerolog.Logger) *ArchiveWorker {
	return &ArchiveWorker{
		store: store,
		queue: queue,
		log:   log.With().Str("component", "archive_worker").Logger(),
	}
}

// ----------------------------------------------------------------
// Worker loop with batching
// ----------------------------------------------------------------

func (w *ArchiveWorker) Start(ctx context.Context) {
	w.log.Info().Msg("ArchiveWorker started")

	batch := make([]model.ArchivePayload, 0, ArchiveBatchSize)
	lastFlush := time.Now()

	for {
		// Should flush?
		if len(batch) > 0 &&
			(len(batch) >= ArchiveBatchSize || time.Since(lastFlush) >= ArchiveBatchTimeout) {

			w.flushSafe(ctx, batch)
			batch = batch[:0]
			lastFlush = time.Now()
		}

		select {
		case <-ctx.Done():
			w.log.Info().Msg("Shutdown requested. Flushing remaining batch...")
			w.flushSafe(context.Background(), batch)
			return

		default:
			raw, err := w.queue.Pop(ctx, config.WorkerKey.PersistReportsQueue, ArchivePollTimeout)
			if err != nil {
				if err != repository.ErrQueueEmpty && ctx.Err() == nil {
					w.log.Error().Err(err).Msg("Queue pop error")
				}
				continue
			}

			var p model.ArchivePayload
			if err := json.Unmarshal(raw, &p); err != nil {
				w.log.Error().Err(err).Msg("Invalid JSON payload")
				continue
			}

			batch = append(batch, p)
		}
	}
}

// ----------------------------------------------------------------
// Batch upsert wrapper with row-at-a-time fallback
// ----------------------------------------------------------------

func (w *ArchiveWorker) flushSafe(ctx context.Context, batch []model.ArchivePayload) {
	if len(batch) == 0 {
		return
	}

	if err := w.store.BulkUpsert(ctx, batch); err != nil {
		w.log.Warn().Err(err).Msg("bulk archive upsert failed, using fallback")

		for i := range batch {
			if err := w.store.UpsertOne(ctx, &batch[i]); err != nil {
				w.log.Error().Err(err).Msg("UpsertOne failed — requeueing")
				raw, _ := json.Marshal(batch[i])
				if pushErr := w.queue.Push(ctx, config.WorkerKey.PersistReportsQueue, raw); pushErr != nil {
					w.log.Error().Err(pushErr).Msg("Requeue failed, payload dropped")
				}
			}
		}
		return
	}

	w.log.Debug().Int("count", len(batch)).Msg("Archive batch persisted")
}
