// Package history keeps the append-only log of successful signing operations
// in a single persistence slot.
package history

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Layr-Labs/eigenx-dss-client/pkg/persistence"
	"github.com/Layr-Labs/eigenx-dss-client/pkg/types"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// RetryConfig configures how often a failed slot write is retried
type RetryConfig struct {
	MaxAttempts     int
	InitialBackoff  time.Duration
	MaxBackoff      time.Duration
	BackoffMultiple float64
}

// DefaultRetryConfig provides default retry settings
var DefaultRetryConfig = RetryConfig{
	MaxAttempts:     3,
	InitialBackoff:  50 * time.Millisecond,
	MaxBackoff:      1 * time.Second,
	BackoffMultiple: 2.0,
}

// Config holds the dependencies of a HistoryStore
type Config struct {
	// Slot is the persistence slot the history lives in. Defaults to persistence.DefaultHistorySlot.
	Slot        string
	Persistence persistence.ISlotPersistence
	Logger      *zap.Logger
	// Retry overrides DefaultRetryConfig when set
	Retry *RetryConfig
}

// HistoryStore is the durable, append-only log of successful signing operations.
//
// The in-memory sequence and the slot are kept in step under one mutex: every
// Append rewrites the whole slot, so writes are serialized in the order appends
// resolve. Crash safety is whatever the backend's single-slot write guarantees;
// there is no write-ahead log.
type HistoryStore struct {
	mu      sync.Mutex
	slot    string
	store   persistence.ISlotPersistence
	logger  *zap.Logger
	retry   RetryConfig
	entries types.History
	// pending holds entries appended while the slot was unreadable
	pending types.History
	loaded  bool

	// sleep waits between write attempts; replaced in tests
	sleep func(ctx context.Context, d time.Duration) error
}

// NewHistoryStore creates an empty HistoryStore. Call Load to restore persisted entries.
func NewHistoryStore(cfg *Config) (*HistoryStore, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if cfg.Persistence == nil {
		return nil, fmt.Errorf("persistence is required")
	}
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	slot := cfg.Slot
	if slot == "" {
		slot = persistence.DefaultHistorySlot
	}

	retry := DefaultRetryConfig
	if cfg.Retry != nil {
		retry = *cfg.Retry
	}
	if retry.MaxAttempts < 1 {
		retry.MaxAttempts = 1
	}

	return &HistoryStore{
		slot:    slot,
		store:   cfg.Persistence,
		logger:  cfg.Logger,
		retry:   retry,
		entries: types.History{},
		sleep:   sleepContext,
	}, nil
}

// Load reads the persisted history and makes it the in-memory sequence.
//
// Absent or unparsable slot content yields an empty History and no error: corrupt
// state is treated as absence. A backend read failure is returned as a
// PersistenceError and leaves the in-memory history as it was; the store then
// refuses to write the slot until a later read succeeds.
func (h *HistoryStore) Load(ctx context.Context) (types.History, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.loadLocked(ctx); err != nil {
		return h.entries.Clone(), err
	}
	return h.entries.Clone(), nil
}

func (h *HistoryStore) loadLocked(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return &types.PersistenceError{Op: "load", Err: err}
	}

	data, err := h.store.LoadSlot(h.slot)
	if err != nil {
		h.loaded = false
		h.logger.Sugar().Warnw("Failed to read history slot",
			"slot", h.slot,
			"entries_in_memory", len(h.entries),
			"error", err,
		)
		return &types.PersistenceError{Op: "load", Err: errors.Wrapf(err, "failed to read slot %s", h.slot)}
	}

	restored := types.History{}
	if data == nil {
		h.logger.Sugar().Debugw("No persisted history found", "slot", h.slot)
	} else if parsed, err := persistence.UnmarshalHistory(data); err != nil {
		h.logger.Sugar().Warnw("Persisted history is corrupt, treating as empty",
			"slot", h.slot,
			"bytes", len(data),
			"error", err,
		)
	} else {
		restored = parsed
	}

	h.entries = append(restored, h.pending...)
	if len(h.pending) > 0 {
		h.logger.Sugar().Infow("Merged entries recorded while history was unreadable",
			"slot", h.slot,
			"pending", len(h.pending),
		)
	}
	h.pending = nil
	h.loaded = true

	h.logger.Sugar().Infow("Restored signing history", "slot", h.slot, "entries", len(restored))
	return nil
}

// Append adds entry to the end of the history and writes the full sequence back.
//
// The write is retried per the RetryConfig. If every attempt fails the entry stays
// in memory and a PersistenceError is returned. If the slot has not been read
// successfully yet it is read first; when that read fails too the entry is kept
// in memory only and nothing is written.
func (h *HistoryStore) Append(ctx context.Context, entry types.HistoryEntry) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.loaded {
		if err := h.loadLocked(ctx); err != nil {
			h.pending = append(h.pending, entry)
			h.entries = append(h.entries, entry)
			h.logger.Sugar().Errorw("History slot unreadable, entry kept in memory only",
				"slot", h.slot,
				"pending", len(h.pending),
				"error", err,
			)
			return &types.PersistenceError{Op: "append", Err: errors.Wrap(err, "history not loaded, slot left untouched")}
		}
	}

	h.entries = append(h.entries, entry)

	data, err := persistence.MarshalHistory(h.entries)
	if err != nil {
		return &types.PersistenceError{Op: "append", Err: err}
	}

	if err := h.saveWithRetry(ctx, data); err != nil {
		h.logger.Sugar().Errorw("Failed to persist history entry",
			"slot", h.slot,
			"entries", len(h.entries),
			"error", err,
		)
		return &types.PersistenceError{Op: "append", Err: err}
	}

	h.logger.Sugar().Debugw("Persisted history entry", "slot", h.slot, "entries", len(h.entries))
	return nil
}

// Clear removes the persisted slot and then empties the in-memory history.
// If the slot cannot be cleared the in-memory history is left as it was.
func (h *HistoryStore) Clear(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return &types.PersistenceError{Op: "clear", Err: err}
	}

	if err := h.store.ClearSlot(h.slot); err != nil {
		return &types.PersistenceError{Op: "clear", Err: errors.Wrapf(err, "failed to clear slot %s", h.slot)}
	}

	h.entries = types.History{}
	h.pending = nil
	h.loaded = true
	h.logger.Sugar().Infow("Cleared signing history", "slot", h.slot)
	return nil
}

// Entries returns a copy of the in-memory history.
func (h *HistoryStore) Entries() types.History {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.entries.Clone()
}

// Len returns the number of entries
func (h *HistoryStore) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	return len(h.entries)
}

func (h *HistoryStore) saveWithRetry(ctx context.Context, data []byte) error {
	var lastErr error
	backoff := h.retry.InitialBackoff

	for attempt := 0; attempt < h.retry.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			if lastErr == nil {
				lastErr = err
			}
			break
		}

		err := h.store.SaveSlot(h.slot, data)
		if err == nil {
			return nil
		}
		lastErr = err

		h.logger.Sugar().Warnw("History write failed",
			"slot", h.slot,
			"attempt", attempt+1,
			"max_attempts", h.retry.MaxAttempts,
			"error", err,
		)

		if attempt < h.retry.MaxAttempts-1 {
			if err := h.sleep(ctx, backoff); err != nil {
				break
			}
			backoff = time.Duration(float64(backoff) * h.retry.BackoffMultiple)
			if backoff > h.retry.MaxBackoff {
				backoff = h.retry.MaxBackoff
			}
		}
	}

	return errors.Wrapf(lastErr, "failed to write slot %s", h.slot)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
