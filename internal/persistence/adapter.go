package persistence

import (
	"context"
	"encoding/json"
	"errors"

	apperrors "social-support-wizard/internal/common/errors"
	"social-support-wizard/internal/common/logger"
	"social-support-wizard/internal/common/metrics"
	"social-support-wizard/internal/models"
)

// Adapter snapshots one session's wizard state under a fixed key. Store
// failures are logged and counted, never returned: the wizard keeps working
// from memory.
type Adapter struct {
	store  Store
	key    string
	policy Policy
	logger logger.Logger
}

func NewAdapter(store Store, key string, policy Policy, log logger.Logger) *Adapter {
	if policy == "" {
		policy = PolicyProgress
	}
	return &Adapter{
		store:  store,
		key:    key,
		policy: policy,
		logger: log,
	}
}

func (a *Adapter) Key() string {
	return a.key
}

// Load returns the raw snapshot, if any. Structural checks belong to the
// caller.
func (a *Adapter) Load(ctx context.Context) ([]byte, bool) {
	raw, err := a.store.Get(ctx, a.key)
	if errors.Is(err, ErrNotFound) {
		metrics.SnapshotWrites.WithLabelValues("load", "miss").Inc()
		return nil, false
	}
	if err != nil {
		metrics.SnapshotWrites.WithLabelValues("load", "error").Inc()
		a.logger.Warn("Failed to load snapshot, starting fresh", map[string]interface{}{
			"key":   a.key,
			"error": apperrors.NewStoreUnavailableError("get", err).Error(),
		})
		return nil, false
	}
	metrics.SnapshotWrites.WithLabelValues("load", "hit").Inc()
	return []byte(raw), true
}

// Save writes state when the policy allows it. Last write wins.
func (a *Adapter) Save(ctx context.Context, state models.WizardState) {
	if a.policy == PolicyProgress && !state.HasProgress() {
		metrics.SnapshotWrites.WithLabelValues("save", "skipped").Inc()
		return
	}

	raw, err := json.Marshal(state)
	if err != nil {
		metrics.SnapshotWrites.WithLabelValues("save", "error").Inc()
		a.logger.Error("Failed to encode snapshot", map[string]interface{}{
			"key":   a.key,
			"error": err.Error(),
		})
		return
	}

	if err := a.store.Set(ctx, a.key, string(raw)); err != nil {
		metrics.SnapshotWrites.WithLabelValues("save", "error").Inc()
		a.logger.Warn("Failed to save snapshot", map[string]interface{}{
			"key":   a.key,
			"error": apperrors.NewStoreUnavailableError("set", err).Error(),
		})
		return
	}
	metrics.SnapshotWrites.WithLabelValues("save", "ok").Inc()
}

// Clear removes the snapshot.
func (a *Adapter) Clear(ctx context.Context) {
	if err := a.store.Remove(ctx, a.key); err != nil {
		metrics.SnapshotWrites.WithLabelValues("clear", "error").Inc()
		a.logger.Warn("Failed to clear snapshot", map[string]interface{}{
			"key":   a.key,
			"error": apperrors.NewStoreUnavailableError("remove", err).Error(),
		})
		return
	}
	metrics.SnapshotWrites.WithLabelValues("clear", "ok").Inc()
}
