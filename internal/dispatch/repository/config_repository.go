package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/apollosoftdev/mm-processor/internal/common/cache"
	"github.com/apollosoftdev/mm-processor/internal/model"
	appErr "github.com/apollosoftdev/mm-processor/pkg/errors"
)

const configKeyFormat = "mm:challenges:%s:config"

// ConfigRepository loads per-challenge destination configs from the
// config store and caches them for the life of the process. A cached
// config is never refreshed except through Invalidate (operator action)
// or a restart; reloading is idempotent, so concurrent loads of the same
// challenge are harmless.
type ConfigRepository struct {
	store cache.Cache

	mu      sync.RWMutex
	configs map[string]*model.DestinationConfig
}

// NewConfigRepository creates a config repository backed by the given store.
func NewConfigRepository(store cache.Cache) *ConfigRepository {
	return &ConfigRepository{
		store:   store,
		configs: make(map[string]*model.DestinationConfig),
	}
}

// Get returns the destination config for the challenge, loading it from
// the store on first use.
func (r *ConfigRepository) Get(ctx context.Context, challengeID string) (*model.DestinationConfig, error) {
	if challengeID == "" {
		return nil, appErr.ValidationError("challengeId", "required")
	}

	r.mu.RLock()
	cfg, ok := r.configs[challengeID]
	r.mu.RUnlock()
	if ok {
		return cfg, nil
	}

	loaded, err := r.load(ctx, challengeID)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.configs[challengeID]; ok {
		return existing, nil
	}
	r.configs[challengeID] = loaded
	return loaded, nil
}

// Invalidate drops the cached config for one challenge so the next Get
// reloads it from the store.
func (r *ConfigRepository) Invalidate(challengeID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.configs, challengeID)
}

// InvalidateAll drops every cached config.
func (r *ConfigRepository) InvalidateAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.configs = make(map[string]*model.DestinationConfig)
}

func (r *ConfigRepository) load(ctx context.Context, challengeID string) (*model.DestinationConfig, error) {
	if r.store == nil {
		return nil, appErr.New(appErr.ServiceUnavailable).WithMessage("config store is not configured")
	}

	raw, err := r.store.Get(ctx, ConfigKey(challengeID))
	if err != nil {
		if errors.Is(err, cache.ErrNotFound) {
			return nil, appErr.Newf(appErr.ConfigNotFound, "no config for challenge %s", challengeID)
		}
		return nil, appErr.Wrapf(err, appErr.ConfigLoadFailed, "load config for challenge %s failed", challengeID)
	}

	var cfg model.DestinationConfig
	if err := json.Unmarshal([]byte(raw), &cfg); err != nil {
		return nil, appErr.Wrapf(err, appErr.ConfigDecodeFailed, "decode config for challenge %s failed", challengeID)
	}
	if cfg.ChallengeID == "" {
		cfg.ChallengeID = challengeID
	}
	return &cfg, nil
}

// ConfigKey returns the store key holding the challenge's config.
func ConfigKey(challengeID string) string {
	return fmt.Sprintf(configKeyFormat, challengeID)
}
