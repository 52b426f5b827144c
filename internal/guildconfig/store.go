// Package guildconfig provides read-through cached access to per-guild
// configuration documents.
package guildconfig

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/PancyStudios/SuggesterGo/pkg/cache"
	"github.com/PancyStudios/SuggesterGo/pkg/logger"
	"github.com/PancyStudios/SuggesterGo/pkg/models"
)

// Docs is the narrow document-store contract the config store depends on.
// database.DataManager[models.GuildConfig] satisfies it.
type Docs interface {
	Get(query bson.M) (*models.GuildConfig, error)
	Set(query bson.M, data interface{}) (*models.GuildConfig, error)
}

// KV is the cache contract: JSON values keyed by structured strings
type KV interface {
	GetJSON(ctx context.Context, key string, out interface{}) error
	SetJSON(ctx context.Context, key string, value interface{}) error
	Del(ctx context.Context, keys ...string) error
}

// Store loads and saves guild configurations. Reads go through the cache;
// every save invalidates the cached copy so the next read is consistent.
type Store struct {
	docs          Docs
	kv            KV
	defaultPrefix string
}

// NewStore creates a config store
func NewStore(docs Docs, kv KV, defaultPrefix string) *Store {
	return &Store{docs: docs, kv: kv, defaultPrefix: defaultPrefix}
}

// Get returns the configuration for a guild, creating and persisting the
// default document on first access.
func (s *Store) Get(ctx context.Context, guildID string) (*models.GuildConfig, error) {
	key := cache.GuildSettingsKey(guildID)

	var cached models.GuildConfig
	if err := s.kv.GetJSON(ctx, key, &cached); err == nil {
		return &cached, nil
	}

	cfg, err := s.docs.Get(bson.M{"guildId": guildID})
	if err != nil {
		return nil, fmt.Errorf("guildconfig: load %s: %w", guildID, err)
	}

	if cfg == nil {
		cfg = models.NewGuildConfig(guildID, s.defaultPrefix)
		if _, err := s.docs.Set(bson.M{"guildId": guildID}, cfg); err != nil {
			return nil, fmt.Errorf("guildconfig: create default for %s: %w", guildID, err)
		}
		logger.Info("Created default configuration for guild "+guildID, "GuildConfig")
	}

	if err := s.kv.SetJSON(ctx, key, cfg); err != nil {
		logger.Warn("Failed to cache configuration for guild "+guildID, "GuildConfig")
	}

	return cfg, nil
}

// Save persists the full document atomically and invalidates the cached copy
func (s *Store) Save(ctx context.Context, cfg *models.GuildConfig) error {
	if _, err := s.docs.Set(bson.M{"guildId": cfg.GuildID}, cfg); err != nil {
		return fmt.Errorf("guildconfig: save %s: %w", cfg.GuildID, err)
	}
	s.Invalidate(ctx, cfg.GuildID)
	return nil
}

// Invalidate drops the cached copy of a guild's configuration
func (s *Store) Invalidate(ctx context.Context, guildID string) {
	if err := s.kv.Del(ctx, cache.GuildSettingsKey(guildID)); err != nil {
		logger.Warn("Failed to invalidate cached configuration for guild "+guildID, "GuildConfig")
	}
}
