package guildconfig

import (
	"context"
	"errors"
	"testing"

	"github.com/goccy/go-json"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/PancyStudios/SuggesterGo/pkg/cache"
	"github.com/PancyStudios/SuggesterGo/pkg/models"
)

type fakeDocs struct {
	byGuild map[string]*models.GuildConfig
	sets    int
	getErr  error
}

func newFakeDocs() *fakeDocs {
	return &fakeDocs{byGuild: make(map[string]*models.GuildConfig)}
}

func (f *fakeDocs) Get(query bson.M) (*models.GuildConfig, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	guildID, _ := query["guildId"].(string)
	return f.byGuild[guildID], nil
}

func (f *fakeDocs) Set(query bson.M, data interface{}) (*models.GuildConfig, error) {
	f.sets++
	cfg := data.(*models.GuildConfig)
	f.byGuild[cfg.GuildID] = cfg
	return cfg, nil
}

type fakeKV struct {
	values map[string]string
}

func newFakeKV() *fakeKV {
	return &fakeKV{values: make(map[string]string)}
}

func (f *fakeKV) GetJSON(ctx context.Context, key string, out interface{}) error {
	raw, ok := f.values[key]
	if !ok {
		return cache.ErrCacheMiss
	}
	return json.Unmarshal([]byte(raw), out)
}

func (f *fakeKV) SetJSON(ctx context.Context, key string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	f.values[key] = string(raw)
	return nil
}

func (f *fakeKV) Del(ctx context.Context, keys ...string) error {
	for _, k := range keys {
		delete(f.values, k)
	}
	return nil
}

func TestGetCreatesDefaultOnFirstAccess(t *testing.T) {
	docs := newFakeDocs()
	kv := newFakeKV()
	store := NewStore(docs, kv, "?")

	cfg, err := store.Get(context.Background(), "guild1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if cfg.GuildID != "guild1" {
		t.Errorf("GuildID = %q, want guild1", cfg.GuildID)
	}
	if len(cfg.Prefixes) != 1 || cfg.Prefixes[0] != "?" {
		t.Errorf("Prefixes = %v, want the default prefix", cfg.Prefixes)
	}
	if docs.sets != 1 {
		t.Errorf("default document was persisted %d times, want 1", docs.sets)
	}
	if _, ok := kv.values[cache.GuildSettingsKey("guild1")]; !ok {
		t.Error("configuration was not cached after the first load")
	}
}

func TestGetServesCachedCopy(t *testing.T) {
	docs := newFakeDocs()
	kv := newFakeKV()
	store := NewStore(docs, kv, "!")

	if _, err := store.Get(context.Background(), "guild1"); err != nil {
		t.Fatalf("first Get: %v", err)
	}

	// The backing store failing must not matter while the copy is cached
	docs.getErr = errors.New("db offline")
	cfg, err := store.Get(context.Background(), "guild1")
	if err != nil {
		t.Fatalf("cached Get: %v", err)
	}
	if cfg.GuildID != "guild1" {
		t.Errorf("GuildID = %q, want guild1", cfg.GuildID)
	}
}

func TestSaveInvalidatesCache(t *testing.T) {
	docs := newFakeDocs()
	kv := newFakeKV()
	store := NewStore(docs, kv, "!")

	ctx := context.Background()
	cfg, err := store.Get(ctx, "guild1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}

	cfg.AddPrefix("s!")
	if err := store.Save(ctx, cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}

	if _, ok := kv.values[cache.GuildSettingsKey("guild1")]; ok {
		t.Error("cached copy survived Save")
	}

	reloaded, err := store.Get(ctx, "guild1")
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if len(reloaded.Prefixes) != 2 {
		t.Errorf("Prefixes = %v, want both prefixes after reload", reloaded.Prefixes)
	}
}
