package suggestions

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/PancyStudios/SuggesterGo/pkg/cache"
	"github.com/PancyStudios/SuggesterGo/pkg/logger"
	"github.com/PancyStudios/SuggesterGo/pkg/models"
)

// ErrSuggestionNotFound is returned when a lookup resolves to no record
var ErrSuggestionNotFound = errors.New("suggestion not found")

// Docs is the narrow document-store contract of the repository.
// database.DataManager[models.Suggestion] satisfies it.
type Docs interface {
	Get(query bson.M) (*models.Suggestion, error)
	Set(query bson.M, data interface{}) (*models.Suggestion, error)
	Delete(query bson.M) error
}

// KV is the cache contract: JSON record cache plus atomic counters. Counter
// mutations must be atomic on the cache side; the repository never
// read-modify-writes them in process.
type KV interface {
	GetJSON(ctx context.Context, key string, out interface{}) error
	SetJSON(ctx context.Context, key string, value interface{}) error
	Del(ctx context.Context, keys ...string) error
	Incr(ctx context.Context, key string) (int64, error)
	Decr(ctx context.Context, key string) (int64, error)
	GetInt64(ctx context.Context, key string) (int64, error)
}

// Repository persists suggestion records with a write-through cache and keeps
// the five denormalized counters in step with creation and deletion.
type Repository struct {
	docs Docs
	kv   KV

	mu   sync.RWMutex
	byID map[string]*models.Suggestion
}

// NewRepository creates a suggestion repository
func NewRepository(docs Docs, kv KV) *Repository {
	return &Repository{
		docs: docs,
		kv:   kv,
		byID: make(map[string]*models.Suggestion),
	}
}

func (r *Repository) counterKeys(s *models.Suggestion) []string {
	return []string{
		cache.MemberCountKey(s.GuildID, s.AuthorID),
		cache.UserCountKey(s.AuthorID),
		cache.GuildCountKey(s.GuildID),
		cache.ChannelCountKey(s.GuildID, s.ChannelID),
		cache.GlobalCountKey(),
	}
}

// Add persists a new record, writes it through to the cache and increments
// the five denormalized counters.
func (r *Repository) Add(ctx context.Context, s *models.Suggestion) (*models.Suggestion, error) {
	persisted, err := r.docs.Set(bson.M{"suggestionId": s.ID}, s)
	if err != nil {
		return nil, fmt.Errorf("repository: add %s: %w", s.ShortID(), err)
	}
	if persisted == nil {
		persisted = s
	}

	for _, key := range r.counterKeys(persisted) {
		if _, err := r.kv.Incr(ctx, key); err != nil {
			logger.Warn("Failed to increment counter "+key, "Suggestions")
		}
	}

	r.cacheRecord(ctx, persisted)
	return persisted, nil
}

// Update rewrites an existing record and refreshes the cached copy
func (r *Repository) Update(ctx context.Context, s *models.Suggestion) (*models.Suggestion, error) {
	persisted, err := r.docs.Set(bson.M{"suggestionId": s.ID}, s)
	if err != nil {
		return nil, fmt.Errorf("repository: update %s: %w", s.ShortID(), err)
	}
	if persisted == nil {
		persisted = s
	}

	r.cacheRecord(ctx, persisted)
	return persisted, nil
}

// Delete removes the record from the store and the cache and decrements the
// five counters symmetrically with Add. The backing chat message is the
// lifecycle's concern, not the repository's.
func (r *Repository) Delete(ctx context.Context, s *models.Suggestion) error {
	if err := r.docs.Delete(bson.M{"suggestionId": s.ID}); err != nil {
		return fmt.Errorf("repository: delete %s: %w", s.ShortID(), err)
	}

	// Fetch also reads through the document store by message id and by short
	// id, each cached under its own query key. Those entries must go too or a
	// later fetch would resolve the deleted record.
	for _, query := range r.alternateQueries(s) {
		if err := r.docs.Delete(query); err != nil {
			logger.Warn("Failed to drop a stale lookup for "+s.ShortID(), "Suggestions")
		}
	}

	for _, key := range r.counterKeys(s) {
		if _, err := r.kv.Decr(ctx, key); err != nil {
			logger.Warn("Failed to decrement counter "+key, "Suggestions")
		}
	}

	r.mu.Lock()
	delete(r.byID, s.ID)
	r.mu.Unlock()

	if err := r.kv.Del(ctx, cache.SuggestionKey(s.GuildID, s.ChannelID, s.MessageID, s.ID)); err != nil {
		logger.Warn("Failed to drop cached suggestion "+s.ShortID(), "Suggestions")
	}

	return nil
}

// alternateQueries returns the non-primary query shapes Fetch issues for a
// record. The shapes must match Fetch exactly so the same cache keys resolve.
func (r *Repository) alternateQueries(s *models.Suggestion) []bson.M {
	return []bson.M{
		{"guildId": s.GuildID, "messageId": s.MessageID},
		{
			"guildId": s.GuildID,
			"suggestionId": primitive.Regex{
				Pattern: s.ShortID() + "$",
				Options: "i",
			},
		},
	}
}

// Fetch resolves a parsed query to a record. The instance cache is consulted
// first unless force is set; useCache=false skips writing the result back.
// An unmatched query returns (nil, nil).
func (r *Repository) Fetch(ctx context.Context, guildID string, q Query, useCache, force bool) (*models.Suggestion, error) {
	if q.Kind == QueryInvalid {
		return nil, nil
	}

	if !force {
		if s := r.lookupCached(q); s != nil {
			return s, nil
		}
	}

	var query bson.M
	switch q.Kind {
	case QueryByID:
		// Long ids are globally unique; no guild filter so cross-guild
		// lookups can be scope-checked by the caller
		query = bson.M{"suggestionId": q.Value}
	case QueryByShortID:
		query = bson.M{
			"guildId": guildID,
			"suggestionId": primitive.Regex{
				Pattern: q.Value + "$",
				Options: "i",
			},
		}
	case QueryByMessageID, QueryByLink:
		query = bson.M{"guildId": guildID, "messageId": q.Value}
	default:
		return nil, nil
	}

	s, err := r.docs.Get(query)
	if err != nil {
		return nil, fmt.Errorf("repository: fetch: %w", err)
	}
	if s == nil {
		return nil, nil
	}

	if useCache {
		r.cacheRecord(ctx, s)
	}
	return s, nil
}

func (r *Repository) lookupCached(q Query) *models.Suggestion {
	r.mu.RLock()
	defer r.mu.RUnlock()

	switch q.Kind {
	case QueryByID:
		return r.byID[q.Value]
	case QueryByShortID:
		for id, s := range r.byID {
			if models.ShortID(id) == q.Value {
				return s
			}
		}
	case QueryByMessageID, QueryByLink:
		for _, s := range r.byID {
			if s.MessageID == q.Value {
				return s
			}
		}
	}
	return nil
}

func (r *Repository) cacheRecord(ctx context.Context, s *models.Suggestion) {
	r.mu.Lock()
	r.byID[s.ID] = s
	r.mu.Unlock()

	key := cache.SuggestionKey(s.GuildID, s.ChannelID, s.MessageID, s.ID)
	if err := r.kv.SetJSON(ctx, key, s); err != nil {
		logger.Warn("Failed to cache suggestion "+s.ShortID(), "Suggestions")
	}
}

// CountForChannel reads the denormalized per-channel counter
func (r *Repository) CountForChannel(ctx context.Context, guildID, channelID string) (int64, error) {
	return r.kv.GetInt64(ctx, cache.ChannelCountKey(guildID, channelID))
}

// GlobalCount reads the denormalized global counter
func (r *Repository) GlobalCount(ctx context.Context) (int64, error) {
	return r.kv.GetInt64(ctx, cache.GlobalCountKey())
}
