package suggestions

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/PancyStudios/SuggesterGo/internal/guildconfig"
	"github.com/PancyStudios/SuggesterGo/pkg/cache"
	"github.com/PancyStudios/SuggesterGo/pkg/logger"
	"github.com/PancyStudios/SuggesterGo/pkg/models"
)

// ErrChannelAlreadyInit is returned when a channel runtime is initialized twice
var ErrChannelAlreadyInit = errors.New("channel runtime already initialized")

// ErrChannelNotConfigured is returned when a channel id has no entry in the
// guild configuration
var ErrChannelNotConfigured = errors.New("channel is not configured")

// CounterReader reads denormalized counters from the cache
type CounterReader interface {
	GetInt64(ctx context.Context, key string) (int64, error)
}

// ChannelRuntime is the in-memory runtime state of one configured channel.
// Cooldowns are per process and not durable: a restart clears every
// outstanding cooldown early.
type ChannelRuntime struct {
	mu sync.Mutex

	guildID   string
	channelID string
	kind      models.ChannelKind

	locked        bool
	reviewMode    bool
	emojiSetIndex int
	cooldown      time.Duration
	count         int64

	allowed  map[string]*discordgo.Role
	blocked  map[string]*discordgo.Role
	blockAll bool

	cooldowns map[string]time.Time
	timers    map[string]*time.Timer

	configs     *guildconfig.Store
	initialized bool
}

// NewChannelRuntime creates an uninitialized runtime for a channel
func NewChannelRuntime(guildID, channelID string, configs *guildconfig.Store) *ChannelRuntime {
	return &ChannelRuntime{
		guildID:   guildID,
		channelID: channelID,
		configs:   configs,
		allowed:   make(map[string]*discordgo.Role),
		blocked:   make(map[string]*discordgo.Role),
		cooldowns: make(map[string]time.Time),
		timers:    make(map[string]*time.Timer),
	}
}

// Init loads the runtime state from the guild configuration, resolves the
// configured role ids against the live guild roles (ids that no longer
// resolve are dropped silently) and seeds the denormalized count from the
// cache. Calling Init twice returns ErrChannelAlreadyInit.
func (r *ChannelRuntime) Init(ctx context.Context, cfg *models.GuildConfig, guildRoles []*discordgo.Role, counts CounterReader) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.initialized {
		return ErrChannelAlreadyInit
	}

	ch, ok := cfg.Channel(r.channelID)
	if !ok {
		return ErrChannelNotConfigured
	}

	r.kind = ch.Kind
	r.locked = ch.Locked
	r.reviewMode = ch.ReviewMode
	r.emojiSetIndex = ch.EmojiSetIndex
	r.cooldown = time.Duration(ch.CooldownMillis) * time.Millisecond

	byID := make(map[string]*discordgo.Role, len(guildRoles))
	for _, role := range guildRoles {
		byID[role.ID] = role
	}

	for _, cr := range ch.Allowed {
		if role, ok := byID[cr.RoleID]; ok {
			r.allowed[cr.RoleID] = role
		}
	}

	r.blockAll = ch.Blocked.BlocksAll()
	if !r.blockAll {
		for _, cr := range ch.Blocked.Roles {
			if role, ok := byID[cr.RoleID]; ok {
				r.blocked[cr.RoleID] = role
			}
		}
	}

	count, err := counts.GetInt64(ctx, cache.ChannelCountKey(r.guildID, r.channelID))
	if err != nil {
		logger.Warn(fmt.Sprintf("Failed to read the suggestion count for channel %s", r.channelID), "ChannelRuntime")
	}
	r.count = count

	r.initialized = true
	return nil
}

// Accessors

// GuildID returns the owning guild id
func (r *ChannelRuntime) GuildID() string { return r.guildID }

// ChannelID returns the channel id
func (r *ChannelRuntime) ChannelID() string { return r.channelID }

// Kind returns the configured channel kind
func (r *ChannelRuntime) Kind() models.ChannelKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.kind
}

// Locked reports whether the channel is locked
func (r *ChannelRuntime) Locked() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.locked
}

// ReviewMode reports whether review mode is active
func (r *ChannelRuntime) ReviewMode() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.reviewMode
}

// EmojiSetIndex returns the configured vote emoji set index
func (r *ChannelRuntime) EmojiSetIndex() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.emojiSetIndex
}

// Cooldown returns the configured submission cooldown, 0 when none
func (r *ChannelRuntime) Cooldown() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cooldown
}

// Count returns the in-memory denormalized suggestion count
func (r *ChannelRuntime) Count() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count
}

// HasAllowedRoles reports whether an allowed-list is active
func (r *ChannelRuntime) HasAllowedRoles() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.allowed) > 0
}

// MemberAllowed reports whether any of the member's roles is on the
// allowed-list
func (r *ChannelRuntime) MemberAllowed(roleIDs []string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range roleIDs {
		if _, ok := r.allowed[id]; ok {
			return true
		}
	}
	return false
}

// MemberBlocked reports whether the member is blocked, either through the
// block-all policy or through one of their roles
func (r *ChannelRuntime) MemberBlocked(roleIDs []string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.blockAll {
		return true
	}
	for _, id := range roleIDs {
		if _, ok := r.blocked[id]; ok {
			return true
		}
	}
	return false
}

// Mutations. Each mutator updates the in-memory state, writes the field back
// into the guild configuration and persists it; the save invalidates the
// cached config so the next read is consistent.

func (r *ChannelRuntime) syncConfig(ctx context.Context, mutate func(*models.ChannelConfig)) error {
	cfg, err := r.configs.Get(ctx, r.guildID)
	if err != nil {
		return err
	}
	ch, ok := cfg.Channel(r.channelID)
	if !ok {
		return ErrChannelNotConfigured
	}
	mutate(ch)
	return r.configs.Save(ctx, cfg)
}

// Lock sets or clears the locked state
func (r *ChannelRuntime) Lock(ctx context.Context, locked bool) error {
	r.mu.Lock()
	r.locked = locked
	r.mu.Unlock()

	return r.syncConfig(ctx, func(ch *models.ChannelConfig) {
		ch.Locked = locked
	})
}

// SetReviewMode toggles review mode
func (r *ChannelRuntime) SetReviewMode(ctx context.Context, on bool) error {
	r.mu.Lock()
	r.reviewMode = on
	r.mu.Unlock()

	return r.syncConfig(ctx, func(ch *models.ChannelConfig) {
		ch.ReviewMode = on
	})
}

// SetEmojis switches the channel to another vote emoji set
func (r *ChannelRuntime) SetEmojis(ctx context.Context, index int) error {
	r.mu.Lock()
	r.emojiSetIndex = index
	r.mu.Unlock()

	return r.syncConfig(ctx, func(ch *models.ChannelConfig) {
		ch.EmojiSetIndex = index
	})
}

// SetCooldown configures the submission cooldown. A zero duration clears the
// cooldown; it is stored as absent, not as zero.
func (r *ChannelRuntime) SetCooldown(ctx context.Context, d time.Duration) error {
	r.mu.Lock()
	r.cooldown = d
	r.mu.Unlock()

	return r.syncConfig(ctx, func(ch *models.ChannelConfig) {
		ch.CooldownMillis = d.Milliseconds()
	})
}

// UpdateRole toggles a role on the allowed or blocked list. It returns
// whether the role ended up present (true = added, false = removed).
func (r *ChannelRuntime) UpdateRole(ctx context.Context, role *discordgo.Role, kind models.RoleListKind, addedBy string) (bool, error) {
	r.mu.Lock()
	var target map[string]*discordgo.Role
	if kind == models.RoleListAllowed {
		target = r.allowed
	} else {
		target = r.blocked
	}

	_, present := target[role.ID]
	added := !present
	if present {
		delete(target, role.ID)
	} else {
		target[role.ID] = role
	}
	if kind == models.RoleListBlocked && added {
		// An explicit role list replaces a block-all policy
		r.blockAll = false
	}
	r.mu.Unlock()

	err := r.syncConfig(ctx, func(ch *models.ChannelConfig) {
		if kind == models.RoleListAllowed {
			ch.Allowed = toggleRole(ch.Allowed, role.ID, addedBy)
			return
		}
		ch.Blocked.Roles = toggleRole(ch.Blocked.Roles, role.ID, addedBy)
		if len(ch.Blocked.Roles) == 0 {
			ch.Blocked.Mode = models.BlockNone
		} else {
			ch.Blocked.Mode = models.BlockRoles
		}
	})
	return added, err
}

func toggleRole(roles []models.ChannelRole, roleID, addedBy string) []models.ChannelRole {
	for i, cr := range roles {
		if cr.RoleID == roleID {
			return append(roles[:i], roles[i+1:]...)
		}
	}
	return append(roles, models.ChannelRole{RoleID: roleID, AddedBy: addedBy})
}

// ClearRoles clears a role list. For the blocked list, reset=true empties the
// policy while reset=false switches to blocking every member; these are
// distinct states and must be preserved exactly.
func (r *ChannelRuntime) ClearRoles(ctx context.Context, kind models.RoleListKind, reset bool) error {
	r.mu.Lock()
	if kind == models.RoleListAllowed {
		r.allowed = make(map[string]*discordgo.Role)
	} else {
		r.blocked = make(map[string]*discordgo.Role)
		r.blockAll = !reset
	}
	r.mu.Unlock()

	return r.syncConfig(ctx, func(ch *models.ChannelConfig) {
		if kind == models.RoleListAllowed {
			ch.Allowed = nil
			return
		}
		ch.Blocked.Roles = nil
		if reset {
			ch.Blocked.Mode = models.BlockNone
		} else {
			ch.Blocked.Mode = models.BlockAll
		}
	})
}

// Cooldown tracking. Entries expire through fire-and-forget timers; last
// writer wins on concurrent updates for the same user.

// StartCooldown records a cooldown entry for a user and schedules its expiry
func (r *ChannelRuntime) StartCooldown(userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cooldown <= 0 {
		return
	}

	if t, ok := r.timers[userID]; ok {
		t.Stop()
	}

	r.cooldowns[userID] = time.Now().Add(r.cooldown)
	r.timers[userID] = time.AfterFunc(r.cooldown, func() {
		r.ClearCooldown(userID)
	})
}

// ClearCooldown removes a user's cooldown entry
func (r *ChannelRuntime) ClearCooldown(userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if t, ok := r.timers[userID]; ok {
		t.Stop()
		delete(r.timers, userID)
	}
	delete(r.cooldowns, userID)
}

// CooldownRemaining returns how long a user must still wait, 0 when no entry
// is active
func (r *ChannelRuntime) CooldownRemaining(userID string) time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()

	expires, ok := r.cooldowns[userID]
	if !ok {
		return 0
	}
	remaining := time.Until(expires)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// HasCooldownEntry reports whether a user currently has a cooldown entry
func (r *ChannelRuntime) HasCooldownEntry(userID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.cooldowns[userID]
	return ok
}

// IncrementCount adjusts the in-memory counter. The store-side counter is
// incremented by the repository on the same logical event; callers must keep
// the two in sync by invoking both.
func (r *ChannelRuntime) IncrementCount() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.count++
}

// DecrementCount is the inverse of IncrementCount
func (r *ChannelRuntime) DecrementCount() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.count > 0 {
		r.count--
	}
}
