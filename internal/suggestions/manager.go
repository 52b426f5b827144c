package suggestions

import (
	"context"
	"sync"

	"github.com/bwmarrin/discordgo"

	"github.com/PancyStudios/SuggesterGo/internal/guildconfig"
)

// RoleProvider resolves the live roles of a guild
type RoleProvider interface {
	GuildRoles(guildID string) ([]*discordgo.Role, error)
}

// RuntimeManager owns the per-channel runtime map. Runtimes are built on
// first use and evicted only when the channel disappears from the guild
// configuration.
type RuntimeManager struct {
	mu       sync.Mutex
	runtimes map[string]*ChannelRuntime

	configs *guildconfig.Store
	counts  CounterReader
	roles   RoleProvider
}

// NewRuntimeManager creates a runtime manager
func NewRuntimeManager(configs *guildconfig.Store, counts CounterReader, roles RoleProvider) *RuntimeManager {
	return &RuntimeManager{
		runtimes: make(map[string]*ChannelRuntime),
		configs:  configs,
		counts:   counts,
		roles:    roles,
	}
}

// Get returns the runtime for a channel, initializing it on first use. The
// runtime is published only after Init completes, so concurrent callers never
// observe a half-built one.
func (m *RuntimeManager) Get(ctx context.Context, guildID, channelID string) (*ChannelRuntime, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if rt, ok := m.runtimes[channelID]; ok {
		return rt, nil
	}

	cfg, err := m.configs.Get(ctx, guildID)
	if err != nil {
		return nil, err
	}

	guildRoles, err := m.roles.GuildRoles(guildID)
	if err != nil {
		// Role resolution is best-effort; unresolvable ids are dropped anyway
		guildRoles = nil
	}

	rt := NewChannelRuntime(guildID, channelID, m.configs)
	if err := rt.Init(ctx, cfg, guildRoles, m.counts); err != nil {
		return nil, err
	}

	m.runtimes[channelID] = rt
	return rt, nil
}

// Peek returns the runtime for a channel without creating one
func (m *RuntimeManager) Peek(channelID string) (*ChannelRuntime, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rt, ok := m.runtimes[channelID]
	return rt, ok
}

// Evict drops a channel runtime, used when a channel is removed from the
// guild configuration
func (m *RuntimeManager) Evict(channelID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.runtimes, channelID)
}
