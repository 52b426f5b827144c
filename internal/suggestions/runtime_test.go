package suggestions

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/PancyStudios/SuggesterGo/pkg/cache"
	"github.com/PancyStudios/SuggesterGo/pkg/models"
)

func TestRuntimeDoubleInit(t *testing.T) {
	cfg := suggestionGuild("g1", "c1")
	env := newTestEnv(cfg)

	rt := NewChannelRuntime("g1", "c1", env.configs)
	if err := rt.Init(context.Background(), cfg, nil, env.kv); err != nil {
		t.Fatalf("first init failed: %v", err)
	}
	if err := rt.Init(context.Background(), cfg, nil, env.kv); !errors.Is(err, ErrChannelAlreadyInit) {
		t.Errorf("second init should fail with ErrChannelAlreadyInit, got %v", err)
	}
}

func TestRuntimeInitUnconfiguredChannel(t *testing.T) {
	cfg := suggestionGuild("g1", "c1")
	env := newTestEnv(cfg)

	rt := NewChannelRuntime("g1", "other", env.configs)
	if err := rt.Init(context.Background(), cfg, nil, env.kv); !errors.Is(err, ErrChannelNotConfigured) {
		t.Errorf("expected ErrChannelNotConfigured, got %v", err)
	}
}

func TestRuntimeInitDropsStaleRoles(t *testing.T) {
	cfg := suggestionGuild("g1", "c1")
	cfg.Channels[0].Allowed = []models.ChannelRole{
		{RoleID: "live"},
		{RoleID: "deleted-role"},
	}
	env := newTestEnv(cfg, &discordgo.Role{ID: "live"})
	rt := mustRuntime(t, env, "g1", "c1")

	if !rt.MemberAllowed([]string{"live"}) {
		t.Error("role that still exists should resolve")
	}
	if rt.MemberAllowed([]string{"deleted-role"}) {
		t.Error("role ids that no longer resolve must be dropped")
	}
}

func TestRuntimeSeedsCountFromCache(t *testing.T) {
	cfg := suggestionGuild("g1", "c1")
	env := newTestEnv(cfg)
	env.kv.counters[cache.ChannelCountKey("g1", "c1")] = 7

	rt := mustRuntime(t, env, "g1", "c1")
	if got := rt.Count(); got != 7 {
		t.Errorf("count should seed from the cached counter, got %d", got)
	}

	rt.IncrementCount()
	rt.DecrementCount()
	rt.DecrementCount()
	if got := rt.Count(); got != 6 {
		t.Errorf("count after inc/dec/dec = %d, want 6", got)
	}
}

func TestRuntimeLockWritesBack(t *testing.T) {
	cfg := suggestionGuild("g1", "c1")
	env := newTestEnv(cfg)
	rt := mustRuntime(t, env, "g1", "c1")

	if err := rt.Lock(context.Background(), true); err != nil {
		t.Fatalf("lock failed: %v", err)
	}
	if !rt.Locked() {
		t.Error("runtime should report locked")
	}

	saved, err := env.configs.Get(context.Background(), "g1")
	if err != nil {
		t.Fatalf("config reload failed: %v", err)
	}
	ch, _ := saved.Channel("c1")
	if !ch.Locked {
		t.Error("lock must be written back into the guild configuration")
	}
}

func TestRuntimeRoleToggle(t *testing.T) {
	cfg := suggestionGuild("g1", "c1")
	env := newTestEnv(cfg, &discordgo.Role{ID: "vip"})
	rt := mustRuntime(t, env, "g1", "c1")

	role := &discordgo.Role{ID: "vip"}

	added, err := rt.UpdateRole(context.Background(), role, models.RoleListAllowed, "admin1")
	if err != nil || !added {
		t.Fatalf("first toggle should add: added=%v err=%v", added, err)
	}
	if !rt.MemberAllowed([]string{"vip"}) {
		t.Error("role should be on the allowed list after adding")
	}

	added, err = rt.UpdateRole(context.Background(), role, models.RoleListAllowed, "admin1")
	if err != nil || added {
		t.Fatalf("second toggle should remove: added=%v err=%v", added, err)
	}
	if rt.MemberAllowed([]string{"vip"}) {
		t.Error("role should be off the allowed list after removal")
	}
}

func TestRuntimeBlockedRoleReplacesBlockAll(t *testing.T) {
	cfg := suggestionGuild("g1", "c1")
	cfg.Channels[0].Blocked = models.BlockedRoles{Mode: models.BlockAll}
	env := newTestEnv(cfg, &discordgo.Role{ID: "muted"})
	rt := mustRuntime(t, env, "g1", "c1")

	if !rt.MemberBlocked(nil) {
		t.Fatal("block-all should block members with no roles")
	}

	if _, err := rt.UpdateRole(context.Background(), &discordgo.Role{ID: "muted"}, models.RoleListBlocked, "admin1"); err != nil {
		t.Fatalf("toggle failed: %v", err)
	}

	if rt.MemberBlocked(nil) {
		t.Error("adding an explicit blocked role must replace the block-all policy")
	}
	if !rt.MemberBlocked([]string{"muted"}) {
		t.Error("the added role should block")
	}

	saved, _ := env.configs.Get(context.Background(), "g1")
	ch, _ := saved.Channel("c1")
	if ch.Blocked.Mode != models.BlockRoles {
		t.Errorf("persisted block mode = %q, want %q", ch.Blocked.Mode, models.BlockRoles)
	}
}

func TestRuntimeClearRolesBlockedStates(t *testing.T) {
	cfg := suggestionGuild("g1", "c1")
	cfg.Channels[0].Blocked = models.BlockedRoles{
		Mode:  models.BlockRoles,
		Roles: []models.ChannelRole{{RoleID: "muted"}},
	}
	env := newTestEnv(cfg, &discordgo.Role{ID: "muted"})
	rt := mustRuntime(t, env, "g1", "c1")

	// reset=false switches to blocking everyone
	if err := rt.ClearRoles(context.Background(), models.RoleListBlocked, false); err != nil {
		t.Fatalf("clear failed: %v", err)
	}
	if !rt.MemberBlocked(nil) {
		t.Error("clear without reset should block every member")
	}
	saved, _ := env.configs.Get(context.Background(), "g1")
	ch, _ := saved.Channel("c1")
	if ch.Blocked.Mode != models.BlockAll {
		t.Errorf("persisted mode = %q, want %q", ch.Blocked.Mode, models.BlockAll)
	}

	// reset=true empties the policy entirely
	if err := rt.ClearRoles(context.Background(), models.RoleListBlocked, true); err != nil {
		t.Fatalf("reset failed: %v", err)
	}
	if rt.MemberBlocked([]string{"muted"}) {
		t.Error("reset should clear every block")
	}
	saved, _ = env.configs.Get(context.Background(), "g1")
	ch, _ = saved.Channel("c1")
	if ch.Blocked.Mode != models.BlockNone {
		t.Errorf("persisted mode after reset = %q, want %q", ch.Blocked.Mode, models.BlockNone)
	}
}

func TestRuntimeCooldownLifecycle(t *testing.T) {
	cfg := suggestionGuild("g1", "c1")
	cfg.Channels[0].CooldownMillis = (10 * time.Second).Milliseconds()
	env := newTestEnv(cfg)
	rt := mustRuntime(t, env, "g1", "c1")

	rt.StartCooldown("u1")
	if !rt.HasCooldownEntry("u1") {
		t.Fatal("cooldown entry should exist after start")
	}
	if remaining := rt.CooldownRemaining("u1"); remaining <= 0 || remaining > 10*time.Second {
		t.Errorf("remaining = %v, want within (0, 10s]", remaining)
	}

	rt.ClearCooldown("u1")
	if rt.HasCooldownEntry("u1") {
		t.Error("entry should be gone after an explicit clear")
	}
	if rt.CooldownRemaining("u1") != 0 {
		t.Error("remaining should be zero after clear")
	}
}

func TestRuntimeSetCooldownZeroClears(t *testing.T) {
	cfg := suggestionGuild("g1", "c1")
	cfg.Channels[0].CooldownMillis = (5 * time.Second).Milliseconds()
	env := newTestEnv(cfg)
	rt := mustRuntime(t, env, "g1", "c1")

	if err := rt.SetCooldown(context.Background(), 0); err != nil {
		t.Fatalf("set cooldown failed: %v", err)
	}
	if rt.Cooldown() != 0 {
		t.Error("runtime cooldown should be cleared")
	}

	// With no cooldown configured, StartCooldown is a no-op
	rt.StartCooldown("u1")
	if rt.HasCooldownEntry("u1") {
		t.Error("no entry should be created when the cooldown is disabled")
	}
}

func TestRuntimeManagerReuseAndEvict(t *testing.T) {
	cfg := suggestionGuild("g1", "c1")
	env := newTestEnv(cfg)

	first := mustRuntime(t, env, "g1", "c1")
	second := mustRuntime(t, env, "g1", "c1")
	if first != second {
		t.Error("manager should return the same runtime for the same channel")
	}

	env.runtimes.Evict("c1")
	third := mustRuntime(t, env, "g1", "c1")
	if third == first {
		t.Error("eviction should force a fresh runtime")
	}
}

func TestRuntimeManagerConcurrentFirstUse(t *testing.T) {
	cfg := suggestionGuild("g1", "c1")
	env := newTestEnv(cfg)

	const callers = 8
	results := make([]*ChannelRuntime, callers)
	errs := make([]error, callers)

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = env.runtimes.Get(context.Background(), "g1", "c1")
		}(i)
	}
	wg.Wait()

	for i := 0; i < callers; i++ {
		if errs[i] != nil {
			t.Fatalf("caller %d failed: %v", i, errs[i])
		}
		if results[i].Kind() != models.ChannelKindSuggestions {
			t.Fatalf("caller %d observed an uninitialized runtime", i)
		}
		if results[i] != results[0] {
			t.Errorf("caller %d got a different runtime instance", i)
		}
	}
}
