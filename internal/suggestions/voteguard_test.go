package suggestions

import (
	"context"
	"strings"
	"testing"

	"github.com/bwmarrin/discordgo"
)

func newVoteGuardEnv(t *testing.T, cfgMutate func(*testEnv)) (*testEnv, *VoteGuard, string) {
	t.Helper()

	env := newTestEnv(suggestionGuild("g1", "c1"))
	if cfgMutate != nil {
		cfgMutate(env)
	}

	s, err := env.service.Create(context.Background(), CreateRequest{
		GuildID:         "g1",
		OriginChannelID: "c1",
		Author:          Submitter{UserID: "author1"},
		Text:            "tracked suggestion",
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	guard := NewVoteGuard(env.configs, env.repo, env.runtimes, env.messenger, env.guilds, "emoji-guild")
	return env, guard, s.MessageID
}

func removals(env *testEnv, messageID string) []string {
	var out []string
	for _, r := range env.messenger.reactions[messageID] {
		if strings.HasPrefix(r, "removed:") {
			out = append(out, r)
		}
	}
	return out
}

func TestVoteGuardIgnoresBots(t *testing.T) {
	env, guard, msgID := newVoteGuardEnv(t, nil)

	err := guard.HandleReactionAdd(context.Background(), ReactionEvent{
		GuildID: "g1", ChannelID: "c1", MessageID: msgID,
		UserID: "bot1", Emoji: "🎉", IsBot: true,
	})
	if err != nil {
		t.Fatalf("handle failed: %v", err)
	}
	if got := removals(env, msgID); len(got) != 0 {
		t.Errorf("bot reactions must pass through, removed %v", got)
	}
}

func TestVoteGuardIgnoresUntrackedMessages(t *testing.T) {
	env, guard, _ := newVoteGuardEnv(t, nil)

	err := guard.HandleReactionAdd(context.Background(), ReactionEvent{
		GuildID: "g1", ChannelID: "c1", MessageID: "random-message",
		UserID: "u1", Emoji: "🎉",
	})
	if err != nil {
		t.Fatalf("handle failed: %v", err)
	}
	if got := removals(env, "random-message"); len(got) != 0 {
		t.Errorf("untracked messages must pass through, removed %v", got)
	}
}

func TestVoteGuardRestrictVoting(t *testing.T) {
	env, guard, msgID := newVoteGuardEnv(t, func(env *testEnv) {
		cfg, _ := env.configs.Get(context.Background(), "g1")
		cfg.Flags.RestrictVoting = true
		if err := env.configs.Save(context.Background(), cfg); err != nil {
			t.Fatalf("save failed: %v", err)
		}
	})

	// A stray emoji outside the configured vote set is stripped
	if err := guard.HandleReactionAdd(context.Background(), ReactionEvent{
		GuildID: "g1", ChannelID: "c1", MessageID: msgID,
		UserID: "u1", Emoji: "🎉",
	}); err != nil {
		t.Fatalf("handle failed: %v", err)
	}
	if got := removals(env, msgID); len(got) != 1 {
		t.Fatalf("stray emoji should be removed, removals = %v", got)
	}

	// A configured vote emoji stays
	if err := guard.HandleReactionAdd(context.Background(), ReactionEvent{
		GuildID: "g1", ChannelID: "c1", MessageID: msgID,
		UserID: "u1", Emoji: "✅",
	}); err != nil {
		t.Fatalf("handle failed: %v", err)
	}
	if got := removals(env, msgID); len(got) != 1 {
		t.Errorf("configured emoji must stay, removals = %v", got)
	}
}

func TestVoteGuardSelfVoting(t *testing.T) {
	env, guard, msgID := newVoteGuardEnv(t, func(env *testEnv) {
		cfg, _ := env.configs.Get(context.Background(), "g1")
		cfg.Flags.SelfVoting = false
		if err := env.configs.Save(context.Background(), cfg); err != nil {
			t.Fatalf("save failed: %v", err)
		}
	})

	// The author's own vote is stripped
	if err := guard.HandleReactionAdd(context.Background(), ReactionEvent{
		GuildID: "g1", ChannelID: "c1", MessageID: msgID,
		UserID: "author1", Emoji: "✅",
	}); err != nil {
		t.Fatalf("handle failed: %v", err)
	}
	if got := removals(env, msgID); len(got) != 1 {
		t.Fatalf("author vote should be removed, removals = %v", got)
	}

	// Other members vote freely
	if err := guard.HandleReactionAdd(context.Background(), ReactionEvent{
		GuildID: "g1", ChannelID: "c1", MessageID: msgID,
		UserID: "u2", Emoji: "✅",
	}); err != nil {
		t.Fatalf("handle failed: %v", err)
	}
	if got := removals(env, msgID); len(got) != 1 {
		t.Errorf("other members' votes must stay, removals = %v", got)
	}
}

func TestVoteGuardUniqueVoting(t *testing.T) {
	env, guard, msgID := newVoteGuardEnv(t, nil)

	// Defaults: selfVoting on, uniqueVoting on. Seed the live message with an
	// existing ✅ from the author, then react with ❌.
	msg := env.messenger.messages[msgID]
	msg.Reactions = []*discordgo.MessageReactions{
		{Emoji: &discordgo.Emoji{Name: "✅"}, Count: 1},
		{Emoji: &discordgo.Emoji{Name: "❌"}, Count: 1},
	}
	env.messenger.reactionUsers[msgID+"|✅"] = []*discordgo.User{{ID: "author1"}}
	env.messenger.reactionUsers[msgID+"|❌"] = []*discordgo.User{{ID: "author1"}}

	if err := guard.HandleReactionAdd(context.Background(), ReactionEvent{
		GuildID: "g1", ChannelID: "c1", MessageID: msgID,
		UserID: "author1", Emoji: "❌",
	}); err == nil {
		if got := removals(env, msgID); len(got) != 1 {
			t.Errorf("second distinct author vote should be removed, removals = %v", got)
		}
	} else {
		t.Fatalf("handle failed: %v", err)
	}

	// A non-author double vote passes; unique voting binds the author only
	env.messenger.reactionUsers[msgID+"|✅"] = append(env.messenger.reactionUsers[msgID+"|✅"], &discordgo.User{ID: "u2"})
	if err := guard.HandleReactionAdd(context.Background(), ReactionEvent{
		GuildID: "g1", ChannelID: "c1", MessageID: msgID,
		UserID: "u2", Emoji: "❌",
	}); err != nil {
		t.Fatalf("handle failed: %v", err)
	}
	if got := removals(env, msgID); len(got) != 1 {
		t.Errorf("non-author votes are unrestricted, removals = %v", got)
	}
}
