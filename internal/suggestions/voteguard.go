package suggestions

import (
	"context"

	"github.com/PancyStudios/SuggesterGo/internal/guildconfig"
	"github.com/PancyStudios/SuggesterGo/pkg/logger"
	"github.com/PancyStudios/SuggesterGo/pkg/models"
)

// ReactionEvent is the gateway reaction payload reduced to what the guard
// needs
type ReactionEvent struct {
	GuildID   string
	ChannelID string
	MessageID string
	UserID    string
	Emoji     string
	IsBot     bool
}

// VoteGuard enforces the reaction voting rules on tracked suggestion
// messages. It holds no per-message state; every decision is derived from the
// record, the guild flags and the live reaction list.
type VoteGuard struct {
	configs   *guildconfig.Store
	repo      *Repository
	runtimes  *RuntimeManager
	messenger Messenger
	guilds    GuildProvider

	emojiGuildID string
}

// NewVoteGuard creates a vote guard
func NewVoteGuard(configs *guildconfig.Store, repo *Repository, runtimes *RuntimeManager, messenger Messenger, guilds GuildProvider, emojiGuildID string) *VoteGuard {
	return &VoteGuard{
		configs:      configs,
		repo:         repo,
		runtimes:     runtimes,
		messenger:    messenger,
		guilds:       guilds,
		emojiGuildID: emojiGuildID,
	}
}

// HandleReactionAdd applies the voting policy to one added reaction.
// Reactions from bots and reactions on untracked messages pass through
// untouched.
func (g *VoteGuard) HandleReactionAdd(ctx context.Context, ev ReactionEvent) error {
	if ev.IsBot {
		return nil
	}

	record, err := g.repo.Fetch(ctx, ev.GuildID, Query{Kind: QueryByMessageID, Value: ev.MessageID}, true, false)
	if err != nil {
		return err
	}
	if record == nil {
		return nil
	}

	cfg, err := g.configs.Get(ctx, ev.GuildID)
	if err != nil {
		return err
	}

	if cfg.Flags.RestrictVoting && !g.isConfiguredEmoji(ctx, cfg, record, ev.Emoji) {
		return g.remove(ev)
	}

	if ev.UserID == record.AuthorID {
		if !cfg.Flags.SelfVoting {
			return g.remove(ev)
		}
		if cfg.Flags.UniqueVoting && g.votedOtherEmoji(record, ev) {
			return g.remove(ev)
		}
	}

	return nil
}

func (g *VoteGuard) remove(ev ReactionEvent) error {
	if err := g.messenger.RemoveReaction(ev.ChannelID, ev.MessageID, ev.Emoji, ev.UserID); err != nil {
		logger.Warn("Failed to remove a disallowed reaction on "+ev.MessageID, "VoteGuard")
		return err
	}
	return nil
}

// isConfiguredEmoji reports whether the reacted emoji belongs to the
// channel's configured vote set
func (g *VoteGuard) isConfiguredEmoji(ctx context.Context, cfg *models.GuildConfig, record *models.Suggestion, emoji string) bool {
	rt, err := g.runtimes.Get(ctx, record.GuildID, record.ChannelID)
	if err != nil {
		// On a runtime failure fail open: dropping legitimate votes is
		// worse than letting one stray emoji through
		return true
	}

	set, ok := cfg.EmojiSet(rt.EmojiSetIndex())
	if !ok {
		set = cfg.DefaultEmojiSet()
	}

	for _, e := range resolveEmojiSet(set, g.guilds, record.GuildID, g.emojiGuildID) {
		if e == emoji {
			return true
		}
	}
	return false
}

// votedOtherEmoji reports whether the user already reacted with a different
// emoji on the same message
func (g *VoteGuard) votedOtherEmoji(record *models.Suggestion, ev ReactionEvent) bool {
	msg, err := g.messenger.Message(ev.ChannelID, ev.MessageID)
	if err != nil || msg == nil {
		return false
	}

	for _, reaction := range msg.Reactions {
		emoji := reaction.Emoji.APIName()
		if emoji == ev.Emoji {
			continue
		}
		users, err := g.messenger.ReactionUsers(ev.ChannelID, ev.MessageID, emoji)
		if err != nil {
			continue
		}
		for _, u := range users {
			if u.ID == ev.UserID {
				return true
			}
		}
	}
	return false
}
