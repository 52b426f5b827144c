// Package events provides event handlers for reaction events
package events

import (
	"context"

	"github.com/bwmarrin/discordgo"

	"github.com/PancyStudios/SuggesterGo/internal/suggestions"
	"github.com/PancyStudios/SuggesterGo/pkg/discord"
	"github.com/PancyStudios/SuggesterGo/pkg/logger"
)

// RegisterReactionEvents registers the reaction handlers feeding the vote
// guard
func RegisterReactionEvents(client *discord.ExtendedClient, deps Deps) {
	client.Session.AddHandler(onReactionAdd(client, deps))
}

func onReactionAdd(client *discord.ExtendedClient, deps Deps) func(*discordgo.Session, *discordgo.MessageReactionAdd) {
	return func(s *discordgo.Session, r *discordgo.MessageReactionAdd) {
		if r.GuildID == "" {
			return
		}

		isBot := r.Member != nil && r.Member.User != nil && r.Member.User.Bot
		if botUser := client.BotUser(); botUser != nil && r.UserID == botUser.ID {
			isBot = true
		}

		ev := suggestions.ReactionEvent{
			GuildID:   r.GuildID,
			ChannelID: r.ChannelID,
			MessageID: r.MessageID,
			UserID:    r.UserID,
			Emoji:     r.Emoji.APIName(),
			IsBot:     isBot,
		}

		if err := deps.VoteGuard.HandleReactionAdd(context.Background(), ev); err != nil {
			logger.Debug("Vote guard failed on message "+r.MessageID+": "+err.Error(), "Reaction")
		}
	}
}
