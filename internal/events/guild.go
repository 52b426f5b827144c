// Package events provides event handlers for guild events
package events

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/PancyStudios/SuggesterGo/pkg/discord"
	"github.com/PancyStudios/SuggesterGo/pkg/logger"
)

// RegisterGuildEvents registers the guild join/leave handlers
func RegisterGuildEvents(client *discord.ExtendedClient, deps Deps) {
	client.Session.AddHandler(onGuildCreate(client, deps))
	client.Session.AddHandler(onGuildDelete(client))
}

// onGuildCreate warms the guild configuration so the first command does not
// pay the creation cost
func onGuildCreate(client *discord.ExtendedClient, deps Deps) func(*discordgo.Session, *discordgo.GuildCreate) {
	return func(s *discordgo.Session, g *discordgo.GuildCreate) {
		logger.Info(fmt.Sprintf("📥 Guild available: %s (%s) | Total: %d", g.Name, g.ID, client.GuildCount()), "Guild")

		if _, err := deps.Configs.Get(context.Background(), g.ID); err != nil {
			logger.Warn("Failed to warm the configuration for guild "+g.ID, "Guild")
		}
	}
}

func onGuildDelete(client *discord.ExtendedClient) func(*discordgo.Session, *discordgo.GuildDelete) {
	return func(s *discordgo.Session, g *discordgo.GuildDelete) {
		if g.Unavailable {
			return
		}
		logger.Info(fmt.Sprintf("📤 Removed from guild %s | Total: %d", g.ID, client.GuildCount()), "Guild")
	}
}
