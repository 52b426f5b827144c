// Package events provides a registry for organizing bot events.
// Events are organized by category (guild, message, reaction).
package events

import (
	"github.com/PancyStudios/SuggesterGo/internal/guildconfig"
	"github.com/PancyStudios/SuggesterGo/internal/suggestions"
	"github.com/PancyStudios/SuggesterGo/pkg/discord"
	"github.com/PancyStudios/SuggesterGo/pkg/logger"
)

// Deps are the handles the gateway handlers operate on
type Deps struct {
	Service   *suggestions.Service
	Configs   *guildconfig.Store
	VoteGuard *suggestions.VoteGuard
}

// RegisterAll registers all events with the Discord client
func RegisterAll(client *discord.ExtendedClient, deps Deps) {
	logger.System("📋 Registering bot events...", "Events")

	RegisterMessageEvents(client, deps)
	RegisterReactionEvents(client, deps)
	RegisterGuildEvents(client, deps)

	logger.Success("✅ All events registered", "Events")
}
