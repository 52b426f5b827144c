// Package suggest provides the suggestion lifecycle commands.
package suggest

import (
	"github.com/PancyStudios/SuggesterGo/internal/guildconfig"
	"github.com/PancyStudios/SuggesterGo/internal/suggestions"
	"github.com/PancyStudios/SuggesterGo/pkg/discord"
)

// Deps are the handles the suggestion commands operate on
type Deps struct {
	Service *suggestions.Service
	Configs *guildconfig.Store
}

// Register registers the suggestion lifecycle commands
func Register(client *discord.ExtendedClient, deps Deps) {
	client.Commands.Set(createSuggestCommand(deps))
	client.Commands.Set(createEditCommand(deps))
	client.Commands.Set(createDeleteCommand(deps))
	client.Commands.Set(createApproveCommand(deps))
	client.Commands.Set(createRejectCommand(deps))
	client.Commands.Set(createConsiderCommand(deps))
	client.Commands.Set(createImplementCommand(deps))
	client.Commands.Set(createInfoCommand(deps))
}
