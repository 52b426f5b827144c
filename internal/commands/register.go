// Package commands provides a registry for organizing bot commands.
// Commands are organized in subdirectories by category.
package commands

import (
	"github.com/PancyStudios/SuggesterGo/internal/auditlog"
	"github.com/PancyStudios/SuggesterGo/internal/commands/staff"
	"github.com/PancyStudios/SuggesterGo/internal/commands/suggest"
	"github.com/PancyStudios/SuggesterGo/internal/guildconfig"
	"github.com/PancyStudios/SuggesterGo/internal/suggestions"
	"github.com/PancyStudios/SuggesterGo/pkg/discord"
)

// Deps are the shared handles every command category draws from
type Deps struct {
	Service  *suggestions.Service
	Configs  *guildconfig.Store
	AuditLog *auditlog.Service
}

// RegisterAll registers all commands with the Discord client
func RegisterAll(client *discord.ExtendedClient, deps Deps) {
	suggest.Register(client, suggest.Deps{
		Service: deps.Service,
		Configs: deps.Configs,
	})

	staff.Register(client, staff.Deps{
		Service:  deps.Service,
		Configs:  deps.Configs,
		AuditLog: deps.AuditLog,
	})
}
