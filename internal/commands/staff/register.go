// Package staff provides the channel management and moderation commands.
package staff

import (
	"strings"

	"github.com/PancyStudios/SuggesterGo/internal/auditlog"
	"github.com/PancyStudios/SuggesterGo/internal/guildconfig"
	"github.com/PancyStudios/SuggesterGo/internal/suggestions"
	"github.com/PancyStudios/SuggesterGo/pkg/discord"
)

// Deps are the handles the staff commands operate on
type Deps struct {
	Service  *suggestions.Service
	Configs  *guildconfig.Store
	AuditLog *auditlog.Service
}

// Register registers the staff and admin commands
func Register(client *discord.ExtendedClient, deps Deps) {
	client.Commands.Set(createChannelCommand(deps))
	client.Commands.Set(createLockCommand(deps))
	client.Commands.Set(createUnlockCommand(deps))
	client.Commands.Set(createReviewCommand(deps))
	client.Commands.Set(createCooldownCommand(deps))
	client.Commands.Set(createEmojisCommand(deps))
	client.Commands.Set(createRolesCommand(deps))
	client.Commands.Set(createPrefixCommand(deps))
	client.Commands.Set(createCountCommand(deps))
	client.Commands.Set(createLogDelCommand(deps))
}

// roleMention extracts the role id out of a <@&id> mention, empty when the
// token is not a mention
func roleMention(token string) string {
	if strings.HasPrefix(token, "<@&") && strings.HasSuffix(token, ">") {
		return token[3 : len(token)-1]
	}
	return ""
}

// channelMention extracts the channel id out of a <#id> mention, empty when
// the token is not a mention
func channelMention(token string) string {
	if strings.HasPrefix(token, "<#") && strings.HasSuffix(token, ">") {
		return token[2 : len(token)-1]
	}
	return ""
}

// targetChannel resolves the optional leading channel mention, falling back
// to the invoking channel. It returns the remaining args.
func targetChannel(ctx *discord.CommandContext, args []string) (string, []string) {
	if len(args) > 0 {
		if id := channelMention(args[0]); id != "" {
			return id, args[1:]
		}
	}
	return ctx.Message.ChannelID, args
}
