package staff

import (
	"context"
	"errors"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/PancyStudios/SuggesterGo/internal/auditlog"
	"github.com/PancyStudios/SuggesterGo/pkg/discord"
)

func createLogDelCommand(deps Deps) *discord.Command {
	return discord.NewCommand(
		"logdel",
		"Remove an audit log entry and its rendered message",
		"staff",
		logDelHandler(deps),
	).WithUserPermissions(discordgo.PermissionAdministrator)
}

func logDelHandler(deps Deps) discord.CommandRunFunc {
	return func(ctx *discord.CommandContext) error {
		inv := ctx.Invocation
		if len(inv.Args) < 1 {
			return ctx.ReplyTo("Usage: `logdel <entry id>`")
		}

		entryID := inv.Arg(0)
		if err := deps.AuditLog.Delete(context.Background(), ctx.Message.GuildID, entryID); err != nil {
			if errors.Is(err, auditlog.ErrEntryNotFound) {
				return ctx.ReplyTo(fmt.Sprintf("No audit entry `%s` exists in this guild.", entryID))
			}
			return err
		}
		return ctx.ReplyTo(fmt.Sprintf("🧹 Audit entry `%s` removed.", entryID))
	}
}
