package staff

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/PancyStudios/SuggesterGo/pkg/discord"
	"github.com/PancyStudios/SuggesterGo/pkg/models"
)

func createPrefixCommand(deps Deps) *discord.Command {
	return discord.NewCommand(
		"prefix",
		"Manage the guild's command prefixes",
		"staff",
		prefixHandler(deps),
	).AsStaff()
}

func prefixHandler(deps Deps) discord.CommandRunFunc {
	return func(ctx *discord.CommandContext) error {
		inv := ctx.Invocation
		cfg, err := deps.Configs.Get(context.Background(), ctx.Message.GuildID)
		if err != nil {
			return err
		}

		switch strings.ToLower(inv.Arg(0)) {
		case "add":
			prefix := inv.Arg(1)
			if prefix == "" || len(prefix) > 5 {
				return ctx.ReplyTo("Usage: `prefix add <prefix>` (up to 5 characters)")
			}
			cfg.AddPrefix(prefix)
			if err := deps.Configs.Save(context.Background(), cfg); err != nil {
				return err
			}
			return ctx.ReplyTo(fmt.Sprintf("✅ Prefix `%s` added.", prefix))

		case "remove":
			prefix := inv.Arg(1)
			if prefix == "" {
				return ctx.ReplyTo("Usage: `prefix remove <prefix>`")
			}
			if err := cfg.RemovePrefix(prefix); err != nil {
				if errors.Is(err, models.ErrLastPrefix) {
					return ctx.ReplyTo("⚠️ That is the only prefix left; a guild always keeps at least one.")
				}
				return err
			}
			if err := deps.Configs.Save(context.Background(), cfg); err != nil {
				return err
			}
			return ctx.ReplyTo(fmt.Sprintf("🗑️ Prefix `%s` removed.", prefix))

		default:
			return ctx.ReplyTo(fmt.Sprintf("Current prefixes: `%s`", strings.Join(cfg.Prefixes, "` `")))
		}
	}
}
