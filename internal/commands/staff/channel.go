package staff

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/PancyStudios/SuggesterGo/internal/suggestions"
	"github.com/PancyStudios/SuggesterGo/pkg/discord"
	"github.com/PancyStudios/SuggesterGo/pkg/models"
)

var channelKinds = map[string]models.ChannelKind{
	"suggestions": models.ChannelKindSuggestions,
	"staff":       models.ChannelKindStaff,
	"logs":        models.ChannelKindLogs,
	"actionlogs":  models.ChannelKindActionLogs,
	"modlogs":     models.ChannelKindModLogs,
}

func createChannelCommand(deps Deps) *discord.Command {
	return discord.NewCommand(
		"channel",
		"Configure suggestion channels: add, remove, list",
		"staff",
		channelHandler(deps),
	).AsStaff()
}

func channelHandler(deps Deps) discord.CommandRunFunc {
	return func(ctx *discord.CommandContext) error {
		inv := ctx.Invocation
		sub := strings.ToLower(inv.Arg(0))
		guildID := ctx.Message.GuildID

		cfg, err := deps.Configs.Get(context.Background(), guildID)
		if err != nil {
			return err
		}

		switch sub {
		case "add":
			channelID, rest := targetChannel(ctx, inv.Args[1:])
			kindName := "suggestions"
			if len(rest) > 0 {
				kindName = strings.ToLower(rest[0])
			}
			kind, ok := channelKinds[kindName]
			if !ok {
				return ctx.ReplyTo("Unknown channel type. Use one of: suggestions, staff, logs, actionlogs, modlogs.")
			}
			if _, exists := cfg.Channel(channelID); exists {
				return ctx.ReplyTo(fmt.Sprintf("<#%s> is already configured.", channelID))
			}
			cfg.Channels = append(cfg.Channels, models.ChannelConfig{
				ChannelID: channelID,
				Kind:      kind,
				Blocked:   models.BlockedRoles{Mode: models.BlockNone},
			})
			if err := deps.Configs.Save(context.Background(), cfg); err != nil {
				return err
			}
			return ctx.ReplyTo(fmt.Sprintf("✅ <#%s> configured as a %s channel.", channelID, kind))

		case "remove":
			channelID, _ := targetChannel(ctx, inv.Args[1:])
			idx := -1
			for i, ch := range cfg.Channels {
				if ch.ChannelID == channelID {
					idx = i
					break
				}
			}
			if idx == -1 {
				return ctx.ReplyTo(fmt.Sprintf("<#%s> is not configured.", channelID))
			}
			cfg.Channels = append(cfg.Channels[:idx], cfg.Channels[idx+1:]...)
			if err := deps.Configs.Save(context.Background(), cfg); err != nil {
				return err
			}
			deps.Service.Runtimes().Evict(channelID)
			return ctx.ReplyTo(fmt.Sprintf("🗑️ <#%s> removed from the configuration.", channelID))

		case "list", "":
			if len(cfg.Channels) == 0 {
				return ctx.ReplyTo("No channels configured yet. Use `channel add #channel <type>`.")
			}
			var b strings.Builder
			b.WriteString("Configured channels:\n")
			for _, ch := range cfg.Channels {
				fmt.Fprintf(&b, "• <#%s>: %s", ch.ChannelID, ch.Kind)
				if ch.Locked {
					b.WriteString(" (locked)")
				}
				if ch.ReviewMode {
					b.WriteString(" (review)")
				}
				b.WriteString("\n")
			}
			return ctx.Reply(b.String())

		default:
			return ctx.ReplyTo("Usage: `channel add #channel <type>`, `channel remove #channel`, `channel list`")
		}
	}
}

func createLockCommand(deps Deps) *discord.Command {
	return discord.NewCommand(
		"lock",
		"Lock a suggestion channel",
		"staff",
		lockHandler(deps, true, "🔒 <#%s> is now locked."),
	).AsStaff()
}

func createUnlockCommand(deps Deps) *discord.Command {
	return discord.NewCommand(
		"unlock",
		"Unlock a suggestion channel",
		"staff",
		lockHandler(deps, false, "🔓 <#%s> is now unlocked."),
	).AsStaff()
}

func lockHandler(deps Deps, locked bool, confirm string) discord.CommandRunFunc {
	return func(ctx *discord.CommandContext) error {
		channelID, _ := targetChannel(ctx, ctx.Invocation.Args)

		rt, err := deps.Service.Runtimes().Get(context.Background(), ctx.Message.GuildID, channelID)
		if err != nil {
			return err
		}
		if err := rt.Lock(context.Background(), locked); err != nil {
			return err
		}
		return ctx.ReplyTo(fmt.Sprintf(confirm, channelID))
	}
}

func createReviewCommand(deps Deps) *discord.Command {
	return discord.NewCommand(
		"review",
		"Toggle review mode on a suggestion channel",
		"staff",
		reviewHandler(deps),
	).AsStaff()
}

func reviewHandler(deps Deps) discord.CommandRunFunc {
	return func(ctx *discord.CommandContext) error {
		inv := ctx.Invocation
		channelID, rest := targetChannel(ctx, inv.Args)

		var on bool
		switch strings.ToLower(strings.Join(rest, "")) {
		case "on", "true", "enable":
			on = true
		case "off", "false", "disable":
			on = false
		default:
			return ctx.ReplyTo("Usage: `review [#channel] on|off`")
		}

		rt, err := deps.Service.Runtimes().Get(context.Background(), ctx.Message.GuildID, channelID)
		if err != nil {
			return err
		}
		if err := rt.SetReviewMode(context.Background(), on); err != nil {
			return err
		}
		if on {
			return ctx.ReplyTo(fmt.Sprintf("📝 Review mode enabled on <#%s>.", channelID))
		}
		return ctx.ReplyTo(fmt.Sprintf("📝 Review mode disabled on <#%s>.", channelID))
	}
}

func createCooldownCommand(deps Deps) *discord.Command {
	return discord.NewCommand(
		"cooldown",
		"Set the submission cooldown of a channel",
		"staff",
		cooldownHandler(deps),
	).AsStaff()
}

func cooldownHandler(deps Deps) discord.CommandRunFunc {
	return func(ctx *discord.CommandContext) error {
		inv := ctx.Invocation
		channelID, rest := targetChannel(ctx, inv.Args)
		if len(rest) < 1 {
			return ctx.ReplyTo("Usage: `cooldown [#channel] <duration|0>` (e.g. `30s`, `5m`, `0` to disable)")
		}

		raw := rest[0]
		var d time.Duration
		if raw != "0" {
			var err error
			d, err = time.ParseDuration(raw)
			if err != nil || d < 0 {
				return ctx.ReplyTo("Invalid duration. Use values like `30s`, `5m`, `1h`, or `0` to disable.")
			}
		}

		rt, err := deps.Service.Runtimes().Get(context.Background(), ctx.Message.GuildID, channelID)
		if err != nil {
			return err
		}
		if err := rt.SetCooldown(context.Background(), d); err != nil {
			return err
		}
		if d == 0 {
			return ctx.ReplyTo(fmt.Sprintf("⏱️ Cooldown disabled on <#%s>.", channelID))
		}
		return ctx.ReplyTo(fmt.Sprintf("⏱️ Cooldown on <#%s> set to %s.", channelID, d))
	}
}

func createEmojisCommand(deps Deps) *discord.Command {
	return discord.NewCommand(
		"emojis",
		"Switch the vote emoji set of a channel",
		"staff",
		emojisHandler(deps),
	).AsStaff()
}

func emojisHandler(deps Deps) discord.CommandRunFunc {
	return func(ctx *discord.CommandContext) error {
		inv := ctx.Invocation
		channelID, rest := targetChannel(ctx, inv.Args)
		if len(rest) < 1 {
			return ctx.ReplyTo("Usage: `emojis [#channel] <set index>`")
		}

		index, err := strconv.Atoi(rest[0])
		if err != nil || index < 0 {
			return ctx.ReplyTo("The emoji set index must be a non-negative number.")
		}

		cfg, err := deps.Configs.Get(context.Background(), ctx.Message.GuildID)
		if err != nil {
			return err
		}
		set, ok := cfg.EmojiSet(index)
		if !ok {
			return ctx.ReplyTo(fmt.Sprintf("No emoji set with index %d exists.", index))
		}

		rt, err := deps.Service.Runtimes().Get(context.Background(), ctx.Message.GuildID, channelID)
		if err != nil {
			return err
		}
		if err := rt.SetEmojis(context.Background(), index); err != nil {
			return err
		}
		return ctx.ReplyTo(fmt.Sprintf("🎭 <#%s> now votes with %s.", channelID, strings.Join(set.Emojis, " ")))
	}
}

func createRolesCommand(deps Deps) *discord.Command {
	return discord.NewCommand(
		"roles",
		"Manage the allowed and blocked roles of a channel",
		"staff",
		rolesHandler(deps),
	).AsStaff()
}

func rolesHandler(deps Deps) discord.CommandRunFunc {
	return func(ctx *discord.CommandContext) error {
		inv := ctx.Invocation
		sub := strings.ToLower(inv.Arg(0))
		channelID, rest := targetChannel(ctx, inv.Args[min(1, len(inv.Args)):])

		rtGet := func() (*suggestions.ChannelRuntime, error) {
			return deps.Service.Runtimes().Get(context.Background(), ctx.Message.GuildID, channelID)
		}

		switch sub {
		case "allow", "block":
			kind := models.RoleListAllowed
			if sub == "block" {
				kind = models.RoleListBlocked
			}
			if len(rest) < 1 {
				return ctx.ReplyTo("Usage: `roles " + sub + " [#channel] @role`")
			}
			roleID := roleMention(rest[0])
			if roleID == "" {
				return ctx.ReplyTo("Mention the role to toggle.")
			}
			role, err := ctx.Session.State.Role(ctx.Message.GuildID, roleID)
			if err != nil {
				return ctx.ReplyTo("That role could not be resolved.")
			}

			rt, err := rtGet()
			if err != nil {
				return err
			}
			added, err := rt.UpdateRole(context.Background(), role, kind, ctx.User().ID)
			if err != nil {
				return err
			}
			verb := "removed from"
			if added {
				verb = "added to"
			}
			return ctx.ReplyTo(fmt.Sprintf("🎚️ <@&%s> %s the %s list of <#%s>.", roleID, verb, kind, channelID))

		case "clear":
			if len(rest) < 1 {
				return ctx.ReplyTo("Usage: `roles clear [#channel] allowed|blocked [--reset]`")
			}
			var kind models.RoleListKind
			switch strings.ToLower(rest[0]) {
			case "allowed":
				kind = models.RoleListAllowed
			case "blocked":
				kind = models.RoleListBlocked
			default:
				return ctx.ReplyTo("Usage: `roles clear [#channel] allowed|blocked [--reset]`")
			}

			rt, err := rtGet()
			if err != nil {
				return err
			}
			reset := inv.HasFlag("reset")
			if kind == models.RoleListAllowed {
				reset = true
			}
			if err := rt.ClearRoles(context.Background(), kind, reset); err != nil {
				return err
			}
			if kind == models.RoleListBlocked && !reset {
				return ctx.ReplyTo(fmt.Sprintf("🚫 <#%s> now blocks every member. Use `--reset` to clear the policy instead.", channelID))
			}
			return ctx.ReplyTo(fmt.Sprintf("🎚️ The %s list of <#%s> was cleared.", kind, channelID))

		default:
			return ctx.ReplyTo("Usage: `roles allow|block [#channel] @role`, `roles clear [#channel] allowed|blocked [--reset]`")
		}
	}
}
