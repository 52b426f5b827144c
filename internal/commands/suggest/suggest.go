package suggest

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/PancyStudios/SuggesterGo/internal/suggestions"
	"github.com/PancyStudios/SuggesterGo/pkg/discord"
)

func createSuggestCommand(deps Deps) *discord.Command {
	return discord.NewCommand(
		"suggest",
		"Submit a suggestion",
		"suggestions",
		suggestHandler(deps),
	).WithAliases("s", "sugerir")
}

func suggestHandler(deps Deps) discord.CommandRunFunc {
	return func(ctx *discord.CommandContext) error {
		inv := ctx.Invocation

		// An optional leading channel mention targets a specific channel
		args := inv.Args
		target := ""
		if len(args) > 0 {
			if id := channelMention(args[0]); id != "" {
				target = id
				args = args[1:]
			}
		}

		text := strings.TrimSpace(strings.Join(args, " "))
		if text == "" && len(ctx.Message.Attachments) == 0 {
			return ctx.ReplyTo("Usage: `suggest [#channel] <your suggestion>`")
		}

		cfg, err := deps.Configs.Get(context.Background(), ctx.Message.GuildID)
		if err != nil {
			return err
		}

		req := suggestions.CreateRequest{
			GuildID:         ctx.Message.GuildID,
			OriginChannelID: ctx.Message.ChannelID,
			TargetChannelID: target,
			TriggerID:       ctx.Message.ID,
			Author:          submitter(ctx),
			AuthorName:      ctx.DisplayName(cfg.Flags.AllowNicknames),
			AuthorAvatarURL: ctx.User().AvatarURL("128"),
			Text:            text,
		}
		if len(ctx.Message.Attachments) > 0 {
			att := ctx.Message.Attachments[0]
			req.AttachmentURL = att.URL
			req.AttachmentIsImage = strings.HasPrefix(att.ContentType, "image/")
		}

		s, err := deps.Service.Create(context.Background(), req)
		if err != nil {
			var denial *suggestions.PolicyDenialError
			if errors.As(err, &denial) {
				// The user has already been told why
				return nil
			}
			return err
		}

		if !inv.HasFlag("silent") {
			return ctx.ReplyTo(fmt.Sprintf("✅ Suggestion `%s` submitted to <#%s>.", s.ShortID(), s.ChannelID))
		}
		return nil
	}
}
