package suggest

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/PancyStudios/SuggesterGo/internal/suggestions"
	"github.com/PancyStudios/SuggesterGo/pkg/discord"
)

func createInfoCommand(deps Deps) *discord.Command {
	return discord.NewCommand(
		"info",
		"Show a suggestion's details",
		"suggestions",
		infoHandler(deps),
	).WithAliases("suggestion")
}

func infoHandler(deps Deps) discord.CommandRunFunc {
	return func(ctx *discord.CommandContext) error {
		inv := ctx.Invocation
		if len(inv.Args) < 1 {
			return ctx.ReplyTo("Usage: `info <id | message id | message link>`")
		}

		repo := deps.Service.Repo()
		s, err := repo.Fetch(context.Background(), ctx.Message.GuildID, suggestions.ParseQuery(inv.Arg(0)), true, inv.HasFlag("force"))
		if err != nil {
			return err
		}
		if s == nil {
			return suggestions.ErrSuggestionNotFound
		}
		if s.GuildID != ctx.Message.GuildID {
			return suggestions.ErrGuildScope
		}

		embed := &discordgo.MessageEmbed{
			Title:       fmt.Sprintf("Suggestion %s", s.ShortID()),
			Description: s.CurrentText(),
			Color:       0x3498db,
			Fields: []*discordgo.MessageEmbedField{
				{Name: "Author", Value: fmt.Sprintf("<@%s>", s.AuthorID), Inline: true},
				{Name: "Channel", Value: fmt.Sprintf("<#%s>", s.ChannelID), Inline: true},
				{Name: "Status", Value: string(s.State()), Inline: true},
			},
			Footer: &discordgo.MessageEmbedFooter{Text: s.ID},
		}
		if len(s.Edits) > 0 {
			embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
				Name:  "Edits",
				Value: fmt.Sprintf("%d", len(s.Edits)),
			})
		}
		for _, result := range s.Results {
			embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
				Name:   result.Emoji,
				Value:  fmt.Sprintf("%d", result.Count),
				Inline: true,
			})
		}
		if s.ImageURL != "" {
			embed.Image = &discordgo.MessageEmbedImage{URL: s.ImageURL}
		}

		return ctx.ReplyEmbed(embed)
	}
}
