package staff

import (
	"context"
	"fmt"

	"github.com/PancyStudios/SuggesterGo/pkg/discord"
)

func createCountCommand(deps Deps) *discord.Command {
	return discord.NewCommand(
		"count",
		"Show the suggestion counters",
		"staff",
		countHandler(deps),
	).AsStaff()
}

func countHandler(deps Deps) discord.CommandRunFunc {
	return func(ctx *discord.CommandContext) error {
		channelID, _ := targetChannel(ctx, ctx.Invocation.Args)
		repo := deps.Service.Repo()

		channelCount, err := repo.CountForChannel(context.Background(), ctx.Message.GuildID, channelID)
		if err != nil {
			return err
		}
		globalCount, err := repo.GlobalCount(context.Background())
		if err != nil {
			return err
		}

		return ctx.ReplyTo(fmt.Sprintf("📊 <#%s> holds %d suggestions; %d were submitted across all guilds.", channelID, channelCount, globalCount))
	}
}
