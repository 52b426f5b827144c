package suggest

import (
	"context"
	"strings"

	"github.com/PancyStudios/SuggesterGo/internal/suggestions"
	"github.com/PancyStudios/SuggesterGo/pkg/discord"
	"github.com/PancyStudios/SuggesterGo/pkg/models"
)

// submitter builds the policy view of the invoking member
func submitter(ctx *discord.CommandContext) suggestions.Submitter {
	return suggestions.Submitter{
		UserID:  ctx.User().ID,
		RoleIDs: ctx.MemberRoleIDs(),
		IsAdmin: ctx.IsAdmin(),
	}
}

// executor builds the authorization view of the invoking member
func executor(ctx *discord.CommandContext, cfg *models.GuildConfig) suggestions.Executor {
	return suggestions.Executor{
		UserID:  ctx.User().ID,
		GuildID: ctx.Message.GuildID,
		IsAdmin: ctx.IsAdmin(),
		IsStaff: submitter(ctx).IsStaff(cfg),
		IsOwner: ctx.IsOwner(),
	}
}

// loadExecutor resolves the guild config and the executor in one step
func loadExecutor(ctx *discord.CommandContext, deps Deps) (*models.GuildConfig, suggestions.Executor, error) {
	cfg, err := deps.Configs.Get(context.Background(), ctx.Message.GuildID)
	if err != nil {
		return nil, suggestions.Executor{}, err
	}
	return cfg, executor(ctx, cfg), nil
}

// channelMention extracts the channel id out of a <#id> mention, empty when
// the token is not a mention
func channelMention(token string) string {
	if strings.HasPrefix(token, "<#") && strings.HasSuffix(token, ">") {
		return token[2 : len(token)-1]
	}
	return ""
}
