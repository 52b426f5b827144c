package suggest

import (
	"context"
	"fmt"

	"github.com/PancyStudios/SuggesterGo/internal/suggestions"
	"github.com/PancyStudios/SuggesterGo/pkg/discord"
	"github.com/PancyStudios/SuggesterGo/pkg/models"
)

func createApproveCommand(deps Deps) *discord.Command {
	return discord.NewCommand(
		"approve",
		"Approve a pending suggestion",
		"suggestions",
		statusHandler(deps, models.StateApproved, "✅ Suggestion `%s` approved."),
	).AsStaff()
}

func createRejectCommand(deps Deps) *discord.Command {
	return discord.NewCommand(
		"reject",
		"Reject a pending suggestion",
		"suggestions",
		statusHandler(deps, models.StateRejected, "❌ Suggestion `%s` rejected."),
	).WithAliases("deny").AsStaff()
}

func createConsiderCommand(deps Deps) *discord.Command {
	return discord.NewCommand(
		"consider",
		"Mark a pending suggestion as considered",
		"suggestions",
		statusHandler(deps, models.StateConsidered, "🤔 Suggestion `%s` marked as considered."),
	).AsStaff()
}

func createImplementCommand(deps Deps) *discord.Command {
	return discord.NewCommand(
		"implement",
		"Mark a pending suggestion as implemented",
		"suggestions",
		statusHandler(deps, models.StateImplemented, "🚀 Suggestion `%s` marked as implemented."),
	).AsStaff()
}

// statusHandler is the shared decision flow: all four terminal transitions
// differ only in the target state and the confirmation text.
func statusHandler(deps Deps, state models.SuggestionState, confirm string) discord.CommandRunFunc {
	return func(ctx *discord.CommandContext) error {
		inv := ctx.Invocation
		if len(inv.Args) < 1 {
			return ctx.ReplyTo("Usage: `" + inv.Command + " <id> [response text]`")
		}

		_, exec, err := loadExecutor(ctx, deps)
		if err != nil {
			return err
		}

		decided, err := deps.Service.SetStatus(context.Background(), suggestions.StatusRequest{
			Executor: exec,
			Query:    inv.Arg(0),
			State:    state,
			Response: inv.Rest(1),
		})
		if err != nil {
			return err
		}

		if !inv.HasFlag("silent") {
			return ctx.ReplyTo(fmt.Sprintf(confirm, decided.ShortID()))
		}
		return nil
	}
}
