package suggest

import (
	"context"
	"fmt"

	"github.com/PancyStudios/SuggesterGo/internal/suggestions"
	"github.com/PancyStudios/SuggesterGo/pkg/discord"
)

func createEditCommand(deps Deps) *discord.Command {
	return discord.NewCommand(
		"edit",
		"Edit a suggestion's text",
		"suggestions",
		editHandler(deps),
	)
}

func editHandler(deps Deps) discord.CommandRunFunc {
	return func(ctx *discord.CommandContext) error {
		inv := ctx.Invocation
		if len(inv.Args) < 2 {
			return ctx.ReplyTo("Usage: `edit <id> <new text>` (staff: add `--ignore`, add `--reason=\"...\"` when required)")
		}

		_, exec, err := loadExecutor(ctx, deps)
		if err != nil {
			return err
		}

		edited, err := deps.Service.Edit(context.Background(), suggestions.EditRequest{
			Executor: exec,
			Query:    inv.Arg(0),
			NewText:  inv.Rest(1),
			Reason:   inv.Flag("reason"),
			Override: inv.HasFlag("ignore"),
			Force:    inv.HasFlag("force"),
		})
		if err != nil {
			return err
		}

		if !inv.HasFlag("silent") {
			return ctx.ReplyTo(fmt.Sprintf("✏️ Suggestion `%s` updated.", edited.ShortID()))
		}
		return nil
	}
}
