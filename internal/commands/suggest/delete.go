package suggest

import (
	"context"
	"fmt"

	"github.com/PancyStudios/SuggesterGo/internal/suggestions"
	"github.com/PancyStudios/SuggesterGo/pkg/discord"
)

func createDeleteCommand(deps Deps) *discord.Command {
	return discord.NewCommand(
		"delete",
		"Delete a suggestion",
		"suggestions",
		deleteHandler(deps),
	).WithAliases("remove")
}

func deleteHandler(deps Deps) discord.CommandRunFunc {
	return func(ctx *discord.CommandContext) error {
		inv := ctx.Invocation
		if len(inv.Args) < 1 {
			return ctx.ReplyTo("Usage: `delete <id>` (staff: add `--ignore`, add `--reason=\"...\"` when required)")
		}

		_, exec, err := loadExecutor(ctx, deps)
		if err != nil {
			return err
		}

		query := inv.Arg(0)
		if err := deps.Service.Delete(context.Background(), suggestions.DeleteRequest{
			Executor: exec,
			Query:    query,
			Reason:   inv.Flag("reason"),
			Override: inv.HasFlag("ignore"),
			Force:    inv.HasFlag("force"),
			Global:   inv.HasFlag("global"),
		}); err != nil {
			return err
		}

		if !inv.HasFlag("silent") {
			return ctx.ReplyTo(fmt.Sprintf("🗑️ Suggestion `%s` deleted.", query))
		}
		return nil
	}
}
