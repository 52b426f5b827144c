package suggestions

import (
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/PancyStudios/SuggesterGo/pkg/models"
)

// GuildProvider fetches guilds for custom emoji resolution
type GuildProvider interface {
	Guild(guildID string) (*discordgo.Guild, error)
}

// resolveEmojiSet turns a configured emoji set into reaction identifiers in
// the REST API format. Custom sets resolve by name against the guild's own
// emoji list; system sets resolve against the dedicated emoji storage guild.
// Emojis that fail to resolve are skipped.
func resolveEmojiSet(set models.EmojiSet, guilds GuildProvider, guildID, emojiGuildID string) []string {
	if !set.Custom && !set.System {
		return set.Emojis
	}

	sourceID := guildID
	if set.System {
		sourceID = emojiGuildID
	}

	guild, err := guilds.Guild(sourceID)
	if err != nil || guild == nil {
		return nil
	}

	byName := make(map[string]*discordgo.Emoji, len(guild.Emojis))
	for _, e := range guild.Emojis {
		byName[e.Name] = e
	}

	var out []string
	for _, name := range set.Emojis {
		if e, ok := byName[name]; ok {
			out = append(out, fmt.Sprintf("%s:%s", e.Name, e.ID))
		}
	}
	return out
}
