// Package auditlog records suggestion moderation activity as append-only
// entries and renders them to the guild's configured log channels.
package auditlog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/PancyStudios/SuggesterGo/internal/guildconfig"
	"github.com/PancyStudios/SuggesterGo/internal/suggestions"
	"github.com/PancyStudios/SuggesterGo/pkg/logger"
	"github.com/PancyStudios/SuggesterGo/pkg/models"
)

// ErrEntryNotFound is returned when a correction targets a missing entry
var ErrEntryNotFound = errors.New("audit entry not found")

// ErrNoActionLogChannel is returned when a guild has no action log channel
var ErrNoActionLogChannel = errors.New("no action log channel configured")

// ErrNoModLogChannel is returned when a guild has no moderation log channel
var ErrNoModLogChannel = errors.New("no moderation log channel configured")

// Docs is the narrow document-store contract of the audit log.
// database.DataManager[models.AuditEntry] satisfies it.
type Docs interface {
	Get(query bson.M) (*models.AuditEntry, error)
	Set(query bson.M, data interface{}) (*models.AuditEntry, error)
	Delete(query bson.M) error
}

// Messenger is the chat surface the audit log renders to
type Messenger interface {
	SendEmbed(channelID string, embed *discordgo.MessageEmbed) (*discordgo.Message, error)
	DeleteMessage(channelID, messageID string) error
}

// Service persists audit entries and mirrors them into the guild's log
// channels. It consumes suggestion lifecycle events as an event sink.
type Service struct {
	docs      Docs
	configs   *guildconfig.Store
	messenger Messenger
}

// NewService creates an audit log service
func NewService(docs Docs, configs *guildconfig.Store, messenger Messenger) *Service {
	return &Service{docs: docs, configs: configs, messenger: messenger}
}

func actionFor(t suggestions.EventType) models.AuditAction {
	switch t {
	case suggestions.EventCreated:
		return models.ActionSuggestionCreated
	case suggestions.EventEdited:
		return models.ActionSuggestionEdited
	case suggestions.EventDeleted:
		return models.ActionSuggestionDeleted
	default:
		return models.ActionStatusChanged
	}
}

// destinationKind routes entries: deletions go to the moderation log, all
// other activity to the action log.
func destinationKind(action models.AuditAction) models.ChannelKind {
	if action == models.ActionSuggestionDeleted {
		return models.ChannelKindModLogs
	}
	return models.ChannelKindActionLogs
}

// HandleSuggestionEvent implements suggestions.EventSink. The entry is
// persisted first; rendering to the log channel is best-effort and a guild
// without log channels is not an error.
func (s *Service) HandleSuggestionEvent(ctx context.Context, ev suggestions.Event) error {
	entry := &models.AuditEntry{
		ID:         models.NewID(),
		GuildID:    ev.Suggestion.GuildID,
		ChannelID:  ev.Suggestion.ChannelID,
		ExecutorID: ev.ExecutorID,
		TargetID:   ev.Suggestion.ID,
		Action:     actionFor(ev.Type),
		CreatedAt:  ev.Timestamp,
	}
	if ev.Before != "" || ev.After != "" {
		entry.Changes = []models.AuditChange{{
			Key:    changeKeyFor(ev.Type),
			Before: ev.Before,
			After:  ev.After,
		}}
	}
	if ev.Reason != "" {
		entry.Changes = append(entry.Changes, models.AuditChange{Key: "reason", After: ev.Reason})
	}

	return s.Append(ctx, entry, ev.Suggestion)
}

func changeKeyFor(t suggestions.EventType) string {
	if t == suggestions.EventStatusChanged {
		return "status"
	}
	return "text"
}

// Append persists an entry and renders it into the destination log channel.
// The rendered message id is written back onto the stored entry so the
// correction path can remove it later.
func (s *Service) Append(ctx context.Context, entry *models.AuditEntry, target *models.Suggestion) error {
	if _, err := s.docs.Set(bson.M{"entryId": entry.ID}, entry); err != nil {
		return fmt.Errorf("auditlog: append %s: %w", entry.ShortID(), err)
	}

	msgID, err := s.render(ctx, entry, target)
	if err != nil {
		if errors.Is(err, ErrNoActionLogChannel) || errors.Is(err, ErrNoModLogChannel) {
			return nil
		}
		logger.Warn("Failed to render audit entry "+entry.ShortID()+": "+err.Error(), "AuditLog")
		return nil
	}

	entry.MessageID = msgID
	if _, err := s.docs.Set(bson.M{"entryId": entry.ID}, entry); err != nil {
		logger.Warn("Failed to record the rendered message for "+entry.ShortID(), "AuditLog")
	}
	return nil
}

func (s *Service) render(ctx context.Context, entry *models.AuditEntry, target *models.Suggestion) (string, error) {
	cfg, err := s.configs.Get(ctx, entry.GuildID)
	if err != nil {
		return "", err
	}

	kind := destinationKind(entry.Action)
	channels := cfg.ChannelsOfKind(kind)
	if len(channels) == 0 {
		if kind == models.ChannelKindModLogs {
			return "", ErrNoModLogChannel
		}
		return "", ErrNoActionLogChannel
	}

	msg, err := s.messenger.SendEmbed(channels[0].ChannelID, renderEmbed(entry, target))
	if err != nil {
		return "", err
	}
	return msg.ID, nil
}

// Delete is the admin correction path: it removes the rendered log message
// and the stored entry. The entry id may be a long or a short id.
func (s *Service) Delete(ctx context.Context, guildID, entryID string) error {
	query := bson.M{"guildId": guildID}
	if len(entryID) == 40 {
		query["entryId"] = entryID
	} else {
		query["entryId"] = primitive.Regex{Pattern: entryID + "$", Options: "i"}
	}

	entry, err := s.docs.Get(query)
	if err != nil {
		return fmt.Errorf("auditlog: lookup %s: %w", entryID, err)
	}
	if entry == nil {
		return ErrEntryNotFound
	}

	if entry.MessageID != "" {
		cfg, err := s.configs.Get(ctx, guildID)
		if err == nil {
			if channels := cfg.ChannelsOfKind(destinationKind(entry.Action)); len(channels) > 0 {
				if derr := s.messenger.DeleteMessage(channels[0].ChannelID, entry.MessageID); derr != nil {
					logger.Debug("Rendered audit message "+entry.MessageID+" was not deletable", "AuditLog")
				}
			}
		}
	}

	if err := s.docs.Delete(bson.M{"entryId": entry.ID}); err != nil {
		return fmt.Errorf("auditlog: delete %s: %w", entry.ShortID(), err)
	}
	return nil
}

func actionColor(action models.AuditAction) int {
	switch action {
	case models.ActionSuggestionCreated:
		return 0x2ecc71
	case models.ActionSuggestionEdited:
		return 0xf1c40f
	case models.ActionSuggestionDeleted:
		return 0xe74c3c
	default:
		return 0x3498db
	}
}

// renderEmbed builds the log channel representation of an entry. The footer
// carries the raw suggestion author id so the entry stays attributable when
// the member leaves the guild.
func renderEmbed(entry *models.AuditEntry, target *models.Suggestion) *discordgo.MessageEmbed {
	footerID := entry.ExecutorID
	if target != nil {
		footerID = target.AuthorID
	}

	embed := &discordgo.MessageEmbed{
		Title:     string(entry.Action),
		Color:     actionColor(entry.Action),
		Timestamp: entry.CreatedAt.Format(time.RFC3339),
		Footer: &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("Entry %s • Author %s", entry.ShortID(), footerID),
		},
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Channel", Value: fmt.Sprintf("<#%s>", entry.ChannelID), Inline: true},
			{Name: "Executor", Value: fmt.Sprintf("<@%s>", entry.ExecutorID), Inline: true},
		},
	}

	if target != nil {
		embed.Fields = append(embed.Fields,
			&discordgo.MessageEmbedField{Name: "Author", Value: fmt.Sprintf("<@%s>", target.AuthorID), Inline: true},
			&discordgo.MessageEmbedField{Name: "Suggestion ID", Value: fmt.Sprintf("[`%s`](https://discord.com/channels/%s/%s/%s) (`%s`)", target.ShortID(), target.GuildID, target.ChannelID, target.MessageID, target.ID), Inline: true},
		)
	}

	for _, change := range entry.Changes {
		value := change.After
		if change.Before != "" {
			value = fmt.Sprintf("**Before:** %s\n**After:** %s", change.Before, change.After)
		}
		if value == "" {
			continue
		}
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  change.Key,
			Value: value,
		})
	}

	return embed
}
