// Package events provides event handlers for message events
package events

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/PancyStudios/SuggesterGo/internal/suggestions"
	"github.com/PancyStudios/SuggesterGo/pkg/discord"
	"github.com/PancyStudios/SuggesterGo/pkg/logger"
	"github.com/PancyStudios/SuggesterGo/pkg/models"
)

// RegisterMessageEvents registers all message-related event handlers
func RegisterMessageEvents(client *discord.ExtendedClient, deps Deps) {
	client.Session.AddHandler(onMessageCreate(client, deps))
}

// onMessageCreate dispatches prefix commands and turns plain messages in
// configured suggestion channels into submissions.
func onMessageCreate(client *discord.ExtendedClient, deps Deps) func(*discordgo.Session, *discordgo.MessageCreate) {
	return func(s *discordgo.Session, m *discordgo.MessageCreate) {
		if m.Author == nil || m.Author.Bot || m.GuildID == "" {
			return
		}

		ctx := context.Background()
		cfg, err := deps.Configs.Get(ctx, m.GuildID)
		if err != nil {
			logger.Error("Failed to load the guild configuration: "+err.Error(), "Message")
			return
		}

		prefix := matchPrefix(cfg.Prefixes, m.Content)
		if prefix == "" {
			handleImplicitSuggestion(ctx, deps, cfg, m)
			return
		}

		inv := discord.ParseInvocation(strings.TrimSpace(m.Content[len(prefix):]))
		if inv.Command == "" {
			return
		}

		cmd, ok := client.Commands.Get(inv.Command)
		if !ok {
			return
		}

		cctx := &discord.CommandContext{
			Session:    s,
			Message:    m,
			Client:     client,
			Invocation: inv,
		}

		if cmd.OwnerOnly && !cctx.IsOwner() {
			return
		}
		if cmd.StaffOnly && !isStaff(cctx, cfg) {
			if rerr := cctx.ReplyTo("This command is restricted to staff members."); rerr != nil {
				logger.Debug("Failed to deliver the staff notice", "Message")
			}
			return
		}
		if !cctx.HasPermissions(cmd.UserPermissions) {
			if rerr := cctx.ReplyTo("You are missing the permissions this command requires."); rerr != nil {
				logger.Debug("Failed to deliver the permission notice", "Message")
			}
			return
		}

		if err := cmd.Run(cctx); err != nil {
			replyError(cctx, inv.Command, err)
		}
	}
}

func matchPrefix(prefixes []string, content string) string {
	for _, p := range prefixes {
		if p != "" && strings.HasPrefix(content, p) {
			return p
		}
	}
	return ""
}

func isStaff(ctx *discord.CommandContext, cfg *models.GuildConfig) bool {
	sub := suggestions.Submitter{
		UserID:  ctx.User().ID,
		RoleIDs: ctx.MemberRoleIDs(),
		IsAdmin: ctx.IsAdmin(),
	}
	return sub.IsStaff(cfg)
}

// handleImplicitSuggestion treats a plain message in a configured suggestion
// channel as a submission, like the explicit suggest command.
func handleImplicitSuggestion(ctx context.Context, deps Deps, cfg *models.GuildConfig, m *discordgo.MessageCreate) {
	ch, ok := cfg.Channel(m.ChannelID)
	if !ok || !ch.Kind.AcceptsSuggestions() {
		return
	}

	text := strings.TrimSpace(m.Content)
	if text == "" && len(m.Attachments) == 0 {
		return
	}

	name := m.Author.Username
	if cfg.Flags.AllowNicknames && m.Member != nil && m.Member.Nick != "" {
		name = m.Member.Nick
	}

	isAdmin := false
	var roleIDs []string
	if m.Member != nil {
		roleIDs = m.Member.Roles
		isAdmin = m.Member.Permissions&discordgo.PermissionAdministrator != 0
	}

	req := suggestions.CreateRequest{
		GuildID:         m.GuildID,
		OriginChannelID: m.ChannelID,
		TriggerID:       m.ID,
		Author: suggestions.Submitter{
			UserID:  m.Author.ID,
			RoleIDs: roleIDs,
			IsAdmin: isAdmin,
		},
		AuthorName:      name,
		AuthorAvatarURL: m.Author.AvatarURL("128"),
		Text:            text,
	}
	if len(m.Attachments) > 0 {
		att := m.Attachments[0]
		req.AttachmentURL = att.URL
		req.AttachmentIsImage = strings.HasPrefix(att.ContentType, "image/")
	}

	if _, err := deps.Service.Create(ctx, req); err != nil {
		var denial *suggestions.PolicyDenialError
		if errors.As(err, &denial) {
			return
		}
		logger.Error("Implicit submission failed: "+err.Error(), "Message")
	}
}

// replyError maps the named domain errors onto user-facing messages. Anything
// unexpected is logged and answered generically.
func replyError(ctx *discord.CommandContext, command string, err error) {
	var denial *suggestions.PolicyDenialError

	var msg string
	switch {
	case errors.As(err, &denial):
		// The user has already been told why
		return
	case errors.Is(err, suggestions.ErrSuggestionNotFound):
		msg = "No suggestion matches that id. Use the short id, the full id, the message id or a message link."
	case errors.Is(err, suggestions.ErrNotAuthorized):
		msg = "You are not allowed to do that with this suggestion."
	case errors.Is(err, suggestions.ErrResponseRequired):
		msg = "This guild requires a reason here. Add `--reason=\"...\"`."
	case errors.Is(err, suggestions.ErrGuildScope):
		msg = "That suggestion belongs to another guild."
	case errors.Is(err, suggestions.ErrNoSuggestionChannel):
		msg = "No suggestion channel is configured. An admin can add one with `channel add #channel suggestions`."
	case errors.Is(err, suggestions.ErrChannelNotConfigured):
		msg = "That channel is not configured for suggestions."
	default:
		logger.Error(fmt.Sprintf("Error executing command %s: %v", command, err), "Message")
		msg = "Something went wrong running that command. The error has been logged."
	}

	if rerr := ctx.ReplyTo("⚠️ " + msg); rerr != nil {
		logger.Debug("Failed to deliver the error message", "Message")
	}
}
