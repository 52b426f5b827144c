package suggestions

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/PancyStudios/SuggesterGo/internal/guildconfig"
	"github.com/PancyStudios/SuggesterGo/pkg/logger"
	"github.com/PancyStudios/SuggesterGo/pkg/models"
)

// ErrGuildScope is returned when a record from another guild is targeted
// without global authorization
var ErrGuildScope = errors.New("suggestion belongs to another guild")

// ErrNoSuggestionChannel is returned when a guild has no usable suggestion
// channel for a submission
var ErrNoSuggestionChannel = errors.New("no suggestion channel configured")

// ErrResponseRequired is returned when a command configured as
// response-required runs without a reason
var ErrResponseRequired = errors.New("a reason is required for this command")

// ErrNotAuthorized is returned when the executor may not edit or delete the
// targeted suggestion
var ErrNotAuthorized = errors.New("you are not authorized to do that")

// PolicyDenialError wraps a failed channel-policy check. The denial message
// has already been delivered to the user when this error reaches the caller.
type PolicyDenialError struct {
	Denial *Denial
}

func (e *PolicyDenialError) Error() string {
	return "submission denied: " + string(e.Denial.Reason)
}

// Messenger is the narrow chat REST contract the lifecycle depends on. All
// calls are rate limited upstream.
type Messenger interface {
	SendMessage(channelID, content string) (*discordgo.Message, error)
	SendEmbed(channelID string, embed *discordgo.MessageEmbed) (*discordgo.Message, error)
	EditEmbed(channelID, messageID string, embed *discordgo.MessageEmbed) error
	DeleteMessage(channelID, messageID string) error
	AddReaction(channelID, messageID, emoji string) error
	RemoveReaction(channelID, messageID, emoji, userID string) error
	Message(channelID, messageID string) (*discordgo.Message, error)
	ReactionUsers(channelID, messageID, emoji string) ([]*discordgo.User, error)
	DM(userID, content string) error
}

var imageURLPattern = regexp.MustCompile(`https?://\S+\.(?:png|jpe?g|gif)`)

// Service orchestrates the suggestion lifecycle. It owns no global state;
// construct one at startup and pass it to the handlers that need it.
type Service struct {
	configs   *guildconfig.Store
	repo      *Repository
	runtimes  *RuntimeManager
	messenger Messenger
	guilds    GuildProvider
	sinks     []EventSink

	emojiGuildID string

	// Trigger messages are cleaned up after a grace delay so the user sees
	// the outcome first. The deletes are fire-and-forget; a restart before
	// the delay elapses loses them, which is cosmetic only.
	ConfirmDeleteDelay time.Duration
	DenialDeleteDelay  time.Duration
}

// NewService creates the lifecycle service
func NewService(configs *guildconfig.Store, repo *Repository, runtimes *RuntimeManager, messenger Messenger, guilds GuildProvider, emojiGuildID string, sinks ...EventSink) *Service {
	return &Service{
		configs:            configs,
		repo:               repo,
		runtimes:           runtimes,
		messenger:          messenger,
		guilds:             guilds,
		sinks:              sinks,
		emojiGuildID:       emojiGuildID,
		ConfirmDeleteDelay: 5 * time.Second,
		DenialDeleteDelay:  3 * time.Second,
	}
}

// Runtimes exposes the runtime manager for command handlers
func (s *Service) Runtimes() *RuntimeManager { return s.runtimes }

// Repo exposes the repository for command handlers
func (s *Service) Repo() *Repository { return s.repo }

// CreateRequest describes one submission attempt
type CreateRequest struct {
	GuildID         string
	OriginChannelID string
	TargetChannelID string // explicit channel argument, may be empty
	TriggerID       string // the triggering message, cleaned up afterwards

	Author            Submitter
	AuthorName        string
	AuthorAvatarURL   string
	Text              string
	AttachmentURL     string
	AttachmentIsImage bool
}

// Create runs the full submission flow: resolve the target channel, gate it
// through the channel policy, post the formatted message, attach the vote
// reactions and persist the record. If persistence fails after the message
// was posted, the posted message is rolled back best-effort.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*models.Suggestion, error) {
	cfg, err := s.configs.Get(ctx, req.GuildID)
	if err != nil {
		return nil, err
	}

	channelID, err := s.resolveTargetChannel(cfg, req)
	if err != nil {
		return nil, err
	}

	rt, err := s.runtimes.Get(ctx, req.GuildID, channelID)
	if err != nil {
		return nil, err
	}

	if denial := CanSubmit(req.Author, rt, cfg); denial != nil {
		s.notifyDenial(req, denial)
		return nil, &PolicyDenialError{Denial: denial}
	}

	text, imageURL := splitImageURL(req.Text)
	if req.AttachmentURL != "" {
		if req.AttachmentIsImage && imageURL == "" {
			imageURL = req.AttachmentURL
		} else {
			text = strings.TrimSpace(text + "\n" + req.AttachmentURL)
		}
	}

	record := &models.Suggestion{
		ID:        models.NewID(),
		GuildID:   req.GuildID,
		ChannelID: channelID,
		AuthorID:  req.Author.UserID,
		Text:      text,
		ImageURL:  imageURL,
		CreatedAt: time.Now(),
		StatusUpdates: []models.StatusUpdate{{
			State:     models.StatePending,
			UpdatedBy: req.Author.UserID,
			Timestamp: time.Now(),
		}},
	}

	embed := suggestionEmbed(record, req.AuthorName, req.AuthorAvatarURL)
	posted, err := s.messenger.SendEmbed(channelID, embed)
	if err != nil {
		return nil, fmt.Errorf("suggestions: post message: %w", err)
	}
	record.MessageID = posted.ID

	s.attachReactions(cfg, rt, channelID, posted.ID)

	persisted, err := s.repo.Add(ctx, record)
	if err != nil {
		// Roll back the posted message so no orphan survives a failed write
		if derr := s.messenger.DeleteMessage(channelID, posted.ID); derr != nil {
			logger.Error("Failed to roll back posted suggestion message: "+derr.Error(), "Suggestions")
		}
		return nil, err
	}

	rt.IncrementCount()
	if rt.Cooldown() > 0 && !rt.HasCooldownEntry(req.Author.UserID) {
		rt.StartCooldown(req.Author.UserID)
	}

	emit(ctx, s.sinks, Event{
		Type:       EventCreated,
		Suggestion: persisted,
		ExecutorID: req.Author.UserID,
		After:      persisted.Text,
		Timestamp:  time.Now(),
	})

	s.deleteLater(req.OriginChannelID, req.TriggerID, s.ConfirmDeleteDelay)

	return persisted, nil
}

// resolveTargetChannel picks the channel a submission goes to: the explicit
// argument when given, the single configured channel when only one exists,
// otherwise the channel the trigger was sent in.
func (s *Service) resolveTargetChannel(cfg *models.GuildConfig, req CreateRequest) (string, error) {
	suggestionChannels := cfg.ChannelsOfKind(models.ChannelKindSuggestions)
	staffChannels := cfg.ChannelsOfKind(models.ChannelKindStaff)

	if req.TargetChannelID != "" {
		if _, ok := cfg.Channel(req.TargetChannelID); !ok {
			return "", ErrNoSuggestionChannel
		}
		return req.TargetChannelID, nil
	}

	if len(suggestionChannels) == 1 && len(staffChannels) == 0 {
		return suggestionChannels[0].ChannelID, nil
	}

	if _, ok := cfg.Channel(req.OriginChannelID); ok {
		return req.OriginChannelID, nil
	}

	if len(suggestionChannels) > 0 {
		return suggestionChannels[0].ChannelID, nil
	}

	return "", ErrNoSuggestionChannel
}

func (s *Service) notifyDenial(req CreateRequest, denial *Denial) {
	if _, err := s.messenger.SendMessage(req.OriginChannelID, fmt.Sprintf("<@%s> %s", req.Author.UserID, denial.Message())); err != nil {
		logger.Warn("Failed to deliver denial message: "+err.Error(), "Suggestions")
	}
	// Delayed rather than immediate so the user sees the reason
	s.deleteLater(req.OriginChannelID, req.TriggerID, s.DenialDeleteDelay)
}

func (s *Service) attachReactions(cfg *models.GuildConfig, rt *ChannelRuntime, channelID, messageID string) {
	set, ok := cfg.EmojiSet(rt.EmojiSetIndex())
	if !ok {
		set = cfg.DefaultEmojiSet()
	}

	for _, emoji := range resolveEmojiSet(set, s.guilds, rt.GuildID(), s.emojiGuildID) {
		if err := s.messenger.AddReaction(channelID, messageID, emoji); err != nil {
			logger.Debug("Skipping unresolvable reaction "+emoji, "Suggestions")
		}
	}
}

func (s *Service) deleteLater(channelID, messageID string, delay time.Duration) {
	if messageID == "" {
		return
	}
	time.AfterFunc(delay, func() {
		if err := s.messenger.DeleteMessage(channelID, messageID); err != nil {
			logger.Debug("Delayed cleanup failed for message "+messageID, "Suggestions")
		}
	})
}

// Executor describes who is running an edit/delete/status command
type Executor struct {
	UserID  string
	GuildID string
	IsAdmin bool
	IsStaff bool
	IsOwner bool
}

// EditRequest describes an edit attempt
type EditRequest struct {
	Executor Executor
	Query    string
	NewText  string
	Reason   string
	Override bool // staff override flag (--ignore)
	Force    bool // admin force flag (--force), bypasses reason requirements
}

// Edit rewrites a suggestion's text, appending to its edit history and
// updating the live message.
func (s *Service) Edit(ctx context.Context, req EditRequest) (*models.Suggestion, error) {
	cfg, err := s.configs.Get(ctx, req.Executor.GuildID)
	if err != nil {
		return nil, err
	}

	record, err := s.resolveRecord(ctx, req.Executor, req.Query, false)
	if err != nil {
		return nil, err
	}

	if !s.mayModify(cfg, req.Executor, record, cfg.Flags.UserSelfEdit, cfg.Flags.StaffCanEdit, req.Override, req.Force) {
		return nil, ErrNotAuthorized
	}

	if cfg.RequiresResponse("edit") && req.Reason == "" && !req.Force {
		return nil, ErrResponseRequired
	}

	before := record.CurrentText()
	record.Edits = append(record.Edits, models.SuggestionEdit{
		EditedText: req.NewText,
		EditedBy:   req.Executor.UserID,
		Reason:     req.Reason,
		EditedAt:   time.Now(),
	})

	persisted, err := s.repo.Update(ctx, record)
	if err != nil {
		return nil, err
	}

	embed := suggestionEmbed(persisted, "", "")
	if err := s.messenger.EditEmbed(persisted.ChannelID, persisted.MessageID, embed); err != nil {
		logger.Error("Failed to update the live suggestion message: "+err.Error(), "Suggestions")
	}

	emit(ctx, s.sinks, Event{
		Type:       EventEdited,
		Suggestion: persisted,
		ExecutorID: req.Executor.UserID,
		Reason:     req.Reason,
		Before:     before,
		After:      req.NewText,
		Timestamp:  time.Now(),
	})

	return persisted, nil
}

// DeleteRequest describes a delete attempt
type DeleteRequest struct {
	Executor Executor
	Query    string
	Reason   string
	Override bool
	Force    bool
	Global   bool // owner-only cross-guild scope flag (--global)
}

// Delete removes a suggestion: the backing message (best-effort), the store
// row, the cache entry and the five denormalized counters, then notifies the
// author via DM (best-effort).
func (s *Service) Delete(ctx context.Context, req DeleteRequest) error {
	cfg, err := s.configs.Get(ctx, req.Executor.GuildID)
	if err != nil {
		return err
	}

	record, err := s.resolveRecord(ctx, req.Executor, req.Query, req.Global)
	if err != nil {
		return err
	}

	if !s.mayModify(cfg, req.Executor, record, cfg.Flags.UserSelfDelete, cfg.Flags.StaffCanDelete, req.Override, req.Force) {
		return ErrNotAuthorized
	}

	if cfg.RequiresResponse("delete") && req.Reason == "" && !req.Force {
		return ErrResponseRequired
	}

	if err := s.messenger.DeleteMessage(record.ChannelID, record.MessageID); err != nil {
		// The message may already be gone; the record removal still proceeds
		logger.Debug("Backing message for "+record.ShortID()+" was not deletable", "Suggestions")
	}

	if err := s.repo.Delete(ctx, record); err != nil {
		return err
	}

	if rt, ok := s.runtimes.Peek(record.ChannelID); ok {
		rt.DecrementCount()
	}

	emit(ctx, s.sinks, Event{
		Type:       EventDeleted,
		Suggestion: record,
		ExecutorID: req.Executor.UserID,
		Reason:     req.Reason,
		Before:     record.CurrentText(),
		Timestamp:  time.Now(),
	})

	if err := s.messenger.DM(record.AuthorID, fmt.Sprintf("Your suggestion `%s` was deleted.", record.ShortID())); err != nil {
		// Users with closed DMs are expected; never block on this
		logger.Debug("Could not DM the author of "+record.ShortID(), "Suggestions")
	}

	return nil
}

// StatusRequest describes a status transition attempt
type StatusRequest struct {
	Executor Executor
	Query    string
	State    models.SuggestionState
	Response string
}

// SetStatus records a terminal status transition, snapshotting the live
// reaction counts and voters at decision time.
func (s *Service) SetStatus(ctx context.Context, req StatusRequest) (*models.Suggestion, error) {
	record, err := s.resolveRecord(ctx, req.Executor, req.Query, false)
	if err != nil {
		return nil, err
	}

	if record.State().IsTerminal() {
		return nil, fmt.Errorf("suggestion %s is already %s", record.ShortID(), record.State())
	}

	record.Results, record.Voted = s.snapshotVotes(record)
	record.StatusUpdates = append(record.StatusUpdates, models.StatusUpdate{
		State:     req.State,
		Response:  req.Response,
		UpdatedBy: req.Executor.UserID,
		Timestamp: time.Now(),
	})

	persisted, err := s.repo.Update(ctx, record)
	if err != nil {
		return nil, err
	}

	embed := suggestionEmbed(persisted, "", "")
	embed.Color = stateColor(req.State)
	embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
		Name:  "Status",
		Value: string(req.State),
	})
	if req.Response != "" {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  "Response",
			Value: req.Response,
		})
	}
	if err := s.messenger.EditEmbed(persisted.ChannelID, persisted.MessageID, embed); err != nil {
		logger.Error("Failed to update the decided suggestion message: "+err.Error(), "Suggestions")
	}

	emit(ctx, s.sinks, Event{
		Type:       EventStatusChanged,
		Suggestion: persisted,
		ExecutorID: req.Executor.UserID,
		Reason:     req.Response,
		After:      string(req.State),
		Timestamp:  time.Now(),
	})

	return persisted, nil
}

// snapshotVotes reads the live reaction state off the posted message. Vote
// tallies are captured at decision time, never synced continuously.
func (s *Service) snapshotVotes(record *models.Suggestion) ([]models.VoteResult, []models.VoterList) {
	msg, err := s.messenger.Message(record.ChannelID, record.MessageID)
	if err != nil || msg == nil {
		return nil, nil
	}

	var results []models.VoteResult
	var voted []models.VoterList
	for _, reaction := range msg.Reactions {
		emoji := reaction.Emoji.APIName()
		results = append(results, models.VoteResult{Emoji: emoji, Count: reaction.Count})

		users, err := s.messenger.ReactionUsers(record.ChannelID, record.MessageID, emoji)
		if err != nil {
			continue
		}
		list := models.VoterList{Emoji: emoji}
		for _, u := range users {
			if !u.Bot {
				list.VoterIDs = append(list.VoterIDs, u.ID)
			}
		}
		voted = append(voted, list)
	}
	return results, voted
}

// resolveRecord parses and executes a lookup, enforcing the guild scope:
// records from other guilds require the owner with the global flag.
func (s *Service) resolveRecord(ctx context.Context, exec Executor, rawQuery string, global bool) (*models.Suggestion, error) {
	record, err := s.repo.Fetch(ctx, exec.GuildID, ParseQuery(rawQuery), true, false)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, ErrSuggestionNotFound
	}

	if record.GuildID != exec.GuildID && !(global && exec.IsOwner) {
		return nil, ErrGuildScope
	}

	return record, nil
}

// mayModify implements the shared edit/delete authorization: the author when
// self-service is enabled, staff with the explicit override flag when the
// staff toggle is enabled, and admins/owners with force.
func (s *Service) mayModify(cfg *models.GuildConfig, exec Executor, record *models.Suggestion, selfToggle, staffToggle, override, force bool) bool {
	if force && (exec.IsAdmin || exec.IsOwner) {
		return true
	}
	if exec.UserID == record.AuthorID {
		return selfToggle
	}
	if exec.IsStaff && staffToggle && override {
		return true
	}
	return false
}

// splitImageURL strips the first embedded image URL out of the text so it
// can be rendered as a dedicated image
func splitImageURL(text string) (string, string) {
	url := imageURLPattern.FindString(text)
	if url == "" {
		return strings.TrimSpace(text), ""
	}
	cleaned := strings.TrimSpace(strings.Replace(text, url, "", 1))
	return cleaned, url
}

func stateColor(state models.SuggestionState) int {
	switch state {
	case models.StateApproved, models.StateImplemented:
		return 0x2ecc71
	case models.StateRejected:
		return 0xe74c3c
	case models.StateConsidered:
		return 0xf1c40f
	default:
		return 0x3498db
	}
}

// suggestionEmbed renders the posted suggestion message
func suggestionEmbed(s *models.Suggestion, authorName, authorAvatarURL string) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Description: s.CurrentText(),
		Color:       0x3498db,
		Timestamp:   s.CreatedAt.Format(time.RFC3339),
		Footer: &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("Suggestion %s • %s", s.ShortID(), s.AuthorID),
		},
	}
	if authorName != "" {
		embed.Author = &discordgo.MessageEmbedAuthor{
			Name:    authorName,
			IconURL: authorAvatarURL,
		}
	}
	if s.ImageURL != "" {
		embed.Image = &discordgo.MessageEmbedImage{URL: s.ImageURL}
	}
	return embed
}
