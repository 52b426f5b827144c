// Package discord provides the Discord bot client and related structures.
// It wraps discordgo with additional functionality for command and event handling.
package discord

import (
	"fmt"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/PancyStudios/SuggesterGo/pkg/logger"
)

// Note: discordgo.Logger is a function, not an interface
func init() {
	discordgo.Logger = func(msgL int, caller int, format string, a ...interface{}) {
		logger.Info(fmt.Sprintf(format, a...), "DiscordGo")
	}
}

// ExtendedClient wraps discordgo.Session with additional functionality
type ExtendedClient struct {
	Session   *discordgo.Session
	Commands  *CommandCollection
	OwnerID   string
	StartTime time.Time
	mu        sync.RWMutex
	isReady   bool
}

// NewClient creates a new ExtendedClient
func NewClient(token, ownerID string) (*ExtendedClient, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, err
	}

	// Message content and reaction intents carry the whole command and
	// voting surface
	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildMessageReactions |
		discordgo.IntentsGuildMembers |
		discordgo.IntentsMessageContent

	session.ShardCount = 1
	session.SyncEvents = false
	session.StateEnabled = true
	session.LogLevel = discordgo.LogWarning

	return &ExtendedClient{
		Session:  session,
		Commands: NewCommandCollection(),
		OwnerID:  ownerID,
	}, nil
}

// Start opens the gateway connection
func (c *ExtendedClient) Start() error {
	c.Session.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		c.mu.Lock()
		c.isReady = true
		c.mu.Unlock()

		logger.Success("Bot connected as: "+r.User.Username, "Client")
	})

	c.StartTime = time.Now()
	return c.Session.Open()
}

// Stop stops the bot and closes the session
func (c *ExtendedClient) Stop() error {
	c.mu.Lock()
	c.isReady = false
	c.mu.Unlock()

	if c.Session != nil {
		return c.Session.Close()
	}
	return nil
}

// IsReady returns true if the bot is ready
func (c *ExtendedClient) IsReady() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.isReady
}

// GuildCount returns the number of guilds the bot is in
func (c *ExtendedClient) GuildCount() int {
	if c.Session == nil || c.Session.State == nil {
		return 0
	}
	c.Session.State.RLock()
	defer c.Session.State.RUnlock()
	return len(c.Session.State.Guilds)
}

// BotUser returns the bot's own user from the session state
func (c *ExtendedClient) BotUser() *discordgo.User {
	if c.Session == nil || c.Session.State == nil {
		return nil
	}
	return c.Session.State.User
}

// IsOwner reports whether the user id is the configured bot owner
func (c *ExtendedClient) IsOwner(userID string) bool {
	return c.OwnerID != "" && userID == c.OwnerID
}

// Messenger surface. These wrap the REST calls the suggestion lifecycle and
// the audit log need; state lookups prefer the session cache.

// SendMessage sends a plain text message
func (c *ExtendedClient) SendMessage(channelID, content string) (*discordgo.Message, error) {
	return c.Session.ChannelMessageSend(channelID, content)
}

// SendEmbed sends an embed message
func (c *ExtendedClient) SendEmbed(channelID string, embed *discordgo.MessageEmbed) (*discordgo.Message, error) {
	return c.Session.ChannelMessageSendEmbed(channelID, embed)
}

// EditEmbed replaces the embed of an existing message
func (c *ExtendedClient) EditEmbed(channelID, messageID string, embed *discordgo.MessageEmbed) error {
	_, err := c.Session.ChannelMessageEditEmbed(channelID, messageID, embed)
	return err
}

// DeleteMessage deletes a message
func (c *ExtendedClient) DeleteMessage(channelID, messageID string) error {
	return c.Session.ChannelMessageDelete(channelID, messageID)
}

// AddReaction adds the bot's reaction to a message
func (c *ExtendedClient) AddReaction(channelID, messageID, emoji string) error {
	return c.Session.MessageReactionAdd(channelID, messageID, emoji)
}

// RemoveReaction removes a user's reaction from a message
func (c *ExtendedClient) RemoveReaction(channelID, messageID, emoji, userID string) error {
	return c.Session.MessageReactionRemove(channelID, messageID, emoji, userID)
}

// Message fetches a message, preferring the session cache
func (c *ExtendedClient) Message(channelID, messageID string) (*discordgo.Message, error) {
	if msg, err := c.Session.State.Message(channelID, messageID); err == nil {
		return msg, nil
	}
	return c.Session.ChannelMessage(channelID, messageID)
}

// ReactionUsers lists the users who reacted with an emoji
func (c *ExtendedClient) ReactionUsers(channelID, messageID, emoji string) ([]*discordgo.User, error) {
	return c.Session.MessageReactions(channelID, messageID, emoji, 100, "", "")
}

// DM sends a direct message, opening the channel on demand
func (c *ExtendedClient) DM(userID, content string) error {
	channel, err := c.Session.UserChannelCreate(userID)
	if err != nil {
		return err
	}
	_, err = c.Session.ChannelMessageSend(channel.ID, content)
	return err
}

// Guild fetches a guild, preferring the session cache
func (c *ExtendedClient) Guild(guildID string) (*discordgo.Guild, error) {
	if guild, err := c.Session.State.Guild(guildID); err == nil {
		return guild, nil
	}
	return c.Session.Guild(guildID)
}

// GuildRoles lists the live roles of a guild, preferring the session cache
func (c *ExtendedClient) GuildRoles(guildID string) ([]*discordgo.Role, error) {
	if guild, err := c.Session.State.Guild(guildID); err == nil && len(guild.Roles) > 0 {
		return guild.Roles, nil
	}
	return c.Session.GuildRoles(guildID)
}
