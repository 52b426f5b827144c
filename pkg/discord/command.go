// Package discord provides command types and structures.
package discord

import (
	"sync"

	"github.com/bwmarrin/discordgo"
)

// CommandContext provides context for command execution
type CommandContext struct {
	Session *discordgo.Session
	Message *discordgo.MessageCreate
	Client  *ExtendedClient

	// Invocation carries the parsed invocation: positional args and flags
	Invocation *Invocation
}

// Command represents a prefix-triggered text command
type Command struct {
	Name            string
	Description     string
	Category        string
	Aliases         []string
	UserPermissions int64
	StaffOnly       bool
	OwnerOnly       bool
	Run             CommandRunFunc
}

// CommandRunFunc is the function type for command execution
type CommandRunFunc func(ctx *CommandContext) error

// NewCommand creates a new Command with required fields
func NewCommand(name, description, category string, run CommandRunFunc) *Command {
	return &Command{
		Name:        name,
		Description: description,
		Category:    category,
		Run:         run,
	}
}

// WithAliases sets alternative invocation names
func (c *Command) WithAliases(aliases ...string) *Command {
	c.Aliases = aliases
	return c
}

// WithUserPermissions sets required user permissions
func (c *Command) WithUserPermissions(perms int64) *Command {
	c.UserPermissions = perms
	return c
}

// AsStaff marks the command as staff-only
func (c *Command) AsStaff() *Command {
	c.StaffOnly = true
	return c
}

// AsOwner marks the command as owner-only
func (c *Command) AsOwner() *Command {
	c.OwnerOnly = true
	return c
}

// CommandCollection holds registered commands, aliases included
type CommandCollection struct {
	commands map[string]*Command
	aliases  map[string]string
	mu       sync.RWMutex
}

// NewCommandCollection creates a new CommandCollection
func NewCommandCollection() *CommandCollection {
	return &CommandCollection{
		commands: make(map[string]*Command),
		aliases:  make(map[string]string),
	}
}

// Set adds or updates a command and registers its aliases
func (cc *CommandCollection) Set(cmd *Command) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.commands[cmd.Name] = cmd
	for _, alias := range cmd.Aliases {
		cc.aliases[alias] = cmd.Name
	}
}

// Get retrieves a command by name or alias
func (cc *CommandCollection) Get(name string) (*Command, bool) {
	cc.mu.RLock()
	defer cc.mu.RUnlock()
	if cmd, ok := cc.commands[name]; ok {
		return cmd, true
	}
	if canonical, ok := cc.aliases[name]; ok {
		cmd, ok := cc.commands[canonical]
		return cmd, ok
	}
	return nil, false
}

// Size returns the number of commands
func (cc *CommandCollection) Size() int {
	cc.mu.RLock()
	defer cc.mu.RUnlock()
	return len(cc.commands)
}

// All returns all commands
func (cc *CommandCollection) All() map[string]*Command {
	cc.mu.RLock()
	defer cc.mu.RUnlock()
	result := make(map[string]*Command)
	for k, v := range cc.commands {
		result[k] = v
	}
	return result
}

// Reply sends a message to the invoking channel
func (ctx *CommandContext) Reply(content string) error {
	_, err := ctx.Session.ChannelMessageSend(ctx.Message.ChannelID, content)
	return err
}

// ReplyEmbed sends an embed to the invoking channel
func (ctx *CommandContext) ReplyEmbed(embed *discordgo.MessageEmbed) error {
	_, err := ctx.Session.ChannelMessageSendEmbed(ctx.Message.ChannelID, embed)
	return err
}

// ReplyTo sends a message referencing the invoking message
func (ctx *CommandContext) ReplyTo(content string) error {
	_, err := ctx.Session.ChannelMessageSendReply(ctx.Message.ChannelID, content, ctx.Message.Reference())
	return err
}

// Guild returns the guild where the message was sent
func (ctx *CommandContext) Guild() *discordgo.Guild {
	if ctx.Message.GuildID == "" {
		return nil
	}
	guild, _ := ctx.Session.State.Guild(ctx.Message.GuildID)
	return guild
}

// Channel returns the channel where the message was sent
func (ctx *CommandContext) Channel() *discordgo.Channel {
	channel, _ := ctx.Session.State.Channel(ctx.Message.ChannelID)
	return channel
}

// User returns the message author
func (ctx *CommandContext) User() *discordgo.User {
	return ctx.Message.Author
}

// Member returns the guild member who sent the message
func (ctx *CommandContext) Member() *discordgo.Member {
	return ctx.Message.Member
}

// MemberRoleIDs returns the role ids of the invoking member
func (ctx *CommandContext) MemberRoleIDs() []string {
	if ctx.Message.Member == nil {
		return nil
	}
	return ctx.Message.Member.Roles
}

// IsAdmin reports whether the invoking member holds the administrator
// permission or owns the guild
func (ctx *CommandContext) IsAdmin() bool {
	guild := ctx.Guild()
	if guild != nil && guild.OwnerID == ctx.Message.Author.ID {
		return true
	}
	perms, err := ctx.Session.State.MessagePermissions(ctx.Message.Message)
	if err != nil {
		return false
	}
	return perms&discordgo.PermissionAdministrator != 0
}

// HasPermissions reports whether the invoking member holds every required
// permission bit. Administrators and the guild owner always pass.
func (ctx *CommandContext) HasPermissions(required int64) bool {
	if required == 0 {
		return true
	}
	if ctx.IsAdmin() {
		return true
	}
	perms, err := ctx.Session.State.MessagePermissions(ctx.Message.Message)
	if err != nil {
		return false
	}
	return hasAllPermissionBits(perms, required)
}

func hasAllPermissionBits(perms, required int64) bool {
	return perms&required == required
}

// IsOwner reports whether the author is the configured bot owner
func (ctx *CommandContext) IsOwner() bool {
	return ctx.Client.IsOwner(ctx.Message.Author.ID)
}

// DisplayName returns the member's nickname when one is set, the username
// otherwise
func (ctx *CommandContext) DisplayName(allowNickname bool) string {
	if allowNickname && ctx.Message.Member != nil && ctx.Message.Member.Nick != "" {
		return ctx.Message.Member.Nick
	}
	return ctx.Message.Author.Username
}
