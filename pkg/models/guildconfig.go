package models

import (
	"errors"
	"strings"
)

// ErrLastPrefix is returned when a mutation would leave a guild without any
// command prefix
var ErrLastPrefix = errors.New("cannot remove the last prefix")

// ChannelKind tags what a configured channel is used for
type ChannelKind string

const (
	ChannelKindSuggestions ChannelKind = "suggestions"
	ChannelKindStaff       ChannelKind = "staff"
	ChannelKindLogs        ChannelKind = "logs"
	ChannelKindActionLogs  ChannelKind = "actionlogs"
	ChannelKindModLogs     ChannelKind = "modlogs"
)

// AcceptsSuggestions reports whether suggestions may be posted to this kind
// of channel at all
func (k ChannelKind) AcceptsSuggestions() bool {
	return k == ChannelKindSuggestions || k == ChannelKindStaff
}

// RoleListKind selects the allowed or the blocked role list of a channel
type RoleListKind string

const (
	RoleListAllowed RoleListKind = "allowed"
	RoleListBlocked RoleListKind = "blocked"
)

// ChannelRole is a role reference with provenance
type ChannelRole struct {
	RoleID  string `bson:"roleId" json:"roleId"`
	AddedBy string `bson:"addedBy,omitempty" json:"addedBy,omitempty"`
}

// BlockMode distinguishes the three blocked-role states of a channel
type BlockMode string

const (
	BlockNone  BlockMode = "none"
	BlockRoles BlockMode = "roles"
	BlockAll   BlockMode = "all"
)

// BlockedRoles models the blocked-role policy of a channel. "Nobody blocked",
// "these roles blocked" and "everybody blocked" are distinct states.
type BlockedRoles struct {
	Mode  BlockMode     `bson:"mode" json:"mode"`
	Roles []ChannelRole `bson:"roles,omitempty" json:"roles,omitempty"`
}

// BlocksAll reports whether the channel blocks every member
func (b BlockedRoles) BlocksAll() bool {
	return b.Mode == BlockAll
}

// IsEmpty reports whether no block policy is active
func (b BlockedRoles) IsEmpty() bool {
	return b.Mode == BlockNone || (b.Mode == BlockRoles && len(b.Roles) == 0)
}

// ChannelConfig is the persisted per-channel policy inside a GuildConfig
type ChannelConfig struct {
	ChannelID      string        `bson:"channelId" json:"channelId"`
	Kind           ChannelKind   `bson:"type" json:"type"`
	Allowed        []ChannelRole `bson:"allowed,omitempty" json:"allowed,omitempty"`
	Blocked        BlockedRoles  `bson:"blocked" json:"blocked"`
	EmojiSetIndex  int           `bson:"emojiSetIndex" json:"emojiSetIndex"`
	CooldownMillis int64         `bson:"cooldownMs,omitempty" json:"cooldownMs,omitempty"`
	Locked         bool          `bson:"locked" json:"locked"`
	ReviewMode     bool          `bson:"reviewMode" json:"reviewMode"`
}

// EmojiSet is a configured vote reaction set. Index 0 always resolves to the
// bundled default set and cannot be removed.
type EmojiSet struct {
	Index   int      `bson:"index" json:"index"`
	Emojis  []string `bson:"emojis" json:"emojis"`
	Custom  bool     `bson:"custom" json:"custom"`
	System  bool     `bson:"system" json:"system"`
	AddedBy string   `bson:"addedBy,omitempty" json:"addedBy,omitempty"`
}

// BuiltinEmojiSets are the bundled vote reaction sets available to every guild
var BuiltinEmojiSets = []EmojiSet{
	{Index: 0, Emojis: []string{"✅", "❌"}},
	{Index: 1, Emojis: []string{"👍", "👎"}},
	{Index: 2, Emojis: []string{"⬆️", "🔁", "⬇️"}},
}

// GuildFlags are the per-guild toggle switches the suggestion core reads
type GuildFlags struct {
	RestrictVoting bool `bson:"restrictVoting" json:"restrictVoting"`
	SelfVoting     bool `bson:"selfVoting" json:"selfVoting"`
	UniqueVoting   bool `bson:"uniqueVoting" json:"uniqueVoting"`
	StaffCanDelete bool `bson:"staffCanDelete" json:"staffCanDelete"`
	StaffCanEdit   bool `bson:"staffCanEdit" json:"staffCanEdit"`
	UserSelfDelete bool `bson:"userSelfDelete" json:"userSelfDelete"`
	UserSelfEdit   bool `bson:"userSelfEdit" json:"userSelfEdit"`
	AllowNicknames bool `bson:"allowNicknames" json:"allowNicknames"`
}

// GuildConfig is the per-guild configuration document. One exists per guild;
// it is created lazily with defaults on first access.
type GuildConfig struct {
	GuildID           string          `bson:"guildId" json:"guildId"`
	Prefixes          []string        `bson:"prefixes" json:"prefixes"`
	Locale            string          `bson:"locale" json:"locale"`
	Channels          []ChannelConfig `bson:"channels,omitempty" json:"channels,omitempty"`
	StaffRoles        []string        `bson:"staffRoles,omitempty" json:"staffRoles,omitempty"`
	EmojiSets         []EmojiSet      `bson:"emojiSets,omitempty" json:"emojiSets,omitempty"`
	DefaultEmojiIndex int             `bson:"defaultEmojiIndex" json:"defaultEmojiIndex"`
	Flags             GuildFlags      `bson:"flags" json:"flags"`
	ResponseRequired  []string        `bson:"responseRequired,omitempty" json:"responseRequired,omitempty"`
}

// NewGuildConfig builds the default configuration for a guild
func NewGuildConfig(guildID, defaultPrefix string) *GuildConfig {
	return &GuildConfig{
		GuildID:           guildID,
		Prefixes:          []string{defaultPrefix},
		Locale:            "en",
		DefaultEmojiIndex: 0,
		Flags: GuildFlags{
			SelfVoting:     true,
			UniqueVoting:   true,
			StaffCanDelete: true,
			StaffCanEdit:   true,
			UserSelfDelete: true,
			UserSelfEdit:   true,
			AllowNicknames: true,
		},
	}
}

// Channel returns a pointer to the channel config with the given id
func (g *GuildConfig) Channel(channelID string) (*ChannelConfig, bool) {
	for i := range g.Channels {
		if g.Channels[i].ChannelID == channelID {
			return &g.Channels[i], true
		}
	}
	return nil, false
}

// ChannelsOfKind returns every configured channel of the given kind
func (g *GuildConfig) ChannelsOfKind(kind ChannelKind) []ChannelConfig {
	var out []ChannelConfig
	for _, ch := range g.Channels {
		if ch.Kind == kind {
			out = append(out, ch)
		}
	}
	return out
}

// AddPrefix appends a prefix if it is not already present
func (g *GuildConfig) AddPrefix(prefix string) {
	for _, p := range g.Prefixes {
		if p == prefix {
			return
		}
	}
	g.Prefixes = append(g.Prefixes, prefix)
}

// RemovePrefix removes a prefix. Removing the last remaining prefix is
// rejected with ErrLastPrefix before any mutation happens.
func (g *GuildConfig) RemovePrefix(prefix string) error {
	idx := -1
	for i, p := range g.Prefixes {
		if p == prefix {
			idx = i
			break
		}
	}
	if idx == -1 {
		return nil
	}
	if len(g.Prefixes) == 1 {
		return ErrLastPrefix
	}
	g.Prefixes = append(g.Prefixes[:idx], g.Prefixes[idx+1:]...)
	return nil
}

// IsStaffRole reports whether the role id is one of the configured staff roles
func (g *GuildConfig) IsStaffRole(roleID string) bool {
	for _, r := range g.StaffRoles {
		if r == roleID {
			return true
		}
	}
	return false
}

// RequiresResponse reports whether the named command demands a --reason flag
func (g *GuildConfig) RequiresResponse(command string) bool {
	for _, c := range g.ResponseRequired {
		if strings.EqualFold(c, command) {
			return true
		}
	}
	return false
}

// EmojiSet resolves a set index against the guild's own sets first and the
// bundled sets second. The boolean is false when the index resolves nowhere.
func (g *GuildConfig) EmojiSet(index int) (EmojiSet, bool) {
	for _, set := range g.EmojiSets {
		if set.Index == index {
			return set, true
		}
	}
	for _, set := range BuiltinEmojiSets {
		if set.Index == index {
			return set, true
		}
	}
	return EmojiSet{}, false
}

// DefaultEmojiSet resolves the guild's default set, falling back to the
// bundled default so the invariant "a default always resolves" holds.
func (g *GuildConfig) DefaultEmojiSet() EmojiSet {
	if set, ok := g.EmojiSet(g.DefaultEmojiIndex); ok {
		return set
	}
	return BuiltinEmojiSets[0]
}
