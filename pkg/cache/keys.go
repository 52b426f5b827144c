package cache

import "fmt"

// Structured cache key builders. Keys are shared with the counter layer, so
// every component must build them through these helpers instead of formatting
// strings inline.

// GuildSettingsKey is the cached per-guild configuration document
func GuildSettingsKey(guildID string) string {
	return fmt.Sprintf("guild:%s:settings", guildID)
}

// SuggestionKey is the cached suggestion record
func SuggestionKey(guildID, channelID, messageID, id string) string {
	return fmt.Sprintf("suggestion:%s:%s:%s:%s", guildID, channelID, messageID, id)
}

// MemberCountKey counts suggestions by one member within one guild
func MemberCountKey(guildID, userID string) string {
	return fmt.Sprintf("guild:%s:member:%s:suggestions:count", guildID, userID)
}

// UserCountKey counts suggestions by one user across all guilds
func UserCountKey(userID string) string {
	return fmt.Sprintf("user:%s:suggestions:count", userID)
}

// GuildCountKey counts suggestions within one guild
func GuildCountKey(guildID string) string {
	return fmt.Sprintf("guild:%s:suggestions:count", guildID)
}

// ChannelCountKey counts suggestions within one channel of a guild
func ChannelCountKey(guildID, channelID string) string {
	return fmt.Sprintf("guild:%s:channel:%s:suggestions:count", guildID, channelID)
}

// GlobalCountKey counts every suggestion the bot has ever stored
func GlobalCountKey() string {
	return "global:suggestions:count"
}
