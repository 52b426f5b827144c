package models

import "time"

// AuditAction names an auditable action
type AuditAction string

const (
	ActionSuggestionCreated AuditAction = "SUGGESTION_CREATED"
	ActionSuggestionEdited  AuditAction = "SUGGESTION_EDITED"
	ActionSuggestionDeleted AuditAction = "SUGGESTION_DELETED"
	ActionStatusChanged     AuditAction = "SUGGESTION_STATUS_CHANGED"
)

// AuditChange is a single before/after field change inside an audit entry
type AuditChange struct {
	Key    string `bson:"key" json:"key"`
	Before string `bson:"before,omitempty" json:"before,omitempty"`
	After  string `bson:"after" json:"after"`
}

// AuditEntry is an append-only moderation log record. It is rendered to the
// configured log channel and then persisted; it is never mutated afterwards
// except via the explicit admin correction delete.
type AuditEntry struct {
	ID         string        `bson:"entryId" json:"entryId"`
	GuildID    string        `bson:"guildId" json:"guildId"`
	ChannelID  string        `bson:"channelId" json:"channelId"`
	ExecutorID string        `bson:"executorId" json:"executorId"`
	TargetID   string        `bson:"targetId,omitempty" json:"targetId,omitempty"`
	MessageID  string        `bson:"messageId,omitempty" json:"messageId,omitempty"`
	Action     AuditAction   `bson:"type" json:"type"`
	Changes    []AuditChange `bson:"changes,omitempty" json:"changes,omitempty"`
	CreatedAt  time.Time     `bson:"createdAt" json:"createdAt"`
}

// ShortID returns the user-facing 7-character reference of this entry
func (e *AuditEntry) ShortID() string {
	return ShortID(e.ID)
}
