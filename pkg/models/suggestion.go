package models

import "time"

// SuggestionState is the lifecycle state of a suggestion. Pending is the only
// non-terminal state; deletion is a hard removal, not a state.
type SuggestionState string

const (
	StatePending     SuggestionState = "pending"
	StateApproved    SuggestionState = "approved"
	StateRejected    SuggestionState = "rejected"
	StateConsidered  SuggestionState = "considered"
	StateImplemented SuggestionState = "implemented"
)

// IsTerminal reports whether no further status transition is defined
func (s SuggestionState) IsTerminal() bool {
	return s == StateApproved || s == StateRejected || s == StateConsidered || s == StateImplemented
}

// StatusUpdate is one entry of a suggestion's status history
type StatusUpdate struct {
	State     SuggestionState `bson:"state" json:"state"`
	Response  string          `bson:"response,omitempty" json:"response,omitempty"`
	UpdatedBy string          `bson:"updatedBy" json:"updatedBy"`
	Timestamp time.Time       `bson:"timestamp" json:"timestamp"`
}

// SuggestionEdit is one entry of a suggestion's edit history
type SuggestionEdit struct {
	EditedText string    `bson:"editedText" json:"editedText"`
	EditedBy   string    `bson:"editedBy" json:"editedBy"`
	Reason     string    `bson:"reason,omitempty" json:"reason,omitempty"`
	EditedAt   time.Time `bson:"editedAt" json:"editedAt"`
}

// VoteResult is a per-emoji count snapshot taken at decision time
type VoteResult struct {
	Emoji string `bson:"emoji" json:"emoji"`
	Count int    `bson:"count" json:"count"`
}

// VoterList is a per-emoji voter snapshot taken at decision time
type VoterList struct {
	Emoji    string   `bson:"emoji" json:"emoji"`
	VoterIDs []string `bson:"voterIds" json:"voterIds"`
}

// Suggestion represents a user suggestion stored in the database.
type Suggestion struct {
	ID            string           `bson:"suggestionId" json:"suggestionId"`
	GuildID       string           `bson:"guildId" json:"guildId"`
	ChannelID     string           `bson:"channelId" json:"channelId"`
	MessageID     string           `bson:"messageId" json:"messageId"`
	AuthorID      string           `bson:"authorId" json:"authorId"`
	Text          string           `bson:"text" json:"text"`
	ImageURL      string           `bson:"imageUrl,omitempty" json:"imageUrl,omitempty"`
	CreatedAt     time.Time        `bson:"createdAt" json:"createdAt"`
	StatusUpdates []StatusUpdate   `bson:"statusUpdates,omitempty" json:"statusUpdates,omitempty"`
	Edits         []SuggestionEdit `bson:"edits,omitempty" json:"edits,omitempty"`
	Results       []VoteResult     `bson:"results,omitempty" json:"results,omitempty"`
	Voted         []VoterList      `bson:"voted,omitempty" json:"voted,omitempty"`
}

// ShortID returns the user-facing 7-character reference of this suggestion
func (s *Suggestion) ShortID() string {
	return ShortID(s.ID)
}

// State returns the current state, pending when no update was recorded yet
func (s *Suggestion) State() SuggestionState {
	if len(s.StatusUpdates) == 0 {
		return StatePending
	}
	return s.StatusUpdates[len(s.StatusUpdates)-1].State
}

// CurrentText returns the latest text, honoring the edit history
func (s *Suggestion) CurrentText() string {
	if len(s.Edits) == 0 {
		return s.Text
	}
	return s.Edits[len(s.Edits)-1].EditedText
}
