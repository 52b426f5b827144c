package suggestions

import (
	"context"
	"time"
)

// Publisher publishes a payload to a broker topic. mqtt.Communicator
// satisfies it.
type Publisher interface {
	Publish(topic string, payload interface{}) error
}

// BrokerEvent is the wire payload published for each lifecycle event
type BrokerEvent struct {
	Type       EventType `json:"type"`
	GuildID    string    `json:"guildId"`
	ChannelID  string    `json:"channelId"`
	Suggestion string    `json:"suggestionId"`
	ShortID    string    `json:"shortId"`
	AuthorID   string    `json:"authorId"`
	ExecutorID string    `json:"executorId"`
	State      string    `json:"state,omitempty"`
	Reason     string    `json:"reason,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// BrokerSink mirrors lifecycle events onto the message broker so external
// services can follow suggestion activity without touching the database.
type BrokerSink struct {
	pub Publisher
}

// NewBrokerSink creates a broker-backed event sink
func NewBrokerSink(pub Publisher) *BrokerSink {
	return &BrokerSink{pub: pub}
}

// HandleSuggestionEvent implements EventSink. Events publish to
// suggester/suggestions/<type>.
func (s *BrokerSink) HandleSuggestionEvent(ctx context.Context, ev Event) error {
	payload := BrokerEvent{
		Type:       ev.Type,
		GuildID:    ev.Suggestion.GuildID,
		ChannelID:  ev.Suggestion.ChannelID,
		Suggestion: ev.Suggestion.ID,
		ShortID:    ev.Suggestion.ShortID(),
		AuthorID:   ev.Suggestion.AuthorID,
		ExecutorID: ev.ExecutorID,
		State:      string(ev.Suggestion.State()),
		Reason:     ev.Reason,
		Timestamp:  ev.Timestamp,
	}
	return s.pub.Publish("suggester/suggestions/"+string(ev.Type), payload)
}

var _ EventSink = (*BrokerSink)(nil)
