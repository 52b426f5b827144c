package suggestions

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/PancyStudios/SuggesterGo/pkg/models"
)

type recordingSink struct {
	events []Event
}

func (r *recordingSink) HandleSuggestionEvent(ctx context.Context, ev Event) error {
	r.events = append(r.events, ev)
	return nil
}

func TestServiceCreate(t *testing.T) {
	env := newTestEnv(suggestionGuild("g1", "c1"))
	sink := &recordingSink{}
	env.service.sinks = []EventSink{sink}
	ctx := context.Background()

	s, err := env.service.Create(ctx, CreateRequest{
		GuildID:         "g1",
		OriginChannelID: "c1",
		TriggerID:       "trigger-1",
		Author:          Submitter{UserID: "u1"},
		AuthorName:      "Some User",
		Text:            "add a music channel",
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if len(s.ID) != 40 {
		t.Errorf("suggestion id length = %d, want 40", len(s.ID))
	}
	if s.State() != models.StatePending {
		t.Errorf("new suggestion state = %q, want pending", s.State())
	}
	if s.MessageID == "" {
		t.Error("the posted message id must be recorded")
	}

	if len(env.messenger.sent) != 1 {
		t.Fatalf("sent %d messages, want 1", len(env.messenger.sent))
	}
	embed := env.messenger.sent[0].Embeds[0]
	if embed.Description != "add a music channel" {
		t.Errorf("embed description = %q", embed.Description)
	}

	// Default emoji set reactions are attached to the posted message
	if got := env.messenger.reactions[s.MessageID]; len(got) != 2 {
		t.Errorf("attached reactions = %v, want the 2 default emojis", got)
	}

	if n, _ := env.repo.CountForChannel(ctx, "g1", "c1"); n != 1 {
		t.Errorf("channel counter = %d, want 1", n)
	}
	if rt, _ := env.runtimes.Peek("c1"); rt.Count() != 1 {
		t.Errorf("runtime count = %d, want 1", rt.Count())
	}

	if len(sink.events) != 1 || sink.events[0].Type != EventCreated {
		t.Errorf("events = %+v, want one created event", sink.events)
	}
}

func TestServiceCreateExtractsImageURL(t *testing.T) {
	env := newTestEnv(suggestionGuild("g1", "c1"))
	ctx := context.Background()

	s, err := env.service.Create(ctx, CreateRequest{
		GuildID:         "g1",
		OriginChannelID: "c1",
		Author:          Submitter{UserID: "u1"},
		Text:            "new logo idea https://cdn.example.com/logo.png please",
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if s.ImageURL != "https://cdn.example.com/logo.png" {
		t.Errorf("image url = %q", s.ImageURL)
	}
	if s.Text != "new logo idea  please" && s.Text != "new logo idea please" {
		t.Errorf("text should have the url stripped, got %q", s.Text)
	}

	embed := env.messenger.sent[0].Embeds[0]
	if embed.Image == nil || embed.Image.URL != s.ImageURL {
		t.Error("the extracted image must render as the embed image")
	}
}

func TestServiceCreateDenied(t *testing.T) {
	cfg := suggestionGuild("g1", "c1")
	cfg.Channels[0].Locked = true
	env := newTestEnv(cfg)
	ctx := context.Background()

	_, err := env.service.Create(ctx, CreateRequest{
		GuildID:         "g1",
		OriginChannelID: "c1",
		TriggerID:       "trigger-1",
		Author:          Submitter{UserID: "u1"},
		Text:            "hello",
	})

	var denial *PolicyDenialError
	if !errors.As(err, &denial) {
		t.Fatalf("expected a policy denial, got %v", err)
	}
	if denial.Denial.Reason != DenyLocked {
		t.Errorf("denial reason = %q, want locked", denial.Denial.Reason)
	}

	// The user was told why, and no suggestion message was posted
	if len(env.messenger.sent) != 1 {
		t.Fatalf("sent %d messages, want only the denial notice", len(env.messenger.sent))
	}
	if env.messenger.sent[0].Content == "" {
		t.Error("the denial notice should carry the reason text")
	}
}

func TestServiceCreateRollsBackOnPersistFailure(t *testing.T) {
	env := newTestEnv(suggestionGuild("g1", "c1"))
	env.docs.setErr = errors.New("store down")
	ctx := context.Background()

	_, err := env.service.Create(ctx, CreateRequest{
		GuildID:         "g1",
		OriginChannelID: "c1",
		Author:          Submitter{UserID: "u1"},
		Text:            "hello",
	})
	if err == nil {
		t.Fatal("create should fail when the store write fails")
	}

	deleted := env.messenger.deletedIDs()
	if len(deleted) != 1 {
		t.Fatalf("deleted %v, want the posted message rolled back", deleted)
	}
	if n, _ := env.repo.GlobalCount(ctx); n != 0 {
		t.Errorf("global counter = %d after rollback, want 0", n)
	}
}

func TestServiceCreateStartsCooldown(t *testing.T) {
	cfg := suggestionGuild("g1", "c1")
	cfg.Channels[0].CooldownMillis = time.Minute.Milliseconds()
	env := newTestEnv(cfg)
	ctx := context.Background()

	if _, err := env.service.Create(ctx, CreateRequest{
		GuildID:         "g1",
		OriginChannelID: "c1",
		Author:          Submitter{UserID: "u1"},
		Text:            "first",
	}); err != nil {
		t.Fatalf("first create failed: %v", err)
	}

	rt, _ := env.runtimes.Peek("c1")
	if !rt.HasCooldownEntry("u1") {
		t.Fatal("a cooldown entry should exist after the first submission")
	}
	defer rt.ClearCooldown("u1")

	_, err := env.service.Create(ctx, CreateRequest{
		GuildID:         "g1",
		OriginChannelID: "c1",
		Author:          Submitter{UserID: "u1"},
		Text:            "second",
	})
	var denial *PolicyDenialError
	if !errors.As(err, &denial) || denial.Denial.Reason != DenyCooldown {
		t.Errorf("second submission should hit the cooldown, got %v", err)
	}
}

func TestServiceEdit(t *testing.T) {
	env := newTestEnv(suggestionGuild("g1", "c1"))
	sink := &recordingSink{}
	env.service.sinks = []EventSink{sink}
	ctx := context.Background()

	s, err := env.service.Create(ctx, CreateRequest{
		GuildID:         "g1",
		OriginChannelID: "c1",
		Author:          Submitter{UserID: "u1"},
		Text:            "original text",
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	edited, err := env.service.Edit(ctx, EditRequest{
		Executor: Executor{UserID: "u1", GuildID: "g1"},
		Query:    s.ShortID(),
		NewText:  "edited text",
	})
	if err != nil {
		t.Fatalf("edit failed: %v", err)
	}

	if edited.CurrentText() != "edited text" {
		t.Errorf("current text = %q", edited.CurrentText())
	}
	if len(edited.Edits) != 1 {
		t.Fatalf("edit history length = %d, want 1", len(edited.Edits))
	}
	if edited.Edits[0].EditedBy != "u1" {
		t.Errorf("edit attribution = %q", edited.Edits[0].EditedBy)
	}

	// The live message reflects the new text
	msg, _ := env.messenger.Message("c1", s.MessageID)
	if msg.Embeds[0].Description != "edited text" {
		t.Errorf("live embed = %q", msg.Embeds[0].Description)
	}

	last := sink.events[len(sink.events)-1]
	if last.Type != EventEdited || last.Before != "original text" || last.After != "edited text" {
		t.Errorf("edit event = %+v", last)
	}
}

func TestServiceEditAuthorization(t *testing.T) {
	cfg := suggestionGuild("g1", "c1")
	cfg.StaffRoles = []string{"staff-role"}
	env := newTestEnv(cfg)
	ctx := context.Background()

	s, err := env.service.Create(ctx, CreateRequest{
		GuildID:         "g1",
		OriginChannelID: "c1",
		Author:          Submitter{UserID: "u1"},
		Text:            "original",
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	// A stranger cannot edit someone else's suggestion
	_, err = env.service.Edit(ctx, EditRequest{
		Executor: Executor{UserID: "u2", GuildID: "g1"},
		Query:    s.ID,
		NewText:  "hijacked",
	})
	if !errors.Is(err, ErrNotAuthorized) {
		t.Errorf("stranger edit should be rejected, got %v", err)
	}

	// Staff need the explicit override flag
	_, err = env.service.Edit(ctx, EditRequest{
		Executor: Executor{UserID: "u2", GuildID: "g1", IsStaff: true},
		Query:    s.ID,
		NewText:  "moderated",
	})
	if !errors.Is(err, ErrNotAuthorized) {
		t.Errorf("staff edit without the override flag should be rejected, got %v", err)
	}

	if _, err = env.service.Edit(ctx, EditRequest{
		Executor: Executor{UserID: "u2", GuildID: "g1", IsStaff: true},
		Query:    s.ID,
		NewText:  "moderated",
		Override: true,
	}); err != nil {
		t.Errorf("staff edit with the override flag should pass, got %v", err)
	}
}

func TestServiceEditRequiresReason(t *testing.T) {
	cfg := suggestionGuild("g1", "c1")
	cfg.ResponseRequired = []string{"edit"}
	env := newTestEnv(cfg)
	ctx := context.Background()

	s, err := env.service.Create(ctx, CreateRequest{
		GuildID:         "g1",
		OriginChannelID: "c1",
		Author:          Submitter{UserID: "u1"},
		Text:            "original",
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	_, err = env.service.Edit(ctx, EditRequest{
		Executor: Executor{UserID: "u1", GuildID: "g1"},
		Query:    s.ID,
		NewText:  "changed",
	})
	if !errors.Is(err, ErrResponseRequired) {
		t.Errorf("edit without a reason should be rejected, got %v", err)
	}

	if _, err = env.service.Edit(ctx, EditRequest{
		Executor: Executor{UserID: "u1", GuildID: "g1"},
		Query:    s.ID,
		NewText:  "changed",
		Reason:   "typo",
	}); err != nil {
		t.Errorf("edit with a reason should pass, got %v", err)
	}
}

func TestServiceDelete(t *testing.T) {
	env := newTestEnv(suggestionGuild("g1", "c1"))
	sink := &recordingSink{}
	env.service.sinks = []EventSink{sink}
	ctx := context.Background()

	s, err := env.service.Create(ctx, CreateRequest{
		GuildID:         "g1",
		OriginChannelID: "c1",
		Author:          Submitter{UserID: "u1"},
		Text:            "short lived",
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if err := env.service.Delete(ctx, DeleteRequest{
		Executor: Executor{UserID: "u1", GuildID: "g1"},
		Query:    s.ID,
	}); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	got, _ := env.repo.Fetch(ctx, "g1", ParseQuery(s.ID), false, true)
	if got != nil {
		t.Error("the record should be gone from the store")
	}
	if n, _ := env.repo.GlobalCount(ctx); n != 0 {
		t.Errorf("global counter = %d after delete, want 0", n)
	}
	if rt, _ := env.runtimes.Peek("c1"); rt.Count() != 0 {
		t.Errorf("runtime count = %d after delete, want 0", rt.Count())
	}

	deleted := env.messenger.deletedIDs()
	if len(deleted) == 0 || deleted[0] != s.MessageID {
		t.Errorf("deleted messages = %v, want the backing message first", deleted)
	}

	if len(env.messenger.dms) != 1 {
		t.Errorf("dms = %v, want one author notification", env.messenger.dms)
	}

	last := sink.events[len(sink.events)-1]
	if last.Type != EventDeleted {
		t.Errorf("last event = %q, want deleted", last.Type)
	}
}

func TestServiceDeleteGuildScope(t *testing.T) {
	env := newTestEnv(suggestionGuild("g1", "c1"))
	ctx := context.Background()

	s, err := env.service.Create(ctx, CreateRequest{
		GuildID:         "g1",
		OriginChannelID: "c1",
		Author:          Submitter{UserID: "u1"},
		Text:            "scoped",
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	// Another guild's admin cannot delete it even by long id
	err = env.service.Delete(ctx, DeleteRequest{
		Executor: Executor{UserID: "a1", GuildID: "g2", IsAdmin: true},
		Query:    s.ID,
		Force:    true,
	})
	if !errors.Is(err, ErrGuildScope) {
		t.Errorf("cross-guild delete should be rejected, got %v", err)
	}

	// The bot owner with the global flag can
	if err = env.service.Delete(ctx, DeleteRequest{
		Executor: Executor{UserID: "owner", GuildID: "g2", IsOwner: true},
		Query:    s.ID,
		Force:    true,
		Global:   true,
	}); err != nil {
		t.Errorf("owner with the global flag should pass, got %v", err)
	}
}

func TestServiceSetStatus(t *testing.T) {
	env := newTestEnv(suggestionGuild("g1", "c1"))
	ctx := context.Background()

	s, err := env.service.Create(ctx, CreateRequest{
		GuildID:         "g1",
		OriginChannelID: "c1",
		Author:          Submitter{UserID: "u1"},
		Text:            "approve me",
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	approved, err := env.service.SetStatus(ctx, StatusRequest{
		Executor: Executor{UserID: "staff1", GuildID: "g1", IsStaff: true},
		Query:    s.ShortID(),
		State:    models.StateApproved,
		Response: "shipping next week",
	})
	if err != nil {
		t.Fatalf("approve failed: %v", err)
	}
	if approved.State() != models.StateApproved {
		t.Errorf("state = %q, want approved", approved.State())
	}

	// A second terminal transition is rejected
	if _, err := env.service.SetStatus(ctx, StatusRequest{
		Executor: Executor{UserID: "staff1", GuildID: "g1", IsStaff: true},
		Query:    s.ShortID(),
		State:    models.StateRejected,
	}); err == nil {
		t.Error("re-deciding an already decided suggestion should fail")
	}
}

func TestServiceUnknownQuery(t *testing.T) {
	env := newTestEnv(suggestionGuild("g1", "c1"))
	ctx := context.Background()

	_, err := env.service.Edit(ctx, EditRequest{
		Executor: Executor{UserID: "u1", GuildID: "g1"},
		Query:    "1234567",
		NewText:  "nope",
	})
	if !errors.Is(err, ErrSuggestionNotFound) {
		t.Errorf("unmatched query should yield ErrSuggestionNotFound, got %v", err)
	}
}

func TestServiceNoSuggestionChannel(t *testing.T) {
	cfg := models.NewGuildConfig("g1", ".")
	env := newTestEnv(cfg)
	ctx := context.Background()

	_, err := env.service.Create(ctx, CreateRequest{
		GuildID:         "g1",
		OriginChannelID: "anywhere",
		Author:          Submitter{UserID: "u1"},
		Text:            "hello",
	})
	if !errors.Is(err, ErrNoSuggestionChannel) {
		t.Errorf("expected ErrNoSuggestionChannel, got %v", err)
	}
}
