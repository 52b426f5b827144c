package suggestions

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/bwmarrin/discordgo"
	"github.com/goccy/go-json"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/PancyStudios/SuggesterGo/internal/guildconfig"
	"github.com/PancyStudios/SuggesterGo/pkg/cache"
	"github.com/PancyStudios/SuggesterGo/pkg/models"
)

// fakeConfigDocs backs a guildconfig.Store with an in-memory map
type fakeConfigDocs struct {
	mu      sync.Mutex
	configs map[string]*models.GuildConfig
}

func newFakeConfigDocs(cfgs ...*models.GuildConfig) *fakeConfigDocs {
	d := &fakeConfigDocs{configs: make(map[string]*models.GuildConfig)}
	for _, c := range cfgs {
		d.configs[c.GuildID] = c
	}
	return d
}

func (d *fakeConfigDocs) Get(query bson.M) (*models.GuildConfig, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	id, _ := query["guildId"].(string)
	return d.configs[id], nil
}

func (d *fakeConfigDocs) Set(query bson.M, data interface{}) (*models.GuildConfig, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	cfg := data.(*models.GuildConfig)
	d.configs[cfg.GuildID] = cfg
	return cfg, nil
}

// fakeSuggestionDocs implements the repository Docs contract, honoring the
// three query shapes the repository issues. Like the backing document store,
// reads are cached per query shape and only the exact shape a Set or Delete
// names is invalidated.
type fakeSuggestionDocs struct {
	mu      sync.Mutex
	records map[string]*models.Suggestion
	reads   map[string]*models.Suggestion
	setErr  error
}

func newFakeSuggestionDocs() *fakeSuggestionDocs {
	return &fakeSuggestionDocs{
		records: make(map[string]*models.Suggestion),
		reads:   make(map[string]*models.Suggestion),
	}
}

func queryKey(query bson.M) string {
	return fmt.Sprintf("%v", query)
}

func (d *fakeSuggestionDocs) matches(s *models.Suggestion, query bson.M) bool {
	for key, raw := range query {
		switch key {
		case "suggestionId":
			switch v := raw.(type) {
			case string:
				if s.ID != v {
					return false
				}
			case primitive.Regex:
				suffix := strings.TrimSuffix(v.Pattern, "$")
				if !strings.HasSuffix(strings.ToLower(s.ID), strings.ToLower(suffix)) {
					return false
				}
			default:
				return false
			}
		case "guildId":
			if s.GuildID != raw.(string) {
				return false
			}
		case "messageId":
			if s.MessageID != raw.(string) {
				return false
			}
		default:
			return false
		}
	}
	return true
}

func (d *fakeSuggestionDocs) Get(query bson.M) (*models.Suggestion, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if s, ok := d.reads[queryKey(query)]; ok {
		return s, nil
	}
	for _, s := range d.records {
		if d.matches(s, query) {
			d.reads[queryKey(query)] = s
			return s, nil
		}
	}
	return nil, nil
}

func (d *fakeSuggestionDocs) Set(query bson.M, data interface{}) (*models.Suggestion, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.setErr != nil {
		return nil, d.setErr
	}
	s := data.(*models.Suggestion)
	d.records[s.ID] = s
	d.reads[queryKey(query)] = s
	return s, nil
}

func (d *fakeSuggestionDocs) Delete(query bson.M) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.reads, queryKey(query))
	for id, s := range d.records {
		if d.matches(s, query) {
			delete(d.records, id)
			return nil
		}
	}
	return nil
}

// fakeKV is an in-memory stand-in for the redis cache, with atomic counters
type fakeKV struct {
	mu       sync.Mutex
	values   map[string][]byte
	counters map[string]int64
}

func newFakeKV() *fakeKV {
	return &fakeKV{
		values:   make(map[string][]byte),
		counters: make(map[string]int64),
	}
}

func (f *fakeKV) GetJSON(ctx context.Context, key string, out interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	raw, ok := f.values[key]
	if !ok {
		return cache.ErrCacheMiss
	}
	return json.Unmarshal(raw, out)
}

func (f *fakeKV) SetJSON(ctx context.Context, key string, value interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	f.values[key] = raw
	return nil
}

func (f *fakeKV) Del(ctx context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, k := range keys {
		delete(f.values, k)
	}
	return nil
}

func (f *fakeKV) Incr(ctx context.Context, key string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counters[key]++
	return f.counters[key], nil
}

func (f *fakeKV) Decr(ctx context.Context, key string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counters[key]--
	return f.counters[key], nil
}

func (f *fakeKV) GetInt64(ctx context.Context, key string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.counters[key], nil
}

// fakeMessenger records every chat interaction
type fakeMessenger struct {
	mu     sync.Mutex
	nextID int

	sent      []*discordgo.Message
	deleted   []string
	reactions map[string][]string // messageID -> emoji list
	dms       []string

	// live message state served by Message and ReactionUsers
	messages      map[string]*discordgo.Message
	reactionUsers map[string][]*discordgo.User // messageID|emoji -> users

	sendEmbedErr error
}

func newFakeMessenger() *fakeMessenger {
	return &fakeMessenger{
		reactions:     make(map[string][]string),
		messages:      make(map[string]*discordgo.Message),
		reactionUsers: make(map[string][]*discordgo.User),
	}
}

func (f *fakeMessenger) newMessage(channelID string) *discordgo.Message {
	f.nextID++
	return &discordgo.Message{
		ID:        "msg-" + strconv.Itoa(f.nextID),
		ChannelID: channelID,
	}
}

func (f *fakeMessenger) SendMessage(channelID, content string) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	msg := f.newMessage(channelID)
	msg.Content = content
	f.sent = append(f.sent, msg)
	return msg, nil
}

func (f *fakeMessenger) SendEmbed(channelID string, embed *discordgo.MessageEmbed) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendEmbedErr != nil {
		return nil, f.sendEmbedErr
	}
	msg := f.newMessage(channelID)
	msg.Embeds = []*discordgo.MessageEmbed{embed}
	f.sent = append(f.sent, msg)
	f.messages[msg.ID] = msg
	return msg, nil
}

func (f *fakeMessenger) EditEmbed(channelID, messageID string, embed *discordgo.MessageEmbed) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if msg, ok := f.messages[messageID]; ok {
		msg.Embeds = []*discordgo.MessageEmbed{embed}
	}
	return nil
}

func (f *fakeMessenger) DeleteMessage(channelID, messageID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, messageID)
	delete(f.messages, messageID)
	return nil
}

func (f *fakeMessenger) AddReaction(channelID, messageID, emoji string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reactions[messageID] = append(f.reactions[messageID], emoji)
	return nil
}

func (f *fakeMessenger) RemoveReaction(channelID, messageID, emoji, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reactions[messageID] = append(f.reactions[messageID], "removed:"+emoji+":"+userID)
	return nil
}

func (f *fakeMessenger) Message(channelID, messageID string) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.messages[messageID], nil
}

func (f *fakeMessenger) ReactionUsers(channelID, messageID, emoji string) ([]*discordgo.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reactionUsers[messageID+"|"+emoji], nil
}

func (f *fakeMessenger) DM(userID, content string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dms = append(f.dms, userID+": "+content)
	return nil
}

func (f *fakeMessenger) deletedIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.deleted...)
}

// fakeGuilds serves guild objects for emoji resolution
type fakeGuilds struct {
	guilds map[string]*discordgo.Guild
}

func (f *fakeGuilds) Guild(guildID string) (*discordgo.Guild, error) {
	return f.guilds[guildID], nil
}

// fakeRoles serves live guild roles for runtime initialization
type fakeRoles struct {
	roles []*discordgo.Role
}

func (f *fakeRoles) GuildRoles(guildID string) ([]*discordgo.Role, error) {
	return f.roles, nil
}

// testEnv wires the package's moving parts together over in-memory fakes
type testEnv struct {
	kv        *fakeKV
	docs      *fakeSuggestionDocs
	configs   *guildconfig.Store
	repo      *Repository
	runtimes  *RuntimeManager
	messenger *fakeMessenger
	guilds    *fakeGuilds
	service   *Service
}

func newTestEnv(cfg *models.GuildConfig, roles ...*discordgo.Role) *testEnv {
	kv := newFakeKV()
	docs := newFakeSuggestionDocs()
	configs := guildconfig.NewStore(newFakeConfigDocs(cfg), kv, ".")
	repo := NewRepository(docs, kv)
	runtimes := NewRuntimeManager(configs, kv, &fakeRoles{roles: roles})
	messenger := newFakeMessenger()
	guilds := &fakeGuilds{guilds: make(map[string]*discordgo.Guild)}

	svc := NewService(configs, repo, runtimes, messenger, guilds, "emoji-guild")
	svc.ConfirmDeleteDelay = 0
	svc.DenialDeleteDelay = 0

	return &testEnv{
		kv:        kv,
		docs:      docs,
		configs:   configs,
		repo:      repo,
		runtimes:  runtimes,
		messenger: messenger,
		guilds:    guilds,
		service:   svc,
	}
}

// suggestionGuild builds a config with one suggestion channel
func suggestionGuild(guildID, channelID string) *models.GuildConfig {
	cfg := models.NewGuildConfig(guildID, ".")
	cfg.Channels = []models.ChannelConfig{{
		ChannelID: channelID,
		Kind:      models.ChannelKindSuggestions,
		Blocked:   models.BlockedRoles{Mode: models.BlockNone},
	}}
	return cfg
}
