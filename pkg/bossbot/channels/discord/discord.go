// Package discord implements the Discord channel using discordgo.
//
// Text messages starting with "/" or "!" are surfaced as bot commands;
// everything else is plain text. Replies to the bot's own messages are
// flagged so the address filter lets them through.
package discord

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/jholhewres/bossbot/pkg/bossbot/channels"
)

// Config holds Discord channel configuration.
type Config struct {
	// Token is the Discord bot token.
	Token string `yaml:"token"`

	// AllowedGuilds restricts which guild (server) IDs the bot responds in.
	// Empty means respond in all guilds.
	AllowedGuilds []string `yaml:"allowed_guilds"`

	// AllowedChannels restricts which channel IDs the bot responds in.
	// Empty means respond in all channels.
	AllowedChannels []string `yaml:"allowed_channels"`

	// SendTyping sends "typing..." indicators while a reply is generated.
	SendTyping bool `yaml:"send_typing"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{SendTyping: true}
}

// Discord implements channels.Channel and channels.PresenceChannel.
type Discord struct {
	cfg     Config
	logger  *slog.Logger
	session *discordgo.Session

	// botID is the bot user's snowflake, set on connect.
	botID string

	messages chan *channels.IncomingMessage

	connected  atomic.Bool
	lastMsg    atomic.Value // time.Time
	errorCount atomic.Int64

	mu sync.RWMutex
}

// New creates a new Discord channel instance.
func New(cfg Config, logger *slog.Logger) *Discord {
	if logger == nil {
		logger = slog.Default()
	}
	return &Discord{
		cfg:      cfg,
		logger:   logger.With("component", "discord"),
		messages: make(chan *channels.IncomingMessage, 256),
	}
}

// ---------- Channel Interface ----------

// Name returns "discord".
func (d *Discord) Name() string { return "discord" }

// Connect opens the Discord gateway WebSocket connection.
func (d *Discord) Connect(ctx context.Context) error {
	if d.cfg.Token == "" {
		return fmt.Errorf("discord: bot token is required")
	}

	session, err := discordgo.New("Bot " + d.cfg.Token)
	if err != nil {
		return fmt.Errorf("discord: creating session: %w", err)
	}

	session.Identify.Intents = discordgo.IntentsGuildMessages |
		discordgo.IntentsDirectMessages |
		discordgo.IntentsMessageContent

	session.AddHandler(d.onMessageCreate)

	if err := session.Open(); err != nil {
		return fmt.Errorf("%w: discord: opening gateway: %v", channels.ErrConnectionFailed, err)
	}

	d.mu.Lock()
	d.session = session
	d.botID = session.State.User.ID
	d.mu.Unlock()
	d.connected.Store(true)

	user := session.State.User
	d.logger.Info("connected", "bot", user.Username, "id", user.ID)
	return nil
}

// Disconnect closes the Discord gateway connection.
func (d *Discord) Disconnect() error {
	d.mu.Lock()
	session := d.session
	d.session = nil
	d.mu.Unlock()

	if session != nil {
		if err := session.Close(); err != nil {
			d.logger.Warn("closing session", "error", err)
		}
	}
	d.connected.Store(false)
	d.logger.Info("disconnected")
	return nil
}

// Send sends a text message to the specified channel.
func (d *Discord) Send(_ context.Context, to string, message *channels.OutgoingMessage) error {
	session := d.getSession()
	if session == nil {
		return channels.ErrChannelDisconnected
	}

	msgSend := &discordgo.MessageSend{Content: message.Content}
	if message.ReplyTo != "" {
		msgSend.Reference = &discordgo.MessageReference{
			MessageID: message.ReplyTo,
			ChannelID: to,
		}
	}
	if _, err := session.ChannelMessageSendComplex(to, msgSend); err != nil {
		d.errorCount.Add(1)
		return fmt.Errorf("%w: discord: %v", channels.ErrSendFailed, err)
	}
	return nil
}

// Receive returns the incoming messages channel.
func (d *Discord) Receive() <-chan *channels.IncomingMessage {
	return d.messages
}

// IsConnected returns true if the bot is connected.
func (d *Discord) IsConnected() bool { return d.connected.Load() }

// Health returns the channel health status.
func (d *Discord) Health() channels.HealthStatus {
	var lastAt time.Time
	if v := d.lastMsg.Load(); v != nil {
		lastAt = v.(time.Time)
	}
	return channels.HealthStatus{
		Connected:     d.connected.Load(),
		LastMessageAt: lastAt,
		ErrorCount:    int(d.errorCount.Load()),
	}
}

// ---------- PresenceChannel Interface ----------

// SendTyping sends a typing indicator to the channel.
func (d *Discord) SendTyping(_ context.Context, to string) error {
	session := d.getSession()
	if session == nil || !d.cfg.SendTyping {
		return nil
	}
	return session.ChannelTyping(to)
}

// ---------- Event Handlers ----------

// onMessageCreate handles incoming Discord messages.
func (d *Discord) onMessageCreate(_ *discordgo.Session, m *discordgo.MessageCreate) {
	incoming := d.convert(m.Message)
	if incoming == nil {
		return
	}

	d.lastMsg.Store(time.Now())
	select {
	case d.messages <- incoming:
	default:
		d.logger.Warn("message buffer full, dropping message", "msg_id", incoming.ID)
	}
}

// convert maps a Discord message to an IncomingMessage, or nil when the
// message is filtered out.
func (d *Discord) convert(m *discordgo.Message) *channels.IncomingMessage {
	if m == nil || m.Author == nil {
		return nil
	}
	d.mu.RLock()
	botID := d.botID
	d.mu.RUnlock()

	// Ignore the bot itself and other bots.
	if m.Author.ID == botID || m.Author.Bot {
		return nil
	}
	if len(d.cfg.AllowedGuilds) > 0 && m.GuildID != "" && !slices.Contains(d.cfg.AllowedGuilds, m.GuildID) {
		return nil
	}
	if len(d.cfg.AllowedChannels) > 0 && !slices.Contains(d.cfg.AllowedChannels, m.ChannelID) {
		return nil
	}

	content := strings.TrimSpace(m.Content)
	if content == "" {
		return nil
	}

	name := m.Author.GlobalName
	if name == "" {
		name = m.Author.Username
	}

	incoming := &channels.IncomingMessage{
		ID:        m.ID,
		Channel:   "discord",
		From:      m.Author.ID,
		FromName:  name,
		ChatID:    m.ChannelID,
		IsGroup:   m.GuildID != "",
		Type:      channels.MessageText,
		Content:   content,
		Timestamp: m.Timestamp,
	}

	if ref := m.ReferencedMessage; ref != nil {
		incoming.ReplyTo = ref.ID
		incoming.ReplyToBot = ref.Author != nil && botID != "" && ref.Author.ID == botID
	}

	if content[0] == '/' || content[0] == '!' {
		word, rest, _ := strings.Cut(content[1:], " ")
		if word != "" {
			incoming.Type = channels.MessageCommand
			incoming.Command = strings.ToLower(word)
			incoming.Content = strings.TrimSpace(rest)
		}
	}
	return incoming
}

func (d *Discord) getSession() *discordgo.Session {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.session
}

// Compile-time interface verification.
var (
	_ channels.Channel         = (*Discord)(nil)
	_ channels.PresenceChannel = (*Discord)(nil)
)
