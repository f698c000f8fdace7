package boss

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jholhewres/bossbot/pkg/bossbot/channels"
	"github.com/jholhewres/bossbot/pkg/bossbot/llm"
	"github.com/jholhewres/bossbot/pkg/bossbot/memory"
	"github.com/jholhewres/bossbot/pkg/bossbot/persona"
)

// Transport is the channel surface the bot needs. *channels.Manager
// implements it.
type Transport interface {
	Messages() <-chan *channels.IncomingMessage
	Send(ctx context.Context, channel, to string, msg *channels.OutgoingMessage) error
	SendTyping(ctx context.Context, channel, to string) error
}

// Bot routes incoming messages through commands, the address filter, the
// trigger table and the LLM gateway.
type Bot struct {
	cfg        *Config
	transport  Transport
	store      *memory.Store
	classifier *persona.Classifier
	address    *persona.AddressFilter
	composer   *persona.Composer
	gateway    *Gateway
	picker     persona.Picker
	logger     *slog.Logger

	// now is swappable in tests.
	now func() time.Time

	handlers sync.WaitGroup
}

// Option customizes a Bot.
type Option func(*Bot)

// WithPicker replaces the random phrase picker.
func WithPicker(p persona.Picker) Option {
	return func(b *Bot) { b.picker = p }
}

// WithStore replaces the chat state store.
func WithStore(s *memory.Store) Option {
	return func(b *Bot) { b.store = s }
}

// WithClock replaces the wall clock.
func WithClock(now func() time.Time) Option {
	return func(b *Bot) { b.now = now }
}

// New creates a bot from cfg. The completer answers every message no
// canned reply covers.
func New(cfg *Config, transport Transport, completer llm.Completer, logger *slog.Logger, opts ...Option) *Bot {
	if logger == nil {
		logger = slog.Default()
	}
	b := &Bot{
		cfg:       cfg,
		transport: transport,
		logger:    logger.With("component", "bot"),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.picker == nil {
		b.picker = persona.NewTimePicker()
	}
	if b.store == nil {
		b.store = memory.NewStore(cfg.MaxHistory, logger)
	}

	b.classifier = persona.NewClassifier(persona.DefaultRules(cfg.PhraseSet()), b.picker)
	b.address = persona.NewAddressFilter(cfg.Aliases)
	b.composer = persona.NewComposer(cfg.MaxChars)
	b.gateway = NewGateway(completer, b.store, GatewayConfig{
		Instructions: cfg.Instructions,
		Timeout:      cfg.LLM.Timeout,
		Fallback:     cfg.FallbackPhrases(),
	}, b.picker, b.composer, logger)
	return b
}

// Store returns the chat state store.
func (b *Bot) Store() *memory.Store { return b.store }

// Classifier returns the trigger classifier.
func (b *Bot) Classifier() *persona.Classifier { return b.classifier }

// Run consumes the transport's message stream until ctx is cancelled or
// the stream closes, handling each message on its own goroutine. It waits
// for in-flight handlers before returning.
func (b *Bot) Run(ctx context.Context) {
	defer b.handlers.Wait()

	in := b.transport.Messages()
	for {
		select {
		case msg, ok := <-in:
			if !ok {
				return
			}
			b.handlers.Add(1)
			go func() {
				defer b.handlers.Done()
				b.Handle(ctx, msg)
			}()

		case <-ctx.Done():
			return
		}
	}
}

// Handle processes one message: command/game routing, address check,
// memory update, trigger table or LLM, reply. A panic anywhere is
// recovered and answered with a generic complaint.
func (b *Bot) Handle(ctx context.Context, msg *channels.IncomingMessage) {
	start := b.now()
	logger := b.logger.With(
		"trace_id", uuid.New().String()[:8],
		"channel", msg.Channel,
		"chat_id", msg.ChatID,
		"from", msg.From,
		"msg_id", msg.ID,
	)

	defer func() {
		if r := recover(); r != nil {
			logger.Error("panic while handling message",
				"panic", fmt.Sprint(r),
				"stack", string(debug.Stack()),
			)
			b.sendReply(ctx, logger, msg, persona.NotUnderstood)
		}
	}()

	speaker := strings.TrimSpace(msg.FromName)
	if speaker == "" {
		speaker = persona.DefaultSpeakerName
	}

	switch msg.Type {
	case channels.MessageCommand:
		reply, ok := b.HandleCommand(msg.Command, speaker)
		if !ok {
			logger.Debug("unknown command ignored", "command", msg.Command)
			return
		}
		b.sendReply(ctx, logger, msg, reply)
		logger.Info("command processed", "command", msg.Command)
		return

	case channels.MessageGame:
		b.sendReply(ctx, logger, msg, b.composer.Compose(persona.GameTemplate, speaker))
		logger.Info("game message scolded")
		return
	}

	text := strings.ToLower(strings.TrimSpace(msg.Content))
	if text == "" {
		return
	}
	if !b.address.Addressed(text, msg.ReplyToBot) {
		return
	}

	key := memory.ChatKey{Channel: msg.Channel, ChatID: msg.ChatID}
	b.store.Touch(key, b.now())
	b.store.Remember(key, memory.RoleUser, text)

	reply, source := b.Respond(ctx, key, text, speaker)
	b.store.Remember(key, memory.RoleBoss, reply)
	b.sendReply(ctx, logger, msg, reply)

	logger.Info("message processed",
		"source", source,
		"duration_ms", b.now().Sub(start).Milliseconds(),
	)
}

// Respond produces the reply for an addressed, lowered text: a canned
// trigger reply when one applies, otherwise the LLM. source names which.
func (b *Bot) Respond(ctx context.Context, key memory.ChatKey, text, speaker string) (reply, source string) {
	if v, ok := b.classifier.Classify(text, speaker); ok {
		return b.composer.Compose(v.Reply, speaker), "trigger:" + string(v.Category)
	}

	if err := b.transport.SendTyping(ctx, key.Channel, key.ChatID); err != nil {
		b.logger.Debug("typing indicator failed", "error", err)
	}
	return b.gateway.Complete(ctx, key, text, speaker), "llm"
}

// sendReply answers the original message. Failures are logged, never retried.
func (b *Bot) sendReply(ctx context.Context, logger *slog.Logger, original *channels.IncomingMessage, content string) {
	out := &channels.OutgoingMessage{
		Content: content,
		ReplyTo: original.ID,
	}
	if err := b.transport.Send(ctx, original.Channel, original.ChatID, out); err != nil {
		logger.Error("failed to send reply", "error", err)
	}
}
