// Package console implements a local REPL channel: one operator talks to
// the bot from the terminal. Every line counts as a direct reply to the
// bot, so the address filter never drops it.
package console

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/chzyer/readline"
	"github.com/google/uuid"

	"github.com/jholhewres/bossbot/pkg/bossbot/channels"
)

// ChatID is the single chat the console channel serves.
const ChatID = "local"

// LineReader reads operator input line by line.
type LineReader interface {
	Readline() (string, error)
	Close() error
}

// Config holds console channel configuration.
type Config struct {
	// Speaker is the name the operator is addressed by.
	Speaker string

	// BotName prefixes the bot's replies.
	BotName string

	// Prompt is shown before each input line.
	Prompt string

	// HistoryFile persists input history between sessions. Empty disables it.
	HistoryFile string
}

// Console implements channels.Channel over a terminal.
type Console struct {
	cfg    Config
	logger *slog.Logger

	newReader func() (LineReader, error)
	reader    LineReader
	out       io.Writer
	outMu     sync.Mutex

	messages  chan *channels.IncomingMessage
	connected atomic.Bool
	lastMsg   atomic.Value // time.Time

	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a console channel reading from the terminal via readline.
func New(cfg Config, logger *slog.Logger) *Console {
	c := newConsole(cfg, logger, nil, os.Stdout)
	c.newReader = func() (LineReader, error) {
		rl, err := readline.NewEx(&readline.Config{
			Prompt:          c.cfg.Prompt,
			HistoryFile:     c.cfg.HistoryFile,
			InterruptPrompt: "^C",
			EOFPrompt:       "exit",
		})
		if err != nil {
			return nil, err
		}
		c.out = rl.Stdout()
		return rl, nil
	}
	return c
}

// NewWithReader creates a console channel over an arbitrary reader and
// writer.
func NewWithReader(cfg Config, logger *slog.Logger, r LineReader, w io.Writer) *Console {
	return newConsole(cfg, logger, r, w)
}

func newConsole(cfg Config, logger *slog.Logger, r LineReader, w io.Writer) *Console {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Speaker == "" {
		cfg.Speaker = os.Getenv("USER")
	}
	if cfg.BotName == "" {
		cfg.BotName = "Барашкин"
	}
	if cfg.Prompt == "" {
		cfg.Prompt = "> "
	}
	c := &Console{
		cfg:      cfg,
		logger:   logger.With("component", "console"),
		out:      w,
		messages: make(chan *channels.IncomingMessage, 16),
	}
	if r != nil {
		c.newReader = func() (LineReader, error) { return r, nil }
	}
	return c
}

// Name returns "console".
func (c *Console) Name() string { return "console" }

// Connect opens the line reader and starts the input loop.
func (c *Console) Connect(ctx context.Context) error {
	if c.connected.Load() {
		return nil
	}
	r, err := c.newReader()
	if err != nil {
		return fmt.Errorf("%w: console: %v", channels.ErrConnectionFailed, err)
	}
	c.reader = r

	var loopCtx context.Context
	loopCtx, c.cancel = context.WithCancel(ctx)
	c.done = make(chan struct{})
	c.connected.Store(true)

	go c.readLoop(loopCtx)
	return nil
}

// Disconnect closes the reader, which unblocks the input loop.
func (c *Console) Disconnect() error {
	if c.cancel != nil {
		c.cancel()
	}
	var err error
	if c.reader != nil {
		err = c.reader.Close()
	}
	c.connected.Store(false)
	return err
}

// Done is closed when the operator ends the session (EOF or interrupt).
func (c *Console) Done() <-chan struct{} {
	return c.done
}

// Send prints a bot reply.
func (c *Console) Send(_ context.Context, _ string, message *channels.OutgoingMessage) error {
	if !c.connected.Load() {
		return channels.ErrChannelDisconnected
	}
	c.outMu.Lock()
	defer c.outMu.Unlock()
	_, err := fmt.Fprintf(c.out, "%s: %s\n", c.cfg.BotName, message.Content)
	return err
}

// SendTyping prints a short typing marker.
func (c *Console) SendTyping(_ context.Context, _ string) error {
	c.outMu.Lock()
	defer c.outMu.Unlock()
	_, err := fmt.Fprintf(c.out, "%s печатает…\n", c.cfg.BotName)
	return err
}

// Receive returns the incoming messages channel.
func (c *Console) Receive() <-chan *channels.IncomingMessage { return c.messages }

// IsConnected returns true while the input loop runs.
func (c *Console) IsConnected() bool { return c.connected.Load() }

// Health returns the channel health status.
func (c *Console) Health() channels.HealthStatus {
	var lastAt time.Time
	if v := c.lastMsg.Load(); v != nil {
		lastAt = v.(time.Time)
	}
	return channels.HealthStatus{Connected: c.connected.Load(), LastMessageAt: lastAt}
}

func (c *Console) readLoop(ctx context.Context) {
	defer close(c.done)

	for {
		line, err := c.reader.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) && line != "" {
				continue
			}
			if !errors.Is(err, io.EOF) && !errors.Is(err, readline.ErrInterrupt) && ctx.Err() == nil {
				c.logger.Warn("read error", "error", err)
			}
			return
		}

		msg := c.parseLine(line)
		if msg == nil {
			continue
		}
		c.lastMsg.Store(time.Now())

		select {
		case c.messages <- msg:
		case <-ctx.Done():
			return
		}
	}
}

func (c *Console) parseLine(line string) *channels.IncomingMessage {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}

	msg := &channels.IncomingMessage{
		ID:         uuid.New().String(),
		Channel:    "console",
		From:       c.cfg.Speaker,
		FromName:   c.cfg.Speaker,
		ChatID:     ChatID,
		Type:       channels.MessageText,
		Content:    line,
		Timestamp:  time.Now(),
		ReplyToBot: true,
	}
	if strings.HasPrefix(line, "/") {
		word, rest, _ := strings.Cut(line[1:], " ")
		if word != "" {
			msg.Type = channels.MessageCommand
			msg.Command = strings.ToLower(word)
			msg.Content = strings.TrimSpace(rest)
		}
	}
	return msg
}

var (
	_ channels.Channel         = (*Console)(nil)
	_ channels.PresenceChannel = (*Console)(nil)
)
