// Package nudger periodically pokes chats that have gone quiet. A single
// cron entry with a randomized period checks every tracked chat and sends
// one idle phrase to each chat past the idle threshold.
package nudger

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/jholhewres/bossbot/pkg/bossbot/channels"
	"github.com/jholhewres/bossbot/pkg/bossbot/memory"
	"github.com/jholhewres/bossbot/pkg/bossbot/persona"
)

// Sender delivers a message to a chat on a channel.
type Sender interface {
	Send(ctx context.Context, channel, to string, msg *channels.OutgoingMessage) error
}

// Rand draws random integers in [0, n).
type Rand interface {
	Int63n(n int64) int64
}

// Config configures the nudger.
type Config struct {
	// MinInterval and MaxInterval bound the random period between checks.
	MinInterval time.Duration

	// MaxInterval must not be less than MinInterval.
	MaxInterval time.Duration

	// Threshold is how long a chat must be quiet before it is nudged.
	Threshold time.Duration

	// Phrases are the idle messages to pick from.
	Phrases []string

	// SendTimeout bounds each send.
	SendTimeout time.Duration
}

// DefaultConfig returns the default timings: a check every 30 to 60
// minutes, nudging chats quiet for more than 30 minutes.
func DefaultConfig() Config {
	return Config{
		MinInterval: 30 * time.Minute,
		MaxInterval: time.Hour,
		Threshold:   30 * time.Minute,
		Phrases:     persona.IdlePhrases,
		SendTimeout: 15 * time.Second,
	}
}

// Nudger sends idle phrases to quiet chats on a randomized schedule.
type Nudger struct {
	cfg    Config
	store  *memory.Store
	sender Sender
	picker persona.Picker
	rnd    Rand
	logger *slog.Logger

	// now is swappable in tests.
	now func() time.Time

	cron *cron.Cron
	ctx  context.Context
	stop context.CancelFunc
}

// New creates a nudger. picker chooses phrases and rnd draws the period;
// a *persona.RandPicker serves as both.
func New(cfg Config, store *memory.Store, sender Sender, picker persona.Picker, rnd Rand, logger *slog.Logger) *Nudger {
	def := DefaultConfig()
	if cfg.MinInterval <= 0 {
		cfg.MinInterval = def.MinInterval
	}
	if cfg.MaxInterval < cfg.MinInterval {
		cfg.MaxInterval = cfg.MinInterval
	}
	if cfg.Threshold <= 0 {
		cfg.Threshold = def.Threshold
	}
	if len(cfg.Phrases) == 0 {
		cfg.Phrases = def.Phrases
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = def.SendTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Nudger{
		cfg:    cfg,
		store:  store,
		sender: sender,
		picker: picker,
		rnd:    rnd,
		logger: logger.With("component", "nudger"),
		now:    time.Now,
	}
}

// Start schedules the recurring check. Panics inside a check are recovered
// and the schedule keeps running; overlapping checks are skipped.
func (n *Nudger) Start(ctx context.Context) {
	n.ctx, n.stop = context.WithCancel(ctx)

	cronLogger := cron.PrintfLogger(slog.NewLogLogger(n.logger.Handler(), slog.LevelWarn))
	n.cron = cron.New(cron.WithChain(
		cron.Recover(cronLogger),
		cron.SkipIfStillRunning(cronLogger),
	))
	n.cron.Schedule(n.Schedule(), cron.FuncJob(func() { n.Tick(n.ctx) }))
	n.cron.Start()

	n.logger.Info("nudger started",
		"min_interval", n.cfg.MinInterval,
		"max_interval", n.cfg.MaxInterval,
		"threshold", n.cfg.Threshold,
	)
}

// Stop halts the schedule and waits for a running check to finish.
func (n *Nudger) Stop() {
	if n.stop != nil {
		n.stop()
	}
	if n.cron != nil {
		ctx := n.cron.Stop()
		select {
		case <-ctx.Done():
		case <-time.After(10 * time.Second):
			n.logger.Warn("nudger stop timed out")
		}
	}
	n.logger.Info("nudger stopped")
}

// Schedule returns the randomized cron schedule.
func (n *Nudger) Schedule() cron.Schedule {
	return &randomSchedule{min: n.cfg.MinInterval, max: n.cfg.MaxInterval, rnd: n.rnd}
}

// Tick nudges every chat idle for longer than the threshold. It returns
// the number of nudges delivered. Send failures are logged per chat and
// never stop the loop.
func (n *Nudger) Tick(ctx context.Context) int {
	idle := n.store.Idle(n.now(), n.cfg.Threshold)
	if len(idle) == 0 {
		return 0
	}

	sent := 0
	for _, key := range idle {
		if ctx.Err() != nil {
			break
		}
		msg := &channels.OutgoingMessage{Content: n.picker.Pick(n.cfg.Phrases)}

		sendCtx, cancel := context.WithTimeout(ctx, n.cfg.SendTimeout)
		err := n.sender.Send(sendCtx, key.Channel, key.ChatID, msg)
		cancel()

		if err != nil {
			n.logger.Warn("failed to nudge chat", "chat", key.String(), "error", err)
			continue
		}
		sent++
	}

	n.logger.Info("idle check done", "idle_chats", len(idle), "nudged", sent)
	return sent
}

// randomSchedule fires once per period drawn uniformly from [min, max]
// with one-second granularity.
type randomSchedule struct {
	min, max time.Duration
	rnd      Rand
}

// Next implements cron.Schedule.
func (s *randomSchedule) Next(t time.Time) time.Time {
	return t.Add(s.period())
}

func (s *randomSchedule) period() time.Duration {
	span := int64((s.max - s.min) / time.Second)
	if span <= 0 || s.rnd == nil {
		return s.min
	}
	return s.min + time.Duration(s.rnd.Int63n(span+1))*time.Second
}
