package logger

import (
	"context"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	alertQueueSize   = 32
	alertMaxLength   = 3500
	alertSendTimeout = 10 * time.Second
)

// AlertSender delivers a rendered alert to operators.
type AlertSender interface {
	SendAlert(ctx context.Context, text string) error
}

// AlertCore is a zapcore.Core that forwards high-severity entries to an AlertSender.
// Delivery happens on a background goroutine; entries are dropped when the queue is full.
type AlertCore struct {
	zapcore.LevelEnabler

	enc    zapcore.Encoder
	fields []zapcore.Field
	skip   []string
	queue  chan string
	once   *sync.Once
	stop   chan struct{}
	done   chan struct{}
}

// NewAlertCore starts the delivery loop. Entries from loggers whose name starts with one of
// skipNames are ignored so the sender cannot alert about its own failures.
func NewAlertCore(sender AlertSender, level zapcore.LevelEnabler, service string, skipNames ...string) *AlertCore {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = ""
	encCfg.CallerKey = ""
	encCfg.StacktraceKey = ""
	encCfg.LevelKey = ""
	encCfg.MessageKey = ""

	core := &AlertCore{
		LevelEnabler: level,
		enc:          zapcore.NewJSONEncoder(encCfg),
		skip:         skipNames,
		queue:        make(chan string, alertQueueSize),
		once:         &sync.Once{},
		stop:         make(chan struct{}),
		done:         make(chan struct{}),
	}
	go core.run(sender, strings.TrimSpace(service))
	return core
}

func (c *AlertCore) With(fields []zapcore.Field) zapcore.Core {
	clone := *c
	clone.fields = append(append([]zapcore.Field{}, c.fields...), fields...)
	return &clone
}

func (c *AlertCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if !c.Enabled(ent.Level) {
		return ce
	}
	for _, name := range c.skip {
		if name != "" && strings.HasPrefix(ent.LoggerName, name) {
			return ce
		}
	}
	return ce.AddCore(ent, c)
}

func (c *AlertCore) Write(ent zapcore.Entry, fields []zapcore.Field) error {
	all := append(append([]zapcore.Field{}, c.fields...), fields...)
	buf, err := c.enc.EncodeEntry(ent, all)
	if err != nil {
		return err
	}
	details := strings.TrimSpace(buf.String())
	buf.Free()

	// the queue is never closed; entries written after Close are dropped
	select {
	case <-c.stop:
		return nil
	default:
	}

	text := formatAlert(ent, details)
	select {
	case c.queue <- text:
	default:
	}
	return nil
}

func (c *AlertCore) Sync() error {
	return nil
}

// Close stops the delivery loop. Alerts queued before Close are flushed first.
// Close is safe to call more than once.
func (c *AlertCore) Close() {
	c.once.Do(func() {
		close(c.stop)
	})
	<-c.done
}

func (c *AlertCore) run(sender AlertSender, service string) {
	defer close(c.done)
	deliver := func(text string) {
		if sender == nil {
			return
		}
		if service != "" {
			text = "[" + service + "] " + text
		}
		ctx, cancel := context.WithTimeout(context.Background(), alertSendTimeout)
		_ = sender.SendAlert(ctx, text)
		cancel()
	}

	for {
		select {
		case text := <-c.queue:
			deliver(text)
		case <-c.stop:
			for {
				select {
				case text := <-c.queue:
					deliver(text)
				default:
					return
				}
			}
		}
	}
}

func formatAlert(ent zapcore.Entry, details string) string {
	var b strings.Builder
	b.WriteString(strings.ToUpper(ent.Level.String()))
	if ent.LoggerName != "" {
		b.WriteString(" ")
		b.WriteString(ent.LoggerName)
	}
	b.WriteString(": ")
	b.WriteString(ent.Message)
	if details != "" && details != "{}" {
		b.WriteString("\n")
		b.WriteString(details)
	}
	return truncate(b.String(), alertMaxLength)
}

func truncate(text string, limit int) string {
	if len(text) <= limit {
		return text
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut] + "…"
}

var _ zapcore.Core = (*AlertCore)(nil)
