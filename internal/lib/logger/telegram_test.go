package logger

import (
	"bytes"
	"log/slog"
	"strings"
	"sync"
	"testing"
)

type captureSender struct {
	mu   sync.Mutex
	msgs []string
}

func (c *captureSender) SendMessage(msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.msgs = append(c.msgs, msg)
}

func TestTelegramHandlerForwardsAboveLevel(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	sender := &captureSender{}

	log := SetupTelegramHandler(base, sender, slog.LevelError).With(slog.String("module", "core"))
	log.Info("chat started")
	log.Error("append failed", slog.String("conversation_id", "c1"))

	if len(sender.msgs) != 1 {
		t.Fatalf("expected 1 forwarded message, got %d", len(sender.msgs))
	}
	msg := sender.msgs[0]
	for _, want := range []string{"ERROR: append failed", "module: core", "conversation_id: c1"} {
		if !strings.Contains(msg, want) {
			t.Errorf("forwarded message %q does not contain %q", msg, want)
		}
	}
	if !strings.Contains(buf.String(), "chat started") {
		t.Errorf("info record was not passed to the wrapped handler")
	}
}
