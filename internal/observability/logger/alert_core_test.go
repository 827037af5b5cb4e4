package logger

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type recordingSender struct {
	mu    sync.Mutex
	texts []string
}

func (s *recordingSender) SendAlert(_ context.Context, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.texts = append(s.texts, text)
	return nil
}

func (s *recordingSender) sent() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string{}, s.texts...)
}

func TestAlertCoreForwardsErrorEntries(t *testing.T) {
	sender := &recordingSender{}
	core := NewAlertCore(sender, zapcore.ErrorLevel, "luggagehub", "providers.telegram")
	log := zap.New(core)

	log.Info("ignored")
	log.Named("reservation.service").Error("commit failed", zap.String("listing_id", "42"))
	log.Named("providers.telegram").Error("send failed")
	core.Close()

	texts := sender.sent()
	require.Len(t, texts, 1)
	assert.True(t, strings.HasPrefix(texts[0], "[luggagehub] ERROR reservation.service: commit failed"))
	assert.Contains(t, texts[0], `"listing_id":"42"`)
}

func TestAlertCoreDropsEntriesAfterClose(t *testing.T) {
	sender := &recordingSender{}
	core := NewAlertCore(sender, zapcore.ErrorLevel, "luggagehub")
	log := zap.New(core).Named("notification.service")

	log.Error("before close")
	core.Close()

	assert.NotPanics(t, func() {
		log.Error("after close")
		log.With(zap.String("job", "purge_link_tokens")).Error("after close with fields")
	})
	core.Close()

	texts := sender.sent()
	require.Len(t, texts, 1)
	assert.Contains(t, texts[0], "before close")
}

func TestTruncateKeepsRuneBoundary(t *testing.T) {
	text := strings.Repeat("ж", 10)
	out := truncate(text, 5)
	assert.True(t, strings.HasSuffix(out, "…"))
	assert.Equal(t, "жж…", out)
	assert.Equal(t, "short", truncate("short", 10))
}

func TestOperationFromSQL(t *testing.T) {
	assert.Equal(t, "SELECT", operationFromSQL("WITH x AS (SELECT 1) SELECT * FROM x"))
	assert.Equal(t, "UPDATE", operationFromSQL("update luggage_subscriptions set is_active = false"))
	assert.Equal(t, "UNKNOWN", operationFromSQL(""))
}
