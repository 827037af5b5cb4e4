package telegram

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendMessage(t *testing.T) {
	var got map[string]any
	var path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"ok":true,"result":{"message_id":1}}`))
	}))
	defer srv.Close()

	client := NewClient(Config{BotToken: "123:abc", APIBaseURL: srv.URL})
	err := client.SendMessage(context.Background(), "42", "hello")
	require.NoError(t, err)

	assert.Equal(t, "/bot123:abc/sendMessage", path)
	assert.Equal(t, "42", got["chat_id"])
	assert.Equal(t, "hello", got["text"])
	assert.Equal(t, true, got["disable_web_page_preview"])
}

func TestSendMessageFailures(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
	}{
		{name: "non 2xx", status: http.StatusForbidden, body: `{"ok":false,"description":"Forbidden: bot was blocked by the user"}`},
		{name: "ok false", status: http.StatusOK, body: `{"ok":false,"description":"Bad Request: chat not found"}`},
		{name: "malformed", status: http.StatusOK, body: `not json`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			client := NewClient(Config{BotToken: "t", APIBaseURL: srv.URL})
			assert.Error(t, client.SendMessage(context.Background(), "42", "hello"))
		})
	}
}

func TestSendMessageTimeoutHidesToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	client := NewClient(Config{BotToken: "secret-token", APIBaseURL: srv.URL, Timeout: 20 * time.Millisecond})
	err := client.SendMessage(context.Background(), "42", "hello")
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "secret-token")
}

func TestGetWebhookInfo(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/getWebhookInfo"))
		_, _ = w.Write([]byte(`{"ok":true,"result":{"url":"https://example.com/telegram/webhook","pending_update_count":3}}`))
	}))
	defer srv.Close()

	client := NewClient(Config{BotToken: "t", APIBaseURL: srv.URL})
	info, err := client.GetWebhookInfo(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/telegram/webhook", info.URL)
	assert.Equal(t, 3, info.PendingUpdateCount)
}

func TestSetWebhookSendsSecret(t *testing.T) {
	var got setWebhookRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"ok":true,"result":true}`))
	}))
	defer srv.Close()

	client := NewClient(Config{BotToken: "t", APIBaseURL: srv.URL})
	require.NoError(t, client.SetWebhook(context.Background(), "https://example.com/telegram/webhook", "s3cret"))
	assert.Equal(t, "https://example.com/telegram/webhook", got.URL)
	assert.Equal(t, "s3cret", got.SecretToken)
	assert.Equal(t, []string{"message"}, got.AllowedUpdates)
}

func TestClipKeepsRunes(t *testing.T) {
	assert.Equal(t, "abc", clip("abc", 5))
	assert.Equal(t, "пр…", clip("привет", 3))
}

func TestNoOpProvider(t *testing.T) {
	p := &NoOpProvider{}
	assert.NoError(t, p.SendMessage(context.Background(), "1", "x"))
	assert.ErrorIs(t, p.SetWebhook(context.Background(), "u", ""), ErrNotConfigured)
}
