package telegram

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSend(t *testing.T) {
	var gotPath string
	var gotBody sendMessageRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		raw, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(raw, &gotBody))
		_, _ = w.Write([]byte(`{"ok":true,"result":{}}`))
	}))
	defer srv.Close()

	client := New("token123", WithBaseURL(srv.URL), WithParseMode("Markdown"))
	err := client.Send(context.Background(), 42, "hello")
	require.NoError(t, err)

	assert.Equal(t, "/bottoken123/sendMessage", gotPath)
	assert.Equal(t, int64(42), gotBody.ChatID)
	assert.Equal(t, "hello", gotBody.Text)
	assert.Equal(t, "Markdown", gotBody.ParseMode)
}

func TestSendAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"ok":false,"error_code":403,"description":"Forbidden: bot was blocked by the user"}`))
	}))
	defer srv.Close()

	client := New("token", WithBaseURL(srv.URL))
	err := client.Send(context.Background(), 42, "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "blocked by the user")
}

func TestSetWebhookCarriesSecret(t *testing.T) {
	var gotBody setWebhookRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(raw, &gotBody))
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	client := New("token", WithBaseURL(srv.URL))
	require.NoError(t, client.SetWebhook(context.Background(), "https://example.com/telegram/webhook", "s3cret"))
	assert.Equal(t, "https://example.com/telegram/webhook", gotBody.URL)
	assert.Equal(t, "s3cret", gotBody.SecretToken)
}

func TestParseUpdate(t *testing.T) {
	raw := `{
		"update_id": 7,
		"message": {
			"message_id": 1,
			"from": {"id": 99, "is_bot": false, "first_name": "Ivan"},
			"chat": {"id": 99, "type": "private"},
			"date": 1735689600,
			"text": "/start"
		}
	}`
	update, err := ParseUpdate(strings.NewReader(raw))
	require.NoError(t, err)
	require.NotNil(t, update.Message)
	assert.Equal(t, int64(7), update.UpdateID)
	assert.Equal(t, int64(99), update.Message.Chat.ID)
	assert.Equal(t, "/start", update.Message.Text)

	_, err = ParseUpdate(strings.NewReader("{"))
	require.Error(t, err)
}
