package notification

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendEmptyURLIsNoop(t *testing.T) {
	assert.NoError(t, Send(context.Background(), "", "Batch", "done", false))
}

func TestSendPostsEmbed(t *testing.T) {
	var got DiscordMessage
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	require.NoError(t, Send(context.Background(), srv.URL, "Batch failed", "2 of 6 failed", true))
	require.Len(t, got.Embeds, 1)
	assert.Equal(t, "🚨 Batch failed", got.Embeds[0].Title)
	assert.Equal(t, "2 of 6 failed", got.Embeds[0].Description)
	assert.Equal(t, colorFailure, got.Embeds[0].Color)
}

func TestSendReportsStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	err := Send(context.Background(), srv.URL, "Batch", "done", false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}
