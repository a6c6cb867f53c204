package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := DefaultClientConfig("test-key")
	cfg.BaseURL = srv.URL
	cfg.RequestsPerMinute = 0
	return NewClient(cfg)
}

func TestClient_GenerateText(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1beta/models/gemini-2.5-flash:generateContent", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-goog-api-key"))

		var body GenerateContentRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Len(t, body.Contents, 1)
		assert.Equal(t, "halo", body.Contents[0].Parts[0].Text)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"Bagus "},{"text":"sekali.\n"}]}}]}`))
	})

	text, err := c.GenerateText(context.Background(), "halo")
	require.NoError(t, err)
	assert.Equal(t, "Bagus sekali.", text)
}

func TestClient_EmptyCandidates(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"candidates":[]}`))
	})

	text, err := c.GenerateText(context.Background(), "halo")
	require.NoError(t, err)
	assert.Empty(t, text)
}

func TestClient_APIError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":{"code":403,"message":"API key not valid","status":"PERMISSION_DENIED"}}`))
	})

	_, err := c.GenerateText(context.Background(), "halo")

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, 403, apiErr.StatusCode)
	assert.Equal(t, "PERMISSION_DENIED", apiErr.Status)
	assert.Contains(t, err.Error(), "API key not valid")
}

func TestClient_MissingKey(t *testing.T) {
	c := NewClient(DefaultClientConfig(""))

	assert.False(t, c.Configured())
	_, err := c.GenerateText(context.Background(), "halo")
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestClient_MalformedBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	})

	_, err := c.GenerateText(context.Background(), "halo")
	assert.Error(t, err)
}

func TestRateLimiter(t *testing.T) {
	assert.Nil(t, NewRateLimiter(0, 1))
	assert.True(t, (*RateLimiter)(nil).TryAllow())

	now := time.Unix(0, 0)
	rl := NewRateLimiter(60, 2)
	rl.now = func() time.Time { return now }
	rl.lastRefill = now

	assert.True(t, rl.TryAllow())
	assert.True(t, rl.TryAllow())
	assert.False(t, rl.TryAllow())

	now = now.Add(time.Second)
	assert.True(t, rl.TryAllow())
}

func TestRateLimiter_WaitRespectsContext(t *testing.T) {
	rl := NewRateLimiter(1, 1)
	require.True(t, rl.TryAllow())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, rl.Wait(ctx), context.DeadlineExceeded)
}
