package reputation

import (
	"context"
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

	cfg := DefaultClientConfig()
	cfg.URL = srv.URL + "/api/v2/check"
	cfg.Timeout = 2 * time.Second
	cfg.RequestsPerSecond = 1000
	return NewClient(cfg)
}

func TestClient_Score(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v2/check", r.URL.Path)
		assert.Equal(t, "203.0.113.7", r.URL.Query().Get("ipAddress"))
		assert.Equal(t, "90", r.URL.Query().Get("maxAgeInDays"))
		assert.Equal(t, "secret", r.Header.Get("Key"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":{"ipAddress":"203.0.113.7","abuseConfidenceScore":85}}`))
	})

	score, err := client.Score(context.Background(), "203.0.113.7", "secret")
	require.NoError(t, err)
	assert.Equal(t, 85, score)
}

func TestClient_Failures(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
	}{
		{"unauthorized", http.StatusUnauthorized, `{"errors":[{"detail":"bad key"}]}`, "status 401"},
		{"rate limited", http.StatusTooManyRequests, `{}`, "status 429"},
		{"malformed json", http.StatusOK, `{"data":`, "parse"},
		{"missing score", http.StatusOK, `{"data":{}}`, "no confidence score"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			score, err := client.Score(context.Background(), "198.51.100.1", "k")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.Zero(t, score)
		})
	}
}

func TestClient_ClampsScore(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":{"abuseConfidenceScore":250}}`))
	})

	score, err := client.Score(context.Background(), "198.51.100.1", "k")
	require.NoError(t, err)
	assert.Equal(t, 100, score)
}

func TestClient_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	endpoint := srv.URL
	srv.Close()

	client := NewClient(ClientConfig{URL: endpoint, Timeout: time.Second, RequestsPerSecond: 1000})
	_, err := client.Score(context.Background(), "198.51.100.1", "k")
	assert.Error(t, err)
}

func TestClient_Timeout(t *testing.T) {
	block := make(chan struct{})
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-block:
		case <-r.Context().Done():
		}
	})
	defer close(block)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.Score(ctx, "198.51.100.1", "k")
	assert.Error(t, err)
}

func TestNewClient_Defaults(t *testing.T) {
	c := NewClient(ClientConfig{})
	assert.Equal(t, DefaultURL, c.endpoint)
	assert.Equal(t, 90, c.maxAgeDays)
	assert.Equal(t, 10*time.Second, c.http.Timeout)
}
