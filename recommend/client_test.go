package recommend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPClient_Recommend_Success(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/recommend", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, userAgent, r.Header.Get("User-Agent"))
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))

		var got RemoteRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		assert.Equal(t, "black", got.SoilType)
		assert.Equal(t, "2026-10-18T09:00:00Z", got.Timestamp)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"crops":[{"name":"Cotton","confidence":0.9}]}`))
	}))
	defer srv.Close()

	client := NewHTTPClient(srv.URL + "/")
	body, err := client.Recommend(context.Background(), RemoteRequest{SoilType: "black", Timestamp: "2026-10-18T09:00:00Z"})

	require.NoError(t, err)
	assert.JSONEq(t, `{"crops":[{"name":"Cotton","confidence":0.9}]}`, string(body))
}

func TestHTTPClient_Recommend_Non2xx(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`model crashed`))
	}))
	defer srv.Close()

	_, err := NewHTTPClient(srv.URL).Recommend(context.Background(), RemoteRequest{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
	assert.Contains(t, err.Error(), "model crashed")
}

func TestHTTPClient_Recommend_InvalidJSON(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{not json`))
	}))
	defer srv.Close()

	_, err := NewHTTPClient(srv.URL).Recommend(context.Background(), RemoteRequest{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid json")
}

func TestHTTPClient_Recommend_Timeout(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	client := NewHTTPClient(srv.URL, WithTimeouts(50*time.Millisecond, 0))
	start := time.Now()
	_, err := client.Recommend(context.Background(), RemoteRequest{})

	require.Error(t, err)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestHTTPClient_Health(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/health", r.URL.Path)
		w.Write([]byte(`{"status":"healthy"}`))
	}))
	defer srv.Close()

	body, err := NewHTTPClient(srv.URL).Health(context.Background())

	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"healthy"}`, string(body))
}

func TestHTTPClient_WithHTTPClient_TLS(t *testing.T) {
	t.Parallel()

	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"healthy"}`))
	}))
	defer srv.Close()

	_, err := NewHTTPClient(srv.URL).Health(context.Background())
	require.Error(t, err, "default client does not trust the test certificate")

	body, err := NewHTTPClient(srv.URL, WithHTTPClient(srv.Client())).Health(context.Background())
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"healthy"}`, string(body))
}

func TestNewHTTPClient_Defaults(t *testing.T) {
	c := NewHTTPClient("http://model.local/ai/")

	assert.Equal(t, "http://model.local/ai", c.BaseURL())
	assert.Equal(t, DefaultTimeout, c.Timeout())
	assert.Equal(t, DefaultHealthTimeout, c.healthTimeout)
}
