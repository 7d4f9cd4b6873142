package recommend

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
)

// Default timeouts for the model service.
const (
	DefaultTimeout       = 30 * time.Second
	DefaultHealthTimeout = 5 * time.Second
)

const userAgent = "CropAdvisor-Backend/1.0"

// Remote is the model service the advisor asks first.
type Remote interface {
	Recommend(ctx context.Context, in RemoteRequest) (json.RawMessage, error)
	Health(ctx context.Context) (json.RawMessage, error)
}

// RemoteRequest is the payload sent to POST {baseURL}/recommend.
type RemoteRequest struct {
	Latitude            float64    `json:"latitude"`
	Longitude           float64    `json:"longitude"`
	SoilType            string     `json:"soilType"`
	Area                float64    `json:"area"`
	IrrigationFrequency string     `json:"irrigationFrequency"`
	PastCrops           []PastCrop `json:"pastCrops"`
	District            string     `json:"district,omitempty"`
	Timestamp           string     `json:"timestamp"`
}

// HTTPClientOption configures an HTTPClient.
type HTTPClientOption func(*HTTPClient)

// WithHTTPClient sets the underlying *http.Client.
func WithHTTPClient(hc *http.Client) HTTPClientOption {
	return func(c *HTTPClient) { c.http = hc }
}

// WithTimeouts overrides the recommend and health timeouts. Zero keeps the default.
func WithTimeouts(recommend, health time.Duration) HTTPClientOption {
	return func(c *HTTPClient) {
		if recommend > 0 {
			c.timeout = recommend
		}
		if health > 0 {
			c.healthTimeout = health
		}
	}
}

// HTTPClient talks to the model service over HTTP.
type HTTPClient struct {
	baseURL       string
	http          *http.Client
	timeout       time.Duration
	healthTimeout time.Duration
}

// NewHTTPClient creates a client for the service rooted at baseURL.
func NewHTTPClient(baseURL string, opts ...HTTPClientOption) *HTTPClient {
	c := &HTTPClient{
		baseURL:       strings.TrimRight(baseURL, "/"),
		http:          &http.Client{},
		timeout:       DefaultTimeout,
		healthTimeout: DefaultHealthTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the configured service root.
func (c *HTTPClient) BaseURL() string { return c.baseURL }

// Timeout returns the recommend call timeout.
func (c *HTTPClient) Timeout() time.Duration { return c.timeout }

// Recommend calls POST {baseURL}/recommend and returns the response body.
func (c *HTTPClient) Recommend(ctx context.Context, in RemoteRequest) (json.RawMessage, error) {
	body, err := json.Marshal(in)
	if err != nil {
		return nil, eris.Wrap(err, "recommend: marshal remote request")
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/recommend", bytes.NewReader(body))
	if err != nil {
		return nil, eris.Wrap(err, "recommend: build request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("X-Request-ID", uuid.NewString())

	return c.do(req)
}

// Health calls GET {baseURL}/health.
func (c *HTTPClient) Health(ctx context.Context) (json.RawMessage, error) {
	ctx, cancel := context.WithTimeout(ctx, c.healthTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return nil, eris.Wrap(err, "recommend: build health request")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	return c.do(req)
}

func (c *HTTPClient) do(req *http.Request) (json.RawMessage, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "recommend: model service call failed")
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "recommend: read model service response")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, eris.Errorf("recommend: model service non-2xx: %s, body: %s", resp.Status, truncate(data, 256))
	}
	if !json.Valid(data) {
		return nil, eris.New("recommend: model service returned invalid json")
	}
	return json.RawMessage(data), nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
