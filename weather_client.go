package main

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"cropadvisor/models"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// fallbackWeather is reported when OpenWeather is not configured or fails.
var fallbackWeather = models.Weather{
	TemperatureDegC: 25,
	HumidityPct:     60,
	Condition:       "Clear sky",
	WindSpeedMps:    5,
	Fallback:        true,
}

type weatherClient struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

func newWeatherClient(cfg WeatherConfig) *weatherClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &weatherClient{
		apiKey:  cfg.APIKey,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// openWeatherResp is the subset of /data/2.5/weather we read.
type openWeatherResp struct {
	Main struct {
		Temp     float64 `json:"temp"`
		Humidity float64 `json:"humidity"`
	} `json:"main"`
	Weather []struct {
		Description string `json:"description"`
	} `json:"weather"`
	Wind struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
}

// Current never fails; errors are logged and fallbackWeather returned.
func (c *weatherClient) Current(ctx context.Context, lat, lon float64) models.Weather {
	if c.apiKey == "" {
		return fallbackWeather
	}
	w, err := c.fetch(ctx, lat, lon)
	if err != nil {
		zap.L().Warn("weather lookup failed", zap.Float64("lat", lat), zap.Float64("lon", lon), zap.Error(err))
		return fallbackWeather
	}
	return w
}

func (c *weatherClient) fetch(ctx context.Context, lat, lon float64) (models.Weather, error) {
	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	q.Set("appid", c.apiKey)
	q.Set("units", "metric")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/data/2.5/weather?"+q.Encode(), nil)
	if err != nil {
		return models.Weather{}, eris.Wrap(err, "weather: build request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return models.Weather{}, eris.Wrap(err, "weather: call failed")
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return models.Weather{}, eris.Errorf("weather: non-2xx: %s", resp.Status)
	}

	var out openWeatherResp
	if err := json.Unmarshal(data, &out); err != nil {
		return models.Weather{}, eris.Wrap(err, "weather: decode response")
	}
	w := models.Weather{
		TemperatureDegC: out.Main.Temp,
		HumidityPct:     out.Main.Humidity,
		WindSpeedMps:    out.Wind.Speed,
	}
	if len(out.Weather) > 0 {
		w.Condition = out.Weather[0].Description
	}
	return w, nil
}
