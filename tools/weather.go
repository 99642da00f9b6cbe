package tools

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jonwraymond/crewops/cache"
	"github.com/jonwraymond/crewops/observe"
	"github.com/jonwraymond/crewops/tool"
)

// DefaultWeatherBaseURL is the public wttr.in endpoint.
const DefaultWeatherBaseURL = "https://wttr.in"

const weatherTimeout = 10 * time.Second

// WeatherTool fetches current conditions for a location from a wttr.in
// style endpoint. Responses are cached under the lowercased location, so
// "London" and "london" share an entry.
type WeatherTool struct {
	runner  *tool.Runner
	client  *http.Client
	baseURL string
}

// NewWeatherTool builds the tool. baseURL may be empty to use the public
// wttr.in instance; backend may be nil to use the process-wide one.
func NewWeatherTool(baseURL string, backend observe.Backend, policy cache.Policy, opts ...tool.RunnerOption) *WeatherTool {
	if baseURL == "" {
		baseURL = DefaultWeatherBaseURL
	}
	return &WeatherTool{
		runner:  tool.NewRunner("weather", backend, policy, opts...),
		client:  &http.Client{Timeout: weatherTimeout},
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// Name returns the tool class name.
func (t *WeatherTool) Name() string { return t.runner.Name() }

// Report returns a short "condition temperature" line for location. Cache
// hits carry a " (cached)" suffix so callers can tell a reused answer from
// a fresh fetch.
func (t *WeatherTool) Report(ctx context.Context, location string) (string, error) {
	key := "weather:" + strings.ToLower(location)

	out, err := t.runner.Run(ctx, func(ctx context.Context) ([]byte, error) {
		if cached, ok := t.runner.GetCached(ctx, key); ok {
			return append(cached, " (cached)"...), nil
		}

		report, err := t.fetch(ctx, location)
		if err != nil {
			return nil, tool.NewError("weather", "fetch", err)
		}

		t.runner.PutCached(ctx, key, report)
		return report, nil
	})
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func (t *WeatherTool) fetch(ctx context.Context, location string) ([]byte, error) {
	// %C+%t asks wttr.in for condition and temperature only.
	u := t.baseURL + "/" + url.PathEscape(location) + "?format=%C+%t"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch weather for %s: %w", location, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch weather for %s: %w: %s", location, ErrUpstreamStatus, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		return nil, fmt.Errorf("fetch weather for %s: %w", location, err)
	}

	return []byte(strings.TrimSpace(string(body))), nil
}
