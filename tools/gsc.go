package tools

import (
	"bytes"
	"context"
	"crypto/rsa"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/jonwraymond/crewops/cache"
	"github.com/jonwraymond/crewops/observe"
	"github.com/jonwraymond/crewops/tool"
)

// DefaultGSCAPIBase is the Search Console analytics API root.
const DefaultGSCAPIBase = "https://www.googleapis.com/webmasters/v3"

const (
	gscScope   = "https://www.googleapis.com/auth/webmasters.readonly"
	gscTimeout = 30 * time.Second

	// GSCCacheTTL keeps keyword rows for a day; Search Console data
	// refreshes far slower than the default cache window.
	GSCCacheTTL = 24 * time.Hour
)

// ServiceAccount is the subset of a Google service-account credentials
// file the tool needs for the JWT bearer grant.
type ServiceAccount struct {
	ClientEmail string `json:"client_email"`
	PrivateKey  string `json:"private_key"`
	TokenURI    string `json:"token_uri"`
}

// KeywordRow is one query row from Search Console. CTR is a percentage
// rounded to two decimals; Position is rounded to one.
type KeywordRow struct {
	Keyword     string  `json:"keyword"`
	Clicks      float64 `json:"clicks"`
	Impressions float64 `json:"impressions"`
	CTR         float64 `json:"ctr"`
	Position    float64 `json:"position"`
}

// GSCReport is the tool output: keyword rows for the queried period, with
// a marker telling whether the rows came from cache.
type GSCReport struct {
	Status  string       `json:"status"`
	Data    []KeywordRow `json:"data"`
	Cached  bool         `json:"cached"`
	Period  string       `json:"period,omitempty"`
	Message string       `json:"message,omitempty"`
}

// GSCTool queries Google Search Console for a domain's top performing
// keywords, authenticating with a service-account JWT bearer grant.
type GSCTool struct {
	runner  *tool.Runner
	client  *http.Client
	account ServiceAccount
	signKey *rsa.PrivateKey
	apiBase string
	now     func() time.Time

	mu       sync.Mutex
	token    string
	tokenExp time.Time
}

// GSCOption adjusts tool construction, mainly for tests.
type GSCOption func(*GSCTool)

// WithGSCAPIBase points the tool at an alternate analytics API root.
func WithGSCAPIBase(base string) GSCOption {
	return func(t *GSCTool) { t.apiBase = strings.TrimRight(base, "/") }
}

// WithGSCClock replaces the wall clock used for token expiry and query
// date ranges.
func WithGSCClock(now func() time.Time) GSCOption {
	return func(t *GSCTool) { t.now = now }
}

// NewGSCTool loads the service-account file at credentialsPath and builds
// the tool. A missing or malformed file is an error up front rather than
// on first query.
func NewGSCTool(credentialsPath string, backend observe.Backend, policy cache.Policy, opts ...GSCOption) (*GSCTool, error) {
	raw, err := os.ReadFile(credentialsPath)
	if err != nil {
		return nil, tool.NewError("gsc", "credentials", fmt.Errorf("%w: %s: %v", ErrNoCredentials, credentialsPath, err))
	}

	var account ServiceAccount
	if err := json.Unmarshal(raw, &account); err != nil {
		return nil, tool.NewError("gsc", "credentials", fmt.Errorf("parse %s: %w", credentialsPath, err))
	}
	if account.ClientEmail == "" || account.PrivateKey == "" {
		return nil, tool.NewError("gsc", "credentials", fmt.Errorf("%w: %s missing client_email or private_key", ErrNoCredentials, credentialsPath))
	}

	signKey, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(account.PrivateKey))
	if err != nil {
		return nil, tool.NewError("gsc", "credentials", fmt.Errorf("parse private key: %w", err))
	}

	t := &GSCTool{
		runner:  tool.NewRunner("gsc", backend, policy, tool.WithTTL(GSCCacheTTL)),
		client:  &http.Client{Timeout: gscTimeout},
		account: account,
		signKey: signKey,
		apiBase: DefaultGSCAPIBase,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// Name returns the tool class name.
func (t *GSCTool) Name() string { return t.runner.Name() }

// NormalizeSite turns a bare domain into the site URL form Search Console
// expects. Already-qualified URLs and sc-domain: properties pass through.
func NormalizeSite(domain string) string {
	if strings.HasPrefix(domain, "http") || strings.HasPrefix(domain, "sc-domain:") {
		return domain
	}
	return "https://" + domain
}

// TopKeywords fetches the top numKeywords queries for domain over the last
// days days, sorted by sortBy (clicks, impressions, ctr, or position;
// empty keeps the API's click order).
func (t *GSCTool) TopKeywords(ctx context.Context, domain string, numKeywords, days int, sortBy string) (*GSCReport, error) {
	if numKeywords <= 0 {
		numKeywords = 10
	}
	if days <= 0 {
		days = 30
	}

	site := NormalizeSite(domain)
	key := fmt.Sprintf("gsc:%s:%d:%dd", site, numKeywords, days)

	out, err := t.runner.Run(ctx, func(ctx context.Context) ([]byte, error) {
		if cached, ok := t.runner.GetCached(ctx, key); ok {
			var rows []KeywordRow
			if err := json.Unmarshal(cached, &rows); err == nil {
				sortRows(rows, sortBy)
				return json.Marshal(&GSCReport{Status: "success", Data: rows, Cached: true})
			}
			// Unreadable entry: fall through and refetch.
		}

		report, rows, err := t.query(ctx, site, numKeywords, days)
		if err != nil {
			return nil, tool.NewError("gsc", "query", err)
		}

		if len(rows) > 0 {
			if raw, err := json.Marshal(rows); err == nil {
				t.runner.PutCached(ctx, key, raw)
			}
		}

		sortRows(report.Data, sortBy)
		return json.Marshal(report)
	})
	if err != nil {
		return nil, err
	}

	var report GSCReport
	if err := json.Unmarshal(out, &report); err != nil {
		return nil, tool.NewError("gsc", "decode", err)
	}
	return &report, nil
}

type analyticsRequest struct {
	StartDate       string   `json:"startDate"`
	EndDate         string   `json:"endDate"`
	Dimensions      []string `json:"dimensions"`
	RowLimit        int      `json:"rowLimit"`
	AggregationType string   `json:"aggregationType"`
}

type analyticsResponse struct {
	Rows []struct {
		Keys        []string `json:"keys"`
		Clicks      float64  `json:"clicks"`
		Impressions float64  `json:"impressions"`
		CTR         float64  `json:"ctr"`
		Position    float64  `json:"position"`
	} `json:"rows"`
}

func (t *GSCTool) query(ctx context.Context, site string, numKeywords, days int) (*GSCReport, []KeywordRow, error) {
	token, err := t.accessToken(ctx)
	if err != nil {
		return nil, nil, err
	}

	end := t.now()
	start := end.AddDate(0, 0, -days)
	period := start.Format("2006-01-02") + " to " + end.Format("2006-01-02")

	body, err := json.Marshal(analyticsRequest{
		StartDate:       start.Format("2006-01-02"),
		EndDate:         end.Format("2006-01-02"),
		Dimensions:      []string{"query"},
		RowLimit:        numKeywords,
		AggregationType: "auto",
	})
	if err != nil {
		return nil, nil, err
	}

	u := t.apiBase + "/sites/" + url.PathEscape(site) + "/searchAnalytics/query"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("query search console for %s: %w", site, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, nil, fmt.Errorf("query search console for %s: %w: %s: %s",
			site, ErrUpstreamStatus, resp.Status, strings.TrimSpace(string(snippet)))
	}

	var parsed analyticsResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, nil, fmt.Errorf("decode search console response: %w", err)
	}

	if len(parsed.Rows) == 0 {
		return &GSCReport{
			Status:  "success",
			Data:    []KeywordRow{},
			Period:  period,
			Message: fmt.Sprintf("no keyword data found for this site in the last %d days", days),
		}, nil, nil
	}

	rows := make([]KeywordRow, 0, len(parsed.Rows))
	for _, r := range parsed.Rows {
		keyword := ""
		if len(r.Keys) > 0 {
			keyword = r.Keys[0]
		}
		rows = append(rows, KeywordRow{
			Keyword:     keyword,
			Clicks:      r.Clicks,
			Impressions: r.Impressions,
			CTR:         math.Round(r.CTR*10000) / 100,
			Position:    math.Round(r.Position*10) / 10,
		})
	}

	return &GSCReport{Status: "success", Data: rows, Period: period}, rows, nil
}

func sortRows(rows []KeywordRow, sortBy string) {
	switch strings.ToLower(sortBy) {
	case "", "clicks":
		// API order is already clicks-descending.
	case "impressions":
		sort.SliceStable(rows, func(i, j int) bool { return rows[i].Impressions > rows[j].Impressions })
	case "ctr":
		sort.SliceStable(rows, func(i, j int) bool { return rows[i].CTR > rows[j].CTR })
	case "position":
		// Lower position is better.
		sort.SliceStable(rows, func(i, j int) bool { return rows[i].Position < rows[j].Position })
	}
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

// accessToken returns a bearer token for the analytics API, reusing the
// current one until a minute before it expires.
func (t *GSCTool) accessToken(ctx context.Context) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	if t.token != "" && now.Before(t.tokenExp.Add(-time.Minute)) {
		return t.token, nil
	}

	claims := jwt.MapClaims{
		"iss":   t.account.ClientEmail,
		"scope": gscScope,
		"aud":   t.account.TokenURI,
		"iat":   now.Unix(),
		"exp":   now.Add(time.Hour).Unix(),
	}
	assertion, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(t.signKey)
	if err != nil {
		return "", fmt.Errorf("sign token assertion: %w", err)
	}

	form := url.Values{
		"grant_type": {"urn:ietf:params:oauth:grant-type:jwt-bearer"},
		"assertion":  {assertion},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.account.TokenURI,
		strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := t.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("exchange token assertion: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("exchange token assertion: %w: %s: %s",
			ErrUpstreamStatus, resp.Status, strings.TrimSpace(string(snippet)))
	}

	var tr tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return "", fmt.Errorf("decode token response: %w", err)
	}
	if tr.AccessToken == "" {
		return "", fmt.Errorf("decode token response: empty access_token")
	}

	t.token = tr.AccessToken
	t.tokenExp = now.Add(time.Duration(tr.ExpiresIn) * time.Second)
	return t.token, nil
}
