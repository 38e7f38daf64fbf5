package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/yungbote/lewa-backend/internal/gateway/config"
)

const defaultSerpAPIURL = "https://serpapi.com/search.json"

// SerpAPI queries Google through serpapi.com.
type SerpAPI struct {
	apiKey     string
	baseURL    string
	defaultNum int
	httpClient *http.Client
}

func NewSerpAPI(cfg config.SearchConfig) *SerpAPI {
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = defaultSerpAPIURL
	}
	timeout := cfg.Timeout.Duration
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &SerpAPI{
		apiKey:     strings.TrimSpace(cfg.APIKey),
		baseURL:    baseURL,
		defaultNum: cfg.DefaultNumResults,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// NewSerpAPIWithHTTPClient is intended for tests.
func NewSerpAPIWithHTTPClient(cfg config.SearchConfig, httpClient *http.Client) *SerpAPI {
	s := NewSerpAPI(cfg)
	if httpClient != nil {
		s.httpClient = httpClient
	}
	return s
}

// Configured reports whether an API key is present.
func (s *SerpAPI) Configured() bool { return s.apiKey != "" }

type serpItem struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet"`
	Source  string `json:"source"`
	Date    string `json:"date"`
}

type serpResponse struct {
	Error          string     `json:"error"`
	OrganicResults []serpItem `json:"organic_results"`
	NewsResults    []serpItem `json:"news_results"`
}

func (s *SerpAPI) Search(ctx context.Context, q Query) ([]Result, error) {
	if !s.Configured() {
		return nil, ErrNotConfigured
	}
	q, err := q.Normalize(s.defaultNum)
	if err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("engine", "google")
	params.Set("q", q.Query)
	params.Set("num", strconv.Itoa(q.NumResults))
	params.Set("api_key", s.apiKey)
	if q.News {
		params.Set("tbm", "nws")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("serpapi: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("serpapi: read body: %w", err)
	}

	var out serpResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, fmt.Errorf("serpapi: status=%d", resp.StatusCode)
		}
		return nil, fmt.Errorf("serpapi: decode: %w", err)
	}
	if out.Error != "" {
		return nil, fmt.Errorf("SerpApi error: %s", out.Error)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("serpapi: status=%d", resp.StatusCode)
	}

	items := out.OrganicResults
	if q.News {
		items = out.NewsResults
	}
	results := make([]Result, 0, len(items))
	for _, it := range items {
		results = append(results, Result{
			Title:   it.Title,
			Link:    it.Link,
			Snippet: it.Snippet,
			Source:  it.Source,
			Date:    it.Date,
		})
	}
	if len(results) > q.NumResults {
		results = results[:q.NumResults]
	}
	return results, nil
}
