package search

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/lewa-backend/internal/gateway/config"
)

type roundTripperFunc func(req *http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) { return f(req) }

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func TestSerpAPISearch(t *testing.T) {
	client := &http.Client{Transport: roundTripperFunc(func(req *http.Request) (*http.Response, error) {
		q := req.URL.Query()
		assert.Equal(t, "google", q.Get("engine"))
		assert.Equal(t, "photosynthesis", q.Get("q"))
		assert.Equal(t, "2", q.Get("num"))
		assert.Equal(t, "k", q.Get("api_key"))
		assert.Empty(t, q.Get("tbm"))
		return jsonResponse(http.StatusOK, `{
			"search_metadata": {"status": "Success"},
			"organic_results": [
				{"title": "Photosynthesis", "link": "https://a", "snippet": "light", "source": "Wiki"},
				{"title": "Calvin cycle", "link": "https://b", "snippet": "dark", "source": "Khan"},
				{"title": "Extra", "link": "https://c"}
			]
		}`), nil
	})}

	s := NewSerpAPIWithHTTPClient(config.SearchConfig{APIKey: "k", BaseURL: "http://serp/search.json"}, client)
	res, err := s.Search(context.Background(), Query{Query: "  photosynthesis ", NumResults: 2})
	require.NoError(t, err)
	assert.Equal(t, []Result{
		{Title: "Photosynthesis", Link: "https://a", Snippet: "light", Source: "Wiki"},
		{Title: "Calvin cycle", Link: "https://b", Snippet: "dark", Source: "Khan"},
	}, res)
}

func TestSerpAPINewsAndErrors(t *testing.T) {
	t.Run("news", func(t *testing.T) {
		client := &http.Client{Transport: roundTripperFunc(func(req *http.Request) (*http.Response, error) {
			assert.Equal(t, "nws", req.URL.Query().Get("tbm"))
			return jsonResponse(http.StatusOK, `{"news_results":[{"title":"GCE results out","link":"https://n","date":"2 days ago"}]}`), nil
		})}
		s := NewSerpAPIWithHTTPClient(config.SearchConfig{APIKey: "k"}, client)
		res, err := s.Search(context.Background(), Query{Query: "GCE", News: true})
		require.NoError(t, err)
		require.Len(t, res, 1)
		assert.Equal(t, "2 days ago", res[0].Date)
	})

	t.Run("provider error field", func(t *testing.T) {
		client := &http.Client{Transport: roundTripperFunc(func(req *http.Request) (*http.Response, error) {
			return jsonResponse(http.StatusUnauthorized, `{"error":"Invalid API key."}`), nil
		})}
		s := NewSerpAPIWithHTTPClient(config.SearchConfig{APIKey: "bad"}, client)
		_, err := s.Search(context.Background(), Query{Query: "GCE"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Invalid API key.")
	})

	t.Run("not configured", func(t *testing.T) {
		_, err := NewSerpAPI(config.SearchConfig{}).Search(context.Background(), Query{Query: "GCE"})
		assert.ErrorIs(t, err, ErrNotConfigured)
	})

	t.Run("empty query", func(t *testing.T) {
		_, err := NewSerpAPI(config.SearchConfig{APIKey: "k"}).Search(context.Background(), Query{Query: "  "})
		assert.ErrorIs(t, err, ErrEmptyQuery)
	})
}

func TestQueryNormalize(t *testing.T) {
	q, err := Query{Query: " x ", NumResults: 500}.Normalize(5)
	require.NoError(t, err)
	assert.Equal(t, Query{Query: "x", NumResults: maxResults}, q)

	q, err = Query{Query: "x"}.Normalize(0)
	require.NoError(t, err)
	assert.Equal(t, 5, q.NumResults)
}

type memStore struct {
	mu   sync.Mutex
	data map[string][]byte
	err  error
}

func newMemStore() *memStore { return &memStore{data: map[string][]byte{}} }

func (m *memStore) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	b, ok := m.data[key]
	if !ok {
		return nil, ErrCacheMiss
	}
	return b, nil
}

func (m *memStore) Set(_ context.Context, key string, val []byte, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.data[key] = val
	return nil
}

type countingSearcher struct {
	calls   atomic.Int32
	delay   time.Duration
	err     error
	results []Result
}

func (c *countingSearcher) Search(ctx context.Context, q Query) ([]Result, error) {
	c.calls.Add(1)
	if c.delay > 0 {
		select {
		case <-time.After(c.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if c.err != nil {
		return nil, c.err
	}
	return c.results, nil
}

func TestCachedServesRepeatsFromStore(t *testing.T) {
	next := &countingSearcher{results: []Result{{Title: "GCE", Link: "https://gce"}}}
	c := NewCached(next, newMemStore(), time.Minute, nil)

	for i := 0; i < 3; i++ {
		res, err := c.Search(context.Background(), Query{Query: "GCE timetable", NumResults: 5})
		require.NoError(t, err)
		assert.Equal(t, next.results, res)
	}
	assert.Equal(t, int32(1), next.calls.Load())

	_, err := c.Search(context.Background(), Query{Query: "GCE timetable", NumResults: 5, News: true})
	require.NoError(t, err)
	assert.Equal(t, int32(2), next.calls.Load())
}

func TestCachedCollapsesConcurrentMisses(t *testing.T) {
	next := &countingSearcher{delay: 50 * time.Millisecond, results: []Result{{Link: "https://x"}}}
	c := NewCached(next, newMemStore(), time.Minute, nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.Search(context.Background(), Query{Query: "results", NumResults: 5})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), next.calls.Load())
}

func TestCachedBypassesBrokenStore(t *testing.T) {
	store := newMemStore()
	store.err = errors.New("connection refused")
	next := &countingSearcher{results: []Result{{Link: "https://x"}}}
	c := NewCached(next, store, time.Minute, nil)

	res, err := c.Search(context.Background(), Query{Query: "results"})
	require.NoError(t, err)
	assert.Len(t, res, 1)
}

func TestCachedDoesNotCacheErrors(t *testing.T) {
	next := &countingSearcher{err: ErrNotConfigured}
	c := NewCached(next, newMemStore(), time.Minute, nil)

	for i := 0; i < 2; i++ {
		_, err := c.Search(context.Background(), Query{Query: "results"})
		assert.ErrorIs(t, err, ErrNotConfigured)
	}
	assert.Equal(t, int32(2), next.calls.Load())
}

func TestCachedLeaderCancelDoesNotFailFollowers(t *testing.T) {
	next := &countingSearcher{delay: 100 * time.Millisecond, results: []Result{{Link: "https://gce"}}}
	c := NewCached(next, newMemStore(), time.Minute, nil)
	q := Query{Query: "GCE results", NumResults: 5}

	leaderCtx, cancelLeader := context.WithCancel(context.Background())
	leaderErr := make(chan error, 1)
	go func() {
		_, err := c.Search(leaderCtx, q)
		leaderErr <- err
	}()
	require.Eventually(t, func() bool { return next.calls.Load() == 1 }, time.Second, time.Millisecond)

	followerRes := make(chan []Result, 1)
	followerErr := make(chan error, 1)
	go func() {
		res, err := c.Search(context.Background(), q)
		followerRes <- res
		followerErr <- err
	}()
	time.Sleep(10 * time.Millisecond)
	cancelLeader()

	assert.ErrorIs(t, <-leaderErr, context.Canceled)
	assert.Equal(t, next.results, <-followerRes)
	assert.NoError(t, <-followerErr)
	assert.Equal(t, int32(1), next.calls.Load())
}
