package search

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/yungbote/lewa-backend/internal/platform/logger"
)

// sharedSearchTimeout bounds an upstream search that callers share.
const sharedSearchTimeout = 30 * time.Second

// ErrCacheMiss is returned by a Store for absent keys.
var ErrCacheMiss = errors.New("cache miss")

// Store is a byte-oriented TTL cache.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
}

type redisStore struct {
	rdb *goredis.Client
}

// NewRedisStore connects to addr and pings it before returning.
func NewRedisStore(ctx context.Context, addr, password string, db int) (Store, func() error, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, nil, fmt.Errorf("missing redis addr")
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		Password:    password,
		DB:          db,
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, nil, fmt.Errorf("redis ping: %w", err)
	}
	return &redisStore{rdb: rdb}, rdb.Close, nil
}

func (s *redisStore) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := s.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, ErrCacheMiss
	}
	return b, err
}

func (s *redisStore) Set(ctx context.Context, key string, val []byte, ttl time.Duration) error {
	return s.rdb.Set(ctx, key, val, ttl).Err()
}

// Cached fronts a Searcher with a TTL cache. Identical concurrent queries
// share one upstream call. Cache failures are logged and bypassed.
type Cached struct {
	next  Searcher
	store Store
	ttl   time.Duration
	log   *logger.Logger
	group singleflight.Group
}

func NewCached(next Searcher, store Store, ttl time.Duration, log *logger.Logger) *Cached {
	if log == nil {
		log = logger.Nop()
	}
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &Cached{next: next, store: store, ttl: ttl, log: log.With("service", "SearchCache")}
}

func (c *Cached) Search(ctx context.Context, q Query) ([]Result, error) {
	key := cacheKey(q)

	if b, err := c.store.Get(ctx, key); err == nil {
		var cached []Result
		if err := json.Unmarshal(b, &cached); err == nil {
			return cached, nil
		}
		c.log.Warn("discarding corrupt cache entry", "key", key)
	} else if !errors.Is(err, ErrCacheMiss) {
		c.log.Warn("search cache get failed", "key", key, "error", err)
	}

	// The shared call outlives any single caller; each caller waits only
	// as long as its own context allows.
	ch := c.group.DoChan(key, func() (interface{}, error) {
		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sharedSearchTimeout)
		defer cancel()
		results, err := c.next.Search(sctx, q)
		if err != nil {
			return nil, err
		}
		if b, err := json.Marshal(results); err == nil {
			if err := c.store.Set(sctx, key, b, c.ttl); err != nil {
				c.log.Warn("search cache set failed", "key", key, "error", err)
			}
		}
		return results, nil
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]Result), nil
	}
}

func cacheKey(q Query) string {
	h := sha256.New()
	h.Write([]byte(strings.ToLower(strings.TrimSpace(q.Query))))
	h.Write([]byte{0})
	h.Write([]byte(strconv.Itoa(q.NumResults)))
	h.Write([]byte{0})
	h.Write([]byte(strconv.FormatBool(q.News)))
	return "lewa:search:" + hex.EncodeToString(h.Sum(nil))
}
