package bank

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"quizbank/internal/question"
)

const cacheKeyPrefix = "quizbank:records:"

// RecordSource supplies raw question records.
type RecordSource interface {
	LoadRecords(ctx context.Context, f Filter) ([]question.RawQuestionRecord, error)
}

// NewRedisClient connects to a Redis or Dragonfly server and pings it.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	if strings.TrimSpace(url) == "" {
		return nil, fmt.Errorf("cache URL is empty")
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid cache URL: %w", err)
	}
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("pinging cache: %w", err)
	}
	return client, nil
}

// CachedSource serves LoadRecords from Redis and fills misses from the
// wrapped source. Cache failures fall back to the wrapped source.
type CachedSource struct {
	next   RecordSource
	client *redis.Client
	ttl    time.Duration
}

func NewCachedSource(next RecordSource, client *redis.Client, ttl time.Duration) *CachedSource {
	return &CachedSource{next: next, client: client, ttl: ttl}
}

func (c *CachedSource) LoadRecords(ctx context.Context, f Filter) ([]question.RawQuestionRecord, error) {
	key := cacheKey(f)
	if raw, err := c.client.Get(ctx, key).Bytes(); err == nil {
		var out []question.RawQuestionRecord
		if err := json.Unmarshal(raw, &out); err == nil {
			return out, nil
		}
	}

	out, err := c.next.LoadRecords(ctx, f)
	if err != nil {
		return nil, err
	}
	if raw, err := json.Marshal(out); err == nil {
		_ = c.client.Set(ctx, key, raw, c.ttl).Err()
	}
	return out, nil
}

// Invalidate drops every cached record set.
func (c *CachedSource) Invalidate(ctx context.Context) error {
	iter := c.client.Scan(ctx, 0, cacheKeyPrefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("scan cache keys: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("delete cache keys: %w", err)
	}
	return nil
}

// cacheKey is stable across value order, case of kind labels and blank
// entries, matching how the SQL filter treats them.
func cacheKey(f Filter) string {
	norm := func(values []string, lower bool) []string {
		out := cleanValues(values)
		if lower {
			for i := range out {
				out[i] = strings.ToLower(out[i])
			}
		}
		sort.Strings(out)
		return out
	}
	canonical, _ := json.Marshal([3][]string{
		norm(f.Topics, false),
		norm(f.Subtopics, false),
		norm(f.KindLabels, true),
	})
	sum := sha256.Sum256(canonical)
	return cacheKeyPrefix + hex.EncodeToString(sum[:16])
}
