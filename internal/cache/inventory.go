package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"quill/internal/observability"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/trace"
)

const (
	PopularPostsKey  = "quill:posts:popular"
	CategoriesKey    = "quill:categories"
	PostSlugKeyFmt   = "quill:post:slug:%s"
	PopularPostsTTL  = 2 * time.Minute
	CategoriesTTL    = 30 * time.Minute
	PostSlugTTL      = 5 * time.Minute
	familyPopular    = "popular"
	familyCategories = "categories"
	familyPost       = "post"

	// generationTTL outlives every cached value it guards.
	generationTTL = time.Hour
)

var errStale = errors.New("cache: key invalidated during fetch")

func PostSlugKey(slug string) string {
	return fmt.Sprintf(PostSlugKeyFmt, slug)
}

func familyOf(key string) string {
	switch key {
	case PopularPostsKey:
		return familyPopular
	case CategoriesKey:
		return familyCategories
	default:
		return familyPost
	}
}

// GetJSON attempts to get the key from Redis and unmarshal into dest.
// Returns (true, nil) if found and unmarshaled, (false, nil) if not found or caching is off.
func GetJSON(ctx context.Context, key string, dest any) (bool, error) {
	if client == nil {
		return false, nil
	}
	s, err := client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		observability.CacheLookups.WithLabelValues(familyOf(key), "miss").Inc()
		return false, nil
	}
	if err != nil {
		observability.CacheLookups.WithLabelValues(familyOf(key), "error").Inc()
		return false, err
	}
	if err := json.Unmarshal(s, dest); err != nil {
		return false, err
	}
	observability.CacheLookups.WithLabelValues(familyOf(key), "hit").Inc()
	return true, nil
}

// SetJSON marshals v and sets the key with TTL.
func SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error {
	if client == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return client.Set(ctx, key, b, ttl).Err()
}

// Aside tries Redis first; on a miss or cache error it calls fetch, which must
// populate dest, then stores dest with ttl. Cache failures never fail the read.
// The store is skipped when the key was invalidated while fetch ran, so a
// slow reader cannot put back a value older than the invalidating write.
func Aside(ctx context.Context, key string, dest any, ttl time.Duration, fetch func() error) error {
	if client != nil {
		var span trace.Span
		ctx, span = observability.GetTraceLayer().TraceCacheAside(ctx, familyOf(key))
		defer span.End()
	}

	found, err := GetJSON(ctx, key, dest)
	if err == nil && found {
		return nil
	}

	gen, genErr := generation(ctx, key)

	if err := fetch(); err != nil {
		return err
	}

	if genErr == nil {
		_ = storeIfCurrent(ctx, key, gen, dest, ttl)
	}
	return nil
}

func generationKey(key string) string {
	return key + ":gen"
}

func generation(ctx context.Context, key string) (string, error) {
	if client == nil {
		return "", nil
	}
	gen, err := client.Get(ctx, generationKey(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return gen, err
}

// storeIfCurrent sets key only while its generation still equals gen.
func storeIfCurrent(ctx context.Context, key, gen string, v any, ttl time.Duration) error {
	if client == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}

	genKey := generationKey(key)
	err = client.Watch(ctx, func(tx *redis.Tx) error {
		cur, err := tx.Get(ctx, genKey).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if cur != gen {
			return errStale
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, b, ttl)
			return nil
		})
		return err
	}, genKey)
	if errors.Is(err, errStale) || errors.Is(err, redis.TxFailedErr) {
		observability.CacheLookups.WithLabelValues(familyOf(key), "stale").Inc()
		return nil
	}
	return err
}

// Invalidate removes the given keys and bumps their generations. It is a
// no-op when caching is off.
func Invalidate(ctx context.Context, keys ...string) {
	if client == nil || len(keys) == 0 {
		return
	}
	_, _ = client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, key := range keys {
			pipe.Incr(ctx, generationKey(key))
			pipe.Expire(ctx, generationKey(key), generationTTL)
		}
		pipe.Del(ctx, keys...)
		return nil
	})
}

// InvalidatePost drops cached views that embed the post.
func InvalidatePost(ctx context.Context, slugs ...string) {
	keys := []string{PopularPostsKey}
	for _, slug := range slugs {
		if slug != "" {
			keys = append(keys, PostSlugKey(slug))
		}
	}
	Invalidate(ctx, keys...)
}

func InvalidateCategories(ctx context.Context) {
	Invalidate(ctx, CategoriesKey)
}
