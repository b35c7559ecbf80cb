// Package trending tracks post view counts in Redis and derives a trending
// ranking from them.
package trending

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

const (
	viewKeyPrefix  = "views:post:"
	trendingSetKey = "trending:posts"
	defaultTopN    = 10
	maxTopN        = 50
)

// Counter records views and serves trending rankings. All operations
// degrade to no-ops when the client is nil so the API keeps working without
// Redis.
type Counter struct {
	client *redis.Client
	logger *slog.Logger
	group  singleflight.Group
}

// NewCounter constructs a Counter. Client may be nil.
func NewCounter(client *redis.Client, logger *slog.Logger) *Counter {
	return &Counter{client: client, logger: logger}
}

// Touch records one view and returns the post's new view count. Errors are
// logged, not surfaced: view counting never fails a read request.
func (c *Counter) Touch(ctx context.Context, postID int64) int64 {
	if c == nil || c.client == nil {
		return 0
	}
	pipe := c.client.Pipeline()
	incr := pipe.Incr(ctx, viewKey(postID))
	pipe.ZIncrBy(ctx, trendingSetKey, 1, strconv.FormatInt(postID, 10))
	if _, err := pipe.Exec(ctx); err != nil {
		if c.logger != nil {
			c.logger.Warn("trending touch", slog.Int64("post_id", postID), slog.Any("error", err))
		}
		return 0
	}
	return incr.Val()
}

// Views returns the current view count for a post.
func (c *Counter) Views(ctx context.Context, postID int64) int64 {
	if c == nil || c.client == nil {
		return 0
	}
	n, err := c.client.Get(ctx, viewKey(postID)).Int64()
	if err != nil {
		return 0
	}
	return n
}

// Top returns the n highest-scored post ids. Concurrent callers asking for
// the same n share a single Redis round trip.
func (c *Counter) Top(ctx context.Context, n int) ([]int64, error) {
	if c == nil || c.client == nil {
		return nil, nil
	}
	if n <= 0 {
		n = defaultTopN
	}
	if n > maxTopN {
		n = maxTopN
	}
	key := fmt.Sprintf("top:%d", n)
	result, err, _ := c.group.Do(key, func() (any, error) {
		members, err := c.client.ZRevRange(ctx, trendingSetKey, 0, int64(n-1)).Result()
		if err != nil {
			return nil, err
		}
		ids := make([]int64, 0, len(members))
		for _, m := range members {
			id, err := strconv.ParseInt(m, 10, 64)
			if err != nil {
				continue
			}
			ids = append(ids, id)
		}
		return ids, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]int64), nil
}

// Remove drops a deleted post from the ranking and its view counter.
func (c *Counter) Remove(ctx context.Context, postID int64) {
	if c == nil || c.client == nil {
		return
	}
	pipe := c.client.Pipeline()
	pipe.Del(ctx, viewKey(postID))
	pipe.ZRem(ctx, trendingSetKey, strconv.FormatInt(postID, 10))
	if _, err := pipe.Exec(ctx); err != nil && c.logger != nil {
		c.logger.Warn("trending remove", slog.Int64("post_id", postID), slog.Any("error", err))
	}
}

// Decay halves every trending score and drops entries below one, so the
// ranking favors recent activity. Run periodically by the worker.
func (c *Counter) Decay(ctx context.Context) error {
	if c == nil || c.client == nil {
		return nil
	}
	entries, err := c.client.ZRangeWithScores(ctx, trendingSetKey, 0, -1).Result()
	if err != nil {
		return err
	}
	pipe := c.client.Pipeline()
	for _, entry := range entries {
		member, ok := entry.Member.(string)
		if !ok {
			continue
		}
		half := entry.Score / 2
		if half < 1 {
			pipe.ZRem(ctx, trendingSetKey, member)
			continue
		}
		pipe.ZAdd(ctx, trendingSetKey, redis.Z{Score: half, Member: member})
	}
	_, err = pipe.Exec(ctx)
	return err
}

func viewKey(postID int64) string {
	return viewKeyPrefix + strconv.FormatInt(postID, 10)
}
