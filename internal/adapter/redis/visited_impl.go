package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/user/annuaire-crawler/pkg/utils"
)

const visitedKeyPrefix = "annuaire:visited:"

// VisitedRepoImpl keeps the visited set of one target in a Redis set, so a
// crawl restarted from the service worker skips pages it already took.
type VisitedRepoImpl struct {
	client *redis.Client
	key    string
	expiry time.Duration
}

// NewVisitedRepo creates a visited set namespaced by the target's listing URL.
// The whole set expires after expiry without writes; zero disables expiry.
func NewVisitedRepo(client *redis.Client, targetURL string, expiry time.Duration) *VisitedRepoImpl {
	return &VisitedRepoImpl{
		client: client,
		key:    fmt.Sprintf("%s%s", visitedKeyPrefix, utils.HashURL(targetURL)),
		expiry: expiry,
	}
}

// MarkVisited adds the URL and refreshes the set's expiry in one round trip.
func (r *VisitedRepoImpl) MarkVisited(ctx context.Context, url string) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SAdd(ctx, r.key, url)
		if r.expiry > 0 {
			pipe.Expire(ctx, r.key, r.expiry)
		}
		return nil
	})
	return err
}

func (r *VisitedRepoImpl) IsVisited(ctx context.Context, url string) (bool, error) {
	return r.client.SIsMember(ctx, r.key, url).Result()
}

func (r *VisitedRepoImpl) Count(ctx context.Context) (int, error) {
	n, err := r.client.SCard(ctx, r.key).Result()
	return int(n), err
}

func (r *VisitedRepoImpl) Reset(ctx context.Context) error {
	return r.client.Del(ctx, r.key).Err()
}
