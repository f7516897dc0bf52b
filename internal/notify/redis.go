package notify

import (
	"context"
	"log"
	"strings"

	"council/internal/models"

	"github.com/redis/go-redis/v9"
)

const streamEvents = "council.events"

// MustRedis connects to Redis from a URL and exits on a bad configuration.
func MustRedis(url string) *redis.Client {
	opt, err := redis.ParseURL(url)
	if err != nil {
		log.Fatalf("redis: %v", err)
	}
	return redis.NewClient(opt)
}

// RedisNotifier appends outcome events to a Redis stream for downstream
// consumers (chat bots, ledgers) to pick up.
type RedisNotifier struct {
	rdb    *redis.Client
	stream string
}

func NewRedisNotifier(rdb *redis.Client) *RedisNotifier {
	return &RedisNotifier{rdb: rdb, stream: streamEvents}
}

func (n *RedisNotifier) Publish(ctx context.Context, event models.OutcomeEvent) error {
	_, err := n.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: n.stream,
		Values: map[string]interface{}{
			"kind":        string(event.Kind),
			"tenant_id":   event.TenantID,
			"proposal_id": event.ProposalID.String(),
			"title":       event.Title,
			"status":      string(event.Status),
			"voter_ids":   strings.Join(event.VoterIDs, ","),
		},
	}).Result()
	return err
}
