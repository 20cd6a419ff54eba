package sequence

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const defaultCounterKey = "givetrack:donation:number"

// Redis allocates numbers with INCR, which is atomic across all service
// instances sharing the same Redis.
type Redis struct {
	client *redis.Client
	key    string
}

func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client, key: defaultCounterKey}
}

func (s *Redis) Next(ctx context.Context) (int64, error) {
	n, err := s.client.Incr(ctx, s.key).Result()
	if err != nil {
		return 0, fmt.Errorf("allocate donation number: %w", err)
	}
	return n, nil
}
