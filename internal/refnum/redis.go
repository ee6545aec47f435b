package refnum

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"suratdesa/internal/letter/models"
)

// RedisGenerator allocates sequence numbers with INCR, so numbers stay
// unique across server instances. Keys are scoped per letter type and year;
// counters for past years are left behind and expire via maintenance, not
// code.
type RedisGenerator struct {
	client *redis.Client
	prefix string
}

func NewRedisGenerator(client *redis.Client) *RedisGenerator {
	return &RedisGenerator{client: client, prefix: "refnum"}
}

func (g *RedisGenerator) Next(ctx context.Context, letterType models.LetterType, effectiveDate time.Time) (string, error) {
	key := fmt.Sprintf("%s:%s:%d", g.prefix, letterType.ID, effectiveDate.Year())
	seq, err := g.client.Incr(ctx, key).Result()
	if err != nil {
		return "", fmt.Errorf("increment reference sequence: %w", err)
	}
	return Format(letterType.Code, seq, effectiveDate), nil
}
