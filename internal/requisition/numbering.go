package requisition

import (
	"context"
	"fmt"
	"strings"
	"time"

	"requisition-form-api-server/config"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	numberPrefix    = "REQ-"
	timestampLayout = "20060102150405"
	sequenceTTL     = time.Minute
)

// Numberer generates business request numbers of the form REQ-<YYYYMMDDHHMMSS>-<suffix>.
type Numberer interface {
	Next(ctx context.Context, now time.Time) (string, error)
}

// RandomNumberer appends 6 hex characters from a UUID to the timestamp.
type RandomNumberer struct{}

func (RandomNumberer) Next(_ context.Context, now time.Time) (string, error) {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:6])
	return fmt.Sprintf("%s%s-%s", numberPrefix, now.Format(timestampLayout), suffix), nil
}

// sequenceClient is the part of redis.Cmdable the numberer needs.
type sequenceClient interface {
	Incr(ctx context.Context, key string) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
}

// RedisNumberer keeps a per-second counter in Redis, so numbers issued in the same second
// by any instance stay distinct: REQ-20240101000001-001, -002, ...
type RedisNumberer struct {
	Client sequenceClient
	Prefix string
}

func NewRedisNumberer(client redis.Cmdable) *RedisNumberer {
	return &RedisNumberer{Client: client, Prefix: "requisicoes:seq:"}
}

func (n *RedisNumberer) Next(ctx context.Context, now time.Time) (string, error) {
	stamp := now.Format(timestampLayout)
	key := n.Prefix + stamp

	seq, err := n.Client.Incr(ctx, key).Result()
	if err != nil {
		return "", fmt.Errorf("failed to increment request sequence: %w", err)
	}
	if seq == 1 {
		if err := n.Client.Expire(ctx, key, sequenceTTL).Err(); err != nil {
			return "", fmt.Errorf("failed to set request sequence ttl: %w", err)
		}
	}
	return fmt.Sprintf("%s%s-%03d", numberPrefix, stamp, seq), nil
}

func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}
