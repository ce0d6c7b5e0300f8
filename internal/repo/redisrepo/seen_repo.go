package redisrepo

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/staylink/rentops/pkg/config"
)

const (
	lastSeenPrefix = "inbox:last_seen:"
	lastSeenTTL    = 30 * 24 * time.Hour
)

// SeenRepository remembers the newest processed message per chat, so
// polling runs do not re-handle messages the platform still reports as
// part of an unread chat.
type SeenRepository struct {
	client *redis.Client
}

func NewSeenRepository(cfg config.RedisConfig) (*SeenRepository, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}
	if cfg.Password != "" {
		opts.Password = cfg.Password
	}
	if cfg.DB != 0 {
		opts.DB = cfg.DB
	}
	return &SeenRepository{client: redis.NewClient(opts)}, nil
}

// LastSeen returns the id of the newest processed message in a chat, or ""
// when the chat has no record.
func (r *SeenRepository) LastSeen(ctx context.Context, chatID string) (string, error) {
	val, err := r.client.Get(ctx, lastSeenPrefix+chatID).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return val, nil
}

func (r *SeenRepository) MarkSeen(ctx context.Context, chatID, messageID string) error {
	return r.client.Set(ctx, lastSeenPrefix+chatID, messageID, lastSeenTTL).Err()
}

func (r *SeenRepository) Close() error {
	return r.client.Close()
}
