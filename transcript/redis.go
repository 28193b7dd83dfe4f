package transcript

import (
	"context"
	"encoding/json"
	"path"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/xlog"
	"github.com/redis/go-redis/v9"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/agentic", "transcript")

// DefaultSessionTTL is the idle expiry of a session transcript in Redis.
// The TTL is refreshed on every append, so only abandoned sessions expire;
// there is no durable history beyond the active session.
const DefaultSessionTTL = 24 * time.Hour

// The redis store keeps session transcripts in Redis lists, one list per
// session, under `/<prefix>/transcripts/<sessionID>`. Entries are appended
// with RPUSH and read back with LRANGE, so a snapshot never observes a
// partially written batch.
type redisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// RedisOption configures the Redis store.
type RedisOption func(*redisStore)

// WithSessionTTL overrides the idle session expiry.
func WithSessionTTL(ttl time.Duration) RedisOption {
	return func(s *redisStore) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// NewRedisStore returns a Store backed by Redis, for deployments where
// sessions are served by more than one process.
func NewRedisStore(client *redis.Client, prefix string, opts ...RedisOption) Store {
	s := &redisStore{
		client: client,
		prefix: prefix,
		ttl:    DefaultSessionTTL,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *redisStore) key(sessionID string) string {
	return path.Join(s.prefix, "transcripts", sessionID)
}

func (s *redisStore) Append(ctx context.Context, sessionID string, entries ...Entry) error {
	if len(entries) == 0 {
		return nil
	}

	vals := make([]any, 0, len(entries))
	for _, entry := range entries {
		data, err := json.Marshal(entry)
		if err != nil {
			return errors.Wrap(err, "failed to marshal entry")
		}
		vals = append(vals, data)
	}

	key := s.key(sessionID)
	pipe := s.client.Pipeline()
	pipe.RPush(ctx, key, vals...)
	pipe.Expire(ctx, key, s.ttl)
	_, err := pipe.Exec(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to store entries in Redis")
	}
	return nil
}

func (s *redisStore) Snapshot(ctx context.Context, sessionID string) ([]Entry, error) {
	data, err := s.client.LRange(ctx, s.key(sessionID), 0, -1).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to read entries from Redis")
	}

	var entries []Entry
	for _, item := range data {
		var entry Entry
		if err := json.Unmarshal([]byte(item), &entry); err != nil {
			logger.ContextKV(ctx, xlog.ERROR, "reason", "unmarshal entry", "err", err.Error())
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (s *redisStore) Clear(ctx context.Context, sessionID string) error {
	err := s.client.Del(ctx, s.key(sessionID)).Err()
	if err != nil {
		return errors.Wrap(err, "failed to clear transcript in Redis")
	}
	return nil
}
