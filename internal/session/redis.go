package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/spigell/ai-interviewer/internal/utils"
)

const (
	defaultKeyPrefix     = "ai-interviewer:"
	defaultUpdateRetries = 5
	updateBackoff        = 20 * time.Millisecond
)

// ErrConflict is returned when an update keeps losing optimistic transactions.
var ErrConflict = errors.New("session was modified concurrently")

// RedisConfig describes the connection and key layout of the Redis backend.
type RedisConfig struct {
	Address   string        `mapstructure:"address"`
	Password  string        `mapstructure:"password"`
	DB        int           `mapstructure:"db"`
	KeyPrefix string        `mapstructure:"key-prefix"`
	TTL       time.Duration `mapstructure:"ttl"`
}

// NewRedisClient connects to Redis and verifies the connection with a ping.
func NewRedisClient(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return rdb, nil
}

// RedisStore keeps sessions as JSON documents so several server processes can
// share them. An index sorted set keeps creation order.
type RedisStore struct {
	client  *redis.Client
	prefix  string
	ttl     time.Duration
	retries int
	now     func() time.Time
}

func NewRedisStore(client *redis.Client, keyPrefix string, ttl time.Duration) *RedisStore {
	if keyPrefix == "" {
		keyPrefix = defaultKeyPrefix
	}

	return &RedisStore{
		client:  client,
		prefix:  keyPrefix,
		ttl:     ttl,
		retries: defaultUpdateRetries,
		now:     time.Now,
	}
}

func (r *RedisStore) key(id string) string {
	return r.prefix + "session:" + id
}

func (r *RedisStore) indexKey() string {
	return r.prefix + "sessions"
}

func (r *RedisStore) Create(ctx context.Context, s *Session) error {
	payload, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal session %s: %w", s.ID, err)
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, r.key(s.ID), payload, r.ttl)
		pipe.ZAdd(ctx, r.indexKey(), redis.Z{
			Score:  float64(s.CreatedAt.UnixMilli()),
			Member: s.ID,
		})
		return nil
	})
	if err != nil {
		return fmt.Errorf("store session %s: %w", s.ID, err)
	}

	return nil
}

func (r *RedisStore) Get(ctx context.Context, id string) (*Session, error) {
	data, err := r.client.Get(ctx, r.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session %s: %w", id, err)
	}

	return decode(id, data)
}

func (r *RedisStore) Update(ctx context.Context, id string, fn func(*Session) error) (*Session, error) {
	key := r.key(id)

	for attempt := 0; attempt < r.retries; attempt++ {
		var updated *Session

		err := r.client.Watch(ctx, func(tx *redis.Tx) error {
			data, err := tx.Get(ctx, key).Bytes()
			if errors.Is(err, redis.Nil) {
				return ErrNotFound
			}
			if err != nil {
				return fmt.Errorf("get session %s: %w", id, err)
			}

			s, err := decode(id, data)
			if err != nil {
				return err
			}

			if err := fn(s); err != nil {
				return err
			}
			s.UpdatedAt = r.now()

			payload, err := json.Marshal(s)
			if err != nil {
				return fmt.Errorf("marshal session %s: %w", id, err)
			}

			ttl := r.ttl
			if ttl == 0 {
				ttl = redis.KeepTTL
			}

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, key, payload, ttl)
				return nil
			})
			if err != nil {
				return err
			}

			updated = s
			return nil
		}, key)

		switch {
		case err == nil:
			return updated, nil
		case errors.Is(err, redis.TxFailedErr):
			if werr := utils.WaitFor(ctx, updateBackoff*time.Duration(attempt+1)); werr != nil {
				return nil, werr
			}
			continue
		default:
			return nil, err
		}
	}

	return nil, fmt.Errorf("update session %s: %w", id, ErrConflict)
}

func (r *RedisStore) List(ctx context.Context) ([]*Session, error) {
	ids, err := r.client.ZRange(ctx, r.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list session ids: %w", err)
	}
	if len(ids) == 0 {
		return []*Session{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = r.key(id)
	}

	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("load sessions: %w", err)
	}

	sessions := make([]*Session, 0, len(values))
	for i, value := range values {
		// expired documents leave a dangling index member
		raw, ok := value.(string)
		if !ok {
			continue
		}

		s, err := decode(ids[i], []byte(raw))
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}

	sortByCreation(sessions)
	return sessions, nil
}

func decode(id string, data []byte) (*Session, error) {
	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", id, err)
	}
	if s.Answers == nil {
		s.Answers = []QAEntry{}
	}
	return &s, nil
}
