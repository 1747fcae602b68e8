package persistence

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-faster/errors"
	"github.com/redis/go-redis/v9"

	"github.com/iota-uz/orgchart/modules/orgchart/domain/session"
)

const (
	defaultSessionPrefix = "orgchart:session:"
	sessionUpdateRetries = 8
)

var _ session.Updater = (*RedisSessionRepository)(nil)

// RedisSessionRepository stores each session as a JSON string under its own
// key so every session carries its own TTL.
type RedisSessionRepository struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

func NewRedisSessionRepository(client redis.UniversalClient, ttl time.Duration) *RedisSessionRepository {
	return &RedisSessionRepository{
		client: client,
		prefix: defaultSessionPrefix,
		ttl:    ttl,
	}
}

func (r *RedisSessionRepository) key(id string) string {
	return r.prefix + id
}

func (r *RedisSessionRepository) Get(ctx context.Context, id string) (*session.Session, error) {
	data, err := r.client.Get(ctx, r.key(id)).Bytes()
	if err == redis.Nil {
		return nil, session.ErrSessionNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "redis get session")
	}
	return decodeSession(data)
}

func decodeSession(data []byte) (*session.Session, error) {
	var s session.Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, errors.Wrap(err, "decode session")
	}
	return &s, nil
}

// Update is an optimistic WATCH/MULTI transaction on the session key. A write
// by another client between the read and EXEC aborts the attempt, and fn runs
// again on the fresh value.
func (r *RedisSessionRepository) Update(
	ctx context.Context,
	id string,
	fn func(current *session.Session) (*session.Session, error),
) (*session.Session, error) {
	key := r.key(id)
	var out *session.Session
	txf := func(tx *redis.Tx) error {
		var current *session.Session
		data, err := tx.Get(ctx, key).Bytes()
		switch {
		case err == redis.Nil:
		case err != nil:
			return errors.Wrap(err, "redis get session")
		default:
			if current, err = decodeSession(data); err != nil {
				return err
			}
		}

		next, err := fn(current)
		if err != nil {
			return err
		}
		next.ID = id
		payload, err := json.Marshal(next)
		if err != nil {
			return errors.Wrap(err, "encode session")
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, payload, r.ttl)
			return nil
		})
		if err != nil {
			return err
		}
		out = next
		return nil
	}

	for attempt := 0; attempt < sessionUpdateRetries; attempt++ {
		err := r.client.Watch(ctx, txf, key)
		if err == nil {
			return out, nil
		}
		if !errors.Is(err, redis.TxFailedErr) {
			return nil, err
		}
	}
	return nil, session.ErrSessionConflict
}

func (r *RedisSessionRepository) Save(ctx context.Context, s *session.Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return errors.Wrap(err, "encode session")
	}
	if err := r.client.Set(ctx, r.key(s.ID), data, r.ttl).Err(); err != nil {
		return errors.Wrap(err, "redis set session")
	}
	return nil
}

func (r *RedisSessionRepository) Delete(ctx context.Context, id string) error {
	if err := r.client.Del(ctx, r.key(id)).Err(); err != nil {
		return errors.Wrap(err, "redis delete session")
	}
	return nil
}
