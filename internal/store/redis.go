package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
)

const (
	redisKeyPrefix  = "sensequiz:"
	redisChangeChan = "sensequiz:changes"

	// retries for optimistic Watch transactions before giving up
	redisTxRetries = 10
)

// Redis is the externally-hosted Store: every key holds a JSON record and
// change notifications travel over a pub/sub channel, so independently
// deployed roles converge on the same session.
type Redis struct {
	rdb *redis.Client
}

func NewRedis(rdb *redis.Client) *Redis {
	return &Redis{rdb: rdb}
}

func (s *Redis) Get(ctx context.Context, path string, v any) (bool, error) {
	raw, err := s.rdb.Get(ctx, redisKeyPrefix+path).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("reading %q: %w", path, err)
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return false, fmt.Errorf("decoding %q: %w", path, err)
	}
	return true, nil
}

func (s *Redis) Set(ctx context.Context, path string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %q: %w", path, err)
	}
	if err := s.rdb.Set(ctx, redisKeyPrefix+path, raw, 0).Err(); err != nil {
		return fmt.Errorf("writing %q: %w", path, err)
	}
	return s.publish(ctx, path)
}

func (s *Redis) Merge(ctx context.Context, path string, fields map[string]any) error {
	err := s.watchModify(ctx, path, func(raw json.RawMessage) (json.RawMessage, error) {
		return mergeObject(raw, fields)
	})
	if err != nil {
		return fmt.Errorf("merging %q: %w", path, err)
	}
	return s.publish(ctx, path)
}

func (s *Redis) Delete(ctx context.Context, path string) error {
	keys, err := s.scan(ctx, path)
	if err != nil {
		return fmt.Errorf("deleting %q: %w", path, err)
	}
	keys = append(keys, redisKeyPrefix+path)
	if err := s.rdb.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("deleting %q: %w", path, err)
	}
	return s.publish(ctx, path)
}

func (s *Redis) SetNX(ctx context.Context, path string, v any) (bool, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return false, fmt.Errorf("encoding %q: %w", path, err)
	}
	created, err := s.rdb.SetNX(ctx, redisKeyPrefix+path, raw, 0).Result()
	if err != nil {
		return false, fmt.Errorf("creating %q: %w", path, err)
	}
	if !created {
		return false, nil
	}
	return true, s.publish(ctx, path)
}

func (s *Redis) IncrBy(ctx context.Context, path, field string, delta int) (int, error) {
	var next int
	err := s.watchModify(ctx, path, func(raw json.RawMessage) (json.RawMessage, error) {
		updated, n, err := incrObject(raw, field, delta)
		next = n
		return updated, err
	})
	if err != nil {
		return 0, fmt.Errorf("incrementing %q.%s: %w", path, field, err)
	}
	return next, s.publish(ctx, path)
}

func (s *Redis) List(ctx context.Context, prefix string) (map[string]json.RawMessage, error) {
	keys, err := s.scan(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("listing %q: %w", prefix, err)
	}

	out := make(map[string]json.RawMessage)
	if len(keys) == 0 {
		return out, nil
	}

	values, err := s.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("listing %q: %w", prefix, err)
	}
	for i, key := range keys {
		path := strings.TrimPrefix(key, redisKeyPrefix)
		name, ok := childName(path, prefix)
		if !ok {
			continue
		}
		if raw, ok := values[i].(string); ok {
			out[name] = json.RawMessage(raw)
		}
	}
	return out, nil
}

func (s *Redis) Subscribe(ctx context.Context, prefix string) (<-chan Event, func()) {
	pubsub := s.rdb.Subscribe(ctx, redisChangeChan)
	out := make(chan Event, 16)

	go func() {
		defer close(out)
		for msg := range pubsub.Channel() {
			if !under(msg.Payload, prefix) {
				continue
			}
			select {
			case out <- Event{Path: msg.Payload}:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, func() { pubsub.Close() }
}

// MultiWrite applies straight sets and deletes in one pipeline; merges
// need a read first and land sequentially before it. Redis offers no
// multi-key transaction across watched reads here, so a mid-batch failure
// can leave a partial reset, the accepted limitation of this backend.
func (s *Redis) MultiWrite(ctx context.Context, writes []Write) error {
	for _, w := range writes {
		if w.Fields != nil {
			if err := s.Merge(ctx, w.Path, w.Fields); err != nil {
				return err
			}
		}
	}

	var changed []string
	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, w := range writes {
			switch {
			case w.Delete:
				keys, err := s.scan(ctx, w.Path)
				if err != nil {
					return err
				}
				keys = append(keys, redisKeyPrefix+w.Path)
				pipe.Del(ctx, keys...)
				changed = append(changed, w.Path)
			case w.Fields != nil:
				// already applied above
			default:
				raw, err := json.Marshal(w.Value)
				if err != nil {
					return fmt.Errorf("encoding %q: %w", w.Path, err)
				}
				pipe.Set(ctx, redisKeyPrefix+w.Path, raw, 0)
				changed = append(changed, w.Path)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("multi-write: %w", err)
	}
	for _, path := range changed {
		if err := s.publish(ctx, path); err != nil {
			return err
		}
	}
	return nil
}

func (s *Redis) Ping(ctx context.Context) error { return s.rdb.Ping(ctx).Err() }

func (s *Redis) Close() error { return s.rdb.Close() }

// watchModify runs an optimistic read-modify-write on one key, retrying
// when another writer races the transaction.
func (s *Redis) watchModify(ctx context.Context, path string, modify func(json.RawMessage) (json.RawMessage, error)) error {
	key := redisKeyPrefix + path

	txn := func(tx *redis.Tx) error {
		var raw json.RawMessage
		current, err := tx.Get(ctx, key).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if err == nil {
			raw = json.RawMessage(current)
		}

		updated, err := modify(raw)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, []byte(updated), 0)
			return nil
		})
		return err
	}

	for i := 0; i < redisTxRetries; i++ {
		err := s.rdb.Watch(ctx, txn, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return fmt.Errorf("transaction on %q kept failing after %d attempts", path, redisTxRetries)
}

func (s *Redis) scan(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	iter := s.rdb.Scan(ctx, 0, redisKeyPrefix+prefix+"/*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	return keys, iter.Err()
}

func (s *Redis) publish(ctx context.Context, path string) error {
	if err := s.rdb.Publish(ctx, redisChangeChan, path).Err(); err != nil {
		return fmt.Errorf("notifying %q: %w", path, err)
	}
	return nil
}

var _ Store = (*Redis)(nil)
