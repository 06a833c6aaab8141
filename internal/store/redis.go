package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
)

// Redis is a Store on top of Redis. A path with a single segment is a string
// key; a deeper path is a field of the hash named after its parent, so the
// children of "apiKeys" live in the hash "{prefix}apiKeys".
type Redis struct {
	client *redis.Client
	prefix string
}

// NewRedis creates a Redis-backed store. prefix namespaces all keys.
func NewRedis(client *redis.Client, prefix string) *Redis {
	return &Redis{client: client, prefix: prefix}
}

func (r *Redis) key(segments []string) string {
	return r.prefix + strings.Join(segments, "/")
}

func (r *Redis) Get(ctx context.Context, path string, dst any) (bool, error) {
	segments, err := splitPath(path)
	if err != nil {
		return false, err
	}

	data, err := r.read(ctx, segments)
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%w: get %s: %v", ErrUnavailable, path, err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return true, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return true, nil
}

func (r *Redis) Put(ctx context.Context, path string, value any) error {
	segments, err := splitPath(path)
	if err != nil {
		return err
	}
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	if isNull(data) {
		return r.Delete(ctx, path)
	}
	if err := r.write(ctx, segments, data); err != nil {
		return fmt.Errorf("%w: put %s: %v", ErrUnavailable, path, err)
	}
	return nil
}

func (r *Redis) Patch(ctx context.Context, path string, fields map[string]any) error {
	segments, err := splitPath(path)
	if err != nil {
		return err
	}

	doc := make(map[string]any)
	data, err := r.read(ctx, segments)
	switch {
	case errors.Is(err, redis.Nil):
	case err != nil:
		return fmt.Errorf("%w: patch %s: %v", ErrUnavailable, path, err)
	default:
		// a non-object document is replaced by the patch
		_ = json.Unmarshal(data, &doc)
	}

	for k, v := range fields {
		if v == nil {
			delete(doc, k)
			continue
		}
		doc[k] = v
	}

	merged, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	if err := r.write(ctx, segments, merged); err != nil {
		return fmt.Errorf("%w: patch %s: %v", ErrUnavailable, path, err)
	}
	return nil
}

func (r *Redis) Delete(ctx context.Context, path string) error {
	segments, err := splitPath(path)
	if err != nil {
		return err
	}

	pipe := r.client.TxPipeline()
	if len(segments) > 1 {
		pipe.HDel(ctx, r.key(segments[:len(segments)-1]), segments[len(segments)-1])
	}
	// the path may itself be a collection hash or a singleton string key
	pipe.Del(ctx, r.key(segments))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("%w: delete %s: %v", ErrUnavailable, path, err)
	}
	return nil
}

func (r *Redis) List(ctx context.Context, path string) (map[string]json.RawMessage, error) {
	segments, err := splitPath(path)
	if err != nil {
		return nil, err
	}

	fields, err := r.client.HGetAll(ctx, r.key(segments)).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: list %s: %v", ErrUnavailable, path, err)
	}

	out := make(map[string]json.RawMessage, len(fields))
	for k, v := range fields {
		out[k] = json.RawMessage(v)
	}
	return out, nil
}

func (r *Redis) read(ctx context.Context, segments []string) ([]byte, error) {
	if len(segments) == 1 {
		return r.client.Get(ctx, r.key(segments)).Bytes()
	}
	return r.client.HGet(ctx, r.key(segments[:len(segments)-1]), segments[len(segments)-1]).Bytes()
}

func (r *Redis) write(ctx context.Context, segments []string, data []byte) error {
	if len(segments) == 1 {
		return r.client.Set(ctx, r.key(segments), data, 0).Err()
	}
	return r.client.HSet(ctx, r.key(segments[:len(segments)-1]), segments[len(segments)-1], data).Err()
}
