package content

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/kikaiya/kikaiya-web/internal/platform/httpx"
)

const keyPrefix = "content:"

// Store keeps blocks in Redis hashes named content:{key}.
type Store struct {
	client redis.Cmdable
	now    func() time.Time
}

// NewStore builds a Store over client.
func NewStore(client redis.Cmdable) *Store {
	return &Store{client: client, now: time.Now}
}

// Get loads a block; httpx.ErrNotFound when the key was never written.
func (s *Store) Get(ctx context.Context, key string) (Block, error) {
	if !ValidKey(key) {
		return Block{}, ErrInvalidKey
	}
	fields, err := s.client.HGetAll(ctx, keyPrefix+key).Result()
	if err != nil {
		return Block{}, fmt.Errorf("content: get %s: %w", key, err)
	}
	if len(fields) == 0 {
		return Block{}, httpx.ErrNotFound
	}
	b := Block{Key: key, EN: fields["en"], JA: fields["ja"], UpdatedBy: fields["updated_by"]}
	if ts := fields["updated_at"]; ts != "" {
		if t, err := time.Parse(time.RFC3339, ts); err == nil {
			b.UpdatedAt = t
		}
	}
	return b, nil
}

// Put replaces both translations of a block.
func (s *Store) Put(ctx context.Context, b Block) (Block, error) {
	if !ValidKey(b.Key) {
		return Block{}, ErrInvalidKey
	}
	b.UpdatedAt = s.now().UTC().Truncate(time.Second)
	err := s.client.HSet(ctx, keyPrefix+b.Key,
		"en", b.EN,
		"ja", b.JA,
		"updated_at", b.UpdatedAt.Format(time.RFC3339),
		"updated_by", b.UpdatedBy,
	).Err()
	if err != nil {
		return Block{}, fmt.Errorf("content: put %s: %w", b.Key, err)
	}
	return b, nil
}
