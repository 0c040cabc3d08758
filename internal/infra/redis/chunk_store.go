package redis

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"

	"ai-interview-engine/internal/domain"
	"ai-interview-engine/internal/domain/ports/repository"
)

var _ repository.AudioChunkStore = (*ChunkStore)(nil)

const combinedScheme = "redis://"

// ChunkStore keeps each answer group as a Redis list; RPUSH gives the
// accepted order and the resulting length is the chunk's sequence number.
// Group indexes live in a sorted set per namespace.
//
// Nothing is deleted explicitly. ttl is the retention bound for every key;
// WriteCombined restarts it so source chunks live as long as their combined file.
type ChunkStore struct {
	cli *redis.Client
	ttl time.Duration
}

func NewChunkStore(c *Client, ttl time.Duration) *ChunkStore {
	return &ChunkStore{cli: c.cli, ttl: ttl}
}

func groupsKey(ns string) string          { return fmt.Sprintf("audio:%s:groups", ns) }
func chunksKey(ns string, g int) string   { return fmt.Sprintf("audio:%s:g:%d", ns, g) }
func combinedKey(ns string, g int) string { return fmt.Sprintf("audio:%s:combined:%d", ns, g) }

func (s *ChunkStore) Append(ctx context.Context, namespace string, group int, data []byte) (int, error) {
	if namespace == "" || group < 1 {
		return 0, domain.ErrInvalidArgument
	}
	var length *redis.IntCmd
	_, err := s.cli.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.ZAdd(ctx, groupsKey(namespace), &redis.Z{Score: float64(group), Member: strconv.Itoa(group)})
		length = p.RPush(ctx, chunksKey(namespace, group), data)
		p.Expire(ctx, groupsKey(namespace), s.ttl)
		p.Expire(ctx, chunksKey(namespace, group), s.ttl)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("append chunk: %w", err)
	}
	return int(length.Val()), nil
}

func (s *ChunkStore) Chunks(ctx context.Context, namespace string, group int) ([][]byte, error) {
	vals, err := s.cli.LRange(ctx, chunksKey(namespace, group), 0, -1).Result()
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("read chunks: %w", err)
	}
	out := make([][]byte, 0, len(vals))
	for _, v := range vals {
		out = append(out, []byte(v))
	}
	return out, nil
}

func (s *ChunkStore) LatestGroup(ctx context.Context, namespace string) (int, error) {
	zs, err := s.cli.ZRevRangeWithScores(ctx, groupsKey(namespace), 0, 0).Result()
	if err != nil && err != redis.Nil {
		return 0, fmt.Errorf("latest group: %w", err)
	}
	if len(zs) == 0 {
		return 0, nil
	}
	return int(zs[0].Score), nil
}

func (s *ChunkStore) EnsureGroup(ctx context.Context, namespace string, group int) error {
	if namespace == "" || group < 1 {
		return domain.ErrInvalidArgument
	}
	_, err := s.cli.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.ZAdd(ctx, groupsKey(namespace), &redis.Z{Score: float64(group), Member: strconv.Itoa(group)})
		p.Expire(ctx, groupsKey(namespace), s.ttl)
		return nil
	})
	return err
}

func (s *ChunkStore) WriteCombined(ctx context.Context, namespace string, group int, data []byte) (string, error) {
	key := combinedKey(namespace, group)
	_, err := s.cli.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, key, data, s.ttl)
		p.Expire(ctx, chunksKey(namespace, group), s.ttl)
		p.Expire(ctx, groupsKey(namespace), s.ttl)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("write combined: %w", err)
	}
	return combinedScheme + key, nil
}

func (s *ChunkStore) ReadCombined(ctx context.Context, location string) ([]byte, error) {
	if !strings.HasPrefix(location, combinedScheme) {
		return nil, domain.ErrInvalidArgument
	}
	b, err := s.cli.Get(ctx, strings.TrimPrefix(location, combinedScheme)).Bytes()
	if err == redis.Nil {
		return nil, domain.ErrNotFound
	}
	return b, err
}
