package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"ai-interview-engine/internal/domain/model"
	"ai-interview-engine/internal/domain/ports/repository"
	"ai-interview-engine/internal/infra/metrics"
	red "ai-interview-engine/internal/infra/redis"
)

var _ repository.InterviewResourcesRepository = (*resourcesRepoCacheDecorator)(nil)

// resourcesRepoCacheDecorator serves snapshots from Redis. Snapshots are
// write-once per credential, so invalidation only happens on Save.
type resourcesRepoCacheDecorator struct {
	inner repository.InterviewResourcesRepository
	cache red.RedisClient
	ttl   time.Duration
	log   *zerolog.Logger
}

func NewResourcesRepoCacheDecorator(inner repository.InterviewResourcesRepository, cache red.RedisClient, ttl time.Duration, logger *zerolog.Logger) repository.InterviewResourcesRepository {
	return &resourcesRepoCacheDecorator{inner: inner, cache: cache, ttl: ttl, log: logger}
}

func resourcesKey(credentialID string) string { return fmt.Sprintf("resources:%s", credentialID) }

func (d *resourcesRepoCacheDecorator) FindByCredential(ctx context.Context, tx repository.Tx, credentialID string) (*model.InterviewResources, error) {
	key := resourcesKey(credentialID)
	val, err := d.cache.Get(ctx, key)
	if err == nil {
		var res model.InterviewResources
		if json.Unmarshal([]byte(val), &res) == nil {
			metrics.IncCacheRequest("resources", "hit")
			return &res, nil
		}
	} else if !red.IsMiss(err) {
		d.log.Warn().Err(err).Str("key", key).Msg("resources cache read failed")
	}

	metrics.IncCacheRequest("resources", "miss")
	res, err := d.inner.FindByCredential(ctx, tx, credentialID)
	if err != nil {
		return nil, err
	}
	if b, err := json.Marshal(res); err == nil {
		_ = d.cache.Set(ctx, key, b, d.ttl)
	}
	return res, nil
}

func (d *resourcesRepoCacheDecorator) Save(ctx context.Context, tx repository.Tx, res *model.InterviewResources) error {
	if err := d.inner.Save(ctx, tx, res); err != nil {
		return err
	}
	_ = d.cache.Del(ctx, resourcesKey(res.CredentialID))
	return nil
}
