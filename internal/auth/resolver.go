package auth

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/conflearn/backend/internal/models"
)

// Resolver turns a token subject ID into a live user record, fronted by a
// short-lived Redis cache. Staleness is bounded by the TTL: a deleted or
// mutated user is re-read at most ttl after the change, and mutating
// endpoints invalidate eagerly.
type Resolver struct {
	repo   *Repository
	cache  *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewResolver creates a principal resolver. cache may be nil to disable caching.
func NewResolver(repo *Repository, cache *redis.Client, ttlSec int, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{repo: repo, cache: cache, ttl: time.Duration(ttlSec) * time.Second, logger: logger}
}

func userCacheKey(id uuid.UUID) string { return "principal:user:" + id.String() }

// ResolveUser returns the user for a subject ID, from cache when fresh.
func (r *Resolver) ResolveUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if r.cache != nil {
		if raw, err := r.cache.Get(ctx, userCacheKey(id)).Bytes(); err == nil {
			var u models.User
			if err := json.Unmarshal(raw, &u); err == nil {
				return &u, nil
			}
		}
	}
	u, err := r.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if r.cache != nil {
		if raw, err := json.Marshal(u); err == nil {
			if err := r.cache.Set(ctx, userCacheKey(id), raw, r.ttl).Err(); err != nil {
				r.logger.Debug("principal cache set failed", zap.Error(err))
			}
		}
	}
	return u, nil
}

// Invalidate drops the cached record for a user after a mutation.
func (r *Resolver) Invalidate(ctx context.Context, id uuid.UUID) {
	if r.cache == nil {
		return
	}
	if err := r.cache.Del(ctx, userCacheKey(id)).Err(); err != nil {
		r.logger.Debug("principal cache invalidate failed", zap.Error(err))
	}
}
