package moderation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"group-moderator/metrics"
	"group-moderator/model"
	"group-moderator/utils/database/sanctions"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/rs/zerolog/log"
)

// HandleStore is the part of the sanction store the resolver needs.
type HandleStore interface {
	AccountIDByHandle(ctx context.Context, handle string) (int64, error)
	TrackMember(ctx context.Context, accountID int64, handle string) error
}

// CachingResolver resolves handles from the member store first and the platform
// directory second. Hits are cached for a while.
type CachingResolver struct {
	store     HandleStore
	directory model.Directory
	cache     *expirable.LRU[string, int64]
}

// NewCachingResolver creates a resolver. directory may be nil.
func NewCachingResolver(store HandleStore, directory model.Directory, capacity int, ttl time.Duration) *CachingResolver {
	return &CachingResolver{
		store:     store,
		directory: directory,
		cache:     expirable.NewLRU[string, int64](capacity, nil, ttl),
	}
}

func cacheKey(handle string) string {
	return strings.ToLower(sanctions.NormalizeHandle(handle))
}

// Resolve returns the account id behind handle, or an error wrapping ErrTargetNotFound.
func (r *CachingResolver) Resolve(ctx context.Context, handle string) (int64, error) {
	key := cacheKey(handle)
	if key == "" {
		return 0, fmt.Errorf("empty handle: %w", ErrTargetNotFound)
	}
	if id, ok := r.cache.Get(key); ok {
		return id, nil
	}

	id, err := r.store.AccountIDByHandle(ctx, key)
	if err == nil {
		r.cache.Add(key, id)
		return id, nil
	}
	if !errors.Is(err, sanctions.ErrNotFound) {
		return 0, err
	}

	if r.directory != nil {
		id, found, err := r.directory.LookupHandle(ctx, key)
		if err != nil {
			return 0, fmt.Errorf("failed to look up @%s: %w", key, err)
		}
		if found {
			if err := r.store.TrackMember(ctx, id, handle); err != nil {
				log.Warn().Err(err).Int64("account_id", id).Msg("failed to store looked up member")
			}
			r.cache.Add(key, id)
			return id, nil
		}
	}
	return 0, fmt.Errorf("@%s: %w", key, ErrTargetNotFound)
}

// Track records an observed handle for an account and refreshes the cache.
func (r *CachingResolver) Track(ctx context.Context, accountID int64, handle string) error {
	key := cacheKey(handle)
	if key == "" {
		return nil
	}
	if cached, ok := r.cache.Peek(key); ok && cached == accountID {
		return nil
	}
	if err := r.store.TrackMember(ctx, accountID, handle); err != nil {
		return err
	}
	metrics.TrackedMembersTotal.Inc()
	r.cache.Add(key, accountID)
	return nil
}
