package tenancy

import (
	"context"

	"github.com/iliyamo/church-manager/internal/querycache"
)

// Invalidator holds the manual escape hatches over church-scoped cache
// data.
type Invalidator struct {
	cache    *querycache.Cache
	resolver *Resolver
	policy   *Policy
}

func NewInvalidator(cache *querycache.Cache, resolver *Resolver, policy *Policy) *Invalidator {
	return &Invalidator{cache: cache, resolver: resolver, policy: policy}
}

// InvalidateAll marks identity and every tenant-scoped entry stale.
func (i *Invalidator) InvalidateAll() int { return i.policy.InvalidateAll() }

// InvalidateActiveChurch marks the active-church value stale.
func (i *Invalidator) InvalidateActiveChurch() int { return i.cache.Invalidate(ActiveChurchKey) }

// InvalidateUserChurches marks the membership list stale.
func (i *Invalidator) InvalidateUserChurches() int { return i.cache.Invalidate(UserChurchesKey) }

// ForceRefreshActiveChurch drops the active-church value and fetches it
// again. Until the fetch completes every tenant-scoped query is inert.
func (i *Invalidator) ForceRefreshActiveChurch(ctx context.Context) error {
	i.cache.Remove(ActiveChurchKey)
	_, err := i.resolver.ActiveChurch(ctx)
	return err
}

// ClearAllChurchCache evicts identity and every tenant-scoped entry, then
// fetches the active church again. Account switches call it so that the
// next read can only be answered for the new session.
func (i *Invalidator) ClearAllChurchCache(ctx context.Context) error {
	i.policy.EvictAll()
	_, err := i.resolver.ActiveChurch(ctx)
	return err
}
