package tenancy

import (
	"github.com/rs/zerolog"

	"github.com/iliyamo/church-manager/internal/model"
	"github.com/iliyamo/church-manager/internal/querycache"
)

// Policy decides which cache entries stop being servable when the tenant
// scope changes. It is the only component that touches more than one
// family at a time.
type Policy struct {
	cache    *querycache.Cache
	families []Family
	log      zerolog.Logger
}

// NewPolicy covers every family in Families.
func NewPolicy(cache *querycache.Cache, log zerolog.Logger) *Policy {
	return &Policy{cache: cache, families: Families, log: log}
}

// SwitchTenant records active as the session's church and marks every
// session and tenant-scoped entry stale, all inside one cache critical
// section. It runs unconditionally, even when active is the church that
// was already selected, and it never keeps entries of any church: the
// previous one, the new one, or any visited before them.
func (p *Policy) SwitchTenant(active model.ActiveChurch) {
	affected := 0
	p.cache.Mutate(func(tx *querycache.Tx) {
		affected += tx.Invalidate(SessionNamespace)
		tx.Set(ActiveChurchKey, &active, 0)
		for _, f := range p.families {
			affected += tx.Invalidate(f.Namespace())
		}
	})
	p.log.Debug().Uint64("church_id", active.ChurchID).Int("entries", affected).Msg("tenant switched, cache invalidated")
}

// InvalidateAll marks the session namespace and every family stale.
func (p *Policy) InvalidateAll() int {
	affected := 0
	p.cache.Mutate(func(tx *querycache.Tx) {
		affected += tx.Invalidate(SessionNamespace)
		for _, f := range p.families {
			affected += tx.Invalidate(f.Namespace())
		}
	})
	return affected
}

// InvalidateFamilies marks the given families stale. Mutations use it to
// refresh lists and aggregates derived from the collection they changed.
func (p *Policy) InvalidateFamilies(families ...Family) int {
	affected := 0
	p.cache.Mutate(func(tx *querycache.Tx) {
		for _, f := range families {
			affected += tx.Invalidate(f.Namespace())
		}
	})
	return affected
}

// EvictAll removes the session namespace and every family outright, so no
// read can be answered from a previous scope, not even while refetching.
func (p *Policy) EvictAll() int {
	affected := 0
	p.cache.Mutate(func(tx *querycache.Tx) {
		affected += tx.Remove(SessionNamespace)
		for _, f := range p.families {
			affected += tx.Remove(f.Namespace())
		}
	})
	p.log.Debug().Int("entries", affected).Msg("church cache evicted")
	return affected
}
