package tenancy

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/iliyamo/church-manager/internal/querycache"
)

// Layer wires the resolver, policy, invalidator and queries over one cache
// and one source.
type Layer struct {
	Resolver    *Resolver
	Policy      *Policy
	Invalidator *Invalidator
	Queries     *Queries
}

// New builds a Layer. A nil notifier logs notifications instead.
func New(cache *querycache.Cache, src Source, notify Notifier, staleTime time.Duration, log zerolog.Logger) *Layer {
	if notify == nil {
		notify = LogNotifier{Log: log}
	}
	policy := NewPolicy(cache, log)
	resolver := NewResolver(cache, src, policy, notify, log)
	return &Layer{
		Resolver:    resolver,
		Policy:      policy,
		Invalidator: NewInvalidator(cache, resolver, policy),
		Queries:     NewQueries(cache, resolver, policy, src, notify, staleTime),
	}
}
