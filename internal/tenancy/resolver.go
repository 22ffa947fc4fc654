package tenancy

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/iliyamo/church-manager/internal/model"
	"github.com/iliyamo/church-manager/internal/querycache"
)

// identityOptions: identity data differs per user and must never be
// answered from the cache.
var identityOptions = querycache.Options{StaleTime: 0}

// Resolver exposes the session's active church and is the single place
// that changes it.
type Resolver struct {
	cache  *querycache.Cache
	src    ChurchSource
	policy *Policy
	notify Notifier
	log    zerolog.Logger
}

// NewResolver pins the session namespace in cache: the active church must
// survive any amount of resource traffic.
func NewResolver(cache *querycache.Cache, src ChurchSource, policy *Policy, notify Notifier, log zerolog.Logger) *Resolver {
	cache.Pin(SessionNamespace)
	return &Resolver{cache: cache, src: src, policy: policy, notify: notify, log: log}
}

// UserChurches fetches the memberships of the session's user. Every call
// reaches the source; errors are returned as is.
func (r *Resolver) UserChurches(ctx context.Context) ([]model.Membership, error) {
	return querycache.Get(ctx, r.cache, UserChurchesKey, r.src.UserChurches, identityOptions)
}

// HasMultipleChurches reports whether switching churches makes sense.
func (r *Resolver) HasMultipleChurches(ctx context.Context) (bool, error) {
	churches, err := r.UserChurches(ctx)
	if err != nil {
		return false, err
	}
	return len(churches) > 1, nil
}

// ActiveChurch fetches the session's active church. A nil result with a
// nil error means no church is selected, which is a normal state. Failed
// lookups are not retried.
func (r *Resolver) ActiveChurch(ctx context.Context) (*model.ActiveChurch, error) {
	return querycache.Get(ctx, r.cache, ActiveChurchKey, r.src.ActiveChurch, identityOptions)
}

// CurrentActiveChurch returns whatever ActiveChurch last resolved to
// without calling the source.
func (r *Resolver) CurrentActiveChurch() (model.ActiveChurch, bool) {
	active, ok := querycache.PeekAs[*model.ActiveChurch](r.cache, ActiveChurchKey)
	if !ok || active == nil {
		return model.ActiveChurch{}, false
	}
	return *active, true
}

// CurrentChurchID is the tenant id embedded in every tenant-scoped key.
func (r *Resolver) CurrentChurchID() (uint64, bool) {
	active, ok := r.CurrentActiveChurch()
	if !ok {
		return 0, false
	}
	return active.ChurchID, true
}

// SetActiveChurch asks the source to switch the session to churchID. On
// success the switch fan-out runs before the call returns; on failure the
// cache is left untouched.
func (r *Resolver) SetActiveChurch(ctx context.Context, churchID uint64) (model.ActiveChurch, error) {
	resp, err := r.src.SetActiveChurch(ctx, churchID)
	if err != nil {
		err = fmt.Errorf("set active church %d: %w", churchID, err)
		r.notify.Error(err)
		return model.ActiveChurch{}, err
	}

	r.policy.SwitchTenant(resp.ActiveChurch)

	msg := resp.Message
	if msg == "" {
		msg = "active church changed to " + resp.ActiveChurch.Name
	}
	r.notify.Success(msg)
	r.log.Info().Uint64("church_id", resp.ActiveChurch.ChurchID).Msg("active church set")
	return resp.ActiveChurch, nil
}
