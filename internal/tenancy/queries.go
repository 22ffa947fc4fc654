package tenancy

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/iliyamo/church-manager/internal/model"
	"github.com/iliyamo/church-manager/internal/querycache"
)

// ErrNoActiveChurch is returned by mutations attempted while no church is
// active. Reads in that state are disabled instead of failing.
var ErrNoActiveChurch = errors.New("no active church")

// DefaultStaleTime is how long resource payloads are served from the
// cache before revalidation.
const DefaultStaleTime = 5 * time.Minute

// Result is the outcome of a tenant-scoped read.
type Result[T any] struct {
	Status   querycache.Status
	Data     T
	Err      error
	ChurchID uint64
}

// Disabled reports whether the read was skipped for lack of an active
// church.
func (r Result[T]) Disabled() bool { return r.Status == querycache.StatusDisabled }

// Queries reads and writes tenant-scoped resources. Every read keys its
// cache entry by the active church and does nothing while there is none.
type Queries struct {
	cache     *querycache.Cache
	resolver  *Resolver
	policy    *Policy
	src       ResourceSource
	notify    Notifier
	staleTime time.Duration
}

func NewQueries(cache *querycache.Cache, resolver *Resolver, policy *Policy, src ResourceSource, notify Notifier, staleTime time.Duration) *Queries {
	if staleTime <= 0 {
		staleTime = DefaultStaleTime
	}
	return &Queries{cache: cache, resolver: resolver, policy: policy, src: src, notify: notify, staleTime: staleTime}
}

// Key returns the cache key a read of family/kind would use under the
// current active church, and false when there is none.
func (q *Queries) Key(f Family, kind string, parts ...string) (querycache.Key, bool) {
	churchID, ok := q.resolver.CurrentChurchID()
	if !ok {
		return nil, false
	}
	return TenantKey(f, churchID, kind, parts...), true
}

func read[T any](ctx context.Context, q *Queries, f Family, kind string, parts []string, fetch func(ctx context.Context, churchID uint64) (T, error)) Result[T] {
	churchID, ok := q.resolver.CurrentChurchID()
	if !ok {
		return Result[T]{Status: querycache.StatusDisabled}
	}
	key := TenantKey(f, churchID, kind, parts...)
	data, err := querycache.Get(ctx, q.cache, key, func(ctx context.Context) (T, error) {
		return fetch(ctx, churchID)
	}, querycache.Options{StaleTime: q.staleTime})
	if err != nil {
		q.notify.Error(err)
		return Result[T]{Status: querycache.StatusError, Err: err, ChurchID: churchID}
	}
	return Result[T]{Status: querycache.StatusSuccess, Data: data, ChurchID: churchID}
}

func write[T any](ctx context.Context, q *Queries, families []Family, do func(ctx context.Context, churchID uint64) (T, error)) (T, error) {
	var zero T
	churchID, ok := q.resolver.CurrentChurchID()
	if !ok {
		return zero, ErrNoActiveChurch
	}
	out, err := do(ctx, churchID)
	if err != nil {
		q.notify.Error(err)
		return zero, err
	}
	q.policy.InvalidateFamilies(families...)
	return out, nil
}

func discard(fn func(ctx context.Context, churchID uint64) error) func(ctx context.Context, churchID uint64) (struct{}, error) {
	return func(ctx context.Context, churchID uint64) (struct{}, error) {
		return struct{}{}, fn(ctx, churchID)
	}
}

var (
	memberWrites   = []Family{FamilyMembers, FamilyDashboard, FamilyLeaders, FamilySpouses, FamilyMinistries}
	visitorWrites  = []Family{FamilyVisitors, FamilyDashboard}
	ministryWrites = []Family{FamilyMinistries, FamilyLeaders, FamilyDashboard}
	activityWrites = []Family{FamilyActivities, FamilyDashboard}
	prayerWrites   = []Family{FamilyPrayerRequests, FamilyDashboard}
	branchWrites   = []Family{FamilyBranches, FamilyDashboard}
)

func (q *Queries) Profile(ctx context.Context) Result[model.Profile] {
	return read(ctx, q, FamilyProfile, "me", nil, q.src.Profile)
}

func (q *Queries) Members(ctx context.Context, f model.MemberFilter) Result[model.MembersPage] {
	f = f.Normalize()
	return read(ctx, q, FamilyMembers, "list", f.Parts(), func(ctx context.Context, churchID uint64) (model.MembersPage, error) {
		return q.src.ListMembers(ctx, churchID, f)
	})
}

func (q *Queries) Member(ctx context.Context, id uint64) Result[model.Member] {
	return read(ctx, q, FamilyMembers, "detail", []string{strconv.FormatUint(id, 10)}, func(ctx context.Context, churchID uint64) (model.Member, error) {
		return q.src.GetMember(ctx, churchID, id)
	})
}

func (q *Queries) MembersDashboard(ctx context.Context) Result[model.MembersDashboard] {
	return read(ctx, q, FamilyDashboard, "members", nil, q.src.MembersDashboard)
}

func (q *Queries) MainDashboard(ctx context.Context) Result[model.MainDashboard] {
	return read(ctx, q, FamilyDashboard, "main", nil, q.src.MainDashboard)
}

func (q *Queries) AvailableLeaders(ctx context.Context) Result[[]model.PersonOption] {
	return read(ctx, q, FamilyLeaders, "list", nil, q.src.AvailableLeaders)
}

func (q *Queries) AvailableSpouses(ctx context.Context, f model.GenderFilter) Result[[]model.PersonOption] {
	return read(ctx, q, FamilySpouses, "list", f.Parts(), func(ctx context.Context, churchID uint64) ([]model.PersonOption, error) {
		return q.src.AvailableSpouses(ctx, churchID, f)
	})
}

func (q *Queries) Visitors(ctx context.Context, f model.PageFilter) Result[[]model.Visitor] {
	f = f.Normalize()
	return read(ctx, q, FamilyVisitors, "list", f.Parts(), func(ctx context.Context, churchID uint64) ([]model.Visitor, error) {
		return q.src.ListVisitors(ctx, churchID, f)
	})
}

func (q *Queries) Ministries(ctx context.Context) Result[[]model.Ministry] {
	return read(ctx, q, FamilyMinistries, "list", nil, q.src.ListMinistries)
}

func (q *Queries) Activities(ctx context.Context, f model.ActivityFilter) Result[[]model.Activity] {
	return read(ctx, q, FamilyActivities, "list", f.Parts(), func(ctx context.Context, churchID uint64) ([]model.Activity, error) {
		return q.src.ListActivities(ctx, churchID, f)
	})
}

func (q *Queries) PrayerRequests(ctx context.Context, f model.PrayerFilter) Result[[]model.PrayerRequest] {
	return read(ctx, q, FamilyPrayerRequests, "list", f.Parts(), func(ctx context.Context, churchID uint64) ([]model.PrayerRequest, error) {
		return q.src.ListPrayerRequests(ctx, churchID, f)
	})
}

func (q *Queries) Branches(ctx context.Context) Result[[]model.Church] {
	return read(ctx, q, FamilyBranches, "list", nil, q.src.ListBranches)
}

func (q *Queries) CreateMember(ctx context.Context, in model.MemberInput) (model.Member, error) {
	return write(ctx, q, memberWrites, func(ctx context.Context, churchID uint64) (model.Member, error) {
		return q.src.CreateMember(ctx, churchID, in)
	})
}

func (q *Queries) UpdateMember(ctx context.Context, id uint64, in model.MemberInput) (model.Member, error) {
	return write(ctx, q, memberWrites, func(ctx context.Context, churchID uint64) (model.Member, error) {
		return q.src.UpdateMember(ctx, churchID, id, in)
	})
}

func (q *Queries) DeleteMember(ctx context.Context, id uint64) error {
	_, err := write(ctx, q, memberWrites, discard(func(ctx context.Context, churchID uint64) error {
		return q.src.DeleteMember(ctx, churchID, id)
	}))
	return err
}

func (q *Queries) CreateVisitor(ctx context.Context, v model.Visitor) (model.Visitor, error) {
	return write(ctx, q, visitorWrites, func(ctx context.Context, churchID uint64) (model.Visitor, error) {
		return q.src.CreateVisitor(ctx, churchID, v)
	})
}

func (q *Queries) DeleteVisitor(ctx context.Context, id uint64) error {
	_, err := write(ctx, q, visitorWrites, discard(func(ctx context.Context, churchID uint64) error {
		return q.src.DeleteVisitor(ctx, churchID, id)
	}))
	return err
}

func (q *Queries) CreateMinistry(ctx context.Context, m model.Ministry) (model.Ministry, error) {
	return write(ctx, q, ministryWrites, func(ctx context.Context, churchID uint64) (model.Ministry, error) {
		return q.src.CreateMinistry(ctx, churchID, m)
	})
}

func (q *Queries) DeleteMinistry(ctx context.Context, id uint64) error {
	_, err := write(ctx, q, ministryWrites, discard(func(ctx context.Context, churchID uint64) error {
		return q.src.DeleteMinistry(ctx, churchID, id)
	}))
	return err
}

func (q *Queries) CreateActivity(ctx context.Context, a model.Activity) (model.Activity, error) {
	return write(ctx, q, activityWrites, func(ctx context.Context, churchID uint64) (model.Activity, error) {
		return q.src.CreateActivity(ctx, churchID, a)
	})
}

func (q *Queries) DeleteActivity(ctx context.Context, id uint64) error {
	_, err := write(ctx, q, activityWrites, discard(func(ctx context.Context, churchID uint64) error {
		return q.src.DeleteActivity(ctx, churchID, id)
	}))
	return err
}

func (q *Queries) CreatePrayerRequest(ctx context.Context, p model.PrayerRequest) (model.PrayerRequest, error) {
	return write(ctx, q, prayerWrites, func(ctx context.Context, churchID uint64) (model.PrayerRequest, error) {
		return q.src.CreatePrayerRequest(ctx, churchID, p)
	})
}

func (q *Queries) UpdatePrayerStatus(ctx context.Context, id uint64, status string) (model.PrayerRequest, error) {
	return write(ctx, q, prayerWrites, func(ctx context.Context, churchID uint64) (model.PrayerRequest, error) {
		return q.src.UpdatePrayerStatus(ctx, churchID, id, status)
	})
}

func (q *Queries) DeletePrayerRequest(ctx context.Context, id uint64) error {
	_, err := write(ctx, q, prayerWrites, discard(func(ctx context.Context, churchID uint64) error {
		return q.src.DeletePrayerRequest(ctx, churchID, id)
	}))
	return err
}

func (q *Queries) CreateBranch(ctx context.Context, in model.BranchInput) (model.Church, error) {
	return write(ctx, q, branchWrites, func(ctx context.Context, churchID uint64) (model.Church, error) {
		return q.src.CreateBranch(ctx, churchID, in)
	})
}
