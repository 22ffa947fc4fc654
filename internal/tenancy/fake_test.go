package tenancy

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/church-manager/internal/model"
	"github.com/iliyamo/church-manager/internal/querycache"
)

// fakeSource plays the REST API. Members and dashboards are answered for
// the church the server considers active, like the real API does.
type fakeSource struct {
	mu          sync.Mutex
	calls       map[string]int
	churchCalls map[string][]uint64
	memberships []model.Membership
	active      *model.ActiveChurch
	members     map[uint64]int // church id -> member count
	setErr      error
	fetchErr    error
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		calls:       map[string]int{},
		churchCalls: map[string][]uint64{},
		members:     map[uint64]int{7: 42, 9: 13, 3: 5},
		memberships: []model.Membership{
			{UserID: 1, ChurchID: 7, ChurchName: "Sede", Role: model.RoleAdmin},
			{UserID: 1, ChurchID: 9, ChurchName: "Filial Norte", Role: model.RolePastor},
		},
	}
}

func (f *fakeSource) record(name string, churchID uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[name]++
	f.churchCalls[name] = append(f.churchCalls[name], churchID)
}

func (f *fakeSource) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeSource) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

func (f *fakeSource) activate(id uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.active = &model.ActiveChurch{ChurchID: id, Name: "church", Role: model.RoleAdmin, Permissions: model.PermissionsFor(model.RoleAdmin)}
}

func (f *fakeSource) UserChurches(ctx context.Context) ([]model.Membership, error) {
	f.record("UserChurches", 0)
	return append([]model.Membership(nil), f.memberships...), nil
}

func (f *fakeSource) ActiveChurch(ctx context.Context) (*model.ActiveChurch, error) {
	f.record("ActiveChurch", 0)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	if f.active == nil {
		return nil, nil
	}
	a := *f.active
	return &a, nil
}

func (f *fakeSource) SetActiveChurch(ctx context.Context, churchID uint64) (model.SetActiveChurchResponse, error) {
	f.record("SetActiveChurch", churchID)
	if f.setErr != nil {
		return model.SetActiveChurchResponse{}, f.setErr
	}
	f.activate(churchID)
	f.mu.Lock()
	defer f.mu.Unlock()
	return model.SetActiveChurchResponse{Message: "active church updated", ActiveChurch: *f.active}, nil
}

func (f *fakeSource) Profile(ctx context.Context, churchID uint64) (model.Profile, error) {
	f.record("Profile", churchID)
	return model.Profile{UserID: 1, Email: "pastor@example.com"}, nil
}

func (f *fakeSource) ListMembers(ctx context.Context, churchID uint64, flt model.MemberFilter) (model.MembersPage, error) {
	f.record("ListMembers", churchID)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fetchErr != nil {
		return model.MembersPage{}, f.fetchErr
	}
	return model.MembersPage{Total: f.members[churchID], Page: flt.Page, PageSize: flt.PageSize}, nil
}

func (f *fakeSource) GetMember(ctx context.Context, churchID, id uint64) (model.Member, error) {
	f.record("GetMember", churchID)
	return model.Member{ID: id, ChurchID: churchID}, nil
}

func (f *fakeSource) CreateMember(ctx context.Context, churchID uint64, in model.MemberInput) (model.Member, error) {
	f.record("CreateMember", churchID)
	f.mu.Lock()
	f.members[churchID]++
	f.mu.Unlock()
	return model.Member{ID: 100, ChurchID: churchID, Name: in.Name}, nil
}

func (f *fakeSource) UpdateMember(ctx context.Context, churchID, id uint64, in model.MemberInput) (model.Member, error) {
	f.record("UpdateMember", churchID)
	return model.Member{ID: id, ChurchID: churchID, Name: in.Name}, nil
}

func (f *fakeSource) DeleteMember(ctx context.Context, churchID, id uint64) error {
	f.record("DeleteMember", churchID)
	return nil
}

func (f *fakeSource) MembersDashboard(ctx context.Context, churchID uint64) (model.MembersDashboard, error) {
	f.record("MembersDashboard", churchID)
	f.mu.Lock()
	defer f.mu.Unlock()
	return model.MembersDashboard{Total: f.members[churchID]}, nil
}

func (f *fakeSource) AvailableLeaders(ctx context.Context, churchID uint64) ([]model.PersonOption, error) {
	f.record("AvailableLeaders", churchID)
	return []model.PersonOption{{ID: 1, Name: "Ana"}}, nil
}

func (f *fakeSource) AvailableSpouses(ctx context.Context, churchID uint64, flt model.GenderFilter) ([]model.PersonOption, error) {
	f.record("AvailableSpouses", churchID)
	return []model.PersonOption{{ID: 2, Name: "João"}}, nil
}

func (f *fakeSource) MainDashboard(ctx context.Context, churchID uint64) (model.MainDashboard, error) {
	f.record("MainDashboard", churchID)
	f.mu.Lock()
	defer f.mu.Unlock()
	return model.MainDashboard{Members: f.members[churchID]}, nil
}

func (f *fakeSource) ListVisitors(ctx context.Context, churchID uint64, flt model.PageFilter) ([]model.Visitor, error) {
	f.record("ListVisitors", churchID)
	return []model.Visitor{{ID: 1, ChurchID: churchID}}, nil
}

func (f *fakeSource) CreateVisitor(ctx context.Context, churchID uint64, v model.Visitor) (model.Visitor, error) {
	f.record("CreateVisitor", churchID)
	v.ChurchID = churchID
	return v, nil
}

func (f *fakeSource) DeleteVisitor(ctx context.Context, churchID, id uint64) error {
	f.record("DeleteVisitor", churchID)
	return nil
}

func (f *fakeSource) ListMinistries(ctx context.Context, churchID uint64) ([]model.Ministry, error) {
	f.record("ListMinistries", churchID)
	return []model.Ministry{{ID: 1, ChurchID: churchID}}, nil
}

func (f *fakeSource) CreateMinistry(ctx context.Context, churchID uint64, m model.Ministry) (model.Ministry, error) {
	f.record("CreateMinistry", churchID)
	return m, nil
}

func (f *fakeSource) DeleteMinistry(ctx context.Context, churchID, id uint64) error {
	f.record("DeleteMinistry", churchID)
	return nil
}

func (f *fakeSource) ListActivities(ctx context.Context, churchID uint64, flt model.ActivityFilter) ([]model.Activity, error) {
	f.record("ListActivities", churchID)
	return []model.Activity{{ID: 1, ChurchID: churchID}}, nil
}

func (f *fakeSource) CreateActivity(ctx context.Context, churchID uint64, a model.Activity) (model.Activity, error) {
	f.record("CreateActivity", churchID)
	return a, nil
}

func (f *fakeSource) DeleteActivity(ctx context.Context, churchID, id uint64) error {
	f.record("DeleteActivity", churchID)
	return nil
}

func (f *fakeSource) ListPrayerRequests(ctx context.Context, churchID uint64, flt model.PrayerFilter) ([]model.PrayerRequest, error) {
	f.record("ListPrayerRequests", churchID)
	return []model.PrayerRequest{{ID: 1, ChurchID: churchID}}, nil
}

func (f *fakeSource) CreatePrayerRequest(ctx context.Context, churchID uint64, p model.PrayerRequest) (model.PrayerRequest, error) {
	f.record("CreatePrayerRequest", churchID)
	return p, nil
}

func (f *fakeSource) UpdatePrayerStatus(ctx context.Context, churchID, id uint64, status string) (model.PrayerRequest, error) {
	f.record("UpdatePrayerStatus", churchID)
	return model.PrayerRequest{ID: id, ChurchID: churchID, Status: status}, nil
}

func (f *fakeSource) DeletePrayerRequest(ctx context.Context, churchID, id uint64) error {
	f.record("DeletePrayerRequest", churchID)
	return nil
}

func (f *fakeSource) ListBranches(ctx context.Context, churchID uint64) ([]model.Church, error) {
	f.record("ListBranches", churchID)
	return []model.Church{{ID: 11, ParentID: &churchID}}, nil
}

func (f *fakeSource) CreateBranch(ctx context.Context, churchID uint64, in model.BranchInput) (model.Church, error) {
	f.record("CreateBranch", churchID)
	return model.Church{ID: 12, ParentID: &churchID, Name: in.Name}, nil
}

type recordingNotifier struct {
	mu        sync.Mutex
	successes []string
	errs      []error
}

func (n *recordingNotifier) Success(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.successes = append(n.successes, msg)
}

func (n *recordingNotifier) Error(err error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.errs = append(n.errs, err)
}

var errNetwork = errors.New("network unreachable")

type harness struct {
	cache  *querycache.Cache
	src    *fakeSource
	notify *recordingNotifier
	layer  *Layer
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	cache, err := querycache.New(0)
	require.NoError(t, err)
	src := newFakeSource()
	notify := &recordingNotifier{}
	return &harness{
		cache:  cache,
		src:    src,
		notify: notify,
		layer:  New(cache, src, notify, DefaultStaleTime, zerolog.Nop()),
	}
}

// resolve makes church id the active church both remotely and locally.
func (h *harness) resolve(t *testing.T, id uint64) {
	t.Helper()
	h.src.activate(id)
	active, err := h.layer.Resolver.ActiveChurch(context.Background())
	require.NoError(t, err)
	require.NotNil(t, active)
	require.Equal(t, id, active.ChurchID)
}
