package tenancy

import (
	"context"

	"github.com/iliyamo/church-manager/internal/model"
)

// ChurchSource serves the identity data of the current session.
type ChurchSource interface {
	UserChurches(ctx context.Context) ([]model.Membership, error)
	// ActiveChurch returns nil, nil when no church is active.
	ActiveChurch(ctx context.Context) (*model.ActiveChurch, error)
	SetActiveChurch(ctx context.Context, churchID uint64) (model.SetActiveChurchResponse, error)
}

// ResourceSource serves tenant-scoped resources. Every call names the
// church the caller believes is active so the server can reject a request
// whose scope no longer matches the session.
type ResourceSource interface {
	Profile(ctx context.Context, churchID uint64) (model.Profile, error)

	ListMembers(ctx context.Context, churchID uint64, f model.MemberFilter) (model.MembersPage, error)
	GetMember(ctx context.Context, churchID, id uint64) (model.Member, error)
	CreateMember(ctx context.Context, churchID uint64, in model.MemberInput) (model.Member, error)
	UpdateMember(ctx context.Context, churchID, id uint64, in model.MemberInput) (model.Member, error)
	DeleteMember(ctx context.Context, churchID, id uint64) error
	MembersDashboard(ctx context.Context, churchID uint64) (model.MembersDashboard, error)
	AvailableLeaders(ctx context.Context, churchID uint64) ([]model.PersonOption, error)
	AvailableSpouses(ctx context.Context, churchID uint64, f model.GenderFilter) ([]model.PersonOption, error)

	MainDashboard(ctx context.Context, churchID uint64) (model.MainDashboard, error)

	ListVisitors(ctx context.Context, churchID uint64, f model.PageFilter) ([]model.Visitor, error)
	CreateVisitor(ctx context.Context, churchID uint64, v model.Visitor) (model.Visitor, error)
	DeleteVisitor(ctx context.Context, churchID, id uint64) error

	ListMinistries(ctx context.Context, churchID uint64) ([]model.Ministry, error)
	CreateMinistry(ctx context.Context, churchID uint64, m model.Ministry) (model.Ministry, error)
	DeleteMinistry(ctx context.Context, churchID, id uint64) error

	ListActivities(ctx context.Context, churchID uint64, f model.ActivityFilter) ([]model.Activity, error)
	CreateActivity(ctx context.Context, churchID uint64, a model.Activity) (model.Activity, error)
	DeleteActivity(ctx context.Context, churchID, id uint64) error

	ListPrayerRequests(ctx context.Context, churchID uint64, f model.PrayerFilter) ([]model.PrayerRequest, error)
	CreatePrayerRequest(ctx context.Context, churchID uint64, p model.PrayerRequest) (model.PrayerRequest, error)
	UpdatePrayerStatus(ctx context.Context, churchID, id uint64, status string) (model.PrayerRequest, error)
	DeletePrayerRequest(ctx context.Context, churchID, id uint64) error

	ListBranches(ctx context.Context, churchID uint64) ([]model.Church, error)
	CreateBranch(ctx context.Context, churchID uint64, in model.BranchInput) (model.Church, error)
}

// Source is everything the tenancy layer reads from the remote API.
type Source interface {
	ChurchSource
	ResourceSource
}
