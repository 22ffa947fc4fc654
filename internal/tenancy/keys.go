// Package tenancy scopes cached church data to the session's active church.
//
// The Resolver owns the active-church value, the Policy decides what is
// invalidated or evicted when that value changes, and Queries give every
// resource family a read path whose cache key embeds the active church id
// and which stays inert while no church is active.
package tenancy

import (
	"strconv"

	"github.com/iliyamo/church-manager/internal/querycache"
)

// Family is a group of cache entries belonging to one kind of resource.
type Family string

const (
	FamilyMembers        Family = "members"
	FamilyMinistries     Family = "ministries"
	FamilyActivities     Family = "activities"
	FamilyVisitors       Family = "visitors"
	FamilyBranches       Family = "branches"
	FamilyDashboard      Family = "dashboard"
	FamilyLeaders        Family = "available-leaders"
	FamilySpouses        Family = "available-spouses"
	FamilyPrayerRequests Family = "prayer-requests"
	FamilyProfile        Family = "profile"
)

// Families lists every tenant-scoped family. A tenant switch invalidates
// all of them.
var Families = []Family{
	FamilyMembers,
	FamilyMinistries,
	FamilyActivities,
	FamilyVisitors,
	FamilyBranches,
	FamilyDashboard,
	FamilyLeaders,
	FamilySpouses,
	FamilyPrayerRequests,
	FamilyProfile,
}

// Namespace is the key prefix shared by every entry of the family,
// whatever church or filter produced it.
func (f Family) Namespace() querycache.Key {
	return querycache.NewKey(string(f))
}

// Session keys. They hold identity data and are never tenant-scoped.
var (
	SessionNamespace = querycache.NewKey("church-session")
	UserChurchesKey  = SessionNamespace.With("user-churches")
	ActiveChurchKey  = SessionNamespace.With("active")
)

// TenantKey builds the key of a tenant-scoped entry:
// {family, "church", id, kind, filter parts...}. Keys of different churches
// differ in the third component, and every key of a family extends the
// family namespace.
func TenantKey(f Family, churchID uint64, kind string, parts ...string) querycache.Key {
	return querycache.NewKey(string(f), "church", strconv.FormatUint(churchID, 10), kind).With(parts...)
}

// ChurchOf extracts the church id embedded in a tenant key.
func ChurchOf(k querycache.Key) (uint64, bool) {
	if len(k) < 3 || k[1] != "church" {
		return 0, false
	}
	id, err := strconv.ParseUint(k[2], 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}
