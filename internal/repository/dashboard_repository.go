package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/church-manager/internal/model"
)

// DashboardRepo computes cross-resource aggregates of one church.
type DashboardRepo struct {
	db *sql.DB
}

func NewDashboardRepo(db *sql.DB) *DashboardRepo { return &DashboardRepo{db: db} }

// Main counts every resource of churchID in a single round trip.
func (r *DashboardRepo) Main(ctx context.Context, churchID uint64) (model.MainDashboard, error) {
	const q = `SELECT
        (SELECT COUNT(*) FROM members         WHERE church_id = ?),
        (SELECT COUNT(*) FROM visitors        WHERE church_id = ?),
        (SELECT COUNT(*) FROM ministries      WHERE church_id = ?),
        (SELECT COUNT(*) FROM activities      WHERE church_id = ? AND starts_at >= UTC_TIMESTAMP()),
        (SELECT COUNT(*) FROM prayer_requests WHERE church_id = ? AND status = 'PENDING'),
        (SELECT COUNT(*) FROM churches        WHERE parent_id = ?)`
	var d model.MainDashboard
	err := r.db.QueryRowContext(ctx, q, churchID, churchID, churchID, churchID, churchID, churchID).
		Scan(&d.Members, &d.Visitors, &d.Ministries, &d.Activities, &d.PendingPrayers, &d.Branches)
	return d, err
}
