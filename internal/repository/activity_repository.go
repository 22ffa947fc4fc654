package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/church-manager/internal/model"
)

// ActivityRepo manages scheduled activities of a church.
type ActivityRepo struct {
	db *sql.DB
}

func NewActivityRepo(db *sql.DB) *ActivityRepo { return &ActivityRepo{db: db} }

// List returns activities of churchID inside the window of f, soonest first.
func (r *ActivityRepo) List(ctx context.Context, churchID uint64, f model.ActivityFilter) ([]model.Activity, error) {
	where := []string{"church_id = ?"}
	args := []any{churchID}
	if !f.From.IsZero() {
		where = append(where, "starts_at >= ?")
		args = append(args, f.From.UTC())
	}
	if !f.To.IsZero() {
		where = append(where, "starts_at < ?")
		args = append(args, f.To.UTC())
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, church_id, ministry_id, title, starts_at, COALESCE(location, '')
         FROM activities WHERE `+strings.Join(where, " AND ")+` ORDER BY starts_at, id`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Activity{}
	for rows.Next() {
		var (
			a        model.Activity
			ministry sql.NullInt64
		)
		if err := rows.Scan(&a.ID, &a.ChurchID, &ministry, &a.Title, &a.StartsAt, &a.Location); err != nil {
			return nil, err
		}
		if ministry.Valid {
			id := uint64(ministry.Int64)
			a.MinistryID = &id
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Create schedules an activity; its ministry must belong to the same church.
func (r *ActivityRepo) Create(ctx context.Context, churchID uint64, a model.Activity) (model.Activity, error) {
	if a.MinistryID != nil {
		var n int
		err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM ministries WHERE church_id = ? AND id = ?", churchID, *a.MinistryID).Scan(&n)
		if err != nil {
			return model.Activity{}, err
		}
		if n == 0 {
			return model.Activity{}, ErrNotFound
		}
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO activities (church_id, ministry_id, title, starts_at, location) VALUES (?, ?, ?, ?, ?)`,
		churchID, a.MinistryID, a.Title, a.StartsAt.UTC(), nullable(a.Location))
	if err != nil {
		if isForeignKey(err) {
			return model.Activity{}, errors.Join(ErrNotFound, err)
		}
		return model.Activity{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Activity{}, err
	}
	a.ID, a.ChurchID = uint64(id), churchID
	return a, nil
}

func (r *ActivityRepo) Delete(ctx context.Context, churchID, id uint64) error {
	return deleteScoped(ctx, r.db, "activities", churchID, id)
}
