package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/church-manager/internal/model"
)

// MinistryRepo manages ministries of a church.
type MinistryRepo struct {
	db *sql.DB
}

func NewMinistryRepo(db *sql.DB) *MinistryRepo { return &MinistryRepo{db: db} }

func (r *MinistryRepo) List(ctx context.Context, churchID uint64) ([]model.Ministry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, church_id, name, leader_id, COALESCE(description, '')
         FROM ministries WHERE church_id = ? ORDER BY name, id`, churchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Ministry{}
	for rows.Next() {
		var (
			m      model.Ministry
			leader sql.NullInt64
		)
		if err := rows.Scan(&m.ID, &m.ChurchID, &m.Name, &leader, &m.Description); err != nil {
			return nil, err
		}
		if leader.Valid {
			id := uint64(leader.Int64)
			m.LeaderID = &id
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// Create adds a ministry to churchID. A leader must be a member of the same
// church.
func (r *MinistryRepo) Create(ctx context.Context, churchID uint64, m model.Ministry) (model.Ministry, error) {
	if err := memberInChurch(ctx, r.db, churchID, m.LeaderID); err != nil {
		return model.Ministry{}, err
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO ministries (church_id, name, leader_id, description) VALUES (?, ?, ?, ?)`,
		churchID, m.Name, m.LeaderID, nullable(m.Description))
	if err != nil {
		if isDuplicate(err) {
			return model.Ministry{}, ErrConflict
		}
		return model.Ministry{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Ministry{}, err
	}
	m.ID, m.ChurchID = uint64(id), churchID
	return m, nil
}

// Delete removes a ministry; one that still owns activities is a conflict.
func (r *MinistryRepo) Delete(ctx context.Context, churchID, id uint64) error {
	return deleteScoped(ctx, r.db, "ministries", churchID, id)
}
