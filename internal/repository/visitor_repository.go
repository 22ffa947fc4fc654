package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/church-manager/internal/model"
)

// VisitorRepo manages visitors of a church.
type VisitorRepo struct {
	db *sql.DB
}

func NewVisitorRepo(db *sql.DB) *VisitorRepo { return &VisitorRepo{db: db} }

// List returns visitors of churchID, most recent visit first.
func (r *VisitorRepo) List(ctx context.Context, churchID uint64, f model.PageFilter) ([]model.Visitor, error) {
	f = f.Normalize()
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, church_id, name, COALESCE(phone, ''), visited_at, COALESCE(notes, '')
         FROM visitors WHERE church_id = ? ORDER BY visited_at DESC, id DESC LIMIT ? OFFSET ?`,
		churchID, f.PageSize, f.Offset())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Visitor{}
	for rows.Next() {
		var v model.Visitor
		if err := rows.Scan(&v.ID, &v.ChurchID, &v.Name, &v.Phone, &v.VisitedAt, &v.Notes); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// Create records a visit in churchID; the church id on v is ignored.
func (r *VisitorRepo) Create(ctx context.Context, churchID uint64, v model.Visitor) (model.Visitor, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO visitors (church_id, name, phone, visited_at, notes) VALUES (?, ?, ?, ?, ?)`,
		churchID, v.Name, nullable(v.Phone), v.VisitedAt, nullable(v.Notes))
	if err != nil {
		return model.Visitor{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Visitor{}, err
	}
	v.ID, v.ChurchID = uint64(id), churchID
	return v, nil
}

// Delete removes a visitor of churchID.
func (r *VisitorRepo) Delete(ctx context.Context, churchID, id uint64) error {
	return deleteScoped(ctx, r.db, "visitors", churchID, id)
}

// deleteScoped deletes one row of table inside churchID. The table name is
// always a constant supplied by this package.
func deleteScoped(ctx context.Context, db *sql.DB, table string, churchID, id uint64) error {
	res, err := db.ExecContext(ctx, "DELETE FROM "+table+" WHERE church_id = ? AND id = ?", churchID, id)
	if err != nil {
		if isForeignKey(err) {
			return ErrConflict
		}
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// memberInChurch reports ErrNotFound unless memberID is a member of churchID.
func memberInChurch(ctx context.Context, db *sql.DB, churchID uint64, memberID *uint64) error {
	if memberID == nil {
		return nil
	}
	var n int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM members WHERE church_id = ? AND id = ?", churchID, *memberID).Scan(&n); err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
