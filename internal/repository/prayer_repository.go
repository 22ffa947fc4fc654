package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/church-manager/internal/model"
)

// PrayerRepo manages prayer requests of a church.
type PrayerRepo struct {
	db *sql.DB
}

func NewPrayerRepo(db *sql.DB) *PrayerRepo { return &PrayerRepo{db: db} }

const prayerCols = `id, church_id, member_id, content, status, created_at`

func scanPrayer(s rowScanner) (model.PrayerRequest, error) {
	var (
		p      model.PrayerRequest
		member sql.NullInt64
	)
	if err := s.Scan(&p.ID, &p.ChurchID, &member, &p.Content, &p.Status, &p.CreatedAt); err != nil {
		return p, err
	}
	if member.Valid {
		id := uint64(member.Int64)
		p.MemberID = &id
	}
	return p, nil
}

// List returns prayer requests of churchID, newest first, optionally of one
// status.
func (r *PrayerRepo) List(ctx context.Context, churchID uint64, f model.PrayerFilter) ([]model.PrayerRequest, error) {
	q := "SELECT " + prayerCols + " FROM prayer_requests WHERE church_id = ?"
	args := []any{churchID}
	if f.Status != "" {
		q += " AND status = ?"
		args = append(args, f.Status)
	}
	rows, err := r.db.QueryContext(ctx, q+" ORDER BY created_at DESC, id DESC", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.PrayerRequest{}
	for rows.Next() {
		p, err := scanPrayer(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *PrayerRepo) get(ctx context.Context, churchID, id uint64) (model.PrayerRequest, error) {
	p, err := scanPrayer(r.db.QueryRowContext(ctx,
		"SELECT "+prayerCols+" FROM prayer_requests WHERE church_id = ? AND id = ?", churchID, id))
	if errors.Is(err, sql.ErrNoRows) {
		return p, ErrNotFound
	}
	return p, err
}

// Create files a new PENDING request in churchID.
func (r *PrayerRepo) Create(ctx context.Context, churchID uint64, p model.PrayerRequest) (model.PrayerRequest, error) {
	if err := memberInChurch(ctx, r.db, churchID, p.MemberID); err != nil {
		return model.PrayerRequest{}, err
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO prayer_requests (church_id, member_id, content, status) VALUES (?, ?, ?, ?)`,
		churchID, p.MemberID, p.Content, model.PrayerPending)
	if err != nil {
		return model.PrayerRequest{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.PrayerRequest{}, err
	}
	return r.get(ctx, churchID, uint64(id))
}

// UpdateStatus moves a request of churchID to status.
func (r *PrayerRepo) UpdateStatus(ctx context.Context, churchID, id uint64, status string) (model.PrayerRequest, error) {
	if _, err := r.db.ExecContext(ctx,
		"UPDATE prayer_requests SET status = ? WHERE church_id = ? AND id = ?", status, churchID, id); err != nil {
		return model.PrayerRequest{}, err
	}
	return r.get(ctx, churchID, id)
}

func (r *PrayerRepo) Delete(ctx context.Context, churchID, id uint64) error {
	return deleteScoped(ctx, r.db, "prayer_requests", churchID, id)
}
