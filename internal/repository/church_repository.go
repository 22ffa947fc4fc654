package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/church-manager/internal/model"
)

// ChurchRepo manages churches, memberships and each user's active church.
type ChurchRepo struct {
	db *sql.DB
}

func NewChurchRepo(db *sql.DB) *ChurchRepo { return &ChurchRepo{db: db} }

// ListForUser returns the user's memberships ordered by church name.
func (r *ChurchRepo) ListForUser(ctx context.Context, userID uint64) ([]model.Membership, error) {
	const q = `SELECT m.user_id, m.church_id, c.name, m.role
               FROM church_memberships m JOIN churches c ON c.id = m.church_id
               WHERE m.user_id = ? ORDER BY c.name, c.id`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Membership{}
	for rows.Next() {
		var m model.Membership
		if err := rows.Scan(&m.UserID, &m.ChurchID, &m.ChurchName, &m.Role); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// Membership returns the user's membership in churchID, or ErrNotMember.
func (r *ChurchRepo) Membership(ctx context.Context, userID, churchID uint64) (model.Membership, error) {
	return membership(ctx, r.db, userID, churchID)
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func membership(ctx context.Context, db queryRower, userID, churchID uint64) (model.Membership, error) {
	const q = `SELECT m.user_id, m.church_id, c.name, m.role
               FROM church_memberships m JOIN churches c ON c.id = m.church_id
               WHERE m.user_id = ? AND m.church_id = ?`
	var m model.Membership
	err := db.QueryRowContext(ctx, q, userID, churchID).Scan(&m.UserID, &m.ChurchID, &m.ChurchName, &m.Role)
	if errors.Is(err, sql.ErrNoRows) {
		return m, ErrNotMember
	}
	return m, err
}

// Active returns the user's active church. ErrNotFound means the user has not
// selected one, or lost the membership of the one selected.
func (r *ChurchRepo) Active(ctx context.Context, userID uint64) (model.ActiveChurch, error) {
	const q = `SELECT a.church_id, c.name, m.role
               FROM active_churches a
               JOIN churches c ON c.id = a.church_id
               JOIN church_memberships m ON m.user_id = a.user_id AND m.church_id = a.church_id
               WHERE a.user_id = ?`
	var a model.ActiveChurch
	err := r.db.QueryRowContext(ctx, q, userID).Scan(&a.ChurchID, &a.Name, &a.Role)
	if errors.Is(err, sql.ErrNoRows) {
		return a, ErrNotFound
	}
	if err != nil {
		return a, err
	}
	a.Permissions = model.PermissionsFor(a.Role)
	return a, nil
}

// SetActive makes churchID the user's active church and returns it together
// with the previously active church id (0 if none). Membership is checked in
// the same transaction; a non-member gets ErrNotMember and nothing changes.
func (r *ChurchRepo) SetActive(ctx context.Context, userID, churchID uint64) (model.ActiveChurch, uint64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return model.ActiveChurch{}, 0, err
	}
	defer func() { _ = tx.Rollback() }()

	m, err := membership(ctx, tx, userID, churchID)
	if err != nil {
		return model.ActiveChurch{}, 0, err
	}

	var previous uint64
	err = tx.QueryRowContext(ctx, `SELECT church_id FROM active_churches WHERE user_id = ? FOR UPDATE`, userID).Scan(&previous)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return model.ActiveChurch{}, 0, err
	}

	const upsert = `INSERT INTO active_churches (user_id, church_id) VALUES (?, ?)
                    ON DUPLICATE KEY UPDATE church_id = VALUES(church_id), updated_at = CURRENT_TIMESTAMP`
	if _, err := tx.ExecContext(ctx, upsert, userID, churchID); err != nil {
		return model.ActiveChurch{}, 0, err
	}
	if err := tx.Commit(); err != nil {
		return model.ActiveChurch{}, 0, err
	}
	return model.ActiveChurch{
		ChurchID:    m.ChurchID,
		Name:        m.ChurchName,
		Role:        m.Role,
		Permissions: model.PermissionsFor(m.Role),
	}, previous, nil
}

// Create inserts a church and makes userID its ADMIN. parentID is nil for a
// root church and the active church id for a branch.
func (r *ChurchRepo) Create(ctx context.Context, userID uint64, parentID *uint64, in model.BranchInput) (model.Church, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return model.Church{}, err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO churches (parent_id, name, city, state, cep) VALUES (?, ?, ?, ?, ?)`,
		parentID, in.Name, in.City, in.State, in.CEP)
	if err != nil {
		return model.Church{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Church{}, err
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO church_memberships (user_id, church_id, role) VALUES (?, ?, ?)`,
		userID, id, model.RoleAdmin); err != nil {
		return model.Church{}, err
	}
	c, err := getChurch(ctx, tx, uint64(id))
	if err != nil {
		return model.Church{}, err
	}
	return c, tx.Commit()
}

func getChurch(ctx context.Context, db queryRower, id uint64) (model.Church, error) {
	var (
		c      model.Church
		parent sql.NullInt64
	)
	err := db.QueryRowContext(ctx,
		`SELECT id, parent_id, name, city, state, cep, created_at, updated_at FROM churches WHERE id = ?`, id).
		Scan(&c.ID, &parent, &c.Name, &c.City, &c.State, &c.CEP, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return c, ErrNotFound
	}
	if parent.Valid {
		p := uint64(parent.Int64)
		c.ParentID = &p
	}
	return c, err
}

// Branches lists the direct branches of churchID.
func (r *ChurchRepo) Branches(ctx context.Context, churchID uint64) ([]model.Church, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, parent_id, name, city, state, cep, created_at, updated_at
         FROM churches WHERE parent_id = ? ORDER BY name, id`, churchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Church{}
	for rows.Next() {
		var (
			c      model.Church
			parent sql.NullInt64
		)
		if err := rows.Scan(&c.ID, &parent, &c.Name, &c.City, &c.State, &c.CEP, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		if parent.Valid {
			p := uint64(parent.Int64)
			c.ParentID = &p
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
