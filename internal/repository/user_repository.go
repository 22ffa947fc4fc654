package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/church-manager/internal/model"
	"github.com/iliyamo/church-manager/internal/utils"
)

// UserRepo holds accounts.  Emails are stored lower-cased and trimmed.
type UserRepo struct {
	db *sql.DB
}

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{db: db} }

func normalizeEmail(email string) string { return strings.ToLower(strings.TrimSpace(email)) }

// Create hashes the password with cost and returns the new user id, or
// ErrEmailExists.
func (r *UserRepo) Create(ctx context.Context, email, password string, cost int) (uint64, error) {
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	const q = `INSERT INTO users (email, password_hash) VALUES (?, ?)`
	res, err := r.db.ExecContext(ctx, q, normalizeEmail(email), hash)
	switch {
	case isDuplicate(err):
		return 0, ErrEmailExists
	case err != nil:
		return 0, err
	}
	id, err := res.LastInsertId()
	return uint64(id), err
}

const selectUser = `SELECT id, email, password_hash, is_active, created_at, updated_at FROM users `

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	return scanUser(r.db.QueryRowContext(ctx, selectUser+`WHERE email = ?`, normalizeEmail(email)))
}

func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	return scanUser(r.db.QueryRowContext(ctx, selectUser+`WHERE id = ?`, id))
}

func scanUser(row *sql.Row) (model.User, error) {
	var u model.User
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.IsActive, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, ErrNotFound
		}
		return model.User{}, err
	}
	return u, nil
}
