package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/church-manager/internal/model"
)

// MemberRepo manages the members of a church. Every method takes the church
// the caller acts within.
type MemberRepo struct {
	db *sql.DB
}

func NewMemberRepo(db *sql.DB) *MemberRepo { return &MemberRepo{db: db} }

const memberCols = `id, church_id, name, email, phone, gender, marital_status, spouse_id, status, is_leader, birth_date, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMember(s rowScanner) (model.Member, error) {
	var (
		m       model.Member
		spouse  sql.NullInt64
		birth   sql.NullTime
		email   sql.NullString
		phone   sql.NullString
		gender  sql.NullString
		marital sql.NullString
	)
	err := s.Scan(&m.ID, &m.ChurchID, &m.Name, &email, &phone, &gender, &marital, &spouse, &m.Status, &m.IsLeader, &birth, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return m, err
	}
	m.Email, m.Phone, m.Gender, m.MaritalStatus = email.String, phone.String, gender.String, marital.String
	if spouse.Valid {
		id := uint64(spouse.Int64)
		m.SpouseID = &id
	}
	if birth.Valid {
		t := birth.Time
		m.BirthDate = &t
	}
	return m, nil
}

// List returns one page of members matching f.
func (r *MemberRepo) List(ctx context.Context, churchID uint64, f model.MemberFilter) (model.MembersPage, error) {
	f = f.Normalize()
	where := []string{"church_id = ?"}
	args := []any{churchID}
	if q := strings.TrimSpace(f.Query); q != "" {
		where = append(where, "(name LIKE ? OR email LIKE ?)")
		like := "%" + q + "%"
		args = append(args, like, like)
	}
	if f.Status != "" {
		where = append(where, "status = ?")
		args = append(args, f.Status)
	}
	if f.LeadersOnly {
		where = append(where, "is_leader = 1")
	}
	cond := strings.Join(where, " AND ")

	page := model.MembersPage{Page: f.Page, PageSize: f.PageSize, Items: []model.Member{}}
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM members WHERE "+cond, args...).Scan(&page.Total); err != nil {
		return page, err
	}

	rows, err := r.db.QueryContext(ctx,
		"SELECT "+memberCols+" FROM members WHERE "+cond+" ORDER BY name, id LIMIT ? OFFSET ?",
		append(args, f.PageSize, f.Offset())...)
	if err != nil {
		return page, err
	}
	defer rows.Close()
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return page, err
		}
		page.Items = append(page.Items, m)
	}
	return page, rows.Err()
}

// Get returns one member of churchID.
func (r *MemberRepo) Get(ctx context.Context, churchID, id uint64) (model.Member, error) {
	m, err := scanMember(r.db.QueryRowContext(ctx,
		"SELECT "+memberCols+" FROM members WHERE church_id = ? AND id = ?", churchID, id))
	if errors.Is(err, sql.ErrNoRows) {
		return m, ErrNotFound
	}
	return m, err
}

// checkSpouse verifies that spouseID is another member of the same church.
func (r *MemberRepo) checkSpouse(ctx context.Context, churchID uint64, self uint64, spouseID *uint64) error {
	if spouseID == nil {
		return nil
	}
	if *spouseID == self {
		return ErrConflict
	}
	var n int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM members WHERE church_id = ? AND id = ?", churchID, *spouseID).Scan(&n)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// Create inserts a member into churchID.
func (r *MemberRepo) Create(ctx context.Context, churchID uint64, in model.MemberInput) (model.Member, error) {
	if err := r.checkSpouse(ctx, churchID, 0, in.SpouseID); err != nil {
		return model.Member{}, err
	}
	if in.Status == "" {
		in.Status = model.MemberActive
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO members (church_id, name, email, phone, gender, marital_status, spouse_id, status, is_leader, birth_date)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		churchID, in.Name, nullable(in.Email), nullable(in.Phone), nullable(in.Gender), nullable(in.MaritalStatus),
		in.SpouseID, in.Status, in.IsLeader, in.BirthDate)
	if err != nil {
		if isDuplicate(err) {
			return model.Member{}, ErrConflict
		}
		return model.Member{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Member{}, err
	}
	return r.Get(ctx, churchID, uint64(id))
}

// Update replaces the writable fields of a member of churchID.
func (r *MemberRepo) Update(ctx context.Context, churchID, id uint64, in model.MemberInput) (model.Member, error) {
	if err := r.checkSpouse(ctx, churchID, id, in.SpouseID); err != nil {
		return model.Member{}, err
	}
	if in.Status == "" {
		in.Status = model.MemberActive
	}
	_, err := r.db.ExecContext(ctx,
		`UPDATE members SET name = ?, email = ?, phone = ?, gender = ?, marital_status = ?, spouse_id = ?,
             status = ?, is_leader = ?, birth_date = ?, updated_at = CURRENT_TIMESTAMP
         WHERE church_id = ? AND id = ?`,
		in.Name, nullable(in.Email), nullable(in.Phone), nullable(in.Gender), nullable(in.MaritalStatus), in.SpouseID,
		in.Status, in.IsLeader, in.BirthDate, churchID, id)
	if err != nil {
		return model.Member{}, err
	}
	// MySQL reports 0 affected rows for an unchanged row too, so the re-read
	// is what detects a missing member.
	return r.Get(ctx, churchID, id)
}

// Delete removes a member of churchID. Spouse links pointing at it are
// cleared in the same transaction.
func (r *MemberRepo) Delete(ctx context.Context, churchID, id uint64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "UPDATE members SET spouse_id = NULL WHERE church_id = ? AND spouse_id = ?", churchID, id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM members WHERE church_id = ? AND id = ?", churchID, id)
	if err != nil {
		if isForeignKey(err) {
			return ErrConflict
		}
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return tx.Commit()
}

// Dashboard aggregates member statistics for churchID.
func (r *MemberRepo) Dashboard(ctx context.Context, churchID uint64) (model.MembersDashboard, error) {
	const q = `SELECT
        COUNT(*),
        COALESCE(SUM(status = 'ACTIVE'), 0),
        COALESCE(SUM(status = 'INACTIVE'), 0),
        COALESCE(SUM(is_leader = 1), 0),
        COALESCE(SUM(gender = 'M'), 0),
        COALESCE(SUM(gender = 'F'), 0),
        COALESCE(SUM(marital_status = 'MARRIED'), 0),
        COALESCE(SUM(created_at >= DATE_FORMAT(UTC_TIMESTAMP(), '%Y-%m-01')), 0)
        FROM members WHERE church_id = ?`
	var d model.MembersDashboard
	err := r.db.QueryRowContext(ctx, q, churchID).Scan(&d.Total, &d.Active, &d.Inactive, &d.Leaders, &d.Male, &d.Female, &d.Married, &d.NewThisMonth)
	return d, err
}

// AvailableLeaders lists active leaders who do not lead a ministry yet.
func (r *MemberRepo) AvailableLeaders(ctx context.Context, churchID uint64) ([]model.PersonOption, error) {
	const q = `SELECT m.id, m.name FROM members m
               WHERE m.church_id = ? AND m.is_leader = 1 AND m.status = 'ACTIVE'
                 AND NOT EXISTS (SELECT 1 FROM ministries n WHERE n.church_id = m.church_id AND n.leader_id = m.id)
               ORDER BY m.name, m.id`
	return r.options(ctx, q, churchID)
}

// AvailableSpouses lists unmarried members without a spouse, optionally of
// one gender.
func (r *MemberRepo) AvailableSpouses(ctx context.Context, churchID uint64, f model.GenderFilter) ([]model.PersonOption, error) {
	q := `SELECT id, name FROM members
          WHERE church_id = ? AND spouse_id IS NULL AND (marital_status IS NULL OR marital_status <> 'MARRIED')`
	args := []any{churchID}
	if f.Gender != "" {
		q += " AND gender = ?"
		args = append(args, f.Gender)
	}
	q += " ORDER BY name, id"
	return r.options(ctx, q, args...)
}

func (r *MemberRepo) options(ctx context.Context, q string, args ...any) ([]model.PersonOption, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.PersonOption{}
	for rows.Next() {
		var p model.PersonOption
		if err := rows.Scan(&p.ID, &p.Name); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
