package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/church-manager/internal/model"
)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	return db, mock
}

func TestChurchRepo_SetActive(t *testing.T) {
	t.Run("member switches", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectBegin()
		mock.ExpectQuery(regexp.QuoteMeta("FROM church_memberships m JOIN churches c")).
			WithArgs(uint64(1), uint64(9)).
			WillReturnRows(sqlmock.NewRows([]string{"user_id", "church_id", "name", "role"}).AddRow(1, 9, "Filial Norte", model.RolePastor))
		mock.ExpectQuery(regexp.QuoteMeta("SELECT church_id FROM active_churches WHERE user_id = ? FOR UPDATE")).
			WithArgs(uint64(1)).
			WillReturnRows(sqlmock.NewRows([]string{"church_id"}).AddRow(7))
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO active_churches")).
			WithArgs(uint64(1), uint64(9)).
			WillReturnResult(sqlmock.NewResult(0, 2))
		mock.ExpectCommit()

		active, prev, err := NewChurchRepo(db).SetActive(context.Background(), 1, 9)
		require.NoError(t, err)
		require.EqualValues(t, 7, prev)
		require.EqualValues(t, 9, active.ChurchID)
		require.Equal(t, model.RolePastor, active.Role)
		require.True(t, active.Can("members:write"))
		require.False(t, active.Can("branches:write"))
	})

	t.Run("non member", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectBegin()
		mock.ExpectQuery(regexp.QuoteMeta("FROM church_memberships m JOIN churches c")).
			WithArgs(uint64(1), uint64(3)).
			WillReturnError(sql.ErrNoRows)
		mock.ExpectRollback()

		_, _, err := NewChurchRepo(db).SetActive(context.Background(), 1, 3)
		require.ErrorIs(t, err, ErrNotMember)
	})
}

func TestChurchRepo_Active(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("FROM active_churches a")).
		WithArgs(uint64(5)).
		WillReturnError(sql.ErrNoRows)

	_, err := NewChurchRepo(db).Active(context.Background(), 5)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMemberRepo_ListIsChurchScoped(t *testing.T) {
	db, mock := newMock(t)
	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM members WHERE church_id = ? AND (name LIKE ? OR email LIKE ?) AND is_leader = 1")).
		WithArgs(uint64(7), "%ana%", "%ana%").
		WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(21))
	mock.ExpectQuery(regexp.QuoteMeta("FROM members WHERE church_id = ? AND (name LIKE ? OR email LIKE ?) AND is_leader = 1 ORDER BY name, id LIMIT ? OFFSET ?")).
		WithArgs(uint64(7), "%ana%", "%ana%", 20, 20).
		WillReturnRows(sqlmock.NewRows([]string{"id", "church_id", "name", "email", "phone", "gender", "marital_status", "spouse_id", "status", "is_leader", "birth_date", "created_at", "updated_at"}).
			AddRow(3, 7, "Ana", nil, "555", "F", "MARRIED", 4, model.MemberActive, true, nil, now, now))

	page, err := NewMemberRepo(db).List(context.Background(), 7, model.MemberFilter{Query: " ana ", LeadersOnly: true, Page: 2})
	require.NoError(t, err)
	require.Equal(t, 21, page.Total)
	require.Equal(t, 2, page.Page)
	require.Len(t, page.Items, 1)
	require.Equal(t, "555", page.Items[0].Phone)
	require.Empty(t, page.Items[0].Email)
	require.EqualValues(t, 4, *page.Items[0].SpouseID)
	require.Nil(t, page.Items[0].BirthDate)
}

func TestMemberRepo_CreateRejectsForeignSpouse(t *testing.T) {
	db, mock := newMock(t)
	spouse := uint64(99)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM members WHERE church_id = ? AND id = ?")).
		WithArgs(uint64(7), spouse).
		WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(0))

	_, err := NewMemberRepo(db).Create(context.Background(), 7, model.MemberInput{Name: "Rui", SpouseID: &spouse})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMemberRepo_DeleteOtherChurch(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE members SET spouse_id = NULL WHERE church_id = ? AND spouse_id = ?")).
		WithArgs(uint64(7), uint64(5)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM members WHERE church_id = ? AND id = ?")).
		WithArgs(uint64(7), uint64(5)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := NewMemberRepo(db).Delete(context.Background(), 7, 5)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMinistryRepo_DeleteReferenced(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM ministries WHERE church_id = ? AND id = ?")).
		WithArgs(uint64(7), uint64(2)).
		WillReturnError(errors.New("Error 1451 (23000): Cannot delete or update a parent row"))

	err := NewMinistryRepo(db).Delete(context.Background(), 7, 2)
	require.ErrorIs(t, err, ErrConflict)
}

func TestUserRepo_CreateDuplicate(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users (email, password_hash) VALUES (?, ?)")).
		WithArgs("pastor@example.com", sqlmock.AnyArg()).
		WillReturnError(errors.New("Error 1062 (23000): Duplicate entry"))

	_, err := NewUserRepo(db).Create(context.Background(), " Pastor@Example.com ", "long enough", 4)
	require.ErrorIs(t, err, ErrEmailExists)
}

func TestDashboardRepo_Main(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("FROM prayer_requests WHERE church_id = ? AND status = 'PENDING'")).
		WithArgs(uint64(7), uint64(7), uint64(7), uint64(7), uint64(7), uint64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"a", "b", "c", "d", "e", "f"}).AddRow(42, 3, 5, 2, 1, 0))

	d, err := NewDashboardRepo(db).Main(context.Background(), 7)
	require.NoError(t, err)
	require.Equal(t, model.MainDashboard{Members: 42, Visitors: 3, Ministries: 5, Activities: 2, PendingPrayers: 1}, d)
}

func TestSessionTokenRepo_Rotation(t *testing.T) {
	db, mock := newMock(t)
	repo := NewSessionTokenRepo(db)
	ctx := context.Background()

	mock.ExpectQuery(regexp.QuoteMeta("revoked_at IS NULL AND expires_at > UTC_TIMESTAMP()")).
		WithArgs("h1").
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow(4))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE refresh_tokens SET revoked_at")).
		WithArgs("h1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE refresh_tokens SET revoked_at")).
		WithArgs("h1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("FROM refresh_tokens")).
		WithArgs("h1").
		WillReturnError(sql.ErrNoRows)

	uid, err := repo.ValidateRefresh(ctx, "h1")
	require.NoError(t, err)
	require.EqualValues(t, 4, uid)
	require.NoError(t, repo.RevokeByHash(ctx, "h1"))
	require.ErrorIs(t, repo.RevokeByHash(ctx, "h1"), ErrNotFound)
	_, err = repo.ValidateRefresh(ctx, "h1")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestSessionTokenRepo_PurgeExpired(t *testing.T) {
	db, mock := newMock(t)
	cutoff := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM refresh_tokens")).
		WithArgs(cutoff, cutoff).
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := NewSessionTokenRepo(db).PurgeExpired(context.Background(), cutoff)
	require.NoError(t, err)
	require.EqualValues(t, 3, n)
}
