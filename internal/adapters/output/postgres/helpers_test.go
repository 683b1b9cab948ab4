package postgres

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"gorod-sporta/internal/core/domain/entities"
	"gorod-sporta/internal/core/domain/exceptions"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// errRow is a row whose scan always fails with err.
type errRow struct{ err error }

func (r errRow) Scan(...any) error { return r.err }

// stubQuerier answers every QueryRow with the same row and records the SQL.
type stubQuerier struct {
	row   pgx.Row
	tag   pgconn.CommandTag
	query string
	args  []any
}

func (q *stubQuerier) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	q.query, q.args = sql, args
	return q.tag, nil
}

func (q *stubQuerier) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, errors.New("not supported")
}

func (q *stubQuerier) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	q.query, q.args = sql, args
	return q.row
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, isUniqueViolation(fmt.Errorf("wrapped: %w", &pgconn.PgError{Code: "23505"})))
	assert.False(t, isUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.False(t, isUniqueViolation(errors.New("plain")))
}

func TestNullIfEmpty(t *testing.T) {
	assert.Nil(t, nullIfEmpty(""))
	require.NotNil(t, nullIfEmpty("79000000000"))
	assert.Equal(t, "79000000000", *nullIfEmpty("79000000000"))
}

func TestJSONParam(t *testing.T) {
	assert.Nil(t, jsonParam(nil))
	assert.Equal(t, `{"a":1}`, jsonParam([]byte(`{"a":1}`)))
}

func TestPlatformColumn(t *testing.T) {
	col, err := platformColumn(entities.PlatformTelegram)
	require.NoError(t, err)
	assert.Equal(t, "telegram_id", col)

	col, err = platformColumn(entities.PlatformVK)
	require.NoError(t, err)
	assert.Equal(t, "vk_id", col)

	_, err = platformColumn("max")
	assert.ErrorIs(t, err, exceptions.ErrInvalidPlatformRef)
}

func TestUserNotFound(t *testing.T) {
	q := &stubQuerier{row: errRow{pgx.ErrNoRows}}
	repo := NewUserRepository(q, zap.NewNop())

	_, err := repo.GetByPlatform(context.Background(), entities.PlatformRef{Platform: entities.PlatformVK, ID: 5})
	assert.ErrorIs(t, err, exceptions.ErrUserNotFound)
	assert.Contains(t, q.query, "vk_id")
}

func TestUpsertPhoneConflict(t *testing.T) {
	q := &stubQuerier{row: errRow{&pgconn.PgError{Code: "23505"}}}
	repo := NewUserRepository(q, zap.NewNop())

	_, err := repo.UpsertByPlatform(context.Background(),
		entities.PlatformRef{Platform: entities.PlatformTelegram, ID: 1},
		entities.Profile{Phone: "79000000000"},
	)
	assert.ErrorIs(t, err, exceptions.ErrPhoneTaken)
}

func TestDebitWithoutFunds(t *testing.T) {
	q := &stubQuerier{row: errRow{pgx.ErrNoRows}}
	repo := NewUserRepository(q, zap.NewNop())

	_, err := repo.Debit(context.Background(), 1, 500)
	assert.ErrorIs(t, err, exceptions.ErrInsufficientBalance)
	assert.Contains(t, q.query, "coins >= $2")
}

func TestLedgerCompleteTwice(t *testing.T) {
	q := &stubQuerier{row: errRow{pgx.ErrNoRows}}
	repo := NewLedgerRepository(q, zap.NewNop())

	now := time.Now()
	err := repo.Complete(context.Background(), &entities.Completion{
		UserID: 1, TaskID: 2, Status: entities.CompletionStatusCompleted, CompletedAt: &now,
	})
	assert.ErrorIs(t, err, exceptions.ErrAlreadyCompleted)
}

func TestLedgerCompleteInfraError(t *testing.T) {
	q := &stubQuerier{row: errRow{errors.New("conn reset")}}
	repo := NewLedgerRepository(q, zap.NewNop())

	err := repo.Complete(context.Background(), &entities.Completion{UserID: 1, TaskID: 2})
	assert.ErrorContains(t, err, "conn reset")
	assert.False(t, errors.Is(err, exceptions.ErrAlreadyCompleted))
}

func TestUpdateItemMissing(t *testing.T) {
	q := &stubQuerier{tag: pgconn.NewCommandTag("UPDATE 0")}
	repo := NewShopRepository(q, zap.NewNop())

	err := repo.UpdateItem(context.Background(), &entities.ShopItem{ID: 9, Title: "Кофе"})
	assert.ErrorIs(t, err, exceptions.ErrItemNotFound)
}

// boolRow scans a single boolean column.
type boolRow struct{ value bool }

func (r boolRow) Scan(dest ...any) error {
	*dest[0].(*bool) = r.value
	return nil
}

func TestHasActivityCoversOwnedRows(t *testing.T) {
	q := &stubQuerier{row: boolRow{value: true}}
	repo := NewUserRepository(q, zap.NewNop())

	active, err := repo.HasActivity(context.Background(), 7)
	require.NoError(t, err)
	assert.True(t, active)
	assert.Equal(t, []any{int64(7)}, q.args)
	for _, table := range []string{"user_tasks", "reviews", "referrals", "purchases", "balance_adjustments", "survey_data"} {
		assert.Contains(t, q.query, table)
	}
}

func TestGetForUpdateLocksRow(t *testing.T) {
	q := &stubQuerier{row: errRow{pgx.ErrNoRows}}
	repo := NewUserRepository(q, zap.NewNop())

	_, err := repo.GetForUpdate(context.Background(), 3)
	assert.ErrorIs(t, err, exceptions.ErrUserNotFound)
	assert.Contains(t, q.query, "FOR UPDATE")
}

// seqQuerier answers QueryRow calls from rows in order.
type seqQuerier struct {
	stubQuerier
	rows  []pgx.Row
	calls int
}

func (q *seqQuerier) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	q.query, q.args = sql, args
	row := q.rows[q.calls]
	q.calls++
	return row
}

// idRow scans a single id column.
type idRow struct{ id int64 }

func (r idRow) Scan(dest ...any) error {
	*dest[0].(*int64) = r.id
	return nil
}

func TestRedeemRetriesAfterLostRace(t *testing.T) {
	q := &seqQuerier{rows: []pgx.Row{errRow{pgx.ErrNoRows}, idRow{id: 12}}}
	repo := NewStaffCodeRepository(q, zap.NewNop())

	require.NoError(t, repo.Redeem(context.Background(), "HALL7", 3))
	assert.Equal(t, 2, q.calls)
	assert.Equal(t, []any{"HALL7", 3}, q.args)
}

func TestRedeemGivesUpAfterSecondMiss(t *testing.T) {
	q := &seqQuerier{rows: []pgx.Row{errRow{pgx.ErrNoRows}, errRow{pgx.ErrNoRows}}}
	repo := NewStaffCodeRepository(q, zap.NewNop())

	err := repo.Redeem(context.Background(), "HALL7", 3)
	assert.ErrorIs(t, err, exceptions.ErrInvalidCode)
	assert.Equal(t, 2, q.calls)
}

func TestRedeemStopsOnInfraError(t *testing.T) {
	q := &seqQuerier{rows: []pgx.Row{errRow{errors.New("conn reset")}}}
	repo := NewStaffCodeRepository(q, zap.NewNop())

	err := repo.Redeem(context.Background(), "HALL7", 3)
	assert.ErrorContains(t, err, "conn reset")
	assert.Equal(t, 1, q.calls)
}
