package postgres

import (
	"context"
	"regexp"
	"testing"
	"time"

	"care-facility-meds/internal/domain/inventory"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testNow     = time.Date(2024, 3, 6, 10, 0, 0, 0, time.UTC)
	recordCols  = []string{"key", "name", "stock", "consumed", "created_at", "updated_at"}
	selectForUp = regexp.QuoteMeta("FOR UPDATE")
)

func newMock(t *testing.T) (*InventoryRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewInventoryRepo(db), mock
}

func TestInventoryRepo_ReserveCommits(t *testing.T) {
	repo, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(selectForUp).
		WithArgs("ibuprofeno").
		WillReturnRows(sqlmock.NewRows(recordCols).
			AddRow("ibuprofeno", "Ibuprofeno", "10", "0", testNow, testNow))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE inventory")).
		WithArgs("ibuprofeno", decimal.NewFromInt(7), decimal.NewFromInt(3), testNow).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	rec, err := repo.Reserve(context.Background(), "ibuprofeno", decimal.NewFromInt(3), testNow)
	require.NoError(t, err)
	assert.True(t, rec.Stock.Equal(decimal.NewFromInt(7)))
	assert.True(t, rec.Consumed.Equal(decimal.NewFromInt(3)))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInventoryRepo_ReserveInsufficientRollsBack(t *testing.T) {
	repo, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(selectForUp).
		WithArgs("ibuprofeno").
		WillReturnRows(sqlmock.NewRows(recordCols).
			AddRow("ibuprofeno", "Ibuprofeno", "2", "8", testNow, testNow))
	mock.ExpectRollback()

	_, err := repo.Reserve(context.Background(), "ibuprofeno", decimal.NewFromInt(3), testNow)
	assert.ErrorIs(t, err, inventory.ErrInsufficientStock)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInventoryRepo_ReserveMissingKey(t *testing.T) {
	repo, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(selectForUp).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(recordCols))
	mock.ExpectRollback()

	_, err := repo.Reserve(context.Background(), "missing", decimal.NewFromInt(1), testNow)
	assert.ErrorIs(t, err, inventory.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInventoryRepo_AddStockUpserts(t *testing.T) {
	repo, mock := newMock(t)

	mock.ExpectQuery(regexp.QuoteMeta("ON CONFLICT (key) DO UPDATE")).
		WithArgs("omeprazol", "Omeprazol", decimal.NewFromInt(20), testNow).
		WillReturnRows(sqlmock.NewRows(recordCols).
			AddRow("omeprazol", "Omeprazol", "25", "4", testNow.Add(-time.Hour), testNow))

	rec, err := repo.AddStock(context.Background(), "omeprazol", "Omeprazol", decimal.NewFromInt(20), testNow)
	require.NoError(t, err)
	assert.Equal(t, "omeprazol", rec.Key)
	assert.True(t, rec.Stock.Equal(decimal.NewFromInt(25)))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInventoryRepo_ReleaseCommits(t *testing.T) {
	repo, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(selectForUp).
		WithArgs("ibuprofeno").
		WillReturnRows(sqlmock.NewRows(recordCols).
			AddRow("ibuprofeno", "Ibuprofeno", "7", "3", testNow, testNow))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE inventory")).
		WithArgs("ibuprofeno", decimal.NewFromInt(10), decimal.NewFromInt(0), testNow).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	rec, err := repo.Release(context.Background(), "ibuprofeno", decimal.NewFromInt(3), testNow)
	require.NoError(t, err)
	assert.True(t, rec.Stock.Equal(decimal.NewFromInt(10)))
	assert.True(t, rec.Consumed.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}
