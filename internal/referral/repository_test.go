package referral

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"

	"github.com/filesure/referral-rewards-api/internal/database"
)

func newMockDB(t *testing.T) (*bun.DB, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	return database.NewBunDB(sqlDB), mock
}

var referralColumns = []string{
	"id", "referrer_id", "referred_id", "status", "credit_awarded", "converted_at", "created_at",
}

func TestRepositoryCreate(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRepository(db)

	mock.ExpectQuery(`INSERT INTO "referrals"`).
		WillReturnRows(sqlmock.NewRows(referralColumns).AddRow(
			"0b4c1a7e-2f3d-4e5f-8a9b-0c1d2e3f4a5b", "U-000001", "U-000002",
			StatusPending, false, nil, time.Now(),
		))

	ref, err := repo.Create(context.Background(), "U-000001", "U-000002")
	require.NoError(t, err)
	assert.Equal(t, StatusPending, ref.Status)
	assert.Equal(t, "U-000001", ref.ReferrerID)
	assert.Equal(t, "U-000002", ref.ReferredID)
	assert.False(t, ref.CreditAwarded)
}

func TestRepositoryCreateDuplicatePair(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRepository(db)

	mock.ExpectQuery(`INSERT INTO "referrals"`).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "referrals_referrer_referred_idx"})

	_, err := repo.Create(context.Background(), "U-000001", "U-000002")
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestRepositoryConvert(t *testing.T) {
	t.Run("flips the pending record", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewRepository(db)

		mock.ExpectExec(`UPDATE "referrals"`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.Convert(context.Background(), "U-000001", "U-000002", time.Now())
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("no record for the pair", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewRepository(db)

		mock.ExpectExec(`UPDATE "referrals"`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.Convert(context.Background(), "U-000001", "U-000009", time.Now())
		assert.ErrorIs(t, err, ErrNotFound)
	})
}
