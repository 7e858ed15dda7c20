package purchase

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/filesure/referral-rewards-api/internal/config"
	"github.com/filesure/referral-rewards-api/internal/database"
	"github.com/filesure/referral-rewards-api/internal/logging"
	"github.com/filesure/referral-rewards-api/internal/referral"
	"github.com/filesure/referral-rewards-api/internal/user"
)

// notifierStub records the post-purchase notifications so tests can wait
// for the fire-and-forget goroutines.
type notifierStub struct {
	mu          sync.Mutex
	firstEmails []string
	convEmails  []string
	done        chan struct{}
}

func newNotifierStub() *notifierStub {
	return &notifierStub{done: make(chan struct{}, 2)}
}

func (n *notifierStub) SendFirstPurchaseEmail(_ context.Context, toEmail, _ string, _, _ int) error {
	n.mu.Lock()
	n.firstEmails = append(n.firstEmails, toEmail)
	n.mu.Unlock()
	n.done <- struct{}{}
	return nil
}

func (n *notifierStub) SendReferralConversionEmail(_ context.Context, toEmail, _, _ string, _ int) error {
	n.mu.Lock()
	n.convEmails = append(n.convEmails, toEmail)
	n.mu.Unlock()
	n.done <- struct{}{}
	return nil
}

func (n *notifierStub) waitForSends(t *testing.T, count int) {
	t.Helper()
	for i := 0; i < count; i++ {
		select {
		case <-n.done:
		case <-time.After(2 * time.Second):
			t.Fatalf("expected %d notifications, got %d", count, i)
		}
	}
}

func newTestService(t *testing.T) (*Service, sqlmock.Sqlmock, *notifierStub) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db := database.NewBunDB(sqlDB)
	notifier := newNotifierStub()

	svc := NewService(
		db,
		user.NewRepository(db),
		referral.NewRepository(db),
		NewRepository(db),
		notifier,
		logging.NewLogger(true),
		config.RewardsConfig{
			CreditAward:        2,
			DefaultProductName: "Digital Product",
			DefaultAmount:      10,
		},
	)

	return svc, mock, notifier
}

var userColumns = []string{
	"id", "name", "email", "password_hash", "role", "status", "is_deleted",
	"referral_code", "referred_by", "credits", "has_purchased",
	"password_changed_at", "created_at", "updated_at",
}

func buyerRow(id, email string, hasPurchased bool, referredBy *string) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(userColumns).AddRow(
		id, "Buyer", email, "hash", user.RoleUser, user.StatusActive, false,
		"BUYR123", referredBy, 0, hasPurchased, nil, now, now,
	)
}

func referrerRow(id, email, code string) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(userColumns).AddRow(
		id, "Referrer", email, "hash", user.RoleUser, user.StatusActive, false,
		code, nil, 4, true, nil, now, now,
	)
}

func purchaseRow(userID, productName string, amount float64, isFirst bool) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "user_id", "product_name", "amount", "is_first_purchase", "created_at",
	}).AddRow(
		"0b4c1a7e-2f3d-4e5f-8a9b-0c1d2e3f4a5b", userID, productName, amount, isFirst, time.Now(),
	)
}

func TestMakePurchaseFirstWithReferrer(t *testing.T) {
	svc, mock, notifier := newTestService(t)
	code := "LIND123"

	mock.ExpectBegin()
	// Buyer row, locked for the duration of the transaction
	mock.ExpectQuery(`SELECT (.+) FROM "users" AS "u"`).
		WillReturnRows(buyerRow("U-000002", "marc@example.com", false, &code))
	mock.ExpectQuery(`INSERT INTO "purchases"`).
		WillReturnRows(purchaseRow("U-000002", "Digital Product", 10, true))
	// Buyer: has_purchased flips, credits awarded
	mock.ExpectExec(`UPDATE "users"`).WillReturnResult(sqlmock.NewResult(0, 1))
	// Referrer resolved from the stored code
	mock.ExpectQuery(`SELECT (.+) FROM "users" AS "u"`).
		WillReturnRows(referrerRow("U-000001", "linda@example.com", code))
	// Referrer: credits awarded
	mock.ExpectExec(`UPDATE "users"`).WillReturnResult(sqlmock.NewResult(0, 1))
	// Referral record converts
	mock.ExpectExec(`UPDATE "referrals"`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	created, err := svc.MakePurchase(context.Background(), "U-000002", "", 0)
	require.NoError(t, err)

	assert.True(t, created.IsFirstPurchase)
	assert.Equal(t, "Digital Product", created.ProductName)
	assert.Equal(t, 10.0, created.Amount)
	assert.Equal(t, "U-000002", created.UserID)

	notifier.waitForSends(t, 2)
	assert.Equal(t, []string{"marc@example.com"}, notifier.firstEmails)
	assert.Equal(t, []string{"linda@example.com"}, notifier.convEmails)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMakePurchaseRepeat(t *testing.T) {
	svc, mock, notifier := newTestService(t)
	code := "LIND123"

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM "users" AS "u"`).
		WillReturnRows(buyerRow("U-000002", "marc@example.com", true, &code))
	mock.ExpectQuery(`INSERT INTO "purchases"`).
		WillReturnRows(purchaseRow("U-000002", "Second Item", 25, false))
	mock.ExpectCommit()

	created, err := svc.MakePurchase(context.Background(), "U-000002", "Second Item", 25)
	require.NoError(t, err)

	// No credit, no conversion, no emails on a repeat purchase
	assert.False(t, created.IsFirstPurchase)
	assert.Empty(t, notifier.firstEmails)
	assert.Empty(t, notifier.convEmails)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMakePurchaseFirstWithoutReferrer(t *testing.T) {
	svc, mock, notifier := newTestService(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM "users" AS "u"`).
		WillReturnRows(buyerRow("U-000003", "solo@example.com", false, nil))
	mock.ExpectQuery(`INSERT INTO "purchases"`).
		WillReturnRows(purchaseRow("U-000003", "Digital Product", 10, true))
	// Buyer still earns the first-purchase credit without a referrer
	mock.ExpectExec(`UPDATE "users"`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	created, err := svc.MakePurchase(context.Background(), "U-000003", "", 0)
	require.NoError(t, err)

	assert.True(t, created.IsFirstPurchase)
	assert.Empty(t, notifier.convEmails)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMakePurchaseUnknownUser(t *testing.T) {
	svc, mock, _ := newTestService(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM "users" AS "u"`).
		WillReturnRows(sqlmock.NewRows(userColumns))
	mock.ExpectRollback()

	_, err := svc.MakePurchase(context.Background(), "U-999999", "", 0)
	assert.ErrorIs(t, err, user.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMakePurchaseOrphanedReferralCode(t *testing.T) {
	svc, mock, notifier := newTestService(t)
	code := "GONE999"

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM "users" AS "u"`).
		WillReturnRows(buyerRow("U-000002", "marc@example.com", false, &code))
	mock.ExpectQuery(`INSERT INTO "purchases"`).
		WillReturnRows(purchaseRow("U-000002", "Digital Product", 10, true))
	mock.ExpectExec(`UPDATE "users"`).WillReturnResult(sqlmock.NewResult(0, 1))
	// Nobody owns the stored code: the buyer keeps their credit, nothing
	// else is touched, and the purchase still commits.
	mock.ExpectQuery(`SELECT (.+) FROM "users" AS "u"`).
		WillReturnRows(sqlmock.NewRows(userColumns))
	mock.ExpectCommit()

	created, err := svc.MakePurchase(context.Background(), "U-000002", "", 0)
	require.NoError(t, err)

	assert.True(t, created.IsFirstPurchase)
	assert.Empty(t, notifier.firstEmails)
	assert.Empty(t, notifier.convEmails)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMakePurchaseRollsBackOnReferrerFailure(t *testing.T) {
	svc, mock, notifier := newTestService(t)
	code := "LIND123"

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM "users" AS "u"`).
		WillReturnRows(buyerRow("U-000002", "marc@example.com", false, &code))
	mock.ExpectQuery(`INSERT INTO "purchases"`).
		WillReturnRows(purchaseRow("U-000002", "Digital Product", 10, true))
	mock.ExpectExec(`UPDATE "users"`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT (.+) FROM "users" AS "u"`).
		WillReturnRows(referrerRow("U-000001", "linda@example.com", code))
	// Crediting the referrer fails: the whole transaction must unwind,
	// including the already-written purchase and buyer credit.
	mock.ExpectExec(`UPDATE "users"`).WillReturnError(context.DeadlineExceeded)
	mock.ExpectRollback()

	_, err := svc.MakePurchase(context.Background(), "U-000002", "", 0)
	require.Error(t, err)

	assert.Empty(t, notifier.firstEmails)
	assert.Empty(t, notifier.convEmails)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetUserPurchases(t *testing.T) {
	t.Run("returns history for an existing user", func(t *testing.T) {
		svc, mock, _ := newTestService(t)

		mock.ExpectQuery(`SELECT (.+) FROM "users" AS "u"`).
			WillReturnRows(buyerRow("U-000002", "marc@example.com", true, nil))
		mock.ExpectQuery(`SELECT (.+) FROM "purchases" AS "p"`).
			WillReturnRows(purchaseRow("U-000002", "Digital Product", 10, true))

		purchases, err := svc.GetUserPurchases(context.Background(), "U-000002")
		require.NoError(t, err)
		require.Len(t, purchases, 1)
		assert.Equal(t, "Digital Product", purchases[0].ProductName)
	})

	t.Run("unknown user", func(t *testing.T) {
		svc, mock, _ := newTestService(t)

		mock.ExpectQuery(`SELECT (.+) FROM "users" AS "u"`).
			WillReturnRows(sqlmock.NewRows(userColumns))

		_, err := svc.GetUserPurchases(context.Background(), "U-999999")
		assert.ErrorIs(t, err, user.ErrNotFound)
	})
}
