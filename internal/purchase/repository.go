package purchase

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"

	"github.com/filesure/referral-rewards-api/internal/database"
)

// Repository handles purchase persistence
type Repository struct {
	db bun.IDB
}

func NewRepository(db bun.IDB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the given transaction
func (r *Repository) WithTx(tx bun.Tx) *Repository {
	return &Repository{db: tx}
}

// Create inserts a purchase record with its first-purchase snapshot
func (r *Repository) Create(ctx context.Context, userID, productName string, amount float64, isFirstPurchase bool) (*Purchase, error) {
	dbPurchase := &database.Purchase{
		UserID:          userID,
		ProductName:     productName,
		Amount:          amount,
		IsFirstPurchase: isFirstPurchase,
	}

	_, err := r.db.NewInsert().
		Model(dbPurchase).
		Returning("*").
		Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create purchase: %w", err)
	}

	return mapDBPurchaseToModel(dbPurchase), nil
}

// ListByUser returns a user's purchases, most recent first
func (r *Repository) ListByUser(ctx context.Context, userID string) ([]Purchase, error) {
	var dbPurchases []database.Purchase
	err := r.db.NewSelect().
		Model(&dbPurchases).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list purchases: %w", err)
	}

	purchases := make([]Purchase, 0, len(dbPurchases))
	for i := range dbPurchases {
		purchases = append(purchases, *mapDBPurchaseToModel(&dbPurchases[i]))
	}

	return purchases, nil
}

func mapDBPurchaseToModel(dbp *database.Purchase) *Purchase {
	return &Purchase{
		ID:              dbp.ID,
		UserID:          dbp.UserID,
		ProductName:     dbp.ProductName,
		Amount:          dbp.Amount,
		IsFirstPurchase: dbp.IsFirstPurchase,
		CreatedAt:       dbp.CreatedAt,
	}
}
