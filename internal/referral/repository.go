package referral

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/uptrace/bun"

	"github.com/filesure/referral-rewards-api/internal/database"
)

var (
	ErrNotFound  = errors.New("referral not found")
	ErrDuplicate = errors.New("referral already recorded for this pair")
)

// Repository handles referral ledger persistence
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

// Create records a pending referral linking referrer and referred.
// At most one record may exist per pair; the unique index enforces it.
func (r *Repository) Create(ctx context.Context, referrerID, referredID string) (*Referral, error) {
	dbRef := &database.Referral{
		ReferrerID:    referrerID,
		ReferredID:    referredID,
		Status:        StatusPending,
		CreditAwarded: false,
	}

	_, err := r.db.NewInsert().
		Model(dbRef).
		Returning("*").
		Exec(ctx)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return nil, ErrDuplicate
		}
		return nil, fmt.Errorf("failed to create referral: %w", err)
	}

	return mapDBReferralToModel(dbRef), nil
}

// Convert flips the (referrer, referred) record to converted and marks the
// credit as awarded. Returns ErrNotFound when no such record exists, which
// the purchase workflow treats as an orphaned referral and skips.
func (r *Repository) Convert(ctx context.Context, referrerID, referredID string, convertedAt time.Time) error {
	result, err := r.db.NewUpdate().
		Model((*database.Referral)(nil)).
		Set("status = ?", StatusConverted).
		Set("credit_awarded = ?", true).
		Set("converted_at = ?", convertedAt).
		Where("referrer_id = ?", referrerID).
		Where("referred_id = ?", referredID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to convert referral: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// ListByReferrer returns every referral the user owns, most recent first,
// with the referred user's display projection attached.
func (r *Repository) ListByReferrer(ctx context.Context, referrerID string) ([]Referral, error) {
	var dbRefs []database.Referral
	err := r.db.NewSelect().
		Model(&dbRefs).
		Relation("Referred").
		Where("r.referrer_id = ?", referrerID).
		Order("r.created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list referrals: %w", err)
	}

	referrals := make([]Referral, 0, len(dbRefs))
	for i := range dbRefs {
		referrals = append(referrals, *mapDBReferralToModel(&dbRefs[i]))
	}

	return referrals, nil
}

func mapDBReferralToModel(dbr *database.Referral) *Referral {
	ref := &Referral{
		ID:            dbr.ID,
		ReferrerID:    dbr.ReferrerID,
		ReferredID:    dbr.ReferredID,
		Status:        dbr.Status,
		CreditAwarded: dbr.CreditAwarded,
		ConvertedAt:   dbr.ConvertedAt,
		CreatedAt:     dbr.CreatedAt,
	}

	if dbr.Referred != nil {
		ref.Referred = &ReferredUser{
			ID:    dbr.Referred.ID,
			Name:  dbr.Referred.Name,
			Email: dbr.Referred.Email,
		}
	}

	return ref
}
