package database

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

// CreateSchema creates the tables and indexes the service needs.
// Everything is IF NOT EXISTS so it is safe to run on every startup.
func CreateSchema(ctx context.Context, db *bun.DB) error {
	models := []any{
		(*User)(nil),
		(*Referral)(nil),
		(*Purchase)(nil),
	}

	for _, model := range models {
		if _, err := db.NewCreateTable().
			Model(model).
			IfNotExists().
			WithForeignKeys().
			Exec(ctx); err != nil {
			return fmt.Errorf("failed to create table for %T: %w", model, err)
		}
	}

	// One referral record per (referrer, referred) pair
	if _, err := db.NewCreateIndex().
		Model((*Referral)(nil)).
		Index("referrals_referrer_referred_idx").
		Unique().
		IfNotExists().
		Column("referrer_id", "referred_id").
		Exec(ctx); err != nil {
		return fmt.Errorf("failed to create referral uniqueness index: %w", err)
	}

	// Purchase history is always read newest-first per user
	if _, err := db.NewCreateIndex().
		Model((*Purchase)(nil)).
		Index("purchases_user_created_idx").
		IfNotExists().
		Column("user_id", "created_at").
		Exec(ctx); err != nil {
		return fmt.Errorf("failed to create purchase index: %w", err)
	}

	return nil
}
