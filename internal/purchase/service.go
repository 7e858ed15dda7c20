package purchase

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"github.com/filesure/referral-rewards-api/internal/config"
	"github.com/filesure/referral-rewards-api/internal/logging"
	"github.com/filesure/referral-rewards-api/internal/referral"
	"github.com/filesure/referral-rewards-api/internal/user"
)

// Notifier sends the post-purchase emails. Delivery is best-effort: the
// service dispatches in goroutines and never lets a failure reach the caller.
type Notifier interface {
	SendFirstPurchaseEmail(ctx context.Context, toEmail, userID string, creditsEarned, balance int) error
	SendReferralConversionEmail(ctx context.Context, toEmail, referrerID, buyerEmail string, creditsEarned int) error
}

// Service runs the purchase and credit-award workflow
type Service struct {
	db        *bun.DB
	users     *user.Repository
	referrals *referral.Repository
	purchases *Repository
	notifier  Notifier
	logger    *logging.Logger
	rewards   config.RewardsConfig
}

func NewService(
	db *bun.DB,
	users *user.Repository,
	referrals *referral.Repository,
	purchases *Repository,
	notifier Notifier,
	logger *logging.Logger,
	rewards config.RewardsConfig,
) *Service {
	return &Service{
		db:        db,
		users:     users,
		referrals: referrals,
		purchases: purchases,
		notifier:  notifier,
		logger:    logger,
		rewards:   rewards,
	}
}

// MakePurchase records a purchase for the user and, when it is the user's
// first, awards the one-time credits to buyer and referrer and converts the
// referral record. Every read and write runs inside one transaction; the
// buyer row is locked up front so two concurrent purchases by the same user
// cannot both observe has_purchased=false.
//
// productName and amount are optional; defaults come from configuration.
func (s *Service) MakePurchase(ctx context.Context, userID, productName string, amount float64) (*Purchase, error) {
	if productName == "" {
		productName = s.rewards.DefaultProductName
	}
	if amount <= 0 {
		amount = s.rewards.DefaultAmount
	}

	var (
		created  *Purchase
		buyer    *user.User
		referrer *user.User
	)

	err := s.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		users := s.users.WithTx(tx)

		var err error
		buyer, err = users.GetByIDForUpdate(ctx, userID)
		if err != nil {
			return err
		}

		// Observed once, under the row lock. The snapshot is immutable on
		// the purchase record from here on.
		isFirstPurchase := !buyer.HasPurchased

		created, err = s.purchases.WithTx(tx).Create(ctx, buyer.ID, productName, amount, isFirstPurchase)
		if err != nil {
			return err
		}

		if !isFirstPurchase {
			return nil
		}

		if err := users.MarkFirstPurchase(ctx, buyer.ID, s.rewards.CreditAward); err != nil {
			return err
		}

		if buyer.ReferredBy == nil {
			return nil
		}

		referrer, err = users.GetByReferralCode(ctx, *buyer.ReferredBy)
		if err != nil {
			if errors.Is(err, user.ErrNotFound) {
				// Orphaned referral code: buyer keeps their credit, nobody
				// else is touched.
				s.logger.Warn("referrer not found for referral code, skipping referrer credit",
					"user_id", buyer.ID, "referral_code", *buyer.ReferredBy)
				referrer = nil
				return nil
			}
			return err
		}

		if err := users.AddCredits(ctx, referrer.ID, s.rewards.CreditAward); err != nil {
			return err
		}

		if err := s.referrals.WithTx(tx).Convert(ctx, referrer.ID, buyer.ID, time.Now()); err != nil {
			if errors.Is(err, referral.ErrNotFound) {
				s.logger.Warn("referral record missing at conversion",
					"referrer_id", referrer.ID, "referred_id", buyer.ID)
				return nil
			}
			return err
		}

		return nil
	})
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, user.ErrNotFound
		}
		return nil, fmt.Errorf("purchase transaction failed: %w", err)
	}

	// Post-commit, best-effort. A conversion happened only when a referrer
	// was credited in the transaction above.
	if created.IsFirstPurchase && referrer != nil {
		s.sendConversionEmails(buyer, referrer)
	}

	return created, nil
}

// GetUserPurchases returns the user's purchase history, most recent first
func (s *Service) GetUserPurchases(ctx context.Context, userID string) ([]Purchase, error) {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return nil, err
	}

	return s.purchases.ListByUser(ctx, userID)
}

func (s *Service) sendConversionEmails(buyer *user.User, referrer *user.User) {
	award := s.rewards.CreditAward

	go func() {
		// Fresh context: the request that triggered this is already answered
		emailCtx := context.Background()
		if err := s.notifier.SendFirstPurchaseEmail(emailCtx, buyer.Email, buyer.ID, award, buyer.Credits+award); err != nil {
			s.logger.Warn("failed to send first purchase email", "email", buyer.Email, "error", err)
		}
	}()

	go func() {
		emailCtx := context.Background()
		if err := s.notifier.SendReferralConversionEmail(emailCtx, referrer.Email, referrer.ID, buyer.Email, award); err != nil {
			s.logger.Warn("failed to send referral conversion email", "email", referrer.Email, "error", err)
		}
	}()
}
