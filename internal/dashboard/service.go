package dashboard

import (
	"context"
	"time"

	"github.com/filesure/referral-rewards-api/internal/config"
	"github.com/filesure/referral-rewards-api/internal/referral"
	"github.com/filesure/referral-rewards-api/internal/user"
)

// Stats is the referral rollup shown on a user's dashboard.
// TotalCreditsEarned is a derived display value (conversions × award); the
// authoritative balance lives on the user record and can differ when the
// user also earned a buyer-side credit.
type Stats struct {
	TotalReferredUsers int             `json:"totalReferredUsers"`
	ConvertedUsers     int             `json:"convertedUsers"`
	TotalCreditsEarned int             `json:"totalCreditsEarned"`
	ReferralLink       string          `json:"referralLink"`
	ReferralCode       string          `json:"referralCode"`
	Referrals          []ReferralEntry `json:"referrals"`
}

// ReferralEntry is one row of the dashboard's referral list
type ReferralEntry struct {
	UserName    string     `json:"userName"`
	Name        string     `json:"name"`
	Email       string     `json:"email"`
	Status      string     `json:"status"`
	JoinedAt    time.Time  `json:"joinedAt"`
	ConvertedAt *time.Time `json:"convertedAt,omitempty"`
}

// Service aggregates referral statistics. Read-only: it never mutates
// either store.
type Service struct {
	users     *user.Repository
	referrals *referral.Repository
	rewards   config.RewardsConfig
	emailCfg  config.EmailConfig
}

func NewService(users *user.Repository, referrals *referral.Repository, rewards config.RewardsConfig, emailCfg config.EmailConfig) *Service {
	return &Service{
		users:     users,
		referrals: referrals,
		rewards:   rewards,
		emailCfg:  emailCfg,
	}
}

// GetStats returns the user's referral summary, entries newest first
func (s *Service) GetStats(ctx context.Context, userID string) (*Stats, error) {
	owner, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	referrals, err := s.referrals.ListByReferrer(ctx, owner.ID)
	if err != nil {
		return nil, err
	}

	converted := 0
	entries := make([]ReferralEntry, 0, len(referrals))
	for _, ref := range referrals {
		if ref.Status == referral.StatusConverted {
			converted++
		}

		entry := ReferralEntry{
			Status:      ref.Status,
			JoinedAt:    ref.CreatedAt,
			ConvertedAt: ref.ConvertedAt,
		}
		if ref.Referred != nil {
			entry.UserName = ref.Referred.ID
			entry.Name = ref.Referred.Name
			entry.Email = ref.Referred.Email
		}
		entries = append(entries, entry)
	}

	return &Stats{
		TotalReferredUsers: len(referrals),
		ConvertedUsers:     converted,
		TotalCreditsEarned: converted * s.rewards.CreditAward,
		ReferralLink:       s.emailCfg.ReferralLink(owner.ReferralCode),
		ReferralCode:       owner.ReferralCode,
		Referrals:          entries,
	}, nil
}
