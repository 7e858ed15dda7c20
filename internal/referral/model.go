package referral

import (
	"time"

	"github.com/google/uuid"
)

// Referral lifecycle. A record starts pending and converts exactly once,
// when the referred user completes their first purchase.
const (
	StatusPending   = "pending"
	StatusConverted = "converted"
)

type Referral struct {
	ID            uuid.UUID  `json:"id"`
	ReferrerID    string     `json:"referrerId"`
	ReferredID    string     `json:"referredId"`
	Status        string     `json:"status"`
	CreditAwarded bool       `json:"creditAwarded"`
	ConvertedAt   *time.Time `json:"convertedAt,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`

	// Referred is populated on ledger listings for display purposes
	Referred *ReferredUser `json:"referred,omitempty"`
}

// ReferredUser is the projection of the referred account a referrer is
// allowed to see.
type ReferredUser struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}
