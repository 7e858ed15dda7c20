package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// User is the database row for the identity store.
// ID is the human-readable sequential id (U-000001), not a surrogate key.
type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID                string     `bun:"id,pk"`
	Name              string     `bun:"name,notnull"`
	Email             string     `bun:"email,notnull,unique"`
	PasswordHash      string     `bun:"password_hash,notnull"`
	Role              string     `bun:"role,notnull,default:'user'"`
	Status            string     `bun:"status,notnull,default:'active'"`
	IsDeleted         bool       `bun:"is_deleted,notnull,default:false"`
	ReferralCode      string     `bun:"referral_code,notnull,unique"`
	ReferredBy        *string    `bun:"referred_by"`
	Credits           int        `bun:"credits,notnull,default:0"`
	HasPurchased      bool       `bun:"has_purchased,notnull,default:false"`
	PasswordChangedAt *time.Time `bun:"password_changed_at"`
	CreatedAt         time.Time  `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt         time.Time  `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

// Referral links a referrer to the user who registered with their code.
// The (referrer_id, referred_id) pair is unique.
type Referral struct {
	bun.BaseModel `bun:"table:referrals,alias:r"`

	ID            uuid.UUID  `bun:"id,pk,type:uuid,default:gen_random_uuid()"`
	ReferrerID    string     `bun:"referrer_id,notnull"`
	ReferredID    string     `bun:"referred_id,notnull"`
	Status        string     `bun:"status,notnull,default:'pending'"`
	CreditAwarded bool       `bun:"credit_awarded,notnull,default:false"`
	ConvertedAt   *time.Time `bun:"converted_at"`
	CreatedAt     time.Time  `bun:"created_at,nullzero,notnull,default:current_timestamp"`

	Referrer *User `bun:"rel:belongs-to,join:referrer_id=id"`
	Referred *User `bun:"rel:belongs-to,join:referred_id=id"`
}

// Purchase records a single purchase. IsFirstPurchase is a snapshot taken
// when the row is created and never updated afterwards.
type Purchase struct {
	bun.BaseModel `bun:"table:purchases,alias:p"`

	ID              uuid.UUID `bun:"id,pk,type:uuid,default:gen_random_uuid()"`
	UserID          string    `bun:"user_id,notnull"`
	ProductName     string    `bun:"product_name,notnull"`
	Amount          float64   `bun:"amount,notnull"`
	IsFirstPurchase bool      `bun:"is_first_purchase,notnull,default:false"`
	CreatedAt       time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`

	User *User `bun:"rel:belongs-to,join:user_id=id"`
}
