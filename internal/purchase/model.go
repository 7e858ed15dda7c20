package purchase

import (
	"time"

	"github.com/google/uuid"
)

// Purchase is a recorded purchase. IsFirstPurchase is a historical fact
// snapshotted at creation time, not a live flag.
//
// JSON field names follow the public API contract.
type Purchase struct {
	ID              uuid.UUID `json:"_id"`
	UserID          string    `json:"user"`
	ProductName     string    `json:"productName"`
	Amount          float64   `json:"amount"`
	IsFirstPurchase bool      `json:"isFirstPurchase"`
	CreatedAt       time.Time `json:"createdAt"`
}
