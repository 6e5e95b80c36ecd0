package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
	PaymentPending   PaymentStatus = "pending"
)

const ProviderPayPal = "paypal"

// Payment is written once, after a successful capture, and never updated.
type Payment struct {
	ID                    string        `db:"id" json:"id"`
	Amount                int64         `db:"amount" json:"amount"`
	Currency              string        `db:"currency" json:"currency"`
	Status                PaymentStatus `db:"status" json:"status"`
	Provider              string        `db:"provider" json:"provider"`
	ProviderTransactionID string        `db:"provider_transaction_id" json:"provider_transaction_id"`
	UserID                string        `db:"user_id" json:"user_id"`
	CreatedAt             time.Time     `db:"created_at" json:"created_at"`
}

// Purchase grants userID ownership of assetID. At most one exists per pair.
type Purchase struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"user_id"`
	AssetID   string    `db:"asset_id" json:"asset_id"`
	PaymentID string    `db:"payment_id" json:"payment_id"`
	Price     int64     `db:"price" json:"price"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// OwnedAsset is a purchase joined with the asset it unlocked.
type OwnedAsset struct {
	Purchase
	Title        string  `db:"title" json:"title"`
	FileURL      string  `db:"file_url" json:"file_url"`
	ThumbnailURL *string `db:"thumbnail_url" json:"-"`
	Currency     string  `db:"currency" json:"currency"`
}

func (o OwnedAsset) DisplayThumbnail() string {
	if o.ThumbnailURL != nil && *o.ThumbnailURL != "" {
		return *o.ThumbnailURL
	}
	return o.FileURL
}

// Entry is one capture to be written as a Payment/Purchase pair.
type Entry struct {
	AssetID               string
	ProviderTransactionID string
	UserID                string
	Amount                int64
	Currency              string
}

type RecordResult struct {
	Success       bool   `json:"success"`
	AlreadyExists bool   `json:"alreadyExists,omitempty"`
	PurchaseID    string `json:"purchaseId,omitempty"`
}

type Stats struct {
	Purchases int   `db:"purchases" json:"purchases"`
	Revenue   int64 `db:"revenue" json:"revenue"`
}

var hundred = decimal.NewFromInt(100)

// MinorUnits converts a major-unit price to integer cents, rounding half away
// from zero.
func MinorUnits(price decimal.Decimal) int64 {
	return price.Mul(hundred).Round(0).IntPart()
}
