// Package events carries purchase side effects over RabbitMQ so the capture
// callback never waits on email delivery.
package events

import "time"

const PurchaseCompletedQueue = "purchase.completed"

// PurchaseCompleted is published once per newly recorded purchase.
type PurchaseCompleted struct {
	PurchaseID    string    `json:"purchase_id"`
	UserID        string    `json:"user_id"`
	BuyerEmail    string    `json:"buyer_email"`
	BuyerName     string    `json:"buyer_name"`
	AssetID       string    `json:"asset_id"`
	AssetTitle    string    `json:"asset_title"`
	TransactionID string    `json:"transaction_id"`
	Amount        int64     `json:"amount"`
	Currency      string    `json:"currency"`
	OccurredAt    time.Time `json:"occurred_at"`
}
