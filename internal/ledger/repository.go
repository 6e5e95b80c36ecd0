package ledger

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/nishant946/masset/internal/apperr"
	"github.com/nishant946/masset/internal/db"
)

// ErrAlreadyPurchased is returned by Record when the (user, asset) pair is
// already owned. Nothing is written in that case.
var ErrAlreadyPurchased = errors.New("asset already purchased")

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

// Record writes the Payment and Purchase in one transaction. The EXISTS check
// short-circuits the common replay; the unique constraint on
// purchases(user_id, asset_id) catches the concurrent one.
func (r *repository) Record(ctx context.Context, e Entry) (string, error) {
	var purchaseID string

	err := db.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		exists, err := db.Exists(ctx, tx,
			`SELECT EXISTS(SELECT 1 FROM purchases WHERE user_id = $1 AND asset_id = $2)`,
			e.UserID, e.AssetID)
		if err != nil {
			return err
		}
		if exists {
			return ErrAlreadyPurchased
		}

		var paymentID string
		err = tx.GetContext(ctx, &paymentID, `
			INSERT INTO payments (id, amount, currency, status, provider, provider_transaction_id, user_id)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING id`,
			uuid.NewString(), e.Amount, e.Currency, PaymentCompleted, ProviderPayPal, e.ProviderTransactionID, e.UserID)
		if err != nil {
			return err
		}

		err = tx.GetContext(ctx, &purchaseID, `
			INSERT INTO purchases (id, user_id, asset_id, payment_id, price)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (user_id, asset_id) DO NOTHING
			RETURNING id`,
			uuid.NewString(), e.UserID, e.AssetID, paymentID, e.Amount)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrAlreadyPurchased
		}
		return err
	})
	if err != nil {
		if apperr.IsUniqueViolation(err) {
			return "", ErrAlreadyPurchased
		}
		return "", err
	}

	return purchaseID, nil
}

func (r *repository) HasPurchased(ctx context.Context, userID, assetID string) (bool, error) {
	return db.Exists(ctx, r.db,
		`SELECT EXISTS(SELECT 1 FROM purchases WHERE user_id = $1 AND asset_id = $2)`,
		userID, assetID)
}

func (r *repository) ListForUser(ctx context.Context, userID string) ([]OwnedAsset, error) {
	query := `
		SELECT p.id, p.user_id, p.asset_id, p.payment_id, p.price, p.created_at,
		       a.title, a.file_url, a.thumbnail_url, pay.currency
		FROM purchases p
		JOIN assets a ON a.id = p.asset_id
		JOIN payments pay ON pay.id = p.payment_id
		WHERE p.user_id = $1
		ORDER BY p.created_at DESC
	`

	owned := []OwnedAsset{}
	if err := r.db.SelectContext(ctx, &owned, query, userID); err != nil {
		return nil, err
	}
	return owned, nil
}

func (r *repository) Stats(ctx context.Context) (Stats, error) {
	var s Stats
	err := r.db.GetContext(ctx, &s,
		`SELECT COUNT(*) AS purchases, COALESCE(SUM(price), 0) AS revenue FROM purchases`)
	return s, err
}
