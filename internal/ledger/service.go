package ledger

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/nishant946/masset/internal/apperr"
	"github.com/nishant946/masset/internal/logger"
	"github.com/nishant946/masset/internal/metrics"
)

type Service interface {
	Record(ctx context.Context, assetID, providerTransactionID, userID string, price decimal.Decimal) RecordResult
	HasPurchased(ctx context.Context, userID, assetID string) (bool, error)
	ListForUser(ctx context.Context, userID string) ([]OwnedAsset, error)
	Stats(ctx context.Context) (Stats, error)
}

type service struct {
	repo     Repository
	currency string
}

func NewService(repo Repository, currency string) Service {
	return &service{
		repo:     repo,
		currency: currency,
	}
}

// Record is idempotent per (userID, assetID). Storage errors are logged and
// reported as {Success: false}; they never propagate to the caller.
func (s *service) Record(ctx context.Context, assetID, providerTransactionID, userID string, price decimal.Decimal) RecordResult {
	entry := Entry{
		AssetID:               assetID,
		ProviderTransactionID: providerTransactionID,
		UserID:                userID,
		Amount:                MinorUnits(price),
		Currency:              s.currency,
	}

	purchaseID, err := s.repo.Record(ctx, entry)
	switch {
	case errors.Is(err, ErrAlreadyPurchased):
		metrics.RecordPurchase("already_exists")
		logger.Info("Purchase already recorded", "user_id", userID, "asset_id", assetID, "transaction_id", providerTransactionID)
		return RecordResult{Success: true, AlreadyExists: true}
	case err != nil:
		metrics.RecordPurchase("failed")
		logger.Error("Failed to record purchase",
			"user_id", userID,
			"asset_id", assetID,
			"transaction_id", providerTransactionID,
			"amount", entry.Amount,
			"error", err,
		)
		return RecordResult{Success: false}
	}

	metrics.RecordPurchase("created")
	logger.Info("Purchase recorded", "purchase_id", purchaseID, "user_id", userID, "asset_id", assetID, "amount", entry.Amount)
	return RecordResult{Success: true, PurchaseID: purchaseID}
}

func (s *service) HasPurchased(ctx context.Context, userID, assetID string) (bool, error) {
	owned, err := s.repo.HasPurchased(ctx, userID, assetID)
	if err != nil {
		return false, apperr.Storage(err, "check purchase")
	}
	return owned, nil
}

func (s *service) ListForUser(ctx context.Context, userID string) ([]OwnedAsset, error) {
	owned, err := s.repo.ListForUser(ctx, userID)
	if err != nil {
		return nil, apperr.Storage(err, "list purchases")
	}
	return owned, nil
}

func (s *service) Stats(ctx context.Context) (Stats, error) {
	st, err := s.repo.Stats(ctx)
	if err != nil {
		return Stats{}, apperr.Storage(err, "purchase stats")
	}
	return st, nil
}
