package ledger

import "context"

type Repository interface {
	Record(ctx context.Context, e Entry) (string, error)
	HasPurchased(ctx context.Context, userID, assetID string) (bool, error)
	ListForUser(ctx context.Context, userID string) ([]OwnedAsset, error)
	Stats(ctx context.Context) (Stats, error)
}
