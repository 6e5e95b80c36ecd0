package asset

import "context"

type Repository interface {
	Create(ctx context.Context, a *Asset) (*Asset, error)
	FindByID(ctx context.Context, id string) (*Asset, error)
	FindListing(ctx context.Context, id string) (*Listing, error)
	ListByOwner(ctx context.Context, userID string) ([]Listing, error)
	ListPublic(ctx context.Context, categoryID *int) ([]Listing, error)
	ListPending(ctx context.Context) ([]Listing, error)
	UpdateMetadata(ctx context.Context, id, ownerID string, req EditRequest) (*Asset, error)
	SetStatus(ctx context.Context, id string, status Status) (bool, error)
	CountByStatus(ctx context.Context) (map[Status]int, error)
}
