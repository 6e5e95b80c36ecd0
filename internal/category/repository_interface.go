package category

import "context"

type Repository interface {
	Create(ctx context.Context, name string) (*Category, error)
	List(ctx context.Context) ([]Category, error)
	FindByID(ctx context.Context, id int) (*Category, error)
	Delete(ctx context.Context, id int) (bool, error)
}
