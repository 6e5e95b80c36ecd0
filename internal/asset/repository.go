package asset

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

var ErrAssetNotFound = errors.New("asset not found")

const assetColumns = `id, title, description, category_id, file_url, thumbnail_url, status, user_id, created_at, updated_at`

const listingSelect = `
	SELECT a.id, a.title, a.description, a.category_id, a.file_url, a.thumbnail_url,
	       a.status, a.user_id, a.created_at, a.updated_at,
	       c.name AS category_name, u.name AS owner_name
	FROM assets a
	JOIN categories c ON c.id = a.category_id
	JOIN users u ON u.id = a.user_id
`

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, a *Asset) (*Asset, error) {
	query := `
		INSERT INTO assets (id, title, description, category_id, file_url, thumbnail_url, status, user_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + assetColumns

	var created Asset
	err := r.db.GetContext(ctx, &created, query,
		uuid.NewString(), a.Title, a.Description, a.CategoryID, a.FileURL, a.ThumbnailURL, StatusPending, a.UserID)
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// validID reports whether id can match a row. Ids are UUIDs, and handing
// postgres anything else fails the query instead of finding nothing.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func (r *repository) FindByID(ctx context.Context, id string) (*Asset, error) {
	if !validID(id) {
		return nil, ErrAssetNotFound
	}
	var a Asset
	err := r.db.GetContext(ctx, &a, `SELECT `+assetColumns+` FROM assets WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAssetNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *repository) FindListing(ctx context.Context, id string) (*Listing, error) {
	if !validID(id) {
		return nil, ErrAssetNotFound
	}
	var l Listing
	err := r.db.GetContext(ctx, &l, listingSelect+` WHERE a.id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAssetNotFound
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *repository) ListByOwner(ctx context.Context, userID string) ([]Listing, error) {
	listings := []Listing{}
	err := r.db.SelectContext(ctx, &listings, listingSelect+` WHERE a.user_id = $1 ORDER BY a.created_at DESC`, userID)
	return listings, err
}

// ListPublic returns approved assets, optionally narrowed to one category.
func (r *repository) ListPublic(ctx context.Context, categoryID *int) ([]Listing, error) {
	listings := []Listing{}
	if categoryID != nil {
		err := r.db.SelectContext(ctx, &listings,
			listingSelect+` WHERE a.status = $1 AND a.category_id = $2 ORDER BY a.created_at DESC`,
			StatusApproved, *categoryID)
		return listings, err
	}
	err := r.db.SelectContext(ctx, &listings,
		listingSelect+` WHERE a.status = $1 ORDER BY a.created_at DESC`, StatusApproved)
	return listings, err
}

func (r *repository) ListPending(ctx context.Context) ([]Listing, error) {
	listings := []Listing{}
	err := r.db.SelectContext(ctx, &listings,
		listingSelect+` WHERE a.status = $1 ORDER BY a.created_at ASC`, StatusPending)
	return listings, err
}

// UpdateMetadata only touches rows owned by ownerID; status is left alone.
func (r *repository) UpdateMetadata(ctx context.Context, id, ownerID string, req EditRequest) (*Asset, error) {
	if !validID(id) {
		return nil, ErrAssetNotFound
	}
	query := `
		UPDATE assets
		SET title = $1, description = $2, category_id = $3, thumbnail_url = $4, updated_at = NOW()
		WHERE id = $5 AND user_id = $6
		RETURNING ` + assetColumns

	var a Asset
	err := r.db.GetContext(ctx, &a, query,
		req.Title, optional(req.Description), req.CategoryID, optional(req.ThumbnailURL), id, ownerID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAssetNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *repository) SetStatus(ctx context.Context, id string, status Status) (bool, error) {
	if !validID(id) {
		return false, nil
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE assets SET status = $1, updated_at = NOW() WHERE id = $2`, status, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *repository) CountByStatus(ctx context.Context) (map[Status]int, error) {
	var rows []struct {
		Status Status `db:"status"`
		Count  int    `db:"count"`
	}
	if err := r.db.SelectContext(ctx, &rows, `SELECT status, COUNT(*) AS count FROM assets GROUP BY status`); err != nil {
		return nil, err
	}

	counts := map[Status]int{StatusPending: 0, StatusApproved: 0, StatusRejected: 0}
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}
