package asset

import "time"

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

type Asset struct {
	ID           string    `db:"id" json:"id"`
	Title        string    `db:"title" json:"title"`
	Description  *string   `db:"description" json:"description,omitempty"`
	CategoryID   int       `db:"category_id" json:"category_id"`
	FileURL      string    `db:"file_url" json:"file_url"`
	ThumbnailURL *string   `db:"thumbnail_url" json:"-"`
	Status       Status    `db:"status" json:"status"`
	UserID       string    `db:"user_id" json:"user_id"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// DisplayThumbnail falls back to the file itself when no thumbnail was
// uploaded.
func (a *Asset) DisplayThumbnail() string {
	if a.ThumbnailURL != nil && *a.ThumbnailURL != "" {
		return *a.ThumbnailURL
	}
	return a.FileURL
}

// Listing is an asset joined with its category and owner for display.
type Listing struct {
	Asset
	CategoryName string `db:"category_name" json:"category_name"`
	OwnerName    string `db:"owner_name" json:"owner_name"`
}

// View is the JSON read model served by the gallery and dashboard.
type View struct {
	Listing
	Thumbnail    string `json:"thumbnail_url"`
	HasPurchased bool   `json:"has_purchased"`
}

func NewView(l Listing) View {
	return View{Listing: l, Thumbnail: l.DisplayThumbnail()}
}

type UploadRequest struct {
	Title        string `json:"title" binding:"required,max=200"`
	Description  string `json:"description" binding:"max=2000"`
	CategoryID   int    `json:"category_id" binding:"required,gt=0"`
	FileURL      string `json:"file_url" binding:"required,url"`
	ThumbnailURL string `json:"thumbnail_url" binding:"omitempty,url"`
}

type EditRequest struct {
	Title        string `json:"title" binding:"required,max=200"`
	Description  string `json:"description" binding:"max=2000"`
	CategoryID   int    `json:"category_id" binding:"required,gt=0"`
	ThumbnailURL string `json:"thumbnail_url" binding:"omitempty,url"`
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
