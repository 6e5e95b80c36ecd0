package asset

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/nishant946/masset/internal/api"
	"github.com/nishant946/masset/internal/apperr"
	"github.com/nishant946/masset/internal/auth"
	"github.com/nishant946/masset/internal/logger"
	"github.com/nishant946/masset/internal/metrics"
)

var validate = newValidator()

// Requests are validated with the same tags gin binds with, so the CLI and
// the HTTP layer enforce identical rules.
func newValidator() *validator.Validate {
	v := validator.New()
	v.SetTagName("binding")
	return v
}

type Service interface {
	Upload(ctx context.Context, session *auth.Session, req UploadRequest) (*Asset, error)
	Edit(ctx context.Context, session *auth.Session, id string, req EditRequest) (*Asset, error)
	FindByID(ctx context.Context, id string) (*Asset, error)
	Get(ctx context.Context, id string) (*Listing, error)
	ListByOwner(ctx context.Context, userID string) ([]Listing, error)
	ListPublic(ctx context.Context, categoryID *int) ([]Listing, error)
	ListPending(ctx context.Context, session *auth.Session) ([]Listing, error)
	Approve(ctx context.Context, session *auth.Session, id string) api.Result
	Reject(ctx context.Context, session *auth.Session, id string) api.Result
	Counts(ctx context.Context) (map[Status]int, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) Upload(ctx context.Context, session *auth.Session, req UploadRequest) (*Asset, error) {
	if d := auth.Authorize(session, auth.RoleUser); !d.Allowed() {
		return nil, apperr.Unauthorized(d.Reason)
	}
	req.Title = strings.TrimSpace(req.Title)
	if err := validate.Struct(req); err != nil {
		return nil, apperr.Wrap(err, apperr.KindValidation, "invalid asset")
	}

	created, err := s.repo.Create(ctx, &Asset{
		Title:        req.Title,
		Description:  optional(strings.TrimSpace(req.Description)),
		CategoryID:   req.CategoryID,
		FileURL:      req.FileURL,
		ThumbnailURL: optional(req.ThumbnailURL),
		UserID:       session.UserID,
	})
	if err != nil {
		if apperr.IsForeignKeyViolation(err) {
			return nil, apperr.New(apperr.KindValidation, "category does not exist")
		}
		logger.Error("Failed to create asset", "user_id", session.UserID, "error", err)
		return nil, apperr.Storage(err, "create asset")
	}

	logger.Info("Asset uploaded", "asset_id", created.ID, "user_id", session.UserID)
	return created, nil
}

// Edit lets the owner change metadata. Moderation status is never touched.
func (s *service) Edit(ctx context.Context, session *auth.Session, id string, req EditRequest) (*Asset, error) {
	if d := auth.Authorize(session, auth.RoleUser); !d.Allowed() {
		return nil, apperr.Unauthorized(d.Reason)
	}
	req.Title = strings.TrimSpace(req.Title)
	req.Description = strings.TrimSpace(req.Description)
	if err := validate.Struct(req); err != nil {
		return nil, apperr.Wrap(err, apperr.KindValidation, "invalid asset")
	}

	existing, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing.UserID != session.UserID {
		return nil, apperr.Unauthorized("only the owner can edit this asset")
	}

	updated, err := s.repo.UpdateMetadata(ctx, id, session.UserID, req)
	if err != nil {
		if errors.Is(err, ErrAssetNotFound) {
			return nil, apperr.NotFound("Asset not found")
		}
		if apperr.IsForeignKeyViolation(err) {
			return nil, apperr.New(apperr.KindValidation, "category does not exist")
		}
		return nil, apperr.Storage(err, "update asset")
	}
	return updated, nil
}

func (s *service) FindByID(ctx context.Context, id string) (*Asset, error) {
	a, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, ErrAssetNotFound) {
		return nil, apperr.NotFound("Asset not found")
	}
	if err != nil {
		return nil, apperr.Storage(err, "find asset")
	}
	return a, nil
}

func (s *service) Get(ctx context.Context, id string) (*Listing, error) {
	l, err := s.repo.FindListing(ctx, id)
	if errors.Is(err, ErrAssetNotFound) {
		return nil, apperr.NotFound("Asset not found")
	}
	if err != nil {
		return nil, apperr.Storage(err, "find asset")
	}
	return l, nil
}

func (s *service) ListByOwner(ctx context.Context, userID string) ([]Listing, error) {
	listings, err := s.repo.ListByOwner(ctx, userID)
	if err != nil {
		return nil, apperr.Storage(err, "list assets")
	}
	return listings, nil
}

func (s *service) ListPublic(ctx context.Context, categoryID *int) ([]Listing, error) {
	listings, err := s.repo.ListPublic(ctx, categoryID)
	if err != nil {
		return nil, apperr.Storage(err, "list assets")
	}
	return listings, nil
}

func (s *service) ListPending(ctx context.Context, session *auth.Session) ([]Listing, error) {
	if d := auth.Authorize(session, auth.RoleAdmin); !d.Allowed() {
		return nil, apperr.Unauthorized(d.Reason)
	}
	listings, err := s.repo.ListPending(ctx)
	if err != nil {
		return nil, apperr.Storage(err, "list pending assets")
	}
	return listings, nil
}

func (s *service) Approve(ctx context.Context, session *auth.Session, id string) api.Result {
	return s.moderate(ctx, session, id, StatusApproved)
}

func (s *service) Reject(ctx context.Context, session *auth.Session, id string) api.Result {
	return s.moderate(ctx, session, id, StatusRejected)
}

// moderate overwrites the status unconditionally; re-approving is allowed.
func (s *service) moderate(ctx context.Context, session *auth.Session, id string, status Status) api.Result {
	if d := auth.Authorize(session, auth.RoleAdmin); !d.Allowed() {
		return api.Fail(d.Reason)
	}

	updated, err := s.repo.SetStatus(ctx, id, status)
	if err != nil {
		logger.Error("Failed to moderate asset", "asset_id", id, "status", status, "error", err)
		return api.Fail("Failed to update asset")
	}
	if !updated {
		return api.Fail("Asset not found")
	}

	metrics.RecordModeration(string(status))
	logger.Info("Asset moderated", "asset_id", id, "status", status, "by", session.UserID)
	if status == StatusApproved {
		return api.OK("Asset approved")
	}
	return api.OK("Asset rejected")
}

func (s *service) Counts(ctx context.Context) (map[Status]int, error) {
	counts, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return nil, apperr.Storage(err, "count assets")
	}
	return counts, nil
}
