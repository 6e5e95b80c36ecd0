package category

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/nishant946/masset/internal/api"
	"github.com/nishant946/masset/internal/apperr"
	"github.com/nishant946/masset/internal/auth"
	"github.com/nishant946/masset/internal/logger"
)

const nameRules = "required,min=2,max=50"

var validate = validator.New()

type Service interface {
	Add(ctx context.Context, session *auth.Session, name string) api.Result
	List(ctx context.Context) ([]Category, error)
	Delete(ctx context.Context, session *auth.Session, id int) api.Result
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) Add(ctx context.Context, session *auth.Session, name string) api.Result {
	if d := auth.Authorize(session, auth.RoleAdmin); !d.Allowed() {
		return api.Fail(d.Reason)
	}

	name = strings.TrimSpace(name)
	if err := validate.Var(name, nameRules); err != nil {
		return api.Fail("Category name must be between 2 and 50 characters")
	}

	c, err := s.repo.Create(ctx, name)
	if err != nil {
		if apperr.IsUniqueViolation(err) {
			return api.Fail("Category already exists")
		}
		logger.Error("Failed to add category", "name", name, "error", err)
		return api.Fail("Failed to add category")
	}

	logger.Info("Category added", "category_id", c.ID, "name", c.Name, "by", session.UserID)
	return api.OK("Category added")
}

func (s *service) List(ctx context.Context) ([]Category, error) {
	categories, err := s.repo.List(ctx)
	if err != nil {
		return nil, apperr.Storage(err, "list categories")
	}
	return categories, nil
}

func (s *service) Delete(ctx context.Context, session *auth.Session, id int) api.Result {
	if d := auth.Authorize(session, auth.RoleAdmin); !d.Allowed() {
		return api.Fail(d.Reason)
	}

	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		if apperr.IsForeignKeyViolation(err) {
			return api.Fail("Category is in use")
		}
		logger.Error("Failed to delete category", "category_id", id, "error", err)
		return api.Fail("Failed to delete category")
	}
	if !deleted {
		return api.Fail("Category not found")
	}

	logger.Info("Category deleted", "category_id", id, "by", session.UserID)
	return api.OK("Category deleted")
}
