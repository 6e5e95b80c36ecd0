package asset

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/nishant946/masset/internal/api"
	"github.com/nishant946/masset/internal/auth"
	"github.com/nishant946/masset/internal/logger"
)

// PurchaseChecker reports ownership so the gallery can mark purchased assets.
type PurchaseChecker interface {
	HasPurchased(ctx context.Context, userID, assetID string) (bool, error)
}

type Handler struct {
	service   Service
	purchases PurchaseChecker
	sessions  *auth.Resolver
}

func NewHandler(service Service, purchases PurchaseChecker, sessions *auth.Resolver) *Handler {
	return &Handler{
		service:   service,
		purchases: purchases,
		sessions:  sessions,
	}
}

// @Summary      Browse the gallery
// @Description  Approved assets, newest first. Optionally filtered by category.
// @Tags         gallery
// @Produce      json
// @Param        category query int false "Category ID"
// @Success      200 {array} asset.View
// @Failure      400 {object} api.ErrorResponse
// @Failure      500 {object} api.ErrorResponse
// @Router       /gallery [get]
func (h *Handler) Gallery(c *gin.Context) {
	var categoryID *int
	if raw := c.Query("category"); raw != "" {
		id, err := strconv.Atoi(raw)
		if err != nil || id <= 0 {
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid category ID"})
			return
		}
		categoryID = &id
	}

	listings, err := h.service.ListPublic(c.Request.Context(), categoryID)
	if err != nil {
		logger.Error("Failed to list gallery", "error", err)
		api.Abort(c, err, "Failed to fetch assets")
		return
	}

	c.JSON(http.StatusOK, views(listings))
}

// @Summary      Asset detail
// @Description  Approved assets are public; pending or rejected ones are visible to their owner and admins only.
// @Tags         gallery
// @Produce      json
// @Param        id path string true "Asset ID"
// @Success      200 {object} asset.View
// @Failure      404 {object} api.ErrorResponse
// @Router       /gallery/{id} [get]
func (h *Handler) Detail(c *gin.Context) {
	ctx := c.Request.Context()
	session := h.sessions.Resolve(c)

	listing, err := h.service.Get(ctx, c.Param("id"))
	if err != nil {
		api.Abort(c, err, "Failed to fetch asset")
		return
	}
	if listing.Status != StatusApproved && !canSeeUnpublished(session, &listing.Asset) {
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Asset not found"})
		return
	}

	view := NewView(*listing)
	if session != nil {
		owned, err := h.purchases.HasPurchased(ctx, session.UserID, listing.ID)
		if err != nil {
			logger.Warn("Failed to check purchase", "asset_id", listing.ID, "user_id", session.UserID, "error", err)
		}
		view.HasPurchased = owned
	}

	c.JSON(http.StatusOK, view)
}

// @Summary      My assets
// @Tags         dashboard
// @Produce      json
// @Security     BearerAuth
// @Success      200 {array} asset.View
// @Failure      401 {object} api.ErrorResponse
// @Router       /dashboard/assets [get]
func (h *Handler) MyAssets(c *gin.Context) {
	session, _ := auth.GetSession(c)
	if session == nil {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "Authentication required"})
		return
	}

	listings, err := h.service.ListByOwner(c.Request.Context(), session.UserID)
	if err != nil {
		api.Abort(c, err, "Failed to fetch assets")
		return
	}
	c.JSON(http.StatusOK, views(listings))
}

// @Summary      Upload an asset
// @Description  Registers an uploaded file. New assets always start as pending.
// @Tags         dashboard
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body asset.UploadRequest true "Asset payload"
// @Success      201 {object} asset.Asset
// @Failure      400 {object} api.ErrorResponse
// @Failure      401 {object} api.ErrorResponse
// @Router       /dashboard/assets [post]
func (h *Handler) Upload(c *gin.Context) {
	var req UploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.BadRequest(c, err)
		return
	}

	session, _ := auth.GetSession(c)
	created, err := h.service.Upload(c.Request.Context(), session, req)
	if err != nil {
		api.Abort(c, err, "Failed to upload asset")
		return
	}
	c.JSON(http.StatusCreated, created)
}

// @Summary      Edit asset metadata
// @Tags         dashboard
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Asset ID"
// @Param        request body asset.EditRequest true "Metadata"
// @Success      200 {object} asset.Asset
// @Failure      400 {object} api.ErrorResponse
// @Failure      403 {object} api.ErrorResponse
// @Failure      404 {object} api.ErrorResponse
// @Router       /dashboard/assets/{id} [put]
func (h *Handler) Edit(c *gin.Context) {
	var req EditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.BadRequest(c, err)
		return
	}

	session, _ := auth.GetSession(c)
	updated, err := h.service.Edit(c.Request.Context(), session, c.Param("id"), req)
	if err != nil {
		api.Abort(c, err, "Failed to update asset")
		return
	}
	c.JSON(http.StatusOK, updated)
}

// @Summary      Pending assets
// @Description  Admin-only: assets awaiting moderation, oldest first.
// @Tags         admin,assets
// @Produce      json
// @Security     BearerAuth
// @Success      200 {array} asset.View
// @Failure      403 {object} api.ErrorResponse
// @Router       /admin/assets/pending [get]
func (h *Handler) Pending(c *gin.Context) {
	session, _ := auth.GetSession(c)
	listings, err := h.service.ListPending(c.Request.Context(), session)
	if err != nil {
		api.Abort(c, err, "Failed to fetch pending assets")
		return
	}
	c.JSON(http.StatusOK, views(listings))
}

// @Summary      Approve an asset
// @Tags         admin,assets
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Asset ID"
// @Success      200 {object} api.Result
// @Failure      422 {object} api.Result
// @Router       /admin/assets/{id}/approve [post]
func (h *Handler) Approve(c *gin.Context) {
	session, _ := auth.GetSession(c)
	result := h.service.Approve(c.Request.Context(), session, c.Param("id"))
	c.JSON(api.StatusFor(result, http.StatusOK), result)
}

// @Summary      Reject an asset
// @Tags         admin,assets
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Asset ID"
// @Success      200 {object} api.Result
// @Failure      422 {object} api.Result
// @Router       /admin/assets/{id}/reject [post]
func (h *Handler) Reject(c *gin.Context) {
	session, _ := auth.GetSession(c)
	result := h.service.Reject(c.Request.Context(), session, c.Param("id"))
	c.JSON(api.StatusFor(result, http.StatusOK), result)
}

func canSeeUnpublished(s *auth.Session, a *Asset) bool {
	return s != nil && (s.IsAdmin() || s.UserID == a.UserID)
}

func views(listings []Listing) []View {
	out := make([]View, 0, len(listings))
	for _, l := range listings {
		out = append(out, NewView(l))
	}
	return out
}
