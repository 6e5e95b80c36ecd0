package ledger

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nishant946/masset/internal/api"
	"github.com/nishant946/masset/internal/auth"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

type OwnedAssetView struct {
	OwnedAsset
	Thumbnail string `json:"thumbnail_url"`
}

// @Summary      My purchases
// @Description  Assets the current user owns, newest first.
// @Tags         dashboard
// @Produce      json
// @Security     BearerAuth
// @Success      200 {array} ledger.OwnedAssetView
// @Failure      401 {object} api.ErrorResponse
// @Failure      500 {object} api.ErrorResponse
// @Router       /dashboard/purchases [get]
func (h *Handler) MyPurchases(c *gin.Context) {
	session, _ := auth.GetSession(c)
	if session == nil {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "Authentication required"})
		return
	}

	owned, err := h.service.ListForUser(c.Request.Context(), session.UserID)
	if err != nil {
		api.Abort(c, err, "Failed to fetch purchases")
		return
	}

	out := make([]OwnedAssetView, 0, len(owned))
	for _, o := range owned {
		out = append(out, OwnedAssetView{OwnedAsset: o, Thumbnail: o.DisplayThumbnail()})
	}
	c.JSON(http.StatusOK, out)
}
