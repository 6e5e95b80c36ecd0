package checkout

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nishant946/masset/internal/api"
	"github.com/nishant946/masset/internal/apperr"
	"github.com/nishant946/masset/internal/auth"
)

type Handler struct {
	service  Service
	sessions *auth.Resolver
}

func NewHandler(service Service, sessions *auth.Resolver) *Handler {
	return &Handler{
		service:  service,
		sessions: sessions,
	}
}

// @Summary      Start a purchase
// @Description  Creates a PayPal order for the asset. Browsers are redirected to the approval page; API clients get the order id and approval link.
// @Tags         checkout
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Asset ID"
// @Success      200 {object} checkout.InitiateResult
// @Success      303
// @Failure      401 {object} api.ErrorResponse
// @Failure      404 {object} api.ErrorResponse
// @Failure      502 {object} api.ErrorResponse
// @Router       /gallery/{id}/purchase [post]
func (h *Handler) Purchase(c *gin.Context) {
	assetID := c.Param("id")
	session := h.sessions.Resolve(c)
	html := c.NegotiateFormat(gin.MIMEJSON, gin.MIMEHTML) == gin.MIMEHTML

	if session == nil {
		if html {
			c.Redirect(http.StatusSeeOther, "/login")
			return
		}
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "Authentication required"})
		return
	}

	result, err := h.service.Initiate(c.Request.Context(), session, assetID)
	if err != nil {
		if !html {
			api.Abort(c, err, "Failed to create PayPal order")
			return
		}
		if apperr.Is(err, apperr.KindNotFound) {
			c.Redirect(http.StatusSeeOther, "/gallery")
			return
		}
		c.Redirect(http.StatusSeeOther, assetPath(assetID)+"?error=true")
		return
	}

	if html {
		if result.AlreadyPurchased {
			c.Redirect(http.StatusSeeOther, assetPath(assetID))
			return
		}
		c.Redirect(http.StatusSeeOther, result.ApprovalLink)
		return
	}
	c.JSON(http.StatusOK, result)
}

// @Summary      PayPal return URL
// @Description  Captures the approved order and records the purchase. Always answers with a redirect.
// @Tags         checkout
// @Param        token   query string true "PayPal order id"
// @Param        assetId query string true "Asset ID"
// @Param        PayerID query string true "PayPal payer id"
// @Success      302
// @Router       /api/paypal/capture [get]
func (h *Handler) Capture(c *gin.Context) {
	cb := Callback{
		Token:   c.Query("token"),
		AssetID: c.Query("assetId"),
		PayerID: c.Query("PayerID"),
	}

	var session *auth.Session
	if cb.complete() {
		session = h.sessions.Resolve(c)
	}

	outcome := h.service.Confirm(c.Request.Context(), session, cb)
	c.Redirect(http.StatusFound, outcome.Redirect)
}
