package category

import (
	"net/http"
	"strconv"

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

// @Summary      List categories
// @Tags         categories
// @Produce      json
// @Success      200 {array} category.Category
// @Failure      500 {object} api.ErrorResponse
// @Router       /categories [get]
// @Router       /admin/categories [get]
func (h *Handler) List(c *gin.Context) {
	categories, err := h.service.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to fetch categories"})
		return
	}
	c.JSON(http.StatusOK, categories)
}

// @Summary      Add a category
// @Description  Admin-only: create a category. Names are trimmed and must be 2-50 characters.
// @Tags         admin,categories
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body category.CreateCategoryRequest true "Category payload"
// @Success      201 {object} api.Result
// @Failure      400 {object} api.ErrorResponse
// @Failure      403 {object} api.Result
// @Failure      422 {object} api.Result
// @Router       /admin/categories [post]
func (h *Handler) Add(c *gin.Context) {
	var req CreateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.BadRequest(c, err)
		return
	}

	session, _ := auth.GetSession(c)
	result := h.service.Add(c.Request.Context(), session, req.Name)
	c.JSON(api.StatusFor(result, http.StatusCreated), result)
}

// @Summary      Delete a category
// @Tags         admin,categories
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Category ID"
// @Success      200 {object} api.Result
// @Failure      400 {object} api.ErrorResponse
// @Failure      422 {object} api.Result
// @Router       /admin/categories/{id} [delete]
func (h *Handler) Delete(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid category ID"})
		return
	}

	session, _ := auth.GetSession(c)
	result := h.service.Delete(c.Request.Context(), session, id)
	c.JSON(api.StatusFor(result, http.StatusOK), result)
}
