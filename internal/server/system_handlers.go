package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nishant946/masset/internal/api"
	"github.com/nishant946/masset/internal/asset"
	"github.com/nishant946/masset/internal/ledger"
	"github.com/nishant946/masset/internal/logger"
)

// Check tests one dependency for the health endpoint.
type Check func(ctx context.Context) error

// @Summary      Health check
// @Description  Pings every backing service; any failure turns the response into 503
// @Tags         system
// @Produce      json
// @Success      200 {object} api.HealthResponse
// @Failure      503 {object} api.HealthResponse
// @Router       /health [get]
func Health(checks map[string]Check) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		resp := api.HealthResponse{Status: "ok"}
		status := http.StatusOK
		if len(checks) > 0 {
			resp.Checks = make(map[string]string, len(checks))
		}
		for name, check := range checks {
			if err := check(ctx); err != nil {
				logger.Warn("Health check failed", "check", name, "error", err)
				resp.Checks[name] = "down"
				resp.Status = "degraded"
				status = http.StatusServiceUnavailable
				continue
			}
			resp.Checks[name] = "up"
		}

		c.JSON(status, resp)
	}
}

// @Summary      Prometheus metrics
// @Description  Exposes Prometheus metrics in text format
// @Tags         system
// @Produce      text/plain
// @Success      200 {string} string
// @Router       /metrics [get]
func Metrics() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}

type UserCounter interface {
	Count(ctx context.Context) (int, error)
}

type AssetCounter interface {
	Counts(ctx context.Context) (map[asset.Status]int, error)
}

type SalesReporter interface {
	Stats(ctx context.Context) (ledger.Stats, error)
}

type StatsResponse struct {
	Users     int                  `json:"users" example:"42"`
	Assets    map[asset.Status]int `json:"assets"`
	Purchases int                  `json:"purchases" example:"17"`
	Revenue   int64                `json:"revenue" example:"8500"`
	Currency  string               `json:"currency" example:"USD"`
}

// @Summary      Marketplace statistics
// @Description  Totals for the admin dashboard. Revenue is in minor units.
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} StatsResponse
// @Failure      401 {object} api.ErrorResponse
// @Failure      403 {object} api.ErrorResponse
// @Failure      500 {object} api.ErrorResponse
// @Router       /admin/stats [get]
func Stats(users UserCounter, assets AssetCounter, sales SalesReporter, currency string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		userCount, err := users.Count(ctx)
		if err != nil {
			api.Abort(c, err, "Failed to load stats")
			return
		}
		assetCounts, err := assets.Counts(ctx)
		if err != nil {
			api.Abort(c, err, "Failed to load stats")
			return
		}
		sold, err := sales.Stats(ctx)
		if err != nil {
			api.Abort(c, err, "Failed to load stats")
			return
		}

		c.JSON(http.StatusOK, StatsResponse{
			Users:     userCount,
			Assets:    assetCounts,
			Purchases: sold.Purchases,
			Revenue:   sold.Revenue,
			Currency:  currency,
		})
	}
}
