package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/sweetxhasan/TIKTOK-SAVER-PRO/internal/store"
)

const healthTimeout = 2 * time.Second

// healthHandler reports the service as healthy while its store is reachable.
// Stores without a HealthChecker are always reported reachable.
func healthHandler(service, driver string, st store.Store, logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		status, storeStatus, code := "healthy", "ok", http.StatusOK

		if hc, ok := st.(store.HealthChecker); ok {
			ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
			err := hc.Health(ctx)
			cancel()
			if err != nil {
				logger.Error().Err(err).Str("store", driver).Msg("Store health check failed")
				status, storeStatus, code = "unhealthy", "unreachable", http.StatusServiceUnavailable
			}
		}

		c.JSON(code, gin.H{
			"status":      status,
			"service":     service,
			"store":       driver,
			"storeStatus": storeStatus,
		})
	}
}
