package db

import (
	"context"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
)

// poolStats is the connection pool section of the health payload. It is
// what an operator looks at first when the clinic reports slow intakes.
type poolStats struct {
	TotalConns    int32 `json:"total_conns"`
	IdleConns     int32 `json:"idle_conns"`
	AcquiredConns int32 `json:"acquired_conns"`
	MaxConns      int32 `json:"max_conns"`
}

func snapshotPool(pool *pgxpool.Pool) poolStats {
	s := pool.Stat()
	return poolStats{
		TotalConns:    s.TotalConns(),
		IdleConns:     s.IdleConns(),
		AcquiredConns: s.AcquiredConns(),
		MaxConns:      s.MaxConns(),
	}
}

// HealthHandler reports database reachability for readiness checks.
func HealthHandler(pool *pgxpool.Pool) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
		defer cancel()

		if err := pool.Ping(ctx); err != nil {
			return c.JSON(http.StatusServiceUnavailable, echo.Map{
				"status": "unhealthy",
				"error":  err.Error(),
				"pool":   snapshotPool(pool),
			})
		}
		return c.JSON(http.StatusOK, echo.Map{
			"status": "healthy",
			"pool":   snapshotPool(pool),
		})
	}
}
