package admin

import (
	"context"
	"math"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Dashboard is the system-wide snapshot served to the admin dashboard.
type Dashboard struct {
	TotalPatients    int     `json:"total_patients"`
	TotalVisits      int     `json:"total_visits"`
	VisitsWaiting    int     `json:"visits_waiting"`
	VisitsInProgress int     `json:"visits_in_progress"`
	VisitsCompleted  int     `json:"visits_completed"`
	AvgSeverityScore float64 `json:"avg_severity_score"`
	TotalDoctors     int     `json:"total_doctors"`
}

// Analytics computes dashboard statistics.
type Analytics interface {
	Dashboard(ctx context.Context) (*Dashboard, error)
}

type analyticsPG struct{ pool *pgxpool.Pool }

// NewAnalyticsPG returns Postgres-backed analytics.
func NewAnalyticsPG(pool *pgxpool.Pool) Analytics {
	return &analyticsPG{pool: pool}
}

func (a *analyticsPG) Dashboard(ctx context.Context) (*Dashboard, error) {
	var d Dashboard
	var avg *float64
	err := a.pool.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM patients),
			(SELECT COUNT(*) FROM doctors),
			COUNT(*),
			COUNT(*) FILTER (WHERE status = 'WAITING'),
			COUNT(*) FILTER (WHERE status = 'IN_PROGRESS'),
			COUNT(*) FILTER (WHERE status = 'COMPLETED'),
			AVG(severity_score)
		FROM visits`).Scan(
		&d.TotalPatients, &d.TotalDoctors, &d.TotalVisits,
		&d.VisitsWaiting, &d.VisitsInProgress, &d.VisitsCompleted, &avg)
	if err != nil {
		return nil, err
	}
	if avg != nil {
		d.AvgSeverityScore = RoundScore(*avg)
	}
	return &d, nil
}

// RoundScore rounds a severity average to two decimal places for display.
func RoundScore(score float64) float64 {
	return math.Round(score*100) / 100
}
