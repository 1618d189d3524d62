package api

import (
	"context"
	"net/url"

	"github.com/claude/fitcoach/internal/models"
)

// DashboardQuery carries the filter every dashboard endpoint accepts.
// Dates are YYYY-MM-DD local strings.
type DashboardQuery struct {
	StartDate string
	EndDate   string
	TimeRange string
	GroupBy   string
}

func (q DashboardQuery) values() url.Values {
	v := url.Values{}
	if q.StartDate != "" {
		v.Set("startDate", q.StartDate)
	}
	if q.EndDate != "" {
		v.Set("endDate", q.EndDate)
	}
	if q.TimeRange != "" {
		v.Set("timeRange", q.TimeRange)
	}
	if q.GroupBy != "" {
		v.Set("groupBy", q.GroupBy)
	}
	return v
}

func getDashboard[T any](ctx context.Context, c *Client, path string, q DashboardQuery) (*T, error) {
	body, err := c.get(ctx, path, q.values())
	if err != nil {
		return nil, err
	}
	out, err := decode[T](path, body)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetWeightAccuracy(ctx context.Context, q DashboardQuery) (*models.WeightAccuracy, error) {
	return getDashboard[models.WeightAccuracy](ctx, c, "/dashboard/weight-accuracy", q)
}

func (c *Client) GetConsistency(ctx context.Context, q DashboardQuery) (*models.Consistency, error) {
	return getDashboard[models.Consistency](ctx, c, "/dashboard/consistency", q)
}

func (c *Client) GetVolume(ctx context.Context, q DashboardQuery) (*models.Volume, error) {
	return getDashboard[models.Volume](ctx, c, "/dashboard/volume", q)
}

func (c *Client) GetWorkoutTypeDistribution(ctx context.Context, q DashboardQuery) (*models.WorkoutTypeDistribution, error) {
	return getDashboard[models.WorkoutTypeDistribution](ctx, c, "/dashboard/workout-types", q)
}
