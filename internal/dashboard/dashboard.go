// Package dashboard fetches the four progress cards for a date range.
package dashboard

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/claude/fitcoach/internal/api"
	"github.com/claude/fitcoach/internal/dates"
	"github.com/claude/fitcoach/internal/models"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"
)

// TimeRange is a relative window ending today.
type TimeRange string

const (
	RangeWeek       TimeRange = "1w"
	RangeMonth      TimeRange = "1m"
	RangeQuarter    TimeRange = "3m"
	RangeHalfYear   TimeRange = "6m"
	RangeYear       TimeRange = "1y"
	defaultRange              = RangeMonth
	maxExplicitDays           = 3660
)

// GroupBy is the bucket size for series data.
type GroupBy string

const (
	GroupDay   GroupBy = "day"
	GroupWeek  GroupBy = "week"
	GroupMonth GroupBy = "month"
)

// Card names, used as keys in Overview.Errors.
const (
	CardWeightAccuracy = "weightAccuracy"
	CardConsistency    = "consistency"
	CardVolume         = "volume"
	CardWorkoutTypes   = "workoutTypes"
)

// ParseTimeRange accepts 1w, 1m, 3m, 6m and 1y (case-insensitive). Empty
// means one month.
func ParseTimeRange(s string) (TimeRange, error) {
	r := TimeRange(strings.ToLower(strings.TrimSpace(s)))
	switch r {
	case "":
		return defaultRange, nil
	case RangeWeek, RangeMonth, RangeQuarter, RangeHalfYear, RangeYear:
		return r, nil
	}
	return "", fmt.Errorf("unknown time range %q (want 1w, 1m, 3m, 6m or 1y)", s)
}

// ParseGroupBy accepts day, week and month. Empty is allowed.
func ParseGroupBy(s string) (GroupBy, error) {
	g := GroupBy(strings.ToLower(strings.TrimSpace(s)))
	switch g {
	case "", GroupDay, GroupWeek, GroupMonth:
		return g, nil
	}
	return "", fmt.Errorf("unknown groupBy %q (want day, week or month)", s)
}

// defaultGroup picks a bucket size that keeps series short.
func (r TimeRange) defaultGroup() GroupBy {
	switch r {
	case RangeWeek, RangeMonth:
		return GroupDay
	case RangeQuarter, RangeHalfYear:
		return GroupWeek
	default:
		return GroupMonth
	}
}

// Start returns the first day of the range ending at today (YYYY-MM-DD).
func (r TimeRange) Start(today string) (string, error) {
	t, err := time.Parse(dates.Layout, today)
	if err != nil {
		return "", fmt.Errorf("parsing today: %w", err)
	}
	switch r {
	case RangeWeek:
		t = t.AddDate(0, 0, -7)
	case RangeMonth:
		t = t.AddDate(0, -1, 0)
	case RangeQuarter:
		t = t.AddDate(0, -3, 0)
	case RangeHalfYear:
		t = t.AddDate(0, -6, 0)
	case RangeYear:
		t = t.AddDate(-1, 0, 0)
	default:
		return "", fmt.Errorf("unknown time range %q", r)
	}
	return dates.Key(t), nil
}

// Query selects the dashboard window. An explicit StartDate/EndDate pair
// overrides Range.
type Query struct {
	Range     string
	StartDate string
	EndDate   string
	GroupBy   string
}

// Overview is the dashboard payload. A card that failed to load is nil and
// its error is listed in Errors.
type Overview struct {
	Range          TimeRange                       `json:"timeRange,omitempty"`
	StartDate      string                          `json:"startDate"`
	EndDate        string                          `json:"endDate"`
	GroupBy        GroupBy                         `json:"groupBy"`
	WeightAccuracy *models.WeightAccuracy          `json:"weightAccuracy,omitempty"`
	Consistency    *models.Consistency             `json:"consistency,omitempty"`
	Volume         *models.Volume                  `json:"volume,omitempty"`
	WorkoutTypes   *models.WorkoutTypeDistribution `json:"workoutTypes,omitempty"`
	Errors         map[string]string               `json:"errors,omitempty"`
}

// Source is the part of the API client the dashboard reads from.
type Source interface {
	GetWeightAccuracy(ctx context.Context, q api.DashboardQuery) (*models.WeightAccuracy, error)
	GetConsistency(ctx context.Context, q api.DashboardQuery) (*models.Consistency, error)
	GetVolume(ctx context.Context, q api.DashboardQuery) (*models.Volume, error)
	GetWorkoutTypeDistribution(ctx context.Context, q api.DashboardQuery) (*models.WorkoutTypeDistribution, error)
}

var _ Source = (*api.Client)(nil)

// Service loads dashboard overviews.
type Service struct {
	src Source
	log *slog.Logger
	now func() time.Time
	loc *time.Location
}

// New creates a Service. A nil loc means time.Local.
func New(src Source, log *slog.Logger, loc *time.Location) *Service {
	if loc == nil {
		loc = time.Local
	}
	return &Service{src: src, log: log, now: time.Now, loc: loc}
}

// Resolve validates q and turns it into the backend query.
func (s *Service) Resolve(q Query) (api.DashboardQuery, TimeRange, GroupBy, error) {
	group, err := ParseGroupBy(q.GroupBy)
	if err != nil {
		return api.DashboardQuery{}, "", "", err
	}

	if q.StartDate != "" || q.EndDate != "" {
		start, end, err := explicitWindow(q.StartDate, q.EndDate)
		if err != nil {
			return api.DashboardQuery{}, "", "", err
		}
		if group == "" {
			group = GroupDay
		}
		return api.DashboardQuery{StartDate: start, EndDate: end, GroupBy: string(group)}, "", group, nil
	}

	r, err := ParseTimeRange(q.Range)
	if err != nil {
		return api.DashboardQuery{}, "", "", err
	}
	today := dates.Today(s.now(), s.loc)
	start, err := r.Start(today)
	if err != nil {
		return api.DashboardQuery{}, "", "", err
	}
	if group == "" {
		group = r.defaultGroup()
	}
	return api.DashboardQuery{
		StartDate: start,
		EndDate:   today,
		TimeRange: string(r),
		GroupBy:   string(group),
	}, r, group, nil
}

func explicitWindow(start, end string) (string, string, error) {
	if start == "" || end == "" {
		return "", "", fmt.Errorf("startDate and endDate must be given together")
	}
	s, err := time.Parse(dates.Layout, start)
	if err != nil {
		return "", "", fmt.Errorf("invalid startDate %q: %w", start, err)
	}
	e, err := time.Parse(dates.Layout, end)
	if err != nil {
		return "", "", fmt.Errorf("invalid endDate %q: %w", end, err)
	}
	if e.Before(s) {
		return "", "", fmt.Errorf("endDate %s is before startDate %s", end, start)
	}
	if e.Sub(s) > maxExplicitDays*24*time.Hour {
		return "", "", fmt.Errorf("date window longer than %d days", maxExplicitDays)
	}
	return start, end, nil
}

// Load fetches all four cards concurrently. A failing card does not hide
// the others: the overview is always returned with whatever loaded, and the
// error combines every card failure. Validation errors return a nil overview.
func (s *Service) Load(ctx context.Context, q Query) (*Overview, error) {
	bq, r, group, err := s.Resolve(q)
	if err != nil {
		return nil, err
	}

	ov := &Overview{
		Range:     r,
		StartDate: bq.StartDate,
		EndDate:   bq.EndDate,
		GroupBy:   group,
	}

	var (
		mu   sync.Mutex
		errs error
	)
	fail := func(card string, err error) {
		mu.Lock()
		defer mu.Unlock()
		if ov.Errors == nil {
			ov.Errors = map[string]string{}
		}
		ov.Errors[card] = err.Error()
		errs = multierr.Append(errs, fmt.Errorf("%s: %w", card, err))
	}

	// Card failures go through fail and every closure returns nil, so one
	// failing card never cancels the others. ctx still reaches each fetch.
	var g errgroup.Group
	g.Go(func() error {
		v, err := s.src.GetWeightAccuracy(ctx, bq)
		if err != nil {
			fail(CardWeightAccuracy, err)
			return nil
		}
		ov.WeightAccuracy = v
		return nil
	})
	g.Go(func() error {
		v, err := s.src.GetConsistency(ctx, bq)
		if err != nil {
			fail(CardConsistency, err)
			return nil
		}
		ov.Consistency = v
		return nil
	})
	g.Go(func() error {
		v, err := s.src.GetVolume(ctx, bq)
		if err != nil {
			fail(CardVolume, err)
			return nil
		}
		ov.Volume = v
		return nil
	})
	g.Go(func() error {
		v, err := s.src.GetWorkoutTypeDistribution(ctx, bq)
		if err != nil {
			fail(CardWorkoutTypes, err)
			return nil
		}
		ov.WorkoutTypes = v
		return nil
	})
	_ = g.Wait() // always nil

	if errs != nil {
		s.log.Warn("dashboard partially loaded",
			"start", bq.StartDate,
			"end", bq.EndDate,
			"failed", len(multierr.Errors(errs)),
			"error", errs,
		)
	}
	return ov, errs
}
