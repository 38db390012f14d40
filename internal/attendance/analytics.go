package attendance

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/kozaktomas/face-attendance/internal/constants"
	"github.com/kozaktomas/face-attendance/internal/database"
)

// Stats summarises attendance. Days are UTC calendar days.
type Stats struct {
	TotalEmployees int `json:"total_employees"`
	PresentToday   int `json:"present_today"`  // distinct identities checked in today
	AttendanceRate int `json:"attendance_rate"` // percent over the last RateWindowDays
}

// Trend is the number of check-ins per day, oldest first, with days
// without check-ins reported as zero.
type Trend struct {
	Dates  []string `json:"dates"`
	Counts []int    `json:"counts"`
}

// Activity is an attendance event joined with the identity's name.
type Activity struct {
	EventID     string             `json:"id"`
	Name        string             `json:"employee_name"`
	IdentityKey string             `json:"employee_id"`
	Method      string             `json:"method"`
	Timestamp   time.Time          `json:"timestamp"`
	Location    *database.Location `json:"location,omitempty"`
	Confidence  float64            `json:"confidence,omitempty"`
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Stats computes headcount, today's presence and the attendance rate.
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	total, err := s.store.CountIdentities(ctx)
	if err != nil {
		return nil, fmt.Errorf("count identities: %w", err)
	}

	today := startOfDay(s.now())
	windowStart := today.AddDate(0, 0, -constants.RateWindowDays)
	events, err := s.store.AttendanceSince(ctx, windowStart)
	if err != nil {
		return nil, fmt.Errorf("load attendance: %w", err)
	}

	present := make(map[string]struct{})
	for _, ev := range events {
		if !ev.Timestamp.Before(today) {
			present[ev.IdentityKey] = struct{}{}
		}
	}

	stats := &Stats{TotalEmployees: total, PresentToday: len(present)}
	if total > 0 {
		expected := float64(total * constants.WorkingDaysPerWindow)
		stats.AttendanceRate = int(math.Round(float64(len(events)) / expected * 100))
	}
	return stats, nil
}

// TrendPeriod returns the number of days covered by period. Unknown or
// empty periods fall back to a week.
func TrendPeriod(period string) (string, int) {
	if days, ok := constants.TrendPeriodDays[period]; ok {
		return period, days
	}
	return constants.DefaultTrendPeriod, constants.TrendPeriodDays[constants.DefaultTrendPeriod]
}

// Trend counts check-ins per day from period days ago through today.
func (s *Service) Trend(ctx context.Context, period string) (*Trend, error) {
	_, days := TrendPeriod(period)
	today := startOfDay(s.now())
	start := today.AddDate(0, 0, -days)

	events, err := s.store.AttendanceSince(ctx, start)
	if err != nil {
		return nil, fmt.Errorf("load attendance: %w", err)
	}

	perDay := make(map[string]int)
	for _, ev := range events {
		perDay[ev.Timestamp.UTC().Format(time.DateOnly)]++
	}

	trend := &Trend{
		Dates:  make([]string, 0, days+1),
		Counts: make([]int, 0, days+1),
	}
	for d := start; !d.After(today); d = d.AddDate(0, 0, 1) {
		key := d.Format(time.DateOnly)
		trend.Dates = append(trend.Dates, key)
		trend.Counts = append(trend.Counts, perDay[key])
	}
	return trend, nil
}

// Recent returns up to limit latest events with identity names.
func (s *Service) Recent(ctx context.Context, limit int) ([]Activity, error) {
	switch {
	case limit <= 0:
		limit = database.DefaultRecentLimit
	case limit > database.MaxRecentLimit:
		limit = database.MaxRecentLimit
	}

	events, err := s.store.RecentAttendance(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("load recent attendance: %w", err)
	}
	identities, err := s.store.ListIdentities(ctx)
	if err != nil {
		return nil, fmt.Errorf("list identities: %w", err)
	}
	names := make(map[string]string, len(identities))
	for _, id := range identities {
		names[id.IdentityKey] = id.DisplayName
	}

	out := make([]Activity, 0, len(events))
	for _, ev := range events {
		name, ok := names[ev.IdentityKey]
		if !ok {
			name = ev.IdentityKey
		}
		out = append(out, Activity{
			EventID:     ev.ID,
			Name:        name,
			IdentityKey: ev.IdentityKey,
			Method:      ev.Method,
			Timestamp:   ev.Timestamp,
			Location:    ev.Location,
			Confidence:  ev.Confidence,
		})
	}
	return out, nil
}
