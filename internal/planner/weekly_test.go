package planner

import (
	"testing"
	"time"
	_ "time/tzdata"
)

func sportEvent(start time.Time, sportType SportType, minutes *int) Event {
	return Event{
		ID:       start.Format(time.RFC3339) + string(sportType),
		Title:    string(sportType),
		Category: CategorySport,
		Start:    start,
		End:      start.Add(time.Hour),
		Sport:    &SportDetails{Type: sportType, DurationMinutes: minutes},
	}
}

func TestWeeklySummaries_RunningAndCyclingScenario(t *testing.T) {
	t.Parallel()

	events := []Event{
		sportEvent(time.Date(2025, 1, 7, 7, 0, 0, 0, time.UTC), SportRunning, IntPtr(45)),
		sportEvent(time.Date(2025, 1, 8, 18, 0, 0, 0, time.UTC), SportCycling, IntPtr(30)),
	}

	summaries := WeeklySummaries(events, time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC))
	if len(summaries) != 5 {
		t.Fatalf("expected 5 weeks for January 2025, got %d", len(summaries))
	}

	week := summaries[1]
	if !week.Start.Equal(time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected week start: %v", week.Start)
	}

	want := map[SportType]string{
		SportRunning:  "0h 45m",
		SportCycling:  "0h 30m",
		SportSwimming: "0h 0m",
		SportOther:    "0h 0m",
	}
	got := week.Formatted()
	for sportType, text := range want {
		if got[sportType] != text {
			t.Fatalf("%s = %q, want %q", sportType, got[sportType], text)
		}
	}
}

func TestWeeklySummaries_EveryWeekPresent(t *testing.T) {
	t.Parallel()

	// March 2026 starts on a Sunday and spans six Monday-start weeks.
	summaries := WeeklySummaries(nil, time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC))
	if len(summaries) != 6 {
		t.Fatalf("expected 6 weeks, got %d", len(summaries))
	}

	first := time.Date(2026, 2, 23, 0, 0, 0, 0, time.UTC)
	for i, summary := range summaries {
		wantStart := first.AddDate(0, 0, 7*i)
		if !summary.Start.Equal(wantStart) {
			t.Fatalf("week %d start = %v, want %v", i, summary.Start, wantStart)
		}
		if summary.Start.Weekday() != time.Monday {
			t.Fatalf("week %d does not start on Monday", i)
		}
		if len(summary.Minutes) != len(SportTypes) {
			t.Fatalf("week %d has %d totals", i, len(summary.Minutes))
		}
		if summary.TotalMinutes() != 0 {
			t.Fatalf("week %d expected zero totals", i)
		}
	}
}

func TestWeeklySummaries_AcrossDaylightSavingChange(t *testing.T) {
	t.Parallel()

	prague, err := time.LoadLocation("Europe/Prague")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}

	// Summer time starts on Sunday 29 March 2026.
	events := []Event{
		sportEvent(time.Date(2026, 3, 29, 10, 0, 0, 0, prague), SportRunning, IntPtr(40)),
		sportEvent(time.Date(2026, 3, 30, 0, 30, 0, 0, prague), SportCycling, IntPtr(20)),
	}
	summaries := WeeklySummaries(events, time.Date(2026, 3, 15, 12, 0, 0, 0, prague))
	if len(summaries) != 6 {
		t.Fatalf("expected 6 weeks, got %d", len(summaries))
	}

	for i, summary := range summaries {
		want := time.Date(2026, 2, 23+7*i, 0, 0, 0, 0, prague)
		if !summary.Start.Equal(want) {
			t.Fatalf("week %d start = %v, want %v", i, summary.Start, want)
		}
		if summary.Start.Hour() != 0 || summary.Start.Weekday() != time.Monday {
			t.Fatalf("week %d does not start at local Monday midnight: %v", i, summary.Start)
		}
	}

	if got := summaries[4].Minutes[SportRunning]; got != 40 {
		t.Fatalf("week of 23 March running = %d, want 40", got)
	}
	if got := summaries[4].Minutes[SportCycling]; got != 0 {
		t.Fatalf("week of 23 March cycling = %d, want 0", got)
	}
	if got := summaries[5].Minutes[SportCycling]; got != 20 {
		t.Fatalf("week of 30 March cycling = %d, want 20", got)
	}
}

func TestPeriodSummary_Buckets(t *testing.T) {
	t.Parallel()

	base := time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)
	end := base.AddDate(0, 0, 7).Add(-time.Nanosecond)

	events := []Event{
		sportEvent(base, SportSwimming, IntPtr(60)),
		sportEvent(end, SportSwimming, IntPtr(15)),
		sportEvent(base.Add(time.Hour), SportType("CLIMBING"), IntPtr(20)),
		sportEvent(base.Add(2*time.Hour), SportRunning, nil),
		sportEvent(base.AddDate(0, 0, 7), SportRunning, IntPtr(100)),
		{Title: "Work", Category: CategoryWork, Start: base.Add(3 * time.Hour), End: base.Add(4 * time.Hour)},
	}
	events[0].Sport.DistanceKm = Float64Ptr(1.1)
	events[1].Sport.DistanceKm = Float64Ptr(2.2)

	summary := PeriodSummary(events, base, end)
	if summary.Minutes[SportSwimming] != 75 {
		t.Fatalf("swimming = %d, want 75", summary.Minutes[SportSwimming])
	}
	if summary.Minutes[SportOther] != 20 {
		t.Fatalf("unknown sport type must land in OTHER, got %d", summary.Minutes[SportOther])
	}
	if summary.Minutes[SportRunning] != 0 {
		t.Fatalf("running = %d, want 0", summary.Minutes[SportRunning])
	}
	if summary.DistanceKm[SportSwimming] != 3.3 {
		t.Fatalf("swimming distance = %v, want 3.3", summary.DistanceKm[SportSwimming])
	}
}

func TestFormatHM(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in  int
		out string
	}{
		{in: 0, out: "0h 0m"},
		{in: 45, out: "0h 45m"},
		{in: 135, out: "2h 15m"},
		{in: -3, out: "0h 0m"},
	}
	for _, tc := range tests {
		if got := FormatHM(tc.in); got != tc.out {
			t.Fatalf("FormatHM(%d) = %q, want %q", tc.in, got, tc.out)
		}
	}
}

func TestHumanizeDuration(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   time.Duration
		out  string
	}{
		{name: "minutes", in: 24 * time.Minute, out: "24m"},
		{name: "hours_minutes", in: 4*time.Hour + 24*time.Minute, out: "4h 24m"},
		{name: "days_hours_minutes", in: 2*24*time.Hour + 3*time.Hour + 5*time.Minute, out: "2d 3h 5m"},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := HumanizeDuration(tc.in); got != tc.out {
				t.Fatalf("HumanizeDuration() = %q, want %q", got, tc.out)
			}
		})
	}
}
