package planner

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/teambition/rrule-go"
)

type WeeklySummary struct {
	Start      time.Time             `json:"start" yaml:"start"`
	End        time.Time             `json:"end" yaml:"end"`
	Minutes    map[SportType]int     `json:"minutes" yaml:"minutes"`
	DistanceKm map[SportType]float64 `json:"distanceKm" yaml:"distanceKm"`
}

func (w WeeklySummary) TotalMinutes() int {
	total := 0
	for _, minutes := range w.Minutes {
		total += minutes
	}
	return total
}

// Formatted renders every sport type's total as "<h>h <m>m".
func (w WeeklySummary) Formatted() map[SportType]string {
	out := make(map[SportType]string, len(SportTypes))
	for _, sportType := range SportTypes {
		out[sportType] = FormatHM(w.Minutes[sportType])
	}
	return out
}

func (w WeeklySummary) Label() string {
	return fmt.Sprintf("%s – %s", w.Start.Format("2.1."), w.End.Format("2.1."))
}

// WeeklySummaries returns one entry for every Monday-start week that
// intersects the month containing ref, including weeks without sport.
func WeeklySummaries(events []Event, ref time.Time) []WeeklySummary {
	starts := weekStartsOfMonth(ref)
	summaries := make([]WeeklySummary, 0, len(starts))
	for _, start := range starts {
		end := start.AddDate(0, 0, 7).Add(-time.Nanosecond)
		summaries = append(summaries, PeriodSummary(events, start, end))
	}
	return summaries
}

// PeriodSummary accumulates SPORT events whose start lies in [from, to].
// Missing durations count as zero and unknown sport types as OTHER.
func PeriodSummary(events []Event, from, to time.Time) WeeklySummary {
	minutes := make(map[SportType]int, len(SportTypes))
	distances := make(map[SportType]decimal.Decimal, len(SportTypes))
	for _, sportType := range SportTypes {
		minutes[sportType] = 0
		distances[sportType] = decimal.Zero
	}

	for _, event := range events {
		if event.Category != CategorySport {
			continue
		}
		if event.Start.Before(from) || event.Start.After(to) {
			continue
		}

		if event.Sport == nil {
			continue
		}

		key := SportOther
		if _, known := minutes[event.Sport.Type]; known {
			key = event.Sport.Type
		}
		if event.Sport.DurationMinutes != nil {
			minutes[key] += *event.Sport.DurationMinutes
		}
		if event.Sport.DistanceKm != nil {
			distances[key] = distances[key].Add(decimal.NewFromFloat(*event.Sport.DistanceKm))
		}
	}

	distanceKm := make(map[SportType]float64, len(SportTypes))
	for sportType, total := range distances {
		distanceKm[sportType] = total.Round(2).InexactFloat64()
	}

	return WeeklySummary{
		Start:      from,
		End:        to,
		Minutes:    minutes,
		DistanceKm: distanceKm,
	}
}

// CurrentWeek returns the summary of the Monday-start week containing now.
func CurrentWeek(events []Event, now time.Time) WeeklySummary {
	start := StartOfWeek(now)
	return PeriodSummary(events, start, start.AddDate(0, 0, 7).Add(-time.Nanosecond))
}

func StartOfWeek(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7
	return time.Date(t.Year(), t.Month(), t.Day()-offset, 0, 0, 0, 0, t.Location())
}

func weekStartsOfMonth(ref time.Time) []time.Time {
	monthStart := time.Date(ref.Year(), ref.Month(), 1, 0, 0, 0, 0, ref.Location())
	monthEnd := monthStart.AddDate(0, 1, 0).Add(-time.Nanosecond)
	first := StartOfWeek(monthStart)

	rule, err := rrule.NewRRule(rrule.ROption{
		Freq:      rrule.WEEKLY,
		Wkst:      rrule.MO,
		Byweekday: []rrule.Weekday{rrule.MO},
		Dtstart:   first,
		Until:     monthEnd,
	})
	if err != nil {
		return fallbackWeekStarts(first, monthEnd)
	}

	starts := rule.All()
	if len(starts) == 0 {
		return fallbackWeekStarts(first, monthEnd)
	}
	// Week starts stay at local midnight across DST changes.
	loc := ref.Location()
	for i, start := range starts {
		local := start.In(loc)
		starts[i] = time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	}
	return starts
}

func fallbackWeekStarts(first, until time.Time) []time.Time {
	starts := make([]time.Time, 0, 6)
	for week := first; !week.After(until); week = week.AddDate(0, 0, 7) {
		starts = append(starts, week)
	}
	return starts
}

func FormatHM(minutes int) string {
	if minutes < 0 {
		minutes = 0
	}
	return fmt.Sprintf("%dh %dm", minutes/60, minutes%60)
}
