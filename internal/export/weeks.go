// Package export renders loaded events as iCalendar files, workbooks and
// weekly reports.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rbright/waybar-weekfitter/internal/planner"
	"gopkg.in/yaml.v3"
)

type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

func ParseFormat(value string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(value))) {
	case "", FormatText:
		return FormatText, nil
	case FormatJSON:
		return FormatJSON, nil
	case FormatYAML, "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unknown format %q (want text, json or yaml)", value)
	}
}

type WeekRow struct {
	Week       string             `json:"week" yaml:"week"`
	Start      string             `json:"start" yaml:"start"`
	End        string             `json:"end" yaml:"end"`
	Total      string             `json:"total" yaml:"total"`
	Durations  map[string]string  `json:"durations" yaml:"durations"`
	DistanceKm map[string]float64 `json:"distanceKm" yaml:"distanceKm"`
}

type WeeksReport struct {
	Month string    `json:"month" yaml:"month"`
	Weeks []WeekRow `json:"weeks" yaml:"weeks"`
}

// BuildWeeksReport summarizes every week intersecting the month of ref.
func BuildWeeksReport(events []planner.Event, ref time.Time) WeeksReport {
	summaries := planner.WeeklySummaries(events, ref)
	report := WeeksReport{
		Month: ref.Format("2006-01"),
		Weeks: make([]WeekRow, 0, len(summaries)),
	}
	for _, summary := range summaries {
		row := WeekRow{
			Week:       summary.Label(),
			Start:      summary.Start.Format(time.DateOnly),
			End:        summary.End.Format(time.DateOnly),
			Total:      planner.FormatHM(summary.TotalMinutes()),
			Durations:  make(map[string]string, len(planner.SportTypes)),
			DistanceKm: make(map[string]float64, len(planner.SportTypes)),
		}
		formatted := summary.Formatted()
		for _, sportType := range planner.SportTypes {
			row.Durations[string(sportType)] = formatted[sportType]
			row.DistanceKm[string(sportType)] = summary.DistanceKm[sportType]
		}
		report.Weeks = append(report.Weeks, row)
	}
	return report
}

func WriteWeeks(w io.Writer, report WeeksReport, format Format) error {
	switch format {
	case FormatJSON:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(report); err != nil {
			return fmt.Errorf("encode weeks: %w", err)
		}
		return nil
	case FormatYAML:
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2)
		if err := encoder.Encode(report); err != nil {
			return fmt.Errorf("encode weeks: %w", err)
		}
		return encoder.Close()
	default:
		return writeWeeksText(w, report)
	}
}

func writeWeeksText(w io.Writer, report WeeksReport) error {
	var b strings.Builder
	_, _ = fmt.Fprintf(&b, "%-16s", report.Month)
	for _, sportType := range planner.SportTypes {
		_, _ = fmt.Fprintf(&b, "%-10s", sportType.Label())
	}
	b.WriteString("Total\n")

	for _, week := range report.Weeks {
		_, _ = fmt.Fprintf(&b, "%-16s", week.Week)
		for _, sportType := range planner.SportTypes {
			_, _ = fmt.Fprintf(&b, "%-10s", week.Durations[string(sportType)])
		}
		b.WriteString(week.Total + "\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}
