package export

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/rbright/waybar-weekfitter/internal/planner"
	"github.com/xuri/excelize/v2"
	"gopkg.in/yaml.v3"
)

func januaryEvents() []planner.Event {
	return []planner.Event{
		{
			ID:          "evt-1",
			Title:       "Tempo run",
			Category:    planner.CategorySport,
			Start:       time.Date(2025, 1, 7, 7, 0, 0, 0, time.UTC),
			End:         time.Date(2025, 1, 7, 7, 45, 0, 0, time.UTC),
			Description: "track",
			Sport: &planner.SportDetails{
				Type:            planner.SportRunning,
				DurationMinutes: planner.IntPtr(45),
				DistanceKm:      planner.Float64Ptr(9.5),
			},
			Reminders: []int{60},
		},
		{
			ID:       "evt-2",
			Title:    "Commute",
			Category: planner.CategorySport,
			Start:    time.Date(2025, 1, 8, 18, 0, 0, 0, time.UTC),
			End:      time.Date(2025, 1, 8, 18, 30, 0, 0, time.UTC),
			Sport:    &planner.SportDetails{Type: planner.SportCycling, DurationMinutes: planner.IntPtr(30)},
		},
		{
			ID:       "evt-3",
			Title:    "Holiday",
			Category: planner.CategoryRest,
			Start:    time.Date(2025, 1, 20, 0, 0, 0, 0, time.UTC),
			End:      time.Date(2025, 1, 20, 0, 0, 0, 0, time.UTC),
			AllDay:   true,
		},
	}
}

func TestWriteICS(t *testing.T) {
	t.Parallel()

	events := append(januaryEvents(), planner.Event{Title: "not saved yet"})

	var buf bytes.Buffer
	if err := WriteICS(&buf, events, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)); err != nil {
		t.Fatalf("WriteICS() error = %v", err)
	}

	raw := buf.String()
	for _, expected := range []string{"BEGIN:VALARM", "TRIGGER:-PT60M", "CATEGORIES:SPORT", "Duration: 0h 45m"} {
		if !strings.Contains(raw, expected) {
			t.Fatalf("ics output missing %q:\n%s", expected, raw)
		}
	}

	parsed, err := ics.ParseCalendar(strings.NewReader(raw))
	if err != nil {
		t.Fatalf("ParseCalendar() error = %v", err)
	}
	parsedEvents := parsed.Events()
	if len(parsedEvents) != 3 {
		t.Fatalf("expected 3 events, got %d", len(parsedEvents))
	}

	summary := parsedEvents[0].GetProperty(ics.ComponentPropertySummary)
	if summary == nil || summary.Value != "Tempo run" {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	start, err := parsedEvents[0].GetStartAt()
	if err != nil || !start.Equal(events[0].Start) {
		t.Fatalf("start = %v (%v), want %v", start, err, events[0].Start)
	}
}

func TestWriteWorkbook(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	ref := time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC)
	if err := WriteWorkbook(&buf, januaryEvents(), ref); err != nil {
		t.Fatalf("WriteWorkbook() error = %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("OpenReader() error = %v", err)
	}
	defer func() {
		_ = f.Close()
	}()

	if sheets := f.GetSheetList(); len(sheets) != 2 || sheets[0] != weeksSheet || sheets[1] != eventsSheet {
		t.Fatalf("unexpected sheets: %v", sheets)
	}

	rows, err := f.GetRows(weeksSheet)
	if err != nil {
		t.Fatalf("GetRows() error = %v", err)
	}
	// Title, header and the five weeks intersecting January 2025.
	if len(rows) != 7 {
		t.Fatalf("expected 7 rows, got %d", len(rows))
	}

	cells := map[string]string{"A2": "Week", "B2": "Running", "B4": "0h 45m", "C4": "0h 30m", "J4": "1h 15m", "B3": "0h 0m"}
	for cell, want := range cells {
		got, err := f.GetCellValue(weeksSheet, cell)
		if err != nil || got != want {
			t.Fatalf("%s = %q (%v), want %q", cell, got, err, want)
		}
	}

	title, err := f.GetCellValue(eventsSheet, "C2")
	if err != nil || title != "Tempo run" {
		t.Fatalf("first event title = %q (%v)", title, err)
	}
	category, _ := f.GetCellValue(eventsSheet, "D4")
	if category != planner.CategoryRest.Label() {
		t.Fatalf("third event category = %q", category)
	}
}

func TestParseFormat(t *testing.T) {
	t.Parallel()

	tests := map[string]Format{"": FormatText, "TEXT": FormatText, "json": FormatJSON, "yml": FormatYAML, " yaml ": FormatYAML}
	for input, want := range tests {
		got, err := ParseFormat(input)
		if err != nil || got != want {
			t.Fatalf("ParseFormat(%q) = %q, %v", input, got, err)
		}
	}
	if _, err := ParseFormat("csv"); err == nil {
		t.Fatalf("expected error for csv")
	}
}

func TestWriteWeeks(t *testing.T) {
	t.Parallel()

	report := BuildWeeksReport(januaryEvents(), time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC))
	if report.Month != "2025-01" || len(report.Weeks) != 5 {
		t.Fatalf("unexpected report: %+v", report)
	}

	var jsonBuf bytes.Buffer
	if err := WriteWeeks(&jsonBuf, report, FormatJSON); err != nil {
		t.Fatalf("WriteWeeks(json) error = %v", err)
	}
	var fromJSON WeeksReport
	if err := json.Unmarshal(jsonBuf.Bytes(), &fromJSON); err != nil {
		t.Fatalf("decode json: %v", err)
	}
	if fromJSON.Weeks[1].Durations["RUNNING"] != "0h 45m" || fromJSON.Weeks[1].DistanceKm["RUNNING"] != 9.5 {
		t.Fatalf("unexpected json week: %+v", fromJSON.Weeks[1])
	}

	var yamlBuf bytes.Buffer
	if err := WriteWeeks(&yamlBuf, report, FormatYAML); err != nil {
		t.Fatalf("WriteWeeks(yaml) error = %v", err)
	}
	var fromYAML WeeksReport
	if err := yaml.Unmarshal(yamlBuf.Bytes(), &fromYAML); err != nil {
		t.Fatalf("decode yaml: %v", err)
	}
	if fromYAML.Weeks[1].Total != "1h 15m" || fromYAML.Weeks[1].Start != "2025-01-06" {
		t.Fatalf("unexpected yaml week: %+v", fromYAML.Weeks[1])
	}

	var textBuf bytes.Buffer
	if err := WriteWeeks(&textBuf, report, FormatText); err != nil {
		t.Fatalf("WriteWeeks(text) error = %v", err)
	}
	lines := strings.Split(strings.TrimRight(textBuf.String(), "\n"), "\n")
	if len(lines) != 6 || !strings.HasPrefix(lines[0], "2025-01") || !strings.HasSuffix(lines[2], "1h 15m") {
		t.Fatalf("unexpected text output:\n%s", textBuf.String())
	}
}
