package planner

import (
	"encoding/json"
	"testing"
	"time"
)

func TestNormalize_DropsUnparseableTimes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		record Record
		ok     bool
	}{
		{name: "valid", record: Record{StartTime: "2025-01-01T08:00", EndTime: "2025-01-01T09:00"}, ok: true},
		{name: "seconds", record: Record{StartTime: "2025-01-01T08:00:00", EndTime: "2025-01-01T09:00:00"}, ok: true},
		{name: "missing_start", record: Record{EndTime: "2025-01-01T09:00"}, ok: false},
		{name: "garbage_end", record: Record{StartTime: "2025-01-01T08:00", EndTime: "soon"}, ok: false},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, ok := Normalize(tc.record, time.UTC)
			if ok != tc.ok {
				t.Fatalf("Normalize() ok = %v, want %v", ok, tc.ok)
			}
		})
	}
}

func TestNormalize_SportRecord(t *testing.T) {
	t.Parallel()

	payload := []byte(`{
		"id": 42,
		"title": "  Tempo   run ",
		"description": null,
		"startTime": "2025-01-07T07:00",
		"endTime": "2025-01-07T07:45",
		"category": "SPORT",
		"allDay": true,
		"duration": 44.6,
		"distance": 9.25,
		"sportDescription": "negative splits",
		"sportType": "running",
		"filePath": "/uploads/run.gpx",
		"notifications": [60, 60, 15]
	}`)

	var record Record
	if err := json.Unmarshal(payload, &record); err != nil {
		t.Fatalf("unmarshal record: %v", err)
	}

	event, ok := Normalize(record, time.UTC)
	if !ok {
		t.Fatalf("expected record to normalize")
	}
	if event.ID != "42" {
		t.Fatalf("id = %q, want 42", event.ID)
	}
	if event.Title != "Tempo run" {
		t.Fatalf("title = %q", event.Title)
	}
	if event.AllDay {
		t.Fatalf("sport events are never all-day")
	}
	if event.Description != "negative splits" {
		t.Fatalf("description = %q", event.Description)
	}
	if event.Sport == nil || event.Sport.Type != SportRunning {
		t.Fatalf("unexpected sport details: %+v", event.Sport)
	}
	if event.Sport.DurationMinutes == nil || *event.Sport.DurationMinutes != 45 {
		t.Fatalf("duration = %v, want 45", event.Sport.DurationMinutes)
	}
	if event.Sport.FilePath != "/uploads/run.gpx" {
		t.Fatalf("file path = %q", event.Sport.FilePath)
	}
	if len(event.Reminders) != 2 || event.Reminders[0] != 60 || event.Reminders[1] != 15 {
		t.Fatalf("reminders = %v", event.Reminders)
	}
}

func TestNormalize_GenericRecord(t *testing.T) {
	t.Parallel()

	description := "quarterly review"
	event, ok := Normalize(Record{
		ID:          "c0ffee",
		Title:       "",
		Description: &description,
		StartTime:   "2025-01-07",
		EndTime:     "2025-01-07T17:00",
		Category:    "homework",
	}, time.UTC)
	if ok {
		t.Fatalf("date-only start must be rejected, got %+v", event)
	}

	event, ok = Normalize(Record{
		ID:          "c0ffee",
		Description: &description,
		StartTime:   "2025-01-07T09:00",
		EndTime:     "2025-01-07T17:00",
		Category:    "homework",
		AllDay:      true,
	}, time.UTC)
	if !ok {
		t.Fatalf("expected record to normalize")
	}
	if event.Title != "Untitled" {
		t.Fatalf("title = %q, want Untitled", event.Title)
	}
	if event.Category != CategoryOther {
		t.Fatalf("unknown category must map to OTHER, got %s", event.Category)
	}
	if !event.AllDay || event.Sport != nil {
		t.Fatalf("unexpected generic event: %+v", event)
	}
	if event.Description != description {
		t.Fatalf("description = %q", event.Description)
	}
}

func TestParseWallClock_HonoursOffsets(t *testing.T) {
	t.Parallel()

	berlin := time.FixedZone("CET", 3600)
	parsed, err := ParseWallClock("2025-01-01T07:00:00Z", berlin)
	if err != nil {
		t.Fatalf("ParseWallClock() error = %v", err)
	}
	if parsed.Hour() != 8 {
		t.Fatalf("hour = %d, want 8", parsed.Hour())
	}

	wall, err := ParseWallClock("2025-01-01T07:00", berlin)
	if err != nil {
		t.Fatalf("ParseWallClock() error = %v", err)
	}
	if wall.Hour() != 7 || wall.Location() != berlin {
		t.Fatalf("wall clock value = %v", wall)
	}
}

func TestDraftRoundTrip(t *testing.T) {
	t.Parallel()

	original := Event{
		ID:          "abc",
		Title:       "Swim",
		Category:    CategorySport,
		Start:       time.Date(2025, 2, 3, 6, 30, 0, 0, time.UTC),
		End:         time.Date(2025, 2, 3, 7, 30, 0, 0, time.UTC),
		Description: "drills",
		Sport: &SportDetails{
			Type:            SportSwimming,
			DurationMinutes: IntPtr(60),
			DistanceKm:      Float64Ptr(2.4),
		},
		Reminders: []int{30},
	}

	draft := DraftFromEvent(original)
	payload, err := json.Marshal(draft.Record())
	if err != nil {
		t.Fatalf("marshal record: %v", err)
	}

	var decoded Record
	if err := json.Unmarshal(payload, &decoded); err != nil {
		t.Fatalf("unmarshal record: %v", err)
	}
	event, ok := Normalize(decoded, time.UTC)
	if !ok {
		t.Fatalf("expected round trip to normalize")
	}
	if event.ID != original.ID || event.Title != original.Title || event.Description != original.Description {
		t.Fatalf("round trip changed event: %+v", event)
	}
	if !event.Start.Equal(original.Start) || !event.End.Equal(original.End) {
		t.Fatalf("round trip changed interval: %v-%v", event.Start, event.End)
	}
	if *event.Sport.DurationMinutes != 60 || *event.Sport.DistanceKm != 2.4 {
		t.Fatalf("round trip changed sport details: %+v", event.Sport)
	}
}
