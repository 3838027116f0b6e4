package planner

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"
)

// WireLayout is the local wall-clock layout the backend stores and returns.
const WireLayout = "2006-01-02T15:04"

var inputLayouts = []string{
	WireLayout,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04",
	"2006-01-02 15:04:05",
}

// RecordID accepts both the UUID strings of the current backend and the
// numeric identifiers older deployments still return.
type RecordID string

func (id *RecordID) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*id = ""
		return nil
	}
	if trimmed[0] == '"' {
		var value string
		if err := json.Unmarshal(trimmed, &value); err != nil {
			return err
		}
		*id = RecordID(strings.TrimSpace(value))
		return nil
	}
	var number json.Number
	if err := json.Unmarshal(trimmed, &number); err != nil {
		return fmt.Errorf("decode record id: %w", err)
	}
	*id = RecordID(number.String())
	return nil
}

// Record is the event shape exchanged with the backend.
type Record struct {
	ID               RecordID `json:"id,omitempty"`
	Title            string   `json:"title"`
	Description      *string  `json:"description"`
	StartTime        string   `json:"startTime"`
	EndTime          string   `json:"endTime"`
	Category         string   `json:"category"`
	AllDay           bool     `json:"allDay"`
	Duration         *float64 `json:"duration"`
	Distance         *float64 `json:"distance"`
	SportDescription *string  `json:"sportDescription"`
	SportType        *string  `json:"sportType"`
	FilePath         *string  `json:"filePath"`
	Notifications    []int    `json:"notifications,omitempty"`
}

// ParseWallClock parses a backend timestamp as wall-clock time in loc.
// Offsets carried by RFC 3339 values are honoured and converted into loc.
func ParseWallClock(value string, loc *time.Location) (time.Time, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	if loc == nil {
		loc = time.Local
	}

	for _, layout := range inputLayouts {
		if parsed, err := time.ParseInLocation(layout, trimmed, loc); err == nil {
			return parsed, nil
		}
	}
	if parsed, err := time.Parse(time.RFC3339Nano, trimmed); err == nil {
		return parsed.In(loc), nil
	}
	return time.Time{}, fmt.Errorf("unable to parse timestamp %q", trimmed)
}

func FormatWallClock(value time.Time) string {
	return value.Format(WireLayout)
}

// Normalize maps a backend record onto the local event shape. Records without
// a parseable start and end are rejected.
func Normalize(record Record, loc *time.Location) (Event, bool) {
	start, err := ParseWallClock(record.StartTime, loc)
	if err != nil {
		return Event{}, false
	}
	end, err := ParseWallClock(record.EndTime, loc)
	if err != nil {
		return Event{}, false
	}

	event := Event{
		ID:        strings.TrimSpace(string(record.ID)),
		Title:     fallback(sanitize(record.Title), "Untitled"),
		Category:  ParseCategory(record.Category),
		Start:     start,
		End:       end,
		Reminders: normalizeReminders(record.Notifications),
	}

	if event.IsSport() {
		details := &SportDetails{
			Type:       ParseSportType(deref(record.SportType)),
			DistanceKm: copyFloat(record.Distance),
			FilePath:   strings.TrimSpace(deref(record.FilePath)),
		}
		if record.Duration != nil && !math.IsNaN(*record.Duration) {
			details.DurationMinutes = IntPtr(int(math.Round(*record.Duration)))
		}
		event.Sport = details
		// Older records kept the sport note in the generic description.
		event.Description = strings.TrimSpace(firstNonNil(record.SportDescription, record.Description))
		return event, true
	}

	event.AllDay = record.AllDay
	event.Description = strings.TrimSpace(deref(record.Description))
	return event, true
}

// variant serializes the category-specific half of a record. Every payload
// goes through exactly one variant, so sport fields and the generic note
// never travel together.
type variant interface {
	apply(record *Record)
}

type sportVariant struct {
	details SportDetails
	note    string
}

func (v sportVariant) apply(record *Record) {
	note := v.note
	sportType := string(v.details.Type)
	if sportType == "" {
		sportType = string(SportOther)
	}

	record.Category = string(CategorySport)
	record.AllDay = false
	record.Description = nil
	record.SportDescription = &note
	record.SportType = &sportType
	if v.details.DurationMinutes != nil {
		duration := float64(*v.details.DurationMinutes)
		record.Duration = &duration
	}
	record.Distance = copyFloat(v.details.DistanceKm)
	if path := strings.TrimSpace(v.details.FilePath); path != "" {
		record.FilePath = &path
	}
}

type genericVariant struct {
	category Category
	allDay   bool
	note     string
}

func (v genericVariant) apply(record *Record) {
	note := v.note
	record.Category = string(v.category)
	record.AllDay = v.allDay
	record.Description = &note
	record.SportDescription = nil
	record.SportType = nil
	record.Duration = nil
	record.Distance = nil
	record.FilePath = nil
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

func firstNonNil(values ...*string) string {
	for _, value := range values {
		if value != nil && strings.TrimSpace(*value) != "" {
			return *value
		}
	}
	return ""
}

func copyFloat(value *float64) *float64 {
	if value == nil {
		return nil
	}
	copied := *value
	return &copied
}

func normalizeReminders(values []int) []int {
	if len(values) == 0 {
		return nil
	}
	out := make([]int, 0, len(values))
	seen := make(map[int]struct{}, len(values))
	for _, value := range values {
		if value <= 0 {
			continue
		}
		if _, ok := seen[value]; ok {
			continue
		}
		seen[value] = struct{}{}
		out = append(out, value)
	}
	return out
}

func sanitize(value string) string {
	return strings.Join(strings.Fields(strings.TrimSpace(value)), " ")
}

func fallback(value, defaultValue string) string {
	if strings.TrimSpace(value) == "" {
		return defaultValue
	}
	return value
}
