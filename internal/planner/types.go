package planner

import (
	"strings"
	"time"
)

type Category string

const (
	CategorySport  Category = "SPORT"
	CategoryWork   Category = "WORK"
	CategorySchool Category = "SCHOOL"
	CategoryRest   Category = "REST"
	CategoryOther  Category = "OTHER"
)

var Categories = []Category{CategorySport, CategoryWork, CategorySchool, CategoryRest, CategoryOther}

type SportType string

const (
	SportRunning  SportType = "RUNNING"
	SportCycling  SportType = "CYCLING"
	SportSwimming SportType = "SWIMMING"
	SportOther    SportType = "OTHER"
)

var SportTypes = []SportType{SportRunning, SportCycling, SportSwimming, SportOther}

// View is the calendar granularity a slot was selected in.
type View string

const (
	ViewMonth View = "month"
	ViewWeek  View = "week"
	ViewDay   View = "day"
)

// AllowedReminders are the offsets, in minutes before start, the backend
// schedules notifications for.
var AllowedReminders = []int{5, 15, 30, 60, 120, 1440, 2880, 10080}

type SportDetails struct {
	Type            SportType `json:"sportType"`
	DurationMinutes *int      `json:"duration,omitempty"`
	DistanceKm      *float64  `json:"distance,omitempty"`
	FilePath        string    `json:"filePath,omitempty"`
}

type Event struct {
	ID          string        `json:"id"`
	Title       string        `json:"title"`
	Category    Category      `json:"category"`
	Start       time.Time     `json:"start"`
	End         time.Time     `json:"end"`
	AllDay      bool          `json:"allDay"`
	Description string        `json:"description,omitempty"`
	Sport       *SportDetails `json:"sport,omitempty"`
	Reminders   []int         `json:"reminders,omitempty"`
}

func (e Event) IsSport() bool {
	return e.Category == CategorySport
}

func ParseCategory(value string) Category {
	normalized := Category(strings.ToUpper(strings.TrimSpace(value)))
	for _, category := range Categories {
		if category == normalized {
			return category
		}
	}
	return CategoryOther
}

func ParseSportType(value string) SportType {
	normalized := SportType(strings.ToUpper(strings.TrimSpace(value)))
	for _, sportType := range SportTypes {
		if sportType == normalized {
			return sportType
		}
	}
	return SportOther
}

func ParseView(value string) (View, bool) {
	switch View(strings.ToLower(strings.TrimSpace(value))) {
	case ViewMonth:
		return ViewMonth, true
	case ViewWeek:
		return ViewWeek, true
	case ViewDay:
		return ViewDay, true
	default:
		return "", false
	}
}

func (c Category) Color() string {
	switch c {
	case CategorySport:
		return "#28a745"
	case CategoryWork:
		return "#007bff"
	case CategorySchool:
		return "#ffc107"
	case CategoryRest:
		return "#6f42c1"
	default:
		return "#ff6a00"
	}
}

func (c Category) Label() string {
	switch c {
	case CategorySport:
		return "Sport"
	case CategoryWork:
		return "Work"
	case CategorySchool:
		return "School"
	case CategoryRest:
		return "Rest"
	default:
		return "Other"
	}
}

func (s SportType) Label() string {
	switch s {
	case SportRunning:
		return "Running"
	case SportCycling:
		return "Cycling"
	case SportSwimming:
		return "Swimming"
	default:
		return "Other"
	}
}

func IntPtr(v int) *int {
	return &v
}

func Float64Ptr(v float64) *float64 {
	return &v
}
