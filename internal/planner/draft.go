package planner

import (
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

const (
	DefaultSlotSpan = 30 * time.Minute

	monthSlotHour = 8
	startNudge    = time.Hour
)

var (
	ErrInvalidDraft = errors.New("invalid draft")

	validate = newValidator()
)

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Draft is the in-progress copy of an event held while it is being created or
// edited. PendingFile is a local path that still has to be uploaded.
type Draft struct {
	ID              string    `json:"id,omitempty"`
	Title           string    `json:"title" validate:"required"`
	Category        Category  `json:"category" validate:"oneof=SPORT WORK SCHOOL REST OTHER"`
	Start           time.Time `json:"start" validate:"required"`
	End             time.Time `json:"end" validate:"required"`
	AllDay          bool      `json:"allDay"`
	Note            string    `json:"note,omitempty"`
	SportType       SportType `json:"sportType" validate:"omitempty,oneof=RUNNING CYCLING SWIMMING OTHER"`
	DurationMinutes *int      `json:"duration,omitempty" validate:"omitempty,gte=0"`
	DistanceKm      *float64  `json:"distance,omitempty" validate:"omitempty,gte=0"`
	FilePath        string    `json:"filePath,omitempty"`
	PendingFile     string    `json:"pendingFile,omitempty"`
	Reminders       []int     `json:"reminders,omitempty" validate:"dive,oneof=5 15 30 60 120 1440 2880 10080"`

	// EndEdited is set once the end was entered by hand; start edits stop
	// moving it from then on.
	EndEdited bool `json:"endEdited,omitempty"`
}

// SlotInterval derives the default interval for a click on an empty slot.
// Month cells carry no time of day, so they snap to 08:00-08:30.
func SlotInterval(view View, at time.Time) (time.Time, time.Time) {
	if view == ViewMonth {
		start := time.Date(at.Year(), at.Month(), at.Day(), monthSlotHour, 0, 0, 0, at.Location())
		return start, start.Add(DefaultSlotSpan)
	}
	return at, at.Add(DefaultSlotSpan)
}

func NewDraft(view View, at time.Time) Draft {
	start, end := SlotInterval(view, at)
	return Draft{
		Category:  CategoryOther,
		SportType: SportOther,
		Start:     start,
		End:       end,
		Reminders: []int{60},
	}
}

func DraftFromEvent(event Event) Draft {
	draft := Draft{
		ID:        event.ID,
		Title:     event.Title,
		Category:  event.Category,
		Start:     event.Start,
		End:       event.End,
		AllDay:    event.AllDay,
		Note:      event.Description,
		SportType: SportOther,
		Reminders: slices.Clone(event.Reminders),
		// Only an untouched default span follows start edits.
		EndEdited: event.End.Sub(event.Start) != DefaultSlotSpan,
	}
	if event.Sport != nil {
		if event.Sport.Type != "" {
			draft.SportType = event.Sport.Type
		}
		if event.Sport.DurationMinutes != nil {
			draft.DurationMinutes = IntPtr(*event.Sport.DurationMinutes)
		}
		draft.DistanceKm = copyFloat(event.Sport.DistanceKm)
		draft.FilePath = event.Sport.FilePath
	}
	return draft
}

func (d *Draft) IsNew() bool {
	return strings.TrimSpace(d.ID) == ""
}

func (d *Draft) SetTitle(title string) {
	d.Title = sanitize(title)
}

func (d *Draft) SetNote(note string) {
	d.Note = strings.TrimSpace(note)
}

func (d *Draft) SetCategory(category Category) {
	d.Category = category
	if category == CategorySport {
		d.AllDay = false
	}
}

func (d *Draft) SetAllDay(allDay bool) {
	if d.Category == CategorySport {
		d.AllDay = false
		return
	}
	d.AllDay = allDay
}

func (d *Draft) SetSportType(sportType SportType) {
	d.SportType = sportType
}

func (d *Draft) SetDistance(km *float64) {
	d.DistanceKm = copyFloat(km)
}

// SetDuration stores the duration and keeps End = Start + duration. Clearing
// the duration leaves End where it is.
func (d *Draft) SetDuration(minutes *int) {
	if minutes == nil {
		d.DurationMinutes = nil
		return
	}
	d.DurationMinutes = IntPtr(*minutes)
	if !d.Start.IsZero() {
		d.End = d.Start.Add(time.Duration(*minutes) * time.Minute)
	}
}

func (d *Draft) SetStart(start time.Time) {
	d.Start = start
	switch {
	case d.DurationMinutes != nil:
		d.End = start.Add(time.Duration(*d.DurationMinutes) * time.Minute)
	case !d.EndEdited:
		d.End = start.Add(startNudge)
	}
}

func (d *Draft) SetEnd(end time.Time) {
	d.End = end
	d.EndEdited = true
}

func (d *Draft) AttachFile(path string) {
	d.PendingFile = strings.TrimSpace(path)
}

func (d *Draft) SetReminders(minutes []int) {
	d.Reminders = normalizeReminders(minutes)
}

func (d *Draft) Validate() error {
	err := validate.Struct(d)
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return fmt.Errorf("%w: %v", ErrInvalidDraft, err)
	}

	messages := make([]string, 0, len(validationErrs))
	for _, fieldErr := range validationErrs {
		messages = append(messages, describeFieldError(fieldErr))
	}
	return fmt.Errorf("%w: %s", ErrInvalidDraft, strings.Join(messages, "; "))
}

func describeFieldError(fieldErr validator.FieldError) string {
	field := fieldErr.Field()
	switch fieldErr.Tag() {
	case "required":
		return field + " is required"
	case "oneof":
		return fmt.Sprintf("%s must be one of %s", field, fieldErr.Param())
	case "gte":
		return fmt.Sprintf("%s must not be negative", field)
	default:
		return fmt.Sprintf("%s failed %s", field, fieldErr.Tag())
	}
}

// Record builds the backend payload for the draft.
func (d *Draft) Record() Record {
	record := Record{
		ID:            RecordID(strings.TrimSpace(d.ID)),
		Title:         d.Title,
		StartTime:     FormatWallClock(d.Start),
		EndTime:       FormatWallClock(d.End),
		Notifications: slices.Clone(d.Reminders),
	}
	d.variant().apply(&record)
	return record
}

func (d *Draft) variant() variant {
	if d.Category == CategorySport {
		return sportVariant{
			details: SportDetails{
				Type:            d.SportType,
				DurationMinutes: d.DurationMinutes,
				DistanceKm:      d.DistanceKm,
				FilePath:        d.FilePath,
			},
			note: d.Note,
		}
	}
	category := d.Category
	if category == "" {
		category = CategoryOther
	}
	return genericVariant{category: category, allDay: d.AllDay, note: d.Note}
}
