package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/rbright/waybar-weekfitter/internal/planner"
)

const productID = "-//rbright//waybar-weekfitter//EN"

// WriteICS serializes events as a VCALENDAR. Reminders become display alarms
// and sport details are appended to the description.
func WriteICS(w io.Writer, events []planner.Event, stamp time.Time) error {
	calendar := ics.NewCalendar()
	calendar.SetMethod(ics.MethodPublish)
	calendar.SetProductId(productID)
	calendar.SetXWRCalName("Weekfitter")

	for _, event := range events {
		if strings.TrimSpace(event.ID) == "" {
			continue
		}
		addEvent(calendar, event, stamp)
	}

	if err := calendar.SerializeTo(w); err != nil {
		return fmt.Errorf("write ics: %w", err)
	}
	return nil
}

func addEvent(calendar *ics.Calendar, event planner.Event, stamp time.Time) {
	vevent := calendar.AddEvent(event.ID + "@weekfitter")
	vevent.SetDtStampTime(stamp.UTC())
	vevent.SetSummary(event.Title)

	if event.AllDay {
		vevent.SetAllDayStartAt(event.Start)
		vevent.SetAllDayEndAt(event.End.AddDate(0, 0, 1))
	} else {
		vevent.SetStartAt(event.Start)
		vevent.SetEndAt(event.End)
	}

	vevent.SetProperty(ics.ComponentPropertyCategories, string(event.Category))
	vevent.SetProperty(ics.ComponentPropertyColor, event.Category.Color())

	if description := describe(event); description != "" {
		vevent.SetDescription(description)
	}

	for _, minutes := range event.Reminders {
		alarm := vevent.AddAlarm()
		alarm.SetAction(ics.ActionDisplay)
		alarm.SetTrigger(fmt.Sprintf("-PT%dM", minutes))
		alarm.SetProperty(ics.ComponentPropertyDescription, event.Title)
	}
}

func describe(event planner.Event) string {
	lines := make([]string, 0, 4)
	if note := strings.TrimSpace(event.Description); note != "" {
		lines = append(lines, note)
	}
	if event.Sport == nil {
		return strings.Join(lines, "\n")
	}

	lines = append(lines, "Sport: "+event.Sport.Type.Label())
	if event.Sport.DurationMinutes != nil {
		lines = append(lines, "Duration: "+planner.FormatHM(*event.Sport.DurationMinutes))
	}
	if event.Sport.DistanceKm != nil {
		lines = append(lines, "Distance: "+formatKm(*event.Sport.DistanceKm))
	}
	return strings.Join(lines, "\n")
}
