package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/rbright/waybar-weekfitter/internal/planner"
)

type eventOptions struct {
	view      string
	at        string
	form      bool
	title     string
	category  string
	sportType string
	start     string
	end       string
	duration  int
	distance  float64
	note      string
	file      string
	allDay    bool
	reminders []int
	changed   map[string]bool
}

var eventFieldFlags = []string{
	"title", "category", "sport-type", "all-day", "start", "end",
	"duration", "distance", "note", "file", "reminders",
}

func bindEventFlags(fs *pflag.FlagSet, opts *eventOptions) {
	fs.BoolVar(&opts.form, "form", false, "open the event form even when fields are given")
	fs.StringVar(&opts.title, "title", "", "event title")
	fs.StringVar(&opts.category, "category", "", "SPORT, WORK, SCHOOL, REST or OTHER")
	fs.StringVar(&opts.sportType, "sport-type", "", "RUNNING, CYCLING, SWIMMING or OTHER")
	fs.StringVar(&opts.start, "start", "", "start (YYYY-MM-DD HH:MM)")
	fs.StringVar(&opts.end, "end", "", "end (YYYY-MM-DD HH:MM), ignored when --duration is given too")
	fs.IntVar(&opts.duration, "duration", 0, "sport duration in minutes, SPORT events only")
	fs.Float64Var(&opts.distance, "distance", 0, "sport distance in km")
	fs.StringVar(&opts.note, "note", "", "description")
	fs.StringVar(&opts.file, "file", "", "GPX or JSON file to attach")
	fs.BoolVar(&opts.allDay, "all-day", false, "all-day event (not for SPORT)")
	fs.IntSliceVar(&opts.reminders, "reminders", nil, "reminder offsets in minutes")
}

func (o eventOptions) hasFields() bool {
	for _, name := range eventFieldFlags {
		if o.changed[name] {
			return true
		}
	}
	return false
}

// applyEventFlags updates draft through its setters in the same order the
// event form uses. A --duration given in the same call wins over --end.
func applyEventFlags(draft *planner.Draft, opts eventOptions, loc *time.Location) error {
	set := opts.changed

	if set["title"] {
		draft.SetTitle(opts.title)
	}
	if set["category"] {
		draft.SetCategory(planner.ParseCategory(opts.category))
	}
	if set["sport-type"] {
		draft.SetSportType(planner.ParseSportType(opts.sportType))
	}
	if set["all-day"] {
		draft.SetAllDay(opts.allDay)
	}
	if set["start"] {
		start, err := planner.ParseWallClock(opts.start, loc)
		if err != nil {
			return fmt.Errorf("start: %w", err)
		}
		draft.SetStart(start)
	}
	if set["duration"] {
		if draft.Category != planner.CategorySport {
			return fmt.Errorf("--duration only applies to SPORT events")
		}
		if opts.duration < 0 {
			return fmt.Errorf("duration must not be negative")
		}
		draft.SetDuration(planner.IntPtr(opts.duration))
	}
	if set["end"] && !set["duration"] {
		end, err := planner.ParseWallClock(opts.end, loc)
		if err != nil {
			return fmt.Errorf("end: %w", err)
		}
		draft.SetEnd(end)
	}
	if set["distance"] {
		if opts.distance < 0 {
			return fmt.Errorf("distance must not be negative")
		}
		draft.SetDistance(planner.Float64Ptr(opts.distance))
	}
	if set["note"] {
		draft.SetNote(opts.note)
	}
	if set["file"] {
		draft.AttachFile(opts.file)
	}
	if set["reminders"] {
		draft.SetReminders(opts.reminders)
	}
	return nil
}

func parseMonth(value string, now time.Time, loc *time.Location) (time.Time, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return now.In(loc), nil
	}
	parsed, err := time.ParseInLocation("2006-01", trimmed, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid month %q (want YYYY-MM)", value)
	}
	return parsed, nil
}
