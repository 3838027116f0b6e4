package selector

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rbright/waybar-weekfitter/internal/planner"
)

const (
	fieldTitle = iota
	fieldCategory
	fieldSportType
	fieldStart
	fieldEnd
	fieldDuration
	fieldDistance
	fieldNote
	fieldFile
	fieldCount
)

const clearValue = "-"

func applyForm(draft *planner.Draft, fields []string, loc *time.Location) error {
	values := make([]string, fieldCount)
	for i := 0; i < len(fields) && i < fieldCount; i++ {
		values[i] = strings.TrimSpace(fields[i])
	}

	if values[fieldTitle] != "" {
		draft.SetTitle(values[fieldTitle])
	}
	if values[fieldCategory] != "" {
		draft.SetCategory(planner.ParseCategory(values[fieldCategory]))
	}
	if values[fieldSportType] != "" {
		draft.SetSportType(planner.ParseSportType(values[fieldSportType]))
	}

	if values[fieldStart] != "" {
		start, err := planner.ParseWallClock(values[fieldStart], loc)
		if err != nil {
			return fmt.Errorf("start: %w", err)
		}
		draft.SetStart(start)
	}

	durationSet := false
	switch values[fieldDuration] {
	case "":
	case clearValue:
		draft.SetDuration(nil)
	default:
		minutes, err := strconv.Atoi(values[fieldDuration])
		if err != nil || minutes < 0 {
			return fmt.Errorf("duration %q is not a number of minutes", values[fieldDuration])
		}
		// Non-sport events carry no duration.
		if draft.Category == planner.CategorySport {
			draft.SetDuration(planner.IntPtr(minutes))
			durationSet = true
		}
	}

	if values[fieldEnd] != "" && !durationSet {
		end, err := planner.ParseWallClock(values[fieldEnd], loc)
		if err != nil {
			return fmt.Errorf("end: %w", err)
		}
		draft.SetEnd(end)
	}

	switch values[fieldDistance] {
	case "":
	case clearValue:
		draft.SetDistance(nil)
	default:
		km, err := strconv.ParseFloat(strings.ReplaceAll(values[fieldDistance], ",", "."), 64)
		if err != nil || km < 0 {
			return fmt.Errorf("distance %q is not a number of kilometres", values[fieldDistance])
		}
		draft.SetDistance(planner.Float64Ptr(km))
	}

	switch values[fieldNote] {
	case "":
	case clearValue:
		draft.SetNote("")
	default:
		draft.SetNote(values[fieldNote])
	}

	switch values[fieldFile] {
	case "":
	case clearValue:
		draft.AttachFile("")
		draft.FilePath = ""
	default:
		draft.AttachFile(values[fieldFile])
	}
	return nil
}
