package planner

import (
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
)

func SortEvents(items []Event) {
	sort.SliceStable(items, func(i, j int) bool {
		if !items[i].Start.Equal(items[j].Start) {
			return items[i].Start.Before(items[j].Start)
		}
		if !strings.EqualFold(items[i].Title, items[j].Title) {
			return strings.ToLower(items[i].Title) < strings.ToLower(items[j].Title)
		}
		return items[i].ID < items[j].ID
	})
}

func FindByID(items []Event, id string) (Event, bool) {
	trimmed := strings.TrimSpace(id)
	for _, item := range items {
		if item.ID == trimmed {
			return item, true
		}
	}
	return Event{}, false
}

// Upcoming lists events that have not ended yet and start within the window.
func Upcoming(items []Event, now time.Time, within time.Duration, maxItems int, includeAllDay bool) []Event {
	if len(items) == 0 || maxItems <= 0 {
		return nil
	}

	windowEnd := now.Add(within)
	copyItems := make([]Event, 0, len(items))
	for _, item := range items {
		if !includeAllDay && item.AllDay {
			continue
		}
		if !item.End.After(now) {
			continue
		}
		if item.Start.After(windowEnd) {
			continue
		}
		copyItems = append(copyItems, item)
	}

	SortEvents(copyItems)
	if len(copyItems) > maxItems {
		copyItems = copyItems[:maxItems]
	}
	return copyItems
}

// InMonth keeps events starting in the month containing ref.
func InMonth(items []Event, ref time.Time) []Event {
	monthStart := time.Date(ref.Year(), ref.Month(), 1, 0, 0, 0, 0, ref.Location())
	monthEnd := monthStart.AddDate(0, 1, 0)

	filtered := make([]Event, 0, len(items))
	for _, item := range items {
		if item.Start.Before(monthStart) || !item.Start.Before(monthEnd) {
			continue
		}
		filtered = append(filtered, item)
	}
	SortEvents(filtered)
	return filtered
}

func HumanizeDuration(d time.Duration) string {
	if d <= 0 {
		return "now"
	}

	minutes := int(math.Ceil(d.Minutes()))
	days := minutes / (24 * 60)
	remaining := minutes % (24 * 60)
	hours := remaining / 60
	mins := remaining % 60

	parts := make([]string, 0, 3)
	if days > 0 {
		parts = append(parts, strconv.Itoa(days)+"d")
	}
	if hours > 0 {
		parts = append(parts, strconv.Itoa(hours)+"h")
	}
	if mins > 0 {
		parts = append(parts, strconv.Itoa(mins)+"m")
	}
	if len(parts) == 0 {
		parts = append(parts, "0m")
	}
	return strings.Join(parts, " ")
}
