package waybar

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rbright/waybar-weekfitter/internal/planner"
)

const (
	icon            = "󰖏"
	maxTooltipItems = 4
)

type Output struct {
	Text    string `json:"text"`
	Tooltip string `json:"tooltip"`
	Class   string `json:"class"`
}

type Status struct {
	Now          time.Time
	Greeting     string
	Week         planner.WeeklySummary
	Month        []planner.WeeklySummary
	Upcoming     []planner.Event
	PendingDraft *planner.Draft
	StaleError   string
}

// Render shows this week's total sport time; the tooltip breaks it down by
// sport type and lists the month's weeks and the next events.
func Render(status Status) Output {
	total := status.Week.TotalMinutes()
	text := fmt.Sprintf("%s %s", icon, planner.FormatHM(total))

	classes := []string{"idle"}
	if total > 0 {
		classes[0] = "active"
	}
	if status.PendingDraft != nil {
		classes = append(classes, "pending")
	}
	if strings.TrimSpace(status.StaleError) != "" {
		classes = append(classes, "stale")
	}

	return Output{
		Text:    text,
		Tooltip: tooltip(status),
		Class:   strings.Join(classes, " "),
	}
}

func RenderUnauthenticated(message string) Output {
	return Output{
		Text:    icon + " --",
		Tooltip: strings.TrimSpace(message) + "\nRun waybar-weekfitter login to sign in",
		Class:   "unauthenticated",
	}
}

func RenderError(message string) Output {
	return Output{
		Text:    icon + " !",
		Tooltip: strings.TrimSpace(message),
		Class:   "error",
	}
}

func Encode(output Output) ([]byte, error) {
	payload, err := json.Marshal(output)
	if err != nil {
		return nil, fmt.Errorf("marshal waybar output: %w", err)
	}
	return payload, nil
}

func tooltip(status Status) string {
	var b strings.Builder

	if greeting := strings.TrimSpace(status.Greeting); greeting != "" {
		_, _ = fmt.Fprintf(&b, "%s\n\n", greeting)
	}

	_, _ = fmt.Fprintf(&b, "This week (%s): %s\n", status.Week.Label(), planner.FormatHM(status.Week.TotalMinutes()))
	formatted := status.Week.Formatted()
	for _, sportType := range planner.SportTypes {
		line := fmt.Sprintf("  %s: %s", sportType.Label(), formatted[sportType])
		if km := status.Week.DistanceKm[sportType]; km > 0 {
			line += ", " + formatKm(km)
		}
		b.WriteString(line + "\n")
	}

	if len(status.Month) > 0 {
		_, _ = fmt.Fprintf(&b, "\n%s:\n", status.Month[len(status.Month)-1].Start.Format("January"))
		for _, week := range status.Month {
			_, _ = fmt.Fprintf(&b, "  %s: %s\n", week.Label(), planner.FormatHM(week.TotalMinutes()))
		}
	}

	if len(status.Upcoming) > 0 {
		b.WriteString("\nUpcoming:\n")
		limit := min(len(status.Upcoming), maxTooltipItems)
		for _, item := range status.Upcoming[:limit] {
			when := "now"
			if item.Start.After(status.Now) {
				when = "in " + planner.HumanizeDuration(item.Start.Sub(status.Now))
			}
			_, _ = fmt.Fprintf(&b, "  %s — %s (%s)\n", item.Start.Format("Mon 15:04"), item.Title, when)
		}
	}

	if status.PendingDraft != nil {
		_, _ = fmt.Fprintf(&b, "\nUnsaved draft: %s\n", status.PendingDraft.Title)
	}
	if stale := strings.TrimSpace(status.StaleError); stale != "" {
		_, _ = fmt.Fprintf(&b, "\nShowing cached events: %s\n", stale)
	}

	return strings.TrimRight(b.String(), "\n")
}

func formatKm(km float64) string {
	return strconv.FormatFloat(km, 'f', -1, 64) + " km"
}
