package state

import (
	"fmt"
	"html"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rbright/waybar-weekfitter/internal/planner"
)

type MenuData struct {
	StatusLine    string
	Authenticated bool
	Weeks         []planner.WeeklySummary
	Items         []planner.Event
	PendingDraft  *planner.Draft
}

// WriteMenu renders the GTK menu waybar shows on right click. Item ids map
// to commands in the waybar menu-actions block.
func WriteMenu(path string, data MenuData) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create menu dir: %w", err)
	}

	var b strings.Builder
	b.WriteString("<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n")
	b.WriteString("<interface>\n")
	b.WriteString("  <object class=\"GtkMenu\" id=\"menu\">\n")

	if !data.Authenticated {
		writeMenuItem(&b, "login", fallback(data.StatusLine, "Not signed in")+" — Sign in…")
		writeSeparator(&b, "separator_actions")
		writeMenuItem(&b, "refresh", "Refresh")
		return finishMenu(path, &b)
	}

	writeMenuItem(&b, "noop", fallback(data.StatusLine, "No sport this week"))

	if data.PendingDraft != nil {
		writeSeparator(&b, "separator_pending")
		title := fallback(data.PendingDraft.Title, "Untitled")
		writeMenuItem(&b, "retry", fmt.Sprintf("Retry saving: %s", title))
		writeMenuItem(&b, "cancel", "Discard unsaved draft")
	}

	if len(data.Weeks) > 0 {
		writeSeparator(&b, "separator_weeks")
		for idx, week := range data.Weeks {
			writeMenuItem(&b, fmt.Sprintf("week_%d", idx+1), weekLabel(week))
		}
	}

	writeSeparator(&b, "separator_items")
	if len(data.Items) > 0 {
		for idx, item := range data.Items {
			label := fmt.Sprintf("%s — %s (%s)", formatStart(item), fallback(item.Title, "Untitled"), item.Category.Label())
			writeMenuItem(&b, fmt.Sprintf("edit_%d", idx+1), label)
		}
	} else {
		writeMenuItem(&b, "noop_items", "No upcoming events")
	}

	writeSeparator(&b, "separator_actions")
	writeMenuItem(&b, "add", "New event…")
	writeMenuItem(&b, "export_xlsx", "Export month to XLSX")
	writeMenuItem(&b, "export_ics", "Export events to iCalendar")
	writeMenuItem(&b, "refresh", "Refresh")
	writeMenuItem(&b, "logout", "Sign out")

	return finishMenu(path, &b)
}

func finishMenu(path string, b *strings.Builder) error {
	b.WriteString("  </object>\n")
	b.WriteString("</interface>\n")
	return writeFileAtomically(path, []byte(b.String()), 0o644)
}

func weekLabel(week planner.WeeklySummary) string {
	parts := make([]string, 0, len(planner.SportTypes))
	formatted := week.Formatted()
	for _, sportType := range planner.SportTypes {
		parts = append(parts, fmt.Sprintf("%s %s", sportType.Label(), formatted[sportType]))
	}
	return fmt.Sprintf("%s: %s", week.Label(), strings.Join(parts, " · "))
}

func writeMenuItem(b *strings.Builder, id, label string) {
	b.WriteString("    <child>\n")
	_, _ = fmt.Fprintf(b, "      <object class=\"GtkMenuItem\" id=\"%s\">\n", html.EscapeString(id))
	_, _ = fmt.Fprintf(b, "        <property name=\"label\">%s</property>\n", html.EscapeString(label))
	b.WriteString("      </object>\n")
	b.WriteString("    </child>\n")
}

func writeSeparator(b *strings.Builder, id string) {
	b.WriteString("    <child>\n")
	_, _ = fmt.Fprintf(b, "      <object class=\"GtkSeparatorMenuItem\" id=\"%s\" />\n", html.EscapeString(id))
	b.WriteString("    </child>\n")
}

func fallback(value, defaultValue string) string {
	if strings.TrimSpace(value) == "" {
		return defaultValue
	}
	return value
}

func formatStart(item planner.Event) string {
	if item.AllDay {
		return item.Start.Format("Mon 2.1.")
	}
	now := time.Now().In(item.Start.Location())
	if now.Year() == item.Start.Year() && now.YearDay() == item.Start.YearDay() {
		return item.Start.Format("15:04")
	}
	return item.Start.Format("Mon 15:04")
}
