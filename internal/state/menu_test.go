package state

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rbright/waybar-weekfitter/internal/planner"
)

func readMenu(t *testing.T, path string) string {
	t.Helper()
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read menu: %v", err)
	}
	return string(raw)
}

func TestWriteMenu_ContainsExpectedActions(t *testing.T) {
	t.Parallel()

	menuPath := filepath.Join(t.TempDir(), "weekfitter.xml")
	start := time.Now().Add(2 * time.Hour)
	items := []planner.Event{
		{ID: "1", Title: "Track <session>", Category: planner.CategorySport, Start: start, End: start.Add(time.Hour)},
		{ID: "2", Title: "Seminar", Category: planner.CategorySchool, Start: start.Add(24 * time.Hour), End: start.Add(25 * time.Hour)},
	}
	weeks := planner.WeeklySummaries(nil, time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC))
	draft := planner.NewDraft(planner.ViewDay, start)
	draft.SetTitle("Unsaved ride")

	err := WriteMenu(menuPath, MenuData{
		StatusLine:    "This week: 1h 15m",
		Authenticated: true,
		Weeks:         weeks,
		Items:         items,
		PendingDraft:  &draft,
	})
	if err != nil {
		t.Fatalf("write menu: %v", err)
	}
	text := readMenu(t, menuPath)

	for _, expected := range []string{"edit_1", "edit_2", "week_1", "week_5", "retry", "cancel", "add", "export_xlsx", "export_ics", "refresh", "logout"} {
		if !strings.Contains(text, "id=\""+expected+"\"") {
			t.Fatalf("missing menu action %q", expected)
		}
	}
	if !strings.Contains(text, "Track &lt;session&gt;") {
		t.Fatalf("expected escaped title in menu")
	}
	if !strings.Contains(text, "Running 0h 0m") {
		t.Fatalf("expected weekly breakdown in menu")
	}
}

func TestWriteMenu_Unauthenticated(t *testing.T) {
	t.Parallel()

	menuPath := filepath.Join(t.TempDir(), "weekfitter.xml")
	if err := WriteMenu(menuPath, MenuData{StatusLine: "Not signed in"}); err != nil {
		t.Fatalf("write menu: %v", err)
	}
	text := readMenu(t, menuPath)

	if !strings.Contains(text, "id=\"login\"") || !strings.Contains(text, "id=\"refresh\"") {
		t.Fatalf("expected login and refresh actions")
	}
	if strings.Contains(text, "id=\"add\"") {
		t.Fatalf("unauthenticated menu must not offer to add events")
	}
}
