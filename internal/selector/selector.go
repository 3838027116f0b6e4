package selector

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/rbright/waybar-weekfitter/internal/planner"
)

var ErrSelectionCancelled = errors.New("selection cancelled")

const formSeparator = "\t"

type runner func(ctx context.Context, args ...string) ([]byte, error)

// Dialogs drives zenity. The zero value is not usable; use New.
type Dialogs struct {
	run runner
}

func New() (*Dialogs, error) {
	if !hasGraphicalSession() {
		return nil, fmt.Errorf("dialogs require a graphical session")
	}
	if _, err := exec.LookPath("zenity"); err != nil {
		return nil, fmt.Errorf("zenity is required for dialogs")
	}
	return &Dialogs{run: runZenity}, nil
}

func hasGraphicalSession() bool {
	return strings.TrimSpace(os.Getenv("WAYLAND_DISPLAY")) != "" || strings.TrimSpace(os.Getenv("DISPLAY")) != ""
}

func runZenity(ctx context.Context, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, "zenity", args...)
	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitCode() == 1 {
			return nil, ErrSelectionCancelled
		}
		return nil, fmt.Errorf("zenity failed: %w", err)
	}
	return out, nil
}

// PickEvent lets the user choose one event and returns its id.
func (d *Dialogs) PickEvent(ctx context.Context, title string, events []planner.Event) (string, error) {
	if len(events) == 0 {
		return "", fmt.Errorf("no events available")
	}

	args := []string{
		"--list",
		"--title=" + title,
		"--modal",
		"--width=860",
		"--height=560",
		"--print-column=5",
		"--column=Start",
		"--column=Title",
		"--column=Category",
		"--column=Details",
		"--column=ID",
		"--hide-column=5",
	}
	for _, event := range events {
		args = append(args,
			event.Start.Format("Mon 2.1. 15:04"),
			event.Title,
			event.Category.Label(),
			eventDetails(event),
			event.ID,
		)
	}

	out, err := d.run(ctx, args...)
	if err != nil {
		return "", err
	}
	selected := parseSelectionOutput(string(out))
	if len(selected) == 0 {
		return "", ErrSelectionCancelled
	}
	return selected[0], nil
}

// EditDraft shows the event form. Blank fields keep the draft's current
// value and "-" clears an optional one.
func (d *Dialogs) EditDraft(ctx context.Context, draft planner.Draft) (planner.Draft, error) {
	heading := "New event"
	if !draft.IsNew() {
		heading = "Edit " + draft.Title
	}

	args := []string{
		"--forms",
		"--title=Weekfitter",
		"--text=" + heading + "\n" + describeDraft(draft),
		"--separator=" + formSeparator,
		"--add-entry=Title",
		"--add-combo=Category",
		"--combo-values=" + joinCategories(),
		"--add-combo=Sport type",
		"--combo-values=" + joinSportTypes(),
		"--add-entry=Start (YYYY-MM-DD HH:MM)",
		"--add-entry=End (YYYY-MM-DD HH:MM)",
		"--add-entry=Duration (minutes)",
		"--add-entry=Distance (km)",
		"--add-entry=Note",
		"--add-entry=GPX/JSON file",
	}

	out, err := d.run(ctx, args...)
	if err != nil {
		return planner.Draft{}, err
	}

	fields := parseFormOutput(string(out))
	if err := applyForm(&draft, fields, draft.Start.Location()); err != nil {
		return planner.Draft{}, err
	}
	return draft, nil
}

// Confirm asks a yes/no question; "no" is reported as ErrSelectionCancelled.
func (d *Dialogs) Confirm(ctx context.Context, question string) error {
	_, err := d.run(ctx, "--question", "--title=Weekfitter", "--text="+question)
	return err
}

func (d *Dialogs) Credentials(ctx context.Context) (string, string, error) {
	out, err := d.run(ctx, "--password", "--username", "--title=Weekfitter sign in")
	if err != nil {
		return "", "", err
	}
	email, password, ok := strings.Cut(strings.TrimRight(string(out), "\n"), "|")
	if !ok || strings.TrimSpace(email) == "" {
		return "", "", ErrSelectionCancelled
	}
	return strings.TrimSpace(email), password, nil
}

func parseSelectionOutput(raw string) []string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil
	}

	parts := strings.FieldsFunc(trimmed, func(r rune) bool {
		return r == '\n' || r == '|'
	})
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		value := strings.TrimSpace(part)
		if value == "" {
			continue
		}
		result = append(result, value)
	}
	return result
}

func parseFormOutput(raw string) []string {
	return strings.Split(strings.TrimRight(raw, "\n"), formSeparator)
}

func eventDetails(event planner.Event) string {
	if event.Sport == nil {
		if event.AllDay {
			return "all day"
		}
		return event.End.Sub(event.Start).String()
	}
	details := []string{event.Sport.Type.Label()}
	if event.Sport.DurationMinutes != nil {
		details = append(details, planner.FormatHM(*event.Sport.DurationMinutes))
	}
	if event.Sport.DistanceKm != nil {
		details = append(details, fmt.Sprintf("%.2f km", *event.Sport.DistanceKm))
	}
	return strings.Join(details, ", ")
}

func describeDraft(draft planner.Draft) string {
	return fmt.Sprintf("%s, %s to %s", draft.Category.Label(),
		draft.Start.Format("2006-01-02 15:04"), draft.End.Format("2006-01-02 15:04"))
}

func joinCategories() string {
	values := make([]string, 0, len(planner.Categories))
	for _, category := range planner.Categories {
		values = append(values, string(category))
	}
	return strings.Join(values, "|")
}

func joinSportTypes() string {
	values := make([]string, 0, len(planner.SportTypes))
	for _, sportType := range planner.SportTypes {
		values = append(values, string(sportType))
	}
	return strings.Join(values, "|")
}
