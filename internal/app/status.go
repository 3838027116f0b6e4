package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/rbright/waybar-weekfitter/internal/export"
	"github.com/rbright/waybar-weekfitter/internal/planner"
	"github.com/rbright/waybar-weekfitter/internal/session"
	"github.com/rbright/waybar-weekfitter/internal/state"
	"github.com/rbright/waybar-weekfitter/internal/store"
	"github.com/rbright/waybar-weekfitter/internal/waybar"
	"github.com/rbright/waybar-weekfitter/internal/weekfitter"
)

const upcomingWindow = 14 * 24 * time.Hour

// workspace is everything one command needs to act for the signed-in user.
type workspace struct {
	session  session.Session
	expired  bool
	client   *weekfitter.Client
	store    *store.Store
	snapshot state.Snapshot
	restored bool
}

func (e *env) open() (workspace, error) {
	if err := state.EnsureDirs(e.cfg.StateDir, e.cfg.MenuDir); err != nil {
		return workspace{}, err
	}

	stored, err := state.LoadSession(e.cfg.SessionPath)
	if err != nil {
		return workspace{}, err
	}
	current := stored.Active(e.now())

	client, err := e.client(current.Token)
	if err != nil {
		return workspace{}, err
	}

	ws := workspace{
		session: current,
		expired: stored.Authenticated() && !current.Authenticated(),
		client:  client,
		store: store.New(client, current, store.Options{
			Location:        e.cfg.Location,
			DeleteWithOwner: e.cfg.DeleteWithOwner,
			Logger:          e.logger,
		}),
	}

	snapshot, err := state.LoadSnapshot(e.cfg.EventsPath)
	if err != nil {
		e.logger.Warn("ignoring unreadable events snapshot", zap.Error(err))
	}
	if owner := current.Owner(); owner != "" && snapshot.Owner == owner {
		ws.snapshot = snapshot
		ws.store.Restore(snapshot.Events)
		ws.restored = true
	}
	return ws, nil
}

// openSignedIn is open for commands that act on the user's events.
func (e *env) openSignedIn() (workspace, error) {
	ws, err := e.open()
	if err != nil {
		return workspace{}, err
	}
	if !ws.session.Authenticated() {
		return workspace{}, fmt.Errorf("%w: run waybar-weekfitter login", store.ErrUnauthenticated)
	}
	return ws, nil
}

func (e *env) client(token string) (*weekfitter.Client, error) {
	return weekfitter.New(e.cfg.APIURL, e.cfg.Timeout,
		weekfitter.WithToken(token),
		weekfitter.WithLogger(e.logger),
	)
}

func (e *env) buildStatus(ctx context.Context) (waybar.Output, error) {
	ws, err := e.open()
	if err != nil {
		return waybar.Output{}, err
	}
	if !ws.session.Authenticated() {
		message := "Not signed in"
		if ws.expired {
			message = "Session expired"
		}
		return e.publishSignedOut(message)
	}

	events, err := ws.store.Load(ctx)
	if err != nil {
		if weekfitter.IsStatus(err, http.StatusUnauthorized) {
			if clearErr := state.ClearSession(e.cfg.SessionPath); clearErr != nil {
				return waybar.Output{}, clearErr
			}
			return e.publishSignedOut("Session expired")
		}

		e.logger.Warn("event load failed", zap.Error(err))
		if ws.restored {
			return e.publish(ws, ws.store.Events(), err.Error())
		}
		if menuErr := state.WriteMenu(e.cfg.MenuPath, state.MenuData{StatusLine: "Backend unreachable", Authenticated: true}); menuErr != nil {
			return waybar.Output{}, menuErr
		}
		return waybar.RenderError(fmt.Sprintf("Failed to load events: %s", err.Error())), nil
	}

	return e.publish(ws, events, "")
}

// publish writes the events snapshot and the menu, and renders the module.
// A non-empty stale message marks events as cached from an earlier load.
func (e *env) publish(ws workspace, events []planner.Event, stale string) (waybar.Output, error) {
	now := e.now().In(e.cfg.Location)
	upcoming := planner.Upcoming(events, now, upcomingWindow, e.cfg.MaxItems, true)

	menuIDs := make([]string, 0, len(upcoming))
	for _, item := range upcoming {
		menuIDs = append(menuIDs, item.ID)
	}

	loadedAt := now
	if stale != "" && !ws.snapshot.LoadedAt.IsZero() {
		loadedAt = ws.snapshot.LoadedAt
	}
	if err := state.SaveSnapshot(e.cfg.EventsPath, state.Snapshot{
		Owner:    ws.session.Owner(),
		LoadedAt: loadedAt,
		Events:   events,
		MenuIDs:  menuIDs,
	}); err != nil {
		return waybar.Output{}, err
	}

	pending, err := e.pendingDraft()
	if err != nil {
		return waybar.Output{}, err
	}

	week := planner.CurrentWeek(events, now)
	month := planner.WeeklySummaries(events, now)
	statusLine := "This week: " + planner.FormatHM(week.TotalMinutes())
	if week.TotalMinutes() == 0 {
		statusLine = "No sport this week"
	}

	if err := state.WriteMenu(e.cfg.MenuPath, state.MenuData{
		StatusLine:    statusLine,
		Authenticated: true,
		Weeks:         month,
		Items:         upcoming,
		PendingDraft:  pending,
	}); err != nil {
		return waybar.Output{}, err
	}

	return waybar.Render(waybar.Status{
		Now:          now,
		Greeting:     ws.session.Greeting(),
		Week:         week,
		Month:        month,
		Upcoming:     upcoming,
		PendingDraft: pending,
		StaleError:   stale,
	}), nil
}

func (e *env) publishSignedOut(message string) (waybar.Output, error) {
	if err := state.SaveSnapshot(e.cfg.EventsPath, state.Snapshot{}); err != nil {
		return waybar.Output{}, err
	}
	if err := state.WriteMenu(e.cfg.MenuPath, state.MenuData{StatusLine: message}); err != nil {
		return waybar.Output{}, err
	}
	return waybar.RenderUnauthenticated(message), nil
}

func (e *env) pendingDraft() (*planner.Draft, error) {
	pending, err := state.LoadDraft(e.cfg.DraftPath)
	if errors.Is(err, state.ErrNoPendingDraft) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &pending.Draft, nil
}

// loadEvents fetches the user's events and falls back to the last snapshot
// when the backend cannot be reached.
func (e *env) loadEvents(ctx context.Context, ws workspace) ([]planner.Event, error) {
	events, err := ws.store.Load(ctx)
	if err == nil {
		return events, nil
	}
	if !ws.restored {
		return nil, err
	}
	e.logger.Warn("using cached events", zap.Time("loadedAt", ws.snapshot.LoadedAt), zap.Error(err))
	return ws.store.Events(), nil
}

func (e *env) weeks(ctx context.Context, opts reportOptions) error {
	format, err := export.ParseFormat(opts.format)
	if err != nil {
		return err
	}
	ref, err := parseMonth(opts.month, e.now(), e.cfg.Location)
	if err != nil {
		return err
	}

	ws, err := e.openSignedIn()
	if err != nil {
		return err
	}
	events, err := e.loadEvents(ctx, ws)
	if err != nil {
		return err
	}
	return export.WriteWeeks(e.stdout, export.BuildWeeksReport(events, ref), format)
}

func (e *env) list(ctx context.Context, opts reportOptions) error {
	ref, err := parseMonth(opts.month, e.now(), e.cfg.Location)
	if err != nil {
		return err
	}

	ws, err := e.openSignedIn()
	if err != nil {
		return err
	}
	events, err := e.loadEvents(ctx, ws)
	if err != nil {
		return err
	}
	monthEvents := planner.InMonth(events, ref)

	if opts.json {
		encoder := json.NewEncoder(e.stdout)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(monthEvents); err != nil {
			return fmt.Errorf("encode events: %w", err)
		}
		return nil
	}

	if len(monthEvents) == 0 {
		_, _ = fmt.Fprintf(e.stdout, "No events in %s\n", ref.Format("January 2006"))
		return nil
	}
	for _, event := range monthEvents {
		_, _ = fmt.Fprintf(e.stdout, "%s  %-28s  %-7s %s  [%s]\n",
			formatWhen(event), event.Title, event.Category.Label(), eventDetails(event), event.ID)
	}
	return nil
}

func formatWhen(event planner.Event) string {
	if event.AllDay {
		return event.Start.Format("Mon 2006-01-02") + " all day"
	}
	return event.Start.Format("Mon 2006-01-02 15:04") + "-" + event.End.Format("15:04")
}

func eventDetails(event planner.Event) string {
	if event.Sport == nil {
		return ""
	}
	parts := []string{event.Sport.Type.Label()}
	if event.Sport.DurationMinutes != nil {
		parts = append(parts, planner.FormatHM(*event.Sport.DurationMinutes))
	}
	if event.Sport.DistanceKm != nil {
		parts = append(parts, fmt.Sprintf("%.2f km", *event.Sport.DistanceKm))
	}
	return strings.Join(parts, ", ")
}
