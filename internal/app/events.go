package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/rbright/waybar-weekfitter/internal/planner"
	"github.com/rbright/waybar-weekfitter/internal/selector"
	"github.com/rbright/waybar-weekfitter/internal/state"
	"github.com/rbright/waybar-weekfitter/internal/store"
)

func (e *env) add(ctx context.Context, opts eventOptions) error {
	ws, err := e.openSignedIn()
	if err != nil {
		return err
	}

	view := e.cfg.DefaultView
	if strings.TrimSpace(opts.view) != "" {
		parsed, ok := planner.ParseView(opts.view)
		if !ok {
			return fmt.Errorf("unknown view %q", opts.view)
		}
		view = parsed
	}

	at := e.now().In(e.cfg.Location)
	if strings.TrimSpace(opts.at) != "" {
		at, err = planner.ParseWallClock(opts.at, e.cfg.Location)
		if err != nil {
			return fmt.Errorf("at: %w", err)
		}
	}

	editor := planner.NewEditor()
	editor.SelectSlot(view, at)
	if err := e.fillDraft(ctx, editor, opts); err != nil {
		return ignoreCancel(err)
	}
	return e.saveDraft(ctx, ws, editor)
}

func (e *env) edit(ctx context.Context, id string, opts eventOptions) error {
	ws, err := e.openSignedIn()
	if err != nil {
		return err
	}

	if strings.TrimSpace(id) == "" {
		id, err = e.pickEvent(ctx, ws, "Edit event")
		if err != nil {
			return ignoreCancel(err)
		}
	}

	event, err := e.findEvent(ctx, ws, id)
	if err != nil {
		return err
	}

	editor := planner.NewEditor()
	editor.SelectEvent(event)
	if err := e.fillDraft(ctx, editor, opts); err != nil {
		return ignoreCancel(err)
	}
	return e.saveDraft(ctx, ws, editor)
}

func (e *env) editItem(ctx context.Context, index int, opts eventOptions) error {
	id, err := e.menuEventID(index)
	if err != nil {
		return err
	}
	return e.edit(ctx, id, opts)
}

// fillDraft applies the given flags and opens the form when no fields were
// given or --form was passed.
func (e *env) fillDraft(ctx context.Context, editor *planner.Editor, opts eventOptions) error {
	draft := editor.Draft()
	if err := applyEventFlags(draft, opts, e.cfg.Location); err != nil {
		return err
	}
	if opts.hasFields() && !opts.form {
		return nil
	}

	d, err := e.dialogs()
	if err != nil {
		return err
	}
	edited, err := d.EditDraft(ctx, *draft)
	if err != nil {
		editor.Close()
		return err
	}
	*draft = edited
	return nil
}

// saveDraft persists the editor's draft. A failed save keeps the draft on
// disk for retry or cancel; a validation error does not.
func (e *env) saveDraft(ctx context.Context, ws workspace, editor *planner.Editor) error {
	draft := editor.Draft()
	if draft == nil {
		return nil
	}
	title := draft.Title

	err := ws.store.Save(ctx, draft)
	switch {
	case err == nil:
		editor.Close()
		if clearErr := state.ClearDraft(e.cfg.DraftPath); clearErr != nil {
			return clearErr
		}
		e.notifier.Info(ctx, "Event saved", title)
		_, err = e.publish(ws, ws.store.Events(), "")
		return err
	case errors.Is(err, store.ErrStale):
		editor.Close()
		if clearErr := state.ClearDraft(e.cfg.DraftPath); clearErr != nil {
			return clearErr
		}
		e.notifier.Alert(ctx, "Event saved", "Reloading events failed: "+err.Error())
		_, err = e.publish(ws, ws.store.Events(), err.Error())
		return err
	case errors.Is(err, planner.ErrInvalidDraft), errors.Is(err, store.ErrUnauthenticated):
		e.notifier.Alert(ctx, "Event not saved", err.Error())
		return err
	}

	pending := state.PendingDraft{Draft: *draft, Error: err.Error(), SavedAt: e.now()}
	if saveErr := state.SaveDraft(e.cfg.DraftPath, pending); saveErr != nil {
		e.logger.Error("keeping unsaved draft failed", zap.Error(saveErr))
	}
	e.notifier.Alert(ctx, "Saving failed", err.Error()+"\nUse Retry or Discard in the menu.")
	if _, publishErr := e.publish(ws, ws.store.Events(), ""); publishErr != nil {
		e.logger.Warn("menu update failed", zap.Error(publishErr))
	}
	return err
}

func (e *env) retry(ctx context.Context, form bool) error {
	pending, err := state.LoadDraft(e.cfg.DraftPath)
	if errors.Is(err, state.ErrNoPendingDraft) {
		_, _ = fmt.Fprintln(e.stdout, "No unsaved draft")
		return nil
	}
	if err != nil {
		return err
	}

	ws, err := e.openSignedIn()
	if err != nil {
		return err
	}

	editor := planner.NewEditor()
	editor.Resume(pending.Draft)
	if form {
		if err := e.fillDraft(ctx, editor, eventOptions{form: true}); err != nil {
			return ignoreCancel(err)
		}
	}
	return e.saveDraft(ctx, ws, editor)
}

func (e *env) cancel(ctx context.Context) error {
	if err := state.ClearDraft(e.cfg.DraftPath); err != nil {
		return err
	}
	_, err := e.buildStatus(ctx)
	return err
}

func (e *env) move(ctx context.Context, id, start string) error {
	ws, err := e.openSignedIn()
	if err != nil {
		return err
	}
	event, err := e.findEvent(ctx, ws, id)
	if err != nil {
		return err
	}
	newStart, err := planner.ParseWallClock(start, e.cfg.Location)
	if err != nil {
		return fmt.Errorf("start: %w", err)
	}
	return e.reschedule(ctx, ws, event, newStart, newStart.Add(event.End.Sub(event.Start)), "Event moved")
}

func (e *env) resize(ctx context.Context, id, end string) error {
	ws, err := e.openSignedIn()
	if err != nil {
		return err
	}
	event, err := e.findEvent(ctx, ws, id)
	if err != nil {
		return err
	}
	newEnd, err := planner.ParseWallClock(end, e.cfg.Location)
	if err != nil {
		return fmt.Errorf("end: %w", err)
	}
	return e.reschedule(ctx, ws, event, event.Start, newEnd, "Event resized")
}

func (e *env) reschedule(ctx context.Context, ws workspace, event planner.Event, start, end time.Time, done string) error {
	err := ws.store.Reschedule(ctx, event.ID, start, end)
	if _, publishErr := e.publish(ws, ws.store.Events(), ""); publishErr != nil {
		e.logger.Warn("menu update failed", zap.Error(publishErr))
	}
	if err != nil {
		e.notifier.Alert(ctx, "Change not saved", fmt.Sprintf("%s stays at %s: %s", event.Title, event.Start.Format("Mon 15:04"), err.Error()))
		return err
	}
	e.notifier.Info(ctx, done, fmt.Sprintf("%s, %s", event.Title, start.Format("Mon 2.1. 15:04")))
	return nil
}

func (e *env) delete(ctx context.Context, id string, yes bool) error {
	ws, err := e.openSignedIn()
	if err != nil {
		return err
	}
	if strings.TrimSpace(id) == "" {
		id, err = e.pickEvent(ctx, ws, "Delete event")
		if err != nil {
			return ignoreCancel(err)
		}
	}
	event, err := e.findEvent(ctx, ws, id)
	if err != nil {
		return err
	}

	if !yes {
		d, err := e.dialogs()
		if err != nil {
			return err
		}
		question := fmt.Sprintf("Delete %s on %s?", event.Title, event.Start.Format("Mon 2.1. 15:04"))
		if err := d.Confirm(ctx, question); err != nil {
			return ignoreCancel(err)
		}
	}

	err = ws.store.Delete(ctx, event.ID)
	switch {
	case err == nil:
		e.notifier.Info(ctx, "Event deleted", event.Title)
		_, err = e.publish(ws, ws.store.Events(), "")
		return err
	case errors.Is(err, store.ErrStale):
		e.notifier.Alert(ctx, "Event deleted", "Reloading events failed: "+err.Error())
		_, err = e.publish(ws, ws.store.Events(), err.Error())
		return err
	default:
		e.notifier.Alert(ctx, "Delete failed", fmt.Sprintf("%s was kept: %s", event.Title, err.Error()))
		return err
	}
}

func (e *env) deleteItem(ctx context.Context, index int, yes bool) error {
	id, err := e.menuEventID(index)
	if err != nil {
		return err
	}
	return e.delete(ctx, id, yes)
}

func (e *env) menuEventID(index int) (string, error) {
	snapshot, err := state.LoadSnapshot(e.cfg.EventsPath)
	if err != nil {
		return "", err
	}
	event, ok := snapshot.MenuEvent(index)
	if !ok {
		return "", fmt.Errorf("no event at menu position %d", index)
	}
	return event.ID, nil
}

// findEvent looks id up in the cached events and reloads once on a miss.
func (e *env) findEvent(ctx context.Context, ws workspace, id string) (planner.Event, error) {
	id = strings.TrimSpace(id)
	if event, ok := planner.FindByID(ws.store.Events(), id); ok {
		return event, nil
	}
	events, err := ws.store.Load(ctx)
	if err != nil {
		return planner.Event{}, err
	}
	if event, ok := planner.FindByID(events, id); ok {
		return event, nil
	}
	return planner.Event{}, fmt.Errorf("%w: %s", store.ErrNotFound, id)
}

func (e *env) pickEvent(ctx context.Context, ws workspace, title string) (string, error) {
	events, err := e.loadEvents(ctx, ws)
	if err != nil {
		return "", err
	}
	d, err := e.dialogs()
	if err != nil {
		return "", err
	}
	return d.PickEvent(ctx, title, events)
}

func ignoreCancel(err error) error {
	if errors.Is(err, selector.ErrSelectionCancelled) {
		return nil
	}
	return err
}
