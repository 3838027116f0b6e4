package planner

import "time"

type State int

const (
	StateIdle State = iota
	StateCreating
	StateEditing
)

func (s State) String() string {
	switch s {
	case StateCreating:
		return "creating"
	case StateEditing:
		return "editing"
	default:
		return "idle"
	}
}

// Editor tracks the single edit session of the calendar. A draft exists only
// while the editor is creating or editing.
type Editor struct {
	state State
	draft *Draft
}

func NewEditor() *Editor {
	return &Editor{state: StateIdle}
}

func (e *Editor) State() State {
	return e.state
}

// Draft returns the open draft, or nil when idle.
func (e *Editor) Draft() *Draft {
	return e.draft
}

func (e *Editor) SelectSlot(view View, at time.Time) *Draft {
	draft := NewDraft(view, at)
	e.draft = &draft
	e.state = StateCreating
	return e.draft
}

func (e *Editor) SelectEvent(event Event) *Draft {
	draft := DraftFromEvent(event)
	e.draft = &draft
	e.state = StateEditing
	return e.draft
}

// Resume reopens a draft kept from an earlier, failed save.
func (e *Editor) Resume(draft Draft) *Draft {
	e.draft = &draft
	if draft.IsNew() {
		e.state = StateCreating
	} else {
		e.state = StateEditing
	}
	return e.draft
}

// Close ends the session after a cancel, a successful save or a delete.
func (e *Editor) Close() {
	e.draft = nil
	e.state = StateIdle
}
