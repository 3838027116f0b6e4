package state

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rbright/waybar-weekfitter/internal/planner"
	"github.com/rbright/waybar-weekfitter/internal/session"
)

func TestSession_RoundTripAndClear(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "session.json")

	loaded, err := LoadSession(path)
	if err != nil {
		t.Fatalf("load missing session: %v", err)
	}
	if loaded.Authenticated() {
		t.Fatalf("missing session must be unauthenticated")
	}

	if err := SaveSession(path, session.New("runner@example.com", "tok", "Jana")); err != nil {
		t.Fatalf("save session: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat session: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Fatalf("session file mode = %v, want 0600", info.Mode().Perm())
	}

	loaded, err = LoadSession(path)
	if err != nil {
		t.Fatalf("load session: %v", err)
	}
	if loaded.Owner() != "runner@example.com" || loaded.Token != "tok" {
		t.Fatalf("unexpected session: %+v", loaded)
	}

	if err := ClearSession(path); err != nil {
		t.Fatalf("clear session: %v", err)
	}
	if err := ClearSession(path); err != nil {
		t.Fatalf("clearing twice must succeed: %v", err)
	}
}

func TestDraft_PendingLifecycle(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "draft.json")
	if _, err := LoadDraft(path); !errors.Is(err, ErrNoPendingDraft) {
		t.Fatalf("expected ErrNoPendingDraft, got %v", err)
	}

	draft := planner.NewDraft(planner.ViewWeek, time.Date(2025, 1, 7, 7, 0, 0, 0, time.UTC))
	draft.SetTitle("Intervals")
	draft.SetCategory(planner.CategorySport)
	draft.SetDuration(planner.IntPtr(50))
	draft.AttachFile("/tmp/run.gpx")

	if err := SaveDraft(path, PendingDraft{Draft: draft, Error: "http 500", SavedAt: time.Now()}); err != nil {
		t.Fatalf("save draft: %v", err)
	}

	pending, err := LoadDraft(path)
	if err != nil {
		t.Fatalf("load draft: %v", err)
	}
	if pending.Draft.Title != "Intervals" || pending.Draft.PendingFile != "/tmp/run.gpx" {
		t.Fatalf("unexpected draft: %+v", pending.Draft)
	}
	if pending.Draft.DurationMinutes == nil || *pending.Draft.DurationMinutes != 50 {
		t.Fatalf("duration lost: %v", pending.Draft.DurationMinutes)
	}
	if !pending.Draft.End.Equal(draft.End) {
		t.Fatalf("end = %v, want %v", pending.Draft.End, draft.End)
	}

	if err := ClearDraft(path); err != nil {
		t.Fatalf("clear draft: %v", err)
	}
	if _, err := LoadDraft(path); !errors.Is(err, ErrNoPendingDraft) {
		t.Fatalf("expected ErrNoPendingDraft after clear, got %v", err)
	}
}

func TestSnapshot_MenuEvent(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "events.json")
	snapshot := Snapshot{
		Owner:    "runner@example.com",
		LoadedAt: time.Now().UTC(),
		Events: []planner.Event{
			{ID: "a", Title: "Swim"},
			{ID: "b", Title: "Work"},
		},
		MenuIDs: []string{"b", "a"},
	}
	if err := SaveSnapshot(path, snapshot); err != nil {
		t.Fatalf("save snapshot: %v", err)
	}

	loaded, err := LoadSnapshot(path)
	if err != nil {
		t.Fatalf("load snapshot: %v", err)
	}

	first, ok := loaded.MenuEvent(1)
	if !ok || first.Title != "Work" {
		t.Fatalf("MenuEvent(1) = %+v, %v", first, ok)
	}
	if _, ok := loaded.MenuEvent(3); ok {
		t.Fatalf("expected out of range position to fail")
	}
	if _, ok := loaded.MenuEvent(0); ok {
		t.Fatalf("expected position 0 to fail")
	}

	empty, err := LoadSnapshot(filepath.Join(t.TempDir(), "missing.json"))
	if err != nil || len(empty.Events) != 0 {
		t.Fatalf("missing snapshot must load empty, got %+v, %v", empty, err)
	}
}

func TestLoadSnapshot_CorruptFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "events.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write corrupt file: %v", err)
	}
	if _, err := LoadSnapshot(path); err == nil || !strings.Contains(err.Error(), "decode events file") {
		t.Fatalf("expected decode error, got %v", err)
	}
}
