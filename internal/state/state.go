package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rbright/waybar-weekfitter/internal/planner"
	"github.com/rbright/waybar-weekfitter/internal/session"
)

var ErrNoPendingDraft = errors.New("no pending draft")

// Snapshot is the event list of the last successful load, kept so menu
// clicks can address events by position without another request. MenuIDs
// lists the event ids in the order the menu shows them.
type Snapshot struct {
	Owner    string          `json:"owner"`
	LoadedAt time.Time       `json:"loadedAt"`
	Events   []planner.Event `json:"events"`
	MenuIDs  []string        `json:"menuIds,omitempty"`
}

// MenuEvent resolves the 1-based menu position to its event.
func (s Snapshot) MenuEvent(position int) (planner.Event, bool) {
	if position < 1 || position > len(s.MenuIDs) {
		return planner.Event{}, false
	}
	return planner.FindByID(s.Events, s.MenuIDs[position-1])
}

// PendingDraft is a draft whose save failed, kept for retry or cancel.
type PendingDraft struct {
	Draft   planner.Draft `json:"draft"`
	Error   string        `json:"error,omitempty"`
	SavedAt time.Time     `json:"savedAt"`
}

func EnsureDirs(stateDir, menuDir string) error {
	if err := os.MkdirAll(stateDir, 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	if err := os.MkdirAll(menuDir, 0o755); err != nil {
		return fmt.Errorf("create menu dir: %w", err)
	}
	return nil
}

func SaveSnapshot(path string, snapshot Snapshot) error {
	return saveJSON(path, "events", snapshot, 0o644)
}

// LoadSnapshot returns an empty snapshot when none was written yet.
func LoadSnapshot(path string) (Snapshot, error) {
	snapshot, _, err := loadJSON[Snapshot](path, "events")
	return snapshot, err
}

func SaveDraft(path string, pending PendingDraft) error {
	return saveJSON(path, "draft", pending, 0o600)
}

func LoadDraft(path string) (PendingDraft, error) {
	pending, exists, err := loadJSON[PendingDraft](path, "draft")
	if err != nil {
		return PendingDraft{}, err
	}
	if !exists {
		return PendingDraft{}, ErrNoPendingDraft
	}
	return pending, nil
}

func ClearDraft(path string) error {
	return removeFile(path, "draft")
}

func SaveSession(path string, current session.Session) error {
	return saveJSON(path, "session", current, 0o600)
}

// LoadSession returns session.Unauthenticated when no session was stored.
func LoadSession(path string) (session.Session, error) {
	current, exists, err := loadJSON[session.Session](path, "session")
	if err != nil {
		return session.Unauthenticated, err
	}
	if !exists {
		return session.Unauthenticated, nil
	}
	return current, nil
}

func ClearSession(path string) error {
	return removeFile(path, "session")
}

func saveJSON(path, what string, value any, mode os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create %s dir: %w", what, err)
	}

	payload, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", what, err)
	}

	return writeFileAtomically(path, append(payload, '\n'), mode)
}

func loadJSON[T any](path, what string) (T, bool, error) {
	var value T
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return value, false, nil
		}
		return value, false, fmt.Errorf("read %s file: %w", what, err)
	}
	if len(strings.TrimSpace(string(raw))) == 0 {
		return value, false, nil
	}

	if err := json.Unmarshal(raw, &value); err != nil {
		return value, false, fmt.Errorf("decode %s file: %w", what, err)
	}
	return value, true, nil
}

func removeFile(path, what string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove %s file: %w", what, err)
	}
	return nil
}

func writeFileAtomically(path string, content []byte, mode os.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(content); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Chmod(mode); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
