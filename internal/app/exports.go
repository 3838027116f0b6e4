package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rbright/waybar-weekfitter/internal/export"
)

func (e *env) exportICS(ctx context.Context, output string) error {
	ws, err := e.openSignedIn()
	if err != nil {
		return err
	}
	events, err := e.loadEvents(ctx, ws)
	if err != nil {
		return err
	}

	now := e.now().In(e.cfg.Location)
	path := e.exportPath(output, fmt.Sprintf("weekfitter-%s.ics", now.Format("2006-01-02")))
	if err := writeExport(path, func(w io.Writer) error {
		return export.WriteICS(w, events, now)
	}); err != nil {
		e.notifier.Alert(ctx, "Export failed", err.Error())
		return err
	}

	e.notifier.Info(ctx, "Calendar exported", path)
	_, _ = fmt.Fprintln(e.stdout, path)
	return nil
}

func (e *env) exportXLSX(ctx context.Context, month, output string) error {
	ref, err := parseMonth(month, e.now(), e.cfg.Location)
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

	path := e.exportPath(output, fmt.Sprintf("weekfitter-%s.xlsx", ref.Format("2006-01")))
	if err := writeExport(path, func(w io.Writer) error {
		return export.WriteWorkbook(w, events, ref)
	}); err != nil {
		e.notifier.Alert(ctx, "Export failed", err.Error())
		return err
	}

	e.notifier.Info(ctx, "Month exported", path)
	_, _ = fmt.Fprintln(e.stdout, path)
	return nil
}

func (e *env) exportPath(output, name string) string {
	if trimmed := strings.TrimSpace(output); trimmed != "" {
		return trimmed
	}
	return filepath.Join(e.cfg.ExportDir, name)
}

// writeExport renders into a temporary file next to path and renames it into
// place.
func writeExport(path string, render func(io.Writer) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create export dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp export file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		_ = os.Remove(tmpPath)
	}()

	if err := render(tmp); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp export file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		return fmt.Errorf("chmod export file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("replace export file: %w", err)
	}
	return nil
}
