package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/rbright/waybar-weekfitter/internal/config"
	"github.com/rbright/waybar-weekfitter/internal/notify"
	"github.com/rbright/waybar-weekfitter/internal/planner"
	"github.com/rbright/waybar-weekfitter/internal/selector"
	"github.com/rbright/waybar-weekfitter/internal/waybar"
)

const Usage = "usage: waybar-weekfitter <status|refresh|weeks|list|add|edit|edit-item N|move ID|resize ID|delete|delete-item N|retry|cancel|login|logout|register|profile|forgot-password|reset-password|upload-photo PATH|export-ics|export-xlsx>"

// dialogs is the interactive surface; selector.Dialogs implements it with
// zenity.
type dialogs interface {
	PickEvent(ctx context.Context, title string, events []planner.Event) (string, error)
	EditDraft(ctx context.Context, draft planner.Draft) (planner.Draft, error)
	Confirm(ctx context.Context, question string) error
	Credentials(ctx context.Context) (string, string, error)
}

type env struct {
	cfg      config.Runtime
	stdout   io.Writer
	logger   *zap.Logger
	notifier *notify.Notifier
	dialogs  func() (dialogs, error)
	now      func() time.Time
}

func Run(ctx context.Context, args []string, cfg config.Runtime, logger *zap.Logger, stdout io.Writer) error {
	inv, err := parseArgs(args)
	if err != nil {
		return err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	e := &env{
		cfg:      cfg,
		stdout:   stdout,
		logger:   logger,
		notifier: notify.New(cfg.Notify, os.Stderr, logger),
		dialogs:  openDialogs,
		now:      time.Now,
	}
	return e.run(ctx, inv)
}

func openDialogs() (dialogs, error) {
	d, err := selector.New()
	if err != nil {
		return nil, err
	}
	return d, nil
}

func (e *env) run(ctx context.Context, inv invocation) error {
	switch inv.command {
	case "status":
		out, err := e.buildStatus(ctx)
		if err != nil {
			return err
		}
		return writeOutput(e.stdout, out)
	case "refresh":
		_, err := e.buildStatus(ctx)
		return err
	case "weeks":
		return e.weeks(ctx, inv.report)
	case "list":
		return e.list(ctx, inv.report)
	case "add":
		return e.add(ctx, inv.event)
	case "edit":
		return e.edit(ctx, inv.id, inv.event)
	case "edit-item":
		return e.editItem(ctx, inv.index, inv.event)
	case "move":
		return e.move(ctx, inv.id, inv.event.start)
	case "resize":
		return e.resize(ctx, inv.id, inv.event.end)
	case "delete":
		return e.delete(ctx, inv.id, inv.yes)
	case "delete-item":
		return e.deleteItem(ctx, inv.index, inv.yes)
	case "retry":
		return e.retry(ctx, inv.event.form)
	case "cancel":
		return e.cancel(ctx)
	case "login":
		return e.login(ctx, inv.account)
	case "logout":
		return e.logout(ctx)
	case "register":
		return e.register(ctx, inv.account)
	case "profile":
		return e.profile(ctx, inv.account)
	case "forgot-password":
		return e.forgotPassword(ctx, inv.account)
	case "reset-password":
		return e.resetPassword(ctx, inv.account)
	case "upload-photo":
		return e.uploadPhoto(ctx, inv.path)
	case "export-ics":
		return e.exportICS(ctx, inv.path)
	case "export-xlsx":
		return e.exportXLSX(ctx, inv.report.month, inv.path)
	default:
		return fmt.Errorf("unsupported command %q", inv.command)
	}
}

type invocation struct {
	command string
	index   int
	id      string
	path    string
	yes     bool
	event   eventOptions
	account accountOptions
	report  reportOptions
}

type reportOptions struct {
	month  string
	format string
	json   bool
}

type accountOptions struct {
	email     string
	password  string
	token     string
	firstName string
	lastName  string
	birthDate string
	gender    string
	changed   map[string]bool
}

func parseArgs(args []string) (invocation, error) {
	if len(args) == 0 {
		return invocation{command: "status"}, nil
	}

	inv := invocation{command: strings.TrimSpace(args[0])}
	fs := pflag.NewFlagSet(inv.command, pflag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var positional string
	switch inv.command {
	case "status", "refresh", "logout", "cancel":
	case "weeks":
		fs.StringVar(&inv.report.month, "month", "", "month to summarize (YYYY-MM)")
		fs.StringVar(&inv.report.format, "format", "text", "text, json or yaml")
	case "list":
		fs.StringVar(&inv.report.month, "month", "", "month to list (YYYY-MM)")
		fs.BoolVar(&inv.report.json, "json", false, "print events as JSON")
	case "add":
		bindEventFlags(fs, &inv.event)
		fs.StringVar(&inv.event.view, "view", "", "calendar view the slot was picked in (month, week, day)")
		fs.StringVar(&inv.event.at, "at", "", "slot time (YYYY-MM-DD HH:MM)")
	case "edit":
		bindEventFlags(fs, &inv.event)
		fs.StringVar(&inv.id, "id", "", "event id")
	case "edit-item":
		bindEventFlags(fs, &inv.event)
		positional = "index"
	case "move":
		fs.StringVar(&inv.event.start, "start", "", "new start (YYYY-MM-DD HH:MM)")
		positional = "id"
	case "resize":
		fs.StringVar(&inv.event.end, "end", "", "new end (YYYY-MM-DD HH:MM)")
		positional = "id"
	case "delete":
		fs.StringVar(&inv.id, "id", "", "event id")
		fs.BoolVarP(&inv.yes, "yes", "y", false, "skip confirmation")
	case "delete-item":
		fs.BoolVarP(&inv.yes, "yes", "y", false, "skip confirmation")
		positional = "index"
	case "retry":
		fs.BoolVar(&inv.event.form, "form", false, "edit the draft before saving")
	case "login":
		fs.StringVar(&inv.account.email, "email", "", "account e-mail")
		fs.StringVar(&inv.account.password, "password", "", "account password")
	case "register":
		fs.StringVar(&inv.account.email, "email", "", "account e-mail")
		fs.StringVar(&inv.account.password, "password", "", "account password")
		bindProfileFlags(fs, &inv.account)
	case "profile":
		bindProfileFlags(fs, &inv.account)
	case "forgot-password":
		fs.StringVar(&inv.account.email, "email", "", "account e-mail")
	case "reset-password":
		fs.StringVar(&inv.account.token, "token", "", "reset token from the e-mail")
		fs.StringVar(&inv.account.password, "password", "", "new password")
	case "upload-photo":
		positional = "path"
	case "export-ics":
		fs.StringVarP(&inv.path, "output", "o", "", "target file")
	case "export-xlsx":
		fs.StringVar(&inv.report.month, "month", "", "month to export (YYYY-MM)")
		fs.StringVarP(&inv.path, "output", "o", "", "target file")
	default:
		return invocation{}, errors.New(Usage)
	}

	if err := fs.Parse(args[1:]); err != nil {
		return invocation{}, fmt.Errorf("%s: %w", inv.command, err)
	}

	rest := fs.Args()
	if positional == "" {
		if len(rest) > 0 {
			return invocation{}, fmt.Errorf("unexpected argument %q", rest[0])
		}
	} else {
		if len(rest) != 1 {
			return invocation{}, fmt.Errorf("usage: waybar-weekfitter %s <%s>", inv.command, positional)
		}
		value := strings.TrimSpace(rest[0])
		switch positional {
		case "index":
			n, err := strconv.Atoi(value)
			if err != nil || n < 1 {
				return invocation{}, fmt.Errorf("invalid item index %q", rest[0])
			}
			inv.index = n
		case "id":
			inv.id = value
		case "path":
			inv.path = value
		}
	}

	if inv.command == "move" && !fs.Changed("start") {
		return invocation{}, fmt.Errorf("move: --start is required")
	}
	if inv.command == "resize" && !fs.Changed("end") {
		return invocation{}, fmt.Errorf("resize: --end is required")
	}

	changed := make(map[string]bool)
	fs.Visit(func(flag *pflag.Flag) {
		changed[flag.Name] = true
	})
	inv.event.changed = changed
	inv.account.changed = changed
	return inv, nil
}

func bindProfileFlags(fs *pflag.FlagSet, opts *accountOptions) {
	fs.StringVar(&opts.firstName, "first-name", "", "first name")
	fs.StringVar(&opts.lastName, "last-name", "", "last name")
	fs.StringVar(&opts.birthDate, "birth-date", "", "birth date (YYYY-MM-DD)")
	fs.StringVar(&opts.gender, "gender", "", "gender")
}

func writeOutput(w io.Writer, output waybar.Output) error {
	payload, err := waybar.Encode(output)
	if err != nil {
		return err
	}
	if _, err := w.Write(payload); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	if _, err := w.Write([]byte("\n")); err != nil {
		return fmt.Errorf("write trailing newline: %w", err)
	}
	return nil
}
