package app

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/rbright/waybar-weekfitter/internal/session"
	"github.com/rbright/waybar-weekfitter/internal/state"
	"github.com/rbright/waybar-weekfitter/internal/weekfitter"
)

func (e *env) login(ctx context.Context, opts accountOptions) error {
	email := strings.TrimSpace(opts.email)
	password := opts.password
	if email == "" || password == "" {
		d, err := e.dialogs()
		if err != nil {
			return err
		}
		email, password, err = d.Credentials(ctx)
		if err != nil {
			return ignoreCancel(err)
		}
	}

	client, err := e.client("")
	if err != nil {
		return err
	}
	resp, err := client.Login(ctx, email, password)
	if err != nil {
		message := err.Error()
		if weekfitter.IsStatus(err, http.StatusUnauthorized) {
			message = "Invalid e-mail or password"
		}
		e.notifier.Alert(ctx, "Sign in failed", message)
		return err
	}

	if strings.TrimSpace(resp.Email) != "" {
		email = resp.Email
	}
	current := session.New(email, resp.Token, resp.FirstName)
	if err := state.EnsureDirs(e.cfg.StateDir, e.cfg.MenuDir); err != nil {
		return err
	}
	if err := state.SaveSession(e.cfg.SessionPath, current); err != nil {
		return err
	}

	e.notifier.Info(ctx, current.Greeting(), "")
	_, err = e.buildStatus(ctx)
	return err
}

func (e *env) logout(ctx context.Context) error {
	if err := state.EnsureDirs(e.cfg.StateDir, e.cfg.MenuDir); err != nil {
		return err
	}
	if err := state.ClearSession(e.cfg.SessionPath); err != nil {
		return err
	}
	if err := state.ClearDraft(e.cfg.DraftPath); err != nil {
		return err
	}
	if _, err := e.publishSignedOut("Not signed in"); err != nil {
		return err
	}
	e.notifier.Info(ctx, "Signed out", "")
	return nil
}

func (e *env) register(ctx context.Context, opts accountOptions) error {
	if strings.TrimSpace(opts.email) == "" || opts.password == "" {
		return fmt.Errorf("register: --email and --password are required")
	}

	client, err := e.client("")
	if err != nil {
		return err
	}
	profile, err := client.Register(ctx, weekfitter.Registration{
		Email:     strings.TrimSpace(opts.email),
		Password:  opts.password,
		FirstName: strings.TrimSpace(opts.firstName),
		LastName:  strings.TrimSpace(opts.lastName),
		BirthDate: strings.TrimSpace(opts.birthDate),
		Gender:    strings.TrimSpace(opts.gender),
	})
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintf(e.stdout, "Registered %s; run waybar-weekfitter login to sign in\n", profile.Email)
	return nil
}

func (e *env) profile(ctx context.Context, opts accountOptions) error {
	ws, err := e.openSignedIn()
	if err != nil {
		return err
	}

	update := weekfitter.ProfileUpdate{
		FirstName: strings.TrimSpace(opts.firstName),
		LastName:  strings.TrimSpace(opts.lastName),
		BirthDate: strings.TrimSpace(opts.birthDate),
		Gender:    strings.TrimSpace(opts.gender),
	}

	var profile weekfitter.Profile
	if update == (weekfitter.ProfileUpdate{}) {
		profile, err = ws.client.Profile(ctx)
	} else {
		profile, err = ws.client.UpdateProfile(ctx, update)
	}
	if err != nil {
		return err
	}

	if name := strings.TrimSpace(profile.FirstName); name != "" && name != ws.session.FirstName {
		current := ws.session
		current.FirstName = name
		if err := state.SaveSession(e.cfg.SessionPath, current); err != nil {
			return err
		}
	}

	e.writeProfile(profile)
	return nil
}

func (e *env) writeProfile(profile weekfitter.Profile) {
	rows := [][2]string{
		{"E-mail", profile.Email},
		{"First name", profile.FirstName},
		{"Last name", profile.LastName},
		{"Birth date", profile.BirthDate},
		{"Gender", profile.Gender},
		{"Photo", profile.Photo},
	}
	for _, row := range rows {
		if strings.TrimSpace(row[1]) == "" {
			continue
		}
		_, _ = fmt.Fprintf(e.stdout, "%-11s %s\n", row[0]+":", row[1])
	}
}

func (e *env) forgotPassword(ctx context.Context, opts accountOptions) error {
	email := strings.TrimSpace(opts.email)
	if email == "" {
		stored, err := state.LoadSession(e.cfg.SessionPath)
		if err != nil {
			return err
		}
		email = stored.Owner()
	}
	if email == "" {
		return fmt.Errorf("forgot-password: --email is required")
	}

	client, err := e.client("")
	if err != nil {
		return err
	}
	message, err := client.ForgotPassword(ctx, email)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintln(e.stdout, fallbackText(message, "Password reset e-mail sent"))
	return nil
}

func (e *env) resetPassword(ctx context.Context, opts accountOptions) error {
	if strings.TrimSpace(opts.token) == "" || opts.password == "" {
		return fmt.Errorf("reset-password: --token and --password are required")
	}

	client, err := e.client("")
	if err != nil {
		return err
	}
	message, err := client.ResetPassword(ctx, opts.token, opts.password)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintln(e.stdout, fallbackText(message, "Password changed"))
	return nil
}

func (e *env) uploadPhoto(ctx context.Context, path string) error {
	ws, err := e.openSignedIn()
	if err != nil {
		return err
	}
	profile, err := ws.client.UploadPhoto(ctx, ws.session.Owner(), path)
	if err != nil {
		e.notifier.Alert(ctx, "Photo upload failed", err.Error())
		return err
	}
	_, _ = fmt.Fprintf(e.stdout, "Photo: %s\n", fallbackText(profile.Photo, path))
	return nil
}

func fallbackText(value, defaultValue string) string {
	if strings.TrimSpace(value) == "" {
		return defaultValue
	}
	return strings.TrimSpace(value)
}
