package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/workplate/internal/server"
	"github.com/desertthunder/workplate/internal/services"
	"github.com/desertthunder/workplate/internal/shared"
	"github.com/desertthunder/workplate/internal/ui"
	"github.com/urfave/cli/v3"
)

// CalendarListen waits for a single redirect and prints the authorization code.
//
// Nothing is exchanged or stored; this is the bare listener for debugging a provider setup.
func (r *Runner) CalendarListen(ctx context.Context, cmd *cli.Command) error {
	port := cmd.Int("port")
	if port == 0 {
		port = r.config.OAuth.Port
	}
	if port < 1 || port > 65535 {
		return fmt.Errorf("%w: port must be between 1 and 65535, got %d", shared.ErrInvalidArgument, port)
	}

	timeout := r.config.OAuth.Timeout()
	if seconds := cmd.Int("timeout"); seconds >= 0 {
		timeout = time.Duration(seconds) * time.Second
	}

	var code string
	if cmd.Bool("tui") {
		result, err := r.listenTUI(ctx, uint16(port), timeout)
		if err != nil {
			return err
		}
		if err := result.Error(); err != nil {
			return err
		}
		code = result.Code
	} else {
		r.writePlain("→ Waiting for redirect on http://localhost:%d (%s timeout)...\n", port, timeout)

		var err error
		if code, err = r.listener.Await(ctx, uint16(port), timeout); err != nil {
			return err
		}
	}

	if cmd.Bool("json") {
		return r.writeJSON(map[string]any{"code": code, "port": port}, false)
	}
	return r.writePlain("%s\n", code)
}

// CalendarConnect runs the browser authorization flow and stores the resulting tokens.
func (r *Runner) CalendarConnect(ctx context.Context, cmd *cli.Command) error {
	if cmd.Bool("tui") {
		if err := r.useFileLogger(); err != nil {
			return err
		}
	}

	auth, err := r.calendarAuth()
	if err != nil {
		return err
	}

	if cmd.Bool("tui") {
		return r.connectTUI(ctx, auth)
	}

	r.writePlain("→ Opening browser for Google Calendar authorization...\n")
	_, err = auth.Connect(ctx, func(pending *services.PendingAuth) {
		if pending.BrowserErr != nil {
			r.writePlainln("⚠ Could not open browser automatically.")
			r.writePlain("Please open this URL in your browser:\n%s\n\n", pending.URL)
		}
		r.writePlain("→ Waiting for authorization (%s timeout)...\n", r.config.OAuth.Timeout())
	})
	if err != nil {
		return fmt.Errorf("authorization failed: %w", err)
	}

	r.writePlainln("✓ Google Calendar connected")
	r.writePlain("✓ Tokens saved to %s\n", r.config.Database.Path)
	return nil
}

// CalendarStatus reports whether tokens are stored and when they expire.
func (r *Runner) CalendarStatus(ctx context.Context, cmd *cli.Command) error {
	settings, err := r.Settings()
	if err != nil {
		return err
	}

	token, err := settings.Token()
	connected := err == nil
	if err != nil && !errors.Is(err, shared.ErrNotAuthenticated) {
		return err
	}

	if cmd.Bool("json") {
		status := map[string]any{"connected": connected}
		if connected {
			status["expiry"] = token.Expiry
			status["refreshable"] = token.RefreshToken != ""
		}
		return r.writeJSON(status, false)
	}

	if !connected {
		return r.writePlain("✗ Not connected\nRun 'workplate calendar connect' to authorize\n")
	}

	r.writePlain("✓ Connected\n")
	if !token.Expiry.IsZero() {
		r.writePlain("Access token expires: %s\n", token.Expiry.Local().Format(time.RFC1123))
	}
	if token.RefreshToken != "" {
		r.writePlain("Refresh token: stored\n")
	} else {
		r.writePlain("Refresh token: missing (reconnect when the access token expires)\n")
	}
	return nil
}

// CalendarDisconnect forgets stored tokens.
func (r *Runner) CalendarDisconnect(ctx context.Context, cmd *cli.Command) error {
	auth, err := r.calendarAuth()
	if err != nil {
		return err
	}

	if err := auth.Disconnect(); err != nil {
		return fmt.Errorf("failed to clear tokens: %w", err)
	}
	return r.writePlain("✓ Google Calendar disconnected\n")
}

func (r *Runner) listenTUI(ctx context.Context, port uint16, timeout time.Duration) (server.Result, error) {
	if err := r.useFileLogger(); err != nil {
		return server.Result{}, err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	session, err := r.listener.Bind(ctx, port)
	if err != nil {
		return server.Result{}, err
	}

	return r.runWaitView(ui.WaitOpts{
		Title:       "Waiting for OAuth redirect",
		Port:        port,
		URL:         fmt.Sprintf("http://localhost:%d", port),
		Deadline:    time.Now().Add(timeout),
		Results:     session.Start(ctx, timeout),
		OpenBrowser: r.openBrowser,
		Cancel:      cancel,
	})
}

func (r *Runner) connectTUI(ctx context.Context, auth *services.CalendarAuth) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	pending, err := auth.Begin(ctx)
	if err != nil {
		return err
	}

	result, err := r.runWaitView(ui.WaitOpts{
		Title:       "Connecting Google Calendar",
		Port:        uint16(r.config.OAuth.Port),
		URL:         pending.URL,
		Deadline:    pending.Deadline,
		BrowserErr:  pending.BrowserErr,
		Results:     pending.Results,
		OpenBrowser: r.openBrowser,
		Cancel:      cancel,
	})
	if err != nil {
		return err
	}

	if _, err := auth.Complete(ctx, result); err != nil {
		return fmt.Errorf("authorization failed: %w", err)
	}

	r.writePlain("✓ Tokens saved to %s\n", r.config.Database.Path)
	return nil
}
