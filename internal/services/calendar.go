package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/workplate/internal/repositories"
	"github.com/desertthunder/workplate/internal/server"
	"github.com/desertthunder/workplate/internal/shared"
	"golang.org/x/oauth2"
)

// Settings is the subset of [repositories.SettingsRepository] used for credentials and tokens.
type Settings interface {
	GetOr(key, fallback string) (string, error)
	SaveToken(token *oauth2.Token) error
	Token() (*oauth2.Token, error)
	ClearToken() error
}

var _ Settings = (*repositories.SettingsRepository)(nil)

// CalendarAuthOpts contains the dependencies for a [CalendarAuth].
type CalendarAuthOpts struct {
	Config      *shared.Config
	Settings    Settings
	Listener    *server.Listener
	OpenBrowser shared.BrowserOpener
	HTTPClient  *http.Client
	Logger      *log.Logger
}

// CalendarAuth runs the desktop authorization code flow for Google Calendar.
//
// The listener only captures the code; exchanging it and persisting the token happen here.
type CalendarAuth struct {
	config      *shared.Config
	settings    Settings
	listener    *server.Listener
	openBrowser shared.BrowserOpener
	httpClient  *http.Client
	logger      *log.Logger
}

// NewCalendarAuth creates a [CalendarAuth], filling unset options with defaults.
func NewCalendarAuth(opts CalendarAuthOpts) *CalendarAuth {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	if opts.Listener == nil {
		opts.Listener = server.NewListener(server.Options{Logger: opts.Logger})
	}
	if opts.OpenBrowser == nil {
		opts.OpenBrowser = shared.OpenBrowser
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	return &CalendarAuth{
		config:      opts.Config,
		settings:    opts.Settings,
		listener:    opts.Listener,
		openBrowser: opts.OpenBrowser,
		httpClient:  opts.HTTPClient,
		logger:      opts.Logger,
	}
}

// OAuthConfig builds the [oauth2.Config] for the configured provider.
//
// Client credentials saved in settings take precedence over the config file.
func (c *CalendarAuth) OAuthConfig() (*oauth2.Config, error) {
	clientID := c.config.Credentials.Google.ClientID
	clientSecret := c.config.Credentials.Google.ClientSecret

	if c.settings != nil {
		var err error
		if clientID, err = c.settings.GetOr(repositories.KeyGoogleClientID, clientID); err != nil {
			return nil, err
		}
		if clientSecret, err = c.settings.GetOr(repositories.KeyGoogleClientSecret, clientSecret); err != nil {
			return nil, err
		}
	}

	if clientID == "" || clientSecret == "" {
		return nil, fmt.Errorf("%w: google client_id and client_secret must be set", shared.ErrMissingCredentials)
	}

	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  c.config.OAuth.RedirectURL(),
		Scopes:       c.config.OAuth.Scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:   c.config.OAuth.AuthURL,
			TokenURL:  c.config.OAuth.TokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}, nil
}

// PendingAuth is an authorization in progress: the listener is bound and the browser has been pointed at URL.
type PendingAuth struct {
	URL      string
	Deadline time.Time
	// BrowserErr is set when the browser could not be opened; the user has to visit URL by hand.
	BrowserErr error
	Results    <-chan server.Result
}

// Begin binds the redirect port, starts waiting for the redirect, and opens the browser.
//
// The port is held before the browser opens, so a fast redirect cannot race the bind.
func (c *CalendarAuth) Begin(ctx context.Context) (*PendingAuth, error) {
	if err := c.config.Validate(); err != nil {
		return nil, err
	}

	oauthConfig, err := c.OAuthConfig()
	if err != nil {
		return nil, err
	}

	state, err := shared.GenerateState()
	if err != nil {
		return nil, err
	}

	session, err := c.listener.Bind(ctx, uint16(c.config.OAuth.Port))
	if err != nil {
		return nil, err
	}

	timeout := c.config.OAuth.Timeout()
	pending := &PendingAuth{
		URL:      oauthConfig.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce),
		Deadline: time.Now().Add(timeout),
		Results:  session.Start(ctx, timeout),
	}

	c.logger.Info("opening browser for authorization", "port", c.config.OAuth.Port, "timeout", timeout)
	if err := c.openBrowser(pending.URL); err != nil {
		c.logger.Warn("failed to open browser automatically", "error", err)
		pending.BrowserErr = err
	}

	return pending, nil
}

// Complete exchanges the code carried by result for a token and saves it.
func (c *CalendarAuth) Complete(ctx context.Context, result server.Result) (*oauth2.Token, error) {
	if err := result.Error(); err != nil {
		return nil, err
	}

	token, err := c.Exchange(ctx, result.Code)
	if err != nil {
		return nil, err
	}

	if c.settings != nil {
		if err := c.settings.SaveToken(token); err != nil {
			return nil, fmt.Errorf("failed to save token: %w", err)
		}
	}

	c.logger.Info("calendar connected", "expiry", token.Expiry)
	return token, nil
}

// Connect runs the whole flow: [CalendarAuth.Begin], wait for the redirect, then [CalendarAuth.Complete].
//
// onPending, when non-nil, is called once the browser step has been attempted so callers can show the URL.
func (c *CalendarAuth) Connect(ctx context.Context, onPending func(*PendingAuth)) (*oauth2.Token, error) {
	pending, err := c.Begin(ctx)
	if err != nil {
		return nil, err
	}

	if onPending != nil {
		onPending(pending)
	}

	result := <-pending.Results
	return c.Complete(ctx, result)
}

// Exchange trades an authorization code for a token at the provider's token endpoint.
func (c *CalendarAuth) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	oauthConfig, err := c.OAuthConfig()
	if err != nil {
		return nil, err
	}

	token, err := oauthConfig.Exchange(c.clientContext(ctx), code)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrExchangeFailed, err)
	}
	return token, nil
}

// Token returns a valid token, refreshing and re-saving it when the stored one has expired.
func (c *CalendarAuth) Token(ctx context.Context) (*oauth2.Token, error) {
	if c.settings == nil {
		return nil, shared.ErrNotAuthenticated
	}

	stored, err := c.settings.Token()
	if err != nil {
		return nil, err
	}
	if stored.Valid() {
		return stored, nil
	}

	oauthConfig, err := c.OAuthConfig()
	if err != nil {
		return nil, err
	}

	fresh, err := oauthConfig.TokenSource(c.clientContext(ctx), stored).Token()
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) {
			return nil, fmt.Errorf("%w: %v", shared.ErrNotAuthenticated, err)
		}
		return nil, fmt.Errorf("failed to refresh token: %w", err)
	}

	if fresh.AccessToken != stored.AccessToken {
		if err := c.settings.SaveToken(fresh); err != nil {
			return nil, fmt.Errorf("failed to save refreshed token: %w", err)
		}
		c.logger.Debug("refreshed calendar token", "expiry", fresh.Expiry)
	}
	return fresh, nil
}

// Disconnect forgets the stored token.
func (c *CalendarAuth) Disconnect() error {
	if c.settings == nil {
		return nil
	}
	return c.settings.ClearToken()
}

func (c *CalendarAuth) clientContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
}
