// Package services implements the application-level OAuth flow that sits on top of the redirect listener.
//
// # Calendar Authorization
//
// [CalendarAuth] drives the desktop authorization code flow for Google Calendar:
//  1. Build the authorization URL with a random state and a localhost redirect URI
//  2. Bind the redirect port and start waiting through [server.Session.Start]
//  3. Open the system browser (falling back to printing the URL)
//  4. Receive one [server.Result] from the listener
//  5. Exchange the code with [oauth2.Config.Exchange] and save the token to settings
//
// The listener never sees client credentials or tokens. Everything after the code lives here.
//
// # Tokens
//
// Tokens are persisted as JSON [oauth2.Token] values through [Settings].
// [CalendarAuth.Token] refreshes expired tokens with the stored refresh token and saves the result.
//
// # Error Handling
//
// Errors wrap sentinels from the shared package:
//   - [shared.ErrMissingCredentials] : no client id/secret in config or settings
//   - [shared.ErrBind], [shared.ErrTimeout], [shared.ErrRead], [shared.ErrMalformedRedirect] : passed through from the listener
//   - [shared.ErrExchangeFailed] : the token endpoint rejected the code
//   - [shared.ErrNotAuthenticated] : no stored token, or the refresh token was revoked
package services
