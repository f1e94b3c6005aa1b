// Package ui implements the terminal wait view for the OAuth redirect using bubbletea's Elm architecture.
//
// [WaitModel] is shown while the loopback listener waits for the browser redirect:
//   - a spinner and a countdown to the listener deadline
//   - the authorization URL, with a warning when the browser could not be opened
//   - the final outcome (code received, timed out, failed, or cancelled)
//
// The listener result arrives over the channel returned by [server.Session.Start] and is turned into a Msg by a tea.Cmd.
// Quitting before the redirect arrives cancels the listener through [WaitOpts.Cancel].
//
// Key bindings are displayed via charmbracelet/bubbles/help.
package ui
