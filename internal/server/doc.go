// Package server provides the loopback listener that completes the desktop OAuth authorization code flow.
//
// # Redirect Listener
//
// After the user approves access, the provider redirects the browser to http://localhost:<port>/?code=...
// A [Listener] binds 127.0.0.1:<port>, accepts exactly one connection, and reads the request line. It pulls
// out the "code" query parameter and answers with a short "Connected!" page. Then it closes both sockets.
//
// The wait is bounded by a deadline set on the listening socket when [Session.Wait] starts, so no polling is
// involved. Cancelling the caller's context also ends the wait early.
//
// # Outcomes
//
// [Listener.Await] returns the code or an error wrapping one of:
//   - [shared.ErrBind] : the port could not be bound; returned immediately, never retried
//   - [shared.ErrRead] : the request line could not be read
//   - [shared.ErrMalformedRedirect] : the request carried no usable code; the listener does not wait for another
//   - [shared.ErrTimeout] : nothing usable arrived before the deadline
//
// Failures while writing the confirmation page are logged and ignored.
//
// [Listener.Start] and [Session.Start] run the wait on a goroutine and deliver a single [Result], whose
// [Result.Kind] lets callers pick between retry, cancel, and error messaging.
//
// # Scope
//
// The listener performs no token exchange, no state validation, and no persistence. Those belong to
// the services and repositories packages.
package server
