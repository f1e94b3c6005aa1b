package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/workplate/internal/shared"
)

const (
	loopbackHost = "127.0.0.1"

	// writeTimeout bounds the best-effort confirmation write and the drain that follows it.
	writeTimeout = 2 * time.Second
	drainTimeout = 250 * time.Millisecond
	maxDrain     = 64 << 10
)

const confirmationBody = `<html><body><h1>Connected!</h1><p>You can close this tab and return to the application.</p></body></html>`

var confirmationResponse = "HTTP/1.1 200 OK\r\n" +
	"Content-Type: text/html\r\n" +
	"Content-Length: " + strconv.Itoa(len(confirmationBody)) + "\r\n" +
	"Connection: close\r\n" +
	"\r\n" +
	confirmationBody

// aLongTimeAgo is a non-zero time in the past, used to unblock pending Accept and Read calls.
var aLongTimeAgo = time.Unix(1, 0)

var errSessionUsed = errors.New("redirect session already used")

// Options configures a [Listener].
type Options struct {
	// Logger receives bind, accept, and best-effort write diagnostics. Defaults to a discarding logger.
	Logger *log.Logger
}

// Listener accepts a single OAuth redirect on a loopback port.
//
// A Listener holds no sockets itself: each [Listener.Bind] or [Listener.Await] call owns exactly one listening
// socket for its duration, so concurrent calls on different ports are independent.
type Listener struct {
	logger *log.Logger
}

// NewListener creates a [Listener] with the given options.
func NewListener(opts Options) *Listener {
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	return &Listener{logger: opts.Logger}
}

// Await binds 127.0.0.1:port, waits up to timeout for one redirect, and returns its authorization code.
//
// Errors wrap one of [shared.ErrBind], [shared.ErrRead], [shared.ErrMalformedRedirect] or [shared.ErrTimeout].
// Cancelling ctx ends the wait early with ctx's error. The socket is always released before Await returns.
func (l *Listener) Await(ctx context.Context, port uint16, timeout time.Duration) (string, error) {
	session, err := l.Bind(ctx, port)
	if err != nil {
		return "", err
	}
	return session.Wait(ctx, timeout)
}

// Start runs [Listener.Await] on its own goroutine. The returned channel receives exactly one [Result] and is then
// closed.
func (l *Listener) Start(ctx context.Context, port uint16, timeout time.Duration) <-chan Result {
	results := make(chan Result, 1)
	go func() {
		defer close(results)
		code, err := l.Await(ctx, port, timeout)
		results <- NewResult(code, err)
	}()
	return results
}

// Bind opens the loopback socket without waiting on it yet, so callers can open the browser only once the port is
// known to be held. Binding is never retried.
func (l *Listener) Bind(ctx context.Context, port uint16) (*Session, error) {
	if port == 0 {
		return nil, fmt.Errorf("%w: port must be between 1 and 65535", shared.ErrBind)
	}

	addr := net.JoinHostPort(loopbackHost, strconv.Itoa(int(port)))

	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp4", addr)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrBind, err)
	}

	logger := shared.WithLogger(l.logger, "addr", addr)
	logger.Debug("redirect listener bound")

	return &Session{ln: ln.(*net.TCPListener), logger: logger}, nil
}

// Session is one bound, not yet consumed redirect socket returned by [Listener.Bind].
type Session struct {
	ln     *net.TCPListener
	logger *log.Logger

	mu     sync.Mutex
	used   bool
	closed bool
}

// Addr returns the bound loopback address.
func (s *Session) Addr() net.Addr {
	return s.ln.Addr()
}

// Close releases the listening socket. It is safe to call more than once and after [Session.Wait].
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.ln.Close()
}

// Start runs [Session.Wait] on its own goroutine and delivers exactly one [Result].
func (s *Session) Start(ctx context.Context, timeout time.Duration) <-chan Result {
	results := make(chan Result, 1)
	go func() {
		defer close(results)
		code, err := s.Wait(ctx, timeout)
		results <- NewResult(code, err)
	}()
	return results
}

// Wait accepts one connection before now+timeout and extracts its authorization code.
//
// The first accepted connection decides the outcome: a request without a usable code fails with
// [shared.ErrMalformedRedirect] rather than waiting for another. A Session can be waited on once; the
// socket is closed when Wait returns.
func (s *Session) Wait(ctx context.Context, timeout time.Duration) (string, error) {
	if err := s.claim(); err != nil {
		return "", err
	}
	defer s.Close()

	if timeout < 0 {
		timeout = 0
	}
	deadline := time.Now().Add(timeout)

	if err := s.ln.SetDeadline(deadline); err != nil {
		return "", fmt.Errorf("%w: set deadline: %v", shared.ErrRead, err)
	}

	stop := context.AfterFunc(ctx, func() { s.ln.SetDeadline(aLongTimeAgo) })
	defer stop()

	s.logger.Debug("waiting for redirect", "timeout", timeout)

	conn, err := s.ln.Accept()
	if err != nil {
		if ctxErr := contextError(ctx); ctxErr != nil {
			return "", ctxErr
		}
		if errors.Is(err, os.ErrDeadlineExceeded) {
			s.logger.Debug("redirect wait timed out", "timeout", timeout)
			return "", fmt.Errorf("%w after %s", shared.ErrTimeout, timeout)
		}
		return "", fmt.Errorf("%w: accept: %v", shared.ErrRead, err)
	}
	defer conn.Close()

	// One connection per session: stop listening as soon as it arrives.
	s.Close()

	stopConn := context.AfterFunc(ctx, func() { conn.SetDeadline(aLongTimeAgo) })
	defer stopConn()

	code, err := s.serve(conn, deadline)
	if err != nil {
		if ctxErr := contextError(ctx); ctxErr != nil {
			return "", ctxErr
		}
		return "", err
	}

	s.logger.Info("authorization redirect received", "remote", conn.RemoteAddr())
	return code, nil
}

func (s *Session) claim() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.used || s.closed {
		return errSessionUsed
	}
	s.used = true
	return nil
}

// serve reads the request line from conn, writes the confirmation page, and returns the code.
//
// Reads share the overall deadline. The confirmation write is best-effort: the code is already
// captured, so write errors are logged and dropped.
func (s *Session) serve(conn net.Conn, deadline time.Time) (string, error) {
	if err := conn.SetReadDeadline(deadline); err != nil {
		return "", fmt.Errorf("%w: %v", shared.ErrRead, err)
	}

	line, err := readRequestLine(conn)
	if err != nil {
		switch {
		case errors.Is(err, shared.ErrMalformedRedirect):
			return "", err
		case errors.Is(err, os.ErrDeadlineExceeded):
			return "", fmt.Errorf("%w: request line not received in time", shared.ErrTimeout)
		default:
			return "", fmt.Errorf("%w: %v", shared.ErrRead, err)
		}
	}

	code, err := ParseCode(line)
	if err != nil {
		return "", err
	}

	s.writeConfirmation(conn)
	return code, nil
}

func (s *Session) writeConfirmation(conn net.Conn) {
	if err := conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		s.logger.Debug("failed to set write deadline", "error", err)
	}
	if _, err := io.WriteString(conn, confirmationResponse); err != nil {
		s.logger.Debug("failed to write confirmation page", "error", err)
		return
	}

	// Half-close and drain unread headers so the close doesn't reset the connection before the browser
	// reads the page.
	if tc, ok := conn.(interface{ CloseWrite() error }); ok {
		if err := tc.CloseWrite(); err != nil {
			return
		}
		conn.SetReadDeadline(time.Now().Add(drainTimeout))
		io.Copy(io.Discard, io.LimitReader(conn, maxDrain))
	}
}

// contextError maps a finished ctx to the listener's error taxonomy.
func contextError(ctx context.Context) error {
	err := ctx.Err()
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %w", shared.ErrTimeout, err)
	default:
		return fmt.Errorf("redirect wait cancelled: %w", err)
	}
}
