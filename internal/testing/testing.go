// package testing contains shared testing utilities
package testing

import (
	"errors"
	"io"
	"net"
	"net/http"
	"os"
	"strconv"
	"testing"
	"time"
)

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
	requests []*http.Request
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	m.requests = append(m.requests, req)
	if m.response != nil {
		m.response.Request = req
	}
	return m.response, m.err
}

// Requests returns every request seen by the round tripper, in order.
func (m *MockRoundTripper) Requests() []*http.Request {
	return m.requests
}

// FreePort returns a loopback TCP port that was free a moment ago.
func FreePort(t *testing.T) uint16 {
	t.Helper()
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Failed to find free port: %v", err)
	}
	defer ln.Close()
	return uint16(ln.Addr().(*net.TCPAddr).Port)
}

// LoopbackAddr formats 127.0.0.1:port.
func LoopbackAddr(port uint16) string {
	return net.JoinHostPort("127.0.0.1", strconv.Itoa(int(port)))
}

// MustDial connects to port on 127.0.0.1, retrying until a listener shows up or two seconds pass.
func MustDial(t *testing.T, port uint16) net.Conn {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		conn, err := net.DialTimeout("tcp4", LoopbackAddr(port), 200*time.Millisecond)
		if err == nil {
			t.Cleanup(func() { conn.Close() })
			return conn
		}
		if time.Now().After(deadline) {
			t.Fatalf("Failed to dial %s: %v", LoopbackAddr(port), err)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

// SendRedirect dials port, writes raw, and returns everything the server sent back before closing.
func SendRedirect(t *testing.T, port uint16, raw string) string {
	t.Helper()
	conn := MustDial(t, port)
	if _, err := io.WriteString(conn, raw); err != nil {
		t.Fatalf("Failed to write request: %v", err)
	}
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	body, _ := io.ReadAll(conn)
	return string(body)
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
