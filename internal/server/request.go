package server

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/desertthunder/workplate/internal/shared"
)

// maxRequestLine caps how much of the request line is buffered before giving up.
const maxRequestLine = 8 << 10

// ParseCode extracts the authorization code from an HTTP request line such as
// "GET /?code=XYZ&state=abc HTTP/1.1".
//
// The second whitespace-separated token is the request target. Only its raw query is inspected, the first
// "code" parameter wins, and the value is returned verbatim (percent-escapes are not decoded).
func ParseCode(requestLine string) (string, error) {
	fields := strings.Fields(requestLine)
	if len(fields) < 2 {
		return "", fmt.Errorf("%w: malformed request line", shared.ErrMalformedRedirect)
	}

	target, err := url.ParseRequestURI(fields[1])
	if err != nil {
		return "", fmt.Errorf("%w: %v", shared.ErrMalformedRedirect, err)
	}

	code, ok := rawQueryValue(target.RawQuery, "code")
	if !ok || code == "" {
		return "", shared.ErrMalformedRedirect
	}
	return code, nil
}

// rawQueryValue returns the undecoded value of the first key=value pair named key.
//
// Pairs without an '=' are skipped, matching how bare flags such as "?code&code=x" resolve to "x".
func rawQueryValue(rawQuery, key string) (string, bool) {
	if rawQuery == "" {
		return "", false
	}
	for _, pair := range strings.Split(rawQuery, "&") {
		k, v, ok := strings.Cut(pair, "=")
		if ok && k == key {
			return v, true
		}
	}
	return "", false
}

// readRequestLine reads up to and including the first newline from r and returns it without the line ending.
//
// A peer that closes before sending a newline yields whatever arrived; an empty result is left to [ParseCode]
// to reject.
func readRequestLine(r io.Reader) (string, error) {
	br := bufio.NewReader(io.LimitReader(r, maxRequestLine+1))
	line, err := br.ReadString('\n')
	switch {
	case err == nil:
	case errors.Is(err, io.EOF):
		if len(line) > maxRequestLine {
			return "", fmt.Errorf("%w: request line exceeds %d bytes", shared.ErrMalformedRedirect, maxRequestLine)
		}
	default:
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
