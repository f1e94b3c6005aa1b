package server

import (
	"errors"
	"strings"
	"testing"

	"github.com/desertthunder/workplate/internal/shared"
)

func TestParseCode(t *testing.T) {
	tc := []struct {
		name    string
		line    string
		want    string
		wantErr bool
	}{
		{
			name: "code first",
			line: "GET /?code=abc123&state=xyz HTTP/1.1",
			want: "abc123",
		},
		{
			name: "code between other params",
			line: "GET /callback?state=abc&code=4/0AX-yz_123&foo=bar HTTP/1.1",
			want: "4/0AX-yz_123",
		},
		{
			name: "first code wins",
			line: "GET /?code=first&code=second HTTP/1.1",
			want: "first",
		},
		{
			name: "value is not decoded",
			line: "GET /?code=4%2F0AX%2Byz HTTP/1.1",
			want: "4%2F0AX%2Byz",
		},
		{
			name: "value keeps everything after the first equals sign",
			line: "GET /?code=abc==&state=1 HTTP/1.1",
			want: "abc==",
		},
		{
			name: "bare code flag is skipped",
			line: "GET /?code&code=later HTTP/1.1",
			want: "later",
		},
		{
			name: "method is not inspected",
			line: "POST /?code=posted HTTP/1.1",
			want: "posted",
		},
		{
			name: "trailing line ending is tolerated",
			line: "GET /?code=xyz HTTP/1.1\r\n",
			want: "xyz",
		},
		{
			name:    "no code parameter",
			line:    "GET /?state=xyz HTTP/1.1",
			wantErr: true,
		},
		{
			name:    "provider error redirect",
			line:    "GET /?error=access_denied&state=xyz HTTP/1.1",
			wantErr: true,
		},
		{
			name:    "key only matches exactly",
			line:    "GET /?authcode=1&code_verifier=2 HTTP/1.1",
			wantErr: true,
		},
		{
			name:    "empty code",
			line:    "GET /?code=&state=xyz HTTP/1.1",
			wantErr: true,
		},
		{
			name:    "no query string",
			line:    "GET / HTTP/1.1",
			wantErr: true,
		},
		{
			name:    "single token",
			line:    "GET",
			wantErr: true,
		},
		{
			name:    "empty line",
			line:    "",
			wantErr: true,
		},
		{
			name:    "not a request target",
			line:    "GET code=abc HTTP/1.1",
			wantErr: true,
		},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCode(tt.line)
			if tt.wantErr {
				if !errors.Is(err, shared.ErrMalformedRedirect) {
					t.Fatalf("ParseCode() error = %v, want ErrMalformedRedirect", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseCode() unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("ParseCode() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestReadRequestLine(t *testing.T) {
	t.Run("stops at the first newline", func(t *testing.T) {
		got, err := readRequestLine(strings.NewReader("GET /?code=a HTTP/1.1\r\nHost: localhost\r\n\r\n"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != "GET /?code=a HTTP/1.1" {
			t.Errorf("got %q", got)
		}
	})

	t.Run("accepts a line cut short by EOF", func(t *testing.T) {
		got, err := readRequestLine(strings.NewReader("GET /?code=a HTTP/1.1"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != "GET /?code=a HTTP/1.1" {
			t.Errorf("got %q", got)
		}
	})

	t.Run("rejects oversized lines", func(t *testing.T) {
		long := "GET /?code=" + strings.Repeat("a", maxRequestLine) + " HTTP/1.1\r\n"
		_, err := readRequestLine(strings.NewReader(long))
		if !errors.Is(err, shared.ErrMalformedRedirect) {
			t.Errorf("expected ErrMalformedRedirect, got %v", err)
		}
	})

	t.Run("empty input", func(t *testing.T) {
		got, err := readRequestLine(strings.NewReader(""))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != "" {
			t.Errorf("expected empty line, got %q", got)
		}
	})
}
