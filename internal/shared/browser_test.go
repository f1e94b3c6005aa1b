package shared

import (
	"errors"
	"os/exec"
	"strings"
	"testing"
)

func TestOpenBrowser(t *testing.T) {
	origRuntime, origStart := getRuntime, startCommand
	t.Cleanup(func() {
		getRuntime, startCommand = origRuntime, origStart
	})

	tc := []struct {
		goos    string
		want    string
		wantErr bool
	}{
		{goos: "darwin", want: "open https://example.com"},
		{goos: "linux", want: "xdg-open https://example.com"},
		{goos: "windows", want: "rundll32 url.dll,FileProtocolHandler https://example.com"},
		{goos: "plan9", wantErr: true},
	}

	for _, tt := range tc {
		t.Run(tt.goos, func(t *testing.T) {
			var started *exec.Cmd
			getRuntime = func() string { return tt.goos }
			startCommand = func(cmd *exec.Cmd) error {
				started = cmd
				return nil
			}

			err := OpenBrowser("https://example.com")
			if (err != nil) != tt.wantErr {
				t.Fatalf("OpenBrowser() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}

			if got := strings.Join(started.Args, " "); got != tt.want {
				t.Errorf("command = %q, want %q", got, tt.want)
			}
		})
	}

	t.Run("start failure", func(t *testing.T) {
		getRuntime = func() string { return "linux" }
		startCommand = func(*exec.Cmd) error { return errors.New("no display") }

		if err := OpenBrowser("https://example.com"); err == nil {
			t.Error("expected error when command fails to start")
		}
	})
}
