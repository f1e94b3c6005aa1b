package main

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/workplate/internal/repositories"
	"github.com/desertthunder/workplate/internal/server"
	"github.com/desertthunder/workplate/internal/shared"
	tu "github.com/desertthunder/workplate/internal/testing"
	"github.com/urfave/cli/v3"
)

// runApp executes args against a fresh command tree for runner.
func runApp(runner *Runner, args ...string) error {
	app := &cli.Command{
		Name:     "workplate",
		Commands: runner.register(),
	}
	return app.Run(context.Background(), append([]string{"workplate"}, args...))
}

func newMemoryRunner(t *testing.T, output *bytes.Buffer) *Runner {
	t.Helper()
	config := shared.DefaultConfig()
	config.Database.Path = ":memory:"

	runner := NewRunner(RunnerOpts{Config: config, Output: output, Logger: shared.NewLogger(&bytes.Buffer{})})
	t.Cleanup(func() { runner.Close() })
	return runner
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			httpClient := &http.Client{}
			listener := server.NewListener(server.Options{})
			settings := repositories.NewSettingsRepository(nil)

			runner := NewRunner(RunnerOpts{
				Config:     config,
				ConfigPath: "/test/path/config.toml",
				Logger:     logger,
				Output:     output,
				HTTPClient: httpClient,
				Listener:   listener,
				Settings:   settings,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.configPath != "/test/path/config.toml" {
				t.Errorf("expected configPath to be set, got %s", runner.configPath)
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.httpClient != httpClient {
				t.Error("expected httpClient to be set")
			}
			if runner.listener != listener {
				t.Error("expected listener to be set")
			}
			if runner.settings != settings {
				t.Error("expected settings to be set")
			}
		})

		t.Run("with nil options uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			if runner.config == nil {
				t.Error("expected default config to be set")
			}
			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
			if runner.httpClient != http.DefaultClient {
				t.Error("expected httpClient to default to http.DefaultClient")
			}
			if runner.listener == nil {
				t.Error("expected default listener to be set")
			}
			if runner.openBrowser == nil {
				t.Error("expected default browser opener to be set")
			}
		})
	})

	t.Run("Settings opens the configured database once", func(t *testing.T) {
		runner := newMemoryRunner(t, &bytes.Buffer{})

		first, err := runner.Settings()
		if err != nil {
			t.Fatalf("Settings() error = %v", err)
		}
		second, err := runner.Settings()
		if err != nil {
			t.Fatalf("Settings() error = %v", err)
		}
		if first != second {
			t.Error("expected the same repository on repeated calls")
		}
		if err := runner.Close(); err != nil {
			t.Errorf("Close() error = %v", err)
		}
		if err := runner.Close(); err != nil {
			t.Errorf("second Close() error = %v", err)
		}
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, true); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if !strings.Contains(result, `"key": "value"`) {
				t.Errorf("expected formatted JSON, got %s", result)
			}
			if !strings.HasSuffix(result, "\n") {
				t.Error("expected output to end with newline")
			}
		})

		t.Run("writes compact JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, false); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			expected := `{"key":"value"}` + "\n"
			if output.String() != expected {
				t.Errorf("expected %q, got %q", expected, output.String())
			}
		})

		t.Run("handles marshal error with non-serializable data", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})

			err := runner.writeJSON(make(chan int), false)
			if err == nil || !strings.Contains(err.Error(), "failed to marshal JSON") {
				t.Errorf("expected marshal error, got %v", err)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil || !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		t.Run("writes plain text successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writePlain("hello %s", "world"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if output.String() != "hello world" {
				t.Errorf("expected 'hello world', got %q", output.String())
			}
		})

		t.Run("writePlainln pads with newlines", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writePlainln("done"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if output.String() != "\ndone\n" {
				t.Errorf("expected padded output, got %q", output.String())
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writePlain("test")
			if err == nil || !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})
	})

	t.Run("register", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})
		commands := runner.register()

		names := map[string]bool{}
		for i, cmd := range commands {
			if cmd == nil {
				t.Fatalf("command at index %d is nil", i)
			}
			names[cmd.Name] = true
		}

		for _, want := range []string{"setup", "calendar", "settings"} {
			if !names[want] {
				t.Errorf("expected %s command to be registered", want)
			}
		}
	})
}

func TestSetupCommands(t *testing.T) {
	t.Run("setup database creates config and migrates", func(t *testing.T) {
		dir := t.TempDir()
		configPath := filepath.Join(dir, "config.toml")
		dbPath := filepath.Join(dir, "workplate.db")

		t.Setenv("WORKPLATE_DB_PATH", dbPath)

		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{
			ConfigPath: configPath,
			Output:     output,
			Logger:     shared.NewLogger(&bytes.Buffer{}),
		})

		if err := runApp(runner, "setup", "database"); err != nil {
			t.Fatalf("setup database error = %v", err)
		}

		tu.AssertFileExists(t, configPath)
		if !strings.Contains(tu.MustReadFile(t, configPath), "[oauth]") {
			t.Error("expected config to be created from the template")
		}

		tu.AssertFileExists(t, dbPath)
		if runner.config.Database.Path != dbPath {
			t.Errorf("expected env override %s, got %s", dbPath, runner.config.Database.Path)
		}
		if !strings.Contains(output.String(), "schema version 2") {
			t.Errorf("expected schema version in output, got %q", output.String())
		}
	})

	t.Run("setup database keeps an existing config", func(t *testing.T) {
		dir := t.TempDir()
		configPath := filepath.Join(dir, "config.toml")
		if err := os.WriteFile(configPath, []byte("# mine\n"), 0644); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}

		config := shared.DefaultConfig()
		config.Database.Path = filepath.Join(dir, "workplate.db")
		runner := NewRunner(RunnerOpts{
			Config:     config,
			ConfigPath: configPath,
			Output:     &bytes.Buffer{},
			Logger:     shared.NewLogger(&bytes.Buffer{}),
		})

		if err := runApp(runner, "setup", "database"); err != nil {
			t.Fatalf("setup database error = %v", err)
		}
		if got := tu.MustReadFile(t, configPath); got != "# mine\n" {
			t.Errorf("expected config to be left alone, got %q", got)
		}
		tu.AssertFileExists(t, config.Database.Path)
	})

	t.Run("setup credentials writes the config file", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "nested", "config.toml")
		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{ConfigPath: configPath, Output: output, Logger: shared.NewLogger(&bytes.Buffer{})})

		if err := runApp(runner, "setup", "credentials", "--client-id", "cid", "--client-secret", "csecret"); err != nil {
			t.Fatalf("setup credentials error = %v", err)
		}

		loaded, err := shared.LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load saved config: %v", err)
		}
		if loaded.Credentials.Google.ClientID != "cid" || loaded.Credentials.Google.ClientSecret != "csecret" {
			t.Errorf("expected saved credentials, got %+v", loaded.Credentials.Google)
		}
		if loaded.OAuth.Port != 8085 {
			t.Errorf("expected other settings preserved, got port %d", loaded.OAuth.Port)
		}
	})

	t.Run("setup rollback", func(t *testing.T) {
		dir := t.TempDir()
		config := shared.DefaultConfig()
		config.Database.Path = filepath.Join(dir, "workplate.db")
		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{Config: config, Output: output, Logger: shared.NewLogger(&bytes.Buffer{})})

		if err := runApp(runner, "setup", "rollback"); err != nil {
			t.Fatalf("rollback on empty database error = %v", err)
		}
		if !strings.Contains(output.String(), "Nothing to roll back") {
			t.Errorf("expected nothing to roll back, got %q", output.String())
		}

		if err := runApp(runner, "setup", "database"); err != nil {
			t.Fatalf("setup database error = %v", err)
		}
		output.Reset()

		if err := runApp(runner, "setup", "rollback"); err != nil {
			t.Fatalf("rollback error = %v", err)
		}
		if !strings.Contains(output.String(), "2 → 1") {
			t.Errorf("expected version change in output, got %q", output.String())
		}
	})
}

func TestSettingsCommands(t *testing.T) {
	t.Run("set then get", func(t *testing.T) {
		output := &bytes.Buffer{}
		runner := newMemoryRunner(t, output)

		if err := runApp(runner, "settings", "set", repositories.KeyGoogleClientID, "abc.apps"); err != nil {
			t.Fatalf("settings set error = %v", err)
		}
		output.Reset()

		if err := runApp(runner, "settings", "get", repositories.KeyGoogleClientID); err != nil {
			t.Fatalf("settings get error = %v", err)
		}
		if output.String() != "abc.apps\n" {
			t.Errorf("expected stored value, got %q", output.String())
		}
	})

	t.Run("list", func(t *testing.T) {
		output := &bytes.Buffer{}
		runner := newMemoryRunner(t, output)

		if err := runApp(runner, "settings", "list"); err != nil {
			t.Fatalf("settings list error = %v", err)
		}
		if !strings.Contains(output.String(), "No settings stored") {
			t.Errorf("expected empty message, got %q", output.String())
		}

		runApp(runner, "settings", "set", "b", "2")
		runApp(runner, "settings", "set", "a", "1")
		output.Reset()

		if err := runApp(runner, "settings", "list"); err != nil {
			t.Fatalf("settings list error = %v", err)
		}
		if output.String() != "a\nb\n" {
			t.Errorf("expected sorted keys, got %q", output.String())
		}
	})

	t.Run("get missing key", func(t *testing.T) {
		runner := newMemoryRunner(t, &bytes.Buffer{})

		err := runApp(runner, "settings", "get", "nope")
		if !errors.Is(err, shared.ErrSettingNotFound) {
			t.Errorf("expected ErrSettingNotFound, got %v", err)
		}
	})

	t.Run("argument validation", func(t *testing.T) {
		runner := newMemoryRunner(t, &bytes.Buffer{})

		if err := runApp(runner, "settings", "get"); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
		if err := runApp(runner, "settings", "set", "only-key"); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
		if err := runApp(runner, "settings", "set", repositories.KeyOAuthTokens, "{}"); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument for token key, got %v", err)
		}
	})
}
