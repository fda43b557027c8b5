package main

import (
	"bytes"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/spotitransfer/internal/shared"
	tu "github.com/desertthunder/spotitransfer/internal/testing"
	"golang.org/x/oauth2"
)

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			httpClient := &http.Client{}
			source := &tu.MockService{}
			dest := &tu.MockService{}

			runner := NewRunner(RunnerOpts{
				Config:     config,
				Logger:     logger,
				Output:     output,
				HTTPClient: httpClient,
				Source:     source,
				Dest:       dest,
			})

			if runner.config != config {
				t.Error("expected config to be set")
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
			if runner.source != source {
				t.Error("expected source to be set")
			}
			if runner.dest != dest {
				t.Error("expected dest to be set")
			}
		})

		t.Run("with nil config uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Config: nil})

			if runner.config == nil {
				t.Error("expected default config to be set")
			}
		})

		t.Run("with nil logger uses default", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Logger: nil})

			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
		})

		t.Run("with nil output uses stdout", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: nil})

			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
		})

		t.Run("with configPath sets field", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{ConfigPath: "/test/path/config.toml"})

			if runner.configPath != "/test/path/config.toml" {
				t.Errorf("expected configPath to be set, got %s", runner.configPath)
			}
		})
	})

	t.Run("accountFor", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})

		source, err := runner.accountFor(roleSource)
		if err != nil || source != &runner.config.Accounts.Source {
			t.Error("expected source account section")
		}

		dest, err := runner.accountFor(roleDest)
		if err != nil || dest != &runner.config.Accounts.Dest {
			t.Error("expected dest account section")
		}

		if _, err := runner.accountFor("both"); err == nil {
			t.Error("expected error for unknown role")
		}
	})

	t.Run("serviceFor", func(t *testing.T) {
		source := &tu.MockService{}
		runner := NewRunner(RunnerOpts{Source: source})

		svc, err := runner.serviceFor(roleSource)
		if err != nil || svc != source {
			t.Error("expected source service")
		}

		if _, err := runner.serviceFor(roleDest); err == nil {
			t.Error("expected error for uninitialized dest")
		}
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			data := map[string]string{"key": "value"}
			err := runner.writeJSON(data, true)

			if err != nil {
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

			data := map[string]string{"key": "value"}
			err := runner.writeJSON(data, false)

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			expected := `{"key":"value"}` + "\n"
			if output.String() != expected {
				t.Errorf("expected %q, got %q", expected, output.String())
			}
		})

		t.Run("handles marshal error with non-serializable data", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			// channels cannot be marshaled to JSON
			data := make(chan int)
			err := runner.writeJSON(data, false)

			if err == nil {
				t.Fatal("expected error for non-serializable data")
			}
			if !strings.Contains(err.Error(), "failed to marshal JSON") {
				t.Errorf("expected marshal error, got %v", err)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			failing := &tu.FWriter{}
			runner := NewRunner(RunnerOpts{Output: failing})

			data := map[string]string{"key": "value"}
			err := runner.writeJSON(data, false)

			if err == nil {
				t.Fatal("expected error from failing writer")
			}
			if !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		t.Run("writes plain text successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			err := runner.writePlain("hello %s", "world")

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			if output.String() != "hello world" {
				t.Errorf("expected 'hello world', got %q", output.String())
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			failing := &tu.FWriter{}
			runner := NewRunner(RunnerOpts{Output: failing})

			err := runner.writePlain("test")

			if err == nil {
				t.Fatal("expected error from failing writer")
			}
			if !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})
	})

	t.Run("register", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})
		commands := runner.register()

		if len(commands) == 0 {
			t.Error("expected at least one command to be registered")
		}

		for i, cmd := range commands {
			if cmd == nil {
				t.Errorf("command at index %d is nil", i)
			}
		}
	})

	t.Run("saveTokens", func(t *testing.T) {
		t.Run("saves tokens for each role", func(t *testing.T) {
			tmpDir := t.TempDir()
			configPath := filepath.Join(tmpDir, "config.toml")

			config := shared.DefaultConfig()
			config.Credentials.Spotify.ClientID = "test_id"
			config.Credentials.Spotify.ClientSecret = "test_secret"

			if err := shared.SaveConfig(configPath, config); err != nil {
				t.Fatalf("failed to create test config: %v", err)
			}

			runner := NewRunner(RunnerOpts{
				Config:     config,
				ConfigPath: configPath,
			})

			sourceToken := &oauth2.Token{AccessToken: "source_access", RefreshToken: "source_refresh"}
			destToken := &oauth2.Token{AccessToken: "dest_access", RefreshToken: "dest_refresh"}

			if err := runner.saveTokens(roleSource, sourceToken); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if err := runner.saveTokens(roleDest, destToken); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			loadedConfig, err := shared.LoadConfig(configPath)
			if err != nil {
				t.Fatalf("failed to reload config: %v", err)
			}

			if loadedConfig.Accounts.Source.AccessToken != "source_access" {
				t.Errorf("expected source token to be saved, got %s", loadedConfig.Accounts.Source.AccessToken)
			}
			if loadedConfig.Accounts.Dest.AccessToken != "dest_access" {
				t.Errorf("expected dest token to be saved, got %s", loadedConfig.Accounts.Dest.AccessToken)
			}
			if loadedConfig.Accounts.Source.RefreshToken != "source_refresh" {
				t.Error("expected source refresh token to be saved")
			}
		})

		t.Run("rejects unknown role", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			err := runner.saveTokens("primary", &oauth2.Token{AccessToken: "x"})
			if err == nil {
				t.Fatal("expected error for unknown role")
			}
		})

		t.Run("handles nil token error", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			err := runner.saveTokens(roleSource, nil)
			if err == nil {
				t.Fatal("expected error with nil token")
			}
			if !strings.Contains(err.Error(), "failed to update source account configuration") {
				t.Errorf("expected update error, got %v", err)
			}
		})

		t.Run("handles empty configPath", func(t *testing.T) {
			config := shared.DefaultConfig()
			runner := NewRunner(RunnerOpts{Config: config, ConfigPath: ""})

			token := &oauth2.Token{AccessToken: "new_token", RefreshToken: "new_refresh"}

			if err := runner.saveTokens(roleSource, token); err != nil {
				t.Fatalf("expected no error with empty path, got %v", err)
			}

			if config.Accounts.Source.AccessToken != "new_token" {
				t.Error("expected config to be updated in memory")
			}
		})

		t.Run("handles SaveConfig failure", func(t *testing.T) {
			config := shared.DefaultConfig()
			invalidPath := filepath.Join(t.TempDir(), "missing", "nested", "config.toml")

			runner := NewRunner(RunnerOpts{Config: config, ConfigPath: invalidPath})

			err := runner.saveTokens(roleDest, &oauth2.Token{AccessToken: "test"})

			if err == nil {
				t.Fatal("expected error with invalid path")
			}
			if !strings.Contains(err.Error(), "failed to save config") {
				t.Errorf("expected save config error, got %v", err)
			}
		})
	})
}
