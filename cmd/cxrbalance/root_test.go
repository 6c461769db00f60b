package main

import (
	"bytes"
	"strings"
	"testing"
)

// TestNewRootCmd tests the root command creation.
func TestNewRootCmd(t *testing.T) {
	t.Parallel()

	cmd := NewRootCmd()

	t.Run("has correct use", func(t *testing.T) {
		t.Parallel()
		if cmd.Use != "cxrbalance" {
			t.Errorf("expected use 'cxrbalance', got %q", cmd.Use)
		}
	})

	t.Run("has descriptions", func(t *testing.T) {
		t.Parallel()
		if cmd.Short == "" || cmd.Long == "" {
			t.Error("expected non-empty descriptions")
		}
	})

	t.Run("has version", func(t *testing.T) {
		t.Parallel()
		if cmd.Version == "" {
			t.Error("expected non-empty version")
		}
	})

	t.Run("has verbose flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.PersistentFlags().Lookup("verbose")
		if flag == nil {
			t.Fatal("expected verbose flag")
		}
		if flag.Shorthand != "v" {
			t.Errorf("expected shorthand 'v', got %q", flag.Shorthand)
		}
		if flag.DefValue != "false" {
			t.Errorf("expected default 'false', got %q", flag.DefValue)
		}
	})

	t.Run("has log-json flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.PersistentFlags().Lookup("log-json")
		if flag == nil {
			t.Fatal("expected log-json flag")
		}
		if flag.DefValue != "false" {
			t.Errorf("expected default 'false', got %q", flag.DefValue)
		}
	})

	t.Run("has subcommands", func(t *testing.T) {
		t.Parallel()
		want := []string{"analyze", "check", "split", "train", "evaluate", "predict", "history", "init", "version"}
		for _, name := range want {
			sub, _, err := cmd.Find([]string{name})
			if err != nil || sub == cmd {
				t.Errorf("expected %s subcommand", name)
			}
		}
	})

	t.Run("silences usage and errors", func(t *testing.T) {
		t.Parallel()
		if !cmd.SilenceUsage {
			t.Error("expected SilenceUsage to be true")
		}
		if !cmd.SilenceErrors {
			t.Error("expected SilenceErrors to be true")
		}
	})
}

func TestNewLogger(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		jsonFormat bool
		wantPrefix string
	}{
		{name: "text", jsonFormat: false, wantPrefix: "time="},
		{name: "json", jsonFormat: true, wantPrefix: "{"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var buf bytes.Buffer
			newLogger(&buf, false, tt.jsonFormat).Warn("dataset skipped", "patient_id", "P-12345")

			output := buf.String()
			if !strings.HasPrefix(output, tt.wantPrefix) {
				t.Errorf("expected output to start with %q, got %q", tt.wantPrefix, output)
			}
			if strings.Contains(output, "P-12345") {
				t.Errorf("expected the patient id to be masked, got %q", output)
			}
		})
	}
}

func TestGetPersistentBool(t *testing.T) {
	t.Parallel()

	root := NewRootCmd()
	if err := root.PersistentFlags().Set("log-json", "true"); err != nil {
		t.Fatal(err)
	}
	sub, _, err := root.Find([]string{"check"})
	if err != nil {
		t.Fatal(err)
	}
	if !getPersistentBool(sub, "log-json") {
		t.Error("expected log-json to be read from the root")
	}
	if getPersistentBool(NewCheckCmd(), "log-json") {
		t.Error("expected false for a command without a root flag")
	}
}
