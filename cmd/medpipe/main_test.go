package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
)

func TestCommandsRegistered(t *testing.T) {
	want := []string{"serve", "transcribe", "extract", "diagnose", "version"}
	for _, name := range want {
		cmd, _, err := rootCmd.Find([]string{name})
		if err != nil || cmd.Name() != name {
			t.Errorf("command %q not registered: %v", name, err)
		}
	}
}

func TestFlagValidation(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"transcribe without url", []string{"transcribe"}, `"url"`},
		{"extract without input", []string{"extract"}, "text"},
		{"extract with both inputs", []string{"extract", "--text", "a", "--file", "b"}, "text"},
		{"diagnose without file", []string{"diagnose"}, `"file"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rootCmd.SetArgs(tt.args)
			rootCmd.SetOut(&bytes.Buffer{})
			err := rootCmd.Execute()
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("error = %v, want containing %s", err, tt.wantErr)
			}
		})
	}
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetArgs([]string{"version"})
	rootCmd.SetOut(&out)
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.HasPrefix(out.String(), "medpipe ") {
		t.Errorf("output = %q", out.String())
	}
}

func TestReadInput(t *testing.T) {
	cmd := &cobra.Command{}
	cmd.SetIn(strings.NewReader(`{"symptoms":[]}`))
	got, err := readInput(cmd, "-")
	if err != nil || string(got) != `{"symptoms":[]}` {
		t.Fatalf("stdin = %q, %v", got, err)
	}

	path := filepath.Join(t.TempDir(), "info.json")
	if err := os.WriteFile(path, []byte("file body"), 0o600); err != nil {
		t.Fatal(err)
	}
	got, err = readInput(cmd, path)
	if err != nil || string(got) != "file body" {
		t.Fatalf("file = %q, %v", got, err)
	}

	if _, err := readInput(cmd, filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
