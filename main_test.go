package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mrdg/polysampler/audio"
)

func TestRunReturnsSetupErrors(t *testing.T) {
	dir := t.TempDir()
	if err := run(audio.DefaultConfig(), filepath.Join(dir, "missing.json"), 8, -1, false); err == nil {
		t.Error("expected error for a missing bank")
	}

	bank := writeBank(t, dir)
	if err := run(audio.DefaultConfig(), bank, 0, -1, false); err == nil {
		t.Error("expected error for zero voices")
	}
}

func writeBank(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "bank.json")
	if err := os.WriteFile(path, []byte(emptyBank), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}
