package utils

import (
	"os"
	"path/filepath"
	"testing"
)

func TestHashStringKnownVector(t *testing.T) {
	// sha256 of the empty string
	want := "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"
	if got := HashString(""); got != want {
		t.Errorf("HashString(\"\") = %s, want %s", got, want)
	}
}

func TestHashFileMatchesHashString(t *testing.T) {
	path := filepath.Join(t.TempDir(), "step.log")
	if err := os.WriteFile(path, []byte("all green\n"), 0644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	got, err := HashFile(path)
	if err != nil {
		t.Fatalf("failed to hash file: %v", err)
	}
	if want := HashString("all green\n"); got != want {
		t.Errorf("HashFile = %s, want %s", got, want)
	}
}

func TestHashFileMissing(t *testing.T) {
	if _, err := HashFile(filepath.Join(t.TempDir(), "nope.log")); err == nil {
		t.Errorf("expected an error for a missing file")
	}
}
