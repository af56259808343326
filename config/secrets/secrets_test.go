package secrets

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestCutPrefix(t *testing.T) {
	var tests = []struct {
		in     string
		secret string
		ok     bool
	}{
		{"!secret mqtt_password", "mqtt_password", true},
		{"!secret  spaced ", "spaced", true},
		{"plain", "plain", false},
		{"!secretnope", "!secretnope", false},
	}
	for _, tt := range tests {
		secret, ok := CutPrefix(tt.in)
		if secret != tt.secret || ok != tt.ok {
			t.Errorf("%q: wanted (%q, %v), got (%q, %v)", tt.in, tt.secret, tt.ok, secret, ok)
		}
	}
}

func TestRead(t *testing.T) {
	old := Dir
	Dir = t.TempDir()
	t.Cleanup(func() { Dir = old })

	if err := os.WriteFile(filepath.Join(Dir, "mqtt_password"), []byte("p@55w0rd\n"), 0600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(Dir, "huge"), []byte(strings.Repeat("x", maxSize+1)), 0600); err != nil {
		t.Fatal(err)
	}

	got, err := Read("mqtt_password")
	if err != nil {
		t.Fatal(err)
	}
	if got != "p@55w0rd" {
		t.Errorf("wanted %q, got %q", "p@55w0rd", got)
	}

	if _, err := Read("huge"); !errors.Is(err, ErrTooLarge) {
		t.Errorf("huge: wanted ErrTooLarge, got %v", err)
	}
	if _, err := Read("../etc/passwd"); err == nil {
		t.Error("path traversal: wanted error")
	}
	if got := MustRead("missing", "fallback"); got != "fallback" {
		t.Errorf("missing: wanted fallback, got %q", got)
	}
}
