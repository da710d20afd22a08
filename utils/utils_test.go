package utils

import (
	"path/filepath"
	"regexp"
	"testing"
)

func TestNewFileIDIs32Hex(t *testing.T) {
	re := regexp.MustCompile(`^[0-9a-f]{32}$`)
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		id := NewFileID()
		if !re.MatchString(id) {
			t.Fatalf("Expected 32 hex chars, got %q", id)
		}
		if seen[id] {
			t.Fatalf("Duplicate id %q", id)
		}
		seen[id] = true
	}
}

func TestRandomHexLength(t *testing.T) {
	if got := RandomHex(8); len(got) != 16 {
		t.Errorf("Expected 16 chars, got %q", got)
	}
}

func TestResolvePath(t *testing.T) {
	t.Setenv(RootEnv, "/srv/onmydesk")
	if got := ResolvePath("config.yaml"); got != filepath.Join("/srv/onmydesk", "config.yaml") {
		t.Errorf("Expected path under root, got %q", got)
	}
	if got := ResolvePath("/etc/onmydesk.yaml"); got != "/etc/onmydesk.yaml" {
		t.Errorf("Expected absolute path untouched, got %q", got)
	}
	if got := ResolvePath(""); got != "" {
		t.Errorf("Expected empty path untouched, got %q", got)
	}
}
