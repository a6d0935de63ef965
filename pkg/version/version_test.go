package version

import (
	"strings"
	"testing"
)

func TestResolveKeepsExplicitValues(t *testing.T) {
	info := Resolve("1.2.3", "abcdef0", "2026-01-01")

	if info.Version != "1.2.3" {
		t.Errorf("Expected version 1.2.3, got %s", info.Version)
	}
	if info.Commit != "abcdef0" {
		t.Errorf("Expected commit abcdef0, got %s", info.Commit)
	}
	if info.Date != "2026-01-01" {
		t.Errorf("Expected date 2026-01-01, got %s", info.Date)
	}
}

func TestString(t *testing.T) {
	info := Info{Version: "1.0.0", Commit: "abc1234", Date: "today"}
	s := info.String()

	for _, part := range []string{"1.0.0", "abc1234", "today"} {
		if !strings.Contains(s, part) {
			t.Errorf("Expected %q in %q", part, s)
		}
	}
}

func TestResolveDevVersion(t *testing.T) {
	// In a plain test binary there is no module version to pick up, so the
	// placeholder survives or is replaced with real build info; either way
	// the fields stay non-empty.
	info := Resolve("dev", "unknown", "unknown")

	if info.Version == "" || info.Commit == "" || info.Date == "" {
		t.Errorf("Resolve must not empty out fields: %+v", info)
	}
}
