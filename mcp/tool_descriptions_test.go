package mcp

import (
	"strings"
	"testing"
)

func TestBuildToolDescriptionsCoverage(t *testing.T) {
	t.Parallel()

	descriptions := buildToolDescriptions(Config{})

	if len(descriptions) != len(mcpToolNames) {
		t.Fatalf("expected %d tool descriptions, got %d", len(mcpToolNames), len(descriptions))
	}
	for _, name := range mcpToolNames {
		description, ok := descriptions[name]
		if !ok {
			t.Fatalf("missing description for %s", name)
		}
		if strings.TrimSpace(description) == "" {
			t.Fatalf("empty description for %s", name)
		}
	}
}

func TestBuildToolDescriptionsIncludeOperationalSections(t *testing.T) {
	t.Parallel()

	descriptions := buildToolDescriptions(Config{})
	required := []string{
		"Purpose:",
		"Use when:",
		"Requires:",
		"Effects:",
		"Retry:",
		"Next:",
	}
	for _, name := range mcpToolNames {
		description := descriptions[name]
		for _, marker := range required {
			if !strings.Contains(description, marker) {
				t.Fatalf("description for %s missing marker %q: %q", name, marker, description)
			}
		}
	}
}

func TestDestructiveToolsCarryWarnings(t *testing.T) {
	t.Parallel()

	descriptions := buildToolDescriptions(Config{})
	for _, name := range []string{toolDeleteProject, toolRestoreProject} {
		if !strings.Contains(descriptions[name], "DESTRUCTIVE:") {
			t.Fatalf("expected DESTRUCTIVE warning in %s description", name)
		}
	}
	for _, name := range []string{toolCreateProject, toolGetProject, toolRotateProjectKeys} {
		if !strings.Contains(descriptions[name], "SENSITIVE:") {
			t.Fatalf("expected SENSITIVE warning in %s description", name)
		}
	}
}
