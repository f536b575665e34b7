package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadPromptsMissingFileUsesDefaults(t *testing.T) {
	prompts, err := LoadPrompts(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("missing file should not error: %v", err)
	}
	if prompts.Chat == "" || prompts.DailySummary == "" || prompts.MorningFirst == "" || prompts.MorningDaily == "" {
		t.Error("defaults must cover every prompt")
	}
}

func TestLoadPromptsPartialOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prompts.yaml")
	content := "daily_summary: custom summary prompt\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	prompts, err := LoadPrompts(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if prompts.DailySummary != "custom summary prompt" {
		t.Errorf("override not applied, got %q", prompts.DailySummary)
	}
	if prompts.Chat != defaultChatPrompt {
		t.Error("unset fields must keep their defaults")
	}
}

func TestLoadPromptsEmptyPath(t *testing.T) {
	prompts, err := LoadPrompts("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if prompts != defaultPrompts() {
		t.Error("empty path must return defaults unchanged")
	}
}
