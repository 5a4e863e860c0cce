package logging

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func resetLogging(t *testing.T) {
	t.Helper()
	t.Cleanup(func() {
		CloseAll()
		_ = Initialize(os.TempDir(), Config{})
	})
}

// TestAllCategoriesLog tests that all categories create log files when debug_mode is true
func TestAllCategoriesLog(t *testing.T) {
	resetLogging(t)
	root := t.TempDir()

	if err := Initialize(root, Config{DebugMode: true, Level: "debug"}); err != nil {
		t.Fatalf("Failed to initialize logging: %v", err)
	}
	if !IsDebugMode() {
		t.Error("Expected debug mode to be enabled")
	}

	for _, cat := range Categories {
		if !IsCategoryEnabled(cat) {
			t.Errorf("Category %s should be enabled", cat)
		}
		l := Get(cat)
		l.Info("Test info message for %s", cat)
		l.Debug("Test debug message for %s", cat)
		l.Warn("Test warn message for %s", cat)
		l.Error("Test error message for %s", cat)
	}

	Writer("Convenience writer log")
	Baseline("Convenience baseline log")
	Reconcile("Convenience reconcile log")
	Journal("Convenience journal log")
	Manifest("Convenience manifest log")
	Watch("Convenience watch log")

	CloseAll()

	logsPath := filepath.Join(root, ".anubis", "logs")
	entries, err := os.ReadDir(logsPath)
	if err != nil {
		t.Fatalf("Failed to read logs dir: %v", err)
	}

	for _, cat := range Categories {
		found := false
		for _, entry := range entries {
			if strings.HasSuffix(entry.Name(), "_"+string(cat)+".log") {
				found = true
				content, err := os.ReadFile(filepath.Join(logsPath, entry.Name()))
				if err != nil {
					t.Errorf("Failed to read log file for %s: %v", cat, err)
				} else if !strings.Contains(string(content), "[DEBUG]") {
					t.Errorf("Log file for %s is missing debug lines", cat)
				}
				break
			}
		}
		if !found {
			t.Errorf("No log file found for category: %s", cat)
		}
	}
}

// TestDebugModeDisabled tests that no logs are created when debug_mode is false
func TestDebugModeDisabled(t *testing.T) {
	resetLogging(t)
	root := t.TempDir()

	if err := Initialize(root, Config{DebugMode: false, Level: "debug"}); err != nil {
		t.Fatalf("Failed to initialize logging: %v", err)
	}
	Get(CategoryWriter).Info("should not be written")
	Writer("should not be written either")
	CloseAll()

	if _, err := os.Stat(filepath.Join(root, ".anubis", "logs")); !os.IsNotExist(err) {
		t.Errorf("Expected no logs directory in production mode, got err=%v", err)
	}
}

func TestCategoryFilter(t *testing.T) {
	resetLogging(t)
	root := t.TempDir()

	cfg := Config{DebugMode: true, Categories: map[string]bool{"watch": false}}
	if err := Initialize(root, cfg); err != nil {
		t.Fatalf("Failed to initialize logging: %v", err)
	}
	if IsCategoryEnabled(CategoryWatch) {
		t.Error("watch should be disabled")
	}
	if !IsCategoryEnabled(CategoryWriter) {
		t.Error("categories missing from the filter should be enabled")
	}
}

func TestLevelFilteringAndJSON(t *testing.T) {
	resetLogging(t)
	root := t.TempDir()

	if err := Initialize(root, Config{DebugMode: true, Level: "warn", JSONFormat: true}); err != nil {
		t.Fatalf("Failed to initialize logging: %v", err)
	}
	l := Get(CategoryJournal)
	l.Info("dropped")
	l.Warn("kept %d", 1)
	CloseAll()

	matches, _ := filepath.Glob(filepath.Join(root, ".anubis", "logs", "*_journal.log"))
	if len(matches) != 1 {
		t.Fatalf("expected one journal log file, got %v", matches)
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "dropped") {
		t.Error("info line should be filtered at warn level")
	}

	line := strings.TrimSpace(string(data))
	line = line[strings.Index(line, "{"):]
	var entry StructuredLogEntry
	if err := json.Unmarshal([]byte(line), &entry); err != nil {
		t.Fatalf("expected JSON entry, got %q: %v", line, err)
	}
	if entry.Message != "kept 1" || entry.Level != "WARN" || entry.Category != "journal" {
		t.Errorf("unexpected entry: %+v", entry)
	}
}

func TestInitializeRequiresRoot(t *testing.T) {
	if err := Initialize("", Config{}); err == nil {
		t.Error("expected error for empty root")
	}
}
