package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/wricardo/campus-monopoly/game/engine"
)

func writeConfig(t *testing.T, config interface{}) string {
	t.Helper()
	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		t.Fatalf("Failed to marshal config: %v", err)
	}
	return writeRaw(t, string(data))
}

func writeRaw(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test_config.json")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	return path
}

// hasMessage reports whether any result line contains substr
func hasMessage(result ValidationResult, substr string) bool {
	for _, msg := range result.Errors {
		if strings.Contains(msg, substr) {
			return true
		}
	}
	return false
}

func TestValidateConfig_ValidConfig(t *testing.T) {
	path := writeConfig(t, engine.DefaultGameConfig())

	result := validateConfig(path)
	if !result.Valid {
		t.Fatalf("Expected valid config, but got errors: %v", result.Errors)
	}
	if result.File != "test_config.json" {
		t.Errorf("Expected file name test_config.json, got %s", result.File)
	}
	for _, want := range []string{"✓ Name: umd", "✓ Board: 11x11, 40 tiles", "✓ Groups: 5, properties: 15", "✓ Coverage", "✓ Cheapest property: $200"} {
		if !hasMessage(result, want) {
			t.Errorf("Expected %q in %v", want, result.Errors)
		}
	}
}

func TestValidateConfig_ShippedConfigs(t *testing.T) {
	files, err := filepath.Glob(filepath.Join("..", "configs", "*.json"))
	if err != nil {
		t.Fatalf("Glob failed: %v", err)
	}
	if len(files) == 0 {
		t.Skip("Skipping test - configs directory not found")
	}
	for _, file := range files {
		t.Run(filepath.Base(file), func(t *testing.T) {
			result := validateConfig(file)
			if !result.Valid {
				t.Errorf("Expected %s to be valid: %v", file, result.Errors)
			}
		})
	}
}

func TestValidateConfig_InvalidJSON(t *testing.T) {
	result := validateConfig(writeRaw(t, `{"name": "test", invalid json}`))
	if result.Valid {
		t.Error("Expected invalid config due to bad JSON")
	}
	if !hasMessage(result, "Invalid JSON") {
		t.Errorf("Expected 'Invalid JSON' error, got %v", result.Errors)
	}
}

func TestValidateConfig_UnknownField(t *testing.T) {
	result := validateConfig(writeRaw(t, `{"name": "test", "grid_size": 5}`))
	if result.Valid {
		t.Error("Expected unknown field to be rejected")
	}
	if !hasMessage(result, "grid_size") {
		t.Errorf("Expected error naming grid_size, got %v", result.Errors)
	}
}

func TestValidateConfig_MissingFile(t *testing.T) {
	result := validateConfig("/non/existent/file.json")
	if result.Valid {
		t.Error("Expected invalid result for missing file")
	}
	if !hasMessage(result, "Failed to read file") {
		t.Error("Expected 'Failed to read file' error")
	}
}

func TestValidateConfig_Failures(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *engine.GameConfig)
		wantMsg string
	}{
		{
			name:    "empty layout",
			mutate:  func(c *engine.GameConfig) { c.Layout = nil },
			wantMsg: "layout must have",
		},
		{
			name:    "no groups",
			mutate:  func(c *engine.GameConfig) { c.Groups = nil },
			wantMsg: "at least one property group",
		},
		{
			name: "declared member missing from board",
			mutate: func(c *engine.GameConfig) {
				c.Groups[0].Members = append(c.Groups[0].Members, engine.MemberConfig{Code: "Z", Name: "Nowhere Hall"})
				c.Groups[0].FullSet = len(c.Groups[0].Members)
			},
			wantMsg: "Not on board: Z",
		},
		{
			name: "start not at position zero",
			mutate: func(c *engine.GameConfig) {
				c.Layout[len(c.Layout)-1] = "J D3 C E T H R R D2 GO H"
			},
			wantMsg: "Position 0 must be the start tile",
		},
		{
			name:    "starting cash too low",
			mutate:  func(c *engine.GameConfig) { c.StartingCash = 100 },
			wantMsg: "cannot buy the cheapest property",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := engine.DefaultGameConfig()
			tt.mutate(config)

			result := validateConfig(writeConfig(t, config))
			if result.Valid {
				t.Fatalf("Expected invalid config, got %v", result.Errors)
			}
			if !hasMessage(result, tt.wantMsg) {
				t.Errorf("Expected %q in %v", tt.wantMsg, result.Errors)
			}
		})
	}
}

func TestValidateConfig_MessageWarnings(t *testing.T) {
	config := engine.DefaultGameConfig()
	config.Messages.Toll = ""
	config.Messages.Arrested = ""

	result := validateConfig(writeConfig(t, config))
	if !result.Valid {
		t.Fatalf("Missing optional messages should not invalidate: %v", result.Errors)
	}
	if !hasMessage(result, "⚠ Message toll") || !hasMessage(result, "⚠ Message arrested") {
		t.Errorf("Expected warnings for toll and arrested, got %v", result.Errors)
	}
}

func TestMissingMessages(t *testing.T) {
	if missing := missingMessages(engine.DefaultGameConfig()); len(missing) != 0 {
		t.Errorf("Expected no missing messages on the default board, got %v", missing)
	}

	var empty engine.GameConfig
	if missing := missingMessages(&empty); len(missing) != 10 {
		t.Errorf("Expected 10 missing messages, got %d", len(missing))
	}
}
