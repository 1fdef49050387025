// Command validate checks the board configuration JSON files in a configs
// directory (../configs unless a directory is given). It checks:
//   - JSON structure, rejecting unknown fields
//   - the engine's own rules (layout shape, groups, specials, messages)
//   - that every declared property and special tile appears on the board
//   - that a start tile exists and the starting cash buys at least one property
//
// Optional messages that fall back to built-in text are reported as warnings.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/wricardo/campus-monopoly/game/engine"
)

// ValidationResult captures the outcome of validating a single file.
// If Valid is true, Errors contains informational messages; otherwise it
// accumulates the validation errors that were found.
type ValidationResult struct {
	File   string
	Valid  bool
	Errors []string
}

func (r *ValidationResult) fail(format string, args ...interface{}) {
	r.Valid = false
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *ValidationResult) note(format string, args ...interface{}) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// validateConfig loads and validates a single configuration JSON file
func validateConfig(filePath string) ValidationResult {
	result := ValidationResult{
		File:   filepath.Base(filePath),
		Valid:  true,
		Errors: []string{},
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		result.fail("Failed to read file: %v", err)
		return result
	}

	var config engine.GameConfig
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&config); err != nil {
		result.fail("Invalid JSON: %v", err)
		return result
	}

	if err := engine.ValidateGameConfig(&config); err != nil {
		result.fail("%s", strings.TrimPrefix(err.Error(), "config validation: "))
		return result
	}

	board, err := engine.NewBoard(&config)
	if err != nil {
		result.fail("%v", err)
		return result
	}

	coverage := validatePlacement(&config, board)
	if !coverage.Valid {
		result.Valid = false
	}
	result.Errors = append(result.Errors, coverage.Errors...)

	economy := validateEconomy(&config, board)
	if !economy.Valid {
		result.Valid = false
	}
	result.Errors = append(result.Errors, economy.Errors...)

	if !result.Valid {
		return result
	}

	properties := 0
	for _, g := range config.Groups {
		properties += len(g.Members)
	}
	result.note("✓ Name: %s", config.Name)
	result.note("✓ Board: %dx%d, %d tiles", len(config.Layout), len(config.Layout), board.Size())
	result.note("✓ Groups: %d, properties: %d", len(config.Groups), properties)
	result.note("✓ Starting cash: $%d, turn cap: %d", config.StartingCash, config.TurnCap)
	if config.JailArrest {
		result.note("✓ Jail: arrest for %d turns, bail $%d", config.JailTurns, config.BailAmount)
	} else {
		result.note("✓ Jail: visiting only")
	}
	for _, key := range missingMessages(&config) {
		result.note("⚠ Message %s not set, built-in text is used", key)
	}
	return result
}

// validatePlacement ensures every declared code appears on the perimeter
// and that players have somewhere to start
func validatePlacement(config *engine.GameConfig, board *engine.Board) ValidationResult {
	result := ValidationResult{Valid: true, Errors: []string{}}

	starts := 0
	for _, tile := range board.Tiles() {
		if tile.Kind == engine.TileStart {
			starts++
		}
	}
	if starts == 0 {
		result.fail("Board has no start tile")
	}
	if first := board.TileAt(0); first.Kind != engine.TileStart {
		result.fail("Position 0 must be the start tile, found '%s'", first.Symbol)
	}

	var missing []string
	for _, g := range config.Groups {
		for _, m := range g.Members {
			if board.FirstPosition(m.Code) < 0 {
				missing = append(missing, m.Code)
			}
		}
	}
	for _, s := range config.Specials {
		if board.FirstPosition(s.Code) < 0 {
			missing = append(missing, s.Code)
		}
	}
	if len(missing) > 0 {
		result.fail("Coverage failure: %d declared tiles never appear on the board", len(missing))
		for _, code := range missing {
			result.fail("Not on board: %s", code)
		}
	} else if result.Valid {
		result.note("✓ Coverage: every declared tile is on the board")
	}
	return result
}

// validateEconomy checks the opening cash against property prices
func validateEconomy(config *engine.GameConfig, board *engine.Board) ValidationResult {
	result := ValidationResult{Valid: true, Errors: []string{}}

	cheapest := -1
	for _, p := range engine.BuildCatalog(config, board) {
		if p.Kind != engine.TileProperty {
			continue
		}
		if cheapest < 0 || p.Cost < cheapest {
			cheapest = p.Cost
		}
	}
	if cheapest > config.StartingCash {
		result.fail("starting_cash $%d cannot buy the cheapest property ($%d)", config.StartingCash, cheapest)
		return result
	}
	result.note("✓ Cheapest property: $%d", cheapest)
	return result
}

func missingMessages(config *engine.GameConfig) []string {
	m := config.Messages
	fields := []struct {
		key   string
		value string
	}{
		{"pass_start", m.PassStart},
		{"purchased", m.Purchased},
		{"declined", m.Declined},
		{"rent_paid", m.RentPaid},
		{"bankrupt", m.Bankrupt},
		{"toll", m.Toll},
		{"visiting", m.Visiting},
		{"arrested", m.Arrested},
		{"game_over", m.GameOver},
		{"turn_cap_hit", m.TurnCapHit},
	}
	var missing []string
	for _, f := range fields {
		if f.value == "" {
			missing = append(missing, f.key)
		}
	}
	return missing
}

// main scans the configs directory for *.json files and validates each one,
// printing a concise report and exiting with non-zero status if any are invalid.
func main() {
	configDir := "../configs"
	if len(os.Args) > 1 {
		configDir = os.Args[1]
	}
	files, err := filepath.Glob(filepath.Join(configDir, "*.json"))
	if err != nil {
		fmt.Printf("Error finding config files: %v\n", err)
		os.Exit(1)
	}
	if len(files) == 0 {
		fmt.Printf("No config files found in %s\n", configDir)
		os.Exit(1)
	}

	allValid := true
	for _, file := range files {
		result := validateConfig(file)

		fmt.Printf("\n%s %s\n", strings.Repeat("=", 20), result.File)

		if result.Valid {
			fmt.Println("✅ VALID")
			for _, info := range result.Errors {
				fmt.Println("  " + info)
			}
		} else {
			fmt.Println("❌ INVALID")
			allValid = false
			for _, err := range result.Errors {
				if !strings.HasPrefix(err, "✓") {
					fmt.Println("  ❌ " + err)
				}
			}
		}
	}

	fmt.Printf("\n%s\n", strings.Repeat("=", 40))
	if allValid {
		fmt.Println("✅ All configurations are valid!")
	} else {
		fmt.Println("❌ Some configurations have errors")
		os.Exit(1)
	}
}
