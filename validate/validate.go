// Command validate checks the game configuration JSON files in a directory
// (../configs by default). It checks:
//   - JSON structure, rejecting unknown keys
//   - Required fields and message texts
//   - The victory message carries exactly one %d for the move count
//   - Other messages carry no format verbs
//   - max_bulk_clicks is within the server limit
//   - The config deals a legal opening position
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/wricardo/klondike/game/engine"
)

// ValidationResult captures the outcome of validating a single file.
// If Valid is true, Errors contains informational messages; otherwise it
// accumulates the validation errors that were found.
type ValidationResult struct {
	File   string
	Valid  bool
	Errors []string
}

func (r *ValidationResult) fail(format string, args ...any) {
	r.Valid = false
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *ValidationResult) info(format string, args ...any) {
	r.Errors = append(r.Errors, "✓ "+fmt.Sprintf(format, args...))
}

// validateConfig loads and validates a single configuration JSON file.
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

	configID := strings.ToLower(strings.TrimSuffix(result.File, ".json"))
	if strings.ContainsAny(configID, " /\\") {
		result.fail("File name %q is not a usable config ID", result.File)
	}

	if err := engine.ValidateGameConfig(&config); err != nil {
		result.fail("%v", err)
	}

	if n := strings.Count(config.Messages.Victory, "%"); config.Messages.Victory != "" && n != 1 {
		result.fail("messages.victory must contain exactly one format verb (%%d), found %d", n)
	}

	plain := []struct{ key, text string }{
		{"welcome", config.Messages.Welcome},
		{"selected", config.Messages.Selected},
		{"move_made", config.Messages.MoveMade},
		{"move_rejected", config.Messages.MoveRejected},
		{"draw", config.Messages.Draw},
		{"recycle", config.Messages.Recycle},
		{"game_won", config.Messages.GameWon},
	}
	for _, m := range plain {
		if strings.Contains(m.text, "%") {
			result.fail("messages.%s must not contain format verbs", m.key)
		}
	}

	if !result.Valid {
		return result
	}

	// Deal once to make sure the config produces a legal opening
	eng, err := engine.NewEngine(&config)
	if err != nil {
		result.fail("Failed to deal: %v", err)
		return result
	}
	state := eng.GetState()
	if err := engine.CheckInvariants(state); err != nil {
		result.fail("Opening position is invalid: %v", err)
		return result
	}

	result.info("ID: %s", configID)
	result.info("Name: %s", config.Name)
	if config.Seed != 0 {
		result.info("Deal: fixed (seed %d), opening row %s", config.Seed, openingRow(state))
	} else {
		result.info("Deal: random")
	}
	result.info("Bulk click limit: %d", config.BulkClickLimit())
	result.info("Opening moves available: %d", len(eng.GetPossibleMoves()))

	return result
}

// openingRow lists the face-up card of each tableau column.
func openingRow(state *engine.GameState) string {
	cards := make([]string, 0, engine.TableauColumns)
	for _, col := range state.Tableau {
		if n := len(col); n > 0 {
			cards = append(cards, col[n-1].Card.String())
		}
	}
	return strings.Join(cards, " ")
}

// validateDir validates every *.json file in dir and writes a report to w.
// It reports whether all files are valid.
func validateDir(dir string, w io.Writer) (bool, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return false, fmt.Errorf("finding config files: %w", err)
	}
	if len(files) == 0 {
		return false, fmt.Errorf("no config files in %s", dir)
	}

	allValid := true
	for _, file := range files {
		result := validateConfig(file)

		fmt.Fprintf(w, "\n%s %s\n", strings.Repeat("=", 20), result.File)

		if result.Valid {
			fmt.Fprintln(w, "✅ VALID")
			for _, info := range result.Errors {
				fmt.Fprintln(w, "  "+info)
			}
		} else {
			fmt.Fprintln(w, "❌ INVALID")
			allValid = false
			for _, err := range result.Errors {
				if !strings.HasPrefix(err, "✓") {
					fmt.Fprintln(w, "  ❌ "+err)
				}
			}
		}
	}

	fmt.Fprintf(w, "\n%s\n", strings.Repeat("=", 40))
	if allValid {
		fmt.Fprintln(w, "✅ All configurations are valid!")
	} else {
		fmt.Fprintln(w, "❌ Some configurations have errors")
	}
	return allValid, nil
}

func newCommand(w io.Writer) *cli.Command {
	return &cli.Command{
		Name:  "validate",
		Usage: "validate game configuration files",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "dir",
				Value:   "../configs",
				Usage:   "directory containing *.json game configurations",
				Sources: cli.EnvVars("CONFIG_DIR"),
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			ok, err := validateDir(cmd.String("dir"), w)
			if err != nil {
				return err
			}
			if !ok {
				return errors.New("some configurations have errors")
			}
			return nil
		},
	}
}

func main() {
	if err := newCommand(os.Stdout).Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
