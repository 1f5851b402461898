package config

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultRulesFileName is the ruleset file name searched in the current directory.
const DefaultRulesFileName = ".urlfinder.yaml"

// XDGRulesFileName is the ruleset file name searched in the XDG config directory.
const XDGRulesFileName = "rules.yaml"

// ErrConfigNotFound is returned when the configuration file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// LoadRulesFile loads a ruleset from a YAML file.
// If the file does not exist, it returns ErrConfigNotFound.
// Keys missing from the file keep their built-in defaults.
// Callers should handle ErrConfigNotFound based on whether the path was
// explicitly specified by the user.
func LoadRulesFile(path string) (*RulesFile, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	rf := DefaultRulesFile()
	if err := yaml.Unmarshal(data, rf); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	return rf, nil
}

// FindRulesFile searches for the ruleset file in the following order:
// 1. If rulesPath is specified, use it directly
// 2. Look for .urlfinder.yaml in the current directory
// 3. Look for rules.yaml in the XDG config directory
//
// Returns the path to the ruleset file if found, or empty string if not found.
func FindRulesFile(rulesPath string) string {
	// If explicit path is provided, use it
	if rulesPath != "" {
		if _, err := os.Stat(rulesPath); err == nil {
			return rulesPath
		}
		return ""
	}

	// Check current directory
	cwd, err := os.Getwd()
	if err == nil {
		cwdConfig := filepath.Join(cwd, DefaultRulesFileName)
		if _, err := os.Stat(cwdConfig); err == nil {
			return cwdConfig
		}
	}

	// Check XDG config directory
	xdgConfig := filepath.Join(XDGConfigDir(), XDGRulesFileName)
	if _, err := os.Stat(xdgConfig); err == nil {
		return xdgConfig
	}

	return ""
}

// ReadSeedFile reads seed URLs from a file, one per line.
// Blank lines and lines starting with '#' are skipped.
func ReadSeedFile(path string) ([]string, error) {
	f, err := os.Open(path) //nolint:gosec // User-provided seed file path is intentional
	if err != nil {
		return nil, fmt.Errorf("failed to open seed file: %w", err)
	}
	defer f.Close()

	var seeds []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		seeds = append(seeds, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}

	return seeds, nil
}
