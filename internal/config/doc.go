// Package config provides configuration structures and utilities for URLFinder.
// It defines the run parameters collected from the command line, the YAML
// ruleset file with its built-in defaults, and the lookup rules for both the
// ruleset file and the XDG directories.
package config
