package model

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidMode is returned by ParseMode for values outside 1..3.
var ErrInvalidMode = errors.New("invalid mode: must be 1 (normal), 2 (deep) or 3 (deep-safe)")

// ErrInvalidFuzzMode is returned by ParseFuzzMode for values outside 0..3.
var ErrInvalidFuzzMode = errors.New("invalid fuzz mode: must be 0 (none), 1 (url), 2 (js) or 3 (both)")

// Mode selects which pattern groups run against a fetched body.
// Modes are cumulative: every mode includes everything the lower modes do.
//
// Design decision: Mode is a closed enum with an explicit Valid() check
// rather than a bare integer. The CLI accepts numbers for compatibility with
// existing scripts, and ParseMode is the single place that turns them into
// a Mode.
type Mode int

const (
	// ModeNormal extracts page URLs only.
	ModeNormal Mode = 1

	// ModeDeep additionally extracts JavaScript asset URLs.
	ModeDeep Mode = 2

	// ModeDeepSafe additionally extracts sensitive-looking strings
	// such as credentials and API paths.
	ModeDeepSafe Mode = 3
)

// String returns a human-readable representation of the mode.
func (m Mode) String() string {
	switch m {
	case ModeNormal:
		return "normal"
	case ModeDeep:
		return "deep"
	case ModeDeepSafe:
		return "deep-safe"
	default:
		return "unknown"
	}
}

// Valid reports whether m is one of the defined modes.
func (m Mode) Valid() bool {
	return m >= ModeNormal && m <= ModeDeepSafe
}

// ExtractsJS reports whether JavaScript URLs are collected in this mode.
func (m Mode) ExtractsJS() bool {
	return m >= ModeDeep
}

// ExtractsSensitive reports whether sensitive strings are collected in this mode.
func (m Mode) ExtractsSensitive() bool {
	return m >= ModeDeepSafe
}

// ParseMode parses a mode given either as a number ("1".."3") or a name
// ("normal", "deep", "deep-safe").
func ParseMode(s string) (Mode, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "normal":
		return ModeNormal, nil
	case "deep":
		return ModeDeep, nil
	case "deep-safe", "deepsafe", "safe":
		return ModeDeepSafe, nil
	}

	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidMode, s)
	}
	m := Mode(n)
	if !m.Valid() {
		return 0, fmt.Errorf("%w: %d", ErrInvalidMode, n)
	}
	return m, nil
}

// FuzzMode selects which fuzz candidate generators run after extraction.
// FuzzNone disables fuzzing entirely and is the zero value.
type FuzzMode int

const (
	// FuzzNone disables fuzz candidate generation.
	FuzzNone FuzzMode = 0

	// FuzzURL generates directory guesses for pages that answered 404.
	FuzzURL FuzzMode = 1

	// FuzzJS generates script name guesses next to discovered JavaScript.
	FuzzJS FuzzMode = 2

	// FuzzBoth runs both generators.
	FuzzBoth FuzzMode = 3
)

// String returns a human-readable representation of the fuzz mode.
func (f FuzzMode) String() string {
	switch f {
	case FuzzNone:
		return "none"
	case FuzzURL:
		return "url"
	case FuzzJS:
		return "js"
	case FuzzBoth:
		return "both"
	default:
		return "unknown"
	}
}

// Valid reports whether f is one of the defined fuzz modes.
func (f FuzzMode) Valid() bool {
	return f >= FuzzNone && f <= FuzzBoth
}

// FuzzesURL reports whether the URL generator runs in this fuzz mode.
func (f FuzzMode) FuzzesURL() bool {
	return f == FuzzURL || f == FuzzBoth
}

// FuzzesJS reports whether the JavaScript generator runs in this fuzz mode.
func (f FuzzMode) FuzzesJS() bool {
	return f == FuzzJS || f == FuzzBoth
}

// ParseFuzzMode parses a fuzz mode given as a number ("0".."3") or a name
// ("none", "url", "js", "both"). The empty string means FuzzNone.
func ParseFuzzMode(s string) (FuzzMode, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "", "none":
		return FuzzNone, nil
	case "url":
		return FuzzURL, nil
	case "js":
		return FuzzJS, nil
	case "both", "all":
		return FuzzBoth, nil
	}

	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidFuzzMode, s)
	}
	f := FuzzMode(n)
	if !f.Valid() {
		return 0, fmt.Errorf("%w: %d", ErrInvalidFuzzMode, n)
	}
	return f, nil
}
