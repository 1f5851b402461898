package urlutil

import (
	"errors"
	"testing"
)

func TestDomainMatcher(t *testing.T) {
	t.Parallel()

	t.Run("empty pattern matches everything", func(t *testing.T) {
		t.Parallel()
		m, err := NewDomainMatcher("")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !m.Match("http://anything.test/") {
			t.Error("nil matcher should match")
		}
	})

	t.Run("pattern matches host only", func(t *testing.T) {
		t.Parallel()
		m, err := NewDomainMatcher(`(^|\.)example\.com$`)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		testCases := []struct {
			url      string
			expected bool
		}{
			{"http://example.com/", true},
			{"https://api.example.com:8443/v1", true},
			{"http://other.test/example.com", false},
			{"http://example.com.evil.test/", false},
			{"not a url", false},
		}
		for _, tc := range testCases {
			if got := m.Match(tc.url); got != tc.expected {
				t.Errorf("Match(%q) = %v, expected %v", tc.url, got, tc.expected)
			}
		}
	})

	t.Run("invalid pattern", func(t *testing.T) {
		t.Parallel()
		_, err := NewDomainMatcher("(")
		if !errors.Is(err, ErrInvalidDomainPattern) {
			t.Errorf("expected ErrInvalidDomainPattern, got %v", err)
		}
	})
}

func TestParseStatusCodes(t *testing.T) {
	t.Parallel()

	t.Run("all yields empty filter", func(t *testing.T) {
		t.Parallel()
		for _, in := range []string{"all", "ALL", " All ", ""} {
			codes, err := ParseStatusCodes(in)
			if err != nil {
				t.Fatalf("ParseStatusCodes(%q) error: %v", in, err)
			}
			if len(codes) != 0 {
				t.Errorf("ParseStatusCodes(%q) = %v, expected empty", in, codes)
			}
		}
	})

	t.Run("comma list", func(t *testing.T) {
		t.Parallel()
		codes, err := ParseStatusCodes("200, 301,404")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := []uint16{200, 301, 404}
		if len(codes) != len(want) {
			t.Fatalf("got %v, expected %v", codes, want)
		}
		for i := range want {
			if codes[i] != want[i] {
				t.Errorf("codes[%d] = %d, expected %d", i, codes[i], want[i])
			}
		}
	})

	t.Run("invalid entries are rejected", func(t *testing.T) {
		t.Parallel()
		for _, in := range []string{"200,abc", "99", "600", "70000"} {
			_, err := ParseStatusCodes(in)
			if !errors.Is(err, ErrInvalidStatusCode) {
				t.Errorf("ParseStatusCodes(%q): expected ErrInvalidStatusCode, got %v", in, err)
			}
		}
	})
}

func TestIsStatusMatch(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		status   uint16
		filter   []uint16
		expected bool
	}{
		{"empty filter matches 200", 200, []uint16{}, true},
		{"nil filter matches 500", 500, nil, true},
		{"listed code matches", 301, []uint16{200, 301}, true},
		{"unlisted code does not match", 404, []uint16{200, 301}, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := IsStatusMatch(tc.status, tc.filter); got != tc.expected {
				t.Errorf("IsStatusMatch(%d, %v) = %v, expected %v", tc.status, tc.filter, got, tc.expected)
			}
		})
	}
}
