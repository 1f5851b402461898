package tor

import (
	"errors"
	"strings"
	"testing"
)

// Valid v3 addresses built from deterministic public keys. They do not
// correspond to any real hidden service.
const (
	// all-zero public key
	testOnionV3Addr1 = "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaam2dqd.onion"
	// sequential (0,1,2,...,31) public key
	testOnionV3Addr2 = "aaaqeayeaudaocajbifqydiob4ibceqtcqkrmfyydenbwha5dyp3kead.onion"
)

func TestIsValidV3Address(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		address  string
		expected bool
	}{
		{"zero key", testOnionV3Addr1, true},
		{"sequential key", testOnionV3Addr2, true},
		{"uppercase", strings.ToUpper(testOnionV3Addr1[:56]) + ".onion", true},
		{"v2 address", "facebookcorewwwi.onion", false},
		{"too short", "abc.onion", false},
		{"too long", strings.Repeat("a", 57) + ".onion", false},
		{"missing suffix", strings.Repeat("a", 56), false},
		{"invalid characters", strings.Repeat("0", 56) + ".onion", false},
		{"bad checksum", strings.Repeat("a", 56) + ".onion", false},
		{"subdomain", "www." + testOnionV3Addr1, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := IsValidV3Address(tc.address); got != tc.expected {
				t.Errorf("IsValidV3Address(%q) = %v, expected %v", tc.address, got, tc.expected)
			}
		})
	}
}

func TestIsOnionHost(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		host     string
		expected bool
	}{
		{testOnionV3Addr1, true},
		{"WWW." + strings.ToUpper(testOnionV3Addr1), true},
		{testOnionV3Addr1 + ":8080", true},
		{testOnionV3Addr1 + ".", true},
		{"example.com", false},
		{"onion.example.com", false},
		{"", false},
	}

	for _, tc := range testCases {
		t.Run(tc.host, func(t *testing.T) {
			t.Parallel()
			if got := IsOnionHost(tc.host); got != tc.expected {
				t.Errorf("IsOnionHost(%q) = %v, expected %v", tc.host, got, tc.expected)
			}
		})
	}
}

func TestCheckSeeds(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		seeds   []string
		proxied bool
		wantErr error
	}{
		{
			name:  "clearnet seeds need nothing",
			seeds: []string{"https://example.com/", "example.org"},
		},
		{
			name:    "onion seed through proxy",
			seeds:   []string{"http://" + testOnionV3Addr1 + "/index.html"},
			proxied: true,
		},
		{
			name:    "onion subdomain without scheme",
			seeds:   []string{"blog." + testOnionV3Addr2},
			proxied: true,
		},
		{
			name:    "onion seed without proxy",
			seeds:   []string{"https://example.com/", "http://" + testOnionV3Addr1},
			wantErr: ErrOnionWithoutProxy,
		},
		{
			name:    "v2 seed",
			seeds:   []string{"http://facebookcorewwwi.onion/"},
			proxied: true,
			wantErr: ErrInvalidOnionSeed,
		},
		{
			name:    "malformed seed is rejected before the proxy check",
			seeds:   []string{"http://" + strings.Repeat("a", 56) + ".onion"},
			wantErr: ErrInvalidOnionSeed,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			err := CheckSeeds(tc.seeds, tc.proxied)
			if tc.wantErr == nil {
				if err != nil {
					t.Errorf("CheckSeeds() error = %v", err)
				}
				return
			}
			if !errors.Is(err, tc.wantErr) {
				t.Errorf("CheckSeeds() error = %v, expected %v", err, tc.wantErr)
			}
		})
	}
}
