package tor

import (
	"encoding/base32"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/crypto/sha3"
)

const (
	// OnionSuffix is the top-level domain of every hidden service.
	OnionSuffix = ".onion"

	// OnionV3Version is the version byte embedded in v3 addresses.
	OnionV3Version = 0x03
)

var (
	// ErrInvalidOnionSeed is returned when a seed targets a .onion host that
	// is not a well-formed v3 address. v2 addresses fall in this group since
	// the Tor network stopped serving them.
	ErrInvalidOnionSeed = errors.New("invalid onion seed")

	// ErrOnionWithoutProxy is returned when a seed targets a hidden service
	// but neither --tor nor a proxy is configured.
	ErrOnionWithoutProxy = errors.New("onion seeds require --tor or a SOCKS5 proxy")
)

// onionV3Pattern matches 56 base32 characters followed by .onion.
var onionV3Pattern = regexp.MustCompile(`^[a-z2-7]{56}\.onion$`)

var checksumPrefix = []byte(".onion checksum")

// IsOnionHost reports whether host (with or without a port) belongs to the
// .onion TLD. Subdomains of a hidden service count.
func IsOnionHost(host string) bool {
	host = strings.ToLower(strings.TrimSuffix(hostOnly(host), "."))
	return strings.HasSuffix(host, OnionSuffix)
}

// IsValidV3Address checks the format, version byte and checksum of a v3
// onion address such as "<56 chars>.onion". Subdomains are not accepted.
//
// Design decision: the checksum is verified rather than the pattern alone so
// that a mistyped seed fails before a long Tor bootstrap, not after it.
func IsValidV3Address(address string) bool {
	address = strings.ToLower(address)
	if !onionV3Pattern.MatchString(address) {
		return false
	}

	decoded, err := base32.StdEncoding.DecodeString(strings.ToUpper(strings.TrimSuffix(address, OnionSuffix)))
	if err != nil || len(decoded) != 35 {
		return false
	}

	// pubkey (32) || checksum (2) || version (1)
	pubkey, checksum, version := decoded[:32], decoded[32:34], decoded[34]
	if version != OnionV3Version {
		return false
	}
	expected := computeV3Checksum(pubkey, version)
	return checksum[0] == expected[0] && checksum[1] == expected[1]
}

// computeV3Checksum returns the first two bytes of
// SHA3-256(".onion checksum" || pubkey || version).
func computeV3Checksum(pubkey []byte, version byte) []byte {
	data := make([]byte, 0, len(checksumPrefix)+len(pubkey)+1)
	data = append(data, checksumPrefix...)
	data = append(data, pubkey...)
	data = append(data, version)

	hash := sha3.Sum256(data)
	return hash[:2]
}

// CheckSeeds validates every seed that points at a hidden service. proxied
// tells whether requests will leave through Tor or a proxy; without one a
// .onion seed can never resolve, so the run is refused up front.
// Seeds that are not .onion URLs are ignored here.
func CheckSeeds(seeds []string, proxied bool) error {
	for _, seed := range seeds {
		host := seedHost(seed)
		if !IsOnionHost(host) {
			continue
		}
		if !IsValidV3Address(serviceAddress(host)) {
			return fmt.Errorf("%w: %s", ErrInvalidOnionSeed, seed)
		}
		if !proxied {
			return fmt.Errorf("%w: %s", ErrOnionWithoutProxy, seed)
		}
	}
	return nil
}

// seedHost extracts the host of a seed, tolerating a missing scheme.
func seedHost(seed string) string {
	seed = strings.TrimSpace(seed)
	if !strings.Contains(seed, "://") {
		seed = "http://" + strings.TrimPrefix(seed, "//")
	}
	u, err := url.Parse(seed)
	if err != nil {
		return ""
	}
	return u.Hostname()
}

// serviceAddress strips subdomains, leaving "<service>.onion".
func serviceAddress(host string) string {
	host = strings.ToLower(strings.TrimSuffix(hostOnly(host), "."))
	labels := strings.Split(host, ".")
	if len(labels) < 2 {
		return host
	}
	return strings.Join(labels[len(labels)-2:], ".")
}

func hostOnly(host string) string {
	if i := strings.LastIndexByte(host, ':'); i >= 0 && !strings.Contains(host[i:], "]") {
		return host[:i]
	}
	return host
}
