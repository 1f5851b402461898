// Package tor launches an embedded Tor daemon for runs started with --tor
// and validates seeds that point at hidden services.
//
// The daemon is managed by the tornago library. Once it has bootstrapped,
// its SOCKS5 listener is handed to the transport package like any other
// socks5:// proxy, so the fetcher does not know whether it talks to Tor.
//
// .onion seeds are checked before any network activity: the v3 checksum
// must match and a proxy must be configured, otherwise the run is refused.
package tor
