// Package transport builds the HTTP client every fetch goes through.
//
// It owns the upstream route (direct, HTTP proxy, or SOCKS5 proxy such as an
// embedded Tor daemon), the cookie jar, TLS settings, and the default request
// headers that come from the ruleset and the command line.
//
// Design decision: Default headers are injected by a RoundTripper rather than
// by the fetcher. This ensures redirected requests carry the same User-Agent
// and Cookie as the original request without the fetcher having to know about
// redirects at all.
package transport
