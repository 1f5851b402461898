package transport

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"

	"golang.org/x/net/proxy"
	"golang.org/x/net/publicsuffix"
)

// checkProxyTimeout is the timeout for checking if a SOCKS5 proxy is available.
// We use a short timeout here because this is just a connectivity check,
// not an actual request through the proxy.
const checkProxyTimeout = 2 * time.Second

// maxRedirects limits redirect chains to prevent loops while allowing
// normal login and canonical-host redirects.
const maxRedirects = 10

// Headers are the default request headers injected into every request.
// Empty values are not sent.
type Headers struct {
	UserAgent      string
	Cookie         string
	Accept         string
	AcceptLanguage string
	AcceptEncoding string
}

// Client builds HTTP clients for one run.
// It holds the upstream route and header defaults; it has no per-request state.
type Client struct {
	// proxyURL is the parsed upstream proxy, or nil for direct connections.
	proxyURL *url.URL

	// dialer is the SOCKS5 dialer when proxyURL is a socks5 URL.
	dialer proxy.Dialer

	timeout  time.Duration
	insecure bool
	headers  Headers
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the per-request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// WithInsecureTLS disables TLS certificate verification.
// Recon targets frequently serve self-signed or expired certificates.
func WithInsecureTLS(insecure bool) Option {
	return func(c *Client) {
		c.insecure = insecure
	}
}

// WithHeaders sets the default request headers.
func WithHeaders(h Headers) Option {
	return func(c *Client) {
		c.headers = h
	}
}

// NewClient creates a Client that routes through proxyURL.
// An empty proxyURL means direct connections.
//
// Supported schemes are http and https (CONNECT proxies) and socks5 and
// socks5h. This function validates the URL but does not contact the proxy.
// Call CheckConnection() to verify a SOCKS5 proxy.
func NewClient(proxyURL string, opts ...Option) (*Client, error) {
	c := &Client{
		timeout: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}

	if proxyURL == "" {
		return c, nil
	}

	u, err := url.Parse(proxyURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnsupportedProxy, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("%w: %q has no host", ErrUnsupportedProxy, proxyURL)
	}

	switch u.Scheme {
	case "http", "https":
	case "socks5", "socks5h":
		d, err := proxy.FromURL(u, proxy.Direct)
		if err != nil {
			return nil, fmt.Errorf("failed to create SOCKS5 dialer: %w", err)
		}
		c.dialer = d
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedProxy, u.Scheme)
	}

	c.proxyURL = u
	return c, nil
}

// ProxyURL returns the configured proxy URL, or nil for direct connections.
func (c *Client) ProxyURL() *url.URL {
	return c.proxyURL
}

// IsSOCKS reports whether requests go through a SOCKS5 proxy.
func (c *Client) IsSOCKS() bool {
	return c.dialer != nil
}

// NewHTTPClient creates an HTTP client for the configured route.
//
// Design decisions:
//   - Cookies persist across requests of the run via a public-suffix aware jar
//   - Redirect limit is 10 to prevent redirect loops while allowing normal redirects
//   - Transparent compression is disabled; the fetcher decodes bodies itself so
//     it can honour the ruleset's Accept-Encoding and support brotli
func (c *Client) NewHTTPClient() *http.Client {
	transport := &http.Transport{
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: c.insecure, //nolint:gosec // Opt-in via --insecure
		},
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     30 * time.Second,
		TLSHandshakeTimeout: c.timeout,
		DisableCompression:  true,
	}

	switch {
	case c.dialer != nil:
		transport.DialContext = c.DialContext
	case c.proxyURL != nil:
		transport.Proxy = http.ProxyURL(c.proxyURL)
	default:
		transport.Proxy = http.ProxyFromEnvironment
	}

	// cookiejar.New only fails with invalid options
	jar, _ := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List}) //nolint:errcheck

	return &http.Client{
		Transport: &headerInjectingTransport{
			base:    transport,
			headers: c.headers,
		},
		Timeout: c.timeout,
		Jar:     jar,
		CheckRedirect: func(_ *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return http.ErrUseLastResponse
			}
			return nil
		},
	}
}

// DialContext establishes a TCP connection through the SOCKS5 proxy with
// context support.
//
// Design decision: proxy.Dialer does not take a context. When the dialer also
// implements proxy.ContextDialer we use that; otherwise the dial runs in a
// goroutine so cancellation is respected, and the underlying attempt may
// continue briefly after the context is done.
func (c *Client) DialContext(ctx context.Context, network, address string) (net.Conn, error) {
	if c.dialer == nil {
		var d net.Dialer
		return d.DialContext(ctx, network, address)
	}
	if cd, ok := c.dialer.(proxy.ContextDialer); ok {
		return cd.DialContext(ctx, network, address)
	}

	type dialResult struct {
		conn net.Conn
		err  error
	}
	resultCh := make(chan dialResult, 1)

	go func() {
		conn, err := c.dialer.Dial(network, address)
		resultCh <- dialResult{conn, err}
	}()

	select {
	case result := <-resultCh:
		return result.conn, result.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// SOCKS5 protocol constants
const (
	socks5Version       = 0x05
	socks5AuthNone      = 0x00
	socks5AuthPassword  = 0x02
	socks5AuthNoAccept  = 0xFF
	socks5CmdConnect    = 0x01
	socks5AddrTypeDomID = 0x03

	// socks5TestHost is a reserved, never-resolving name used for SOCKS5
	// verification. We only need the proxy to answer the CONNECT request,
	// not for the connection to succeed.
	socks5TestHost = "urlfinder-check.invalid"
)

// CheckConnection verifies that the SOCKS5 proxy is running and speaks SOCKS5.
// For direct connections and HTTP proxies it returns ProxyStatusOK without
// contacting anything.
//
// The check performs a SOCKS5 handshake to verify:
// 1. The proxy speaks SOCKS5 protocol
// 2. The proxy accepts the offered authentication method
// 3. The proxy answers a CONNECT request
func (c *Client) CheckConnection(ctx context.Context) ProxyStatus {
	if c.dialer == nil {
		return ProxyStatusOK
	}

	ctx, cancel := context.WithTimeout(ctx, checkProxyTimeout)
	defer cancel()

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", c.proxyURL.Host)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return ProxyStatusTimeout
		}
		return ProxyStatusCannotConnect
	}
	defer conn.Close()

	if err := conn.SetDeadline(time.Now().Add(checkProxyTimeout)); err != nil {
		return ProxyStatusCannotConnect
	}

	// Step 1: version negotiation. Offer username/password as well when the
	// proxy URL carries credentials.
	methods := []byte{socks5AuthNone}
	if c.proxyURL.User != nil {
		methods = append(methods, socks5AuthPassword)
	}
	greeting := append([]byte{socks5Version, byte(len(methods))}, methods...)
	if _, err := conn.Write(greeting); err != nil {
		return ProxyStatusCannotConnect
	}

	authResp := make([]byte, 2)
	if _, err := io.ReadFull(conn, authResp); err != nil {
		if isTimeout(err) {
			return ProxyStatusTimeout
		}
		return ProxyStatusWrongType
	}
	if authResp[0] != socks5Version || authResp[1] == socks5AuthNoAccept {
		return ProxyStatusWrongType
	}
	if authResp[1] != socks5AuthNone {
		// The proxy picked an authentication method we offered. Completing
		// sub-negotiation is the dialer's job; a valid selection is proof
		// enough that this is a SOCKS5 proxy.
		if authResp[1] == socks5AuthPassword && c.proxyURL.User != nil {
			return ProxyStatusOK
		}
		return ProxyStatusWrongType
	}

	// Step 2: CONNECT request to a reserved name.
	connectReq := []byte{
		socks5Version,
		socks5CmdConnect,
		0x00, // reserved
		socks5AddrTypeDomID,
		byte(len(socks5TestHost)),
	}
	connectReq = append(connectReq, []byte(socks5TestHost)...)
	connectReq = append(connectReq, 0x00, 80)

	if _, err := conn.Write(connectReq); err != nil {
		return ProxyStatusCannotConnect
	}

	connectResp := make([]byte, 4)
	if _, err := io.ReadFull(conn, connectResp); err != nil {
		if isTimeout(err) {
			return ProxyStatusTimeout
		}
		return ProxyStatusWrongType
	}
	if connectResp[0] != socks5Version {
		return ProxyStatusWrongType
	}

	// Any reply code, success or failure, shows the proxy processed the request.
	return ProxyStatusOK
}

func isTimeout(err error) bool {
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// headerInjectingTransport wraps an http.RoundTripper to inject
// default headers and cookies into every request.
type headerInjectingTransport struct {
	base    http.RoundTripper
	headers Headers
}

// RoundTrip implements http.RoundTripper.
// Headers already set on the request win over the defaults. The configured
// cookie is appended to any cookie the jar already added.
func (t *headerInjectingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())

	setDefault(clone.Header, "User-Agent", t.headers.UserAgent)
	setDefault(clone.Header, "Accept", t.headers.Accept)
	setDefault(clone.Header, "Accept-Language", t.headers.AcceptLanguage)
	setDefault(clone.Header, "Accept-Encoding", t.headers.AcceptEncoding)

	if t.headers.Cookie != "" {
		if existing := clone.Header.Get("Cookie"); existing != "" {
			clone.Header.Set("Cookie", existing+"; "+t.headers.Cookie)
		} else {
			clone.Header.Set("Cookie", t.headers.Cookie)
		}
	}

	return t.base.RoundTrip(clone)
}

func setDefault(h http.Header, key, value string) {
	if value == "" || h.Get(key) != "" {
		return
	}
	h.Set(key, value)
}
