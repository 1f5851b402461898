package tor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nao1215/tornago"
)

// ErrNotRunning is returned when the daemon's proxy is requested before Start.
var ErrNotRunning = errors.New("embedded Tor daemon is not running")

// DefaultStartupTimeout is used when no startup timeout option is given.
const DefaultStartupTimeout = 3 * time.Minute

// process is the subset of *tornago.TorProcess the daemon needs.
type process interface {
	SocksAddr() string
	ControlAddr() string
	Stop() error
}

// startFunc launches a Tor process and blocks until it has bootstrapped.
type startFunc func(startupTimeout time.Duration) (process, error)

// startTornago is the production startFunc.
// Using ":0" lets the OS assign available ports automatically.
func startTornago(startupTimeout time.Duration) (process, error) {
	launchCfg, err := tornago.NewTorLaunchConfig(
		tornago.WithTorSocksAddr(":0"),
		tornago.WithTorControlAddr(":0"),
		tornago.WithTorStartupTimeout(startupTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create Tor launch config: %w", err)
	}

	p, err := tornago.StartTorDaemon(launchCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to start embedded Tor daemon: %w", err)
	}
	return p, nil
}

// Daemon manages an embedded Tor process for the lifetime of one run.
//
// Note: Starting the embedded Tor daemon takes 1-3 minutes as it needs to
// download directory information and build initial circuits.
type Daemon struct {
	proc           process
	startupTimeout time.Duration
	start          startFunc
}

// Option configures a Daemon.
type Option func(*Daemon)

// WithStartupTimeout sets the maximum time to wait for Tor to bootstrap.
func WithStartupTimeout(timeout time.Duration) Option {
	return func(d *Daemon) {
		if timeout > 0 {
			d.startupTimeout = timeout
		}
	}
}

// withStartFunc replaces the process launcher. Used by tests.
func withStartFunc(fn startFunc) Option {
	return func(d *Daemon) {
		d.start = fn
	}
}

// NewDaemon creates a daemon manager. Call Start to launch Tor.
func NewDaemon(opts ...Option) *Daemon {
	d := &Daemon{
		startupTimeout: DefaultStartupTimeout,
		start:          startTornago,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Start launches Tor and waits for it to bootstrap or for ctx to be done.
//
// tornago's launcher does not take a context, so it runs in a goroutine.
// If ctx ends first, Start returns ctx.Err() and the process is stopped as
// soon as the launcher returns it.
func (d *Daemon) Start(ctx context.Context) error {
	if d.proc != nil {
		return nil
	}

	type startResult struct {
		proc process
		err  error
	}
	resultCh := make(chan startResult, 1)

	go func() {
		p, err := d.start(d.startupTimeout)
		resultCh <- startResult{p, err}
	}()

	select {
	case r := <-resultCh:
		if r.err != nil {
			return r.err
		}
		d.proc = r.proc
		return nil
	case <-ctx.Done():
		go func() {
			if r := <-resultCh; r.proc != nil {
				_ = r.proc.Stop() //nolint:errcheck // Best effort cleanup
			}
		}()
		return ctx.Err()
	}
}

// Stop shuts the daemon down. It is safe to call on a stopped or unstarted daemon.
func (d *Daemon) Stop() error {
	if d.proc == nil {
		return nil
	}
	err := d.proc.Stop()
	d.proc = nil
	return err
}

// IsRunning reports whether the daemon has been started and not stopped.
func (d *Daemon) IsRunning() bool {
	return d.proc != nil
}

// ProxyURL returns the socks5h:// URL of the running daemon's SOCKS listener.
// socks5h makes the proxy resolve host names, so DNS does not leak outside Tor.
func (d *Daemon) ProxyURL() (string, error) {
	if d.proc == nil {
		return "", ErrNotRunning
	}
	return "socks5h://" + d.proc.SocksAddr(), nil
}

// ControlAddr returns the control port address, or "" when not running.
func (d *Daemon) ControlAddr() string {
	if d.proc == nil {
		return ""
	}
	return d.proc.ControlAddr()
}
