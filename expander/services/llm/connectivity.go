package llm

import (
	"context"
	"net"
	"net/url"
	"sync/atomic"
	"time"

	"expander/expander/utils/logging"

	"go.uber.org/zap"
)

const (
	probeInterval = 15 * time.Second
	probeTimeout  = 5 * time.Second
)

// ProbeFunc reports whether the network currently looks reachable.
type ProbeFunc func(ctx context.Context) bool

// ConnectivityMonitor keeps a live is-online signal so the client can
// fast-fail before attempting a call. The most recent probe result wins;
// the monitor starts optimistic.
type ConnectivityMonitor struct {
	online atomic.Bool
	probe  ProbeFunc
	cancel context.CancelFunc
}

// NewConnectivityMonitor builds a monitor probing the API endpoint's host.
// Pass a custom probe in tests.
func NewConnectivityMonitor(baseURL string, probe ProbeFunc) *ConnectivityMonitor {
	if probe == nil {
		probe = dialProbe(baseURL)
	}
	m := &ConnectivityMonitor{probe: probe}
	m.online.Store(true)
	return m
}

// Start begins background probing until Stop is called.
func (m *ConnectivityMonitor) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	go m.loop(ctx)
}

func (m *ConnectivityMonitor) Stop() {
	if m.cancel != nil {
		m.cancel()
	}
}

func (m *ConnectivityMonitor) Online() bool { return m.online.Load() }

// SetOnline overrides the signal; used by tests and by the client after an
// attempt that proves the probe stale.
func (m *ConnectivityMonitor) SetOnline(online bool) { m.online.Store(online) }

func (m *ConnectivityMonitor) loop(ctx context.Context) {
	ticker := time.NewTicker(probeInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
			online := m.probe(probeCtx)
			cancel()
			if online != m.online.Swap(online) {
				logging.AppLogger.Info("connectivity changed", zap.Bool("online", online))
			}
		}
	}
}

func dialProbe(baseURL string) ProbeFunc {
	host := "api.x.ai:443"
	if u, err := url.Parse(baseURL); err == nil && u.Host != "" {
		h := u.Host
		if u.Port() == "" {
			h = net.JoinHostPort(u.Hostname(), "443")
		}
		host = h
	}
	var dialer net.Dialer
	return func(ctx context.Context) bool {
		conn, err := dialer.DialContext(ctx, "tcp", host)
		if err != nil {
			return false
		}
		conn.Close()
		return true
	}
}
