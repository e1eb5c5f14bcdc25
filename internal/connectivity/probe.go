// Package connectivity answers whether the remote dataset is reachable and
// calls back once when a lost connection comes back.
package connectivity

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/mrlokans/prayerbook/internal/logger"
)

const (
	defaultTimeout      = 5 * time.Second
	defaultPollInterval = 10 * time.Second
)

// Probe checks connectivity with an HTTP HEAD request to a well-known URL.
type Probe struct {
	url        string
	httpClient *http.Client
	interval   time.Duration
	log        *log.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewProbe creates a probe for url. Zero durations fall back to defaults.
func NewProbe(url string, timeout, pollInterval time.Duration) *Probe {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}
	return &Probe{
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
		interval:   pollInterval,
		log:        logger.With("connectivity"),
	}
}

// CheckInternetConnection reports whether the probe URL answers with a
// 2xx or 3xx status.
func (p *Probe) CheckInternetConnection(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, p.url, nil)
	if err != nil {
		p.log.Warn("invalid probe URL", "url", p.url, "err", err)
		return false
	}
	client := *p.httpClient
	client.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}
	resp, err := client.Do(req)
	if err != nil {
		p.log.Debug("connectivity probe failed", "err", err)
		return false
	}
	resp.Body.Close()
	return resp.StatusCode >= 200 && resp.StatusCode < 400
}

// SetupConnectivityListener polls until the connection is back and then calls
// onRestored exactly once. Registering again replaces a pending listener.
func (p *Probe) SetupConnectivityListener(onRestored func()) {
	p.mu.Lock()
	if p.cancel != nil {
		p.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.wg.Add(1)
	p.mu.Unlock()

	go func() {
		defer p.wg.Done()
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
			if !p.CheckInternetConnection(ctx) {
				continue
			}

			p.mu.Lock()
			if ctx.Err() != nil {
				p.mu.Unlock()
				return
			}
			p.cancel = nil
			p.mu.Unlock()
			cancel()

			p.log.Info("connection restored")
			onRestored()
			return
		}
	}()
}

// Pending reports whether a listener is waiting for the connection.
func (p *Probe) Pending() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cancel != nil
}

// Stop cancels any pending listener and waits for it to exit.
func (p *Probe) Stop() {
	p.mu.Lock()
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
	p.mu.Unlock()
	p.wg.Wait()
}
