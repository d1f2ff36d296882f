package optimizer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DownlinkProber buckets a client-reported downlink estimate (the
// Network Information API reading forwarded in the device profile).
type DownlinkProber struct {
	DownlinkMbps float64
}

func (p DownlinkProber) Probe(context.Context) (NetworkSpeed, error) {
	if p.DownlinkMbps <= 0 {
		return "", errors.New("downlink not reported")
	}
	switch {
	case p.DownlinkMbps < 1:
		return NetworkSlow, nil
	case p.DownlinkMbps < 5:
		return NetworkMedium, nil
	default:
		return NetworkFast, nil
	}
}

// TimedProber times an uncached fetch of a small resource.
type TimedProber struct {
	URL    string
	Client *http.Client
}

func NewTimedProber(url string) *TimedProber {
	return &TimedProber{
		URL:    url,
		Client: &http.Client{Timeout: 5 * time.Second},
	}
}

func (p *TimedProber) Probe(ctx context.Context) (NetworkSpeed, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.URL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Cache-Control", "no-cache")

	start := time.Now()
	resp, err := p.Client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if _, err := io.Copy(io.Discard, resp.Body); err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("probe returned status %d", resp.StatusCode)
	}

	switch elapsed := time.Since(start); {
	case elapsed < 200*time.Millisecond:
		return NetworkFast, nil
	case elapsed < 750*time.Millisecond:
		return NetworkMedium, nil
	default:
		return NetworkSlow, nil
	}
}

// ChainProber tries each prober in order and returns the first
// successful estimate.
type ChainProber []NetworkProber

func (c ChainProber) Probe(ctx context.Context) (NetworkSpeed, error) {
	var lastErr error
	for _, p := range c {
		speed, err := p.Probe(ctx)
		if err == nil {
			return speed, nil
		}
		lastErr = err
	}
	if lastErr == nil {
		lastErr = errors.New("no probers configured")
	}
	return "", lastErr
}
