// Package optimizer composes a device-class base configuration with a
// network-speed probe and adapts the live configuration from observed
// scan performance.
package optimizer

import (
	"context"
	"sync"

	"scanpay/internal/models"

	"go.uber.org/zap"
)

// NetworkSpeed buckets the probe result.
type NetworkSpeed string

const (
	NetworkSlow   NetworkSpeed = "slow"
	NetworkMedium NetworkSpeed = "medium"
	NetworkFast   NetworkSpeed = "fast"
)

// NetworkProber estimates the client's network speed.
type NetworkProber interface {
	Probe(ctx context.Context) (NetworkSpeed, error)
}

// Hill-climb bounds.
const (
	minFPS           = 5
	maxAdaptiveFPS   = 15
	fpsStep          = 5
	minDetectionBox  = 150
	maxDetectionBox  = 300
	detectionBoxStep = 50

	slowScanMillis = 3000
	lowSuccessRate = 0.8
)

// Service computes the adaptive scanner configuration. OptimalConfig
// is memoized per capability snapshot; Reset drops the memo.
type Service interface {
	OptimalConfig(ctx context.Context, caps models.BrowserCapabilities) models.ScannerConfig
	AdaptConfig(current models.ScannerConfig, m models.ScanMetric) *models.ScannerConfig
	Reset()
}

type service struct {
	mu     sync.Mutex
	memo   map[models.BrowserCapabilities]models.ScannerConfig
	prober NetworkProber
	logger *zap.Logger
}

// NewService creates a new optimizer.
func NewService(prober NetworkProber, logger *zap.Logger) Service {
	if prober == nil {
		panic("network prober is required")
	}
	if logger == nil {
		panic("logger is required")
	}
	return &service{
		memo:   make(map[models.BrowserCapabilities]models.ScannerConfig),
		prober: prober,
		logger: logger,
	}
}

func (s *service) OptimalConfig(ctx context.Context, caps models.BrowserCapabilities) models.ScannerConfig {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cfg, ok := s.memo[caps]; ok {
		return cfg
	}

	cfg := baseConfig(deviceClass(caps))

	// A client-reported downlink estimate wins over the configured
	// prober.
	speed, err := ChainProber{DownlinkProber{DownlinkMbps: caps.DownlinkMbps}, s.prober}.Probe(ctx)
	if err != nil {
		// Probe failures degrade to the medium default, never escape.
		s.logger.Warn("network probe failed, assuming medium speed", zap.Error(err))
		speed = NetworkMedium
	}
	if speed == NetworkSlow {
		cfg = detuneForSlowNetwork(cfg)
	}

	cfg.UseNativeDetector = caps.HasBarcodeDetector && caps.Browser != models.BrowserFirefox
	cfg.PreferRearCamera = caps.IsAndroid || caps.IsIOS

	s.memo[caps] = cfg
	return cfg
}

// AdaptConfig is a one-step hill-climb. It returns the new config only
// if something changed; nil means no re-render is needed.
func (s *service) AdaptConfig(current models.ScannerConfig, m models.ScanMetric) *models.ScannerConfig {
	cfg := current
	changed := false

	if m.ScanDuration.Milliseconds() > slowScanMillis {
		if cfg.FPS > minFPS {
			cfg.FPS = maxInt(minFPS, cfg.FPS-fpsStep)
			changed = true
		}
		if cfg.DetectionBoxSize > minDetectionBox {
			cfg.DetectionBoxSize = maxInt(minDetectionBox, cfg.DetectionBoxSize-detectionBoxStep)
			changed = true
		}
	} else if m.SuccessRate < lowSuccessRate && cfg.FPS < maxAdaptiveFPS {
		cfg.FPS = minInt(maxAdaptiveFPS, cfg.FPS+fpsStep)
		if cfg.DetectionBoxSize < maxDetectionBox {
			cfg.DetectionBoxSize = minInt(maxDetectionBox, cfg.DetectionBoxSize+detectionBoxStep)
		}
		changed = true
	}

	if !changed {
		return nil
	}
	return &cfg
}

func (s *service) Reset() {
	s.mu.Lock()
	s.memo = make(map[models.BrowserCapabilities]models.ScannerConfig)
	s.mu.Unlock()
}

func deviceClass(caps models.BrowserCapabilities) models.DeviceClass {
	switch {
	case caps.IsTablet:
		return models.DeviceTablet
	case caps.IsMobile:
		return models.DeviceMobile
	default:
		return models.DeviceDesktop
	}
}

func baseConfig(class models.DeviceClass) models.ScannerConfig {
	switch class {
	case models.DeviceMobile:
		return models.ScannerConfig{
			FPS:                  15,
			DetectionBoxSize:     220,
			Resolution:           models.Resolution{Width: 1280, Height: 720},
			AspectRatio:          16.0 / 9.0,
			ProcessingIntervalMs: 200,
			RetryDelayMs:         2000,
		}
	case models.DeviceTablet:
		return models.ScannerConfig{
			FPS:                  20,
			DetectionBoxSize:     250,
			Resolution:           models.Resolution{Width: 1280, Height: 720},
			AspectRatio:          16.0 / 9.0,
			ProcessingIntervalMs: 150,
			RetryDelayMs:         1500,
		}
	default:
		return models.ScannerConfig{
			FPS:                  30,
			DetectionBoxSize:     300,
			Resolution:           models.Resolution{Width: 1920, Height: 1080},
			AspectRatio:          16.0 / 9.0,
			ProcessingIntervalMs: 100,
			RetryDelayMs:         1000,
		}
	}
}

func detuneForSlowNetwork(cfg models.ScannerConfig) models.ScannerConfig {
	if cfg.FPS > 10 {
		cfg.FPS = 10
	}
	cfg.Resolution = models.Resolution{Width: 640, Height: 480}
	cfg.ProcessingIntervalMs *= 2
	cfg.RetryDelayMs *= 2
	return cfg
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
