// Package compat derives browser and device capabilities from a
// client-reported probe and computes the scanner configuration and
// workarounds for that environment. The capability snapshot is
// immutable; a client must re-probe (page reload) to pick up
// environment changes.
package compat

import (
	"fmt"
	"net/url"
	"strings"

	"scanpay/internal/models"

	"go.uber.org/zap"
)

// Service computes capability snapshots and per-device scanner config.
type Service interface {
	DetectCapabilities(profile models.DeviceProfile) models.BrowserCapabilities
	CompatibilityFixes(caps models.BrowserCapabilities) models.CompatibilityFixes
	PolyfillPlan(caps models.BrowserCapabilities) models.PolyfillPlan
	IsScannerSupported(caps models.BrowserCapabilities, origin string) models.SupportVerdict
	OptimizedConfig(caps models.BrowserCapabilities, base models.ScannerConfig) models.ScannerConfig
}

type service struct {
	logger *zap.Logger
}

// NewService creates a new compatibility service.
func NewService(logger *zap.Logger) Service {
	if logger == nil {
		panic("logger is required")
	}
	return &service{logger: logger}
}

// DefaultScannerConfig is the base config before device overrides.
func DefaultScannerConfig() models.ScannerConfig {
	return models.ScannerConfig{
		FPS:                  30,
		DetectionBoxSize:     250,
		Resolution:           models.Resolution{Width: 1920, Height: 1080},
		AspectRatio:          16.0 / 9.0,
		ProcessingIntervalMs: 100,
		RetryDelayMs:         2000,
		UseNativeDetector:    true,
	}
}

func (s *service) DetectCapabilities(profile models.DeviceProfile) models.BrowserCapabilities {
	ua := strings.ToLower(profile.UserAgent)
	browser, version := identifyBrowser(ua)

	if browser == models.BrowserUnknown {
		s.logger.Info("unknown browser, using conservative defaults",
			zap.String("user_agent", profile.UserAgent))
	}

	return models.BrowserCapabilities{
		Browser:               browser,
		Version:               version,
		IsMobile:              isMobile(ua),
		IsTablet:              isTablet(ua),
		IsIOS:                 isIOS(ua),
		IsAndroid:             isAndroid(ua),
		HasMediaDevices:       profile.HasMediaDevices,
		HasLegacyGetUserMedia: profile.HasLegacyGetUserMedia,
		HasImageCapture:       profile.HasImageCapture,
		HasWebRTC:             profile.HasWebRTC,
		HasWebAssembly:        profile.HasWebAssembly,
		HasWorkers:            profile.HasWorkers,
		HasOffscreenCanvas:    profile.HasOffscreenCanvas,
		HasBarcodeDetector:    profile.HasBarcodeDetector,
		SupportsTorch:         profile.SupportsTorch,
		SupportsConstraints:   profile.SupportsConstraints,
		SupportsVideoTracks:   profile.SupportsVideoTracks,
		DownlinkMbps:          profile.DownlinkMbps,
	}
}

func (s *service) CompatibilityFixes(caps models.BrowserCapabilities) models.CompatibilityFixes {
	for _, rule := range fixRules {
		if !rule.match(caps) {
			continue
		}
		fixes := rule.fixes
		fixes.NeedsPolyfill = !caps.HasMediaDevices && caps.HasLegacyGetUserMedia
		if !caps.SupportsConstraints {
			fixes.HasConstraintLimitations = true
			fixes.SupportsAdvancedConstraints = false
		}
		return fixes
	}
	// Unreachable: the last rule always matches.
	return models.CompatibilityFixes{}
}

func (s *service) PolyfillPlan(caps models.BrowserCapabilities) models.PolyfillPlan {
	return models.PolyfillPlan{
		PromiseGetUserMediaShim: !caps.HasMediaDevices && caps.HasLegacyGetUserMedia,
		StaticConstraintTable:   !caps.SupportsConstraints,
	}
}

func (s *service) IsScannerSupported(caps models.BrowserCapabilities, origin string) models.SupportVerdict {
	if !caps.HasMediaDevices && !caps.HasLegacyGetUserMedia {
		return models.SupportVerdict{
			Supported: false,
			Reason:    "no media device support",
		}
	}

	if !isSecureOrigin(origin) {
		return models.SupportVerdict{
			Supported: false,
			Reason:    "camera access requires a secure (HTTPS) origin",
		}
	}

	if min, ok := minVersions[caps.Browser]; ok && caps.Version > 0 && caps.Version < min {
		return models.SupportVerdict{
			Supported: false,
			Reason: fmt.Sprintf("%s %d is below the minimum supported version %d",
				caps.Browser, caps.Version, min),
		}
	}

	return models.SupportVerdict{Supported: true}
}

func (s *service) OptimizedConfig(caps models.BrowserCapabilities, base models.ScannerConfig) models.ScannerConfig {
	fixes := s.CompatibilityFixes(caps)
	cfg := base

	if fixes.RecommendedFPS > 0 && cfg.FPS > fixes.RecommendedFPS {
		cfg.FPS = fixes.RecommendedFPS
	}

	if caps.IsMobile || caps.IsTablet {
		if cfg.Resolution.Width > fixes.MaxResolution.Width {
			cfg.Resolution = fixes.MaxResolution
		}
	}

	if caps.IsIOS {
		// Square capture avoids the iOS letterboxing bug and keeps the
		// detection box inside the visible frame.
		cfg.AspectRatio = 1.0
		if cfg.DetectionBoxSize > 200 {
			cfg.DetectionBoxSize = 200
		}
	}

	if caps.Browser == models.BrowserFirefox {
		cfg.UseNativeDetector = false
	} else {
		cfg.UseNativeDetector = cfg.UseNativeDetector && caps.HasBarcodeDetector
	}

	if caps.IsAndroid {
		cfg.PreferRearCamera = true
	}

	return cfg
}

func isSecureOrigin(origin string) bool {
	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		return false
	}
	if u.Scheme == "https" {
		return true
	}
	host := u.Hostname()
	return host == "localhost" || host == "127.0.0.1" || host == "::1"
}
