package compat

import (
	"testing"

	"scanpay/internal/models"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

const (
	uaChromeDesktop  = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	uaChromeAndroid  = "Mozilla/5.0 (Linux; Android 13; Pixel 7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Mobile Safari/537.36"
	uaFirefoxDesktop = "Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:121.0) Gecko/20100101 Firefox/121.0"
	uaSafariIPhone   = "Mozilla/5.0 (iPhone; CPU iPhone OS 17_1 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.1 Mobile/15E148 Safari/604.1"
	uaEdgeDesktop    = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36 Edg/120.0.2210.91"
	uaOperaDesktop   = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/119.0.0.0 Safari/537.36 OPR/105.0.0.0"
	uaAndroidTablet  = "Mozilla/5.0 (Linux; Android 12; SM-X906C) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/110.0.5481.65 Safari/537.36"
)

func newTestService() Service {
	return NewService(zap.NewNop())
}

func TestDetectCapabilities_BrowserIdentity(t *testing.T) {
	tests := []struct {
		name    string
		ua      string
		browser models.Browser
		version int
	}{
		{"chrome desktop", uaChromeDesktop, models.BrowserChrome, 120},
		{"chrome android", uaChromeAndroid, models.BrowserChrome, 120},
		{"firefox desktop", uaFirefoxDesktop, models.BrowserFirefox, 121},
		{"safari iphone", uaSafariIPhone, models.BrowserSafari, 17},
		{"edge before chrome", uaEdgeDesktop, models.BrowserEdge, 120},
		{"opera before chrome", uaOperaDesktop, models.BrowserOpera, 105},
		{"unknown", "SomeBot/1.0", models.BrowserUnknown, 0},
	}

	svc := newTestService()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			caps := svc.DetectCapabilities(models.DeviceProfile{UserAgent: tt.ua})
			assert.Equal(t, tt.browser, caps.Browser)
			assert.Equal(t, tt.version, caps.Version)
		})
	}
}

func TestDetectCapabilities_DeviceClass(t *testing.T) {
	svc := newTestService()

	t.Run("iphone is mobile not tablet", func(t *testing.T) {
		caps := svc.DetectCapabilities(models.DeviceProfile{UserAgent: uaSafariIPhone})
		assert.True(t, caps.IsMobile)
		assert.False(t, caps.IsTablet)
		assert.True(t, caps.IsIOS)
	})

	t.Run("android without mobile token is tablet", func(t *testing.T) {
		caps := svc.DetectCapabilities(models.DeviceProfile{UserAgent: uaAndroidTablet})
		assert.True(t, caps.IsTablet)
		assert.False(t, caps.IsMobile)
		assert.True(t, caps.IsAndroid)
	})

	t.Run("desktop is neither", func(t *testing.T) {
		caps := svc.DetectCapabilities(models.DeviceProfile{UserAgent: uaChromeDesktop})
		assert.False(t, caps.IsMobile)
		assert.False(t, caps.IsTablet)
	})
}

func TestIsScannerSupported(t *testing.T) {
	svc := newTestService()

	tests := []struct {
		name      string
		profile   models.DeviceProfile
		origin    string
		supported bool
	}{
		{
			name:      "supported chrome over https",
			profile:   models.DeviceProfile{UserAgent: uaChromeDesktop, HasMediaDevices: true},
			origin:    "https://koperasi.example.id",
			supported: true,
		},
		{
			name:      "no media device support",
			profile:   models.DeviceProfile{UserAgent: uaChromeDesktop},
			origin:    "https://koperasi.example.id",
			supported: false,
		},
		{
			name:      "insecure origin",
			profile:   models.DeviceProfile{UserAgent: uaChromeDesktop, HasMediaDevices: true},
			origin:    "http://koperasi.example.id",
			supported: false,
		},
		{
			name:      "localhost over http allowed",
			profile:   models.DeviceProfile{UserAgent: uaChromeDesktop, HasMediaDevices: true},
			origin:    "http://localhost:5173",
			supported: true,
		},
		{
			name: "chrome below minimum version",
			profile: models.DeviceProfile{
				UserAgent:       "Mozilla/5.0 AppleWebKit/537.36 Chrome/52.0.2743.116 Safari/537.36",
				HasMediaDevices: true,
			},
			origin:    "https://koperasi.example.id",
			supported: false,
		},
		{
			name: "legacy getUserMedia alone passes the media gate",
			profile: models.DeviceProfile{
				UserAgent:             uaFirefoxDesktop,
				HasLegacyGetUserMedia: true,
			},
			origin:    "https://koperasi.example.id",
			supported: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			caps := svc.DetectCapabilities(tt.profile)
			verdict := svc.IsScannerSupported(caps, tt.origin)
			assert.Equal(t, tt.supported, verdict.Supported)
			if !tt.supported {
				assert.NotEmpty(t, verdict.Reason)
			}
		})
	}
}

func TestCompatibilityFixes(t *testing.T) {
	svc := newTestService()

	t.Run("ios gets the webkit workarounds", func(t *testing.T) {
		caps := svc.DetectCapabilities(models.DeviceProfile{UserAgent: uaSafariIPhone, SupportsConstraints: true})
		fixes := svc.CompatibilityFixes(caps)
		assert.True(t, fixes.RequiresUserGesture)
		assert.True(t, fixes.NeedsVideoElementWorkaround)
		assert.Equal(t, 15, fixes.RecommendedFPS)
	})

	t.Run("legacy-only media devices need the polyfill", func(t *testing.T) {
		caps := svc.DetectCapabilities(models.DeviceProfile{
			UserAgent:             uaFirefoxDesktop,
			HasLegacyGetUserMedia: true,
		})
		fixes := svc.CompatibilityFixes(caps)
		assert.True(t, fixes.NeedsPolyfill)
	})

	t.Run("missing constraint support downgrades advanced constraints", func(t *testing.T) {
		caps := svc.DetectCapabilities(models.DeviceProfile{UserAgent: uaChromeDesktop, HasMediaDevices: true})
		fixes := svc.CompatibilityFixes(caps)
		assert.True(t, fixes.HasConstraintLimitations)
		assert.False(t, fixes.SupportsAdvancedConstraints)
	})
}

func TestPolyfillPlan_Idempotent(t *testing.T) {
	svc := newTestService()
	caps := svc.DetectCapabilities(models.DeviceProfile{
		UserAgent:             uaFirefoxDesktop,
		HasLegacyGetUserMedia: true,
	})

	first := svc.PolyfillPlan(caps)
	second := svc.PolyfillPlan(caps)
	assert.Equal(t, first, second)
	assert.True(t, first.PromiseGetUserMediaShim)
}

func TestOptimizedConfig(t *testing.T) {
	svc := newTestService()

	t.Run("ios forces square aspect and smaller box", func(t *testing.T) {
		caps := svc.DetectCapabilities(models.DeviceProfile{
			UserAgent:           uaSafariIPhone,
			HasMediaDevices:     true,
			SupportsConstraints: true,
		})
		cfg := svc.OptimizedConfig(caps, DefaultScannerConfig())
		assert.Equal(t, 1.0, cfg.AspectRatio)
		assert.LessOrEqual(t, cfg.DetectionBoxSize, 200)
		assert.LessOrEqual(t, cfg.FPS, 15)
	})

	t.Run("firefox never uses the native detector", func(t *testing.T) {
		caps := svc.DetectCapabilities(models.DeviceProfile{
			UserAgent:          uaFirefoxDesktop,
			HasMediaDevices:    true,
			HasBarcodeDetector: true,
		})
		cfg := svc.OptimizedConfig(caps, DefaultScannerConfig())
		assert.False(t, cfg.UseNativeDetector)
	})

	t.Run("android prefers the rear camera", func(t *testing.T) {
		caps := svc.DetectCapabilities(models.DeviceProfile{UserAgent: uaChromeAndroid, HasMediaDevices: true})
		cfg := svc.OptimizedConfig(caps, DefaultScannerConfig())
		assert.True(t, cfg.PreferRearCamera)
	})

	t.Run("mobile resolution capped at the fix maximum", func(t *testing.T) {
		caps := svc.DetectCapabilities(models.DeviceProfile{UserAgent: uaChromeAndroid, HasMediaDevices: true})
		cfg := svc.OptimizedConfig(caps, DefaultScannerConfig())
		assert.LessOrEqual(t, cfg.Resolution.Width, 1280)
	})
}
