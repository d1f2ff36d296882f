package compat

import (
	"regexp"
	"strconv"
	"strings"

	"scanpay/internal/models"
)

// Browser identification is an ordered list of (predicate, result)
// pairs evaluated top to bottom; the first match wins and the Unknown
// fallback is explicit. Order matters: Chrome ships "Safari" in its
// user agent, Edge ships "Chrome", so the more specific tokens are
// checked first.
type browserRule struct {
	browser models.Browser
	match   func(ua string) bool
	version *regexp.Regexp
}

var browserRules = []browserRule{
	{
		browser: models.BrowserEdge,
		match:   func(ua string) bool { return strings.Contains(ua, "edg/") || strings.Contains(ua, "edge/") },
		version: regexp.MustCompile(`edge?g?/(\d+)`),
	},
	{
		browser: models.BrowserOpera,
		match:   func(ua string) bool { return strings.Contains(ua, "opr/") || strings.Contains(ua, "opera") },
		version: regexp.MustCompile(`(?:opr|version)/(\d+)`),
	},
	{
		browser: models.BrowserChrome,
		match:   func(ua string) bool { return strings.Contains(ua, "chrome/") || strings.Contains(ua, "crios/") },
		version: regexp.MustCompile(`(?:chrome|crios)/(\d+)`),
	},
	{
		browser: models.BrowserFirefox,
		match:   func(ua string) bool { return strings.Contains(ua, "firefox/") || strings.Contains(ua, "fxios/") },
		version: regexp.MustCompile(`(?:firefox|fxios)/(\d+)`),
	},
	{
		browser: models.BrowserSafari,
		match:   func(ua string) bool { return strings.Contains(ua, "safari/") },
		version: regexp.MustCompile(`version/(\d+)`),
	},
}

// Minimum versions with working getUserMedia support.
var minVersions = map[models.Browser]int{
	models.BrowserChrome:  53,
	models.BrowserFirefox: 36,
	models.BrowserSafari:  11,
	models.BrowserEdge:    12,
}

func identifyBrowser(ua string) (models.Browser, int) {
	for _, rule := range browserRules {
		if !rule.match(ua) {
			continue
		}
		version := 0
		if m := rule.version.FindStringSubmatch(ua); len(m) == 2 {
			version, _ = strconv.Atoi(m[1])
		}
		return rule.browser, version
	}
	return models.BrowserUnknown, 0
}

func isIOS(ua string) bool {
	return strings.Contains(ua, "iphone") || strings.Contains(ua, "ipad") || strings.Contains(ua, "ipod")
}

func isAndroid(ua string) bool {
	return strings.Contains(ua, "android")
}

func isTablet(ua string) bool {
	if strings.Contains(ua, "ipad") || strings.Contains(ua, "tablet") {
		return true
	}
	// Android tablets omit the "mobile" token.
	return isAndroid(ua) && !strings.Contains(ua, "mobile")
}

func isMobile(ua string) bool {
	if isTablet(ua) {
		return false
	}
	return isIOS(ua) || isAndroid(ua) ||
		strings.Contains(ua, "mobi") || strings.Contains(ua, "windows phone")
}

// Compatibility fixes are a fixed ordered lookup keyed by browser
// identity and mobile/OS flags; the conservative default is explicit.
type fixRule struct {
	name  string
	match func(caps models.BrowserCapabilities) bool
	fixes models.CompatibilityFixes
}

var fixRules = []fixRule{
	{
		name:  "ios-webkit",
		match: func(c models.BrowserCapabilities) bool { return c.IsIOS },
		fixes: models.CompatibilityFixes{
			RequiresUserGesture:         true,
			NeedsVideoElementWorkaround: true,
			HasConstraintLimitations:    true,
			MaxResolution:               models.Resolution{Width: 1280, Height: 720},
			RecommendedFPS:              15,
		},
	},
	{
		name: "android-chrome",
		match: func(c models.BrowserCapabilities) bool {
			return c.IsAndroid && c.Browser == models.BrowserChrome
		},
		fixes: models.CompatibilityFixes{
			SupportsAdvancedConstraints: true,
			MaxResolution:               models.Resolution{Width: 1280, Height: 720},
			RecommendedFPS:              24,
		},
	},
	{
		name: "firefox",
		match: func(c models.BrowserCapabilities) bool {
			return c.Browser == models.BrowserFirefox
		},
		fixes: models.CompatibilityFixes{
			HasConstraintLimitations: true,
			MaxResolution:            models.Resolution{Width: 1920, Height: 1080},
			RecommendedFPS:           24,
		},
	},
	{
		name: "desktop-chromium",
		match: func(c models.BrowserCapabilities) bool {
			return !c.IsMobile && !c.IsTablet &&
				(c.Browser == models.BrowserChrome || c.Browser == models.BrowserEdge)
		},
		fixes: models.CompatibilityFixes{
			SupportsAdvancedConstraints: true,
			MaxResolution:               models.Resolution{Width: 1920, Height: 1080},
			RecommendedFPS:              30,
		},
	},
	{
		name:  "conservative-default",
		match: func(models.BrowserCapabilities) bool { return true },
		fixes: models.CompatibilityFixes{
			HasConstraintLimitations: true,
			MaxResolution:            models.Resolution{Width: 1280, Height: 720},
			RecommendedFPS:           15,
		},
	},
}
