package models

// Browser identities recognized by the detection rules.
type Browser string

const (
	BrowserChrome  Browser = "chrome"
	BrowserFirefox Browser = "firefox"
	BrowserSafari  Browser = "safari"
	BrowserEdge    Browser = "edge"
	BrowserOpera   Browser = "opera"
	BrowserUnknown Browser = "unknown"
)

// DeviceClass groups devices for base-config selection.
type DeviceClass string

const (
	DeviceMobile  DeviceClass = "mobile"
	DeviceTablet  DeviceClass = "tablet"
	DeviceDesktop DeviceClass = "desktop"
)

// BrowserCapabilities is an immutable snapshot derived from a
// DeviceProfile. It is computed once per client session and threaded
// through the services that need it.
type BrowserCapabilities struct {
	Browser               Browser `json:"browser"`
	Version               int     `json:"version"`
	IsMobile              bool    `json:"is_mobile"`
	IsTablet              bool    `json:"is_tablet"`
	IsIOS                 bool    `json:"is_ios"`
	IsAndroid             bool    `json:"is_android"`
	HasMediaDevices       bool    `json:"has_media_devices"`
	HasLegacyGetUserMedia bool    `json:"has_legacy_get_user_media"`
	HasImageCapture       bool    `json:"has_image_capture"`
	HasWebRTC             bool    `json:"has_webrtc"`
	HasWebAssembly        bool    `json:"has_webassembly"`
	HasWorkers            bool    `json:"has_workers"`
	HasOffscreenCanvas    bool    `json:"has_offscreen_canvas"`
	HasBarcodeDetector    bool    `json:"has_barcode_detector"`
	SupportsTorch         bool    `json:"supports_torch"`
	SupportsConstraints   bool    `json:"supports_constraints"`
	SupportsVideoTracks   bool    `json:"supports_video_tracks"`
	DownlinkMbps          float64 `json:"downlink_mbps,omitempty"`
}

// Resolution in pixels.
type Resolution struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// CompatibilityFixes describe the workarounds a client must apply
// before opening a capture session.
type CompatibilityFixes struct {
	NeedsPolyfill               bool       `json:"needs_polyfill"`
	RequiresUserGesture         bool       `json:"requires_user_gesture"`
	HasConstraintLimitations    bool       `json:"has_constraint_limitations"`
	NeedsVideoElementWorkaround bool       `json:"needs_video_element_workaround"`
	SupportsAdvancedConstraints bool       `json:"supports_advanced_constraints"`
	MaxResolution               Resolution `json:"max_resolution"`
	RecommendedFPS              int        `json:"recommended_fps"`
}

// PolyfillPlan lists the shims a client should install. Deriving the
// plan is idempotent; installing the shims twice is harmless.
type PolyfillPlan struct {
	PromiseGetUserMediaShim bool `json:"promise_get_user_media_shim"`
	StaticConstraintTable   bool `json:"static_constraint_table"`
}

// SupportVerdict is the result of the scanner supportability check.
type SupportVerdict struct {
	Supported bool   `json:"supported"`
	Reason    string `json:"reason,omitempty"`
}

// ScannerConfig holds the adaptive capture parameters for a scan
// session. It is never persisted; it lives for the session only.
type ScannerConfig struct {
	FPS                  int        `json:"fps"`
	DetectionBoxSize     int        `json:"detection_box_size"`
	Resolution           Resolution `json:"resolution"`
	AspectRatio          float64    `json:"aspect_ratio"`
	ProcessingIntervalMs int        `json:"processing_interval_ms"`
	RetryDelayMs         int        `json:"retry_delay_ms"`
	PreferRearCamera     bool       `json:"prefer_rear_camera"`
	UseNativeDetector    bool       `json:"use_native_detector"`
}
