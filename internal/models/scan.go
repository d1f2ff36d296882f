package models

import "time"

// BarcodeFormat identifies the symbology a payload was decoded from.
type BarcodeFormat string

const (
	FormatQRCode     BarcodeFormat = "qr_code"
	FormatCode128    BarcodeFormat = "code_128"
	FormatCode39     BarcodeFormat = "code_39"
	FormatEAN13      BarcodeFormat = "ean_13"
	FormatEAN8       BarcodeFormat = "ean_8"
	FormatDataMatrix BarcodeFormat = "data_matrix"
)

// ScanResult is the normalized output of every acquisition path.
// Text is the only field trusted for downstream parsing; a confidence
// below 1.0 signals a possibly noisy automated decode.
type ScanResult struct {
	Text       string                 `json:"text"`
	Format     BarcodeFormat          `json:"format"`
	Timestamp  time.Time              `json:"timestamp"`
	Confidence float64                `json:"confidence"`
	RawData    map[string]interface{} `json:"raw_data,omitempty"`
}

// DeviceProfile is the feature probe a client reports about its
// browser and camera environment. Probe flags default to false, so a
// client that failed a probe is treated as lacking the capability.
type DeviceProfile struct {
	UserAgent             string  `json:"user_agent"`
	Origin                string  `json:"origin"`
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
	ScreenWidth           int     `json:"screen_width"`
	ScreenHeight          int     `json:"screen_height"`
	DownlinkMbps          float64 `json:"downlink_mbps"`
}
