// Package fallback offers alternate acquisition paths when live
// camera capture is unavailable: manual text entry, image upload with
// static decode, and native camera-app capture on mobile. Every path
// normalizes into the same ScanResult shape as the live scanner.
package fallback

import (
	"context"
	"strings"

	domainErrors "scanpay/internal/errors"
	"scanpay/internal/models"
	"scanpay/internal/services/monitor"
)

// Mode identifies an acquisition path.
type Mode string

const (
	ModeManual       Mode = "manual"
	ModeImageUpload  Mode = "image_upload"
	ModeNativeCamera Mode = "native_camera"
)

// Option describes one fallback mode offered to the operator.
type Option struct {
	Mode        Mode   `json:"mode"`
	Label       string `json:"label"`
	Description string `json:"description"`
}

// Service is the fallback acquisition service.
type Service interface {
	Options(caps models.BrowserCapabilities) []Option
	SubmitManual(text string, format models.BarcodeFormat, supported []models.BarcodeFormat) (*models.ScanResult, error)
	DecodeImage(ctx context.Context, image []byte, mimeType string) (*models.ScanResult, error)
	SubmitNativeCapture(ctx context.Context, caps models.BrowserCapabilities, image []byte, mimeType string) (*models.ScanResult, error)
}

type service struct {
	decoder Decoder
	clock   monitor.Clock
}

// NewService creates a fallback service. decoder may be nil when no
// static decode backend is available.
func NewService(decoder Decoder, clock monitor.Clock) Service {
	if clock == nil {
		panic("clock is required")
	}
	return &service{decoder: decoder, clock: clock}
}

// Options computes the available modes once; callers render the list
// as returned. The native-camera path is mobile only.
func (s *service) Options(caps models.BrowserCapabilities) []Option {
	options := []Option{
		{
			Mode:        ModeManual,
			Label:       "Input manual",
			Description: "Type the code printed under the barcode",
		},
	}

	if s.decoder != nil || caps.HasBarcodeDetector {
		options = append(options, Option{
			Mode:        ModeImageUpload,
			Label:       "Unggah gambar",
			Description: "Upload a photo of the QR code",
		})
	}

	if caps.IsMobile {
		options = append(options, Option{
			Mode:        ModeNativeCamera,
			Label:       "Kamera bawaan",
			Description: "Take a photo with the device camera app",
		})
	}

	return options
}

func (s *service) SubmitManual(text string, format models.BarcodeFormat, supported []models.BarcodeFormat) (*models.ScanResult, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, domainErrors.ErrEmptyScanInput
	}

	if len(supported) > 0 && !formatSupported(format, supported) {
		return nil, &domainErrors.DomainError{
			Code:    "UNSUPPORTED_FORMAT",
			Message: "format is not in the supported set",
		}
	}

	return &models.ScanResult{
		Text:       trimmed,
		Format:     format,
		Timestamp:  s.clock.Now(),
		Confidence: 1.0,
		RawData:    map[string]interface{}{"manual": true},
	}, nil
}

func (s *service) DecodeImage(ctx context.Context, image []byte, mimeType string) (*models.ScanResult, error) {
	if !strings.HasPrefix(mimeType, "image/") {
		return nil, domainErrors.ErrUnsupportedFileType
	}
	if len(image) == 0 {
		return nil, domainErrors.ErrEmptyScanInput
	}
	if s.decoder == nil {
		return nil, domainErrors.ErrDecoderUnavailable
	}

	text, format, err := s.decoder.Decode(ctx, image, mimeType)
	if err != nil {
		return nil, err
	}

	return &models.ScanResult{
		Text:       text,
		Format:     format,
		Timestamp:  s.clock.Now(),
		Confidence: 0.9,
		RawData: map[string]interface{}{
			"source":    "image_upload",
			"mime_type": mimeType,
		},
	}, nil
}

// SubmitNativeCapture delegates to the shared image-decode path after
// the mobile gate; the processing is not duplicated.
func (s *service) SubmitNativeCapture(ctx context.Context, caps models.BrowserCapabilities, image []byte, mimeType string) (*models.ScanResult, error) {
	if !caps.IsMobile {
		return nil, &domainErrors.DomainError{
			Code:    "NATIVE_CAMERA_UNAVAILABLE",
			Message: "native camera capture is only available on mobile devices",
		}
	}

	result, err := s.DecodeImage(ctx, image, mimeType)
	if err != nil {
		return nil, err
	}
	result.RawData["source"] = "native_camera"
	return result, nil
}

func formatSupported(format models.BarcodeFormat, supported []models.BarcodeFormat) bool {
	for _, f := range supported {
		if f == format {
			return true
		}
	}
	return false
}
