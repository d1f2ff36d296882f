package handlers

import (
	"errors"
	"io"

	domainErrors "scanpay/internal/errors"
	"scanpay/internal/models"
	"scanpay/internal/services/compat"
	"scanpay/internal/services/fallback"
	"scanpay/internal/utils/response"

	"github.com/gofiber/fiber/v2"
)

// FallbackHandler serves the alternate acquisition paths used when
// live capture is unavailable.
type FallbackHandler struct {
	fallbackSvc fallback.Service
	compatSvc   compat.Service
}

func NewFallbackHandler(fallbackSvc fallback.Service, compatSvc compat.Service) *FallbackHandler {
	return &FallbackHandler{
		fallbackSvc: fallbackSvc,
		compatSvc:   compatSvc,
	}
}

func (h *FallbackHandler) Options(c *fiber.Ctx) error {
	var profile models.DeviceProfile
	if err := c.BodyParser(&profile); err != nil {
		return response.BadRequest(c, "Invalid device profile")
	}

	caps := h.compatSvc.DetectCapabilities(profile)
	return response.Success(c, "Fallback options", h.fallbackSvc.Options(caps))
}

func (h *FallbackHandler) SubmitManual(c *fiber.Ctx) error {
	var body struct {
		Text             string                 `json:"text"`
		Format           models.BarcodeFormat   `json:"format"`
		SupportedFormats []models.BarcodeFormat `json:"supported_formats,omitempty"`
	}
	if err := c.BodyParser(&body); err != nil {
		return response.BadRequest(c, "Invalid manual entry")
	}

	result, err := h.fallbackSvc.SubmitManual(body.Text, body.Format, body.SupportedFormats)
	if err != nil {
		return response.ValidationError(c, err.Error())
	}
	return response.Success(c, "Manual entry accepted", result)
}

func (h *FallbackHandler) UploadImage(c *fiber.Ctx) error {
	image, mimeType, err := readUpload(c)
	if err != nil {
		return response.BadRequest(c, err.Error())
	}

	result, decodeErr := h.fallbackSvc.DecodeImage(c.Context(), image, mimeType)
	if decodeErr != nil {
		return fallbackError(c, decodeErr)
	}
	return response.Success(c, "Image decoded", result)
}

func (h *FallbackHandler) NativeCapture(c *fiber.Ctx) error {
	var profile models.DeviceProfile
	if ua := c.Get("X-Device-Profile"); ua != "" {
		profile.UserAgent = ua
	} else {
		profile.UserAgent = c.Get(fiber.HeaderUserAgent)
	}

	caps := h.compatSvc.DetectCapabilities(profile)

	image, mimeType, err := readUpload(c)
	if err != nil {
		return response.BadRequest(c, err.Error())
	}

	result, captureErr := h.fallbackSvc.SubmitNativeCapture(c.Context(), caps, image, mimeType)
	if captureErr != nil {
		return fallbackError(c, captureErr)
	}
	return response.Success(c, "Capture decoded", result)
}

func readUpload(c *fiber.Ctx) ([]byte, string, error) {
	fileHeader, err := c.FormFile("image")
	if err != nil {
		return nil, "", errors.New("image file is required")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return nil, "", errors.New("failed to open uploaded file")
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, "", errors.New("failed to read uploaded file")
	}
	return data, fileHeader.Header.Get("Content-Type"), nil
}

func fallbackError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, domainErrors.ErrUnsupportedFileType),
		errors.Is(err, domainErrors.ErrEmptyScanInput):
		return response.BadRequest(c, err.Error())
	case errors.Is(err, domainErrors.ErrDecoderUnavailable):
		return response.ValidationError(c, err.Error())
	default:
		return response.ValidationError(c, err.Error())
	}
}
