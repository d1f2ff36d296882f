package handlers

import (
	"scanpay/internal/middleware"
	"scanpay/internal/models"
	"scanpay/internal/repositories/cache"
	"scanpay/internal/services/compat"
	"scanpay/internal/services/monitor"
	"scanpay/internal/services/optimizer"
	"scanpay/internal/utils/response"

	"github.com/gofiber/fiber/v2"
)

// ScannerHandler serves capability detection, adaptive configuration
// and performance telemetry.
type ScannerHandler struct {
	compatSvc    compat.Service
	monitorSvc   monitor.Service
	optimizerSvc optimizer.Service
	cache        *cache.CacheService
}

// NewScannerHandler creates the scanner handler. cacheSvc may be nil;
// capability snapshots are then re-derived on every request.
func NewScannerHandler(compatSvc compat.Service, monitorSvc monitor.Service, optimizerSvc optimizer.Service, cacheSvc *cache.CacheService) *ScannerHandler {
	return &ScannerHandler{
		compatSvc:    compatSvc,
		monitorSvc:   monitorSvc,
		optimizerSvc: optimizerSvc,
		cache:        cacheSvc,
	}
}

// DetectCapabilities derives the capability snapshot, fixes, polyfill
// plan and supportability verdict from a client device profile. The
// snapshot is cached per client so follow-up requests may omit the
// profile.
func (h *ScannerHandler) DetectCapabilities(c *fiber.Ctx) error {
	var profile models.DeviceProfile
	if err := c.BodyParser(&profile); err != nil {
		return response.BadRequest(c, "Invalid device profile")
	}

	caps := h.compatSvc.DetectCapabilities(profile)
	verdict := h.compatSvc.IsScannerSupported(caps, profile.Origin)

	if h.cache != nil {
		// Best effort; a cache outage never fails the request.
		_ = h.cache.CacheCapabilities(c.Context(), middleware.ResolvedClientID(c), &caps)
	}

	return response.Success(c, "Capabilities detected", fiber.Map{
		"capabilities":  caps,
		"fixes":         h.compatSvc.CompatibilityFixes(caps),
		"polyfill_plan": h.compatSvc.PolyfillPlan(caps),
		"support":       verdict,
	})
}

// InvalidateCapabilities drops the cached snapshot; clients call this
// before re-probing a changed environment.
func (h *ScannerHandler) InvalidateCapabilities(c *fiber.Ctx) error {
	if h.cache != nil {
		_ = h.cache.InvalidateCapabilities(c.Context(), middleware.ResolvedClientID(c))
	}
	return response.Success(c, "Capabilities invalidated", nil)
}

// OptimizedConfig returns the adaptive scanner config for a profile.
// A returning client may send an empty profile and get the config for
// its cached capability snapshot.
func (h *ScannerHandler) OptimizedConfig(c *fiber.Ctx) error {
	var profile models.DeviceProfile
	if err := c.BodyParser(&profile); err != nil {
		return response.BadRequest(c, "Invalid device profile")
	}

	caps, ok := h.resolveCapabilities(c, profile)
	if !ok {
		return response.BadRequest(c, "Device profile required")
	}

	cfg := h.optimizerSvc.OptimalConfig(c.Context(), caps)
	cfg = h.compatSvc.OptimizedConfig(caps, cfg)

	return response.Success(c, "Scanner config", cfg)
}

func (h *ScannerHandler) resolveCapabilities(c *fiber.Ctx, profile models.DeviceProfile) (models.BrowserCapabilities, bool) {
	if profile.UserAgent != "" {
		return h.compatSvc.DetectCapabilities(profile), true
	}
	if h.cache != nil {
		if caps, err := h.cache.GetCapabilities(c.Context(), middleware.ResolvedClientID(c)); err == nil && caps != nil {
			return *caps, true
		}
	}
	return models.BrowserCapabilities{}, false
}

// RecordMetric ingests one scan attempt metric and returns an adapted
// config when the optimizer decided to change something; data is null
// otherwise and the client keeps its current config.
func (h *ScannerHandler) RecordMetric(c *fiber.Ctx) error {
	var body struct {
		Metric models.ScanMetric    `json:"metric"`
		Config models.ScannerConfig `json:"config"`
	}
	if err := c.BodyParser(&body); err != nil {
		return response.BadRequest(c, "Invalid scan metric")
	}

	h.monitorSvc.RecordScanMetric(body.Metric)
	adapted := h.optimizerSvc.AdaptConfig(body.Config, body.Metric)

	return response.Success(c, "Metric recorded", adapted)
}

// Stats returns the aggregate performance statistics and grade.
func (h *ScannerHandler) Stats(c *fiber.Ctx) error {
	return response.Success(c, "Performance stats", h.monitorSvc.Stats())
}
