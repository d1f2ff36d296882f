package handlers

import (
	"errors"

	domainErrors "scanpay/internal/errors"
	"scanpay/internal/models"
	"scanpay/internal/services/compat"
	"scanpay/internal/services/session"
	"scanpay/internal/utils/response"

	"github.com/gofiber/fiber/v2"
)

// SessionHandler exposes the operator controls for active capture
// sessions.
type SessionHandler struct {
	sessionSvc session.Service
	compatSvc  compat.Service
}

func NewSessionHandler(sessionSvc session.Service, compatSvc compat.Service) *SessionHandler {
	return &SessionHandler{
		sessionSvc: sessionSvc,
		compatSvc:  compatSvc,
	}
}

func (h *SessionHandler) Start(c *fiber.Ctx) error {
	var body struct {
		Profile models.DeviceProfile `json:"profile"`
	}
	if err := c.BodyParser(&body); err != nil {
		return response.BadRequest(c, "Invalid session request")
	}

	caps := h.compatSvc.DetectCapabilities(body.Profile)
	verdict := h.compatSvc.IsScannerSupported(caps, body.Profile.Origin)
	if !verdict.Supported {
		return response.Error(c, fiber.StatusUnprocessableEntity, verdict.Reason)
	}

	cfg := h.compatSvc.OptimizedConfig(caps, compat.DefaultScannerConfig())
	sess := h.sessionSvc.Start(caps, cfg)
	return response.Success(c, "Session started", sess)
}

func (h *SessionHandler) Get(c *fiber.Ctx) error {
	sess, err := h.sessionSvc.Get(c.Params("id"))
	if err != nil {
		return sessionError(c, err)
	}
	return response.Success(c, "Session", sess)
}

func (h *SessionHandler) Restart(c *fiber.Ctx) error {
	sess, err := h.sessionSvc.Restart(c.Params("id"))
	if err != nil {
		return sessionError(c, err)
	}
	return response.Success(c, "Session restarted", sess)
}

func (h *SessionHandler) Stop(c *fiber.Ctx) error {
	sess, err := h.sessionSvc.Stop(c.Params("id"))
	if err != nil {
		return sessionError(c, err)
	}
	return response.Success(c, "Session stopped", sess)
}

func (h *SessionHandler) SetTorch(c *fiber.Ctx) error {
	var body struct {
		On bool `json:"on"`
	}
	if err := c.BodyParser(&body); err != nil {
		return response.BadRequest(c, "Invalid torch request")
	}

	sess, err := h.sessionSvc.SetTorch(c.Params("id"), body.On)
	if err != nil {
		return sessionError(c, err)
	}
	return response.Success(c, "Torch updated", sess)
}

func (h *SessionHandler) SwitchFacing(c *fiber.Ctx) error {
	var body struct {
		Facing session.FacingMode `json:"facing"`
	}
	if err := c.BodyParser(&body); err != nil {
		return response.BadRequest(c, "Invalid facing request")
	}

	sess, err := h.sessionSvc.SwitchFacing(c.Params("id"), body.Facing)
	if err != nil {
		return sessionError(c, err)
	}
	return response.Success(c, "Facing updated", sess)
}

func (h *SessionHandler) UpdateConfig(c *fiber.Ctx) error {
	var body struct {
		Config models.ScannerConfig `json:"config"`
	}
	if err := c.BodyParser(&body); err != nil {
		return response.BadRequest(c, "Invalid config request")
	}

	sess, err := h.sessionSvc.UpdateConfig(c.Params("id"), body.Config)
	if err != nil {
		return sessionError(c, err)
	}
	return response.Success(c, "Config updated", sess)
}

func sessionError(c *fiber.Ctx, err error) error {
	if errors.Is(err, domainErrors.ErrSessionNotFound) {
		return response.NotFound(c, err.Error())
	}
	return response.Error(c, fiber.StatusConflict, err.Error())
}
