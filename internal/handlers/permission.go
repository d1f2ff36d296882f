package handlers

import (
	"scanpay/internal/models"
	"scanpay/internal/services/compat"
	"scanpay/internal/services/permission"
	"scanpay/internal/utils/response"

	"github.com/gofiber/fiber/v2"
)

// PermissionHandler resolves camera permission guidance.
type PermissionHandler struct {
	permissionSvc permission.Service
	compatSvc     compat.Service
}

func NewPermissionHandler(permissionSvc permission.Service, compatSvc compat.Service) *PermissionHandler {
	return &PermissionHandler{
		permissionSvc: permissionSvc,
		compatSvc:     compatSvc,
	}
}

func (h *PermissionHandler) Guidance(c *fiber.Ctx) error {
	var body struct {
		State          permission.State     `json:"state"`
		Profile        models.DeviceProfile `json:"profile"`
		TransportError string               `json:"transport_error,omitempty"`
	}
	if err := c.BodyParser(&body); err != nil {
		return response.BadRequest(c, "Invalid permission request")
	}

	caps := h.compatSvc.DetectCapabilities(body.Profile)
	guidance := h.permissionSvc.Guidance(body.State, caps, body.Profile.Origin, body.TransportError)
	return response.Success(c, "Permission guidance", guidance)
}
