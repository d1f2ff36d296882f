package handlers

import (
	"encoding/json"

	"scanpay/internal/middleware"
	"scanpay/internal/models"
	"scanpay/internal/services/security"
	"scanpay/internal/services/transaction"
	"scanpay/internal/utils/response"

	"github.com/gofiber/fiber/v2"
)

// ScanHandler runs the full processing pipeline for a decoded scan:
// rate limit, security validation, payload typing and transaction
// processing.
type ScanHandler struct {
	securitySvc    security.Service
	transactionSvc transaction.Service
}

func NewScanHandler(securitySvc security.Service, transactionSvc transaction.Service) *ScanHandler {
	return &ScanHandler{
		securitySvc:    securitySvc,
		transactionSvc: transactionSvc,
	}
}

// ProcessScan validates and processes one decoded scan result.
func (h *ScanHandler) ProcessScan(c *fiber.Ctx) error {
	var body struct {
		Result models.ScanResult `json:"result"`
		UserID string            `json:"user_id,omitempty"`
	}
	if err := c.BodyParser(&body); err != nil {
		return response.BadRequest(c, "Invalid scan request")
	}

	userID := body.UserID
	if userID == "" {
		userID = middleware.ResolvedClientID(c)
	}

	limit := h.securitySvc.CheckRateLimit(userID)
	if !limit.Allowed {
		return response.TooManyRequests(c, limit.Reason)
	}

	validation := h.securitySvc.ValidateScanSecurity(body.Result)
	if !validation.IsValid {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error":    "Scan rejected",
			"errors":   validation.Errors,
			"warnings": validation.Warnings,
		})
	}

	result := h.process(c, body.Result.Text)
	return response.Success(c, "Scan processed", fiber.Map{
		"transaction": result,
		"warnings":    validation.Warnings,
		"remaining":   limit.RemainingScans,
	})
}

// process routes the raw text on the declared qr_type. Text that is
// not one of the payment payloads comes back as an unprocessed scan.
func (h *ScanHandler) process(c *fiber.Ctx, text string) models.TransactionResult {
	switch probeQRType(text) {
	case models.QRTypePayment:
		data, validation := h.securitySvc.ValidatePaymentQR(text)
		if !validation.IsValid {
			return models.TransactionResult{Success: false, Error: firstError(validation)}
		}
		return h.transactionSvc.ProcessPaymentQR(c.Context(), data)
	case models.QRTypeMemberPayment:
		payment, validation := h.securitySvc.ValidateMemberQR(text)
		if !validation.IsValid {
			return models.TransactionResult{Success: false, Error: firstError(validation)}
		}
		return h.transactionSvc.ProcessMemberPayment(c.Context(), payment)
	default:
		return models.TransactionResult{
			Success: false,
			Error:   "unrecognized QR payload type",
		}
	}
}

// AuditTrail exposes the recent security events.
func (h *ScanHandler) AuditTrail(c *fiber.Ctx) error {
	return response.Success(c, "Audit trail", h.securitySvc.AuditTrail())
}

// probeQRType peeks at the qr_type discriminator without committing to
// either payload shape.
func probeQRType(text string) string {
	var probe struct {
		QRType string `json:"qr_type"`
	}
	if err := json.Unmarshal([]byte(text), &probe); err != nil {
		return ""
	}
	return probe.QRType
}

func firstError(validation security.ValidationResult) string {
	if len(validation.Errors) > 0 {
		return validation.Errors[0]
	}
	return "validation failed"
}
