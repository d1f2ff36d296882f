package handlers

import (
	"scanpay/internal/models"
	"scanpay/internal/services/transaction"
	"scanpay/internal/utils/response"

	"github.com/gofiber/fiber/v2"
)

// TransactionHandler serves transaction history, analytics and QR
// generation.
type TransactionHandler struct {
	transactionSvc transaction.Service
}

func NewTransactionHandler(transactionSvc transaction.Service) *TransactionHandler {
	return &TransactionHandler{transactionSvc: transactionSvc}
}

func (h *TransactionHandler) History(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 0)
	txs := h.transactionSvc.GetTransactionHistory(c.Context(), limit)
	return response.Success(c, "Transaction history", txs)
}

func (h *TransactionHandler) Analytics(c *fiber.Ctx) error {
	analytics := h.transactionSvc.GetTransactionAnalytics(c.Context())
	return response.Success(c, "Transaction analytics", analytics)
}

func (h *TransactionHandler) GeneratePaymentQR(c *fiber.Ctx) error {
	var data models.PaymentQRData
	if err := c.BodyParser(&data); err != nil {
		return response.BadRequest(c, "Invalid payment data")
	}

	payload, err := h.transactionSvc.GeneratePaymentQR(data)
	if err != nil {
		return response.ValidationError(c, err.Error())
	}
	return response.Success(c, "Payment QR generated", fiber.Map{
		"payload": payload,
	})
}

func (h *TransactionHandler) GenerateMemberPaymentQR(c *fiber.Ctx) error {
	var payment models.MemberPaymentData
	if err := c.BodyParser(&payment); err != nil {
		return response.BadRequest(c, "Invalid member payment data")
	}

	payload, err := h.transactionSvc.GenerateMemberPaymentQR(payment)
	if err != nil {
		return response.ValidationError(c, err.Error())
	}
	return response.Success(c, "Member payment QR generated", fiber.Map{
		"payload": payload,
	})
}
