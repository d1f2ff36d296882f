package security

import (
	"encoding/json"
	"fmt"

	"scanpay/internal/models"
)

// Payload-level amount sanity bound. The transaction service applies
// the tighter business limit before persisting.
const maxPayloadAmount = 1_000_000_000

var memberPaymentTypes = map[string]bool{
	models.PaymentTypeMonthlyFee:  true,
	models.PaymentTypeLoanPayment: true,
	models.PaymentTypeSavings:     true,
	models.PaymentTypeOther:       true,
}

// ValidatePaymentQR parses and checks a payment QR payload. The parsed
// data is returned alongside validity so callers avoid re-parsing.
func (s *service) ValidatePaymentQR(text string) (*models.PaymentQRData, ValidationResult) {
	v := ValidationResult{}

	var data models.PaymentQRData
	if err := json.Unmarshal([]byte(text), &data); err != nil {
		v.Errors = append(v.Errors, "Invalid JSON format")
		return nil, v
	}

	if data.QRType != models.QRTypePayment {
		v.Errors = append(v.Errors, fmt.Sprintf("qr_type must be %q", models.QRTypePayment))
	}
	if data.Amount <= 0 || data.Amount > maxPayloadAmount {
		v.Errors = append(v.Errors, "amount must be positive and within the allowed range")
	}
	if data.Currency == "" {
		v.Errors = append(v.Errors, "currency is required")
	}
	if data.MerchantID == "" {
		v.Errors = append(v.Errors, "merchant_id is required")
	}
	if data.MerchantName == "" {
		v.Errors = append(v.Errors, "merchant_name is required")
	}
	if data.TransactionID == "" {
		v.Errors = append(v.Errors, "transaction_id is required")
	}

	s.verifySignature(text, data.Signature, &v)

	v.IsValid = len(v.Errors) == 0
	if !v.IsValid {
		return nil, v
	}
	return &data, v
}

// ValidateMemberQR parses and checks a member payment QR payload.
func (s *service) ValidateMemberQR(text string) (*models.MemberPaymentData, ValidationResult) {
	v := ValidationResult{}

	var data models.MemberPaymentData
	if err := json.Unmarshal([]byte(text), &data); err != nil {
		v.Errors = append(v.Errors, "Invalid JSON format")
		return nil, v
	}

	if data.QRType != models.QRTypeMemberPayment {
		v.Errors = append(v.Errors, fmt.Sprintf("qr_type must be %q", models.QRTypeMemberPayment))
	}
	if len(data.MemberID) < 3 {
		v.Errors = append(v.Errors, "member_id must be at least 3 characters")
	}
	if data.MemberName == "" {
		v.Errors = append(v.Errors, "member_name is required")
	}
	if data.Amount <= 0 || data.Amount > maxPayloadAmount {
		v.Errors = append(v.Errors, "amount must be positive and within the allowed range")
	}
	if !memberPaymentTypes[data.PaymentType] {
		v.Errors = append(v.Errors, "payment_type must be monthly_fee, loan_payment, savings or other")
	}

	s.verifySignature(text, data.Signature, &v)

	v.IsValid = len(v.Errors) == 0
	if !v.IsValid {
		return nil, v
	}
	return &data, v
}

// verifySignature is advisory only: our own generated QR codes carry a
// keyed signature, but externally produced payloads do not and remain
// valid without one.
func (s *service) verifySignature(raw, signature string, v *ValidationResult) {
	if signature == "" || s.signer == nil || !s.signer.Enabled() {
		return
	}
	if !s.signer.VerifyPayload([]byte(raw), signature) {
		v.Warnings = append(v.Warnings, "payload signature does not verify")
	}
}
