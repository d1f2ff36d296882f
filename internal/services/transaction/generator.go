package transaction

import (
	"encoding/json"

	"scanpay/internal/models"
	"scanpay/internal/utils"
)

// GeneratePaymentQR encodes a payment payload for QR rendering and
// signs it when a signing key is configured. An omitted transaction id
// is filled with a fresh random one; the rest of the validation is the
// caller's job before encoding.
func (s *service) GeneratePaymentQR(data models.PaymentQRData) (string, error) {
	if data.TransactionID == "" {
		code, err := utils.GenerateSecureCode()
		if err != nil {
			return "", err
		}
		data.TransactionID = "TXN_" + code
	}
	data.QRType = models.QRTypePayment
	data.Signature = ""
	return s.encodeSigned(&data, func(sig string) { data.Signature = sig })
}

// GenerateMemberPaymentQR encodes a member payment payload.
func (s *service) GenerateMemberPaymentQR(payment models.MemberPaymentData) (string, error) {
	payment.QRType = models.QRTypeMemberPayment
	payment.Signature = ""
	return s.encodeSigned(&payment, func(sig string) { payment.Signature = sig })
}

func (s *service) encodeSigned(payload interface{}, setSig func(string)) (string, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	if s.signer == nil || !s.signer.Enabled() {
		return string(raw), nil
	}

	sig, err := s.signer.SignPayload(raw)
	if err != nil {
		return "", err
	}
	setSig(sig)

	signed, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	return string(signed), nil
}
