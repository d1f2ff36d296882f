// Package security validates and sanitizes text produced by any
// acquisition path before it is trusted elsewhere: length bounds,
// protocol allow-list, malicious-pattern rejection, rate limiting and
// the domain payload validators. Pure validation, no I/O except the
// security-event log.
package security

import (
	"sync"

	"scanpay/internal/models"
	"scanpay/internal/services/monitor"
	"scanpay/internal/telemetry"
	"scanpay/internal/utils"

	"go.uber.org/zap"
)

// Service is the scanner security layer.
type Service interface {
	ValidateScanSecurity(result models.ScanResult) ValidationResult
	CheckRateLimit(userID string) RateLimitResult
	ValidatePaymentQR(text string) (*models.PaymentQRData, ValidationResult)
	ValidateMemberQR(text string) (*models.MemberPaymentData, ValidationResult)
	LogSecurityEvent(event string, details map[string]interface{})
	AuditTrail() []SecurityEvent
}

type service struct {
	mu        sync.Mutex
	audit     []SecurityEvent
	limiter   *rateLimiter
	clock     monitor.Clock
	logger    *zap.Logger
	collector telemetry.Collector
	signer    *utils.QRSigner
}

// NewService creates the security service. signer may be nil when QR
// signing is not configured.
func NewService(clock monitor.Clock, logger *zap.Logger, collector telemetry.Collector, signer *utils.QRSigner) Service {
	if clock == nil {
		panic("clock is required")
	}
	if logger == nil {
		panic("logger is required")
	}
	if collector == nil {
		panic("collector is required")
	}
	return &service{
		limiter:   newRateLimiter(clock),
		clock:     clock,
		logger:    logger,
		collector: collector,
		signer:    signer,
	}
}

func (s *service) CheckRateLimit(userID string) RateLimitResult {
	result := s.limiter.Check(userID)
	if !result.Allowed {
		s.collector.RecordRateLimitDenied(result.Reason)
		s.LogSecurityEvent("rate_limit_denied", map[string]interface{}{
			"user_id": userID,
			"reason":  result.Reason,
		})
	}
	return result
}
