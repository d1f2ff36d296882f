// Package transaction processes validated payment and member-payment
// payloads: idempotency against the persistent store, the gateway
// call, status transitions and audit events. Every public entry point
// converts failures into a uniform TransactionResult; no error escapes
// to the caller as a raw error.
package transaction

import (
	"context"
	"fmt"
	"regexp"

	"scanpay/internal/models"
	"scanpay/internal/repositories"
	"scanpay/internal/services/monitor"
	"scanpay/internal/services/security"
	"scanpay/internal/telemetry"
	"scanpay/internal/utils"

	"go.uber.org/zap"
)

// MaxPaymentAmount is the business ceiling for a single payment (IDR).
const MaxPaymentAmount = 100_000_000

const defaultHistoryLimit = 50

var (
	merchantIDPattern    = regexp.MustCompile(`^[A-Z0-9_]{3,20}$`)
	transactionIDPattern = regexp.MustCompile(`^[A-Z0-9_]{10,50}$`)
)

// ValidatePaymentAmount reports whether an amount is positive and
// within the business ceiling.
func ValidatePaymentAmount(amount float64) bool {
	return amount > 0 && amount <= MaxPaymentAmount
}

// TransactionCache is the slice of the cache layer this service needs.
type TransactionCache interface {
	CacheTransaction(ctx context.Context, tx *models.FinancialTransaction) error
	GetTransaction(ctx context.Context, transactionID string) (*models.FinancialTransaction, error)
}

// Service processes QR-sourced financial transactions.
type Service interface {
	ProcessPaymentQR(ctx context.Context, data *models.PaymentQRData) models.TransactionResult
	ProcessMemberPayment(ctx context.Context, payment *models.MemberPaymentData) models.TransactionResult
	GetTransactionHistory(ctx context.Context, limit int) []models.FinancialTransaction
	GetTransactionAnalytics(ctx context.Context) *models.TransactionAnalytics
	GeneratePaymentQR(data models.PaymentQRData) (string, error)
	GenerateMemberPaymentQR(payment models.MemberPaymentData) (string, error)
}

type service struct {
	repo      repositories.TransactionRepository
	cache     TransactionCache
	gateway   Gateway
	security  security.Service
	clock     monitor.Clock
	logger    *zap.Logger
	collector telemetry.Collector
	signer    *utils.QRSigner
}

// NewService creates the transaction service. cache and signer may be
// nil; everything else is required.
func NewService(
	repo repositories.TransactionRepository,
	cache TransactionCache,
	gateway Gateway,
	securitySvc security.Service,
	clock monitor.Clock,
	logger *zap.Logger,
	collector telemetry.Collector,
	signer *utils.QRSigner,
) Service {
	if repo == nil {
		panic("transaction repository is required")
	}
	if gateway == nil {
		panic("gateway is required")
	}
	if securitySvc == nil {
		panic("security service is required")
	}
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
		repo:      repo,
		cache:     cache,
		gateway:   gateway,
		security:  securitySvc,
		clock:     clock,
		logger:    logger,
		collector: collector,
		signer:    signer,
	}
}

func (s *service) ProcessPaymentQR(ctx context.Context, data *models.PaymentQRData) models.TransactionResult {
	if err := s.validatePaymentData(data); err != nil {
		return s.fail(data.TransactionID, models.TransactionTypeQRPayment, err.Error())
	}

	// Idempotency check happens before insertion. The narrow window
	// between check and insert is acceptable here; the unique index on
	// transaction_id is the backstop.
	duplicate, err := s.alreadyProcessed(ctx, data.TransactionID)
	if err != nil {
		return s.fail(data.TransactionID, models.TransactionTypeQRPayment, err.Error())
	}
	if duplicate {
		return s.fail(data.TransactionID, models.TransactionTypeQRPayment, "Transaction already processed")
	}

	tx := &models.FinancialTransaction{
		TransactionID: data.TransactionID,
		Type:          models.TransactionTypeQRPayment,
		Amount:        data.Amount,
		Currency:      data.Currency,
		MerchantID:    data.MerchantID,
		MerchantName:  data.MerchantName,
		Description:   data.Description,
		Status:        models.StatusPending,
		Metadata: models.JSON{
			"qr_type": data.QRType,
		},
	}

	if err := s.repo.Create(ctx, tx); err != nil {
		return s.fail(data.TransactionID, models.TransactionTypeQRPayment,
			fmt.Sprintf("failed to create transaction: %v", err))
	}

	status := models.StatusCompleted
	start := s.clock.Now()
	gatewayErr := s.gateway.Charge(ctx, tx)
	s.collector.RecordGatewayLatency(s.clock.Now().Sub(start))
	if gatewayErr != nil {
		status = models.StatusFailed
	}

	if err := s.repo.UpdateStatus(ctx, tx.TransactionID, status); err != nil {
		return s.fail(data.TransactionID, models.TransactionTypeQRPayment,
			fmt.Sprintf("failed to update transaction status: %v", err))
	}
	tx.Status = status
	s.cacheTransaction(ctx, tx)

	s.collector.RecordTransactionOutcome(models.TransactionTypeQRPayment, status)
	if status == models.StatusCompleted {
		s.collector.RecordTransactionAmount(tx.Amount)
		s.security.LogSecurityEvent("payment_completed", map[string]interface{}{
			"transaction_id": tx.TransactionID,
			"merchant_id":    tx.MerchantID,
			"amount":         utils.FormatCurrency(tx.Amount),
		})
		return models.TransactionResult{
			Success:       true,
			TransactionID: tx.TransactionID,
			Amount:        tx.Amount,
			Status:        models.StatusCompleted,
		}
	}

	s.security.LogSecurityEvent("payment_failed", map[string]interface{}{
		"transaction_id": tx.TransactionID,
		"merchant_id":    tx.MerchantID,
		"reason":         gatewayErr.Error(),
	})
	return models.TransactionResult{
		Success:       false,
		TransactionID: tx.TransactionID,
		Amount:        tx.Amount,
		Status:        models.StatusFailed,
		Error:         gatewayErr.Error(),
	}
}

func (s *service) ProcessMemberPayment(ctx context.Context, payment *models.MemberPaymentData) models.TransactionResult {
	if len(payment.MemberID) < 3 {
		return s.fail("", models.TransactionTypeMemberPayment, "member_id must be at least 3 characters")
	}
	if !ValidatePaymentAmount(payment.Amount) {
		return s.fail("", models.TransactionTypeMemberPayment, "amount is out of the allowed range")
	}

	// Millisecond-epoch ids are not collision-proof for concurrent
	// submissions by the same member; downstream consumers depend on
	// this shape, so it stays.
	transactionID := fmt.Sprintf("MBR_%s_%d", payment.MemberID, s.clock.Now().UnixMilli())

	record := &models.MemberPaymentRecord{
		TransactionID: transactionID,
		MemberID:      payment.MemberID,
		MemberName:    payment.MemberName,
		Amount:        payment.Amount,
		PaymentType:   payment.PaymentType,
		Description:   payment.Description,
		Status:        models.StatusCompleted,
	}
	if err := s.repo.CreateMemberPayment(ctx, record); err != nil {
		return s.fail(transactionID, models.TransactionTypeMemberPayment,
			fmt.Sprintf("failed to create member payment: %v", err))
	}

	// Member payments are pre-authorized: the mirrored transaction is
	// finalized without a gateway step.
	tx := &models.FinancialTransaction{
		TransactionID: transactionID,
		Type:          models.TransactionTypeMemberPayment,
		Amount:        payment.Amount,
		Currency:      "IDR",
		MemberID:      payment.MemberID,
		Description:   payment.Description,
		Status:        models.StatusCompleted,
		Metadata: models.JSON{
			"payment_type": payment.PaymentType,
			"member_name":  payment.MemberName,
		},
	}
	if err := s.repo.Create(ctx, tx); err != nil {
		return s.fail(transactionID, models.TransactionTypeMemberPayment,
			fmt.Sprintf("failed to mirror member payment: %v", err))
	}
	s.cacheTransaction(ctx, tx)

	s.collector.RecordTransactionOutcome(models.TransactionTypeMemberPayment, models.StatusCompleted)
	s.collector.RecordTransactionAmount(payment.Amount)
	s.security.LogSecurityEvent("member_payment_completed", map[string]interface{}{
		"transaction_id": transactionID,
		"member_id":      payment.MemberID,
		"payment_type":   payment.PaymentType,
		"amount":         utils.FormatCurrency(payment.Amount),
	})

	return models.TransactionResult{
		Success:       true,
		TransactionID: transactionID,
		Amount:        payment.Amount,
		Status:        models.StatusCompleted,
	}
}

// GetTransactionHistory returns the most recent transactions. Storage
// errors yield an empty list; callers must treat it as "unknown", not
// necessarily "no transactions".
func (s *service) GetTransactionHistory(ctx context.Context, limit int) []models.FinancialTransaction {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	txs, err := s.repo.List(ctx, limit)
	if err != nil {
		s.logger.Error("failed to load transaction history", zap.Error(err))
		return []models.FinancialTransaction{}
	}
	return txs
}

// GetTransactionAnalytics aggregates transactions. Storage errors
// yield the zeroed analytics object.
func (s *service) GetTransactionAnalytics(ctx context.Context) *models.TransactionAnalytics {
	analytics, err := s.repo.Analytics(ctx)
	if err != nil {
		s.logger.Error("failed to compute transaction analytics", zap.Error(err))
		return &models.TransactionAnalytics{AmountByType: map[string]float64{}}
	}
	return analytics
}

func (s *service) validatePaymentData(data *models.PaymentQRData) error {
	if !ValidatePaymentAmount(data.Amount) {
		return fmt.Errorf("amount must be between 1 and %d", MaxPaymentAmount)
	}
	if data.Currency != "IDR" {
		return fmt.Errorf("currency %q is not supported", data.Currency)
	}
	if !merchantIDPattern.MatchString(data.MerchantID) {
		return fmt.Errorf("merchant_id %q has invalid format", data.MerchantID)
	}
	if !transactionIDPattern.MatchString(data.TransactionID) {
		return fmt.Errorf("transaction_id %q has invalid format", data.TransactionID)
	}
	return nil
}

func (s *service) alreadyProcessed(ctx context.Context, transactionID string) (bool, error) {
	if s.cache != nil {
		if cached, err := s.cache.GetTransaction(ctx, transactionID); err == nil && cached != nil {
			return true, nil
		}
	}

	exists, err := s.repo.Exists(ctx, transactionID)
	if err != nil {
		return false, fmt.Errorf("failed to check for duplicate transaction: %w", err)
	}
	return exists, nil
}

func (s *service) cacheTransaction(ctx context.Context, tx *models.FinancialTransaction) {
	if s.cache == nil {
		return
	}
	if err := s.cache.CacheTransaction(ctx, tx); err != nil {
		// Cache failures never fail the transaction.
		s.logger.Warn("failed to cache transaction",
			zap.String("transaction_id", tx.TransactionID), zap.Error(err))
	}
}

func (s *service) fail(transactionID, txType, message string) models.TransactionResult {
	s.logger.Error("transaction processing failed",
		zap.String("transaction_id", transactionID),
		zap.String("type", txType),
		zap.String("error", message),
	)
	s.collector.RecordTransactionOutcome(txType, models.StatusFailed)
	s.security.LogSecurityEvent("transaction_error", map[string]interface{}{
		"transaction_id": transactionID,
		"type":           txType,
		"error":          message,
	})
	return models.TransactionResult{
		Success:       false,
		TransactionID: transactionID,
		Error:         message,
	}
}
