package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"scanpay/internal/middleware"
	"scanpay/internal/models"
	"scanpay/internal/repositories"
	"scanpay/internal/services/monitor"
	"scanpay/internal/services/security"
	"scanpay/internal/services/transaction"
	"scanpay/internal/telemetry"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// memoryRepo is an in-memory TransactionRepository for pipeline tests.
type memoryRepo struct {
	mu      sync.Mutex
	txs     map[string]*models.FinancialTransaction
	members []*models.MemberPaymentRecord
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{txs: make(map[string]*models.FinancialTransaction)}
}

func (r *memoryRepo) Exists(_ context.Context, transactionID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.txs[transactionID]
	return ok, nil
}

func (r *memoryRepo) Create(_ context.Context, tx *models.FinancialTransaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.txs[tx.TransactionID]; ok {
		return fmt.Errorf("duplicate key on transaction_id %q", tx.TransactionID)
	}
	r.txs[tx.TransactionID] = tx
	return nil
}

func (r *memoryRepo) UpdateStatus(_ context.Context, transactionID, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	tx, ok := r.txs[transactionID]
	if !ok {
		return fmt.Errorf("transaction %q not found", transactionID)
	}
	tx.Status = status
	return nil
}

func (r *memoryRepo) GetByTransactionID(_ context.Context, transactionID string) (*models.FinancialTransaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	tx, ok := r.txs[transactionID]
	if !ok {
		return nil, fmt.Errorf("transaction %q not found", transactionID)
	}
	return tx, nil
}

func (r *memoryRepo) List(_ context.Context, limit int) ([]models.FinancialTransaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.FinancialTransaction, 0, len(r.txs))
	for _, tx := range r.txs {
		out = append(out, *tx)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *memoryRepo) CreateMemberPayment(_ context.Context, mp *models.MemberPaymentRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.members = append(r.members, mp)
	return nil
}

func (r *memoryRepo) Analytics(context.Context) (*models.TransactionAnalytics, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	analytics := &models.TransactionAnalytics{AmountByType: map[string]float64{}}
	for _, tx := range r.txs {
		analytics.TotalCount++
		switch tx.Status {
		case models.StatusCompleted:
			analytics.CompletedCount++
			analytics.TotalAmount += tx.Amount
			analytics.AmountByType[tx.Type] += tx.Amount
		case models.StatusFailed:
			analytics.FailedCount++
		default:
			analytics.PendingCount++
		}
	}
	return analytics, nil
}

var _ repositories.TransactionRepository = (*memoryRepo)(nil)

func newScanApp(t *testing.T, clock monitor.Clock) (*fiber.App, *memoryRepo) {
	t.Helper()

	repo := newMemoryRepo()
	collector := &telemetry.NoopCollector{}
	logger := zap.NewNop()

	securitySvc := security.NewService(clock, logger, collector, nil)
	transactionSvc := transaction.NewService(repo, nil,
		transaction.NewDeterministicGateway(true), securitySvc, clock, logger, collector, nil)

	app := fiber.New()
	handler := NewScanHandler(securitySvc, transactionSvc)
	app.Post("/api/scan", middleware.ClientID, handler.ProcessScan)
	app.Get("/api/scan/audit", handler.AuditTrail)
	return app, repo
}

func postScan(t *testing.T, app *fiber.App, text, userID string) *http.Response {
	t.Helper()

	body, err := json.Marshal(fiber.Map{
		"result":  models.ScanResult{Text: text, Format: models.FormatQRCode},
		"user_id": userID,
	})
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost, "/api/scan", bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeScanResponse(t *testing.T, resp *http.Response) (models.TransactionResult, map[string]json.RawMessage) {
	t.Helper()

	var envelope struct {
		Data map[string]json.RawMessage `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))

	var result models.TransactionResult
	require.NoError(t, json.Unmarshal(envelope.Data["transaction"], &result))
	return result, envelope.Data
}

func paymentQR(transactionID string) string {
	raw, _ := json.Marshal(models.PaymentQRData{
		Amount:        150000,
		Currency:      "IDR",
		MerchantID:    "TOKO_01",
		MerchantName:  "Toko Koperasi",
		TransactionID: transactionID,
		QRType:        models.QRTypePayment,
	})
	return string(raw)
}

func TestProcessScan_PaymentEndToEnd(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)}
	app, repo := newScanApp(t, clock)

	resp := postScan(t, app, paymentQR("TXN_2025_000123"), "member-1")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	result, _ := decodeScanResponse(t, resp)
	assert.True(t, result.Success)
	assert.Equal(t, models.StatusCompleted, result.Status)

	stored, err := repo.GetByTransactionID(context.Background(), "TXN_2025_000123")
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, stored.Status)
}

func TestProcessScan_DuplicateSubmission(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)}
	app, _ := newScanApp(t, clock)

	first := postScan(t, app, paymentQR("TXN_2025_000123"), "member-1")
	require.Equal(t, http.StatusOK, first.StatusCode)

	clock.Advance(2 * time.Second)
	second := postScan(t, app, paymentQR("TXN_2025_000123"), "member-1")
	require.Equal(t, http.StatusOK, second.StatusCode)

	result, _ := decodeScanResponse(t, second)
	assert.False(t, result.Success)
	assert.Equal(t, "Transaction already processed", result.Error)
}

func TestProcessScan_MemberPayment(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)}
	app, repo := newScanApp(t, clock)

	payload, err := json.Marshal(models.MemberPaymentData{
		MemberID:    "MBR001",
		MemberName:  "Siti",
		Amount:      50000,
		PaymentType: models.PaymentTypeMonthlyFee,
		QRType:      models.QRTypeMemberPayment,
	})
	require.NoError(t, err)

	resp := postScan(t, app, string(payload), "member-1")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	result, _ := decodeScanResponse(t, resp)
	assert.True(t, result.Success)
	assert.Contains(t, result.TransactionID, "MBR_MBR001_")
	assert.Len(t, repo.members, 1)
}

func TestProcessScan_MaliciousTextRejected(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)}
	app, _ := newScanApp(t, clock)

	resp := postScan(t, app, "javascript:alert(1)", "member-1")
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestProcessScan_CooldownReturns429(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)}
	app, _ := newScanApp(t, clock)

	first := postScan(t, app, paymentQR("TXN_2025_000123"), "member-1")
	require.Equal(t, http.StatusOK, first.StatusCode)

	second := postScan(t, app, paymentQR("TXN_2025_000456"), "member-1")
	assert.Equal(t, http.StatusTooManyRequests, second.StatusCode)
}

func TestProcessScan_UnrecognizedPayload(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)}
	app, _ := newScanApp(t, clock)

	resp := postScan(t, app, "KP2A01 iuran bulan Juni", "member-1")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	result, _ := decodeScanResponse(t, resp)
	assert.False(t, result.Success)
	assert.Equal(t, "unrecognized QR payload type", result.Error)
}
