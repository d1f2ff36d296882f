package transaction

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"scanpay/internal/models"
	"scanpay/internal/services/security"
	"scanpay/internal/telemetry"
	"scanpay/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type MockRepo struct {
	mock.Mock
}

func (m *MockRepo) Exists(ctx context.Context, transactionID string) (bool, error) {
	args := m.Called(ctx, transactionID)
	return args.Bool(0), args.Error(1)
}

func (m *MockRepo) Create(ctx context.Context, tx *models.FinancialTransaction) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *MockRepo) UpdateStatus(ctx context.Context, transactionID, status string) error {
	args := m.Called(ctx, transactionID, status)
	return args.Error(0)
}

func (m *MockRepo) GetByTransactionID(ctx context.Context, transactionID string) (*models.FinancialTransaction, error) {
	args := m.Called(ctx, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.FinancialTransaction), args.Error(1)
}

func (m *MockRepo) List(ctx context.Context, limit int) ([]models.FinancialTransaction, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.FinancialTransaction), args.Error(1)
}

func (m *MockRepo) CreateMemberPayment(ctx context.Context, mp *models.MemberPaymentRecord) error {
	args := m.Called(ctx, mp)
	return args.Error(0)
}

func (m *MockRepo) Analytics(ctx context.Context) (*models.TransactionAnalytics, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TransactionAnalytics), args.Error(1)
}

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

// recordingSecurity satisfies security.Service and remembers the event
// names it was asked to log.
type recordingSecurity struct {
	security.Service
	events []string
}

func newRecordingSecurity(t *testing.T) *recordingSecurity {
	t.Helper()
	return &recordingSecurity{
		Service: security.NewService(&fakeClock{now: testTime}, zap.NewNop(),
			&telemetry.NoopCollector{}, nil),
	}
}

func (s *recordingSecurity) LogSecurityEvent(event string, details map[string]interface{}) {
	s.events = append(s.events, event)
	s.Service.LogSecurityEvent(event, details)
}

var testTime = time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

func newTestService(t *testing.T, repo *MockRepo, gateway Gateway) (Service, *recordingSecurity) {
	t.Helper()
	sec := newRecordingSecurity(t)
	svc := NewService(repo, nil, gateway, sec, &fakeClock{now: testTime},
		zap.NewNop(), &telemetry.NoopCollector{}, nil)
	return svc, sec
}

func validPayment() *models.PaymentQRData {
	return &models.PaymentQRData{
		Amount:        150000,
		Currency:      "IDR",
		MerchantID:    "TOKO_01",
		MerchantName:  "Toko Koperasi",
		TransactionID: "TXN_2025_000123",
		QRType:        models.QRTypePayment,
	}
}

func TestValidatePaymentAmount(t *testing.T) {
	tests := []struct {
		amount float64
		want   bool
	}{
		{0, false},
		{-1, false},
		{1, true},
		{50000, true},
		{MaxPaymentAmount, true},
		{MaxPaymentAmount + 1, false},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("amount %v", tt.amount), func(t *testing.T) {
			assert.Equal(t, tt.want, ValidatePaymentAmount(tt.amount))
		})
	}
}

func TestProcessPaymentQR_Success(t *testing.T) {
	repo := new(MockRepo)
	repo.On("Exists", mock.Anything, "TXN_2025_000123").Return(false, nil)
	repo.On("Create", mock.Anything, mock.Anything).Return(nil)
	repo.On("UpdateStatus", mock.Anything, "TXN_2025_000123", models.StatusCompleted).Return(nil)

	svc, sec := newTestService(t, repo, NewDeterministicGateway(true))
	result := svc.ProcessPaymentQR(context.Background(), validPayment())

	assert.True(t, result.Success)
	assert.Equal(t, models.StatusCompleted, result.Status)
	assert.Equal(t, "TXN_2025_000123", result.TransactionID)
	assert.Equal(t, 150000.0, result.Amount)
	assert.Contains(t, sec.events, "payment_completed")
	repo.AssertExpectations(t)
}

func TestProcessPaymentQR_DuplicateRejected(t *testing.T) {
	repo := new(MockRepo)
	repo.On("Exists", mock.Anything, "TXN_2025_000123").Return(true, nil)

	svc, _ := newTestService(t, repo, NewDeterministicGateway(true))
	result := svc.ProcessPaymentQR(context.Background(), validPayment())

	assert.False(t, result.Success)
	assert.Equal(t, "Transaction already processed", result.Error)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestProcessPaymentQR_GatewayDecline(t *testing.T) {
	repo := new(MockRepo)
	repo.On("Exists", mock.Anything, "TXN_2025_000123").Return(false, nil)
	repo.On("Create", mock.Anything, mock.Anything).Return(nil)
	repo.On("UpdateStatus", mock.Anything, "TXN_2025_000123", models.StatusFailed).Return(nil)

	svc, sec := newTestService(t, repo, NewDeterministicGateway(false))
	result := svc.ProcessPaymentQR(context.Background(), validPayment())

	assert.False(t, result.Success)
	assert.Equal(t, models.StatusFailed, result.Status)
	assert.NotEmpty(t, result.Error)
	assert.Contains(t, sec.events, "payment_failed")
	repo.AssertExpectations(t)
}

func TestProcessPaymentQR_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*models.PaymentQRData)
	}{
		{"zero amount", func(d *models.PaymentQRData) { d.Amount = 0 }},
		{"over business ceiling", func(d *models.PaymentQRData) { d.Amount = MaxPaymentAmount + 1 }},
		{"foreign currency", func(d *models.PaymentQRData) { d.Currency = "USD" }},
		{"lowercase merchant id", func(d *models.PaymentQRData) { d.MerchantID = "toko_01" }},
		{"short transaction id", func(d *models.PaymentQRData) { d.TransactionID = "TXN_1" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockRepo)
			svc, _ := newTestService(t, repo, NewDeterministicGateway(true))

			data := validPayment()
			tt.mutate(data)
			result := svc.ProcessPaymentQR(context.Background(), data)

			assert.False(t, result.Success)
			assert.NotEmpty(t, result.Error)
			repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}
}

func TestProcessPaymentQR_NeverReturnsPending(t *testing.T) {
	repo := new(MockRepo)
	repo.On("Exists", mock.Anything, mock.Anything).Return(false, nil)
	repo.On("Create", mock.Anything, mock.Anything).Return(nil)
	repo.On("UpdateStatus", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	for _, succeed := range []bool{true, false} {
		svc, _ := newTestService(t, repo, NewDeterministicGateway(succeed))
		result := svc.ProcessPaymentQR(context.Background(), validPayment())
		assert.NotEqual(t, models.StatusPending, result.Status)
	}
}

func TestProcessMemberPayment(t *testing.T) {
	payment := &models.MemberPaymentData{
		MemberID:    "MBR001",
		MemberName:  "Siti",
		Amount:      50000,
		PaymentType: models.PaymentTypeMonthlyFee,
		QRType:      models.QRTypeMemberPayment,
	}

	t.Run("completes without a gateway step", func(t *testing.T) {
		repo := new(MockRepo)
		repo.On("CreateMemberPayment", mock.Anything, mock.Anything).Return(nil)
		repo.On("Create", mock.Anything, mock.MatchedBy(func(tx *models.FinancialTransaction) bool {
			return tx.Status == models.StatusCompleted && tx.Type == models.TransactionTypeMemberPayment
		})).Return(nil)

		svc, sec := newTestService(t, repo, NewDeterministicGateway(false))
		result := svc.ProcessMemberPayment(context.Background(), payment)

		require.True(t, result.Success)
		assert.Equal(t, models.StatusCompleted, result.Status)
		wantID := fmt.Sprintf("MBR_%s_%d", payment.MemberID, testTime.UnixMilli())
		assert.Equal(t, wantID, result.TransactionID)
		assert.Contains(t, sec.events, "member_payment_completed")
		repo.AssertExpectations(t)
	})

	t.Run("short member id rejected", func(t *testing.T) {
		repo := new(MockRepo)
		svc, _ := newTestService(t, repo, NewDeterministicGateway(true))

		result := svc.ProcessMemberPayment(context.Background(), &models.MemberPaymentData{
			MemberID: "AB",
			Amount:   50000,
		})
		assert.False(t, result.Success)
		repo.AssertNotCalled(t, "CreateMemberPayment", mock.Anything, mock.Anything)
	})

	t.Run("storage failure surfaces as failed result", func(t *testing.T) {
		repo := new(MockRepo)
		repo.On("CreateMemberPayment", mock.Anything, mock.Anything).Return(errors.New("db down"))

		svc, _ := newTestService(t, repo, NewDeterministicGateway(true))
		result := svc.ProcessMemberPayment(context.Background(), payment)
		assert.False(t, result.Success)
		assert.Contains(t, result.Error, "db down")
	})
}

func TestGetTransactionHistory(t *testing.T) {
	t.Run("storage errors yield an empty list", func(t *testing.T) {
		repo := new(MockRepo)
		repo.On("List", mock.Anything, defaultHistoryLimit).Return(nil, errors.New("db down"))

		svc, _ := newTestService(t, repo, NewDeterministicGateway(true))
		txs := svc.GetTransactionHistory(context.Background(), 0)
		assert.NotNil(t, txs)
		assert.Empty(t, txs)
	})

	t.Run("passes the limit through", func(t *testing.T) {
		repo := new(MockRepo)
		repo.On("List", mock.Anything, 5).
			Return([]models.FinancialTransaction{{TransactionID: "TXN_2025_000123"}}, nil)

		svc, _ := newTestService(t, repo, NewDeterministicGateway(true))
		txs := svc.GetTransactionHistory(context.Background(), 5)
		require.Len(t, txs, 1)
		repo.AssertExpectations(t)
	})
}

func TestGetTransactionAnalytics(t *testing.T) {
	t.Run("storage errors yield the zero aggregate", func(t *testing.T) {
		repo := new(MockRepo)
		repo.On("Analytics", mock.Anything).Return(nil, errors.New("db down"))

		svc, _ := newTestService(t, repo, NewDeterministicGateway(true))
		analytics := svc.GetTransactionAnalytics(context.Background())
		require.NotNil(t, analytics)
		assert.Zero(t, analytics.TotalCount)
		assert.NotNil(t, analytics.AmountByType)
	})
}

func TestGenerateQR(t *testing.T) {
	repo := new(MockRepo)
	signer := utils.NewQRSigner("test-signing-key")
	sec := newRecordingSecurity(t)
	svc := NewService(repo, nil, NewDeterministicGateway(true), sec,
		&fakeClock{now: testTime}, zap.NewNop(), &telemetry.NoopCollector{}, signer)

	t.Run("payment payload is signed and verifiable", func(t *testing.T) {
		payload, err := svc.GeneratePaymentQR(*validPayment())
		require.NoError(t, err)
		assert.Contains(t, payload, `"sig":`)
		assert.Contains(t, payload, `"qr_type":"payment"`)
	})

	t.Run("missing transaction id is generated", func(t *testing.T) {
		data := validPayment()
		data.TransactionID = ""
		payload, err := svc.GeneratePaymentQR(*data)
		require.NoError(t, err)
		assert.Regexp(t, `"transaction_id":"TXN_[A-F0-9]{32}"`, payload)
	})

	t.Run("member payload carries the discriminator", func(t *testing.T) {
		payload, err := svc.GenerateMemberPaymentQR(models.MemberPaymentData{
			MemberID:    "MBR001",
			MemberName:  "Siti",
			Amount:      50000,
			PaymentType: models.PaymentTypeSavings,
		})
		require.NoError(t, err)
		assert.Contains(t, payload, `"qr_type":"member_payment"`)
	})

	t.Run("unsigned without a key", func(t *testing.T) {
		unsigned := NewService(repo, nil, NewDeterministicGateway(true), sec,
			&fakeClock{now: testTime}, zap.NewNop(), &telemetry.NoopCollector{}, nil)
		payload, err := unsigned.GeneratePaymentQR(*validPayment())
		require.NoError(t, err)
		assert.NotContains(t, payload, `"sig":`)
	})
}
