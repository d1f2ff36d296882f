package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"scanpay/internal/models"

	"gorm.io/gorm"
)

// TransactionRepository is the persistence contract required by the
// financial transaction service: insert with uniqueness check, update
// by id, filtered selects. Schema migration is handled by InitDB.
type TransactionRepository interface {
	Exists(ctx context.Context, transactionID string) (bool, error)
	Create(ctx context.Context, tx *models.FinancialTransaction) error
	UpdateStatus(ctx context.Context, transactionID, status string) error
	GetByTransactionID(ctx context.Context, transactionID string) (*models.FinancialTransaction, error)
	List(ctx context.Context, limit int) ([]models.FinancialTransaction, error)
	CreateMemberPayment(ctx context.Context, mp *models.MemberPaymentRecord) error
	Analytics(ctx context.Context) (*models.TransactionAnalytics, error)
}

type transactionRepository struct {
	db *gorm.DB
}

// NewTransactionRepository creates a gorm-backed TransactionRepository.
func NewTransactionRepository(db *gorm.DB) TransactionRepository {
	if db == nil {
		panic("db is required")
	}
	return &transactionRepository{db: db}
}

func (r *transactionRepository) Exists(ctx context.Context, transactionID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.FinancialTransaction{}).
		Where("transaction_id = ?", transactionID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check transaction existence: %w", err)
	}
	return count > 0, nil
}

func (r *transactionRepository) Create(ctx context.Context, tx *models.FinancialTransaction) error {
	return r.db.WithContext(ctx).Create(tx).Error
}

func (r *transactionRepository) UpdateStatus(ctx context.Context, transactionID, status string) error {
	result := r.db.WithContext(ctx).
		Model(&models.FinancialTransaction{}).
		Where("transaction_id = ?", transactionID).
		Updates(map[string]interface{}{"status": status, "updated_at": time.Now()})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *transactionRepository) GetByTransactionID(ctx context.Context, transactionID string) (*models.FinancialTransaction, error) {
	var tx models.FinancialTransaction
	err := r.db.WithContext(ctx).
		Where("transaction_id = ?", transactionID).
		First(&tx).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return &tx, nil
}

func (r *transactionRepository) List(ctx context.Context, limit int) ([]models.FinancialTransaction, error) {
	var txs []models.FinancialTransaction
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&txs).Error
	return txs, err
}

func (r *transactionRepository) CreateMemberPayment(ctx context.Context, mp *models.MemberPaymentRecord) error {
	return r.db.WithContext(ctx).Create(mp).Error
}

func (r *transactionRepository) Analytics(ctx context.Context) (*models.TransactionAnalytics, error) {
	analytics := &models.TransactionAnalytics{
		AmountByType: make(map[string]float64),
	}

	base := r.db.WithContext(ctx).Model(&models.FinancialTransaction{})
	if err := base.Count(&analytics.TotalCount).Error; err != nil {
		return nil, err
	}

	counts := []struct {
		status string
		dest   *int64
	}{
		{models.StatusCompleted, &analytics.CompletedCount},
		{models.StatusFailed, &analytics.FailedCount},
		{models.StatusPending, &analytics.PendingCount},
	}
	for _, c := range counts {
		err := r.db.WithContext(ctx).
			Model(&models.FinancialTransaction{}).
			Where("status = ?", c.status).
			Count(c.dest).Error
		if err != nil {
			return nil, err
		}
	}

	row := r.db.WithContext(ctx).
		Model(&models.FinancialTransaction{}).
		Where("status = ?", models.StatusCompleted).
		Select("COALESCE(SUM(amount), 0)").
		Row()
	if err := row.Scan(&analytics.TotalAmount); err != nil {
		return nil, err
	}

	type typeSum struct {
		Type  string
		Total float64
	}
	var sums []typeSum
	err := r.db.WithContext(ctx).
		Model(&models.FinancialTransaction{}).
		Where("status = ?", models.StatusCompleted).
		Select("type, COALESCE(SUM(amount), 0) as total").
		Group("type").
		Scan(&sums).Error
	if err != nil {
		return nil, err
	}
	for _, s := range sums {
		analytics.AmountByType[s.Type] = s.Total
	}

	return analytics, nil
}
