package models

import "time"

// Transaction statuses. Pending transitions to completed or failed and
// is terminal once set; member payments skip the pending step.
const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Transaction types
const (
	TransactionTypeQRPayment     = "qr_payment"
	TransactionTypeMemberPayment = "member_payment"
)

// Member payment types
const (
	PaymentTypeMonthlyFee  = "monthly_fee"
	PaymentTypeLoanPayment = "loan_payment"
	PaymentTypeSavings     = "savings"
	PaymentTypeOther       = "other"
)

// QR payload discriminators
const (
	QRTypePayment       = "payment"
	QRTypeMemberPayment = "member_payment"
)

// FinancialTransaction is the persisted transaction record. The
// business key is TransactionID; a submission reusing an existing id
// is rejected as a duplicate before insertion.
type FinancialTransaction struct {
	ID            uint    `gorm:"primarykey" json:"id"`
	TransactionID string  `gorm:"uniqueIndex;not null" json:"transaction_id"`
	Type          string  `gorm:"not null;index" json:"type"`
	Amount        float64 `gorm:"not null" json:"amount"`
	Currency      string  `gorm:"not null;default:'IDR'" json:"currency"`
	MerchantID    string  `gorm:"index" json:"merchant_id,omitempty"`
	MerchantName  string  `json:"merchant_name,omitempty"`
	MemberID      string  `gorm:"index" json:"member_id,omitempty"`
	Description   string  `json:"description,omitempty"`
	Status        string  `gorm:"not null;default:'pending'" json:"status"`
	Metadata      JSON    `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// MemberPaymentRecord mirrors a member payment in its own table.
type MemberPaymentRecord struct {
	ID            uint    `gorm:"primarykey" json:"id"`
	TransactionID string  `gorm:"uniqueIndex;not null" json:"transaction_id"`
	MemberID      string  `gorm:"not null;index" json:"member_id"`
	MemberName    string  `json:"member_name"`
	Amount        float64 `gorm:"not null" json:"amount"`
	PaymentType   string  `gorm:"not null" json:"payment_type"`
	Description   string  `json:"description,omitempty"`
	Status        string  `gorm:"not null;default:'completed'" json:"status"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// PaymentQRData is the wire shape of a merchant payment QR payload.
type PaymentQRData struct {
	Amount        float64 `json:"amount"`
	Currency      string  `json:"currency"`
	MerchantID    string  `json:"merchant_id"`
	MerchantName  string  `json:"merchant_name"`
	TransactionID string  `json:"transaction_id"`
	Description   string  `json:"description,omitempty"`
	QRType        string  `json:"qr_type"`
	Signature     string  `json:"sig,omitempty"`
}

// MemberPaymentData is the wire shape of a member payment QR payload.
type MemberPaymentData struct {
	MemberID    string  `json:"member_id"`
	MemberName  string  `json:"member_name"`
	Amount      float64 `json:"amount"`
	PaymentType string  `json:"payment_type"`
	QRType      string  `json:"qr_type"`
	Description string  `json:"description,omitempty"`
	Signature   string  `json:"sig,omitempty"`
}

// TransactionResult is the uniform contract returned to callers
// regardless of which payload type was processed.
type TransactionResult struct {
	Success       bool    `json:"success"`
	TransactionID string  `json:"transaction_id,omitempty"`
	Amount        float64 `json:"amount,omitempty"`
	Status        string  `json:"status,omitempty"`
	Error         string  `json:"error,omitempty"`
}

// TransactionAnalytics is a read-only aggregate. An all-zero value may
// mean "unknown" when the underlying store was unreachable.
type TransactionAnalytics struct {
	TotalCount     int64              `json:"total_count"`
	CompletedCount int64              `json:"completed_count"`
	FailedCount    int64              `json:"failed_count"`
	PendingCount   int64              `json:"pending_count"`
	TotalAmount    float64            `json:"total_amount"`
	AmountByType   map[string]float64 `json:"amount_by_type"`
}
