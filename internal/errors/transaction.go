package errors

var (
	ErrDuplicateTransaction = &DomainError{
		Code:    "DUPLICATE_TRANSACTION",
		Message: "Transaction already processed",
	}
	ErrInvalidAmount = &DomainError{
		Code:    "INVALID_AMOUNT",
		Message: "amount is out of the allowed range",
	}
	ErrInvalidCurrency = &DomainError{
		Code:    "INVALID_CURRENCY",
		Message: "only IDR is supported",
	}
	ErrInvalidMerchantID = &DomainError{
		Code:    "INVALID_MERCHANT_ID",
		Message: "merchant ID format is invalid",
	}
	ErrInvalidTransactionID = &DomainError{
		Code:    "INVALID_TRANSACTION_ID",
		Message: "transaction ID format is invalid",
	}
	ErrInvalidMemberID = &DomainError{
		Code:    "INVALID_MEMBER_ID",
		Message: "member ID must be at least 3 characters",
	}
	ErrGatewayDeclined = &DomainError{
		Code:    "GATEWAY_DECLINED",
		Message: "payment was declined by the gateway",
	}
)
