package errors

var (
	ErrScannerUnsupported = &DomainError{
		Code:    "SCANNER_UNSUPPORTED",
		Message: "scanner is not supported on this device",
	}
	ErrEmptyScanInput = &DomainError{
		Code:    "EMPTY_SCAN_INPUT",
		Message: "scan input is empty",
	}
	ErrUnsupportedFileType = &DomainError{
		Code:    "UNSUPPORTED_FILE_TYPE",
		Message: "file is not an image",
	}
	ErrDecoderUnavailable = &DomainError{
		Code:    "DECODER_UNAVAILABLE",
		Message: "automatic detection unsupported, use manual entry",
	}
	ErrSessionNotFound = &DomainError{
		Code:    "SESSION_NOT_FOUND",
		Message: "scan session not found",
	}
	ErrSessionStopped = &DomainError{
		Code:    "SESSION_STOPPED",
		Message: "scan session already stopped",
	}
	ErrTorchUnsupported = &DomainError{
		Code:    "TORCH_UNSUPPORTED",
		Message: "torch is not supported by this device",
	}
	ErrInvalidFacingMode = &DomainError{
		Code:    "INVALID_FACING_MODE",
		Message: "facing mode must be user or environment",
	}
)
