package errors

import (
	"errors"
	"fmt"
)

// Domain errors
var (
	ErrInvalidInput           = errors.New("invalid loan parameters")
	ErrLoanNotFound           = errors.New("loan not found")
	ErrInstallmentNotFound    = errors.New("installment not found")
	ErrNotLoanOwner           = errors.New("loan belongs to a different user")
	ErrInstallmentAlreadyPaid = errors.New("installment is already paid")
	ErrTransactionFailed      = errors.New("payment transaction failed")
	ErrDeliveryFailed         = errors.New("reminder delivery failed")
	ErrDuplicateReminder      = errors.New("reminder already sent for installment today")
	ErrDispatchInProgress     = errors.New("reminder dispatch already in progress")
)

// BusinessError represents a business logic error
type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

// NewBusinessError creates a new business error
func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Error codes
const (
	ErrCodeInvalidInput        = "INVALID_INPUT"
	ErrCodeLoanNotFound        = "LOAN_NOT_FOUND"
	ErrCodeInstallmentNotFound = "INSTALLMENT_NOT_FOUND"
	ErrCodeUnauthorized        = "UNAUTHORIZED"
	ErrCodeAlreadyPaid         = "ALREADY_PAID"
	ErrCodeTransactionFailed   = "TRANSACTION_FAILED"
	ErrCodeDeliveryFailed      = "DELIVERY_FAILED"
	ErrCodeDuplicateReminder   = "DUPLICATE_REMINDER"
	ErrCodeDispatchInProgress  = "DISPATCH_IN_PROGRESS"
	ErrCodeDatabaseError       = "DATABASE_ERROR"
)

// Wrap common errors with business context

func WrapInvalidInput(reason string) *BusinessError {
	return NewBusinessError(
		ErrCodeInvalidInput,
		reason,
		ErrInvalidInput,
	)
}

func WrapLoanNotFound(loanID string) *BusinessError {
	return NewBusinessError(
		ErrCodeLoanNotFound,
		fmt.Sprintf("Loan with ID %s not found", loanID),
		ErrLoanNotFound,
	)
}

func WrapInstallmentNotFound(installmentID string) *BusinessError {
	return NewBusinessError(
		ErrCodeInstallmentNotFound,
		fmt.Sprintf("Installment with ID %s not found", installmentID),
		ErrInstallmentNotFound,
	)
}

func WrapUnauthorized(installmentID string) *BusinessError {
	return NewBusinessError(
		ErrCodeUnauthorized,
		fmt.Sprintf("Installment %s belongs to a different user", installmentID),
		ErrNotLoanOwner,
	)
}

func WrapAlreadyPaid(installmentID string) *BusinessError {
	return NewBusinessError(
		ErrCodeAlreadyPaid,
		fmt.Sprintf("Installment %s is already paid", installmentID),
		ErrInstallmentAlreadyPaid,
	)
}

func WrapTransactionFailed(err error) *BusinessError {
	return NewBusinessError(
		ErrCodeTransactionFailed,
		"payment transaction rolled back",
		errors.Join(ErrTransactionFailed, err),
	)
}

// WrapDeliveryFailed classifies a failed reminder send. The cause text is
// kept as the message; it is what gets recorded for the retry audit trail.
func WrapDeliveryFailed(err error) *BusinessError {
	return NewBusinessError(
		ErrCodeDeliveryFailed,
		err.Error(),
		errors.Join(ErrDeliveryFailed, err),
	)
}

func WrapDispatchInProgress() *BusinessError {
	return NewBusinessError(
		ErrCodeDispatchInProgress,
		"another reminder dispatch holds the lock",
		ErrDispatchInProgress,
	)
}

func WrapDatabaseError(err error) *BusinessError {
	return NewBusinessError(
		ErrCodeDatabaseError,
		"database operation failed",
		err,
	)
}
