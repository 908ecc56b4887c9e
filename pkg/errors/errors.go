package errors

import (
	"errors"
	"fmt"
)

// Domain errors
var (
	ErrLoanNotFound         = errors.New("loan not found")
	ErrLoanAlreadyExists    = errors.New("loan already exists")
	ErrLoanClosed           = errors.New("loan is closed")
	ErrInvalidTerms         = errors.New("invalid loan terms")
	ErrEmptySchedule        = errors.New("schedule has no installments")
	ErrInvalidPaymentAmount = errors.New("invalid payment amount")
	ErrEntryNotFound        = errors.New("collection log entry not found")
	ErrEntryNotAmendable    = errors.New("collection log entry cannot be amended")
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
	ErrCodeLoanNotFound         = "LOAN_NOT_FOUND"
	ErrCodeLoanAlreadyExists    = "LOAN_ALREADY_EXISTS"
	ErrCodeLoanClosed           = "LOAN_CLOSED"
	ErrCodeInvalidTerms         = "INVALID_LOAN_TERMS"
	ErrCodeEmptySchedule        = "EMPTY_SCHEDULE"
	ErrCodeInvalidPaymentAmount = "INVALID_PAYMENT_AMOUNT"
	ErrCodeEntryNotFound        = "ENTRY_NOT_FOUND"
	ErrCodeEntryNotAmendable    = "ENTRY_NOT_AMENDABLE"
	ErrCodeDatabaseError        = "DATABASE_ERROR"
	ErrCodeCacheError           = "CACHE_ERROR"
)

// Wrap common errors with business context
func WrapLoanNotFound(loanID string) *BusinessError {
	return NewBusinessError(
		ErrCodeLoanNotFound,
		fmt.Sprintf("Loan with ID %s not found", loanID),
		ErrLoanNotFound,
	)
}

func WrapLoanAlreadyExists(loanID string) *BusinessError {
	return NewBusinessError(
		ErrCodeLoanAlreadyExists,
		fmt.Sprintf("Loan with ID %s already exists", loanID),
		ErrLoanAlreadyExists,
	)
}

func WrapLoanClosed(loanID string) *BusinessError {
	return NewBusinessError(
		ErrCodeLoanClosed,
		fmt.Sprintf("Loan with ID %s is closed", loanID),
		ErrLoanClosed,
	)
}

func WrapInvalidTerms(reason string) *BusinessError {
	return NewBusinessError(
		ErrCodeInvalidTerms,
		reason,
		ErrInvalidTerms,
	)
}

func WrapEmptySchedule(loanID string) *BusinessError {
	return NewBusinessError(
		ErrCodeEmptySchedule,
		fmt.Sprintf("Loan with ID %s has no installments", loanID),
		ErrEmptySchedule,
	)
}

func WrapInvalidPaymentAmount(amount string) *BusinessError {
	return NewBusinessError(
		ErrCodeInvalidPaymentAmount,
		fmt.Sprintf("Invalid payment amount: %s", amount),
		ErrInvalidPaymentAmount,
	)
}

func WrapEntryNotFound(entryID string) *BusinessError {
	return NewBusinessError(
		ErrCodeEntryNotFound,
		fmt.Sprintf("Collection log entry %s not found", entryID),
		ErrEntryNotFound,
	)
}

func WrapEntryNotAmendable(entryID string) *BusinessError {
	return NewBusinessError(
		ErrCodeEntryNotAmendable,
		fmt.Sprintf("Collection log entry %s is deleted or not a payment", entryID),
		ErrEntryNotAmendable,
	)
}

func WrapDatabaseError(err error) *BusinessError {
	return NewBusinessError(
		ErrCodeDatabaseError,
		"database operation failed",
		err,
	)
}

func WrapCacheError(err error) *BusinessError {
	return NewBusinessError(
		ErrCodeCacheError,
		"Cache operation failed",
		err,
	)
}
