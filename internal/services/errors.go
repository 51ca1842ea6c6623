package services

import (
	"errors"
	"fmt"

	"github.com/shuttleclub/backend/internal/audit"
	"github.com/shuttleclub/backend/internal/metrics"
	"go.uber.org/zap"
)

type ErrorKind string

const (
	KindValidation        ErrorKind = "validation"
	KindReference         ErrorKind = "reference"
	KindState             ErrorKind = "state"
	KindInsufficientFunds ErrorKind = "insufficient_funds"
	KindTransaction       ErrorKind = "transaction"
)

// AppError is the single error type returned by the club services. Fields
// carries per-field messages for validation and budget failures.
type AppError struct {
	Kind    ErrorKind
	Message string
	Fields  map[string]string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NewValidationError(message string, fields map[string]string) *AppError {
	return &AppError{Kind: KindValidation, Message: message, Fields: fields}
}

func NewReferenceError(message string) *AppError {
	return &AppError{Kind: KindReference, Message: message}
}

func NewStateError(message string) *AppError {
	return &AppError{Kind: KindState, Message: message}
}

func NewInsufficientFundsError(message string, fields map[string]string) *AppError {
	return &AppError{Kind: KindInsufficientFunds, Message: message, Fields: fields}
}

// NewTransactionError wraps a storage failure. The message never includes the
// underlying error text.
func NewTransactionError(err error) *AppError {
	return &AppError{Kind: KindTransaction, Message: "internal error", Err: err}
}

// KindOf reports the kind of err. Errors that are not an AppError count as
// transaction failures.
func KindOf(err error) ErrorKind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindTransaction
}

func IsKind(err error, kind ErrorKind) bool {
	return err != nil && KindOf(err) == kind
}

// asAppError leaves AppErrors untouched and wraps everything else as a
// transaction failure.
func asAppError(err error) error {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return err
	}
	return NewTransactionError(err)
}

// reportFailure normalises err, counts it and logs storage failures. Business
// rejections are returned without logging.
func reportFailure(log *zap.SugaredLogger, auditLogger *audit.Logger, operation, id, actorID string, err error) error {
	err = asAppError(err)
	kind := KindOf(err)
	metrics.OperationFailures.WithLabelValues(operation, string(kind)).Inc()
	if kind == KindTransaction {
		log.Errorw("Operation failed", "operation", operation, "id", id, "error", err)
		auditLogger.LogError(operation, id, actorID, err)
	}
	return err
}
