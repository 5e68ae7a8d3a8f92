package database

import (
	"database/sql"
	"errors"

	"github.com/lib/pq"
)

type ErrorClass int

const (
	ErrorClassPermanent ErrorClass = iota
	ErrorClassTransient
	ErrorClassDeadlock
	ErrorClassSerialization
)

const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeNotNullViolation    = "23502"
	codeCheckViolation      = "23514"
	codeNumericOutOfRange   = "22003"
	codeSerialization       = "40001"
	codeDeadlock            = "40P01"
	codeLockNotAvailable    = "55P03"
)

func ClassifyError(err error) ErrorClass {
	if err == nil {
		return ErrorClassPermanent
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case codeSerialization:
			return ErrorClassSerialization
		case codeDeadlock:
			return ErrorClassDeadlock
		case codeLockNotAvailable:
			return ErrorClassTransient
		}
	}

	return ErrorClassPermanent
}

func IsRetryable(err error) bool {
	class := ClassifyError(err)
	return class == ErrorClassTransient ||
		class == ErrorClassDeadlock ||
		class == ErrorClassSerialization
}

func hasCode(err error, code pq.ErrorCode) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == code
}

func IsUniqueViolation(err error) bool     { return hasCode(err, codeUniqueViolation) }
func IsForeignKeyViolation(err error) bool { return hasCode(err, codeForeignKeyViolation) }
func IsCheckViolation(err error) bool      { return hasCode(err, codeCheckViolation) }
func IsOutOfRange(err error) bool          { return hasCode(err, codeNumericOutOfRange) }

func IsNoRows(err error) bool { return errors.Is(err, sql.ErrNoRows) }

// ConstraintName returns the violated constraint, or "" for non-pq errors.
func ConstraintName(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Constraint
	}
	return ""
}

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrEmailTaken        = errors.New("email already registered")
	ErrProductNotFound   = errors.New("product not found")
	ErrCartItemNotFound  = errors.New("cart item not found")
	ErrOrderNotFound     = errors.New("order not found")
	ErrPaymentNotFound   = errors.New("payment not found")
	ErrPaymentExists     = errors.New("payment already exists for order")
	ErrWishlistNotFound  = errors.New("product not found in wishlist")
	ErrInvalidTransition = errors.New("invalid order status transition")
	ErrOptimisticLock    = errors.New("optimistic lock failed: record was modified")
)
