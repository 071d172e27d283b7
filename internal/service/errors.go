package service

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrConflictRetryExhausted signals that an atomic ledger unit could not
// commit within the configured retry bound due to sustained contention.
// Transient: the caller may retry the whole operation later.
var ErrConflictRetryExhausted = errors.New("ledger transaction aborted after retries due to contention")

// NotFoundError means a referenced document does not exist at operation time
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Entity, e.ID)
}

// InsufficientStockError names the item whose stock cannot cover the
// requested sale quantity
type InsufficientStockError struct {
	ItemID    string
	ItemName  string
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for '%s': available %d, requested %d",
		e.ItemName, e.Available, e.Requested)
}

// OverpaymentError rejects a payment that would drive the customer balance
// negative. Policy rejection, not a transient condition.
type OverpaymentError struct {
	CustomerID string
	Balance    decimal.Decimal
	Amount     decimal.Decimal
}

func (e *OverpaymentError) Error() string {
	return fmt.Sprintf("payment %s exceeds outstanding balance %s for customer %s",
		e.Amount.StringFixed(2), e.Balance.StringFixed(2), e.CustomerID)
}

// ValidationError reports malformed input, caught before any store
// interaction
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}
