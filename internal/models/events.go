package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Event types
const (
	EventTypeSaleRecorded       = "ledger.sale.recorded"
	EventTypePaymentRecorded    = "ledger.payment.recorded"
	EventTypeTransactionDeleted = "ledger.transaction.deleted"
	EventTypeLowStock           = "ledger.stock.low"
)

// BaseEvent contains common event fields
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// SaleLineData is a sale line carried in events
type SaleLineData struct {
	ItemID    string          `json:"item_id"`
	ItemName  string          `json:"item_name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// SaleRecordedEvent is published after a sale commits
type SaleRecordedEvent struct {
	BaseEvent
	TransactionID string          `json:"transaction_id"`
	UserID        string          `json:"user_id"`
	CustomerID    string          `json:"customer_id"`
	Amount        decimal.Decimal `json:"amount"`
	AmountDue     decimal.Decimal `json:"amount_due"`
	PaymentStatus string          `json:"payment_status"`
	Items         []SaleLineData  `json:"items"`
}

// PaymentRecordedEvent is published after a payment commits
type PaymentRecordedEvent struct {
	BaseEvent
	TransactionID string          `json:"transaction_id"`
	UserID        string          `json:"user_id"`
	CustomerID    string          `json:"customer_id"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentMethod string          `json:"payment_method"`
}

// TransactionDeletedEvent is published after a reversal commits
type TransactionDeletedEvent struct {
	BaseEvent
	TransactionID   string          `json:"transaction_id"`
	UserID          string          `json:"user_id"`
	CustomerID      string          `json:"customer_id"`
	TransactionType string          `json:"transaction_type"`
	Amount          decimal.Decimal `json:"amount"`
}

// LowStockEvent is published when a sale drops an item to or below its
// low stock threshold
type LowStockEvent struct {
	BaseEvent
	UserID    string `json:"user_id"`
	ItemID    string `json:"item_id"`
	ItemName  string `json:"item_name"`
	Quantity  int    `json:"quantity"`
	Threshold int    `json:"threshold"`
}
