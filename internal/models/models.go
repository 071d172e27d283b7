package models

import (
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// InventoryItem represents a stocked item owned by a user
type InventoryItem struct {
	ID                string          `db:"id" json:"id"`
	UserID            string          `db:"user_id" json:"userId"`
	Name              string          `db:"name" json:"name"`
	Category          string          `db:"category" json:"category"`
	Quantity          int             `db:"quantity" json:"quantity"`
	Price             decimal.Decimal `db:"price" json:"price"`
	LowStockThreshold int             `db:"low_stock_threshold" json:"lowStockThreshold"`
	Description       string          `db:"description" json:"description,omitempty"`
	ImageURL          string          `db:"image_url" json:"imageUrl,omitempty"`
	CreatedAt         time.Time       `db:"created_at" json:"createdAt"`
	UpdatedAt         time.Time       `db:"updated_at" json:"updatedAt"`
}

// Customer represents a ledger customer; Balance is the signed amount owed
// (positive = customer owes money)
type Customer struct {
	ID             string          `db:"id" json:"id"`
	UserID         string          `db:"user_id" json:"userId"`
	Name           string          `db:"name" json:"name"`
	BusinessName   string          `db:"business_name" json:"businessName,omitempty"`
	Email          string          `db:"email" json:"email,omitempty"`
	Phone          string          `db:"phone" json:"phone"`
	Address        string          `db:"address" json:"address,omitempty"`
	Balance        decimal.Decimal `db:"balance" json:"balance"`
	TotalPurchases decimal.Decimal `db:"total_purchases" json:"totalPurchases"`
	CreatedAt      time.Time       `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time       `db:"updated_at" json:"updatedAt"`
}

// Supplier has no ledger interaction, plain CRUD only
type Supplier struct {
	ID            string         `db:"id" json:"id"`
	UserID        string         `db:"user_id" json:"userId"`
	Name          string         `db:"name" json:"name"`
	ContactPerson string         `db:"contact_person" json:"contactPerson,omitempty"`
	Email         string         `db:"email" json:"email,omitempty"`
	Phone         string         `db:"phone" json:"phone"`
	Address       string         `db:"address" json:"address,omitempty"`
	ImageURL      string         `db:"image_url" json:"imageUrl,omitempty"`
	Categories    pq.StringArray `db:"categories" json:"categories,omitempty"`
	ItemsSupplied pq.StringArray `db:"items_supplied" json:"itemsSupplied,omitempty"`
	Notes         string         `db:"notes" json:"notes,omitempty"`
	CreatedAt     time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt     time.Time      `db:"updated_at" json:"updatedAt"`
}

// Transaction is a single ledger entry. Immutable once created; corrections
// are modeled as delete + re-record.
type Transaction struct {
	ID            string            `db:"id" json:"id"`
	UserID        string            `db:"user_id" json:"userId"`
	CustomerID    string            `db:"customer_id" json:"customerId"`
	CustomerName  string            `db:"customer_name" json:"customerName"`
	Type          string            `db:"type" json:"type"`
	Amount        decimal.Decimal   `db:"amount" json:"amount"`
	AmountPaid    decimal.Decimal   `db:"amount_paid" json:"amountPaid"`
	AmountDue     decimal.Decimal   `db:"amount_due" json:"amountDue"`
	PaymentStatus string            `db:"payment_status" json:"paymentStatus"`
	PaymentMethod string            `db:"payment_method" json:"paymentMethod,omitempty"`
	Notes         string            `db:"notes" json:"notes,omitempty"`
	Items         []TransactionItem `db:"-" json:"items,omitempty"`
	CreatedAt     time.Time         `db:"created_at" json:"createdAt"`
	UpdatedAt     time.Time         `db:"updated_at" json:"updatedAt"`
}

// TransactionItem is a sale line. ItemName and UnitPrice are snapshots taken
// at sale time and are never re-derived from the current inventory item.
type TransactionItem struct {
	ID            int64           `db:"id" json:"-"`
	TransactionID string          `db:"transaction_id" json:"-"`
	ItemID        string          `db:"item_id" json:"itemId"`
	ItemName      string          `db:"item_name" json:"itemName"`
	Quantity      int             `db:"quantity" json:"quantity"`
	UnitPrice     decimal.Decimal `db:"unit_price" json:"price"`
}

// Transaction types
const (
	TransactionTypeSale    = "sale"
	TransactionTypePayment = "payment"
)

// Payment statuses, derived once at creation time
const (
	PaymentStatusPaid    = "paid"
	PaymentStatusPartial = "partial"
	PaymentStatusPending = "pending"
)

// InventoryFilters are applied as pure predicates after fetch
type InventoryFilters struct {
	Search   string
	Category string
	LowStock bool
}

// InventoryStats is a derived read-side view, recomputed on each request
type InventoryStats struct {
	TotalItems    int             `json:"totalItems"`
	TotalValue    decimal.Decimal `json:"totalValue"`
	LowStockItems int             `json:"lowStockItems"`
	Categories    int             `json:"categories"`
}

// CustomerStats is a derived read-side view, recomputed on each request
type CustomerStats struct {
	TotalCustomers   int             `json:"totalCustomers"`
	TotalReceivables decimal.Decimal `json:"totalReceivables"`
	TotalPaid        decimal.Decimal `json:"totalPaid"`
}

// ProcessedEvent for consumer idempotency
type ProcessedEvent struct {
	EventID     string    `db:"event_id"`
	EventType   string    `db:"event_type"`
	ProcessedAt time.Time `db:"processed_at"`
}
