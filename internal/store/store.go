package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"ledger-service/internal/models"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

//go:embed schema.sql
var schemaSQL string

// ErrNotFound is returned when a referenced document does not exist
// (or belongs to a different user).
var ErrNotFound = errors.New("document not found")

// ErrSerialization is returned when the database aborted an atomic unit
// because of a concurrent writer. Callers are expected to retry with
// fresh reads.
var ErrSerialization = errors.New("transaction aborted by concurrent update")

type Store struct {
	db *sqlx.DB
}

// NewStore creates a new database store
func NewStore(databaseURL string) (*Store, error) {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{db: db}, nil
}

// InitSchema creates the document collections if they do not exist yet
func (s *Store) InitSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// LedgerTx is the read/write set available inside a single atomic ledger
// unit. Every method sees a consistent snapshot; the whole unit commits or
// none of it does.
type LedgerTx interface {
	GetCustomer(ctx context.Context, userID, customerID string) (*models.Customer, error)
	GetInventoryItem(ctx context.Context, userID, itemID string) (*models.InventoryItem, error)
	GetTransaction(ctx context.Context, userID, transactionID string) (*models.Transaction, error)
	InsertTransaction(ctx context.Context, txn *models.Transaction) error
	UpdateCustomerLedger(ctx context.Context, customerID string, balance, totalPurchases decimal.Decimal) error
	SetInventoryQuantity(ctx context.Context, itemID string, quantity int) error
	DeleteTransaction(ctx context.Context, transactionID string) error
}

// RunLedgerTx executes fn inside one serializable transaction. A
// serialization or deadlock abort surfaces as ErrSerialization so the
// ledger engine can retry with fresh reads; any other failure is returned
// as-is with nothing committed.
func (s *Store) RunLedgerTx(ctx context.Context, fn func(ctx context.Context, tx LedgerTx) error) error {
	tx, err := s.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return fmt.Errorf("failed to begin ledger transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(ctx, &ledgerTx{tx: tx}); err != nil {
		return classifyTxError(err)
	}

	if err := tx.Commit(); err != nil {
		return classifyTxError(err)
	}
	return nil
}

// classifyTxError maps Postgres serialization_failure (40001) and
// deadlock_detected (40P01) onto ErrSerialization.
func classifyTxError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch string(pqErr.Code) {
		case "40001", "40P01":
			return fmt.Errorf("%w: %s", ErrSerialization, pqErr.Message)
		}
	}
	return err
}
