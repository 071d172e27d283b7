package store

import (
	"context"
	"database/sql"
	"fmt"

	"ledger-service/internal/models"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

// ledgerTx implements LedgerTx over a single sqlx transaction
type ledgerTx struct {
	tx *sqlx.Tx
}

func (l *ledgerTx) GetCustomer(ctx context.Context, userID, customerID string) (*models.Customer, error) {
	var customer models.Customer
	err := l.tx.GetContext(ctx, &customer,
		"SELECT * FROM customers WHERE id = $1 AND user_id = $2", customerID, userID)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &customer, nil
}

func (l *ledgerTx) GetInventoryItem(ctx context.Context, userID, itemID string) (*models.InventoryItem, error) {
	var item models.InventoryItem
	err := l.tx.GetContext(ctx, &item,
		"SELECT * FROM inventory_items WHERE id = $1 AND user_id = $2", itemID, userID)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (l *ledgerTx) GetTransaction(ctx context.Context, userID, transactionID string) (*models.Transaction, error) {
	var txn models.Transaction
	err := l.tx.GetContext(ctx, &txn,
		"SELECT * FROM transactions WHERE id = $1 AND user_id = $2", transactionID, userID)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	err = l.tx.SelectContext(ctx, &txn.Items,
		"SELECT * FROM transaction_items WHERE transaction_id = $1 ORDER BY id", transactionID)
	if err != nil {
		return nil, err
	}
	return &txn, nil
}

// InsertTransaction assigns a new id and server timestamps, then writes the
// transaction document and its sale lines
func (l *ledgerTx) InsertTransaction(ctx context.Context, txn *models.Transaction) error {
	txn.ID = uuid.New().String()

	query := `
		INSERT INTO transactions
			(id, user_id, customer_id, customer_name, type, amount, amount_paid, amount_due, payment_status, payment_method, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at, updated_at`

	row := l.tx.QueryRowxContext(ctx, query,
		txn.ID, txn.UserID, txn.CustomerID, txn.CustomerName, txn.Type,
		txn.Amount, txn.AmountPaid, txn.AmountDue, txn.PaymentStatus,
		txn.PaymentMethod, txn.Notes)
	if err := row.Scan(&txn.CreatedAt, &txn.UpdatedAt); err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}

	for i := range txn.Items {
		line := &txn.Items[i]
		line.TransactionID = txn.ID
		err := l.tx.GetContext(ctx, &line.ID, `
			INSERT INTO transaction_items (transaction_id, item_id, item_name, quantity, unit_price)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id`,
			line.TransactionID, line.ItemID, line.ItemName, line.Quantity, line.UnitPrice)
		if err != nil {
			return fmt.Errorf("failed to insert transaction item: %w", err)
		}
	}
	return nil
}

func (l *ledgerTx) UpdateCustomerLedger(ctx context.Context, customerID string, balance, totalPurchases decimal.Decimal) error {
	res, err := l.tx.ExecContext(ctx,
		"UPDATE customers SET balance = $1, total_purchases = $2, updated_at = NOW() WHERE id = $3",
		balance, totalPurchases, customerID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (l *ledgerTx) SetInventoryQuantity(ctx context.Context, itemID string, quantity int) error {
	res, err := l.tx.ExecContext(ctx,
		"UPDATE inventory_items SET quantity = $1, updated_at = NOW() WHERE id = $2",
		quantity, itemID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// DeleteTransaction removes the transaction document; sale lines go with it
// via ON DELETE CASCADE
func (l *ledgerTx) DeleteTransaction(ctx context.Context, transactionID string) error {
	res, err := l.tx.ExecContext(ctx,
		"DELETE FROM transactions WHERE id = $1", transactionID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
