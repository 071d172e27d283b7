package store

import (
	"context"

	"ledger-service/internal/models"

	"github.com/jmoiron/sqlx"
)

// ListTransactions retrieves a user's transactions newest first, optionally
// narrowed to one customer. Sale lines are attached to each sale.
func (s *Store) ListTransactions(ctx context.Context, userID, customerID string) ([]models.Transaction, error) {
	var txns []models.Transaction
	var err error

	if customerID != "" {
		err = s.db.SelectContext(ctx, &txns,
			"SELECT * FROM transactions WHERE user_id = $1 AND customer_id = $2 ORDER BY created_at DESC",
			userID, customerID)
	} else {
		err = s.db.SelectContext(ctx, &txns,
			"SELECT * FROM transactions WHERE user_id = $1 ORDER BY created_at DESC", userID)
	}
	if err != nil {
		return nil, err
	}
	if len(txns) == 0 {
		return txns, nil
	}

	ids := make([]string, len(txns))
	for i := range txns {
		ids[i] = txns[i].ID
	}

	query, args, err := sqlx.In(
		"SELECT * FROM transaction_items WHERE transaction_id IN (?) ORDER BY id", ids)
	if err != nil {
		return nil, err
	}
	query = s.db.Rebind(query)

	var lines []models.TransactionItem
	if err := s.db.SelectContext(ctx, &lines, query, args...); err != nil {
		return nil, err
	}

	byTx := make(map[string][]models.TransactionItem, len(txns))
	for _, line := range lines {
		byTx[line.TransactionID] = append(byTx[line.TransactionID], line)
	}
	for i := range txns {
		txns[i].Items = byTx[txns[i].ID]
	}
	return txns, nil
}

// IsEventProcessed checks if an event has been processed
func (s *Store) IsEventProcessed(ctx context.Context, eventID string) (bool, error) {
	var exists bool
	err := s.db.GetContext(ctx, &exists,
		"SELECT EXISTS(SELECT 1 FROM processed_events WHERE event_id = $1)", eventID)
	return exists, err
}

// MarkEventProcessed marks an event as processed
func (s *Store) MarkEventProcessed(ctx context.Context, eventID, eventType string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO processed_events (event_id, event_type) VALUES ($1, $2) ON CONFLICT (event_id) DO NOTHING",
		eventID, eventType)
	return err
}
