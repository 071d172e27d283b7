package store

import (
	"context"
	"database/sql"
	"fmt"

	"ledger-service/internal/models"

	"github.com/google/uuid"
)

// ListInventoryItems retrieves all inventory items for a user, most
// recently updated first
func (s *Store) ListInventoryItems(ctx context.Context, userID string) ([]models.InventoryItem, error) {
	var items []models.InventoryItem
	err := s.db.SelectContext(ctx, &items,
		"SELECT * FROM inventory_items WHERE user_id = $1 ORDER BY updated_at DESC", userID)
	return items, err
}

// GetInventoryItem retrieves a single item scoped by user
func (s *Store) GetInventoryItem(ctx context.Context, userID, id string) (*models.InventoryItem, error) {
	var item models.InventoryItem
	err := s.db.GetContext(ctx, &item,
		"SELECT * FROM inventory_items WHERE id = $1 AND user_id = $2", id, userID)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// CreateInventoryItem inserts a new item with a store-assigned id and
// server timestamps
func (s *Store) CreateInventoryItem(ctx context.Context, item *models.InventoryItem) error {
	item.ID = uuid.New().String()

	query := `
		INSERT INTO inventory_items
			(id, user_id, name, category, quantity, price, low_stock_threshold, description, image_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at`

	row := s.db.QueryRowxContext(ctx, query,
		item.ID, item.UserID, item.Name, item.Category, item.Quantity,
		item.Price, item.LowStockThreshold, item.Description, item.ImageURL)
	if err := row.Scan(&item.CreatedAt, &item.UpdatedAt); err != nil {
		return fmt.Errorf("failed to create inventory item: %w", err)
	}
	return nil
}

// UpdateInventoryItem writes the full item back. Read-merge-write is fine
// here: no invariant spans non-quantity fields, and direct quantity edits
// are the restocking path outside the ledger domain.
func (s *Store) UpdateInventoryItem(ctx context.Context, item *models.InventoryItem) error {
	query := `
		UPDATE inventory_items
		SET name = $1, category = $2, quantity = $3, price = $4,
		    low_stock_threshold = $5, description = $6, image_url = $7, updated_at = NOW()
		WHERE id = $8 AND user_id = $9
		RETURNING updated_at`

	row := s.db.QueryRowxContext(ctx, query,
		item.Name, item.Category, item.Quantity, item.Price,
		item.LowStockThreshold, item.Description, item.ImageURL,
		item.ID, item.UserID)
	if err := row.Scan(&item.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return ErrNotFound
		}
		return err
	}
	return nil
}

// DeleteInventoryItem removes an item; no cascade into past transactions,
// their lines keep the historical snapshot
func (s *Store) DeleteInventoryItem(ctx context.Context, userID, id string) error {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM inventory_items WHERE id = $1 AND user_id = $2", id, userID)
	if err != nil {
		return err
	}
	return requireRow(res)
}
