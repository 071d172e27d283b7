package store

import (
	"context"
	"database/sql"
	"fmt"

	"ledger-service/internal/models"

	"github.com/google/uuid"
)

// ListSuppliers retrieves all suppliers for a user ordered by name
func (s *Store) ListSuppliers(ctx context.Context, userID string) ([]models.Supplier, error) {
	var suppliers []models.Supplier
	err := s.db.SelectContext(ctx, &suppliers,
		"SELECT * FROM suppliers WHERE user_id = $1 ORDER BY name ASC", userID)
	return suppliers, err
}

// GetSupplier retrieves a single supplier scoped by user
func (s *Store) GetSupplier(ctx context.Context, userID, id string) (*models.Supplier, error) {
	var supplier models.Supplier
	err := s.db.GetContext(ctx, &supplier,
		"SELECT * FROM suppliers WHERE id = $1 AND user_id = $2", id, userID)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &supplier, nil
}

// CreateSupplier inserts a new supplier with a store-assigned id
func (s *Store) CreateSupplier(ctx context.Context, supplier *models.Supplier) error {
	supplier.ID = uuid.New().String()

	query := `
		INSERT INTO suppliers
			(id, user_id, name, contact_person, email, phone, address, image_url, categories, items_supplied, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at, updated_at`

	row := s.db.QueryRowxContext(ctx, query,
		supplier.ID, supplier.UserID, supplier.Name, supplier.ContactPerson,
		supplier.Email, supplier.Phone, supplier.Address, supplier.ImageURL,
		supplier.Categories, supplier.ItemsSupplied, supplier.Notes)
	if err := row.Scan(&supplier.CreatedAt, &supplier.UpdatedAt); err != nil {
		return fmt.Errorf("failed to create supplier: %w", err)
	}
	return nil
}

// UpdateSupplier writes the full supplier back
func (s *Store) UpdateSupplier(ctx context.Context, supplier *models.Supplier) error {
	query := `
		UPDATE suppliers
		SET name = $1, contact_person = $2, email = $3, phone = $4, address = $5,
		    image_url = $6, categories = $7, items_supplied = $8, notes = $9, updated_at = NOW()
		WHERE id = $10 AND user_id = $11
		RETURNING updated_at`

	row := s.db.QueryRowxContext(ctx, query,
		supplier.Name, supplier.ContactPerson, supplier.Email, supplier.Phone,
		supplier.Address, supplier.ImageURL, supplier.Categories,
		supplier.ItemsSupplied, supplier.Notes, supplier.ID, supplier.UserID)
	if err := row.Scan(&supplier.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return ErrNotFound
		}
		return err
	}
	return nil
}

// DeleteSupplier removes a supplier
func (s *Store) DeleteSupplier(ctx context.Context, userID, id string) error {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM suppliers WHERE id = $1 AND user_id = $2", id, userID)
	if err != nil {
		return err
	}
	return requireRow(res)
}
