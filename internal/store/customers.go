package store

import (
	"context"
	"database/sql"
	"fmt"

	"ledger-service/internal/models"

	"github.com/google/uuid"
)

// ListCustomers retrieves all customers for a user ordered by name
func (s *Store) ListCustomers(ctx context.Context, userID string) ([]models.Customer, error) {
	var customers []models.Customer
	err := s.db.SelectContext(ctx, &customers,
		"SELECT * FROM customers WHERE user_id = $1 ORDER BY name ASC", userID)
	return customers, err
}

// GetCustomer retrieves a single customer scoped by user
func (s *Store) GetCustomer(ctx context.Context, userID, id string) (*models.Customer, error) {
	var customer models.Customer
	err := s.db.GetContext(ctx, &customer,
		"SELECT * FROM customers WHERE id = $1 AND user_id = $2", id, userID)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &customer, nil
}

// CreateCustomer inserts a new customer with a store-assigned id
func (s *Store) CreateCustomer(ctx context.Context, customer *models.Customer) error {
	customer.ID = uuid.New().String()

	query := `
		INSERT INTO customers
			(id, user_id, name, business_name, email, phone, address, balance, total_purchases)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at`

	row := s.db.QueryRowxContext(ctx, query,
		customer.ID, customer.UserID, customer.Name, customer.BusinessName,
		customer.Email, customer.Phone, customer.Address,
		customer.Balance, customer.TotalPurchases)
	if err := row.Scan(&customer.CreatedAt, &customer.UpdatedAt); err != nil {
		return fmt.Errorf("failed to create customer: %w", err)
	}
	return nil
}

// UpdateCustomer writes contact fields back. Balance and totalPurchases are
// not touched here, those belong to the ledger engine.
func (s *Store) UpdateCustomer(ctx context.Context, customer *models.Customer) error {
	query := `
		UPDATE customers
		SET name = $1, business_name = $2, email = $3, phone = $4, address = $5, updated_at = NOW()
		WHERE id = $6 AND user_id = $7
		RETURNING updated_at`

	row := s.db.QueryRowxContext(ctx, query,
		customer.Name, customer.BusinessName, customer.Email,
		customer.Phone, customer.Address, customer.ID, customer.UserID)
	if err := row.Scan(&customer.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return ErrNotFound
		}
		return err
	}
	return nil
}

// DeleteCustomer removes a customer. No cascade: transactions keep their
// denormalized customer name, and deleting one of them afterwards fails on
// the missing customer.
func (s *Store) DeleteCustomer(ctx context.Context, userID, id string) error {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM customers WHERE id = $1 AND user_id = $2", id, userID)
	if err != nil {
		return err
	}
	return requireRow(res)
}
