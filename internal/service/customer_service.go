package service

import (
	"context"

	"ledger-service/internal/models"
	"ledger-service/internal/redisclient"
	"ledger-service/internal/store"
	"ledger-service/internal/util"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CustomerService handles customer CRUD. Balance and totalPurchases are
// written here only at creation time (initial balance seed); afterwards they
// belong to the ledger engine.
type CustomerService struct {
	store  *store.Store
	cache  *redisclient.Client
	logger *zap.Logger
}

// NewCustomerService creates a new customer service. cache may be nil.
func NewCustomerService(st *store.Store, cache *redisclient.Client) *CustomerService {
	return &CustomerService{
		store:  st,
		cache:  cache,
		logger: util.GetLogger(),
	}
}

// CreateCustomerRequest represents a request to create a customer
type CreateCustomerRequest struct {
	Name           string          `json:"name" binding:"required"`
	BusinessName   string          `json:"business_name,omitempty"`
	Email          string          `json:"email,omitempty"`
	Phone          string          `json:"phone"`
	Address        string          `json:"address,omitempty"`
	InitialBalance decimal.Decimal `json:"initial_balance"`
}

// UpdateCustomerRequest carries partial contact-field updates
type UpdateCustomerRequest struct {
	Name         *string `json:"name,omitempty"`
	BusinessName *string `json:"business_name,omitempty"`
	Email        *string `json:"email,omitempty"`
	Phone        *string `json:"phone,omitempty"`
	Address      *string `json:"address,omitempty"`
}

// List retrieves a user's customers ordered by name
func (s *CustomerService) List(ctx context.Context, userID string) ([]models.Customer, error) {
	return s.store.ListCustomers(ctx, userID)
}

// Get retrieves one customer
func (s *CustomerService) Get(ctx context.Context, userID, id string) (*models.Customer, error) {
	customer, err := s.store.GetCustomer(ctx, userID, id)
	if err != nil {
		return nil, mapNotFound(err, "customer", id)
	}
	return customer, nil
}

// Create adds a new customer. An initial balance seeds both balance and
// totalPurchases so derived paid totals stay consistent.
func (s *CustomerService) Create(ctx context.Context, userID string, req *CreateCustomerRequest) (*models.Customer, error) {
	if req.InitialBalance.IsNegative() {
		return nil, &ValidationError{Field: "initial_balance", Message: "must not be negative"}
	}

	customer := &models.Customer{
		UserID:         userID,
		Name:           req.Name,
		BusinessName:   req.BusinessName,
		Email:          req.Email,
		Phone:          req.Phone,
		Address:        req.Address,
		Balance:        req.InitialBalance,
		TotalPurchases: req.InitialBalance,
	}
	if err := s.store.CreateCustomer(ctx, customer); err != nil {
		return nil, err
	}

	s.invalidateStats(ctx, userID)
	return customer, nil
}

// Update applies a partial contact-field update
func (s *CustomerService) Update(ctx context.Context, userID, id string, req *UpdateCustomerRequest) (*models.Customer, error) {
	customer, err := s.store.GetCustomer(ctx, userID, id)
	if err != nil {
		return nil, mapNotFound(err, "customer", id)
	}

	if req.Name != nil {
		customer.Name = *req.Name
	}
	if req.BusinessName != nil {
		customer.BusinessName = *req.BusinessName
	}
	if req.Email != nil {
		customer.Email = *req.Email
	}
	if req.Phone != nil {
		customer.Phone = *req.Phone
	}
	if req.Address != nil {
		customer.Address = *req.Address
	}

	if err := s.store.UpdateCustomer(ctx, customer); err != nil {
		return nil, mapNotFound(err, "customer", id)
	}
	return customer, nil
}

// Delete removes a customer without cascading into transactions
func (s *CustomerService) Delete(ctx context.Context, userID, id string) error {
	if err := s.store.DeleteCustomer(ctx, userID, id); err != nil {
		return mapNotFound(err, "customer", id)
	}
	s.invalidateStats(ctx, userID)
	return nil
}

// Transactions lists the customer's ledger entries newest first
func (s *CustomerService) Transactions(ctx context.Context, userID, customerID string) ([]models.Transaction, error) {
	if _, err := s.store.GetCustomer(ctx, userID, customerID); err != nil {
		return nil, mapNotFound(err, "customer", customerID)
	}
	return s.store.ListTransactions(ctx, userID, customerID)
}

// TransactionsForUser lists all of a user's ledger entries, optionally
// narrowed to one customer
func (s *CustomerService) TransactionsForUser(ctx context.Context, userID, customerID string) ([]models.Transaction, error) {
	return s.store.ListTransactions(ctx, userID, customerID)
}

func (s *CustomerService) invalidateStats(ctx context.Context, userID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateStats(ctx, userID); err != nil {
		s.logger.Warn("Failed to invalidate stats cache", zap.String("user_id", userID), zap.Error(err))
	}
}
