package service

import (
	"context"

	"ledger-service/internal/models"
	"ledger-service/internal/store"
	"ledger-service/internal/util"

	"go.uber.org/zap"
)

// SupplierService handles supplier CRUD; suppliers never interact with the
// ledger
type SupplierService struct {
	store  *store.Store
	logger *zap.Logger
}

// NewSupplierService creates a new supplier service
func NewSupplierService(st *store.Store) *SupplierService {
	return &SupplierService{
		store:  st,
		logger: util.GetLogger(),
	}
}

// CreateSupplierRequest represents a request to create a supplier
type CreateSupplierRequest struct {
	Name          string   `json:"name" binding:"required"`
	ContactPerson string   `json:"contact_person,omitempty"`
	Email         string   `json:"email,omitempty"`
	Phone         string   `json:"phone"`
	Address       string   `json:"address,omitempty"`
	ImageURL      string   `json:"image_url,omitempty"`
	Categories    []string `json:"categories,omitempty"`
	ItemsSupplied []string `json:"items_supplied,omitempty"`
	Notes         string   `json:"notes,omitempty"`
}

// UpdateSupplierRequest carries partial updates
type UpdateSupplierRequest struct {
	Name          *string   `json:"name,omitempty"`
	ContactPerson *string   `json:"contact_person,omitempty"`
	Email         *string   `json:"email,omitempty"`
	Phone         *string   `json:"phone,omitempty"`
	Address       *string   `json:"address,omitempty"`
	ImageURL      *string   `json:"image_url,omitempty"`
	Categories    *[]string `json:"categories,omitempty"`
	ItemsSupplied *[]string `json:"items_supplied,omitempty"`
	Notes         *string   `json:"notes,omitempty"`
}

// List retrieves a user's suppliers ordered by name
func (s *SupplierService) List(ctx context.Context, userID string) ([]models.Supplier, error) {
	return s.store.ListSuppliers(ctx, userID)
}

// Get retrieves one supplier
func (s *SupplierService) Get(ctx context.Context, userID, id string) (*models.Supplier, error) {
	supplier, err := s.store.GetSupplier(ctx, userID, id)
	if err != nil {
		return nil, mapNotFound(err, "supplier", id)
	}
	return supplier, nil
}

// Create adds a new supplier
func (s *SupplierService) Create(ctx context.Context, userID string, req *CreateSupplierRequest) (*models.Supplier, error) {
	supplier := &models.Supplier{
		UserID:        userID,
		Name:          req.Name,
		ContactPerson: req.ContactPerson,
		Email:         req.Email,
		Phone:         req.Phone,
		Address:       req.Address,
		ImageURL:      req.ImageURL,
		Categories:    req.Categories,
		ItemsSupplied: req.ItemsSupplied,
		Notes:         req.Notes,
	}
	if err := s.store.CreateSupplier(ctx, supplier); err != nil {
		return nil, err
	}
	return supplier, nil
}

// Update applies a partial update via read-merge-write
func (s *SupplierService) Update(ctx context.Context, userID, id string, req *UpdateSupplierRequest) (*models.Supplier, error) {
	supplier, err := s.store.GetSupplier(ctx, userID, id)
	if err != nil {
		return nil, mapNotFound(err, "supplier", id)
	}

	if req.Name != nil {
		supplier.Name = *req.Name
	}
	if req.ContactPerson != nil {
		supplier.ContactPerson = *req.ContactPerson
	}
	if req.Email != nil {
		supplier.Email = *req.Email
	}
	if req.Phone != nil {
		supplier.Phone = *req.Phone
	}
	if req.Address != nil {
		supplier.Address = *req.Address
	}
	if req.ImageURL != nil {
		supplier.ImageURL = *req.ImageURL
	}
	if req.Categories != nil {
		supplier.Categories = *req.Categories
	}
	if req.ItemsSupplied != nil {
		supplier.ItemsSupplied = *req.ItemsSupplied
	}
	if req.Notes != nil {
		supplier.Notes = *req.Notes
	}

	if err := s.store.UpdateSupplier(ctx, supplier); err != nil {
		return nil, mapNotFound(err, "supplier", id)
	}
	return supplier, nil
}

// Delete removes a supplier
func (s *SupplierService) Delete(ctx context.Context, userID, id string) error {
	if err := s.store.DeleteSupplier(ctx, userID, id); err != nil {
		return mapNotFound(err, "supplier", id)
	}
	return nil
}
