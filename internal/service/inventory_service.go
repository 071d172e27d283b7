package service

import (
	"context"
	"strings"

	"ledger-service/internal/models"
	"ledger-service/internal/redisclient"
	"ledger-service/internal/store"
	"ledger-service/internal/util"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// InventoryService handles inventory CRUD. No cross-entity invariants live
// here; quantity edits through Update are the restocking path outside the
// ledger domain.
type InventoryService struct {
	store  *store.Store
	cache  *redisclient.Client
	logger *zap.Logger
}

// NewInventoryService creates a new inventory service. cache may be nil.
func NewInventoryService(st *store.Store, cache *redisclient.Client) *InventoryService {
	return &InventoryService{
		store:  st,
		cache:  cache,
		logger: util.GetLogger(),
	}
}

// CreateInventoryItemRequest represents a request to create an item
type CreateInventoryItemRequest struct {
	Name              string          `json:"name" binding:"required"`
	Category          string          `json:"category"`
	Quantity          int             `json:"quantity"`
	Price             decimal.Decimal `json:"price"`
	LowStockThreshold int             `json:"low_stock_threshold"`
	Description       string          `json:"description,omitempty"`
	ImageURL          string          `json:"image_url,omitempty"`
}

// UpdateInventoryItemRequest carries partial updates; nil fields keep the
// stored value
type UpdateInventoryItemRequest struct {
	Name              *string          `json:"name,omitempty"`
	Category          *string          `json:"category,omitempty"`
	Quantity          *int             `json:"quantity,omitempty"`
	Price             *decimal.Decimal `json:"price,omitempty"`
	LowStockThreshold *int             `json:"low_stock_threshold,omitempty"`
	Description       *string          `json:"description,omitempty"`
	ImageURL          *string          `json:"image_url,omitempty"`
}

// List retrieves a user's items with the filters applied after fetch
func (s *InventoryService) List(ctx context.Context, userID string, filters models.InventoryFilters) ([]models.InventoryItem, error) {
	items, err := s.store.ListInventoryItems(ctx, userID)
	if err != nil {
		return nil, err
	}

	filtered := items[:0]
	for _, item := range items {
		if matchesInventoryFilters(item, filters) {
			filtered = append(filtered, item)
		}
	}
	return filtered, nil
}

// Get retrieves one item
func (s *InventoryService) Get(ctx context.Context, userID, id string) (*models.InventoryItem, error) {
	item, err := s.store.GetInventoryItem(ctx, userID, id)
	if err != nil {
		return nil, mapNotFound(err, "inventory item", id)
	}
	return item, nil
}

// Create adds a new item
func (s *InventoryService) Create(ctx context.Context, userID string, req *CreateInventoryItemRequest) (*models.InventoryItem, error) {
	if req.Quantity < 0 {
		return nil, &ValidationError{Field: "quantity", Message: "must not be negative"}
	}
	if req.Price.IsNegative() {
		return nil, &ValidationError{Field: "price", Message: "must not be negative"}
	}
	if req.LowStockThreshold < 0 {
		return nil, &ValidationError{Field: "low_stock_threshold", Message: "must not be negative"}
	}

	item := &models.InventoryItem{
		UserID:            userID,
		Name:              req.Name,
		Category:          req.Category,
		Quantity:          req.Quantity,
		Price:             req.Price,
		LowStockThreshold: req.LowStockThreshold,
		Description:       req.Description,
		ImageURL:          req.ImageURL,
	}
	if err := s.store.CreateInventoryItem(ctx, item); err != nil {
		return nil, err
	}

	s.invalidateStats(ctx, userID)
	return item, nil
}

// Update applies a partial update via read-merge-write
func (s *InventoryService) Update(ctx context.Context, userID, id string, req *UpdateInventoryItemRequest) (*models.InventoryItem, error) {
	item, err := s.store.GetInventoryItem(ctx, userID, id)
	if err != nil {
		return nil, mapNotFound(err, "inventory item", id)
	}

	if req.Name != nil {
		item.Name = *req.Name
	}
	if req.Category != nil {
		item.Category = *req.Category
	}
	if req.Quantity != nil {
		if *req.Quantity < 0 {
			return nil, &ValidationError{Field: "quantity", Message: "must not be negative"}
		}
		item.Quantity = *req.Quantity
	}
	if req.Price != nil {
		if req.Price.IsNegative() {
			return nil, &ValidationError{Field: "price", Message: "must not be negative"}
		}
		item.Price = *req.Price
	}
	if req.LowStockThreshold != nil {
		if *req.LowStockThreshold < 0 {
			return nil, &ValidationError{Field: "low_stock_threshold", Message: "must not be negative"}
		}
		item.LowStockThreshold = *req.LowStockThreshold
	}
	if req.Description != nil {
		item.Description = *req.Description
	}
	if req.ImageURL != nil {
		item.ImageURL = *req.ImageURL
	}

	if err := s.store.UpdateInventoryItem(ctx, item); err != nil {
		return nil, mapNotFound(err, "inventory item", id)
	}

	s.invalidateStats(ctx, userID)
	return item, nil
}

// Delete removes an item. Past sale lines keep their snapshots; deleting a
// sale afterwards skips stock restoration for this item.
func (s *InventoryService) Delete(ctx context.Context, userID, id string) error {
	if err := s.store.DeleteInventoryItem(ctx, userID, id); err != nil {
		return mapNotFound(err, "inventory item", id)
	}
	s.invalidateStats(ctx, userID)
	return nil
}

func (s *InventoryService) invalidateStats(ctx context.Context, userID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateStats(ctx, userID); err != nil {
		s.logger.Warn("Failed to invalidate stats cache", zap.String("user_id", userID), zap.Error(err))
	}
}

// matchesInventoryFilters is the pure predicate applied to the fetched set
func matchesInventoryFilters(item models.InventoryItem, filters models.InventoryFilters) bool {
	if filters.Category != "" && item.Category != filters.Category {
		return false
	}
	if filters.LowStock && item.Quantity > item.LowStockThreshold {
		return false
	}
	if filters.Search != "" {
		needle := strings.ToLower(filters.Search)
		if !strings.Contains(strings.ToLower(item.Name), needle) &&
			!strings.Contains(strings.ToLower(item.Description), needle) {
			return false
		}
	}
	return true
}
