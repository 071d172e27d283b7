package service

import (
	"context"
	"encoding/json"

	"ledger-service/internal/models"
	"ledger-service/internal/redisclient"
	"ledger-service/internal/store"
	"ledger-service/internal/util"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// StatsService computes read-only derived views over the entity stores.
// Nothing is persisted; results are recomputed on demand, with a short-TTL
// Redis cache in front.
type StatsService struct {
	store  *store.Store
	cache  *redisclient.Client
	logger *zap.Logger
}

// NewStatsService creates a new stats service. cache may be nil.
func NewStatsService(st *store.Store, cache *redisclient.Client) *StatsService {
	return &StatsService{
		store:  st,
		cache:  cache,
		logger: util.GetLogger(),
	}
}

// InventoryStats returns item count, total stock value, low-stock count and
// distinct category count for a user's inventory
func (s *StatsService) InventoryStats(ctx context.Context, userID string) (*models.InventoryStats, error) {
	ctx, span := util.StartSpan(ctx, "StatsService.InventoryStats")
	defer span.End()

	var cached models.InventoryStats
	if s.lookupCache(ctx, redisclient.StatsKindInventory, userID, &cached) {
		return &cached, nil
	}

	items, err := s.store.ListInventoryItems(ctx, userID)
	if err != nil {
		return nil, err
	}

	stats := ComputeInventoryStats(items)
	s.storeCache(ctx, redisclient.StatsKindInventory, userID, stats)
	return &stats, nil
}

// CustomerStats returns customer count, receivables and paid totals for a
// user's customers
func (s *StatsService) CustomerStats(ctx context.Context, userID string) (*models.CustomerStats, error) {
	ctx, span := util.StartSpan(ctx, "StatsService.CustomerStats")
	defer span.End()

	var cached models.CustomerStats
	if s.lookupCache(ctx, redisclient.StatsKindCustomers, userID, &cached) {
		return &cached, nil
	}

	customers, err := s.store.ListCustomers(ctx, userID)
	if err != nil {
		return nil, err
	}

	stats := ComputeCustomerStats(customers)
	s.storeCache(ctx, redisclient.StatsKindCustomers, userID, stats)
	return &stats, nil
}

func (s *StatsService) lookupCache(ctx context.Context, kind, userID string, out interface{}) bool {
	if s.cache == nil {
		return false
	}
	payload, ok, err := s.cache.GetStats(ctx, kind, userID)
	if err != nil {
		s.logger.Warn("Stats cache lookup failed", zap.String("kind", kind), zap.Error(err))
		return false
	}
	if !ok {
		util.StatsCacheHits.WithLabelValues("miss").Inc()
		return false
	}
	if err := json.Unmarshal(payload, out); err != nil {
		s.logger.Warn("Stats cache payload corrupt", zap.String("kind", kind), zap.Error(err))
		return false
	}
	util.StatsCacheHits.WithLabelValues("hit").Inc()
	return true
}

func (s *StatsService) storeCache(ctx context.Context, kind, userID string, stats interface{}) {
	if s.cache == nil {
		return
	}
	payload, err := json.Marshal(stats)
	if err != nil {
		return
	}
	if err := s.cache.SetStats(ctx, kind, userID, payload); err != nil {
		s.logger.Warn("Failed to cache stats", zap.String("kind", kind), zap.Error(err))
	}
}

// ComputeInventoryStats aggregates a fetched item list
func ComputeInventoryStats(items []models.InventoryItem) models.InventoryStats {
	stats := models.InventoryStats{
		TotalItems: len(items),
		TotalValue: decimal.Zero,
	}
	categories := make(map[string]struct{})
	for _, item := range items {
		stats.TotalValue = stats.TotalValue.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
		if item.Quantity <= item.LowStockThreshold {
			stats.LowStockItems++
		}
		categories[item.Category] = struct{}{}
	}
	stats.Categories = len(categories)
	return stats
}

// ComputeCustomerStats aggregates a fetched customer list. Receivables sum
// only positive balances; paid is totalPurchases minus balance.
func ComputeCustomerStats(customers []models.Customer) models.CustomerStats {
	stats := models.CustomerStats{
		TotalCustomers:   len(customers),
		TotalReceivables: decimal.Zero,
		TotalPaid:        decimal.Zero,
	}
	for _, customer := range customers {
		if customer.Balance.IsPositive() {
			stats.TotalReceivables = stats.TotalReceivables.Add(customer.Balance)
		}
		stats.TotalPaid = stats.TotalPaid.Add(customer.TotalPurchases.Sub(customer.Balance))
	}
	return stats
}
