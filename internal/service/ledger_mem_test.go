package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"ledger-service/internal/models"
	"ledger-service/internal/store"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// memState holds the document collections for in-memory ledger tests
type memState struct {
	customers map[string]models.Customer
	items     map[string]models.InventoryItem
	txns      map[string]models.Transaction
}

func newMemState() *memState {
	return &memState{
		customers: make(map[string]models.Customer),
		items:     make(map[string]models.InventoryItem),
		txns:      make(map[string]models.Transaction),
	}
}

func (s *memState) clone() *memState {
	c := newMemState()
	for k, v := range s.customers {
		c.customers[k] = v
	}
	for k, v := range s.items {
		c.items[k] = v
	}
	for k, v := range s.txns {
		v.Items = append([]models.TransactionItem(nil), v.Items...)
		c.txns[k] = v
	}
	return c
}

// memStore implements LedgerStore with staged-commit semantics: fn runs
// against a clone of the state, and the clone replaces the state only on
// success. A failed unit leaves no trace, mirroring the real store's
// transaction behavior.
type memStore struct {
	mu        sync.Mutex
	state     *memState
	conflicts int // abort this many units with ErrSerialization first
}

func newMemStore(state *memState) *memStore {
	return &memStore{state: state}
}

func (m *memStore) RunLedgerTx(ctx context.Context, fn func(ctx context.Context, tx store.LedgerTx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	staged := m.state.clone()
	if err := fn(ctx, &memTx{state: staged}); err != nil {
		return err
	}

	if m.conflicts > 0 {
		m.conflicts--
		return fmt.Errorf("%w: simulated conflict", store.ErrSerialization)
	}

	m.state = staged
	return nil
}

type memTx struct {
	state *memState
}

func (t *memTx) GetCustomer(ctx context.Context, userID, customerID string) (*models.Customer, error) {
	customer, ok := t.state.customers[customerID]
	if !ok || customer.UserID != userID {
		return nil, store.ErrNotFound
	}
	return &customer, nil
}

func (t *memTx) GetInventoryItem(ctx context.Context, userID, itemID string) (*models.InventoryItem, error) {
	item, ok := t.state.items[itemID]
	if !ok || item.UserID != userID {
		return nil, store.ErrNotFound
	}
	return &item, nil
}

func (t *memTx) GetTransaction(ctx context.Context, userID, transactionID string) (*models.Transaction, error) {
	txn, ok := t.state.txns[transactionID]
	if !ok || txn.UserID != userID {
		return nil, store.ErrNotFound
	}
	txn.Items = append([]models.TransactionItem(nil), txn.Items...)
	return &txn, nil
}

func (t *memTx) InsertTransaction(ctx context.Context, txn *models.Transaction) error {
	txn.ID = uuid.New().String()
	txn.CreatedAt = time.Now()
	txn.UpdatedAt = txn.CreatedAt
	stored := *txn
	stored.Items = append([]models.TransactionItem(nil), txn.Items...)
	t.state.txns[txn.ID] = stored
	return nil
}

func (t *memTx) UpdateCustomerLedger(ctx context.Context, customerID string, balance, totalPurchases decimal.Decimal) error {
	customer, ok := t.state.customers[customerID]
	if !ok {
		return store.ErrNotFound
	}
	customer.Balance = balance
	customer.TotalPurchases = totalPurchases
	customer.UpdatedAt = time.Now()
	t.state.customers[customerID] = customer
	return nil
}

func (t *memTx) SetInventoryQuantity(ctx context.Context, itemID string, quantity int) error {
	item, ok := t.state.items[itemID]
	if !ok {
		return store.ErrNotFound
	}
	item.Quantity = quantity
	item.UpdatedAt = time.Now()
	t.state.items[itemID] = item
	return nil
}

func (t *memTx) DeleteTransaction(ctx context.Context, transactionID string) error {
	if _, ok := t.state.txns[transactionID]; !ok {
		return store.ErrNotFound
	}
	delete(t.state.txns, transactionID)
	return nil
}

// eventRecorder captures published events for assertions
type eventRecorder struct {
	mu       sync.Mutex
	sales    []*models.SaleRecordedEvent
	payments []*models.PaymentRecordedEvent
	deletes  []*models.TransactionDeletedEvent
	lowStock []*models.LowStockEvent
}

func (r *eventRecorder) PublishSaleRecorded(ctx context.Context, event *models.SaleRecordedEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sales = append(r.sales, event)
	return nil
}

func (r *eventRecorder) PublishPaymentRecorded(ctx context.Context, event *models.PaymentRecordedEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.payments = append(r.payments, event)
	return nil
}

func (r *eventRecorder) PublishTransactionDeleted(ctx context.Context, event *models.TransactionDeletedEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deletes = append(r.deletes, event)
	return nil
}

func (r *eventRecorder) PublishLowStock(ctx context.Context, event *models.LowStockEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lowStock = append(r.lowStock, event)
	return nil
}

// memIdemCache is an in-memory IdempotencyCache
type memIdemCache struct {
	entries map[string]string
}

func newMemIdemCache() *memIdemCache {
	return &memIdemCache{entries: make(map[string]string)}
}

func (c *memIdemCache) GetSaleID(ctx context.Context, userID, key string) (string, bool, error) {
	id, ok := c.entries[userID+"/"+key]
	return id, ok, nil
}

func (c *memIdemCache) StoreSaleID(ctx context.Context, userID, key, transactionID string) error {
	c.entries[userID+"/"+key] = transactionID
	return nil
}
