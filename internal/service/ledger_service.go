package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ledger-service/internal/models"
	"ledger-service/internal/store"
	"ledger-service/internal/util"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// LedgerStore runs atomic read-modify-write units against the document
// collections. *store.Store is the production implementation; tests supply
// an in-memory one.
type LedgerStore interface {
	RunLedgerTx(ctx context.Context, fn func(ctx context.Context, tx store.LedgerTx) error) error
}

// LedgerEventPublisher publishes ledger events after a unit commits
type LedgerEventPublisher interface {
	PublishSaleRecorded(ctx context.Context, event *models.SaleRecordedEvent) error
	PublishPaymentRecorded(ctx context.Context, event *models.PaymentRecordedEvent) error
	PublishTransactionDeleted(ctx context.Context, event *models.TransactionDeletedEvent) error
	PublishLowStock(ctx context.Context, event *models.LowStockEvent) error
}

// IdempotencyCache deduplicates sale requests replayed with the same key
type IdempotencyCache interface {
	GetSaleID(ctx context.Context, userID, key string) (string, bool, error)
	StoreSaleID(ctx context.Context, userID, key, transactionID string) error
}

// LedgerService owns the invariant that a customer's balance and an item's
// stock level always equal the sum of effects of all non-deleted
// transactions. Every operation is a single atomic unit: it fully commits
// or leaves no trace.
type LedgerService struct {
	store       LedgerStore
	events      LedgerEventPublisher
	idempotency IdempotencyCache
	maxRetries  int
	logger      *zap.Logger
}

// NewLedgerService creates a new ledger service. idempotency may be nil,
// in which case Idempotency-Key deduplication is disabled.
func NewLedgerService(
	ledgerStore LedgerStore,
	events LedgerEventPublisher,
	idempotency IdempotencyCache,
	maxRetries int,
) *LedgerService {
	if maxRetries < 1 {
		maxRetries = 1
	}
	return &LedgerService{
		store:       ledgerStore,
		events:      events,
		idempotency: idempotency,
		maxRetries:  maxRetries,
		logger:      util.GetLogger(),
	}
}

// SaleLineRequest is one requested sale line. Price is the caller-supplied
// unit price, captured as the historical record independent of the item's
// current catalog price.
type SaleLineRequest struct {
	ItemID   string          `json:"item_id" binding:"required"`
	Quantity int             `json:"quantity" binding:"required"`
	Price    decimal.Decimal `json:"price"`
}

// RecordSaleRequest represents a request to record a sale
type RecordSaleRequest struct {
	CustomerID     string            `json:"customer_id" binding:"required"`
	Items          []SaleLineRequest `json:"items" binding:"required"`
	AmountPaid     decimal.Decimal   `json:"amount_paid"`
	Notes          string            `json:"notes,omitempty"`
	IdempotencyKey string            `json:"idempotency_key,omitempty"`
}

// RecordPaymentRequest represents a request to record a payment against the
// customer's aggregate balance
type RecordPaymentRequest struct {
	CustomerID    string          `json:"customer_id" binding:"required"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentMethod string          `json:"payment_method,omitempty"`
	Notes         string          `json:"notes,omitempty"`
}

// RecordSale atomically writes a sale transaction, adds its amountDue to the
// customer balance and amount to totalPurchases, and decrements stock for
// every line. Returns the recorded transaction.
func (s *LedgerService) RecordSale(ctx context.Context, userID string, req *RecordSaleRequest) (*models.Transaction, error) {
	ctx, span := util.StartSpan(ctx, "LedgerService.RecordSale")
	defer span.End()

	amount, err := validateSaleRequest(req)
	if err != nil {
		util.LedgerOperationsFailed.WithLabelValues("record_sale", "validation").Inc()
		return nil, err
	}

	if s.idempotency != nil && req.IdempotencyKey != "" {
		if id, ok, err := s.idempotency.GetSaleID(ctx, userID, req.IdempotencyKey); err != nil {
			s.logger.Warn("Idempotency lookup failed", zap.Error(err))
		} else if ok {
			s.logger.Info("Duplicate sale request detected",
				zap.String("idempotency_key", req.IdempotencyKey),
				zap.String("transaction_id", id))
			return &models.Transaction{ID: id, UserID: userID, Type: models.TransactionTypeSale}, nil
		}
	}

	amountDue := amount.Sub(req.AmountPaid)
	status := derivePaymentStatus(amountDue, req.AmountPaid)

	var txn *models.Transaction
	var lowStock []models.LowStockEvent

	err = s.runWithRetry(ctx, "record_sale", func(ctx context.Context, tx store.LedgerTx) error {
		txn = nil
		lowStock = lowStock[:0]

		customer, err := tx.GetCustomer(ctx, userID, req.CustomerID)
		if err != nil {
			return mapNotFound(err, "customer", req.CustomerID)
		}

		// Read every distinct item once; a repeated itemId accumulates
		// into a single stock check and a single quantity write.
		type itemState struct {
			item      *models.InventoryItem
			requested int
		}
		states := make(map[string]*itemState, len(req.Items))
		order := make([]string, 0, len(req.Items))
		for _, line := range req.Items {
			if st, ok := states[line.ItemID]; ok {
				st.requested += line.Quantity
				continue
			}
			item, err := tx.GetInventoryItem(ctx, userID, line.ItemID)
			if err != nil {
				return mapNotFound(err, "inventory item", line.ItemID)
			}
			states[line.ItemID] = &itemState{item: item, requested: line.Quantity}
			order = append(order, line.ItemID)
		}

		for _, id := range order {
			st := states[id]
			if st.item.Quantity < st.requested {
				return &InsufficientStockError{
					ItemID:    st.item.ID,
					ItemName:  st.item.Name,
					Available: st.item.Quantity,
					Requested: st.requested,
				}
			}
		}

		lines := make([]models.TransactionItem, len(req.Items))
		for i, line := range req.Items {
			lines[i] = models.TransactionItem{
				ItemID:    line.ItemID,
				ItemName:  states[line.ItemID].item.Name,
				Quantity:  line.Quantity,
				UnitPrice: line.Price,
			}
		}

		txn = &models.Transaction{
			UserID:        userID,
			CustomerID:    customer.ID,
			CustomerName:  customer.Name,
			Type:          models.TransactionTypeSale,
			Amount:        amount,
			AmountPaid:    req.AmountPaid,
			AmountDue:     amountDue,
			PaymentStatus: status,
			Notes:         req.Notes,
			Items:         lines,
		}
		if err := tx.InsertTransaction(ctx, txn); err != nil {
			return err
		}

		err = tx.UpdateCustomerLedger(ctx, customer.ID,
			customer.Balance.Add(amountDue),
			customer.TotalPurchases.Add(amount))
		if err != nil {
			return err
		}

		for _, id := range order {
			st := states[id]
			newQuantity := st.item.Quantity - st.requested
			if err := tx.SetInventoryQuantity(ctx, id, newQuantity); err != nil {
				return err
			}
			if newQuantity <= st.item.LowStockThreshold {
				lowStock = append(lowStock, models.LowStockEvent{
					UserID:    userID,
					ItemID:    st.item.ID,
					ItemName:  st.item.Name,
					Quantity:  newQuantity,
					Threshold: st.item.LowStockThreshold,
				})
			}
		}
		return nil
	})
	if err != nil {
		util.LedgerOperationsFailed.WithLabelValues("record_sale", failureReason(err)).Inc()
		return nil, err
	}

	util.SalesRecordedTotal.Inc()
	s.logger.Info("Sale recorded",
		zap.String("transaction_id", txn.ID),
		zap.String("customer_id", txn.CustomerID),
		zap.String("amount", txn.Amount.StringFixed(2)),
		zap.String("payment_status", txn.PaymentStatus))

	if s.idempotency != nil && req.IdempotencyKey != "" {
		if err := s.idempotency.StoreSaleID(ctx, userID, req.IdempotencyKey, txn.ID); err != nil {
			s.logger.Warn("Failed to store idempotency key", zap.Error(err))
		}
	}

	s.publishSaleEvents(ctx, txn, lowStock)
	return txn, nil
}

// RecordPayment atomically writes a payment transaction and subtracts its
// amount from the customer balance. Payments may not exceed the current
// outstanding balance.
func (s *LedgerService) RecordPayment(ctx context.Context, userID string, req *RecordPaymentRequest) (*models.Transaction, error) {
	ctx, span := util.StartSpan(ctx, "LedgerService.RecordPayment")
	defer span.End()

	if !req.Amount.IsPositive() {
		util.LedgerOperationsFailed.WithLabelValues("record_payment", "validation").Inc()
		return nil, &ValidationError{Field: "amount", Message: "must be greater than zero"}
	}

	method := req.PaymentMethod
	if method == "" {
		method = "cash"
	}

	var txn *models.Transaction
	err := s.runWithRetry(ctx, "record_payment", func(ctx context.Context, tx store.LedgerTx) error {
		txn = nil

		customer, err := tx.GetCustomer(ctx, userID, req.CustomerID)
		if err != nil {
			return mapNotFound(err, "customer", req.CustomerID)
		}

		newBalance := customer.Balance.Sub(req.Amount)
		if newBalance.IsNegative() {
			return &OverpaymentError{
				CustomerID: customer.ID,
				Balance:    customer.Balance,
				Amount:     req.Amount,
			}
		}

		txn = &models.Transaction{
			UserID:        userID,
			CustomerID:    customer.ID,
			CustomerName:  customer.Name,
			Type:          models.TransactionTypePayment,
			Amount:        req.Amount,
			AmountPaid:    req.Amount,
			AmountDue:     decimal.Zero,
			PaymentStatus: models.PaymentStatusPaid,
			PaymentMethod: method,
			Notes:         req.Notes,
		}
		if err := tx.InsertTransaction(ctx, txn); err != nil {
			return err
		}

		return tx.UpdateCustomerLedger(ctx, customer.ID, newBalance, customer.TotalPurchases)
	})
	if err != nil {
		util.LedgerOperationsFailed.WithLabelValues("record_payment", failureReason(err)).Inc()
		return nil, err
	}

	util.PaymentsRecordedTotal.Inc()
	s.logger.Info("Payment recorded",
		zap.String("transaction_id", txn.ID),
		zap.String("customer_id", txn.CustomerID),
		zap.String("amount", txn.Amount.StringFixed(2)))

	if err := s.events.PublishPaymentRecorded(ctx, &models.PaymentRecordedEvent{
		BaseEvent:     newBaseEvent(models.EventTypePaymentRecorded),
		TransactionID: txn.ID,
		UserID:        txn.UserID,
		CustomerID:    txn.CustomerID,
		Amount:        txn.Amount,
		PaymentMethod: txn.PaymentMethod,
	}); err != nil {
		s.logger.Error("Failed to publish PaymentRecorded event", zap.Error(err))
	}
	return txn, nil
}

// DeleteTransaction atomically removes a transaction and reverses its
// effects: the exact algebraic inverse of the recording operation. Stock is
// restored only for items that still exist; the deletion proceeds either
// way. The reversal may drive the balance negative.
func (s *LedgerService) DeleteTransaction(ctx context.Context, userID, transactionID string) error {
	ctx, span := util.StartSpan(ctx, "LedgerService.DeleteTransaction")
	defer span.End()

	var deleted *models.Transaction
	err := s.runWithRetry(ctx, "delete_transaction", func(ctx context.Context, tx store.LedgerTx) error {
		deleted = nil

		txn, err := tx.GetTransaction(ctx, userID, transactionID)
		if err != nil {
			return mapNotFound(err, "transaction", transactionID)
		}

		customer, err := tx.GetCustomer(ctx, userID, txn.CustomerID)
		if err != nil {
			return mapNotFound(err, "customer", txn.CustomerID)
		}

		switch txn.Type {
		case models.TransactionTypePayment:
			err = tx.UpdateCustomerLedger(ctx, customer.ID,
				customer.Balance.Add(txn.Amount),
				customer.TotalPurchases)
			if err != nil {
				return err
			}

		case models.TransactionTypeSale:
			err = tx.UpdateCustomerLedger(ctx, customer.ID,
				customer.Balance.Sub(txn.AmountDue),
				customer.TotalPurchases.Sub(txn.Amount))
			if err != nil {
				return err
			}

			restore := make(map[string]int, len(txn.Items))
			order := make([]string, 0, len(txn.Items))
			for _, line := range txn.Items {
				if _, ok := restore[line.ItemID]; !ok {
					order = append(order, line.ItemID)
				}
				restore[line.ItemID] += line.Quantity
			}
			for _, id := range order {
				item, err := tx.GetInventoryItem(ctx, userID, id)
				if errors.Is(err, store.ErrNotFound) {
					// Item deleted since the sale: skip stock
					// restoration, the reversal still proceeds.
					s.logger.Warn("Skipping stock restore for deleted item",
						zap.String("transaction_id", transactionID),
						zap.String("item_id", id))
					continue
				}
				if err != nil {
					return err
				}
				if err := tx.SetInventoryQuantity(ctx, id, item.Quantity+restore[id]); err != nil {
					return err
				}
			}

		default:
			return fmt.Errorf("unknown transaction type %q", txn.Type)
		}

		deleted = txn
		return tx.DeleteTransaction(ctx, txn.ID)
	})
	if err != nil {
		util.LedgerOperationsFailed.WithLabelValues("delete_transaction", failureReason(err)).Inc()
		return err
	}

	util.TransactionsDeletedTotal.WithLabelValues(deleted.Type).Inc()
	s.logger.Info("Transaction deleted and reversed",
		zap.String("transaction_id", deleted.ID),
		zap.String("type", deleted.Type),
		zap.String("customer_id", deleted.CustomerID))

	if err := s.events.PublishTransactionDeleted(ctx, &models.TransactionDeletedEvent{
		BaseEvent:       newBaseEvent(models.EventTypeTransactionDeleted),
		TransactionID:   deleted.ID,
		UserID:          deleted.UserID,
		CustomerID:      deleted.CustomerID,
		TransactionType: deleted.Type,
		Amount:          deleted.Amount,
	}); err != nil {
		s.logger.Error("Failed to publish TransactionDeleted event", zap.Error(err))
	}
	return nil
}

// runWithRetry executes fn as one atomic unit, retrying with fresh reads
// while the store reports serialization conflicts, up to the configured
// bound.
func (s *LedgerService) runWithRetry(ctx context.Context, operation string, fn func(ctx context.Context, tx store.LedgerTx) error) error {
	start := time.Now()
	defer func() {
		util.LedgerTxLatency.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	}()

	var err error
	for attempt := 1; attempt <= s.maxRetries; attempt++ {
		err = s.store.RunLedgerTx(ctx, fn)
		if err == nil || !errors.Is(err, store.ErrSerialization) {
			return err
		}
		util.LedgerTxRetriesTotal.Inc()
		s.logger.Warn("Ledger transaction conflict, retrying",
			zap.String("operation", operation),
			zap.Int("attempt", attempt))
	}
	return fmt.Errorf("%s: %w", operation, ErrConflictRetryExhausted)
}

func (s *LedgerService) publishSaleEvents(ctx context.Context, txn *models.Transaction, lowStock []models.LowStockEvent) {
	items := make([]models.SaleLineData, len(txn.Items))
	for i, line := range txn.Items {
		items[i] = models.SaleLineData{
			ItemID:    line.ItemID,
			ItemName:  line.ItemName,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
		}
	}

	if err := s.events.PublishSaleRecorded(ctx, &models.SaleRecordedEvent{
		BaseEvent:     newBaseEvent(models.EventTypeSaleRecorded),
		TransactionID: txn.ID,
		UserID:        txn.UserID,
		CustomerID:    txn.CustomerID,
		Amount:        txn.Amount,
		AmountDue:     txn.AmountDue,
		PaymentStatus: txn.PaymentStatus,
		Items:         items,
	}); err != nil {
		s.logger.Error("Failed to publish SaleRecorded event", zap.Error(err))
	}

	for _, alert := range lowStock {
		alert.BaseEvent = newBaseEvent(models.EventTypeLowStock)
		util.LowStockAlertsTotal.Inc()
		event := alert
		if err := s.events.PublishLowStock(ctx, &event); err != nil {
			s.logger.Error("Failed to publish LowStock event",
				zap.String("item_id", event.ItemID),
				zap.Error(err))
		}
	}
}

// validateSaleRequest checks the request shape before any store interaction
// and returns the computed sale amount
func validateSaleRequest(req *RecordSaleRequest) (decimal.Decimal, error) {
	if len(req.Items) == 0 {
		return decimal.Zero, &ValidationError{Field: "items", Message: "must not be empty"}
	}
	amount := decimal.Zero
	for i, line := range req.Items {
		if line.ItemID == "" {
			return decimal.Zero, &ValidationError{
				Field:   fmt.Sprintf("items[%d].item_id", i),
				Message: "must not be empty",
			}
		}
		if line.Quantity <= 0 {
			return decimal.Zero, &ValidationError{
				Field:   fmt.Sprintf("items[%d].quantity", i),
				Message: "must be greater than zero",
			}
		}
		if line.Price.IsNegative() {
			return decimal.Zero, &ValidationError{
				Field:   fmt.Sprintf("items[%d].price", i),
				Message: "must not be negative",
			}
		}
		amount = amount.Add(line.Price.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}
	if req.AmountPaid.IsNegative() {
		return decimal.Zero, &ValidationError{Field: "amount_paid", Message: "must not be negative"}
	}
	if req.AmountPaid.GreaterThan(amount) {
		return decimal.Zero, &ValidationError{Field: "amount_paid", Message: "must not exceed the sale amount"}
	}
	return amount, nil
}

// derivePaymentStatus classifies a sale once at creation time; the status
// is never updated afterwards
func derivePaymentStatus(amountDue, amountPaid decimal.Decimal) string {
	switch {
	case amountDue.IsZero():
		return models.PaymentStatusPaid
	case amountPaid.IsZero():
		return models.PaymentStatusPending
	default:
		return models.PaymentStatusPartial
	}
}

func mapNotFound(err error, entity, id string) error {
	if errors.Is(err, store.ErrNotFound) {
		return &NotFoundError{Entity: entity, ID: id}
	}
	return err
}

func failureReason(err error) string {
	var notFound *NotFoundError
	var stock *InsufficientStockError
	var overpay *OverpaymentError
	var invalid *ValidationError
	switch {
	case errors.As(err, &notFound):
		return "not_found"
	case errors.As(err, &stock):
		return "insufficient_stock"
	case errors.As(err, &overpay):
		return "overpayment"
	case errors.As(err, &invalid):
		return "validation"
	case errors.Is(err, ErrConflictRetryExhausted):
		return "conflict_retry_exhausted"
	default:
		return "store_error"
	}
}

func newBaseEvent(eventType string) models.BaseEvent {
	return models.BaseEvent{
		EventID:   uuid.New().String(),
		EventType: eventType,
		Timestamp: time.Now(),
	}
}
