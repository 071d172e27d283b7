package service

import (
	"context"
	"sync"
	"testing"

	"ledger-service/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testUserID = "user-1"

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertDec(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, dec(want).Equal(got), "want %s, got %s", want, got.String())
}

func seedCustomer(state *memState, id string, balance, totalPurchases string) {
	state.customers[id] = models.Customer{
		ID:             id,
		UserID:         testUserID,
		Name:           "Customer " + id,
		Phone:          "555-0100",
		Balance:        dec(balance),
		TotalPurchases: dec(totalPurchases),
	}
}

func seedItem(state *memState, id string, quantity int, price string, threshold int) {
	state.items[id] = models.InventoryItem{
		ID:                id,
		UserID:            testUserID,
		Name:              "Item " + id,
		Category:          "general",
		Quantity:          quantity,
		Price:             dec(price),
		LowStockThreshold: threshold,
	}
}

func newLedgerFixture(state *memState) (*LedgerService, *memStore, *eventRecorder) {
	ms := newMemStore(state)
	events := &eventRecorder{}
	svc := NewLedgerService(ms, events, nil, 5)
	return svc, ms, events
}

func TestRecordSalePartialPayment(t *testing.T) {
	state := newMemState()
	seedCustomer(state, "cust-1", "0", "0")
	seedItem(state, "item-a", 10, "5.00", 2)
	svc, ms, events := newLedgerFixture(state)

	txn, err := svc.RecordSale(context.Background(), testUserID, &RecordSaleRequest{
		CustomerID: "cust-1",
		Items:      []SaleLineRequest{{ItemID: "item-a", Quantity: 3, Price: dec("5.00")}},
		AmountPaid: dec("10.00"),
	})
	require.NoError(t, err)
	require.NotNil(t, txn)
	assert.NotEmpty(t, txn.ID)

	assertDec(t, "15.00", txn.Amount)
	assertDec(t, "10.00", txn.AmountPaid)
	assertDec(t, "5.00", txn.AmountDue)
	assert.Equal(t, models.PaymentStatusPartial, txn.PaymentStatus)
	require.Len(t, txn.Items, 1)
	assert.Equal(t, "Item item-a", txn.Items[0].ItemName)
	assert.Equal(t, 3, txn.Items[0].Quantity)

	customer := ms.state.customers["cust-1"]
	assertDec(t, "5.00", customer.Balance)
	assertDec(t, "15.00", customer.TotalPurchases)
	assert.Equal(t, 7, ms.state.items["item-a"].Quantity)

	require.Len(t, events.sales, 1)
	assert.Equal(t, txn.ID, events.sales[0].TransactionID)
	assert.Equal(t, models.EventTypeSaleRecorded, events.sales[0].EventType)
	assert.Empty(t, events.lowStock, "quantity 7 is above threshold 2")
}

func TestRecordSaleFullyPaid(t *testing.T) {
	state := newMemState()
	seedCustomer(state, "cust-1", "0", "0")
	seedItem(state, "item-a", 10, "5.00", 2)
	svc, ms, _ := newLedgerFixture(state)

	txn, err := svc.RecordSale(context.Background(), testUserID, &RecordSaleRequest{
		CustomerID: "cust-1",
		Items:      []SaleLineRequest{{ItemID: "item-a", Quantity: 2, Price: dec("5.00")}},
		AmountPaid: dec("10.00"),
	})
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPaid, txn.PaymentStatus)
	assertDec(t, "0", txn.AmountDue)

	// Fully paid sales leave the balance untouched
	assertDec(t, "0", ms.state.customers["cust-1"].Balance)
	assertDec(t, "10.00", ms.state.customers["cust-1"].TotalPurchases)
}

func TestRecordSaleUnpaid(t *testing.T) {
	state := newMemState()
	seedCustomer(state, "cust-1", "0", "0")
	seedItem(state, "item-a", 10, "4.00", 2)
	svc, _, _ := newLedgerFixture(state)

	txn, err := svc.RecordSale(context.Background(), testUserID, &RecordSaleRequest{
		CustomerID: "cust-1",
		Items:      []SaleLineRequest{{ItemID: "item-a", Quantity: 1, Price: dec("4.00")}},
	})
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPending, txn.PaymentStatus)
	assertDec(t, "4.00", txn.AmountDue)
}

func TestRecordSaleInsufficientStockLeavesNoTrace(t *testing.T) {
	state := newMemState()
	seedCustomer(state, "cust-1", "3.00", "20.00")
	seedItem(state, "item-a", 10, "5.00", 2)
	svc, ms, events := newLedgerFixture(state)

	_, err := svc.RecordSale(context.Background(), testUserID, &RecordSaleRequest{
		CustomerID: "cust-1",
		Items:      []SaleLineRequest{{ItemID: "item-a", Quantity: 11, Price: dec("5.00")}},
	})

	var stockErr *InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, "item-a", stockErr.ItemID)
	assert.Equal(t, 10, stockErr.Available)
	assert.Equal(t, 11, stockErr.Requested)

	// Nothing committed
	assertDec(t, "3.00", ms.state.customers["cust-1"].Balance)
	assertDec(t, "20.00", ms.state.customers["cust-1"].TotalPurchases)
	assert.Equal(t, 10, ms.state.items["item-a"].Quantity)
	assert.Empty(t, ms.state.txns)
	assert.Empty(t, events.sales)
}

func TestRecordSaleAggregatesDuplicateLines(t *testing.T) {
	state := newMemState()
	seedCustomer(state, "cust-1", "0", "0")
	seedItem(state, "item-a", 5, "2.00", 0)
	svc, ms, _ := newLedgerFixture(state)

	// 3 + 4 of the same item exceeds stock 5 even though each line alone fits
	_, err := svc.RecordSale(context.Background(), testUserID, &RecordSaleRequest{
		CustomerID: "cust-1",
		Items: []SaleLineRequest{
			{ItemID: "item-a", Quantity: 3, Price: dec("2.00")},
			{ItemID: "item-a", Quantity: 4, Price: dec("2.00")},
		},
	})
	var stockErr *InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, 7, stockErr.Requested)
	assert.Equal(t, 5, ms.state.items["item-a"].Quantity)

	// Within stock, both lines decrement cumulatively
	txn, err := svc.RecordSale(context.Background(), testUserID, &RecordSaleRequest{
		CustomerID: "cust-1",
		Items: []SaleLineRequest{
			{ItemID: "item-a", Quantity: 2, Price: dec("2.00")},
			{ItemID: "item-a", Quantity: 1, Price: dec("2.00")},
		},
	})
	require.NoError(t, err)
	assertDec(t, "6.00", txn.Amount)
	assert.Equal(t, 2, ms.state.items["item-a"].Quantity)
	assert.Len(t, txn.Items, 2)
}

func TestRecordSaleEmitsLowStockEvent(t *testing.T) {
	state := newMemState()
	seedCustomer(state, "cust-1", "0", "0")
	seedItem(state, "item-a", 6, "1.00", 5)
	svc, _, events := newLedgerFixture(state)

	_, err := svc.RecordSale(context.Background(), testUserID, &RecordSaleRequest{
		CustomerID: "cust-1",
		Items:      []SaleLineRequest{{ItemID: "item-a", Quantity: 2, Price: dec("1.00")}},
		AmountPaid: dec("2.00"),
	})
	require.NoError(t, err)

	require.Len(t, events.lowStock, 1)
	alert := events.lowStock[0]
	assert.Equal(t, "item-a", alert.ItemID)
	assert.Equal(t, 4, alert.Quantity)
	assert.Equal(t, 5, alert.Threshold)
	assert.Equal(t, models.EventTypeLowStock, alert.EventType)
}

func TestRecordSaleNotFound(t *testing.T) {
	state := newMemState()
	seedCustomer(state, "cust-1", "0", "0")
	seedItem(state, "item-a", 10, "5.00", 2)
	svc, ms, _ := newLedgerFixture(state)

	_, err := svc.RecordSale(context.Background(), testUserID, &RecordSaleRequest{
		CustomerID: "nope",
		Items:      []SaleLineRequest{{ItemID: "item-a", Quantity: 1, Price: dec("5.00")}},
	})
	var notFound *NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "customer", notFound.Entity)

	_, err = svc.RecordSale(context.Background(), testUserID, &RecordSaleRequest{
		CustomerID: "cust-1",
		Items:      []SaleLineRequest{{ItemID: "nope", Quantity: 1, Price: dec("5.00")}},
	})
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "inventory item", notFound.Entity)

	// Documents belonging to another user are invisible
	_, err = svc.RecordSale(context.Background(), "user-2", &RecordSaleRequest{
		CustomerID: "cust-1",
		Items:      []SaleLineRequest{{ItemID: "item-a", Quantity: 1, Price: dec("5.00")}},
	})
	require.ErrorAs(t, err, &notFound)
	assert.Empty(t, ms.state.txns)
}

func TestRecordSaleValidation(t *testing.T) {
	tests := []struct {
		name  string
		req   *RecordSaleRequest
		field string
	}{
		{
			name:  "empty items",
			req:   &RecordSaleRequest{CustomerID: "cust-1"},
			field: "items",
		},
		{
			name: "missing item id",
			req: &RecordSaleRequest{
				CustomerID: "cust-1",
				Items:      []SaleLineRequest{{Quantity: 1, Price: dec("1.00")}},
			},
			field: "items[0].item_id",
		},
		{
			name: "zero quantity",
			req: &RecordSaleRequest{
				CustomerID: "cust-1",
				Items:      []SaleLineRequest{{ItemID: "item-a", Quantity: 0, Price: dec("1.00")}},
			},
			field: "items[0].quantity",
		},
		{
			name: "negative price",
			req: &RecordSaleRequest{
				CustomerID: "cust-1",
				Items:      []SaleLineRequest{{ItemID: "item-a", Quantity: 1, Price: dec("-1.00")}},
			},
			field: "items[0].price",
		},
		{
			name: "negative amount paid",
			req: &RecordSaleRequest{
				CustomerID: "cust-1",
				Items:      []SaleLineRequest{{ItemID: "item-a", Quantity: 1, Price: dec("1.00")}},
				AmountPaid: dec("-1.00"),
			},
			field: "amount_paid",
		},
		{
			name: "amount paid exceeds amount",
			req: &RecordSaleRequest{
				CustomerID: "cust-1",
				Items:      []SaleLineRequest{{ItemID: "item-a", Quantity: 1, Price: dec("1.00")}},
				AmountPaid: dec("2.00"),
			},
			field: "amount_paid",
		},
	}

	state := newMemState()
	seedCustomer(state, "cust-1", "0", "0")
	seedItem(state, "item-a", 10, "1.00", 0)
	svc, ms, _ := newLedgerFixture(state)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.RecordSale(context.Background(), testUserID, tt.req)
			var invalid *ValidationError
			require.ErrorAs(t, err, &invalid)
			assert.Equal(t, tt.field, invalid.Field)
		})
	}
	assert.Empty(t, ms.state.txns)
}

func TestRecordPaymentReducesBalance(t *testing.T) {
	state := newMemState()
	seedCustomer(state, "cust-1", "5.00", "15.00")
	svc, ms, events := newLedgerFixture(state)

	txn, err := svc.RecordPayment(context.Background(), testUserID, &RecordPaymentRequest{
		CustomerID: "cust-1",
		Amount:     dec("5.00"),
	})
	require.NoError(t, err)
	assert.Equal(t, models.TransactionTypePayment, txn.Type)
	assert.Equal(t, models.PaymentStatusPaid, txn.PaymentStatus)
	assert.Equal(t, "cash", txn.PaymentMethod)
	assertDec(t, "5.00", txn.Amount)

	assertDec(t, "0", ms.state.customers["cust-1"].Balance)
	// Payments never touch totalPurchases
	assertDec(t, "15.00", ms.state.customers["cust-1"].TotalPurchases)

	require.Len(t, events.payments, 1)
	assert.Equal(t, txn.ID, events.payments[0].TransactionID)
}

func TestRecordPaymentOverpaymentLeavesNoTrace(t *testing.T) {
	state := newMemState()
	seedCustomer(state, "cust-1", "3.00", "10.00")
	svc, ms, events := newLedgerFixture(state)

	_, err := svc.RecordPayment(context.Background(), testUserID, &RecordPaymentRequest{
		CustomerID: "cust-1",
		Amount:     dec("3.01"),
	})

	var overpay *OverpaymentError
	require.ErrorAs(t, err, &overpay)
	assert.Equal(t, "cust-1", overpay.CustomerID)
	assertDec(t, "3.00", overpay.Balance)

	assertDec(t, "3.00", ms.state.customers["cust-1"].Balance)
	assert.Empty(t, ms.state.txns)
	assert.Empty(t, events.payments)
}

func TestRecordPaymentValidation(t *testing.T) {
	state := newMemState()
	seedCustomer(state, "cust-1", "5.00", "5.00")
	svc, _, _ := newLedgerFixture(state)

	for _, amount := range []string{"0", "-1.00"} {
		_, err := svc.RecordPayment(context.Background(), testUserID, &RecordPaymentRequest{
			CustomerID: "cust-1",
			Amount:     dec(amount),
		})
		var invalid *ValidationError
		require.ErrorAs(t, err, &invalid)
		assert.Equal(t, "amount", invalid.Field)
	}
}

func TestDeleteSaleRestoresExactState(t *testing.T) {
	state := newMemState()
	seedCustomer(state, "cust-1", "0", "0")
	seedItem(state, "item-a", 10, "5.00", 2)
	svc, ms, events := newLedgerFixture(state)

	txn, err := svc.RecordSale(context.Background(), testUserID, &RecordSaleRequest{
		CustomerID: "cust-1",
		Items:      []SaleLineRequest{{ItemID: "item-a", Quantity: 3, Price: dec("5.00")}},
		AmountPaid: dec("10.00"),
	})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteTransaction(context.Background(), testUserID, txn.ID))

	customer := ms.state.customers["cust-1"]
	assertDec(t, "0", customer.Balance)
	assertDec(t, "0", customer.TotalPurchases)
	assert.Equal(t, 10, ms.state.items["item-a"].Quantity)
	assert.Empty(t, ms.state.txns)

	require.Len(t, events.deletes, 1)
	assert.Equal(t, txn.ID, events.deletes[0].TransactionID)
	assert.Equal(t, models.TransactionTypeSale, events.deletes[0].TransactionType)
}

func TestDeleteSaleAfterPaymentGoesNegative(t *testing.T) {
	state := newMemState()
	seedCustomer(state, "cust-1", "0", "0")
	seedItem(state, "item-a", 10, "5.00", 2)
	svc, ms, _ := newLedgerFixture(state)
	ctx := context.Background()

	sale, err := svc.RecordSale(ctx, testUserID, &RecordSaleRequest{
		CustomerID: "cust-1",
		Items:      []SaleLineRequest{{ItemID: "item-a", Quantity: 3, Price: dec("5.00")}},
		AmountPaid: dec("10.00"),
	})
	require.NoError(t, err)

	_, err = svc.RecordPayment(ctx, testUserID, &RecordPaymentRequest{
		CustomerID: "cust-1",
		Amount:     dec("5.00"),
	})
	require.NoError(t, err)
	assertDec(t, "0", ms.state.customers["cust-1"].Balance)

	// Deleting the sale out from under the payment drives the balance
	// negative: the customer is owed a refund.
	require.NoError(t, svc.DeleteTransaction(ctx, testUserID, sale.ID))

	customer := ms.state.customers["cust-1"]
	assertDec(t, "-5.00", customer.Balance)
	assertDec(t, "0", customer.TotalPurchases)
	assert.Equal(t, 10, ms.state.items["item-a"].Quantity)
	assert.Len(t, ms.state.txns, 1, "the payment record remains")
}

func TestDeletePaymentRestoresBalance(t *testing.T) {
	state := newMemState()
	seedCustomer(state, "cust-1", "8.00", "8.00")
	svc, ms, _ := newLedgerFixture(state)
	ctx := context.Background()

	payment, err := svc.RecordPayment(ctx, testUserID, &RecordPaymentRequest{
		CustomerID: "cust-1",
		Amount:     dec("8.00"),
	})
	require.NoError(t, err)
	assertDec(t, "0", ms.state.customers["cust-1"].Balance)

	require.NoError(t, svc.DeleteTransaction(ctx, testUserID, payment.ID))
	assertDec(t, "8.00", ms.state.customers["cust-1"].Balance)
	assertDec(t, "8.00", ms.state.customers["cust-1"].TotalPurchases)
	assert.Empty(t, ms.state.txns)
}

func TestDeleteSaleSkipsMissingItems(t *testing.T) {
	state := newMemState()
	seedCustomer(state, "cust-1", "0", "0")
	seedItem(state, "item-a", 10, "5.00", 2)
	seedItem(state, "item-b", 10, "3.00", 2)
	svc, ms, _ := newLedgerFixture(state)
	ctx := context.Background()

	sale, err := svc.RecordSale(ctx, testUserID, &RecordSaleRequest{
		CustomerID: "cust-1",
		Items: []SaleLineRequest{
			{ItemID: "item-a", Quantity: 2, Price: dec("5.00")},
			{ItemID: "item-b", Quantity: 4, Price: dec("3.00")},
		},
	})
	require.NoError(t, err)

	// Item removed from the catalog between sale and deletion
	delete(ms.state.items, "item-b")

	require.NoError(t, svc.DeleteTransaction(ctx, testUserID, sale.ID))

	assert.Equal(t, 10, ms.state.items["item-a"].Quantity)
	_, exists := ms.state.items["item-b"]
	assert.False(t, exists, "skipped item is not resurrected")
	assert.Empty(t, ms.state.txns)
	assertDec(t, "0", ms.state.customers["cust-1"].Balance)
}

func TestDeleteTransactionNotFound(t *testing.T) {
	state := newMemState()
	seedCustomer(state, "cust-1", "0", "0")
	svc, _, _ := newLedgerFixture(state)

	err := svc.DeleteTransaction(context.Background(), testUserID, "nope")
	var notFound *NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "transaction", notFound.Entity)
}

func TestDeleteTransactionMissingCustomerAborts(t *testing.T) {
	state := newMemState()
	seedCustomer(state, "cust-1", "0", "0")
	seedItem(state, "item-a", 10, "5.00", 2)
	svc, ms, _ := newLedgerFixture(state)
	ctx := context.Background()

	sale, err := svc.RecordSale(ctx, testUserID, &RecordSaleRequest{
		CustomerID: "cust-1",
		Items:      []SaleLineRequest{{ItemID: "item-a", Quantity: 1, Price: dec("5.00")}},
	})
	require.NoError(t, err)

	delete(ms.state.customers, "cust-1")

	err = svc.DeleteTransaction(ctx, testUserID, sale.ID)
	var notFound *NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "customer", notFound.Entity)

	// The unit aborted: the transaction record is still there
	assert.Len(t, ms.state.txns, 1)
	assert.Equal(t, 9, ms.state.items["item-a"].Quantity)
}

func TestBalanceMatchesTransactionHistory(t *testing.T) {
	state := newMemState()
	seedCustomer(state, "cust-1", "0", "0")
	seedItem(state, "item-a", 100, "2.50", 0)
	svc, ms, _ := newLedgerFixture(state)
	ctx := context.Background()

	sale1, err := svc.RecordSale(ctx, testUserID, &RecordSaleRequest{
		CustomerID: "cust-1",
		Items:      []SaleLineRequest{{ItemID: "item-a", Quantity: 4, Price: dec("2.50")}},
	})
	require.NoError(t, err)

	_, err = svc.RecordSale(ctx, testUserID, &RecordSaleRequest{
		CustomerID: "cust-1",
		Items:      []SaleLineRequest{{ItemID: "item-a", Quantity: 2, Price: dec("2.50")}},
		AmountPaid: dec("2.00"),
	})
	require.NoError(t, err)

	_, err = svc.RecordPayment(ctx, testUserID, &RecordPaymentRequest{
		CustomerID: "cust-1",
		Amount:     dec("6.00"),
	})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteTransaction(ctx, testUserID, sale1.ID))

	// balance == sum of amountDue over remaining sales minus sum of amount
	// over remaining payments
	expected := decimal.Zero
	for _, txn := range ms.state.txns {
		switch txn.Type {
		case models.TransactionTypeSale:
			expected = expected.Add(txn.AmountDue)
		case models.TransactionTypePayment:
			expected = expected.Sub(txn.Amount)
		}
	}
	assert.True(t, expected.Equal(ms.state.customers["cust-1"].Balance),
		"balance %s diverged from transaction history %s",
		ms.state.customers["cust-1"].Balance, expected)
}

func TestConcurrentSalesOfLastUnit(t *testing.T) {
	state := newMemState()
	seedCustomer(state, "cust-1", "0", "0")
	seedItem(state, "item-a", 1, "9.99", 0)
	svc, ms, _ := newLedgerFixture(state)

	results := make(chan error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.RecordSale(context.Background(), testUserID, &RecordSaleRequest{
				CustomerID: "cust-1",
				Items:      []SaleLineRequest{{ItemID: "item-a", Quantity: 1, Price: dec("9.99")}},
				AmountPaid: dec("9.99"),
			})
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var succeeded, rejected int
	for err := range results {
		if err == nil {
			succeeded++
			continue
		}
		var stockErr *InsufficientStockError
		require.ErrorAs(t, err, &stockErr)
		rejected++
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, rejected)
	assert.Equal(t, 0, ms.state.items["item-a"].Quantity)
	assert.Len(t, ms.state.txns, 1)
}

func TestRetryConflictThenSucceed(t *testing.T) {
	state := newMemState()
	seedCustomer(state, "cust-1", "0", "0")
	seedItem(state, "item-a", 10, "1.00", 0)
	svc, ms, _ := newLedgerFixture(state)
	ms.conflicts = 2

	txn, err := svc.RecordSale(context.Background(), testUserID, &RecordSaleRequest{
		CustomerID: "cust-1",
		Items:      []SaleLineRequest{{ItemID: "item-a", Quantity: 1, Price: dec("1.00")}},
		AmountPaid: dec("1.00"),
	})
	require.NoError(t, err)
	assert.NotEmpty(t, txn.ID)
	assert.Equal(t, 9, ms.state.items["item-a"].Quantity)
	assert.Len(t, ms.state.txns, 1, "retries must not duplicate the write")
}

func TestRetryExhaustion(t *testing.T) {
	state := newMemState()
	seedCustomer(state, "cust-1", "0", "0")
	seedItem(state, "item-a", 10, "1.00", 0)
	ms := newMemStore(state)
	ms.conflicts = 100
	svc := NewLedgerService(ms, &eventRecorder{}, nil, 3)

	_, err := svc.RecordSale(context.Background(), testUserID, &RecordSaleRequest{
		CustomerID: "cust-1",
		Items:      []SaleLineRequest{{ItemID: "item-a", Quantity: 1, Price: dec("1.00")}},
	})
	require.ErrorIs(t, err, ErrConflictRetryExhausted)
	assert.Equal(t, 10, ms.state.items["item-a"].Quantity)
	assert.Empty(t, ms.state.txns)
	assert.Equal(t, 97, ms.conflicts, "gave up after exactly maxRetries attempts")
}

func TestRecordSaleIdempotencyReplay(t *testing.T) {
	state := newMemState()
	seedCustomer(state, "cust-1", "0", "0")
	seedItem(state, "item-a", 10, "5.00", 0)
	ms := newMemStore(state)
	events := &eventRecorder{}
	svc := NewLedgerService(ms, events, newMemIdemCache(), 5)
	ctx := context.Background()

	req := &RecordSaleRequest{
		CustomerID:     "cust-1",
		Items:          []SaleLineRequest{{ItemID: "item-a", Quantity: 1, Price: dec("5.00")}},
		AmountPaid:     dec("5.00"),
		IdempotencyKey: "req-123",
	}

	first, err := svc.RecordSale(ctx, testUserID, req)
	require.NoError(t, err)

	second, err := svc.RecordSale(ctx, testUserID, req)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	assert.Len(t, ms.state.txns, 1, "replay must not write a second transaction")
	assert.Equal(t, 9, ms.state.items["item-a"].Quantity)
	assert.Len(t, events.sales, 1)
}

func TestDerivePaymentStatus(t *testing.T) {
	tests := []struct {
		due, paid string
		want      string
	}{
		{"0", "10.00", models.PaymentStatusPaid},
		{"0", "0", models.PaymentStatusPaid},
		{"10.00", "0", models.PaymentStatusPending},
		{"5.00", "5.00", models.PaymentStatusPartial},
	}
	for _, tt := range tests {
		got := derivePaymentStatus(dec(tt.due), dec(tt.paid))
		assert.Equal(t, tt.want, got, "due=%s paid=%s", tt.due, tt.paid)
	}
}

func TestValidateSaleRequestComputesAmount(t *testing.T) {
	amount, err := validateSaleRequest(&RecordSaleRequest{
		CustomerID: "cust-1",
		Items: []SaleLineRequest{
			{ItemID: "a", Quantity: 3, Price: dec("5.00")},
			{ItemID: "b", Quantity: 2, Price: dec("1.25")},
		},
		AmountPaid: dec("17.50"),
	})
	require.NoError(t, err)
	assertDec(t, "17.50", amount)
}
