package api

import (
	"net/http"
	"strconv"
	"time"

	"ledger-service/internal/models"
	"ledger-service/internal/service"
	"ledger-service/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler contains HTTP handlers
type Handler struct {
	ledger    *service.LedgerService
	inventory *service.InventoryService
	customers *service.CustomerService
	suppliers *service.SupplierService
	stats     *service.StatsService
}

// NewHandler creates a new HTTP handler
func NewHandler(
	ledger *service.LedgerService,
	inventory *service.InventoryService,
	customers *service.CustomerService,
	suppliers *service.SupplierService,
	stats *service.StatsService,
) *Handler {
	return &Handler{
		ledger:    ledger,
		inventory: inventory,
		customers: customers,
		suppliers: suppliers,
		stats:     stats,
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	v1.Use(identityMiddleware())
	{
		v1.GET("/inventory", h.listInventory)
		v1.POST("/inventory", h.createInventoryItem)
		v1.GET("/inventory/:id", h.getInventoryItem)
		v1.PUT("/inventory/:id", h.updateInventoryItem)
		v1.DELETE("/inventory/:id", h.deleteInventoryItem)

		v1.GET("/customers", h.listCustomers)
		v1.POST("/customers", h.createCustomer)
		v1.GET("/customers/:id", h.getCustomer)
		v1.PUT("/customers/:id", h.updateCustomer)
		v1.DELETE("/customers/:id", h.deleteCustomer)
		v1.GET("/customers/:id/transactions", h.listCustomerTransactions)

		v1.GET("/suppliers", h.listSuppliers)
		v1.POST("/suppliers", h.createSupplier)
		v1.GET("/suppliers/:id", h.getSupplier)
		v1.PUT("/suppliers/:id", h.updateSupplier)
		v1.DELETE("/suppliers/:id", h.deleteSupplier)

		v1.GET("/transactions", h.listTransactions)
		v1.DELETE("/transactions/:id", h.deleteTransaction)
		v1.POST("/sales", h.recordSale)
		v1.POST("/payments", h.recordPayment)

		v1.GET("/stats/inventory", h.inventoryStats)
		v1.GET("/stats/customers", h.customerStats)
	}
}

// identityMiddleware extracts the trusted user id supplied by the external
// identity provider. Every document is scoped by it; no further
// authorization happens here.
func identityMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetHeader("X-User-ID")
		if userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": gin.H{
					"code":    "UNAUTHORIZED",
					"message": "missing X-User-ID header",
				},
			})
			return
		}
		c.Set("userID", userID)
		c.Next()
	}
}

func userID(c *gin.Context) string {
	return c.GetString("userID")
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck handles readiness check requests
func (h *Handler) readinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

// --- inventory ---

func (h *Handler) listInventory(c *gin.Context) {
	filters := models.InventoryFilters{
		Search:   c.Query("search"),
		Category: c.Query("category"),
	}
	filters.LowStock, _ = strconv.ParseBool(c.Query("low_stock"))

	items, err := h.inventory.List(c.Request.Context(), userID(c), filters)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (h *Handler) getInventoryItem(c *gin.Context) {
	item, err := h.inventory.Get(c.Request.Context(), userID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h *Handler) createInventoryItem(c *gin.Context) {
	var req service.CreateInventoryItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, &service.ValidationError{Field: "body", Message: err.Error()})
		return
	}

	item, err := h.inventory.Create(c.Request.Context(), userID(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

func (h *Handler) updateInventoryItem(c *gin.Context) {
	var req service.UpdateInventoryItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, &service.ValidationError{Field: "body", Message: err.Error()})
		return
	}

	item, err := h.inventory.Update(c.Request.Context(), userID(c), c.Param("id"), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h *Handler) deleteInventoryItem(c *gin.Context) {
	if err := h.inventory.Delete(c.Request.Context(), userID(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// --- customers ---

func (h *Handler) listCustomers(c *gin.Context) {
	customers, err := h.customers.List(c.Request.Context(), userID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"customers": customers})
}

func (h *Handler) getCustomer(c *gin.Context) {
	customer, err := h.customers.Get(c.Request.Context(), userID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, customer)
}

func (h *Handler) createCustomer(c *gin.Context) {
	var req service.CreateCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, &service.ValidationError{Field: "body", Message: err.Error()})
		return
	}

	customer, err := h.customers.Create(c.Request.Context(), userID(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, customer)
}

func (h *Handler) updateCustomer(c *gin.Context) {
	var req service.UpdateCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, &service.ValidationError{Field: "body", Message: err.Error()})
		return
	}

	customer, err := h.customers.Update(c.Request.Context(), userID(c), c.Param("id"), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, customer)
}

func (h *Handler) deleteCustomer(c *gin.Context) {
	if err := h.customers.Delete(c.Request.Context(), userID(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) listCustomerTransactions(c *gin.Context) {
	txns, err := h.customers.Transactions(c.Request.Context(), userID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transactions": txns})
}

// --- suppliers ---

func (h *Handler) listSuppliers(c *gin.Context) {
	suppliers, err := h.suppliers.List(c.Request.Context(), userID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"suppliers": suppliers})
}

func (h *Handler) getSupplier(c *gin.Context) {
	supplier, err := h.suppliers.Get(c.Request.Context(), userID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, supplier)
}

func (h *Handler) createSupplier(c *gin.Context) {
	var req service.CreateSupplierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, &service.ValidationError{Field: "body", Message: err.Error()})
		return
	}

	supplier, err := h.suppliers.Create(c.Request.Context(), userID(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, supplier)
}

func (h *Handler) updateSupplier(c *gin.Context) {
	var req service.UpdateSupplierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, &service.ValidationError{Field: "body", Message: err.Error()})
		return
	}

	supplier, err := h.suppliers.Update(c.Request.Context(), userID(c), c.Param("id"), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, supplier)
}

func (h *Handler) deleteSupplier(c *gin.Context) {
	if err := h.suppliers.Delete(c.Request.Context(), userID(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// --- ledger ---

func (h *Handler) listTransactions(c *gin.Context) {
	txns, err := h.customers.TransactionsForUser(c.Request.Context(), userID(c), c.Query("customer_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transactions": txns})
}

func (h *Handler) recordSale(c *gin.Context) {
	var req service.RecordSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, &service.ValidationError{Field: "body", Message: err.Error()})
		return
	}
	if req.IdempotencyKey == "" {
		req.IdempotencyKey = c.GetHeader("Idempotency-Key")
	}

	txn, err := h.ledger.RecordSale(c.Request.Context(), userID(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, txn)
}

func (h *Handler) recordPayment(c *gin.Context) {
	var req service.RecordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, &service.ValidationError{Field: "body", Message: err.Error()})
		return
	}

	txn, err := h.ledger.RecordPayment(c.Request.Context(), userID(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, txn)
}

func (h *Handler) deleteTransaction(c *gin.Context) {
	if err := h.ledger.DeleteTransaction(c.Request.Context(), userID(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// --- stats ---

func (h *Handler) inventoryStats(c *gin.Context) {
	stats, err := h.stats.InventoryStats(c.Request.Context(), userID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *Handler) customerStats(c *gin.Context) {
	stats, err := h.stats.CustomerStats(c.Request.Context(), userID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
