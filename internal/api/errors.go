package api

import (
	"errors"
	"net/http"

	"ledger-service/internal/service"

	"github.com/gin-gonic/gin"
)

// errorResponse maps a domain error onto an HTTP status and JSON body so
// every failure renders a precise, typed message
func errorResponse(err error) (int, gin.H) {
	var notFound *service.NotFoundError
	var stock *service.InsufficientStockError
	var overpay *service.OverpaymentError
	var invalid *service.ValidationError

	switch {
	case errors.As(err, &invalid):
		return http.StatusBadRequest, gin.H{
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": invalid.Error(),
				"field":   invalid.Field,
			},
		}

	case errors.As(err, &notFound):
		return http.StatusNotFound, gin.H{
			"error": gin.H{
				"code":    "NOT_FOUND",
				"message": notFound.Error(),
				"entity":  notFound.Entity,
				"id":      notFound.ID,
			},
		}

	case errors.As(err, &stock):
		return http.StatusConflict, gin.H{
			"error": gin.H{
				"code":      "INSUFFICIENT_STOCK",
				"message":   stock.Error(),
				"item_id":   stock.ItemID,
				"item_name": stock.ItemName,
				"available": stock.Available,
				"requested": stock.Requested,
			},
		}

	case errors.As(err, &overpay):
		return http.StatusConflict, gin.H{
			"error": gin.H{
				"code":        "OVERPAYMENT",
				"message":     overpay.Error(),
				"customer_id": overpay.CustomerID,
				"balance":     overpay.Balance,
			},
		}

	case errors.Is(err, service.ErrConflictRetryExhausted):
		return http.StatusServiceUnavailable, gin.H{
			"error": gin.H{
				"code":    "CONFLICT_RETRY_EXHAUSTED",
				"message": "the operation could not complete due to sustained contention, please retry",
			},
		}

	default:
		return http.StatusInternalServerError, gin.H{
			"error": gin.H{
				"code":    "INTERNAL_ERROR",
				"message": "an unexpected error occurred",
			},
		}
	}
}

func respondError(c *gin.Context, err error) {
	status, body := errorResponse(err)
	c.JSON(status, body)
}
