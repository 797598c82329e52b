package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cybersms/numstore/internal/activation"
	"github.com/cybersms/numstore/internal/provider"
	"github.com/cybersms/numstore/internal/session"
	"github.com/cybersms/numstore/internal/store"
)

// getCustomerID extracts the customer ID from gin context.
func getCustomerID(c *gin.Context) int64 {
	val, exists := c.Get("customerID")
	if !exists {
		return 0
	}
	switch v := val.(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case uint64:
		return int64(v)
	default:
		return 0
	}
}

// getSession extracts the customer session from gin context.
func getSession(c *gin.Context) *session.Session {
	val, exists := c.Get("session")
	if !exists {
		return nil
	}
	sess, ok := val.(*session.Session)
	if !ok {
		return nil
	}
	return sess
}

// respondError maps domain errors to HTTP statuses.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, activation.ErrAuthenticationRequired):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
	case errors.Is(err, activation.ErrInsufficientFunds):
		c.JSON(http.StatusPaymentRequired, gin.H{"error": "insufficient balance"})
	case errors.Is(err, activation.ErrInvalidPrice):
		c.JSON(http.StatusBadRequest, gin.H{"error": "price must be positive"})
	case errors.Is(err, activation.ErrCancelRefused):
		c.JSON(http.StatusConflict, gin.H{"error": "cancellation refused"})
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, provider.ErrTimeout):
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": "provider timeout"})
	default:
		var apiErr *provider.APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode() >= http.StatusBadRequest {
			c.JSON(http.StatusBadGateway, gin.H{"error": apiErr.Message})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
