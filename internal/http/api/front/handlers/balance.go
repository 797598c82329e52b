package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/cybersms/numstore/internal/session"
)

// BalanceHandler serves the cached balance and the simulated top-up.
type BalanceHandler struct {
	sessions *session.Manager
}

// NewBalanceHandler constructs a BalanceHandler.
func NewBalanceHandler(sessions *session.Manager) *BalanceHandler {
	return &BalanceHandler{sessions: sessions}
}

// Get re-reads the remote balance and returns the fresh value. When the
// provider is unreachable the cached value is served instead.
func (h *BalanceHandler) Get(c *gin.Context) {
	sess := getSession(c)
	if sess == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}
	if errRefresh := h.sessions.RefreshBalance(c.Request.Context(), sess); errRefresh != nil {
		log.WithError(errRefresh).Warnf("balance refresh failed (customer=%d)", sess.CustomerID)
	}
	c.JSON(http.StatusOK, gin.H{"balance": sess.Balance()})
}

// topUpRequest defines the request body for top-ups.
type topUpRequest struct {
	Method string  `json:"method"`
	Amount float64 `json:"amount"`
}

// TopUp applies a simulated credit to the cached balance. Crypto payments
// receive a bonus.
func (h *BalanceHandler) TopUp(c *gin.Context) {
	var body topUpRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if strings.TrimSpace(body.Method) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing payment method"})
		return
	}

	credited, balance, errTopUp := h.sessions.TopUp(getSession(c), body.Method, body.Amount)
	if errTopUp != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid top-up amount"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"credited": credited,
		"balance":  balance,
	})
}
