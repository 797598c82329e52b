package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cybersms/numstore/internal/activation"
	"github.com/cybersms/numstore/internal/models"
	"github.com/cybersms/numstore/internal/store"
)

// ActivationHandler exposes the purchase and tracking endpoints.
type ActivationHandler struct {
	coordinator *activation.Coordinator
	activations *store.ActivationStore
}

// NewActivationHandler constructs an ActivationHandler.
func NewActivationHandler(coordinator *activation.Coordinator, activations *store.ActivationStore) *ActivationHandler {
	return &ActivationHandler{coordinator: coordinator, activations: activations}
}

// activationView is the wire shape of an activation record.
type activationView struct {
	ID          string     `json:"id"`
	ServiceID   int64      `json:"serviceId"`
	PhoneNumber string     `json:"phoneNumber"`
	Status      string     `json:"status"`
	SMSCode     *string    `json:"smsCode,omitempty"`
	SMSText     *string    `json:"smsText,omitempty"`
	MinutesLeft int        `json:"minutesLeft"`
	PricePaid   float64    `json:"pricePaid"`
	CreatedAt   time.Time  `json:"createdAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

func viewOf(record models.Activation) activationView {
	return activationView{
		ID:          record.ID,
		ServiceID:   record.ServiceID,
		PhoneNumber: record.PhoneNumber,
		Status:      record.Status,
		SMSCode:     record.SMSCode,
		SMSText:     record.SMSText,
		MinutesLeft: record.MinutesLeft,
		PricePaid:   record.PricePaid,
		CreatedAt:   record.CreatedAt,
		CompletedAt: record.CompletedAt,
	}
}

// liveView prefers the in-memory record over the persisted row, since the
// countdown and code may be a tick ahead of the database.
func (h *ActivationHandler) liveView(record models.Activation) activationView {
	if live, ok := h.coordinator.Tracked(record.ID); ok {
		return viewOf(*live)
	}
	return viewOf(record)
}

// purchaseRequest defines the request body for number purchases. The price is
// the quote shown on the catalog page and is checked against the balance
// before the provider is asked for a number.
type purchaseRequest struct {
	CountryID int64   `json:"countryId"`
	ServiceID int64   `json:"serviceId"`
	Price     float64 `json:"price"`
}

// Purchase reserves a number for the authenticated customer.
func (h *ActivationHandler) Purchase(c *gin.Context) {
	var body purchaseRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if body.CountryID <= 0 || body.ServiceID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing countryId or serviceId"})
		return
	}

	record, errPurchase := h.coordinator.Purchase(c.Request.Context(), getSession(c), body.CountryID, body.ServiceID, body.Price)
	if errPurchase != nil {
		respondError(c, errPurchase)
		return
	}

	sess := getSession(c)
	c.JSON(http.StatusCreated, gin.H{
		"activation": viewOf(*record),
		"balance":    sess.Balance(),
	})
}

// ListActive returns the customer's waiting activations.
func (h *ActivationHandler) ListActive(c *gin.Context) {
	rows, errList := h.activations.ListActiveByCustomer(c.Request.Context(), getCustomerID(c))
	if errList != nil {
		respondError(c, errList)
		return
	}
	views := make([]activationView, 0, len(rows))
	for _, row := range rows {
		view := h.liveView(row)
		if view.Status != models.StatusWaiting {
			continue
		}
		views = append(views, view)
	}
	c.JSON(http.StatusOK, gin.H{"activations": views})
}

// History returns the customer's finished activations.
func (h *ActivationHandler) History(c *gin.Context) {
	rows, errList := h.activations.ListHistoryByCustomer(c.Request.Context(), getCustomerID(c))
	if errList != nil {
		respondError(c, errList)
		return
	}
	views := make([]activationView, 0, len(rows))
	for _, row := range rows {
		views = append(views, viewOf(row))
	}
	c.JSON(http.StatusOK, gin.H{"activations": views})
}

// Get returns one activation owned by the customer.
func (h *ActivationHandler) Get(c *gin.Context) {
	record, errGet := h.activations.GetByID(c.Request.Context(), c.Param("id"))
	if errGet != nil {
		respondError(c, errGet)
		return
	}
	if record.CustomerID != getCustomerID(c) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"activation": h.liveView(*record)})
}

// Cancel asks the provider to release a waiting number.
func (h *ActivationHandler) Cancel(c *gin.Context) {
	record, errCancel := h.coordinator.Cancel(c.Request.Context(), getCustomerID(c), c.Param("id"))
	if errCancel != nil {
		respondError(c, errCancel)
		return
	}
	c.JSON(http.StatusOK, gin.H{"activation": viewOf(*record)})
}
