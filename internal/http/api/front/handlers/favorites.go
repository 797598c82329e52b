package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/cybersms/numstore/internal/store"
)

// FavoriteHandler manages the customer's starred services.
type FavoriteHandler struct {
	favorites *store.FavoriteStore
}

// NewFavoriteHandler constructs a FavoriteHandler.
func NewFavoriteHandler(favorites *store.FavoriteStore) *FavoriteHandler {
	return &FavoriteHandler{favorites: favorites}
}

// List returns the customer's favorite service ids.
func (h *FavoriteHandler) List(c *gin.Context) {
	serviceIDs, errList := h.favorites.ListServiceIDs(c.Request.Context(), getCustomerID(c))
	if errList != nil {
		respondError(c, errList)
		return
	}
	c.JSON(http.StatusOK, gin.H{"service_ids": serviceIDs})
}

// favoriteRequest defines the request body for adding a favorite.
type favoriteRequest struct {
	ServiceID int64 `json:"serviceId"`
}

// Add stars a service. Adding an existing favorite is a no-op.
func (h *FavoriteHandler) Add(c *gin.Context) {
	var body favoriteRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if body.ServiceID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing serviceId"})
		return
	}
	if errAdd := h.favorites.Add(c.Request.Context(), getCustomerID(c), body.ServiceID); errAdd != nil {
		respondError(c, errAdd)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// Remove unstars a service.
func (h *FavoriteHandler) Remove(c *gin.Context) {
	serviceID, errParse := strconv.ParseInt(c.Param("serviceId"), 10, 64)
	if errParse != nil || serviceID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid serviceId"})
		return
	}
	if errRemove := h.favorites.Remove(c.Request.Context(), getCustomerID(c), serviceID); errRemove != nil {
		respondError(c, errRemove)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
