package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/cybersms/numstore/internal/provider"
)

// CatalogHandler serves provider reference data: services, countries, prices.
type CatalogHandler struct {
	provider *provider.Client
}

// NewCatalogHandler constructs a CatalogHandler.
func NewCatalogHandler(client *provider.Client) *CatalogHandler {
	return &CatalogHandler{provider: client}
}

// Services lists the receivable services.
func (h *CatalogHandler) Services(c *gin.Context) {
	services, errList := h.provider.Services(c.Request.Context())
	if errList != nil {
		respondError(c, errList)
		return
	}
	c.JSON(http.StatusOK, gin.H{"services": services})
}

// Countries lists the available countries.
func (h *CatalogHandler) Countries(c *gin.Context) {
	countries, errList := h.provider.Countries(c.Request.Context())
	if errList != nil {
		respondError(c, errList)
		return
	}
	c.JSON(http.StatusOK, gin.H{"countries": countries})
}

// Price quotes one country and service pair. Prices travel as integer cents
// from the provider and leave here in major units.
func (h *CatalogHandler) Price(c *gin.Context) {
	countryID, errCountry := strconv.ParseInt(c.Query("countryId"), 10, 64)
	serviceID, errService := strconv.ParseInt(c.Query("serviceId"), 10, 64)
	if errCountry != nil || errService != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing countryId or serviceId"})
		return
	}

	quote, errQuote := h.provider.Price(c.Request.Context(), countryID, serviceID)
	if errQuote != nil {
		respondError(c, errQuote)
		return
	}
	if quote == nil {
		c.JSON(http.StatusOK, gin.H{"available": 0})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"price":     quote.Amount(),
		"available": quote.Available,
	})
}
