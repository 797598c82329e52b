package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/cybersms/numstore/internal/security"
	"github.com/cybersms/numstore/internal/store"
)

// ProfileHandler serves the customer profile endpoints.
type ProfileHandler struct {
	credentials *store.CredentialStore
}

// NewProfileHandler constructs a ProfileHandler.
func NewProfileHandler(credentials *store.CredentialStore) *ProfileHandler {
	return &ProfileHandler{credentials: credentials}
}

// Get returns the customer's profile.
func (h *ProfileHandler) Get(c *gin.Context) {
	credential, errFind := h.credentials.GetByCustomerID(c.Request.Context(), getCustomerID(c))
	if errFind != nil {
		respondError(c, errFind)
		return
	}
	sess := getSession(c)
	c.JSON(http.StatusOK, gin.H{
		"customer_id": credential.CustomerID,
		"email":       credential.Email,
		"name":        credential.Name,
		"balance":     sess.Balance(),
		"created_at":  credential.CreatedAt,
	})
}

// updateNameRequest defines the request body for renaming the account.
type updateNameRequest struct {
	Name string `json:"name"`
}

// UpdateName changes the display name.
func (h *ProfileHandler) UpdateName(c *gin.Context) {
	var body updateNameRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	name := strings.TrimSpace(body.Name)
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing name"})
		return
	}
	if errUpdate := h.credentials.UpdateName(c.Request.Context(), getCustomerID(c), name); errUpdate != nil {
		respondError(c, errUpdate)
		return
	}
	if sess := getSession(c); sess != nil {
		sess.Name = name
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// changePasswordRequest defines the request body for password changes.
type changePasswordRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

// ChangePassword replaces the password after verifying the current one.
func (h *ProfileHandler) ChangePassword(c *gin.Context) {
	var body changePasswordRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	oldPassword := strings.TrimSpace(body.OldPassword)
	newPassword := strings.TrimSpace(body.NewPassword)
	if oldPassword == "" || newPassword == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing old or new password"})
		return
	}

	ctx := c.Request.Context()
	credential, errFind := h.credentials.GetByCustomerID(ctx, getCustomerID(c))
	if errFind != nil {
		respondError(c, errFind)
		return
	}
	if !security.CheckPassword(credential.Password, oldPassword) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid current password"})
		return
	}

	hash, errHash := security.HashPassword(newPassword)
	if errHash != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "hash password failed"})
		return
	}
	if errUpdate := h.credentials.UpdatePassword(ctx, credential.CustomerID, hash); errUpdate != nil {
		respondError(c, errUpdate)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
