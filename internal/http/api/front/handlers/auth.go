package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cybersms/numstore/internal/config"
	"github.com/cybersms/numstore/internal/models"
	"github.com/cybersms/numstore/internal/security"
	"github.com/cybersms/numstore/internal/session"
	"github.com/cybersms/numstore/internal/store"
)

// AuthHandler handles customer authentication endpoints.
type AuthHandler struct {
	credentials *store.CredentialStore
	sessions    *session.Manager
	jwtCfg      config.JWTConfig
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(credentials *store.CredentialStore, sessions *session.Manager, jwtCfg config.JWTConfig) *AuthHandler {
	return &AuthHandler{credentials: credentials, sessions: sessions, jwtCfg: jwtCfg}
}

// registerRequest defines the request body for customer registration.
type registerRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

// Register creates a customer account and opens a session. When the remote
// record already exists, registration degrades to a login for it.
func (h *AuthHandler) Register(c *gin.Context) {
	var body registerRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	email := strings.ToLower(strings.TrimSpace(body.Email))
	password := strings.TrimSpace(body.Password)
	if email == "" || !strings.Contains(email, "@") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing or invalid email"})
		return
	}
	if password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing password"})
		return
	}

	ctx := c.Request.Context()
	if _, errCheck := h.credentials.GetByEmail(ctx, email); errCheck == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "email already registered"})
		return
	} else if !errors.Is(errCheck, store.ErrNotFound) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}

	sess, errRegister := h.sessions.Register(ctx, email, body.Name)
	if errRegister != nil {
		respondError(c, errRegister)
		return
	}

	hash, errHash := security.HashPassword(password)
	if errHash != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "hash password failed"})
		return
	}
	now := time.Now().UTC()
	credential := models.Credential{
		CustomerID: sess.CustomerID,
		Email:      email,
		Name:       strings.TrimSpace(body.Name),
		Password:   hash,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if errCreate := h.credentials.Create(ctx, &credential); errCreate != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create credential failed"})
		return
	}

	h.respondWithToken(c, http.StatusCreated, sess)
}

// loginRequest defines the request body for login.
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login verifies local credentials, resolves the remote customer and issues a
// token.
func (h *AuthHandler) Login(c *gin.Context) {
	var body loginRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	email := strings.ToLower(strings.TrimSpace(body.Email))
	password := strings.TrimSpace(body.Password)
	if email == "" || password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing email or password"})
		return
	}

	ctx := c.Request.Context()
	credential, errFind := h.credentials.GetByEmail(ctx, email)
	if errFind != nil {
		if errors.Is(errFind, store.ErrNotFound) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	if !security.CheckPassword(credential.Password, password) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	sess, errLogin := h.sessions.Login(ctx, email)
	if errLogin != nil {
		if errors.Is(errLogin, session.ErrCustomerInactive) {
			c.JSON(http.StatusForbidden, gin.H{"error": "customer inactive"})
			return
		}
		respondError(c, errLogin)
		return
	}

	h.respondWithToken(c, http.StatusOK, sess)
}

// Logout drops the session and flushes cached provider data.
func (h *AuthHandler) Logout(c *gin.Context) {
	h.sessions.Logout(c.Request.Context(), getCustomerID(c))
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *AuthHandler) respondWithToken(c *gin.Context, status int, sess *session.Session) {
	token, errToken := security.GenerateToken(h.jwtCfg.Secret, sess.CustomerID, sess.Email, sess.Name, sess.PIN, h.jwtCfg.Expiry())
	if errToken != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate token"})
		return
	}
	c.JSON(status, gin.H{
		"customer_id": sess.CustomerID,
		"email":       sess.Email,
		"name":        sess.Name,
		"balance":     sess.Balance(),
		"token":       token,
	})
}
