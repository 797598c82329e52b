package front

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/cybersms/numstore/internal/activation"
	"github.com/cybersms/numstore/internal/config"
	"github.com/cybersms/numstore/internal/http/api/front/handlers"
	"github.com/cybersms/numstore/internal/provider"
	"github.com/cybersms/numstore/internal/security"
	"github.com/cybersms/numstore/internal/session"
	"github.com/cybersms/numstore/internal/store"
)

// Deps carries the collaborators the front routes need.
type Deps struct {
	JWT         config.JWTConfig
	Provider    *provider.Client
	Sessions    *session.Manager
	Coordinator *activation.Coordinator
	Activations *store.ActivationStore
	Favorites   *store.FavoriteStore
	Credentials *store.CredentialStore
}

// RegisterFrontRoutes registers public and authenticated storefront routes.
func RegisterFrontRoutes(r *gin.Engine, deps Deps) {
	if r == nil {
		return
	}

	front := r.Group("/v0/front")

	authHandler := handlers.NewAuthHandler(deps.Credentials, deps.Sessions, deps.JWT)
	front.POST("/register", authHandler.Register)
	front.POST("/login", authHandler.Login)
	front.GET("/faq", handlers.GetFAQ)

	catalogHandler := handlers.NewCatalogHandler(deps.Provider)
	front.GET("/catalog/services", catalogHandler.Services)
	front.GET("/catalog/countries", catalogHandler.Countries)
	front.GET("/catalog/prices", catalogHandler.Price)

	authed := front.Group("")
	authed.Use(customerAuthMiddleware(deps.Sessions, deps.JWT))

	authed.POST("/logout", authHandler.Logout)

	activationHandler := handlers.NewActivationHandler(deps.Coordinator, deps.Activations)
	authed.POST("/activations", activationHandler.Purchase)
	authed.GET("/activations", activationHandler.ListActive)
	authed.GET("/activations/history", activationHandler.History)
	authed.GET("/activations/:id", activationHandler.Get)
	authed.POST("/activations/:id/cancel", activationHandler.Cancel)

	favoriteHandler := handlers.NewFavoriteHandler(deps.Favorites)
	authed.GET("/favorites", favoriteHandler.List)
	authed.POST("/favorites", favoriteHandler.Add)
	authed.DELETE("/favorites/:serviceId", favoriteHandler.Remove)

	balanceHandler := handlers.NewBalanceHandler(deps.Sessions)
	authed.GET("/balance", balanceHandler.Get)
	authed.POST("/balance/topup", balanceHandler.TopUp)

	profileHandler := handlers.NewProfileHandler(deps.Credentials)
	authed.GET("/profile", profileHandler.Get)
	authed.PUT("/profile/name", profileHandler.UpdateName)
	authed.PUT("/profile/password", profileHandler.ChangePassword)
}

// customerAuthMiddleware validates customer JWTs and loads the session into
// context, reopening it from the claims after a restart.
func customerAuthMiddleware(sessions *session.Manager, jwtCfg config.JWTConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization header"})
			return
		}

		token := strings.TrimPrefix(authHeader, "Bearer ")
		if token == authHeader {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization format"})
			return
		}
		token = strings.TrimSpace(token)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "empty token"})
			return
		}

		claims, errJWT := security.ParseToken(jwtCfg.Secret, token)
		if errJWT != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		sess := sessions.Resume(c.Request.Context(), claims.CustomerID, claims.PIN, claims.Email, claims.Name)
		c.Set("customerID", claims.CustomerID)
		c.Set("session", sess)
		c.Next()
	}
}
