package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/aidigest/aidigest/backend/go-services/internal/auth"
	"github.com/aidigest/aidigest/backend/go-services/internal/config"
	"github.com/aidigest/aidigest/backend/go-services/internal/users"
	"github.com/aidigest/aidigest/backend/go-services/pkg/logger"
	"github.com/aidigest/aidigest/backend/go-services/pkg/middleware"
)

// AuthHandler serves token verification and identity-provider diagnostics.
type AuthHandler struct {
	svc *users.Service
	ver auth.Verifier
	cfg *config.Config
}

func NewAuthHandler(svc *users.Service, ver auth.Verifier, cfg *config.Config) *AuthHandler {
	return &AuthHandler{svc: svc, ver: ver, cfg: cfg}
}

// Register mounts the auth routes. Only /verify sits behind the auth gate;
// the debug endpoints are reachable without a valid token so they can be
// used to diagnose token problems.
func (h *AuthHandler) Register(rg *gin.RouterGroup, authGate gin.HandlerFunc) {
	a := rg.Group("/auth")
	a.POST("/verify", authGate, h.Verify)
	a.POST("/token-debug", h.TokenDebug)
	a.GET("/provider-status", h.ProviderStatus)
}

// Verify confirms the caller's token and ensures a profile record exists,
// stamping lastLogin on the way through.
func (h *AuthHandler) Verify(c *gin.Context) {
	p := middleware.PrincipalFrom(c)
	u, err := h.svc.VerifyLogin(c.Request.Context(), p)
	if err != nil {
		logger.Errorf("verify: creating profile for uid=%s failed: %v", p.UID, err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"message": "Error creating user profile",
			"error":   err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Authentication successful",
		"user": gin.H{
			"uid":           u.UID,
			"email":         u.Email,
			"emailVerified": p.EmailVerified,
		},
	})
}

type tokenDebugRequest struct {
	Token string `json:"token"`
}

// TokenDebug decodes a token without enforcing its signature and reports its
// claims alongside the result of a real verification attempt. Meant for
// development; it never grants access.
func (h *AuthHandler) TokenDebug(c *gin.Context) {
	var req tokenDebugRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "token is required"})
		return
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(req.Token, claims); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid token format", "error": err.Error()})
		return
	}

	out := gin.H{}
	if sub, err := claims.GetSubject(); err == nil {
		out["subject"] = sub
	}
	if iss, err := claims.GetIssuer(); err == nil {
		out["issuer"] = iss
	}
	if aud, err := claims.GetAudience(); err == nil && len(aud) > 0 {
		out["audience"] = []string(aud)
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		remaining := time.Until(exp.Time).Round(time.Second)
		out["expiresAt"] = exp.Time.UTC().Format(time.RFC3339)
		out["expired"] = remaining <= 0
		out["timeRemaining"] = remaining.String()
	}

	if h.ver == nil {
		out["verified"] = false
		out["verifyError"] = "token verifier not initialized"
		c.JSON(http.StatusOK, out)
		return
	}
	verified, err := h.ver.Verify(c.Request.Context(), req.Token)
	if err != nil {
		out["verified"] = false
		out["verifyError"] = err.Error()
	} else {
		out["verified"] = true
		out["decoded"] = gin.H{"uid": verified.Subject, "email": verified.Email}
	}
	c.JSON(http.StatusOK, out)
}

// ProviderStatus reports whether the identity provider is wired up.
func (h *AuthHandler) ProviderStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"initialized":        h.ver != nil,
		"issuerConfigured":   h.cfg.OIDC.Issuer != "",
		"clientIdConfigured": h.cfg.OIDC.ClientID != "",
	})
}
