package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/aidigest/aidigest/backend/go-services/internal/auth"
	"github.com/aidigest/aidigest/backend/go-services/pkg/logger"
	"github.com/aidigest/aidigest/backend/go-services/pkg/metrics"
)

// PrincipalKey is the gin context key the verified principal is stored under.
const PrincipalKey = "principal"

// verifyTimeout bounds the identity-provider round trip so a stalled
// verification fails the request instead of hanging it.
const verifyTimeout = 10 * time.Second

// PrincipalCache caches verified principals keyed by raw token. Nil disables caching.
type PrincipalCache interface {
	Get(ctx context.Context, token string) (*auth.Principal, error)
	Put(ctx context.Context, token string, p *auth.Principal, expiry time.Time) error
}

// AuthMiddleware returns a Gin middleware that verifies bearer tokens using
// the provided verifier and attaches the resulting principal to the request
// context. A nil verifier means the server is misconfigured: requests are
// answered with 500, distinguishing "bad credentials" from "broken server".
func AuthMiddleware(ver auth.Verifier, cache PrincipalCache) gin.HandlerFunc {
	return func(c *gin.Context) {
		if ver == nil {
			metrics.AuthRequests.WithLabelValues("misconfigured").Inc()
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "server configuration error: identity verifier not initialized"})
			return
		}

		token, aerr := auth.ExtractToken(c.GetHeader("Authorization"))
		if aerr != nil {
			metrics.AuthRequests.WithLabelValues("unauthorized").Inc()
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": aerr.Message})
			return
		}

		if cache != nil {
			if p, err := cache.Get(c.Request.Context(), token); err == nil && p != nil {
				metrics.AuthRequests.WithLabelValues("cached").Inc()
				c.Set(PrincipalKey, p)
				c.Next()
				return
			} else if err != nil {
				logger.Warnf("principal cache lookup failed: %v", err)
			}
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), verifyTimeout)
		defer cancel()
		claims, err := ver.Verify(ctx, token)
		if err != nil {
			verr := auth.VerificationError(err)
			metrics.AuthRequests.WithLabelValues("unauthorized").Inc()
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token", "details": verr.Message, "code": verr.Code})
			return
		}

		p, aerr := auth.PrincipalFromClaims(claims)
		if aerr != nil {
			metrics.AuthRequests.WithLabelValues("unauthorized").Inc()
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": aerr.Message})
			return
		}

		if cache != nil {
			if err := cache.Put(c.Request.Context(), token, p, claims.Expiry); err != nil {
				logger.Warnf("principal cache store failed: %v", err)
			}
		}

		metrics.AuthRequests.WithLabelValues("ok").Inc()
		c.Set(PrincipalKey, p)
		c.Next()
	}
}

// PrincipalFrom returns the principal attached by AuthMiddleware, or nil when
// the request did not pass the auth gate.
func PrincipalFrom(c *gin.Context) *auth.Principal {
	v, ok := c.Get(PrincipalKey)
	if !ok {
		return nil
	}
	p, _ := v.(*auth.Principal)
	return p
}
