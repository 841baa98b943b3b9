package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/aidigest/aidigest/backend/go-services/internal/auth"
	"github.com/aidigest/aidigest/backend/go-services/internal/config"
	"github.com/aidigest/aidigest/backend/go-services/pkg/logger"
)

const dbProbeTimeout = 3 * time.Second

// SystemHandler serves the unauthenticated diagnostics endpoints.
type SystemHandler struct {
	cfg     *config.Config
	db      *mongo.Database
	ver     auth.Verifier
	started time.Time
}

func NewSystemHandler(cfg *config.Config, db *mongo.Database, ver auth.Verifier) *SystemHandler {
	return &SystemHandler{cfg: cfg, db: db, ver: ver, started: time.Now()}
}

func (h *SystemHandler) Register(rg *gin.RouterGroup) {
	s := rg.Group("/system")
	s.GET("/health", h.Health)
	s.GET("/cors-test", h.CORSTest)
	s.GET("/db-test", h.DBTest)
}

// Health reports server, database and identity-provider state plus enough
// request echo to debug deployment issues from a browser.
func (h *SystemHandler) Health(c *gin.Context) {
	dbState := "not configured"
	if h.db != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), dbProbeTimeout)
		defer cancel()
		if err := h.db.Client().Ping(ctx, nil); err != nil {
			dbState = "disconnected"
		} else {
			dbState = "connected"
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"uptime":    time.Since(h.started).Round(time.Second).String(),
		"database":  gin.H{"status": dbState, "name": h.cfg.MongoDB.Database},
		"identityProvider": gin.H{
			"initialized": h.ver != nil,
			"issuer":      h.cfg.OIDC.Issuer,
		},
		"environment": gin.H{
			"environment":    h.cfg.Server.Environment,
			"port":           h.cfg.Server.Port,
			"allowedOrigins": h.cfg.CORS.Origins,
		},
		"client": gin.H{
			"ip":        c.ClientIP(),
			"origin":    c.GetHeader("Origin"),
			"userAgent": c.GetHeader("User-Agent"),
		},
	})
}

// CORSTest echoes the request's origin handling so a frontend can confirm
// its origin is allowed.
func (h *SystemHandler) CORSTest(c *gin.Context) {
	origin := c.GetHeader("Origin")
	allowed := origin == ""
	for _, o := range h.cfg.CORS.Origins {
		if strings.EqualFold(o, origin) {
			allowed = true
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"message":         "CORS test successful",
		"origin":          origin,
		"originAllowed":   allowed,
		"allowedOrigins":  h.cfg.CORS.Origins,
		"allowOriginSent": c.Writer.Header().Get("Access-Control-Allow-Origin"),
	})
}

// DBTest runs a live round-trip against the database.
func (h *SystemHandler) DBTest(c *gin.Context) {
	if h.db == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database not configured"})
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), dbProbeTimeout)
	defer cancel()

	collections, err := h.db.ListCollectionNames(ctx, bson.M{})
	if err != nil {
		logger.Errorf("db-test: listing collections failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	count, err := h.db.Collection("users").CountDocuments(ctx, bson.M{})
	if err != nil {
		logger.Errorf("db-test: counting users failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":     "Database connection successful",
		"database":    h.db.Name(),
		"collections": collections,
		"userCount":   count,
	})
}
