package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/aidigest/aidigest/backend/go-services/internal/storage"
	"github.com/aidigest/aidigest/backend/go-services/internal/users"
	"github.com/aidigest/aidigest/backend/go-services/pkg/logger"
	"github.com/aidigest/aidigest/backend/go-services/pkg/middleware"
)

// UserHandler serves the authenticated profile/preference/history endpoints.
// db and avatars are optional diagnostics/storage dependencies; nil disables
// the corresponding endpoint features.
type UserHandler struct {
	svc     *users.Service
	db      *mongo.Database
	avatars *storage.AvatarStore
}

func NewUserHandler(svc *users.Service, db *mongo.Database, avatars *storage.AvatarStore) *UserHandler {
	return &UserHandler{svc: svc, db: db, avatars: avatars}
}

// Register mounts the user routes behind the auth gate.
func (h *UserHandler) Register(rg *gin.RouterGroup, authGate gin.HandlerFunc) {
	u := rg.Group("/user", authGate)
	u.GET("/profile", h.GetProfile)
	u.POST("/profile", h.UpdateProfile)
	u.POST("/profile/avatar", h.UploadAvatar)
	u.GET("/preferences", h.GetPreferences)
	u.POST("/preferences", h.ReplacePreferences)
	u.PATCH("/preferences", h.PatchPreferences)
	u.GET("/history", h.GetHistory)
	u.POST("/history", h.AppendHistory)
	u.GET("/debug", h.Debug)
}

type profileUpdateRequest struct {
	DisplayName *string `json:"displayName"`
	PhotoURL    *string `json:"photoURL"`
}

type preferencesRequest struct {
	Categories           *[]string `json:"categories"`
	DigestFrequency      *string   `json:"digestFrequency"`
	NotificationsEnabled *bool     `json:"notificationsEnabled"`
}

type historyRequest struct {
	DigestID string `json:"digestId"`
}

// storeStatus maps store errors onto HTTP statuses.
func storeStatus(err error) int {
	switch {
	case errors.Is(err, users.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, users.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func (h *UserHandler) GetProfile(c *gin.Context) {
	p := middleware.PrincipalFrom(c)
	c.JSON(http.StatusOK, h.svc.GetProfile(c.Request.Context(), p))
}

func (h *UserHandler) UpdateProfile(c *gin.Context) {
	p := middleware.PrincipalFrom(c)
	var req profileUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	prof, err := h.svc.UpdateProfile(c.Request.Context(), p, users.ProfileUpdate{
		DisplayName: req.DisplayName,
		PhotoURL:    req.PhotoURL,
	})
	if err != nil {
		logger.Errorf("profile update failed for uid=%s: %v", p.UID, err)
		c.JSON(storeStatus(err), gin.H{"error": "profile update failed"})
		return
	}
	c.JSON(http.StatusOK, prof)
}

func (h *UserHandler) GetPreferences(c *gin.Context) {
	p := middleware.PrincipalFrom(c)
	c.JSON(http.StatusOK, h.svc.GetPreferences(c.Request.Context(), p))
}

func (h *UserHandler) ReplacePreferences(c *gin.Context) {
	p := middleware.PrincipalFrom(c)
	var req preferencesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	prefs, err := h.svc.ReplacePreferences(c.Request.Context(), p, users.PreferencesPatch{
		Categories:           req.Categories,
		DigestFrequency:      req.DigestFrequency,
		NotificationsEnabled: req.NotificationsEnabled,
	})
	if err != nil {
		logger.Errorf("preferences replace failed for uid=%s: %v", p.UID, err)
		c.JSON(storeStatus(err), gin.H{"error": "preferences update failed"})
		return
	}
	c.JSON(http.StatusOK, prefs)
}

func (h *UserHandler) PatchPreferences(c *gin.Context) {
	p := middleware.PrincipalFrom(c)
	var req preferencesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	prefs, err := h.svc.PatchPreferences(c.Request.Context(), p, users.PreferencesPatch{
		Categories:           req.Categories,
		DigestFrequency:      req.DigestFrequency,
		NotificationsEnabled: req.NotificationsEnabled,
	})
	if err != nil {
		status := storeStatus(err)
		if status == http.StatusInternalServerError {
			logger.Errorf("preferences patch failed for uid=%s: %v", p.UID, err)
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, prefs)
}

func (h *UserHandler) GetHistory(c *gin.Context) {
	p := middleware.PrincipalFrom(c)
	c.JSON(http.StatusOK, h.svc.GetHistory(c.Request.Context(), p))
}

func (h *UserHandler) AppendHistory(c *gin.Context) {
	p := middleware.PrincipalFrom(c)
	var req historyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "digest ID is required"})
		return
	}
	hist, err := h.svc.AppendHistory(c.Request.Context(), p, req.DigestID)
	if err != nil {
		status := storeStatus(err)
		if status == http.StatusInternalServerError {
			logger.Errorf("history append failed for uid=%s: %v", p.UID, err)
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, hist)
}

// UploadAvatar stores a profile picture in object storage and points photoURL
// at a presigned link to it.
func (h *UserHandler) UploadAvatar(c *gin.Context) {
	p := middleware.PrincipalFrom(c)
	if h.avatars == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "avatar storage not configured"})
		return
	}
	file, header, err := c.Request.FormFile("avatar")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "avatar file is required"})
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if _, err := h.avatars.Upload(c.Request.Context(), p.UID, file, header.Size, contentType); err != nil {
		logger.Errorf("avatar upload failed for uid=%s: %v", p.UID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "avatar upload failed"})
		return
	}
	url, err := h.avatars.URL(c.Request.Context(), p.UID, 24*time.Hour)
	if err != nil {
		logger.Errorf("avatar url failed for uid=%s: %v", p.UID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "avatar upload failed"})
		return
	}
	prof, err := h.svc.UpdateProfile(c.Request.Context(), p, users.ProfileUpdate{PhotoURL: &url})
	if err != nil {
		c.JSON(storeStatus(err), gin.H{"error": "profile update failed"})
		return
	}
	c.JSON(http.StatusOK, prof)
}

// Debug reports database connectivity and collection state for the caller.
func (h *UserHandler) Debug(c *gin.Context) {
	p := middleware.PrincipalFrom(c)
	out := gin.H{
		"user": gin.H{"uid": p.UID, "email": p.Email},
	}
	if h.db == nil {
		out["store"] = gin.H{"kind": "memory", "connected": false}
		c.JSON(http.StatusOK, out)
		return
	}

	ctx := c.Request.Context()
	collections, err := h.db.ListCollectionNames(ctx, bson.M{})
	if err != nil {
		logger.Errorf("debug: listing collections failed: %v", err)
	}
	var usersCount int64
	if n, err := h.db.Collection("users").CountDocuments(ctx, bson.M{}); err == nil {
		usersCount = n
	} else {
		logger.Errorf("debug: counting users failed: %v", err)
	}
	hasUsers := false
	for _, name := range collections {
		if name == "users" {
			hasUsers = true
		}
	}
	out["store"] = gin.H{
		"kind":      "mongodb",
		"database":  h.db.Name(),
		"connected": err == nil,
	}
	out["collections"] = collections
	out["usersCollection"] = gin.H{"exists": hasUsers, "count": usersCount}
	c.JSON(http.StatusOK, out)
}
