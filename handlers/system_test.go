package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/aidigest/aidigest/backend/go-services/internal/config"
)

func newSystemRouter() *gin.Engine {
	cfg := &config.Config{}
	cfg.Server.Environment = "test"
	cfg.Server.Port = "5000"
	cfg.MongoDB.Database = "aidigest"
	cfg.CORS.Origins = []string{"http://localhost:3000"}

	r := gin.New()
	NewSystemHandler(cfg, nil, stubVerifier{}).Register(r.Group("/api"))
	return r
}

func TestSystemHealthWithoutDatabase(t *testing.T) {
	r := newSystemRouter()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/api/system/health", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Equal(t, "ok", got["status"])
	db := got["database"].(map[string]interface{})
	require.Equal(t, "not configured", db["status"])
	idp := got["identityProvider"].(map[string]interface{})
	require.Equal(t, true, idp["initialized"])
}

func TestSystemCORSTest(t *testing.T) {
	r := newSystemRouter()
	req := httptest.NewRequest("GET", "/api/system/cors-test", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Equal(t, true, got["originAllowed"])

	req2 := httptest.NewRequest("GET", "/api/system/cors-test", nil)
	req2.Header.Set("Origin", "https://evil.example.com")
	w2 := httptest.NewRecorder()
	r.ServeHTTP(w2, req2)
	var got2 map[string]interface{}
	require.NoError(t, json.Unmarshal(w2.Body.Bytes(), &got2))
	require.Equal(t, false, got2["originAllowed"])
}

func TestSystemDBTestWithoutDatabase(t *testing.T) {
	r := newSystemRouter()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/api/system/db-test", nil))
	require.Equal(t, http.StatusInternalServerError, w.Code)
}
