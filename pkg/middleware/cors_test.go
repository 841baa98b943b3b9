package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func corsRouter() *gin.Engine {
	g := gin.New()
	g.Use(CORSMiddleware([]string{"https://digest.example.com"}))
	g.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })
	return g
}

func TestCORSAllowedOriginEchoed(t *testing.T) {
	g := corsRouter()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://digest.example.com")
	rw := httptest.NewRecorder()
	g.ServeHTTP(rw, req)

	require.Equal(t, http.StatusOK, rw.Code)
	require.Equal(t, "https://digest.example.com", rw.Header().Get("Access-Control-Allow-Origin"))
	require.Equal(t, "true", rw.Header().Get("Access-Control-Allow-Credentials"))
}

func TestCORSBlockedOriginGetsNoAllowHeader(t *testing.T) {
	g := corsRouter()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rw := httptest.NewRecorder()
	g.ServeHTTP(rw, req)

	require.Empty(t, rw.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSNoOriginGetsWildcard(t *testing.T) {
	g := corsRouter()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rw := httptest.NewRecorder()
	g.ServeHTTP(rw, req)

	require.Equal(t, "*", rw.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSPreflightShortCircuits(t *testing.T) {
	g := corsRouter()
	req := httptest.NewRequest(http.MethodOptions, "/", nil)
	req.Header.Set("Origin", "https://digest.example.com")
	rw := httptest.NewRecorder()
	g.ServeHTTP(rw, req)

	require.Equal(t, http.StatusNoContent, rw.Code)
	require.Contains(t, rw.Header().Get("Access-Control-Allow-Methods"), "PATCH")
}
