package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterSwagger registers minimal Swagger/OpenAPI endpoints for the user service.
// - GET /swagger/index.html  -> a small HTML page that loads the OpenAPI JSON
// - GET /swagger/doc.json    -> machine-readable OpenAPI JSON
func RegisterSwagger(rg *gin.Engine) {
	rg.GET("/swagger/index.html", func(c *gin.Context) {
		c.Header("Content-Type", "text/html; charset=utf-8")
		c.String(http.StatusOK, swaggerHTML)
	})

	rg.GET("/swagger/doc.json", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/json", []byte(swaggerJSON))
	})
}

const swaggerHTML = `<!doctype html>
<html>
  <head>
    <meta charset="utf-8" />
    <title>aidigest-user — Swagger</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@4/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@4/swagger-ui-bundle.js"></script>
    <script>
      window.ui = SwaggerUIBundle({
        url: '/swagger/doc.json',
        dom_id: '#swagger-ui',
      })
    </script>
  </body>
</html>`

// Minimal OpenAPI document describing the user-service endpoints.
const swaggerJSON = `{
  "openapi": "3.0.0",
  "info": { "title": "aidigest-user", "version": "v0.1.0" },
  "paths": {
    "/api/auth/verify": {
      "post": { "summary": "Verify bearer token and ensure a profile exists", "responses": { "200": { "description": "authentication successful" }, "401": { "description": "invalid token" } } }
    },
    "/api/user/profile": {
      "get": { "summary": "Get the caller's profile", "responses": { "200": { "description": "profile" } } },
      "post": { "summary": "Update displayName / photoURL", "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"displayName":{"type":"string"},"photoURL":{"type":"string"}}}}}}, "responses": { "200": { "description": "updated profile" } } }
    },
    "/api/user/preferences": {
      "get": { "summary": "Get digest preferences", "responses": { "200": { "description": "preferences" } } },
      "post": { "summary": "Replace digest preferences", "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"categories":{"type":"array","items":{"type":"string"}},"digestFrequency":{"type":"string"},"notificationsEnabled":{"type":"boolean"}}}}}}, "responses": { "200": { "description": "stored preferences" } } },
      "patch": { "summary": "Update a subset of digest preferences", "responses": { "200": { "description": "stored preferences" }, "400": { "description": "invalid field" }, "404": { "description": "unknown user" } } }
    },
    "/api/user/history": {
      "get": { "summary": "Get read history", "responses": { "200": { "description": "history entries" } } },
      "post": { "summary": "Record a digest as read", "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"digestId":{"type":"string"}}}}}}, "responses": { "200": { "description": "updated history" }, "400": { "description": "missing digestId" } } }
    },
    "/health": { "get": { "summary": "Liveness check", "responses": { "200": { "description": "healthy" } } } },
    "/ready": { "get": { "summary": "Readiness check", "responses": { "200": { "description": "ready" }, "503": { "description": "not ready" } } } }
  }
}`
