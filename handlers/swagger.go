package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterSwagger registers minimal Swagger/OpenAPI endpoints for the API.
// - GET /swagger/index.html  -> a small HTML page that loads the OpenAPI JSON
// - GET /swagger/doc.json    -> machine-readable OpenAPI JSON
func RegisterSwagger(rg *gin.Engine) {
	rg.GET("/swagger/index.html", func(c *gin.Context) {
		c.Header("Content-Type", "text/html; charset=utf-8")
		c.String(http.StatusOK, swaggerHTML)
	})

	rg.GET("/swagger/doc.json", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(swaggerJSON))
	})
}

const swaggerHTML = `<!doctype html>
<html>
  <head>
    <meta charset="utf-8" />
    <title>terrenos-py - Swagger</title>
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

// Minimal OpenAPI document describing the document store and admin endpoints.
const swaggerJSON = `{
  "openapi": "3.0.0",
  "info": { "title": "terrenos-py", "version": "v3.0" },
  "paths": {
    "/api/data": {
      "get": { "summary": "Read the full listing document", "responses": { "200": { "description": "document with a terrenos array" }, "500": { "description": "backing file unreadable" } } },
      "put": {
        "summary": "Replace the full listing document",
        "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"terrenos":{"type":"array"}},"required":["terrenos"]}}}},
        "responses": { "200": { "description": "document replaced" }, "400": { "description": "body is not an object with a terrenos array" }, "413": { "description": "body exceeds the size ceiling" } }
      }
    },
    "/api/auth/login": {
      "post": { "summary": "Admin login", "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"username":{"type":"string"},"password":{"type":"string"}}}}}}, "responses": { "200": { "description": "access token returned" }, "401": { "description": "invalid credentials" } } }
    },
    "/api/config": {
      "get": { "summary": "Public site configuration", "responses": { "200": { "description": "contact and upload settings" } } }
    },
    "/api/me": {
      "get": { "summary": "Validate the admin token", "responses": { "200": { "description": "admin identity" }, "401": { "description": "missing or invalid token" } } }
    },
    "/health": { "get": { "summary": "Liveness check", "responses": { "200": { "description": "healthy" } } } },
    "/ready": { "get": { "summary": "Readiness check", "responses": { "200": { "description": "ready" }, "503": { "description": "not ready" } } } }
  }
}`
