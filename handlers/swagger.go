package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterSwagger registers minimal Swagger/OpenAPI endpoints for the dev API.
// - GET /swagger/index.html  -> a small HTML page that loads the OpenAPI JSON
// - GET /swagger/doc.json    -> machine-readable OpenAPI JSON
func RegisterSwagger(rg gin.IRouter) {
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
    <title>CityAssist API · Swagger</title>
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

const swaggerJSON = `{
  "openapi": "3.0.0",
  "info": { "title": "cityassist-api", "version": "v0.1.0" },
  "servers": [{ "url": "/api" }],
  "components": { "securitySchemes": { "bearer": { "type": "http", "scheme": "bearer", "bearerFormat": "JWT" } } },
  "security": [{ "bearer": [] }],
  "paths": {
    "/auth/register": { "post": { "summary": "Create an account", "security": [], "responses": { "201": { "description": "AuthResult" }, "400": { "description": "invalid input" }, "409": { "description": "email already registered" } } } },
    "/auth/login": { "post": { "summary": "Email/password login", "security": [], "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"email":{"type":"string"},"password":{"type":"string"}}}}}}, "responses": { "200": { "description": "AuthResult" }, "401": { "description": "invalid credentials" } } } },
    "/auth/refresh": { "post": { "summary": "Rotate the refresh token", "security": [], "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"refreshToken":{"type":"string"}}}}}}, "responses": { "200": { "description": "AuthResult" }, "401": { "description": "invalid refresh" } } } },
    "/auth/logout": { "post": { "summary": "Revoke the refresh token and blacklist the access token", "responses": { "200": { "description": "logged out" } } } },
    "/users/profile": { "get": { "summary": "Current user" }, "put": { "summary": "Update profile" } },
    "/users/preferences": { "get": { "summary": "Notification and alert preferences" }, "put": { "summary": "Merge preferences" } },
    "/reports": { "post": { "summary": "Submit a report (multipart, optional image)" }, "get": { "summary": "List own reports", "parameters": [{"name":"status","in":"query"},{"name":"page","in":"query"},{"name":"size","in":"query"}] } },
    "/reports/{id}": { "get": { "summary": "Report by id or ticket" } },
    "/reports/{id}/timeline": { "get": { "summary": "Report status history" } },
    "/reports/{id}/status": { "patch": { "summary": "Change report status (operator)" } },
    "/notifications": { "get": { "summary": "List notifications", "parameters": [{"name":"unread","in":"query"},{"name":"page","in":"query"},{"name":"size","in":"query"}] } },
    "/notifications/{id}/read": { "put": { "summary": "Mark one notification read" } },
    "/notifications/read-all": { "put": { "summary": "Mark all notifications read" } },
    "/notifications/subscribe": { "post": { "summary": "Subscribe to a topic on a channel" } },
    "/routing/route": { "post": { "summary": "Route between two points" } },
    "/routing/traffic": { "get": { "summary": "Traffic inside bounds" } },
    "/routing/alternate": { "post": { "summary": "Alternate routes" } },
    "/services/local": { "get": { "summary": "Nearby public services" } },
    "/services/outages": { "get": { "summary": "Active utility outages" }, "post": { "summary": "Report an outage (operator)" } },
    "/services/subscribe": { "post": { "summary": "Subscribe to utility updates for a zone" } },
    "/alerts/aqi": { "get": { "summary": "Air quality at a location" } },
    "/alerts/health": { "post": { "summary": "Health recommendations for a profile" } },
    "/upload/presigned-url": { "post": { "summary": "Presigned image upload URL" } }
  }
}`
