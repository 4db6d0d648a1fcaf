package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterSwagger registers minimal Swagger/OpenAPI endpoints.
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
    <title>gopzcollab Swagger</title>
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

// Minimal OpenAPI document describing the session core endpoints.
const swaggerJSON = `{
  "openapi": "3.0.0",
  "info": { "title": "gopzcollab-session-core", "version": "v0.1.0" },
  "paths": {
    "/api/v1/documents": {
      "post": {
        "summary": "Create a document",
        "requestBody": { "content": { "application/json": { "schema": {"type":"object","required":["title","type"],"properties":{"title":{"type":"string"},"type":{"type":"string","enum":["text","code","canvas"]},"content":{"type":"string"}}}}}},
        "responses": { "201": { "description": "document created, joinCode returned" } }
      }
    },
    "/api/v1/documents/join": {
      "post": { "summary": "Join a document by its numeric join code", "requestBody": { "content": { "application/json": { "schema": {"type":"object","required":["code"],"properties":{"code":{"type":"string"}}}}}}, "responses": { "200": { "description": "joined" }, "404": { "description": "unknown code" } } }
    },
    "/api/v1/documents/{id}/session": {
      "post": { "summary": "Create or join the document's live session", "responses": { "200": { "description": "sessionId, isNewSession and (for new sessions) seedContent" }, "403": { "description": "not a member" }, "404": { "description": "unknown document" } } }
    },
    "/api/v1/documents/{id}/room": {
      "get": { "summary": "Room state: membership and active session", "responses": { "200": { "description": "room state" } } }
    },
    "/api/v1/sessions/{id}/ping": {
      "post": { "summary": "Session liveness heartbeat", "responses": { "200": { "description": "ok" }, "410": { "description": "session ended; re-join" } } }
    },
    "/api/v1/sessions/{id}/end": {
      "post": { "summary": "End a session (idempotent)", "responses": { "200": { "description": "ok" } } }
    },
    "/ws/{sessionId}": {
      "get": { "summary": "Websocket upgrade onto the session's sync channel", "responses": { "101": { "description": "switching protocols" } } }
    },
    "/api/v1/me": {
      "get": { "summary": "Verified identity of the caller", "responses": { "200": { "description": "user profile" } } }
    }
  }
}`
