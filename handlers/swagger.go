package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterSwagger registers minimal Swagger/OpenAPI endpoints for the gateway.
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
    <title>authgw - Swagger</title>
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

// OpenAPI document for the gateway routes. Paths are relative to the /v1 group.
const swaggerJSON = `{
  "openapi": "3.0.0",
  "info": { "title": "authgw", "version": "v1" },
  "servers": [ { "url": "/v1" } ],
  "components": {
    "schemas": {
      "TokenPair": { "type": "object", "properties": { "access": { "type": "string" }, "refresh": { "type": "string" } } },
      "RefreshRequest": { "type": "object", "properties": { "refresh_token": { "type": "string" } } },
      "Error": { "type": "object", "properties": { "error": { "type": "string" } } }
    },
    "securitySchemes": { "refreshBearer": { "type": "http", "scheme": "bearer", "bearerFormat": "JWT" } }
  },
  "paths": {
    "/register": {
      "post": {
        "summary": "Create an account and send a verification code",
        "requestBody": { "content": { "application/json": { "schema": {"type":"object","required":["email","password","confirmed_password"],"properties":{"email":{"type":"string","format":"email"},"password":{"type":"string"},"confirmed_password":{"type":"string"}}}}}},
        "responses": { "201": { "description": "account created, tokens included when the account id is known" }, "400": { "description": "validation failed" }, "502": { "description": "accounts service unreachable" } }
      }
    },
    "/login": {
      "post": {
        "summary": "Exchange credentials for a token pair",
        "requestBody": { "content": { "application/json": { "schema": {"type":"object","required":["email","password"],"properties":{"email":{"type":"string","format":"email"},"password":{"type":"string"}}}}}},
        "responses": { "200": { "description": "tokens returned", "content": { "application/json": { "schema": { "$ref": "#/components/schemas/TokenPair" } } } }, "455": { "description": "account not verified, code sent" }, "503": { "description": "session store unavailable" } }
      }
    },
    "/refresh": {
      "post": { "summary": "Rotate a refresh token into a new pair", "security": [ { "refreshBearer": [] } ], "requestBody": { "content": { "application/json": { "schema": { "$ref": "#/components/schemas/RefreshRequest" } } } }, "responses": { "200": { "description": "new token pair", "content": { "application/json": { "schema": { "$ref": "#/components/schemas/TokenPair" } } } }, "403": { "description": "missing, expired or revoked token" }, "404": { "description": "invalid token" } } }
    },
    "/logout": {
      "post": { "summary": "End the current session", "security": [ { "refreshBearer": [] } ], "requestBody": { "content": { "application/json": { "schema": { "$ref": "#/components/schemas/RefreshRequest" } } } }, "responses": { "200": { "description": "logged out" }, "403": { "description": "missing, expired or revoked token" } } }
    },
    "/logout_all": {
      "post": { "summary": "End every session of the user", "security": [ { "refreshBearer": [] } ], "requestBody": { "content": { "application/json": { "schema": { "$ref": "#/components/schemas/RefreshRequest" } } } }, "responses": { "200": { "description": "all sessions ended" }, "403": { "description": "missing, expired or revoked token" } } }
    }
  }
}`
