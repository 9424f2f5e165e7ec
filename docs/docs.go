// Package docs registers the OpenAPI document served under /swagger.
// Regenerate with: swag init -g cmd/api/main.go
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "paths": {
        "/healthz": {"get": {"tags": ["System"], "summary": "Health check", "responses": {"200": {"description": "OK"}}}},
        "/payments/webhook": {"post": {"tags": ["Webhook"], "summary": "Polar Webhook", "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}, "403": {"description": "Forbidden"}, "500": {"description": "Internal Server Error"}}}},
        "/api/v1/payments/checkout": {"post": {"tags": ["Payment"], "summary": "Create Checkout", "responses": {"200": {"description": "OK"}}}},
        "/api/v1/admin/polar/sync": {"post": {"tags": ["Admin"], "summary": "Sync Polar Data (Admin)", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}},
        "/api/v1/admin/polar/sync_products": {"post": {"tags": ["Admin"], "summary": "Sync Polar Products (Admin)", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}},
        "/api/v1/admin/polar/sync_status": {"get": {"tags": ["Admin"], "summary": "Sync Status (Admin)", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}},
        "/api/v1/admin/polar/connection": {"get": {"tags": ["Admin"], "summary": "Check Polar Connection (Admin)", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}},
        "/api/v1/admin/subscriptions/list": {"post": {"tags": ["Admin"], "summary": "List Subscriptions (Admin)", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}},
        "/api/v1/admin/subscriptions/assign_user": {"post": {"tags": ["Admin"], "summary": "Assign Subscription User (Admin)", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}},
        "/api/v1/admin/users/{user_id}/subscriptions": {"get": {"tags": ["Admin"], "summary": "User Subscriptions (Admin)", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}},
        "/api/v1/admin/analytics/overview": {"get": {"tags": ["Admin"], "summary": "Analytics Overview (Admin)", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}},
        "/api/v1/admin/audit_logs": {"get": {"tags": ["Admin"], "summary": "List Audit Logs (Admin)", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}},
        "/api/v1/admin/products": {
            "get": {"tags": ["Products"], "summary": "List Products (Admin)", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["Products"], "summary": "Create Product (Admin)", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}
        },
        "/api/v1/admin/products/{id}": {
            "put": {"tags": ["Products"], "summary": "Update Product (Admin)", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}},
            "delete": {"tags": ["Products"], "summary": "Delete Product (Admin)", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}
        },
        "/api/v1/admin/products/{id}/deactivate": {"post": {"tags": ["Products"], "summary": "Deactivate Product (Admin)", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8888",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Polar Admin Backend API",
	Description:      "Billing administration and Polar synchronization API.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
