// Package docs holds the OpenAPI description served under /swagger.
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
    "paths": {
        "/auth/register": {
            "post": {"tags": ["auth"], "summary": "Create an account", "responses": {"201": {"description": "Created"}, "409": {"description": "Email already exists"}}}
        },
        "/auth/login": {
            "post": {"tags": ["auth"], "summary": "Exchange credentials for a bearer token", "responses": {"200": {"description": "OK"}, "401": {"description": "Invalid credentials"}}}
        },
        "/auth/me": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["auth"], "summary": "Current account", "responses": {"200": {"description": "OK"}}},
            "delete": {"security": [{"BearerAuth": []}], "tags": ["auth"], "summary": "Delete the account and all of its goals, tasks and activity", "responses": {"204": {"description": "No Content"}, "401": {"description": "Password does not match"}}}
        },
        "/activity": {
            "post": {"security": [{"BearerAuth": []}], "tags": ["activity"], "summary": "Record a commit", "responses": {"201": {"description": "Created"}}}
        },
        "/activity/summary": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["activity"],
                "summary": "Yearly heatmap and streaks",
                "parameters": [
                    {"type": "string", "description": "Local day, YYYY-MM-DD", "name": "date", "in": "query"},
                    {"type": "string", "description": "IANA time zone", "name": "tz", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/stats": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["activity"],
                "summary": "Consistency score, completion counts and weekly trend",
                "parameters": [
                    {"type": "string", "description": "Local day, YYYY-MM-DD", "name": "date", "in": "query"},
                    {"type": "string", "description": "IANA time zone", "name": "tz", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/goals": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["goals"], "summary": "List active goals, newest first", "responses": {"200": {"description": "OK"}}},
            "post": {"security": [{"BearerAuth": []}], "tags": ["goals"], "summary": "Create a goal", "responses": {"201": {"description": "Created"}}}
        },
        "/goals/{id}": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["goals"], "summary": "Get a goal", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "403": {"description": "Forbidden"}, "404": {"description": "Not found"}}},
            "delete": {"security": [{"BearerAuth": []}], "tags": ["goals"], "summary": "Delete a goal", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"204": {"description": "No content"}}}
        },
        "/goals/{id}/progress": {
            "put": {"security": [{"BearerAuth": []}], "tags": ["goals"], "summary": "Update goal progress, milestones and log", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "403": {"description": "Forbidden"}, "404": {"description": "Not found"}}}
        },
        "/goals/{id}/archive": {
            "post": {"security": [{"BearerAuth": []}], "tags": ["goals"], "summary": "Archive a goal with a learning note", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"201": {"description": "Created"}}}
        },
        "/goals/archived": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["goals"], "summary": "List archived goals", "responses": {"200": {"description": "OK"}}}
        },
        "/goals/export": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["goals"], "summary": "Export goals and tasks as CSV", "produces": ["text/csv"], "responses": {"200": {"description": "OK"}, "404": {"description": "Nothing to export"}}}
        },
        "/goals/plan": {
            "post": {"security": [{"BearerAuth": []}], "tags": ["goals"], "summary": "Suggest milestones for a goal", "responses": {"200": {"description": "OK"}}}
        },
        "/tasks": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["tasks"], "summary": "List tasks", "responses": {"200": {"description": "OK"}}},
            "post": {"security": [{"BearerAuth": []}], "tags": ["tasks"], "summary": "Create a task", "responses": {"201": {"description": "Created"}}}
        },
        "/tasks/{id}": {
            "delete": {"security": [{"BearerAuth": []}], "tags": ["tasks"], "summary": "Delete a task", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"204": {"description": "No content"}}}
        },
        "/tasks/{id}/complete": {
            "put": {"security": [{"BearerAuth": []}], "tags": ["tasks"], "summary": "Mark a task completed", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}}}
        },
        "/tasks/{id}/reopen": {
            "put": {"security": [{"BearerAuth": []}], "tags": ["tasks"], "summary": "Reopen a task", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}}}
        }
    },
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Kanso Progress API",
	Description:      "Goals, tasks and the activity heatmap behind them.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
