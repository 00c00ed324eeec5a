// Package docs holds the OpenAPI document served under /swagger. Keep it in
// step with the swag annotations on the handlers.
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
        "/register": {
            "post": {
                "consumes": ["application/x-www-form-urlencoded", "application/json"],
                "produces": ["text/html", "application/json"],
                "tags": ["auth"],
                "summary": "Register a new account",
                "parameters": [
                    {"type": "string", "description": "Display name", "name": "username", "in": "formData", "required": true},
                    {"type": "string", "description": "Email (unique, case-sensitive)", "name": "email", "in": "formData", "required": true},
                    {"type": "string", "description": "Password", "name": "password", "in": "formData", "required": true},
                    {"type": "string", "description": "Captcha token", "name": "captchaToken", "in": "formData", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.messageResponse"}},
                    "400": {"description": "captcha missing, invalid input or email taken", "schema": {"$ref": "#/definitions/handler.errorResponse"}},
                    "403": {"description": "captcha rejected", "schema": {"$ref": "#/definitions/handler.errorResponse"}},
                    "500": {"description": "storage failure", "schema": {"$ref": "#/definitions/handler.errorResponse"}},
                    "503": {"description": "captcha service unavailable", "schema": {"$ref": "#/definitions/handler.errorResponse"}}
                }
            }
        },
        "/login": {
            "post": {
                "consumes": ["application/x-www-form-urlencoded", "application/json"],
                "tags": ["auth"],
                "summary": "Log in",
                "parameters": [
                    {"type": "string", "description": "Email", "name": "email", "in": "formData", "required": true},
                    {"type": "string", "description": "Password", "name": "password", "in": "formData", "required": true},
                    {"type": "string", "description": "Captcha token", "name": "captchaToken", "in": "formData", "required": true}
                ],
                "responses": {
                    "302": {"description": "Redirect to / with the session cookie set"},
                    "400": {"description": "captcha missing or invalid input", "schema": {"$ref": "#/definitions/handler.errorResponse"}},
                    "401": {"description": "unknown email or bad password", "schema": {"$ref": "#/definitions/handler.errorResponse"}},
                    "403": {"description": "captcha rejected", "schema": {"$ref": "#/definitions/handler.errorResponse"}},
                    "503": {"description": "captcha service unavailable", "schema": {"$ref": "#/definitions/handler.errorResponse"}}
                }
            }
        },
        "/logout": {
            "get": {
                "tags": ["auth"],
                "summary": "Log out",
                "responses": {
                    "302": {"description": "Redirect to the login page"}
                }
            }
        },
        "/me": {
            "get": {
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Current user",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.Identity"}},
                    "302": {"description": "Redirect to the login page without a session"}
                }
            }
        },
        "/contact": {
            "post": {
                "consumes": ["application/x-www-form-urlencoded", "application/json"],
                "produces": ["text/plain", "application/json"],
                "tags": ["contact"],
                "summary": "Send a contact message",
                "parameters": [
                    {"type": "string", "description": "Sender name", "name": "name", "in": "formData", "required": true},
                    {"type": "string", "description": "Sender email", "name": "email", "in": "formData", "required": true},
                    {"type": "string", "description": "Message", "name": "message", "in": "formData", "required": true},
                    {"type": "string", "description": "Captcha token", "name": "captchaToken", "in": "formData", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.messageResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.errorResponse"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/handler.errorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/handler.errorResponse"}}
                }
            }
        },
        "/health/ready": {
            "get": {
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Readiness probe",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.readinessResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/handler.readinessResponse"}}
                }
            }
        }
    },
    "definitions": {
        "domain.Identity": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "username": {"type": "string"}
            }
        },
        "handler.dependencyStatus": {
            "type": "object",
            "properties": {
                "error": {"type": "string"},
                "status": {"type": "string"}
            }
        },
        "handler.errorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string"}
            }
        },
        "handler.messageResponse": {
            "type": "object",
            "properties": {
                "message": {"type": "string"},
                "user": {"$ref": "#/definitions/domain.Identity"}
            }
        },
        "handler.readinessResponse": {
            "type": "object",
            "properties": {
                "dependencies": {
                    "type": "object",
                    "additionalProperties": {"$ref": "#/definitions/handler.dependencyStatus"}
                },
                "status": {"type": "string"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "authportal API",
	Description:      "Captcha-gated registration, login and cookie sessions for a small web application.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
