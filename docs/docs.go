// Package docs registra la especificación OpenAPI servida en /swagger/*.
// Regenerar con: swag init -g cmd/api/main.go -o docs
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
        "/health": {
            "get": {
                "tags": ["ops"],
                "summary": "Health check",
                "responses": {"200": {"description": "ok"}}
            }
        },
        "/auth/session": {
            "post": {
                "tags": ["auth"],
                "summary": "Crear sesión",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/sessions.createSessionRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/sessions.sessionResponse"}},
                    "401": {"description": "unauthorized"},
                    "429": {"description": "too many requests"}
                }
            }
        },
        "/roles/permissions": {
            "get": {
                "tags": ["permissions"],
                "summary": "Tabla de permisos de todos los roles",
                "produces": ["application/json"],
                "responses": {"200": {"description": "OK"}, "403": {"description": "forbidden"}}
            }
        },
        "/roles/{role}/permissions": {
            "put": {
                "tags": ["permissions"],
                "summary": "Reemplazar permisos de un rol (admin es inmutable)",
                "parameters": [
                    {"type": "string", "name": "role", "in": "path", "required": true}
                ],
                "responses": {"200": {"description": "OK"}, "403": {"description": "forbidden"}}
            }
        },
        "/appointments/{appointmentID}/consultation": {
            "post": {
                "tags": ["workflow"],
                "summary": "Crear consulta desde una cita",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"type": "string", "name": "appointmentID", "in": "path", "required": true}
                ],
                "responses": {
                    "201": {"description": "Created"},
                    "403": {"description": "forbidden"},
                    "422": {"description": "IDENTITY_UNRESOLVED con state"}
                }
            }
        },
        "/owners/{ownerID}/patients/{patientID}/activity": {
            "get": {
                "tags": ["activity"],
                "summary": "Timeline de actividad del paciente",
                "parameters": [
                    {"type": "string", "name": "ownerID", "in": "path", "required": true},
                    {"type": "string", "name": "patientID", "in": "path", "required": true},
                    {"type": "string", "name": "types", "in": "query"},
                    {"type": "integer", "name": "limit", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/dashboard/summary": {
            "get": {
                "tags": ["dashboard"],
                "summary": "Resumen del día",
                "responses": {"200": {"description": "OK"}}
            }
        }
    },
    "definitions": {
        "sessions.createSessionRequest": {
            "type": "object",
            "properties": {"idToken": {"type": "string"}}
        },
        "sessions.sessionResponse": {
            "type": "object",
            "properties": {"uid": {"type": "string"}, "role": {"type": "string"}}
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Vet Clinic API",
	Description:      "Autorización por rol y flujo clínico de la clínica veterinaria.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
