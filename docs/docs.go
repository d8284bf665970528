// Package docs registers the lircbridge OpenAPI document with swag.
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
        "/echo": {
            "get": {
                "description": "The assistant passes its request JSON in the \"json\" query parameter;\nslots.Question.value is matched against the macro names.",
                "produces": ["application/json"],
                "tags": ["voice"],
                "summary": "Voice assistant turn",
                "parameters": [
                    {"type": "string", "description": "Assistant request JSON", "name": "json", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/message.Reply"}}
                }
            }
        },
        "/macros.json": {
            "get": {
                "produces": ["application/json"],
                "tags": ["macros"],
                "summary": "List macros",
                "responses": {"200": {"description": "OK", "schema": {"type": "object"}}}
            }
        },
        "/macros/{macro}": {
            "post": {
                "tags": ["macros"],
                "summary": "Run a macro",
                "parameters": [
                    {"type": "string", "description": "Macro name", "name": "macro", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "Queued", "schema": {"type": "string"}},
                    "404": {"description": "Unknown macro", "schema": {"type": "string"}}
                }
            }
        },
        "/macros/{macro}.json": {
            "get": {
                "produces": ["application/json"],
                "tags": ["macros"],
                "summary": "Show a macro",
                "parameters": [
                    {"type": "string", "description": "Macro name followed by .json", "name": "macro", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"type": "array", "items": {"type": "string"}}}},
                    "404": {"description": "Unknown macro", "schema": {"type": "string"}}
                }
            }
        },
        "/refresh": {
            "get": {
                "tags": ["admin"],
                "summary": "Reload configuration",
                "responses": {
                    "303": {"description": "Redirect to /", "schema": {"type": "string"}},
                    "500": {"description": "Reload failed", "schema": {"type": "string"}}
                }
            }
        },
        "/remotes.json": {
            "get": {
                "description": "Returns every remote known to lircd with blacklisted commands removed.",
                "produces": ["application/json"],
                "tags": ["remotes"],
                "summary": "List remotes",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": {"type": "array", "items": {"type": "string"}}}}
                }
            }
        },
        "/remotes/{remote}.json": {
            "get": {
                "produces": ["application/json"],
                "tags": ["remotes"],
                "summary": "List commands of a remote",
                "parameters": [
                    {"type": "string", "description": "Remote name followed by .json", "name": "remote", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"type": "string"}}},
                    "404": {"description": "Unknown remote", "schema": {"type": "string"}}
                }
            }
        },
        "/remotes/{remote}/{command}": {
            "post": {
                "description": "POST /remotes/{remote}/{command} sends once; the send_start and\nsend_stop suffixes start and stop a repeated transmission.",
                "tags": ["remotes"],
                "summary": "Send an IR command",
                "parameters": [
                    {"type": "string", "description": "Remote name", "name": "remote", "in": "path", "required": true},
                    {"type": "string", "description": "Command name", "name": "command", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "Queued", "schema": {"type": "string"}},
                    "400": {"description": "Invalid remote or command", "schema": {"type": "string"}},
                    "503": {"description": "Driver closed or send queue full", "schema": {"type": "string"}}
                }
            }
        },
        "/ws": {
            "get": {
                "description": "WebSocket endpoint. Each message is {\"time\",\"mode\",\"remote\",\"command\"}.",
                "tags": ["events"],
                "summary": "Transmission event stream",
                "responses": {}
            }
        }
    },
    "definitions": {
        "message.Reply": {
            "type": "object",
            "properties": {
                "shouldEndSession": {"type": "boolean"},
                "text": {"type": "string"}
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
	Title:            "lircbridge API",
	Description:      "IR remote control bridge for web clients and voice assistants.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
