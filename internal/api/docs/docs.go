// Package docs holds the OpenAPI description served at /swagger.
//
// Keep in sync with the godoc annotations in internal/api/handlers
// (swag init -g base.go -d internal/api/handlers -o internal/api/docs).
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "license": {
            "name": "MIT",
            "url": "https://opensource.org/licenses/MIT"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/health": {
            "get": {
                "description": "Returns ok, or 503 when the journal is attached but unreachable",
                "produces": ["application/json"],
                "tags": ["system"],
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.StatusResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/models.StatusResponse"}}
                }
            }
        },
        "/stats": {
            "get": {
                "security": [{"ApiKeyAuth": []}],
                "description": "Returns frame/message counters plus process and host statistics",
                "produces": ["application/json"],
                "tags": ["system"],
                "summary": "Tracer statistics",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.StatsResponse"}}
                }
            }
        },
        "/events": {
            "get": {
                "security": [{"ApiKeyAuth": []}],
                "description": "Returns decoded messages newest first, from the journal when enabled, else from memory",
                "produces": ["application/json"],
                "tags": ["events"],
                "summary": "Recent DNS messages",
                "parameters": [
                    {"type": "integer", "description": "Maximum events (default 50, max 1000)", "name": "limit", "in": "query"},
                    {"type": "string", "description": "Question name or a domain it lies below", "name": "name", "in": "query"},
                    {"type": "string", "description": "Response code mnemonic, e.g. NXDOMAIN", "name": "rcode", "in": "query"},
                    {"type": "boolean", "description": "Only messages that failed to decode fully", "name": "errors", "in": "query"},
                    {"type": "string", "description": "RFC 3339 lower bound on observation time", "name": "since", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.EventsResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/models.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            }
        },
        "/events/export": {
            "get": {
                "security": [{"ApiKeyAuth": []}],
                "description": "Streams every journaled event, oldest first, as JSON lines or CSV",
                "produces": ["text/plain"],
                "tags": ["events"],
                "summary": "Export the journal",
                "parameters": [
                    {"type": "string", "description": "jsonl (default) or csv", "name": "format", "in": "query"},
                    {"type": "string", "description": "RFC 3339 lower bound on observation time", "name": "since", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "string"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/models.ErrorResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            }
        },
        "/names": {
            "get": {
                "security": [{"ApiKeyAuth": []}],
                "description": "Returns the names seen most often, with first/last observation times",
                "produces": ["application/json"],
                "tags": ["events"],
                "summary": "Top observed names",
                "parameters": [
                    {"type": "integer", "description": "Maximum names (default 50, max 1000)", "name": "limit", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.NamesResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/models.ErrorResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            }
        },
        "/interfaces": {
            "get": {
                "security": [{"ApiKeyAuth": []}],
                "description": "Lists the network interfaces live capture can open",
                "produces": ["application/json"],
                "tags": ["system"],
                "summary": "Capture devices",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.InterfacesResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/models.ErrorResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "models.ErrorResponse": {
            "type": "object",
            "properties": {"error": {"type": "string"}}
        },
        "models.StatusResponse": {
            "type": "object",
            "properties": {"status": {"type": "string"}, "detail": {"type": "string"}}
        },
        "models.StatsResponse": {
            "type": "object",
            "properties": {
                "uptime": {"type": "string"},
                "uptime_seconds": {"type": "integer"},
                "start_time": {"type": "string"},
                "source": {"type": "string"},
                "goroutines": {"type": "integer"},
                "memory_alloc_mb": {"type": "number"},
                "num_cpu": {"type": "integer"},
                "process": {"$ref": "#/definitions/models.ProcessStats"},
                "host": {"$ref": "#/definitions/models.HostStats"},
                "trace": {"$ref": "#/definitions/trace.StatsSnapshot"},
                "recent_events": {"type": "integer"},
                "journal": {"$ref": "#/definitions/models.JournalStats"}
            }
        },
        "models.ProcessStats": {
            "type": "object",
            "properties": {
                "pid": {"type": "integer"},
                "cpu_percent": {"type": "number"},
                "rss_mb": {"type": "number"},
                "num_threads": {"type": "integer"}
            }
        },
        "models.HostStats": {
            "type": "object",
            "properties": {
                "hostname": {"type": "string"},
                "os": {"type": "string"},
                "platform": {"type": "string"},
                "uptime_seconds": {"type": "integer"}
            }
        },
        "models.JournalStats": {
            "type": "object",
            "properties": {"events": {"type": "integer"}}
        },
        "trace.StatsSnapshot": {
            "type": "object",
            "properties": {
                "frames": {"type": "integer"},
                "matched": {"type": "integer"},
                "dissect_errors": {"type": "integer"},
                "decode_errors": {"type": "integer"},
                "published": {"type": "integer"},
                "filtered": {"type": "integer"}
            }
        },
        "models.EventsResponse": {
            "type": "object",
            "properties": {
                "origin": {"type": "string"},
                "count": {"type": "integer"},
                "events": {"type": "array", "items": {"$ref": "#/definitions/trace.Summary"}}
            }
        },
        "trace.Summary": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "observed_at": {"type": "string"},
                "source": {"type": "string"},
                "destination": {"type": "string"},
                "payload_size": {"type": "integer"},
                "transaction_id": {"type": "integer"},
                "response": {"type": "boolean"},
                "opcode": {"type": "integer"},
                "rcode": {"type": "string"},
                "flags": {"type": "string"},
                "qdcount": {"type": "integer"},
                "ancount": {"type": "integer"},
                "nscount": {"type": "integer"},
                "arcount": {"type": "integer"},
                "questions": {"type": "array", "items": {"$ref": "#/definitions/trace.QuestionSummary"}},
                "answers": {"type": "array", "items": {"$ref": "#/definitions/trace.RecordSummary"}},
                "authorities": {"type": "array", "items": {"$ref": "#/definitions/trace.RecordSummary"}},
                "additionals": {"type": "array", "items": {"$ref": "#/definitions/trace.RecordSummary"}},
                "first_seen": {"type": "boolean"},
                "error": {"type": "string"},
                "error_kind": {"type": "string"}
            }
        },
        "trace.QuestionSummary": {
            "type": "object",
            "properties": {"name": {"type": "string"}, "type": {"type": "string"}, "class": {"type": "integer"}}
        },
        "trace.RecordSummary": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "type": {"type": "string"},
                "class": {"type": "integer"},
                "ttl": {"type": "integer"},
                "data": {"type": "string"}
            }
        },
        "models.NamesResponse": {
            "type": "object",
            "properties": {
                "count": {"type": "integer"},
                "names": {"type": "array", "items": {"$ref": "#/definitions/database.NameStat"}}
            }
        },
        "database.NameStat": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "first_seen": {"type": "string"},
                "last_seen": {"type": "string"},
                "hits": {"type": "integer"}
            }
        },
        "models.InterfacesResponse": {
            "type": "object",
            "properties": {
                "count": {"type": "integer"},
                "interfaces": {"type": "array", "items": {"$ref": "#/definitions/capture.Interface"}}
            }
        },
        "capture.Interface": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "description": {"type": "string"},
                "addresses": {"type": "array", "items": {"type": "string"}}
            }
        }
    },
    "securityDefinitions": {
        "ApiKeyAuth": {
            "type": "apiKey",
            "name": "X-API-Key",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "dnstrace API",
	Description:      "Read-only API over a passive DNS response tracer.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
