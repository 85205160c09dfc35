// Package docs registers the OpenAPI document that github.com/gofiber/swagger
// serves at /docs. The template below describes the HTTP endpoints fronted by
// internal/http/handler (GET, HEAD and PUT on the object route, plus /stats,
// /metrics and /health); it is hand-maintained rather than
// produced by `swag init` since there are no swag annotations in this repo,
// but it follows the same swag.Spec registration shape that tool emits.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "cachegate",
        "description": "Read-mostly HTTP proxy fronting S3/Azure object stores with a size-bounded LRU cache.",
        "version": "1.0"
    },
    "basePath": "/",
    "paths": {
        "/{bucketId}/{path}": {
            "get": {
                "summary": "Fetch an object, serving it from cache when present",
                "parameters": [
                    {"name": "bucketId", "in": "path", "required": true, "type": "string"},
                    {"name": "path", "in": "path", "required": true, "type": "string"},
                    {"name": "sig", "in": "query", "required": false, "type": "string", "description": "presigned token"}
                ],
                "responses": {
                    "200": {"description": "object body"},
                    "401": {"description": "authentication failed"},
                    "404": {"description": "bucket or object not found"},
                    "502": {"description": "upstream store error"}
                }
            },
            "head": {
                "summary": "Fetch object metadata, optionally triggering a background cache warm",
                "parameters": [
                    {"name": "bucketId", "in": "path", "required": true, "type": "string"},
                    {"name": "path", "in": "path", "required": true, "type": "string"},
                    {"name": "sig", "in": "query", "required": false, "type": "string"},
                    {"name": "prefetch", "in": "query", "required": false, "type": "string", "description": "1|true to warm the cache asynchronously"}
                ],
                "responses": {
                    "200": {"description": "object metadata in headers"},
                    "401": {"description": "authentication failed"},
                    "404": {"description": "bucket or object not found"}
                }
            },
            "put": {
                "summary": "Upload an object to the backing store, caching it when within size limits",
                "parameters": [
                    {"name": "bucketId", "in": "path", "required": true, "type": "string"},
                    {"name": "path", "in": "path", "required": true, "type": "string"},
                    {"name": "sig", "in": "query", "required": false, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "upload accepted"},
                    "401": {"description": "authentication failed"},
                    "502": {"description": "upstream store error"}
                }
            }
        },
        "/stats": {
            "get": {
                "summary": "JSON snapshot of request, cache, and upstream counters",
                "responses": {"200": {"description": "stats snapshot"}}
            }
        },
        "/metrics": {
            "get": {
                "summary": "Prometheus text exposition of the same counters",
                "responses": {"200": {"description": "prometheus exposition format"}}
            }
        },
        "/health": {
            "get": {
                "summary": "Liveness probe",
                "responses": {"200": {"description": "OK"}}
            }
        }
    }
}`

// SwaggerInfo holds the registered spec; gofiber/swagger resolves it through
// swag.Register at startup and serves it at /docs/doc.json.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "cachegate",
	Description:      "Read-mostly HTTP proxy fronting S3/Azure object stores with a size-bounded LRU cache.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
