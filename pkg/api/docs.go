package api

import (
	"net/http"

	"github.com/swaggo/swag"

	"github.com/ssargent/ecudatalog/pkg/log"
)

// docTemplate follows the layout swag init generates.
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
        "ApiKeyAuth": {
            "type": "apiKey",
            "name": "X-API-Key",
            "in": "header"
        }
    },
    "security": [{"ApiKeyAuth": []}],
    "paths": {
        "/health": {
            "get": {
                "summary": "Health check",
                "produces": ["application/json"],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/APIResponse"}}}
            }
        },
        "/datalogs": {
            "get": {
                "summary": "List archived datalogs",
                "produces": ["application/json"],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/APIResponse"}}}
            },
            "post": {
                "summary": "Upload a datalog",
                "description": "The request body is the raw FPDL, OPDL or KFLASH file.",
                "consumes": ["application/octet-stream"],
                "produces": ["application/json"],
                "parameters": [
                    {"name": "name", "in": "query", "type": "string", "description": "display name"},
                    {"name": "body", "in": "body", "required": true, "schema": {"type": "string", "format": "binary"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/APIResponse"}},
                    "400": {"description": "Not a valid datalog", "schema": {"$ref": "#/definitions/APIResponse"}},
                    "413": {"description": "Upload too large", "schema": {"$ref": "#/definitions/APIResponse"}}
                }
            }
        },
        "/datalogs/{id}": {
            "get": {
                "summary": "Get a datalog summary",
                "produces": ["application/json"],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/APIResponse"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/APIResponse"}}
                }
            },
            "delete": {
                "summary": "Delete a datalog",
                "produces": ["application/json"],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/APIResponse"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/APIResponse"}}
                }
            }
        },
        "/datalogs/{id}/raw": {
            "get": {
                "summary": "Download the stored datalog",
                "produces": ["application/octet-stream"],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "string", "format": "binary"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/APIResponse"}}
                }
            }
        },
        "/datalogs/{id}/frames": {
            "get": {
                "summary": "Decoded frames",
                "produces": ["application/json"],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "from", "in": "query", "type": "integer", "default": 0},
                    {"name": "limit", "in": "query", "type": "integer", "default": 100, "maximum": 10000}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/APIResponse"}},
                    "400": {"description": "Bad window", "schema": {"$ref": "#/definitions/APIResponse"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/APIResponse"}}
                }
            }
        }
    },
    "definitions": {
        "APIResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "data": {},
                "error": {"type": "string"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "ecudl datalog API",
	Description:      "Archive, inspect and download FlashPro and KPro datalogs.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}

const swaggerUI = `<!DOCTYPE html>
<html>
<head>
	 <title>ecudl API Documentation</title>
	 <link rel="stylesheet" type="text/css" href="https://unpkg.com/swagger-ui-dist@3.25.0/swagger-ui.css" />
</head>
<body>
	 <div id="swagger-ui"></div>
	 <script src="https://unpkg.com/swagger-ui-dist@3.25.0/swagger-ui-bundle.js"></script>
	 <script>
	   window.onload = function() {
	     SwaggerUIBundle({
	       url: '/swagger/swagger.json',
	       dom_id: '#swagger-ui',
	       presets: [
	         SwaggerUIBundle.presets.apis,
	         SwaggerUIBundle.presets.standalone
	       ]
	     });
	   };
	 </script>
</body>
</html>`

func (s *Server) handleSwagger(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/swagger/", "/swagger/index.html":
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(swaggerUI))
	case "/swagger/swagger.json":
		doc, err := swag.ReadDoc(SwaggerInfo.InstanceName())
		if err != nil {
			s.logger.Error("failed to render swagger doc", log.Err(err))
			http.Error(w, "Failed to generate Swagger documentation", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(doc))
	default:
		http.NotFound(w, r)
	}
}
