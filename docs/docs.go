// Package docs holds the OpenAPI description served at /swagger.
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
        "/api/stats": {
            "get": {
                "produces": ["application/json"],
                "tags": ["api"],
                "summary": "Recipe totals and per-category counts",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/service.Stats"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}}
                }
            }
        },
        "/api/export": {
            "get": {
                "produces": ["application/json"],
                "tags": ["api"],
                "summary": "Export every recipe without image bytes",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/service.ExportRecord"}}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}}
                }
            }
        },
        "/api/categories": {
            "get": {
                "produces": ["application/json"],
                "tags": ["api"],
                "summary": "Category usage, most used first",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.CategoriesResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}}
                }
            }
        },
        "/api/search": {
            "get": {
                "produces": ["application/json"],
                "tags": ["api"],
                "summary": "Search recipes",
                "parameters": [
                    {"type": "string", "description": "Title contains", "name": "title", "in": "query"},
                    {"type": "string", "description": "Any category contains", "name": "category", "in": "query"},
                    {"type": "string", "description": "Ingredients contain", "name": "ingredient", "in": "query"},
                    {"type": "boolean", "description": "Favorite flag", "name": "favorite", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/handler.RecipeResponse"}}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}}
                }
            }
        },
        "/api/import": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["api"],
                "summary": "Import exported recipes",
                "parameters": [
                    {
                        "description": "Exported recipes",
                        "name": "records",
                        "in": "body",
                        "required": true,
                        "schema": {"type": "array", "items": {"$ref": "#/definitions/service.ExportRecord"}}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/service.ImportResult"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}}
                }
            }
        },
        "/api/admin/reset-data": {
            "post": {
                "produces": ["text/plain"],
                "tags": ["admin"],
                "summary": "Delete every recipe and image",
                "responses": {
                    "200": {"description": "summary", "schema": {"type": "string"}},
                    "500": {"description": "failure", "schema": {"type": "string"}}
                }
            }
        }
    },
    "definitions": {
        "errors.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string"},
                "code": {"type": "string"}
            }
        },
        "handler.CategoriesResponse": {
            "type": "object",
            "properties": {
                "categories": {"type": "array", "items": {"$ref": "#/definitions/service.CategoryUsage"}},
                "totalCategories": {"type": "integer"}
            }
        },
        "handler.RecipeResponse": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "title": {"type": "string"},
                "ingredients": {"type": "string"},
                "instructions": {"type": "string"},
                "categories": {"type": "array", "items": {"type": "string"}},
                "favorite": {"type": "boolean"},
                "reference": {"type": "string"},
                "imagePath": {"type": "string"}
            }
        },
        "service.CategoryUsage": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "count": {"type": "integer"}
            }
        },
        "service.ExportRecord": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "title": {"type": "string"},
                "ingredients": {"type": "string"},
                "instructions": {"type": "string"},
                "categories": {"type": "array", "items": {"type": "string"}},
                "favorite": {"type": "boolean"},
                "reference": {"type": "string"},
                "hasImage": {"type": "boolean"}
            }
        },
        "service.ImportFailure": {
            "type": "object",
            "properties": {
                "index": {"type": "integer"},
                "title": {"type": "string"},
                "error": {"type": "string"}
            }
        },
        "service.ImportResult": {
            "type": "object",
            "properties": {
                "imported": {"type": "integer"},
                "failed": {"type": "array", "items": {"$ref": "#/definitions/service.ImportFailure"}}
            }
        },
        "service.Stats": {
            "type": "object",
            "properties": {
                "totalRecipes": {"type": "integer"},
                "favoriteRecipes": {"type": "integer"},
                "categoryStats": {"type": "object", "additionalProperties": {"type": "integer"}},
                "averageRecipesPerCategory": {"type": "number"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{"http"},
	Title:            "Recipe API",
	Description:      "Recipe management: server-rendered pages plus JSON endpoints for stats, search, export and import.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
