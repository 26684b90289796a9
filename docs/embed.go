// Package docs embeds the REST API documentation served at /docs.
package docs

import (
	_ "embed"
)

// OpenAPISpec is the OpenAPI document for the Angela API, served raw at
// /openapi.yaml and rendered by the Swagger UI and ReDoc pages.
//
//go:embed openapi.yaml
var OpenAPISpec []byte
