// Package api embeds the HTTP and event contracts of the service.
package api

import _ "embed"

//go:embed openapi/business-rules.yaml
var OpenAPISpec []byte

//go:embed asyncapi/business-rules.yaml
var AsyncAPISpec []byte
