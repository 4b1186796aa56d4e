// Package api holds the OpenAPI contract of the HTTP adapter.
package api

import _ "embed"

// Spec is the OpenAPI 3 document served at /openapi.yaml.
//
//go:embed openapi.yaml
var Spec []byte
