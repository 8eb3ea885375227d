// Package openapi describes a fighting API as an OpenAPI 3 document and
// serves it with a Scalar reference page.
package openapi
