// Package api implements the HTTP handlers and request/response models for
// the recommendation endpoints. Handlers are glue: they decode and
// validate, delegate to the service layer, and map errors to status codes.
package api
