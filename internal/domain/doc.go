// Package domain defines the core business entities and errors.
package domain
