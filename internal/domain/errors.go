// Package domain provides shared domain-level sentinel errors.
package domain

import "errors"

// ErrNotFound indicates the requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrConflict indicates the entity collides with an existing one (unique subdomain, duplicate ISBN).
var ErrConflict = errors.New("conflict: resource already exists")

// ErrValidation indicates the request payload failed domain validation.
var ErrValidation = errors.New("validation failed")
