package domain

import "errors"

// ErrSessionNotFound is returned when a session ID cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")

// ErrSchemaCollision is returned when two schemas sharing a name are composed
// in strict mode.
var ErrSchemaCollision = errors.New("schema name collision")

// ErrUnknownSchema is returned when a schema name is not part of a composition.
var ErrUnknownSchema = errors.New("unknown schema")

// ErrUnknownOperation is returned when an operation name is not declared by a schema.
var ErrUnknownOperation = errors.New("unknown operation")

// ErrRequestPanic wraps a panic raised inside a request function.
var ErrRequestPanic = errors.New("request panicked")
