package reschema

import _ "embed"

// Version is the library version.
//
//go:embed VERSION
var Version string
