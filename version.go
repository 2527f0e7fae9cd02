package rolo

import _ "embed"

// Version is the library version, taken from the VERSION file at the
// repository root.
//
//go:embed VERSION
var Version string
