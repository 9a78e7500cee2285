package wattle

import (
	_ "embed"
)

// Version is the library version, sourced from the VERSION file at the
// repository root so release tooling and the binary agree on one value.
//
//go:embed VERSION
var Version string
