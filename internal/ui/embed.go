// Package ui embeds the browser client served at /.
package ui

import "embed"

// DistFS holds the built client under dist/.
//
//go:embed dist
var DistFS embed.FS
