// Package web embeds the single-page chat client.
package web

import "embed"

// Dist holds the built web client.
//
//go:embed dist
var Dist embed.FS
