// Package data holds the built-in assetkit configuration.
package data

import "embed"

var (
	//go:embed assetkit.yaml
	Config embed.FS
)
