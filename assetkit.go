// Package assetkit contains the version number and shared defaults of assetkit.
package assetkit

// Version is the current version of assetkit.
//
// This variable is set at build time using the -X linker flag. If not set,
// it defaults to "devel".
var Version = "devel"

// DefaultManifestPath is where Vite writes its manifest when build.manifest is
// enabled and build.outDir is "build". The build is considered to be a
// production build if and only if this file exists.
const DefaultManifestPath = "build/manifest.json"

// DefaultBuildDir is the Vite output directory.
const DefaultBuildDir = "build"

// DefaultDevServer is the address the Vite dev server listens on by default.
const DefaultDevServer = "http://localhost:5173"

// DefaultBase is the public URL prefix built assets are served from.
const DefaultBase = "/.assetkit/build/"

// BuildPath is where assetd serves the Vite build directory.
const BuildPath = "/.assetkit/build/"

// APIPrefix is the location where all assetd API endpoints are located.
const APIPrefix = "/.assetkit/api/"
