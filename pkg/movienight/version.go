// Package movienight holds build metadata for the movienight module.
package movienight

// Version is the semantic version of movienight.
const Version = "0.1.0"

// ModulePath is the Go module path.
const ModulePath = "github.com/mesh-intelligence/movienight"
