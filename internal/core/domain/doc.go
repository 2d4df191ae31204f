// Package domain defines the core entities of the archive server.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - ArchiveDescriptor: Descriptive metadata of one archive file
//   - SearchHit: One search or browse result inside an archive
//   - ExtractedContent: Decoded, formatted view of one entry
//   - Settings: Configuration consumed by the core
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
