// Package services holds the archive core: the registry of open archives,
// the search coordinator, the content extractor and the settings loader.
//
// The archive registry owns every open archive handle. Search and content
// services borrow handles through ArchiveRegistry.WithArchive and never
// keep them past the callback.
package services
