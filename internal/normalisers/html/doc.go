// Package html scans archive entries stored as markup. It strips tags,
// scripts and styles for plain text, and reads the title, meta description,
// headings, anchors and image count without building a DOM.
package html
