// Package normalisers provides implementations of the Normaliser interface
// for entry content stored in archives. Each normaliser knows how to turn
// one family of MIME types into plain text and scan it for structure.
package normalisers
