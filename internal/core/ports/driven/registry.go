package driven

// NormaliserRegistry selects a normaliser by MIME type. When several
// normalisers handle the same type, the one registered first wins.
type NormaliserRegistry interface {
	// Register adds a normaliser.
	Register(normaliser Normaliser)

	// For returns the normaliser for a MIME type. Parameters such as
	// charset are ignored.
	For(mimeType string) (Normaliser, bool)

	// SupportedMIMETypes returns all MIME types that can be normalised.
	SupportedMIMETypes() []string
}
