package normalisers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mobilemutex/zim-mcp/internal/normalisers/html"
	"github.com/mobilemutex/zim-mcp/internal/normalisers/markdown"
	"github.com/mobilemutex/zim-mcp/internal/normalisers/plaintext"
)

func TestRegistry_For(t *testing.T) {
	r := Default()

	tests := []struct {
		mimeType string
		want     any
	}{
		{mimeType: "text/html", want: &html.Normaliser{}},
		{mimeType: "text/html; charset=utf-8", want: &html.Normaliser{}},
		{mimeType: "TEXT/MARKDOWN", want: &markdown.Normaliser{}},
		{mimeType: "text/plain; charset=iso-8859-1", want: &plaintext.Normaliser{}},
		{mimeType: "application/json", want: &plaintext.Normaliser{}},
	}

	for _, tt := range tests {
		t.Run(tt.mimeType, func(t *testing.T) {
			n, ok := r.For(tt.mimeType)
			require.True(t, ok)
			assert.IsType(t, tt.want, n)
		})
	}
}

func TestRegistry_ForUnknown(t *testing.T) {
	_, ok := Default().For("image/png")
	assert.False(t, ok)

	_, ok = NewRegistry().For("text/html")
	assert.False(t, ok)
}

func TestRegistry_FirstRegisteredWins(t *testing.T) {
	first := plaintext.New()
	r := NewRegistry(first, plaintext.New())

	n, ok := r.For("text/plain")
	require.True(t, ok)
	assert.Same(t, first, n)
}

func TestRegistry_RegisterNil(t *testing.T) {
	r := NewRegistry()
	r.Register(nil)
	assert.Empty(t, r.SupportedMIMETypes())
}

func TestRegistry_SupportedMIMETypes(t *testing.T) {
	types := Default().SupportedMIMETypes()

	assert.Contains(t, types, "text/html")
	assert.Contains(t, types, "text/markdown")
	assert.Contains(t, types, "text/plain")
	assert.IsNonDecreasing(t, types)
}
