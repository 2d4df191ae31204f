package normalisers

import (
	"mime"
	"sort"
	"strings"
	"sync"

	"github.com/mobilemutex/zim-mcp/internal/core/ports/driven"
	"github.com/mobilemutex/zim-mcp/internal/normalisers/html"
	"github.com/mobilemutex/zim-mcp/internal/normalisers/markdown"
	"github.com/mobilemutex/zim-mcp/internal/normalisers/plaintext"
)

// Ensure Registry implements the interface.
var _ driven.NormaliserRegistry = (*Registry)(nil)

// Registry maps MIME types to normalisers.
type Registry struct {
	mu     sync.RWMutex
	byType map[string]driven.Normaliser
}

// NewRegistry creates a registry holding the given normalisers, in
// decreasing priority.
func NewRegistry(normalisers ...driven.Normaliser) *Registry {
	r := &Registry{byType: make(map[string]driven.Normaliser)}
	for _, n := range normalisers {
		r.Register(n)
	}
	return r
}

// Default returns a registry with the markup, markdown and plain text
// normalisers.
func Default() *Registry {
	return NewRegistry(html.New(), markdown.New(), plaintext.New())
}

// Register adds n for every MIME type it supports that has no
// normaliser yet.
func (r *Registry) Register(n driven.Normaliser) {
	if n == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range n.SupportedMIMETypes() {
		t = baseType(t)
		if _, exists := r.byType[t]; !exists {
			r.byType[t] = n
		}
	}
}

// For returns the normaliser registered for mimeType.
func (r *Registry) For(mimeType string) (driven.Normaliser, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n, ok := r.byType[baseType(mimeType)]
	return n, ok
}

// SupportedMIMETypes returns the registered MIME types, sorted.
func (r *Registry) SupportedMIMETypes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	types := make([]string, 0, len(r.byType))
	for t := range r.byType {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// baseType strips parameters and lowercases a MIME type.
func baseType(mimeType string) string {
	if t, _, err := mime.ParseMediaType(mimeType); err == nil {
		return t
	}
	return strings.ToLower(strings.TrimSpace(mimeType))
}
