package mcp

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mobilemutex/zim-mcp/internal/core/domain"
)

func TestNewServer(t *testing.T) {
	t.Run("missing ports return error", func(t *testing.T) {
		ports := &Ports{}
		server, err := NewServer(ports)
		require.Error(t, err)
		assert.Nil(t, server)
		assert.ErrorIs(t, err, ErrMissingArchiveService)
	})

	t.Run("valid ports creates server", func(t *testing.T) {
		server := newTestServer(t)
		assert.NotNil(t, server)
	})
}

func TestPorts_Validate(t *testing.T) {
	full := newTestServer(t).ports

	t.Run("all ports is valid", func(t *testing.T) {
		assert.NoError(t, full.Validate())
	})

	tests := []struct {
		name    string
		mutate  func(p *Ports)
		wantErr error
	}{
		{"missing archive service", func(p *Ports) { p.Archives = nil }, ErrMissingArchiveService},
		{"missing search service", func(p *Ports) { p.Search = nil }, ErrMissingSearchService},
		{"missing content service", func(p *Ports) { p.Content = nil }, ErrMissingContentService},
		{"invalid settings", func(p *Ports) { p.Settings.SearchCacheSize = 0 }, domain.ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ports := *full
			tt.mutate(&ports)
			assert.ErrorIs(t, ports.Validate(), tt.wantErr)
		})
	}
}

func TestServer_HTTPHandler_ServesMetrics(t *testing.T) {
	server := newTestServer(t)

	rec := httptest.NewRecorder()
	server.httpHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "zim_mcp_")
}
