package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultSettings(t *testing.T) {
	s := DefaultSettings()

	assert.Equal(t, "./zim_files", s.ArchiveDirectory)
	assert.Equal(t, 100, s.MaxSearchResults)
	assert.Equal(t, 50000, s.MaxContentLength)
	assert.Equal(t, 10, s.ArchiveCacheSize)
	assert.Equal(t, 1000, s.SearchCacheSize)
	assert.Equal(t, 5, s.MaxConcurrentSearches)
	assert.True(t, s.ParallelSearch)
	assert.Equal(t, FormatText, s.DefaultFormat)
	require.NoError(t, s.Validate())
}

func TestSettings_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Settings)
		target error
	}{
		{"empty directory", func(s *Settings) { s.ArchiveDirectory = "" }, ErrInvalidInput},
		{"zero archive cache", func(s *Settings) { s.ArchiveCacheSize = 0 }, ErrInvalidInput},
		{"negative search cache", func(s *Settings) { s.SearchCacheSize = -1 }, ErrInvalidInput},
		{"zero max results", func(s *Settings) { s.MaxSearchResults = 0 }, ErrInvalidInput},
		{"zero content length", func(s *Settings) { s.MaxContentLength = 0 }, ErrInvalidInput},
		{"zero concurrency", func(s *Settings) { s.MaxConcurrentSearches = 0 }, ErrInvalidInput},
		{"unknown format", func(s *Settings) { s.DefaultFormat = "pdf" }, ErrInvalidFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := DefaultSettings()
			tt.mutate(&s)
			assert.ErrorIs(t, s.Validate(), tt.target)
		})
	}
}

func TestParseContentFormat(t *testing.T) {
	tests := []struct {
		input    string
		expected ContentFormat
		wantErr  bool
	}{
		{"text", FormatText, false},
		{"HTML", FormatHTML, false},
		{" raw ", FormatRaw, false},
		{"markdown", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			f, err := ParseContentFormat(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidFormat)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, f)
		})
	}
}

func TestSearchPage_HasMoreBasic(t *testing.T) {
	full := SearchPage{Hits: make([]SearchHit, 5), Limit: 5}
	short := SearchPage{Hits: make([]SearchHit, 3), Limit: 5}
	empty := SearchPage{Limit: 0}

	assert.True(t, full.HasMore())
	assert.False(t, short.HasMore())
	assert.False(t, empty.HasMore())
}

func TestEntryRef_String(t *testing.T) {
	assert.Equal(t, "A/Volcano", ByPath("A/Volcano").String())
	assert.Equal(t, "title:Volcano", ByTitle("Volcano").String())
}
