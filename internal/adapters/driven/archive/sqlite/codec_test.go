package sqlite

import (
	"bytes"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompression_RoundTrip(t *testing.T) {
	text := bytes.Repeat([]byte("<p>lava flows downhill from the volcano</p>\n"), 64)

	for _, c := range []Compression{CompressionNone, CompressionLZ4, CompressionZstd} {
		t.Run(c.String(), func(t *testing.T) {
			blob, used, err := compress(text, c)
			require.NoError(t, err)
			assert.Equal(t, c, used)
			if c != CompressionNone {
				assert.Less(t, len(blob), len(text))
			}

			out, err := decompress(blob, used, len(text))
			require.NoError(t, err)
			assert.Equal(t, text, out)
		})
	}
}

func TestCompression_IncompressibleIsStoredPlain(t *testing.T) {
	tiny := []byte("ab")

	for _, c := range []Compression{CompressionLZ4, CompressionZstd} {
		blob, used, err := compress(tiny, c)
		require.NoError(t, err)
		assert.Equal(t, CompressionNone, used)
		assert.Equal(t, tiny, blob)
	}
}

func TestDecompress_SizeMismatch(t *testing.T) {
	_, err := decompress([]byte("abc"), CompressionNone, 4)
	assert.Error(t, err)

	blob, used, err := compress(bytes.Repeat([]byte("x"), 256), CompressionZstd)
	require.NoError(t, err)
	_, err = decompress(blob, used, 100)
	assert.Error(t, err)

	_, err = decompress(nil, Compression(9), 0)
	assert.Error(t, err)
}

func TestDecompress_RejectsCorruptSizes(t *testing.T) {
	text := bytes.Repeat([]byte("basalt cools into rock. "), 32)

	for _, c := range []Compression{CompressionNone, CompressionLZ4, CompressionZstd} {
		t.Run(c.String(), func(t *testing.T) {
			blob, used, err := compress(text, c)
			require.NoError(t, err)
			require.Equal(t, c, used)

			for _, size := range []int{-1, math.MinInt, MaxEntrySize + 1, math.MaxInt} {
				assert.NotPanics(t, func() {
					_, err = decompress(blob, used, size)
				})
				assert.Error(t, err, "size %d", size)
			}
		})
	}
}

func TestDecompress_LZ4SizeBeyondBlockExpansion(t *testing.T) {
	blob, used, err := compress(bytes.Repeat([]byte("a"), 4096), CompressionLZ4)
	require.NoError(t, err)
	require.Equal(t, CompressionLZ4, used)

	_, err = decompress(blob, used, MaxEntrySize)
	assert.ErrorContains(t, err, "exceeds")
}

func TestParseCompression(t *testing.T) {
	tests := []struct {
		in      string
		want    Compression
		wantErr bool
	}{
		{"", CompressionNone, false},
		{"none", CompressionNone, false},
		{"lz4", CompressionLZ4, false},
		{"zstd", CompressionZstd, false},
		{"gzip", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseCompression(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
	assert.Equal(t, "unknown(7)", Compression(7).String())
}
