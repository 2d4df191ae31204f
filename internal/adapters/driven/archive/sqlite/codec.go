package sqlite

import (
	"errors"
	"fmt"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression identifies how an entry blob is stored. Values are written
// to archive files and must not change.
type Compression uint8

const (
	// CompressionNone stores the bytes as they are.
	CompressionNone Compression = 0

	// CompressionLZ4 stores an LZ4 block. Fast to decode.
	CompressionLZ4 Compression = 1

	// CompressionZstd stores a zstd frame. Better ratios for text.
	CompressionZstd Compression = 2
)

// MaxEntrySize is the largest decoded entry the reader accepts. Larger
// sizes in the entries table are treated as corruption.
const MaxEntrySize = 256 << 20

// lz4MaxRatio bounds how far one LZ4 block can expand.
const lz4MaxRatio = 255

// errIncompressible is returned when compression would not shrink the
// data. Callers store such blobs uncompressed.
var errIncompressible = errors.New("data is incompressible")

// String returns the name of the compression.
func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZstd:
		return "zstd"
	default:
		return fmt.Sprintf("unknown(%d)", c)
	}
}

// ParseCompression parses a compression name.
func ParseCompression(name string) (Compression, error) {
	switch name {
	case "none", "":
		return CompressionNone, nil
	case "lz4":
		return CompressionLZ4, nil
	case "zstd":
		return CompressionZstd, nil
	default:
		return 0, fmt.Errorf("unknown compression: %q", name)
	}
}

// compress encodes data with c. When c would not shrink data it returns
// the input with CompressionNone.
func compress(data []byte, c Compression) ([]byte, Compression, error) {
	var out []byte
	var err error
	switch c {
	case CompressionNone:
		return data, CompressionNone, nil
	case CompressionLZ4:
		out, err = compressLZ4(data)
	case CompressionZstd:
		out, err = compressZstd(data)
	default:
		return nil, 0, fmt.Errorf("unsupported compression: %d", c)
	}
	if errors.Is(err, errIncompressible) {
		return data, CompressionNone, nil
	}
	if err != nil {
		return nil, 0, err
	}
	return out, c, nil
}

// decompress decodes a blob stored with c. size is the original length
// and is verified. Sizes that are negative, over MaxEntrySize or beyond
// what the blob can expand to are rejected before anything is allocated.
func decompress(blob []byte, c Compression, size int) ([]byte, error) {
	if size < 0 || size > MaxEntrySize {
		return nil, fmt.Errorf("stored entry: invalid size %d", size)
	}
	switch c {
	case CompressionNone:
		if len(blob) != size {
			return nil, fmt.Errorf("stored entry: size %d does not match expected %d", len(blob), size)
		}
		return blob, nil
	case CompressionLZ4:
		return decompressLZ4(blob, size)
	case CompressionZstd:
		return decompressZstd(blob, size)
	default:
		return nil, fmt.Errorf("unsupported compression: %d", c)
	}
}

func compressLZ4(data []byte) ([]byte, error) {
	dst := make([]byte, lz4.CompressBlockBound(len(data)))
	n, err := lz4.CompressBlock(data, dst, nil)
	if err != nil {
		return nil, fmt.Errorf("lz4 compress: %w", err)
	}
	// CompressBlock returns 0 for incompressible input.
	if n == 0 || n >= len(data) {
		return nil, errIncompressible
	}
	return dst[:n], nil
}

func decompressLZ4(blob []byte, size int) ([]byte, error) {
	if size > lz4MaxRatio*len(blob)+lz4MaxRatio {
		return nil, fmt.Errorf("lz4 decompress: size %d exceeds what %d bytes can hold", size, len(blob))
	}
	dst := make([]byte, size)
	n, err := lz4.UncompressBlock(blob, dst)
	if err != nil {
		return nil, fmt.Errorf("lz4 decompress: %w", err)
	}
	if n != size {
		return nil, fmt.Errorf("lz4 decompress: got %d bytes, expected %d", n, size)
	}
	return dst, nil
}

// zstd encoders and decoders are safe for concurrent use.
var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic("archive: zstd encoder initialization failed: " + err.Error())
	}
	zstdDecoder, err = zstd.NewReader(nil, zstd.WithDecoderMaxMemory(MaxEntrySize))
	if err != nil {
		panic("archive: zstd decoder initialization failed: " + err.Error())
	}
}

func compressZstd(data []byte) ([]byte, error) {
	out := zstdEncoder.EncodeAll(data, nil)
	if len(out) >= len(data) {
		return nil, errIncompressible
	}
	return out, nil
}

func decompressZstd(blob []byte, size int) ([]byte, error) {
	// The stored size only sizes the first allocation; a corrupt one cannot
	// force more than a few multiples of the blob up front.
	out, err := zstdDecoder.DecodeAll(blob, make([]byte, 0, min(size, 32*len(blob)+4096)))
	if err != nil {
		return nil, fmt.Errorf("zstd decompress: %w", err)
	}
	if len(out) != size {
		return nil, fmt.Errorf("zstd decompress: got %d bytes, expected %d", len(out), size)
	}
	return out, nil
}
