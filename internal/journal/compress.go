package journal

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/pierrec/lz4"
)

// Stored meta blobs start with a format byte.
const (
	formatRaw byte = 0
	formatLZ4 byte = 1
)

// maxMetaSize bounds the decompressed size read back from a stored blob.
const maxMetaSize = 4 << 20

// compress encodes data as an LZ4 block prefixed by its length, or raw
// when it does not shrink.
func compress(data []byte) []byte {
	if len(data) == 0 {
		return nil
	}
	header := make([]byte, 1+binary.MaxVarintLen64)
	header[0] = formatLZ4
	n := 1 + binary.PutUvarint(header[1:], uint64(len(data)))

	buf := make([]byte, n+lz4.CompressBlockBound(len(data)))
	copy(buf, header[:n])
	size, err := lz4.CompressBlock(data, buf[n:], nil)
	if err != nil || size == 0 || n+size >= 1+len(data) {
		return append([]byte{formatRaw}, data...)
	}
	return buf[:n+size]
}

func decompress(blob []byte) ([]byte, error) {
	if len(blob) == 0 {
		return nil, nil
	}
	switch blob[0] {
	case formatRaw:
		return append([]byte(nil), blob[1:]...), nil
	case formatLZ4:
		size, n := binary.Uvarint(blob[1:])
		if n <= 0 {
			return nil, errors.New("corrupt meta length")
		}
		if size > maxMetaSize {
			return nil, fmt.Errorf("meta length %d exceeds %d bytes", size, maxMetaSize)
		}
		out := make([]byte, size)
		got, err := lz4.UncompressBlock(blob[1+n:], out)
		if err != nil {
			return nil, fmt.Errorf("lz4 decompression failed: %w", err)
		}
		return out[:got], nil
	default:
		return nil, fmt.Errorf("unknown meta format %d", blob[0])
	}
}
