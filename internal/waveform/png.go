package waveform

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/klauspost/compress/zlib"
)

// ContentType is the MIME type of encoded waveform images.
const ContentType = "image/png"

var pngSignature = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}

// EncodePNG serializes img as an 8-bit RGBA, non-interlaced PNG. The
// output is byte-for-byte deterministic for identical pixel input.
func EncodePNG(img *Image) ([]byte, error) {
	var out bytes.Buffer
	out.Write(pngSignature)

	ihdr := make([]byte, 13)
	binary.BigEndian.PutUint32(ihdr[0:4], uint32(img.Width))
	binary.BigEndian.PutUint32(ihdr[4:8], uint32(img.Height))
	ihdr[8] = 8 // bit depth
	ihdr[9] = 6 // color type: RGBA
	// compression, filter and interlace stay zero
	writeChunk(&out, "IHDR", ihdr)

	idat, err := deflateScanlines(img)
	if err != nil {
		return nil, fmt.Errorf("compress image data: %w", err)
	}
	writeChunk(&out, "IDAT", idat)

	writeChunk(&out, "IEND", nil)

	return out.Bytes(), nil
}

// deflateScanlines prefixes every pixel row with a filter-type byte of
// zero and compresses the concatenation as a single zlib stream.
func deflateScanlines(img *Image) ([]byte, error) {
	var buf bytes.Buffer
	zw, err := zlib.NewWriterLevel(&buf, zlib.BestCompression)
	if err != nil {
		return nil, err
	}

	stride := img.Width * 4
	for y := 0; y < img.Height; y++ {
		if _, err := zw.Write([]byte{0}); err != nil {
			return nil, err
		}
		if _, err := zw.Write(img.Pix[y*stride : (y+1)*stride]); err != nil {
			return nil, err
		}
	}

	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// writeChunk frames one PNG chunk: 4-byte big-endian payload length,
// 4-byte ASCII type, payload, then CRC-32 over type+payload.
func writeChunk(out *bytes.Buffer, typ string, payload []byte) {
	var head [8]byte
	binary.BigEndian.PutUint32(head[0:4], uint32(len(payload)))
	copy(head[4:8], typ)
	out.Write(head[:])
	out.Write(payload)

	crc := Checksum(append([]byte(typ), payload...))
	var tail [4]byte
	binary.BigEndian.PutUint32(tail[:], crc)
	out.Write(tail[:])
}
