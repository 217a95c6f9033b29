package bmp

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"golang.org/x/image/bmp"
)

// ReadHeader reads exactly HeaderSize bytes from r. No field is validated; the header
// is opaque apart from the dimensions.
func ReadHeader(r io.Reader) (*Header, error) {
	buf := make([]byte, HeaderSize)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, fmt.Errorf("read bitmap header: %w", err)
	}
	return ParseHeader(buf)
}

// ParseHeader decodes the header fields from the first HeaderSize bytes of b.
func ParseHeader(b []byte) (*Header, error) {
	if len(b) < HeaderSize {
		return nil, fmt.Errorf("bitmap header too short: %d bytes, need %d", len(b), HeaderSize)
	}

	h := &Header{}
	copy(h.Raw[:], b[:HeaderSize])
	copy(h.Signature[:], b[0:2])
	h.FileSize = binary.LittleEndian.Uint32(b[2:6])
	h.PixelOffset = binary.LittleEndian.Uint32(b[10:14])
	h.InfoSize = binary.LittleEndian.Uint32(b[14:18])
	h.Width = int32(binary.LittleEndian.Uint32(b[widthOffset : widthOffset+4]))
	h.Height = int32(binary.LittleEndian.Uint32(b[heightOffset : heightOffset+4]))
	h.BitCount = binary.LittleEndian.Uint16(b[bitCountOffset : bitCountOffset+2])
	h.Compression = binary.LittleEndian.Uint32(b[compressionOffset : compressionOffset+4])

	return h, nil
}

// Capacity is width * height * 3: one payload bit per pixel byte, assuming 24-bit pixels
// and no row padding.
func (h *Header) Capacity() int64 {
	w, ht := h.dims()
	return w * ht * BytesPerPixel
}

// PixelArraySize is the pixel array size with each row padded to 4 bytes.
func (h *Header) PixelArraySize() int64 {
	w, ht := h.dims()
	stride := (w*int64(h.BitCount) + 31) / 32 * 4
	return stride * ht
}

// IsStandard reports whether the header declares an uncompressed 24-bit "BM" bitmap.
func (h *Header) IsStandard() bool {
	return h.Signature == [2]byte{'B', 'M'} && h.BitCount == 24 && h.Compression == 0
}

// Describe returns a short human readable summary for logs.
func (h *Header) Describe() string {
	return fmt.Sprintf("%dx%d %d-bit compression=%d", h.Width, h.Height, h.BitCount, h.Compression)
}

func (h *Header) dims() (int64, int64) {
	w, ht := int64(h.Width), int64(h.Height)
	if ht < 0 {
		ht = -ht
	}
	if w < 0 {
		w = 0
	}
	return w, ht
}

// Inspect parses the header of data and asks golang.org/x/image/bmp whether the image
// decodes. Decode failures are reported in Info, not as an error.
func Inspect(data []byte) (*Info, *Header, error) {
	h, err := ParseHeader(data)
	if err != nil {
		return nil, nil, err
	}

	w, ht := h.dims()
	info := &Info{
		Width:      int(w),
		Height:     int(ht),
		BitCount:   h.BitCount,
		Capacity:   h.Capacity(),
		PixelBytes: h.PixelArraySize(),
	}

	if _, err := bmp.DecodeConfig(bytes.NewReader(data)); err != nil {
		info.DecodeErr = err.Error()
	} else {
		info.Decodable = true
	}

	return info, h, nil
}
