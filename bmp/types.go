// Package bmp reads the fixed header of an uncompressed bitmap carrier.
package bmp

const (
	// HeaderSize is the size of the file header plus BITMAPINFOHEADER.
	HeaderSize = 54
	// BytesPerPixel assumes 24-bit RGB pixel data.
	BytesPerPixel = 3

	widthOffset       = 18
	heightOffset      = 22
	bitCountOffset    = 28
	compressionOffset = 30
)

// Header is the 54-byte carrier header. Raw is copied verbatim into the stego image.
type Header struct {
	Raw         [HeaderSize]byte // original bytes - NEVER MODIFY
	Signature   [2]byte
	FileSize    uint32
	PixelOffset uint32
	InfoSize    uint32
	Width       int32
	Height      int32 // negative for top-down bitmaps
	BitCount    uint16
	Compression uint32
}

// Info describes a carrier as seen by golang.org/x/image/bmp.
type Info struct {
	Width      int
	Height     int
	BitCount   uint16
	Decodable  bool
	DecodeErr  string
	Capacity   int64
	PixelBytes int64 // padded pixel array size
}
