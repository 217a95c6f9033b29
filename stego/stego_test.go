package stego

import (
	"bytes"
	"image"
	"image/color"
	"io"
	"testing"

	"bmp-steganography/bmp"
	"bmp-steganography/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	xbmp "golang.org/x/image/bmp"
)

// newCarrier returns an uncompressed 24-bit bitmap. Widths that are multiples of 4 give
// rows without padding.
func newCarrier(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x*7 + y), G: uint8(x*13 ^ y*3), B: uint8(255 - x - y), A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, xbmp.Encode(&buf, img))
	require.Len(t, buf.Bytes(), bmp.HeaderSize+w*h*3)
	return buf.Bytes()
}

func encode(t *testing.T, config *models.StegoConfig, carrier []byte, ext string, secret []byte) ([]byte, *models.EncodeReport, *Encoder, error) {
	t.Helper()
	var out bytes.Buffer
	enc := NewEncoder(config)
	report, err := enc.Encode(&out, bytes.NewReader(carrier), int64(len(carrier)), Secret{
		Extension: ext,
		Size:      int64(len(secret)),
		Data:      bytes.NewReader(secret),
	})
	return out.Bytes(), report, enc, err
}

type capture struct {
	called bool
	ext    string
	size   uint32
	buf    bytes.Buffer
}

func (c *capture) sink(ext string, size uint32) (io.Writer, error) {
	c.called = true
	c.ext = ext
	c.size = size
	return &c.buf, nil
}

func decode(config *models.StegoConfig, stegoImage []byte, size int64) (*capture, *models.DecodeReport, *Decoder, error) {
	c := &capture{}
	dec := NewDecoder(config)
	report, err := dec.Decode(bytes.NewReader(stegoImage), size, c.sink)
	return c, report, dec, err
}

func sequence(n int) []byte {
	out := make([]byte, n)
	for i := range out {
		out[i] = byte(i*31 + i/7)
	}
	return out
}

func TestRoundTrip(t *testing.T) {
	carrier := newCarrier(t, 32, 32)
	maxSecret := MaxSecretSize(32*32*3, len(DefaultSignature), len(".txt"))

	tests := []struct {
		name   string
		ext    string
		secret []byte
	}{
		{"text", ".txt", []byte("Hello world!")},
		{"single byte", ".c", []byte{0x42}},
		{"no extension", "", []byte("no dot in the name")},
		{"binary", ".bin", sequence(200)},
		{"full capacity", ".txt", sequence(int(maxSecret))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stegoImage, report, enc, err := encode(t, nil, carrier, tt.ext, tt.secret)
			require.NoError(t, err)
			assert.Equal(t, EncodeTailCopied, enc.State())
			assert.Equal(t, "tail_copied", report.State)
			assert.Len(t, stegoImage, len(carrier))

			got, dreport, dec, err := decode(nil, stegoImage, int64(len(stegoImage)))
			require.NoError(t, err)
			assert.Equal(t, DecodeContentWritten, dec.State())
			assert.Equal(t, tt.ext, got.ext)
			assert.Equal(t, tt.ext, dreport.Extension)
			assert.Equal(t, uint32(len(tt.secret)), got.size)
			assert.Equal(t, tt.secret, got.buf.Bytes())
		})
	}
}

func TestRoundTripStreamsAcrossChunks(t *testing.T) {
	carrier := newCarrier(t, 128, 128)
	secret := sequence(streamChunk + 1500)

	stegoImage, _, _, err := encode(t, nil, carrier, ".bin", secret)
	require.NoError(t, err)

	got, _, _, err := decode(nil, stegoImage, -1)
	require.NoError(t, err)
	assert.Equal(t, secret, got.buf.Bytes())
}

func TestHeaderAndTailPreserved(t *testing.T) {
	carrier := newCarrier(t, 32, 32)
	secret := []byte("keep the header and tail intact")

	stegoImage, report, _, err := encode(t, nil, carrier, ".txt", secret)
	require.NoError(t, err)
	require.Len(t, stegoImage, len(carrier))

	assert.Equal(t, carrier[:bmp.HeaderSize], stegoImage[:bmp.HeaderSize])

	end := bmp.HeaderSize + int(report.RequiredBits)
	assert.Equal(t, carrier[end:], stegoImage[end:])
	assert.Equal(t, int64(len(carrier)-end), report.TailBytes)

	for i := bmp.HeaderSize; i < end; i++ {
		require.Equal(t, carrier[i]&^1, stegoImage[i]&^1, "non-LSB bits changed at %d", i)
	}
}

func TestEncodeCapacityBoundary(t *testing.T) {
	// 8x8 pixels = 192 carrier bytes = 24 payload bytes: 2 + 4 + 4 + 4 + 10
	carrier := newCarrier(t, 8, 8)

	stegoImage, report, _, err := encode(t, nil, carrier, ".txt", sequence(10))
	require.NoError(t, err)
	assert.Equal(t, report.Capacity, report.RequiredBits)
	assert.Zero(t, report.TailBytes)

	got, _, _, err := decode(nil, stegoImage, int64(len(stegoImage)))
	require.NoError(t, err)
	assert.Equal(t, sequence(10), got.buf.Bytes())

	out, _, enc, err := encode(t, nil, carrier, ".txt", sequence(11))
	require.ErrorIs(t, err, ErrInsufficientCapacity)
	assert.Empty(t, out)
	assert.Equal(t, EncodeFailed, enc.State())
}

func TestEncodeEmptySecret(t *testing.T) {
	out, report, enc, err := encode(t, nil, newCarrier(t, 8, 8), ".txt", nil)
	require.ErrorIs(t, err, ErrEmptySecret)
	assert.Nil(t, report)
	assert.Empty(t, out)
	assert.Equal(t, EncodeFailed, enc.State())
}

func TestEncodeRejectsExtension(t *testing.T) {
	carrier := newCarrier(t, 32, 32)

	for _, ext := range []string{".jpeg", ".a/b", ".é"} {
		out, _, _, err := encode(t, nil, carrier, ext, []byte("x"))
		require.ErrorIs(t, err, ErrInputValidation, ext)
		assert.Empty(t, out)
	}

	_, _, _, err := encode(t, &models.StegoConfig{MaxExtensionLen: 2}, carrier, ".go", []byte("x"))
	require.ErrorIs(t, err, ErrInputValidation)
}

func TestEncodeTruncatedCarrier(t *testing.T) {
	carrier := newCarrier(t, 32, 32)[:bmp.HeaderSize+100]

	// known size: the clamp refuses before writing
	out, _, _, err := encode(t, nil, carrier, ".txt", sequence(50))
	require.ErrorIs(t, err, ErrInsufficientCapacity)
	assert.Empty(t, out)

	// unknown size: the header is trusted and the carrier runs out mid-stream
	var buf bytes.Buffer
	enc := NewEncoder(nil)
	_, err = enc.Encode(&buf, bytes.NewReader(carrier), -1, Secret{
		Extension: ".txt",
		Size:      50,
		Data:      bytes.NewReader(sequence(50)),
	})
	require.ErrorIs(t, err, ErrIO)
	require.ErrorIs(t, err, io.ErrUnexpectedEOF)
	assert.Equal(t, EncodeFailed, enc.State())

	_, _, _, err = encode(t, nil, carrier[:20], ".txt", sequence(5))
	require.ErrorIs(t, err, ErrIO)
}

func TestEncodeShortSecret(t *testing.T) {
	carrier := newCarrier(t, 32, 32)

	var buf bytes.Buffer
	enc := NewEncoder(nil)
	_, err := enc.Encode(&buf, bytes.NewReader(carrier), int64(len(carrier)), Secret{
		Extension: ".txt",
		Size:      20,
		Data:      bytes.NewReader([]byte("short")),
	})
	require.ErrorIs(t, err, ErrIO)
	assert.Equal(t, EncodeFailed, enc.State())
}

func TestEncodeStrictCarrier(t *testing.T) {
	carrier := newCarrier(t, 32, 32)
	carrier[28] = 32 // declare 32 bits per pixel

	_, _, _, err := encode(t, &models.StegoConfig{StrictCarrier: true}, carrier, ".txt", []byte("x"))
	require.ErrorIs(t, err, ErrInputValidation)

	_, _, _, err = encode(t, nil, carrier, ".txt", []byte("x"))
	require.NoError(t, err)
}

func TestDecodeSignatureMismatch(t *testing.T) {
	carrier := newCarrier(t, 32, 32)
	for i := bmp.HeaderSize; i < bmp.HeaderSize+len(DefaultSignature)*BitsInByte; i++ {
		carrier[i] &^= 1
	}

	got, report, dec, err := decode(nil, carrier, int64(len(carrier)))
	require.ErrorIs(t, err, ErrSignatureMismatch)
	assert.Nil(t, report)
	assert.False(t, got.called)
	assert.Equal(t, DecodeFailed, dec.State())
}

func TestDecodeCustomSignature(t *testing.T) {
	carrier := newCarrier(t, 32, 32)
	custom := &models.StegoConfig{Signature: "STEGO!"}

	stegoImage, _, _, err := encode(t, custom, carrier, ".md", []byte("# hidden"))
	require.NoError(t, err)

	got, _, _, err := decode(custom, stegoImage, -1)
	require.NoError(t, err)
	assert.Equal(t, "# hidden", got.buf.String())

	got, _, _, err = decode(nil, stegoImage, -1)
	require.ErrorIs(t, err, ErrSignatureMismatch)
	assert.False(t, got.called)
}

func TestDecodeCorruptedFields(t *testing.T) {
	carrier := newCarrier(t, 32, 32)
	stegoImage, _, _, err := encode(t, nil, carrier, ".txt", []byte("payload"))
	require.NoError(t, err)

	extnSizeAt := bmp.HeaderSize + len(DefaultSignature)*BitsInByte
	contentSizeAt := extnSizeAt + SizeFieldCarrierBytes + len(".txt")*BitsInByte

	rewrite := func(at int, value uint32) []byte {
		tampered := bytes.Clone(stegoImage)
		EmbedSize(value, (*[SizeFieldCarrierBytes]byte)(tampered[at:]))
		return tampered
	}

	tests := []struct {
		name  string
		image []byte
	}{
		{"extension too long", rewrite(extnSizeAt, 200)},
		{"content beyond capacity", rewrite(contentSizeAt, 1<<20)},
		{"empty content", rewrite(contentSizeAt, 0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _, dec, err := decode(nil, tt.image, int64(len(tt.image)))
			require.ErrorIs(t, err, ErrSignatureMismatch)
			assert.False(t, got.called)
			assert.Equal(t, DecodeFailed, dec.State())
		})
	}
}

func TestDecodeTruncatedImage(t *testing.T) {
	carrier := newCarrier(t, 32, 32)
	secret := sequence(300)
	stegoImage, _, _, err := encode(t, nil, carrier, ".bin", secret)
	require.NoError(t, err)

	truncated := stegoImage[:bmp.HeaderSize+1000]

	got, _, dec, err := decode(nil, truncated, -1)
	require.ErrorIs(t, err, ErrIO)
	assert.True(t, got.called)
	assert.Equal(t, DecodeFailed, dec.State())

	got, _, _, err = decode(nil, truncated, int64(len(truncated)))
	require.ErrorIs(t, err, ErrSignatureMismatch)
	assert.False(t, got.called)
}

func TestDecodeSinkError(t *testing.T) {
	carrier := newCarrier(t, 32, 32)
	stegoImage, _, _, err := encode(t, nil, carrier, ".txt", []byte("abc"))
	require.NoError(t, err)

	dec := NewDecoder(nil)
	_, err = dec.Decode(bytes.NewReader(stegoImage), -1, func(string, uint32) (io.Writer, error) {
		return nil, io.ErrClosedPipe
	})
	require.ErrorIs(t, err, ErrIO)
	require.ErrorIs(t, err, io.ErrClosedPipe)
}
