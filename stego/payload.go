package stego

import (
	"fmt"

	"bmp-steganography/bmp"
	"bmp-steganography/models"
)

const (
	// DefaultSignature is the marker embedded ahead of every payload.
	DefaultSignature = "#*"
	// MaxExtensionLen is the longest extension (leading dot included) a payload carries.
	MaxExtensionLen = 4

	// content is streamed through the carrier in blocks of this many payload bytes
	streamChunk = 4096
)

// DefaultConfig returns the configuration used when none is supplied.
func DefaultConfig() *models.StegoConfig {
	return &models.StegoConfig{
		Signature:       DefaultSignature,
		MaxExtensionLen: MaxExtensionLen,
	}
}

func normalizeConfig(config *models.StegoConfig) *models.StegoConfig {
	if config == nil {
		return DefaultConfig()
	}
	c := *config
	if c.Signature == "" {
		c.Signature = DefaultSignature
	}
	if c.MaxExtensionLen <= 0 || c.MaxExtensionLen > MaxExtensionLen {
		c.MaxExtensionLen = MaxExtensionLen
	}
	return &c
}

// validateExtension rejects extensions that are too long, non-ASCII or could escape the
// output directory once appended to a file name.
func validateExtension(ext string, maxLen int) error {
	if len(ext) > maxLen {
		return fmt.Errorf("extension %q is %d bytes, limit is %d", ext, len(ext), maxLen)
	}
	for i := 0; i < len(ext); i++ {
		c := ext[i]
		if c < 0x20 || c > 0x7e || c == '/' || c == '\\' {
			return fmt.Errorf("extension %q contains byte 0x%02x", ext, c)
		}
	}
	return nil
}

// carrierCapacity clamps the header capacity to the bytes actually present after the
// header. carrierSize < 0 means unknown.
func carrierCapacity(h *bmp.Header, carrierSize int64) int64 {
	capacity := h.Capacity()
	if carrierSize >= 0 {
		avail := carrierSize - bmp.HeaderSize
		if avail < 0 {
			avail = 0
		}
		capacity = min(capacity, avail)
	}
	return capacity
}

func checkCarrierFormat(h *bmp.Header, strict bool, op string) error {
	if h.IsStandard() {
		return nil
	}
	if strict {
		return newError(KindInputValidation, op,
			fmt.Sprintf("carrier is not an uncompressed 24-bit bitmap (%s)", h.Describe()), nil)
	}
	Logger().Warn("carrier is not an uncompressed 24-bit bitmap, embedding anyway",
		zapHeader(h))
	return nil
}
