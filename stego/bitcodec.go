// Package stego hides a file in the least significant bits of a bitmap's pixel data
// and recovers it again.
package stego

const (
	// BitsInByte is the number of carrier bytes consumed by one payload byte.
	BitsInByte = 8
	// SizeFieldBytes is the width of every length field in the payload.
	SizeFieldBytes = 4
	// SizeFieldCarrierBytes is the number of carrier bytes consumed by one length field.
	SizeFieldCarrierBytes = SizeFieldBytes * BitsInByte
)

// EmbedByte writes the bits of value, MSB first, into the LSBs of the 8 carrier bytes.
// All other carrier bits are preserved.
func EmbedByte(value byte, carrier *[BitsInByte]byte) {
	for i := 0; i < BitsInByte; i++ {
		carrier[i] = (carrier[i] &^ 1) | ((value >> (7 - i)) & 1)
	}
}

// ExtractByte reassembles a byte from the LSBs of the 8 carrier bytes, MSB first.
func ExtractByte(carrier *[BitsInByte]byte) byte {
	var value byte
	for i := 0; i < BitsInByte; i++ {
		value = (value << 1) | (carrier[i] & 1)
	}
	return value
}

// EmbedSize writes the 32 bits of value, MSB first, into the LSBs of the 32 carrier bytes.
func EmbedSize(value uint32, carrier *[SizeFieldCarrierBytes]byte) {
	for i := 0; i < SizeFieldCarrierBytes; i++ {
		carrier[i] = (carrier[i] &^ 1) | byte((value>>(31-i))&1)
	}
}

// ExtractSize reassembles a 32-bit integer from the LSBs of the 32 carrier bytes.
func ExtractSize(carrier *[SizeFieldCarrierBytes]byte) uint32 {
	var value uint32
	for i := 0; i < SizeFieldCarrierBytes; i++ {
		value = (value << 1) | uint32(carrier[i]&1)
	}
	return value
}

// embedBytes spreads data over carrier, which must hold len(data)*8 bytes.
func embedBytes(data, carrier []byte) {
	for i, b := range data {
		EmbedByte(b, (*[BitsInByte]byte)(carrier[i*BitsInByte:]))
	}
}

// extractBytes fills data from carrier, which must hold len(data)*8 bytes.
func extractBytes(data, carrier []byte) {
	for i := range data {
		data[i] = ExtractByte((*[BitsInByte]byte)(carrier[i*BitsInByte:]))
	}
}
