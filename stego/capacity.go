package stego

import "fmt"

// Plan is the bit budget of one encode.
type Plan struct {
	Capacity     int64 // carrier pixel bytes, one payload bit each
	RequiredBits int64
}

// Sufficient reports whether the payload fits in the carrier.
func (p Plan) Sufficient() bool {
	return p.Capacity >= p.RequiredBits
}

// Spare returns the number of carrier bytes left untouched by the payload.
func (p Plan) Spare() int64 {
	return p.Capacity - p.RequiredBits
}

// RequiredBits returns the number of carrier bytes needed to hide a payload with the given
// signature, extension and content lengths.
func RequiredBits(magicLen, extnLen int, contentLen int64) int64 {
	return BitsInByte * (int64(magicLen) + SizeFieldBytes + int64(extnLen) + SizeFieldBytes + contentLen)
}

// PlanCapacity checks a payload against the carrier capacity. It must run before any
// carrier byte is written.
func PlanCapacity(capacity int64, magicLen, extnLen int, contentLen int64) (Plan, error) {
	plan := Plan{
		Capacity:     capacity,
		RequiredBits: RequiredBits(magicLen, extnLen, contentLen),
	}

	if contentLen == 0 {
		return plan, newError(KindEmptySecret, "capacity check", "secret file is empty", nil)
	}
	if !plan.Sufficient() {
		return plan, newError(KindInsufficientCapacity, "capacity check",
			fmt.Sprintf("payload needs %d carrier bytes, carrier has %d", plan.RequiredBits, capacity), nil)
	}

	return plan, nil
}

// MaxSecretSize returns the largest content length that fits in capacity, or 0 when not
// even the header fields fit.
func MaxSecretSize(capacity int64, magicLen, extnLen int) int64 {
	free := capacity/BitsInByte - int64(magicLen) - SizeFieldBytes - int64(extnLen) - SizeFieldBytes
	if free < 0 {
		return 0
	}
	return free
}
