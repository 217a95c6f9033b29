// Package models contain needed models
package models

// StegoConfig represents configuration for steganography operations
type StegoConfig struct {
	Signature       string
	MaxExtensionLen int
	StrictCarrier   bool
}

// EncodeReport summarizes a successful embed
type EncodeReport struct {
	Extension    string  `json:"extension"`
	SecretSize   int64   `json:"secret_size"`
	Capacity     int64   `json:"capacity"`
	RequiredBits int64   `json:"required_bits"`
	TailBytes    int64   `json:"tail_bytes"`
	State        string  `json:"state"`
	PSNR         float64 `json:"psnr,omitempty"`
}

// DecodeReport summarizes a successful extraction
type DecodeReport struct {
	Extension  string `json:"extension"`
	SecretSize int64  `json:"secret_size"`
	OutputPath string `json:"output_path,omitempty"`
	State      string `json:"state"`
}

// CapacityResponse represents the capacity of a carrier image
type CapacityResponse struct {
	Success       bool   `json:"success"`
	Message       string `json:"message,omitempty"`
	Width         int    `json:"width"`
	Height        int    `json:"height"`
	BitCount      uint16 `json:"bit_count"`
	Decodable     bool   `json:"decodable"`
	Capacity      int64  `json:"capacity"`
	PixelBytes    int64  `json:"pixel_bytes"`
	MaxSecretSize int64  `json:"max_secret_size"`
}

// StegoResponse represents an error or status reply from the API
type StegoResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Kind    string `json:"kind,omitempty"`
}
