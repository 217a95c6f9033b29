package stego

// EncodeState is a stage of the embed pipeline. Each stage gates the next.
type EncodeState int

const (
	EncodeIdle EncodeState = iota
	EncodeHeaderCopied
	EncodeSignatureEmbedded
	EncodeExtnSizeEmbedded
	EncodeExtnEmbedded
	EncodeContentSizeEmbedded
	EncodeContentEmbedded
	EncodeTailCopied
	EncodeFailed
)

var encodeStateNames = [...]string{
	EncodeIdle:                "idle",
	EncodeHeaderCopied:        "header_copied",
	EncodeSignatureEmbedded:   "signature_embedded",
	EncodeExtnSizeEmbedded:    "extn_size_embedded",
	EncodeExtnEmbedded:        "extn_embedded",
	EncodeContentSizeEmbedded: "content_size_embedded",
	EncodeContentEmbedded:     "content_embedded",
	EncodeTailCopied:          "tail_copied",
	EncodeFailed:              "failed",
}

func (s EncodeState) String() string {
	if s < 0 || int(s) >= len(encodeStateNames) {
		return "unknown"
	}
	return encodeStateNames[s]
}

// DecodeState is a stage of the extract pipeline.
type DecodeState int

const (
	DecodeIdle DecodeState = iota
	DecodeHeaderSkipped
	DecodeSignatureVerified
	DecodeExtnSizeRead
	DecodeExtnRead
	DecodeContentSizeRead
	DecodeContentWritten
	DecodeFailed
)

var decodeStateNames = [...]string{
	DecodeIdle:              "idle",
	DecodeHeaderSkipped:     "header_skipped",
	DecodeSignatureVerified: "signature_verified",
	DecodeExtnSizeRead:      "extn_size_read",
	DecodeExtnRead:          "extn_read",
	DecodeContentSizeRead:   "content_size_read",
	DecodeContentWritten:    "content_written",
	DecodeFailed:            "failed",
}

func (s DecodeState) String() string {
	if s < 0 || int(s) >= len(decodeStateNames) {
		return "unknown"
	}
	return decodeStateNames[s]
}
