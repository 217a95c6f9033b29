package stego

import (
	"bufio"
	"bytes"
	"fmt"
	"io"

	"bmp-steganography/bmp"
	"bmp-steganography/models"

	"go.uber.org/zap"
)

// Sink opens the destination for recovered content once its extension and size are known.
type Sink func(extension string, size uint32) (io.Writer, error)

// Decoder recovers a payload hidden by Encoder. A Decoder runs one decode at a time.
type Decoder struct {
	config *models.StegoConfig
	state  DecodeState
	log    *zap.Logger
}

func NewDecoder(config *models.StegoConfig) *Decoder {
	return &Decoder{
		config: normalizeConfig(config),
		log:    Logger(),
	}
}

// State returns the stage the last Decode reached.
func (d *Decoder) State() DecodeState {
	return d.state
}

type decodeSession struct {
	src     *bufio.Reader
	scratch []byte
	data    []byte
	used    int64 // carrier bytes consumed after the header
}

// Decode reads a stego image from src and streams the hidden content into the writer
// returned by sink. carrierSize is the total stego image length, or -1 when unknown.
// sink is not called unless the signature and header fields check out.
func (d *Decoder) Decode(src io.Reader, carrierSize int64, sink Sink) (*models.DecodeReport, error) {
	d.state = DecodeIdle

	s := &decodeSession{
		src:     bufio.NewReader(src),
		scratch: make([]byte, streamChunk*BitsInByte),
		data:    make([]byte, streamChunk),
	}

	var (
		header     *bmp.Header
		extnSize   uint32
		extension  string
		secretSize uint32
	)

	stages := []struct {
		name string
		next DecodeState
		run  func() error
	}{
		{"skipping image header", DecodeHeaderSkipped, func() error {
			h, err := bmp.ReadHeader(s.src)
			if err != nil {
				return ioError("read header", err)
			}
			header = h
			return nil
		}},
		{"verifying signature", DecodeSignatureVerified, func() error {
			magic := []byte(d.config.Signature)
			found := make([]byte, len(magic))
			if err := s.extractData(found); err != nil {
				return err
			}
			if !bytes.Equal(found, magic) {
				return newError(KindSignatureMismatch, "verify signature",
					"image does not carry a hidden payload", nil)
			}
			return nil
		}},
		{"reading extension size", DecodeExtnSizeRead, func() error {
			n, err := s.extractSize()
			if err != nil {
				return err
			}
			if int(n) > d.config.MaxExtensionLen || n > MaxExtensionLen {
				return newError(KindSignatureMismatch, "read extension size",
					fmt.Sprintf("corrupted payload: extension length %d exceeds %d", n, d.config.MaxExtensionLen), nil)
			}
			extnSize = n
			return nil
		}},
		{"reading extension", DecodeExtnRead, func() error {
			buf := make([]byte, extnSize)
			if err := s.extractData(buf); err != nil {
				return err
			}
			if err := validateExtension(string(buf), d.config.MaxExtensionLen); err != nil {
				return newError(KindSignatureMismatch, "read extension", "corrupted payload: "+err.Error(), nil)
			}
			extension = string(buf)
			return nil
		}},
		{"reading secret size", DecodeContentSizeRead, func() error {
			n, err := s.extractSize()
			if err != nil {
				return err
			}
			if n == 0 {
				return newError(KindSignatureMismatch, "read secret size", "corrupted payload: empty content", nil)
			}
			capacity := carrierCapacity(header, carrierSize)
			if s.used+int64(n)*BitsInByte > capacity {
				return newError(KindSignatureMismatch, "read secret size",
					fmt.Sprintf("corrupted payload: %d content bytes exceed carrier capacity %d", n, capacity), nil)
			}
			secretSize = n
			return nil
		}},
		{"writing secret data", DecodeContentWritten, func() error {
			w, err := sink(extension, secretSize)
			if err != nil {
				return ioError("open output", err)
			}
			return s.extractStream(w, int64(secretSize))
		}},
	}

	for _, stage := range stages {
		d.log.Info(stage.name)
		if err := stage.run(); err != nil {
			return nil, d.fail(stage.name, err)
		}
		d.state = stage.next
	}

	d.log.Info("decoding done",
		zap.String("extension", extension),
		zap.Uint32("secret_bytes", secretSize))

	return &models.DecodeReport{
		Extension:  extension,
		SecretSize: int64(secretSize),
		State:      d.state.String(),
	}, nil
}

func (d *Decoder) fail(stage string, err error) error {
	if KindOf(err) == "" {
		err = ioError(stage, err)
	}
	from := d.state
	d.state = DecodeFailed
	d.log.Error("decoding failed",
		zap.Stringer("stage", from),
		zap.String("kind", string(KindOf(err))),
		zap.Error(err))
	return err
}

// extractData fills data from the next len(data)*8 carrier bytes.
func (s *decodeSession) extractData(data []byte) error {
	for len(data) > 0 {
		n := min(len(data), streamChunk)
		buf := s.scratch[:n*BitsInByte]
		if _, err := io.ReadFull(s.src, buf); err != nil {
			return ioError("read carrier", carrierExhausted(err))
		}
		s.used += int64(len(buf))
		extractBytes(data[:n], buf)
		data = data[n:]
	}
	return nil
}

func (s *decodeSession) extractSize() (uint32, error) {
	var window [SizeFieldCarrierBytes]byte
	if _, err := io.ReadFull(s.src, window[:]); err != nil {
		return 0, ioError("read carrier", carrierExhausted(err))
	}
	s.used += SizeFieldCarrierBytes
	return ExtractSize(&window), nil
}

// extractStream writes size recovered bytes to w as they are decoded.
func (s *decodeSession) extractStream(w io.Writer, size int64) error {
	for size > 0 {
		n := int(min(size, streamChunk))
		if err := s.extractData(s.data[:n]); err != nil {
			return err
		}
		if _, err := w.Write(s.data[:n]); err != nil {
			return ioError("write output", err)
		}
		size -= int64(n)
	}
	return nil
}
