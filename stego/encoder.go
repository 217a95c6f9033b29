package stego

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"

	"bmp-steganography/bmp"
	"bmp-steganography/models"

	"go.uber.org/zap"
)

// Secret is the file to hide. Size must equal the number of bytes Data yields.
type Secret struct {
	Extension string
	Size      int64
	Data      io.Reader
}

// Encoder embeds a Secret into a bitmap carrier. An Encoder runs one encode at a time.
type Encoder struct {
	config *models.StegoConfig
	state  EncodeState
	log    *zap.Logger
}

func NewEncoder(config *models.StegoConfig) *Encoder {
	return &Encoder{
		config: normalizeConfig(config),
		log:    Logger(),
	}
}

// State returns the stage the last Encode reached.
func (e *Encoder) State() EncodeState {
	return e.state
}

type encodeSession struct {
	src     *bufio.Reader
	dst     *bufio.Writer
	scratch []byte
	data    []byte
}

// Encode copies carrier to dst with the secret hidden in the pixel LSBs. carrierSize is
// the total carrier length in bytes, or -1 when unknown. Nothing is written to dst unless
// the payload fits.
func (e *Encoder) Encode(dst io.Writer, carrier io.Reader, carrierSize int64, secret Secret) (*models.EncodeReport, error) {
	e.state = EncodeIdle

	if err := validateExtension(secret.Extension, e.config.MaxExtensionLen); err != nil {
		return nil, e.fail(newError(KindInputValidation, "encode", err.Error(), nil))
	}
	if secret.Size < 0 || secret.Size > math.MaxUint32 {
		return nil, e.fail(newError(KindInputValidation, "encode",
			fmt.Sprintf("secret size %d does not fit a 32-bit length field", secret.Size), nil))
	}
	if secret.Size == 0 {
		return nil, e.fail(newError(KindEmptySecret, "encode", "secret file is empty", nil))
	}

	s := &encodeSession{
		src:     bufio.NewReader(carrier),
		dst:     bufio.NewWriter(dst),
		scratch: make([]byte, streamChunk*BitsInByte),
		data:    make([]byte, streamChunk),
	}

	header, err := bmp.ReadHeader(s.src)
	if err != nil {
		return nil, e.fail(ioError("read carrier header", err))
	}
	if err := checkCarrierFormat(header, e.config.StrictCarrier, "encode"); err != nil {
		return nil, e.fail(err)
	}

	magic := []byte(e.config.Signature)
	plan, err := PlanCapacity(carrierCapacity(header, carrierSize), len(magic), len(secret.Extension), secret.Size)
	if err != nil {
		return nil, e.fail(err)
	}
	e.log.Info("capacity check passed",
		zapHeader(header),
		zap.Int64("capacity", plan.Capacity),
		zap.Int64("required", plan.RequiredBits),
		zap.Int64("spare", plan.Spare()))

	var tail int64
	stages := []struct {
		name string
		next EncodeState
		run  func() error
	}{
		{"copying image header", EncodeHeaderCopied, func() error {
			_, err := s.dst.Write(header.Raw[:])
			return err
		}},
		{"embedding signature", EncodeSignatureEmbedded, func() error {
			return s.embedData(magic)
		}},
		{"embedding extension size", EncodeExtnSizeEmbedded, func() error {
			return s.embedSize(uint32(len(secret.Extension)))
		}},
		{"embedding extension", EncodeExtnEmbedded, func() error {
			return s.embedData([]byte(secret.Extension))
		}},
		{"embedding secret size", EncodeContentSizeEmbedded, func() error {
			return s.embedSize(uint32(secret.Size))
		}},
		{"embedding secret data", EncodeContentEmbedded, func() error {
			return s.embedStream(secret.Data, secret.Size)
		}},
		{"copying remaining image data", EncodeTailCopied, func() error {
			n, err := io.Copy(s.dst, s.src)
			tail = n
			if err != nil {
				return err
			}
			return s.dst.Flush()
		}},
	}

	for _, stage := range stages {
		e.log.Info(stage.name)
		if err := stage.run(); err != nil {
			return nil, e.fail(ioError(stage.name, err))
		}
		e.state = stage.next
	}

	e.log.Info("encoding done",
		zap.String("extension", secret.Extension),
		zap.Int64("secret_bytes", secret.Size),
		zap.Int64("tail_bytes", tail))

	return &models.EncodeReport{
		Extension:    secret.Extension,
		SecretSize:   secret.Size,
		Capacity:     plan.Capacity,
		RequiredBits: plan.RequiredBits,
		TailBytes:    tail,
		State:        e.state.String(),
	}, nil
}

func (e *Encoder) fail(err error) error {
	from := e.state
	e.state = EncodeFailed
	e.log.Error("encoding failed",
		zap.Stringer("stage", from),
		zap.String("kind", string(KindOf(err))),
		zap.Error(err))
	return err
}

// embedData hides data in the next len(data)*8 carrier bytes.
func (s *encodeSession) embedData(data []byte) error {
	for len(data) > 0 {
		n := min(len(data), streamChunk)
		buf := s.scratch[:n*BitsInByte]
		if _, err := io.ReadFull(s.src, buf); err != nil {
			return carrierExhausted(err)
		}
		embedBytes(data[:n], buf)
		if _, err := s.dst.Write(buf); err != nil {
			return err
		}
		data = data[n:]
	}
	return nil
}

func (s *encodeSession) embedSize(value uint32) error {
	var window [SizeFieldCarrierBytes]byte
	if _, err := io.ReadFull(s.src, window[:]); err != nil {
		return carrierExhausted(err)
	}
	EmbedSize(value, &window)
	_, err := s.dst.Write(window[:])
	return err
}

// embedStream hides exactly size bytes read from r.
func (s *encodeSession) embedStream(r io.Reader, size int64) error {
	for size > 0 {
		n := int(min(size, streamChunk))
		if _, err := io.ReadFull(r, s.data[:n]); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return fmt.Errorf("secret ended with %d bytes still expected: %w", size, io.ErrUnexpectedEOF)
			}
			return err
		}
		if err := s.embedData(s.data[:n]); err != nil {
			return err
		}
		size -= int64(n)
	}
	return nil
}

func carrierExhausted(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("carrier ended before payload was embedded: %w", io.ErrUnexpectedEOF)
	}
	return err
}
