package stego

import (
	"sync"

	"bmp-steganography/bmp"

	"go.uber.org/zap"
)

var (
	logger     *zap.Logger
	loggerOnce sync.Once
)

// Logger returns the stego package's logger instance.
// It uses a no-op logger by default.
func Logger() *zap.Logger {
	loggerOnce.Do(func() {
		if logger == nil {
			logger = zap.NewNop()
		}
	})
	return logger
}

// SetLogger configures the stego package's logger.
// This must be called before any encode or decode.
func SetLogger(l *zap.Logger) {
	logger = l
}

func zapHeader(h *bmp.Header) zap.Field {
	return zap.String("carrier", h.Describe())
}
