package stego

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"bmp-steganography/models"

	"go.uber.org/zap"
)

const (
	// DefaultStegoName is used when no usable output bitmap name is given to encode.
	DefaultStegoName = "stego_image.bmp"
	// DefaultOutputName is the base name of a recovered file when none is given to decode.
	DefaultOutputName = "output"
)

// IsBitmapName reports whether name has a .bmp extension.
func IsBitmapName(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".bmp")
}

// StegoOutputName picks the stego image path. Names without a .bmp extension fall back to
// fallback; the second result reports whether that happened.
func StegoOutputName(requested, fallback string) (string, bool) {
	if fallback == "" {
		fallback = DefaultStegoName
	}
	if requested == "" || !IsBitmapName(requested) {
		return fallback, true
	}
	return requested, false
}

// EncodeFile hides secretPath inside carrierPath and writes the stego image to outPath.
// outPath only appears once the whole image has been written.
func EncodeFile(config *models.StegoConfig, carrierPath, secretPath, outPath string) (*models.EncodeReport, error) {
	if !IsBitmapName(carrierPath) {
		return nil, newError(KindInputValidation, "encode", fmt.Sprintf("carrier %s must be a .bmp file", carrierPath), nil)
	}
	if secretPath == "" {
		return nil, newError(KindInputValidation, "encode", "secret file is required", nil)
	}

	carrier, carrierSize, err := openSized(carrierPath)
	if err != nil {
		return nil, err
	}
	defer carrier.Close()

	secret, secretSize, err := openSized(secretPath)
	if err != nil {
		return nil, err
	}
	defer secret.Close()

	if secretSize == 0 {
		return nil, newError(KindEmptySecret, "encode", fmt.Sprintf("secret file %s is empty", secretPath), nil)
	}

	out, err := createAtomic(outPath)
	if err != nil {
		return nil, err
	}
	defer out.Abort()

	Logger().Info("encoding",
		zap.String("carrier", carrierPath),
		zap.String("secret", secretPath),
		zap.String("output", outPath))

	enc := NewEncoder(config)
	report, err := enc.Encode(out, carrier, carrierSize, Secret{
		Extension: filepath.Ext(secretPath),
		Size:      secretSize,
		Data:      secret,
	})
	if err != nil {
		return nil, err
	}
	if err := out.Commit(); err != nil {
		return nil, err
	}

	return report, nil
}

// DecodeFile recovers the payload of stegoPath into outBase followed by the recovered
// extension.
func DecodeFile(config *models.StegoConfig, stegoPath, outBase string) (*models.DecodeReport, error) {
	if !IsBitmapName(stegoPath) {
		return nil, newError(KindInputValidation, "decode", fmt.Sprintf("stego image %s must be a .bmp file", stegoPath), nil)
	}
	if outBase == "" {
		outBase = DefaultOutputName
	}

	src, srcSize, err := openSized(stegoPath)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	var (
		out     *atomicFile
		outPath string
	)
	defer func() {
		if out != nil {
			out.Abort()
		}
	}()

	Logger().Info("decoding", zap.String("stego", stegoPath))

	dec := NewDecoder(config)
	report, err := dec.Decode(src, srcSize, func(ext string, _ uint32) (io.Writer, error) {
		outPath = outBase + ext
		f, err := createAtomic(outPath)
		if err != nil {
			return nil, err
		}
		out = f
		return f, nil
	})
	if err != nil {
		return nil, err
	}
	if err := out.Commit(); err != nil {
		return nil, err
	}

	report.OutputPath = outPath
	return report, nil
}

func openSized(path string) (*os.File, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, ioError("open "+path, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, 0, ioError("stat "+path, err)
	}
	if info.IsDir() {
		f.Close()
		return nil, 0, newError(KindInputValidation, "open "+path, "is a directory", nil)
	}
	return f, info.Size(), nil
}

// atomicFile is written under a temporary name next to its destination and renamed into
// place by Commit. Abort removes the temporary file unless Commit succeeded.
type atomicFile struct {
	*os.File
	path      string
	committed bool
}

func createAtomic(path string) (*atomicFile, error) {
	f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return nil, ioError("create "+path, err)
	}
	// CreateTemp uses 0600
	if err := f.Chmod(0o644); err != nil {
		f.Close()
		os.Remove(f.Name())
		return nil, ioError("chmod "+path, err)
	}
	return &atomicFile{File: f, path: path}, nil
}

func (a *atomicFile) Commit() error {
	if err := a.File.Sync(); err != nil {
		return ioError("sync "+a.path, err)
	}
	if err := a.File.Close(); err != nil {
		return ioError("close "+a.path, err)
	}
	if err := os.Rename(a.File.Name(), a.path); err != nil {
		return ioError("rename "+a.path, err)
	}
	a.committed = true
	return nil
}

func (a *atomicFile) Abort() {
	if a.committed {
		return
	}
	if err := a.File.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
		Logger().Warn("close temporary output", zap.Error(err))
	}
	os.Remove(a.File.Name())
}
