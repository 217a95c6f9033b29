// Package handlers is made to handle requests
package handlers

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"net/http"
	"path/filepath"
	"strings"

	"bmp-steganography/bmp"
	"bmp-steganography/config"
	"bmp-steganography/models"
	"bmp-steganography/quality"
	"bmp-steganography/stego"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type StegoHandler struct {
	config *config.Config
	log    *zap.Logger
}

func NewStegoHandler(conf *config.Config, log *zap.Logger) *StegoHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &StegoHandler{
		config: conf,
		log:    log,
	}
}

func (h *StegoHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"message": "Steganography API is running",
		"version": "1.0.0",
	})
}

func (h *StegoHandler) EncodeImage(c *gin.Context) {
	if !h.parseForm(c) {
		return
	}

	carrierFile, carrierHeader, err := c.Request.FormFile("carrier_file")
	if err != nil {
		h.fail(c, http.StatusBadRequest, "Carrier bitmap is required", nil)
		return
	}
	defer carrierFile.Close()

	secretFile, secretHeader, err := c.Request.FormFile("secret_file")
	if err != nil {
		h.fail(c, http.StatusBadRequest, "Secret file is required", nil)
		return
	}
	defer secretFile.Close()

	if !stego.IsBitmapName(carrierHeader.Filename) {
		h.fail(c, http.StatusBadRequest, "Invalid carrier format. Only .bmp files are supported", nil)
		return
	}

	carrierData, err := io.ReadAll(carrierFile)
	if err != nil {
		h.fail(c, http.StatusInternalServerError, fmt.Sprintf("Failed to read carrier: %v", err), nil)
		return
	}

	var out bytes.Buffer
	enc := stego.NewEncoder(h.config.StegoConfig())
	report, err := enc.Encode(&out, bytes.NewReader(carrierData), int64(len(carrierData)), stego.Secret{
		Extension: filepath.Ext(secretHeader.Filename),
		Size:      secretHeader.Size,
		Data:      secretFile,
	})
	if err != nil {
		h.fail(c, statusFor(err), "Failed to embed secret file", err)
		return
	}

	psnr := quality.Measure(carrierData, out.Bytes(), bmp.HeaderSize)
	if !quality.ValidatePSNR(psnr, h.config.MinPSNR) {
		h.log.Warn("stego image below PSNR threshold",
			zap.Float64("psnr", psnr),
			zap.Float64("min_psnr", h.config.MinPSNR))
	}

	baseFilename := strings.TrimSuffix(carrierHeader.Filename, filepath.Ext(carrierHeader.Filename))
	outputFilename := fmt.Sprintf("%s_stego.bmp", baseFilename)

	// Set headers for file download
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Transfer-Encoding", "binary")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", outputFilename))

	c.Header("X-Stego-Method", "BMP LSB")
	c.Header("X-Stego-Capacity", fmt.Sprintf("%d", report.Capacity))
	c.Header("X-Stego-Required", fmt.Sprintf("%d", report.RequiredBits))
	c.Header("X-Stego-PSNR", formatPSNR(psnr))

	c.Data(http.StatusOK, "image/bmp", out.Bytes())
}

func (h *StegoHandler) DecodeImage(c *gin.Context) {
	if !h.parseForm(c) {
		return
	}

	stegoFile, stegoHeader, err := c.Request.FormFile("stego_file")
	if err != nil {
		h.fail(c, http.StatusBadRequest, "Stego bitmap is required", nil)
		return
	}
	defer stegoFile.Close()

	if !stego.IsBitmapName(stegoHeader.Filename) {
		h.fail(c, http.StatusBadRequest, "Invalid stego image format. Only .bmp files are supported", nil)
		return
	}

	outputName := c.PostForm("output_name")
	if outputName == "" {
		outputName = h.config.DefaultOutputName
	}
	outputName = filepath.Base(outputName)

	var out bytes.Buffer
	dec := stego.NewDecoder(h.config.StegoConfig())
	report, err := dec.Decode(stegoFile, stegoHeader.Size, func(string, uint32) (io.Writer, error) {
		return &out, nil
	})
	if err != nil {
		h.fail(c, statusFor(err), "Failed to extract secret file", err)
		return
	}

	secretFilename := outputName + report.Extension

	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Transfer-Encoding", "binary")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", secretFilename))
	c.Header("X-Stego-Extension", report.Extension)

	c.Data(http.StatusOK, "application/octet-stream", out.Bytes())
}

func (h *StegoHandler) Capacity(c *gin.Context) {
	if !h.parseForm(c) {
		return
	}

	carrierFile, carrierHeader, err := c.Request.FormFile("carrier_file")
	if err != nil {
		h.fail(c, http.StatusBadRequest, "Carrier bitmap is required", nil)
		return
	}
	defer carrierFile.Close()

	if !stego.IsBitmapName(carrierHeader.Filename) {
		h.fail(c, http.StatusBadRequest, "Invalid carrier format. Only .bmp files are supported", nil)
		return
	}

	data, err := io.ReadAll(carrierFile)
	if err != nil {
		h.fail(c, http.StatusInternalServerError, fmt.Sprintf("Failed to read carrier: %v", err), nil)
		return
	}

	info, _, err := bmp.Inspect(data)
	if err != nil {
		h.fail(c, http.StatusBadRequest, fmt.Sprintf("Invalid carrier: %v", err), nil)
		return
	}

	extnLen := len(c.PostForm("extension"))
	if extnLen == 0 {
		extnLen = h.config.MaxExtensionLen
	}
	capacity := min(info.Capacity, max(int64(len(data))-bmp.HeaderSize, 0))

	c.JSON(http.StatusOK, models.CapacityResponse{
		Success:       true,
		Message:       info.DecodeErr,
		Width:         info.Width,
		Height:        info.Height,
		BitCount:      info.BitCount,
		Decodable:     info.Decodable,
		Capacity:      capacity,
		PixelBytes:    info.PixelBytes,
		MaxSecretSize: stego.MaxSecretSize(capacity, len(h.config.Signature), extnLen),
	})
}

func (h *StegoHandler) parseForm(c *gin.Context) bool {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.config.Server.MaxUploadBytes)
	if err := c.Request.ParseMultipartForm(h.config.Server.MaxUploadBytes); err != nil {
		h.fail(c, http.StatusBadRequest, fmt.Sprintf("Failed to parse form: %v", err), nil)
		return false
	}
	return true
}

func (h *StegoHandler) fail(c *gin.Context, status int, message string, err error) {
	resp := models.StegoResponse{
		Success: false,
		Message: message,
	}
	if err != nil {
		resp.Message = fmt.Sprintf("%s: %v", message, err)
		resp.Kind = string(stego.KindOf(err))
	}
	h.log.Warn("request failed",
		zap.String("request_id", c.GetString(requestIDKey)),
		zap.Int("status", status),
		zap.String("message", resp.Message))
	c.JSON(status, resp)
}

func statusFor(err error) int {
	switch stego.KindOf(err) {
	case stego.KindInputValidation, stego.KindEmptySecret:
		return http.StatusBadRequest
	case stego.KindInsufficientCapacity, stego.KindSignatureMismatch:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func formatPSNR(psnr float64) string {
	if math.IsInf(psnr, 1) {
		return "inf"
	}
	return fmt.Sprintf("%.2f", psnr)
}
