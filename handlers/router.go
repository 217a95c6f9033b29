package handlers

import (
	"fmt"
	"slices"
	"time"

	"bmp-steganography/config"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const requestIDKey = "request_id"

// NewRouter wires the API routes, CORS and request logging. It fails when the CORS
// settings are rejected by gin-contrib/cors.
func NewRouter(conf *config.Config, log *zap.Logger) (*gin.Engine, error) {
	if log == nil {
		log = zap.NewNop()
	}

	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(log))

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = conf.Server.AllowOrigins
	if slices.Contains(conf.Server.AllowOrigins, "*") {
		corsConfig.AllowAllOrigins = true
		corsConfig.AllowOrigins = nil
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Stego-PSNR", "X-Stego-Capacity", "X-Stego-Required", "X-Stego-Extension", "X-Request-ID", "Content-Disposition"}
	corsConfig.AllowCredentials = true
	if len(conf.Server.AllowOrigins) > 0 {
		if err := corsConfig.Validate(); err != nil {
			return nil, fmt.Errorf("cors: %w", err)
		}
		router.Use(cors.New(corsConfig))
	}

	stegoHandler := NewStegoHandler(conf, log)

	api := router.Group("/api/v1")
	{
		api.GET("/health", stegoHandler.HealthCheck)

		stego := api.Group("/stego")
		{
			stego.POST("/encode", stegoHandler.EncodeImage)
			stego.POST("/decode", stegoHandler.DecodeImage)
			stego.POST("/capacity", stegoHandler.Capacity)
		}
	}

	return router, nil
}

// requestLogger tags each request with an id and logs it once it completes.
func requestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header("X-Request-ID", id)

		start := time.Now()
		c.Next()

		log.Info("request",
			zap.String("request_id", id),
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)))
	}
}
