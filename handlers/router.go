package handlers

import (
	"fsk-steganography-backend/config"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// NewRouter wires the FSK routes under /api/v1
func NewRouter(cfg *config.Config) *gin.Engine {
	router := gin.Default()
	router.MaxMultipartMemory = cfg.Server.MaxUploadMB << 20

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.Server.AllowedOrigins
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With"}
	corsConfig.ExposeHeaders = []string{
		"X-Stego-PSNR", "X-Stego-Quality", "X-Stego-Method", "X-Stego-Bits",
		"X-Stego-Samples-Per-Bit", "X-Stego-Sample-Rate",
		"X-Stego-Windows", "X-Stego-Ambiguous-Windows",
		"X-Message-Width", "X-Message-Location", "Content-Disposition",
	}
	corsConfig.AllowCredentials = true
	router.Use(cors.New(corsConfig))

	h := NewFSKHandler(cfg)

	api := router.Group("/api/v1")
	{
		api.GET("/health", h.HealthCheck)

		fskGroup := api.Group("/fsk")
		{
			fskGroup.GET("/params", h.Params)
			fskGroup.POST("/encode", h.Encode)
			fskGroup.POST("/decode", h.Decode)
			fskGroup.POST("/analyze", h.Analyze)
		}

		stegoGroup := api.Group("/stego")
		{
			stegoGroup.POST("/embed", h.Embed)
			stegoGroup.POST("/extract", h.Extract)
		}
	}
	return router
}
