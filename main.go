package main

import (
	"log"

	"fsk-steganography-backend/config"
	"fsk-steganography-backend/handlers"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	p, err := cfg.Params()
	if err != nil {
		log.Fatalf("Invalid modulation parameters: %v", err)
	}
	log.Printf("✓ Modulation ready: %s", p)

	router := handlers.NewRouter(cfg)

	log.Printf("Server starting on port %s", cfg.Server.Port)
	log.Printf("API endpoints:")
	log.Printf("  GET  /api/v1/health        - Health check")
	log.Printf("  GET  /api/v1/fsk/params    - Derived modulation parameters")
	log.Printf("  POST /api/v1/fsk/encode    - Modulate a secret file into a WAV carrier")
	log.Printf("  POST /api/v1/fsk/decode    - Demodulate a WAV carrier back into the secret file")
	log.Printf("  POST /api/v1/fsk/analyze   - Tone report of a carrier")
	log.Printf("  POST /api/v1/stego/embed   - Mix a carrier into a host WAV/MP3 (returns stego WAV)")
	log.Printf("  POST /api/v1/stego/extract - Recover the carrier from a stego WAV and its host")
	log.Printf("")
	log.Printf("Features:")
	log.Printf("  • Binary FSK with trapezoidal correlation")
	log.Printf("  • Vigenère cipher encryption")
	log.Printf("  • PSNR quality assessment (returned in X-Stego-PSNR header)")
	log.Printf("  • Embedding descriptor stored in the WAV INFO comment")

	if err := router.Run(":" + cfg.Server.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
