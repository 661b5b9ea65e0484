package main

import (
	"context"
	"log"
	"log/slog"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"ocr-agent/pkg/api"
	"ocr-agent/pkg/config"
	"ocr-agent/pkg/services/extract"
	"ocr-agent/pkg/services/ocr"
	"ocr-agent/pkg/services/pipeline"
)

func main() {
	// Load environment variables; a missing .env is fine in deployed
	// environments where the variables are set directly.
	if err := godotenv.Load(); err != nil {
		slog.Warn("no .env file loaded", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("configuration error: %v", err)
	}

	ctx := context.Background()

	ocrService, err := ocr.NewService(ctx, cfg.GeminiAPIKey, cfg.OCRModel)
	if err != nil {
		log.Fatalf("failed to create OCR service: %v", err)
	}

	extractService, err := extract.NewService(cfg.OpenAIAPIKey, cfg.ExtractionModel, "")
	if err != nil {
		log.Fatalf("failed to create extraction service: %v", err)
	}

	invoicePipeline := pipeline.New(ocrService, extractService)
	handler := api.NewHandler(invoicePipeline, ocrService, cfg.RequestTimeout)

	// Set up Gin router
	r := gin.Default()
	r.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:    []string{"Origin", "Content-Type", "Accept", "Authorization"},
	}))

	handler.Register(r)

	slog.Info("starting server", "port", cfg.Port, "ocr_model", cfg.OCRModel, "extraction_model", cfg.ExtractionModel)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
