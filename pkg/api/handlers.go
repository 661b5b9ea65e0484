// Package api holds the HTTP handlers. Errors from the pipeline are
// flattened to a single detail string here: 400 for bad uploads, 500 for
// anything downstream.
package api

import (
	"context"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"ocr-agent/pkg/models"
)

// InvoiceProcessor is the full two-stage pipeline.
type InvoiceProcessor interface {
	Process(ctx context.Context, pdf []byte) ([]models.InvoiceData, error)
}

// Describer is the OCR stage used directly by the describe endpoints.
type Describer interface {
	DescribePDF(ctx context.Context, pdf []byte) (string, error)
	DescribeImage(ctx context.Context, data []byte, mimeType string) (string, error)
}

// Handler carries the request-scoped dependencies for all routes.
type Handler struct {
	pipeline  InvoiceProcessor
	describer Describer
	timeout   time.Duration
}

func NewHandler(p InvoiceProcessor, d Describer, timeout time.Duration) *Handler {
	return &Handler{pipeline: p, describer: d, timeout: timeout}
}

// Register wires all routes onto the engine.
func (h *Handler) Register(r *gin.Engine) {
	r.GET("/", h.root)
	r.GET("/health", h.health)

	v1 := r.Group("/api/v1")
	v1.POST("/describe-pdf", h.describePDF)
	v1.POST("/extract-invoice", h.extractInvoice)
	v1.POST("/describe-image", h.describeImage)
}

func (h *Handler) root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "OCR Agent API",
		"version": "1.0.0",
		"status":  "running",
	})
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

func (h *Handler) describePDF(c *gin.Context) {
	file, ok := h.requirePDF(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	data, cleanup, err := spoolUpload(c, file, ".pdf")
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Detail: "Error processing PDF: " + err.Error()})
		return
	}
	defer cleanup()

	description, err := h.describer.DescribePDF(ctx, data)
	if err != nil {
		slog.Error("describe-pdf failed", "filename", file.Filename, "error", err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Detail: "Error processing PDF: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, models.PDFDescriptionResponse{
		Filename:    file.Filename,
		Description: description,
		Status:      "success",
	})
}

func (h *Handler) extractInvoice(c *gin.Context) {
	file, ok := h.requirePDF(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	data, cleanup, err := spoolUpload(c, file, ".pdf")
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Detail: "Error extracting invoice: " + err.Error()})
		return
	}
	defer cleanup()

	invoices, err := h.pipeline.Process(ctx, data)
	if err != nil {
		slog.Error("extract-invoice failed", "filename", file.Filename, "error", err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Detail: "Error extracting invoice: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, models.InvoiceExtractionResponse{
		Filename:      file.Filename,
		InvoiceData:   invoices,
		Status:        "success",
		TotalInvoices: len(invoices),
	})
}

func (h *Handler) describeImage(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Detail: "No file uploaded"})
		return
	}
	ext := strings.ToLower(filepath.Ext(file.Filename))
	if ext != ".jpg" && ext != ".jpeg" && ext != ".png" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Detail: "Only JPG and PNG images are allowed"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	data, cleanup, err := spoolUpload(c, file, ext)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Detail: "Error processing image: " + err.Error()})
		return
	}
	defer cleanup()

	mimeType := mime.TypeByExtension(ext)
	if mimeType == "" {
		mimeType = "image/jpeg"
	}

	description, err := h.describer.DescribeImage(ctx, data, mimeType)
	if err != nil {
		slog.Error("describe-image failed", "filename", file.Filename, "error", err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Detail: "Error processing image: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, models.ImageDescriptionResponse{
		Filename:    file.Filename,
		Description: description,
		Status:      "success",
	})
}

// requirePDF validates the upload before any external call happens.
func (h *Handler) requirePDF(c *gin.Context) (*multipart.FileHeader, bool) {
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Detail: "No file uploaded"})
		return nil, false
	}
	if !strings.HasSuffix(file.Filename, ".pdf") {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Detail: "Only PDF files are allowed"})
		return nil, false
	}
	return file, true
}
