// Package ocr is the OCR stage adapter: it sends documents inline to a
// vision model and returns the raw text response.
package ocr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/disintegration/imaging"
	genai "google.golang.org/genai"

	"ocr-agent/pkg/services/pipeline"
)

// extractionPrompt instructs the model to return the page-structured JSON
// the pipeline splits on. The model treats "JSON only" as a hint, not a
// guarantee; the pipeline strips fences defensively.
const extractionPrompt = `You are an OCR extraction assistant.
Read the following PDF document and extract ALL visible textual data,
including Arabic and English text, numbers, tables, and labels.

CRITICAL: Output ONLY valid JSON (no markdown, no explanations, no code blocks).
Start directly with { and end with }.

Required structure:
{
  "pages": [
    {
      "page_number": 1,
      "text_blocks": ["text1", "text2"],
      "tables": [],
      "key_values": [{"key": "value"}]
    }
  ]
}

Do not summarize - extract every visible text element.
Return ONLY the JSON object, nothing else.`

const describePrompt = "Describe the content of this document in detail. " +
	"Include any text, tables, charts, or images you see."

// Service wraps the Gemini client for the OCR stage.
type Service struct {
	client *genai.Client
	model  string
}

// NewService builds the OCR adapter. The API key is mandatory.
func NewService(ctx context.Context, apiKey, model string) (*Service, error) {
	if apiKey == "" {
		return nil, errors.New("missing Gemini API key")
	}
	if model == "" {
		model = "gemini-2.5-pro"
	}
	c, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &Service{client: c, model: model}, nil
}

// DescribePDF sends the whole PDF inline with the fixed extraction prompt
// and a JSON response constraint. It returns the raw response text without
// parsing it; structural validation belongs to the pipeline.
func (s *Service) DescribePDF(ctx context.Context, pdf []byte) (string, error) {
	content := []*genai.Content{
		{
			Role: genai.RoleUser,
			Parts: []*genai.Part{
				{InlineData: &genai.Blob{MIMEType: "application/pdf", Data: pdf}},
				{Text: extractionPrompt},
			},
		},
	}
	cfg := &genai.GenerateContentConfig{ResponseMIMEType: "application/json"}

	res, err := s.client.Models.GenerateContent(ctx, s.model, content, cfg)
	if err != nil {
		return "", fmt.Errorf("%w: gemini ocr call: %v", pipeline.ErrExternalService, err)
	}

	text := res.Text()
	slog.Debug("gemini ocr response", "model", s.model, "bytes", len(text))
	return text, nil
}

// DescribeImage enhances a scanned image and asks the model for a free-text
// description. No JSON constraint here; the caller returns the text as-is.
func (s *Service) DescribeImage(ctx context.Context, data []byte, mimeType string) (string, error) {
	enhanced, outMIME, err := enhanceForOCR(data)
	if err != nil {
		// Undecodable uploads still go to the model untouched; it may
		// handle formats the local decoder does not.
		slog.Warn("image enhancement skipped", "error", err)
		enhanced, outMIME = data, mimeType
	}

	content := []*genai.Content{
		{
			Role: genai.RoleUser,
			Parts: []*genai.Part{
				{InlineData: &genai.Blob{MIMEType: outMIME, Data: enhanced}},
				{Text: describePrompt},
			},
		},
	}

	res, err := s.client.Models.GenerateContent(ctx, s.model, content, nil)
	if err != nil {
		return "", fmt.Errorf("%w: gemini describe call: %v", pipeline.ErrExternalService, err)
	}
	return res.Text(), nil
}

// enhanceForOCR sharpens a scanned document before the model sees it:
// grayscale for contrast, then contrast, sharpen, brightness and gamma
// adjustments.
func enhanceForOCR(data []byte) ([]byte, string, error) {
	src, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("decode image: %w", err)
	}

	img := imaging.Grayscale(src)
	img = imaging.AdjustContrast(img, 30)
	img = imaging.Sharpen(img, 1.5)
	img = imaging.AdjustBrightness(img, 10)
	img = imaging.AdjustGamma(img, 1.2)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG); err != nil {
		return nil, "", fmt.Errorf("encode image: %w", err)
	}
	return buf.Bytes(), "image/jpeg", nil
}
