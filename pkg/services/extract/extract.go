// Package extract is the extraction stage adapter: it normalizes one OCR
// page into a structured invoice via a chat-completion model.
package extract

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"

	"ocr-agent/pkg/models"
	"ocr-agent/pkg/services/pipeline"
)

// systemPrompt fixes the output schema. Field-level nullability is handled
// by the models package on bind; the prompt only has to keep the shape.
const systemPrompt = `You are an expert AI data extraction agent specialized in parsing invoices.
Your task is to take the raw OCR JSON output for a SINGLE invoice page
and produce a clean, validated JSON that follows the given schema exactly.

Important:
- Focus heavily on Arabic and English bilingual text.
- Match fields like invoice_id, supplier name, customer name, dates, totals, and items accurately.
- Extract numbers even if written in Arabic numerals (e.g., Arabic-indic digits become 123).
- Use semantic understanding to infer missing fields from nearby labels.
- If a field is missing, return it as null.
- Never include explanations, only output valid JSON that strictly follows the schema below.

Required output schema:
{
  "invoice_id": "",
  "invoice_date": "",
  "supplier": {"name": "", "address": "", "vat_number": ""},
  "customer": {"name": "", "address": "", "vat_number": ""},
  "items": [
    {"description": "", "quantity": 0, "unit_price": 0, "unit": "", "total": 0}
  ],
  "subtotal": 0,
  "tax": 0,
  "total_amount": 0,
  "currency": "JOD",
  "payment_method": "",
  "invoice_notes": ""
}`

// Service wraps the completion client for the extraction stage.
type Service struct {
	client openai.Client
	model  string
}

// NewService builds the extraction adapter. baseURL overrides the API
// endpoint and is primarily a test seam.
func NewService(apiKey, model, baseURL string) (*Service, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("missing OpenAI API key")
	}
	if model == "" {
		model = "gpt-4o-mini"
	}

	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}

	return &Service{client: openai.NewClient(opts...), model: model}, nil
}

// ExtractPage normalizes a single OCR page into an invoice record. The page
// JSON is embedded verbatim in the user message; the response is constrained
// to a JSON object and bound into models.InvoiceData.
func (s *Service) ExtractPage(ctx context.Context, page models.OcrPage) (models.InvoiceData, error) {
	var invoice models.InvoiceData

	pageJSON, err := json.MarshalIndent(page, "", "  ")
	if err != nil {
		return invoice, fmt.Errorf("encode page %d: %w", page.PageNumber, err)
	}

	userPrompt := fmt.Sprintf(`Below is the OCR JSON output for a SINGLE invoice page.
Please parse it according to the schema above and output ONLY the final JSON.

OCR result for this page:

`+"```json\n%s\n```", pageJSON)

	resp, err := s.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(s.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(userPrompt),
		},
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		},
	})
	if err != nil {
		return invoice, fmt.Errorf("%w: extraction call for page %d: %v", pipeline.ErrExternalService, page.PageNumber, err)
	}
	if len(resp.Choices) == 0 {
		return invoice, fmt.Errorf("%w: extraction returned no choices for page %d", pipeline.ErrExternalService, page.PageNumber)
	}

	text := resp.Choices[0].Message.Content
	if err := json.Unmarshal([]byte(text), &invoice); err != nil {
		return invoice, fmt.Errorf("%w: page %d: %v (raw: %s)", pipeline.ErrSchemaParse, page.PageNumber, err, pipeline.Snippet(text))
	}

	invoice.ApplyDefaults()
	slog.Debug("page extracted", "page", page.PageNumber, "model", s.model)
	return invoice, nil
}
