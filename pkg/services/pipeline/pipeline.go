// Package pipeline composes the two-stage invoice extraction: one OCR call
// over the whole document, then one extraction call per page.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"ocr-agent/pkg/models"
)

// maxConcurrentPages bounds simultaneous extraction calls per document.
const maxConcurrentPages = 4

// PDFDescriber is the OCR stage: whole PDF in, raw JSON text out.
type PDFDescriber interface {
	DescribePDF(ctx context.Context, pdf []byte) (string, error)
}

// PageExtractor is the extraction stage: one OCR page in, one invoice out.
type PageExtractor interface {
	ExtractPage(ctx context.Context, page models.OcrPage) (models.InvoiceData, error)
}

// Pipeline holds no per-request state; a single instance serves concurrent
// documents.
type Pipeline struct {
	ocr       PDFDescriber
	extractor PageExtractor
}

func New(ocr PDFDescriber, extractor PageExtractor) *Pipeline {
	return &Pipeline{ocr: ocr, extractor: extractor}
}

// Process runs the whole pipeline for one PDF. It returns either a complete
// list of invoices in page order or an error; a failure on any page aborts
// the rest, and in-flight sibling calls are cancelled.
func (p *Pipeline) Process(ctx context.Context, pdf []byte) ([]models.InvoiceData, error) {
	raw, err := p.ocr.DescribePDF(ctx, pdf)
	if err != nil {
		return nil, err
	}
	slog.Debug("ocr stage complete", "response_bytes", len(raw))

	doc, err := ParseOcrDocument(raw)
	if err != nil {
		return nil, err
	}
	slog.Info("ocr document parsed", "pages", len(doc.Pages))

	results := make([]models.InvoiceData, len(doc.Pages))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentPages)
	for i, page := range doc.Pages {
		g.Go(func() error {
			inv, err := p.extractor.ExtractPage(gctx, page)
			if err != nil {
				return fmt.Errorf("page %d: %w", page.PageNumber, err)
			}
			// Indexed write keeps output order equal to page order
			// regardless of completion order.
			results[i] = inv
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return results, nil
}

// ParseOcrDocument normalizes and parses the OCR stage's raw text. The
// "JSON only" instruction to the model is best effort, so markdown fences
// are stripped before structural parsing.
func ParseOcrDocument(raw string) (models.OcrDocument, error) {
	var doc models.OcrDocument

	text := StripCodeFences(raw)

	var top map[string]json.RawMessage
	if err := json.Unmarshal([]byte(text), &top); err != nil {
		return doc, fmt.Errorf("%w: %v (raw: %s)", ErrMalformedOCROutput, err, Snippet(text))
	}

	if _, ok := top["pages"]; !ok {
		keys := make([]string, 0, len(top))
		for k := range top {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return doc, fmt.Errorf("%w: keys found: %s", ErrMissingPagesField, strings.Join(keys, ", "))
	}

	if err := json.Unmarshal([]byte(text), &doc); err != nil {
		return doc, fmt.Errorf("%w: %v", ErrMalformedOCROutput, err)
	}
	return doc, nil
}

// StripCodeFences removes a leading ```json (or bare ```) line and a
// trailing ``` from model output.
func StripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		if i := strings.Index(s, "\n"); i != -1 {
			s = s[i+1:]
		} else {
			s = strings.TrimPrefix(s, "```json")
			s = strings.TrimPrefix(s, "```")
		}
	}
	if strings.HasSuffix(s, "```") {
		s = strings.TrimSuffix(s, "```")
	}
	return strings.TrimSpace(s)
}
