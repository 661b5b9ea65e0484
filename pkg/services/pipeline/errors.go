package pipeline

import "errors"

// Sentinel errors for the extraction pipeline. Adapters wrap these so the
// HTTP boundary can flatten everything to one message while logs keep the
// distinction.
var (
	// ErrExternalService covers transport, auth and service-side failures
	// from either model call. No automatic retry is performed.
	ErrExternalService = errors.New("external service failure")

	// ErrMalformedOCROutput means the OCR response was not parseable JSON
	// even after code-fence stripping.
	ErrMalformedOCROutput = errors.New("malformed ocr output")

	// ErrMissingPagesField means the OCR response was valid JSON but had no
	// top-level "pages" array.
	ErrMissingPagesField = errors.New("ocr output missing pages field")

	// ErrSchemaParse means an extraction response was not valid JSON.
	ErrSchemaParse = errors.New("extraction output is not valid JSON")
)

const snippetLen = 300

// Snippet bounds raw model output for inclusion in error messages.
func Snippet(s string) string {
	if len(s) <= snippetLen {
		return s
	}
	return s[:snippetLen] + "..."
}
