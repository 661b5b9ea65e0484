package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ocr-agent/pkg/models"
	"ocr-agent/pkg/services/pipeline"
)

type fakeProcessor struct {
	invoices []models.InvoiceData
	err      error
	calls    int
}

func (f *fakeProcessor) Process(ctx context.Context, pdf []byte) ([]models.InvoiceData, error) {
	f.calls++
	return f.invoices, f.err
}

type fakeDescriber struct {
	out   string
	err   error
	calls int
}

func (f *fakeDescriber) DescribePDF(ctx context.Context, pdf []byte) (string, error) {
	f.calls++
	return f.out, f.err
}

func (f *fakeDescriber) DescribeImage(ctx context.Context, data []byte, mimeType string) (string, error) {
	f.calls++
	return f.out, f.err
}

func newTestRouter(p *fakeProcessor, d *fakeDescriber) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewHandler(p, d, 5*time.Second).Register(r)
	return r
}

func uploadRequest(t *testing.T, path, filename string, content []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fw, err := w.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func countTempUploads(t *testing.T) int {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(os.TempDir(), "ocr-agent-upload-*"))
	require.NoError(t, err)
	return len(matches)
}

func TestLivenessRoutes(t *testing.T) {
	r := newTestRouter(&fakeProcessor{}, &fakeDescriber{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "running")

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "healthy")
}

func TestExtractInvoiceRejectsNonPDF(t *testing.T) {
	p := &fakeProcessor{}
	d := &fakeDescriber{}
	r := newTestRouter(p, d)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, uploadRequest(t, "/api/v1/extract-invoice", "invoice.docx", []byte("not a pdf")))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Only PDF files are allowed")
	assert.Equal(t, 0, p.calls, "no external call may happen for rejected uploads")
	assert.Equal(t, 0, d.calls)
}

func TestDescribePDFRejectsNonPDF(t *testing.T) {
	d := &fakeDescriber{}
	r := newTestRouter(&fakeProcessor{}, d)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, uploadRequest(t, "/api/v1/describe-pdf", "scan.png", []byte("png bytes")))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 0, d.calls)
}

func TestExtractInvoiceMissingFile(t *testing.T) {
	p := &fakeProcessor{}
	r := newTestRouter(p, &fakeDescriber{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/extract-invoice", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 0, p.calls)
}

func TestExtractInvoiceSuccess(t *testing.T) {
	id := "INV-1"
	p := &fakeProcessor{invoices: []models.InvoiceData{
		{InvoiceID: &id, Currency: "JOD", Items: []models.InvoiceItem{}},
		{Currency: "JOD", Items: []models.InvoiceItem{}},
	}}
	r := newTestRouter(p, &fakeDescriber{})

	before := countTempUploads(t)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, uploadRequest(t, "/api/v1/extract-invoice", "invoice.pdf", []byte("%PDF-1.7")))

	require.Equal(t, http.StatusOK, w.Code)
	var resp models.InvoiceExtractionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "invoice.pdf", resp.Filename)
	assert.Equal(t, "success", resp.Status)
	assert.Equal(t, 2, resp.TotalInvoices)
	require.Len(t, resp.InvoiceData, 2)
	require.NotNil(t, resp.InvoiceData[0].InvoiceID)
	assert.Equal(t, "INV-1", *resp.InvoiceData[0].InvoiceID)

	assert.Equal(t, before, countTempUploads(t), "temp upload must be removed on success")
}

func TestExtractInvoicePipelineFailure(t *testing.T) {
	p := &fakeProcessor{err: fmt.Errorf("%w: keys found: document", pipeline.ErrMissingPagesField)}
	r := newTestRouter(p, &fakeDescriber{})

	before := countTempUploads(t)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, uploadRequest(t, "/api/v1/extract-invoice", "invoice.pdf", []byte("%PDF-1.7")))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	var resp models.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Contains(t, resp.Detail, "Error extracting invoice")

	assert.Equal(t, before, countTempUploads(t), "temp upload must be removed on failure")
}

func TestDescribePDFSuccess(t *testing.T) {
	d := &fakeDescriber{out: `{"pages": []}`}
	r := newTestRouter(&fakeProcessor{}, d)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, uploadRequest(t, "/api/v1/describe-pdf", "doc.pdf", []byte("%PDF-1.7")))

	require.Equal(t, http.StatusOK, w.Code)
	var resp models.PDFDescriptionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "doc.pdf", resp.Filename)
	assert.Equal(t, `{"pages": []}`, resp.Description)
	assert.Equal(t, "success", resp.Status)
	assert.Equal(t, 1, d.calls)
}

func TestDescribePDFFailure(t *testing.T) {
	d := &fakeDescriber{err: errors.New("gemini unavailable")}
	r := newTestRouter(&fakeProcessor{}, d)

	before := countTempUploads(t)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, uploadRequest(t, "/api/v1/describe-pdf", "doc.pdf", []byte("%PDF-1.7")))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "Error processing PDF")
	assert.Equal(t, before, countTempUploads(t))
}

func TestDescribeImageRejectsUnsupportedType(t *testing.T) {
	d := &fakeDescriber{}
	r := newTestRouter(&fakeProcessor{}, d)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, uploadRequest(t, "/api/v1/describe-image", "scan.tiff", []byte("tiff bytes")))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 0, d.calls)
}

func TestDescribeImageSuccess(t *testing.T) {
	d := &fakeDescriber{out: "A bilingual invoice from a trading agency."}
	r := newTestRouter(&fakeProcessor{}, d)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, uploadRequest(t, "/api/v1/describe-image", "scan.jpg", []byte("jpeg bytes")))

	require.Equal(t, http.StatusOK, w.Code)
	var resp models.ImageDescriptionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "scan.jpg", resp.Filename)
	assert.Equal(t, "success", resp.Status)
	assert.Equal(t, d.out, resp.Description)
}
