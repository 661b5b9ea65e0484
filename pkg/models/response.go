package models

// PDFDescriptionResponse wraps the raw OCR output for one uploaded PDF.
type PDFDescriptionResponse struct {
	Filename    string `json:"filename"`
	Description string `json:"description"`
	Status      string `json:"status"`
}

// ImageDescriptionResponse wraps the model's description of one uploaded image.
type ImageDescriptionResponse struct {
	Filename    string `json:"filename"`
	Description string `json:"description"`
	Status      string `json:"status"`
}

// InvoiceExtractionResponse wraps the full pipeline result, one invoice per page.
type InvoiceExtractionResponse struct {
	Filename      string        `json:"filename"`
	InvoiceData   []InvoiceData `json:"invoice_data"`
	Status        string        `json:"status"`
	TotalInvoices int           `json:"total_invoices"`
}

// ErrorResponse is the single outward-facing error shape.
type ErrorResponse struct {
	Detail string `json:"detail"`
}
