package models

import "encoding/json"

// DefaultCurrency is assumed when the extraction model omits the currency field.
const DefaultCurrency = "JOD"

// Supplier identifies the party issuing the invoice.
type Supplier struct {
	Name      *string `json:"name"`
	Address   *string `json:"address"`
	VATNumber *string `json:"vat_number"`
}

// Customer identifies the party being billed.
type Customer struct {
	Name      *string `json:"name"`
	Address   *string `json:"address"`
	VATNumber *string `json:"vat_number"`
}

// InvoiceItem is a single line item. Source documents are noisy bilingual
// scans, so every field may be missing.
type InvoiceItem struct {
	Description *string  `json:"description"`
	Quantity    *float64 `json:"quantity"`
	UnitPrice   *float64 `json:"unit_price"`
	Unit        *string  `json:"unit"`
	Total       *float64 `json:"total"`
}

// InvoiceData is one normalized invoice extracted from one OCR page.
type InvoiceData struct {
	InvoiceID     *string       `json:"invoice_id"`
	InvoiceDate   *string       `json:"invoice_date"`
	Supplier      *Supplier     `json:"supplier"`
	Customer      *Customer     `json:"customer"`
	Items         []InvoiceItem `json:"items"`
	Subtotal      *float64      `json:"subtotal"`
	Tax           *float64      `json:"tax"`
	TotalAmount   *float64      `json:"total_amount"`
	Currency      string        `json:"currency"`
	PaymentMethod *string       `json:"payment_method"`
	InvoiceNotes  *string       `json:"invoice_notes"`
}

// ApplyDefaults fills fields the extraction model is allowed to omit.
func (d *InvoiceData) ApplyDefaults() {
	if d.Currency == "" {
		d.Currency = DefaultCurrency
	}
	if d.Items == nil {
		d.Items = []InvoiceItem{}
	}
}

// KeyValue is a single key/value pair picked up by the OCR stage.
type KeyValue map[string]string

// OcrPage is one page of the OCR stage's output. Tables are kept opaque:
// their structure varies per document and the extraction stage consumes
// them verbatim.
type OcrPage struct {
	PageNumber int               `json:"page_number"`
	TextBlocks []string          `json:"text_blocks"`
	Tables     []json.RawMessage `json:"tables"`
	KeyValues  []KeyValue        `json:"key_values"`
}

// OcrDocument is the parsed result of the OCR stage.
type OcrDocument struct {
	Pages []OcrPage `json:"pages"`
}
