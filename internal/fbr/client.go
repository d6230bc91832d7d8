// Package fbr talks to the tax authority's invoice submission API. The
// ledger only owns the per-sale submission status; everything else about
// filing lives on the authority's side.
package fbr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/haiderali7066/Grocery-store-ERP/internal/pos"
)

// Client wraps interactions with the FBR invoicing API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient constructs a new client.
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Ping checks if the remote service is available.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/health", c.baseURL), nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("fbr returned status %d", resp.StatusCode)
	}
	return nil
}

type invoiceLine struct {
	Description string `json:"description"`
	Quantity    int64  `json:"quantity"`
	UnitPrice   int64  `json:"unit_price"`
	TaxAmount   int64  `json:"tax_amount"`
}

type invoicePayload struct {
	ReferenceNumber string        `json:"reference_number"`
	GrossAmount     int64         `json:"gross_amount"`
	TaxAmount       int64         `json:"tax_amount"`
	PaymentMode     string        `json:"payment_mode"`
	IssuedAt        string        `json:"issued_at"`
	Items           []invoiceLine `json:"items"`
}

type invoiceResponse struct {
	InvoiceNumber string `json:"invoice_number"`
}

// SubmitSale files a finalized sale and returns the authority's invoice
// number.
func (c *Client) SubmitSale(ctx context.Context, sale pos.Sale) (string, error) {
	payload := invoicePayload{
		ReferenceNumber: sale.Number,
		GrossAmount:     sale.GrandTotal,
		TaxAmount:       sale.TaxTotal,
		PaymentMode:     string(sale.PaymentMethod),
		IssuedAt:        sale.CreatedAt.Format(time.RFC3339),
	}
	for _, line := range sale.Lines {
		payload.Items = append(payload.Items, invoiceLine{
			Description: line.ProductName,
			Quantity:    line.Qty,
			UnitPrice:   line.UnitPrice,
			TaxAmount:   line.TaxAmount,
		})
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fmt.Sprintf("%s/invoices", c.baseURL), bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("submission failed with status %d", resp.StatusCode)
	}
	var decoded invoiceResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", err
	}
	return decoded.InvoiceNumber, nil
}
