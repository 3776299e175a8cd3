// Package paypal is a minimal client for the PayPal REST Payments and
// Invoicing APIs, covering only the calls the sale settlement needs.
package paypal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

const (
	sandboxBase = "https://api.sandbox.paypal.com"
	liveBase    = "https://api.paypal.com"
)

// Payer identifies who approved a charge.
type Payer struct {
	Email     string
	FirstName string
	LastName  string
}

// Charge is a payment created on PayPal. ApprovalURL is where the buyer is
// redirected to approve it; Approved is set after execution. Custom carries
// the correlation id tying the charge to a listing.
type Charge struct {
	ID          string
	ApprovalURL string
	Approved    bool
	Custom      string
	Payer       Payer
}

// Invoice is a PayPal invoice. Note carries the correlation id that ties the
// invoice back to a listing.
type Invoice struct {
	ID     string
	Status string
	Note   string
}

// CreateChargeInput describes the payment to create.
type CreateChargeInput struct {
	Total       float64
	Currency    string
	Description string
	SuccessURL  string
	CancelURL   string
	Custom      string
}

// CreateInvoiceInput describes the invoice to create.
type CreateInvoiceInput struct {
	ItemName string
	Price    float64
	Currency string
	Quantity int
	Note     string
	Billing  Payer
}

// Gateway is the payment provider surface the settlement service depends on.
type Gateway interface {
	CreateCharge(ctx context.Context, in CreateChargeInput) (*Charge, error)
	CaptureCharge(ctx context.Context, chargeID, payerID string) (*Charge, error)
	FindInvoice(ctx context.Context, note string) (*Invoice, error)
	CreateInvoice(ctx context.Context, in CreateInvoiceInput) (*Invoice, error)
	SendInvoice(ctx context.Context, invoiceID string) error
	MarkInvoicePaid(ctx context.Context, invoiceID string, total float64, currency string) error
}

// Client talks to the PayPal REST API. Mode selects sandbox or live.
type Client struct {
	ClientID     string
	ClientSecret string
	Mode         string
	HTTPClient   *http.Client

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

var _ Gateway = (*Client)(nil)

func (c *Client) base() string {
	if strings.EqualFold(c.Mode, "live") {
		return liveBase
	}
	return sandboxBase
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	return c.HTTPClient
}

// token returns a cached OAuth access token, refreshing when close to expiry.
func (c *Client) token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.accessToken != "" && time.Now().Before(c.tokenExpiry.Add(-time.Minute)) {
		return c.accessToken, nil
	}
	form := url.Values{"grant_type": {"client_credentials"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base()+"/v1/oauth2/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(c.ClientID, c.ClientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := c.httpClient().Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("paypal token request failed: status %d", resp.StatusCode)
	}
	var body struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", err
	}
	c.accessToken = body.AccessToken
	c.tokenExpiry = time.Now().Add(time.Duration(body.ExpiresIn) * time.Second)
	return c.accessToken, nil
}

// do sends an authenticated JSON request and decodes the response into out.
func (c *Client) do(ctx context.Context, method, path string, in, out interface{}) error {
	token, err := c.token(ctx)
	if err != nil {
		return err
	}
	var reqBody *bytes.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		reqBody = bytes.NewReader(b)
	} else {
		reqBody = bytes.NewReader(nil)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base()+path, reqBody)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.httpClient().Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("paypal %s %s failed: status %d", method, path, resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

type paymentLink struct {
	Href string `json:"href"`
	Rel  string `json:"rel"`
}

type paymentResponse struct {
	ID    string `json:"id"`
	State string `json:"state"`
	Payer struct {
		PayerInfo struct {
			Email     string `json:"email"`
			FirstName string `json:"first_name"`
			LastName  string `json:"last_name"`
		} `json:"payer_info"`
	} `json:"payer"`
	Transactions []struct {
		Custom string `json:"custom"`
	} `json:"transactions"`
	Links []paymentLink `json:"links"`
}

func (r *paymentResponse) toCharge() *Charge {
	ch := &Charge{
		ID:       r.ID,
		Approved: strings.EqualFold(r.State, "approved"),
		Payer: Payer{
			Email:     r.Payer.PayerInfo.Email,
			FirstName: r.Payer.PayerInfo.FirstName,
			LastName:  r.Payer.PayerInfo.LastName,
		},
	}
	if len(r.Transactions) > 0 {
		ch.Custom = r.Transactions[0].Custom
	}
	for _, l := range r.Links {
		if l.Rel == "approval_url" {
			ch.ApprovalURL = l.Href
		}
	}
	return ch
}

// CreateCharge creates a sale payment the buyer still has to approve.
func (c *Client) CreateCharge(ctx context.Context, in CreateChargeInput) (*Charge, error) {
	body := map[string]interface{}{
		"intent": "sale",
		"payer":  map[string]string{"payment_method": "paypal"},
		"transactions": []map[string]interface{}{{
			"description": in.Description,
			"custom":      in.Custom,
			"amount": map[string]string{
				"currency": in.Currency,
				"total":    fmt.Sprintf("%.2f", in.Total),
			},
		}},
		"redirect_urls": map[string]string{
			"return_url": in.SuccessURL,
			"cancel_url": in.CancelURL,
		},
	}
	var resp paymentResponse
	if err := c.do(ctx, http.MethodPost, "/v1/payments/payment", body, &resp); err != nil {
		return nil, err
	}
	return resp.toCharge(), nil
}

// CaptureCharge executes an approved payment.
func (c *Client) CaptureCharge(ctx context.Context, chargeID, payerID string) (*Charge, error) {
	body := map[string]string{"payer_id": payerID}
	var resp paymentResponse
	path := "/v1/payments/payment/" + url.PathEscape(chargeID) + "/execute"
	if err := c.do(ctx, http.MethodPost, path, body, &resp); err != nil {
		return nil, err
	}
	return resp.toCharge(), nil
}

type invoiceResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Note   string `json:"note"`
}

func (r *invoiceResponse) toInvoice() *Invoice {
	return &Invoice{ID: r.ID, Status: r.Status, Note: r.Note}
}

// FindInvoice scans existing invoices for one whose note matches. Returns
// (nil, nil) when no invoice carries the note.
func (c *Client) FindInvoice(ctx context.Context, note string) (*Invoice, error) {
	var resp struct {
		Invoices []invoiceResponse `json:"invoices"`
	}
	if err := c.do(ctx, http.MethodGet, "/v1/invoicing/invoices?page_size=100", nil, &resp); err != nil {
		return nil, err
	}
	for _, inv := range resp.Invoices {
		if inv.Note == note {
			return inv.toInvoice(), nil
		}
	}
	return nil, nil
}

// CreateInvoice creates a draft invoice for the sold item.
func (c *Client) CreateInvoice(ctx context.Context, in CreateInvoiceInput) (*Invoice, error) {
	if in.Price < 0 || in.Price > 999999.99 {
		return nil, fmt.Errorf("invalid invoice price %.2f", in.Price)
	}
	if in.Quantity <= 0 {
		return nil, fmt.Errorf("invalid invoice quantity %d", in.Quantity)
	}
	total := in.Price * float64(in.Quantity)
	body := map[string]interface{}{
		"merchant_info": map[string]interface{}{
			"email":         "seller@anticairapp.sixela.be",
			"business_name": "Anticair'App",
		},
		"items": []map[string]interface{}{{
			"name":     in.ItemName,
			"quantity": in.Quantity,
			"unit_price": map[string]string{
				"currency": in.Currency,
				"value":    fmt.Sprintf("%.2f", in.Price),
			},
		}},
		"total_amount": map[string]string{
			"currency": in.Currency,
			"value":    fmt.Sprintf("%.2f", total),
		},
		"note": in.Note,
		"billing_info": []map[string]string{{
			"email":      in.Billing.Email,
			"first_name": in.Billing.FirstName,
			"last_name":  in.Billing.LastName,
		}},
	}
	var resp invoiceResponse
	if err := c.do(ctx, http.MethodPost, "/v1/invoicing/invoices", body, &resp); err != nil {
		return nil, err
	}
	return resp.toInvoice(), nil
}

// SendInvoice sends a draft invoice to its billing contact.
func (c *Client) SendInvoice(ctx context.Context, invoiceID string) error {
	return c.do(ctx, http.MethodPost, "/v1/invoicing/invoices/"+url.PathEscape(invoiceID)+"/send", nil, nil)
}

// MarkInvoicePaid records an external payment against the invoice.
func (c *Client) MarkInvoicePaid(ctx context.Context, invoiceID string, total float64, currency string) error {
	body := map[string]interface{}{
		"method": "PAYPAL",
		"amount": map[string]string{
			"currency": currency,
			"value":    fmt.Sprintf("%.2f", total),
		},
	}
	return c.do(ctx, http.MethodPost, "/v1/invoicing/invoices/"+url.PathEscape(invoiceID)+"/record-payment", body, nil)
}
