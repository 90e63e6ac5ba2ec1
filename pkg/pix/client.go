// Package pix consumes an external PIX charge-generation service. The payload
// encoding itself lives on the other side; this client only asks for a code
// and hands back the result.
package pix

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

type Charge struct {
	CopyPaste string    `json:"copy_paste"`
	QRCode    string    `json:"qr_code"` // base64 PNG
	ExpiresAt time.Time `json:"expires_at"`
}

type Client struct {
	BaseURL      string
	APIKey       string
	PixKey       string
	MerchantName string
	MerchantCity string
	Expiration   time.Duration
	HTTPClient   *http.Client
}

type chargeRequest struct {
	Key           string `json:"key"`
	MerchantName  string `json:"merchant_name"`
	MerchantCity  string `json:"merchant_city"`
	Amount        string `json:"amount"`
	TransactionID string `json:"transaction_id"`
	Description   string `json:"description"`
	ExpirationSec int    `json:"expiration_seconds"`
}

type chargeResponse struct {
	CopyPaste string `json:"copy_paste"`
	QRCode    string `json:"qr_code_base64"`
	ExpiresAt string `json:"expires_at"`
}

func NewClient(baseURL, apiKey, pixKey, merchantName, merchantCity string, expiration, timeout time.Duration) *Client {
	return &Client{
		BaseURL:      baseURL,
		APIKey:       apiKey,
		PixKey:       pixKey,
		MerchantName: merchantName,
		MerchantCity: merchantCity,
		Expiration:   expiration,
		HTTPClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// GenerateCharge requests a scannable PIX code for the given amount. The
// reference becomes the transaction id so the payment can be reconciled
// against the order number.
func (c *Client) GenerateCharge(ctx context.Context, amount float64, reference, description string) (*Charge, error) {
	requestData := chargeRequest{
		Key:           c.PixKey,
		MerchantName:  c.MerchantName,
		MerchantCity:  c.MerchantCity,
		Amount:        fmt.Sprintf("%.2f", amount),
		TransactionID: reference,
		Description:   description,
		ExpirationSec: int(c.Expiration.Seconds()),
	}

	jsonData, err := json.Marshal(requestData)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal charge request: %w", err)
	}

	url := fmt.Sprintf("%s/charges", c.BaseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.APIKey)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send charge request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read charge response: %w", err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("charge generation failed with status %d: %s", resp.StatusCode, body)
	}

	var response chargeResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("failed to parse charge response: %w", err)
	}

	expiresAt, err := time.Parse(time.RFC3339, response.ExpiresAt)
	if err != nil {
		// Gateways that omit the timestamp fall back to the configured window.
		expiresAt = time.Now().Add(c.Expiration)
	}

	return &Charge{
		CopyPaste: response.CopyPaste,
		QRCode:    response.QRCode,
		ExpiresAt: expiresAt,
	}, nil
}

// IsExpired reports whether a PIX code is past its expiry. Expiry is
// informational only; manual confirmation always wins.
func (c *Client) IsExpired(expiresAt time.Time) bool {
	return time.Now().After(expiresAt)
}
