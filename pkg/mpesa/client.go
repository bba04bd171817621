package mpesa

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/oauth2/clientcredentials"
)

var (
	ErrNotConfigured       = errors.New("M-Pesa integration is not configured")
	ErrTransactionNotFound = errors.New("transaction not found at gateway")
	ErrGatewayUnavailable  = errors.New("gateway request failed")
)

// TransactionInfo represents a transaction as reported by the Daraja API
type TransactionInfo struct {
	TransactionID string `json:"TransactionID"`
	Amount        string `json:"Amount"`
	MSISDN        string `json:"MSISDN"`
	ResultCode    int    `json:"ResultCode"`
	ResultDesc    string `json:"ResultDesc"`
}

// Verifier confirms gateway transaction references before a payment is
// approved. Implementations other than the Daraja client exist for tests.
type Verifier interface {
	VerifyTransaction(ctx context.Context, reference string) (*TransactionInfo, error)
	IsConfigured() bool
}

// Config holds the Daraja API credentials
type Config struct {
	ConsumerKey    string
	ConsumerSecret string
	BaseURL        string // e.g. https://api.safaricom.co.ke
	ShortCode      string
}

// Client talks to the Safaricom Daraja API. Access tokens are obtained
// through the OAuth2 client credentials flow and refreshed automatically.
type Client struct {
	cfg  Config
	http *http.Client
}

// NewClient creates a Daraja API client
func NewClient(ctx context.Context, cfg Config) *Client {
	cc := &clientcredentials.Config{
		ClientID:     cfg.ConsumerKey,
		ClientSecret: cfg.ConsumerSecret,
		TokenURL:     cfg.BaseURL + "/oauth/v1/generate?grant_type=client_credentials",
	}
	return &Client{
		cfg:  cfg,
		http: cc.Client(ctx),
	}
}

// IsConfigured checks whether credentials are present
func (c *Client) IsConfigured() bool {
	return c.cfg.ConsumerKey != "" && c.cfg.ConsumerSecret != ""
}

// VerifyTransaction queries the gateway for the given transaction reference
func (c *Client) VerifyTransaction(ctx context.Context, reference string) (*TransactionInfo, error) {
	if !c.IsConfigured() {
		return nil, ErrNotConfigured
	}

	body, err := json.Marshal(map[string]string{
		"TransactionID":  reference,
		"PartyA":         c.cfg.ShortCode,
		"IdentifierType": "4",
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.cfg.BaseURL+"/mpesa/transactionstatus/v1/query", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrTransactionNotFound
	}
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: status %d, body: %s", ErrGatewayUnavailable, resp.StatusCode, string(respBody))
	}

	var info TransactionInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	if info.ResultCode != 0 {
		return nil, fmt.Errorf("%w: %s", ErrTransactionNotFound, info.ResultDesc)
	}

	return &info, nil
}
