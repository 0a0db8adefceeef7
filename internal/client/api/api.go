// Package api is the REST client for the marketplace backend. Every response
// uses a {success, ...} envelope; a false success or a non-2xx status becomes
// an error carrying the server-provided message.
package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cloudzz-dev/gigmsg/internal/client/models"
)

const requestTimeout = 15 * time.Second

type Client struct {
	base string
	http *http.Client
}

func New(base string) *Client {
	return &Client{
		base: strings.TrimRight(base, "/"),
		http: &http.Client{Timeout: requestTimeout},
	}
}

type envelope struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

func (e envelope) errText() string {
	if e.Error != "" {
		return e.Error
	}
	if e.Message != "" {
		return e.Message
	}
	return "request failed"
}

// do issues a request and decodes the body into out, which must embed or
// duplicate the envelope fields it needs.
func (c *Client) do(method, path string, query url.Values, body, out any) error {
	u := c.base + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, u, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var raw bytes.Buffer
	if _, err := raw.ReadFrom(resp.Body); err != nil {
		return err
	}

	var env envelope
	if err := json.Unmarshal(raw.Bytes(), &env); err != nil {
		return fmt.Errorf("%s %s: status %d", method, path, resp.StatusCode)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 || !env.Success {
		return fmt.Errorf("%s", env.errText())
	}
	if out != nil {
		return json.Unmarshal(raw.Bytes(), out)
	}
	return nil
}

// Login authenticates against the dev server and returns the profile used to
// seed the local session.
func (c *Client) Login(email, password string) (*models.User, error) {
	var resp struct {
		envelope
		User models.User `json:"user"`
	}
	body := map[string]string{"email": email, "password": password}
	if err := c.do(http.MethodPost, "/api/auth/login", nil, body, &resp); err != nil {
		return nil, err
	}
	return &resp.User, nil
}

// AcceptedConversations lists the conversations the user may message in.
func (c *Client) AcceptedConversations(userID, userType string) ([]models.Conversation, error) {
	var resp struct {
		envelope
		Conversations []models.Conversation `json:"conversations"`
	}
	q := url.Values{"userId": {userID}, "userType": {userType}}
	if err := c.do(http.MethodGet, "/api/messages/accepted-conversations", q, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Conversations, nil
}

// Messages returns the full history for a conversation, oldest first.
func (c *Client) Messages(conversationID, userID string) ([]models.Message, error) {
	var resp struct {
		envelope
		Messages []models.Message `json:"messages"`
	}
	q := url.Values{"userId": {userID}}
	if err := c.do(http.MethodGet, "/api/messages/"+conversationID, q, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Messages, nil
}

type CreatePaymentRequestParams struct {
	ConversationID string  `json:"conversationId"`
	FreelancerID   string  `json:"freelancerId"`
	ClientID       string  `json:"clientId"`
	Amount         float64 `json:"amount"`
	Currency       string  `json:"currency"`
	Description    string  `json:"description"`
}

// CreatePaymentRequest creates a payment request; the server atomically
// produces both the request and its carrier message.
func (c *Client) CreatePaymentRequest(p CreatePaymentRequestParams) (*models.PaymentRequest, *models.Message, error) {
	var resp struct {
		envelope
		PaymentRequest models.PaymentRequest `json:"paymentRequest"`
		PaymentMessage models.Message        `json:"paymentMessage"`
	}
	if err := c.do(http.MethodPost, "/api/payment-requests", nil, p, &resp); err != nil {
		return nil, nil, err
	}
	return &resp.PaymentRequest, &resp.PaymentMessage, nil
}

// UpdatePaymentRequest moves a pending request to approved or rejected.
func (c *Client) UpdatePaymentRequest(id, status, clientID string) error {
	body := map[string]string{"status": status, "clientId": clientID}
	return c.do(http.MethodPut, "/api/payment-requests/"+id, nil, body, nil)
}

// Wallet fetches the user's wallet with recent transactions.
func (c *Client) Wallet(userID string) (*models.Wallet, error) {
	var resp struct {
		envelope
		Wallet models.Wallet `json:"wallet"`
	}
	q := url.Values{"userId": {userID}}
	if err := c.do(http.MethodGet, "/api/wallet", q, nil, &resp); err != nil {
		return nil, err
	}
	return &resp.Wallet, nil
}

// TopUp credits the wallet and returns the updated balance.
func (c *Client) TopUp(userID string, amount float64) (*models.Wallet, error) {
	var resp struct {
		envelope
		Wallet models.Wallet `json:"wallet"`
	}
	body := map[string]any{"userId": userID, "amount": amount}
	if err := c.do(http.MethodPost, "/api/wallet/topup", nil, body, &resp); err != nil {
		return nil, err
	}
	return &resp.Wallet, nil
}
