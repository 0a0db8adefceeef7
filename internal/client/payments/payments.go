// Package payments drives the payment-request lifecycle from the client side:
// creation by a freelancer, approval or rejection by a client.
package payments

import (
	"errors"
	"strings"
	"sync/atomic"

	"github.com/cloudzz-dev/gigmsg/internal/client/api"
	"github.com/cloudzz-dev/gigmsg/internal/client/models"
)

var (
	ErrRequestInFlight     = errors.New("a payment request is already being created")
	ErrInvalidAmount       = errors.New("amount is below the minimum")
	ErrEmptyDescription    = errors.New("description is required")
	ErrInsufficientBalance = errors.New("wallet balance is empty")
)

// MinAmount is the smallest request the backend accepts, in the request's
// own currency.
const MinAmount = 1.0

// Backend is the slice of the REST client this controller needs.
type Backend interface {
	CreatePaymentRequest(p api.CreatePaymentRequestParams) (*models.PaymentRequest, *models.Message, error)
	UpdatePaymentRequest(id, status, clientID string) error
}

type Controller struct {
	backend  Backend
	inFlight atomic.Bool
}

func New(backend Backend) *Controller {
	return &Controller{backend: backend}
}

// Create submits a new payment request. The in-flight guard collapses rapid
// duplicate submissions; the request carries no idempotency key, so letting
// two through would bill the client twice.
func (c *Controller) Create(p api.CreatePaymentRequestParams) (*models.PaymentRequest, *models.Message, error) {
	p.Description = strings.TrimSpace(p.Description)
	if p.Amount < MinAmount {
		return nil, nil, ErrInvalidAmount
	}
	if p.Description == "" {
		return nil, nil, ErrEmptyDescription
	}

	if !c.inFlight.CompareAndSwap(false, true) {
		return nil, nil, ErrRequestInFlight
	}
	defer c.inFlight.Store(false)

	return c.backend.CreatePaymentRequest(p)
}

// Approve moves a pending request to approved. An empty wallet is rejected
// locally so the caller can open the top-up modal instead; the server
// re-validates the balance regardless, since it can change between this check
// and the commit.
func (c *Controller) Approve(requestID, clientID string, walletBalance float64) error {
	if walletBalance <= 0 {
		return ErrInsufficientBalance
	}
	return c.backend.UpdatePaymentRequest(requestID, models.PaymentStatusApproved, clientID)
}

// Reject declines a pending request.
func (c *Controller) Reject(requestID, clientID string) error {
	return c.backend.UpdatePaymentRequest(requestID, models.PaymentStatusRejected, clientID)
}
