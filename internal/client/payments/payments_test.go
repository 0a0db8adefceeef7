package payments

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/cloudzz-dev/gigmsg/internal/client/api"
	"github.com/cloudzz-dev/gigmsg/internal/client/models"
)

type fakeBackend struct {
	creates atomic.Int32
	updates atomic.Int32

	lastStatus string
	started    chan struct{} // closed when the first create enters
	block      chan struct{} // if set, Create blocks until closed
}

func (f *fakeBackend) CreatePaymentRequest(p api.CreatePaymentRequestParams) (*models.PaymentRequest, *models.Message, error) {
	if f.creates.Add(1) == 1 && f.started != nil {
		close(f.started)
	}
	if f.block != nil {
		<-f.block
	}
	return &models.PaymentRequest{ID: "pr1", Status: models.PaymentStatusPending},
		&models.Message{ID: "42", Type: models.MessageTypePaymentRequest}, nil
}

func (f *fakeBackend) UpdatePaymentRequest(id, status, clientID string) error {
	f.updates.Add(1)
	f.lastStatus = status
	return nil
}

func params() api.CreatePaymentRequestParams {
	return api.CreatePaymentRequestParams{
		ConversationID: "c1", FreelancerID: "f1", ClientID: "u1",
		Amount: 500, Currency: "INR", Description: "Milestone 1",
	}
}

func TestCreateValidation(t *testing.T) {
	backend := &fakeBackend{}
	c := New(backend)

	p := params()
	p.Amount = 0.5
	if _, _, err := c.Create(p); !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("expected ErrInvalidAmount, got %v", err)
	}

	p = params()
	p.Description = "   "
	if _, _, err := c.Create(p); !errors.Is(err, ErrEmptyDescription) {
		t.Errorf("expected ErrEmptyDescription, got %v", err)
	}

	if got := backend.creates.Load(); got != 0 {
		t.Errorf("validation failures reached the network: %d calls", got)
	}
}

func TestInFlightGuard(t *testing.T) {
	backend := &fakeBackend{started: make(chan struct{}), block: make(chan struct{})}
	c := New(backend)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		c.Create(params())
	}()

	// Wait for the first create to be in flight, then double-click.
	<-backend.started
	if _, _, err := c.Create(params()); !errors.Is(err, ErrRequestInFlight) {
		t.Errorf("expected ErrRequestInFlight, got %v", err)
	}

	close(backend.block)
	wg.Wait()

	if got := backend.creates.Load(); got != 1 {
		t.Errorf("expected exactly 1 create, got %d", got)
	}

	// The guard clears once the request completes.
	if _, _, err := c.Create(params()); err != nil {
		t.Errorf("create after completion failed: %v", err)
	}
}

func TestApproveBlockedOnEmptyWallet(t *testing.T) {
	backend := &fakeBackend{}
	c := New(backend)

	if err := c.Approve("pr1", "u1", 0); !errors.Is(err, ErrInsufficientBalance) {
		t.Errorf("expected ErrInsufficientBalance, got %v", err)
	}
	if got := backend.updates.Load(); got != 0 {
		t.Errorf("approval REST call was issued despite empty wallet: %d", got)
	}
}

func TestApproveAndReject(t *testing.T) {
	backend := &fakeBackend{}
	c := New(backend)

	if err := c.Approve("pr1", "u1", 250); err != nil {
		t.Fatal(err)
	}
	if backend.lastStatus != models.PaymentStatusApproved {
		t.Errorf("status = %q", backend.lastStatus)
	}

	if err := c.Reject("pr1", "u1"); err != nil {
		t.Fatal(err)
	}
	if backend.lastStatus != models.PaymentStatusRejected {
		t.Errorf("status = %q", backend.lastStatus)
	}
}
