package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"golang.org/x/crypto/bcrypt"

	"github.com/cloudzz-dev/gigmsg/internal/money"
	"github.com/cloudzz-dev/gigmsg/internal/server/models"
	"github.com/cloudzz-dev/gigmsg/internal/server/ratelimit"
	"github.com/cloudzz-dev/gigmsg/internal/server/storage"
	"github.com/cloudzz-dev/gigmsg/internal/server/ws"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type Handler struct {
	Store     *storage.Store
	Hub       *ws.Hub
	Converter *money.Converter
	Limiter   *ratelimit.RateLimiter
}

func New(store *storage.Store, hub *ws.Hub, converter *money.Converter, limiter *ratelimit.RateLimiter) *Handler {
	return &Handler{Store: store, Hub: hub, Converter: converter, Limiter: limiter}
}

func (h *Handler) Router() *mux.Router {
	r := mux.NewRouter()
	api := r.PathPrefix("/api").Subrouter()

	api.HandleFunc("/auth/login", h.Login).Methods(http.MethodPost)
	api.HandleFunc("/messages/accepted-conversations", h.AcceptedConversations).Methods(http.MethodGet)
	api.HandleFunc("/messages/{conversationId}", h.ConversationMessages).Methods(http.MethodGet)
	api.HandleFunc("/payment-requests", h.CreatePaymentRequest).Methods(http.MethodPost)
	api.HandleFunc("/payment-requests/{id}", h.UpdatePaymentRequest).Methods(http.MethodPut)
	api.HandleFunc("/wallet", h.Wallet).Methods(http.MethodGet)
	api.HandleFunc("/wallet/topup", h.TopUp).Methods(http.MethodPost)

	r.HandleFunc("/ws", h.WebSocket)
	r.HandleFunc("/health", h.HealthCheck)
	return r
}

// JSON helpers

func respond(w http.ResponseWriter, status int, body map[string]any) {
	body["success"] = true
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func fail(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{"success": false, "error": msg})
}

func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// Auth

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		fail(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.Store.GetUserByEmail(strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		fail(w, http.StatusUnauthorized, "invalid email or password")
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		fail(w, http.StatusUnauthorized, "invalid email or password")
		return
	}

	respond(w, http.StatusOK, map[string]any{"user": user})
}

// Conversations & messages

func (h *Handler) AcceptedConversations(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		fail(w, http.StatusBadRequest, "userId is required")
		return
	}

	convs, err := h.Store.AcceptedConversations(userID)
	if err != nil {
		log.Printf("list conversations: %v", err)
		fail(w, http.StatusInternalServerError, "could not load conversations")
		return
	}
	if convs == nil {
		convs = []models.Conversation{}
	}
	respond(w, http.StatusOK, map[string]any{"conversations": convs})
}

func (h *Handler) ConversationMessages(w http.ResponseWriter, r *http.Request) {
	convID := mux.Vars(r)["conversationId"]
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		fail(w, http.StatusBadRequest, "userId is required")
		return
	}

	ok, err := h.Store.IsParticipant(convID, userID)
	if err != nil {
		fail(w, http.StatusInternalServerError, "could not load messages")
		return
	}
	if !ok {
		fail(w, http.StatusForbidden, "not a participant of this conversation")
		return
	}

	msgs, err := h.Store.ConversationMessages(convID, userID, 500)
	if err != nil {
		log.Printf("load messages: %v", err)
		fail(w, http.StatusInternalServerError, "could not load messages")
		return
	}
	if msgs == nil {
		msgs = []models.Message{}
	}
	respond(w, http.StatusOK, map[string]any{"messages": msgs})
}

// Payment requests

func (h *Handler) CreatePaymentRequest(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ConversationID string  `json:"conversationId"`
		FreelancerID   string  `json:"freelancerId"`
		ClientID       string  `json:"clientId"`
		Amount         float64 `json:"amount"`
		Currency       string  `json:"currency"`
		Description    string  `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		fail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Amount < 1 {
		fail(w, http.StatusBadRequest, "amount is below the minimum")
		return
	}
	if req.Currency != "INR" && req.Currency != "USD" {
		fail(w, http.StatusBadRequest, "currency must be INR or USD")
		return
	}
	if strings.TrimSpace(req.Description) == "" {
		fail(w, http.StatusBadRequest, "description is required")
		return
	}

	conv, err := h.Store.GetConversation(req.ConversationID)
	if err != nil {
		fail(w, http.StatusNotFound, "conversation not found")
		return
	}
	if conv.Freelancer.ID != req.FreelancerID || conv.Client.ID != req.ClientID {
		fail(w, http.StatusForbidden, "not a participant of this conversation")
		return
	}

	pr, carrier, err := h.Store.CreatePaymentRequest(storage.CreatePaymentRequestParams{
		ConversationID: req.ConversationID,
		FreelancerID:   req.FreelancerID,
		ClientID:       req.ClientID,
		Amount:         req.Amount,
		Currency:       req.Currency,
		Description:    strings.TrimSpace(req.Description),
	})
	if err != nil {
		log.Printf("create payment request: %v", err)
		fail(w, http.StatusInternalServerError, "could not create payment request")
		return
	}

	// The creator suppresses this echo by the carrier id it got in the
	// response body.
	h.Hub.NotifyMessage(*carrier)

	respond(w, http.StatusOK, map[string]any{
		"paymentRequest": pr,
		"paymentMessage": carrier,
	})
}

func (h *Handler) UpdatePaymentRequest(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req struct {
		Status   string `json:"status"`
		ClientID string `json:"clientId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		fail(w, http.StatusBadRequest, "invalid request body")
		return
	}

	switch req.Status {
	case models.PaymentStatusApproved:
		h.approvePaymentRequest(w, id, req.ClientID)
	case models.PaymentStatusRejected:
		h.rejectPaymentRequest(w, id, req.ClientID)
	default:
		fail(w, http.StatusBadRequest, "status must be approved or rejected")
	}
}

func (h *Handler) approvePaymentRequest(w http.ResponseWriter, id, clientID string) {
	pr, err := h.Store.GetPaymentRequest(id)
	if err != nil {
		fail(w, http.StatusNotFound, "payment request not found")
		return
	}

	// Wallets hold INR; a USD-denominated request settles at today's rate.
	amountINR, err := h.Converter.ToBaseline(pr.Amount, pr.Currency)
	if err != nil {
		fail(w, http.StatusBadRequest, "unsupported currency")
		return
	}

	pr, done, err := h.Store.ApprovePaymentRequest(id, clientID, amountINR)
	switch {
	case errors.Is(err, storage.ErrInsufficientBalance):
		fail(w, http.StatusBadRequest, "insufficient balance")
		return
	case errors.Is(err, storage.ErrNotPending):
		fail(w, http.StatusConflict, "payment request is not pending")
		return
	case errors.Is(err, storage.ErrNotFound), errors.Is(err, storage.ErrNotParticipant):
		fail(w, http.StatusNotFound, "payment request not found")
		return
	case err != nil:
		log.Printf("approve payment request: %v", err)
		fail(w, http.StatusInternalServerError, "could not approve payment request")
		return
	}

	h.Hub.NotifyMessage(*done)
	h.Hub.NotifyPaymentUpdated(pr.ConversationID, pr.ID, pr.Status)
	respond(w, http.StatusOK, map[string]any{})
}

func (h *Handler) rejectPaymentRequest(w http.ResponseWriter, id, clientID string) {
	pr, err := h.Store.RejectPaymentRequest(id, clientID)
	switch {
	case errors.Is(err, storage.ErrNotPending):
		fail(w, http.StatusConflict, "payment request is not pending")
		return
	case errors.Is(err, storage.ErrNotFound), errors.Is(err, storage.ErrNotParticipant):
		fail(w, http.StatusNotFound, "payment request not found")
		return
	case err != nil:
		log.Printf("reject payment request: %v", err)
		fail(w, http.StatusInternalServerError, "could not reject payment request")
		return
	}

	h.Hub.NotifyPaymentUpdated(pr.ConversationID, pr.ID, pr.Status)
	respond(w, http.StatusOK, map[string]any{})
}

// Wallet

func (h *Handler) Wallet(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		fail(w, http.StatusBadRequest, "userId is required")
		return
	}

	wallet, err := h.Store.Wallet(userID)
	if err != nil {
		log.Printf("load wallet: %v", err)
		fail(w, http.StatusInternalServerError, "could not load wallet")
		return
	}
	respond(w, http.StatusOK, map[string]any{"wallet": wallet})
}

func (h *Handler) TopUp(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID string  `json:"userId"`
		Amount float64 `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		fail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.UserID == "" {
		fail(w, http.StatusBadRequest, "userId is required")
		return
	}
	if req.Amount < 1 {
		fail(w, http.StatusBadRequest, "amount is below the minimum")
		return
	}

	wallet, err := h.Store.TopUpWallet(req.UserID, req.Amount)
	if err != nil {
		log.Printf("top up wallet: %v", err)
		fail(w, http.StatusInternalServerError, "could not top up wallet")
		return
	}
	respond(w, http.StatusOK, map[string]any{"wallet": wallet})
}

// WebSocket upgrade

func (h *Handler) WebSocket(w http.ResponseWriter, r *http.Request) {
	clientIP := ratelimit.GetClientIP(r)

	if !h.Limiter.CanConnect(clientIP) {
		http.Error(w, "Too many connections from your IP", http.StatusTooManyRequests)
		log.Printf("Rate limited connection from %s", clientIP)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println("Upgrade error:", err)
		return
	}

	h.Limiter.AddConnection(clientIP)

	client := &ws.Client{
		Hub:     h.Hub,
		Conn:    conn,
		Send:    make(chan []byte, 256),
		Limiter: h.Limiter,
		IP:      clientIP,
	}
	h.Hub.Register <- client

	go func() {
		defer h.Limiter.RemoveConnection(clientIP)
		client.WritePump()
	}()
	go client.ReadPump()
}
