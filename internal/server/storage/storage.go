package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/cloudzz-dev/gigmsg/internal/server/models"
)

var (
	ErrNotFound            = errors.New("not found")
	ErrNotPending          = errors.New("payment request is not pending")
	ErrNotParticipant      = errors.New("user is not a participant")
	ErrInsufficientBalance = errors.New("insufficient balance")
)

type Store struct {
	db *sql.DB
}

func New(connStr string) *Store {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	if err = db.Ping(); err != nil {
		log.Fatal("Failed to ping database:", err)
	}

	log.Println("Connected to database")
	return &Store{db: db}
}

func (s *Store) Close() {
	s.db.Close()
}

// User Methods

func (s *Store) CreateUser(email, name, role, passwordHash string) (*models.User, error) {
	u := models.User{
		ID:    uuid.NewString(),
		Email: email,
		Name:  name,
		Role:  role,
	}
	err := s.db.QueryRow(
		"INSERT INTO users (id, email, name, role, password_hash) VALUES ($1, $2, $3, $4, $5) RETURNING created_at",
		u.ID, email, name, role, passwordHash,
	).Scan(&u.CreatedAt)
	if err != nil {
		return nil, err
	}

	// Every user gets a wallet row up front.
	if _, err := s.db.Exec(
		"INSERT INTO wallets (user_id, balance) VALUES ($1, 0) ON CONFLICT DO NOTHING", u.ID,
	); err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Store) GetUserByEmail(email string) (*models.User, error) {
	var u models.User
	err := s.db.QueryRow(
		"SELECT id, email, name, role, password_hash, created_at FROM users WHERE email = $1",
		email,
	).Scan(&u.ID, &u.Email, &u.Name, &u.Role, &u.PasswordHash, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Store) GetUserByID(id string) (*models.User, error) {
	var u models.User
	err := s.db.QueryRow(
		"SELECT id, email, name, role, created_at FROM users WHERE id = $1",
		id,
	).Scan(&u.ID, &u.Email, &u.Name, &u.Role, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Conversation Methods

// AcceptedConversations lists the conversations a user participates in,
// most recently active first, with last-message previews and unread counts.
func (s *Store) AcceptedConversations(userID string) ([]models.Conversation, error) {
	rows, err := s.db.Query(`
		SELECT
			c.id,
			cu.id, cu.name,
			fu.id, fu.name,
			COALESCE(c.project_title, ''),
			COALESCE(lm.content, ''),
			COALESCE(lm.created_at, c.created_at),
			(SELECT COUNT(*) FROM messages m
			 WHERE m.conversation_id = c.id
			 AND m.sender_id != $1
			 AND NOT ($1 = ANY(m.read_by))) as unread_count,
			c.created_at
		FROM conversations c
		JOIN users cu ON c.client_id = cu.id
		JOIN users fu ON c.freelancer_id = fu.id
		LEFT JOIN LATERAL (
			SELECT content, created_at FROM messages m
			WHERE m.conversation_id = c.id
			ORDER BY m.created_at DESC LIMIT 1
		) lm ON true
		WHERE c.client_id = $1 OR c.freelancer_id = $1
		ORDER BY COALESCE(lm.created_at, c.created_at) DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var convs []models.Conversation
	for rows.Next() {
		var c models.Conversation
		if err := rows.Scan(
			&c.ID,
			&c.Client.ID, &c.Client.Name,
			&c.Freelancer.ID, &c.Freelancer.Name,
			&c.ProjectTitle,
			&c.LastMessage, &c.LastMessageAt,
			&c.UnreadCount,
			&c.CreatedAt,
		); err != nil {
			log.Printf("Error scanning conversation: %v", err)
			continue
		}
		c.Client.Role = models.RoleClient
		c.Freelancer.Role = models.RoleFreelancer
		convs = append(convs, c)
	}
	return convs, rows.Err()
}

func (s *Store) GetConversation(id string) (*models.Conversation, error) {
	var c models.Conversation
	err := s.db.QueryRow(`
		SELECT c.id, cu.id, cu.name, fu.id, fu.name, COALESCE(c.project_title, ''), c.created_at
		FROM conversations c
		JOIN users cu ON c.client_id = cu.id
		JOIN users fu ON c.freelancer_id = fu.id
		WHERE c.id = $1
	`, id).Scan(&c.ID, &c.Client.ID, &c.Client.Name, &c.Freelancer.ID, &c.Freelancer.Name, &c.ProjectTitle, &c.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	c.Client.Role = models.RoleClient
	c.Freelancer.Role = models.RoleFreelancer
	return &c, nil
}

func (s *Store) IsParticipant(convID, userID string) (bool, error) {
	var n int
	err := s.db.QueryRow(
		"SELECT COUNT(*) FROM conversations WHERE id = $1 AND (client_id = $2 OR freelancer_id = $2)",
		convID, userID,
	).Scan(&n)
	return n > 0, err
}

// Message Methods

// ConversationMessages returns the full history oldest first and marks
// everything as read by the requesting user.
func (s *Store) ConversationMessages(convID, userID string, limit int) ([]models.Message, error) {
	if _, err := s.db.Exec(`
		UPDATE messages SET read_by = array_append(read_by, $2)
		WHERE conversation_id = $1 AND NOT ($2 = ANY(read_by))
	`, convID, userID); err != nil {
		return nil, err
	}

	rows, err := s.db.Query(`
		SELECT m.id, m.conversation_id, m.sender_id, u.name, m.content, m.message_type,
		       COALESCE(m.currency, ''), COALESCE(m.amount, 0),
		       COALESCE(m.payment_request_id, ''), COALESCE(m.payment_status, ''),
		       m.read_by, m.created_at
		FROM messages m
		LEFT JOIN users u ON m.sender_id = u.id
		WHERE m.conversation_id = $1
		ORDER BY m.created_at DESC
		LIMIT $2
	`, convID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var msgs []models.Message
	for rows.Next() {
		var m models.Message
		var senderName sql.NullString
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.SenderID, &senderName,
			&m.Content, &m.Type, &m.Currency, &m.Amount,
			&m.PaymentRequestID, &m.PaymentStatus,
			pq.Array(&m.ReadBy), &m.CreatedAt); err != nil {
			continue
		}
		if senderName.Valid {
			m.SenderName = senderName.String
		}
		msgs = append(msgs, m)
	}

	// Reverse to get oldest first
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

func (s *Store) SaveMessage(convID, senderID, content, messageType string) (*models.Message, error) {
	if messageType == "" {
		messageType = models.MessageTypeText
	}
	msg := models.Message{
		ID:             uuid.NewString(),
		ConversationID: convID,
		SenderID:       senderID,
		Content:        content,
		Type:           messageType,
		ReadBy:         []string{senderID},
	}
	err := s.db.QueryRow(`
		INSERT INTO messages (id, conversation_id, sender_id, content, message_type, read_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`, msg.ID, convID, senderID, content, messageType, pq.Array(msg.ReadBy)).Scan(&msg.CreatedAt)
	if err != nil {
		return nil, err
	}

	if user, err := s.GetUserByID(senderID); err == nil {
		msg.SenderName = user.Name
	}
	return &msg, nil
}

// Payment Request Methods

type CreatePaymentRequestParams struct {
	ConversationID string
	FreelancerID   string
	ClientID       string
	Amount         float64
	Currency       string
	Description    string
}

// CreatePaymentRequest inserts the request and its carrier message in one
// transaction; either both exist afterwards or neither does.
func (s *Store) CreatePaymentRequest(p CreatePaymentRequestParams) (*models.PaymentRequest, *models.Message, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, nil, err
	}
	defer tx.Rollback()

	pr := models.PaymentRequest{
		ID:             uuid.NewString(),
		ConversationID: p.ConversationID,
		FreelancerID:   p.FreelancerID,
		ClientID:       p.ClientID,
		Amount:         p.Amount,
		Currency:       p.Currency,
		Description:    p.Description,
		Status:         models.PaymentStatusPending,
	}
	msg := models.Message{
		ID:               uuid.NewString(),
		ConversationID:   p.ConversationID,
		SenderID:         p.FreelancerID,
		Content:          p.Description,
		Type:             models.MessageTypePaymentRequest,
		Currency:         p.Currency,
		Amount:           p.Amount,
		PaymentRequestID: pr.ID,
		PaymentStatus:    models.PaymentStatusPending,
		ReadBy:           []string{p.FreelancerID},
	}
	pr.MessageID = msg.ID

	err = tx.QueryRow(`
		INSERT INTO payment_requests (id, conversation_id, freelancer_id, client_id, amount, currency, description, status, message_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at
	`, pr.ID, pr.ConversationID, pr.FreelancerID, pr.ClientID, pr.Amount, pr.Currency, pr.Description, pr.Status, pr.MessageID).Scan(&pr.CreatedAt)
	if err != nil {
		return nil, nil, err
	}

	err = tx.QueryRow(`
		INSERT INTO messages (id, conversation_id, sender_id, content, message_type, currency, amount, payment_request_id, payment_status, read_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at
	`, msg.ID, msg.ConversationID, msg.SenderID, msg.Content, msg.Type, msg.Currency, msg.Amount, msg.PaymentRequestID, msg.PaymentStatus, pq.Array(msg.ReadBy)).Scan(&msg.CreatedAt)
	if err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, err
	}

	if user, err := s.GetUserByID(p.FreelancerID); err == nil {
		msg.SenderName = user.Name
	}
	return &pr, &msg, nil
}

func (s *Store) GetPaymentRequest(id string) (*models.PaymentRequest, error) {
	var pr models.PaymentRequest
	err := s.db.QueryRow(`
		SELECT id, conversation_id, freelancer_id, client_id, amount, currency, description, status, COALESCE(message_id, ''), created_at
		FROM payment_requests WHERE id = $1
	`, id).Scan(&pr.ID, &pr.ConversationID, &pr.FreelancerID, &pr.ClientID, &pr.Amount, &pr.Currency, &pr.Description, &pr.Status, &pr.MessageID, &pr.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &pr, nil
}

// RejectPaymentRequest declines a pending request on behalf of the client.
func (s *Store) RejectPaymentRequest(id, clientID string) (*models.PaymentRequest, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	pr, err := lockPaymentRequest(tx, id, clientID)
	if err != nil {
		return nil, err
	}

	pr.Status = models.PaymentStatusRejected
	if _, err := tx.Exec("UPDATE payment_requests SET status = $1 WHERE id = $2", pr.Status, id); err != nil {
		return nil, err
	}
	if _, err := tx.Exec("UPDATE messages SET payment_status = $1 WHERE id = $2", pr.Status, pr.MessageID); err != nil {
		return nil, err
	}

	return pr, tx.Commit()
}

// ApprovePaymentRequest settles a pending request: the client's wallet is
// re-validated and debited and the freelancer's credited inside one
// transaction, so a concurrent spend cannot push the balance negative. The
// request ends in the completed state and a PAYMENT_COMPLETED message is
// recorded.
func (s *Store) ApprovePaymentRequest(id, clientID string, amountINR float64) (*models.PaymentRequest, *models.Message, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, nil, err
	}
	defer tx.Rollback()

	pr, err := lockPaymentRequest(tx, id, clientID)
	if err != nil {
		return nil, nil, err
	}

	var balance float64
	err = tx.QueryRow("SELECT balance FROM wallets WHERE user_id = $1 FOR UPDATE", clientID).Scan(&balance)
	if err == sql.ErrNoRows {
		return nil, nil, ErrInsufficientBalance
	}
	if err != nil {
		return nil, nil, err
	}
	if balance < amountINR {
		return nil, nil, ErrInsufficientBalance
	}

	if _, err := tx.Exec("UPDATE wallets SET balance = balance - $1 WHERE user_id = $2", amountINR, clientID); err != nil {
		return nil, nil, err
	}
	if _, err := tx.Exec(`
		INSERT INTO wallets (user_id, balance) VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE SET balance = wallets.balance + $2
	`, pr.FreelancerID, amountINR); err != nil {
		return nil, nil, err
	}

	desc := fmt.Sprintf("Payment for %q", pr.Description)
	if err := insertWalletTx(tx, clientID, "debit", amountINR, desc); err != nil {
		return nil, nil, err
	}
	if err := insertWalletTx(tx, pr.FreelancerID, "credit", amountINR, desc); err != nil {
		return nil, nil, err
	}

	pr.Status = models.PaymentStatusCompleted
	if _, err := tx.Exec("UPDATE payment_requests SET status = $1 WHERE id = $2", pr.Status, id); err != nil {
		return nil, nil, err
	}
	if _, err := tx.Exec("UPDATE messages SET payment_status = $1 WHERE id = $2", pr.Status, pr.MessageID); err != nil {
		return nil, nil, err
	}

	done := models.Message{
		ID:               uuid.NewString(),
		ConversationID:   pr.ConversationID,
		SenderID:         clientID,
		Content:          fmt.Sprintf("Payment completed for %q", pr.Description),
		Type:             models.MessageTypePaymentCompleted,
		Currency:         pr.Currency,
		Amount:           pr.Amount,
		PaymentRequestID: pr.ID,
		PaymentStatus:    pr.Status,
		ReadBy:           []string{clientID},
	}
	err = tx.QueryRow(`
		INSERT INTO messages (id, conversation_id, sender_id, content, message_type, currency, amount, payment_request_id, payment_status, read_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at
	`, done.ID, done.ConversationID, done.SenderID, done.Content, done.Type, done.Currency, done.Amount, done.PaymentRequestID, done.PaymentStatus, pq.Array(done.ReadBy)).Scan(&done.CreatedAt)
	if err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, err
	}
	return pr, &done, nil
}

func lockPaymentRequest(tx *sql.Tx, id, clientID string) (*models.PaymentRequest, error) {
	var pr models.PaymentRequest
	err := tx.QueryRow(`
		SELECT id, conversation_id, freelancer_id, client_id, amount, currency, description, status, COALESCE(message_id, ''), created_at
		FROM payment_requests WHERE id = $1 FOR UPDATE
	`, id).Scan(&pr.ID, &pr.ConversationID, &pr.FreelancerID, &pr.ClientID, &pr.Amount, &pr.Currency, &pr.Description, &pr.Status, &pr.MessageID, &pr.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if pr.ClientID != clientID {
		return nil, ErrNotParticipant
	}
	if pr.Status != models.PaymentStatusPending {
		return nil, ErrNotPending
	}
	return &pr, nil
}

func insertWalletTx(tx *sql.Tx, userID, txType string, amount float64, description string) error {
	_, err := tx.Exec(`
		INSERT INTO wallet_transactions (id, user_id, type, amount, description)
		VALUES ($1, $2, $3, $4, $5)
	`, uuid.NewString(), userID, txType, amount, description)
	return err
}

// Wallet Methods

func (s *Store) Wallet(userID string) (*models.Wallet, error) {
	w := models.Wallet{UserID: userID}
	err := s.db.QueryRow("SELECT balance FROM wallets WHERE user_id = $1", userID).Scan(&w.Balance)
	if err == sql.ErrNoRows {
		// No wallet row yet; report an empty one.
		return &w, nil
	}
	if err != nil {
		return nil, err
	}

	rows, err := s.db.Query(`
		SELECT id, type, amount, COALESCE(description, ''), created_at
		FROM wallet_transactions
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT 20
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var t models.WalletTransaction
		if err := rows.Scan(&t.ID, &t.Type, &t.Amount, &t.Description, &t.CreatedAt); err != nil {
			continue
		}
		w.Transactions = append(w.Transactions, t)
	}
	return &w, rows.Err()
}

// TopUpWallet credits the wallet directly (the real gateway is out of scope)
// and returns the updated wallet.
func (s *Store) TopUpWallet(userID string, amountINR float64) (*models.Wallet, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`
		INSERT INTO wallets (user_id, balance) VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE SET balance = wallets.balance + $2
	`, userID, amountINR); err != nil {
		return nil, err
	}
	if err := insertWalletTx(tx, userID, "credit", amountINR, "Wallet top-up"); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return s.Wallet(userID)
}
