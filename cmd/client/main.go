package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"github.com/cloudzz-dev/gigmsg/internal/client/api"
	"github.com/cloudzz-dev/gigmsg/internal/client/debug"
	"github.com/cloudzz-dev/gigmsg/internal/client/feed"
	"github.com/cloudzz-dev/gigmsg/internal/client/models"
	"github.com/cloudzz-dev/gigmsg/internal/client/payments"
	"github.com/cloudzz-dev/gigmsg/internal/client/roster"
	"github.com/cloudzz-dev/gigmsg/internal/client/session"
	"github.com/cloudzz-dev/gigmsg/internal/client/socket"
	"github.com/cloudzz-dev/gigmsg/internal/client/typing"
	"github.com/cloudzz-dev/gigmsg/internal/money"
)

// --- Styles ---

var (
	primaryColor   = lipgloss.Color("#7C3AED")
	secondaryColor = lipgloss.Color("#10B981")
	accentColor    = lipgloss.Color("#F59E0B")
	mutedColor     = lipgloss.Color("#9CA3AF")
	errorColor     = lipgloss.Color("#EF4444")

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor).
			Padding(0, 1)

	selectedStyle = lipgloss.NewStyle().
			Foreground(secondaryColor).
			Bold(true)

	mutedStyle = lipgloss.NewStyle().
			Foreground(mutedColor)

	errorStyle = lipgloss.NewStyle().
			Foreground(errorColor).
			Bold(true)

	ownMessageStyle = lipgloss.NewStyle().
			Foreground(secondaryColor)

	otherMessageStyle = lipgloss.NewStyle().
				Foreground(primaryColor)

	paymentCardStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(accentColor).
				Padding(0, 1)

	systemStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			Italic(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			Italic(true)

	unreadStyle = lipgloss.NewStyle().
			Foreground(accentColor).
			Bold(true)
)

var displayCurrencies = []string{"INR", "USD", "EUR", "GBP"}

// --- View State ---

type viewState int

const (
	viewLogin viewState = iota
	viewConversations
	viewChat
	viewPaymentForm
	viewTopUp
)

// --- Messages ---

type socketConnectedMsg struct {
	conn *socket.Conn
}

type socketEventMsg struct {
	ev socket.Event
}

type socketErrMsg struct {
	err error
}

type loginMsg struct {
	user *models.User
}

type conversationsMsg struct {
	convs []models.Conversation
}

type historyMsg struct {
	gen  int
	msgs []models.Message
}

type walletMsg struct {
	wallet *models.Wallet
}

type ratesMsg struct{}

type paymentCreatedMsg struct {
	request *models.PaymentRequest
	carrier *models.Message
}

type paymentDecidedMsg struct {
	status string
}

type errMsg struct {
	err error
}

// --- Main Model ---

type model struct {
	profile  string
	sess     session.Session
	ratesURL string

	rest      *api.Client
	conn      *socket.Conn
	connected bool

	feed      *feed.Feed
	roster    *roster.Roster
	typing    *typing.Tracker
	payments  *payments.Controller
	converter *money.Converter
	wallet    *models.Wallet

	// Login form
	emailInput    textinput.Model
	passwordInput textinput.Model
	loginFocused  int

	// Conversations
	selectedConv int

	// Chat
	messageInput textinput.Model
	chatViewport viewport.Model
	typingUser   string

	// Payment request form
	amountInput     textinput.Model
	descInput       textinput.Model
	paymentCurrency string
	paymentFocused  int

	// Top-up
	topupInput textinput.Model

	view   viewState
	banner string
	width  int
	height int
}

func initialModel(profile string) model {
	emailInput := textinput.New()
	emailInput.Placeholder = "Email"
	emailInput.Focus()
	emailInput.CharLimit = 128
	emailInput.Width = 36

	passwordInput := textinput.New()
	passwordInput.Placeholder = "Password"
	passwordInput.EchoMode = textinput.EchoPassword
	passwordInput.CharLimit = 64
	passwordInput.Width = 36

	messageInput := textinput.New()
	messageInput.Placeholder = "Type a message..."
	messageInput.CharLimit = 2000
	messageInput.Width = 60

	amountInput := textinput.New()
	amountInput.Placeholder = "Amount"
	amountInput.CharLimit = 12
	amountInput.Width = 16

	descInput := textinput.New()
	descInput.Placeholder = "What is this payment for?"
	descInput.CharLimit = 200
	descInput.Width = 48

	topupInput := textinput.New()
	topupInput.Placeholder = "Amount (INR)"
	topupInput.CharLimit = 12
	topupInput.Width = 16

	m := model{
		profile:         profile,
		ratesURL:        os.Getenv("GIGMSG_RATES_URL"),
		feed:            feed.New(),
		roster:          roster.New(),
		converter:       money.NewConverter(),
		emailInput:      emailInput,
		passwordInput:   passwordInput,
		messageInput:    messageInput,
		amountInput:     amountInput,
		descInput:       descInput,
		topupInput:      topupInput,
		paymentCurrency: "INR",
		chatViewport:    viewport.New(80, 20),
		view:            viewLogin,
	}

	if s := session.Load(profile); s != nil {
		m.sess = *s
		m.view = viewConversations
	} else {
		m.sess.ServerURL = os.Getenv("GIGMSG_SERVER")
		if m.sess.ServerURL == "" {
			m.sess.ServerURL = "http://localhost:3567"
		}
		m.sess.DisplayCurrency = "INR"
	}
	m.rest = api.New(m.sess.ServerURL)
	m.payments = payments.New(m.rest)
	return m
}

func wsURL(base string) string {
	u := strings.Replace(base, "https://", "wss://", 1)
	u = strings.Replace(u, "http://", "ws://", 1)
	return strings.TrimRight(u, "/") + "/ws"
}

// --- Commands ---

func connectSocket(url string) tea.Cmd {
	return func() tea.Msg {
		conn, err := socket.Dial(url)
		if err != nil {
			return socketErrMsg{err: err}
		}
		return socketConnectedMsg{conn: conn}
	}
}

func listenSocket(conn *socket.Conn) tea.Cmd {
	return func() tea.Msg {
		ev, err := conn.ReadEvent()
		if err != nil {
			return socketErrMsg{err: err}
		}
		return socketEventMsg{ev: ev}
	}
}

func login(rest *api.Client, email, password string) tea.Cmd {
	return func() tea.Msg {
		user, err := rest.Login(email, password)
		if err != nil {
			return errMsg{err: err}
		}
		return loginMsg{user: user}
	}
}

func loadConversations(rest *api.Client, userID, role string) tea.Cmd {
	return func() tea.Msg {
		convs, err := rest.AcceptedConversations(userID, role)
		if err != nil {
			return errMsg{err: err}
		}
		return conversationsMsg{convs: convs}
	}
}

func loadHistory(rest *api.Client, convID, userID string, gen int) tea.Cmd {
	return func() tea.Msg {
		msgs, err := rest.Messages(convID, userID)
		if err != nil {
			return errMsg{err: err}
		}
		return historyMsg{gen: gen, msgs: msgs}
	}
}

func loadWallet(rest *api.Client, userID string) tea.Cmd {
	return func() tea.Msg {
		w, err := rest.Wallet(userID)
		if err != nil {
			return errMsg{err: err}
		}
		return walletMsg{wallet: w}
	}
}

func createPayment(ctl *payments.Controller, p api.CreatePaymentRequestParams) tea.Cmd {
	return func() tea.Msg {
		pr, carrier, err := ctl.Create(p)
		if err != nil {
			return errMsg{err: err}
		}
		return paymentCreatedMsg{request: pr, carrier: carrier}
	}
}

func decidePayment(ctl *payments.Controller, requestID, clientID, status string, balance float64) tea.Cmd {
	return func() tea.Msg {
		var err error
		if status == models.PaymentStatusApproved {
			err = ctl.Approve(requestID, clientID, balance)
		} else {
			err = ctl.Reject(requestID, clientID)
		}
		if err != nil {
			return errMsg{err: err}
		}
		return paymentDecidedMsg{status: status}
	}
}

// refreshRates swaps the compiled-in fallback table for live rates so the
// display-currency toggle converts with current values. Failure keeps the
// fallback table.
func refreshRates(conv *money.Converter, url string) tea.Cmd {
	if url == "" {
		return nil
	}
	return func() tea.Msg {
		if err := conv.Refresh(url); err != nil {
			debug.Log("rates refresh: %v", err)
			return nil
		}
		return ratesMsg{}
	}
}

func topUp(rest *api.Client, userID string, amount float64) tea.Cmd {
	return func() tea.Msg {
		w, err := rest.TopUp(userID, amount)
		if err != nil {
			return errMsg{err: err}
		}
		return walletMsg{wallet: w}
	}
}

// --- Init ---

func (m model) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink, refreshRates(m.converter, m.ratesURL)}
	if m.view == viewConversations {
		cmds = append(cmds,
			connectSocket(wsURL(m.sess.ServerURL)),
			loadConversations(m.rest, m.sess.UserID, m.sess.Role),
			loadWallet(m.rest, m.sess.UserID),
		)
	}
	return tea.Batch(cmds...)
}

// --- Update ---

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		next, cmd, handled := m.handleKey(msg)
		if handled {
			return next, cmd
		}
		m = next

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.chatViewport.Width = msg.Width - 4
		m.chatViewport.Height = msg.Height - 9

	case socketConnectedMsg:
		m.conn = msg.conn
		m.connected = true
		m.typing = typing.New(typing.DefaultTimeout, m.typingStart(msg.conn), m.typingStop(msg.conn))
		if active := m.roster.Active(); active != "" {
			msg.conn.JoinConversation(active, m.sess.UserID)
		}
		return m, listenSocket(msg.conn)

	case socketErrMsg:
		debug.Log("socket error: %v", msg.err)
		m.connected = false
		return m, nil

	case socketEventMsg:
		m = m.handleEvent(msg.ev)
		if m.conn != nil {
			cmds = append(cmds, listenSocket(m.conn))
			if msg.ev.Type == socket.EventPaymentRequestUpdated {
				if msg.ev.ConversationID == m.roster.Active() {
					gen := m.feed.BeginLoad()
					cmds = append(cmds, loadHistory(m.rest, msg.ev.ConversationID, m.sess.UserID, gen))
				}
				cmds = append(cmds, loadWallet(m.rest, m.sess.UserID))
			}
		}
		return m, tea.Batch(cmds...)

	case loginMsg:
		m.sess.UserID = msg.user.ID
		m.sess.Name = msg.user.Name
		m.sess.Email = msg.user.Email
		m.sess.Role = msg.user.Role
		if err := session.Save(m.profile, m.sess); err != nil {
			debug.Log("session save: %v", err)
		}
		m.view = viewConversations
		m.banner = ""
		return m, tea.Batch(
			connectSocket(wsURL(m.sess.ServerURL)),
			loadConversations(m.rest, m.sess.UserID, m.sess.Role),
			loadWallet(m.rest, m.sess.UserID),
		)

	case conversationsMsg:
		m.roster.Set(msg.convs)
		if m.selectedConv >= m.roster.Len() {
			m.selectedConv = 0
		}

	case historyMsg:
		if m.feed.ApplyHistory(msg.gen, msg.msgs) {
			m.updateChatViewport()
		}

	case ratesMsg:
		// Nothing to mutate; the wallet line re-renders from the converter.

	case walletMsg:
		m.wallet = msg.wallet
		if m.view == viewTopUp {
			m.view = viewChat
			m.topupInput.SetValue("")
			m.topupInput.Blur()
			m.messageInput.Focus()
			m.banner = ""
		}

	case paymentCreatedMsg:
		m.feed.MarkOwn(msg.carrier.ID)
		if m.feed.Upsert(*msg.carrier) {
			m.updateChatViewport()
		}
		m.roster.Touch(msg.carrier.ConversationID, previewFor(*msg.carrier), msg.carrier.CreatedAt)
		m.view = viewChat
		m.amountInput.SetValue("")
		m.descInput.SetValue("")
		m.amountInput.Blur()
		m.descInput.Blur()
		m.messageInput.Focus()
		m.banner = ""

	case paymentDecidedMsg:
		// The room broadcast also triggers a refresh; this covers the case
		// where this client is the only participant online.
		gen := m.feed.BeginLoad()
		return m, tea.Batch(
			loadHistory(m.rest, m.roster.Active(), m.sess.UserID, gen),
			loadWallet(m.rest, m.sess.UserID),
		)

	case errMsg:
		if isInsufficientBalance(msg.err) && m.sess.Role == models.RoleClient {
			m.view = viewTopUp
			m.messageInput.Blur()
			m.topupInput.Focus()
		}
		m.banner = msg.err.Error()
		debug.Log("error: %v", msg.err)
	}

	// Update text inputs
	switch m.view {
	case viewLogin:
		if m.loginFocused == 0 {
			m.emailInput, _ = m.emailInput.Update(msg)
		} else {
			m.passwordInput, _ = m.passwordInput.Update(msg)
		}
	case viewChat:
		m.messageInput, _ = m.messageInput.Update(msg)
		m.chatViewport, _ = m.chatViewport.Update(msg)
		if _, ok := msg.(tea.KeyMsg); ok && m.typing != nil {
			m.typing.Keystroke(m.messageInput.Value())
		}
	case viewPaymentForm:
		if m.paymentFocused == 0 {
			m.amountInput, _ = m.amountInput.Update(msg)
		} else {
			m.descInput, _ = m.descInput.Update(msg)
		}
	case viewTopUp:
		m.topupInput, _ = m.topupInput.Update(msg)
	}

	return m, tea.Batch(cmds...)
}

func (m model) typingStart(conn *socket.Conn) func() {
	r, sess := m.roster, m.sess
	return func() {
		if id := r.Active(); id != "" {
			conn.TypingStart(id, sess.UserID, sess.Name)
		}
	}
}

func (m model) typingStop(conn *socket.Conn) func() {
	r, sess := m.roster, m.sess
	return func() {
		if id := r.Active(); id != "" {
			conn.TypingStop(id, sess.UserID)
		}
	}
}

// handleKey returns handled=true when the key was consumed as an action and
// must not fall through to the text inputs.
func (m model) handleKey(msg tea.KeyMsg) (model, tea.Cmd, bool) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit, true

	case "q":
		if m.view == viewConversations {
			return m, tea.Quit, true
		}

	case "tab":
		switch m.view {
		case viewLogin:
			if m.loginFocused == 0 {
				m.loginFocused = 1
				m.emailInput.Blur()
				m.passwordInput.Focus()
			} else {
				m.loginFocused = 0
				m.passwordInput.Blur()
				m.emailInput.Focus()
			}
			return m, nil, true
		case viewPaymentForm:
			if m.paymentFocused == 0 {
				m.paymentFocused = 1
				m.amountInput.Blur()
				m.descInput.Focus()
			} else {
				m.paymentFocused = 0
				m.descInput.Blur()
				m.amountInput.Focus()
			}
			return m, nil, true
		}

	case "enter":
		switch m.view {
		case viewLogin:
			if m.emailInput.Value() != "" && m.passwordInput.Value() != "" {
				m.banner = ""
				return m, login(m.rest, m.emailInput.Value(), m.passwordInput.Value()), true
			}
			return m, nil, true

		case viewConversations:
			return m.openSelectedConversation()

		case viewChat:
			return m.sendCurrentMessage()

		case viewPaymentForm:
			return m.submitPaymentForm()

		case viewTopUp:
			amount, err := parseAmount(m.topupInput.Value())
			if err != nil {
				m.banner = "Enter a valid amount"
				return m, nil, true
			}
			return m, topUp(m.rest, m.sess.UserID, amount), true
		}

	case "up", "k":
		if m.view == viewConversations {
			if m.selectedConv > 0 {
				m.selectedConv--
			}
			return m, nil, true
		}

	case "down", "j":
		if m.view == viewConversations {
			if m.selectedConv < m.roster.Len()-1 {
				m.selectedConv++
			}
			return m, nil, true
		}

	case "r":
		if m.view == viewConversations {
			return m, tea.Batch(
				loadConversations(m.rest, m.sess.UserID, m.sess.Role),
				loadWallet(m.rest, m.sess.UserID),
			), true
		}

	case "p":
		if m.view == viewChat && m.sess.Role == models.RoleFreelancer && m.messageInput.Value() == "" {
			m.view = viewPaymentForm
			m.paymentFocused = 0
			m.messageInput.Blur()
			m.amountInput.Focus()
			m.banner = ""
			return m, nil, true
		}

	case "ctrl+a":
		if m.view == viewChat && m.sess.Role == models.RoleClient {
			return m.decideLatestPayment(models.PaymentStatusApproved)
		}

	case "ctrl+x":
		if m.view == viewChat && m.sess.Role == models.RoleClient {
			return m.decideLatestPayment(models.PaymentStatusRejected)
		}

	case "ctrl+u":
		m.sess.DisplayCurrency = nextCurrency(m.sess.DisplayCurrency)
		if err := session.Save(m.profile, m.sess); err != nil {
			debug.Log("session save: %v", err)
		}
		if m.view == viewChat {
			m.updateChatViewport()
		}
		return m, nil, true

	case "ctrl+o":
		if !m.connected {
			m.banner = ""
			return m, connectSocket(wsURL(m.sess.ServerURL)), true
		}

	case "ctrl+t":
		if m.view == viewChat && m.sess.Role == models.RoleClient {
			m.view = viewTopUp
			m.messageInput.Blur()
			m.topupInput.Focus()
			return m, nil, true
		}

	case "ctrl+g":
		if m.view == viewPaymentForm {
			if m.paymentCurrency == "INR" {
				m.paymentCurrency = "USD"
			} else {
				m.paymentCurrency = "INR"
			}
			return m, nil, true
		}

	case "esc":
		switch m.view {
		case viewChat:
			if m.typing != nil {
				m.typing.Stop()
			}
			m.typingUser = ""
			m.roster.SetActive("")
			m.messageInput.Blur()
			m.view = viewConversations
			return m, loadConversations(m.rest, m.sess.UserID, m.sess.Role), true
		case viewPaymentForm, viewTopUp:
			m.amountInput.Blur()
			m.descInput.Blur()
			m.topupInput.Blur()
			m.messageInput.Focus()
			m.view = viewChat
			m.banner = ""
			return m, nil, true
		}
	}

	return m, nil, false
}

func (m model) openSelectedConversation() (model, tea.Cmd, bool) {
	convs := m.roster.Conversations()
	if len(convs) == 0 || m.selectedConv >= len(convs) {
		return m, nil, true
	}
	conv := convs[m.selectedConv]
	m.roster.SetActive(conv.ID)
	m.typingUser = ""
	m.view = viewChat
	m.messageInput.Focus()
	m.banner = ""

	gen := m.feed.BeginLoad()
	m.updateChatViewport()

	if m.conn != nil && m.conn.Connected() {
		if err := m.conn.JoinConversation(conv.ID, m.sess.UserID); err != nil {
			debug.Log("join: %v", err)
		}
	}
	return m, loadHistory(m.rest, conv.ID, m.sess.UserID, gen), true
}

func (m model) sendCurrentMessage() (model, tea.Cmd, bool) {
	content := strings.TrimSpace(m.messageInput.Value())
	if content == "" {
		return m, nil, true
	}
	if m.conn == nil || !m.conn.Connected() {
		m.banner = "Not connected. Ctrl+O to reconnect."
		return m, nil, true
	}

	convID := m.roster.Active()
	tempID := uuid.NewString()

	m.feed.AppendLocal(models.Message{
		TempID:         tempID,
		ConversationID: convID,
		SenderID:       m.sess.UserID,
		SenderName:     m.sess.Name,
		Content:        content,
		Type:           models.MessageTypeText,
		CreatedAt:      time.Now(),
		Pending:        true,
	})
	m.messageInput.SetValue("")
	if m.typing != nil {
		m.typing.Stop()
	}
	m.updateChatViewport()

	err := m.conn.SendMessage(socket.SendMessagePayload{
		ConversationID: convID,
		SenderID:       m.sess.UserID,
		SenderName:     m.sess.Name,
		Content:        content,
		MessageType:    models.MessageTypeText,
		TempID:         tempID,
	})
	if err != nil {
		m.feed.Fail(tempID)
		m.banner = "Send failed: " + err.Error()
		m.updateChatViewport()
	}
	return m, nil, true
}

func (m model) submitPaymentForm() (model, tea.Cmd, bool) {
	amount, err := parseAmount(m.amountInput.Value())
	if err != nil {
		m.banner = "Enter a valid amount"
		return m, nil, true
	}
	conv, ok := m.roster.Get(m.roster.Active())
	if !ok {
		return m, nil, true
	}
	m.banner = ""
	return m, createPayment(m.payments, api.CreatePaymentRequestParams{
		ConversationID: conv.ID,
		FreelancerID:   m.sess.UserID,
		ClientID:       conv.Client.ID,
		Amount:         amount,
		Currency:       m.paymentCurrency,
		Description:    strings.TrimSpace(m.descInput.Value()),
	}), true
}

func (m model) decideLatestPayment(status string) (model, tea.Cmd, bool) {
	target, ok := m.latestPendingRequest()
	if !ok {
		m.banner = "No pending payment request"
		return m, nil, true
	}
	balance := 0.0
	if m.wallet != nil {
		balance = m.wallet.Balance
	}
	if status == models.PaymentStatusApproved && balance <= 0 {
		m.view = viewTopUp
		m.messageInput.Blur()
		m.topupInput.Focus()
		m.banner = "Wallet is empty. Top up to approve."
		return m, nil, true
	}
	m.banner = ""
	return m, decidePayment(m.payments, target, m.sess.UserID, status, balance), true
}

// latestPendingRequest walks the feed newest-first for a payment request
// still awaiting a decision.
func (m model) latestPendingRequest() (string, bool) {
	msgs := m.feed.Messages()
	for i := len(msgs) - 1; i >= 0; i-- {
		msg := msgs[i]
		if msg.Type == models.MessageTypePaymentRequest &&
			msg.PaymentStatus == models.PaymentStatusPending &&
			msg.PaymentRequestID != "" {
			return msg.PaymentRequestID, true
		}
	}
	return "", false
}

func (m model) handleEvent(ev socket.Event) model {
	switch ev.Type {
	case socket.EventReceiveMessage:
		if ev.Message == nil {
			return m
		}
		if ev.Message.ConversationID == m.roster.Active() {
			if m.feed.Upsert(*ev.Message) {
				m.updateChatViewport()
			}
		}
		m.roster.Touch(ev.Message.ConversationID, previewFor(*ev.Message), ev.Message.CreatedAt)

	case socket.EventMessageSent:
		if ev.Message == nil {
			return m
		}
		if m.feed.Confirm(ev.TempID, *ev.Message) {
			m.updateChatViewport()
		}
		m.roster.Touch(ev.Message.ConversationID, previewFor(*ev.Message), ev.Message.CreatedAt)

	case socket.EventMessageError:
		m.feed.Fail(ev.TempID)
		m.banner = ev.Error
		m.updateChatViewport()

	case socket.EventUserTyping:
		if ev.ConversationID == m.roster.Active() && ev.UserID != m.sess.UserID {
			name := ev.UserName
			if name == "" {
				if conv, ok := m.roster.Get(ev.ConversationID); ok {
					name = conv.Other(m.sess.UserID).Name
				}
			}
			m.typingUser = name
		}

	case socket.EventUserStopTyping:
		if ev.ConversationID == m.roster.Active() {
			m.typingUser = ""
		}
	}
	return m
}

// isInsufficientBalance matches both the local wallet check and the server's
// rejection of an approval that would overdraw the wallet.
func isInsufficientBalance(err error) bool {
	return errors.Is(err, payments.ErrInsufficientBalance) ||
		strings.Contains(err.Error(), "insufficient balance")
}

func parseAmount(s string) (float64, error) {
	var amount float64
	if _, err := fmt.Sscanf(strings.TrimSpace(s), "%f", &amount); err != nil {
		return 0, err
	}
	if amount <= 0 {
		return 0, fmt.Errorf("amount must be positive")
	}
	return amount, nil
}

func nextCurrency(current string) string {
	for i, c := range displayCurrencies {
		if c == current {
			return displayCurrencies[(i+1)%len(displayCurrencies)]
		}
	}
	return displayCurrencies[0]
}

// previewFor is the one-line roster summary of a message.
func previewFor(msg models.Message) string {
	switch msg.Type {
	case models.MessageTypePaymentRequest:
		return "Payment request: " + money.Format(msg.Amount, msg.Currency)
	case models.MessageTypePaymentCompleted:
		return "Payment completed: " + money.Format(msg.Amount, msg.Currency)
	default:
		return msg.Content
	}
}

// --- Chat rendering ---

func (m *model) updateChatViewport() {
	var content strings.Builder
	var lastDay string

	for _, msg := range m.feed.Messages() {
		day := msg.CreatedAt.Format("January 2, 2006")
		if day != lastDay {
			content.WriteString(mutedStyle.Render("── "+day+" ──") + "\n")
			lastDay = day
		}
		content.WriteString(m.renderMessage(msg))
	}

	m.chatViewport.SetContent(content.String())
	m.chatViewport.GotoBottom()
}

func (m *model) renderMessage(msg models.Message) string {
	timestamp := mutedStyle.Render(msg.CreatedAt.Format("15:04"))

	nameStyle := otherMessageStyle
	if msg.SenderID == m.sess.UserID {
		nameStyle = ownMessageStyle
	}

	switch msg.Type {
	case models.MessageTypePaymentRequest:
		card := fmt.Sprintf("%s  %s\n%s",
			money.Format(msg.Amount, msg.Currency),
			mutedStyle.Render("("+msg.PaymentStatus+")"),
			msg.Content,
		)
		if msg.PaymentStatus == models.PaymentStatusPending && m.sess.Role == models.RoleClient {
			card += "\n" + helpStyle.Render("Ctrl+A approve • Ctrl+X reject")
		}
		return fmt.Sprintf("%s %s\n%s\n", timestamp, nameStyle.Render(msg.SenderName), paymentCardStyle.Render(card))

	case models.MessageTypePaymentCompleted, models.MessageTypeSystem:
		return fmt.Sprintf("%s %s\n", timestamp, systemStyle.Render(msg.Content))

	default:
		line := fmt.Sprintf("%s %s: %s", timestamp, nameStyle.Render(msg.SenderName), msg.Content)
		if msg.Pending {
			line += mutedStyle.Render(" …")
		}
		return line + "\n"
	}
}

// --- View ---

func (m model) View() string {
	switch m.view {
	case viewLogin:
		return m.loginView()
	case viewConversations:
		return m.conversationsView()
	case viewChat:
		return m.chatView()
	case viewPaymentForm:
		return m.paymentFormView()
	case viewTopUp:
		return m.topUpView()
	}
	return ""
}

func (m model) loginView() string {
	var s strings.Builder

	s.WriteString("\n\n")
	s.WriteString(titleStyle.Render("GIGMSG"))
	s.WriteString("\n\n")

	s.WriteString("  Email:\n")
	s.WriteString("  " + m.emailInput.View() + "\n\n")
	s.WriteString("  Password:\n")
	s.WriteString("  " + m.passwordInput.View() + "\n\n")

	if m.banner != "" {
		s.WriteString(errorStyle.Render("  " + m.banner + "\n\n"))
	}

	s.WriteString(helpStyle.Render("  Tab to switch fields • Enter to sign in • Ctrl+C to quit\n"))
	return s.String()
}

func (m model) walletLine() string {
	if m.wallet == nil {
		return mutedStyle.Render("Wallet: ...")
	}
	display := m.sess.DisplayCurrency
	amount, err := m.converter.Convert(m.wallet.Balance, money.Baseline, display)
	if err != nil {
		display = money.Baseline
		amount = m.wallet.Balance
	}
	return fmt.Sprintf("Wallet: %s %s", money.Format(amount, display), mutedStyle.Render("("+display+", Ctrl+U)"))
}

func (m model) conversationsView() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render(fmt.Sprintf("GIGMSG - %s (%s)", m.sess.Name, m.sess.Role)))
	s.WriteString("\n")
	s.WriteString("  " + m.walletLine() + "\n\n")

	convs := m.roster.Conversations()
	if len(convs) == 0 {
		s.WriteString(mutedStyle.Render("  No accepted conversations yet.\n"))
	}
	for i, conv := range convs {
		other := conv.Other(m.sess.UserID)

		prefix := "  "
		style := lipgloss.NewStyle()
		if i == m.selectedConv {
			prefix = "→ "
			style = selectedStyle
		}

		line := fmt.Sprintf("%s%s", prefix, other.Name)
		if conv.ProjectTitle != "" {
			line += mutedStyle.Render(" · " + conv.ProjectTitle)
		}
		if conv.UnreadCount > 0 {
			line += unreadStyle.Render(fmt.Sprintf("  [%d]", conv.UnreadCount))
		}
		s.WriteString(style.Render(line) + "\n")
		if conv.LastMessage != "" {
			s.WriteString(mutedStyle.Render("    "+truncate(conv.LastMessage, 60)) + "\n")
		}
	}

	s.WriteString("\n")
	if !m.connected {
		s.WriteString(errorStyle.Render("  Disconnected. Ctrl+O to reconnect.\n"))
	}
	if m.banner != "" {
		s.WriteString(errorStyle.Render("  " + m.banner + "\n"))
	}
	s.WriteString(helpStyle.Render("  ↑/↓ navigate • Enter to open • r refresh • q to quit"))
	return s.String()
}

func (m model) chatView() string {
	var s strings.Builder

	conv, _ := m.roster.Get(m.roster.Active())
	other := conv.Other(m.sess.UserID)

	header := other.Name
	if conv.ProjectTitle != "" {
		header += " · " + conv.ProjectTitle
	}
	s.WriteString(titleStyle.Render(header))
	s.WriteString("  " + m.walletLine())
	s.WriteString("\n")
	s.WriteString(strings.Repeat("─", maxInt(m.width-2, 10)))
	s.WriteString("\n")

	s.WriteString(m.chatViewport.View())
	s.WriteString("\n")

	if m.typingUser != "" {
		s.WriteString(mutedStyle.Render(m.typingUser+" is typing...") + "\n")
	} else {
		s.WriteString("\n")
	}

	s.WriteString(strings.Repeat("─", maxInt(m.width-2, 10)))
	s.WriteString("\n")
	s.WriteString(m.messageInput.View())
	s.WriteString("\n")

	if !m.connected {
		s.WriteString(errorStyle.Render("Disconnected. Ctrl+O to reconnect.") + "\n")
	} else if m.banner != "" {
		s.WriteString(errorStyle.Render(m.banner) + "\n")
	}

	help := "Enter to send • Esc to go back"
	if m.sess.Role == models.RoleFreelancer {
		help += " • p payment request"
	} else {
		help += " • Ctrl+A/Ctrl+X decide payment • Ctrl+T top up"
	}
	s.WriteString(helpStyle.Render(help))
	return s.String()
}

func (m model) paymentFormView() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render("New Payment Request"))
	s.WriteString("\n\n")

	s.WriteString(fmt.Sprintf("  Currency: %s %s\n\n",
		selectedStyle.Render(m.paymentCurrency),
		helpStyle.Render("(Ctrl+G to toggle)")))

	s.WriteString("  Amount:\n")
	s.WriteString("  " + m.amountInput.View() + "\n\n")
	s.WriteString("  Description:\n")
	s.WriteString("  " + m.descInput.View() + "\n\n")

	if m.banner != "" {
		s.WriteString(errorStyle.Render("  " + m.banner + "\n\n"))
	}

	s.WriteString(helpStyle.Render("  Tab to switch fields • Enter to submit • Esc to cancel"))
	return s.String()
}

func (m model) topUpView() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render("Top Up Wallet"))
	s.WriteString("\n\n")
	s.WriteString("  " + m.walletLine() + "\n\n")
	s.WriteString("  Amount (INR):\n")
	s.WriteString("  " + m.topupInput.View() + "\n\n")

	if m.banner != "" {
		s.WriteString(errorStyle.Render("  " + m.banner + "\n\n"))
	}

	s.WriteString(helpStyle.Render("  Enter to top up • Esc to cancel"))
	return s.String()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// --- Main ---

func main() {
	profile := os.Getenv("GIGMSG_PROFILE")
	if profile == "" {
		profile = "default"
	}

	p := tea.NewProgram(initialModel(profile), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}
