package session

import (
	"context"
	"errors"
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/cybersms/numstore/internal/provider"
)

// Session errors.
var (
	// ErrAuthenticationRequired indicates an action needs an authenticated customer.
	ErrAuthenticationRequired = errors.New("session: authentication required")
	// ErrCustomerInactive indicates the remote customer record is disabled.
	ErrCustomerInactive = errors.New("session: customer not found or inactive")
)

// Top-up payment methods. Crypto top-ups receive a bonus credit.
const (
	TopUpMethodCrypto = "crypto"

	cryptoBonusRate = 0.20
)

// Session holds one authenticated customer's identity and cached balance.
// The balance is a cache of the remote value; purchases never decrement it
// locally, they rely on the subsequent refresh.
type Session struct {
	CustomerID int64
	Email      string
	Name       string
	PIN        int64

	mu      sync.Mutex
	balance float64
}

// Balance returns the cached balance in major units.
func (s *Session) Balance() float64 {
	if s == nil {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.balance
}

// setBalance replaces the cached balance unconditionally.
func (s *Session) setBalance(amount float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.balance = amount
}

// credit raises the cached balance by amount.
func (s *Session) credit(amount float64) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.balance += amount
	return s.balance
}

// Manager owns the session table: explicit init on login/registration/resume,
// explicit teardown on logout.
type Manager struct {
	provider *provider.Client

	mu       sync.Mutex
	sessions map[int64]*Session
}

// NewManager constructs a session manager.
func NewManager(client *provider.Client) *Manager {
	return &Manager{
		provider: client,
		sessions: map[int64]*Session{},
	}
}

// Login resolves the remote customer by email and opens a session.
func (m *Manager) Login(ctx context.Context, email string) (*Session, error) {
	customer, errFind := m.provider.CustomerByEmail(ctx, strings.TrimSpace(email))
	if errFind != nil {
		return nil, errFind
	}
	if customer == nil || !customer.Active {
		return nil, ErrCustomerInactive
	}
	return m.open(customer), nil
}

// Register creates a remote customer record and opens a session. When the
// provider reports the customer already exists, registration falls back to a
// successful login for the existing record.
func (m *Manager) Register(ctx context.Context, email, name string) (*Session, error) {
	customer, errCreate := m.provider.CreateCustomer(ctx, strings.TrimSpace(email), strings.TrimSpace(name))
	if errCreate != nil {
		var apiErr *provider.APIError
		if errors.As(errCreate, &apiErr) && (apiErr.IsConflict() || strings.Contains(apiErr.Message, "already exists")) {
			return m.Login(ctx, email)
		}
		return nil, errCreate
	}
	return m.open(customer), nil
}

// Resume reopens a session for a customer authenticated by token after a
// process restart. The balance is re-read remotely; a failed read opens the
// session with a zero cached balance and is logged.
func (m *Manager) Resume(ctx context.Context, customerID, pin int64, email, name string) *Session {
	if sess, ok := m.Get(customerID); ok {
		return sess
	}

	sess := &Session{CustomerID: customerID, Email: email, Name: name, PIN: pin}
	if errRefresh := m.RefreshBalance(ctx, sess); errRefresh != nil {
		log.WithError(errRefresh).Warnf("session: resume balance read failed (customer=%d)", customerID)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.sessions[customerID]; ok {
		return existing
	}
	m.sessions[customerID] = sess
	return sess
}

// Get returns the open session for a customer, if any.
func (m *Manager) Get(customerID int64) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[customerID]
	return sess, ok
}

// RefreshBalance re-reads the remote balance by PIN and replaces the cached
// value unconditionally.
func (m *Manager) RefreshBalance(ctx context.Context, sess *Session) error {
	if sess == nil {
		return ErrAuthenticationRequired
	}
	customer, errFind := m.provider.CustomerByPIN(ctx, sess.PIN)
	if errFind != nil {
		return errFind
	}
	sess.setBalance(customer.BalanceAmount())
	return nil
}

// TopUp applies a simulated optimistic local credit and returns the credited
// amount including any bonus. There is no remote payment integration.
func (m *Manager) TopUp(sess *Session, method string, amount float64) (credited, newBalance float64, err error) {
	if sess == nil {
		return 0, 0, ErrAuthenticationRequired
	}
	if amount <= 0 {
		return 0, 0, errors.New("session: top-up amount must be positive")
	}
	credited = amount
	if strings.EqualFold(strings.TrimSpace(method), TopUpMethodCrypto) {
		credited += amount * cryptoBonusRate
	}
	newBalance = sess.credit(credited)
	return credited, newBalance, nil
}

// Logout tears down the customer's session and flushes the provider's
// reference-data cache wholesale. No remote invalidation call is made.
func (m *Manager) Logout(ctx context.Context, customerID int64) {
	m.mu.Lock()
	delete(m.sessions, customerID)
	m.mu.Unlock()

	m.provider.FlushCache(ctx)
}

// open creates (or replaces) the session for a resolved customer.
func (m *Manager) open(customer *provider.Customer) *Session {
	sess := &Session{
		CustomerID: customer.ID,
		Email:      customer.Email,
		Name:       customer.Name,
		PIN:        customer.PIN,
	}
	sess.setBalance(customer.BalanceAmount())

	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[customer.ID] = sess
	return sess
}
