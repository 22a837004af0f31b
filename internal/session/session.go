package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/imgix/contentful/internal/browser"
	"github.com/imgix/contentful/internal/logging"
)

// Error is a session resolution failure with a stable machine-readable code.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return e.Message
}

// Config holds the token and lifetime settings for dialog sessions.
type Config struct {
	JWTSecret string
	JWTIssuer string

	// IdleTTL evicts sessions not touched for this long. Zero means the
	// default of 30 minutes.
	IdleTTL time.Duration

	// TokenTTL bounds the signed token's lifetime, independent of the idle
	// clock. Zero means the default of 24 hours.
	TokenTTL time.Duration

	// SweepInterval is how often expired sessions are collected. Zero means
	// the default of one minute.
	SweepInterval time.Duration
}

type entry struct {
	controller *browser.Controller
	lastSeen   time.Time
}

// Manager owns the live dialog controllers, keyed by session id. Opening a
// session mints a signed token the client sends back on every dialog call;
// sessions idle past the TTL are swept by a background janitor.
type Manager struct {
	cfg    Config
	logger *logging.Logger

	mu       sync.Mutex
	sessions map[string]*entry

	done     chan struct{}
	stopOnce sync.Once
}

// NewManager creates a manager and starts its janitor.
func NewManager(cfg Config, logger *logging.Logger) *Manager {
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = 30 * time.Minute
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 24 * time.Hour
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = time.Minute
	}

	m := &Manager{
		cfg:      cfg,
		logger:   logger,
		sessions: make(map[string]*entry),
		done:     make(chan struct{}),
	}
	go m.janitor()
	return m
}

// Open registers a controller and returns the session id with its signed
// token.
func (m *Manager) Open(controller *browser.Controller) (string, string, error) {
	id := uuid.NewString()
	now := time.Now()

	claims := jwt.MapClaims{
		"sub": id,
		"iss": m.cfg.JWTIssuer,
		"iat": now.Unix(),
		"exp": now.Add(m.cfg.TokenTTL).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).
		SignedString([]byte(m.cfg.JWTSecret))
	if err != nil {
		return "", "", fmt.Errorf("failed to sign session token: %w", err)
	}

	m.mu.Lock()
	m.sessions[id] = &entry{controller: controller, lastSeen: now}
	m.mu.Unlock()

	return id, token, nil
}

// Resolve validates a session token and returns its controller, refreshing
// the idle clock. The token outliving the session (janitor got there first)
// is reported as expired, not invalid.
func (m *Manager) Resolve(tokenString string) (*browser.Controller, error) {
	id, err := m.validate(tokenString)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.sessions[id]
	if !ok {
		return nil, &Error{Code: "session_expired", Message: "session expired"}
	}
	e.lastSeen = time.Now()
	return e.controller, nil
}

// Close ends the session named by the token. Unknown or invalid tokens are a
// no-op.
func (m *Manager) Close(tokenString string) {
	id, err := m.validate(tokenString)
	if err != nil {
		return
	}
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
}

// Len reports the number of live sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Stop halts the janitor. Live sessions are dropped.
func (m *Manager) Stop() {
	m.stopOnce.Do(func() {
		close(m.done)
	})
}

func (m *Manager) validate(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(m.cfg.JWTSecret), nil
	})
	if err != nil {
		return "", &Error{Code: "invalid_token", Message: "invalid or expired token"}
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", &Error{Code: "invalid_token", Message: "invalid token claims"}
	}
	if iss, _ := claims["iss"].(string); iss != m.cfg.JWTIssuer {
		return "", &Error{Code: "invalid_token", Message: "invalid token issuer"}
	}
	id, ok := claims["sub"].(string)
	if !ok || id == "" {
		return "", &Error{Code: "invalid_token", Message: "invalid token subject"}
	}
	return id, nil
}

func (m *Manager) janitor() {
	ticker := time.NewTicker(m.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			m.sweep()
		}
	}
}

func (m *Manager) sweep() {
	cutoff := time.Now().Add(-m.cfg.IdleTTL)

	m.mu.Lock()
	var evicted int
	for id, e := range m.sessions {
		if e.lastSeen.Before(cutoff) {
			delete(m.sessions, id)
			evicted++
		}
	}
	m.mu.Unlock()

	if evicted > 0 && m.logger != nil {
		m.logger.Debug("swept idle sessions", logging.WithField("count", evicted))
	}
}
