package sessions

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	CookieName = "session"
	DefaultTTL = 7 * 24 * time.Hour
)

var ErrInvalidSession = errors.New("invalid session")

// Claims es lo que viaja firmado en la cookie: uid + id de sesión.
type Claims struct {
	UID       string
	SessionID string
	ExpiresAt time.Time
}

type Config struct {
	Secret string
	TTL    time.Duration
	Secure bool // true en producción
	Issuer string
}

// Manager emite y valida el JWT HS256 de la cookie de sesión.
type Manager struct {
	secret []byte
	ttl    time.Duration
	secure bool
	issuer string
	now    func() time.Time
}

func NewManager(cfg Config) (*Manager, error) {
	if len(strings.TrimSpace(cfg.Secret)) < 16 {
		return nil, errors.New("sessions: secret must have at least 16 characters")
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	issuer := cfg.Issuer
	if issuer == "" {
		issuer = "vet-clinic"
	}
	return &Manager{
		secret: []byte(cfg.Secret),
		ttl:    ttl,
		secure: cfg.Secure,
		issuer: issuer,
		now:    time.Now,
	}, nil
}

type tokenClaims struct {
	jwt.RegisteredClaims
}

// Issue firma un token nuevo para uid con un id de sesión fresco.
func (m *Manager) Issue(uid string) (string, Claims, error) {
	uid = strings.TrimSpace(uid)
	if uid == "" {
		return "", Claims{}, ErrInvalidSession
	}

	now := m.now()
	c := Claims{UID: uid, SessionID: uuid.NewString(), ExpiresAt: now.Add(m.ttl)}

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   c.UID,
			ID:        c.SessionID,
			Issuer:    m.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(c.ExpiresAt),
		},
	})
	signed, err := tok.SignedString(m.secret)
	if err != nil {
		return "", Claims{}, fmt.Errorf("sessions: sign: %w", err)
	}
	return signed, c, nil
}

// Parse valida firma, algoritmo, issuer y expiración.
func (m *Manager) Parse(token string) (Claims, error) {
	var tc tokenClaims
	_, err := jwt.ParseWithClaims(strings.TrimSpace(token), &tc, func(t *jwt.Token) (any, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(m.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}
	if tc.Subject == "" || tc.ID == "" {
		return Claims{}, ErrInvalidSession
	}

	return Claims{UID: tc.Subject, SessionID: tc.ID, ExpiresAt: tc.ExpiresAt.Time}, nil
}

func (m *Manager) Cookie(token string) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(m.ttl / time.Second),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	}
}

func (m *Manager) ClearCookie() *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// ResolveSession adapta Parse a lo que consume el middleware de autenticación.
func (m *Manager) ResolveSession(token string) (string, string, error) {
	c, err := m.Parse(token)
	if err != nil {
		return "", "", err
	}
	return c.UID, c.SessionID, nil
}
