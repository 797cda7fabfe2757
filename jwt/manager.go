// Package jwt issues and verifies the signed access and refresh tokens used
// by the authentication engine. The two token classes are signed with
// distinct keys, so a refresh token can never satisfy an access-token parse
// and vice versa.
package jwt

import (
	"crypto/ed25519"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrExpired reports a correctly signed token past its expiry. Callers react
// differently to this than to ErrInvalid: expiry drives a refresh attempt,
// anything else is a hard reject.
var ErrExpired = errors.New("token expired")

// ErrInvalid reports a malformed token, a bad signature, or a token signed
// for the other class.
var ErrInvalid = errors.New("token invalid")

// SigningMethod selects the signature algorithm for both token classes.
type SigningMethod string

const (
	// MethodHS256 signs with HMAC-SHA256 symmetric keys.
	MethodHS256 SigningMethod = "hs256"
	// MethodEd25519 signs with Ed25519 key pairs.
	MethodEd25519 SigningMethod = "ed25519"
)

// Snapshot is the user view embedded in every token. It mirrors the session
// record so handlers can act without a directory lookup on the hot path.
type Snapshot struct {
	ID       string `json:"uid"`
	Email    string `json:"email"`
	Username string `json:"username"`
	Role     string `json:"role,omitempty"`
}

// Claims is the wire shape of both token classes.
type Claims struct {
	SID  string   `json:"sid"`
	User Snapshot `json:"user"`
	jwt.RegisteredClaims
}

// Config wires a [Manager]. AccessKey and RefreshKey must differ; for
// ed25519 they are the private keys and the public halves go in
// AccessPublicKey / RefreshPublicKey.
type Config struct {
	Method           SigningMethod
	Issuer           string
	AccessTTL        time.Duration
	RefreshTTL       time.Duration
	AccessKey        []byte
	RefreshKey       []byte
	AccessPublicKey  []byte
	RefreshPublicKey []byte
}

type keyPair struct {
	sign   any
	verify any
	ttl    time.Duration
}

// Manager issues and parses both token classes.
type Manager struct {
	method  jwt.SigningMethod
	issuer  string
	access  keyPair
	refresh keyPair
}

// NewManager validates the configuration and returns a ready [Manager].
func NewManager(cfg Config) (*Manager, error) {
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 {
		return nil, errors.New("jwt: token lifetimes must be positive")
	}
	if len(cfg.AccessKey) == 0 || len(cfg.RefreshKey) == 0 {
		return nil, errors.New("jwt: both signing keys are required")
	}
	if string(cfg.AccessKey) == string(cfg.RefreshKey) {
		return nil, errors.New("jwt: access and refresh keys must differ")
	}

	m := &Manager{issuer: cfg.Issuer}
	switch cfg.Method {
	case MethodHS256, "":
		m.method = jwt.SigningMethodHS256
		m.access = keyPair{sign: cfg.AccessKey, verify: cfg.AccessKey, ttl: cfg.AccessTTL}
		m.refresh = keyPair{sign: cfg.RefreshKey, verify: cfg.RefreshKey, ttl: cfg.RefreshTTL}
	case MethodEd25519:
		m.method = jwt.SigningMethodEdDSA
		accessPriv, err := parseEdPrivateKey(cfg.AccessKey)
		if err != nil {
			return nil, err
		}
		refreshPriv, err := parseEdPrivateKey(cfg.RefreshKey)
		if err != nil {
			return nil, err
		}
		accessPub, err := parseEdPublicKey(cfg.AccessPublicKey)
		if err != nil {
			return nil, err
		}
		refreshPub, err := parseEdPublicKey(cfg.RefreshPublicKey)
		if err != nil {
			return nil, err
		}
		m.access = keyPair{sign: accessPriv, verify: accessPub, ttl: cfg.AccessTTL}
		m.refresh = keyPair{sign: refreshPriv, verify: refreshPub, ttl: cfg.RefreshTTL}
	default:
		return nil, errors.New("jwt: unsupported signing method")
	}

	return m, nil
}

// IssueAccess signs a short-lived access token for the given session.
func (m *Manager) IssueAccess(sessionID string, user Snapshot) (string, error) {
	return m.issue(m.access, sessionID, user)
}

// IssueRefresh signs a long-lived refresh token for the given session.
func (m *Manager) IssueRefresh(sessionID string, user Snapshot) (string, error) {
	return m.issue(m.refresh, sessionID, user)
}

// ParseAccess verifies an access token and returns its claims. Returns
// [ErrExpired] for a correctly signed token past expiry and [ErrInvalid] for
// everything else, including refresh tokens presented as access tokens.
func (m *Manager) ParseAccess(token string) (*Claims, error) {
	return m.parse(m.access, token)
}

// ParseRefresh verifies a refresh token; error semantics match ParseAccess.
func (m *Manager) ParseRefresh(token string) (*Claims, error) {
	return m.parse(m.refresh, token)
}

func (m *Manager) issue(pair keyPair, sessionID string, user Snapshot) (string, error) {
	now := time.Now()
	claims := Claims{
		SID:  sessionID,
		User: user,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(pair.ttl)),
		},
	}

	return jwt.NewWithClaims(m.method, claims).SignedString(pair.sign)
}

func (m *Manager) parse(pair keyPair, token string) (*Claims, error) {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{m.method.Alg()}),
	}
	if m.issuer != "" {
		options = append(options, jwt.WithIssuer(m.issuer))
	}

	parser := jwt.NewParser(options...)
	parsed, err := parser.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (any, error) {
		return pair.verify, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpired
		}
		return nil, ErrInvalid
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.SID == "" {
		return nil, ErrInvalid
	}

	return claims, nil
}

func parseEdPrivateKey(key []byte) (ed25519.PrivateKey, error) {
	if len(key) == ed25519.PrivateKeySize {
		return ed25519.PrivateKey(key), nil
	}
	parsed, err := jwt.ParseEdPrivateKeyFromPEM(key)
	if err != nil {
		return nil, errors.New("jwt: invalid ed25519 private key")
	}
	edKey, ok := parsed.(ed25519.PrivateKey)
	if !ok {
		return nil, errors.New("jwt: invalid ed25519 private key type")
	}
	return edKey, nil
}

func parseEdPublicKey(key []byte) (ed25519.PublicKey, error) {
	if len(key) == ed25519.PublicKeySize {
		return ed25519.PublicKey(key), nil
	}
	parsed, err := jwt.ParseEdPublicKeyFromPEM(key)
	if err != nil {
		return nil, errors.New("jwt: invalid ed25519 public key")
	}
	edKey, ok := parsed.(ed25519.PublicKey)
	if !ok {
		return nil, errors.New("jwt: invalid ed25519 public key type")
	}
	return edKey, nil
}
