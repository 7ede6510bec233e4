package jwt

import (
	"crypto/ed25519"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SigningMethod selects the token signature algorithm.
type SigningMethod string

const (
	// MethodEd25519 signs with an Ed25519 key pair.
	MethodEd25519 SigningMethod = "ed25519"
	// MethodHS256 signs with a shared secret.
	MethodHS256 SigningMethod = "hs256"
)

var (
	// ErrInvalidConfig is returned by NewManager for unusable settings.
	ErrInvalidConfig = errors.New("invalid jwt config")
	// ErrMissingSubject is returned by Issue when uid or tenant is empty.
	ErrMissingSubject = errors.New("credential requires uid and tenant")
	// ErrVerifyOnly is returned by Issue on a manager without a signing key.
	ErrVerifyOnly = errors.New("manager has no signing key")
	// ErrUnknownKey is returned by Parse when the token's kid has no key.
	ErrUnknownKey = errors.New("unknown signing key id")
)

// Config defines a public type used by goShell APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	TTL           time.Duration
	SigningMethod SigningMethod
	// PrivateKey is the HS256 secret, or an Ed25519 private key (raw or
	// PEM). Ed25519 managers without one can verify but not issue.
	PrivateKey []byte
	PublicKey  []byte
	Issuer     string
	Audience   string
	Leeway     time.Duration
	// KeyID is written to the kid header of issued tokens. When VerifyKeys
	// is empty, tokens must carry this kid.
	KeyID string
	// VerifyKeys maps kid to a verification key, for key rotation.
	VerifyKeys map[string][]byte
}

// Claims is the payload of a bearer credential.
type Claims struct {
	UID  string `json:"uid"`
	TID  string `json:"tid"`
	Role string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// Manager issues and parses bearer credentials. Keys are decoded once by
// NewManager. It is safe for concurrent use.
type Manager struct {
	config  Config
	method  jwt.SigningMethod
	signKey any
	// keys holds verification keys by kid; "" is the key used when tokens
	// need no kid.
	keys   map[string]any
	parser *jwt.Parser
}

// NewManager validates cfg and returns a Manager.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.TTL <= 0 {
		return nil, fmt.Errorf("%w: TTL must be > 0", ErrInvalidConfig)
	}
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, fmt.Errorf("%w: leeway out of range", ErrInvalidConfig)
	}
	cfg.KeyID = strings.TrimSpace(cfg.KeyID)

	m := &Manager{config: cfg, keys: make(map[string]any)}
	var err error
	switch cfg.SigningMethod {
	case MethodHS256:
		err = m.loadHS256()
	case MethodEd25519:
		err = m.loadEd25519()
	default:
		err = fmt.Errorf("unsupported signing method %q", cfg.SigningMethod)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if cfg.KeyID != "" && len(cfg.VerifyKeys) > 0 {
		if _, ok := cfg.VerifyKeys[cfg.KeyID]; !ok {
			return nil, fmt.Errorf("%w: KeyID is not present in VerifyKeys", ErrInvalidConfig)
		}
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{m.method.Alg()}),
		jwt.WithIssuedAt(),
		jwt.WithExpirationRequired(),
	}
	if cfg.Leeway > 0 {
		opts = append(opts, jwt.WithLeeway(cfg.Leeway))
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	if cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(cfg.Audience))
	}
	m.parser = jwt.NewParser(opts...)
	return m, nil
}

func (m *Manager) loadHS256() error {
	if len(m.config.PrivateKey) == 0 {
		return errors.New("hs256 requires a secret")
	}
	m.method = jwt.SigningMethodHS256
	m.signKey = m.config.PrivateKey
	m.keys[""] = m.config.PrivateKey
	for kid, secret := range m.config.VerifyKeys {
		if strings.TrimSpace(kid) == "" || len(secret) == 0 {
			return fmt.Errorf("verify key %q is empty", kid)
		}
		m.keys[kid] = secret
	}
	return nil
}

func (m *Manager) loadEd25519() error {
	m.method = jwt.SigningMethodEdDSA
	if len(m.config.PrivateKey) > 0 {
		priv, err := parseEdPrivateKey(m.config.PrivateKey)
		if err != nil {
			return err
		}
		m.signKey = priv
	}
	if len(m.config.PublicKey) > 0 {
		pub, err := parseEdPublicKey(m.config.PublicKey)
		if err != nil {
			return err
		}
		m.keys[""] = pub
	}
	if len(m.config.VerifyKeys) == 0 && len(m.config.PublicKey) == 0 {
		return errors.New("ed25519 requires a public key or verify key set")
	}
	for kid, raw := range m.config.VerifyKeys {
		if strings.TrimSpace(kid) == "" {
			return errors.New("verify key map contains empty kid")
		}
		pub, err := parseEdPublicKey(raw)
		if err != nil {
			return fmt.Errorf("verify key %q: %v", kid, err)
		}
		m.keys[kid] = pub
	}
	return nil
}

// Issue signs a credential for uid in tenant.
func (m *Manager) Issue(uid, tenant, role string) (string, error) {
	if uid == "" || tenant == "" {
		return "", ErrMissingSubject
	}
	if m.signKey == nil {
		return "", ErrVerifyOnly
	}

	now := time.Now()
	claims := Claims{
		UID:  uid,
		TID:  tenant,
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(m.config.TTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    m.config.Issuer,
		},
	}
	if m.config.Audience != "" {
		claims.Audience = jwt.ClaimStrings{m.config.Audience}
	}

	token := jwt.NewWithClaims(m.method, claims)
	if m.config.KeyID != "" {
		token.Header["kid"] = m.config.KeyID
	}
	return token.SignedString(m.signKey)
}

// Parse verifies tokenStr and returns its claims. Tokens without uid or tid
// are rejected.
func (m *Manager) Parse(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	if _, err := m.parser.ParseWithClaims(tokenStr, claims, m.verifyKey); err != nil {
		return nil, err
	}
	if claims.UID == "" || claims.TID == "" {
		return nil, fmt.Errorf("%w: %w", jwt.ErrTokenInvalidClaims, ErrMissingSubject)
	}
	return claims, nil
}

func (m *Manager) verifyKey(t *jwt.Token) (any, error) {
	kid, _ := t.Header["kid"].(string)
	switch {
	case len(m.config.VerifyKeys) > 0:
		if kid == "" {
			return nil, ErrUnknownKey
		}
	case m.config.KeyID != "":
		if kid != m.config.KeyID {
			return nil, ErrUnknownKey
		}
		kid = ""
	default:
		kid = ""
	}
	key, ok := m.keys[kid]
	if !ok {
		return nil, ErrUnknownKey
	}
	return key, nil
}

func parseEdPrivateKey(key []byte) (ed25519.PrivateKey, error) {
	if len(key) == ed25519.PrivateKeySize {
		return ed25519.PrivateKey(key), nil
	}
	parsed, err := jwt.ParseEdPrivateKeyFromPEM(key)
	if err != nil {
		return nil, errors.New("invalid ed25519 private key")
	}
	edKey, ok := parsed.(ed25519.PrivateKey)
	if !ok {
		return nil, errors.New("invalid ed25519 private key type")
	}
	return edKey, nil
}

func parseEdPublicKey(key []byte) (ed25519.PublicKey, error) {
	if len(key) == ed25519.PublicKeySize {
		return ed25519.PublicKey(key), nil
	}
	parsed, err := jwt.ParseEdPublicKeyFromPEM(key)
	if err != nil {
		return nil, errors.New("invalid ed25519 public key")
	}
	edKey, ok := parsed.(ed25519.PublicKey)
	if !ok {
		return nil, errors.New("invalid ed25519 public key type")
	}
	return edKey, nil
}
