// internal/auth/auth.go
package auth

import (
	"errors"
	"fmt"
	"time"

	"requisition-form-api-server/config"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const RoleAdmin = "admin"

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid or expired token")
)

// Credentials is what the admin presents at login.
type Credentials struct {
	Password string `json:"password"`
}

// Authorizer decides whether credentials unlock the administrative operations.
type Authorizer interface {
	Authorize(creds Credentials) bool
}

// PasswordAuthorizer so sánh mật khẩu chung với một bcrypt hash.
type PasswordAuthorizer struct {
	hash string
}

var _ Authorizer = (*PasswordAuthorizer)(nil)

func NewPasswordAuthorizer(cfg config.AdminConfig) (*PasswordAuthorizer, error) {
	if cfg.PasswordHash != "" {
		if _, err := bcrypt.Cost([]byte(cfg.PasswordHash)); err != nil {
			return nil, fmt.Errorf("admin.passwordHash is not a bcrypt hash: %w", err)
		}
		return &PasswordAuthorizer{hash: cfg.PasswordHash}, nil
	}
	if cfg.Password == "" {
		return nil, errors.New("admin password is not configured")
	}
	hash, err := HashPassword(cfg.Password)
	if err != nil {
		return nil, err
	}
	return &PasswordAuthorizer{hash: hash}, nil
}

func (a *PasswordAuthorizer) Authorize(creds Credentials) bool {
	if creds.Password == "" {
		return false
	}
	return CheckPasswordHash(creds.Password, a.hash)
}

// Hashing
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// JWTClaims defines the payload for the JWT.
type JWTClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenIssuer(cfg config.JWTConfig) (*TokenIssuer, error) {
	if cfg.Secret == "" {
		return nil, errors.New("jwt.secret is not configured")
	}
	return &TokenIssuer{secret: []byte(cfg.Secret), ttl: cfg.TokenTTL(), now: time.Now}, nil
}

// Issue signs a token for role, returning it with its expiry.
func (i *TokenIssuer) Issue(role string) (string, time.Time, error) {
	now := i.now()
	expiresAt := now.Add(i.ttl)
	claims := &JWTClaims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

func (i *TokenIssuer) Parse(tokenString string) (*JWTClaims, error) {
	claims := &JWTClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return i.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(i.now))
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
