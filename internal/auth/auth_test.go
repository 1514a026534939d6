package auth

import (
	"testing"
	"time"

	"requisition-form-api-server/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordAuthorizer(t *testing.T) {
	hash, err := HashPassword("almoxarifado")
	require.NoError(t, err)

	tests := []struct {
		name string
		cfg  config.AdminConfig
	}{
		{"plain password", config.AdminConfig{Password: "almoxarifado"}},
		{"bcrypt hash", config.AdminConfig{PasswordHash: hash}},
		{"hash wins over password", config.AdminConfig{Password: "other", PasswordHash: hash}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := NewPasswordAuthorizer(tt.cfg)
			require.NoError(t, err)
			assert.True(t, a.Authorize(Credentials{Password: "almoxarifado"}))
			assert.False(t, a.Authorize(Credentials{Password: "Almoxarifado"}))
			assert.False(t, a.Authorize(Credentials{}))
		})
	}

	_, err = NewPasswordAuthorizer(config.AdminConfig{})
	assert.Error(t, err)
	_, err = NewPasswordAuthorizer(config.AdminConfig{PasswordHash: "plain-text"})
	assert.Error(t, err)
}

func TestTokenIssuer(t *testing.T) {
	_, err := NewTokenIssuer(config.JWTConfig{})
	assert.Error(t, err)

	issuer, err := NewTokenIssuer(config.JWTConfig{Secret: "s3cret", Expiration: "1h"})
	require.NoError(t, err)

	token, expiresAt, err := issuer.Issue(RoleAdmin)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	claims, err := issuer.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, claims.Role)

	other, err := NewTokenIssuer(config.JWTConfig{Secret: "different"})
	require.NoError(t, err)
	_, err = other.Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = issuer.Parse("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenIssuer_Expired(t *testing.T) {
	issuer, err := NewTokenIssuer(config.JWTConfig{Secret: "s3cret", Expiration: "1h"})
	require.NoError(t, err)

	issuer.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	token, _, err := issuer.Issue(RoleAdmin)
	require.NoError(t, err)

	issuer.now = time.Now
	_, err = issuer.Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
