package auth

import (
	"testing"
	"time"

	"github.com/dmehra2102/prod-golang-projects/optiflow/config"
	"github.com/dmehra2102/prod-golang-projects/optiflow/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testManager(ttl time.Duration) *JWTManager {
	return NewJWTManager(config.JWTConfig{
		Secret:          "a-test-secret-that-is-long-enough-123",
		AccessTokenTTL:  ttl,
		RefreshTokenTTL: time.Hour,
		Issuer:          "optiflow-test",
	})
}

func TestTokenPair_RoundTrip(t *testing.T) {
	m := testManager(15 * time.Minute)
	patientID := uuid.New()
	in := &domain.Claims{UserID: uuid.New(), Email: "thabo@example.com", Role: domain.RolePatient, PatientID: &patientID}

	pair, err := m.GenerateTokenPair(in)
	require.NoError(t, err)
	assert.Equal(t, "Bearer", pair.TokenType)

	out, err := m.ValidateAccessToken(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, in.UserID, out.UserID)
	assert.Equal(t, in.Role, out.Role)
	require.NotNil(t, out.PatientID)
	assert.Equal(t, patientID, *out.PatientID)
	assert.Nil(t, out.DoctorID)

	refreshed, err := m.ValidateRefreshToken(pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, in.Email, refreshed.Email)
}

func TestValidate_TypeMismatch(t *testing.T) {
	m := testManager(15 * time.Minute)
	pair, err := m.GenerateTokenPair(&domain.Claims{UserID: uuid.New(), Role: domain.RoleAdmin})
	require.NoError(t, err)

	_, err = m.ValidateAccessToken(pair.RefreshToken)
	assert.ErrorIs(t, err, ErrTokenTypeMismatch)
	_, err = m.ValidateRefreshToken(pair.AccessToken)
	assert.ErrorIs(t, err, ErrTokenTypeMismatch)
}

func TestValidate_Expired(t *testing.T) {
	m := testManager(-time.Minute)
	pair, err := m.GenerateTokenPair(&domain.Claims{UserID: uuid.New(), Role: domain.RoleDoctor})
	require.NoError(t, err)

	_, err = m.ValidateAccessToken(pair.AccessToken)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestValidate_WrongSecretOrIssuer(t *testing.T) {
	pair, err := testManager(time.Minute).GenerateTokenPair(&domain.Claims{UserID: uuid.New(), Role: domain.RoleAdmin})
	require.NoError(t, err)

	other := NewJWTManager(config.JWTConfig{Secret: "another-secret-of-sufficient-length!", Issuer: "optiflow-test", AccessTokenTTL: time.Minute})
	_, err = other.ValidateAccessToken(pair.AccessToken)
	assert.ErrorIs(t, err, ErrTokenInvalid)

	otherIssuer := NewJWTManager(config.JWTConfig{Secret: "a-test-secret-that-is-long-enough-123", Issuer: "someone-else", AccessTokenTTL: time.Minute})
	_, err = otherIssuer.ValidateAccessToken(pair.AccessToken)
	assert.ErrorIs(t, err, ErrTokenInvalid)

	_, err = other.ValidateAccessToken("not-a-jwt")
	assert.ErrorIs(t, err, ErrTokenInvalid)
}
