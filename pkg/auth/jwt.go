package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmehra2102/prod-golang-projects/optiflow/config"
	"github.com/dmehra2102/prod-golang-projects/optiflow/internal/domain"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Clock drift tolerated between the API hosts when checking exp and nbf.
const clockSkew = 10 * time.Second

type tokenKind string

const (
	kindAccess  tokenKind = "access"
	kindRefresh tokenKind = "refresh"
)

var (
	ErrTokenExpired      = errors.New("token has expired")
	ErrTokenInvalid      = errors.New("token is invalid")
	ErrTokenTypeMismatch = errors.New("wrong token type")
)

type practiceClaims struct {
	jwt.RegisteredClaims
	Email     string     `json:"email"`
	Role      string     `json:"role"`
	DoctorID  *uuid.UUID `json:"doctor_id,omitempty"`
	PatientID *uuid.UUID `json:"patient_id,omitempty"`
	Kind      tokenKind  `json:"token_type"`
}

func (c *practiceClaims) toDomain() (*domain.Claims, error) {
	userID, err := uuid.Parse(c.Subject)
	if err != nil {
		return nil, ErrTokenInvalid
	}
	role := domain.Role(c.Role)
	if !role.IsValid() {
		return nil, ErrTokenInvalid
	}
	return &domain.Claims{
		UserID:    userID,
		Email:     c.Email,
		Role:      role,
		DoctorID:  c.DoctorID,
		PatientID: c.PatientID,
	}, nil
}

// JWTManager signs and verifies the HS256 access/refresh pair handed out by
// the auth endpoints.
type JWTManager struct {
	key        []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	parser     *jwt.Parser
}

func NewJWTManager(cfg config.JWTConfig) *JWTManager {
	return &JWTManager{
		key:        []byte(cfg.Secret),
		issuer:     cfg.Issuer,
		accessTTL:  cfg.AccessTokenTTL,
		refreshTTL: cfg.RefreshTokenTTL,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithIssuer(cfg.Issuer),
			jwt.WithExpirationRequired(),
			jwt.WithLeeway(clockSkew),
		),
	}
}

func (m *JWTManager) GenerateTokenPair(claims *domain.Claims) (*domain.TokenPair, error) {
	now := time.Now()

	access, err := m.issue(claims, kindAccess, now, m.accessTTL)
	if err != nil {
		return nil, fmt.Errorf("signing access token: %w", err)
	}
	refresh, err := m.issue(claims, kindRefresh, now, m.refreshTTL)
	if err != nil {
		return nil, fmt.Errorf("signing refresh token: %w", err)
	}

	return &domain.TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    now.Add(m.accessTTL),
		TokenType:    "Bearer",
	}, nil
}

func (m *JWTManager) ValidateAccessToken(raw string) (*domain.Claims, error) {
	return m.verify(raw, kindAccess)
}

func (m *JWTManager) ValidateRefreshToken(raw string) (*domain.Claims, error) {
	return m.verify(raw, kindRefresh)
}

func (m *JWTManager) issue(claims *domain.Claims, kind tokenKind, now time.Time, ttl time.Duration) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, practiceClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    m.issuer,
			Subject:   claims.UserID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Email:     claims.Email,
		Role:      string(claims.Role),
		DoctorID:  claims.DoctorID,
		PatientID: claims.PatientID,
		Kind:      kind,
	}).SignedString(m.key)
}

func (m *JWTManager) verify(raw string, want tokenKind) (*domain.Claims, error) {
	var pc practiceClaims
	if _, err := m.parser.ParseWithClaims(raw, &pc, func(*jwt.Token) (any, error) { return m.key, nil }); err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}
	if pc.Kind != want {
		return nil, ErrTokenTypeMismatch
	}
	return pc.toDomain()
}
