package token

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Type discriminates access tokens from refresh tokens. Access tokens carry
// no TokenType claim; refresh tokens carry "Refresh".
type Type string

const (
	TypeAccess  Type = "Access"
	TypeRefresh Type = "Refresh"
)

const (
	defaultAccessTTL = 60 * time.Minute
	refreshTTL       = 7 * 24 * time.Hour
)

var (
	ErrInvalidSignature = errors.New("token: invalid token")
	ErrExpired          = errors.New("token: expired")
	ErrWrongTokenType   = errors.New("token: wrong token type")
)

// Config is fixed at process start. The signer never reads ambient state.
type Config struct {
	Secret    string
	Issuer    string
	Audience  string
	AccessTTL time.Duration
}

type Claims struct {
	UserID    string `json:"UserId"`
	Role      string `json:"role,omitempty"`
	TokenType string `json:"TokenType,omitempty"`
	jwt.RegisteredClaims
}

// UserIDInt returns the numeric user id embedded in the claims.
func (c *Claims) UserIDInt() (int64, error) {
	return strconv.ParseInt(c.UserID, 10, 64)
}

type Signer struct {
	secret    []byte
	issuer    string
	audience  string
	accessTTL time.Duration
	now       func() time.Time
}

func NewSigner(cfg Config) (*Signer, error) {
	if cfg.Secret == "" {
		return nil, errors.New("token: JWT_SECRET is required")
	}
	ttl := cfg.AccessTTL
	if ttl <= 0 {
		ttl = defaultAccessTTL
	}
	return &Signer{
		secret:    []byte(cfg.Secret),
		issuer:    cfg.Issuer,
		audience:  cfg.Audience,
		accessTTL: ttl,
		now:       time.Now,
	}, nil
}

func (s *Signer) IssueAccessToken(userID int64, role string) (string, error) {
	now := s.now()
	sub := strconv.FormatInt(userID, 10)
	claims := Claims{
		UserID: sub,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub,
			Issuer:    s.issuer,
			Audience:  jwt.ClaimStrings{s.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// IssueRefreshToken returns the signed token together with its expiry so the
// caller can persist both against the user. The jti claim keeps tokens
// rotated within the same second distinct.
func (s *Signer) IssueRefreshToken(userID int64) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(refreshTTL)
	sub := strconv.FormatInt(userID, 10)
	claims := Claims{
		UserID:    sub,
		TokenType: string(TypeRefresh),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub,
			Issuer:    s.issuer,
			Audience:  jwt.ClaimStrings{s.audience},
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// Verify enforces signing method, signature, lifetime, issuer and audience,
// then checks the TokenType discriminator against the expected type.
func (s *Signer) Verify(tokenStr string, expected Type) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithAudience(s.audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	if !parsed.Valid {
		return nil, ErrInvalidSignature
	}

	if expected == TypeRefresh {
		if claims.TokenType != string(TypeRefresh) {
			return nil, ErrWrongTokenType
		}
	} else if claims.TokenType == string(TypeRefresh) {
		return nil, ErrWrongTokenType
	}

	return claims, nil
}
