package auth

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	errs "github.com/frahmantamala/storefront/internal"
	"github.com/golang-jwt/jwt/v5"
)

// ResetTokenBytes is the amount of randomness in a reset token (56 hex characters).
const ResetTokenBytes = 28

// TokenGenerator signs and verifies session credentials and mints reset tokens.
type TokenGenerator interface {
	SignSession(principalID string) (string, error)
	VerifySession(token string) (principalID string, err error)
	GenerateResetToken() (ResetToken, error)
}

// Claims is the payload of a session token.
type Claims struct {
	UserID string `json:"userId"`
	jwt.RegisteredClaims
}

type ResetToken struct {
	Value     string
	ExpiresAt time.Time
}

type JWTTokenGenerator struct {
	Secret        []byte
	SessionTTL    time.Duration
	ResetTokenTTL time.Duration
	Now           func() time.Time
}

func NewJWTTokenGenerator(secret string, sessionTTL, resetTokenTTL time.Duration) *JWTTokenGenerator {
	return &JWTTokenGenerator{
		Secret:        []byte(secret),
		SessionTTL:    sessionTTL,
		ResetTokenTTL: resetTokenTTL,
		Now:           time.Now,
	}
}

func (j *JWTTokenGenerator) now() time.Time {
	if j.Now == nil {
		return time.Now()
	}
	return j.Now()
}

// SignSession creates an HS256 token over the principal id with an explicit exp claim.
func (j *JWTTokenGenerator) SignSession(principalID string) (string, error) {
	if principalID == "" {
		return "", errors.New("principal id is required")
	}
	issuedAt := j.now()

	claims := &Claims{
		UserID: principalID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(j.SessionTTL)),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			Subject:   principalID,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(j.Secret)
}

// VerifySession returns the principal id embedded in a valid token.
func (j *JWTTokenGenerator) VerifySession(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return j.Secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(j.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", errs.ErrTokenExpired
		}
		return "", errs.ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == "" {
		return "", errs.ErrInvalidToken
	}
	return claims.UserID, nil
}

// GenerateResetToken returns a hex-encoded random token and its expiry.
func (j *JWTTokenGenerator) GenerateResetToken() (ResetToken, error) {
	buf := make([]byte, ResetTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return ResetToken{}, err
	}
	return ResetToken{
		Value:     hex.EncodeToString(buf),
		ExpiresAt: j.now().Add(j.ResetTokenTTL),
	}, nil
}
