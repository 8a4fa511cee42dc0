package membership

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// JWTCodec implements TokenCodec with HMAC signed JWTs
type JWTCodec struct {
	method jwt.SigningMethod
	secret []byte
}

var _ TokenCodec = (*JWTCodec)(nil)

// NewJWTCodec creates a codec from an "algorithm:secret" pair,
// e.g. "HS256:my-secret".
func NewJWTCodec(pair string) (*JWTCodec, error) {
	alg, secret, err := SplitJwtSecret(pair)
	if err != nil {
		return nil, err
	}

	method, ok := jwt.GetSigningMethod(alg).(*jwt.SigningMethodHMAC)
	if !ok || method == nil {
		return nil, errors.New(fmt.Sprintf("unsupported token algorithm: %s", alg), errors.CategoryValidation).
			WithTextCode(TextCodeInvalidConfig).
			WithCode(errors.CodeBadRequest)
	}

	return &JWTCodec{
		method: method,
		secret: []byte(secret),
	}, nil
}

// Algorithm returns the signing algorithm name
func (c *JWTCodec) Algorithm() string {
	return c.method.Alg()
}

// Encode signs a token for subject
func (c *JWTCodec) Encode(subject string, issuedAt, expiresAt time.Time) (string, error) {
	claims := jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(issuedAt),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}

	signed, err := jwt.NewWithClaims(c.method, claims).SignedString(c.secret)
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to sign token")
	}

	return signed, nil
}

// Decode verifies the signature and returns the token content. The
// expiry is reported, not enforced.
func (c *JWTCodec) Decode(token string) (TokenInfo, error) {
	if !IsStructuredToken(token) {
		return TokenInfo{}, ErrInvalidToken
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{c.method.Alg()}),
		jwt.WithoutClaimsValidation(),
	)

	claims := &jwt.RegisteredClaims{}
	parsed, err := parser.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return c.secret, nil
	})
	if err != nil {
		return TokenInfo{}, errors.Wrap(err, ErrInvalidToken.Category, ErrInvalidToken.Message).
			WithTextCode(ErrInvalidToken.TextCode).
			WithCode(ErrInvalidToken.Code)
	}

	if !parsed.Valid {
		return TokenInfo{}, ErrInvalidToken
	}

	info := TokenInfo{Subject: claims.Subject}
	if claims.IssuedAt != nil {
		info.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		info.ExpiresAt = claims.ExpiresAt.Time
	}

	return info, nil
}

// IsStructuredToken reports whether s has the three dot separated
// segments of a compact JWT.
func IsStructuredToken(s string) bool {
	if s == "" {
		return false
	}
	return len(strings.Split(s, ".")) == 3
}
