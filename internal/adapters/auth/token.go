package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"congregate/internal/domain"
)

type principalClaims struct {
	jwt.RegisteredClaims
	Role      string   `json:"role"`
	TenantID  string   `json:"tenant_id"`
	ChurchIDs []string `json:"church_ids,omitempty"`
}

type jwtTokens struct {
	secret []byte
}

// NewJWTTokens returns a TokenIssuer and TokenVerifier pair signing principal
// tokens with HS256 and the given secret.
func NewJWTTokens(secret string) (domain.TokenIssuer, domain.TokenVerifier) {
	t := &jwtTokens{secret: []byte(secret)}
	return t, t
}

func (t *jwtTokens) Issue(p domain.Principal, expiry time.Duration) (string, error) {
	now := time.Now()
	claims := principalClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
		},
		Role:      string(p.Role),
		TenantID:  p.TenantID,
		ChurchIDs: p.ChurchIDs,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

func (t *jwtTokens) Verify(token string) (domain.Principal, error) {
	parsed, err := jwt.ParseWithClaims(token, &principalClaims{}, func(tok *jwt.Token) (any, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", tok.Header["alg"])
		}
		return t.secret, nil
	})
	if err != nil {
		return domain.Principal{}, fmt.Errorf("parse token: %w", err)
	}
	claims, ok := parsed.Claims.(*principalClaims)
	if !ok || !parsed.Valid {
		return domain.Principal{}, fmt.Errorf("invalid token claims")
	}
	p := domain.Principal{
		UserID:    claims.Subject,
		Role:      domain.Role(claims.Role),
		TenantID:  claims.TenantID,
		ChurchIDs: claims.ChurchIDs,
	}
	if p.UserID == "" || p.TenantID == "" || !p.Role.Valid() {
		return domain.Principal{}, fmt.Errorf("token missing principal claims")
	}
	return p, nil
}
