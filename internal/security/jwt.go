package security

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt"
)

// JWTSigner issues and verifies HS256 access tokens whose subject is the
// username.
type JWTSigner struct {
	secret    []byte
	issuer    string
	ttl       time.Duration
	clockSkew time.Duration
}

func NewJWTSigner(secret, issuer string, ttl, clockSkew time.Duration) *JWTSigner {
	return &JWTSigner{
		secret:    []byte(secret),
		issuer:    issuer,
		ttl:       ttl,
		clockSkew: clockSkew,
	}
}

func (s *JWTSigner) TTL() time.Duration {
	return s.ttl
}

type AccessClaims struct {
	jwt.StandardClaims
	Username string `json:"username"`
}

func (s *JWTSigner) SignAccessToken(username string, now time.Time) (string, error) {
	claims := AccessClaims{
		StandardClaims: jwt.StandardClaims{
			Subject:   username,
			Issuer:    s.issuer,
			IssuedAt:  now.Unix(),
			NotBefore: now.Add(-s.clockSkew).Unix(),
		},
		Username: username,
	}
	if s.ttl > 0 {
		claims.ExpiresAt = now.Add(s.ttl).Unix()
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	return token.SignedString(s.secret)
}

// ParseAndValidate checks signature, issuer and time claims, allowing
// clockSkew on nbf/exp.
func (s *JWTSigner) ParseAndValidate(tokenStr string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	parser := &jwt.Parser{SkipClaimsValidation: true}
	token, err := parser.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	if s.issuer != "" && !claims.VerifyIssuer(s.issuer, true) {
		return nil, ErrInvalidIssuer
	}

	now := time.Now()
	if claims.NotBefore != 0 && now.Before(time.Unix(claims.NotBefore, 0).Add(-s.clockSkew)) {
		return nil, ErrTokenExpired
	}
	if claims.ExpiresAt != 0 && now.After(time.Unix(claims.ExpiresAt, 0).Add(s.clockSkew)) {
		return nil, ErrTokenExpired
	}

	return claims, nil
}

// Principal returns the username carried by the token.
func Principal(claims *AccessClaims) (string, error) {
	if claims == nil {
		return "", ErrInvalidSubject
	}
	name := strings.TrimSpace(claims.Username)
	if name == "" {
		name = strings.TrimSpace(claims.Subject)
	}
	if name == "" {
		return "", ErrInvalidSubject
	}
	return name, nil
}
