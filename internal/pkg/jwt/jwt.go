package jwt

import (
	"errors"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims carried by both token kinds. Access tokens carry the role,
// refresh tokens only the user id.
type Claims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role,omitempty"`
	jwtlib.RegisteredClaims
}

func GenerateAccessToken(userID, role string, secret []byte, ttl time.Duration) (string, error) {
	return generate(Claims{UserID: userID, Role: role}, secret, ttl)
}

func GenerateRefreshToken(userID string, secret []byte, ttl time.Duration) (string, error) {
	return generate(Claims{UserID: userID}, secret, ttl)
}

func generate(claims Claims, secret []byte, ttl time.Duration) (string, error) {
	// The jti makes every issuance distinct even within the same second,
	// otherwise rotating a refresh token could re-issue the same bytes.
	claims.RegisteredClaims = jwtlib.RegisteredClaims{
		ID:        uuid.NewString(),
		ExpiresAt: jwtlib.NewNumericDate(time.Now().Add(ttl)),
		IssuedAt:  jwtlib.NewNumericDate(time.Now()),
	}
	token := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

func ParseToken(tokenString string, secret []byte) (*Claims, error) {
	token, err := jwtlib.ParseWithClaims(tokenString, &Claims{}, func(token *jwtlib.Token) (interface{}, error) {
		if token.Method.Alg() != jwtlib.SigningMethodHS256.Alg() {
			return nil, errors.New("unexpected signing method")
		}
		return secret, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}
