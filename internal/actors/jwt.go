package actors

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/bmarket-ims/bmarket/internal/shared"
)

// Claims carries the actor identity the engine trusts on every call.
type Claims struct {
	ActorID uuid.UUID   `json:"actor_id"`
	Role    shared.Role `json:"role"`
	Email   string      `json:"email"`
	jwt.RegisteredClaims
}

// GenerateToken signs a token for the employee.
func GenerateToken(secret string, emp Employee, ttl time.Duration) (string, error) {
	claims := Claims{
		ActorID: emp.ID,
		Role:    emp.Role,
		Email:   emp.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ValidateToken parses and verifies a token. Tokens with a missing or
// unknown role claim fail closed: identity resolution problems never
// degrade into a default role.
func ValidateToken(secret, tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	if claims.ActorID == uuid.Nil || !claims.Role.Valid() {
		return nil, fmt.Errorf("token missing actor identity")
	}
	return claims, nil
}
