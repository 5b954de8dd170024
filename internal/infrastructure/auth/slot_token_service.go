package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/you/taskconsole/domain"
)

// SlotTokenServiceImpl implements domain.SlotTokenService.
// The token only names a slot; it carries no user identity.
type SlotTokenServiceImpl struct {
	secretKey []byte
	issuer    string
	ttl       time.Duration
	nowFn     func() time.Time
}

// NewSlotTokenService creates a new slot token service
func NewSlotTokenService(secretKey, issuer string, ttl time.Duration) *SlotTokenServiceImpl {
	return &SlotTokenServiceImpl{
		secretKey: []byte(secretKey),
		issuer:    issuer,
		ttl:       ttl,
		nowFn:     time.Now,
	}
}

// Issue implements domain.SlotTokenService
func (s *SlotTokenServiceImpl) Issue(slotID string) (string, error) {
	if slotID == "" {
		return "", domain.ErrTokenInvalid
	}
	now := s.nowFn()
	claims := jwt.RegisteredClaims{
		Subject:   slotID,
		Issuer:    s.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secretKey)
}

// Validate implements domain.SlotTokenService and returns the slot id
func (s *SlotTokenServiceImpl) Validate(tokenString string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, domain.ErrTokenMalformed
		}
		return s.secretKey, nil
	},
		jwt.WithIssuer(s.issuer),
		jwt.WithTimeFunc(s.nowFn),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return "", domain.ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenMalformed):
		return "", domain.ErrTokenMalformed
	case err != nil, !token.Valid:
		return "", domain.ErrTokenInvalid
	}

	if claims.Subject == "" {
		return "", domain.ErrTokenMalformed
	}
	return claims.Subject, nil
}
