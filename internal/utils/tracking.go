package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidTrackingToken covers bad signatures, expiry and malformed claims.
var ErrInvalidTrackingToken = errors.New("invalid tracking token")

const trackingAudience = "order-tracking"

// TrackingClaims identify one order for anonymous tracking.  The email is
// carried so the lookup keeps requiring an exact id+email match.
type TrackingClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// NewTrackingToken signs an HS256 link token for an order.
func NewTrackingToken(secret, orderID, email string, ttl time.Duration) (string, time.Time, error) {
	now := time.Now().UTC()
	exp := now.Add(ttl)
	claims := TrackingClaims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   orderID,
			Audience:  jwt.ClaimStrings{trackingAudience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// ParseTrackingToken verifies a link token and returns the order id and
// email it was issued for.
func ParseTrackingToken(secret, raw string) (orderID, email string, err error) {
	var claims TrackingClaims
	tok, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(trackingAudience),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !tok.Valid || claims.Subject == "" || claims.Email == "" {
		return "", "", ErrInvalidTrackingToken
	}
	return claims.Subject, claims.Email, nil
}
