package lingopipe

import (
	"time"

	"github.com/golang-jwt/jwt/v4"
)

const tokenTTL = 10 * time.Minute

// WSToken is a short-lived bearer token attached to the websocket dial
// request when an API key is configured.
type WSToken struct {
	Token     string
	ExpiresAt int64 // Unix timestamp in milliseconds
}

// Expired reports whether the token is past its expiry.
func (t *WSToken) Expired() bool {
	return time.Now().UnixMilli() > t.ExpiresAt
}

// GenerateWSToken signs an HS256 token from the API key, scoped to one
// session.
func GenerateWSToken(apiKey, sessionID string) (*WSToken, *Error) {
	if apiKey == "" {
		return nil, NewAuthError("API key not set")
	}

	expiresAt := time.Now().Add(tokenTTL)
	claims := jwt.MapClaims{
		"exp": expiresAt.Unix(),
		"iat": time.Now().Unix(),
	}
	if sessionID != "" {
		claims["session_id"] = sessionID
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(apiKey))
	if err != nil {
		return nil, WrapError(err, ErrCodeAuthFailed)
	}

	return &WSToken{Token: signed, ExpiresAt: expiresAt.UnixMilli()}, nil
}
