package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

type contextKey string

const sessionIDKey contextKey = "tryonSessionID"

// SessionHeader lets anonymous kiosks identify their session.
const SessionHeader = "X-Session-ID"

// GetSessionID retrieves the session identity from context.
func GetSessionID(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	if value, ok := ctx.Value(sessionIDKey).(string); ok && value != "" {
		return value, true
	}
	return "", false
}

// WithSessionID stores a session identity on ctx.
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, sessionIDKey, sessionID)
}

// SessionMiddleware resolves the caller's session identity. With a secret,
// a valid HMAC bearer token is required and its subject is the session.
// Without one, the X-Session-ID header is used, falling back to the client IP.
func SessionMiddleware(secret, audience string) gin.HandlerFunc {
	secret = strings.TrimSpace(secret)
	audience = strings.TrimSpace(audience)

	return func(c *gin.Context) {
		var sessionID string
		if secret == "" {
			sessionID = strings.TrimSpace(c.GetHeader(SessionHeader))
			if sessionID == "" {
				sessionID = "ip:" + c.ClientIP()
			}
		} else {
			subject, err := verifyToken(c.Request.Header.Get("Authorization"), secret, audience)
			if err != nil {
				unauthorized(c, err.Error())
				return
			}
			sessionID = "sub:" + subject
		}

		c.Request = c.Request.WithContext(WithSessionID(c.Request.Context(), sessionID))
		c.Set(string(sessionIDKey), sessionID)

		c.Next()
	}
}

func verifyToken(header, secret, audience string) (string, error) {
	tokenString, err := extractBearerToken(header)
	if err != nil {
		return "", err
	}

	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return "", errors.New("invalid token")
	}

	if audience != "" && !containsAudience(claims.Audience, audience) {
		return "", errors.New("invalid audience")
	}
	if claims.Subject == "" {
		return "", errors.New("missing subject")
	}
	return claims.Subject, nil
}

func extractBearerToken(header string) (string, error) {
	if header == "" {
		return "", errors.New("authorization header required")
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", errors.New("invalid authorization header")
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", errors.New("token missing")
	}
	return token, nil
}

func unauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": message})
}

func containsAudience(claims jwt.ClaimStrings, expected string) bool {
	for _, aud := range claims {
		if aud == expected {
			return true
		}
	}
	return false
}
