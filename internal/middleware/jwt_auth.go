package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/anonto42/syrena/backend/internal/metrics"
	"github.com/anonto42/syrena/backend/internal/models"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

// UserIDKey is the echo context key holding the caller's uuid.UUID.
const UserIDKey = "userID"

// bearerToken reads "Authorization: Bearer <token>". Websocket upgrades may
// send the token query parameter instead; other requests may not.
func bearerToken(c echo.Context) (string, error) {
	authHeader := c.Request().Header.Get("Authorization")
	if authHeader == "" {
		if token := c.QueryParam("token"); token != "" && websocket.IsWebSocketUpgrade(c.Request()) {
			return token, nil
		}
		return "", errors.New("Missing Authorization header")
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return "", errors.New("Invalid Authorization header format")
	}
	return parts[1], nil
}

func reject(reason, message string) error {
	metrics.AuthRejections.WithLabelValues(reason).Inc()
	return echo.NewHTTPError(http.StatusUnauthorized, message)
}

// JWTAuthMiddleware checks for a valid HS256 JWT and stores the caller's ID.
func JWTAuthMiddleware(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			tokenString, err := bearerToken(c)
			if err != nil {
				return reject("missing_token", err.Error())
			}

			claims := &models.JwtCustomClaims{}
			token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, errors.New("unexpected signing method")
				}
				return []byte(secret), nil
			})
			if err != nil || !token.Valid {
				if errors.Is(err, jwt.ErrTokenExpired) {
					return reject("expired_token", "Token expired")
				}
				return reject("invalid_token", "Invalid token")
			}

			userID, err := uuid.Parse(claims.UserID)
			if err != nil {
				return reject("invalid_subject", "Invalid token")
			}

			c.Set("user", claims)
			c.Set(UserIDKey, userID)
			return next(c)
		}
	}
}

// UserID returns the identity stored by the auth middleware.
func UserID(c echo.Context) (uuid.UUID, bool) {
	id, ok := c.Get(UserIDKey).(uuid.UUID)
	return id, ok && id != uuid.Nil
}
