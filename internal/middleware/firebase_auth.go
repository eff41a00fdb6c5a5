package middleware

import (
	"context"
	"errors"
	"net/http"

	"firebase.google.com/go/v4/auth"
	"github.com/anonto42/syrena/backend/internal/models"
	"github.com/anonto42/syrena/backend/internal/repositories"
	"github.com/labstack/echo/v4"
)

// IDTokenVerifier is the part of *auth.Client used to check ID tokens.
type IDTokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

// UserByFirebaseUID resolves a Firebase UID to a local profile.
type UserByFirebaseUID interface {
	GetUserByFirebaseUID(ctx context.Context, firebaseUID string) (*models.User, error)
}

// FirebaseAuthMiddleware verifies Firebase ID tokens and resolves the
// caller to a local user once per request.
func FirebaseAuthMiddleware(verifier IDTokenVerifier, users UserByFirebaseUID) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			idToken, err := bearerToken(c)
			if err != nil {
				return reject("missing_token", err.Error())
			}

			ctx := c.Request().Context()
			token, err := verifier.VerifyIDToken(ctx, idToken)
			if err != nil {
				return reject("invalid_token", "Invalid or expired ID token")
			}

			user, err := users.GetUserByFirebaseUID(ctx, token.UID)
			if errors.Is(err, repositories.ErrUserNotFound) {
				return reject("unknown_user", "User not registered, call /auth/firebase-login first")
			}
			if err != nil {
				return echo.NewHTTPError(http.StatusServiceUnavailable, "Could not resolve user")
			}

			c.Set("firebaseUID", token.UID)
			c.Set(UserIDKey, user.ID)
			return next(c)
		}
	}
}
