package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"
	"unicode"

	"firebase.google.com/go/v4/auth"
	"github.com/anonto42/syrena/backend/internal/models"
	"github.com/anonto42/syrena/backend/internal/repositories"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// IDTokenVerifier is the part of *auth.Client used by FirebaseLogin.
type IDTokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	userRepository repositories.UserRepository
	firebaseAuth   IDTokenVerifier // nil when Firebase is not configured
	jwtSecret      string
	jwtExpiry      time.Duration
	logger         *zap.Logger
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(userRepo repositories.UserRepository, firebaseAuth IDTokenVerifier, jwtSecret string, jwtExpiry time.Duration, logger *zap.Logger) *AuthHandler {
	if jwtExpiry <= 0 {
		jwtExpiry = 72 * time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthHandler{
		userRepository: userRepo,
		firebaseAuth:   firebaseAuth,
		jwtSecret:      jwtSecret,
		jwtExpiry:      jwtExpiry,
		logger:         logger,
	}
}

// RegisterAuthRoutes registers authentication-related routes
func (h *AuthHandler) RegisterAuthRoutes(g *echo.Group) {
	g.POST("/signup", h.Signup)
	g.POST("/signin", h.SignIn)
	if h.firebaseAuth != nil {
		g.POST("/firebase-login", h.FirebaseLogin)
	}
}

type tokenResponse struct {
	Token string             `json:"token"`
	User  models.UserCompact `json:"user"`
}

// Signup handles local user registration with email and password
func (h *AuthHandler) Signup(c echo.Context) error {
	var req models.CreateLocalUserRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to hash password")
	}

	user := &models.User{
		Username:    strings.ToLower(req.Username),
		DisplayName: req.DisplayName,
		Email:       strings.ToLower(req.Email),
		Password:    string(hashedPassword),
	}
	if err := h.userRepository.CreateUser(c.Request().Context(), user); err != nil {
		if errors.Is(err, repositories.ErrUserExists) {
			return echo.NewHTTPError(http.StatusConflict, "User with this email or username already registered")
		}
		return echo.NewHTTPError(http.StatusServiceUnavailable, "Could not create user").SetInternal(err)
	}
	h.logger.Info("user signed up", zap.Stringer("user_id", user.ID))

	return h.issue(c, http.StatusCreated, user)
}

// SignIn handles local user authentication with email and password
func (h *AuthHandler) SignIn(c echo.Context) error {
	var req models.SignInRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	user, err := h.userRepository.GetUserByEmail(c.Request().Context(), req.Email)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return echo.NewHTTPError(http.StatusUnauthorized, "Invalid email or password")
		}
		return echo.NewHTTPError(http.StatusServiceUnavailable, "Could not load user").SetInternal(err)
	}
	if user.Password == "" || bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)) != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid email or password")
	}

	return h.issue(c, http.StatusOK, user)
}

// FirebaseLoginRequest defines the request body for Firebase login
type FirebaseLoginRequest struct {
	IDToken string `json:"idToken" validate:"required"`
}

// FirebaseLogin verifies a Firebase ID token, links or creates the local
// user and issues a local JWT
func (h *AuthHandler) FirebaseLogin(c echo.Context) error {
	var req FirebaseLoginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	token, err := h.firebaseAuth.VerifyIDToken(ctx, req.IDToken)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid Firebase ID token")
	}

	uid := token.UID
	email, _ := token.Claims["email"].(string)
	name, _ := token.Claims["name"].(string)
	if email == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Firebase account has no email")
	}

	user, err := h.userRepository.GetUserByFirebaseUID(ctx, uid)
	switch {
	case err == nil:
	case errors.Is(err, repositories.ErrUserNotFound):
		user, err = h.linkOrCreate(ctx, uid, email, name)
		if err != nil {
			return err
		}
	default:
		return echo.NewHTTPError(http.StatusServiceUnavailable, "Could not load user").SetInternal(err)
	}

	return h.issue(c, http.StatusOK, user)
}

func (h *AuthHandler) linkOrCreate(ctx context.Context, uid, email, name string) (*models.User, error) {
	user, err := h.userRepository.GetUserByEmail(ctx, email)
	if err == nil {
		user.FirebaseUID = &uid
		if err := h.userRepository.UpdateUser(ctx, user); err != nil {
			return nil, echo.NewHTTPError(http.StatusServiceUnavailable, "Failed to link Firebase account").SetInternal(err)
		}
		return user, nil
	}
	if !errors.Is(err, repositories.ErrUserNotFound) {
		return nil, echo.NewHTTPError(http.StatusServiceUnavailable, "Could not load user").SetInternal(err)
	}

	user = &models.User{
		Username:    handleFromEmail(email),
		DisplayName: name,
		Email:       strings.ToLower(email),
		FirebaseUID: &uid,
	}
	if err := h.userRepository.CreateUser(ctx, user); err != nil {
		return nil, echo.NewHTTPError(http.StatusServiceUnavailable, "Failed to create user").SetInternal(err)
	}
	h.logger.Info("user created from firebase", zap.Stringer("user_id", user.ID))
	return user, nil
}

// handleFromEmail derives an alphanumeric handle plus a short random suffix.
func handleFromEmail(email string) string {
	local := email
	if i := strings.IndexByte(email, '@'); i > 0 {
		local = email[:i]
	}
	var b strings.Builder
	for _, r := range strings.ToLower(local) {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			b.WriteRune(r)
		}
		if b.Len() == 21 {
			break
		}
	}
	if b.Len() < 3 {
		b.WriteString("user")
	}
	return b.String() + strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

func (h *AuthHandler) issue(c echo.Context, status int, user *models.User) error {
	token, err := h.generateJWT(user)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to generate token")
	}
	return c.JSON(status, tokenResponse{Token: token, User: user.ToCompact()})
}

// generateJWT generates a JWT token for a given user
func (h *AuthHandler) generateJWT(user *models.User) (string, error) {
	now := time.Now()
	claims := &models.JwtCustomClaims{
		UserID: user.ID.String(),
		Email:  user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(h.jwtExpiry)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(h.jwtSecret))
}
