package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/myatthu/stallkeeper/internal/core/domain"
	"github.com/myatthu/stallkeeper/internal/port"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrWeakPassword       = errors.New("password must be at least 8 characters")
	ErrUnauthorized       = errors.New("unauthorized")
)

// SessionClaims binds a token to a revocable session record, so logout
// invalidates the token before its expiry.
type SessionClaims struct {
	UserID    string `json:"uid"`
	SessionID string `json:"sid"`
	jwt.StandardClaims
}

type AuthService struct {
	users    port.UserRepository
	cache    port.CacheRepository
	secret   []byte
	tokenTTL time.Duration
	logger   *logrus.Logger
}

func NewAuthService(users port.UserRepository, cache port.CacheRepository, secret string, tokenTTL time.Duration, logger *logrus.Logger) *AuthService {
	return &AuthService{
		users:    users,
		cache:    cache,
		secret:   []byte(secret),
		tokenTTL: tokenTTL,
		logger:   logger,
	}
}

func (s *AuthService) Signup(ctx context.Context, email, password string) (*domain.User, error) {
	if err := validate.Var(email, "required,email"); err != nil {
		return nil, ErrInvalidEmail
	}
	if len(password) < 8 {
		return nil, ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := domain.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	return &user, nil
}

// Login verifies credentials, records a live session and returns a signed
// token carrying the session id.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		return "", nil, err
	}
	if user == nil {
		return "", nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", nil, ErrInvalidCredentials
	}

	sessionID := uuid.NewString()
	if err := s.cache.StoreSession(ctx, sessionID, user.ID, s.tokenTTL); err != nil {
		return "", nil, fmt.Errorf("store session: %w", err)
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &SessionClaims{
		UserID:    user.ID,
		SessionID: sessionID,
		StandardClaims: jwt.StandardClaims{
			ExpiresAt: now.Add(s.tokenTTL).Unix(),
			IssuedAt:  now.Unix(),
		},
	})

	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", nil, fmt.Errorf("sign token: %w", err)
	}

	return signed, user, nil
}

func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	return s.cache.DeleteSession(ctx, sessionID)
}

// Authenticate validates a bearer token and requires its session to still
// be live, returning the caller's user and session ids.
func (s *AuthService) Authenticate(ctx context.Context, tokenString string) (userID, sessionID string, err error) {
	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return "", "", ErrUnauthorized
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok {
		return "", "", ErrUnauthorized
	}

	uid, live, err := s.cache.SessionUser(ctx, claims.SessionID)
	if err != nil {
		return "", "", fmt.Errorf("session lookup: %w", err)
	}
	if !live || uid != claims.UserID {
		return "", "", ErrUnauthorized
	}

	return claims.UserID, claims.SessionID, nil
}
