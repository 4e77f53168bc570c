package session

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/syrilster/leave-lop-console/internal/ledger"
	"github.com/syrilster/leave-lop-console/internal/model"
	"github.com/syrilster/leave-lop-console/internal/storage"
)

const (
	TokenKey = "authToken"

	defaultInitTimeout = 10 * time.Second
	loginFailedMsg     = "Login failed"
	invalidInputMsg    = "Please enter a valid email and password"
)

// ErrUnauthenticated is returned by every authenticated capability while the session is empty.
var ErrUnauthenticated = errors.New("no authenticated session")

// AuthError is a login failure carrying a message fit for the user.
type AuthError struct {
	Message string
	Err     error
}

func (e *AuthError) Error() string {
	return e.Message
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// Authenticator is the part of the ledger the session talks to.
type Authenticator interface {
	Login(ctx context.Context, email string, password string) (*model.TokenResponse, error)
	CurrentUser(ctx context.Context, token string) (*model.User, error)
}

type credentials struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required"`
}

type storedToken struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
}

// Store is the only writer of the session token and identity.
type Store struct {
	mu       sync.RWMutex
	token    string
	identity *model.User

	client      Authenticator
	blobs       storage.BlobStore
	validate    *validator.Validate
	initTimeout time.Duration
	now         func() time.Time
}

func NewStore(client Authenticator, blobs storage.BlobStore) *Store {
	return &Store{
		client:      client,
		blobs:       blobs,
		validate:    validator.New(),
		initTimeout: defaultInitTimeout,
		now:         time.Now,
	}
}

// Initialize restores a previously stored token if the ledger still accepts it.
// It always returns; any failure leaves the session empty and the stored token removed.
func (s *Store) Initialize(ctx context.Context) {
	ctxLogger := log.WithContext(ctx)

	token, ok := s.loadToken(ctx)
	if !ok {
		return
	}

	if tokenExpired(token, s.now()) {
		ctxLogger.Info("Stored token has expired, discarding it")
		s.deleteStored(ctx)
		return
	}

	ctx, cancel := context.WithTimeout(ctx, s.initTimeout)
	defer cancel()

	user, err := s.client.CurrentUser(ctx, token)
	if err != nil {
		ctxLogger.WithError(err).Warn("Token validation failed")
		s.deleteStored(ctx)
		return
	}

	s.mu.Lock()
	s.token = token
	s.identity = user
	s.mu.Unlock()
	ctxLogger.Infof("Restored session for employee %v", user.EmployeeID)
}

// Login exchanges credentials for a token. Callers serialize logins.
func (s *Store) Login(ctx context.Context, email string, password string) error {
	ctxLogger := log.WithContext(ctx)

	if err := s.validate.Struct(credentials{Email: email, Password: password}); err != nil {
		return &AuthError{Message: invalidInputMsg, Err: err}
	}

	resp, err := s.client.Login(ctx, email, password)
	if err != nil {
		ctxLogger.WithError(err).Error("Login error")
		return &AuthError{Message: ledger.UserMessage(err, loginFailedMsg), Err: err}
	}

	file, err := json.Marshal(storedToken{AccessToken: resp.AccessToken, RefreshToken: resp.RefreshToken})
	if err == nil {
		err = s.blobs.Put(TokenKey, file)
	}
	if err != nil {
		// the session still works for this process, it just will not survive a restart
		ctxLogger.WithError(err).Error("Error writing token to store")
	}

	user := resp.UserInfo
	s.mu.Lock()
	s.token = resp.AccessToken
	s.identity = &user
	s.mu.Unlock()
	return nil
}

// Logout clears the session. Calling it on an empty session is a no-op.
func (s *Store) Logout(ctx context.Context) {
	s.mu.Lock()
	s.token = ""
	s.identity = nil
	s.mu.Unlock()

	s.deleteStored(ctx)
}

func (s *Store) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token != ""
}

// Token is the authenticated-request capability handed to the other components.
func (s *Store) Token() (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.token == "" {
		return "", ErrUnauthenticated
	}
	return s.token, nil
}

func (s *Store) Identity() (model.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.identity == nil {
		return model.User{}, false
	}
	return *s.identity, true
}

func (s *Store) loadToken(ctx context.Context) (string, bool) {
	ctxLogger := log.WithContext(ctx)

	data, err := s.blobs.Get(TokenKey)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			ctxLogger.WithError(err).Warn("Error reading stored token")
		}
		return "", false
	}

	var stored storedToken
	if err := json.Unmarshal(data, &stored); err != nil || stored.AccessToken == "" {
		ctxLogger.Warn("Stored token is unreadable, discarding it")
		s.deleteStored(ctx)
		return "", false
	}
	return stored.AccessToken, true
}

func (s *Store) deleteStored(ctx context.Context) {
	if err := s.blobs.Delete(TokenKey); err != nil {
		log.WithContext(ctx).WithError(err).Warn("Error removing stored token")
	}
}

// tokenExpired reports whether token is a JWT whose exp claim has passed. Opaque
// tokens and JWTs without exp are left for the ledger to judge.
func tokenExpired(token string, now time.Time) bool {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return false
	}
	if claims.ExpiresAt == nil {
		return false
	}
	return !claims.ExpiresAt.After(now)
}
