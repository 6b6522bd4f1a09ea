package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"

	"github.com/daap14/secrets/internal/user"
)

// MaxUsernameLength bounds accepted usernames.
const MaxUsernameLength = 255

// MaxPasswordBytes is the longest password bcrypt accepts.
const MaxPasswordBytes = 72

// Service verifies credentials against the user store.
type Service struct {
	users      user.Repository
	bcryptCost int

	dummyOnce sync.Once
	dummyHash []byte
}

// NewService creates a new auth Service.
func NewService(users user.Repository, bcryptCost int) *Service {
	return &Service{
		users:      users,
		bcryptCost: bcryptCost,
	}
}

// NormalizeUsername trims surrounding whitespace. Registration and login
// apply the same normalization so a registered pair always authenticates.
func NormalizeUsername(username string) string {
	return strings.TrimSpace(username)
}

func checkLocalInput(username, password string) error {
	if username == "" || password == "" {
		return fmt.Errorf("%w: username and password are required", ErrInvalidInput)
	}
	if len(username) > MaxUsernameLength {
		return fmt.Errorf("%w: username too long", ErrInvalidInput)
	}
	if len(password) > MaxPasswordBytes {
		return fmt.Errorf("%w: password too long", ErrInvalidInput)
	}
	return nil
}

// RegisterLocal creates a local account with a bcrypt-hashed password.
// Uniqueness is enforced by the store, so concurrent registrations of the
// same username yield exactly one user.
func (s *Service) RegisterLocal(ctx context.Context, username, password string) (*user.User, error) {
	username = NormalizeUsername(username)
	if err := checkLocalInput(username, password); err != nil {
		return nil, err
	}

	hashBytes, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}
	hash := string(hashBytes)

	u := &user.User{
		Username:     &username,
		PasswordHash: &hash,
	}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, user.ErrUsernameTaken) {
			return nil, ErrDuplicateUsername
		}
		return nil, storeError("creating user", err)
	}

	slog.Info("local account registered", "userId", u.ID)
	return u, nil
}

// AuthenticateLocal resolves a username/password pair to its user.
func (s *Service) AuthenticateLocal(ctx context.Context, username, password string) (*user.User, error) {
	username = NormalizeUsername(username)
	if err := checkLocalInput(username, password); err != nil {
		return nil, err
	}

	u, err := s.users.Find(ctx, user.ByUsername(username))
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			s.burnCompare(password)
			return nil, ErrNotFound
		}
		return nil, storeError("finding user", err)
	}

	if u.PasswordHash == nil {
		// Username set but no password: not a local account.
		s.burnCompare(password)
		return nil, ErrInvalidCredential
	}

	if err := bcrypt.CompareHashAndPassword([]byte(*u.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredential
	}

	return u, nil
}

// FindOrCreateFederated returns the user linked to the Google subject id,
// creating one with only that field set on first login.
func (s *Service) FindOrCreateFederated(ctx context.Context, googleID string) (*user.User, bool, error) {
	if googleID == "" {
		return nil, false, fmt.Errorf("%w: external id is required", ErrInvalidInput)
	}

	u, created, err := s.users.FindOrCreate(ctx, user.ByGoogleID(googleID), func() *user.User {
		return &user.User{}
	})
	if err != nil {
		return nil, false, storeError("finding or creating federated user", err)
	}

	if created {
		slog.Info("federated account created", "userId", u.ID, "provider", ProviderGoogle)
	}
	return u, created, nil
}

// burnCompare spends roughly the time of a real comparison so unknown
// usernames are not distinguishable by latency.
func (s *Service) burnCompare(password string) {
	s.dummyOnce.Do(func() {
		hash, err := bcrypt.GenerateFromPassword([]byte("not-a-real-password"), s.bcryptCost)
		if err != nil {
			slog.Warn("failed to prepare dummy hash", "error", err)
			return
		}
		s.dummyHash = hash
	})
	if s.dummyHash != nil {
		_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
	}
}
