// Package auth is the credential boundary: registration hashes secrets with
// bcrypt, verification compares against the stored hash. Nothing else in the
// program sees password material.
package auth

import (
	"errors"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/psps16/fitness-ai/internal/models"
	"github.com/psps16/fitness-ai/internal/storage"
)

var (
	ErrInvalidCredentials = errors.New("auth: invalid username or password")
	ErrEmptyCredentials   = errors.New("auth: username and password cannot be empty")
)

// UserStore is the slice of the storage layer the verifier needs.
type UserStore interface {
	CreateUser(user models.User) error
	GetUserByUsername(username string) (models.User, error)
}

// Verifier checks and registers credentials against a user store.
type Verifier struct {
	store UserStore
}

func NewVerifier(store UserStore) *Verifier {
	return &Verifier{store: store}
}

// Verify returns the stored user when the secret matches. Unknown usernames
// and wrong passwords are indistinguishable to the caller.
func (v *Verifier) Verify(username, secret string) (models.User, error) {
	if strings.TrimSpace(username) == "" || secret == "" {
		return models.User{}, ErrEmptyCredentials
	}
	user, err := v.store.GetUserByUsername(username)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return models.User{}, ErrInvalidCredentials
		}
		return models.User{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(secret)); err != nil {
		return models.User{}, ErrInvalidCredentials
	}
	return user, nil
}

// Exists reports whether an account with the username is registered.
func (v *Verifier) Exists(username string) (bool, error) {
	_, err := v.store.GetUserByUsername(username)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, storage.ErrNotFound) {
		return false, nil
	}
	return false, err
}

// Register creates a new account with a freshly hashed secret and the
// completed onboarding profile.
func (v *Verifier) Register(username, secret string, profile models.UserProfile) (models.User, error) {
	if strings.TrimSpace(username) == "" || secret == "" {
		return models.User{}, ErrEmptyCredentials
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, err
	}
	user := models.User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: string(hash),
		Profile:      profile,
	}
	if err := v.store.CreateUser(user); err != nil {
		return models.User{}, err
	}
	return user, nil
}
