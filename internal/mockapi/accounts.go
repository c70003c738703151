package mockapi

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sandipan-das-sd/lms/internal/models"
)

var (
	errUserExists   = errors.New("user already exists")
	errBadLogin     = errors.New("invalid username or password")
	errUserNotFound = errors.New("user not found")
)

type account struct {
	profile      models.UserProfile
	salt         string
	passwordHash string
	refreshToken string
}

// Accounts is the in-memory user table behind the dev server.
type Accounts struct {
	mu         sync.RWMutex
	byID       map[string]*account
	byUsername map[string]*account
}

func NewAccounts() *Accounts {
	return &Accounts{
		byID:       make(map[string]*account),
		byUsername: make(map[string]*account),
	}
}

func hashPassword(salt, password string) string {
	sum := sha256.Sum256([]byte(salt + ":" + password))
	return hex.EncodeToString(sum[:])
}

func newSalt() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

func (a *Accounts) Register(username, email, password, role string) (*models.UserProfile, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.byUsername[username]; ok {
		return nil, errUserExists
	}
	if role == "" {
		role = "user"
	}
	now := time.Now().UTC()
	acc := &account{
		profile: models.UserProfile{
			ID:        uuid.NewString(),
			Username:  username,
			Email:     email,
			Role:      role,
			LoginType: "EMAIL_PASSWORD",
			CreatedAt: now,
			UpdatedAt: now,
		},
		salt: newSalt(),
	}
	acc.passwordHash = hashPassword(acc.salt, password)
	a.byID[acc.profile.ID] = acc
	a.byUsername[username] = acc
	p := acc.profile
	return &p, nil
}

func (a *Accounts) Authenticate(username, password string) (*models.UserProfile, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	acc, ok := a.byUsername[username]
	if !ok {
		return nil, errBadLogin
	}
	want := []byte(acc.passwordHash)
	got := []byte(hashPassword(acc.salt, password))
	if subtle.ConstantTimeCompare(want, got) != 1 {
		return nil, errBadLogin
	}
	p := acc.profile
	return &p, nil
}

func (a *Accounts) Get(id string) (*models.UserProfile, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	acc, ok := a.byID[id]
	if !ok {
		return nil, errUserNotFound
	}
	p := acc.profile
	return &p, nil
}

// SetRefreshToken records the currently valid refresh token for the user.
// Rotation invalidates the one it replaces.
func (a *Accounts) SetRefreshToken(id, token string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	acc, ok := a.byID[id]
	if !ok {
		return errUserNotFound
	}
	acc.refreshToken = token
	return nil
}

func (a *Accounts) RefreshTokenMatches(id, token string) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	acc, ok := a.byID[id]
	return ok && token != "" && acc.refreshToken == token
}

func (a *Accounts) SetAvatar(id string, avatar models.Avatar) (*models.UserProfile, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	acc, ok := a.byID[id]
	if !ok {
		return nil, errUserNotFound
	}
	acc.profile.Avatar = avatar
	acc.profile.UpdatedAt = time.Now().UTC()
	p := acc.profile
	return &p, nil
}
