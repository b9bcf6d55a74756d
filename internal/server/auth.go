package server

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"

	"golang.org/x/crypto/bcrypt"

	"github.com/partysense/sensequiz/internal/store"
)

const (
	masterCookieName = "master_session"
	sessionsPrefix   = "sessions"
)

var errNoMasterSession = errors.New("no valid master session")

type masterSession struct {
	CreatedAt int64 `json:"createdAt"`
}

// masterSessions gates the master console behind the configured key.
// Sessions live in the store, so a multi-instance deployment shares them
// like everything else.
type masterSessions struct {
	store   store.Store
	keyHash []byte
}

func newMasterSessions(st store.Store, masterKey string) (*masterSessions, error) {
	if masterKey == "" {
		return nil, errors.New("master key must not be empty")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(masterKey), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hashing master key: %w", err)
	}
	return &masterSessions{store: st, keyHash: hash}, nil
}

// login verifies the key and issues a new session id.
func (m *masterSessions) login(ctx context.Context, key string, createdAt int64) (string, error) {
	if err := bcrypt.CompareHashAndPassword(m.keyHash, []byte(key)); err != nil {
		return "", errNoMasterSession
	}

	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating session id: %w", err)
	}
	id := hex.EncodeToString(buf)

	err := m.store.Set(ctx, sessionsPrefix+"/"+id, masterSession{CreatedAt: createdAt})
	if err != nil {
		return "", fmt.Errorf("storing session: %w", err)
	}
	return id, nil
}

func (m *masterSessions) validate(ctx context.Context, id string) error {
	if id == "" {
		return errNoMasterSession
	}
	var s masterSession
	ok, err := m.store.Get(ctx, sessionsPrefix+"/"+id, &s)
	if err != nil {
		return err
	}
	if !ok {
		return errNoMasterSession
	}
	return nil
}

func (m *masterSessions) logout(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	return m.store.Delete(ctx, sessionsPrefix+"/"+id)
}

// masterFromRequest reads the master_session cookie and validates it.
func masterFromRequest(r *http.Request, m *masterSessions) error {
	cookie, err := r.Cookie(masterCookieName)
	if err != nil || cookie.Value == "" {
		return errNoMasterSession
	}
	return m.validate(r.Context(), cookie.Value)
}
