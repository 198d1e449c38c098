package client

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/yukikurage/task-manager/internal/dto"
	"github.com/yukikurage/task-manager/internal/logging"
)

// ErrNotAuthenticated is returned by operations that need a logged-in session.
var ErrNotAuthenticated = errors.New("not logged in")

// Session holds the authenticated identity for one client. It moves between
// unauthenticated and authenticated; a 401 from the API ends it.
type Session struct {
	api   *Client
	store SessionStore

	mu        sync.RWMutex
	data      *SessionData
	onExpired func()
}

func newSession(api *Client, store SessionStore) *Session {
	if store == nil {
		store = NewMemoryStore()
	}
	return &Session{api: api, store: store}
}

// OnExpired registers fn to run whenever the API rejects the session token.
// The CLI uses it to send the user back to login.
func (s *Session) OnExpired(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onExpired = fn
}

// Init hydrates the session from its store. A store without a session
// leaves it unauthenticated and is not an error.
func (s *Session) Init() error {
	data, err := s.store.Load()
	if err != nil {
		if errors.Is(err, ErrNoSession) {
			s.set(nil)
			return nil
		}
		return err
	}
	s.set(data)
	return nil
}

// Authenticated reports whether the session carries a token.
func (s *Session) Authenticated() bool {
	return s.Token() != ""
}

// Token returns the bearer token, or "" when logged out.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.data == nil {
		return ""
	}
	return s.data.Token
}

// UserID returns the authenticated user's id, or "" when logged out.
func (s *Session) UserID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.data == nil {
		return ""
	}
	return s.data.UserID
}

// Email returns the address used to log in.
func (s *Session) Email() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.data == nil {
		return ""
	}
	return s.data.Email
}

// Register creates an account. It does not log in.
func (s *Session) Register(ctx context.Context, name, email, password string) (*dto.UserDTO, error) {
	var user dto.UserDTO
	err := s.api.do(ctx, http.MethodPost, "/api/auth/register", map[string]string{
		"name":     name,
		"email":    email,
		"password": password,
	}, &user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Login exchanges credentials for a token and persists it.
func (s *Session) Login(ctx context.Context, email, password string) error {
	var resp dto.LoginResponse
	err := s.api.do(ctx, http.MethodPost, "/api/auth/login", map[string]string{
		"email":    email,
		"password": password,
	}, &resp)
	if err != nil {
		return err
	}

	data := &SessionData{
		UserID:  resp.UserID,
		Email:   strings.ToLower(strings.TrimSpace(email)),
		Token:   resp.Token,
		SavedAt: time.Now().UTC(),
	}
	if err := s.store.Save(data); err != nil {
		return err
	}
	s.set(data)
	return nil
}

// Logout clears the in-memory and persisted session.
func (s *Session) Logout() error {
	s.set(nil)
	return s.store.Clear()
}

// Expire ends the session after the API rejected its token and fires the
// OnExpired callback.
func (s *Session) Expire() {
	s.mu.Lock()
	wasAuthenticated := s.data != nil
	s.data = nil
	callback := s.onExpired
	s.mu.Unlock()

	if err := s.store.Clear(); err != nil {
		logging.Logger.Warnf("failed to clear stored session: %v", err)
	}
	if wasAuthenticated && callback != nil {
		callback()
	}
}

func (s *Session) set(data *SessionData) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = data
}
