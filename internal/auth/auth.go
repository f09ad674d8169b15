// Package auth implements the authentication collaborator: email and
// password accounts, explicit session objects with a bounded lifetime,
// and a current-user-change stream. Session state is injected where it
// is needed rather than read from ambient globals.
package auth

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"fintrack/internal/log"
)

// Error texts follow the upstream provider shape (prefix plus
// parenthesized code); CleanError strips both before display.
var (
	ErrInvalidCredentials = errors.New("auth: invalid login credentials (auth/invalid-credential)")
	ErrEmailTaken         = errors.New("auth: email already in use (auth/email-already-in-use)")
	ErrWeakPassword       = errors.New("auth: password should be at least 6 characters (auth/weak-password)")
	ErrInvalidEmail       = errors.New("auth: invalid email address (auth/invalid-email)")
	ErrUserNotFound       = errors.New("auth: user not found (auth/user-not-found)")
)

type (
	// User is the identity yielded by the auth state stream.
	User struct {
		UID         string
		DisplayName string
		Email       string
	}

	// UserRecord is the persisted account document.
	UserRecord struct {
		UID          string
		Email        string
		DisplayName  string
		PasswordHash []byte
	}

	// Session is an authenticated session: established at sign-in, torn
	// down at sign-out or expiry.
	Session struct {
		Token     string
		User      User
		ExpiresAt time.Time
	}

	// UserRepository is the account persistence contract, implemented by
	// the storage backends.
	UserRepository interface {
		CreateUser(ctx context.Context, u UserRecord) error
		UserByEmail(ctx context.Context, email string) (UserRecord, error)
		UpdateDisplayName(ctx context.Context, uid, name string) error
	}
)

// Service issues and restores sessions and notifies subscribers of
// auth state changes.
type Service struct {
	users      UserRepository
	ttl        time.Duration
	bcryptCost int
	logger     *log.Logger

	mu       sync.Mutex
	sessions map[string]Session
	watchers map[*watcher]struct{}
}

type watcher struct {
	ch chan *User
}

func NewService(users UserRepository, ttl time.Duration, bcryptCost int, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Service{
		users:      users,
		ttl:        ttl,
		bcryptCost: bcryptCost,
		logger:     logger.WithComponent(log.ComponentAuth),
		sessions:   make(map[string]Session),
		watchers:   make(map[*watcher]struct{}),
	}
}

// SignUp creates an account via email/password and assigns the display
// name afterwards, then establishes a session.
func (s *Service) SignUp(ctx context.Context, email, password, displayName string) (Session, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if !validEmail(email) {
		return Session{}, ErrInvalidEmail
	}
	if len(password) < 6 {
		return Session{}, ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return Session{}, err
	}

	record := UserRecord{
		UID:          uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
	}
	if err := s.users.CreateUser(ctx, record); err != nil {
		return Session{}, err
	}

	// Display name is assigned after account creation, mirroring the
	// two-step sign-up flow of the upstream provider.
	displayName = strings.TrimSpace(displayName)
	if displayName != "" {
		if err := s.users.UpdateDisplayName(ctx, record.UID, displayName); err != nil {
			s.logger.WarnContext(ctx, "Display name assignment failed",
				log.FieldUID, record.UID,
				log.FieldError, err)
		} else {
			record.DisplayName = displayName
		}
	}

	s.logger.InfoContext(ctx, "User signed up",
		log.FieldUID, record.UID,
		log.FieldOperation, log.OpSignUp)

	return s.establish(record), nil
}

// SignIn authenticates an email/password pair and establishes a
// session. Unknown accounts and wrong passwords are indistinguishable
// to the caller.
func (s *Service) SignIn(ctx context.Context, email, password string) (Session, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	record, err := s.users.UserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return Session{}, ErrInvalidCredentials
		}
		return Session{}, err
	}
	if bcrypt.CompareHashAndPassword(record.PasswordHash, []byte(password)) != nil {
		return Session{}, ErrInvalidCredentials
	}

	s.logger.InfoContext(ctx, "User signed in",
		log.FieldUID, record.UID,
		log.FieldOperation, log.OpSignIn)

	return s.establish(record), nil
}

// SignOut revokes the session for the given token. Revoking an unknown
// token is a no-op.
func (s *Service) SignOut(token string) {
	s.mu.Lock()
	sess, ok := s.sessions[token]
	delete(s.sessions, token)
	s.mu.Unlock()

	if ok {
		s.logger.Info("User signed out",
			log.FieldUID, sess.User.UID,
			log.FieldOperation, log.OpSignOut)
		s.notify(nil)
	}
}

// Restore resolves a session token back to its user, as on page reload.
// Expired sessions are dropped. A successful restore fires the auth
// state stream like a fresh sign-in does.
func (s *Service) Restore(token string) (*User, bool) {
	s.mu.Lock()
	sess, ok := s.sessions[token]
	if ok && time.Now().After(sess.ExpiresAt) {
		delete(s.sessions, token)
		ok = false
	}
	s.mu.Unlock()

	if !ok {
		return nil, false
	}
	u := sess.User
	s.notify(&u)
	return &u, true
}

// Subscribe registers for auth state changes: each event is the new
// current user, or nil after sign-out. The returned cancel func
// unregisters and closes the channel.
func (s *Service) Subscribe() (<-chan *User, func()) {
	w := &watcher{ch: make(chan *User, 4)}
	s.mu.Lock()
	s.watchers[w] = struct{}{}
	s.mu.Unlock()

	var once sync.Once
	return w.ch, func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.watchers, w)
			s.mu.Unlock()
			close(w.ch)
		})
	}
}

// ActiveSessions returns the number of unexpired sessions, for
// readiness reporting.
func (s *Service) ActiveSessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	now := time.Now()
	for _, sess := range s.sessions {
		if now.Before(sess.ExpiresAt) {
			n++
		}
	}
	return n
}

func (s *Service) establish(record UserRecord) Session {
	sess := Session{
		Token: uuid.NewString(),
		User: User{
			UID:         record.UID,
			DisplayName: record.DisplayName,
			Email:       record.Email,
		},
		ExpiresAt: time.Now().Add(s.ttl),
	}

	s.mu.Lock()
	s.sessions[sess.Token] = sess
	s.mu.Unlock()

	u := sess.User
	s.notify(&u)
	return sess
}

func (s *Service) notify(u *User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for w := range s.watchers {
		// Drop the oldest queued event rather than block the notifier.
		select {
		case w.ch <- u:
		default:
			select {
			case <-w.ch:
			default:
			}
			select {
			case w.ch <- u:
			default:
			}
		}
	}
}

func validEmail(email string) bool {
	at := strings.Index(email, "@")
	if at < 1 || at == len(email)-1 {
		return false
	}
	return !strings.ContainsAny(email, " \t")
}
