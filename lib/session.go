package lib

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/fiffu/buzdealz/lib/api"
	"github.com/fiffu/buzdealz/lib/models"
	"github.com/fiffu/buzdealz/lib/query"
	"github.com/fiffu/buzdealz/senders"
	"go.uber.org/zap"
)

const minPasswordLength = 6

type SessionAPI interface {
	Me(ctx context.Context) (*models.User, error)
	Login(ctx context.Context, creds api.Credentials) (*api.Ack, error)
	Register(ctx context.Context, creds api.Credentials) (*api.Ack, error)
	Logout(ctx context.Context) error
}

// Session owns the signed-in user. Stores that depend on a session register
// with OnChange and are told whenever the user signs in or out.
type Session struct {
	log     *zap.Logger
	client  SessionAPI
	notices notifier
	user    *query.Query[*models.User]

	mu        sync.Mutex
	currentID models.ID
	observers []func(ctx context.Context, authenticated bool)
}

func NewSession(log *zap.Logger, client SessionAPI, registry senders.Registry, opts ...query.Option) *Session {
	s := &Session{
		log:     log,
		client:  client,
		notices: notifier{log, registry},
	}
	s.user = query.New[*models.User](client.Me, nil, opts...)
	return s
}

// OnChange registers fn to run after every sign-in and sign-out. Observers
// run synchronously, so their state is settled when the triggering call
// returns.
func (s *Session) OnChange(fn func(ctx context.Context, authenticated bool)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, fn)
}

// Refresh asks the backend who is signed in. Failing to find out is the
// ordinary signed-out state, not an error.
func (s *Session) Refresh(ctx context.Context) *models.User {
	user, err := s.user.Refetch(ctx)
	if err != nil {
		if !errors.Is(err, api.ErrNoSession) && api.StatusOf(err) != http.StatusUnauthorized {
			s.log.Sugar().Infow("Could not fetch current user, treating as signed out", "err", err)
		}
		s.user.Reset()
		user = nil
	}
	s.settle(ctx, user)
	return s.User()
}

func (s *Session) User() *models.User {
	u := s.user.Data()
	if u == nil {
		return nil
	}
	cpy := *u
	return &cpy
}

func (s *Session) IsAuthenticated() bool {
	return s.User() != nil
}

func (s *Session) IsSubscriber() bool {
	u := s.User()
	return u != nil && u.IsSubscriber
}

func (s *Session) Login(ctx context.Context, email, password string) error {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		s.notices.failure(ctx, "Please fill in all fields")
		return fmt.Errorf("%w: email and password are required", models.ErrInvalidInput)
	}

	ack, err := s.client.Login(ctx, api.Credentials{Email: email, Password: password})
	if err != nil {
		s.notices.failure(ctx, api.Message(err, "Something went wrong. Please try again."))
		return err
	}
	if !ack.Success {
		msg := ack.Message
		if msg == "" {
			msg = "Login failed"
		}
		s.notices.failure(ctx, msg)
		return fmt.Errorf("%w: %s", models.ErrRejected, msg)
	}

	s.notices.success(ctx, "Welcome back!")
	s.Refresh(ctx)
	return nil
}

// Register creates an account. It does not sign the new user in.
func (s *Session) Register(ctx context.Context, email, password, confirm string) error {
	email = strings.TrimSpace(email)
	switch {
	case email == "" || password == "" || confirm == "":
		return s.rejectInput(ctx, "Please fill in all fields")
	case password != confirm:
		return s.rejectInput(ctx, "Passwords do not match")
	case len(password) < minPasswordLength:
		return s.rejectInput(ctx, fmt.Sprintf("Password must be at least %d characters", minPasswordLength))
	}

	ack, err := s.client.Register(ctx, api.Credentials{Email: email, Password: password})
	if err != nil {
		s.notices.failure(ctx, api.Message(err, "Failed to create account. Please try again."))
		return err
	}
	if !ack.Success {
		msg := ack.Message
		if msg == "" {
			msg = "Registration failed"
		}
		s.notices.failure(ctx, msg)
		return fmt.Errorf("%w: %s", models.ErrRejected, msg)
	}

	s.log.Sugar().Infof("Registered account %s", email)
	s.notices.success(ctx, "Account created successfully!")
	return nil
}

// Logout ends the session. When it returns nil the user, the wishlist and
// the notifications all read as empty.
func (s *Session) Logout(ctx context.Context) error {
	if err := s.client.Logout(ctx); err != nil {
		s.notices.failure(ctx, api.Message(err, "Failed to sign out"))
		return err
	}

	s.user.Reset()
	s.mu.Lock()
	s.currentID = ""
	observers := append([]func(context.Context, bool){}, s.observers...)
	s.mu.Unlock()

	for _, fn := range observers {
		fn(ctx, false)
	}
	s.notices.success(ctx, "Signed out")
	return nil
}

func (s *Session) rejectInput(ctx context.Context, msg string) error {
	s.notices.failure(ctx, msg)
	return fmt.Errorf("%w: %s", models.ErrInvalidInput, msg)
}

// settle compares the freshly fetched user with the one observers last saw
// and tells them about the difference. Switching accounts is reported as a
// sign-out followed by a sign-in.
func (s *Session) settle(ctx context.Context, user *models.User) {
	var id models.ID
	if user != nil {
		id = user.ID
		if id == "" {
			id = models.ID(user.Email)
		}
	}

	s.mu.Lock()
	prev := s.currentID
	s.currentID = id
	observers := append([]func(context.Context, bool){}, s.observers...)
	s.mu.Unlock()

	if prev == id {
		return
	}
	if prev != "" {
		for _, fn := range observers {
			fn(ctx, false)
		}
	}
	if id != "" {
		for _, fn := range observers {
			fn(ctx, true)
		}
	}
}
