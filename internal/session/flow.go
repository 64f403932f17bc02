package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"photodeck/internal/api"
)

// Mode is the auth form sub-mode.
type Mode string

const (
	ModeLogin  Mode = "login"
	ModeSignup Mode = "signup"
)

// ErrSubmitInFlight is returned when a submit overlaps a pending one.
var ErrSubmitInFlight = errors.New("another submission is in flight")

// Credentials are the auth form inputs. Email is only used for signup.
type Credentials struct {
	Username string
	Email    string
	Password string
}

// Flow drives login and registration requests. One Flow instance allows a
// single submission in flight at a time.
type Flow struct {
	client *api.Client
	store  *Store
	logger *zap.Logger

	mu     sync.Mutex
	busy   bool
	mode   Mode
	notice string
	errMsg string
}

// NewFlow creates an auth flow in login mode.
func NewFlow(client *api.Client, store *Store, logger *zap.Logger) *Flow {
	return &Flow{client: client, store: store, logger: logger, mode: ModeLogin}
}

// Mode returns the current sub-mode.
func (f *Flow) Mode() Mode {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.mode
}

// SetMode switches the sub-mode and clears any previous error and notice.
func (f *Flow) SetMode(mode Mode) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.mode = mode
	f.errMsg = ""
	f.notice = ""
}

// Reset returns the flow to login mode with messages cleared. Called on every
// entry into the auth view.
func (f *Flow) Reset() {
	f.SetMode(ModeLogin)
}

// Notice returns the last confirmation message (e.g. after registration).
func (f *Flow) Notice() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.notice
}

// Err returns the last submission error message, or "".
func (f *Flow) Err() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.errMsg
}

// Busy reports whether a submission is pending. Consumers should disable
// submission while it is true.
func (f *Flow) Busy() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.busy
}

// Submit sends the credentials according to the current mode. On login
// success the session store is populated; on registration success no session
// is created, the mode flips to login and a confirmation is surfaced.
func (f *Flow) Submit(ctx context.Context, creds Credentials) error {
	f.mu.Lock()
	if f.busy {
		f.mu.Unlock()
		return ErrSubmitInFlight
	}
	f.busy = true
	mode := f.mode
	f.errMsg = ""
	f.notice = ""
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.busy = false
		f.mu.Unlock()
	}()

	var err error
	switch mode {
	case ModeSignup:
		err = f.register(ctx, creds)
	default:
		err = f.login(ctx, creds)
	}

	if err != nil {
		f.mu.Lock()
		f.errMsg = surfaceMessage(err)
		f.mu.Unlock()
	}
	return err
}

func (f *Flow) login(ctx context.Context, creds Credentials) error {
	res, err := f.client.Login(ctx, creds.Username, creds.Password)
	if err != nil {
		f.logger.Info("Login failed", zap.String("username", creds.Username), zap.Error(err))
		return err
	}
	f.store.Login(res.AccessToken, res.RefreshToken, res.User)
	return nil
}

func (f *Flow) register(ctx context.Context, creds Credentials) error {
	msg, err := f.client.Register(ctx, creds.Username, creds.Email, creds.Password)
	if err != nil {
		f.logger.Info("Registration failed", zap.String("username", creds.Username), zap.Error(err))
		return err
	}
	if msg == "" {
		msg = "Registration successful. Please log in."
	}

	f.mu.Lock()
	f.mode = ModeLogin
	f.notice = msg
	f.mu.Unlock()
	return nil
}

// RefreshSession exchanges the stored refresh token for a new access token.
// An authorization failure invalidates the session.
func (f *Flow) RefreshSession(ctx context.Context) error {
	refreshToken := f.store.RefreshToken()
	if refreshToken == "" {
		return fmt.Errorf("no refresh token available")
	}

	token, err := f.client.RefreshToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, api.ErrUnauthorized) {
			f.store.Invalidate()
		}
		return err
	}
	f.store.UpdateAccessToken(token)
	f.logger.Info("Access token refreshed")
	return nil
}

// surfaceMessage turns a client error into the user-visible message,
// distinguishing "request sent but failed" from "never reached the backend".
func surfaceMessage(err error) string {
	if errors.Is(err, api.ErrBackendUnavailable) {
		return "Cannot reach the backend. Please check that the server is running."
	}
	var apiErr *api.Error
	if errors.As(err, &apiErr) {
		return apiErr.Error()
	}
	return strings.TrimSpace(err.Error())
}
