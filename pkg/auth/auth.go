package auth

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"fieldsurvey/pkg/ports/surveyport"
)

// Status is the tri-state authentication status. Unknown means the persisted
// session has not been checked yet; initial routing must wait for it to
// resolve before choosing a screen.
type Status int

const (
	StatusUnknown Status = iota
	StatusAuthenticated
	StatusUnauthenticated
)

func (s Status) String() string {
	switch s {
	case StatusAuthenticated:
		return "authenticated"
	case StatusUnauthenticated:
		return "unauthenticated"
	default:
		return "unknown"
	}
}

// Credentials is the single persisted session record, stored under the
// "authentication" key on successful login and deleted on logout.
type Credentials struct {
	Authenticated bool   `json:"authenticated"`
	Username      string `json:"username"`
	BranchKey     int    `json:"branchKey"`
	Expiration    string `json:"expiration"`
	Token         string `json:"token"`
}

// CredentialStore abstracts the persistent secure key-value store holding the
// session record.
type CredentialStore interface {
	Save(creds Credentials) error
	// Load returns the stored record and whether one exists.
	Load() (Credentials, bool, error)
	Delete() error
}

// AuthError reports a rejected login. It is surfaced inline to the user and
// never retried automatically.
type AuthError struct {
	Message string
	Wrapped error
}

func (e *AuthError) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("login failed: %s: %v", e.Message, e.Wrapped)
	}
	return "login failed: " + e.Message
}

func (e *AuthError) Unwrap() error { return e.Wrapped }

// Controller owns sign-in/sign-out and the persisted session token. It is
// created at process start with StatusUnknown and resolves its status either
// by restoring a stored session or through an explicit login.
type Controller struct {
	gateway surveyport.Gateway
	store   CredentialStore
	log     *logrus.Entry

	mu     sync.Mutex
	status Status
	creds  Credentials
}

// NewController builds a Controller in the Unknown state.
func NewController(gateway surveyport.Gateway, store CredentialStore, log *logrus.Entry) *Controller {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Controller{
		gateway: gateway,
		store:   store,
		log:     log,
		status:  StatusUnknown,
	}
}

// Restore reads the stored session record once at startup. A missing or
// unauthenticated record resolves the status to Unauthenticated; a store read
// failure leaves the status Unknown and is returned to the caller.
func (c *Controller) Restore() error {
	creds, ok, err := c.store.Load()
	if err != nil {
		return fmt.Errorf("restore session: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if !ok || !creds.Authenticated {
		c.status = StatusUnauthenticated
		c.log.Debug("no stored session, login required")
		return nil
	}
	c.creds = creds
	c.status = StatusAuthenticated
	c.log.WithField("username", creds.Username).Info("session restored")
	return nil
}

// Login authenticates against the remote API and persists the session record
// on success. A rejected login resolves the status to Unauthenticated and
// returns an *AuthError.
func (c *Controller) Login(ctx context.Context, username, password string) error {
	result, err := c.gateway.Login(ctx, username, password)
	if err != nil {
		c.setStatus(StatusUnauthenticated)
		return &AuthError{Message: "request failed", Wrapped: err}
	}
	if !result.LoginStatus {
		c.setStatus(StatusUnauthenticated)
		return &AuthError{Message: result.ResponseMessage}
	}

	creds := Credentials{
		Authenticated: true,
		Username:      username,
		BranchKey:     result.BranchKey,
		Expiration:    result.ExpiryDate,
		Token:         result.UserToken,
	}
	if err := c.store.Save(creds); err != nil {
		// The session is still usable for this run; persistence is best
		// effort and only affects the next launch.
		c.log.WithError(err).Warn("could not persist session")
	}

	c.mu.Lock()
	c.creds = creds
	c.status = StatusAuthenticated
	c.mu.Unlock()
	c.log.WithField("username", username).Info("login successful")
	return nil
}

// Logout deletes the persisted session record and resets the in-memory state.
func (c *Controller) Logout() error {
	if err := c.store.Delete(); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	c.mu.Lock()
	c.creds = Credentials{}
	c.status = StatusUnauthenticated
	c.mu.Unlock()
	c.log.Info("logged out")
	return nil
}

// Status returns the current tri-state authentication status.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Token returns the current session token, empty when not authenticated.
func (c *Controller) Token() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.creds.Token
}

// Session returns the current credentials and whether a session is active.
func (c *Controller) Session() (Credentials, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.creds, c.status == StatusAuthenticated
}

func (c *Controller) setStatus(status Status) {
	c.mu.Lock()
	c.status = status
	c.mu.Unlock()
}
