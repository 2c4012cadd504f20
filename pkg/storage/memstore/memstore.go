package memstore

import (
	"sync"

	"fieldsurvey/pkg/auth"
)

// Store is an in-memory auth.CredentialStore for tests and local runs where
// no OS keyring is available.
type Store struct {
	mu    sync.Mutex
	creds auth.Credentials
	set   bool

	// FailNext, when non-nil, is returned by the next store operation.
	FailNext error
}

var _ auth.CredentialStore = (*Store)(nil)

func New() *Store {
	return &Store{}
}

func (s *Store) Save(creds auth.Credentials) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure(); err != nil {
		return err
	}
	s.creds = creds
	s.set = true
	return nil
}

func (s *Store) Load() (auth.Credentials, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure(); err != nil {
		return auth.Credentials{}, false, err
	}
	return s.creds, s.set, nil
}

func (s *Store) Delete() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure(); err != nil {
		return err
	}
	s.creds = auth.Credentials{}
	s.set = false
	return nil
}

func (s *Store) takeFailure() error {
	err := s.FailNext
	s.FailNext = nil
	return err
}
