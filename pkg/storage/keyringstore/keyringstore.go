package keyringstore

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"

	"fieldsurvey/pkg/auth"
)

// storageKey is the single record the session lives under.
const storageKey = "authentication"

// Store persists the session record in the OS keyring as a JSON blob.
type Store struct {
	service string
}

var _ auth.CredentialStore = (*Store)(nil)

// New builds a Store scoped to the given keyring service name.
func New(service string) (*Store, error) {
	if service == "" {
		return nil, fmt.Errorf("keyring service name cannot be empty")
	}
	return &Store{service: service}, nil
}

func (s *Store) Save(creds auth.Credentials) error {
	raw, err := json.Marshal(creds)
	if err != nil {
		return fmt.Errorf("encode credentials: %w", err)
	}
	if err := keyring.Set(s.service, storageKey, string(raw)); err != nil {
		return fmt.Errorf("store credentials: %w", err)
	}
	return nil
}

func (s *Store) Load() (auth.Credentials, bool, error) {
	raw, err := keyring.Get(s.service, storageKey)
	if errors.Is(err, keyring.ErrNotFound) {
		return auth.Credentials{}, false, nil
	}
	if err != nil {
		return auth.Credentials{}, false, fmt.Errorf("read credentials: %w", err)
	}

	var creds auth.Credentials
	if err := json.Unmarshal([]byte(raw), &creds); err != nil {
		return auth.Credentials{}, false, fmt.Errorf("decode credentials: %w", err)
	}
	return creds, true, nil
}

func (s *Store) Delete() error {
	err := keyring.Delete(s.service, storageKey)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("delete credentials: %w", err)
	}
	return nil
}
