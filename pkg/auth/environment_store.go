package auth

import (
	"os"
	"time"
)

const (
	tokenEnv = "GRAPHHARVEST_ACCESS_TOKEN"
	appEnv   = "GRAPHHARVEST_APP_ID"

	envAccountName = "env"
)

// EnvironmentStore reads a single token from GRAPHHARVEST_ACCESS_TOKEN.
// It is read-only.
type EnvironmentStore struct{}

// NewEnvironmentStore creates a new environment-based credential store
func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

// Store is not supported for environment variables
func (e *EnvironmentStore) Store(*Account) error {
	return ErrStoreUnavailable
}

// Retrieve returns the environment token under name, or "env" when name
// is empty.
func (e *EnvironmentStore) Retrieve(name string) (*Account, error) {
	token := os.Getenv(tokenEnv)
	if token == "" {
		return nil, ErrCredentialsNotFound
	}
	if name == "" {
		name = envAccountName
	}

	return &Account{
		Name:         name,
		AccessToken:  token,
		AppID:        os.Getenv(appEnv),
		LastModified: time.Now(),
	}, nil
}

// List returns a single account if the token is set
func (e *EnvironmentStore) List() ([]*Account, error) {
	account, err := e.Retrieve("")
	if err != nil {
		return []*Account{}, nil
	}
	return []*Account{account}, nil
}

// Delete is not supported for environment variables
func (e *EnvironmentStore) Delete(string) error {
	return ErrStoreUnavailable
}

// Exists reports whether the token is set
func (e *EnvironmentStore) Exists(string) bool {
	return os.Getenv(tokenEnv) != ""
}
