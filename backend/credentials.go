package main

import (
	"fmt"
	"sync/atomic"

	"github.com/Arch-4ng3l/CalendarBridge/backend/config"
)

// CredentialStore decides where a provider's token lives between the
// callback and later create-event calls.
type CredentialStore interface {
	Save(cred *TokenCredential)
	// Load resolves the credential for one create-event call. callerToken is
	// the accessToken from the request body, possibly empty.
	Load(callerToken string) (*TokenCredential, error)
	CallerSupplied() bool
}

// ProcessSingletonStore keeps a single credential for the whole process.
// Each successful exchange overwrites it (last write wins) and requests
// already in flight may pick up the new token. There is no per-user
// isolation: whoever authenticated last owns every subsequent event.
type ProcessSingletonStore struct {
	provider string
	slot     atomic.Pointer[TokenCredential]
}

func NewProcessSingletonStore(provider string) *ProcessSingletonStore {
	return &ProcessSingletonStore{provider: provider}
}

func (s *ProcessSingletonStore) Save(cred *TokenCredential) {
	s.slot.Store(cred)
}

func (s *ProcessSingletonStore) Load(string) (*TokenCredential, error) {
	cred := s.slot.Load()
	if cred == nil {
		return nil, fmt.Errorf("%s: %w", s.provider, ErrNotAuthenticated)
	}
	return cred, nil
}

func (s *ProcessSingletonStore) CallerSupplied() bool { return false }

// StatelessCallerSuppliedStore never retains anything; the caller presents
// the token on every request.
type StatelessCallerSuppliedStore struct {
	provider string
}

func NewStatelessCallerSuppliedStore(provider string) *StatelessCallerSuppliedStore {
	return &StatelessCallerSuppliedStore{provider: provider}
}

func (s *StatelessCallerSuppliedStore) Save(*TokenCredential) {}

func (s *StatelessCallerSuppliedStore) Load(callerToken string) (*TokenCredential, error) {
	if callerToken == "" {
		return nil, ErrMissingAccessToken
	}
	return &TokenCredential{Provider: s.provider, AccessToken: callerToken}, nil
}

func (s *StatelessCallerSuppliedStore) CallerSupplied() bool { return true }

func googleCredentialStore(cfg config.Config) CredentialStore {
	if cfg.GoogleCredentialMode == config.CredentialModeCaller {
		return NewStatelessCallerSuppliedStore(Google)
	}
	return NewProcessSingletonStore(Google)
}
