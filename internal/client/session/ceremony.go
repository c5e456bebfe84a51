package session

import (
	"context"
	"fmt"

	"github.com/dkurilov/boardpass/internal/client/authenticator"
	"github.com/dkurilov/boardpass/internal/client/credential"
	"github.com/dkurilov/boardpass/internal/common"
	"github.com/go-webauthn/webauthn/protocol"
)

// BeginCredentialRegistration asks the server for credential-creation
// options and records the pending challenge. Requires SignedIn. The state
// does not change; the caller drives the ceremony and feeds the result to
// CompleteCredentialRegistration.
func (s *Session) BeginCredentialRegistration(ctx context.Context) (*protocol.CredentialCreation, error) {
	var options *protocol.CredentialCreation
	err := s.run(ctx, func(ctx context.Context) error {
		username, token, err := s.requireSignedIn(ctx)
		if err != nil {
			return err
		}
		opts, challenge, err := s.client.RequestRegistration(ctx, token, username)
		if err != nil {
			return err
		}
		s.challenge = challenge
		options = opts
		return nil
	})
	return options, err
}

// CompleteCredentialRegistration confirms the attestation with the server
// and persists the returned credential set. The sign-in state does not
// change; a failed ceremony confirmation is logged and returned for the
// caller to retry or abandon.
func (s *Session) CompleteCredentialRegistration(ctx context.Context, att *authenticator.Attestation) error {
	return s.run(ctx, func(ctx context.Context) error {
		_, token, err := s.requireSignedIn(ctx)
		if err != nil {
			return err
		}
		return s.confirmRegistration(ctx, token, att)
	})
}

// BeginCredentialSignIn asks the server for assertion options and records
// the pending challenge. Requires a submitted username (SigningIn); the
// last-used local credential id, when present, narrows the allowed
// credentials.
func (s *Session) BeginCredentialSignIn(ctx context.Context) (*protocol.CredentialAssertion, error) {
	var options *protocol.CredentialAssertion
	err := s.run(ctx, func(ctx context.Context) error {
		username, err := s.requireUsername(ctx)
		if err != nil {
			return err
		}
		opts, challenge, err := s.requestSignIn(ctx, username)
		if err != nil {
			return err
		}
		s.challenge = challenge
		options = opts
		return nil
	})
	return options, err
}

// CompleteCredentialSignIn confirms the assertion with the server and, on
// success, commits username and the fresh token together and moves to
// SignedIn. Failures are logged and leave the state unchanged.
func (s *Session) CompleteCredentialSignIn(ctx context.Context, asrt *authenticator.Assertion) error {
	return s.run(ctx, func(ctx context.Context) error {
		username, err := s.requireUsername(ctx)
		if err != nil {
			return err
		}
		return s.confirmSignIn(ctx, username, asrt)
	})
}

// RegisterCredential runs the whole registration ceremony in one serialized
// unit of work: request options, await the authenticator, confirm. The
// caller's goroutine waits, bounded by the operation timeout; the worker is
// the only one touching the pending challenge.
func (s *Session) RegisterCredential(ctx context.Context) error {
	return s.run(ctx, func(ctx context.Context) error {
		if s.authn == nil {
			return authenticator.ErrUnavailable
		}
		username, token, err := s.requireSignedIn(ctx)
		if err != nil {
			return err
		}
		options, challenge, err := s.client.RequestRegistration(ctx, token, username)
		if err != nil {
			return err
		}
		s.challenge = challenge

		att, err := s.authn.Register(ctx, options)
		if err != nil {
			s.log.Error(ctx, "registration ceremony failed", "error", err)
			return err
		}
		return s.confirmRegistration(ctx, token, att)
	})
}

// SignInWithCredential runs the whole credential sign-in ceremony in one
// serialized unit of work.
func (s *Session) SignInWithCredential(ctx context.Context) error {
	return s.run(ctx, func(ctx context.Context) error {
		if s.authn == nil {
			return authenticator.ErrUnavailable
		}
		username, err := s.requireUsername(ctx)
		if err != nil {
			return err
		}
		options, challenge, err := s.requestSignIn(ctx, username)
		if err != nil {
			return err
		}
		s.challenge = challenge

		asrt, err := s.authn.SignIn(ctx, options)
		if err != nil {
			s.log.Error(ctx, "sign-in ceremony failed", "error", err)
			return err
		}
		return s.confirmSignIn(ctx, username, asrt)
	})
}

func (s *Session) requestSignIn(ctx context.Context, username string) (*protocol.CredentialAssertion, string, error) {
	localID, _, err := s.store.GetString(ctx, prefLocalCredentialID)
	if err != nil {
		return nil, "", err
	}
	return s.client.RequestSignIn(ctx, username, localID)
}

// confirmRegistration consumes the pending challenge and persists the server
// returned credential set plus the new local credential id. Worker-only.
func (s *Session) confirmRegistration(ctx context.Context, token string, att *authenticator.Attestation) error {
	if att == nil || len(att.Payload) == 0 {
		return fmt.Errorf("%w: empty attestation", common.ErrorValidation)
	}
	challenge, err := s.consumeChallenge()
	if err != nil {
		return err
	}

	creds, err := s.client.ConfirmRegistration(ctx, token, challenge, att.Payload)
	if err != nil {
		s.log.Error(ctx, "credential registration rejected", "error", err)
		return err
	}
	return s.persistCredentials(ctx, creds, att.CredentialID)
}

// confirmSignIn consumes the pending challenge, commits the fresh token, and
// moves to SignedIn. Worker-only.
func (s *Session) confirmSignIn(ctx context.Context, username string, asrt *authenticator.Assertion) error {
	if asrt == nil || len(asrt.Payload) == 0 {
		return fmt.Errorf("%w: empty assertion", common.ErrorValidation)
	}
	challenge, err := s.consumeChallenge()
	if err != nil {
		return err
	}

	creds, token, err := s.client.ConfirmSignIn(ctx, username, challenge, asrt.Payload)
	if err != nil {
		s.log.Error(ctx, "credential sign-in rejected", "error", err)
		return err
	}

	if err := s.putSignedIn(ctx, username, token); err != nil {
		return err
	}
	// The token is committed; the state must say SignedIn even if the
	// credential cache write below fails.
	s.state.Set(signedIn(username, token))
	return s.persistCredentials(ctx, creds, asrt.CredentialID)
}

// consumeChallenge hands out the pending challenge exactly once. A response
// without a matching request is fatal to the operation, never ignored.
func (s *Session) consumeChallenge() (string, error) {
	if s.challenge == "" {
		return "", common.ErrChallengeMismatch
	}
	challenge := s.challenge
	s.challenge = ""
	return challenge, nil
}

func (s *Session) persistCredentials(ctx context.Context, creds []credential.Credential, localID string) error {
	if err := s.store.PutStringSet(ctx, prefCredentials, credential.Encode(creds)); err != nil {
		return err
	}
	if localID == "" {
		return nil
	}
	return s.store.PutString(ctx, prefLocalCredentialID, localID)
}
