package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/dkurilov/boardpass/internal/client/api"
	"github.com/dkurilov/boardpass/internal/client/prefs"
)

// SubmitUsername validates the username with the server and moves to
// SigningIn. On failure the state is unchanged and the error is returned to
// the caller; observers are not notified.
func (s *Session) SubmitUsername(ctx context.Context, username string) error {
	return s.run(ctx, func(ctx context.Context) error {
		validated, err := s.client.SubmitUsername(ctx, username)
		if err != nil {
			return err
		}
		if err := s.store.PutString(ctx, prefUsername, validated); err != nil {
			return err
		}
		s.state.Set(signingIn(validated))
		return nil
	})
}

// SubmitPassword exchanges the password for a token and moves to SignedIn.
// A server rejection is a hard reset: username, token and the credential
// cache are removed from the store, and the state becomes SignInError with
// the server's message (or a default one). Transport failures leave the
// state unchanged.
//
// The server may canonicalize the username; the canonical form is both
// stored and notified, so observers and the persisted record always agree.
func (s *Session) SubmitPassword(ctx context.Context, password string) error {
	return s.run(ctx, func(ctx context.Context) error {
		username, err := s.requireUsername(ctx)
		if err != nil {
			return err
		}

		token, canonical, err := s.client.SubmitPassword(ctx, username, password)
		if err != nil {
			var apiErr *api.Error
			if errors.As(err, &apiErr) {
				if resetErr := s.reset(ctx); resetErr != nil {
					s.log.Error(ctx, "failed to reset auth record after rejected password", "error", resetErr)
				}
				msg := apiErr.Message
				if msg == "" {
					msg = DefaultSignInErrorMessage
				}
				s.state.Set(signInError(msg))
			}
			return err
		}

		if err := s.putSignedIn(ctx, canonical, token); err != nil {
			return err
		}
		s.state.Set(signedIn(canonical, token))
		return nil
	})
}

// ClearToken drops the token but keeps the username, returning to SigningIn.
// The credential cache survives, so a credential-based sign-in can follow.
func (s *Session) ClearToken(ctx context.Context) error {
	return s.run(ctx, func(ctx context.Context) error {
		username, err := s.requireUsername(ctx)
		if err != nil {
			return err
		}
		if err := s.store.Remove(ctx, prefToken); err != nil {
			return err
		}
		s.state.Set(signingIn(username))
		return nil
	})
}

// SignOut clears the whole persisted auth record from any state and moves to
// SignedOut.
func (s *Session) SignOut(ctx context.Context) error {
	return s.run(ctx, func(ctx context.Context) error {
		if err := s.reset(ctx); err != nil {
			return err
		}
		s.state.Set(signedOut())
		return nil
	})
}

// reset removes every persisted auth field and drops any pending challenge.
// The store notifies the credential watch, which empties the observed set.
func (s *Session) reset(ctx context.Context) error {
	s.challenge = ""
	return s.store.Remove(ctx, prefUsername, prefToken, prefCredentials, prefLocalCredentialID)
}

// putSignedIn commits username and token in one transaction: the record
// never holds a token without its username.
func (s *Session) putSignedIn(ctx context.Context, username, token string) error {
	return s.store.PutStrings(ctx,
		prefs.KV{Key: prefUsername, Value: username},
		prefs.KV{Key: prefToken, Value: token},
	)
}

func (s *Session) requireUsername(ctx context.Context) (string, error) {
	username, ok, err := s.store.GetString(ctx, prefUsername)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", ErrNotSigningIn
	}
	return username, nil
}

func (s *Session) requireSignedIn(ctx context.Context) (username, token string, err error) {
	username, err = s.requireUsername(ctx)
	if err != nil {
		return "", "", err
	}
	token, ok, err := s.store.GetString(ctx, prefToken)
	if err != nil {
		return "", "", err
	}
	if !ok {
		return "", "", fmt.Errorf("%w: no token", ErrNotSignedIn)
	}
	return username, token, nil
}
