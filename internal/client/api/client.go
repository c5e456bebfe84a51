// Package api defines the client's boundary to the backend: the operation
// contract used by the sign-in session, a typed error for server-reported
// failures, and an HTTP implementation.
package api

import (
	"context"

	"github.com/dkurilov/boardpass/internal/client/credential"
	"github.com/go-webauthn/webauthn/protocol"
)

// Client is the network boundary consumed by the sign-in session. Ceremony
// options are returned as parsed WebAuthn structures together with the
// server challenge, base64url-encoded, that must be echoed back on the
// matching Confirm call.
type Client interface {
	Close() error

	// SubmitUsername validates a username with the server and returns the
	// validated form.
	SubmitUsername(ctx context.Context, username string) (string, error)

	// SubmitPassword checks the password and returns a bearer token plus the
	// canonical username the server knows the account by.
	SubmitPassword(ctx context.Context, username, password string) (token string, canonicalUsername string, err error)

	// RequestRegistration asks the server for credential-creation options.
	RequestRegistration(ctx context.Context, token, username string) (*protocol.CredentialCreation, string, error)

	// ConfirmRegistration sends the authenticator's attestation payload and
	// returns the updated credential set.
	ConfirmRegistration(ctx context.Context, token, challenge string, attestation []byte) ([]credential.Credential, error)

	// RequestSignIn asks the server for assertion options. A non-empty
	// localCredentialID narrows the allowed credentials.
	RequestSignIn(ctx context.Context, username, localCredentialID string) (*protocol.CredentialAssertion, string, error)

	// ConfirmSignIn sends the authenticator's assertion payload and returns
	// the credential set plus a fresh bearer token.
	ConfirmSignIn(ctx context.Context, username, challenge string, assertion []byte) ([]credential.Credential, string, error)
}
