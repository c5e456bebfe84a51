// Package authenticator defines the platform-authenticator boundary. The
// session hands ceremony options to an Authenticator and gets back an opaque
// payload; the only field the session ever reads is the credential id.
package authenticator

import (
	"context"
	"errors"

	"github.com/go-webauthn/webauthn/protocol"
)

// ErrUnavailable reports that no authenticator is configured. Callers get a
// typed condition instead of a silent no-op.
var ErrUnavailable = errors.New("authenticator unavailable")

// Attestation is the result of a registration ceremony.
type Attestation struct {
	// CredentialID identifies the credential the authenticator created.
	CredentialID string
	// Payload is the raw ceremony response, opaque to the session.
	Payload []byte
}

// Assertion is the result of a sign-in ceremony.
type Assertion struct {
	CredentialID string
	Payload      []byte
}

// Authenticator performs device-local ceremonies. Implementations must honor
// context cancellation; a ceremony can involve user interaction and take
// arbitrarily long.
type Authenticator interface {
	Register(ctx context.Context, options *protocol.CredentialCreation) (*Attestation, error)
	SignIn(ctx context.Context, options *protocol.CredentialAssertion) (*Assertion, error)
}
