// Package passkey is the dev server's WebAuthn relying party. Ceremony
// options (and their challenges) are generated with the go-webauthn library;
// ceremony responses are verified in a simplified development form: the
// response must echo the pending challenge, and sign-in assertions must carry
// a valid P-256 signature over the challenge digest. Production deployments
// verify full CTAP attestations instead.
package passkey

import (
	"crypto/ecdsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/dkurilov/boardpass/internal/common"
	"github.com/dkurilov/boardpass/internal/server/users"
	"github.com/go-webauthn/webauthn/protocol"
	"github.com/go-webauthn/webauthn/webauthn"
)

const sessionTTL = 5 * time.Minute

// Config identifies the relying party.
type Config struct {
	RPID          string
	RPOrigin      string
	RPDisplayName string
}

type ceremonyKind int

const (
	ceremonyRegistration ceremonyKind = iota
	ceremonyLogin
)

type pendingCeremony struct {
	kind     ceremonyKind
	username string
	data     webauthn.SessionData
	created  time.Time
}

// RP generates ceremony options and verifies ceremony responses against the
// account store. Pending ceremonies are keyed by challenge.
type RP struct {
	wa    *webauthn.WebAuthn
	users *users.Store

	mu      sync.Mutex
	pending map[string]pendingCeremony
}

func New(cfg Config, store *users.Store) (*RP, error) {
	wa, err := webauthn.New(&webauthn.Config{
		RPDisplayName: cfg.RPDisplayName,
		RPID:          cfg.RPID,
		RPOrigins:     []string{cfg.RPOrigin},
	})
	if err != nil {
		return nil, fmt.Errorf("configure relying party: %w", err)
	}
	return &RP{wa: wa, users: store, pending: make(map[string]pendingCeremony)}, nil
}

// attestationPayload is the simplified registration response accepted in
// development.
type attestationPayload struct {
	ID        string `json:"id"`
	PublicKey string `json:"publicKey"`
	Challenge string `json:"challenge"`
}

// assertionPayload is the simplified sign-in response: a signature over the
// SHA-256 digest of the challenge string.
type assertionPayload struct {
	ID        string `json:"id"`
	Challenge string `json:"challenge"`
	Signature string `json:"signature"`
}

// BeginRegistration generates credential-creation options for the user and
// records the pending ceremony.
func (r *RP) BeginRegistration(username string) (*protocol.CredentialCreation, error) {
	u, err := r.users.Get(username)
	if err != nil {
		return nil, err
	}

	options, session, err := r.wa.BeginRegistration(&waUser{u})
	if err != nil {
		return nil, fmt.Errorf("begin registration: %w", err)
	}

	r.storePending(session.Challenge, pendingCeremony{
		kind:     ceremonyRegistration,
		username: username,
		data:     *session,
		created:  time.Now(),
	})
	return options, nil
}

// FinishRegistration verifies the attestation against the pending ceremony
// and stores the new credential. Returns the user's full credential list.
func (r *RP) FinishRegistration(username, challenge string, attestation []byte) ([]users.Credential, error) {
	if _, err := r.consumePending(challenge, ceremonyRegistration, username); err != nil {
		return nil, err
	}

	var payload attestationPayload
	if err := json.Unmarshal(attestation, &payload); err != nil {
		return nil, fmt.Errorf("%w: malformed attestation", common.ErrorValidation)
	}
	if payload.Challenge != challenge {
		return nil, fmt.Errorf("%w: attestation challenge mismatch", common.ErrChallengeMismatch)
	}
	if payload.ID == "" {
		return nil, fmt.Errorf("%w: attestation missing credential id", common.ErrorValidation)
	}
	if _, err := parsePublicKey(payload.PublicKey); err != nil {
		return nil, err
	}

	return r.users.AddCredential(username, users.Credential{ID: payload.ID, PublicKey: payload.PublicKey})
}

// BeginLogin generates assertion options for the user. When the client
// remembers a last-used credential id, the allowed list narrows to it.
func (r *RP) BeginLogin(username, credentialID string) (*protocol.CredentialAssertion, error) {
	u, err := r.users.Get(username)
	if err != nil {
		return nil, err
	}
	if len(u.Credentials) == 0 {
		return nil, fmt.Errorf("%w: no passkeys registered for %q", common.ErrorNotFound, username)
	}

	var opts []webauthn.LoginOption
	if credentialID != "" {
		if desc, ok := descriptorFor(u.Credentials, credentialID); ok {
			opts = append(opts, webauthn.WithAllowedCredentials([]protocol.CredentialDescriptor{desc}))
		}
	}

	options, session, err := r.wa.BeginLogin(&waUser{u}, opts...)
	if err != nil {
		return nil, fmt.Errorf("begin login: %w", err)
	}

	r.storePending(session.Challenge, pendingCeremony{
		kind:     ceremonyLogin,
		username: username,
		data:     *session,
		created:  time.Now(),
	})
	return options, nil
}

// FinishLogin verifies the assertion signature against the registered public
// key. Returns the user's credential list for the client to refresh its
// cache.
func (r *RP) FinishLogin(username, challenge string, assertion []byte) ([]users.Credential, error) {
	if _, err := r.consumePending(challenge, ceremonyLogin, username); err != nil {
		return nil, err
	}

	var payload assertionPayload
	if err := json.Unmarshal(assertion, &payload); err != nil {
		return nil, fmt.Errorf("%w: malformed assertion", common.ErrorValidation)
	}
	if payload.Challenge != challenge {
		return nil, fmt.Errorf("%w: assertion challenge mismatch", common.ErrChallengeMismatch)
	}

	creds, err := r.users.Credentials(username)
	if err != nil {
		return nil, err
	}
	registered, ok := findCredential(creds, payload.ID)
	if !ok {
		return nil, fmt.Errorf("%w: unknown credential", common.ErrorUnauthorized)
	}

	pub, err := parsePublicKey(registered.PublicKey)
	if err != nil {
		return nil, err
	}
	sig, err := base64.StdEncoding.DecodeString(payload.Signature)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed signature", common.ErrorValidation)
	}
	digest := sha256.Sum256([]byte(challenge))
	if !ecdsa.VerifyASN1(pub, digest[:], sig) {
		return nil, fmt.Errorf("%w: signature verification failed", common.ErrorUnauthorized)
	}

	return creds, nil
}

func (r *RP) storePending(challenge string, c pendingCeremony) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for key, p := range r.pending {
		if time.Since(p.created) > sessionTTL {
			delete(r.pending, key)
		}
	}
	r.pending[challenge] = c
}

func (r *RP) consumePending(challenge string, kind ceremonyKind, username string) (pendingCeremony, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.pending[challenge]
	if !ok || c.kind != kind || c.username != username || time.Since(c.created) > sessionTTL {
		return pendingCeremony{}, fmt.Errorf("%w: no pending ceremony for this challenge", common.ErrChallengeMismatch)
	}
	delete(r.pending, challenge)
	return c, nil
}

func parsePublicKey(encoded string) (*ecdsa.PublicKey, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed public key", common.ErrorValidation)
	}
	key, err := x509.ParsePKIXPublicKey(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: unparseable public key", common.ErrorValidation)
	}
	pub, ok := key.(*ecdsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("%w: public key is not ECDSA", common.ErrorValidation)
	}
	return pub, nil
}

func findCredential(creds []users.Credential, id string) (users.Credential, bool) {
	for _, c := range creds {
		if c.ID == id {
			return c, true
		}
	}
	return users.Credential{}, false
}

func descriptorFor(creds []users.Credential, id string) (protocol.CredentialDescriptor, bool) {
	if _, ok := findCredential(creds, id); !ok {
		return protocol.CredentialDescriptor{}, false
	}
	raw, err := base64.RawURLEncoding.DecodeString(id)
	if err != nil {
		return protocol.CredentialDescriptor{}, false
	}
	return protocol.CredentialDescriptor{
		Type:         protocol.PublicKeyCredentialType,
		CredentialID: raw,
	}, true
}

// waUser adapts a stored account to the webauthn.User interface for option
// generation.
type waUser struct {
	u *users.User
}

func (w *waUser) WebAuthnID() []byte          { return []byte(w.u.ID) }
func (w *waUser) WebAuthnName() string        { return w.u.Username }
func (w *waUser) WebAuthnDisplayName() string { return w.u.Username }
func (w *waUser) WebAuthnIcon() string        { return "" }

func (w *waUser) WebAuthnCredentials() []webauthn.Credential {
	creds := make([]webauthn.Credential, 0, len(w.u.Credentials))
	for _, c := range w.u.Credentials {
		id, err := base64.RawURLEncoding.DecodeString(c.ID)
		if err != nil {
			continue
		}
		creds = append(creds, webauthn.Credential{ID: id})
	}
	return creds
}
