package authenticator

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/dkurilov/boardpass/internal/client/prefs"
	"github.com/dkurilov/boardpass/internal/common"
	"github.com/dkurilov/boardpass/internal/logging"
	"github.com/go-webauthn/webauthn/protocol"
)

// softkeyPrefPrefix namespaces private keys inside the preference store.
const softkeyPrefPrefix = "softkey/"

// AttestationPayload is the simplified ceremony response produced by the
// software authenticator. Real platform authenticators return CTAP-formatted
// attestations; the dev server accepts this form instead.
type AttestationPayload struct {
	ID        string `json:"id"`
	PublicKey string `json:"publicKey"`
	Challenge string `json:"challenge"`
}

// AssertionPayload carries a signature over the SHA-256 digest of the
// challenge string, proving possession of the registered private key.
type AssertionPayload struct {
	ID        string `json:"id"`
	Challenge string `json:"challenge"`
	Signature string `json:"signature"`
}

// Softkey is a development stand-in for a platform authenticator: one P-256
// key pair per registration, private keys kept in the local preference
// store. It never prompts; production integrations replace it with a real
// platform binding.
type Softkey struct {
	store *prefs.Store
	log   logging.Logger
}

func NewSoftkey(store *prefs.Store, log logging.Logger) *Softkey {
	if log == nil {
		log = logging.Nop()
	}
	return &Softkey{store: store, log: log}
}

func (s *Softkey) Register(ctx context.Context, options *protocol.CredentialCreation) (*Attestation, error) {
	if options == nil {
		return nil, fmt.Errorf("%w: no creation options", common.ErrorValidation)
	}

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}

	credID, err := newCredentialID()
	if err != nil {
		return nil, err
	}

	priv, err := x509.MarshalECPrivateKey(key)
	if err != nil {
		return nil, fmt.Errorf("marshal private key: %w", err)
	}
	if err := s.store.PutString(ctx, softkeyPrefPrefix+credID, base64.StdEncoding.EncodeToString(priv)); err != nil {
		return nil, fmt.Errorf("store private key: %w", err)
	}

	pub, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("marshal public key: %w", err)
	}

	payload, err := json.Marshal(AttestationPayload{
		ID:        credID,
		PublicKey: base64.StdEncoding.EncodeToString(pub),
		Challenge: base64.RawURLEncoding.EncodeToString(options.Response.Challenge),
	})
	if err != nil {
		return nil, err
	}

	s.log.Debug(ctx, "softkey created credential", "credential_id", credID)
	return &Attestation{CredentialID: credID, Payload: payload}, nil
}

func (s *Softkey) SignIn(ctx context.Context, options *protocol.CredentialAssertion) (*Assertion, error) {
	if options == nil {
		return nil, fmt.Errorf("%w: no assertion options", common.ErrorValidation)
	}

	credID, key, err := s.pickCredential(ctx, options)
	if err != nil {
		return nil, err
	}

	challenge := base64.RawURLEncoding.EncodeToString(options.Response.Challenge)
	digest := sha256.Sum256([]byte(challenge))
	sig, err := ecdsa.SignASN1(rand.Reader, key, digest[:])
	if err != nil {
		return nil, fmt.Errorf("sign challenge: %w", err)
	}

	payload, err := json.Marshal(AssertionPayload{
		ID:        credID,
		Challenge: challenge,
		Signature: base64.StdEncoding.EncodeToString(sig),
	})
	if err != nil {
		return nil, err
	}

	return &Assertion{CredentialID: credID, Payload: payload}, nil
}

// pickCredential walks the server's allowed-credential descriptors and
// returns the first one we hold a private key for.
func (s *Softkey) pickCredential(ctx context.Context, options *protocol.CredentialAssertion) (string, *ecdsa.PrivateKey, error) {
	for _, desc := range options.Response.AllowedCredentials {
		credID := base64.RawURLEncoding.EncodeToString(desc.CredentialID)
		key, ok, err := s.loadKey(ctx, credID)
		if err != nil {
			return "", nil, err
		}
		if ok {
			return credID, key, nil
		}
	}
	return "", nil, fmt.Errorf("%w: no usable credential for this account", common.ErrorNotFound)
}

func (s *Softkey) loadKey(ctx context.Context, credID string) (*ecdsa.PrivateKey, bool, error) {
	encoded, ok, err := s.store.GetString(ctx, softkeyPrefPrefix+credID)
	if err != nil || !ok {
		return nil, false, err
	}
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, false, fmt.Errorf("decode private key: %w", err)
	}
	key, err := x509.ParseECPrivateKey(raw)
	if err != nil {
		return nil, false, fmt.Errorf("parse private key: %w", err)
	}
	return key, true, nil
}

func newCredentialID() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate credential id: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
