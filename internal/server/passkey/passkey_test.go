package passkey

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"testing"

	"github.com/dkurilov/boardpass/internal/common"
	"github.com/dkurilov/boardpass/internal/server/users"
	"github.com/stretchr/testify/require"
)

func newRP(t *testing.T) (*RP, *users.Store) {
	t.Helper()
	store := users.NewStore()
	_, err := store.Authenticate("alice", "hunter2")
	require.NoError(t, err)

	rp, err := New(Config{
		RPID:          "localhost",
		RPOrigin:      "http://localhost:8080",
		RPDisplayName: "boardpass test",
	}, store)
	require.NoError(t, err)
	return rp, store
}

type testKey struct {
	id   string
	priv *ecdsa.PrivateKey
	pub  string
}

func newTestKey(t *testing.T) testKey {
	t.Helper()
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	pub, err := x509.MarshalPKIXPublicKey(&priv.PublicKey)
	require.NoError(t, err)

	id := make([]byte, 16)
	_, err = rand.Read(id)
	require.NoError(t, err)

	return testKey{
		id:   base64.RawURLEncoding.EncodeToString(id),
		priv: priv,
		pub:  base64.StdEncoding.EncodeToString(pub),
	}
}

func register(t *testing.T, rp *RP, key testKey) {
	t.Helper()
	options, err := rp.BeginRegistration("alice")
	require.NoError(t, err)
	challenge := base64.RawURLEncoding.EncodeToString(options.Response.Challenge)

	attestation, err := json.Marshal(attestationPayload{
		ID:        key.id,
		PublicKey: key.pub,
		Challenge: challenge,
	})
	require.NoError(t, err)

	_, err = rp.FinishRegistration("alice", challenge, attestation)
	require.NoError(t, err)
}

func TestRegistration_RoundTrip(t *testing.T) {
	rp, store := newRP(t)
	key := newTestKey(t)

	options, err := rp.BeginRegistration("alice")
	require.NoError(t, err)
	require.NotEmpty(t, options.Response.Challenge)
	challenge := base64.RawURLEncoding.EncodeToString(options.Response.Challenge)

	attestation, err := json.Marshal(attestationPayload{
		ID:        key.id,
		PublicKey: key.pub,
		Challenge: challenge,
	})
	require.NoError(t, err)

	creds, err := rp.FinishRegistration("alice", challenge, attestation)
	require.NoError(t, err)
	require.Len(t, creds, 1)
	require.Equal(t, key.id, creds[0].ID)

	stored, err := store.Credentials("alice")
	require.NoError(t, err)
	require.Equal(t, creds, stored)
}

func TestFinishRegistration_UnknownChallenge(t *testing.T) {
	rp, _ := newRP(t)

	attestation, _ := json.Marshal(attestationPayload{ID: "x", Challenge: "never-issued"})
	_, err := rp.FinishRegistration("alice", "never-issued", attestation)
	require.ErrorIs(t, err, common.ErrChallengeMismatch)
}

func TestFinishRegistration_ChallengeConsumedOnce(t *testing.T) {
	rp, _ := newRP(t)
	key := newTestKey(t)

	options, err := rp.BeginRegistration("alice")
	require.NoError(t, err)
	challenge := base64.RawURLEncoding.EncodeToString(options.Response.Challenge)

	attestation, _ := json.Marshal(attestationPayload{ID: key.id, PublicKey: key.pub, Challenge: challenge})
	_, err = rp.FinishRegistration("alice", challenge, attestation)
	require.NoError(t, err)

	_, err = rp.FinishRegistration("alice", challenge, attestation)
	require.ErrorIs(t, err, common.ErrChallengeMismatch)
}

func TestBeginLogin_NoCredentials(t *testing.T) {
	rp, _ := newRP(t)

	_, err := rp.BeginLogin("alice", "")
	require.ErrorIs(t, err, common.ErrorNotFound)
}

func TestLogin_RoundTrip(t *testing.T) {
	rp, _ := newRP(t)
	key := newTestKey(t)
	register(t, rp, key)

	options, err := rp.BeginLogin("alice", key.id)
	require.NoError(t, err)
	require.Len(t, options.Response.AllowedCredentials, 1)
	challenge := base64.RawURLEncoding.EncodeToString(options.Response.Challenge)

	digest := sha256.Sum256([]byte(challenge))
	sig, err := ecdsa.SignASN1(rand.Reader, key.priv, digest[:])
	require.NoError(t, err)

	assertion, err := json.Marshal(assertionPayload{
		ID:        key.id,
		Challenge: challenge,
		Signature: base64.StdEncoding.EncodeToString(sig),
	})
	require.NoError(t, err)

	creds, err := rp.FinishLogin("alice", challenge, assertion)
	require.NoError(t, err)
	require.Len(t, creds, 1)
}

func TestFinishLogin_BadSignature(t *testing.T) {
	rp, _ := newRP(t)
	key := newTestKey(t)
	register(t, rp, key)

	options, err := rp.BeginLogin("alice", "")
	require.NoError(t, err)
	challenge := base64.RawURLEncoding.EncodeToString(options.Response.Challenge)

	// Sign with a different key.
	other := newTestKey(t)
	digest := sha256.Sum256([]byte(challenge))
	sig, err := ecdsa.SignASN1(rand.Reader, other.priv, digest[:])
	require.NoError(t, err)

	assertion, _ := json.Marshal(assertionPayload{
		ID:        key.id,
		Challenge: challenge,
		Signature: base64.StdEncoding.EncodeToString(sig),
	})

	_, err = rp.FinishLogin("alice", challenge, assertion)
	require.ErrorIs(t, err, common.ErrorUnauthorized)
}

func TestFinishLogin_WrongCeremonyKind(t *testing.T) {
	rp, _ := newRP(t)
	key := newTestKey(t)

	options, err := rp.BeginRegistration("alice")
	require.NoError(t, err)
	challenge := base64.RawURLEncoding.EncodeToString(options.Response.Challenge)

	assertion, _ := json.Marshal(assertionPayload{ID: key.id, Challenge: challenge})
	_, err = rp.FinishLogin("alice", challenge, assertion)
	require.ErrorIs(t, err, common.ErrChallengeMismatch)
}
