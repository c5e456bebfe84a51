// Package credential defines the client-side credential model and the codec
// that serializes the ordered credential list into the string-set
// representation held by the preference store.
package credential

// Credential is a public-key record bound to one registered authenticator.
// Identity is the ID; a credential is immutable once created.
type Credential struct {
	ID        string `json:"id"`
	PublicKey string `json:"publicKey"`
}
