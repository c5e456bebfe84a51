package session

import "fmt"

// Kind enumerates the sign-in states. SignedOut and SignedIn are both stable
// rest states; SigningIn sits between a validated username and a token;
// SignInError is transient after a rejected password.
type Kind int

const (
	SignedOut Kind = iota
	SigningIn
	SignedIn
	SignInError
)

func (k Kind) String() string {
	switch k {
	case SignedOut:
		return "signed_out"
	case SigningIn:
		return "signing_in"
	case SignedIn:
		return "signed_in"
	case SignInError:
		return "sign_in_error"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// State is the single authoritative sign-in state. Exactly one Kind is
// current at any time; the state is derived from the persisted record, never
// stored on its own.
type State struct {
	Kind     Kind
	Username string
	Token    string
	// Message carries the user-readable failure text for SignInError.
	Message string
}

func signedOut() State {
	return State{Kind: SignedOut}
}

func signingIn(username string) State {
	return State{Kind: SigningIn, Username: username}
}

func signedIn(username, token string) State {
	return State{Kind: SignedIn, Username: username, Token: token}
}

func signInError(message string) State {
	return State{Kind: SignInError, Message: message}
}
