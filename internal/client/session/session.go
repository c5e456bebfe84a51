// Package session implements the client-side sign-in state machine: a single
// authoritative sign-in state derived from the local preference store,
// mutated through serialized operations against the backend and the platform
// authenticator, and exposed reactively to observers.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dkurilov/boardpass/internal/client/api"
	"github.com/dkurilov/boardpass/internal/client/authenticator"
	"github.com/dkurilov/boardpass/internal/client/credential"
	"github.com/dkurilov/boardpass/internal/client/prefs"
	"github.com/dkurilov/boardpass/internal/logging"
	"github.com/dkurilov/boardpass/internal/watch"
)

// Preference-store keys for the persisted auth record.
const (
	prefUsername          = "username"
	prefToken             = "token"
	prefCredentials       = "credentials"
	prefLocalCredentialID = "local_credential_id"
)

// DefaultSignInErrorMessage is surfaced when the server rejects a password
// without providing its own message.
const DefaultSignInErrorMessage = "sign-in failed"

const defaultOperationTimeout = 30 * time.Second

var (
	// ErrClosed reports an operation submitted after Close.
	ErrClosed = errors.New("session closed")

	// ErrNotSigningIn reports an operation that needs a submitted username.
	ErrNotSigningIn = errors.New("no username submitted")

	// ErrNotSignedIn reports an operation that needs a full sign-in.
	ErrNotSignedIn = errors.New("not signed in")
)

// Session is the sign-in state machine. All mutating operations run on a
// single worker goroutine, which serializes access to the persisted auth
// record and the in-memory pending challenge. Callers block only on the
// completion of their own operation, bounded by the operation timeout.
type Session struct {
	client api.Client
	authn  authenticator.Authenticator
	store  *prefs.Store
	log    logging.Logger

	opTimeout time.Duration

	state       *watch.Value[State]
	credentials *watch.Value[[]credential.Credential]
	processing  *watch.Value[bool]

	tasks chan task
	quit  chan struct{}
	once  sync.Once
	wg    sync.WaitGroup

	// challenge is the pending server challenge. It is only touched from the
	// worker goroutine: set by a *Request operation, consumed by the matching
	// *Response operation, overwritten by each new request.
	challenge string

	cancelCredWatch func()
}

type task struct {
	ctx  context.Context
	run  func(ctx context.Context) error
	done chan error
}

// Option customizes a Session.
type Option func(*Session)

// WithOperationTimeout bounds every operation, including the awaited
// authenticator ceremony inside the combined operations.
func WithOperationTimeout(d time.Duration) Option {
	return func(s *Session) { s.opTimeout = d }
}

// WithLogger sets the structured logger.
func WithLogger(l logging.Logger) Option {
	return func(s *Session) { s.log = l }
}

// New derives the initial state from the store and starts the session
// worker. A corrupt persisted credential set fails construction.
func New(ctx context.Context, client api.Client, authn authenticator.Authenticator, store *prefs.Store, opts ...Option) (*Session, error) {
	s := &Session{
		client:     client,
		authn:      authn,
		store:      store,
		log:        logging.Nop(),
		opTimeout:  defaultOperationTimeout,
		processing: watch.NewValue(false),
		tasks:      make(chan task),
		quit:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	st, err := deriveState(ctx, store)
	if err != nil {
		return nil, err
	}
	s.state = watch.NewValue(st)

	records, err := store.GetStringSet(ctx, prefCredentials)
	if err != nil {
		return nil, err
	}
	creds, err := credential.Decode(records)
	if err != nil {
		return nil, err
	}
	s.credentials = watch.NewValue(creds)

	if err := s.startCredentialBridge(ctx); err != nil {
		return nil, err
	}

	s.wg.Add(1)
	go s.worker()

	return s, nil
}

// Close stops the worker and the credential bridge. Pending operations fail
// with ErrClosed.
func (s *Session) Close() {
	s.once.Do(func() {
		close(s.quit)
		if s.cancelCredWatch != nil {
			s.cancelCredWatch()
		}
	})
	s.wg.Wait()
}

// State returns the current derived sign-in state.
func (s *Session) State() State {
	return s.state.Get()
}

// ObserveState subscribes to state transitions. The current state is
// delivered immediately; each completed transition is delivered once, with
// conflation for slow consumers.
func (s *Session) ObserveState() (<-chan State, func()) {
	return s.state.Subscribe()
}

// Credentials returns the current decoded credential set, in registration
// order.
func (s *Session) Credentials() []credential.Credential {
	return s.credentials.Get()
}

// ObserveCredentials subscribes to credential-set changes.
func (s *Session) ObserveCredentials() (<-chan []credential.Credential, func()) {
	return s.credentials.Subscribe()
}

// Processing reports whether an operation is currently in flight.
func (s *Session) Processing() bool {
	return s.processing.Get()
}

// ObserveProcessing subscribes to the in-flight flag; UIs drive busy
// indicators off it.
func (s *Session) ObserveProcessing() (<-chan bool, func()) {
	return s.processing.Subscribe()
}

// Token returns the current bearer token, or "" when not signed in.
func (s *Session) Token() string {
	return s.state.Get().Token
}

// run executes fn on the session worker and waits for its completion. The
// worker serializes all mutations; the per-operation timeout bounds both the
// wait and the operation itself.
func (s *Session) run(ctx context.Context, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	t := task{ctx: ctx, run: fn, done: make(chan error, 1)}
	select {
	case s.tasks <- t:
	case <-s.quit:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-t.done:
		return err
	case <-s.quit:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Session) worker() {
	defer s.wg.Done()
	for {
		select {
		case <-s.quit:
			return
		case t := <-s.tasks:
			s.processing.Set(true)
			err := t.run(t.ctx)
			s.processing.Set(false)
			t.done <- err
		}
	}
}

// startCredentialBridge wires the store's live credential-set view into the
// session's decoded credential observable.
func (s *Session) startCredentialBridge(ctx context.Context) error {
	w, err := s.store.WatchStringSet(ctx, prefCredentials)
	if err != nil {
		return err
	}
	ch, cancel := w.Subscribe()
	s.cancelCredWatch = cancel

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for records := range ch {
			creds, err := credential.Decode(records)
			if err != nil {
				// Corrupt records written behind our back; surfaced on the
				// next construction, logged here.
				s.log.Error(context.Background(), "failed to decode credential records", "error", err)
				continue
			}
			s.credentials.Set(creds)
		}
	}()
	return nil
}

// deriveState computes the sign-in state as a pure function of the persisted
// record: no username means signed out, a username without a token means a
// sign-in is underway, both mean signed in.
func deriveState(ctx context.Context, store *prefs.Store) (State, error) {
	username, ok, err := store.GetString(ctx, prefUsername)
	if err != nil {
		return State{}, err
	}
	if !ok {
		return signedOut(), nil
	}
	token, ok, err := store.GetString(ctx, prefToken)
	if err != nil {
		return State{}, err
	}
	if !ok {
		return signingIn(username), nil
	}
	return signedIn(username, token), nil
}
