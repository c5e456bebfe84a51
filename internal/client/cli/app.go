// Package cli implements the boardpass command tree: password and passkey
// sign-in, session status, and bulletin-board access.
package cli

import (
	"bufio"
	"context"
	"io"
	"os"

	"github.com/dkurilov/boardpass/internal/client/api"
	"github.com/dkurilov/boardpass/internal/client/authenticator"
	"github.com/dkurilov/boardpass/internal/client/board"
	"github.com/dkurilov/boardpass/internal/client/config"
	"github.com/dkurilov/boardpass/internal/client/prefs"
	"github.com/dkurilov/boardpass/internal/client/session"
	"github.com/dkurilov/boardpass/internal/logging"
)

// App wires the client components together for the lifetime of one command
// invocation: the preference store, the API client, the software
// authenticator, the session, and the board client.
type App struct {
	cfg   *config.Config
	log   logging.Logger
	store *prefs.Store
	api   *api.HTTPClient
	sess  *session.Session
	board *board.Service

	in  *bufio.Reader
	out io.Writer
}

// NewApp opens the local database and constructs the session. The caller owns
// the returned App and must Close it.
func NewApp(ctx context.Context, cfg *config.Config, log logging.Logger) (*App, error) {
	store, err := prefs.Open(ctx, cfg.DatabasePath)
	if err != nil {
		return nil, err
	}

	client := api.NewHTTPClient(cfg.ServerEndpointAddr, log)
	authn := authenticator.NewSoftkey(store, log)

	sess, err := session.New(ctx, client, authn, store,
		session.WithOperationTimeout(cfg.OperationTimeout),
		session.WithLogger(log),
	)
	if err != nil {
		_ = client.Close()
		_ = store.Close()
		return nil, err
	}

	return &App{
		cfg:   cfg,
		log:   log,
		store: store,
		api:   client,
		sess:  sess,
		board: board.NewService(cfg.ServerEndpointAddr, sess.Token, log),
		in:    bufio.NewReader(os.Stdin),
		out:   os.Stdout,
	}, nil
}

// Close tears the App down in reverse construction order.
func (a *App) Close() {
	a.sess.Close()
	_ = a.board.Close()
	_ = a.api.Close()
	_ = a.store.Close()
}
