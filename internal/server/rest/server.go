// Package rest exposes the dev server over HTTP: the auth endpoints the
// client's sign-in flow talks to, and the bulletin-board endpoints behind
// bearer-token auth.
package rest

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/dkurilov/boardpass/internal/common"
	"github.com/dkurilov/boardpass/internal/logging"
	"github.com/dkurilov/boardpass/internal/server/auth"
	"github.com/dkurilov/boardpass/internal/server/board"
	"github.com/dkurilov/boardpass/internal/server/passkey"
	"github.com/dkurilov/boardpass/internal/server/users"
	"github.com/gorilla/mux"
)

// Server holds the handler dependencies.
type Server struct {
	log      logging.Logger
	users    *users.Store
	rp       *passkey.RP
	board    *board.Store
	secret   []byte
	tokenTTL time.Duration
}

func NewServer(log logging.Logger, us *users.Store, rp *passkey.RP, bs *board.Store, secret []byte, tokenTTL time.Duration) *Server {
	if log == nil {
		log = logging.Nop()
	}
	return &Server{log: log, users: us, rp: rp, board: bs, secret: secret, tokenTTL: tokenTTL}
}

// Router builds the route table.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/auth/username", s.handleUsername).Methods(http.MethodPost)
	r.HandleFunc("/auth/password", s.handlePassword).Methods(http.MethodPost)
	r.HandleFunc("/auth/registerRequest", s.withAuth(s.handleRegisterRequest)).Methods(http.MethodPost)
	r.HandleFunc("/auth/registerResponse", s.withAuth(s.handleRegisterResponse)).Methods(http.MethodPost)
	r.HandleFunc("/auth/signinRequest", s.handleSignInRequest).Methods(http.MethodPost)
	r.HandleFunc("/auth/signinResponse", s.handleSignInResponse).Methods(http.MethodPost)

	r.HandleFunc("/posts", s.withAuth(s.handleListPosts)).Methods(http.MethodGet)
	r.HandleFunc("/posts", s.withAuth(s.handleCreatePost)).Methods(http.MethodPost)
	r.HandleFunc("/posts/{id}", s.withAuth(s.handleGetPost)).Methods(http.MethodGet)
	r.HandleFunc("/posts/{id}/comments", s.withAuth(s.handleAddComment)).Methods(http.MethodPost)

	return r
}

type userKey struct{}

// withAuth verifies the bearer token and stashes the account in the request
// context.
func (s *Server) withAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get(common.AuthorizationHeaderName)
		if !strings.HasPrefix(header, common.BearerPrefix) {
			writeError(w, common.ErrorUnauthorized)
			return
		}

		userID, err := auth.GetUserIDFromToken(strings.TrimPrefix(header, common.BearerPrefix), s.secret)
		if err != nil {
			s.log.Debug(r.Context(), "rejected token", "error", err)
			writeError(w, common.ErrorUnauthorized)
			return
		}

		u, err := s.users.GetByID(userID)
		if err != nil {
			writeError(w, common.ErrorUnauthorized)
			return
		}

		next(w, r.WithContext(context.WithValue(r.Context(), userKey{}, u)))
	}
}

func requestUser(r *http.Request) *users.User {
	u, _ := r.Context().Value(userKey{}).(*users.User)
	return u
}
