package rest

import (
	"encoding/json"
	"net/http"

	"github.com/dkurilov/boardpass/internal/server/auth"
	"github.com/dkurilov/boardpass/internal/server/users"
)

type usernameRequest struct {
	Username string `json:"username"`
}

type usernameResponse struct {
	Username string `json:"username"`
}

func (s *Server) handleUsername(w http.ResponseWriter, r *http.Request) {
	var in usernameRequest
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, err)
		return
	}

	canonical, err := s.users.ValidateUsername(in.Username)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, usernameResponse{Username: canonical})
}

type passwordRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type passwordResponse struct {
	Token    string `json:"token"`
	Username string `json:"username"`
}

func (s *Server) handlePassword(w http.ResponseWriter, r *http.Request) {
	var in passwordRequest
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, err)
		return
	}

	u, err := s.users.Authenticate(in.Username, in.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	token, err := auth.GenerateToken(u.ID, s.secret, s.tokenTTL)
	if err != nil {
		writeError(w, err)
		return
	}

	s.log.Info(r.Context(), "password sign-in", "user", u.Username)
	writeJSON(w, http.StatusOK, passwordResponse{Token: token, Username: u.Username})
}

func (s *Server) handleRegisterRequest(w http.ResponseWriter, r *http.Request) {
	u := requestUser(r)

	options, err := s.rp.BeginRegistration(u.Username)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, options)
}

type registerResponseRequest struct {
	Challenge   string          `json:"challenge"`
	Attestation json.RawMessage `json:"attestation"`
}

type credentialsResponse struct {
	Credentials []users.Credential `json:"credentials"`
}

func (s *Server) handleRegisterResponse(w http.ResponseWriter, r *http.Request) {
	u := requestUser(r)

	var in registerResponseRequest
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, err)
		return
	}

	creds, err := s.rp.FinishRegistration(u.Username, in.Challenge, in.Attestation)
	if err != nil {
		writeError(w, err)
		return
	}

	s.log.Info(r.Context(), "passkey registered", "user", u.Username, "credentials", len(creds))
	writeJSON(w, http.StatusOK, credentialsResponse{Credentials: creds})
}

type signInRequestBody struct {
	Username     string `json:"username"`
	CredentialID string `json:"credentialId"`
}

func (s *Server) handleSignInRequest(w http.ResponseWriter, r *http.Request) {
	var in signInRequestBody
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, err)
		return
	}

	canonical, err := s.users.ValidateUsername(in.Username)
	if err != nil {
		writeError(w, err)
		return
	}

	options, err := s.rp.BeginLogin(canonical, in.CredentialID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, options)
}

type signInResponseBody struct {
	Username  string          `json:"username"`
	Challenge string          `json:"challenge"`
	Assertion json.RawMessage `json:"assertion"`
}

type signInResponse struct {
	Token       string             `json:"token"`
	Credentials []users.Credential `json:"credentials"`
}

func (s *Server) handleSignInResponse(w http.ResponseWriter, r *http.Request) {
	var in signInResponseBody
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, err)
		return
	}

	canonical, err := s.users.ValidateUsername(in.Username)
	if err != nil {
		writeError(w, err)
		return
	}

	creds, err := s.rp.FinishLogin(canonical, in.Challenge, in.Assertion)
	if err != nil {
		writeError(w, err)
		return
	}

	u, err := s.users.Get(canonical)
	if err != nil {
		writeError(w, err)
		return
	}
	token, err := auth.GenerateToken(u.ID, s.secret, s.tokenTTL)
	if err != nil {
		writeError(w, err)
		return
	}

	s.log.Info(r.Context(), "passkey sign-in", "user", canonical)
	writeJSON(w, http.StatusOK, signInResponse{Token: token, Credentials: creds})
}
