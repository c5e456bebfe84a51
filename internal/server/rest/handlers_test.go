package rest

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	serverboard "github.com/dkurilov/boardpass/internal/server/board"
	"github.com/dkurilov/boardpass/internal/server/passkey"
	"github.com/dkurilov/boardpass/internal/server/users"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	us := users.NewStore()
	rp, err := passkey.New(passkey.Config{
		RPID:          "localhost",
		RPOrigin:      "http://localhost:8080",
		RPDisplayName: "boardpass test",
	}, us)
	require.NoError(t, err)

	s := NewServer(nil, us, rp, serverboard.NewStore(), []byte("test-secret"), time.Hour)
	srv := httptest.NewServer(s.Router())
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, url, token string, in any) *http.Response {
	t.Helper()
	body, err := json.Marshal(in)
	require.NoError(t, err)
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func signIn(t *testing.T, srv *httptest.Server, username, password string) string {
	t.Helper()
	resp := postJSON(t, srv.URL+"/auth/password", "", passwordRequest{Username: username, Password: password})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	return decodeBody[passwordResponse](t, resp).Token
}

func TestHandleUsername(t *testing.T) {
	srv := newTestServer(t)

	resp := postJSON(t, srv.URL+"/auth/username", "", usernameRequest{Username: " Alice "})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "alice", decodeBody[usernameResponse](t, resp).Username)

	resp = postJSON(t, srv.URL+"/auth/username", "", usernameRequest{Username: "!!"})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHandlePassword_RejectionMessage(t *testing.T) {
	srv := newTestServer(t)

	// First sign-in sets the password.
	_ = signIn(t, srv, "bob", "rightpw")

	resp := postJSON(t, srv.URL+"/auth/password", "", passwordRequest{Username: "bob", Password: "wrongpw"})
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.Equal(t, "invalid credentials", decodeBody[errorBody](t, resp).Error)
}

func TestPosts_RequireAuth(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/posts")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestPosts_CreateListShowComment(t *testing.T) {
	srv := newTestServer(t)
	token := signIn(t, srv, "alice", "hunter2")

	resp := postJSON(t, srv.URL+"/posts", token, createPostRequest{Title: "hello", Body: "first"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	post := decodeBody[serverboard.Post](t, resp)
	require.Equal(t, "alice", post.Author)

	resp = postJSON(t, srv.URL+"/posts/"+post.ID+"/comments", token, addCommentRequest{Body: "hi"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/posts/"+post.ID, nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	getResp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	full := decodeBody[serverboard.Post](t, getResp)
	require.Len(t, full.Comments, 1)

	req, err = http.NewRequest(http.MethodGet, srv.URL+"/posts", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	listResp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	posts := decodeBody[[]serverboard.Post](t, listResp)
	require.Len(t, posts, 1)
	require.Empty(t, posts[0].Comments)
}

func TestRegisterRequest_RequiresToken(t *testing.T) {
	srv := newTestServer(t)

	resp := postJSON(t, srv.URL+"/auth/registerRequest", "", struct{}{})
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = postJSON(t, srv.URL+"/auth/registerRequest", "garbage-token", struct{}{})
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestSignInRequest_NoPasskeys(t *testing.T) {
	srv := newTestServer(t)
	_ = signIn(t, srv, "alice", "hunter2")

	resp := postJSON(t, srv.URL+"/auth/signinRequest", "", signInRequestBody{Username: "alice"})
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}
