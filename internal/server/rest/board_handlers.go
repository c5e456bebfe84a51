package rest

import (
	"net/http"

	"github.com/gorilla/mux"
)

func (s *Server) handleListPosts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.board.List())
}

func (s *Server) handleGetPost(w http.ResponseWriter, r *http.Request) {
	post, err := s.board.Get(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, post)
}

type createPostRequest struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

func (s *Server) handleCreatePost(w http.ResponseWriter, r *http.Request) {
	u := requestUser(r)

	var in createPostRequest
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, err)
		return
	}

	post, err := s.board.Create(u.Username, in.Title, in.Body)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, post)
}

type addCommentRequest struct {
	Body string `json:"body"`
}

func (s *Server) handleAddComment(w http.ResponseWriter, r *http.Request) {
	u := requestUser(r)

	var in addCommentRequest
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, err)
		return
	}

	comment, err := s.board.AddComment(mux.Vars(r)["id"], u.Username, in.Body)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, comment)
}
