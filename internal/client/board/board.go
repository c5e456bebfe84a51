// Package board is the bulletin-board client: posts and comments over the
// same REST backend the sign-in flow talks to. All calls carry the bearer
// token supplied by the token source (normally session.Token).
package board

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/dkurilov/boardpass/internal/client/api"
	"github.com/dkurilov/boardpass/internal/common"
	"github.com/dkurilov/boardpass/internal/logging"
)

// Post is one bulletin-board entry.
type Post struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Author    string    `json:"author"`
	CreatedAt time.Time `json:"createdAt"`
	Comments  []Comment `json:"comments,omitempty"`
}

// Comment is one reply on a post.
type Comment struct {
	ID        string    `json:"id"`
	Author    string    `json:"author"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"createdAt"`
}

// TokenSource supplies the current bearer token, or "" when signed out.
type TokenSource func() string

const defaultHTTPTimeout = 30 * time.Second

// Service reads and writes the bulletin board.
type Service struct {
	base   string
	tokens TokenSource
	client *http.Client
	log    logging.Logger
}

// NewService builds a board client for the backend at base. tokens is
// consulted on every request; a signed-out source yields unauthenticated
// requests, which the server rejects with 401.
func NewService(base string, tokens TokenSource, log logging.Logger) *Service {
	if log == nil {
		log = logging.Nop()
	}
	return &Service{
		base:   base,
		tokens: tokens,
		client: &http.Client{Timeout: defaultHTTPTimeout},
		log:    log,
	}
}

func (s *Service) Close() error {
	s.client.CloseIdleConnections()
	return nil
}

// ListPosts returns all posts, newest first, without comments.
func (s *Service) ListPosts(ctx context.Context) ([]Post, error) {
	var out []Post
	if err := s.do(ctx, http.MethodGet, "/posts", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetPost returns one post with its comments.
func (s *Service) GetPost(ctx context.Context, id string) (*Post, error) {
	var out Post
	if err := s.do(ctx, http.MethodGet, "/posts/"+id, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type createPostRequest struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// CreatePost publishes a new post authored by the signed-in user.
func (s *Service) CreatePost(ctx context.Context, title, body string) (*Post, error) {
	var out Post
	if err := s.do(ctx, http.MethodPost, "/posts", createPostRequest{Title: title, Body: body}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type addCommentRequest struct {
	Body string `json:"body"`
}

// AddComment appends a comment to the post with the given id.
func (s *Service) AddComment(ctx context.Context, postID, body string) (*Comment, error) {
	var out Comment
	if err := s.do(ctx, http.MethodPost, "/posts/"+postID+"/comments", addCommentRequest{Body: body}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Service) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.base+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := s.tokens(); token != "" {
		req.Header.Set(common.AuthorizationHeaderName, common.BearerPrefix+token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s %s: read response: %w", method, path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var er errorResponse
		_ = json.Unmarshal(data, &er)
		s.log.Debug(ctx, "board request rejected", "method", method, "path", path, "status", resp.StatusCode)
		return &api.Error{Status: resp.StatusCode, Message: er.Error}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%s %s: decode response: %w", method, path, err)
	}
	return nil
}
