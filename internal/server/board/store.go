// Package board is the dev server's in-memory bulletin board.
package board

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/dkurilov/boardpass/internal/common"
	"github.com/google/uuid"
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

// Store holds posts in memory. Safe for concurrent use.
type Store struct {
	mu    sync.RWMutex
	posts map[string]*Post
}

func NewStore() *Store {
	return &Store{posts: make(map[string]*Post)}
}

// Create publishes a new post.
func (s *Store) Create(author, title, body string) (Post, error) {
	if title == "" {
		return Post{}, fmt.Errorf("%w: title must not be empty", common.ErrorValidation)
	}
	p := &Post{
		ID:        uuid.NewString(),
		Title:     title,
		Body:      body,
		Author:    author,
		CreatedAt: time.Now().UTC(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.posts[p.ID] = p
	return copyPost(p), nil
}

// List returns all posts, newest first, without comments.
func (s *Store) List() []Post {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Post, 0, len(s.posts))
	for _, p := range s.posts {
		c := copyPost(p)
		c.Comments = nil
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

// Get returns one post with its comments.
func (s *Store) Get(id string) (Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.posts[id]
	if !ok {
		return Post{}, fmt.Errorf("%w: unknown post %q", common.ErrorNotFound, id)
	}
	return copyPost(p), nil
}

// AddComment appends a comment to the post with the given id.
func (s *Store) AddComment(postID, author, body string) (Comment, error) {
	if body == "" {
		return Comment{}, fmt.Errorf("%w: comment must not be empty", common.ErrorValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.posts[postID]
	if !ok {
		return Comment{}, fmt.Errorf("%w: unknown post %q", common.ErrorNotFound, postID)
	}
	c := Comment{
		ID:        uuid.NewString(),
		Author:    author,
		Body:      body,
		CreatedAt: time.Now().UTC(),
	}
	p.Comments = append(p.Comments, c)
	return c, nil
}

func copyPost(p *Post) Post {
	c := *p
	c.Comments = append([]Comment(nil), p.Comments...)
	return c
}
