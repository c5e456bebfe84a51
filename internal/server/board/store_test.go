package board

import (
	"testing"

	"github.com/dkurilov/boardpass/internal/common"
	"github.com/stretchr/testify/require"
)

func TestCreateAndGet(t *testing.T) {
	s := NewStore()

	created, err := s.Create("alice", "hello", "first post")
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	require.False(t, created.CreatedAt.IsZero())

	got, err := s.Get(created.ID)
	require.NoError(t, err)
	require.Equal(t, "hello", got.Title)
	require.Equal(t, "alice", got.Author)
}

func TestCreate_EmptyTitle(t *testing.T) {
	s := NewStore()
	_, err := s.Create("alice", "", "body")
	require.ErrorIs(t, err, common.ErrorValidation)
}

func TestList_OmitsComments(t *testing.T) {
	s := NewStore()
	p, err := s.Create("alice", "hello", "body")
	require.NoError(t, err)
	_, err = s.AddComment(p.ID, "bob", "hi")
	require.NoError(t, err)

	posts := s.List()
	require.Len(t, posts, 1)
	require.Empty(t, posts[0].Comments)

	full, err := s.Get(p.ID)
	require.NoError(t, err)
	require.Len(t, full.Comments, 1)
}

func TestAddComment_UnknownPost(t *testing.T) {
	s := NewStore()
	_, err := s.AddComment("nope", "bob", "hi")
	require.ErrorIs(t, err, common.ErrorNotFound)
}

func TestGet_Unknown(t *testing.T) {
	s := NewStore()
	_, err := s.Get("nope")
	require.ErrorIs(t, err, common.ErrorNotFound)
}
