package repositories

import (
	bbserrors "bbs-lab/errors"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *badger.DB {
	t.Helper()
	options := badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR)
	db, err := badger.Open(options)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestUserRepository_CreateAndFetch(t *testing.T) {
	req := require.New(t)
	repository := NewUserRepository(openTestDB(t))

	// When a user is created
	id, err := repository.CreateUser("alice99", "alice@example.org", "hashed-secret")
	req.NoError(err)
	req.NotEmpty(id)

	// Then it comes back by email with the same fields
	user, err := repository.GetUserByEmail("alice@example.org")
	req.NoError(err)
	req.Equal(id, user.ID)
	req.Equal("alice99", user.Handle)
	req.Equal("hashed-secret", user.PasswordHash)
	req.False(user.CreatedAt.IsZero())
}

func TestUserRepository_DuplicateEmail(t *testing.T) {
	req := require.New(t)
	repository := NewUserRepository(openTestDB(t))

	_, err := repository.CreateUser("alice99", "alice@example.org", "hash-1")
	req.NoError(err)

	// When the same email registers again
	_, err = repository.CreateUser("alice2", "alice@example.org", "hash-2")

	// Then the original record survives
	req.ErrorIs(err, bbserrors.ErrUserAlreadyExists)
	user, err := repository.GetUserByEmail("alice@example.org")
	req.NoError(err)
	req.Equal("alice99", user.Handle)
}

func TestUserRepository_UnknownEmail(t *testing.T) {
	req := require.New(t)
	repository := NewUserRepository(openTestDB(t))

	_, err := repository.GetUserByEmail("ghost@example.org")
	req.ErrorIs(err, badger.ErrKeyNotFound)
}

func TestBoardRepository_ListPosts_NewestFirstWithLimit(t *testing.T) {
	req := require.New(t)
	repository := NewBoardRepository(openTestDB(t), slog.Default())

	// Given five posts stored oldest to newest
	at := time.Now().UTC()
	for i := 0; i < 5; i++ {
		err := repository.StorePost(BoardPost{
			ID:        uuid.New(),
			Board:     "announcements",
			Author:    "alice",
			Title:     fmt.Sprintf("post %d", i),
			CreatedAt: at.Add(time.Duration(i) * time.Minute),
		})
		req.NoError(err)
	}

	// When listing with a limit
	posts, err := repository.ListPosts("announcements", 3)
	req.NoError(err)

	// Then the newest three come back, newest first
	req.Len(posts, 3)
	req.Equal("post 4", posts[0].Title)
	req.Equal("post 3", posts[1].Title)
	req.Equal("post 2", posts[2].Title)
}

func TestBoardRepository_ListPosts_IsolatesBoards(t *testing.T) {
	req := require.New(t)
	repository := NewBoardRepository(openTestDB(t), slog.Default())

	at := time.Now().UTC()
	req.NoError(repository.StorePost(BoardPost{
		ID: uuid.New(), Board: "announcements", Title: "visible", CreatedAt: at,
	}))
	req.NoError(repository.StorePost(BoardPost{
		ID: uuid.New(), Board: "support", Title: "other board", CreatedAt: at,
	}))

	posts, err := repository.ListPosts("announcements", 0)
	req.NoError(err)
	req.Len(posts, 1)
	req.Equal("visible", posts[0].Title)
}

func TestBoardRepository_ListPosts_EmptyBoard(t *testing.T) {
	req := require.New(t)
	repository := NewBoardRepository(openTestDB(t), slog.Default())

	posts, err := repository.ListPosts("empty", 10)
	req.NoError(err)
	req.Empty(posts)
}

func TestBoardRepository_SameInstantPostsAreAllKept(t *testing.T) {
	req := require.New(t)
	repository := NewBoardRepository(openTestDB(t), slog.Default())

	// Given two posts sharing the exact same timestamp
	at := time.Now().UTC()
	for i := 0; i < 2; i++ {
		req.NoError(repository.StorePost(BoardPost{
			ID: uuid.New(), Board: "announcements",
			Title: fmt.Sprintf("twin %d", i), CreatedAt: at,
		}))
	}

	// Then the uuid suffix keeps their keys distinct
	posts, err := repository.ListPosts("announcements", 0)
	req.NoError(err)
	req.Len(posts, 2)
}
