package services

import (
	"bbs-lab/mocks"
	"bbs-lab/repositories"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestBoardService_CreatePost_StoresThenNotifies(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	repo := mocks.NewMockIBoardRepository(ctrl)
	relay := mocks.NewMockIRelay(ctrl)
	service := NewBoardService(repo, relay)

	var stored repositories.BoardPost
	gomock.InOrder(
		repo.EXPECT().
			StorePost(gomock.Any()).
			DoAndReturn(func(post repositories.BoardPost) error {
				stored = post
				return nil
			}),
		// The notice goes out only after the post is durable.
		relay.EXPECT().NotifyNewPost("announcements"),
	)

	// When a post is created
	post, err := service.CreatePost("announcements", "alice", "Welcome", "First post!")

	// Then the stored copy matches what the caller got back
	req.NoError(err)
	req.Equal(stored, post)
	req.Equal("announcements", post.Board)
	req.Equal("alice", post.Author)
	req.NotZero(post.ID)
	req.False(post.CreatedAt.IsZero())
}

func TestBoardService_CreatePost_ValidatesInput(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	repo := mocks.NewMockIBoardRepository(ctrl)
	relay := mocks.NewMockIRelay(ctrl)
	service := NewBoardService(repo, relay)

	// Then neither storage nor notification happens
	_, err := service.CreatePost("", "alice", "Title", "Body")
	req.Error(err)

	_, err = service.CreatePost("announcements", "alice", "", "Body")
	req.Error(err)
}

func TestBoardService_CreatePost_StorageFailureSkipsTheNotice(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	repo := mocks.NewMockIBoardRepository(ctrl)
	relay := mocks.NewMockIRelay(ctrl)
	service := NewBoardService(repo, relay)

	repo.EXPECT().
		StorePost(gomock.Any()).
		Return(fmt.Errorf("disk full"))

	_, err := service.CreatePost("announcements", "alice", "Welcome", "Body")
	req.Error(err)
}

func TestBoardService_ListPosts_DelegatesToTheRepository(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	repo := mocks.NewMockIBoardRepository(ctrl)
	service := NewBoardService(repo, mocks.NewMockIRelay(ctrl))

	expected := []repositories.BoardPost{{Board: "announcements", Title: "Welcome"}}
	repo.EXPECT().ListPosts("announcements", 10).Return(expected, nil)

	posts, err := service.ListPosts("announcements", 10)
	req.NoError(err)
	req.Equal(expected, posts)
}
