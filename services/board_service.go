package services

import (
	"bbs-lab/repositories"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type IBoardService interface {
	CreatePost(board, author, title, body string) (repositories.BoardPost, error)
	ListPosts(board string, limit int) ([]repositories.BoardPost, error)
}

// PostNotifier is the relay's cross-cutting hook: creating a post pushes
// a lightweight "new content" notice to every connected session.
type PostNotifier interface {
	NotifyNewPost(board string)
}

// BoardService is the plain CRUD side of the product. It produces into
// the real-time core but never depends on its internals.
type BoardService struct {
	boardRepository repositories.IBoardRepository
	notifier        PostNotifier
}

func NewBoardService(repo repositories.IBoardRepository, notifier PostNotifier) IBoardService {
	return &BoardService{boardRepository: repo, notifier: notifier}
}

func (s *BoardService) CreatePost(board, author, title, body string) (repositories.BoardPost, error) {
	if board == "" || title == "" {
		return repositories.BoardPost{}, fmt.Errorf("board and title are required")
	}
	post := repositories.BoardPost{
		ID:        uuid.New(),
		Board:     board,
		Author:    author,
		Title:     title,
		Body:      body,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.boardRepository.StorePost(post); err != nil {
		return repositories.BoardPost{}, err
	}
	if s.notifier != nil {
		s.notifier.NotifyNewPost(board)
	}
	return post, nil
}

func (s *BoardService) ListPosts(board string, limit int) ([]repositories.BoardPost, error) {
	return s.boardRepository.ListPosts(board, limit)
}
