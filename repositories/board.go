//go:generate go run go.uber.org/mock/mockgen -source=board.go -destination=../mocks/mock_board_repository.go -package=mocks
package repositories

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

type IBoardRepository interface {
	StorePost(post BoardPost) error
	ListPosts(board string, limit int) ([]BoardPost, error)
}

// BoardPost is one persisted bulletin-board entry.
type BoardPost struct {
	ID        uuid.UUID `json:"id"`
	Board     string    `json:"board"`
	Author    string    `json:"author"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"createdAt"`
}

type BoardRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewBoardRepository(db *badger.DB, log *slog.Logger) IBoardRepository {
	return &BoardRepository{db: db, log: log}
}

// postKey formats "post:{board}:{timestamp_padded}:{uuid}" so that a
// prefix scan yields chronological order (19-digit zero padding keeps the
// lexicographic and numeric orders aligned) and the uuid disambiguates
// same-nanosecond posts.
func postKey(post BoardPost) []byte {
	return []byte(fmt.Sprintf("post:%s:%019d:%s",
		post.Board, post.CreatedAt.UnixNano(), post.ID))
}

func (r *BoardRepository) StorePost(post BoardPost) error {
	data, err := json.Marshal(post)
	if err != nil {
		return fmt.Errorf("marshal failed: %w", err)
	}
	return r.db.Update(func(txn *badger.Txn) error {
		return txn.Set(postKey(post), data)
	})
}

// ListPosts returns up to limit posts for the board, newest first.
func (r *BoardRepository) ListPosts(board string, limit int) ([]BoardPost, error) {
	var posts []BoardPost
	err := r.db.View(func(txn *badger.Txn) error {
		prefix := []byte(fmt.Sprintf("post:%s:", board))
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		it := txn.NewIterator(options)
		defer it.Close()

		// Seek past the newest possible key for this prefix, then walk
		// backwards.
		seekKey := append(append([]byte{}, prefix...), []byte("9999999999999999999")...)
		for it.Seek(seekKey); it.ValidForPrefix(prefix); it.Next() {
			if limit > 0 && len(posts) == limit {
				r.log.Debug(fmt.Sprintf("Maximum of %d posts reached", limit))
				break
			}
			err := it.Item().Value(func(val []byte) error {
				var post BoardPost
				if err := json.Unmarshal(val, &post); err != nil {
					return err
				}
				posts = append(posts, post)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	return posts, err
}
