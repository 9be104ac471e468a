package main

import (
	"bbs-lab/repositories"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/gookit/color"
	"github.com/olekukonko/tablewriter"
)

// viewer dumps persisted board posts (or users) while the server keeps
// running, which is why the database is opened read-only with the lock
// guard bypassed.
func main() {
	dbPath := flag.String("db", "./data/badger", "Path to badger DB")
	prefix := flag.String("prefix", "post:", "Prefix to scan (post: or user:)")
	flag.Parse()

	db, err := openDB(*dbPath)
	if err != nil {
		log.Fatal("Error while opening Badger: ", err)
	}
	defer db.Close()

	header := color.New(color.BgBlack, color.FgGreen).
		Render(fmt.Sprintf(" bbs-lab viewer :: %s ", *prefix))
	fmt.Println(header)

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Key", "Board", "Author", "Created", "Title"})
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")

	err = db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefixBytes := []byte(*prefix)
		for it.Seek(prefixBytes); it.ValidForPrefix(prefixBytes); it.Next() {
			item := it.Item()
			rawKey := string(item.Key())

			err := item.Value(func(v []byte) error {
				table.Append(toRow(rawKey, v))
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Fatal(err)
	}

	table.Render()
}

// toRow renders one value depending on the key family; unknown or
// corrupted values stay visible as raw keys instead of stopping the scan.
func toRow(key string, val []byte) []string {
	switch {
	case strings.HasPrefix(key, "post:"):
		var post repositories.BoardPost
		if err := json.Unmarshal(val, &post); err != nil {
			return []string{key, "?", "?", "?", "unreadable value"}
		}
		return []string{
			key,
			post.Board,
			post.Author,
			post.CreatedAt.Format("2006-01-02 15:04:05"),
			post.Title,
		}
	case strings.HasPrefix(key, "user:"):
		var user repositories.User
		if err := json.Unmarshal(val, &user); err != nil {
			return []string{key, "?", "?", "?", "unreadable value"}
		}
		return []string{
			key,
			"-",
			user.Handle,
			user.CreatedAt.Format("2006-01-02 15:04:05"),
			user.Email,
		}
	default:
		return []string{key, "?", "?", "?", fmt.Sprintf("%d bytes", len(val))}
	}
}

func openDB(path string) (*badger.DB, error) {
	opts := badger.DefaultOptions(path).
		WithReadOnly(true).
		WithLogger(nil).
		WithBypassLockGuard(true).
		WithValueLogFileSize(10 * 1024 * 1024)
	return badger.Open(opts)
}
