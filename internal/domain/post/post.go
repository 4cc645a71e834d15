package post

import (
	"errors"
	"time"
)

var ErrAuthorNotFound = errors.New("post author not found")

// FeedSize is the number of posts shown on the home feed.
const FeedSize = 5

type Post struct {
	ID             string    `json:"id"`
	AuthorID       string    `json:"authorId"`
	AuthorUsername string    `json:"author"`
	Body           string    `json:"body"`
	Timestamp      time.Time `json:"timestamp"`
}
