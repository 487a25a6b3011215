package model

import "github.com/google/uuid"

// Feed is the complete read model for one feed load: posts newest-first
// with joined authors and resolved media, a rooted comment forest per post,
// and friend suggestions for the viewer. A Feed value is only handed to
// callers once every part of it has been composed.
type Feed struct {
	Posts          []Post                  `json:"posts"`
	CommentsByPost map[uuid.UUID][]Comment `json:"comments_by_post"`
	Suggestions    []Profile               `json:"suggestions"`
}
