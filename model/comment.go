package model

type Comment struct {
	ID      int64 `json:"id"`
	UserID  int32 `json:"user_id"`
	MangaID int64 `json:"manga_id"`
	// ChapterID is 0 for series-level comments.
	ChapterID int64  `json:"chapter_id,omitempty"`
	Content   string `json:"content"`
	CreatedTs int64  `json:"created_ts"`
	UpdatedTs int64  `json:"updated_ts"`
}

type FindComment struct {
	ID        *int64
	UserID    *int32
	MangaID   *int64
	ChapterID *int64
	Limit     *int
}

type CommentCreateRequest struct {
	MangaID   int64  `json:"manga_id"`
	ChapterID int64  `json:"chapter_id"`
	Content   string `json:"content"`
}

// CommentEvent is what the websocket hub fans out to subscribers.
type CommentEvent struct {
	Type     string   `json:"type"` // "created", "updated", "deleted"
	Comment  *Comment `json:"comment"`
	Username string   `json:"username"`
}
