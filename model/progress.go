package model

// ReadingProgress is one row per (user, chapter). CurrentPage never exceeds
// TotalPages and IsCompleted implies CurrentPage == TotalPages; both are
// enforced by the progress service before the row is written.
type ReadingProgress struct {
	ID          int64 `json:"id"`
	UserID      int32 `json:"user_id"`
	MangaID     int64 `json:"manga_id"`
	ChapterID   int64 `json:"chapter_id"`
	CurrentPage int   `json:"current_page"`
	TotalPages  int   `json:"total_pages"`
	IsCompleted bool  `json:"is_completed"`
	// ReadingTime is cumulative seconds, only ever increased.
	ReadingTime int64 `json:"reading_time"`
	LastReadTs  int64 `json:"last_read_ts"`
}

// ProgressPercentage is 0 when TotalPages is 0, capped at 100.
func (p *ReadingProgress) ProgressPercentage() int {
	if p.TotalPages <= 0 {
		return 0
	}
	pct := p.CurrentPage * 100 / p.TotalPages
	if pct > 100 {
		return 100
	}
	return pct
}

type FindReadingProgress struct {
	UserID    *int32
	MangaID   *int64
	ChapterID *int64
	// TouchedSince filters on last_read_ts.
	TouchedSince  *int64
	CompletedOnly bool
	Limit         *int
}

// ReadingHistory is an append-only session log. A row never changes once
// CompletedTs is set.
type ReadingHistory struct {
	ID              int64 `json:"id"`
	UserID          int32 `json:"user_id"`
	MangaID         int64 `json:"manga_id"`
	ChapterID       int64 `json:"chapter_id"`
	StartedTs       int64 `json:"started_ts"`
	CompletedTs     int64 `json:"completed_ts"`
	SessionDuration int64 `json:"session_duration"`
}

// SaveProgressRequest is the JSON body of the save-progress endpoint.
// ReadingTimeDelta is a delta in seconds, not a running total.
type SaveProgressRequest struct {
	MangaID          int64 `json:"manga_id"`
	ChapterID        int64 `json:"chapter_id"`
	CurrentPage      int   `json:"current_page"`
	TotalPages       int   `json:"total_pages"`
	ReadingTimeDelta int64 `json:"reading_time_delta"`
}

// MangaStatistics summarizes one user's standing within a series.
type MangaStatistics struct {
	MangaID              int64   `json:"manga_id"`
	TotalChapters        int     `json:"total_chapters"`
	CompletedChapters    int     `json:"completed_chapters"`
	CompletionPercentage float64 `json:"completion_percentage"`
	TotalReadingTime     int64   `json:"total_reading_time"`
	LastChapterRead      int64   `json:"last_chapter_read"`
	LastReadTs           int64   `json:"last_read_ts"`
}

// ContinueReadingEntry pairs an in-progress chapter with the chapter to
// read next; NextChapter is nil when the user is caught up.
type ContinueReadingEntry struct {
	Progress *ReadingProgress `json:"progress"`
	// ProgressPercentage is derived from Progress so reader UIs never
	// recompute the clamped value themselves.
	ProgressPercentage int      `json:"progress_percentage"`
	Manga              *Manga   `json:"manga"`
	Chapter            *Chapter `json:"chapter"`
	NextChapter        *Chapter `json:"next_chapter,omitempty"`
}
