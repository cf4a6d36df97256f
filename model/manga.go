package model //import "github.com/yomuhub/yomu/model"

// MangaStatus is the publication state of a series.
type MangaStatus string

const (
	MangaStatusOngoing   MangaStatus = "ONGOING"
	MangaStatusCompleted MangaStatus = "COMPLETED"
	MangaStatusHiatus    MangaStatus = "HIATUS"
)

type Manga struct {
	ID          int64       `json:"id"`
	Title       string      `json:"title"`
	SortTitle   string      `json:"sort"`
	Author      string      `json:"author"`
	AuthorSort  string      `json:"author_sort"`
	Description string      `json:"description"`
	Status      MangaStatus `json:"status"`
	IsPublished bool        `json:"is_published"`
	CoverPath   string      `json:"cover_path"`
	CreatedTs   int64       `json:"created_ts"`
	UpdatedTs   int64       `json:"updated_ts"`
}

type FindManga struct {
	ID         *int64
	Title      *string
	Author     *string
	AuthorSort *string
	// PublishedOnly restricts results to published series.
	PublishedOnly bool
	OrderBy       *string

	// Random and Limit are used in list queries.
	Random bool
	Limit  *int
}

type Volume struct {
	ID          int64  `json:"id"`
	MangaID     int64  `json:"manga_id"`
	Number      int    `json:"number"`
	Title       string `json:"title"`
	IsPublished bool   `json:"is_published"`
}

type Chapter struct {
	ID          int64  `json:"id"`
	MangaID     int64  `json:"manga_id"`
	VolumeID    int64  `json:"volume_id"`
	Number      int    `json:"number"`
	Title       string `json:"title"`
	PageCount   int    `json:"page_count"`
	IsPublished bool   `json:"is_published"`
	CreatedTs   int64  `json:"created_ts"`
}

type FindChapter struct {
	ID            *int64
	MangaID       *int64
	VolumeID      *int64
	Number        *int
	PublishedOnly bool
	Limit         *int
}

type Page struct {
	ID        int64  `json:"id"`
	ChapterID int64  `json:"chapter_id"`
	Number    int    `json:"number"`
	Path      string `json:"path"`
}

// MangaCreateRequest carries the metadata supplied alongside a chapter
// archive upload. Title is matched against existing series first.
type MangaCreateRequest struct {
	Title       string `json:"title"`
	Author      string `json:"author"`
	Description string `json:"description"`
	Volume      int    `json:"volume"`
	Chapter     int    `json:"chapter"`
	ChapterName string `json:"chapter_name"`
}
