package model

type UserList struct {
	ID        int64  `json:"id"`
	UserID    int32  `json:"user_id"`
	Name      string `json:"name"`
	IsPublic  bool   `json:"is_public"`
	CreatedTs int64  `json:"created_ts"`
}

// UserListEntry carries an optional 1-10 rating. A manga appears at most
// once per list.
type UserListEntry struct {
	ID      int64  `json:"id"`
	ListID  int64  `json:"list_id"`
	MangaID int64  `json:"manga_id"`
	Rating  *int   `json:"rating,omitempty"`
	Notes   string `json:"notes"`
	AddedTs int64  `json:"added_ts"`
}

type FindUserList struct {
	ID     *int64
	UserID *int32
	Name   *string
}

type Favorite struct {
	ID        int64 `json:"id"`
	UserID    int32 `json:"user_id"`
	MangaID   int64 `json:"manga_id"`
	CreatedTs int64 `json:"created_ts"`
}

type UserListCreateRequest struct {
	Name     string `json:"name"`
	IsPublic bool   `json:"is_public"`
}

type UserListEntryRequest struct {
	MangaID int64  `json:"manga_id"`
	Rating  *int   `json:"rating"`
	Notes   string `json:"notes"`
}
