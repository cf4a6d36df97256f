package store

import (
	"fmt"
	"strings"

	"github.com/yomuhub/yomu/log"
	"github.com/yomuhub/yomu/model"
	"go.uber.org/zap"
)

func (s *Store) GetUserList(find *model.FindUserList) (*model.UserList, error) {
	list, err := s.ListUserLists(find)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

func (s *Store) ListUserLists(find *model.FindUserList) ([]*model.UserList, error) {
	where, args := []string{"1 = 1"}, []any{}

	if v := find.ID; v != nil {
		where, args = append(where, "id = ?"), append(args, *v)
	}
	if v := find.UserID; v != nil {
		where, args = append(where, "user_id = ?"), append(args, *v)
	}
	if v := find.Name; v != nil {
		where, args = append(where, "name = ?"), append(args, *v)
	}

	query := `
		SELECT id, user_id, name, is_public, created_ts
		FROM user_list
		WHERE ` + strings.Join(where, " AND ") + ` ORDER BY created_ts DESC`

	log.Debug("SQL query and args:")
	log.Fallback("Debug", fmt.Sprintf("query: %s\nargs: %v\n", query, args))

	rows, err := s.appDb.Query(query, args...)
	if err != nil {
		log.Error("Failed to query user lists", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	list := make([]*model.UserList, 0)
	for rows.Next() {
		var l model.UserList
		if err := rows.Scan(&l.ID, &l.UserID, &l.Name, &l.IsPublic, &l.CreatedTs); err != nil {
			return nil, err
		}
		list = append(list, &l)
	}
	return list, rows.Err()
}

func (s *Store) AddUserList(create *model.UserList) (*model.UserList, error) {
	stmt := `
		INSERT INTO user_list (user_id, name, is_public)
		VALUES (?, ?, ?)
		RETURNING id, user_id, name, is_public, created_ts`

	s.appDbLock.Lock()
	defer s.appDbLock.Unlock()
	tx, err := s.appDb.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var l model.UserList
	if err := tx.QueryRow(stmt, create.UserID, create.Name, create.IsPublic).Scan(
		&l.ID, &l.UserID, &l.Name, &l.IsPublic, &l.CreatedTs,
	); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &l, nil
}

func (s *Store) RemoveUserList(listID int64, userID int32) error {
	s.appDbLock.Lock()
	defer s.appDbLock.Unlock()

	_, err := s.appDb.Exec(`DELETE FROM user_list WHERE id = ? AND user_id = ?`, listID, userID)
	return err
}

// UpsertListEntry adds a manga to a list or updates its rating/notes.
// The unique constraint on (list_id, manga_id) keeps one entry per manga.
func (s *Store) UpsertListEntry(entry *model.UserListEntry) (*model.UserListEntry, error) {
	stmt := `
		INSERT INTO user_list_entry (list_id, manga_id, rating, notes)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(list_id, manga_id) DO UPDATE
		SET rating = EXCLUDED.rating, notes = EXCLUDED.notes
		RETURNING id, list_id, manga_id, rating, notes, added_ts`

	s.appDbLock.Lock()
	defer s.appDbLock.Unlock()
	tx, err := s.appDb.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var e model.UserListEntry
	if err := tx.QueryRow(stmt, entry.ListID, entry.MangaID, entry.Rating, entry.Notes).Scan(
		&e.ID, &e.ListID, &e.MangaID, &e.Rating, &e.Notes, &e.AddedTs,
	); err != nil {
		log.Error("Failed to upsert list entry",
			zap.Error(err),
			zap.Int64("list_id", entry.ListID),
			zap.Int64("manga_id", entry.MangaID))
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &e, nil
}

func (s *Store) ListEntries(listID int64) ([]*model.UserListEntry, error) {
	query := `
		SELECT id, list_id, manga_id, rating, notes, added_ts
		FROM user_list_entry
		WHERE list_id = ?
		ORDER BY added_ts DESC`

	rows, err := s.appDb.Query(query, listID)
	if err != nil {
		log.Error("Failed to query list entries", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	list := make([]*model.UserListEntry, 0)
	for rows.Next() {
		var e model.UserListEntry
		if err := rows.Scan(&e.ID, &e.ListID, &e.MangaID, &e.Rating, &e.Notes, &e.AddedTs); err != nil {
			return nil, err
		}
		list = append(list, &e)
	}
	return list, rows.Err()
}

func (s *Store) RemoveListEntry(listID, mangaID int64) error {
	s.appDbLock.Lock()
	defer s.appDbLock.Unlock()

	_, err := s.appDb.Exec(`DELETE FROM user_list_entry WHERE list_id = ? AND manga_id = ?`, listID, mangaID)
	return err
}

// AddFavorite is idempotent: favoriting twice keeps the single row.
func (s *Store) AddFavorite(userID int32, mangaID int64) (*model.Favorite, error) {
	stmt := `
		INSERT INTO favorite (user_id, manga_id)
		VALUES (?, ?)
		ON CONFLICT(user_id, manga_id) DO UPDATE SET user_id = EXCLUDED.user_id
		RETURNING id, user_id, manga_id, created_ts`

	s.appDbLock.Lock()
	defer s.appDbLock.Unlock()
	tx, err := s.appDb.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var f model.Favorite
	if err := tx.QueryRow(stmt, userID, mangaID).Scan(&f.ID, &f.UserID, &f.MangaID, &f.CreatedTs); err != nil {
		log.Error("Failed to add favorite",
			zap.Error(err),
			zap.Int32("user_id", userID),
			zap.Int64("manga_id", mangaID))
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &f, nil
}

func (s *Store) RemoveFavorite(userID int32, mangaID int64) error {
	s.appDbLock.Lock()
	defer s.appDbLock.Unlock()

	_, err := s.appDb.Exec(`DELETE FROM favorite WHERE user_id = ? AND manga_id = ?`, userID, mangaID)
	return err
}

func (s *Store) ListFavoriteMangaIDs(userID int32) ([]int64, error) {
	query := `
		SELECT manga_id
		FROM favorite
		WHERE user_id = ?
		ORDER BY created_ts DESC`
	return s.queryMangaIDs(query, userID)
}
