package store

import (
	"fmt"
	"strings"
	"time"

	"github.com/yomuhub/yomu/log"
	"github.com/yomuhub/yomu/model"
	"go.uber.org/zap"
)

func (s *Store) GetComment(commentID int64) (*model.Comment, error) {
	list, err := s.ListComments(&model.FindComment{ID: &commentID})
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

func (s *Store) ListComments(find *model.FindComment) ([]*model.Comment, error) {
	where, args := []string{"1 = 1"}, []any{}

	if v := find.ID; v != nil {
		where, args = append(where, "id = ?"), append(args, *v)
	}
	if v := find.UserID; v != nil {
		where, args = append(where, "user_id = ?"), append(args, *v)
	}
	if v := find.MangaID; v != nil {
		where, args = append(where, "manga_id = ?"), append(args, *v)
	}
	if v := find.ChapterID; v != nil {
		where, args = append(where, "chapter_id = ?"), append(args, *v)
	}

	query := `
		SELECT id, user_id, manga_id, chapter_id, content, created_ts, updated_ts
		FROM comment
		WHERE ` + strings.Join(where, " AND ") + ` ORDER BY created_ts DESC`
	if v := find.Limit; v != nil {
		query += fmt.Sprintf(" LIMIT %d", *v)
	}

	log.Debug("SQL query and args:")
	log.Fallback("Debug", fmt.Sprintf("query: %s\nargs: %v\n", query, args))

	rows, err := s.appDb.Query(query, args...)
	if err != nil {
		log.Error("Failed to query comments", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	list := make([]*model.Comment, 0)
	for rows.Next() {
		var c model.Comment
		if err := rows.Scan(
			&c.ID,
			&c.UserID,
			&c.MangaID,
			&c.ChapterID,
			&c.Content,
			&c.CreatedTs,
			&c.UpdatedTs,
		); err != nil {
			return nil, err
		}
		list = append(list, &c)
	}
	return list, rows.Err()
}

func (s *Store) AddComment(create *model.Comment) (*model.Comment, error) {
	stmt := `
		INSERT INTO comment (user_id, manga_id, chapter_id, content)
		VALUES (?, ?, ?, ?)
		RETURNING id, user_id, manga_id, chapter_id, content, created_ts, updated_ts`

	s.appDbLock.Lock()
	defer s.appDbLock.Unlock()
	tx, err := s.appDb.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var c model.Comment
	if err := tx.QueryRow(stmt, create.UserID, create.MangaID, create.ChapterID, create.Content).Scan(
		&c.ID, &c.UserID, &c.MangaID, &c.ChapterID, &c.Content, &c.CreatedTs, &c.UpdatedTs,
	); err != nil {
		log.Error("Failed to add comment", zap.Error(err), zap.Int32("user_id", create.UserID))
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &c, nil
}

// UpdateComment only touches the author's own row.
func (s *Store) UpdateComment(commentID int64, userID int32, content string) (*model.Comment, error) {
	stmt := `
		UPDATE comment
		SET content = ?, updated_ts = ?
		WHERE id = ? AND user_id = ?
		RETURNING id, user_id, manga_id, chapter_id, content, created_ts, updated_ts`

	s.appDbLock.Lock()
	defer s.appDbLock.Unlock()
	tx, err := s.appDb.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var c model.Comment
	if err := tx.QueryRow(stmt, content, time.Now().Unix(), commentID, userID).Scan(
		&c.ID, &c.UserID, &c.MangaID, &c.ChapterID, &c.Content, &c.CreatedTs, &c.UpdatedTs,
	); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *Store) RemoveComment(commentID int64, userID int32) error {
	s.appDbLock.Lock()
	defer s.appDbLock.Unlock()

	_, err := s.appDb.Exec(`DELETE FROM comment WHERE id = ? AND user_id = ?`, commentID, userID)
	return err
}
