package store

import (
	"fmt"
	"strings"

	"github.com/yomuhub/yomu/log"
	"github.com/yomuhub/yomu/model"
	"go.uber.org/zap"
)

const progressColumns = `
	id,
	user_id,
	manga_id,
	chapter_id,
	current_page,
	total_pages,
	is_completed,
	reading_time,
	last_read_ts
`

// UpsertProgress inserts or updates the single row for (user, chapter).
// reading_time carries a delta and merges additively, so two concurrent
// saves both land; the remaining columns are last-writer-wins. The unique
// constraint on (user_id, chapter_id) makes the whole thing race-safe.
func (s *Store) UpsertProgress(upsert *model.ReadingProgress) (*model.ReadingProgress, error) {
	stmt := `
		INSERT INTO reading_progress (
			user_id,
			manga_id,
			chapter_id,
			current_page,
			total_pages,
			is_completed,
			reading_time,
			last_read_ts
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, chapter_id) DO UPDATE
		SET
			current_page = EXCLUDED.current_page,
			total_pages = EXCLUDED.total_pages,
			is_completed = EXCLUDED.is_completed,
			reading_time = reading_time + EXCLUDED.reading_time,
			last_read_ts = EXCLUDED.last_read_ts
		RETURNING ` + progressColumns
	args := []any{
		upsert.UserID,
		upsert.MangaID,
		upsert.ChapterID,
		upsert.CurrentPage,
		upsert.TotalPages,
		upsert.IsCompleted,
		upsert.ReadingTime,
		upsert.LastReadTs,
	}

	s.appDbLock.Lock()
	defer s.appDbLock.Unlock()
	tx, err := s.appDb.Begin()
	if err != nil {
		log.Error("Failed to begin transaction", zap.Error(err))
		return nil, err
	}
	defer tx.Rollback()

	log.Debug("SQL query and args:")
	log.Fallback("Debug", fmt.Sprintf("query: %s\nargs: %v\n", stmt, args))

	progress, err := scanProgress(tx.QueryRow(stmt, args...))
	if err != nil {
		log.Error("Failed to upsert reading progress",
			zap.Error(err),
			zap.Int32("user_id", upsert.UserID),
			zap.Int64("chapter_id", upsert.ChapterID))
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return progress, nil
}

func (s *Store) GetProgress(find *model.FindReadingProgress) (*model.ReadingProgress, error) {
	one := 1
	find.Limit = &one
	list, err := s.ListProgress(find)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

// ListProgress orders by last_read_ts descending, newest row id first on
// ties, which makes the first row the most recently touched one.
func (s *Store) ListProgress(find *model.FindReadingProgress) ([]*model.ReadingProgress, error) {
	where, args := []string{"1 = 1"}, []any{}

	if v := find.UserID; v != nil {
		where, args = append(where, "user_id = ?"), append(args, *v)
	}
	if v := find.MangaID; v != nil {
		where, args = append(where, "manga_id = ?"), append(args, *v)
	}
	if v := find.ChapterID; v != nil {
		where, args = append(where, "chapter_id = ?"), append(args, *v)
	}
	if v := find.TouchedSince; v != nil {
		where, args = append(where, "last_read_ts >= ?"), append(args, *v)
	}
	if find.CompletedOnly {
		where = append(where, "is_completed = 1")
	}

	query := `SELECT ` + progressColumns + ` FROM reading_progress
	WHERE ` + strings.Join(where, " AND ") + ` ORDER BY last_read_ts DESC, id DESC`
	if v := find.Limit; v != nil {
		query += fmt.Sprintf(" LIMIT %d", *v)
	}

	log.Debug("SQL query and args:")
	log.Fallback("Debug", fmt.Sprintf("query: %s\nargs: %v\n", query, args))

	rows, err := s.appDb.Query(query, args...)
	if err != nil {
		log.Error("Failed to query reading progress", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	list := make([]*model.ReadingProgress, 0)
	for rows.Next() {
		progress, err := scanProgress(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, progress)
	}
	return list, rows.Err()
}

func scanProgress(row rowScanner) (*model.ReadingProgress, error) {
	var p model.ReadingProgress
	if err := row.Scan(
		&p.ID,
		&p.UserID,
		&p.MangaID,
		&p.ChapterID,
		&p.CurrentPage,
		&p.TotalPages,
		&p.IsCompleted,
		&p.ReadingTime,
		&p.LastReadTs,
	); err != nil {
		return nil, err
	}
	return &p, nil
}

// AddHistory appends one immutable session row. Rows are never updated or
// deleted afterwards.
func (s *Store) AddHistory(create *model.ReadingHistory) (*model.ReadingHistory, error) {
	stmt := `
		INSERT INTO reading_history (
			user_id,
			manga_id,
			chapter_id,
			started_ts,
			completed_ts,
			session_duration
		) VALUES (?, ?, ?, ?, ?, ?)
		RETURNING id, user_id, manga_id, chapter_id, started_ts, completed_ts, session_duration`
	args := []any{
		create.UserID,
		create.MangaID,
		create.ChapterID,
		create.StartedTs,
		create.CompletedTs,
		create.SessionDuration,
	}

	s.appDbLock.Lock()
	defer s.appDbLock.Unlock()
	tx, err := s.appDb.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var history model.ReadingHistory
	if err := tx.QueryRow(stmt, args...).Scan(
		&history.ID,
		&history.UserID,
		&history.MangaID,
		&history.ChapterID,
		&history.StartedTs,
		&history.CompletedTs,
		&history.SessionDuration,
	); err != nil {
		log.Error("Failed to append reading history",
			zap.Error(err),
			zap.Int32("user_id", create.UserID),
			zap.Int64("chapter_id", create.ChapterID))
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &history, nil
}

func (s *Store) ListHistory(userID int32, limit int) ([]*model.ReadingHistory, error) {
	query := `
		SELECT id, user_id, manga_id, chapter_id, started_ts, completed_ts, session_duration
		FROM reading_history
		WHERE user_id = ?
		ORDER BY completed_ts DESC
		LIMIT ?`

	rows, err := s.appDb.Query(query, userID, limit)
	if err != nil {
		log.Error("Failed to query reading history", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	list := make([]*model.ReadingHistory, 0)
	for rows.Next() {
		var history model.ReadingHistory
		if err := rows.Scan(
			&history.ID,
			&history.UserID,
			&history.MangaID,
			&history.ChapterID,
			&history.StartedTs,
			&history.CompletedTs,
			&history.SessionDuration,
		); err != nil {
			return nil, err
		}
		list = append(list, &history)
	}
	return list, rows.Err()
}

// ProgressSummary aggregates one user's rows within a manga: completed
// chapter count and cumulative reading time.
func (s *Store) ProgressSummary(userID int32, mangaID int64) (completed int, readingTime int64, err error) {
	stmt := `
		SELECT
			COALESCE(SUM(is_completed), 0),
			COALESCE(SUM(reading_time), 0)
		FROM reading_progress
		WHERE user_id = ? AND manga_id = ?`

	if err := s.appDb.QueryRow(stmt, userID, mangaID).Scan(&completed, &readingTime); err != nil {
		log.Error("Failed to summarize progress",
			zap.Error(err),
			zap.Int32("user_id", userID),
			zap.Int64("manga_id", mangaID))
		return 0, 0, err
	}
	return completed, readingTime, nil
}

// ListCompletedChapterIDs returns the chapters of one manga the user has
// finished, used for next-chapter resolution.
func (s *Store) ListCompletedChapterIDs(userID int32, mangaID int64) (map[int64]bool, error) {
	query := `
		SELECT chapter_id
		FROM reading_progress
		WHERE user_id = ? AND manga_id = ? AND is_completed = 1`

	rows, err := s.appDb.Query(query, userID, mangaID)
	if err != nil {
		log.Error("Failed to query completed chapters", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	ids := make(map[int64]bool)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids[id] = true
	}
	return ids, rows.Err()
}
