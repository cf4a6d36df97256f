package store

import (
	"fmt"
	"strings"

	"github.com/yomuhub/yomu/log"
	"github.com/yomuhub/yomu/model"
	"go.uber.org/zap"
)

const mangaColumns = `
	id,
	title,
	sort,
	author,
	author_sort,
	description,
	status,
	is_published,
	cover_path,
	created_ts,
	updated_ts
`

func (s *Store) GetManga(find *model.FindManga) (*model.Manga, error) {
	if find.ID != nil && !find.PublishedOnly {
		if cache, ok := s.MangaCache.Load(*find.ID); ok {
			return cache.(*model.Manga), nil
		}
	}

	list, err := s.ListManga(find)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}

	manga := list[0]
	if !find.PublishedOnly {
		s.MangaCache.Store(manga.ID, manga)
	}
	return manga, nil
}

func (s *Store) ListManga(find *model.FindManga) ([]*model.Manga, error) {
	where, args := []string{"1 = 1"}, []any{}

	if v := find.ID; v != nil {
		where, args = append(where, "id = ?"), append(args, *v)
	}
	if v := find.Title; v != nil {
		where, args = append(where, "title = ?"), append(args, *v)
	}
	if v := find.Author; v != nil {
		where, args = append(where, "author = ?"), append(args, *v)
	}
	if v := find.AuthorSort; v != nil {
		where, args = append(where, "author_sort = ?"), append(args, *v)
	}
	if find.PublishedOnly {
		where = append(where, "is_published = 1")
	}

	orderBy := []string{"sort"}
	if v := find.OrderBy; v != nil {
		orderBy = []string{*v}
	}
	if find.Random {
		orderBy = []string{"RANDOM()"}
	}

	query := `SELECT ` + mangaColumns + ` FROM manga
	WHERE ` + strings.Join(where, " AND ") + ` ORDER BY ` + strings.Join(orderBy, ", ")
	if v := find.Limit; v != nil {
		query += fmt.Sprintf(" LIMIT %d", *v)
	}

	log.Debug("SQL query and args:")
	log.Fallback("Debug", fmt.Sprintf("query: %s\nargs: %v\n", query, args))

	rows, err := s.catalogDb.Query(query, args...)
	if err != nil {
		log.Error("Failed to query manga", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	list := make([]*model.Manga, 0)
	for rows.Next() {
		manga, err := scanManga(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, manga)
	}
	return list, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanManga(row rowScanner) (*model.Manga, error) {
	var manga model.Manga
	if err := row.Scan(
		&manga.ID,
		&manga.Title,
		&manga.SortTitle,
		&manga.Author,
		&manga.AuthorSort,
		&manga.Description,
		&manga.Status,
		&manga.IsPublished,
		&manga.CoverPath,
		&manga.CreatedTs,
		&manga.UpdatedTs,
	); err != nil {
		log.Error("Failed to scan manga", zap.Error(err))
		return nil, err
	}
	return &manga, nil
}

// ListMangaByIDs fetches catalog rows for a ranked ID list and returns them
// in the given order, dropping IDs that are missing or unpublished. Rankings
// are computed against the app database, so this is the second half of every
// cross-database query.
func (s *Store) ListMangaByIDs(ids []int64, publishedOnly bool) ([]*model.Manga, error) {
	if len(ids) == 0 {
		return []*model.Manga{}, nil
	}

	idList := make([]string, 0, len(ids))
	for _, id := range ids {
		idList = append(idList, fmt.Sprintf("%d", id))
	}

	query := `SELECT ` + mangaColumns + ` FROM manga WHERE id IN (` + strings.Join(idList, ",") + `)`
	if publishedOnly {
		query += ` AND is_published = 1`
	}

	log.Debug("SQL query and args:")
	log.Fallback("Debug", fmt.Sprintf("query: %s\n", query))

	rows, err := s.catalogDb.Query(query)
	if err != nil {
		log.Error("Failed to query manga by IDs", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	byID := make(map[int64]*model.Manga, len(ids))
	for rows.Next() {
		manga, err := scanManga(rows)
		if err != nil {
			return nil, err
		}
		byID[manga.ID] = manga
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	ordered := make([]*model.Manga, 0, len(ids))
	for _, id := range ids {
		if manga, ok := byID[id]; ok {
			ordered = append(ordered, manga)
		}
	}
	return ordered, nil
}

func (s *Store) CheckManga(mangaID int64) bool {
	stmt := `SELECT EXISTS(SELECT 1 FROM manga WHERE id = ?)`

	var exists bool
	if err := s.catalogDb.QueryRow(stmt, mangaID).Scan(&exists); err != nil {
		return false
	}
	return exists
}

func (s *Store) ListVolumes(mangaID int64, publishedOnly bool) ([]*model.Volume, error) {
	query := `
		SELECT id, manga_id, number, title, is_published
		FROM volume
		WHERE manga_id = ?`
	if publishedOnly {
		query += ` AND is_published = 1`
	}
	query += ` ORDER BY number`

	rows, err := s.catalogDb.Query(query, mangaID)
	if err != nil {
		log.Error("Failed to query volumes", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	list := make([]*model.Volume, 0)
	for rows.Next() {
		var volume model.Volume
		if err := rows.Scan(
			&volume.ID,
			&volume.MangaID,
			&volume.Number,
			&volume.Title,
			&volume.IsPublished,
		); err != nil {
			return nil, err
		}
		list = append(list, &volume)
	}
	return list, rows.Err()
}

func (s *Store) GetChapter(find *model.FindChapter) (*model.Chapter, error) {
	list, err := s.ListChapters(find)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

func (s *Store) ListChapters(find *model.FindChapter) ([]*model.Chapter, error) {
	where, args := []string{"1 = 1"}, []any{}

	if v := find.ID; v != nil {
		where, args = append(where, "id = ?"), append(args, *v)
	}
	if v := find.MangaID; v != nil {
		where, args = append(where, "manga_id = ?"), append(args, *v)
	}
	if v := find.VolumeID; v != nil {
		where, args = append(where, "volume_id = ?"), append(args, *v)
	}
	if v := find.Number; v != nil {
		where, args = append(where, "number = ?"), append(args, *v)
	}
	if find.PublishedOnly {
		where = append(where, "is_published = 1")
	}

	query := `
		SELECT id, manga_id, volume_id, number, title, page_count, is_published, created_ts
		FROM chapter
		WHERE ` + strings.Join(where, " AND ") + ` ORDER BY number`
	if v := find.Limit; v != nil {
		query += fmt.Sprintf(" LIMIT %d", *v)
	}

	log.Debug("SQL query and args:")
	log.Fallback("Debug", fmt.Sprintf("query: %s\nargs: %v\n", query, args))

	rows, err := s.catalogDb.Query(query, args...)
	if err != nil {
		log.Error("Failed to query chapters", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	list := make([]*model.Chapter, 0)
	for rows.Next() {
		var chapter model.Chapter
		if err := rows.Scan(
			&chapter.ID,
			&chapter.MangaID,
			&chapter.VolumeID,
			&chapter.Number,
			&chapter.Title,
			&chapter.PageCount,
			&chapter.IsPublished,
			&chapter.CreatedTs,
		); err != nil {
			return nil, err
		}
		list = append(list, &chapter)
	}
	return list, rows.Err()
}

func (s *Store) CountPublishedChapters(mangaID int64) (int, error) {
	stmt := `SELECT COUNT(1) FROM chapter WHERE manga_id = ? AND is_published = 1`

	var count int
	if err := s.catalogDb.QueryRow(stmt, mangaID).Scan(&count); err != nil {
		log.Error("Failed to count chapters", zap.Error(err), zap.Int64("manga_id", mangaID))
		return 0, err
	}
	return count, nil
}

func (s *Store) ListPages(chapterID int64) ([]*model.Page, error) {
	query := `SELECT id, chapter_id, number, path FROM page WHERE chapter_id = ? ORDER BY number`

	rows, err := s.catalogDb.Query(query, chapterID)
	if err != nil {
		log.Error("Failed to query pages", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	list := make([]*model.Page, 0)
	for rows.Next() {
		var page model.Page
		if err := rows.Scan(&page.ID, &page.ChapterID, &page.Number, &page.Path); err != nil {
			return nil, err
		}
		list = append(list, &page)
	}
	return list, rows.Err()
}
