package store

import (
	"time"

	"github.com/yomuhub/yomu/log"
	"github.com/yomuhub/yomu/model"
	"go.uber.org/zap"
)

// Catalog writes. Only the ingestion workers call into this file; everything
// else treats the catalog database as read-only.

func (s *Store) AddManga(create *model.Manga) (*model.Manga, error) {
	stmt := `
		INSERT INTO manga (
			title,
			sort,
			author,
			author_sort,
			description,
			status,
			is_published,
			cover_path
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING ` + mangaColumns
	args := []any{
		create.Title,
		create.SortTitle,
		create.Author,
		create.AuthorSort,
		create.Description,
		create.Status,
		create.IsPublished,
		create.CoverPath,
	}

	s.catalogDbLock.Lock()
	defer s.catalogDbLock.Unlock()
	tx, err := s.catalogDb.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	manga, err := scanManga(tx.QueryRow(stmt, args...))
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	s.MangaCache.Store(manga.ID, manga)
	return manga, nil
}

// GetOrCreateManga matches on title so repeated chapter uploads land in the
// same series.
func (s *Store) GetOrCreateManga(create *model.Manga) (*model.Manga, error) {
	existing, err := s.GetManga(&model.FindManga{Title: &create.Title})
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}
	return s.AddManga(create)
}

func (s *Store) GetOrCreateVolume(mangaID int64, number int, title string) (*model.Volume, error) {
	stmt := `
		INSERT INTO volume (manga_id, number, title, is_published)
		VALUES (?, ?, ?, 1)
		ON CONFLICT(manga_id, number) DO UPDATE SET manga_id = EXCLUDED.manga_id
		RETURNING id, manga_id, number, title, is_published`

	s.catalogDbLock.Lock()
	defer s.catalogDbLock.Unlock()
	tx, err := s.catalogDb.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var volume model.Volume
	if err := tx.QueryRow(stmt, mangaID, number, title).Scan(
		&volume.ID,
		&volume.MangaID,
		&volume.Number,
		&volume.Title,
		&volume.IsPublished,
	); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &volume, nil
}

func (s *Store) AddChapter(create *model.Chapter) (*model.Chapter, error) {
	stmt := `
		INSERT INTO chapter (manga_id, volume_id, number, title, page_count, is_published)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING id, manga_id, volume_id, number, title, page_count, is_published, created_ts`
	args := []any{
		create.MangaID,
		create.VolumeID,
		create.Number,
		create.Title,
		create.PageCount,
		create.IsPublished,
	}

	s.catalogDbLock.Lock()
	defer s.catalogDbLock.Unlock()
	tx, err := s.catalogDb.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var chapter model.Chapter
	if err := tx.QueryRow(stmt, args...).Scan(
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
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &chapter, nil
}

// AddPages registers the extracted page files of one chapter and updates the
// chapter page count in the same transaction.
func (s *Store) AddPages(chapterID int64, paths []string) error {
	s.catalogDbLock.Lock()
	defer s.catalogDbLock.Unlock()
	tx, err := s.catalogDb.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt := `INSERT INTO page (chapter_id, number, path) VALUES (?, ?, ?)`
	for i, path := range paths {
		if _, err := tx.Exec(stmt, chapterID, i+1, path); err != nil {
			log.Error("Failed to insert page",
				zap.Error(err),
				zap.Int64("chapter_id", chapterID),
				zap.Int("number", i+1))
			return err
		}
	}

	if _, err := tx.Exec(`UPDATE chapter SET page_count = ? WHERE id = ?`, len(paths), chapterID); err != nil {
		return err
	}

	return tx.Commit()
}

func (s *Store) PublishChapter(chapterID int64) error {
	s.catalogDbLock.Lock()
	defer s.catalogDbLock.Unlock()

	if _, err := s.catalogDb.Exec(`UPDATE chapter SET is_published = 1 WHERE id = ?`, chapterID); err != nil {
		return err
	}
	return nil
}

func (s *Store) PublishManga(mangaID int64) error {
	s.catalogDbLock.Lock()
	defer s.catalogDbLock.Unlock()

	if _, err := s.catalogDb.Exec(
		`UPDATE manga SET is_published = 1, updated_ts = ? WHERE id = ?`,
		time.Now().Unix(), mangaID,
	); err != nil {
		return err
	}
	s.MangaCache.Delete(mangaID)
	return nil
}
