package store

import (
	"fmt"
	"strings"

	"github.com/yomuhub/yomu/log"
	"go.uber.org/zap"
)

// Recommendation-support queries. Everything here returns ranked ID lists
// from the app database; callers re-hydrate them through ListMangaByIDs so
// unpublished series fall out. The author queries at the bottom are the one
// exception and run against the catalog.

func int64In(ids []int64) string {
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, fmt.Sprintf("%d", id))
	}
	return strings.Join(parts, ",")
}

func int32In(ids []int32) string {
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, fmt.Sprintf("%d", id))
	}
	return strings.Join(parts, ",")
}

// ListCompletedMangaIDs returns the distinct manga the user has finished at
// least one chapter of.
func (s *Store) ListCompletedMangaIDs(userID int32) ([]int64, error) {
	query := `
		SELECT DISTINCT manga_id
		FROM reading_progress
		WHERE user_id = ? AND is_completed = 1`
	return s.queryMangaIDs(query, userID)
}

// ListTouchedMangaIDs returns the distinct manga the user has any progress on.
func (s *Store) ListTouchedMangaIDs(userID int32) ([]int64, error) {
	query := `
		SELECT DISTINCT manga_id
		FROM reading_progress
		WHERE user_id = ?`
	return s.queryMangaIDs(query, userID)
}

// PeersWhoCompleted finds other users who completed at least one of the seed
// manga, most overlapping first.
func (s *Store) PeersWhoCompleted(seedMangaIDs []int64, excludeUserID int32, limit int) ([]int32, error) {
	if len(seedMangaIDs) == 0 {
		return []int32{}, nil
	}

	query := `
		SELECT user_id
		FROM reading_progress
		WHERE manga_id IN (` + int64In(seedMangaIDs) + `)
			AND is_completed = 1
			AND user_id != ?
		GROUP BY user_id
		ORDER BY COUNT(DISTINCT manga_id) DESC
		LIMIT ?`

	log.Debug("SQL query and args:")
	log.Fallback("Debug", fmt.Sprintf("query: %s\n", query))

	rows, err := s.appDb.Query(query, excludeUserID, limit)
	if err != nil {
		log.Error("Failed to query peer users", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	peers := make([]int32, 0)
	for rows.Next() {
		var id int32
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		peers = append(peers, id)
	}
	return peers, rows.Err()
}

// PeersWhoRead is like PeersWhoCompleted but any progress row counts.
func (s *Store) PeersWhoRead(seedMangaIDs []int64, excludeUserID int32, limit int) ([]int32, error) {
	if len(seedMangaIDs) == 0 {
		return []int32{}, nil
	}

	query := `
		SELECT user_id
		FROM reading_progress
		WHERE manga_id IN (` + int64In(seedMangaIDs) + `)
			AND user_id != ?
		GROUP BY user_id
		ORDER BY COUNT(DISTINCT manga_id) DESC
		LIMIT ?`

	rows, err := s.appDb.Query(query, excludeUserID, limit)
	if err != nil {
		log.Error("Failed to query peer users", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	peers := make([]int32, 0)
	for rows.Next() {
		var id int32
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		peers = append(peers, id)
	}
	return peers, rows.Err()
}

// RankMangaCompletedBy ranks the manga a peer group finished by how many
// distinct peers finished them.
func (s *Store) RankMangaCompletedBy(peerIDs []int32, excludeMangaIDs []int64, limit int) ([]int64, error) {
	if len(peerIDs) == 0 {
		return []int64{}, nil
	}

	where := []string{
		"user_id IN (" + int32In(peerIDs) + ")",
		"is_completed = 1",
	}
	if len(excludeMangaIDs) > 0 {
		where = append(where, "manga_id NOT IN ("+int64In(excludeMangaIDs)+")")
	}

	query := `
		SELECT manga_id
		FROM reading_progress
		WHERE ` + strings.Join(where, " AND ") + `
		GROUP BY manga_id
		ORDER BY COUNT(DISTINCT user_id) DESC, manga_id
		LIMIT ?`
	return s.queryMangaIDs(query, limit)
}

// RankMangaReadBy is the any-progress variant of RankMangaCompletedBy.
func (s *Store) RankMangaReadBy(peerIDs []int32, excludeMangaIDs []int64, limit int) ([]int64, error) {
	if len(peerIDs) == 0 {
		return []int64{}, nil
	}

	where := []string{"user_id IN (" + int32In(peerIDs) + ")"}
	if len(excludeMangaIDs) > 0 {
		where = append(where, "manga_id NOT IN ("+int64In(excludeMangaIDs)+")")
	}

	query := `
		SELECT manga_id
		FROM reading_progress
		WHERE ` + strings.Join(where, " AND ") + `
		GROUP BY manga_id
		ORDER BY COUNT(DISTINCT user_id) DESC, manga_id
		LIMIT ?`
	return s.queryMangaIDs(query, limit)
}

// RankMangaByReaders is the global popularity ranking: distinct readers
// first, distinct favoriters as the tie break. A series with favorites but
// no progress rows still ranks. Published series with no signal at all
// backfill the tail, newest first, so a fresh catalog yields a ranking
// instead of an empty feed.
func (s *Store) RankMangaByReaders(limit int) ([]int64, error) {
	query := `
		SELECT manga_id
		FROM (
			SELECT
				m.manga_id,
				(SELECT COUNT(DISTINCT rp.user_id) FROM reading_progress rp WHERE rp.manga_id = m.manga_id) AS readers,
				(SELECT COUNT(DISTINCT f.user_id) FROM favorite f WHERE f.manga_id = m.manga_id) AS favoriters
			FROM (
				SELECT manga_id FROM reading_progress
				UNION
				SELECT manga_id FROM favorite
			) m
		)
		ORDER BY readers DESC, favoriters DESC, manga_id
		LIMIT ?`
	ids, err := s.queryMangaIDs(query, limit)
	if err != nil {
		return nil, err
	}
	if len(ids) >= limit {
		return ids, nil
	}

	// Catalog query.
	backfill := `SELECT id FROM manga WHERE is_published = 1`
	if len(ids) > 0 {
		backfill += ` AND id NOT IN (` + int64In(ids) + `)`
	}
	backfill += ` ORDER BY updated_ts DESC, id LIMIT ?`

	log.Debug("SQL query and args:")
	log.Fallback("Debug", fmt.Sprintf("query: %s\n", backfill))

	rows, err := s.catalogDb.Query(backfill, limit-len(ids))
	if err != nil {
		log.Error("Failed to query popularity backfill", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// TrendingMangaIDs ranks manga by reads since the cutoff.
func (s *Store) TrendingMangaIDs(sinceTs int64, limit int) ([]int64, error) {
	query := `
		SELECT manga_id
		FROM reading_progress
		WHERE last_read_ts >= ?
		GROUP BY manga_id
		ORDER BY COUNT(1) DESC, manga_id
		LIMIT ?`
	return s.queryMangaIDs(query, sinceTs, limit)
}

// RatedMangaIDs returns well-rated series with enough readers to trust the
// signal, best average rating first.
func (s *Store) RatedMangaIDs(minAvgRating float64, minReaders int, limit int) ([]int64, error) {
	query := `
		SELECT e.manga_id
		FROM user_list_entry e
		JOIN (
			SELECT manga_id, COUNT(DISTINCT user_id) AS readers
			FROM reading_progress
			GROUP BY manga_id
		) r ON r.manga_id = e.manga_id
		WHERE e.rating IS NOT NULL
		GROUP BY e.manga_id
		HAVING AVG(e.rating) >= ? AND MAX(r.readers) >= ?
		ORDER BY AVG(e.rating) DESC, MAX(r.readers) DESC, e.manga_id
		LIMIT ?`
	return s.queryMangaIDs(query, minAvgRating, minReaders, limit)
}

func (s *Store) queryMangaIDs(query string, args ...any) ([]int64, error) {
	log.Debug("SQL query and args:")
	log.Fallback("Debug", fmt.Sprintf("query: %s\nargs: %v\n", query, args))

	rows, err := s.appDb.Query(query, args...)
	if err != nil {
		log.Error("Failed to query manga IDs", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	ids := make([]int64, 0)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ListAuthorsOfManga collects the distinct authors of the given series.
// Catalog query.
func (s *Store) ListAuthorsOfManga(mangaIDs []int64) ([]string, error) {
	if len(mangaIDs) == 0 {
		return []string{}, nil
	}

	query := `
		SELECT DISTINCT author
		FROM manga
		WHERE id IN (` + int64In(mangaIDs) + `) AND author != ''`

	rows, err := s.catalogDb.Query(query)
	if err != nil {
		log.Error("Failed to query authors", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	authors := make([]string, 0)
	for rows.Next() {
		var author string
		if err := rows.Scan(&author); err != nil {
			return nil, err
		}
		authors = append(authors, author)
	}
	return authors, rows.Err()
}

// ListMangaIDsByAuthors returns other published series by the given authors.
// Catalog query.
func (s *Store) ListMangaIDsByAuthors(authors []string, excludeMangaIDs []int64, limit int) ([]int64, error) {
	if len(authors) == 0 {
		return []int64{}, nil
	}

	placeholders := make([]string, 0, len(authors))
	args := make([]any, 0, len(authors)+1)
	for _, author := range authors {
		placeholders = append(placeholders, "?")
		args = append(args, author)
	}

	query := `
		SELECT id
		FROM manga
		WHERE author IN (` + strings.Join(placeholders, ",") + `) AND is_published = 1`
	if len(excludeMangaIDs) > 0 {
		query += ` AND id NOT IN (` + int64In(excludeMangaIDs) + `)`
	}
	query += ` ORDER BY updated_ts DESC LIMIT ?`
	args = append(args, limit)

	log.Debug("SQL query and args:")
	log.Fallback("Debug", fmt.Sprintf("query: %s\nargs: %v\n", query, args))

	rows, err := s.catalogDb.Query(query, args...)
	if err != nil {
		log.Error("Failed to query manga by authors", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	ids := make([]int64, 0)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
