// Package progress tracks per-user reading positions and derives the
// continue-reading feed. All persistence failures are logged with their
// identifiers and returned to the caller; only next-chapter navigation
// degrades to nil instead of failing the request.
package progress

import (
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/yomuhub/yomu/log"
	"github.com/yomuhub/yomu/metrics"
	"github.com/yomuhub/yomu/model"
	"github.com/yomuhub/yomu/store"
)

// continueReadingWindow is how far back a progress row still counts as
// "currently reading".
const continueReadingWindow = 30 * 24 * time.Hour

// ErrChapterNotFound marks progress writes against a chapter the catalog
// does not know. The boundary layer maps it to a 404.
var ErrChapterNotFound = errors.New("chapter not found")

type Service struct {
	store *store.Store
}

func NewService(s *store.Store) *Service {
	return &Service{store: s}
}

// SaveProgress records a page turn. The page is clamped to totalPages,
// readingTimeDelta is added to the cumulative counter and the chapter is
// marked completed when the clamped page reaches the last one. Repeating
// the same call is idempotent apart from the time accumulation, so callers
// must pass deltas, never running totals.
func (s *Service) SaveProgress(userID int32, mangaID, chapterID int64, currentPage, totalPages int, readingTimeDelta int64) (*model.ReadingProgress, error) {
	if totalPages < 1 {
		return nil, errors.New("total_pages must be at least 1")
	}
	if currentPage < 1 {
		currentPage = 1
	}
	if currentPage > totalPages {
		currentPage = totalPages
	}
	if readingTimeDelta < 0 {
		readingTimeDelta = 0
	}

	chapter, err := s.store.GetChapter(&model.FindChapter{ID: &chapterID, MangaID: &mangaID})
	if err != nil {
		return nil, errors.Wrap(err, "failed to look up chapter")
	}
	if chapter == nil {
		return nil, errors.Wrapf(ErrChapterNotFound, "chapter %d of manga %d", chapterID, mangaID)
	}

	saved, err := s.store.UpsertProgress(&model.ReadingProgress{
		UserID:      userID,
		MangaID:     mangaID,
		ChapterID:   chapterID,
		CurrentPage: currentPage,
		TotalPages:  totalPages,
		IsCompleted: currentPage == totalPages,
		ReadingTime: readingTimeDelta,
		LastReadTs:  time.Now().Unix(),
	})
	if err != nil {
		log.Error("Failed to save reading progress",
			zap.Error(err),
			zap.Int32("user_id", userID),
			zap.Int64("manga_id", mangaID),
			zap.Int64("chapter_id", chapterID))
		return nil, errors.Wrap(err, "failed to save reading progress")
	}

	metrics.ProgressSavesTotal.Inc()
	return saved, nil
}

// GetProgress returns the exact row when chapterID is non-nil, otherwise the
// most recently touched row of the manga. Nil means no progress yet.
func (s *Service) GetProgress(userID int32, mangaID int64, chapterID *int64) (*model.ReadingProgress, error) {
	find := &model.FindReadingProgress{
		UserID:  &userID,
		MangaID: &mangaID,
	}
	if chapterID != nil {
		find.ChapterID = chapterID
	}

	progress, err := s.store.GetProgress(find)
	if err != nil {
		log.Error("Failed to get reading progress",
			zap.Error(err),
			zap.Int32("user_id", userID),
			zap.Int64("manga_id", mangaID))
		return nil, errors.Wrap(err, "failed to get reading progress")
	}
	return progress, nil
}

// MarkChapterCompleted forces the chapter to its last page and appends one
// history row. The history append happens on every call, including repeat
// reads of an already completed chapter.
func (s *Service) MarkChapterCompleted(userID int32, mangaID, chapterID int64, readingTimeDelta int64) (*model.ReadingProgress, error) {
	totalPages, err := s.resolveTotalPages(userID, chapterID)
	if err != nil {
		return nil, err
	}
	if readingTimeDelta < 0 {
		readingTimeDelta = 0
	}

	now := time.Now().Unix()
	saved, err := s.store.UpsertProgress(&model.ReadingProgress{
		UserID:      userID,
		MangaID:     mangaID,
		ChapterID:   chapterID,
		CurrentPage: totalPages,
		TotalPages:  totalPages,
		IsCompleted: true,
		ReadingTime: readingTimeDelta,
		LastReadTs:  now,
	})
	if err != nil {
		log.Error("Failed to mark chapter completed",
			zap.Error(err),
			zap.Int32("user_id", userID),
			zap.Int64("manga_id", mangaID),
			zap.Int64("chapter_id", chapterID))
		return nil, errors.Wrap(err, "failed to mark chapter completed")
	}

	if _, err := s.store.AddHistory(&model.ReadingHistory{
		UserID:          userID,
		MangaID:         mangaID,
		ChapterID:       chapterID,
		StartedTs:       now - readingTimeDelta,
		CompletedTs:     now,
		SessionDuration: readingTimeDelta,
	}); err != nil {
		log.Error("Failed to append reading history",
			zap.Error(err),
			zap.Int32("user_id", userID),
			zap.Int64("chapter_id", chapterID))
		return nil, errors.Wrap(err, "failed to append reading history")
	}

	metrics.ChaptersCompletedTotal.Inc()
	return saved, nil
}

// resolveTotalPages prefers the existing progress row, falling back to the
// catalog page count. A chapter unknown to both is a NotFound for the
// boundary layer.
func (s *Service) resolveTotalPages(userID int32, chapterID int64) (int, error) {
	existing, err := s.store.GetProgress(&model.FindReadingProgress{
		UserID:    &userID,
		ChapterID: &chapterID,
	})
	if err != nil {
		return 0, errors.Wrap(err, "failed to look up existing progress")
	}
	if existing != nil {
		return existing.TotalPages, nil
	}

	chapter, err := s.store.GetChapter(&model.FindChapter{ID: &chapterID})
	if err != nil {
		return 0, errors.Wrap(err, "failed to look up chapter")
	}
	if chapter == nil {
		return 0, errors.Wrapf(ErrChapterNotFound, "chapter %d", chapterID)
	}
	if chapter.PageCount < 1 {
		return 1, nil
	}
	return chapter.PageCount, nil
}

// GetMangaStatistics aggregates completion and reading time for one series.
// completion_percentage is 0 when the series has no published chapters.
func (s *Service) GetMangaStatistics(userID int32, mangaID int64) (*model.MangaStatistics, error) {
	totalChapters, err := s.store.CountPublishedChapters(mangaID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to count chapters")
	}

	completed, readingTime, err := s.store.ProgressSummary(userID, mangaID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to summarize progress")
	}

	stats := &model.MangaStatistics{
		MangaID:           mangaID,
		TotalChapters:     totalChapters,
		CompletedChapters: completed,
		TotalReadingTime:  readingTime,
	}
	if totalChapters > 0 {
		stats.CompletionPercentage = float64(completed) / float64(totalChapters) * 100
	}

	latest, err := s.store.GetProgress(&model.FindReadingProgress{
		UserID:  &userID,
		MangaID: &mangaID,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to get latest progress")
	}
	if latest != nil {
		stats.LastChapterRead = latest.ChapterID
		stats.LastReadTs = latest.LastReadTs
	}
	return stats, nil
}

// ContinueReading lists the chapters touched in the last 30 days, most
// recent first, each with the chapter to read next when one exists.
func (s *Service) ContinueReading(userID int32, limit int) ([]*model.ContinueReadingEntry, error) {
	since := time.Now().Add(-continueReadingWindow).Unix()
	candidates, err := s.store.ListProgress(&model.FindReadingProgress{
		UserID:       &userID,
		TouchedSince: &since,
		Limit:        &limit,
	})
	if err != nil {
		log.Error("Failed to list continue-reading candidates",
			zap.Error(err),
			zap.Int32("user_id", userID))
		return nil, errors.Wrap(err, "failed to list continue-reading candidates")
	}

	entries := make([]*model.ContinueReadingEntry, 0, len(candidates))
	for _, p := range candidates {
		entry := &model.ContinueReadingEntry{
			Progress:           p,
			ProgressPercentage: p.ProgressPercentage(),
		}

		manga, err := s.store.GetManga(&model.FindManga{ID: &p.MangaID})
		if err != nil || manga == nil {
			continue
		}
		entry.Manga = manga

		chapter, err := s.store.GetChapter(&model.FindChapter{ID: &p.ChapterID})
		if err != nil || chapter == nil {
			continue
		}
		entry.Chapter = chapter

		entry.NextChapter = s.nextChapter(userID, chapter)
		entries = append(entries, entry)
	}
	return entries, nil
}

// nextChapter resolves the first unread published chapter after the given
// one: higher number in the same volume first, then the first published
// chapter of the next published volume. Any lookup fault degrades to nil so
// suggestions never fail a request.
func (s *Service) nextChapter(userID int32, current *model.Chapter) *model.Chapter {
	completed, err := s.store.ListCompletedChapterIDs(userID, current.MangaID)
	if err != nil {
		log.Warn("Next-chapter lookup degraded",
			zap.Error(err),
			zap.Int64("chapter_id", current.ID))
		return nil
	}

	sameVolume, err := s.store.ListChapters(&model.FindChapter{
		VolumeID:      &current.VolumeID,
		PublishedOnly: true,
	})
	if err != nil {
		log.Warn("Next-chapter lookup degraded", zap.Error(err), zap.Int64("volume_id", current.VolumeID))
		return nil
	}
	// ListChapters orders by number ascending.
	for _, c := range sameVolume {
		if c.Number > current.Number && !completed[c.ID] {
			return c
		}
	}

	volumes, err := s.store.ListVolumes(current.MangaID, true)
	if err != nil {
		log.Warn("Next-chapter lookup degraded", zap.Error(err), zap.Int64("manga_id", current.MangaID))
		return nil
	}

	currentNumber := -1
	for _, v := range volumes {
		if v.ID == current.VolumeID {
			currentNumber = v.Number
			break
		}
	}
	if currentNumber < 0 {
		return nil
	}

	for _, v := range volumes {
		if v.Number <= currentNumber {
			continue
		}
		chapters, err := s.store.ListChapters(&model.FindChapter{
			VolumeID:      &v.ID,
			PublishedOnly: true,
		})
		if err != nil {
			log.Warn("Next-chapter lookup degraded", zap.Error(err), zap.Int64("volume_id", v.ID))
			return nil
		}
		if len(chapters) > 0 {
			return chapters[0]
		}
	}
	return nil
}
