package progress

import (
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"

	"github.com/yomuhub/yomu/config"
	"github.com/yomuhub/yomu/log"
	"github.com/yomuhub/yomu/model"
	"github.com/yomuhub/yomu/store"
)

// Initialize the logger and config
func init() {
	config.Opts = config.GetDefaultOptions()
	config.Opts.LogFile = filepath.Join(os.TempDir(), "yomu-test.log")
	log.Logger = log.NewLogger()
}

func createTestService(t *testing.T) (*Service, *store.Store) {
	t.Helper()
	dir := t.TempDir()

	appDb, err := sql.Open("sqlite", filepath.Join(dir, "yomu.db"))
	if err != nil {
		t.Fatalf("Failed to open app database: %v", err)
	}
	catalogDb, err := sql.Open("sqlite", filepath.Join(dir, "catalog.db"))
	if err != nil {
		t.Fatalf("Failed to open catalog database: %v", err)
	}
	t.Cleanup(func() {
		appDb.Close()
		catalogDb.Close()
	})

	if err := applyTestSchema(appDb, "LATEST_APP_SCHEMA.sql"); err != nil {
		t.Fatalf("Failed to apply app schema: %v", err)
	}
	if err := applyTestSchema(catalogDb, "LATEST_CATALOG_SCHEMA.sql"); err != nil {
		t.Fatalf("Failed to apply catalog schema: %v", err)
	}

	s := store.NewStore(appDb, catalogDb)
	return NewService(s), s
}

func applyTestSchema(db *sql.DB, schemaFileName string) error {
	buf, err := os.ReadFile(filepath.Join("..", "store", "db", "migration", schemaFileName))
	if err != nil {
		return err
	}
	_, err = db.Exec(string(buf))
	return err
}

func createTestUser(t *testing.T, s *store.Store, username string) *model.User {
	t.Helper()
	user, err := s.CreateUser(&model.User{
		Username:     username,
		PasswordHash: "test",
		Role:         model.RoleUser,
	})
	if err != nil {
		t.Fatalf("Failed to create user: %v", err)
	}
	return user
}

// createTestSeries builds one published series with the given chapter counts
// per volume and returns the manga and its chapters in volume/number order.
func createTestSeries(t *testing.T, s *store.Store, title string, chaptersPerVolume ...int) (*model.Manga, []*model.Chapter) {
	t.Helper()
	manga, err := s.AddManga(&model.Manga{
		Title:       title,
		SortTitle:   title,
		Status:      model.MangaStatusOngoing,
		IsPublished: true,
	})
	if err != nil {
		t.Fatalf("Failed to add manga: %v", err)
	}

	chapters := make([]*model.Chapter, 0)
	number := 0
	for volumeIdx, count := range chaptersPerVolume {
		volume, err := s.GetOrCreateVolume(manga.ID, volumeIdx+1, "")
		if err != nil {
			t.Fatalf("Failed to create volume: %v", err)
		}
		for i := 0; i < count; i++ {
			number++
			chapter, err := s.AddChapter(&model.Chapter{
				MangaID:     manga.ID,
				VolumeID:    volume.ID,
				Number:      number,
				PageCount:   20,
				IsPublished: true,
			})
			if err != nil {
				t.Fatalf("Failed to add chapter: %v", err)
			}
			chapters = append(chapters, chapter)
		}
	}
	return manga, chapters
}

func TestSaveProgressClampsPages(t *testing.T) {
	svc, s := createTestService(t)
	user := createTestUser(t, s, "reader")
	manga, chapters := createTestSeries(t, s, "Berserk", 1)
	chapter := chapters[0]

	saved, err := svc.SaveProgress(user.ID, manga.ID, chapter.ID, 0, 20, 0)
	if err != nil {
		t.Fatalf("Failed to save progress: %v", err)
	}
	if saved.CurrentPage != 1 {
		t.Errorf("Expected page clamped up to 1, got %d", saved.CurrentPage)
	}
	if saved.IsCompleted {
		t.Errorf("Page 1 of 20 must not be completed")
	}

	saved, err = svc.SaveProgress(user.ID, manga.ID, chapter.ID, 99, 20, 0)
	if err != nil {
		t.Fatalf("Failed to save progress: %v", err)
	}
	if saved.CurrentPage != 20 {
		t.Errorf("Expected page clamped down to 20, got %d", saved.CurrentPage)
	}
	if !saved.IsCompleted {
		t.Errorf("Reaching the last page must complete the chapter")
	}

	if _, err := svc.SaveProgress(user.ID, manga.ID, chapter.ID, 1, 0, 0); err == nil {
		t.Errorf("Expected an error for total_pages < 1")
	}
}

func TestSaveProgressAccumulatesDeltas(t *testing.T) {
	svc, s := createTestService(t)
	user := createTestUser(t, s, "reader")
	manga, chapters := createTestSeries(t, s, "Berserk", 1)
	chapter := chapters[0]

	if _, err := svc.SaveProgress(user.ID, manga.ID, chapter.ID, 5, 20, 30); err != nil {
		t.Fatalf("Failed to save progress: %v", err)
	}
	saved, err := svc.SaveProgress(user.ID, manga.ID, chapter.ID, 8, 20, 20)
	if err != nil {
		t.Fatalf("Failed to save progress: %v", err)
	}
	if saved.ReadingTime != 50 {
		t.Errorf("Expected accumulated reading time 50, got %d", saved.ReadingTime)
	}

	// Negative deltas are treated as zero, never subtracted.
	saved, err = svc.SaveProgress(user.ID, manga.ID, chapter.ID, 9, 20, -100)
	if err != nil {
		t.Fatalf("Failed to save progress: %v", err)
	}
	if saved.ReadingTime != 50 {
		t.Errorf("Expected reading time unchanged at 50, got %d", saved.ReadingTime)
	}
}

func TestSaveProgressUnknownChapterRejected(t *testing.T) {
	svc, s := createTestService(t)
	user := createTestUser(t, s, "reader")
	_, chapters := createTestSeries(t, s, "Berserk", 1)

	// No catalog row at all.
	if _, err := svc.SaveProgress(user.ID, 424242, 424242, 3, 10, 30); !errors.Is(err, ErrChapterNotFound) {
		t.Fatalf("Expected ErrChapterNotFound for an unknown chapter, got %v", err)
	}
	if saved, err := s.GetProgress(&model.FindReadingProgress{UserID: &user.ID}); err != nil || saved != nil {
		t.Errorf("Expected no progress row to be written, got %+v (err %v)", saved, err)
	}

	// A real chapter paired with the wrong series is rejected too.
	otherManga, _ := createTestSeries(t, s, "Vinland Saga", 1)
	if _, err := svc.SaveProgress(user.ID, otherManga.ID, chapters[0].ID, 3, 10, 30); !errors.Is(err, ErrChapterNotFound) {
		t.Errorf("Expected ErrChapterNotFound for a chapter of another series, got %v", err)
	}
}

func TestMarkChapterCompletedAppendsHistory(t *testing.T) {
	svc, s := createTestService(t)
	user := createTestUser(t, s, "reader")
	manga, chapters := createTestSeries(t, s, "Berserk", 2)
	chapter := chapters[0]

	for i := 0; i < 2; i++ {
		saved, err := svc.MarkChapterCompleted(user.ID, manga.ID, chapter.ID, 60)
		if err != nil {
			t.Fatalf("Failed to mark chapter completed: %v", err)
		}
		if !saved.IsCompleted || saved.CurrentPage != saved.TotalPages {
			t.Errorf("Expected a completed chapter at the last page, got %+v", saved)
		}
	}

	// Repeat reads accumulate time on the single progress row but append a
	// fresh history row every time.
	progress, err := svc.GetProgress(user.ID, manga.ID, &chapter.ID)
	if err != nil {
		t.Fatalf("Failed to get progress: %v", err)
	}
	if progress.ReadingTime != 120 {
		t.Errorf("Expected reading time 120, got %d", progress.ReadingTime)
	}

	history, err := s.ListHistory(user.ID, 10)
	if err != nil {
		t.Fatalf("Failed to list history: %v", err)
	}
	if len(history) != 2 {
		t.Errorf("Expected 2 history rows, got %d", len(history))
	}
}

func TestMarkChapterCompletedUnknownChapter(t *testing.T) {
	svc, s := createTestService(t)
	user := createTestUser(t, s, "reader")

	if _, err := svc.MarkChapterCompleted(user.ID, 1, 9999, 0); !errors.Is(err, ErrChapterNotFound) {
		t.Errorf("Expected ErrChapterNotFound for an unknown chapter, got %v", err)
	}
}

func TestGetMangaStatistics(t *testing.T) {
	svc, s := createTestService(t)
	user := createTestUser(t, s, "reader")
	manga, chapters := createTestSeries(t, s, "Berserk", 4)

	stats, err := svc.GetMangaStatistics(user.ID, manga.ID)
	if err != nil {
		t.Fatalf("Failed to get statistics: %v", err)
	}
	if stats.CompletionPercentage != 0 || stats.CompletedChapters != 0 {
		t.Errorf("Expected zero progress, got %+v", stats)
	}

	if _, err := svc.MarkChapterCompleted(user.ID, manga.ID, chapters[0].ID, 100); err != nil {
		t.Fatalf("Failed to mark chapter completed: %v", err)
	}
	if _, err := svc.MarkChapterCompleted(user.ID, manga.ID, chapters[1].ID, 200); err != nil {
		t.Fatalf("Failed to mark chapter completed: %v", err)
	}

	stats, err = svc.GetMangaStatistics(user.ID, manga.ID)
	if err != nil {
		t.Fatalf("Failed to get statistics: %v", err)
	}
	if stats.TotalChapters != 4 || stats.CompletedChapters != 2 {
		t.Errorf("Expected 2 of 4 chapters, got %+v", stats)
	}
	if stats.CompletionPercentage != 50 {
		t.Errorf("Expected 50%%, got %f", stats.CompletionPercentage)
	}
	if stats.TotalReadingTime != 300 {
		t.Errorf("Expected 300 seconds, got %d", stats.TotalReadingTime)
	}
	if stats.LastChapterRead != chapters[1].ID {
		t.Errorf("Expected last chapter %d, got %d", chapters[1].ID, stats.LastChapterRead)
	}
}

func TestContinueReadingNextChapter(t *testing.T) {
	svc, s := createTestService(t)
	user := createTestUser(t, s, "reader")
	// Two volumes with two chapters each.
	manga, chapters := createTestSeries(t, s, "Berserk", 2, 2)

	// Finish chapter 1, the next unread is chapter 2 in the same volume.
	if _, err := svc.MarkChapterCompleted(user.ID, manga.ID, chapters[0].ID, 60); err != nil {
		t.Fatalf("Failed to mark chapter completed: %v", err)
	}
	entries, err := svc.ContinueReading(user.ID, 10)
	if err != nil {
		t.Fatalf("Failed to list continue reading: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("Expected 1 entry, got %d", len(entries))
	}
	if entries[0].NextChapter == nil || entries[0].NextChapter.ID != chapters[1].ID {
		t.Errorf("Expected next chapter %d, got %+v", chapters[1].ID, entries[0].NextChapter)
	}
	if entries[0].ProgressPercentage != 100 {
		t.Errorf("Expected 100%% for a completed chapter, got %d%%", entries[0].ProgressPercentage)
	}

	// Finish chapter 2, the next unread rolls over into volume 2.
	if _, err := svc.MarkChapterCompleted(user.ID, manga.ID, chapters[1].ID, 60); err != nil {
		t.Fatalf("Failed to mark chapter completed: %v", err)
	}
	entries, err = svc.ContinueReading(user.ID, 10)
	if err != nil {
		t.Fatalf("Failed to list continue reading: %v", err)
	}
	var latest *model.ContinueReadingEntry
	for _, entry := range entries {
		if entry.Chapter.ID == chapters[1].ID {
			latest = entry
		}
	}
	if latest == nil {
		t.Fatalf("Expected an entry for chapter %d", chapters[1].ID)
	}
	if latest.NextChapter == nil || latest.NextChapter.ID != chapters[2].ID {
		t.Errorf("Expected next chapter %d in volume 2, got %+v", chapters[2].ID, latest.NextChapter)
	}

	// Finish everything, there is nothing left to suggest.
	if _, err := svc.MarkChapterCompleted(user.ID, manga.ID, chapters[2].ID, 60); err != nil {
		t.Fatalf("Failed to mark chapter completed: %v", err)
	}
	if _, err := svc.MarkChapterCompleted(user.ID, manga.ID, chapters[3].ID, 60); err != nil {
		t.Fatalf("Failed to mark chapter completed: %v", err)
	}
	entries, err = svc.ContinueReading(user.ID, 10)
	if err != nil {
		t.Fatalf("Failed to list continue reading: %v", err)
	}
	for _, entry := range entries {
		if entry.Chapter.ID == chapters[3].ID && entry.NextChapter != nil {
			t.Errorf("Expected no next chapter at the end of the series, got %+v", entry.NextChapter)
		}
	}
}
