package store

import (
	"testing"
	"time"

	"github.com/yomuhub/yomu/model"
)

func TestUpsertProgressAccumulatesReadingTime(t *testing.T) {
	s := createTestStore(t)
	user := createTestUser(t, s, "reader")

	first, err := s.UpsertProgress(&model.ReadingProgress{
		UserID:      user.ID,
		MangaID:     1,
		ChapterID:   10,
		CurrentPage: 5,
		TotalPages:  20,
		ReadingTime: 30,
		LastReadTs:  time.Now().Unix(),
	})
	if err != nil {
		t.Fatalf("Failed to upsert progress: %v", err)
	}
	if first.ReadingTime != 30 {
		t.Errorf("Expected reading time 30, got %d", first.ReadingTime)
	}

	second, err := s.UpsertProgress(&model.ReadingProgress{
		UserID:      user.ID,
		MangaID:     1,
		ChapterID:   10,
		CurrentPage: 12,
		TotalPages:  20,
		ReadingTime: 20,
		LastReadTs:  time.Now().Unix(),
	})
	if err != nil {
		t.Fatalf("Failed to upsert progress: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("Expected the same row, got %d and %d", first.ID, second.ID)
	}
	if second.CurrentPage != 12 {
		t.Errorf("Expected current page 12, got %d", second.CurrentPage)
	}
	if second.ReadingTime != 50 {
		t.Errorf("Expected reading time 30+20=50, got %d", second.ReadingTime)
	}

	list, err := s.ListProgress(&model.FindReadingProgress{UserID: &user.ID})
	if err != nil {
		t.Fatalf("Failed to list progress: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("Expected one row per (user, chapter), got %d", len(list))
	}
}

func TestListProgressFilters(t *testing.T) {
	s := createTestStore(t)
	user := createTestUser(t, s, "reader")

	now := time.Now().Unix()
	rows := []*model.ReadingProgress{
		{UserID: user.ID, MangaID: 1, ChapterID: 1, CurrentPage: 20, TotalPages: 20, IsCompleted: true, LastReadTs: now - 100},
		{UserID: user.ID, MangaID: 1, ChapterID: 2, CurrentPage: 3, TotalPages: 20, LastReadTs: now - 10},
		{UserID: user.ID, MangaID: 2, ChapterID: 9, CurrentPage: 1, TotalPages: 5, LastReadTs: now - 400000},
	}
	for _, row := range rows {
		if _, err := s.UpsertProgress(row); err != nil {
			t.Fatalf("Failed to upsert progress: %v", err)
		}
	}

	list, err := s.ListProgress(&model.FindReadingProgress{UserID: &user.ID})
	if err != nil {
		t.Fatalf("Failed to list progress: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("Expected 3 rows, got %d", len(list))
	}
	// Most recently touched first.
	if list[0].ChapterID != 2 || list[1].ChapterID != 1 || list[2].ChapterID != 9 {
		t.Errorf("Unexpected ordering: %d, %d, %d", list[0].ChapterID, list[1].ChapterID, list[2].ChapterID)
	}

	since := now - 200
	recent, err := s.ListProgress(&model.FindReadingProgress{UserID: &user.ID, TouchedSince: &since})
	if err != nil {
		t.Fatalf("Failed to list progress: %v", err)
	}
	if len(recent) != 2 {
		t.Errorf("Expected 2 recent rows, got %d", len(recent))
	}

	completed, err := s.ListProgress(&model.FindReadingProgress{UserID: &user.ID, CompletedOnly: true})
	if err != nil {
		t.Fatalf("Failed to list progress: %v", err)
	}
	if len(completed) != 1 || completed[0].ChapterID != 1 {
		t.Errorf("Expected only chapter 1 completed, got %+v", completed)
	}
}

func TestListProgressStableOrderOnEqualTimestamps(t *testing.T) {
	s := createTestStore(t)
	user := createTestUser(t, s, "reader")

	// Three chapters saved within the same second; the newest row wins the
	// tie so the listing order never flaps between queries.
	ts := time.Now().Unix()
	for chapterID := int64(1); chapterID <= 3; chapterID++ {
		if _, err := s.UpsertProgress(&model.ReadingProgress{
			UserID:      user.ID,
			MangaID:     1,
			ChapterID:   chapterID,
			CurrentPage: 1,
			TotalPages:  20,
			LastReadTs:  ts,
		}); err != nil {
			t.Fatalf("Failed to upsert progress: %v", err)
		}
	}

	list, err := s.ListProgress(&model.FindReadingProgress{UserID: &user.ID})
	if err != nil {
		t.Fatalf("Failed to list progress: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("Expected 3 rows, got %d", len(list))
	}
	if list[0].ChapterID != 3 || list[1].ChapterID != 2 || list[2].ChapterID != 1 {
		t.Errorf("Unexpected ordering: %d, %d, %d", list[0].ChapterID, list[1].ChapterID, list[2].ChapterID)
	}
}

func TestProgressSummary(t *testing.T) {
	s := createTestStore(t)
	user := createTestUser(t, s, "reader")

	now := time.Now().Unix()
	rows := []*model.ReadingProgress{
		{UserID: user.ID, MangaID: 1, ChapterID: 1, CurrentPage: 20, TotalPages: 20, IsCompleted: true, ReadingTime: 100, LastReadTs: now},
		{UserID: user.ID, MangaID: 1, ChapterID: 2, CurrentPage: 20, TotalPages: 20, IsCompleted: true, ReadingTime: 200, LastReadTs: now},
		{UserID: user.ID, MangaID: 1, ChapterID: 3, CurrentPage: 5, TotalPages: 20, ReadingTime: 50, LastReadTs: now},
		{UserID: user.ID, MangaID: 2, ChapterID: 9, CurrentPage: 5, TotalPages: 5, IsCompleted: true, ReadingTime: 999, LastReadTs: now},
	}
	for _, row := range rows {
		if _, err := s.UpsertProgress(row); err != nil {
			t.Fatalf("Failed to upsert progress: %v", err)
		}
	}

	completed, readingTime, err := s.ProgressSummary(user.ID, 1)
	if err != nil {
		t.Fatalf("Failed to summarize progress: %v", err)
	}
	if completed != 2 {
		t.Errorf("Expected 2 completed chapters, got %d", completed)
	}
	if readingTime != 350 {
		t.Errorf("Expected 350 seconds, got %d", readingTime)
	}

	ids, err := s.ListCompletedChapterIDs(user.ID, 1)
	if err != nil {
		t.Fatalf("Failed to list completed chapters: %v", err)
	}
	if len(ids) != 2 || !ids[1] || !ids[2] {
		t.Errorf("Expected chapters 1 and 2, got %v", ids)
	}
}

func TestAddHistoryAppendsEveryTime(t *testing.T) {
	s := createTestStore(t)
	user := createTestUser(t, s, "reader")

	for i := 0; i < 3; i++ {
		if _, err := s.AddHistory(&model.ReadingHistory{
			UserID:          user.ID,
			MangaID:         1,
			ChapterID:       7,
			StartedTs:       time.Now().Unix() - 60,
			CompletedTs:     time.Now().Unix(),
			SessionDuration: 60,
		}); err != nil {
			t.Fatalf("Failed to add history: %v", err)
		}
	}

	list, err := s.ListHistory(user.ID, 10)
	if err != nil {
		t.Fatalf("Failed to list history: %v", err)
	}
	if len(list) != 3 {
		t.Errorf("Expected 3 history rows for repeated reads, got %d", len(list))
	}
}
