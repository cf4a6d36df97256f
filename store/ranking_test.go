package store

import (
	"testing"
	"time"

	"github.com/yomuhub/yomu/model"
)

func addProgressRow(t *testing.T, s *Store, userID int32, mangaID, chapterID int64, completed bool, ts int64) {
	t.Helper()
	if _, err := s.UpsertProgress(&model.ReadingProgress{
		UserID:      userID,
		MangaID:     mangaID,
		ChapterID:   chapterID,
		CurrentPage: 1,
		TotalPages:  20,
		IsCompleted: completed,
		LastReadTs:  ts,
	}); err != nil {
		t.Fatalf("Failed to upsert progress: %v", err)
	}
}

func TestRankMangaByReaders(t *testing.T) {
	s := createTestStore(t)
	alice := createTestUser(t, s, "alice")
	bob := createTestUser(t, s, "bob")
	carol := createTestUser(t, s, "carol")

	now := time.Now().Unix()
	// Manga 1: 3 readers. Manga 2 and 3: 2 readers each.
	addProgressRow(t, s, alice.ID, 1, 10, false, now)
	addProgressRow(t, s, bob.ID, 1, 10, false, now)
	addProgressRow(t, s, carol.ID, 1, 10, false, now)
	addProgressRow(t, s, alice.ID, 2, 20, false, now)
	addProgressRow(t, s, bob.ID, 2, 20, false, now)
	addProgressRow(t, s, alice.ID, 3, 30, false, now)
	addProgressRow(t, s, carol.ID, 3, 30, false, now)

	// Favorites break the 2-reader tie in favor of manga 3.
	if _, err := s.AddFavorite(alice.ID, 3); err != nil {
		t.Fatalf("Failed to add favorite: %v", err)
	}

	ids, err := s.RankMangaByReaders(10)
	if err != nil {
		t.Fatalf("Failed to rank manga: %v", err)
	}
	if len(ids) != 3 {
		t.Fatalf("Expected 3 ranked manga, got %d", len(ids))
	}
	if ids[0] != 1 || ids[1] != 3 || ids[2] != 2 {
		t.Errorf("Unexpected ranking: %v", ids)
	}
}

func TestRankMangaByReadersFavoritesOnly(t *testing.T) {
	s := createTestStore(t)
	alice := createTestUser(t, s, "alice")

	// No progress rows anywhere; a favorited series still ranks.
	if _, err := s.AddFavorite(alice.ID, 5); err != nil {
		t.Fatalf("Failed to add favorite: %v", err)
	}

	ids, err := s.RankMangaByReaders(10)
	if err != nil {
		t.Fatalf("Failed to rank manga: %v", err)
	}
	if len(ids) != 1 || ids[0] != 5 {
		t.Errorf("Expected favorited manga 5 to rank, got %v", ids)
	}
}

func TestRankMangaByReadersBackfillsFreshCatalog(t *testing.T) {
	s := createTestStore(t)
	alice := createTestUser(t, s, "alice")

	read := createTestManga(t, s, "Read Series", true)
	untouched := createTestManga(t, s, "Untouched Series", true)
	createTestManga(t, s, "Draft Series", false)

	addProgressRow(t, s, alice.ID, read.ID, 10, false, time.Now().Unix())

	// The read series ranks on signal, the untouched published one backfills,
	// the unpublished draft never surfaces.
	ids, err := s.RankMangaByReaders(10)
	if err != nil {
		t.Fatalf("Failed to rank manga: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("Expected 2 ranked manga, got %v", ids)
	}
	if ids[0] != read.ID || ids[1] != untouched.ID {
		t.Errorf("Expected ranking [%d %d], got %v", read.ID, untouched.ID, ids)
	}

	// A fresh catalog with no reading signal at all still yields a feed.
	s2 := createTestStore(t)
	first := createTestManga(t, s2, "First Series", true)
	second := createTestManga(t, s2, "Second Series", true)

	ids, err = s2.RankMangaByReaders(10)
	if err != nil {
		t.Fatalf("Failed to rank manga: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("Expected 2 backfilled manga, got %v", ids)
	}
	seen := map[int64]bool{ids[0]: true, ids[1]: true}
	if !seen[first.ID] || !seen[second.ID] {
		t.Errorf("Expected both published series in the feed, got %v", ids)
	}
}

func TestPeersWhoCompleted(t *testing.T) {
	s := createTestStore(t)
	alice := createTestUser(t, s, "alice")
	bob := createTestUser(t, s, "bob")
	carol := createTestUser(t, s, "carol")

	now := time.Now().Unix()
	// Bob completed both seeds, Carol completed one, Alice is the seed user.
	addProgressRow(t, s, alice.ID, 1, 10, true, now)
	addProgressRow(t, s, alice.ID, 2, 20, true, now)
	addProgressRow(t, s, bob.ID, 1, 10, true, now)
	addProgressRow(t, s, bob.ID, 2, 20, true, now)
	addProgressRow(t, s, carol.ID, 1, 10, true, now)
	addProgressRow(t, s, carol.ID, 3, 30, true, now)

	peers, err := s.PeersWhoCompleted([]int64{1, 2}, alice.ID, 10)
	if err != nil {
		t.Fatalf("Failed to find peers: %v", err)
	}
	if len(peers) != 2 {
		t.Fatalf("Expected 2 peers, got %d", len(peers))
	}
	if peers[0] != bob.ID {
		t.Errorf("Expected most overlapping peer %d first, got %d", bob.ID, peers[0])
	}
	for _, peer := range peers {
		if peer == alice.ID {
			t.Errorf("Seed user must not appear among peers")
		}
	}
}

func TestRankMangaCompletedByExcludes(t *testing.T) {
	s := createTestStore(t)
	alice := createTestUser(t, s, "alice")
	bob := createTestUser(t, s, "bob")

	now := time.Now().Unix()
	addProgressRow(t, s, alice.ID, 1, 10, true, now)
	addProgressRow(t, s, alice.ID, 2, 20, true, now)
	addProgressRow(t, s, bob.ID, 2, 20, true, now)

	ids, err := s.RankMangaCompletedBy([]int32{alice.ID, bob.ID}, []int64{1}, 10)
	if err != nil {
		t.Fatalf("Failed to rank peer manga: %v", err)
	}
	if len(ids) != 1 || ids[0] != 2 {
		t.Errorf("Expected only manga 2 after excluding 1, got %v", ids)
	}
}

func TestTrendingMangaIDsCutoff(t *testing.T) {
	s := createTestStore(t)
	alice := createTestUser(t, s, "alice")
	bob := createTestUser(t, s, "bob")

	now := time.Now().Unix()
	// Manga 1 was read long ago, manga 2 recently by two users.
	addProgressRow(t, s, alice.ID, 1, 10, false, now-1000000)
	addProgressRow(t, s, alice.ID, 2, 20, false, now-10)
	addProgressRow(t, s, bob.ID, 2, 21, false, now-20)

	ids, err := s.TrendingMangaIDs(now-3600, 10)
	if err != nil {
		t.Fatalf("Failed to query trending manga: %v", err)
	}
	if len(ids) != 1 || ids[0] != 2 {
		t.Errorf("Expected only manga 2 inside the window, got %v", ids)
	}
}

func TestRatedMangaIDs(t *testing.T) {
	s := createTestStore(t)
	alice := createTestUser(t, s, "alice")
	bob := createTestUser(t, s, "bob")

	now := time.Now().Unix()
	addProgressRow(t, s, alice.ID, 1, 10, false, now)
	addProgressRow(t, s, bob.ID, 1, 10, false, now)
	addProgressRow(t, s, alice.ID, 2, 20, false, now)

	aliceList, err := s.AddUserList(&model.UserList{UserID: alice.ID, Name: "favorites"})
	if err != nil {
		t.Fatalf("Failed to create list: %v", err)
	}

	nine := 9
	three := 3
	if _, err := s.UpsertListEntry(&model.UserListEntry{ListID: aliceList.ID, MangaID: 1, Rating: &nine}); err != nil {
		t.Fatalf("Failed to upsert entry: %v", err)
	}
	if _, err := s.UpsertListEntry(&model.UserListEntry{ListID: aliceList.ID, MangaID: 2, Rating: &three}); err != nil {
		t.Fatalf("Failed to upsert entry: %v", err)
	}

	// Manga 1 has rating 9 with 2 readers, manga 2 has rating 3.
	ids, err := s.RatedMangaIDs(7.0, 2, 10)
	if err != nil {
		t.Fatalf("Failed to query rated manga: %v", err)
	}
	if len(ids) != 1 || ids[0] != 1 {
		t.Errorf("Expected only well-rated manga 1, got %v", ids)
	}

	// Manga 2 fails the reader threshold even with a lowered rating floor.
	ids, err = s.RatedMangaIDs(1.0, 2, 10)
	if err != nil {
		t.Fatalf("Failed to query rated manga: %v", err)
	}
	if len(ids) != 1 || ids[0] != 1 {
		t.Errorf("Expected manga 2 filtered by min readers, got %v", ids)
	}
}
