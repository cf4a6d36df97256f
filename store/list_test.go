package store

import (
	"testing"

	"github.com/yomuhub/yomu/model"
)

func TestUpsertListEntry(t *testing.T) {
	s := createTestStore(t)
	user := createTestUser(t, s, "reader")

	list, err := s.AddUserList(&model.UserList{UserID: user.ID, Name: "favorites"})
	if err != nil {
		t.Fatalf("Failed to create list: %v", err)
	}

	first, err := s.UpsertListEntry(&model.UserListEntry{ListID: list.ID, MangaID: 1, Notes: "great"})
	if err != nil {
		t.Fatalf("Failed to upsert entry: %v", err)
	}
	if first.Rating != nil {
		t.Errorf("Expected no rating, got %v", *first.Rating)
	}

	// The same manga updates in place instead of duplicating.
	eight := 8
	second, err := s.UpsertListEntry(&model.UserListEntry{ListID: list.ID, MangaID: 1, Rating: &eight})
	if err != nil {
		t.Fatalf("Failed to upsert entry: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("Expected the same entry row, got %d and %d", first.ID, second.ID)
	}
	if second.Rating == nil || *second.Rating != 8 {
		t.Errorf("Expected rating 8, got %v", second.Rating)
	}

	entries, err := s.ListEntries(list.ID)
	if err != nil {
		t.Fatalf("Failed to list entries: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("Expected one entry per manga, got %d", len(entries))
	}

	if err := s.RemoveListEntry(list.ID, 1); err != nil {
		t.Fatalf("Failed to remove entry: %v", err)
	}
	entries, err = s.ListEntries(list.ID)
	if err != nil {
		t.Fatalf("Failed to list entries: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("Expected an empty list, got %d entries", len(entries))
	}
}

func TestRemoveUserListIsOwnerScoped(t *testing.T) {
	s := createTestStore(t)
	alice := createTestUser(t, s, "alice")
	bob := createTestUser(t, s, "bob")

	list, err := s.AddUserList(&model.UserList{UserID: alice.ID, Name: "reading"})
	if err != nil {
		t.Fatalf("Failed to create list: %v", err)
	}

	// A delete by someone else is a silent no-op.
	if err := s.RemoveUserList(list.ID, bob.ID); err != nil {
		t.Fatalf("Failed to remove list: %v", err)
	}
	got, err := s.GetUserList(&model.FindUserList{ID: &list.ID})
	if err != nil {
		t.Fatalf("Failed to get list: %v", err)
	}
	if got == nil {
		t.Fatalf("Expected the list to survive a foreign delete")
	}

	if err := s.RemoveUserList(list.ID, alice.ID); err != nil {
		t.Fatalf("Failed to remove list: %v", err)
	}
	got, err = s.GetUserList(&model.FindUserList{ID: &list.ID})
	if err != nil {
		t.Fatalf("Failed to get list: %v", err)
	}
	if got != nil {
		t.Errorf("Expected the list to be gone")
	}
}

func TestFavorites(t *testing.T) {
	s := createTestStore(t)
	user := createTestUser(t, s, "reader")

	if _, err := s.AddFavorite(user.ID, 1); err != nil {
		t.Fatalf("Failed to add favorite: %v", err)
	}
	// Favoriting twice keeps the single row.
	if _, err := s.AddFavorite(user.ID, 1); err != nil {
		t.Fatalf("Failed to add favorite: %v", err)
	}
	if _, err := s.AddFavorite(user.ID, 2); err != nil {
		t.Fatalf("Failed to add favorite: %v", err)
	}

	ids, err := s.ListFavoriteMangaIDs(user.ID)
	if err != nil {
		t.Fatalf("Failed to list favorites: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("Expected 2 favorites, got %d", len(ids))
	}

	if err := s.RemoveFavorite(user.ID, 1); err != nil {
		t.Fatalf("Failed to remove favorite: %v", err)
	}
	ids, err = s.ListFavoriteMangaIDs(user.ID)
	if err != nil {
		t.Fatalf("Failed to list favorites: %v", err)
	}
	if len(ids) != 1 || ids[0] != 2 {
		t.Errorf("Expected only manga 2 left, got %v", ids)
	}
}
