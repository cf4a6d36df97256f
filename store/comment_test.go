package store

import (
	"testing"

	"github.com/yomuhub/yomu/model"
)

func TestCommentLifecycle(t *testing.T) {
	s := createTestStore(t)
	user := createTestUser(t, s, "reader")

	created, err := s.AddComment(&model.Comment{
		UserID:  user.ID,
		MangaID: 1,
		Content: "Great chapter",
	})
	if err != nil {
		t.Fatalf("Failed to add comment: %v", err)
	}
	if created.ID == 0 {
		t.Fatalf("Expected comment ID to be assigned")
	}

	updated, err := s.UpdateComment(created.ID, user.ID, "Great chapter, edited")
	if err != nil {
		t.Fatalf("Failed to update comment: %v", err)
	}
	if updated.Content != "Great chapter, edited" {
		t.Errorf("Expected updated content, got %q", updated.Content)
	}
	if updated.UpdatedTs < created.CreatedTs {
		t.Errorf("Expected updated_ts to move forward")
	}

	if err := s.RemoveComment(created.ID, user.ID); err != nil {
		t.Fatalf("Failed to remove comment: %v", err)
	}
	got, err := s.GetComment(created.ID)
	if err != nil {
		t.Fatalf("Failed to get comment: %v", err)
	}
	if got != nil {
		t.Errorf("Expected the comment to be gone")
	}
}

func TestUpdateCommentIsAuthorScoped(t *testing.T) {
	s := createTestStore(t)
	alice := createTestUser(t, s, "alice")
	bob := createTestUser(t, s, "bob")

	created, err := s.AddComment(&model.Comment{UserID: alice.ID, MangaID: 1, Content: "mine"})
	if err != nil {
		t.Fatalf("Failed to add comment: %v", err)
	}

	// Another user's update matches no row.
	if _, err := s.UpdateComment(created.ID, bob.ID, "hijacked"); err == nil {
		t.Errorf("Expected an error for a foreign update")
	}

	got, err := s.GetComment(created.ID)
	if err != nil {
		t.Fatalf("Failed to get comment: %v", err)
	}
	if got.Content != "mine" {
		t.Errorf("Expected the content untouched, got %q", got.Content)
	}
}

func TestListCommentsFilters(t *testing.T) {
	s := createTestStore(t)
	user := createTestUser(t, s, "reader")

	chapterID := int64(10)
	comments := []*model.Comment{
		{UserID: user.ID, MangaID: 1, Content: "series level"},
		{UserID: user.ID, MangaID: 1, ChapterID: chapterID, Content: "chapter level"},
		{UserID: user.ID, MangaID: 2, Content: "other series"},
	}
	for _, c := range comments {
		if _, err := s.AddComment(c); err != nil {
			t.Fatalf("Failed to add comment: %v", err)
		}
	}

	mangaID := int64(1)
	list, err := s.ListComments(&model.FindComment{MangaID: &mangaID})
	if err != nil {
		t.Fatalf("Failed to list comments: %v", err)
	}
	if len(list) != 2 {
		t.Errorf("Expected 2 comments on manga 1, got %d", len(list))
	}

	list, err = s.ListComments(&model.FindComment{MangaID: &mangaID, ChapterID: &chapterID})
	if err != nil {
		t.Fatalf("Failed to list comments: %v", err)
	}
	if len(list) != 1 || list[0].Content != "chapter level" {
		t.Errorf("Expected only the chapter comment, got %+v", list)
	}
}

func TestJobLifecycle(t *testing.T) {
	s := createTestStore(t)
	user := createTestUser(t, s, "uploader")

	created, err := s.AddJob(model.Job{
		UserID: user.ID,
		Path:   "/data/uploads/1/archive.zip",
		Type:   model.JobTypeChapterUpload,
		Status: model.JobStatusPending,
	})
	if err != nil {
		t.Fatalf("Failed to add job: %v", err)
	}
	if created.ID == 0 {
		t.Fatalf("Expected job ID to be assigned")
	}

	if err := s.SetJobStatus(created.ID, model.JobStatusFailed, "unsupported archive format"); err != nil {
		t.Fatalf("Failed to set job status: %v", err)
	}

	jobs, err := s.ListJobs(user.ID, 10)
	if err != nil {
		t.Fatalf("Failed to list jobs: %v", err)
	}
	if len(jobs) != 1 {
		t.Fatalf("Expected 1 job, got %d", len(jobs))
	}
	if jobs[0].Status != model.JobStatusFailed || jobs[0].Detail != "unsupported archive format" {
		t.Errorf("Unexpected job state: %+v", jobs[0])
	}
}
