package worker

import (
	"archive/zip"
	"database/sql"
	"os"
	"path/filepath"
	"strings"
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

func createTestStore(t *testing.T) *store.Store {
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

	for db, schema := range map[*sql.DB]string{
		appDb:     "LATEST_APP_SCHEMA.sql",
		catalogDb: "LATEST_CATALOG_SCHEMA.sql",
	} {
		buf, err := os.ReadFile(filepath.Join("..", "store", "db", "migration", schema))
		if err != nil {
			t.Fatalf("Failed to read schema %s: %v", schema, err)
		}
		if _, err := db.Exec(string(buf)); err != nil {
			t.Fatalf("Failed to apply schema %s: %v", schema, err)
		}
	}

	return store.NewStore(appDb, catalogDb)
}

// createTestArchive writes a zip with the given entry names, each holding a
// few throwaway bytes. Names ending in "/" become directory entries, which
// take no content.
func createTestArchive(t *testing.T, dir string, names []string) string {
	t.Helper()
	archivePath := filepath.Join(dir, "chapter.zip")
	f, err := os.Create(archivePath)
	if err != nil {
		t.Fatalf("Failed to create archive: %v", err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	for _, name := range names {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("Failed to add entry %s: %v", name, err)
		}
		if strings.HasSuffix(name, "/") {
			continue
		}
		if _, err := w.Write([]byte("fake image data")); err != nil {
			t.Fatalf("Failed to write entry %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("Failed to close archive: %v", err)
	}
	return archivePath
}

func TestIngestChapterArchive(t *testing.T) {
	s := createTestStore(t)
	config.Opts.Data = t.TempDir()
	w := &ChapterExtractWorker{store: s}

	// Pages out of order plus the junk a scanner archive typically carries.
	archivePath := createTestArchive(t, t.TempDir(), []string{
		"page10.jpg",
		"page2.jpg",
		"page1.jpg",
		"notes.txt",
		".hidden.jpg",
		"__MACOSX/page1.jpg",
		"extras/",
	})

	chapter, err := w.ingest(model.ExtractRequest{
		ArchivePath: archivePath,
		Meta: model.MangaCreateRequest{
			Title:   "The Promised Land",
			Author:  "Kaiu Shirai",
			Volume:  1,
			Chapter: 1,
		},
	})
	if err != nil {
		t.Fatalf("Failed to ingest archive: %v", err)
	}

	if chapter.PageCount != 3 {
		t.Errorf("Expected 3 pages, got %d", chapter.PageCount)
	}
	if !chapter.IsPublished {
		t.Errorf("Expected the chapter to be published after ingest")
	}

	manga, err := s.GetManga(&model.FindManga{ID: &chapter.MangaID})
	if err != nil || manga == nil {
		t.Fatalf("Failed to get manga: %v", err)
	}
	if !manga.IsPublished {
		t.Errorf("Expected the series to be published after ingest")
	}
	if manga.SortTitle != "Promised Land, The" {
		t.Errorf("Expected a sortable title, got %q", manga.SortTitle)
	}
	if manga.AuthorSort != "Shirai, Kaiu" {
		t.Errorf("Expected a sortable author, got %q", manga.AuthorSort)
	}

	// Pages land renumbered in natural reading order.
	pages, err := s.ListPages(chapter.ID)
	if err != nil {
		t.Fatalf("Failed to list pages: %v", err)
	}
	if len(pages) != 3 {
		t.Fatalf("Expected 3 pages, got %d", len(pages))
	}
	expected := []string{"0001.jpg", "0002.jpg", "0003.jpg"}
	for i, page := range pages {
		if filepath.Base(page.Path) != expected[i] {
			t.Errorf("Unexpected page file name %q at position %d", filepath.Base(page.Path), i)
		}
		if _, err := os.Stat(page.Path); err != nil {
			t.Errorf("Expected page file %s on disk: %v", page.Path, err)
		}
	}
}

func TestIngestSecondChapterReusesSeries(t *testing.T) {
	s := createTestStore(t)
	config.Opts.Data = t.TempDir()
	w := &ChapterExtractWorker{store: s}

	meta := model.MangaCreateRequest{Title: "Berserk", Author: "Kentaro Miura", Volume: 1, Chapter: 1}
	first, err := w.ingest(model.ExtractRequest{
		ArchivePath: createTestArchive(t, t.TempDir(), []string{"p1.jpg"}),
		Meta:        meta,
	})
	if err != nil {
		t.Fatalf("Failed to ingest first chapter: %v", err)
	}

	meta.Chapter = 2
	second, err := w.ingest(model.ExtractRequest{
		ArchivePath: createTestArchive(t, t.TempDir(), []string{"p1.jpg"}),
		Meta:        meta,
	})
	if err != nil {
		t.Fatalf("Failed to ingest second chapter: %v", err)
	}

	if second.MangaID != first.MangaID {
		t.Errorf("Expected both chapters under series %d, got %d", first.MangaID, second.MangaID)
	}
	if second.VolumeID != first.VolumeID {
		t.Errorf("Expected both chapters in volume %d, got %d", first.VolumeID, second.VolumeID)
	}

	chapters, err := s.ListChapters(&model.FindChapter{MangaID: &first.MangaID})
	if err != nil {
		t.Fatalf("Failed to list chapters: %v", err)
	}
	if len(chapters) != 2 {
		t.Errorf("Expected 2 chapters, got %d", len(chapters))
	}
}

func TestIngestRejectsEmptyArchive(t *testing.T) {
	s := createTestStore(t)
	config.Opts.Data = t.TempDir()
	w := &ChapterExtractWorker{store: s}

	archivePath := createTestArchive(t, t.TempDir(), []string{"notes.txt"})
	if _, err := w.ingest(model.ExtractRequest{
		ArchivePath: archivePath,
		Meta:        model.MangaCreateRequest{Title: "Empty", Volume: 1, Chapter: 1},
	}); err == nil {
		t.Errorf("Expected an error for an archive without pages")
	}
}

func TestIngestRejectsNonZip(t *testing.T) {
	s := createTestStore(t)
	config.Opts.Data = t.TempDir()
	w := &ChapterExtractWorker{store: s}

	dir := t.TempDir()
	notZip := filepath.Join(dir, "chapter.rar")
	if err := os.WriteFile(notZip, []byte("not an archive"), 0644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}

	if _, err := w.ingest(model.ExtractRequest{
		ArchivePath: notZip,
		Meta:        model.MangaCreateRequest{Title: "Broken", Volume: 1, Chapter: 1},
	}); err == nil {
		t.Errorf("Expected an error for a non-zip file")
	}
}
