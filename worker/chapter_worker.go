package worker // import "github.com/yomuhub/yomu/worker"

import (
	"archive/zip"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/yomuhub/yomu/config"
	"github.com/yomuhub/yomu/log"
	"github.com/yomuhub/yomu/metrics"
	"github.com/yomuhub/yomu/model"
	"github.com/yomuhub/yomu/store"
	"github.com/yomuhub/yomu/util"
	"go.uber.org/zap"
)

var pageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
	".gif":  true,
}

type ChapterUploadPool struct {
	queue chan model.Job
}

func NewUploadPool(store *store.Store, extractPool WorkPool, size int) *ChapterUploadPool {
	pool := &ChapterUploadPool{
		queue: make(chan model.Job),
	}

	for i := 0; i < size; i++ {
		worker := &ChapterUploadWorker{id: i, store: store, extractPool: extractPool}
		go worker.Run(pool.queue)
	}

	return pool
}

// Implement WorkPool interface
func (p *ChapterUploadPool) Push(job model.Job) {
	p.queue <- job
}

type ChapterUploadWorker struct {
	id          int
	store       *store.Store
	extractPool WorkPool
}

// Run persists uploaded archives to disk and hands them to the extract pool.
func (w *ChapterUploadWorker) Run(c <-chan model.Job) {
	log.Debug("ChapterUploadWorker is running", zap.Int("worker_id", w.id))

	for {
		job := <-c

		log.Debug("Job received by worker",
			zap.Int("worker_id", w.id),
			zap.Int64("job_id", job.ID),
			zap.Int32("user_id", job.UserID))

		if err := w.store.SetJobStatus(job.ID, model.JobStatusRunning, ""); err != nil {
			log.Error("Error updating job status", zap.Error(err))
		}

		upload, ok := job.Item.(model.UploadRequest)
		if !ok {
			w.fail(job, "missing upload payload")
			continue
		}

		if err := w.saveArchive(&job, upload); err != nil {
			w.fail(job, err.Error())
			continue
		}

		if err := w.store.SetJobStatus(job.ID, model.JobStatusDone, ""); err != nil {
			log.Error("Error updating job status", zap.Error(err))
		}
		metrics.IngestJobsTotal.WithLabelValues(model.JobTypeChapterUpload, model.JobStatusDone).Inc()

		extractJob := model.Job{
			UserID: job.UserID,
			Path:   job.Path,
			Type:   model.JobTypeChapterExtract,
			Status: model.JobStatusPending,
		}
		persisted, err := w.store.AddJob(extractJob)
		if err != nil {
			log.Error("Error adding extract job", zap.Error(err))
			continue
		}
		extractJob.ID = persisted.ID
		extractJob.Item = model.ExtractRequest{ArchivePath: job.Path, Meta: upload.Meta}
		w.extractPool.Push(extractJob)

		log.Debug("Archive uploaded successfully",
			zap.String("file_name", upload.FileHeader.Filename),
			zap.Int32("user_id", job.UserID),
			zap.Int64("job_id", job.ID))
	}
}

func (w *ChapterUploadWorker) saveArchive(job *model.Job, upload model.UploadRequest) error {
	file, err := upload.FileHeader.Open()
	if err != nil {
		return fmt.Errorf("error opening upload: %w", err)
	}
	defer file.Close()

	// Sniff the real content type, the client supplied one is not trusted.
	buff := make([]byte, 512)
	n, err := file.Read(buff)
	if err != nil && err != io.EOF {
		return fmt.Errorf("error reading upload: %w", err)
	}
	fileType := http.DetectContentType(buff[:n])
	if !isSupportedType(fileType, config.Opts.SupportedTypes) {
		return fmt.Errorf("unsupported file type: %s", fileType)
	}

	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("error seeking upload: %w", err)
	}

	if _, err := os.Stat(filepath.Dir(job.Path)); os.IsNotExist(err) {
		if err := os.MkdirAll(filepath.Dir(job.Path), os.ModePerm); err != nil {
			return fmt.Errorf("error creating upload dir: %w", err)
		}
	}

	f, err := os.Create(job.Path)
	if err != nil {
		return fmt.Errorf("error creating file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, file); err != nil {
		return fmt.Errorf("error copying file: %w", err)
	}
	return nil
}

func (w *ChapterUploadWorker) fail(job model.Job, detail string) {
	log.Error("Upload job failed", zap.Int64("job_id", job.ID), zap.String("detail", detail))
	if err := w.store.SetJobStatus(job.ID, model.JobStatusFailed, detail); err != nil {
		log.Error("Error updating job status", zap.Error(err))
	}
	metrics.IngestJobsTotal.WithLabelValues(model.JobTypeChapterUpload, model.JobStatusFailed).Inc()
}

func isSupportedType(fileType string, supportType []string) bool {
	for _, t := range supportType {
		if t == fileType {
			return true
		}
	}
	return false
}

type ChapterExtractPool struct {
	queue chan model.Job
}

func NewExtractPool(store *store.Store, size int) *ChapterExtractPool {
	pool := &ChapterExtractPool{
		queue: make(chan model.Job),
	}

	for i := 0; i < size; i++ {
		worker := &ChapterExtractWorker{id: i, store: store}
		go worker.Run(pool.queue)
	}

	return pool
}

// Implement WorkPool interface
func (p *ChapterExtractPool) Push(job model.Job) {
	p.queue <- job
}

type ChapterExtractWorker struct {
	id    int
	store *store.Store
}

func (w *ChapterExtractWorker) Run(c <-chan model.Job) {
	log.Debug("ChapterExtractWorker is running", zap.Int("worker_id", w.id))

	for {
		job := <-c

		log.Debug("Job received by worker",
			zap.Int("worker_id", w.id),
			zap.Int64("job_id", job.ID),
			zap.String("path", job.Path))

		if err := w.store.SetJobStatus(job.ID, model.JobStatusRunning, ""); err != nil {
			log.Error("Error updating job status", zap.Error(err))
		}

		extract, ok := job.Item.(model.ExtractRequest)
		if !ok {
			w.fail(job, "missing extract payload")
			continue
		}

		chapter, err := w.ingest(extract)
		if err != nil {
			w.fail(job, err.Error())
			continue
		}

		if err := w.store.SetJobStatus(job.ID, model.JobStatusDone, ""); err != nil {
			log.Error("Error updating job status", zap.Error(err))
		}
		metrics.IngestJobsTotal.WithLabelValues(model.JobTypeChapterExtract, model.JobStatusDone).Inc()

		log.Info("Chapter ingested",
			zap.Int64("chapter_id", chapter.ID),
			zap.Int64("manga_id", chapter.MangaID),
			zap.Int("page_count", chapter.PageCount))
	}
}

func (w *ChapterExtractWorker) fail(job model.Job, detail string) {
	log.Error("Extract job failed", zap.Int64("job_id", job.ID), zap.String("detail", detail))
	if err := w.store.SetJobStatus(job.ID, model.JobStatusFailed, detail); err != nil {
		log.Error("Error updating job status", zap.Error(err))
	}
	metrics.IngestJobsTotal.WithLabelValues(model.JobTypeChapterExtract, model.JobStatusFailed).Inc()
}

// ingest unpacks the archive into the page directory and registers the
// manga, volume, chapter and pages in the catalog.
func (w *ChapterExtractWorker) ingest(extract model.ExtractRequest) (*model.Chapter, error) {
	meta := extract.Meta

	reader, err := zip.OpenReader(extract.ArchivePath)
	if err != nil {
		return nil, fmt.Errorf("unsupported archive format: %v", err)
	}
	defer reader.Close()

	manga, err := w.store.GetOrCreateManga(&model.Manga{
		Title:       meta.Title,
		SortTitle:   util.TitleSort(meta.Title),
		Author:      meta.Author,
		AuthorSort:  util.GetSortedAuthor(meta.Author),
		Description: meta.Description,
		Status:      model.MangaStatusOngoing,
	})
	if err != nil {
		return nil, fmt.Errorf("error registering manga: %v", err)
	}

	volume, err := w.store.GetOrCreateVolume(manga.ID, meta.Volume, "")
	if err != nil {
		return nil, fmt.Errorf("error registering volume: %v", err)
	}

	pageDir := filepath.Join(config.Opts.Data, "manga",
		fmt.Sprintf("%d", manga.ID),
		fmt.Sprintf("v%d", volume.Number),
		fmt.Sprintf("c%d", meta.Chapter))
	pageDir = util.GenerateNewDirName(pageDir)
	if err := os.MkdirAll(pageDir, os.ModePerm); err != nil {
		return nil, fmt.Errorf("error creating page dir: %v", err)
	}

	paths, err := extractPages(&reader.Reader, pageDir)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("archive contains no pages")
	}

	chapter, err := w.store.AddChapter(&model.Chapter{
		MangaID:   manga.ID,
		VolumeID:  volume.ID,
		Number:    meta.Chapter,
		Title:     meta.ChapterName,
		PageCount: len(paths),
	})
	if err != nil {
		return nil, fmt.Errorf("error registering chapter: %v", err)
	}

	if err := w.store.AddPages(chapter.ID, paths); err != nil {
		return nil, fmt.Errorf("error registering pages: %v", err)
	}

	// The chapter only becomes visible once every page is on disk and
	// registered.
	if err := w.store.PublishChapter(chapter.ID); err != nil {
		return nil, fmt.Errorf("error publishing chapter: %v", err)
	}
	if err := w.store.PublishManga(manga.ID); err != nil {
		return nil, fmt.Errorf("error publishing manga: %v", err)
	}

	chapter.PageCount = len(paths)
	chapter.IsPublished = true
	return chapter, nil
}

// extractPages writes the image entries to destDir in reading order and
// returns the written paths.
func extractPages(reader *zip.Reader, destDir string) ([]string, error) {
	entries := make([]*zip.File, 0, len(reader.File))
	for _, f := range reader.File {
		if f.FileInfo().IsDir() {
			continue
		}
		name := filepath.Base(f.Name)
		if strings.HasPrefix(name, ".") || strings.HasPrefix(f.Name, "__MACOSX") {
			continue
		}
		if !pageExtensions[strings.ToLower(filepath.Ext(name))] {
			continue
		}
		entries = append(entries, f)
	}

	// Scanner archives rarely zero-pad page numbers.
	sort.Slice(entries, func(i, j int) bool {
		return util.NaturalLess(entries[i].Name, entries[j].Name)
	})

	paths := make([]string, 0, len(entries))
	for i, entry := range entries {
		dest := filepath.Join(destDir, fmt.Sprintf("%04d%s", i+1, strings.ToLower(filepath.Ext(entry.Name))))
		if err := writeZipEntry(entry, dest); err != nil {
			return nil, err
		}
		paths = append(paths, dest)
	}
	return paths, nil
}

func writeZipEntry(entry *zip.File, dest string) error {
	src, err := entry.Open()
	if err != nil {
		return fmt.Errorf("error opening archive entry %s: %v", entry.Name, err)
	}
	defer src.Close()

	f, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("error creating page file: %v", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, src); err != nil {
		return fmt.Errorf("error writing page file: %v", err)
	}
	return nil
}
