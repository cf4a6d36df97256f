package v1

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/yomuhub/yomu/config"
	"github.com/yomuhub/yomu/http/request"
	"github.com/yomuhub/yomu/http/response"
	"github.com/yomuhub/yomu/log"
	"github.com/yomuhub/yomu/model"
	"github.com/yomuhub/yomu/util"
	"go.uber.org/zap"
)

// uploadChapter accepts one archive plus series metadata as multipart form
// fields and queues the ingestion. The response is the pending job so the
// client can poll /jobs.
func (h *Handler) uploadChapter(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(config.Opts.MaxUploadSize << 20); err != nil {
		log.Error("Max upload size exceeded", zap.Error(err))
		response.BadRequest(w, r, err)
		return
	}

	files := r.MultipartForm.File["file"]
	if len(files) != 1 {
		response.BadRequest(w, r, fmt.Errorf("exactly one archive is required"))
		return
	}

	meta := model.MangaCreateRequest{
		Title:       r.FormValue("title"),
		Author:      r.FormValue("author"),
		Description: r.FormValue("description"),
		ChapterName: r.FormValue("chapter_name"),
	}
	meta.Volume, _ = strconv.Atoi(r.FormValue("volume"))
	meta.Chapter, _ = strconv.Atoi(r.FormValue("chapter"))
	if meta.Title == "" {
		response.BadRequest(w, r, fmt.Errorf("title is required"))
		return
	}
	if meta.Volume < 1 || meta.Chapter < 1 {
		response.BadRequest(w, r, fmt.Errorf("volume and chapter must be at least 1"))
		return
	}

	userID := request.UserID(r)
	archivePath := filepath.Join(config.Opts.Data, "uploads",
		fmt.Sprintf("%d", userID),
		fmt.Sprintf("%s%s", util.GenUUID(), filepath.Ext(files[0].Filename)))

	job := model.Job{
		UserID: userID,
		Path:   archivePath,
		Type:   model.JobTypeChapterUpload,
		Status: model.JobStatusPending,
	}
	newJob, err := h.store.AddJob(job)
	if err != nil {
		log.Error("Failed to add job", zap.Error(err))
		response.ServerError(w, r, err)
		return
	}
	job.ID = newJob.ID
	job.Item = model.UploadRequest{FileHeader: files[0], Meta: meta}
	go h.uploadPool.Push(job)

	response.Accepted(w, r, newJob)
}

func (h *Handler) listJobs(w http.ResponseWriter, r *http.Request) {
	userID := request.UserID(r)
	if userID == 0 {
		response.Unauthorized(w, r)
		return
	}

	limit := request.QueryIntParam(r, "limit", 50)
	jobs, err := h.store.ListJobs(userID, limit)
	if err != nil {
		response.ServerError(w, r, err)
		return
	}
	response.OK(w, r, jobs)
}
