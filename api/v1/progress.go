package v1

import (
	"encoding/json"
	"net/http"

	"github.com/yomuhub/yomu/http/request"
	"github.com/yomuhub/yomu/http/response"
	"github.com/yomuhub/yomu/log"
	"github.com/yomuhub/yomu/model"
	"github.com/yomuhub/yomu/progress"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

func (h *Handler) saveProgress(w http.ResponseWriter, r *http.Request) {
	userID := request.UserID(r)
	if userID == 0 {
		response.Unauthorized(w, r)
		return
	}

	var req model.SaveProgressRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("Failed to decode request body", zap.Error(err))
		response.BadRequest(w, r, err)
		return
	}
	if req.MangaID <= 0 || req.ChapterID <= 0 {
		response.BadRequest(w, r, errors.New("manga_id and chapter_id are required"))
		return
	}

	saved, err := h.progress.SaveProgress(userID, req.MangaID, req.ChapterID, req.CurrentPage, req.TotalPages, req.ReadingTimeDelta)
	if err != nil {
		if errors.Is(err, progress.ErrChapterNotFound) {
			response.NotFound(w, r)
			return
		}
		response.ServerError(w, r, err)
		return
	}

	// The reading profile changed, cached rankings are stale now.
	h.engine.ClearUserCache(r.Context(), userID)

	response.OK(w, r, saved)
}

func (h *Handler) getProgress(w http.ResponseWriter, r *http.Request) {
	userID := request.UserID(r)
	if userID == 0 {
		response.Unauthorized(w, r)
		return
	}

	mangaID := request.RouteInt64Param(r, "mangaID")
	if mangaID == 0 {
		response.BadRequest(w, r, errors.New("invalid manga id"))
		return
	}

	var chapterID *int64
	if v := request.QueryInt64Param(r, "chapter_id"); v != 0 {
		chapterID = &v
	}

	progress, err := h.progress.GetProgress(userID, mangaID, chapterID)
	if err != nil {
		response.ServerError(w, r, err)
		return
	}
	if progress == nil {
		response.NotFound(w, r)
		return
	}

	response.OK(w, r, progress)
}

func (h *Handler) markChapterCompleted(w http.ResponseWriter, r *http.Request) {
	userID := request.UserID(r)
	if userID == 0 {
		response.Unauthorized(w, r)
		return
	}

	mangaID := request.RouteInt64Param(r, "mangaID")
	chapterID := request.RouteInt64Param(r, "chapterID")
	if mangaID == 0 || chapterID == 0 {
		response.BadRequest(w, r, errors.New("invalid manga or chapter id"))
		return
	}

	var req struct {
		ReadingTimeDelta int64 `json:"reading_time_delta"`
	}
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			log.Error("Failed to decode request body", zap.Error(err))
			response.BadRequest(w, r, err)
			return
		}
	}

	saved, err := h.progress.MarkChapterCompleted(userID, mangaID, chapterID, req.ReadingTimeDelta)
	if err != nil {
		if errors.Is(err, progress.ErrChapterNotFound) {
			response.NotFound(w, r)
			return
		}
		response.ServerError(w, r, err)
		return
	}

	h.engine.ClearUserCache(r.Context(), userID)

	response.OK(w, r, saved)
}

func (h *Handler) mangaStatistics(w http.ResponseWriter, r *http.Request) {
	userID := request.UserID(r)
	if userID == 0 {
		response.Unauthorized(w, r)
		return
	}

	mangaID := request.RouteInt64Param(r, "mangaID")
	if mangaID == 0 {
		response.BadRequest(w, r, errors.New("invalid manga id"))
		return
	}

	stats, err := h.progress.GetMangaStatistics(userID, mangaID)
	if err != nil {
		response.ServerError(w, r, err)
		return
	}

	response.OK(w, r, stats)
}

func (h *Handler) continueReading(w http.ResponseWriter, r *http.Request) {
	userID := request.UserID(r)
	if userID == 0 {
		response.Unauthorized(w, r)
		return
	}

	limit := request.QueryIntParam(r, "limit", 10)
	entries, err := h.progress.ContinueReading(userID, limit)
	if err != nil {
		response.ServerError(w, r, err)
		return
	}

	response.OK(w, r, entries)
}
