package v1

import (
	"net/http"

	"github.com/yomuhub/yomu/http/request"
	"github.com/yomuhub/yomu/http/response"
	"github.com/yomuhub/yomu/model"
	"github.com/pkg/errors"
)

// Catalog reads are public and only ever show published rows.

func (h *Handler) listManga(w http.ResponseWriter, r *http.Request) {
	find := &model.FindManga{PublishedOnly: true}

	if v := r.URL.Query().Get("author"); v != "" {
		find.Author = &v
	}
	if v := request.QueryIntParam(r, "limit", 0); v > 0 {
		find.Limit = &v
	}

	list, err := h.store.ListManga(find)
	if err != nil {
		response.ServerError(w, r, err)
		return
	}
	response.OK(w, r, list)
}

func (h *Handler) getManga(w http.ResponseWriter, r *http.Request) {
	mangaID := request.RouteInt64Param(r, "mangaID")
	if mangaID == 0 {
		response.BadRequest(w, r, errors.New("invalid manga id"))
		return
	}

	manga, err := h.store.GetManga(&model.FindManga{ID: &mangaID, PublishedOnly: true})
	if err != nil {
		response.ServerError(w, r, err)
		return
	}
	if manga == nil {
		response.NotFound(w, r)
		return
	}
	response.OK(w, r, manga)
}

func (h *Handler) listVolumes(w http.ResponseWriter, r *http.Request) {
	mangaID := request.RouteInt64Param(r, "mangaID")
	if mangaID == 0 {
		response.BadRequest(w, r, errors.New("invalid manga id"))
		return
	}

	volumes, err := h.store.ListVolumes(mangaID, true)
	if err != nil {
		response.ServerError(w, r, err)
		return
	}
	response.OK(w, r, volumes)
}

func (h *Handler) listChapters(w http.ResponseWriter, r *http.Request) {
	mangaID := request.RouteInt64Param(r, "mangaID")
	if mangaID == 0 {
		response.BadRequest(w, r, errors.New("invalid manga id"))
		return
	}

	find := &model.FindChapter{MangaID: &mangaID, PublishedOnly: true}
	if v := request.QueryInt64Param(r, "volume_id"); v != 0 {
		find.VolumeID = &v
	}

	chapters, err := h.store.ListChapters(find)
	if err != nil {
		response.ServerError(w, r, err)
		return
	}
	response.OK(w, r, chapters)
}

func (h *Handler) listPages(w http.ResponseWriter, r *http.Request) {
	chapterID := request.RouteInt64Param(r, "chapterID")
	if chapterID == 0 {
		response.BadRequest(w, r, errors.New("invalid chapter id"))
		return
	}

	chapter, err := h.store.GetChapter(&model.FindChapter{ID: &chapterID, PublishedOnly: true})
	if err != nil {
		response.ServerError(w, r, err)
		return
	}
	if chapter == nil {
		response.NotFound(w, r)
		return
	}

	pages, err := h.store.ListPages(chapterID)
	if err != nil {
		response.ServerError(w, r, err)
		return
	}
	response.OK(w, r, pages)
}
