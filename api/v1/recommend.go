package v1

import (
	"net/http"

	"github.com/yomuhub/yomu/http/request"
	"github.com/yomuhub/yomu/http/response"
	"github.com/pkg/errors"
)

const defaultFeedLimit = 20

// recommendations serves the personalized ranking; anonymous requests fall
// back to global popularity.
func (h *Handler) recommendations(w http.ResponseWriter, r *http.Request) {
	limit := request.QueryIntParam(r, "limit", defaultFeedLimit)

	list, err := h.engine.GetRecommendationsForUser(r.Context(), request.UserID(r), limit)
	if err != nil {
		response.ServerError(w, r, err)
		return
	}
	response.OK(w, r, list)
}

func (h *Handler) popularManga(w http.ResponseWriter, r *http.Request) {
	limit := request.QueryIntParam(r, "limit", defaultFeedLimit)

	list, err := h.engine.GetPopularMangas(r.Context(), limit)
	if err != nil {
		response.ServerError(w, r, err)
		return
	}
	response.OK(w, r, list)
}

func (h *Handler) trendingManga(w http.ResponseWriter, r *http.Request) {
	limit := request.QueryIntParam(r, "limit", defaultFeedLimit)

	list, err := h.engine.GetTrending(limit)
	if err != nil {
		response.ServerError(w, r, err)
		return
	}
	response.OK(w, r, list)
}

func (h *Handler) recentlyAddedManga(w http.ResponseWriter, r *http.Request) {
	limit := request.QueryIntParam(r, "limit", defaultFeedLimit)

	list, err := h.engine.GetRecentlyAdded(limit)
	if err != nil {
		response.ServerError(w, r, err)
		return
	}
	response.OK(w, r, list)
}

func (h *Handler) newUserManga(w http.ResponseWriter, r *http.Request) {
	limit := request.QueryIntParam(r, "limit", defaultFeedLimit)

	list, err := h.engine.GetNewUserRecommendations(limit)
	if err != nil {
		response.ServerError(w, r, err)
		return
	}
	response.OK(w, r, list)
}

func (h *Handler) similarManga(w http.ResponseWriter, r *http.Request) {
	mangaID := request.RouteInt64Param(r, "mangaID")
	if mangaID == 0 {
		response.BadRequest(w, r, errors.New("invalid manga id"))
		return
	}
	limit := request.QueryIntParam(r, "limit", defaultFeedLimit)

	list, err := h.engine.GetSimilarManga(mangaID, limit)
	if err != nil {
		response.ServerError(w, r, err)
		return
	}
	response.OK(w, r, list)
}
