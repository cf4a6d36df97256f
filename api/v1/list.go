package v1

import (
	"encoding/json"
	"net/http"

	"github.com/yomuhub/yomu/http/request"
	"github.com/yomuhub/yomu/http/response"
	"github.com/yomuhub/yomu/log"
	"github.com/yomuhub/yomu/model"
	"github.com/yomuhub/yomu/validator"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

func (h *Handler) listUserLists(w http.ResponseWriter, r *http.Request) {
	userID := request.UserID(r)
	if userID == 0 {
		response.Unauthorized(w, r)
		return
	}

	lists, err := h.store.ListUserLists(&model.FindUserList{UserID: &userID})
	if err != nil {
		response.ServerError(w, r, err)
		return
	}
	response.OK(w, r, lists)
}

func (h *Handler) createUserList(w http.ResponseWriter, r *http.Request) {
	userID := request.UserID(r)
	if userID == 0 {
		response.Unauthorized(w, r)
		return
	}

	var req model.UserListCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("Failed to decode request body", zap.Error(err))
		response.BadRequest(w, r, err)
		return
	}
	if err := validator.ValidateListCreateRequest(&req); err != nil {
		response.BadRequest(w, r, err)
		return
	}

	list, err := h.store.AddUserList(&model.UserList{
		UserID:   userID,
		Name:     req.Name,
		IsPublic: req.IsPublic,
	})
	if err != nil {
		response.ServerError(w, r, err)
		return
	}
	response.Created(w, r, list)
}

func (h *Handler) deleteUserList(w http.ResponseWriter, r *http.Request) {
	userID := request.UserID(r)
	if userID == 0 {
		response.Unauthorized(w, r)
		return
	}

	listID := request.RouteInt64Param(r, "listID")
	if listID == 0 {
		response.BadRequest(w, r, errors.New("invalid list id"))
		return
	}

	if err := h.store.RemoveUserList(listID, userID); err != nil {
		response.ServerError(w, r, err)
		return
	}
	response.NoContent(w, r)
}

// ownedList loads the list and checks it belongs to the requester, unless it
// is public and the access is read-only.
func (h *Handler) ownedList(r *http.Request, listID int64, readOnly bool) (*model.UserList, error) {
	list, err := h.store.GetUserList(&model.FindUserList{ID: &listID})
	if err != nil {
		return nil, err
	}
	if list == nil {
		return nil, nil
	}
	if list.UserID != request.UserID(r) && !(readOnly && list.IsPublic) {
		return nil, nil
	}
	return list, nil
}

func (h *Handler) listEntries(w http.ResponseWriter, r *http.Request) {
	listID := request.RouteInt64Param(r, "listID")
	if listID == 0 {
		response.BadRequest(w, r, errors.New("invalid list id"))
		return
	}

	list, err := h.ownedList(r, listID, true)
	if err != nil {
		response.ServerError(w, r, err)
		return
	}
	if list == nil {
		response.NotFound(w, r)
		return
	}

	entries, err := h.store.ListEntries(listID)
	if err != nil {
		response.ServerError(w, r, err)
		return
	}
	response.OK(w, r, entries)
}

func (h *Handler) upsertListEntry(w http.ResponseWriter, r *http.Request) {
	userID := request.UserID(r)
	if userID == 0 {
		response.Unauthorized(w, r)
		return
	}

	listID := request.RouteInt64Param(r, "listID")
	if listID == 0 {
		response.BadRequest(w, r, errors.New("invalid list id"))
		return
	}

	var req model.UserListEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("Failed to decode request body", zap.Error(err))
		response.BadRequest(w, r, err)
		return
	}
	if err := validator.ValidateListEntryRequest(&req); err != nil {
		response.BadRequest(w, r, err)
		return
	}

	list, err := h.ownedList(r, listID, false)
	if err != nil {
		response.ServerError(w, r, err)
		return
	}
	if list == nil {
		response.NotFound(w, r)
		return
	}

	if !h.store.CheckManga(req.MangaID) {
		response.NotFound(w, r)
		return
	}

	entry, err := h.store.UpsertListEntry(&model.UserListEntry{
		ListID:  listID,
		MangaID: req.MangaID,
		Rating:  req.Rating,
		Notes:   req.Notes,
	})
	if err != nil {
		response.ServerError(w, r, err)
		return
	}

	// Ratings feed the cold-start ranking, drop the stale cache.
	h.engine.ClearUserCache(r.Context(), userID)

	response.OK(w, r, entry)
}

func (h *Handler) removeListEntry(w http.ResponseWriter, r *http.Request) {
	userID := request.UserID(r)
	if userID == 0 {
		response.Unauthorized(w, r)
		return
	}

	listID := request.RouteInt64Param(r, "listID")
	mangaID := request.RouteInt64Param(r, "mangaID")
	if listID == 0 || mangaID == 0 {
		response.BadRequest(w, r, errors.New("invalid list or manga id"))
		return
	}

	list, err := h.ownedList(r, listID, false)
	if err != nil {
		response.ServerError(w, r, err)
		return
	}
	if list == nil {
		response.NotFound(w, r)
		return
	}

	if err := h.store.RemoveListEntry(listID, mangaID); err != nil {
		response.ServerError(w, r, err)
		return
	}
	response.NoContent(w, r)
}

func (h *Handler) listFavorites(w http.ResponseWriter, r *http.Request) {
	userID := request.UserID(r)
	if userID == 0 {
		response.Unauthorized(w, r)
		return
	}

	ids, err := h.store.ListFavoriteMangaIDs(userID)
	if err != nil {
		response.ServerError(w, r, err)
		return
	}

	list, err := h.store.ListMangaByIDs(ids, false)
	if err != nil {
		response.ServerError(w, r, err)
		return
	}
	response.OK(w, r, list)
}

func (h *Handler) addFavorite(w http.ResponseWriter, r *http.Request) {
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
	if !h.store.CheckManga(mangaID) {
		response.NotFound(w, r)
		return
	}

	favorite, err := h.store.AddFavorite(userID, mangaID)
	if err != nil {
		response.ServerError(w, r, err)
		return
	}

	h.engine.ClearUserCache(r.Context(), userID)

	response.OK(w, r, favorite)
}

func (h *Handler) removeFavorite(w http.ResponseWriter, r *http.Request) {
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

	if err := h.store.RemoveFavorite(userID, mangaID); err != nil {
		response.ServerError(w, r, err)
		return
	}

	h.engine.ClearUserCache(r.Context(), userID)

	response.NoContent(w, r)
}
