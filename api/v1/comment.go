package v1

import (
	"encoding/json"
	"net/http"

	"github.com/yomuhub/yomu/http/request"
	"github.com/yomuhub/yomu/http/response"
	"github.com/yomuhub/yomu/log"
	"github.com/yomuhub/yomu/model"
	"github.com/yomuhub/yomu/validator"
	"github.com/yomuhub/yomu/ws"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

func (h *Handler) listComments(w http.ResponseWriter, r *http.Request) {
	mangaID := request.RouteInt64Param(r, "mangaID")
	if mangaID == 0 {
		response.BadRequest(w, r, errors.New("invalid manga id"))
		return
	}

	find := &model.FindComment{MangaID: &mangaID}
	if v := request.QueryInt64Param(r, "chapter_id"); v != 0 {
		find.ChapterID = &v
	}
	if v := request.QueryIntParam(r, "limit", 0); v > 0 {
		find.Limit = &v
	}

	comments, err := h.store.ListComments(find)
	if err != nil {
		response.ServerError(w, r, err)
		return
	}
	response.OK(w, r, comments)
}

func (h *Handler) createComment(w http.ResponseWriter, r *http.Request) {
	userID := request.UserID(r)
	if userID == 0 {
		response.Unauthorized(w, r)
		return
	}

	var req model.CommentCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("Failed to decode request body", zap.Error(err))
		response.BadRequest(w, r, err)
		return
	}
	if err := validator.ValidateCommentCreateRequest(&req); err != nil {
		response.BadRequest(w, r, err)
		return
	}
	if !h.store.CheckManga(req.MangaID) {
		response.NotFound(w, r)
		return
	}

	comment, err := h.store.AddComment(&model.Comment{
		UserID:    userID,
		MangaID:   req.MangaID,
		ChapterID: req.ChapterID,
		Content:   req.Content,
	})
	if err != nil {
		response.ServerError(w, r, err)
		return
	}

	h.broadcastComment("created", comment, userID)

	response.Created(w, r, comment)
}

func (h *Handler) updateComment(w http.ResponseWriter, r *http.Request) {
	userID := request.UserID(r)
	if userID == 0 {
		response.Unauthorized(w, r)
		return
	}

	commentID := request.RouteInt64Param(r, "commentID")
	if commentID == 0 {
		response.BadRequest(w, r, errors.New("invalid comment id"))
		return
	}

	var req struct {
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("Failed to decode request body", zap.Error(err))
		response.BadRequest(w, r, err)
		return
	}
	if err := validator.ValidateCommentContent(req.Content); err != nil {
		response.BadRequest(w, r, err)
		return
	}

	// UpdateComment is author scoped, someone else's comment comes back as
	// no rows.
	comment, err := h.store.UpdateComment(commentID, userID, req.Content)
	if err != nil {
		response.NotFound(w, r)
		return
	}

	h.broadcastComment("updated", comment, userID)

	response.OK(w, r, comment)
}

func (h *Handler) deleteComment(w http.ResponseWriter, r *http.Request) {
	userID := request.UserID(r)
	if userID == 0 {
		response.Unauthorized(w, r)
		return
	}

	commentID := request.RouteInt64Param(r, "commentID")
	if commentID == 0 {
		response.BadRequest(w, r, errors.New("invalid comment id"))
		return
	}

	comment, err := h.store.GetComment(commentID)
	if err != nil {
		response.ServerError(w, r, err)
		return
	}
	if comment == nil || comment.UserID != userID {
		response.NotFound(w, r)
		return
	}

	if err := h.store.RemoveComment(commentID, userID); err != nil {
		response.ServerError(w, r, err)
		return
	}

	h.broadcastComment("deleted", comment, userID)

	response.NoContent(w, r)
}

func (h *Handler) serveCommentStream(w http.ResponseWriter, r *http.Request) {
	ws.ServeWS(h.hub, w, r)
}

func (h *Handler) broadcastComment(eventType string, comment *model.Comment, userID int32) {
	username := ""
	if user, err := h.store.GetUser(&model.FindUser{ID: &userID}); err == nil && user != nil {
		username = user.Username
	}
	h.hub.BroadcastComment(comment.MangaID, &model.CommentEvent{
		Type:     eventType,
		Comment:  comment,
		Username: username,
	})
}
