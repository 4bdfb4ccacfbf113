package handlers

import (
	"fmt"
	"net/http"

	"github.com/tradeboard/backend/src/services"
	"github.com/tradeboard/backend/src/utils"
)

type CommentHandler struct {
	commentService services.CommentService
}

func NewCommentHandler(commentService services.CommentService) *CommentHandler {
	return &CommentHandler{commentService: commentService}
}

func (h *CommentHandler) HandleGetComments(w http.ResponseWriter, r *http.Request) {
	comments, err := h.commentService.GetAll(r.Context())
	if err != nil {
		writeServiceError(w, r, "load comments", err, "No comments found")
		return
	}
	utils.SendJSON(w, http.StatusOK, map[string]any{
		"status": utils.StatusSuccess,
		"data":   comments,
	})
}

func (h *CommentHandler) HandleAddComment(w http.ResponseWriter, r *http.Request) {
	payload, ok := readPayload(w, r)
	if !ok {
		return
	}
	ticket, ok := readTicket(w, payload)
	if !ok {
		return
	}

	added, err := h.commentService.Add(r.Context(), ticket, payload)
	if err != nil {
		writeServiceError(w, r, "add comment", err, fmt.Sprintf("Trade %d not found", ticket))
		return
	}
	utils.SendJSON(w, http.StatusCreated, map[string]any{
		"status":  utils.StatusSuccess,
		"added":   added,
		"message": "Comment added",
	})
}

func (h *CommentHandler) HandleEditComment(w http.ResponseWriter, r *http.Request) {
	payload, ok := readPayload(w, r)
	if !ok {
		return
	}
	ticket, ok := readTicket(w, payload)
	if !ok {
		return
	}

	updated, err := h.commentService.Edit(r.Context(), ticket, payload)
	if err != nil {
		writeServiceError(w, r, "edit comment", err, fmt.Sprintf("Comment %d not found", ticket))
		return
	}
	utils.SendJSON(w, http.StatusOK, map[string]any{
		"status":  utils.StatusSuccess,
		"updated": updated,
		"message": "Comment updated",
	})
}

func (h *CommentHandler) HandleDeleteComment(w http.ResponseWriter, r *http.Request) {
	payload, ok := readPayload(w, r)
	if !ok {
		return
	}
	ticket, ok := readTicket(w, payload)
	if !ok {
		return
	}

	deleted, err := h.commentService.Delete(r.Context(), ticket)
	if err != nil {
		writeServiceError(w, r, "delete comment", err, fmt.Sprintf("Comment %d not found", ticket))
		return
	}
	utils.SendJSON(w, http.StatusOK, map[string]any{
		"status":  utils.StatusSuccess,
		"deleted": deleted,
		"message": fmt.Sprintf("Comment %d deleted", ticket),
	})
}
