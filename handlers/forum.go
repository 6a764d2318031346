package handlers

import (
	"net/http"

	"github.com/edithfert/fertpro/models"
	"github.com/edithfert/fertpro/pkg"
	"github.com/edithfert/fertpro/services"
)

// ForumHandler serves the community forum.
type ForumHandler struct {
	forum services.ForumService
}

// NewForumHandler, constructor.
func NewForumHandler(forum services.ForumService) *ForumHandler {
	return &ForumHandler{forum: forum}
}

// List godoc
// GET /api/forum/posts
func (h *ForumHandler) List(w http.ResponseWriter, r *http.Request) {
	posts, err := h.forum.ListPosts(r.Context())
	if err != nil {
		pkg.LocalizedError(w, localizerFrom(r), err)
		return
	}
	pkg.JSON(w, http.StatusOK, posts)
}

// Create godoc
// POST /api/forum/posts
func (h *ForumHandler) Create(w http.ResponseWriter, r *http.Request) {
	session, ok := requireSession(w, r)
	if !ok {
		return
	}
	loc := localizerFrom(r)

	var req models.CreatePostRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	post, err := h.forum.CreatePost(r.Context(), session.ID, &req)
	if err != nil {
		pkg.LocalizedError(w, loc, err)
		return
	}
	pkg.JSONWithNotice(w, http.StatusCreated, post, loc.T("forum.created"))
}

// Reply godoc
// POST /api/forum/posts/{id}/replies
func (h *ForumHandler) Reply(w http.ResponseWriter, r *http.Request) {
	session, ok := requireSession(w, r)
	if !ok {
		return
	}
	loc := localizerFrom(r)

	var req models.CreateReplyRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	reply, err := h.forum.Reply(r.Context(), session.ID, r.PathValue("id"), &req)
	if err != nil {
		pkg.LocalizedError(w, loc, err)
		return
	}
	pkg.JSONWithNotice(w, http.StatusCreated, reply, loc.T("forum.replied"))
}

// Replies godoc
// GET /api/forum/posts/{id}/replies
func (h *ForumHandler) Replies(w http.ResponseWriter, r *http.Request) {
	replies, err := h.forum.Replies(r.Context(), r.PathValue("id"))
	if err != nil {
		pkg.LocalizedError(w, localizerFrom(r), err)
		return
	}
	pkg.JSON(w, http.StatusOK, replies)
}
