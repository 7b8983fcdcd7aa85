package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"
)

type createPostRequest struct {
	Description string `json:"description"`
	Image       string `json:"image"`
}

type searchRequest struct {
	Search string `json:"search"`
}

type commentRequest struct {
	Comment string `json:"comment"`
	From    string `json:"from"`
}

type replyRequest struct {
	Comment string `json:"comment"`
	ReplyAt string `json:"replyAt"`
	From    string `json:"from"`
}

func (h *handlers) createPost(w http.ResponseWriter, r *http.Request) {
	var req createPostRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	post, err := h.posts.CreatePost(r.Context(), UserID(r.Context()), req.Description, req.Image)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusCreated, "Post created successfully", post)
}

func (h *handlers) listFeed(w http.ResponseWriter, r *http.Request) {
	search := r.URL.Query().Get("search")
	if search == "" {
		var req searchRequest
		if err := decode(r, &req); err != nil {
			h.writeError(w, r, err)
			return
		}
		search = req.Search
	}
	posts, err := h.posts.ListFeed(r.Context(), UserID(r.Context()), search)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, "successfully", posts)
}

func (h *handlers) getPost(w http.ResponseWriter, r *http.Request) {
	post, err := h.posts.GetPost(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, "successfully", post)
}

func (h *handlers) listUserPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := h.posts.ListUserPosts(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, "successfully", posts)
}

func (h *handlers) likePost(w http.ResponseWriter, r *http.Request) {
	post, err := h.posts.TogglePostLike(r.Context(), UserID(r.Context()), mux.Vars(r)["id"])
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, "successfully", post)
}

// likeComment toggles a like on a comment, or on one of its replies when
// rid names a reply. The literal rid "false" targets the comment itself.
func (h *handlers) likeComment(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	userID := UserID(r.Context())

	rid := vars["rid"]
	if rid == "" || rid == "false" {
		comment, err := h.posts.ToggleCommentLike(r.Context(), userID, vars["id"])
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		writeOK(w, http.StatusOK, "successfully", comment)
		return
	}

	comment, err := h.posts.ToggleReplyLike(r.Context(), userID, vars["id"], rid)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, "successfully", comment)
}

func (h *handlers) addComment(w http.ResponseWriter, r *http.Request) {
	var req commentRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	comment, err := h.posts.AddComment(r.Context(), mux.Vars(r)["id"], UserID(r.Context()), req.Comment, req.From)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusCreated, "Comment published successfully", comment)
}

func (h *handlers) addReply(w http.ResponseWriter, r *http.Request) {
	var req replyRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	comment, err := h.posts.AddReply(r.Context(), mux.Vars(r)["id"], UserID(r.Context()), req.Comment, req.ReplyAt, req.From)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusCreated, "Reply published successfully", comment)
}

func (h *handlers) listComments(w http.ResponseWriter, r *http.Request) {
	comments, err := h.posts.ListComments(r.Context(), mux.Vars(r)["postId"])
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, "successfully", comments)
}

func (h *handlers) deletePost(w http.ResponseWriter, r *http.Request) {
	if err := h.posts.DeletePost(r.Context(), UserID(r.Context()), mux.Vars(r)["id"]); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, "Deleted successfully", nil)
}

func (h *handlers) uploadURL(w http.ResponseWriter, r *http.Request) {
	upload, err := h.media.PresignImageUpload(r.Context(), UserID(r.Context()))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusCreated, "successfully", upload)
}

func (h *handlers) imageURL(w http.ResponseWriter, r *http.Request) {
	url, err := h.media.PresignImageDownload(r.Context(), r.URL.Query().Get("key"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, "successfully", map[string]string{"url": url})
}
