// Package httpapi exposes the services as a JSON REST API over gorilla/mux.
package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/gophsocial/internal/logging"
	"github.com/dmitrijs2005/gophsocial/internal/server/notify"
	"github.com/dmitrijs2005/gophsocial/internal/server/services"
	"github.com/gorilla/mux"
)

// Deps are the collaborators of the HTTP handlers.
type Deps struct {
	Users     *services.UserService
	Social    *services.SocialService
	Posts     *services.PostService
	Media     *services.MediaService
	Hub       *notify.Hub
	Logger    logging.Logger
	JWTSecret []byte
}

type handlers struct {
	users     *services.UserService
	social    *services.SocialService
	posts     *services.PostService
	media     *services.MediaService
	hub       *notify.Hub
	logger    logging.Logger
	jwtSecret []byte
}

// NewRouter registers every route. Paths under /posts, /users (except the
// email link and password reset endpoints), /media and /ws require a bearer
// access token.
func NewRouter(d Deps) *mux.Router {
	h := &handlers{
		users:     d.Users,
		social:    d.Social,
		posts:     d.Posts,
		media:     d.Media,
		hub:       d.Hub,
		logger:    d.Logger.With("module", "http_server"),
		jwtSecret: d.JWTSecret,
	}

	r := mux.NewRouter()
	r.Use(requestID, h.accessLog, h.recoverer)
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, Envelope{Message: "route not found", Code: CodeNotFound})
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, Envelope{Message: "method not allowed"})
	})

	r.HandleFunc("/healthz", h.health).Methods(http.MethodGet)

	a := r.PathPrefix("/auth").Subrouter()
	a.HandleFunc("/register", h.register).Methods(http.MethodPost)
	a.HandleFunc("/login", h.login).Methods(http.MethodPost)
	a.HandleFunc("/refresh", h.refresh).Methods(http.MethodPost)

	// Links opened from emails carry their own proof.
	r.HandleFunc("/users/verify/{userId}/{token}", h.verifyEmail).Methods(http.MethodGet)
	r.HandleFunc("/users/request-passwordreset", h.requestPasswordReset).Methods(http.MethodPost)
	r.HandleFunc("/users/reset-password/{userId}/{token}", h.checkPasswordReset).Methods(http.MethodGet)
	r.HandleFunc("/users/reset-password", h.changePassword).Methods(http.MethodPost)

	u := r.PathPrefix("/users").Subrouter()
	u.Use(h.authenticate)
	u.HandleFunc("/get-user", h.getUser).Methods(http.MethodGet)
	u.HandleFunc("/get-user/{id}", h.getUser).Methods(http.MethodGet)
	u.HandleFunc("/update-user", h.updateUser).Methods(http.MethodPut)
	u.HandleFunc("/friend-request", h.listFriendRequests).Methods(http.MethodGet)
	u.HandleFunc("/friend-request", h.sendFriendRequest).Methods(http.MethodPost)
	u.HandleFunc("/accept-request", h.respondToRequest).Methods(http.MethodPost)
	u.HandleFunc("/suggested-friends", h.suggestedFriends).Methods(http.MethodGet)
	u.HandleFunc("/profile-view", h.profileView).Methods(http.MethodPost)

	p := r.PathPrefix("/posts").Subrouter()
	p.Use(h.authenticate)
	p.HandleFunc("", h.listFeed).Methods(http.MethodGet)
	p.HandleFunc("", h.createPost).Methods(http.MethodPost)
	p.HandleFunc("/upload-url", h.uploadURL).Methods(http.MethodPost)
	p.HandleFunc("/users/{id}", h.listUserPosts).Methods(http.MethodGet)
	p.HandleFunc("/comments/{postId}", h.listComments).Methods(http.MethodGet)
	p.HandleFunc("/comment/{id}", h.addComment).Methods(http.MethodPost)
	p.HandleFunc("/reply-comment/{id}", h.addReply).Methods(http.MethodPost)
	p.HandleFunc("/like/{id}", h.likePost).Methods(http.MethodPatch)
	p.HandleFunc("/like/comment/{id}", h.likeComment).Methods(http.MethodPatch)
	p.HandleFunc("/like/comment/{id}/{rid}", h.likeComment).Methods(http.MethodPatch)
	p.HandleFunc("/{id}", h.getPost).Methods(http.MethodGet)
	p.HandleFunc("/{id}", h.deletePost).Methods(http.MethodDelete)

	m := r.PathPrefix("/media").Subrouter()
	m.Use(h.authenticate)
	m.HandleFunc("/image-url", h.imageURL).Methods(http.MethodGet)

	r.Handle("/ws", h.authenticate(http.HandlerFunc(h.websocket))).Methods(http.MethodGet)

	return r
}

func (h *handlers) health(w http.ResponseWriter, r *http.Request) {
	writeOK(w, http.StatusOK, "ok", nil)
}

func (h *handlers) websocket(w http.ResponseWriter, r *http.Request) {
	h.hub.ServeWS(w, r, UserID(r.Context()))
}
