package httpapi

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/gophsocial/internal/common"
	"github.com/dmitrijs2005/gophsocial/internal/server/models"
	"github.com/dmitrijs2005/gophsocial/internal/server/services"
	"github.com/gorilla/mux"
)

type registerRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	User         *models.User `json:"user"`
	Token        string       `json:"token"`
	RefreshToken string       `json:"refreshToken"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type emailRequest struct {
	Email string `json:"email"`
}

type changePasswordRequest struct {
	UserID   string `json:"userId"`
	Token    string `json:"token"`
	Password string `json:"password"`
}

type updateUserRequest struct {
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	Location   string `json:"location"`
	Profession string `json:"profession"`
	ProfileURL string `json:"profileUrl"`
}

type updateUserResponse struct {
	User  *models.UserDetails `json:"user"`
	Token string              `json:"token"`
}

type friendRequestRequest struct {
	RequestTo string `json:"requestTo"`
}

type acceptRequestRequest struct {
	RID    string               `json:"rid"`
	Status models.RequestStatus `json:"status"`
}

type profileViewRequest struct {
	ID string `json:"id"`
}

func (h *handlers) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	user, err := h.users.Register(r.Context(), services.Registration{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  req.Password,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusCreated, "User created successfully, a verification email has been sent to your account", user)
}

func (h *handlers) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	pair, user, err := h.users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, common.ErrorUnauthorized) {
			err = fmt.Errorf("%w: invalid email or password", common.ErrorUnauthorized)
		}
		h.writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, "Login successfully", loginResponse{User: user, Token: pair.AccessToken, RefreshToken: pair.RefreshToken})
}

func (h *handlers) refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	pair, err := h.users.RefreshToken(r.Context(), req.RefreshToken)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, "Token refreshed", pair)
}

func (h *handlers) verifyEmail(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if err := h.users.VerifyEmail(r.Context(), vars["userId"], vars["token"]); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, "Email verified successfully", nil)
}

func (h *handlers) requestPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	err := h.users.RequestPasswordReset(r.Context(), req.Email)
	if errors.Is(err, common.ErrResetPending) {
		writeJSON(w, http.StatusCreated, Envelope{
			Success: true,
			Message: "Reset password link has already been sent to your email.",
			Code:    CodePending,
		})
		return
	}
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusCreated, "Reset password link has been sent to your email.", nil)
}

func (h *handlers) checkPasswordReset(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if err := h.users.CheckPasswordReset(r.Context(), vars["userId"], vars["token"]); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, "Reset link is valid", map[string]string{"userId": vars["userId"]})
}

func (h *handlers) changePassword(w http.ResponseWriter, r *http.Request) {
	var req changePasswordRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.users.ChangePassword(r.Context(), req.UserID, req.Token, req.Password); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, "Password changed successfully", nil)
}

func (h *handlers) getUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.GetUser(r.Context(), UserID(r.Context()), mux.Vars(r)["id"])
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, "Successfully", user)
}

func (h *handlers) updateUser(w http.ResponseWriter, r *http.Request) {
	var req updateUserRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	user, token, err := h.users.UpdateUser(r.Context(), UserID(r.Context()), models.ProfileUpdate{
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		Location:   req.Location,
		Profession: req.Profession,
		ProfileURL: req.ProfileURL,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, "User updated successfully", updateUserResponse{User: user, Token: token})
}

func (h *handlers) listFriendRequests(w http.ResponseWriter, r *http.Request) {
	requests, err := h.social.ListPendingRequests(r.Context(), UserID(r.Context()))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, "Successfully", requests)
}

func (h *handlers) sendFriendRequest(w http.ResponseWriter, r *http.Request) {
	var req friendRequestRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	fr, err := h.social.SendFriendRequest(r.Context(), UserID(r.Context()), req.RequestTo)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusCreated, "Friend Request sent successfully", fr)
}

func (h *handlers) respondToRequest(w http.ResponseWriter, r *http.Request) {
	var req acceptRequestRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	fr, err := h.social.RespondToRequest(r.Context(), UserID(r.Context()), req.RID, req.Status)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, "Friend Request "+string(fr.Status), fr)
}

func (h *handlers) suggestedFriends(w http.ResponseWriter, r *http.Request) {
	out, err := h.social.SuggestFriends(r.Context(), UserID(r.Context()))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, "Successfully", out)
}

func (h *handlers) profileView(w http.ResponseWriter, r *http.Request) {
	var req profileViewRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.social.RecordProfileView(r.Context(), UserID(r.Context()), req.ID); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusCreated, "Successfully", nil)
}
