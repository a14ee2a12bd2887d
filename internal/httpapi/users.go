package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"appcatalog/internal/errs"
	"appcatalog/internal/usecase/account"
)

type credentialsRequest struct {
	Email    *string `json:"email"`
	Password *string `json:"password"`
}

func (c credentialsRequest) valid() bool {
	return c.Email != nil && c.Password != nil
}

type patchUserRequest struct {
	Email    *string `json:"email"`
	IsEditor *bool   `json:"isEditor"`
}

type patchSelfRequest struct {
	Password *string `json:"password"`
}

type patchedUserView struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	IsEditor bool   `json:"isEditor"`
}

func (s *Server) userRoutes(r chi.Router) {
	r.With(requireAuth(accessLoggedOut)).Post("/", s.handleSignUp)
	r.With(requireAuth(accessLoggedIn)).Patch("/", s.handlePatchSelf)

	r.Group(func(r chi.Router) {
		r.Use(requireAuth(accessAdmin))
		r.Get("/", s.handleListUsers)
		r.Get("/{id}", s.handleGetUser)
		r.Patch("/{id}", s.handlePatchUser)
	})
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.accounts.ListUsers(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	views := make([]userView, 0, len(users))
	for _, user := range users {
		views = append(views, newUserView(user))
	}
	writeData(w, views)
}

// handleGetUser answers data without a payload for unknown ids.
func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	user, found, err := s.accounts.GetUser(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !found {
		writeData(w, nil)
		return
	}
	writeData(w, newUserView(user))
}

func (s *Server) handleSignUp(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if !req.valid() {
		writeKey(w, errs.KeyRequestBodyInvalid)
		return
	}

	result, err := s.accounts.SignUp(r.Context(), *req.Email, *req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if result.Session != nil {
		writeData(w, newSessionView(*result.Session))
		return
	}
	writeSuccess(w)
}

func (s *Server) handlePatchUser(w http.ResponseWriter, r *http.Request) {
	var req patchUserRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	updated, err := s.accounts.PatchUser(r.Context(), chi.URLParam(r, "id"), account.PatchUserInput{
		Email:    req.Email,
		IsEditor: req.IsEditor,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, patchedUserView{ID: updated.ID, Email: updated.Email, IsEditor: updated.IsEditor})
}

// handlePatchSelf starts a password change confirmed by email.
func (s *Server) handlePatchSelf(w http.ResponseWriter, r *http.Request) {
	var req patchSelfRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.Password == nil {
		writeKey(w, errs.KeyRequestBodyInvalid)
		return
	}

	user, _ := currentUser(r.Context())
	if err := s.accounts.RequestPasswordChange(r.Context(), user, *req.Password); err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w)
}
