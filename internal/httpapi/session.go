package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"appcatalog/internal/errs"
)

func (s *Server) sessionRoutes(r chi.Router) {
	r.With(requireAuth(accessLoggedOut)).Post("/", s.handleLogin)

	r.Group(func(r chi.Router) {
		r.Use(requireAuth(accessLoggedIn))
		r.Get("/", s.handleCurrentSession)
		r.Delete("/", s.handleLogout)
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if !req.valid() {
		writeKey(w, errs.KeyRequestBodyInvalid)
		return
	}

	session, err := s.accounts.Login(r.Context(), *req.Email, *req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, newSessionView(session))
}

func (s *Server) handleCurrentSession(w http.ResponseWriter, r *http.Request) {
	user, _ := currentUser(r.Context())
	writeData(w, newUserView(user))
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.accounts.Logout(r.Context(), currentToken(r.Context())); err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w)
}

// handleVerify follows an emailed verification link.
func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	result, err := s.accounts.CompleteVerification(r.Context(), chi.URLParam(r, "token"))
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
